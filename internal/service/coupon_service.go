package service

import (
	"context"
	"errors"
	"time"

	"homeserve/internal/model"
	"homeserve/internal/repository"

	"gorm.io/gorm"
)

var (
	ErrCouponInactive       = errors.New("优惠券已停用")
	ErrCouponExpired        = errors.New("优惠券已过期")
	ErrCouponBelowMinCart   = errors.New("订单金额未达到优惠券使用门槛")
	ErrCouponLimitExceeded  = errors.New("优惠券使用次数已达上限")
	ErrInvalidDiscountType  = errors.New("折扣类型不合法")
	ErrInvalidDiscountValue = errors.New("折扣数值不合法")
)

type CouponService struct {
	couponRepo *repository.CouponRepository
}

func NewCouponService(db *gorm.DB) *CouponService {
	return &CouponService{
		couponRepo: repository.NewCouponRepository(db),
	}
}

// Validate 校验优惠券并计算折扣，完全无副作用
//
// 按序快速失败，每种失败给出独立原因：
// 1. 券存在且启用  2. 未过期  3. 达到起用金额  4. 还有剩余次数
//
// UsedCount 的 +1 只发生在结算核销成功那一刻，校验/预览绝不消耗次数
func (s *CouponService) Validate(ctx context.Context, code string, cartValue int64, now time.Time) (*model.Coupon, int64, error) {
	coupon, err := s.couponRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, 0, err
	}

	if err := CheckCoupon(coupon, cartValue, now); err != nil {
		return nil, 0, err
	}

	return coupon, coupon.Discount(cartValue), nil
}

// CheckCoupon 券可用性检查，纯函数
func CheckCoupon(coupon *model.Coupon, cartValue int64, now time.Time) error {
	if !coupon.Active {
		return ErrCouponInactive
	}
	if coupon.ExpiryDate != nil && !coupon.ExpiryDate.After(now) {
		return ErrCouponExpired
	}
	if cartValue < coupon.MinCartValue {
		return ErrCouponBelowMinCart
	}
	if coupon.UsageLimit != nil && coupon.UsedCount >= *coupon.UsageLimit {
		return ErrCouponLimitExceeded
	}
	return nil
}

// Create 管理端建券
func (s *CouponService) Create(ctx context.Context, coupon *model.Coupon) error {
	if coupon.DiscountType != model.CouponDiscountFlat && coupon.DiscountType != model.CouponDiscountPercentage {
		return ErrInvalidDiscountType
	}
	if coupon.DiscountValue <= 0 {
		return ErrInvalidDiscountValue
	}
	if coupon.DiscountType == model.CouponDiscountPercentage && coupon.DiscountValue > 100 {
		return ErrInvalidDiscountValue
	}
	return s.couponRepo.Create(ctx, coupon)
}

// SetActive 管理端启停券；被预约引用的券只能停用，不能删
func (s *CouponService) SetActive(ctx context.Context, code string, active bool) error {
	return s.couponRepo.SetActive(ctx, code, active)
}

func (s *CouponService) List(ctx context.Context) ([]*model.Coupon, error) {
	return s.couponRepo.List(ctx)
}
