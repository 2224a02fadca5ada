package repository

import (
	"context"
	"errors"
	"strings"

	"homeserve/internal/model"

	"gorm.io/gorm"
)

var (
	ErrCouponNotFound   = errors.New("优惠券不存在")
	ErrCouponExhausted  = errors.New("优惠券使用次数已用完")
	ErrDuplicateCoupon  = errors.New("优惠券码已存在")
)

type CouponRepository struct {
	db *gorm.DB
}

func NewCouponRepository(db *gorm.DB) *CouponRepository {
	return &CouponRepository{db: db}
}

func (r *CouponRepository) Create(ctx context.Context, coupon *model.Coupon) error {
	coupon.Code = strings.ToUpper(strings.TrimSpace(coupon.Code))
	err := r.db.WithContext(ctx).Create(coupon).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateCoupon
		}
		return err
	}
	return nil
}

func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	var coupon model.Coupon
	err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&coupon).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}
	return &coupon, nil
}

// IncrementUsage 使用次数 +1
// 条件更新把 used_count < usage_limit 的校验放进同一条 SQL，
// 多个用户并发用同一张限量券时不可能超发
func (r *CouponRepository) IncrementUsage(ctx context.Context, tx *gorm.DB, code string) error {
	if tx == nil {
		tx = r.db
	}

	result := tx.WithContext(ctx).
		Model(&model.Coupon{}).
		Where("code = ? AND active = ? AND (usage_limit IS NULL OR used_count < usage_limit)",
			strings.ToUpper(strings.TrimSpace(code)), true).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		if _, err := r.GetByCode(ctx, code); err != nil {
			return err
		}
		return ErrCouponExhausted
	}

	return nil
}

// SetActive 启用/停用（软删除只走这里，不做物理删除）
func (r *CouponRepository) SetActive(ctx context.Context, code string, active bool) error {
	result := r.db.WithContext(ctx).
		Model(&model.Coupon{}).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		Update("active", active)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCouponNotFound
	}
	return nil
}

func (r *CouponRepository) List(ctx context.Context) ([]*model.Coupon, error) {
	var coupons []*model.Coupon
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&coupons).Error
	return coupons, err
}
