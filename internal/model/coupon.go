package model

import (
	"time"
)

const (
	CouponDiscountFlat       = "flat"
	CouponDiscountPercentage = "percentage"
)

// Coupon 优惠券表
// code 统一大写存储；只做停用（Active=false），不做物理删除，
// 因为已结算的预约通过 code 引用它
type Coupon struct {
	ID            int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Code          string     `gorm:"type:varchar(32);uniqueIndex;not null" json:"code"`
	DiscountType  string     `gorm:"type:varchar(16);not null" json:"discount_type"` // flat / percentage
	DiscountValue int64      `gorm:"not null" json:"discount_value"`                 // flat 为 paise，percentage 为百分数
	MinCartValue  int64      `gorm:"not null;default:0" json:"min_cart_value"`       // 起用金额
	MaxDiscount   *int64     `json:"max_discount"`                                   // 折扣上限，nil 表示不封顶
	UsageLimit    *int64     `json:"usage_limit"`                                    // 总使用次数上限，nil 表示不限
	UsedCount     int64      `gorm:"not null;default:0" json:"used_count"`
	ExpiryDate    *time.Time `json:"expiry_date"` // nil 表示长期有效
	Active        bool       `gorm:"not null;default:true" json:"active"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Coupon) TableName() string {
	return "coupon"
}

// Discount 计算该券对指定购物车金额的折扣
// flat 直接取面值；percentage 向下取整；再依次钳制到 MaxDiscount 和购物车金额
// （折扣永远不会超过购物车本身）
func (c *Coupon) Discount(cartValue int64) int64 {
	var discount int64
	switch c.DiscountType {
	case CouponDiscountPercentage:
		discount = cartValue * c.DiscountValue / 100
	default:
		discount = c.DiscountValue
	}

	if c.MaxDiscount != nil && discount > *c.MaxDiscount {
		discount = *c.MaxDiscount
	}
	if discount > cartValue {
		discount = cartValue
	}
	return discount
}
