package model

import (
	"time"
)

const (
	PayOrderStatusCreated  = "CREATED"
	PayOrderStatusVerified = "VERIFIED"
	PayOrderStatusSettled  = "SETTLED"
	PayOrderStatusFailed   = "FAILED"
	PayOrderStatusExpired  = "EXPIRED"
)

// ValidPayOrderTransitions 支付单状态机
// CREATED -> VERIFIED -> SETTLED；SETTLED 之前任意节点可进入 FAILED；
// 超时未核销的 CREATED 单由后台任务置为 EXPIRED
var ValidPayOrderTransitions = map[string][]string{
	PayOrderStatusCreated:  {PayOrderStatusVerified, PayOrderStatusFailed, PayOrderStatusExpired},
	PayOrderStatusVerified: {PayOrderStatusSettled, PayOrderStatusFailed},
}

func CanPayOrderTransitionTo(currentStatus, targetStatus string) bool {
	allowedStatuses, exists := ValidPayOrderTransitions[currentStatus]
	if !exists {
		return false
	}
	for _, s := range allowedStatuses {
		if s == targetStatus {
			return true
		}
	}
	return false
}

const (
	PayOrderKindCheckout = "CHECKOUT" // 下单支付
	PayOrderKindTopup    = "TOPUP"    // 钱包充值
)

// PaymentOrder 支付单表
// OrderNo 即关联标识（correlation id）：网关回调用它做幂等核销，
// 该行自身的状态就是"已处理"标记 —— 状态检查与副作用在同一事务内完成
//
// 定价时生成的抵扣计划（DiscountAmount/LockedUse/SpendableUse）随单固化，
// 核销时照此执行，绝不按核销时刻的账户状态重算
type PaymentOrder struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNo        string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"order_no"`
	GatewayOrderID string     `gorm:"type:varchar(64);index" json:"gateway_order_id"` // payable==0 时为空
	Kind           string     `gorm:"type:varchar(16);not null" json:"kind"`
	UserID         string     `gorm:"type:varchar(64);index;not null" json:"user_id"`
	BookingNo      string     `gorm:"type:varchar(64);index" json:"booking_no"` // CHECKOUT 单关联的预约
	OfferID        string     `gorm:"type:varchar(64)" json:"offer_id"`         // TOPUP 单关联的充值档位
	Payable        int64      `gorm:"not null" json:"payable"`                  // 网关应收金额
	DiscountAmount int64      `gorm:"not null;default:0" json:"discount_amount"`
	LockedUse      int64      `gorm:"not null;default:0" json:"locked_use"`
	SpendableUse   int64      `gorm:"not null;default:0" json:"spendable_use"`
	CouponCode     string     `gorm:"type:varchar(32)" json:"coupon_code"`
	Status         string     `gorm:"type:varchar(20);index;not null" json:"status"`
	ExpiredAt      time.Time  `gorm:"not null" json:"expired_at"`
	SettledAt      *time.Time `json:"settled_at"`
	CreatedAt      time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PaymentOrder) TableName() string {
	return "payment_order"
}
