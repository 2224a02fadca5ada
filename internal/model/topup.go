package model

import (
	"time"
)

// TopupOffer 钱包充值档位表
// 纯定价配置；一旦被流水引用即视为不可变，只能停用后新建
type TopupOffer struct {
	ID                 int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OfferID            string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"offer_id"`
	Amount             int64     `gorm:"not null" json:"amount"`              // 充值金额（paise）
	CashbackPercentage int64     `gorm:"not null" json:"cashback_percentage"` // 返现百分比
	MaxCashback        int64     `gorm:"not null" json:"max_cashback"`        // 返现上限（paise）
	Active             bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (TopupOffer) TableName() string {
	return "topup_offer"
}

// Cashback 该档位的返现金额：floor(amount * pct / 100)，再钳制到上限
func (o *TopupOffer) Cashback() int64 {
	cashback := o.Amount * o.CashbackPercentage / 100
	if cashback > o.MaxCashback {
		cashback = o.MaxCashback
	}
	return cashback
}
