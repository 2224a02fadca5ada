package model

import (
	"time"
)

// WalletAccount 用户钱包账户表
// 记录用户的可用余额与锁定余额，是整个结算引擎的核心数据
//
// 【余额分类】
//   - Balance：可用余额，充值/返现/评价奖励入账，下单时自由抵扣
//   - LockedBalance：锁定余额（欢迎奖励），只有原价达到起用门槛才可抵扣，
//     且单次抵扣有上限
//
// 两类余额在任何时刻都必须 >= 0
type WalletAccount struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"user_id"` // 用户ID，身份服务传入
	Balance       int64     `gorm:"not null;default:0" json:"balance"`                    // 可用余额（paise）
	LockedBalance int64     `gorm:"not null;default:0" json:"locked_balance"`             // 锁定余额（paise）
	Version       int       `gorm:"not null;default:0" json:"version"`                    // 乐观锁版本号
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (WalletAccount) TableName() string {
	return "wallet_account"
}

// ============================================================================
// 钱包流水
// ============================================================================

const (
	WalletTxnTypeCredit       = "credit"
	WalletTxnTypeDebit        = "debit"
	WalletTxnTypeTopup        = "topup"
	WalletTxnTypeCashback     = "cashback"
	WalletTxnTypeWelcomeBonus = "welcome_bonus"
	WalletTxnTypeReviewReward = "review_reward"
)

// IsLockedTxnType 该流水类型是否作用于锁定余额
// 目前只有欢迎奖励入锁定余额；锁定余额的支出用 locked 字段区分
func IsLockedTxnType(txnType string) bool {
	return txnType == WalletTxnTypeWelcomeBonus
}

// WalletTransaction 钱包流水表
// 记录账户的每一笔资金变动，是对账的核心依据
//
// 【重要】流水表设计原则：
// 1. 只追加，不修改，不删除 —— 保证审计可追溯
// 2. 每笔流水关联订单号（无订单场景为空）—— 便于对账
// 3. 记录交易前后余额 —— 按创建顺序重放全部流水必须精确还原当前余额
type WalletTransaction struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionNo string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"transaction_no"` // 流水号（全局唯一）
	UserID        string    `gorm:"type:varchar(64);index;not null" json:"user_id"`
	OrderNo       string    `gorm:"type:varchar(64);index" json:"order_no"`          // 关联支付单号，可为空
	Amount        int64     `gorm:"not null" json:"amount"`                          // 金额（正数入账，负数出账）
	Type          string    `gorm:"type:varchar(20);not null" json:"type"`           // 交易类型
	Locked        bool      `gorm:"not null;default:false" json:"locked"`            // 是否作用于锁定余额
	BalanceBefore int64     `gorm:"not null" json:"balance_before"`                  // 交易前余额（对应余额类别）
	BalanceAfter  int64     `gorm:"not null" json:"balance_after"`                   // 交易后余额（对应余额类别）
	Description   string    `gorm:"type:varchar(256)" json:"description"`            // 备注
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (WalletTransaction) TableName() string {
	return "wallet_transaction"
}

// ReplayBalances 按创建顺序重放流水，返回重放得到的可用余额与锁定余额
// 对账用：重放结果必须与账户当前余额一致
func ReplayBalances(txns []*WalletTransaction) (balance, lockedBalance int64) {
	for _, t := range txns {
		if t.Locked {
			lockedBalance += t.Amount
		} else {
			balance += t.Amount
		}
	}
	return balance, lockedBalance
}

// DebitPlan 钱包抵扣计划
// 由结算引擎在定价时生成，核销时按原计划执行，绝不重新计算
type DebitPlan struct {
	LockedUse    int64 `json:"locked_use"`    // 从锁定余额抵扣
	SpendableUse int64 `json:"spendable_use"` // 从可用余额抵扣
}

// Total 计划抵扣总额
func (p DebitPlan) Total() int64 {
	return p.LockedUse + p.SpendableUse
}
