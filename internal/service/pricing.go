package service

import (
	"homeserve/internal/model"
)

// ============================================================================
// 结算定价引擎
// ============================================================================
//
// 纯函数：商品价格 + 优惠券折扣 + 钱包抵扣 -> 应付金额 + 抵扣计划
// 相同输入永远得到相同输出；核销时服务端用落库的券/账户状态重算，
// 客户端上报的总价只是展示提示，绝不作为记账依据
//
// ============================================================================

// PricingInput 定价输入
type PricingInput struct {
	Price          int64 // 商品原价
	DiscountAmount int64 // 已验证的优惠券折扣，无券为 0
	UseWallet      bool  // 用户是否选择钱包抵扣
	Balance        int64 // 当前可用余额
	LockedBalance  int64 // 当前锁定余额
	LockedMinCart  int64 // 锁定余额起用门槛
	LockedCap      int64 // 锁定余额单次使用上限
}

// Quote 定价结果
type Quote struct {
	Payable        int64           `json:"payable"`         // 走网关的实付金额
	DiscountAmount int64           `json:"discount_amount"` // 优惠券折扣
	WalletUsed     int64           `json:"wallet_used"`     // 钱包抵扣总额
	Plan           model.DebitPlan `json:"plan"`            // 抵扣计划（锁定/可用拆分）
}

// ComputeQuote 计算应付金额与钱包抵扣计划
//
// 顺序：先扣券，再用锁定余额，最后用可用余额
// 注意：锁定余额的门槛按"原价"判断而不是扣券后的余额 ——
// 这是沿用线上策略的刻意行为，改动前需产品确认
func ComputeQuote(in PricingInput) Quote {
	remaining := in.Price - in.DiscountAmount
	if remaining < 0 {
		remaining = 0
	}

	var plan model.DebitPlan
	if in.UseWallet {
		eligibleForLocked := in.Price >= in.LockedMinCart
		plan = ComposeDebitPlan(remaining, in.Balance, in.LockedBalance, eligibleForLocked, in.LockedCap)
		remaining -= plan.Total()
	}

	if remaining < 0 {
		remaining = 0
	}

	return Quote{
		Payable:        remaining,
		DiscountAmount: in.DiscountAmount,
		WalletUsed:     plan.Total(),
		Plan:           plan,
	}
}

// ComposeDebitPlan 生成钱包抵扣计划（只读，不动账）
// 锁定余额优先（受门槛与上限约束），剩余部分再用可用余额补足，
// 任一类余额都不会被透支
func ComposeDebitPlan(payable, balance, lockedBalance int64, eligibleForLocked bool, lockedCap int64) model.DebitPlan {
	var plan model.DebitPlan
	remaining := payable

	if eligibleForLocked && lockedBalance > 0 && remaining > 0 {
		lockedUse := lockedBalance
		if lockedUse > lockedCap {
			lockedUse = lockedCap
		}
		if lockedUse > remaining {
			lockedUse = remaining
		}
		plan.LockedUse = lockedUse
		remaining -= lockedUse
	}

	if balance > 0 && remaining > 0 {
		spendableUse := balance
		if spendableUse > remaining {
			spendableUse = remaining
		}
		plan.SpendableUse = spendableUse
	}

	return plan
}
