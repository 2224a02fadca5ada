package model

import (
	"testing"
)

func TestReplayBalances(t *testing.T) {
	tests := []struct {
		name       string
		txns       []*WalletTransaction
		wantSpend  int64
		wantLocked int64
	}{
		{
			name:      "无流水时两类余额为0",
			txns:      nil,
			wantSpend: 0, wantLocked: 0,
		},
		{
			name: "欢迎奖励入锁定余额",
			txns: []*WalletTransaction{
				{Amount: 10000, Type: WalletTxnTypeWelcomeBonus, Locked: true},
			},
			wantSpend: 0, wantLocked: 10000,
		},
		{
			name: "完整生命周期重放",
			txns: []*WalletTransaction{
				{Amount: 10000, Type: WalletTxnTypeWelcomeBonus, Locked: true},
				{Amount: 50000, Type: WalletTxnTypeTopup},
				{Amount: 2500, Type: WalletTxnTypeCashback},
				{Amount: -5000, Type: WalletTxnTypeDebit, Locked: true},
				{Amount: -20000, Type: WalletTxnTypeDebit},
				{Amount: 5000, Type: WalletTxnTypeReviewReward},
			},
			wantSpend: 37500, wantLocked: 5000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spend, locked := ReplayBalances(tt.txns)
			if spend != tt.wantSpend || locked != tt.wantLocked {
				t.Errorf("ReplayBalances() = (%d, %d), want (%d, %d)",
					spend, locked, tt.wantSpend, tt.wantLocked)
			}
		})
	}
}

func TestIsLockedTxnType(t *testing.T) {
	if !IsLockedTxnType(WalletTxnTypeWelcomeBonus) {
		t.Error("欢迎奖励应入锁定余额")
	}
	for _, txnType := range []string{
		WalletTxnTypeCredit, WalletTxnTypeDebit, WalletTxnTypeTopup,
		WalletTxnTypeCashback, WalletTxnTypeReviewReward,
	} {
		if IsLockedTxnType(txnType) {
			t.Errorf("IsLockedTxnType(%s) = true, want false", txnType)
		}
	}
}

func TestDebitPlanTotal(t *testing.T) {
	plan := DebitPlan{LockedUse: 5000, SpendableUse: 20000}
	if got := plan.Total(); got != 25000 {
		t.Errorf("Total() = %d, want 25000", got)
	}
	var empty DebitPlan
	if got := empty.Total(); got != 0 {
		t.Errorf("空计划 Total() = %d, want 0", got)
	}
}
