package service

import (
	"testing"

	"homeserve/internal/model"
)

func TestComputeQuote(t *testing.T) {
	tests := []struct {
		name string
		in   PricingInput
		want Quote
	}{
		{
			name: "不用钱包时应付等于原价减折扣",
			in: PricingInput{
				Price:          150000,
				DiscountAmount: 10000,
				UseWallet:      false,
				Balance:        50000,
				LockedBalance:  20000,
				LockedMinCart:  20000,
				LockedCap:      20000,
			},
			want: Quote{Payable: 140000, DiscountAmount: 10000},
		},
		{
			name: "券+锁定余额+可用余额依次抵扣",
			in: PricingInput{
				Price:          150000,
				DiscountAmount: 10000,
				UseWallet:      true,
				Balance:        20000,
				LockedBalance:  5000,
				LockedMinCart:  20000,
				LockedCap:      20000,
			},
			want: Quote{
				Payable:        115000,
				DiscountAmount: 10000,
				WalletUsed:     25000,
				Plan:           model.DebitPlan{LockedUse: 5000, SpendableUse: 20000},
			},
		},
		{
			name: "锁定余额受单次上限约束",
			in: PricingInput{
				Price:         100000,
				UseWallet:     true,
				Balance:       0,
				LockedBalance: 50000,
				LockedMinCart: 20000,
				LockedCap:     20000,
			},
			want: Quote{
				Payable:    80000,
				WalletUsed: 20000,
				Plan:       model.DebitPlan{LockedUse: 20000},
			},
		},
		{
			name: "原价未达门槛时锁定余额不可用",
			in: PricingInput{
				Price:         15000,
				UseWallet:     true,
				Balance:       8000,
				LockedBalance: 20000,
				LockedMinCart: 20000,
				LockedCap:     20000,
			},
			want: Quote{
				Payable:    7000,
				WalletUsed: 8000,
				Plan:       model.DebitPlan{SpendableUse: 8000},
			},
		},
		{
			name: "门槛按原价判断而非扣券后金额",
			in: PricingInput{
				Price:          20000,
				DiscountAmount: 15000,
				UseWallet:      true,
				Balance:        0,
				LockedBalance:  20000,
				LockedMinCart:  20000,
				LockedCap:      20000,
			},
			want: Quote{
				Payable:        0,
				DiscountAmount: 15000,
				WalletUsed:     5000,
				Plan:           model.DebitPlan{LockedUse: 5000},
			},
		},
		{
			name: "钱包全额覆盖时应付为0",
			in: PricingInput{
				Price:         30000,
				UseWallet:     true,
				Balance:       50000,
				LockedBalance: 0,
				LockedMinCart: 20000,
				LockedCap:     20000,
			},
			want: Quote{
				Payable:    0,
				WalletUsed: 30000,
				Plan:       model.DebitPlan{SpendableUse: 30000},
			},
		},
		{
			name: "折扣超过原价时应付钳到0",
			in: PricingInput{
				Price:          5000,
				DiscountAmount: 8000,
				UseWallet:      true,
				Balance:        10000,
				LockedMinCart:  20000,
				LockedCap:      20000,
			},
			want: Quote{Payable: 0, DiscountAmount: 8000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeQuote(tt.in)
			if got != tt.want {
				t.Errorf("ComputeQuote() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestComposeDebitPlan(t *testing.T) {
	tests := []struct {
		name              string
		payable           int64
		balance           int64
		lockedBalance     int64
		eligibleForLocked bool
		lockedCap         int64
		want              model.DebitPlan
	}{
		{
			name:    "应付为0不产生计划",
			payable: 0, balance: 10000, lockedBalance: 10000,
			eligibleForLocked: true, lockedCap: 20000,
			want: model.DebitPlan{},
		},
		{
			name:    "锁定余额优先",
			payable: 10000, balance: 10000, lockedBalance: 10000,
			eligibleForLocked: true, lockedCap: 20000,
			want: model.DebitPlan{LockedUse: 10000},
		},
		{
			name:    "锁定不够时可用余额补足",
			payable: 30000, balance: 50000, lockedBalance: 10000,
			eligibleForLocked: true, lockedCap: 20000,
			want: model.DebitPlan{LockedUse: 10000, SpendableUse: 20000},
		},
		{
			name:    "不满足门槛时只用可用余额",
			payable: 30000, balance: 50000, lockedBalance: 10000,
			eligibleForLocked: false, lockedCap: 20000,
			want: model.DebitPlan{SpendableUse: 30000},
		},
		{
			name:    "余额不足时不透支",
			payable: 100000, balance: 20000, lockedBalance: 5000,
			eligibleForLocked: true, lockedCap: 20000,
			want: model.DebitPlan{LockedUse: 5000, SpendableUse: 20000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComposeDebitPlan(tt.payable, tt.balance, tt.lockedBalance, tt.eligibleForLocked, tt.lockedCap)
			if got != tt.want {
				t.Errorf("ComposeDebitPlan() = %+v, want %+v", got, tt.want)
			}
			if got.Total() > tt.payable {
				t.Errorf("抵扣总额 %d 超过应付 %d", got.Total(), tt.payable)
			}
		})
	}
}
