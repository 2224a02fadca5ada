package service

import (
	"errors"
	"testing"
	"time"

	"homeserve/internal/model"
)

func int64Ptr(v int64) *int64 { return &v }

func TestCheckCoupon(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-time.Minute)

	tests := []struct {
		name      string
		coupon    model.Coupon
		cartValue int64
		wantErr   error
	}{
		{
			name: "满足全部条件",
			coupon: model.Coupon{
				Code: "SAVE100", DiscountType: model.CouponDiscountFlat, DiscountValue: 10000,
				MinCartValue: 50000, ExpiryDate: &future, Active: true,
			},
			cartValue: 150000,
			wantErr:   nil,
		},
		{
			name: "已停用",
			coupon: model.Coupon{
				Code: "SAVE100", DiscountType: model.CouponDiscountFlat, DiscountValue: 10000,
				Active: false,
			},
			cartValue: 150000,
			wantErr:   ErrCouponInactive,
		},
		{
			name: "已过期",
			coupon: model.Coupon{
				Code: "SAVE100", DiscountType: model.CouponDiscountFlat, DiscountValue: 10000,
				ExpiryDate: &past, Active: true,
			},
			cartValue: 150000,
			wantErr:   ErrCouponExpired,
		},
		{
			name: "未达起用金额",
			coupon: model.Coupon{
				Code: "SAVE100", DiscountType: model.CouponDiscountFlat, DiscountValue: 10000,
				MinCartValue: 50000, Active: true,
			},
			cartValue: 30000,
			wantErr:   ErrCouponBelowMinCart,
		},
		{
			name: "次数已用完",
			coupon: model.Coupon{
				Code: "SAVE100", DiscountType: model.CouponDiscountFlat, DiscountValue: 10000,
				UsageLimit: int64Ptr(100), UsedCount: 100, Active: true,
			},
			cartValue: 150000,
			wantErr:   ErrCouponLimitExceeded,
		},
		{
			name: "停用优先于过期报出",
			coupon: model.Coupon{
				Code: "SAVE100", DiscountType: model.CouponDiscountFlat, DiscountValue: 10000,
				ExpiryDate: &past, Active: false,
			},
			cartValue: 150000,
			wantErr:   ErrCouponInactive,
		},
		{
			name: "无过期时间视为长期有效",
			coupon: model.Coupon{
				Code: "FOREVER", DiscountType: model.CouponDiscountFlat, DiscountValue: 5000,
				Active: true,
			},
			cartValue: 10000,
			wantErr:   nil,
		},
		{
			name: "无次数上限不受已用次数影响",
			coupon: model.Coupon{
				Code: "NOLIMIT", DiscountType: model.CouponDiscountFlat, DiscountValue: 5000,
				UsedCount: 99999, Active: true,
			},
			cartValue: 10000,
			wantErr:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckCoupon(&tt.coupon, tt.cartValue, now)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CheckCoupon() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
