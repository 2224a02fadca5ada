package model

import (
	"testing"
)

func TestTopupOfferCashback(t *testing.T) {
	tests := []struct {
		name  string
		offer TopupOffer
		want  int64
	}{
		{
			name:  "正常返现",
			offer: TopupOffer{Amount: 50000, CashbackPercentage: 5, MaxCashback: 10000},
			want:  2500,
		},
		{
			name:  "返现封顶",
			offer: TopupOffer{Amount: 500000, CashbackPercentage: 10, MaxCashback: 10000},
			want:  10000,
		},
		{
			name:  "向下取整",
			offer: TopupOffer{Amount: 999, CashbackPercentage: 10, MaxCashback: 10000},
			want:  99,
		},
		{
			name:  "零返现档位",
			offer: TopupOffer{Amount: 10000, CashbackPercentage: 0, MaxCashback: 10000},
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.offer.Cashback(); got != tt.want {
				t.Errorf("Cashback() = %d, want %d", got, tt.want)
			}
		})
	}
}
