package model

import (
	"testing"
)

func TestCanPayOrderTransitionTo(t *testing.T) {
	tests := []struct {
		from string
		to   string
		want bool
	}{
		{PayOrderStatusCreated, PayOrderStatusVerified, true},
		{PayOrderStatusCreated, PayOrderStatusFailed, true},
		{PayOrderStatusCreated, PayOrderStatusExpired, true},
		{PayOrderStatusVerified, PayOrderStatusSettled, true},
		{PayOrderStatusVerified, PayOrderStatusFailed, true},
		{PayOrderStatusCreated, PayOrderStatusSettled, false},
		{PayOrderStatusSettled, PayOrderStatusFailed, false},
		{PayOrderStatusSettled, PayOrderStatusVerified, false},
		{PayOrderStatusFailed, PayOrderStatusVerified, false},
		{PayOrderStatusExpired, PayOrderStatusVerified, false},
		{PayOrderStatusVerified, PayOrderStatusCreated, false},
	}

	for _, tt := range tests {
		if got := CanPayOrderTransitionTo(tt.from, tt.to); got != tt.want {
			t.Errorf("CanPayOrderTransitionTo(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
