package service

import (
	"context"
	"testing"

	"homeserve/internal/model"
)

// 欢迎奖励只在建户那一次发放，重复 GetOrCreate 不追加
func TestGetOrCreateCreditsWelcomeBonusOnce(t *testing.T) {
	db := newTestDB(t)
	rdb := newTestRedis(t)
	cfg := newTestConfig()
	svc := NewWalletService(db, rdb, cfg)
	ctx := context.Background()

	first, err := svc.GetOrCreate(ctx, "u9")
	if err != nil {
		t.Fatalf("首次建户失败: %v", err)
	}
	if first.LockedBalance != cfg.Business.WelcomeBonusAmount {
		t.Errorf("锁定余额 = %d, want %d（欢迎奖励入锁定余额）",
			first.LockedBalance, cfg.Business.WelcomeBonusAmount)
	}
	if first.Balance != 0 {
		t.Errorf("可用余额 = %d, want 0", first.Balance)
	}

	second, err := svc.GetOrCreate(ctx, "u9")
	if err != nil {
		t.Fatalf("二次访问失败: %v", err)
	}
	if second.LockedBalance != cfg.Business.WelcomeBonusAmount {
		t.Errorf("二次访问锁定余额 = %d, want %d", second.LockedBalance, cfg.Business.WelcomeBonusAmount)
	}

	var accountCount int64
	db.Model(&model.WalletAccount{}).Where("user_id = ?", "u9").Count(&accountCount)
	if accountCount != 1 {
		t.Errorf("账户行数 = %d, want 1", accountCount)
	}

	var bonusCount int64
	db.Model(&model.WalletTransaction{}).
		Where("user_id = ? AND type = ?", "u9", model.WalletTxnTypeWelcomeBonus).
		Count(&bonusCount)
	if bonusCount != 1 {
		t.Errorf("欢迎奖励流水 = %d 笔, want 1", bonusCount)
	}
}
