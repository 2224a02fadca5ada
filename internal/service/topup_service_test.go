package service

import (
	"context"
	"testing"
	"time"

	"homeserve/internal/model"
)

// 同一充值单重复核销只入账一次：充值与返现各一笔流水
func TestVerifyTopupCreditsExactlyOnce(t *testing.T) {
	db := newTestDB(t)
	rdb := newTestRedis(t)
	cfg := newTestConfig()
	svc := NewTopupService(db, rdb, cfg, fakeGateway{})
	ctx := context.Background()

	mustSeed(t, db,
		&model.WalletAccount{UserID: "u1"},
		&model.TopupOffer{OfferID: "OFF1", Amount: 50000, CashbackPercentage: 5, MaxCashback: 10000, Active: true},
		&model.PaymentOrder{OrderNo: "ORD_TP1", GatewayOrderID: "gw_tp1", Kind: model.PayOrderKindTopup,
			UserID: "u1", OfferID: "OFF1", Payable: 50000,
			Status: model.PayOrderStatusCreated, ExpiredAt: time.Now().Add(15 * time.Minute)},
	)

	req := &VerifyPaymentRequest{
		OrderNo:        "ORD_TP1",
		GatewayOrderID: "gw_tp1",
		PaymentID:      "pay_tp1",
		Signature:      "valid",
	}

	if err := svc.Verify(ctx, "u1", req); err != nil {
		t.Fatalf("首次核销失败: %v", err)
	}
	if err := svc.Verify(ctx, "u1", req); err != nil {
		t.Fatalf("重复核销应幂等成功: %v", err)
	}

	var account model.WalletAccount
	if err := db.Where("user_id = ?", "u1").First(&account).Error; err != nil {
		t.Fatalf("查询账户失败: %v", err)
	}
	if account.Balance != 52500 {
		t.Errorf("余额 = %d, want 52500（50000充值 + 2500返现，且只入账一次）", account.Balance)
	}
	if account.LockedBalance != 0 {
		t.Errorf("锁定余额 = %d, want 0", account.LockedBalance)
	}

	var topupCount, cashbackCount int64
	db.Model(&model.WalletTransaction{}).
		Where("order_no = ? AND type = ?", "ORD_TP1", model.WalletTxnTypeTopup).
		Count(&topupCount)
	db.Model(&model.WalletTransaction{}).
		Where("order_no = ? AND type = ?", "ORD_TP1", model.WalletTxnTypeCashback).
		Count(&cashbackCount)
	if topupCount != 1 || cashbackCount != 1 {
		t.Errorf("流水 = (充值%d, 返现%d), want (1, 1)", topupCount, cashbackCount)
	}

	var order model.PaymentOrder
	db.Where("order_no = ?", "ORD_TP1").First(&order)
	if order.Status != model.PayOrderStatusSettled {
		t.Errorf("充值单状态 = %s, want %s", order.Status, model.PayOrderStatusSettled)
	}

	var outboxCount int64
	db.Model(&model.OutboxMessage{}).Where("message_key = ?", "ORD_TP1").Count(&outboxCount)
	if outboxCount != 1 {
		t.Errorf("发件箱消息 = %d 条, want 1", outboxCount)
	}
}
