package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"homeserve/internal/model"
)

// 同一支付单重复核销只产生一次结算副作用：
// 扣款流水、券次数、预约状态、发件箱消息都只出现一份
func TestVerifyPaymentSettlesExactlyOnce(t *testing.T) {
	db := newTestDB(t)
	rdb := newTestRedis(t)
	cfg := newTestConfig()
	svc := NewCheckoutService(db, rdb, cfg, fakeGateway{})
	ctx := context.Background()

	usageLimit := int64(100)
	mustSeed(t, db,
		&model.WalletAccount{UserID: "u1", Balance: 20000, LockedBalance: 5000},
		&model.Coupon{Code: "SAVE100", DiscountType: model.CouponDiscountFlat, DiscountValue: 10000,
			UsageLimit: &usageLimit, Active: true},
		&model.Professional{ProfessionalID: "p1", Name: "测试技师", Status: model.ProfessionalStatusActive},
		&model.Booking{BookingNo: "BKG_T1", UserID: "u1", ProductID: "prod1", Address: "测试地址",
			Status: model.BookingStatusPending, CouponCode: "SAVE100", DiscountAmount: 10000,
			WalletUsed: 25000, LockedUsed: 5000, Amount: 115000},
		&model.PaymentOrder{OrderNo: "ORD_T1", GatewayOrderID: "gw_1", Kind: model.PayOrderKindCheckout,
			UserID: "u1", BookingNo: "BKG_T1", Payable: 115000, DiscountAmount: 10000,
			LockedUse: 5000, SpendableUse: 20000, CouponCode: "SAVE100",
			Status: model.PayOrderStatusCreated, ExpiredAt: time.Now().Add(15 * time.Minute)},
	)

	req := &VerifyPaymentRequest{
		OrderNo:        "ORD_T1",
		GatewayOrderID: "gw_1",
		PaymentID:      "pay_1",
		Signature:      "valid",
	}

	if err := svc.VerifyPayment(ctx, "u1", req); err != nil {
		t.Fatalf("首次核销失败: %v", err)
	}
	// 网关重试同一单，必须幂等成功且不再动账
	if err := svc.VerifyPayment(ctx, "u1", req); err != nil {
		t.Fatalf("重复核销应幂等成功: %v", err)
	}

	var order model.PaymentOrder
	if err := db.Where("order_no = ?", "ORD_T1").First(&order).Error; err != nil {
		t.Fatalf("查询支付单失败: %v", err)
	}
	if order.Status != model.PayOrderStatusSettled {
		t.Errorf("支付单状态 = %s, want %s", order.Status, model.PayOrderStatusSettled)
	}
	if order.SettledAt == nil {
		t.Error("结算时间未写入")
	}

	var account model.WalletAccount
	if err := db.Where("user_id = ?", "u1").First(&account).Error; err != nil {
		t.Fatalf("查询账户失败: %v", err)
	}
	if account.Balance != 0 || account.LockedBalance != 0 {
		t.Errorf("余额 = (%d, %d), want (0, 0)，重复核销不得二次扣款",
			account.Balance, account.LockedBalance)
	}

	var debitCount int64
	db.Model(&model.WalletTransaction{}).
		Where("order_no = ? AND type = ?", "ORD_T1", model.WalletTxnTypeDebit).
		Count(&debitCount)
	if debitCount != 2 {
		t.Errorf("扣款流水 = %d 笔, want 2（锁定与可用各一笔）", debitCount)
	}

	var coupon model.Coupon
	db.Where("code = ?", "SAVE100").First(&coupon)
	if coupon.UsedCount != 1 {
		t.Errorf("券使用次数 = %d, want 1", coupon.UsedCount)
	}

	var booking model.Booking
	db.Where("booking_no = ?", "BKG_T1").First(&booking)
	if booking.Status != model.BookingStatusAccepted {
		t.Errorf("预约状态 = %s, want %s", booking.Status, model.BookingStatusAccepted)
	}
	if booking.ProfessionalID != "p1" {
		t.Errorf("指派技师 = %s, want p1", booking.ProfessionalID)
	}

	var outboxCount int64
	db.Model(&model.OutboxMessage{}).Where("message_key = ?", "ORD_T1").Count(&outboxCount)
	if outboxCount != 1 {
		t.Errorf("发件箱消息 = %d 条, want 1", outboxCount)
	}
}

// 充值单不能从结算路径核销：
// 类型不匹配直接拒绝，且不得把充值单推进到失败终态
func TestVerifyPaymentRejectsTopupOrder(t *testing.T) {
	db := newTestDB(t)
	rdb := newTestRedis(t)
	cfg := newTestConfig()
	checkoutSvc := NewCheckoutService(db, rdb, cfg, fakeGateway{})
	topupSvc := NewTopupService(db, rdb, cfg, fakeGateway{})
	ctx := context.Background()

	mustSeed(t, db,
		&model.WalletAccount{UserID: "u1"},
		&model.TopupOffer{OfferID: "OFF1", Amount: 50000, CashbackPercentage: 5, MaxCashback: 10000, Active: true},
		&model.PaymentOrder{OrderNo: "ORD_T2", GatewayOrderID: "gw_t2", Kind: model.PayOrderKindTopup,
			UserID: "u1", OfferID: "OFF1", Payable: 50000,
			Status: model.PayOrderStatusCreated, ExpiredAt: time.Now().Add(15 * time.Minute)},
	)

	err := checkoutSvc.VerifyPayment(ctx, "u1", &VerifyPaymentRequest{
		OrderNo:        "ORD_T2",
		GatewayOrderID: "bogus",
		PaymentID:      "pay_x",
		Signature:      "x",
	})
	if !errors.Is(err, ErrProofMismatch) {
		t.Fatalf("结算路径核销充值单 error = %v, want ErrProofMismatch", err)
	}

	var order model.PaymentOrder
	db.Where("order_no = ?", "ORD_T2").First(&order)
	if order.Status != model.PayOrderStatusCreated {
		t.Fatalf("充值单状态被结算路径改为 %s，应保持 %s", order.Status, model.PayOrderStatusCreated)
	}

	// 正确路径仍然可以核销入账
	if err := topupSvc.Verify(ctx, "u1", &VerifyPaymentRequest{
		OrderNo:        "ORD_T2",
		GatewayOrderID: "gw_t2",
		PaymentID:      "pay_2",
		Signature:      "valid",
	}); err != nil {
		t.Fatalf("充值核销失败: %v", err)
	}

	var account model.WalletAccount
	db.Where("user_id = ?", "u1").First(&account)
	if account.Balance != 52500 {
		t.Errorf("充值后余额 = %d, want 52500（50000充值 + 2500返现）", account.Balance)
	}
}
