package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"homeserve/internal/config"
	"homeserve/internal/gateway"
	"homeserve/internal/infrastructure/lock"
	"homeserve/internal/model"
	"homeserve/internal/repository"
	"homeserve/pkg/idgen"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrOrderExpired   = errors.New("支付单已过期")
	ErrOrderFailed    = errors.New("支付单已失败，请重新下单")
	ErrProofMismatch  = errors.New("支付凭证与支付单不匹配")
)

// CheckoutService 结算核销服务
// 下单：券校验 -> 定价 -> 网关开单 -> 支付单/预约落库
// 核销：验签 -> 在一个事务内完成 扣钱包 + 扣券次数 + 预约出 pending
//
// 【关键点】核销是整个系统最核心的操作，必须保证：
// 1. 幂等性：同一支付单的重复核销只生效一次
// 2. 原子性：钱包扣款、券次数、预约状态要么全部成功要么全部回滚
// 3. 计划固化：按下单时刻落库的抵扣计划执行，绝不按核销时刻重算
type CheckoutService struct {
	db          *gorm.DB
	redisClient *redis.Client
	cfg         *config.Config
	gateway     gateway.Client
	walletSvc   *WalletService
	couponSvc   *CouponService
	orderRepo   *repository.OrderRepository
	bookingRepo *repository.BookingRepository
	couponRepo  *repository.CouponRepository
	catalogRepo *repository.CatalogRepository
	outboxRepo  *repository.OutboxRepository
}

func NewCheckoutService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, gw gateway.Client) *CheckoutService {
	return &CheckoutService{
		db:          db,
		redisClient: redisClient,
		cfg:         cfg,
		gateway:     gw,
		walletSvc:   NewWalletService(db, redisClient, cfg),
		couponSvc:   NewCouponService(db),
		orderRepo:   repository.NewOrderRepository(db),
		bookingRepo: repository.NewBookingRepository(db),
		couponRepo:  repository.NewCouponRepository(db),
		catalogRepo: repository.NewCatalogRepository(db),
		outboxRepo:  repository.NewOutboxRepository(db),
	}
}

type CreateCheckoutRequest struct {
	ProductID  string `json:"product_id" binding:"required"`
	Address    string `json:"address" binding:"required"`
	CouponCode string `json:"coupon_code"`
	UseWallet  bool   `json:"use_wallet"`
}

type CreateCheckoutResponse struct {
	OrderNo        string `json:"order_no"`
	BookingNo      string `json:"booking_no"`
	GatewayOrderID string `json:"gateway_order_id,omitempty"`
	KeyID          string `json:"key_id,omitempty"`
	Currency       string `json:"currency"`
	Amount         int64  `json:"amount"`
	DiscountAmount int64  `json:"discount_amount"`
	WalletUsed     int64  `json:"wallet_used"`
	Status         string `json:"status"`
}

// CreateOrder 创建结算单
// 应付为 0（钱包全额抵扣）时跳过网关，当场结算
func (s *CheckoutService) CreateOrder(ctx context.Context, userID string, req *CreateCheckoutRequest) (*CreateCheckoutResponse, error) {
	product, err := s.catalogRepo.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	var discount int64
	var couponCode string
	if req.CouponCode != "" {
		coupon, d, err := s.couponSvc.Validate(ctx, req.CouponCode, product.Price, time.Now())
		if err != nil {
			return nil, err
		}
		discount = d
		couponCode = coupon.Code
	}

	account, err := s.walletSvc.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	quote := ComputeQuote(PricingInput{
		Price:          product.Price,
		DiscountAmount: discount,
		UseWallet:      req.UseWallet,
		Balance:        account.Balance,
		LockedBalance:  account.LockedBalance,
		LockedMinCart:  s.cfg.Business.LockedUsageMinCart,
		LockedCap:      s.cfg.Business.LockedUsageCap,
	})

	orderNo := idgen.GenerateOrderNo()
	bookingNo := idgen.GenerateBookingNo()

	var gatewayOrderID string
	if quote.Payable > 0 {
		gatewayOrderID, err = s.gateway.CreateOrder(ctx, quote.Payable, s.cfg.Gateway.Currency, orderNo)
		if err != nil {
			return nil, fmt.Errorf("网关开单失败: %w", err)
		}
	}

	expiredAt := time.Now().Add(time.Duration(s.cfg.Business.OrderTimeoutMinutes) * time.Minute)

	booking := &model.Booking{
		BookingNo:      bookingNo,
		UserID:         userID,
		ProductID:      product.ProductID,
		Address:        req.Address,
		Status:         model.BookingStatusPending,
		CouponCode:     couponCode,
		DiscountAmount: quote.DiscountAmount,
		WalletUsed:     quote.WalletUsed,
		LockedUsed:     quote.Plan.LockedUse,
		Amount:         quote.Payable,
	}

	order := &model.PaymentOrder{
		OrderNo:        orderNo,
		GatewayOrderID: gatewayOrderID,
		Kind:           model.PayOrderKindCheckout,
		UserID:         userID,
		BookingNo:      bookingNo,
		Payable:        quote.Payable,
		DiscountAmount: quote.DiscountAmount,
		LockedUse:      quote.Plan.LockedUse,
		SpendableUse:   quote.Plan.SpendableUse,
		CouponCode:     couponCode,
		Status:         model.PayOrderStatusCreated,
		ExpiredAt:      expiredAt,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.bookingRepo.Create(ctx, tx, booking); err != nil {
			return fmt.Errorf("创建预约失败: %w", err)
		}
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("创建支付单失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	status := model.PayOrderStatusCreated
	if quote.Payable == 0 {
		// 钱包全额抵扣，无需网关，立即结算
		if err := s.VerifyPayment(ctx, userID, &VerifyPaymentRequest{OrderNo: orderNo}); err != nil {
			return nil, err
		}
		status = model.PayOrderStatusSettled
	}

	return &CreateCheckoutResponse{
		OrderNo:        orderNo,
		BookingNo:      bookingNo,
		GatewayOrderID: gatewayOrderID,
		KeyID:          s.cfg.Gateway.KeyID,
		Currency:       s.cfg.Gateway.Currency,
		Amount:         quote.Payable,
		DiscountAmount: quote.DiscountAmount,
		WalletUsed:     quote.WalletUsed,
		Status:         status,
	}, nil
}

type VerifyPaymentRequest struct {
	OrderNo        string `json:"order_no" binding:"required"`
	GatewayOrderID string `json:"gateway_order_id"`
	PaymentID      string `json:"payment_id"`
	Signature      string `json:"signature"`
}

// VerifyPayment 核销支付
// 同一单号重复核销返回幂等成功；签名/金额/有效期任一不过则标记失败，
// 不产生任何资金或券的副作用
func (s *CheckoutService) VerifyPayment(ctx context.Context, userID string, req *VerifyPaymentRequest) error {
	order, err := s.orderRepo.GetByOrderNo(ctx, req.OrderNo)
	if err != nil {
		return err
	}
	// 单据归属与类型都必须匹配：充值单走充值核销，拿到别人的单号也无法核销
	if order.UserID != userID || order.Kind != model.PayOrderKindCheckout {
		return ErrProofMismatch
	}

	// 幂等快路径：已结算直接成功返回
	if order.Status == model.PayOrderStatusSettled {
		return nil
	}
	if order.Status == model.PayOrderStatusFailed || order.Status == model.PayOrderStatusExpired {
		return ErrOrderFailed
	}

	holder := uuid.NewString()
	verifyLock := lock.NewVerifyLock(s.redisClient, order.OrderNo, holder)
	if err := verifyLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return fmt.Errorf("系统繁忙，请稍后重试: %w", err)
	}
	defer verifyLock.Unlock(ctx)

	walletLock := lock.NewWalletLock(s.redisClient, order.UserID, holder)
	if err := walletLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return fmt.Errorf("系统繁忙，请稍后重试: %w", err)
	}
	defer walletLock.Unlock(ctx)

	// 获取锁后再次检查幂等
	order, err = s.orderRepo.GetByOrderNo(ctx, req.OrderNo)
	if err != nil {
		return err
	}
	if order.Status == model.PayOrderStatusSettled {
		return nil
	}
	if order.Status != model.PayOrderStatusCreated {
		return ErrOrderFailed
	}

	// 有网关单的才验凭证；全额钱包抵扣的单没有凭证可验
	if order.Payable > 0 {
		if time.Now().After(order.ExpiredAt) {
			s.markFailed(ctx, order, model.PayOrderStatusExpired)
			return ErrOrderExpired
		}
		if req.GatewayOrderID != order.GatewayOrderID {
			s.markFailed(ctx, order, model.PayOrderStatusFailed)
			return ErrProofMismatch
		}
		if err := s.gateway.VerifySignature(gateway.Proof{
			GatewayOrderID: req.GatewayOrderID,
			PaymentID:      req.PaymentID,
			Signature:      req.Signature,
		}); err != nil {
			s.markFailed(ctx, order, model.PayOrderStatusFailed)
			return err
		}
	}

	return s.settle(ctx, order, req.PaymentID)
}

// settle 结算：支付单状态推进、钱包扣款、券次数、预约出 pending，
// 全部在一个事务内，失败即整体回滚
func (s *CheckoutService) settle(ctx context.Context, order *model.PaymentOrder, paymentID string) error {
	var professionalID string
	if professional, err := s.catalogRepo.GetFirstActiveProfessional(ctx); err == nil {
		professionalID = professional.ProfessionalID
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.UpdateStatus(ctx, tx, order.OrderNo, model.PayOrderStatusCreated, model.PayOrderStatusVerified); err != nil {
			return fmt.Errorf("更新支付单状态失败: %w", err)
		}

		plan := model.DebitPlan{LockedUse: order.LockedUse, SpendableUse: order.SpendableUse}
		if plan.Total() > 0 {
			desc := fmt.Sprintf("预约抵扣-%s", order.BookingNo)
			if err := s.walletSvc.DebitWithLedger(ctx, tx, order.UserID, plan, order.OrderNo, desc); err != nil {
				return fmt.Errorf("钱包扣款失败: %w", err)
			}
		}

		if order.CouponCode != "" {
			if err := s.couponRepo.IncrementUsage(ctx, tx, order.CouponCode); err != nil {
				return fmt.Errorf("优惠券核销失败: %w", err)
			}
		}

		if err := s.bookingRepo.AcceptAndAssign(ctx, tx, order.BookingNo, professionalID); err != nil {
			return fmt.Errorf("更新预约状态失败: %w", err)
		}

		if err := s.orderRepo.UpdateStatus(ctx, tx, order.OrderNo, model.PayOrderStatusVerified, model.PayOrderStatusSettled); err != nil {
			return fmt.Errorf("更新支付单状态失败: %w", err)
		}

		msgPayload := map[string]interface{}{
			"order_no":        order.OrderNo,
			"booking_no":      order.BookingNo,
			"user_id":         order.UserID,
			"amount":          order.Payable,
			"wallet_used":     order.LockedUse + order.SpendableUse,
			"discount_amount": order.DiscountAmount,
			"payment_id":      paymentID,
			"status":          model.PayOrderStatusSettled,
			"settled_at":      time.Now().Format(time.RFC3339),
		}
		payloadBytes, _ := json.Marshal(msgPayload)

		outboxMsg := &model.OutboxMessage{
			MessageKey: order.OrderNo,
			Topic:      s.cfg.Kafka.Topic.SettleResult,
			Payload:    string(payloadBytes),
			Status:     model.OutboxStatusPending,
		}
		if err := s.outboxRepo.Create(ctx, tx, outboxMsg); err != nil {
			return fmt.Errorf("写入消息失败: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("结算成功: orderNo=%s, bookingNo=%s, userID=%s, payable=%d, walletUsed=%d",
		order.OrderNo, order.BookingNo, order.UserID, order.Payable, order.LockedUse+order.SpendableUse)
	return nil
}

// markFailed 核销失败：支付单落终态，预约取消，不动钱包和券
func (s *CheckoutService) markFailed(ctx context.Context, order *model.PaymentOrder, toStatus string) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.UpdateStatus(ctx, tx, order.OrderNo, model.PayOrderStatusCreated, toStatus); err != nil {
			return err
		}
		if order.BookingNo != "" {
			if err := s.bookingRepo.UpdateStatus(ctx, tx, order.BookingNo, model.BookingStatusPending, model.BookingStatusCancelled); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("标记支付单失败出错: orderNo=%s, err=%v", order.OrderNo, err)
	}
}

// QueryOrder 查询支付单
func (s *CheckoutService) QueryOrder(ctx context.Context, orderNo string) (*model.PaymentOrder, error) {
	return s.orderRepo.GetByOrderNo(ctx, orderNo)
}
