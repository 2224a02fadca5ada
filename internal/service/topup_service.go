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

var ErrOfferInactive = errors.New("充值档位已下线")

// TopupService 钱包充值
// 与结算核销同构：开网关单 -> 幂等核销 -> 一个事务内入账 充值 + 返现 两笔流水
type TopupService struct {
	db          *gorm.DB
	redisClient *redis.Client
	cfg         *config.Config
	gateway     gateway.Client
	walletSvc   *WalletService
	orderRepo   *repository.OrderRepository
	offerRepo   *repository.TopupOfferRepository
	outboxRepo  *repository.OutboxRepository
}

func NewTopupService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, gw gateway.Client) *TopupService {
	return &TopupService{
		db:          db,
		redisClient: redisClient,
		cfg:         cfg,
		gateway:     gw,
		walletSvc:   NewWalletService(db, redisClient, cfg),
		orderRepo:   repository.NewOrderRepository(db),
		offerRepo:   repository.NewTopupOfferRepository(db),
		outboxRepo:  repository.NewOutboxRepository(db),
	}
}

func (s *TopupService) ListOffers(ctx context.Context) ([]*model.TopupOffer, error) {
	return s.offerRepo.ListActive(ctx)
}

type CreateTopupResponse struct {
	OrderNo        string `json:"order_no"`
	GatewayOrderID string `json:"gateway_order_id"`
	KeyID          string `json:"key_id"`
	Currency       string `json:"currency"`
	Amount         int64  `json:"amount"`
	Cashback       int64  `json:"cashback"`
	OfferID        string `json:"offer_id"`
}

// CreateOrder 创建充值单
func (s *TopupService) CreateOrder(ctx context.Context, userID, offerID string) (*CreateTopupResponse, error) {
	offer, err := s.offerRepo.GetByOfferID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if !offer.Active {
		return nil, ErrOfferInactive
	}

	// 确保账户存在（顺带发放首次欢迎奖励）
	if _, err := s.walletSvc.GetOrCreate(ctx, userID); err != nil {
		return nil, err
	}

	orderNo := idgen.GenerateOrderNo()
	gatewayOrderID, err := s.gateway.CreateOrder(ctx, offer.Amount, s.cfg.Gateway.Currency, orderNo)
	if err != nil {
		return nil, fmt.Errorf("网关开单失败: %w", err)
	}

	order := &model.PaymentOrder{
		OrderNo:        orderNo,
		GatewayOrderID: gatewayOrderID,
		Kind:           model.PayOrderKindTopup,
		UserID:         userID,
		OfferID:        offer.OfferID,
		Payable:        offer.Amount,
		Status:         model.PayOrderStatusCreated,
		ExpiredAt:      time.Now().Add(time.Duration(s.cfg.Business.OrderTimeoutMinutes) * time.Minute),
	}
	if err := s.orderRepo.Create(ctx, nil, order); err != nil {
		return nil, fmt.Errorf("创建充值单失败: %w", err)
	}

	return &CreateTopupResponse{
		OrderNo:        orderNo,
		GatewayOrderID: gatewayOrderID,
		KeyID:          s.cfg.Gateway.KeyID,
		Currency:       s.cfg.Gateway.Currency,
		Amount:         offer.Amount,
		Cashback:       offer.Cashback(),
		OfferID:        offer.OfferID,
	}, nil
}

// Verify 核销充值
// 幂等：同一单号重复核销不会二次入账；充值与返现两笔流水同事务落库
func (s *TopupService) Verify(ctx context.Context, userID string, req *VerifyPaymentRequest) error {
	order, err := s.orderRepo.GetByOrderNo(ctx, req.OrderNo)
	if err != nil {
		return err
	}
	if order.UserID != userID || order.Kind != model.PayOrderKindTopup {
		return ErrProofMismatch
	}

	if order.Status == model.PayOrderStatusSettled {
		return nil
	}
	if order.Status != model.PayOrderStatusCreated {
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

	if time.Now().After(order.ExpiredAt) {
		if err := s.orderRepo.UpdateStatus(ctx, nil, order.OrderNo, model.PayOrderStatusCreated, model.PayOrderStatusExpired); err != nil {
			log.Printf("标记充值单过期失败: orderNo=%s, err=%v", order.OrderNo, err)
		}
		return ErrOrderExpired
	}
	if req.GatewayOrderID != order.GatewayOrderID {
		return ErrProofMismatch
	}
	if err := s.gateway.VerifySignature(gateway.Proof{
		GatewayOrderID: req.GatewayOrderID,
		PaymentID:      req.PaymentID,
		Signature:      req.Signature,
	}); err != nil {
		if updateErr := s.orderRepo.UpdateStatus(ctx, nil, order.OrderNo, model.PayOrderStatusCreated, model.PayOrderStatusFailed); updateErr != nil {
			log.Printf("标记充值单失败出错: orderNo=%s, err=%v", order.OrderNo, updateErr)
		}
		return err
	}

	offer, err := s.offerRepo.GetByOfferID(ctx, order.OfferID)
	if err != nil {
		return err
	}
	cashback := offer.Cashback()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.UpdateStatus(ctx, tx, order.OrderNo, model.PayOrderStatusCreated, model.PayOrderStatusVerified); err != nil {
			return fmt.Errorf("更新充值单状态失败: %w", err)
		}

		if err := s.walletSvc.CreditWithLedger(ctx, tx, order.UserID, offer.Amount,
			model.WalletTxnTypeTopup, order.OrderNo, fmt.Sprintf("钱包充值-%s", offer.OfferID)); err != nil {
			return fmt.Errorf("充值入账失败: %w", err)
		}

		if cashback > 0 {
			if err := s.walletSvc.CreditWithLedger(ctx, tx, order.UserID, cashback,
				model.WalletTxnTypeCashback, order.OrderNo, fmt.Sprintf("充值返现-%s", offer.OfferID)); err != nil {
				return fmt.Errorf("返现入账失败: %w", err)
			}
		}

		if err := s.orderRepo.UpdateStatus(ctx, tx, order.OrderNo, model.PayOrderStatusVerified, model.PayOrderStatusSettled); err != nil {
			return fmt.Errorf("更新充值单状态失败: %w", err)
		}

		msgPayload := map[string]interface{}{
			"order_no":   order.OrderNo,
			"user_id":    order.UserID,
			"amount":     offer.Amount,
			"cashback":   cashback,
			"kind":       model.PayOrderKindTopup,
			"status":     model.PayOrderStatusSettled,
			"settled_at": time.Now().Format(time.RFC3339),
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

	log.Printf("充值成功: orderNo=%s, userID=%s, amount=%d, cashback=%d",
		order.OrderNo, order.UserID, offer.Amount, cashback)
	return nil
}
