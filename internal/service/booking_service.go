package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"homeserve/internal/config"
	"homeserve/internal/infrastructure/lock"
	"homeserve/internal/model"
	"homeserve/internal/repository"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrPermissionDenied = errors.New("无权执行该操作")

// Identity 每次请求的调用方身份，由身份服务校验后传入
// 核心不持有任何全局会话状态，身份逐调用显式传递
type Identity struct {
	UserID string
	Role   string
}

// BookingService 预约生命周期状态机
// pending -> accepted -> on_the_way -> in_progress -> completed
// cancelled 可从任意非终态进入；每次流转前先过能力集校验
type BookingService struct {
	db          *gorm.DB
	redisClient *redis.Client
	cfg         *config.Config
	walletSvc   *WalletService
	bookingRepo *repository.BookingRepository
	catalogRepo *repository.CatalogRepository
	outboxRepo  *repository.OutboxRepository
}

func NewBookingService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *BookingService {
	return &BookingService{
		db:          db,
		redisClient: redisClient,
		cfg:         cfg,
		walletSvc:   NewWalletService(db, redisClient, cfg),
		bookingRepo: repository.NewBookingRepository(db),
		catalogRepo: repository.NewCatalogRepository(db),
		outboxRepo:  repository.NewOutboxRepository(db),
	}
}

// authorize 状态机操作鉴权
// 角色能力集先行；技师只能操作指派给自己的预约，用户只能取消自己的预约
func (s *BookingService) authorize(ctx context.Context, ident Identity, booking *model.Booking, targetStatus string) error {
	if !model.CanRoleSetBookingStatus(ident.Role, targetStatus) {
		return ErrPermissionDenied
	}

	switch ident.Role {
	case model.RoleAdmin, model.RoleSystem:
		return nil
	case model.RoleProfessional:
		professional, err := s.catalogRepo.GetProfessionalByUserID(ctx, ident.UserID)
		if err != nil {
			return ErrPermissionDenied
		}
		if booking.ProfessionalID == "" || booking.ProfessionalID != professional.ProfessionalID {
			return ErrPermissionDenied
		}
		return nil
	case model.RoleCustomer:
		if booking.UserID != ident.UserID {
			return ErrPermissionDenied
		}
		return nil
	default:
		return ErrPermissionDenied
	}
}

// UpdateStatus 推进预约状态
// 跳级流转（如 accepted 直接到 completed）会被状态机拒绝
func (s *BookingService) UpdateStatus(ctx context.Context, ident Identity, bookingNo, targetStatus string) error {
	booking, err := s.bookingRepo.GetByBookingNo(ctx, bookingNo)
	if err != nil {
		return err
	}

	if err := s.authorize(ctx, ident, booking, targetStatus); err != nil {
		return err
	}

	bookingLock := lock.NewBookingLock(s.redisClient, bookingNo, uuid.NewString())
	if err := bookingLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return fmt.Errorf("系统繁忙，请稍后重试: %w", err)
	}
	defer bookingLock.Unlock(ctx)

	// 加锁后重读当前状态，CAS 落库
	booking, err = s.bookingRepo.GetByBookingNo(ctx, bookingNo)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.bookingRepo.UpdateStatus(ctx, tx, bookingNo, booking.Status, targetStatus); err != nil {
			return err
		}

		msgPayload := map[string]interface{}{
			"booking_no":  bookingNo,
			"user_id":     booking.UserID,
			"from_status": booking.Status,
			"to_status":   targetStatus,
			"operator":    ident.UserID,
			"occurred_at": time.Now().Format(time.RFC3339),
		}
		payloadBytes, _ := json.Marshal(msgPayload)

		outboxMsg := &model.OutboxMessage{
			MessageKey: bookingNo,
			Topic:      s.cfg.Kafka.Topic.BookingEvent,
			Payload:    string(payloadBytes),
			Status:     model.OutboxStatusPending,
		}
		return s.outboxRepo.Create(ctx, tx, outboxMsg)
	})
	if err != nil {
		return err
	}

	log.Printf("预约状态流转: bookingNo=%s, %s -> %s, operator=%s",
		bookingNo, booking.Status, targetStatus, ident.UserID)
	return nil
}

// ConfirmReview 评价确认并发放奖励
// 仅对 completed 且未发放过的预约有效；标记位 CAS + 入账同事务，
// 重复调用返回 ErrAlreadyRewarded，钱包最多入账一次
func (s *BookingService) ConfirmReview(ctx context.Context, ident Identity, bookingNo string) error {
	booking, err := s.bookingRepo.GetByBookingNo(ctx, bookingNo)
	if err != nil {
		return err
	}

	if ident.Role != model.RoleAdmin && booking.UserID != ident.UserID {
		return ErrPermissionDenied
	}
	if booking.Status != model.BookingStatusCompleted {
		return repository.ErrInvalidTransition
	}
	if booking.ReviewGiven {
		return repository.ErrAlreadyRewarded
	}

	holder := uuid.NewString()
	bookingLock := lock.NewBookingLock(s.redisClient, bookingNo, holder)
	if err := bookingLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return fmt.Errorf("系统繁忙，请稍后重试: %w", err)
	}
	defer bookingLock.Unlock(ctx)

	walletLock := lock.NewWalletLock(s.redisClient, booking.UserID, holder)
	if err := walletLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return fmt.Errorf("系统繁忙，请稍后重试: %w", err)
	}
	defer walletLock.Unlock(ctx)

	reward := s.cfg.Business.ReviewRewardAmount

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// CAS 置标记，并发/重复确认在这里收敛为一次
		if err := s.bookingRepo.MarkReviewGiven(ctx, tx, bookingNo); err != nil {
			return err
		}

		if reward > 0 {
			desc := fmt.Sprintf("评价奖励-%s", bookingNo)
			if err := s.walletSvc.CreditWithLedger(ctx, tx, booking.UserID, reward,
				model.WalletTxnTypeReviewReward, "", desc); err != nil {
				return fmt.Errorf("奖励入账失败: %w", err)
			}
		}

		msgPayload := map[string]interface{}{
			"booking_no":  bookingNo,
			"user_id":     booking.UserID,
			"event":       "review_confirmed",
			"reward":      reward,
			"occurred_at": time.Now().Format(time.RFC3339),
		}
		payloadBytes, _ := json.Marshal(msgPayload)

		outboxMsg := &model.OutboxMessage{
			MessageKey: bookingNo,
			Topic:      s.cfg.Kafka.Topic.BookingEvent,
			Payload:    string(payloadBytes),
			Status:     model.OutboxStatusPending,
		}
		return s.outboxRepo.Create(ctx, tx, outboxMsg)
	})
	if err != nil {
		return err
	}

	log.Printf("评价奖励发放: bookingNo=%s, userID=%s, reward=%d", bookingNo, booking.UserID, reward)
	return nil
}

// List 按角色取预约列表：用户看自己的，技师看指派给自己的，管理员看全部
func (s *BookingService) List(ctx context.Context, ident Identity, page, pageSize int) ([]*model.Booking, int64, error) {
	switch ident.Role {
	case model.RoleAdmin:
		return s.bookingRepo.ListAll(ctx, page, pageSize)
	case model.RoleProfessional:
		professional, err := s.catalogRepo.GetProfessionalByUserID(ctx, ident.UserID)
		if err != nil {
			return nil, 0, err
		}
		return s.bookingRepo.ListByProfessionalID(ctx, professional.ProfessionalID, page, pageSize)
	default:
		return s.bookingRepo.ListByUserID(ctx, ident.UserID, page, pageSize)
	}
}

func (s *BookingService) Get(ctx context.Context, ident Identity, bookingNo string) (*model.Booking, error) {
	booking, err := s.bookingRepo.GetByBookingNo(ctx, bookingNo)
	if err != nil {
		return nil, err
	}

	switch ident.Role {
	case model.RoleAdmin:
		return booking, nil
	case model.RoleProfessional:
		professional, err := s.catalogRepo.GetProfessionalByUserID(ctx, ident.UserID)
		if err == nil && booking.ProfessionalID == professional.ProfessionalID {
			return booking, nil
		}
		return nil, ErrPermissionDenied
	default:
		if booking.UserID != ident.UserID {
			return nil, ErrPermissionDenied
		}
		return booking, nil
	}
}

// Stats 管理端统计
func (s *BookingService) Stats(ctx context.Context) (map[string]interface{}, error) {
	totalBookings, totalRevenue, err := s.bookingRepo.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"total_bookings": totalBookings,
		"total_revenue":  totalRevenue,
	}, nil
}
