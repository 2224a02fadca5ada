package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"homeserve/internal/config"
	"homeserve/internal/infrastructure/lock"
	"homeserve/internal/model"
	"homeserve/internal/repository"
	"homeserve/pkg/idgen"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrInvalidAmount = errors.New("金额必须大于0")

// WalletService 钱包账本
// 所有动账操作都满足：余额变更与流水追加在同一事务内完成，
// 不存在"有流水无余额变化"或"有余额变化无流水"的中间态
type WalletService struct {
	db              *gorm.DB
	redisClient     *redis.Client
	cfg             *config.Config
	walletRepo      *repository.WalletRepository
	transactionRepo *repository.TransactionRepository
}

func NewWalletService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *WalletService {
	return &WalletService{
		db:              db,
		redisClient:     redisClient,
		cfg:             cfg,
		walletRepo:      repository.NewWalletRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
	}
}

// GetOrCreate 查询账户，首次访问时建户并发放欢迎奖励（入锁定余额）
// 欢迎奖励最多发一次：账户锁 + 建户后二次确认
func (s *WalletService) GetOrCreate(ctx context.Context, userID string) (*model.WalletAccount, error) {
	account, err := s.walletRepo.GetByUserID(ctx, userID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, repository.ErrWalletNotFound) {
		return nil, err
	}

	walletLock := lock.NewWalletLock(s.redisClient, userID, uuid.NewString())
	if err := walletLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return nil, fmt.Errorf("系统繁忙，请稍后重试: %w", err)
	}
	defer walletLock.Unlock(ctx)

	// 拿到锁后再查一次，避免并发首购时重复发奖励
	account, err = s.walletRepo.GetByUserID(ctx, userID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, repository.ErrWalletNotFound) {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		newAccount := &model.WalletAccount{UserID: userID}
		if err := s.walletRepo.Create(ctx, tx, newAccount); err != nil {
			return fmt.Errorf("创建账户失败: %w", err)
		}

		bonus := s.cfg.Business.WelcomeBonusAmount
		if bonus <= 0 {
			return nil
		}
		return s.CreditWithLedger(ctx, tx, userID, bonus, model.WalletTxnTypeWelcomeBonus, "",
			"新用户欢迎奖励")
	})
	if err != nil {
		return nil, err
	}

	return s.walletRepo.GetByUserID(ctx, userID)
}

// Summary 钱包概览：余额 + 分页流水
// 顺带做一次重放对账，发现不一致立刻留痕（不阻塞请求）
func (s *WalletService) Summary(ctx context.Context, userID string, page, pageSize int) (*model.WalletAccount, []*model.WalletTransaction, int64, error) {
	account, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, nil, 0, err
	}

	transactions, total, err := s.transactionRepo.ListByUserID(ctx, userID, page, pageSize)
	if err != nil {
		return nil, nil, 0, err
	}

	if all, err := s.transactionRepo.ListAllByUserIDAsc(ctx, userID); err == nil {
		balance, locked := model.ReplayBalances(all)
		if balance != account.Balance || locked != account.LockedBalance {
			log.Printf("[Wallet] 对账不一致: userID=%s 重放(%d,%d) 账户(%d,%d)",
				userID, balance, locked, account.Balance, account.LockedBalance)
		}
	}

	return account, transactions, total, nil
}

// DebitWithLedger 按抵扣计划扣款并追加流水（必须在调用方事务内执行）
// 锁定部分与可用部分各记一笔，流水金额为负
func (s *WalletService) DebitWithLedger(ctx context.Context, tx *gorm.DB, userID string, plan model.DebitPlan, orderNo, description string) error {
	if plan.Total() <= 0 {
		return nil
	}
	if plan.LockedUse < 0 || plan.SpendableUse < 0 {
		return ErrInvalidAmount
	}

	account, err := s.walletRepo.GetByUserIDForUpdate(ctx, tx, userID)
	if err != nil {
		return err
	}

	if err := s.walletRepo.Debit(ctx, tx, userID, plan, account.Version); err != nil {
		return err
	}

	if plan.LockedUse > 0 {
		trans := &model.WalletTransaction{
			TransactionNo: idgen.GenerateTransactionNo(),
			UserID:        userID,
			OrderNo:       orderNo,
			Amount:        -plan.LockedUse,
			Type:          model.WalletTxnTypeDebit,
			Locked:        true,
			BalanceBefore: account.LockedBalance,
			BalanceAfter:  account.LockedBalance - plan.LockedUse,
			Description:   description,
		}
		if err := s.transactionRepo.Create(ctx, tx, trans); err != nil {
			return fmt.Errorf("记录流水失败: %w", err)
		}
	}

	if plan.SpendableUse > 0 {
		trans := &model.WalletTransaction{
			TransactionNo: idgen.GenerateTransactionNo(),
			UserID:        userID,
			OrderNo:       orderNo,
			Amount:        -plan.SpendableUse,
			Type:          model.WalletTxnTypeDebit,
			BalanceBefore: account.Balance,
			BalanceAfter:  account.Balance - plan.SpendableUse,
			Description:   description,
		}
		if err := s.transactionRepo.Create(ctx, tx, trans); err != nil {
			return fmt.Errorf("记录流水失败: %w", err)
		}
	}

	return nil
}

// CreditWithLedger 入账并追加流水（必须在调用方事务内执行）
// welcome_bonus 入锁定余额，其余类型入可用余额
func (s *WalletService) CreditWithLedger(ctx context.Context, tx *gorm.DB, userID string, amount int64, txnType, orderNo, description string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	locked := model.IsLockedTxnType(txnType)

	account, err := s.walletRepo.GetByUserIDForUpdate(ctx, tx, userID)
	if err != nil {
		return err
	}

	if err := s.walletRepo.Credit(ctx, tx, userID, amount, locked); err != nil {
		return err
	}

	balanceBefore := account.Balance
	if locked {
		balanceBefore = account.LockedBalance
	}

	trans := &model.WalletTransaction{
		TransactionNo: idgen.GenerateTransactionNo(),
		UserID:        userID,
		OrderNo:       orderNo,
		Amount:        amount,
		Type:          txnType,
		Locked:        locked,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceBefore + amount,
		Description:   description,
	}
	if err := s.transactionRepo.Create(ctx, tx, trans); err != nil {
		return fmt.Errorf("记录流水失败: %w", err)
	}

	return nil
}
