package repository

import (
	"context"
	"errors"

	"homeserve/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrWalletNotFound     = errors.New("钱包账户不存在")
	ErrInsufficientFunds  = errors.New("余额不足")
	ErrInsufficientLocked = errors.New("锁定余额不足")
	ErrOptimisticLock     = errors.New("乐观锁冲突，请重试")
)

type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) GetByUserID(ctx context.Context, userID string) (*model.WalletAccount, error) {
	var account model.WalletAccount
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *WalletRepository) GetByUserIDForUpdate(ctx context.Context, tx *gorm.DB, userID string) (*model.WalletAccount, error) {
	var account model.WalletAccount
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return &account, nil
}

// Create 建立空账户；user_id 冲突时静默忽略（并发首购场景）
func (r *WalletRepository) Create(ctx context.Context, tx *gorm.DB, account *model.WalletAccount) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(account).Error
}

// Debit 按抵扣计划一次性扣减两类余额
// 条件更新同时校验余额充足与版本号，RowsAffected==0 时回查区分失败原因
func (r *WalletRepository) Debit(ctx context.Context, tx *gorm.DB, userID string, plan model.DebitPlan, version int) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&model.WalletAccount{}).
		Where("user_id = ? AND balance >= ? AND locked_balance >= ? AND version = ?",
			userID, plan.SpendableUse, plan.LockedUse, version).
		Updates(map[string]interface{}{
			"balance":        gorm.Expr("balance - ?", plan.SpendableUse),
			"locked_balance": gorm.Expr("locked_balance - ?", plan.LockedUse),
			"version":        gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		account, err := r.GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if account.Balance < plan.SpendableUse {
			return ErrInsufficientFunds
		}
		if account.LockedBalance < plan.LockedUse {
			return ErrInsufficientLocked
		}
		return ErrOptimisticLock
	}

	return nil
}

// Credit 入账；locked 为 true 时入锁定余额
func (r *WalletRepository) Credit(ctx context.Context, tx *gorm.DB, userID string, amount int64, locked bool) error {
	if tx == nil {
		tx = r.db
	}

	column := "balance"
	if locked {
		column = "locked_balance"
	}

	result := tx.WithContext(ctx).
		Model(&model.WalletAccount{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			column:    gorm.Expr(column+" + ?", amount),
			"version": gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrWalletNotFound
	}

	return nil
}
