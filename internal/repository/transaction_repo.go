package repository

import (
	"context"
	"errors"

	"homeserve/internal/model"

	"gorm.io/gorm"
)

// TransactionRepository 钱包流水仓储
// 流水只追加：没有 Update / Delete 方法，这是有意为之
type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *gorm.DB, trans *model.WalletTransaction) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(trans).Error
}

// GetByOrderNoAndType 查指定支付单下某类型的流水，幂等检查用
func (r *TransactionRepository) GetByOrderNoAndType(ctx context.Context, orderNo, txnType string) (*model.WalletTransaction, error) {
	var trans model.WalletTransaction
	err := r.db.WithContext(ctx).
		Where("order_no = ? AND type = ?", orderNo, txnType).
		First(&trans).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &trans, nil
}

func (r *TransactionRepository) ListByUserID(ctx context.Context, userID string, page, pageSize int) ([]*model.WalletTransaction, int64, error) {
	var transactions []*model.WalletTransaction
	var total int64

	query := r.db.WithContext(ctx).Model(&model.WalletTransaction{}).Where("user_id = ?", userID)

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.
		Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&transactions).Error

	return transactions, total, err
}

// ListAllByUserIDAsc 按创建顺序取用户全部流水，重放对账用
func (r *TransactionRepository) ListAllByUserIDAsc(ctx context.Context, userID string) ([]*model.WalletTransaction, error) {
	var transactions []*model.WalletTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&transactions).Error
	return transactions, err
}
