package repository

import (
	"context"
	"errors"
	"time"

	"homeserve/internal/model"

	"gorm.io/gorm"
)

var (
	ErrOrderNotFound      = errors.New("支付单不存在")
	ErrOrderStatusInvalid = errors.New("支付单状态不合法")
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, tx *gorm.DB, order *model.PaymentOrder) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(order).Error
}

func (r *OrderRepository) GetByOrderNo(ctx context.Context, orderNo string) (*model.PaymentOrder, error) {
	var order model.PaymentOrder
	err := r.db.WithContext(ctx).Where("order_no = ?", orderNo).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// UpdateStatus 支付单状态流转
// WHERE status=from 的条件更新就是幂等标记的写入：并发核销同一单时
// 只有一个事务的 RowsAffected 为 1，其余全部失败回滚
func (r *OrderRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, orderNo string, fromStatus, toStatus string) error {
	if !model.CanPayOrderTransitionTo(fromStatus, toStatus) {
		return ErrOrderStatusInvalid
	}

	if tx == nil {
		tx = r.db
	}

	updates := map[string]interface{}{
		"status": toStatus,
	}

	if toStatus == model.PayOrderStatusSettled {
		now := time.Now()
		updates["settled_at"] = &now
	}

	result := tx.WithContext(ctx).
		Model(&model.PaymentOrder{}).
		Where("order_no = ? AND status = ?", orderNo, fromStatus).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrOrderStatusInvalid
	}

	return nil
}

// GetExpiredOrders 查出已过网关有效期但仍未核销的支付单
func (r *OrderRepository) GetExpiredOrders(ctx context.Context, limit int) ([]*model.PaymentOrder, error) {
	var orders []*model.PaymentOrder
	err := r.db.WithContext(ctx).
		Where("status = ? AND expired_at < ?", model.PayOrderStatusCreated, time.Now()).
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

// GetRecentSettledOrders 查出近期已结算的支付单，对账任务用
func (r *OrderRepository) GetRecentSettledOrders(ctx context.Context, since time.Time, limit int) ([]*model.PaymentOrder, error) {
	var orders []*model.PaymentOrder
	err := r.db.WithContext(ctx).
		Where("status = ? AND settled_at >= ?", model.PayOrderStatusSettled, since).
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

func (r *OrderRepository) ListByUserID(ctx context.Context, userID string, page, pageSize int) ([]*model.PaymentOrder, int64, error) {
	var orders []*model.PaymentOrder
	var total int64

	query := r.db.WithContext(ctx).Model(&model.PaymentOrder{}).Where("user_id = ?", userID)

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&orders).Error

	return orders, total, err
}
