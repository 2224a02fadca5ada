package repository

import (
	"context"
	"errors"
	"time"

	"homeserve/internal/model"

	"gorm.io/gorm"
)

var (
	ErrBookingNotFound   = errors.New("预约不存在")
	ErrInvalidTransition = errors.New("预约状态不允许该流转")
	ErrAlreadyRewarded   = errors.New("该预约已发放过评价奖励")
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, tx *gorm.DB, booking *model.Booking) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(booking).Error
}

func (r *BookingRepository) GetByBookingNo(ctx context.Context, bookingNo string) (*model.Booking, error) {
	var booking model.Booking
	err := r.db.WithContext(ctx).Where("booking_no = ?", bookingNo).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

// UpdateStatus 状态流转（条件更新实现每预约串行化）
// 先按状态机校验，再以 WHERE status=from 的 CAS 落库；
// in_progress / completed 顺带盖时间戳
func (r *BookingRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, bookingNo string, fromStatus, toStatus string) error {
	if !model.CanBookingTransitionTo(fromStatus, toStatus) {
		return ErrInvalidTransition
	}

	if tx == nil {
		tx = r.db
	}

	updates := map[string]interface{}{
		"status": toStatus,
	}

	now := time.Now()
	switch toStatus {
	case model.BookingStatusInProgress:
		updates["started_at"] = &now
	case model.BookingStatusCompleted:
		updates["completed_at"] = &now
	}

	result := tx.WithContext(ctx).
		Model(&model.Booking{}).
		Where("booking_no = ? AND status = ?", bookingNo, fromStatus).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrInvalidTransition
	}

	return nil
}

// AcceptAndAssign 核销成功后由系统推进 pending -> accepted 并指派技师
func (r *BookingRepository) AcceptAndAssign(ctx context.Context, tx *gorm.DB, bookingNo, professionalID string) error {
	if tx == nil {
		tx = r.db
	}

	result := tx.WithContext(ctx).
		Model(&model.Booking{}).
		Where("booking_no = ? AND status = ?", bookingNo, model.BookingStatusPending).
		Updates(map[string]interface{}{
			"status":          model.BookingStatusAccepted,
			"professional_id": professionalID,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInvalidTransition
	}
	return nil
}

// MarkReviewGiven 置评价标记
// WHERE review_given = false 的 CAS 保证每个预约至多发放一次奖励
func (r *BookingRepository) MarkReviewGiven(ctx context.Context, tx *gorm.DB, bookingNo string) error {
	if tx == nil {
		tx = r.db
	}

	result := tx.WithContext(ctx).
		Model(&model.Booking{}).
		Where("booking_no = ? AND status = ? AND review_given = ?",
			bookingNo, model.BookingStatusCompleted, false).
		Update("review_given", true)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyRewarded
	}
	return nil
}

func (r *BookingRepository) ListByUserID(ctx context.Context, userID string, page, pageSize int) ([]*model.Booking, int64, error) {
	return r.list(ctx, r.db.WithContext(ctx).Model(&model.Booking{}).Where("user_id = ?", userID), page, pageSize)
}

func (r *BookingRepository) ListByProfessionalID(ctx context.Context, professionalID string, page, pageSize int) ([]*model.Booking, int64, error) {
	return r.list(ctx, r.db.WithContext(ctx).Model(&model.Booking{}).Where("professional_id = ?", professionalID), page, pageSize)
}

func (r *BookingRepository) ListAll(ctx context.Context, page, pageSize int) ([]*model.Booking, int64, error) {
	return r.list(ctx, r.db.WithContext(ctx).Model(&model.Booking{}), page, pageSize)
}

func (r *BookingRepository) list(ctx context.Context, query *gorm.DB, page, pageSize int) ([]*model.Booking, int64, error) {
	var bookings []*model.Booking
	var total int64

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&bookings).Error

	return bookings, total, err
}

// Stats 管理端统计：总预约数与已结算状态的总收入
func (r *BookingRepository) Stats(ctx context.Context) (totalBookings int64, totalRevenue int64, err error) {
	err = r.db.WithContext(ctx).Model(&model.Booking{}).Count(&totalBookings).Error
	if err != nil {
		return 0, 0, err
	}

	var revenue struct {
		Total int64
	}
	err = r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Select("COALESCE(SUM(amount + wallet_used), 0) AS total").
		Where("status IN ?", []string{
			model.BookingStatusAccepted,
			model.BookingStatusOnTheWay,
			model.BookingStatusInProgress,
			model.BookingStatusCompleted,
		}).
		Scan(&revenue).Error
	if err != nil {
		return 0, 0, err
	}

	return totalBookings, revenue.Total, nil
}
