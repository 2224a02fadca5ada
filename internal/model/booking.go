package model

import (
	"time"
)

const (
	BookingStatusPending   = "pending"
	BookingStatusAccepted  = "accepted"
	BookingStatusOnTheWay  = "on_the_way"
	BookingStatusInProgress = "in_progress"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"
)

// ValidBookingTransitions 预约状态机
// 正向流转必须逐级推进，不允许跳级；cancelled 可从任意非终态进入
var ValidBookingTransitions = map[string][]string{
	BookingStatusPending:    {BookingStatusAccepted, BookingStatusCancelled},
	BookingStatusAccepted:   {BookingStatusOnTheWay, BookingStatusCancelled},
	BookingStatusOnTheWay:   {BookingStatusInProgress, BookingStatusCancelled},
	BookingStatusInProgress: {BookingStatusCompleted, BookingStatusCancelled},
}

func CanBookingTransitionTo(currentStatus, targetStatus string) bool {
	allowedStatuses, exists := ValidBookingTransitions[currentStatus]
	if !exists {
		return false
	}
	for _, s := range allowedStatuses {
		if s == targetStatus {
			return true
		}
	}
	return false
}

// IsTerminalBookingStatus 终态：completed / cancelled
func IsTerminalBookingStatus(status string) bool {
	return status == BookingStatusCompleted || status == BookingStatusCancelled
}

// ============================================================================
// 角色与状态机操作权限
// ============================================================================

const (
	RoleCustomer     = "user"
	RoleProfessional = "professional"
	RoleAdmin        = "admin"
	// RoleSystem 内部流转（创建进入 pending、核销后进入 accepted），不对外暴露
	RoleSystem = "system"
)

// bookingTransitionRoles 每种目标状态允许的操作角色（能力集）
// 正向推进只允许被指派的技师或管理员；取消允许下单用户、技师与管理员
var bookingTransitionRoles = map[string][]string{
	BookingStatusAccepted:   {RoleSystem, RoleProfessional, RoleAdmin},
	BookingStatusOnTheWay:   {RoleProfessional, RoleAdmin},
	BookingStatusInProgress: {RoleProfessional, RoleAdmin},
	BookingStatusCompleted:  {RoleProfessional, RoleAdmin},
	BookingStatusCancelled:  {RoleSystem, RoleCustomer, RoleProfessional, RoleAdmin},
}

// CanRoleSetBookingStatus 指定角色是否有权把预约推进到目标状态
func CanRoleSetBookingStatus(role, targetStatus string) bool {
	allowed, exists := bookingTransitionRoles[targetStatus]
	if !exists {
		return false
	}
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// Booking 预约表
// 金额相关字段（Amount/DiscountAmount/WalletUsed/LockedUsed）在支付核销时
// 一次性固化，之后绝不重算
type Booking struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	BookingNo      string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"booking_no"`
	UserID         string     `gorm:"type:varchar(64);index;not null" json:"user_id"`
	ProductID      string     `gorm:"type:varchar(64);not null" json:"product_id"`
	ProfessionalID string     `gorm:"type:varchar(64);index" json:"professional_id"` // 核销后自动指派
	Address        string     `gorm:"type:varchar(512);not null" json:"address"`
	Status         string     `gorm:"type:varchar(20);index;not null" json:"status"`
	CouponCode     string     `gorm:"type:varchar(32)" json:"coupon_code"` // 按 code 引用，容忍券后续停用
	DiscountAmount int64      `gorm:"not null;default:0" json:"discount_amount"`
	WalletUsed     int64      `gorm:"not null;default:0" json:"wallet_used"` // 钱包抵扣总额（含锁定部分）
	LockedUsed     int64      `gorm:"not null;default:0" json:"locked_used"` // 其中锁定余额抵扣部分
	Amount         int64      `gorm:"not null" json:"amount"`                // 最终实付金额（paise）
	ReviewGiven    bool       `gorm:"not null;default:false" json:"review_given"`
	StartedAt      *time.Time `json:"started_at"`   // 进入 in_progress 的时刻
	CompletedAt    *time.Time `json:"completed_at"` // 进入 completed 的时刻
	CreatedAt      time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Booking) TableName() string {
	return "booking"
}
