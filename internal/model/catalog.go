package model

import (
	"time"
)

// Category 服务分类表
type Category struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CategoryID  string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"category_id"`
	Name        string    `gorm:"type:varchar(128);not null" json:"name"`
	Image       string    `gorm:"type:varchar(512)" json:"image"`
	Description string    `gorm:"type:varchar(512)" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Category) TableName() string {
	return "category"
}

const (
	ProductTypeProduct = "product"
	ProductTypePackage = "package"
)

// Product 服务商品表
// 对结算引擎而言是只读输入：定价只取 Price，其余为展示字段
type Product struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID   string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"product_id"`
	Name        string    `gorm:"type:varchar(128);not null" json:"name"`
	Description string    `gorm:"type:varchar(512)" json:"description"`
	Price       int64     `gorm:"not null" json:"price"` // 价格（paise）
	Duration    string    `gorm:"type:varchar(32)" json:"duration"`
	CategoryID  string    `gorm:"type:varchar(64);index;not null" json:"category_id"`
	Type        string    `gorm:"type:varchar(16);not null;default:product" json:"type"`
	Image       string    `gorm:"type:varchar(512)" json:"image"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Product) TableName() string {
	return "product"
}

const (
	ProfessionalStatusActive   = "active"
	ProfessionalStatusInactive = "inactive"
)

// Professional 服务技师表
// 核销成功后自动指派一名在职技师；状态机的正向推进只认被指派的技师
type Professional struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProfessionalID string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"professional_id"`
	Name           string    `gorm:"type:varchar(128);not null" json:"name"`
	Email          string    `gorm:"type:varchar(128)" json:"email"`
	Status         string    `gorm:"type:varchar(16);index;not null;default:active" json:"status"`
	UserID         string    `gorm:"type:varchar(64);index" json:"user_id"` // 关联的登录身份
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Professional) TableName() string {
	return "professional"
}
