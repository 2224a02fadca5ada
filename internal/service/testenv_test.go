package service

import (
	"context"
	"fmt"
	"testing"

	"homeserve/internal/config"
	"homeserve/internal/gateway"
	"homeserve/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB 每个测试独立的内存库
// 单连接即可，测试内没有跨连接并发
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("打开测试库失败: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取底层连接失败: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&model.WalletAccount{},
		&model.WalletTransaction{},
		&model.Coupon{},
		&model.Booking{},
		&model.PaymentOrder{},
		&model.TopupOffer{},
		&model.Category{},
		&model.Product{},
		&model.Professional{},
		&model.OutboxMessage{},
	); err != nil {
		t.Fatalf("建表失败: %v", err)
	}
	return db
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func newTestConfig() *config.Config {
	return &config.Config{
		Kafka: config.KafkaConfig{
			Topic: config.KafkaTopicConfig{
				SettleResult: "settle_result_test",
				BookingEvent: "booking_event_test",
			},
		},
		Gateway: config.GatewayConfig{
			KeyID:    "key_test",
			Currency: "INR",
		},
		Business: config.BusinessConfig{
			OrderTimeoutMinutes: 15,
			MaxRetryCount:       3,
			WelcomeBonusAmount:  10000,
			LockedUsageMinCart:  20000,
			LockedUsageCap:      20000,
			ReviewRewardAmount:  5000,
		},
	}
}

func mustSeed(t *testing.T, db *gorm.DB, rows ...interface{}) {
	t.Helper()
	for _, row := range rows {
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("准备数据失败: %v", err)
		}
	}
}

// fakeGateway 桩网关：签名为 "valid" 即通过
type fakeGateway struct{}

func (fakeGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (string, error) {
	return "gw_order_test", nil
}

func (fakeGateway) VerifySignature(proof gateway.Proof) error {
	if proof.Signature != "valid" {
		return gateway.ErrSignatureInvalid
	}
	return nil
}
