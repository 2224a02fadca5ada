package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config 全局配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Business BusinessConfig `mapstructure:"business"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers []string         `mapstructure:"brokers"`
	Topic   KafkaTopicConfig `mapstructure:"topic"`
}

type KafkaTopicConfig struct {
	SettleResult string `mapstructure:"settle_result"`
	BookingEvent string `mapstructure:"booking_event"`
}

// GatewayConfig 支付网关配置（key_id + key_secret，签名验证用 key_secret）
type GatewayConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	KeyID     string `mapstructure:"key_id"`
	KeySecret string `mapstructure:"key_secret"`
	Currency  string `mapstructure:"currency"`
	TimeoutMS int    `mapstructure:"timeout_ms"`
}

// BusinessConfig 业务策略常量
// 金额单位统一为最小货币单位（paise），全链路不使用浮点数
type BusinessConfig struct {
	OrderTimeoutMinutes int   `mapstructure:"order_timeout_minutes"`
	MaxRetryCount       int   `mapstructure:"max_retry_count"`
	WelcomeBonusAmount  int64 `mapstructure:"welcome_bonus_amount"`  // 新账户欢迎奖励（计入锁定余额）
	LockedUsageMinCart  int64 `mapstructure:"locked_usage_min_cart"` // 锁定余额起用门槛（按商品原价判断）
	LockedUsageCap      int64 `mapstructure:"locked_usage_cap"`      // 锁定余额单次使用上限
	ReviewRewardAmount  int64 `mapstructure:"review_reward_amount"`  // 评价奖励金额
}

var GlobalConfig *Config

// LoadConfig 加载配置文件
func LoadConfig(configPath string) *Config {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("读取配置文件失败: %v", err)
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}

	GlobalConfig = config
	return config
}
