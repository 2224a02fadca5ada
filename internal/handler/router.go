package handler

import (
	"homeserve/internal/config"
	"homeserve/internal/gateway"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// SetupRouter 配置路由
func SetupRouter(db *gorm.DB, rdb *redis.Client, cfg *config.Config, gw gateway.Client) *gin.Engine {
	// 设置 gin 为发布模式（减少日志输出）
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// 注册中间件
	r.Use(RecoveryMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(CORSMiddleware())

	// 创建处理器
	h := NewHandler(db, rdb, cfg, gw)

	// 目录浏览不要求登录
	catalog := r.Group("/api/v1")
	{
		catalog.GET("/products", h.ListProducts)
		catalog.GET("/products/:product_id", h.GetProduct)
		catalog.GET("/categories", h.ListCategories)
	}

	// 业务接口要求用户身份
	api := r.Group("/api/v1")
	api.Use(IdentityMiddleware())
	{
		// 钱包相关
		wallet := api.Group("/wallet")
		{
			wallet.GET("/summary", h.GetWalletSummary)
			wallet.GET("/offers", h.ListTopupOffers)
			wallet.POST("/topup", h.CreateTopup)
			wallet.POST("/topup/verify", h.VerifyTopup)
		}

		// 优惠券校验（只读预览）
		api.POST("/coupons/validate", h.ValidateCoupon)

		// 结算相关
		orders := api.Group("/orders")
		{
			orders.POST("", h.CreateOrder)
			orders.POST("/verify", h.VerifyPayment)
			orders.GET("/:order_no", h.GetOrder)
		}

		// 预约相关
		bookings := api.Group("/bookings")
		{
			bookings.GET("", h.ListBookings)
			bookings.GET("/:booking_no", h.GetBooking)
			bookings.POST("/:booking_no/status", h.UpdateBookingStatus)
			bookings.POST("/:booking_no/review", h.ConfirmReview)
		}

		// 管理端
		admin := api.Group("/admin")
		admin.Use(AdminMiddleware())
		{
			admin.POST("/coupons", h.CreateCoupon)
			admin.GET("/coupons", h.ListCoupons)
			admin.POST("/coupons/:code/active", h.SetCouponActive)
			admin.POST("/products", h.CreateProduct)
			admin.POST("/categories", h.CreateCategory)
			admin.GET("/professionals", h.ListProfessionals)
			admin.GET("/stats", h.GetStats)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
