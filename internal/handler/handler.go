package handler

import (
	"errors"
	"strconv"
	"time"

	"homeserve/internal/config"
	"homeserve/internal/gateway"
	"homeserve/internal/model"
	"homeserve/internal/repository"
	"homeserve/internal/service"
	"homeserve/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// Handler 统一处理器，包含所有服务依赖
type Handler struct {
	walletService   *service.WalletService
	topupService    *service.TopupService
	couponService   *service.CouponService
	checkoutService *service.CheckoutService
	bookingService  *service.BookingService
	catalogService  *service.CatalogService
}

// NewHandler 创建处理器实例
func NewHandler(db *gorm.DB, rdb *redis.Client, cfg *config.Config, gw gateway.Client) *Handler {
	return &Handler{
		walletService:   service.NewWalletService(db, rdb, cfg),
		topupService:    service.NewTopupService(db, rdb, cfg, gw),
		couponService:   service.NewCouponService(db),
		checkoutService: service.NewCheckoutService(db, rdb, cfg, gw),
		bookingService:  service.NewBookingService(db, rdb, cfg),
		catalogService:  service.NewCatalogService(db),
	}
}

// writeError 业务错误到响应码的统一映射
// 未识别的错误一律按服务器内部错误返回，不向外透出细节
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrOrderNotFound):
		response.BusinessError(c, response.CodeOrderNotFound, err.Error())
	case errors.Is(err, repository.ErrOrderStatusInvalid), errors.Is(err, service.ErrOrderFailed):
		response.BusinessError(c, response.CodeOrderStatusInvalid, err.Error())
	case errors.Is(err, service.ErrOrderExpired):
		response.BusinessError(c, response.CodeOrderExpired, err.Error())
	case errors.Is(err, service.ErrProofMismatch), errors.Is(err, gateway.ErrSignatureInvalid):
		response.BusinessError(c, response.CodeSignatureInvalid, err.Error())

	case errors.Is(err, repository.ErrCouponNotFound):
		response.BusinessError(c, response.CodeCouponNotFound, err.Error())
	case errors.Is(err, service.ErrCouponInactive):
		response.BusinessError(c, response.CodeCouponInactive, err.Error())
	case errors.Is(err, service.ErrCouponExpired):
		response.BusinessError(c, response.CodeCouponExpired, err.Error())
	case errors.Is(err, service.ErrCouponBelowMinCart):
		response.BusinessError(c, response.CodeCouponBelowMinCart, err.Error())
	case errors.Is(err, service.ErrCouponLimitExceeded), errors.Is(err, repository.ErrCouponExhausted):
		response.BusinessError(c, response.CodeCouponExhausted, err.Error())
	case errors.Is(err, repository.ErrDuplicateCoupon),
		errors.Is(err, service.ErrInvalidDiscountType),
		errors.Is(err, service.ErrInvalidDiscountValue),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidPrice):
		response.ParamError(c, err.Error())

	case errors.Is(err, repository.ErrWalletNotFound):
		response.BusinessError(c, response.CodeWalletNotFound, err.Error())
	case errors.Is(err, repository.ErrInsufficientFunds), errors.Is(err, repository.ErrInsufficientLocked):
		response.BusinessError(c, response.CodeBalanceNotEnough, err.Error())
	case errors.Is(err, repository.ErrOfferNotFound), errors.Is(err, service.ErrOfferInactive):
		response.BusinessError(c, response.CodeOfferNotFound, err.Error())

	case errors.Is(err, repository.ErrBookingNotFound):
		response.BusinessError(c, response.CodeBookingNotFound, err.Error())
	case errors.Is(err, repository.ErrInvalidTransition):
		response.BusinessError(c, response.CodeInvalidTransition, err.Error())
	case errors.Is(err, service.ErrPermissionDenied):
		response.BusinessError(c, response.CodePermissionDenied, err.Error())
	case errors.Is(err, repository.ErrAlreadyRewarded):
		response.BusinessError(c, response.CodeAlreadyRewarded, err.Error())

	case errors.Is(err, repository.ErrProductNotFound):
		response.BusinessError(c, response.CodeProductNotFound, err.Error())
	case errors.Is(err, repository.ErrProfessionalNotFound):
		response.Error(c, response.CodeNotFound, err.Error())

	default:
		response.ServerError(c, err.Error())
	}
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	return page, pageSize
}

// ============================================================
// 钱包相关接口
// ============================================================

// GetWalletSummary 钱包概览：余额 + 分页流水
// GET /api/v1/wallet/summary
func (h *Handler) GetWalletSummary(c *gin.Context) {
	ident := identityFrom(c)
	page, pageSize := pageParams(c)

	account, transactions, total, err := h.walletService.Summary(c.Request.Context(), ident.UserID, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"user_id":        account.UserID,
		"balance":        account.Balance,
		"locked_balance": account.LockedBalance,
		"transactions":   transactions,
		"total":          total,
		"page":           page,
		"page_size":      pageSize,
	})
}

// ListTopupOffers 充值档位列表
// GET /api/v1/wallet/offers
func (h *Handler) ListTopupOffers(c *gin.Context) {
	offers, err := h.topupService.ListOffers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, offers)
}

// CreateTopup 创建充值单
// POST /api/v1/wallet/topup
func (h *Handler) CreateTopup(c *gin.Context) {
	var req struct {
		OfferID string `json:"offer_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	ident := identityFrom(c)
	result, err := h.topupService.CreateOrder(c.Request.Context(), ident.UserID, req.OfferID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, result)
}

// VerifyTopup 核销充值
// POST /api/v1/wallet/topup/verify
func (h *Handler) VerifyTopup(c *gin.Context) {
	var req service.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	ident := identityFrom(c)
	if err := h.topupService.Verify(c.Request.Context(), ident.UserID, &req); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"order_no": req.OrderNo, "status": model.PayOrderStatusSettled})
}

// ============================================================
// 优惠券相关接口
// ============================================================

// ValidateCoupon 校验优惠券（只读预览，不消耗次数）
// POST /api/v1/coupons/validate
func (h *Handler) ValidateCoupon(c *gin.Context) {
	var req struct {
		Code      string `json:"code" binding:"required"`
		CartValue int64  `json:"cart_value" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	coupon, discount, err := h.couponService.Validate(c.Request.Context(), req.Code, req.CartValue, time.Now())
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"code":            coupon.Code,
		"discount_type":   coupon.DiscountType,
		"discount_amount": discount,
		"final_amount":    req.CartValue - discount,
	})
}

// CreateCoupon 管理端建券
// POST /api/v1/admin/coupons
func (h *Handler) CreateCoupon(c *gin.Context) {
	var coupon model.Coupon
	if err := c.ShouldBindJSON(&coupon); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	if err := h.couponService.Create(c.Request.Context(), &coupon); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"code": coupon.Code})
}

// ListCoupons 管理端券列表
// GET /api/v1/admin/coupons
func (h *Handler) ListCoupons(c *gin.Context) {
	coupons, err := h.couponService.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, coupons)
}

// SetCouponActive 管理端启停券
// POST /api/v1/admin/coupons/:code/active
func (h *Handler) SetCouponActive(c *gin.Context) {
	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	if err := h.couponService.SetActive(c.Request.Context(), c.Param("code"), *req.Active); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"code": c.Param("code"), "active": *req.Active})
}

// ============================================================
// 结算相关接口
// ============================================================

// CreateOrder 创建结算单
// POST /api/v1/orders
func (h *Handler) CreateOrder(c *gin.Context) {
	var req service.CreateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	ident := identityFrom(c)
	result, err := h.checkoutService.CreateOrder(c.Request.Context(), ident.UserID, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, result)
}

// VerifyPayment 核销支付
// POST /api/v1/orders/verify
//
// 【关键点】核销是整个系统最核心的操作：
// 1. 幂等性：同一支付单重复核销只生效一次
// 2. 原子性：钱包扣款、券次数、预约状态同事务
// 3. 网关回来的凭证必须验签通过才会触发结算
func (h *Handler) VerifyPayment(c *gin.Context) {
	var req service.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	ident := identityFrom(c)
	if err := h.checkoutService.VerifyPayment(c.Request.Context(), ident.UserID, &req); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"order_no": req.OrderNo, "status": model.PayOrderStatusSettled})
}

// GetOrder 查询支付单
// GET /api/v1/orders/:order_no
func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.checkoutService.QueryOrder(c.Request.Context(), c.Param("order_no"))
	if err != nil {
		writeError(c, err)
		return
	}

	ident := identityFrom(c)
	if ident.Role != model.RoleAdmin && order.UserID != ident.UserID {
		response.Forbidden(c, "无权查看该支付单")
		return
	}
	response.Success(c, order)
}

// ============================================================
// 预约相关接口
// ============================================================

// ListBookings 预约列表（按角色可见范围）
// GET /api/v1/bookings
func (h *Handler) ListBookings(c *gin.Context) {
	ident := identityFrom(c)
	page, pageSize := pageParams(c)

	bookings, total, err := h.bookingService.List(c.Request.Context(), ident, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"list":      bookings,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetBooking 预约详情
// GET /api/v1/bookings/:booking_no
func (h *Handler) GetBooking(c *gin.Context) {
	ident := identityFrom(c)
	booking, err := h.bookingService.Get(c.Request.Context(), ident, c.Param("booking_no"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, booking)
}

// UpdateBookingStatus 推进预约状态
// POST /api/v1/bookings/:booking_no/status
func (h *Handler) UpdateBookingStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	ident := identityFrom(c)
	bookingNo := c.Param("booking_no")
	if err := h.bookingService.UpdateStatus(c.Request.Context(), ident, bookingNo, req.Status); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"booking_no": bookingNo, "status": req.Status})
}

// ConfirmReview 评价确认并发放奖励
// POST /api/v1/bookings/:booking_no/review
func (h *Handler) ConfirmReview(c *gin.Context) {
	ident := identityFrom(c)
	bookingNo := c.Param("booking_no")
	if err := h.bookingService.ConfirmReview(c.Request.Context(), ident, bookingNo); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"booking_no": bookingNo, "review_given": true})
}

// ============================================================
// 目录相关接口
// ============================================================

// ListProducts 服务项列表
// GET /api/v1/products?category_id=xxx&type=service
func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.catalogService.ListProducts(c.Request.Context(), c.Query("category_id"), c.Query("type"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, products)
}

// GetProduct 服务项详情
// GET /api/v1/products/:product_id
func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.catalogService.GetProduct(c.Request.Context(), c.Param("product_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, product)
}

// ListCategories 品类列表
// GET /api/v1/categories
func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.catalogService.ListCategories(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, categories)
}

// CreateProduct 管理端新建服务项
// POST /api/v1/admin/products
func (h *Handler) CreateProduct(c *gin.Context) {
	var product model.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	if err := h.catalogService.CreateProduct(c.Request.Context(), &product); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"product_id": product.ProductID})
}

// CreateCategory 管理端新建品类
// POST /api/v1/admin/categories
func (h *Handler) CreateCategory(c *gin.Context) {
	var category model.Category
	if err := c.ShouldBindJSON(&category); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	if err := h.catalogService.CreateCategory(c.Request.Context(), &category); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"category_id": category.CategoryID})
}

// ListProfessionals 管理端技师列表
// GET /api/v1/admin/professionals
func (h *Handler) ListProfessionals(c *gin.Context) {
	professionals, err := h.catalogService.ListProfessionals(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, professionals)
}

// GetStats 管理端统计
// GET /api/v1/admin/stats
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.bookingService.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, stats)
}
