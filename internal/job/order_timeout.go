package job

import (
	"context"
	"errors"
	"log"
	"time"

	"homeserve/internal/config"
	"homeserve/internal/model"
	"homeserve/internal/repository"

	"gorm.io/gorm"
)

// OrderTimeoutJob 支付单超时关单任务
// 扫描 expired_at 已过但仍处于 CREATED 的支付单，置为 EXPIRED，
// 同事务把对应 pending 预约取消。整个生命周期钱包未动过账，无需退款
type OrderTimeoutJob struct {
	db          *gorm.DB
	orderRepo   *repository.OrderRepository
	bookingRepo *repository.BookingRepository
	cfg         *config.Config
	stopCh      chan struct{}
	interval    time.Duration
	batchSize   int
}

func NewOrderTimeoutJob(db *gorm.DB, cfg *config.Config) *OrderTimeoutJob {
	return &OrderTimeoutJob{
		db:          db,
		orderRepo:   repository.NewOrderRepository(db),
		bookingRepo: repository.NewBookingRepository(db),
		cfg:         cfg,
		stopCh:      make(chan struct{}),
		interval:    10 * time.Second,
		batchSize:   100,
	}
}

func (j *OrderTimeoutJob) Start(ctx context.Context) {
	log.Println("[OrderTimeoutJob] 支付单超时任务启动")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[OrderTimeoutJob] 收到停止信号，任务退出")
			return
		case <-j.stopCh:
			log.Println("[OrderTimeoutJob] 任务停止")
			return
		case <-ticker.C:
			j.closeExpiredOrders(ctx)
		}
	}
}

func (j *OrderTimeoutJob) Stop() {
	close(j.stopCh)
}

func (j *OrderTimeoutJob) closeExpiredOrders(ctx context.Context) {
	orders, err := j.orderRepo.GetExpiredOrders(ctx, j.batchSize)
	if err != nil {
		log.Printf("[OrderTimeoutJob] 查询超时支付单失败: %v", err)
		return
	}

	if len(orders) == 0 {
		return
	}

	log.Printf("[OrderTimeoutJob] 发现 %d 个超时支付单", len(orders))

	closedCount := 0
	for _, order := range orders {
		err := j.db.Transaction(func(tx *gorm.DB) error {
			// CAS 关单；核销任务同时到达时以先落库的为准
			if err := j.orderRepo.UpdateStatus(ctx, tx, order.OrderNo,
				model.PayOrderStatusCreated, model.PayOrderStatusExpired); err != nil {
				return err
			}
			if order.BookingNo == "" {
				return nil
			}
			err := j.bookingRepo.UpdateStatus(ctx, tx, order.BookingNo,
				model.BookingStatusPending, model.BookingStatusCancelled)
			if errors.Is(err, repository.ErrInvalidTransition) {
				// 预约已被其他路径推进，关单仍然生效
				return nil
			}
			return err
		})
		if err != nil {
			log.Printf("[OrderTimeoutJob] 关闭支付单失败: orderNo=%s, err=%v", order.OrderNo, err)
			continue
		}
		closedCount++
		log.Printf("[OrderTimeoutJob] 支付单已超时关闭: orderNo=%s, userID=%s, payable=%d",
			order.OrderNo, order.UserID, order.Payable)
	}

	log.Printf("[OrderTimeoutJob] 本次关闭 %d 个超时支付单", closedCount)
}

// SettleAuditJob 结算对账任务
// 抽查近一段时间内已结算且含钱包抵扣的支付单，确认账本里存在对应扣款流水。
// 只留痕不自动修数，修复由人工介入
type SettleAuditJob struct {
	db              *gorm.DB
	orderRepo       *repository.OrderRepository
	transactionRepo *repository.TransactionRepository
	cfg             *config.Config
	stopCh          chan struct{}
	interval        time.Duration
	batchSize       int
}

func NewSettleAuditJob(db *gorm.DB, cfg *config.Config) *SettleAuditJob {
	return &SettleAuditJob{
		db:              db,
		orderRepo:       repository.NewOrderRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
		cfg:             cfg,
		stopCh:          make(chan struct{}),
		interval:        30 * time.Second,
		batchSize:       50,
	}
}

func (j *SettleAuditJob) Start(ctx context.Context) {
	log.Println("[SettleAuditJob] 结算对账任务启动")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[SettleAuditJob] 收到停止信号，任务退出")
			return
		case <-j.stopCh:
			log.Println("[SettleAuditJob] 任务停止")
			return
		case <-ticker.C:
			j.auditSettledOrders(ctx)
		}
	}
}

func (j *SettleAuditJob) Stop() {
	close(j.stopCh)
}

func (j *SettleAuditJob) auditSettledOrders(ctx context.Context) {
	since := time.Now().Add(-5 * time.Minute)
	orders, err := j.orderRepo.GetRecentSettledOrders(ctx, since, j.batchSize)
	if err != nil {
		log.Printf("[SettleAuditJob] 查询已结算支付单失败: %v", err)
		return
	}

	for _, order := range orders {
		j.auditOrder(ctx, order)
	}
}

func (j *SettleAuditJob) auditOrder(ctx context.Context, order *model.PaymentOrder) {
	if order.LockedUse+order.SpendableUse <= 0 {
		return
	}

	trans, err := j.transactionRepo.GetByOrderNoAndType(ctx, order.OrderNo, model.WalletTxnTypeDebit)
	if err != nil {
		log.Printf("[SettleAuditJob] 查询流水失败: orderNo=%s, err=%v", order.OrderNo, err)
		return
	}
	if trans == nil {
		log.Printf("[SettleAuditJob] 对账异常: 支付单已结算但无扣款流水, orderNo=%s, userID=%s, 计划抵扣=%d",
			order.OrderNo, order.UserID, order.LockedUse+order.SpendableUse)
	}
}
