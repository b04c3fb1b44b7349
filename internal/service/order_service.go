package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pos-service/internal/broker"
	"pos-service/internal/ledger"
	"pos-service/internal/models"
	"pos-service/internal/pricing"
	"pos-service/internal/redisclient"
	"pos-service/internal/store"
	"pos-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderService handles the POS order lifecycle: opening, line
// snapshots, payments and closing. Every mutation runs under the
// per-order Redis lock so two terminals editing the same order are
// serialized; the in-memory aggregate additionally holds its own mutex.
type OrderService struct {
	store          *store.Store
	redis          *redisclient.Client
	eventPublisher *broker.EventPublisher
	resolver       *pricing.Resolver
	ledger         *ledger.Ledger
	logger         *zap.Logger
	lockTTL        time.Duration

	// now is injectable so pricing decisions are testable without a
	// wall clock.
	now func() time.Time
}

// NewOrderService creates a new order service
func NewOrderService(
	store *store.Store,
	redis *redisclient.Client,
	eventPublisher *broker.EventPublisher,
	resolver *pricing.Resolver,
	lockTTL time.Duration,
) *OrderService {
	return &OrderService{
		store:          store,
		redis:          redis,
		eventPublisher: eventPublisher,
		resolver:       resolver,
		ledger:         ledger.NewLedger(resolver),
		logger:         util.GetLogger(),
		lockTTL:        lockTTL,
		now:            time.Now,
	}
}

// OpenOrderRequest represents a request to open an order
type OpenOrderRequest struct {
	UserID  string `json:"user_id" binding:"required"`
	TableID string `json:"table_id,omitempty"`
}

// OpenOrder creates a new open order for a tenant, occupying the table
// when one is given. Requires the POS feature.
func (s *OrderService) OpenOrder(ctx context.Context, req *OpenOrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.OpenOrder")
	defer span.End()

	profile, err := s.store.GetProfileByUserID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if err := requireFeature(profile, FeaturePOS); err != nil {
		return nil, err
	}

	if req.TableID != "" {
		if _, err := s.store.GetTableByID(ctx, req.TableID); err != nil {
			return nil, ledger.ErrNotFound
		}
		if err := s.store.UpdateTableStatus(ctx, req.TableID, models.TableStatusOccupied); err != nil {
			return nil, fmt.Errorf("failed to occupy table: %w", err)
		}
	}

	agg := ledger.Open(req.UserID, req.TableID, s.now())
	order := agg.Snapshot()
	if err := s.store.CreateOrder(ctx, &order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	util.OrdersOpenedTotal.Inc()
	s.logger.Info("Order opened",
		zap.String("order_id", order.ID),
		zap.String("user_id", order.UserID))

	event := &models.OrderOpenedEvent{
		BaseEvent: s.baseEvent(models.EventTypeOrderOpened),
		OrderID:   order.ID,
		UserID:    order.UserID,
		TableID:   req.TableID,
	}
	if err := s.eventPublisher.PublishOrderOpened(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderOpened event", zap.Error(err))
	}

	return &order, nil
}

// AddLine snapshots a product into an order at the price in effect
// right now. Same product at the same snapshot price merges into the
// existing line; a changed price produces a separate line.
func (s *OrderService) AddLine(ctx context.Context, orderID, productID string) (*models.OrderLine, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.AddLine")
	defer span.End()

	unlock, err := s.lockOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	agg, err := s.loadAggregate(ctx, orderID)
	if err != nil {
		return nil, err
	}

	product, err := s.store.GetProductByID(ctx, productID)
	if err != nil {
		return nil, ledger.ErrNotFound
	}

	profile, err := s.store.GetProfileByUserID(ctx, agg.UserID())
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	now := s.now()
	window := pricing.WindowFromProfile(profile)
	resolved := s.resolver.Resolve(product, window, now)

	line, created, err := s.ledger.AddProduct(agg, product, window, now)
	if err != nil {
		util.OrderMutationsFailedTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}

	if created {
		if err := s.store.CreateOrderLine(ctx, &line); err != nil {
			return nil, fmt.Errorf("failed to create order line: %w", err)
		}
	} else {
		if err := s.store.UpdateOrderLineQuantity(ctx, line.ID, line.Quantity); err != nil {
			return nil, fmt.Errorf("failed to update order line: %w", err)
		}
	}

	if err := s.persistTotal(ctx, agg); err != nil {
		return nil, err
	}

	priceKind := "regular"
	if resolved.HappyHour {
		priceKind = "happy_hour"
	}
	util.OrderLinesAddedTotal.WithLabelValues(priceKind).Inc()

	s.logger.Info("Order line added",
		zap.String("order_id", orderID),
		zap.String("product_id", productID),
		zap.String("price", line.PriceSnapshot.String()),
		zap.Int("quantity", line.Quantity),
		zap.Bool("happy_hour", resolved.HappyHour))

	event := &models.OrderLineAddedEvent{
		BaseEvent:     s.baseEvent(models.EventTypeOrderLineAdded),
		OrderID:       orderID,
		LineID:        line.ID,
		ProductID:     productID,
		ProductName:   line.ProductName,
		PriceSnapshot: line.PriceSnapshot,
		Quantity:      line.Quantity,
		HappyHour:     resolved.HappyHour,
		TotalAmount:   agg.Total(),
	}
	if err := s.eventPublisher.PublishOrderLineAdded(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderLineAdded event", zap.Error(err))
	}

	return &line, nil
}

// SetLineQuantity updates a line's quantity; zero or less removes it.
func (s *OrderService) SetLineQuantity(ctx context.Context, orderID, lineID string, quantity int) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.SetLineQuantity")
	defer span.End()

	unlock, err := s.lockOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	agg, err := s.loadAggregate(ctx, orderID)
	if err != nil {
		return nil, err
	}

	line, removed, err := s.ledger.SetLineQuantity(agg, lineID, quantity)
	if err != nil {
		util.OrderMutationsFailedTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}

	if removed {
		if err := s.store.DeleteOrderLine(ctx, line.ID); err != nil {
			return nil, fmt.Errorf("failed to delete order line: %w", err)
		}
	} else {
		if err := s.store.UpdateOrderLineQuantity(ctx, line.ID, line.Quantity); err != nil {
			return nil, fmt.Errorf("failed to update order line: %w", err)
		}
	}

	if err := s.persistTotal(ctx, agg); err != nil {
		return nil, err
	}

	order := agg.Snapshot()
	return &order, nil
}

// RecordPayment applies a partial or full payment to an open order.
// Overpayment is allowed; the remaining balance simply goes negative.
func (s *OrderService) RecordPayment(ctx context.Context, orderID string, amount decimal.Decimal) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.RecordPayment")
	defer span.End()

	unlock, err := s.lockOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	agg, err := s.loadAggregate(ctx, orderID)
	if err != nil {
		return nil, err
	}

	paid, err := agg.RecordPayment(amount)
	if err != nil {
		util.OrderMutationsFailedTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}

	order := agg.Snapshot()
	if err := s.store.UpdateOrderPaidAmount(ctx, &order); err != nil {
		return nil, fmt.Errorf("failed to persist payment: %w", err)
	}

	util.PaymentsRecordedTotal.Inc()
	s.logger.Info("Payment recorded",
		zap.String("order_id", orderID),
		zap.String("amount", amount.String()),
		zap.String("paid_amount", paid.String()),
		zap.String("remaining", order.Remaining().String()))

	event := &models.PaymentRecordedEvent{
		BaseEvent:  s.baseEvent(models.EventTypePaymentRecorded),
		OrderID:    orderID,
		Amount:     amount,
		PaidAmount: paid,
		Remaining:  order.Remaining(),
	}
	if err := s.eventPublisher.PublishPaymentRecorded(ctx, event); err != nil {
		s.logger.Error("Failed to publish PaymentRecorded event", zap.Error(err))
	}

	return &order, nil
}

// CloseOrder finalizes an open order. Lines and totals freeze; the
// OrderClosed event carries the table id so the table worker can mark
// the table available again.
func (s *OrderService) CloseOrder(ctx context.Context, orderID string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CloseOrder")
	defer span.End()

	unlock, err := s.lockOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	agg, err := s.loadAggregate(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := agg.Close(s.now()); err != nil {
		util.OrderMutationsFailedTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}

	order := agg.Snapshot()
	if err := s.store.FinalizeOrder(ctx, &order); err != nil {
		return nil, fmt.Errorf("failed to finalize order: %w", err)
	}

	util.OrdersClosedTotal.Inc()
	s.logger.Info("Order closed",
		zap.String("order_id", orderID),
		zap.String("total", order.TotalAmount.String()),
		zap.String("paid", order.PaidAmount.String()))

	event := &models.OrderClosedEvent{
		BaseEvent:   s.baseEvent(models.EventTypeOrderClosed),
		OrderID:     order.ID,
		UserID:      order.UserID,
		TableID:     agg.TableID(),
		TotalAmount: order.TotalAmount,
		PaidAmount:  order.PaidAmount,
		ClosedAt:    *order.ClosedAt,
	}
	if err := s.eventPublisher.PublishOrderClosed(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderClosed event", zap.Error(err))
	}

	return &order, nil
}

// CancelOrder is the administrative open -> cancelled transition with
// the same freezing guarantee as closing.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, reason string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CancelOrder")
	defer span.End()

	unlock, err := s.lockOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	agg, err := s.loadAggregate(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := agg.Cancel(s.now()); err != nil {
		util.OrderMutationsFailedTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}

	order := agg.Snapshot()
	if err := s.store.FinalizeOrder(ctx, &order); err != nil {
		return nil, fmt.Errorf("failed to finalize order: %w", err)
	}

	util.OrdersCancelledTotal.Inc()
	s.logger.Warn("Order cancelled",
		zap.String("order_id", orderID),
		zap.String("reason", reason))

	event := &models.OrderCancelledEvent{
		BaseEvent: s.baseEvent(models.EventTypeOrderCancelled),
		OrderID:   order.ID,
		TableID:   agg.TableID(),
		Reason:    reason,
	}
	if err := s.eventPublisher.PublishOrderCancelled(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCancelled event", zap.Error(err))
	}

	return &order, nil
}

// GetOrder retrieves an order with its lines
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*models.Order, []models.OrderLine, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if order == nil {
		return nil, nil, ledger.ErrNotFound
	}

	lines, err := s.store.GetOrderLinesByOrderID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	return order, lines, nil
}

// ListOrders retrieves a tenant's orders, newest first
func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]models.Order, error) {
	return s.store.GetOrdersByUserID(ctx, userID)
}

// loadAggregate rebuilds the in-memory aggregate from persisted state
func (s *OrderService) loadAggregate(ctx context.Context, orderID string) (*ledger.Order, error) {
	row, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if row == nil {
		return nil, ledger.ErrNotFound
	}

	lines, err := s.store.GetOrderLinesByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return ledger.NewOrder(*row, lines), nil
}

// persistTotal writes the recomputed total back to the store
func (s *OrderService) persistTotal(ctx context.Context, agg *ledger.Order) error {
	order := agg.Snapshot()
	if err := s.store.UpdateOrderTotal(ctx, &order); err != nil {
		return fmt.Errorf("failed to persist order total: %w", err)
	}
	return nil
}

// lockOrder acquires the per-order Redis lock, polling until acquired
// or the context ends. The returned function releases the lock.
func (s *OrderService) lockOrder(ctx context.Context, orderID string) (func(), error) {
	start := time.Now()
	token := uuid.New().String()

	for {
		acquired, err := s.redis.AcquireOrderLock(ctx, orderID, token, s.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire order lock: %w", err)
		}
		if acquired {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}

	util.OrderLockLatency.Observe(time.Since(start).Seconds())

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.redis.ReleaseOrderLock(releaseCtx, orderID, token); err != nil {
			s.logger.Error("Failed to release order lock",
				zap.String("order_id", orderID),
				zap.Error(err))
		}
	}, nil
}

func (s *OrderService) baseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: s.now(),
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ledger.ErrOrderNotOpen):
		return "order_not_open"
	case errors.Is(err, ledger.ErrInactiveProduct):
		return "inactive_product"
	case errors.Is(err, ledger.ErrInvalidPayment):
		return "invalid_payment"
	case errors.Is(err, ledger.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
