package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"pos-service/internal/broker"
	"pos-service/internal/models"
	"pos-service/internal/store"
	"pos-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TableWorker frees tables when their orders reach a terminal state.
// It consumes order events and, for closed or cancelled orders bound to
// a table, marks the table available and publishes TableReleased.
type TableWorker struct {
	consumer       *broker.Consumer
	eventHandler   *broker.EventHandler
	store          *store.Store
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewTableWorker creates a new table worker
func NewTableWorker(
	consumer *broker.Consumer,
	store *store.Store,
	eventPublisher *broker.EventPublisher,
) *TableWorker {
	w := &TableWorker{
		consumer:       consumer,
		store:          store,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderClosed(w.handleOrderClosed)
	eventHandler.OnOrderCancelled(w.handleOrderCancelled)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *TableWorker) Start(ctx context.Context) error {
	log.Println("Starting table worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *TableWorker) Stop() error {
	log.Println("Stopping table worker...")
	return w.consumer.Close()
}

func (w *TableWorker) handleOrderClosed(ctx context.Context, event *models.OrderClosedEvent) error {
	return w.releaseTable(ctx, event.EventID, event.EventType, event.OrderID, event.TableID)
}

func (w *TableWorker) handleOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error {
	return w.releaseTable(ctx, event.EventID, event.EventType, event.OrderID, event.TableID)
}

// releaseTable marks the order's table available again, with
// processed-event idempotency so redelivered messages are no-ops.
func (w *TableWorker) releaseTable(ctx context.Context, eventID, eventType, orderID, tableID string) error {
	processed, err := w.store.IsEventProcessed(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		w.logger.Info("Event already processed", zap.String("event_id", eventID))
		return nil
	}

	if tableID != "" {
		if err := w.store.UpdateTableStatus(ctx, tableID, models.TableStatusAvailable); err != nil {
			return fmt.Errorf("failed to release table: %w", err)
		}

		util.TablesReleasedTotal.Inc()
		w.logger.Info("Table released",
			zap.String("table_id", tableID),
			zap.String("order_id", orderID))

		released := &models.TableReleasedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeTableReleased,
				Timestamp: time.Now(),
			},
			TableID: tableID,
			OrderID: orderID,
		}
		if err := w.eventPublisher.PublishTableReleased(ctx, released); err != nil {
			w.logger.Error("Failed to publish TableReleased event", zap.Error(err))
		}
	}

	if err := w.store.MarkEventProcessed(ctx, eventID, eventType); err != nil {
		w.logger.Error("Failed to mark event processed", zap.Error(err))
	}

	return nil
}
