package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"pos-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishOrderOpened publishes OrderOpened event
func (ep *EventPublisher) PublishOrderOpened(ctx context.Context, event *models.OrderOpenedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishOrderLineAdded publishes OrderLineAdded event
func (ep *EventPublisher) PublishOrderLineAdded(ctx context.Context, event *models.OrderLineAddedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishPaymentRecorded publishes PaymentRecorded event
func (ep *EventPublisher) PublishPaymentRecorded(ctx context.Context, event *models.PaymentRecordedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishOrderClosed publishes OrderClosed event
func (ep *EventPublisher) PublishOrderClosed(ctx context.Context, event *models.OrderClosedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishOrderCancelled publishes OrderCancelled event
func (ep *EventPublisher) PublishOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishTableReleased publishes TableReleased event
func (ep *EventPublisher) PublishTableReleased(ctx context.Context, event *models.TableReleasedEvent) error {
	return ep.producer.PublishEvent(ctx, fmt.Sprintf("table-%s", event.TableID), event)
}

func orderKey(orderID string) string {
	return fmt.Sprintf("order-%s", orderID)
}

// EventHandler routes incoming order events to registered callbacks
type EventHandler struct {
	onOrderClosed    func(context.Context, *models.OrderClosedEvent) error
	onOrderCancelled func(context.Context, *models.OrderCancelledEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnOrderClosed registers a handler for OrderClosed events
func (eh *EventHandler) OnOrderClosed(handler func(context.Context, *models.OrderClosedEvent) error) {
	eh.onOrderClosed = handler
}

// OnOrderCancelled registers a handler for OrderCancelled events
func (eh *EventHandler) OnOrderCancelled(handler func(context.Context, *models.OrderCancelledEvent) error) {
	eh.onOrderCancelled = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	log.Printf("Handling event: type=%s, id=%s", baseEvent.EventType, baseEvent.EventID)

	switch baseEvent.EventType {
	case models.EventTypeOrderClosed:
		if eh.onOrderClosed != nil {
			var event models.OrderClosedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OrderClosed event: %w", err)
			}
			return eh.onOrderClosed(ctx, &event)
		}

	case models.EventTypeOrderCancelled:
		if eh.onOrderCancelled != nil {
			var event models.OrderCancelledEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OrderCancelled event: %w", err)
			}
			return eh.onOrderCancelled(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
