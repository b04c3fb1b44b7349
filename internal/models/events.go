package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeOrderOpened     = "ORDER_OPENED"
	EventTypeOrderLineAdded  = "ORDER_LINE_ADDED"
	EventTypePaymentRecorded = "PAYMENT_RECORDED"
	EventTypeOrderClosed     = "ORDER_CLOSED"
	EventTypeOrderCancelled  = "ORDER_CANCELLED"
	EventTypeTableReleased   = "TABLE_RELEASED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderOpenedEvent published when a new order is opened
type OrderOpenedEvent struct {
	BaseEvent
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
	TableID string `json:"table_id,omitempty"`
}

// OrderLineAddedEvent published when a product is snapshotted into an order
type OrderLineAddedEvent struct {
	BaseEvent
	OrderID       string          `json:"order_id"`
	LineID        string          `json:"line_id"`
	ProductID     string          `json:"product_id"`
	ProductName   string          `json:"product_name"`
	PriceSnapshot decimal.Decimal `json:"price_snapshot"`
	Quantity      int             `json:"quantity"`
	HappyHour     bool            `json:"happy_hour"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// PaymentRecordedEvent published when a payment is applied to an order
type PaymentRecordedEvent struct {
	BaseEvent
	OrderID    string          `json:"order_id"`
	Amount     decimal.Decimal `json:"amount"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
	Remaining  decimal.Decimal `json:"remaining"`
}

// OrderClosedEvent published when an order is finalized
type OrderClosedEvent struct {
	BaseEvent
	OrderID     string          `json:"order_id"`
	UserID      string          `json:"user_id"`
	TableID     string          `json:"table_id,omitempty"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	PaidAmount  decimal.Decimal `json:"paid_amount"`
	ClosedAt    time.Time       `json:"closed_at"`
}

// OrderCancelledEvent published when an order is cancelled administratively
type OrderCancelledEvent struct {
	BaseEvent
	OrderID string `json:"order_id"`
	TableID string `json:"table_id,omitempty"`
	Reason  string `json:"reason"`
}

// TableReleasedEvent published after a closed order's table becomes available
type TableReleasedEvent struct {
	BaseEvent
	TableID string `json:"table_id"`
	OrderID string `json:"order_id"`
}
