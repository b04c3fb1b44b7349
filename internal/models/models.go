package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Subscription plans
const (
	PlanFull  = "full"  // digital menu + POS + PDF menu
	PlanMenu  = "menu"  // digital menu + PDF menu
	PlanBasic = "basic" // PDF menu only
)

// Profile represents a tenant (restaurant) configuration.
// HappyHourStart/End are wall-clock "HH:MM" values; the window is
// configured only when both are present.
type Profile struct {
	ID             string         `db:"id" json:"id"`
	Email          string         `db:"email" json:"email"`
	Plan           string         `db:"plan" json:"plan"`
	RestaurantName sql.NullString `db:"restaurant_name" json:"restaurant_name"`
	HappyHourStart sql.NullString `db:"happy_hour_start" json:"happy_hour_start"`
	HappyHourEnd   sql.NullString `db:"happy_hour_end" json:"happy_hour_end"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// Product represents a catalog item. HappyHourPrice is optional and is
// not required to be lower than Price.
type Product struct {
	ID             string              `db:"id" json:"id"`
	UserID         string              `db:"user_id" json:"user_id"`
	Name           string              `db:"name" json:"name"`
	Description    sql.NullString      `db:"description" json:"description"`
	Price          decimal.Decimal     `db:"price" json:"price"`
	HappyHourPrice decimal.NullDecimal `db:"happy_hour_price" json:"happy_hour_price"`
	Category       sql.NullString      `db:"category" json:"category"`
	IsActive       bool                `db:"is_active" json:"is_active"`
	CreatedAt      time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time           `db:"updated_at" json:"updated_at"`
}

// Table represents a physical table in a zone
type Table struct {
	ID          string    `db:"id" json:"id"`
	ZoneID      string    `db:"zone_id" json:"zone_id"`
	UserID      string    `db:"user_id" json:"user_id"`
	TableNumber string    `db:"table_number" json:"table_number"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Order represents a POS order. TotalAmount is always the sum of
// PriceSnapshot*Quantity over its lines; PaidAmount only grows.
type Order struct {
	ID          string          `db:"id" json:"id"`
	UserID      string          `db:"user_id" json:"user_id"`
	TableID     sql.NullString  `db:"table_id" json:"table_id"`
	Status      string          `db:"status" json:"status"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"total_amount"`
	PaidAmount  decimal.Decimal `db:"paid_amount" json:"paid_amount"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	ClosedAt    *time.Time      `db:"closed_at" json:"closed_at,omitempty"`
}

// Remaining returns the open balance. Negative on overpayment; no
// clamping is applied.
func (o *Order) Remaining() decimal.Decimal {
	return o.TotalAmount.Sub(o.PaidAmount)
}

// OrderLine represents one line of an order. PriceSnapshot and
// ProductName are frozen at the moment the product was added; later
// catalog or happy-hour changes never touch them. ProductID is a weak
// reference and survives product deletion as NULL.
type OrderLine struct {
	ID            string          `db:"id" json:"id"`
	OrderID       string          `db:"order_id" json:"order_id"`
	ProductID     sql.NullString  `db:"product_id" json:"product_id"`
	ProductName   string          `db:"product_name" json:"product_name"`
	PriceSnapshot decimal.Decimal `db:"price_snapshot" json:"price_snapshot"`
	Quantity      int             `db:"quantity" json:"quantity"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// LineTotal returns PriceSnapshot * Quantity.
func (l *OrderLine) LineTotal() decimal.Decimal {
	return l.PriceSnapshot.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order statuses
const (
	OrderStatusOpen      = "open"
	OrderStatusClosed    = "closed"
	OrderStatusCancelled = "cancelled"
)

// Table statuses
const (
	TableStatusAvailable = "available"
	TableStatusOccupied  = "occupied"
	TableStatusReserved  = "reserved"
)

// ProcessedEvent for consumer idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
