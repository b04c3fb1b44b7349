package ledger

import (
	"database/sql"
	"sync"
	"time"

	"pos-service/internal/models"
	"pos-service/internal/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is the in-memory aggregate for a single order: its lines, the
// derived total and the payment accumulator. It is the unit of
// consistency; every mutation takes the aggregate mutex so concurrent
// terminals working the same order cannot lose updates. Different
// orders are independent.
type Order struct {
	mu    sync.Mutex
	order models.Order
	lines []models.OrderLine
}

// NewOrder builds an aggregate from persisted state. Line order is
// preserved as given (insertion order).
func NewOrder(order models.Order, lines []models.OrderLine) *Order {
	agg := &Order{order: order, lines: append([]models.OrderLine(nil), lines...)}
	agg.recomputeTotal()
	return agg
}

// Open creates a fresh open order for a tenant, optionally bound to a
// table.
func Open(userID, tableID string, now time.Time) *Order {
	o := models.Order{
		ID:          uuid.New().String(),
		UserID:      userID,
		Status:      models.OrderStatusOpen,
		TotalAmount: decimal.Zero,
		PaidAmount:  decimal.Zero,
		CreatedAt:   now,
	}
	if tableID != "" {
		o.TableID = sql.NullString{String: tableID, Valid: true}
	}
	return &Order{order: o}
}

// recomputeTotal recalculates the authoritative total as the full sum
// over current lines. Called after every line mutation; there is no
// incremental shortcut that could drift from the lines.
func (o *Order) recomputeTotal() {
	total := decimal.Zero
	for i := range o.lines {
		total = total.Add(o.lines[i].LineTotal())
	}
	o.order.TotalAmount = total
}

func (o *Order) ID() string      { return o.order.ID }
func (o *Order) UserID() string  { return o.order.UserID }
func (o *Order) TableID() string { return o.order.TableID.String }

// Status returns the current lifecycle state.
func (o *Order) Status() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.order.Status
}

// Total returns the derived total amount.
func (o *Order) Total() decimal.Decimal {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.order.TotalAmount
}

// Paid returns the cumulative payments recorded so far.
func (o *Order) Paid() decimal.Decimal {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.order.PaidAmount
}

// Remaining returns total minus payments. Negative on overpayment.
func (o *Order) Remaining() decimal.Decimal {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.order.Remaining()
}

// Lines returns a copy of the current lines in insertion order.
func (o *Order) Lines() []models.OrderLine {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]models.OrderLine(nil), o.lines...)
}

// Snapshot returns a copy of the order row as it should be persisted.
func (o *Order) Snapshot() models.Order {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.order
}

// RecordPayment adds a payment to the accumulator and returns the new
// paid amount. The amount must be positive; it is not capped at the
// total, so overpayment surfaces as a negative remaining balance.
func (o *Order) RecordPayment(amount decimal.Decimal) (decimal.Decimal, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.order.Status != models.OrderStatusOpen {
		return decimal.Zero, ErrOrderNotOpen
	}
	if amount.Sign() <= 0 {
		return decimal.Zero, ErrInvalidPayment
	}
	o.order.PaidAmount = o.order.PaidAmount.Add(amount)
	return o.order.PaidAmount, nil
}

// Close transitions open -> closed, stamps the close time and freezes
// the aggregate permanently. The caller uses TableID to free the
// associated table.
func (o *Order) Close(now time.Time) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.order.Status != models.OrderStatusOpen {
		return ErrOrderNotOpen
	}
	o.order.Status = models.OrderStatusClosed
	o.order.ClosedAt = &now
	return nil
}

// Cancel transitions open -> cancelled with the same freezing
// guarantee. Reachable only through administrative action.
func (o *Order) Cancel(now time.Time) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.order.Status != models.OrderStatusOpen {
		return ErrOrderNotOpen
	}
	o.order.Status = models.OrderStatusCancelled
	o.order.ClosedAt = &now
	return nil
}

// Ledger applies pricing-aware mutations to order aggregates.
type Ledger struct {
	resolver *pricing.Resolver
}

// NewLedger creates a ledger over the given price resolver.
func NewLedger(resolver *pricing.Resolver) *Ledger {
	return &Ledger{resolver: resolver}
}

// AddProduct resolves the product's price at now and snapshots it into
// the order. If an existing line has the same product id AND the exact
// same snapshot price, its quantity is incremented; otherwise a new
// line is appended. A product whose happy-hour status changed
// mid-session therefore lands on a second line at the new price —
// existing lines are never re-priced. Returns the affected line and
// whether it was newly created.
func (l *Ledger) AddProduct(o *Order, p *models.Product, w pricing.Window, now time.Time) (models.OrderLine, bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.order.Status != models.OrderStatusOpen {
		return models.OrderLine{}, false, ErrOrderNotOpen
	}
	if !p.IsActive {
		return models.OrderLine{}, false, ErrInactiveProduct
	}

	resolved := l.resolver.Resolve(p, w, now)

	for i := range o.lines {
		line := &o.lines[i]
		if line.ProductID.Valid && line.ProductID.String == p.ID &&
			line.PriceSnapshot.Equal(resolved.UnitPrice) {
			line.Quantity++
			o.recomputeTotal()
			return *line, false, nil
		}
	}

	line := models.OrderLine{
		ID:            uuid.New().String(),
		OrderID:       o.order.ID,
		ProductID:     sql.NullString{String: p.ID, Valid: true},
		ProductName:   l.resolver.DisplayName(p, w, now),
		PriceSnapshot: resolved.UnitPrice,
		Quantity:      1,
		CreatedAt:     now,
	}
	o.lines = append(o.lines, line)
	o.recomputeTotal()
	return line, true, nil
}

// SetLineQuantity updates a line's quantity in place; a quantity of
// zero or less removes the line entirely. Returns the line as mutated
// and whether it was removed.
func (l *Ledger) SetLineQuantity(o *Order, lineID string, quantity int) (models.OrderLine, bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.order.Status != models.OrderStatusOpen {
		return models.OrderLine{}, false, ErrOrderNotOpen
	}

	for i := range o.lines {
		if o.lines[i].ID != lineID {
			continue
		}
		if quantity <= 0 {
			removed := o.lines[i]
			o.lines = append(o.lines[:i], o.lines[i+1:]...)
			o.recomputeTotal()
			return removed, true, nil
		}
		o.lines[i].Quantity = quantity
		o.recomputeTotal()
		return o.lines[i], false, nil
	}
	return models.OrderLine{}, false, ErrNotFound
}
