package ledger

import (
	"sync"
	"testing"
	"time"

	"pos-service/internal/models"
	"pos-service/internal/pricing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var happyHour = pricing.Window{Start: "18:00", End: "20:00"}

func newTestLedger() *Ledger {
	return NewLedger(pricing.NewResolver(time.UTC))
}

func openOrder() *Order {
	return Open("user-1", "table-1", at(12, 0))
}

func at(hour, minute int) time.Time {
	return time.Date(2024, 5, 10, hour, minute, 0, 0, time.UTC)
}

func drink(price, happyHourPrice int64) *models.Product {
	p := &models.Product{
		ID:       "prod-1",
		UserID:   "user-1",
		Name:     "Mojito",
		Price:    decimal.NewFromInt(price),
		IsActive: true,
	}
	if happyHourPrice > 0 {
		p.HappyHourPrice = decimal.NullDecimal{
			Decimal: decimal.NewFromInt(happyHourPrice),
			Valid:   true,
		}
	}
	return p
}

func TestAddProductCreatesLine(t *testing.T) {
	l := newTestLedger()
	o := openOrder()

	line, created, err := l.AddProduct(o, drink(100, 60), happyHour, at(18, 5))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, line.Quantity)
	assert.Equal(t, "Mojito (Happy Hour)", line.ProductName)
	assert.True(t, line.PriceSnapshot.Equal(decimal.NewFromInt(60)))
	assert.True(t, o.Total().Equal(decimal.NewFromInt(60)))
}

func TestAddProductMergesOnSamePrice(t *testing.T) {
	l := newTestLedger()
	o := openOrder()
	p := drink(100, 60)

	_, created, err := l.AddProduct(o, p, happyHour, at(18, 5))
	require.NoError(t, err)
	assert.True(t, created)

	line, created, err := l.AddProduct(o, p, happyHour, at(18, 10))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 2, line.Quantity)
	require.Len(t, o.Lines(), 1)
	assert.True(t, o.Total().Equal(decimal.NewFromInt(120)))
}

func TestAddProductNewLineWhenPriceChanged(t *testing.T) {
	l := newTestLedger()
	o := openOrder()
	p := drink(100, 60)

	_, _, err := l.AddProduct(o, p, happyHour, at(18, 5))
	require.NoError(t, err)
	_, _, err = l.AddProduct(o, p, happyHour, at(18, 5))
	require.NoError(t, err)

	// Happy hour is over: same product, different resolved price.
	line, created, err := l.AddProduct(o, p, happyHour, at(20, 1))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Mojito", line.ProductName)
	assert.True(t, line.PriceSnapshot.Equal(decimal.NewFromInt(100)))

	lines := o.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, 1, lines[1].Quantity)
	assert.True(t, o.Total().Equal(decimal.NewFromInt(220)))
}

func TestSnapshotImmuneToCatalogChanges(t *testing.T) {
	l := newTestLedger()
	o := openOrder()
	p := drink(100, 60)

	_, _, err := l.AddProduct(o, p, happyHour, at(18, 5))
	require.NoError(t, err)

	// Reprice the catalog entry after the fact.
	p.Price = decimal.NewFromInt(500)
	p.HappyHourPrice = decimal.NullDecimal{Decimal: decimal.NewFromInt(400), Valid: true}

	lines := o.Lines()
	require.Len(t, lines, 1)
	assert.True(t, lines[0].PriceSnapshot.Equal(decimal.NewFromInt(60)))
	assert.True(t, o.Total().Equal(decimal.NewFromInt(60)))

	// Only a fresh add reflects the new price, on a separate line.
	line, created, err := l.AddProduct(o, p, happyHour, at(18, 6))
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, line.PriceSnapshot.Equal(decimal.NewFromInt(400)))
}

func TestAddProductRejectsInactive(t *testing.T) {
	l := newTestLedger()
	o := openOrder()
	p := drink(100, 60)
	p.IsActive = false

	_, _, err := l.AddProduct(o, p, happyHour, at(18, 5))
	assert.ErrorIs(t, err, ErrInactiveProduct)
	assert.Empty(t, o.Lines())
}

func TestSetLineQuantity(t *testing.T) {
	l := newTestLedger()
	o := openOrder()

	line, _, err := l.AddProduct(o, drink(100, 0), happyHour, at(12, 0))
	require.NoError(t, err)

	updated, removed, err := l.SetLineQuantity(o, line.ID, 5)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, 5, updated.Quantity)
	assert.True(t, o.Total().Equal(decimal.NewFromInt(500)))

	_, removed, err = l.SetLineQuantity(o, line.ID, 0)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Empty(t, o.Lines())
	assert.True(t, o.Total().IsZero())

	_, _, err = l.SetLineQuantity(o, line.ID, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTotalInvariant(t *testing.T) {
	l := newTestLedger()
	o := openOrder()
	p := drink(100, 60)
	other := drink(40, 0)
	other.ID = "prod-2"
	other.Name = "Ayran"

	_, _, err := l.AddProduct(o, p, happyHour, at(18, 5))
	require.NoError(t, err)
	_, _, err = l.AddProduct(o, p, happyHour, at(18, 6))
	require.NoError(t, err)
	ayran, _, err := l.AddProduct(o, other, happyHour, at(18, 7))
	require.NoError(t, err)
	_, _, err = l.SetLineQuantity(o, ayran.ID, 3)
	require.NoError(t, err)

	want := decimal.Zero
	for _, line := range o.Lines() {
		want = want.Add(line.PriceSnapshot.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	assert.True(t, o.Total().Equal(want))
	assert.True(t, o.Total().Equal(decimal.NewFromInt(240)))
}

func TestRecordPayment(t *testing.T) {
	l := newTestLedger()
	o := openOrder()

	_, _, err := l.AddProduct(o, drink(100, 0), happyHour, at(12, 0))
	require.NoError(t, err)

	paid, err := o.RecordPayment(decimal.NewFromInt(30))
	require.NoError(t, err)
	assert.True(t, paid.Equal(decimal.NewFromInt(30)))
	assert.True(t, o.Remaining().Equal(decimal.NewFromInt(70)))

	// Overpayment is allowed and goes negative without error.
	paid, err = o.RecordPayment(decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.True(t, paid.Equal(decimal.NewFromInt(130)))
	assert.True(t, o.Remaining().Equal(decimal.NewFromInt(-30)))

	_, err = o.RecordPayment(decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidPayment)
	_, err = o.RecordPayment(decimal.NewFromInt(-5))
	assert.ErrorIs(t, err, ErrInvalidPayment)
	assert.True(t, o.Paid().Equal(decimal.NewFromInt(130)))
}

func TestCloseIsTerminal(t *testing.T) {
	l := newTestLedger()
	o := openOrder()
	p := drink(100, 60)

	_, _, err := l.AddProduct(o, p, happyHour, at(18, 5))
	require.NoError(t, err)

	require.NoError(t, o.Close(at(21, 0)))
	assert.Equal(t, models.OrderStatusClosed, o.Status())
	snap := o.Snapshot()
	require.NotNil(t, snap.ClosedAt)
	assert.Equal(t, at(21, 0), *snap.ClosedAt)
	assert.Equal(t, "table-1", o.TableID())

	_, _, err = l.AddProduct(o, p, happyHour, at(21, 1))
	assert.ErrorIs(t, err, ErrOrderNotOpen)
	_, _, err = l.SetLineQuantity(o, o.Lines()[0].ID, 2)
	assert.ErrorIs(t, err, ErrOrderNotOpen)
	_, err = o.RecordPayment(decimal.NewFromInt(10))
	assert.ErrorIs(t, err, ErrOrderNotOpen)
	assert.ErrorIs(t, o.Close(at(21, 2)), ErrOrderNotOpen)
	assert.ErrorIs(t, o.Cancel(at(21, 2)), ErrOrderNotOpen)

	assert.True(t, o.Total().Equal(decimal.NewFromInt(60)))
}

func TestCancelIsTerminal(t *testing.T) {
	o := openOrder()
	require.NoError(t, o.Cancel(at(13, 0)))
	assert.Equal(t, models.OrderStatusCancelled, o.Status())
	assert.ErrorIs(t, o.Close(at(13, 1)), ErrOrderNotOpen)

	_, err := o.RecordPayment(decimal.NewFromInt(10))
	assert.ErrorIs(t, err, ErrOrderNotOpen)
}

// Full walkthrough: two happy-hour adds merge, a post-window add lands
// on a second line, payment and close behave per the ledger rules.
func TestHappyHourOrderScenario(t *testing.T) {
	l := newTestLedger()
	o := openOrder()
	p := drink(100, 60)

	_, _, err := l.AddProduct(o, p, happyHour, at(18, 5))
	require.NoError(t, err)
	_, _, err = l.AddProduct(o, p, happyHour, at(18, 5))
	require.NoError(t, err)
	_, _, err = l.AddProduct(o, p, happyHour, at(20, 1))
	require.NoError(t, err)

	lines := o.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.True(t, lines[0].PriceSnapshot.Equal(decimal.NewFromInt(60)))
	assert.Equal(t, 1, lines[1].Quantity)
	assert.True(t, lines[1].PriceSnapshot.Equal(decimal.NewFromInt(100)))
	assert.True(t, o.Total().Equal(decimal.NewFromInt(220)))

	paid, err := o.RecordPayment(decimal.NewFromInt(50))
	require.NoError(t, err)
	assert.True(t, paid.Equal(decimal.NewFromInt(50)))
	assert.True(t, o.Remaining().Equal(decimal.NewFromInt(170)))

	require.NoError(t, o.Close(at(20, 30)))
	_, _, err = l.AddProduct(o, p, happyHour, at(20, 31))
	assert.ErrorIs(t, err, ErrOrderNotOpen)
}

func TestConcurrentAddsSerialize(t *testing.T) {
	l := newTestLedger()
	o := openOrder()
	p := drink(100, 0)

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, _, err := l.AddProduct(o, p, happyHour, at(12, 0))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	lines := o.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, n, lines[0].Quantity)
	assert.True(t, o.Total().Equal(decimal.NewFromInt(100*n)))
}

func TestNewOrderRecomputesTotal(t *testing.T) {
	// A stale persisted total is corrected on load.
	row := models.Order{
		ID:          "order-1",
		UserID:      "user-1",
		Status:      models.OrderStatusOpen,
		TotalAmount: decimal.NewFromInt(999),
		PaidAmount:  decimal.Zero,
	}
	lines := []models.OrderLine{
		{ID: "line-1", OrderID: "order-1", ProductName: "Tea", PriceSnapshot: decimal.NewFromInt(25), Quantity: 2},
	}
	o := NewOrder(row, lines)
	assert.True(t, o.Total().Equal(decimal.NewFromInt(50)))
}
