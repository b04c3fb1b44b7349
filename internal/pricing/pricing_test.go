package pricing

import (
	"database/sql"
	"testing"
	"time"

	"pos-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProduct(price int64, happyHourPrice int64) *models.Product {
	p := &models.Product{
		ID:       "prod-1",
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

func at(hour, minute int) time.Time {
	return time.Date(2024, 5, 10, hour, minute, 30, 0, time.UTC)
}

func TestIsWithinWindow(t *testing.T) {
	r := NewResolver(time.UTC)
	window := Window{Start: "18:00", End: "20:00"}

	tests := []struct {
		name   string
		window Window
		now    time.Time
		want   bool
	}{
		{"before start", window, at(17, 59), false},
		{"at start inclusive", window, at(18, 0), true},
		{"inside", window, at(19, 30), true},
		{"at end inclusive", window, at(20, 0), true},
		{"after end", window, at(20, 1), false},
		{"missing start", Window{End: "20:00"}, at(19, 0), false},
		{"missing end", Window{Start: "18:00"}, at(19, 0), false},
		{"empty window", Window{}, at(19, 0), false},
		// End before Start never matches: midnight wrap is unsupported.
		{"midnight crossing before midnight", Window{Start: "22:00", End: "02:00"}, at(23, 0), false},
		{"midnight crossing after midnight", Window{Start: "22:00", End: "02:00"}, at(1, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.IsWithinWindow(tt.window, tt.now))
		})
	}
}

func TestIsWithinWindowUsesFixedTimezone(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	r := NewResolver(loc)

	// 15:30 UTC is 18:30 in the resolver's timezone.
	now := time.Date(2024, 5, 10, 15, 30, 0, 0, time.UTC)
	assert.True(t, r.IsWithinWindow(Window{Start: "18:00", End: "20:00"}, now))
	assert.False(t, r.IsWithinWindow(Window{Start: "15:00", End: "16:00"}, now))
}

func TestResolve(t *testing.T) {
	r := NewResolver(time.UTC)
	window := Window{Start: "18:00", End: "20:00"}

	t.Run("no happy hour price", func(t *testing.T) {
		got := r.Resolve(testProduct(100, 0), window, at(19, 0))
		assert.False(t, got.HappyHour)
		assert.True(t, got.UnitPrice.Equal(decimal.NewFromInt(100)))
	})

	t.Run("window not configured", func(t *testing.T) {
		got := r.Resolve(testProduct(100, 60), Window{Start: "18:00"}, at(19, 0))
		assert.False(t, got.HappyHour)
		assert.True(t, got.UnitPrice.Equal(decimal.NewFromInt(100)))
	})

	t.Run("outside window", func(t *testing.T) {
		got := r.Resolve(testProduct(100, 60), window, at(17, 59))
		assert.False(t, got.HappyHour)
		assert.True(t, got.UnitPrice.Equal(decimal.NewFromInt(100)))
	})

	t.Run("inside window", func(t *testing.T) {
		got := r.Resolve(testProduct(100, 60), window, at(18, 0))
		assert.True(t, got.HappyHour)
		assert.True(t, got.UnitPrice.Equal(decimal.NewFromInt(60)))
	})

	t.Run("happy hour price may exceed regular price", func(t *testing.T) {
		// Not validated on purpose: a "discount" window can raise the price.
		got := r.Resolve(testProduct(100, 150), window, at(19, 0))
		assert.True(t, got.HappyHour)
		assert.True(t, got.UnitPrice.Equal(decimal.NewFromInt(150)))
	})

	t.Run("idempotent", func(t *testing.T) {
		p := testProduct(100, 60)
		first := r.Resolve(p, window, at(19, 15))
		second := r.Resolve(p, window, at(19, 15))
		assert.Equal(t, first.HappyHour, second.HappyHour)
		assert.True(t, first.UnitPrice.Equal(second.UnitPrice))
	})
}

func TestDisplayName(t *testing.T) {
	r := NewResolver(time.UTC)
	window := Window{Start: "18:00", End: "20:00"}
	p := testProduct(100, 60)

	assert.Equal(t, "Mojito", r.DisplayName(p, window, at(17, 59)))
	assert.Equal(t, "Mojito (Happy Hour)", r.DisplayName(p, window, at(18, 0)))
	assert.Equal(t, "Mojito (Happy Hour)", r.DisplayName(p, window, at(20, 0)))
	assert.Equal(t, "Mojito", r.DisplayName(p, window, at(20, 1)))
	assert.Equal(t, "Mojito", r.DisplayName(testProduct(100, 0), window, at(19, 0)))
}

func TestWindowFromProfile(t *testing.T) {
	full := &models.Profile{
		HappyHourStart: sql.NullString{String: "18:00", Valid: true},
		HappyHourEnd:   sql.NullString{String: "20:00", Valid: true},
	}
	w := WindowFromProfile(full)
	require.True(t, w.Configured())
	assert.Equal(t, "18:00", w.Start)
	assert.Equal(t, "20:00", w.End)

	partial := &models.Profile{
		HappyHourStart: sql.NullString{String: "18:00", Valid: true},
	}
	assert.False(t, WindowFromProfile(partial).Configured())
	assert.False(t, WindowFromProfile(nil).Configured())
}
