package pricing

import (
	"time"

	"pos-service/internal/models"

	"github.com/shopspring/decimal"
)

// HappyHourLabel is appended to a product's display name while its
// happy-hour price is in effect.
const HappyHourLabel = " (Happy Hour)"

// timeLayout is the minute-resolution wall-clock format used for all
// window comparisons.
const timeLayout = "15:04"

// Window is a tenant's happy-hour interval as "HH:MM" wall-clock
// values. Empty Start or End means the window is not configured.
type Window struct {
	Start string
	End   string
}

// WindowFromProfile extracts the happy-hour window from a tenant
// profile. Either boundary being NULL leaves the window unconfigured.
func WindowFromProfile(p *models.Profile) Window {
	var w Window
	if p == nil {
		return w
	}
	if p.HappyHourStart.Valid {
		w.Start = p.HappyHourStart.String
	}
	if p.HappyHourEnd.Valid {
		w.End = p.HappyHourEnd.String
	}
	return w
}

// Configured reports whether both window boundaries are set.
func (w Window) Configured() bool {
	return w.Start != "" && w.End != ""
}

// Resolved is the outcome of resolving a product's price at an instant.
type Resolved struct {
	UnitPrice decimal.Decimal
	HappyHour bool
}

// Resolver computes the currently-applicable price of a product. All
// comparisons run in one fixed timezone so deployments behave the same
// regardless of server locale. Methods are pure functions of their
// inputs; the caller always supplies the reference instant.
type Resolver struct {
	loc *time.Location
}

// NewResolver creates a resolver pinned to the given timezone.
func NewResolver(loc *time.Location) *Resolver {
	return &Resolver{loc: loc}
}

// IsWithinWindow reports whether now falls inside the window, inclusive
// on both ends. An unconfigured window never matches.
//
// Windows that cross midnight (End before Start) are not supported: the
// comparison is a plain lexical range check on "HH:MM" strings, so such
// a window never matches anything. Known limitation.
func (r *Resolver) IsWithinWindow(w Window, now time.Time) bool {
	if !w.Configured() {
		return false
	}
	t := now.In(r.loc).Format(timeLayout)
	return w.Start <= t && t <= w.End
}

// Resolve returns the unit price in effect for the product at now. The
// happy-hour price applies only when the product has one AND the window
// is fully configured AND now is inside it. No check is made that the
// happy-hour price is lower than the regular one.
func (r *Resolver) Resolve(p *models.Product, w Window, now time.Time) Resolved {
	if !p.HappyHourPrice.Valid || !w.Configured() {
		return Resolved{UnitPrice: p.Price}
	}
	if r.IsWithinWindow(w, now) {
		return Resolved{UnitPrice: p.HappyHourPrice.Decimal, HappyHour: true}
	}
	return Resolved{UnitPrice: p.Price}
}

// DisplayName returns the product name, suffixed with the happy-hour
// label while the discount is in effect. Delegates to Resolve so the
// label and the price can never disagree.
func (r *Resolver) DisplayName(p *models.Product, w Window, now time.Time) string {
	if r.Resolve(p, w, now).HappyHour {
		return p.Name + HappyHourLabel
	}
	return p.Name
}
