package service

import (
	"testing"

	"pos-service/internal/ledger"

	"github.com/stretchr/testify/assert"
)

func TestFailureReason(t *testing.T) {
	assert.Equal(t, "order_not_open", failureReason(ledger.ErrOrderNotOpen))
	assert.Equal(t, "inactive_product", failureReason(ledger.ErrInactiveProduct))
	assert.Equal(t, "invalid_payment", failureReason(ledger.ErrInvalidPayment))
	assert.Equal(t, "not_found", failureReason(ledger.ErrNotFound))
	assert.Equal(t, "error", failureReason(assert.AnError))
}

func TestAddLineAgainstLiveStore(t *testing.T) {
	// Requires Postgres, Redis and Kafka; covered by the ledger package
	// tests at the aggregate level.
	t.Skip("Integration test - requires live backing services")
}
