package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitionTableIsExhaustive(t *testing.T) {
	all := []OrderStatus{OrderPending, OrderConfirmed, OrderShipped, OrderDelivered, OrderCancelled}

	allowed := map[[2]OrderStatus]bool{
		{OrderPending, OrderConfirmed}:   true,
		{OrderPending, OrderCancelled}:   true,
		{OrderConfirmed, OrderShipped}:   true,
		{OrderConfirmed, OrderCancelled}: true,
		{OrderShipped, OrderDelivered}:   true,
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]OrderStatus{from, to}]
			assert.Equal(t, want, from.CanTransition(to), "%s -> %s", from, to)
		}
	}
}

func TestOrderStatusTerminalStates(t *testing.T) {
	assert.True(t, OrderDelivered.Terminal())
	assert.True(t, OrderCancelled.Terminal())
	assert.False(t, OrderPending.Terminal())
	assert.False(t, OrderConfirmed.Terminal())
	assert.False(t, OrderShipped.Terminal())
}

func TestPaymentStatusTransitions(t *testing.T) {
	all := []PaymentStatus{PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded}

	allowed := map[[2]PaymentStatus]bool{
		{PaymentPending, PaymentPaid}:   true,
		{PaymentPending, PaymentFailed}: true,
		{PaymentPaid, PaymentRefunded}:  true,
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]PaymentStatus{from, to}]
			assert.Equal(t, want, from.CanTransition(to), "%s -> %s", from, to)
		}
	}
}
