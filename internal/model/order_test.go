package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{OrderPending, OrderConfirmed, true},
		{OrderPending, OrderPaid, true},
		{OrderPending, OrderCancelled, true},
		{OrderPending, OrderDelivered, false},
		{OrderConfirmed, OrderPaid, true},
		{OrderConfirmed, OrderCancelled, true},
		{OrderConfirmed, OrderDelivered, false},
		{OrderConfirmed, OrderPending, false},
		{OrderPaid, OrderDelivered, true},
		{OrderPaid, OrderCancelled, true},
		{OrderPaid, OrderPending, false},
		{OrderDelivered, OrderCancelled, false},
		{OrderDelivered, OrderPaid, false},
		{OrderCancelled, OrderPending, false},
		{OrderCancelled, OrderPaid, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTransitionPrivileged(t *testing.T) {
	assert.True(t, TransitionPrivileged(OrderPaid, OrderDelivered))
	assert.True(t, TransitionPrivileged(OrderPaid, OrderCancelled), "cancelling a paid order is staff-only")
	assert.False(t, TransitionPrivileged(OrderPending, OrderCancelled))
	assert.False(t, TransitionPrivileged(OrderConfirmed, OrderCancelled))
	assert.False(t, TransitionPrivileged(OrderPending, OrderConfirmed))
}

func TestOrderItemReservesStock(t *testing.T) {
	assert.True(t, OrderItem{ItemCode: "TSHIRT"}.ReservesStock(), "direct purchase")
	assert.True(t, OrderItem{ItemCode: "TSHIRT", PackCode: "SWAG"}.ReservesStock(), "pack component")
	assert.False(t, OrderItem{ItemCode: "SWAG", PackCode: "SWAG"}.ReservesStock(), "pack price line")
}
