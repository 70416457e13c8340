package model_test

import (
	"slices"
	"testing"

	"marketplace/internal/domain/model"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_Transitions(t *testing.T) {
	allowed := map[model.OrderStatus][]model.OrderStatus{
		model.OrderStatusPending:    {model.OrderStatusProcessing, model.OrderStatusCanceled, model.OrderStatusFailed},
		model.OrderStatusProcessing: {model.OrderStatusShipped, model.OrderStatusCanceled, model.OrderStatusFailed},
		model.OrderStatusShipped:    {model.OrderStatusDelivered, model.OrderStatusReturned},
	}

	for _, from := range model.AllOrderStatuses {
		for _, to := range model.AllOrderStatuses {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestOrderStatus_Terminal(t *testing.T) {
	for _, s := range []model.OrderStatus{model.OrderStatusDelivered, model.OrderStatusCanceled, model.OrderStatusReturned, model.OrderStatusFailed} {
		assert.True(t, s.IsTerminal(), s)
		assert.False(t, s.IsCancelable(), s)
	}
	assert.True(t, model.OrderStatusPending.IsCancelable())
	assert.True(t, model.OrderStatusProcessing.IsCancelable())
	assert.False(t, model.OrderStatusShipped.IsCancelable())
}

func TestSubOrderStatus_Transitions(t *testing.T) {
	allowed := map[model.SubOrderStatus][]model.SubOrderStatus{
		model.SubOrderStatusPending:    {model.SubOrderStatusProcessing, model.SubOrderStatusCanceled},
		model.SubOrderStatusProcessing: {model.SubOrderStatusShipped, model.SubOrderStatusCanceled},
		model.SubOrderStatusShipped:    {model.SubOrderStatusDelivered},
	}

	for _, from := range model.AllSubOrderStatuses {
		for _, to := range model.AllSubOrderStatuses {
			want := slices.Contains(allowed[from], to)
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
		assert.Equal(t, len(allowed[from]) == 0, from.IsTerminal(), from)
		assert.Equal(t, slices.Contains(allowed[from], model.SubOrderStatusCanceled), from.IsCancelable(), from)
	}
}

func TestPaymentStatus_Transitions(t *testing.T) {
	allowed := map[model.PaymentStatus][]model.PaymentStatus{
		model.PaymentStatusPending:   {model.PaymentStatusCompleted, model.PaymentStatusFailed},
		model.PaymentStatusCompleted: {model.PaymentStatusRefunded, model.PaymentStatusPartiallyRefunded},
	}

	for _, from := range model.AllPaymentStatuses {
		for _, to := range model.AllPaymentStatuses {
			want := slices.Contains(allowed[from], to)
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
		assert.Equal(t, len(allowed[from]) == 0, from.IsTerminal(), from)
	}
}

func TestParseStatus(t *testing.T) {
	s, ok := model.ParseOrderStatus(" processing ")
	assert.True(t, ok)
	assert.Equal(t, model.OrderStatusProcessing, s)

	_, ok = model.ParseOrderStatus("PAID")
	assert.False(t, ok)

	ss, ok := model.ParseSubOrderStatus("Shipped")
	assert.True(t, ok)
	assert.Equal(t, model.SubOrderStatusShipped, ss)

	_, ok = model.ParseSubOrderStatus("RETURNED")
	assert.False(t, ok)

	ps, ok := model.ParsePaymentStatus("partially_refunded")
	assert.True(t, ok)
	assert.Equal(t, model.PaymentStatusPartiallyRefunded, ps)
}
