package service

import "github.com/helmetkart/helmet-backend/internal/app/model"

// orderTransitions lists the allowed next statuses for each order status.
// CANCELLED and RETURNED are terminal.
var orderTransitions = map[model.OrderStatus][]model.OrderStatus{
	model.OrderStatusPending:    {model.OrderStatusConfirmed, model.OrderStatusProcessing, model.OrderStatusCancelled},
	model.OrderStatusConfirmed:  {model.OrderStatusProcessing, model.OrderStatusCancelled},
	model.OrderStatusProcessing: {model.OrderStatusShipped},
	model.OrderStatusShipped:    {model.OrderStatusDelivered},
	model.OrderStatusDelivered:  {model.OrderStatusReturned},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to model.OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsCancellable reports whether the order can still be cancelled.
func IsCancellable(order *model.Order) bool {
	return CanTransition(order.OrderStatus, model.OrderStatusCancelled)
}
