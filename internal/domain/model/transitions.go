package model

import "slices"

// 注文ステータスの遷移表。ここに無い組み合わせはすべて不可
// FAILEDはPENDING/PROCESSINGから、RETURNEDはSHIPPEDからのみ
var OrderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCanceled, OrderStatusFailed},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCanceled, OrderStatusFailed},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusReturned},
}

var SubOrderTransitions = map[SubOrderStatus][]SubOrderStatus{
	SubOrderStatusPending:    {SubOrderStatusProcessing, SubOrderStatusCanceled},
	SubOrderStatusProcessing: {SubOrderStatusShipped, SubOrderStatusCanceled},
	SubOrderStatusShipped:    {SubOrderStatusDelivered},
}

var PaymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:   {PaymentStatusCompleted, PaymentStatusFailed},
	PaymentStatusCompleted: {PaymentStatusRefunded, PaymentStatusPartiallyRefunded},
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return slices.Contains(OrderTransitions[s], next)
}

// 遷移先が無い＝終端
func (s OrderStatus) IsTerminal() bool {
	return len(OrderTransitions[s]) == 0
}

// キャンセル可能（PENDING / PROCESSING）
func (s OrderStatus) IsCancelable() bool {
	return s.CanTransitionTo(OrderStatusCanceled)
}

func (s SubOrderStatus) CanTransitionTo(next SubOrderStatus) bool {
	return slices.Contains(SubOrderTransitions[s], next)
}

func (s SubOrderStatus) IsTerminal() bool {
	return len(SubOrderTransitions[s]) == 0
}

func (s SubOrderStatus) IsCancelable() bool {
	return s.CanTransitionTo(SubOrderStatusCanceled)
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return slices.Contains(PaymentTransitions[s], next)
}

func (s PaymentStatus) IsTerminal() bool {
	return len(PaymentTransitions[s]) == 0
}
