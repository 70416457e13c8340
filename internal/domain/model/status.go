package model

import "strings"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCanceled   OrderStatus = "CANCELED"
	OrderStatusReturned   OrderStatus = "RETURNED"
	OrderStatusFailed     OrderStatus = "FAILED"
)

var AllOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCanceled,
	OrderStatusReturned,
	OrderStatusFailed,
}

type SubOrderStatus string

const (
	SubOrderStatusPending    SubOrderStatus = "PENDING"
	SubOrderStatusProcessing SubOrderStatus = "PROCESSING"
	SubOrderStatusShipped    SubOrderStatus = "SHIPPED"
	SubOrderStatusDelivered  SubOrderStatus = "DELIVERED"
	SubOrderStatusCanceled   SubOrderStatus = "CANCELED"
)

var AllSubOrderStatuses = []SubOrderStatus{
	SubOrderStatusPending,
	SubOrderStatusProcessing,
	SubOrderStatusShipped,
	SubOrderStatusDelivered,
	SubOrderStatusCanceled,
}

// 支払いステータス。注文ステータスとは独立した軸
type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "PENDING"
	PaymentStatusCompleted         PaymentStatus = "COMPLETED"
	PaymentStatusFailed            PaymentStatus = "FAILED"
	PaymentStatusRefunded          PaymentStatus = "REFUNDED"
	PaymentStatusPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
)

var AllPaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusCompleted,
	PaymentStatusFailed,
	PaymentStatusRefunded,
	PaymentStatusPartiallyRefunded,
}

func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// 文字列から変換（大文字小文字は区別しない）。未知の値はfalse
func ParseOrderStatus(s string) (OrderStatus, bool) {
	v := OrderStatus(normalize(s))
	for _, st := range AllOrderStatuses {
		if st == v {
			return v, true
		}
	}
	return "", false
}

func ParseSubOrderStatus(s string) (SubOrderStatus, bool) {
	v := SubOrderStatus(normalize(s))
	for _, st := range AllSubOrderStatuses {
		if st == v {
			return v, true
		}
	}
	return "", false
}

func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	v := PaymentStatus(normalize(s))
	for _, st := range AllPaymentStatuses {
		if st == v {
			return v, true
		}
	}
	return "", false
}
