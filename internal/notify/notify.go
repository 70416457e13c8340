package notify

import (
	"context"
	"errors"
	"time"
)

// イベント種別
const (
	EventOrderCreated          = "order.created"
	EventOrderStatusChanged    = "order.status_changed"
	EventOrderCanceled         = "order.canceled"
	EventSubOrderStatusChanged = "suborder.status_changed"
	EventSubOrderCanceled      = "suborder.canceled"
	EventPaymentStatusChanged  = "payment.status_changed"
)

// 外部への通知内容。commit後に送る
type Event struct {
	Type       string    `json:"type"`
	OrderID    int64     `json:"order_id"`
	SubOrderID int64     `json:"sub_order_id,omitempty"`
	CustomerID int64     `json:"customer_id,omitempty"`
	SellerIDs  []int64   `json:"seller_ids,omitempty"`
	From       string    `json:"from,omitempty"`
	To         string    `json:"to,omitempty"`
	Amount     int64     `json:"amount,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// 通知先。トランザクションを止めてはいけない
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }

// 複数の通知先に順に送る。失敗はまとめて返す
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
