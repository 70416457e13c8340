package repository

import (
	"context"
	"time"

	"marketplace/internal/domain/model"
)

// ステータス更新の入力。Fromと一致するときだけ更新する
type SubOrderStatusUpdate struct {
	SubOrderID       int64
	From             model.SubOrderStatus
	To               model.SubOrderStatus
	At               time.Time
	TrackingNumber   *string
	ShippingProvider *string
}

type SubOrderRepository interface {
	// IDを埋めて返す
	CreateBulk(ctx context.Context, orderID int64, subOrders []model.SubOrder) ([]model.SubOrder, error)
	FindByID(ctx context.Context, subOrderID int64) (model.SubOrder, error)
	ListByOrderID(ctx context.Context, orderID int64) ([]model.SubOrder, error)
	ListBySellerID(ctx context.Context, sellerID int64, status string, page int, limit int) ([]model.SubOrder, int64, error)
	UpdateStatus(ctx context.Context, u SubOrderStatusUpdate) error
}
