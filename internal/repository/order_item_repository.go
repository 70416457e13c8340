package repository

import (
	"context"

	"marketplace/internal/domain/model"
)

type OrderItemRepository interface {
	// SubOrderIDは呼び出し側で設定済み
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
	ListBySubOrderID(ctx context.Context, subOrderID int64) ([]model.OrderItem, error)
}
