package repository

import (
	"context"

	"marketplace/internal/domain/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type OrderItemGormRepository struct {
	db *gorm.DB
}

func NewOrderItemGormRepository(db *gorm.DB) *OrderItemGormRepository {
	return &OrderItemGormRepository{db: db}
}

func (r *OrderItemGormRepository) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].OrderID = orderID
	}
	if err := r.db.WithContext(ctx).Create(&items).Error; err != nil {
		return errors.Wrapf(err, "create items of order %d", orderID)
	}
	return nil
}

func (r *OrderItemGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	var items []model.OrderItem
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id asc").Find(&items).Error
	if err != nil {
		return []model.OrderItem{}, errors.Wrapf(err, "list items of order %d", orderID)
	}
	return items, nil
}

func (r *OrderItemGormRepository) ListBySubOrderID(ctx context.Context, subOrderID int64) ([]model.OrderItem, error) {
	var items []model.OrderItem
	err := r.db.WithContext(ctx).Where("sub_order_id = ?", subOrderID).Order("id asc").Find(&items).Error
	if err != nil {
		return []model.OrderItem{}, errors.Wrapf(err, "list items of suborder %d", subOrderID)
	}
	return items, nil
}
