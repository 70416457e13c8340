package repository

import (
	"context"
	"errors"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

type SubOrderGormRepository struct {
	db *gorm.DB
}

func NewSubOrderGormRepository(db *gorm.DB) *SubOrderGormRepository {
	return &SubOrderGormRepository{db: db}
}

// 渡した順のままIDを埋めて返す
func (r *SubOrderGormRepository) CreateBulk(ctx context.Context, orderID int64, subOrders []model.SubOrder) ([]model.SubOrder, error) {
	if len(subOrders) == 0 {
		return subOrders, nil
	}
	for i := range subOrders {
		subOrders[i].OrderID = orderID
	}
	if err := r.db.WithContext(ctx).Create(&subOrders).Error; err != nil {
		return nil, pkgerrors.Wrapf(err, "create suborders of order %d", orderID)
	}
	return subOrders, nil
}

func (r *SubOrderGormRepository) FindByID(ctx context.Context, subOrderID int64) (model.SubOrder, error) {
	var s model.SubOrder
	err := r.db.WithContext(ctx).Where("id = ?", subOrderID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.SubOrder{}, repo.ErrNotFound
	}
	if err != nil {
		return model.SubOrder{}, pkgerrors.Wrapf(err, "find suborder %d", subOrderID)
	}
	return s, nil
}

func (r *SubOrderGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.SubOrder, error) {
	var subs []model.SubOrder
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("seller_id asc, id asc").Find(&subs).Error
	if err != nil {
		return []model.SubOrder{}, pkgerrors.Wrapf(err, "list suborders of order %d", orderID)
	}
	return subs, nil
}

func (r *SubOrderGormRepository) ListBySellerID(ctx context.Context, sellerID int64, status string, page int, limit int) ([]model.SubOrder, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.SubOrder{}).Where("seller_id = ?", sellerID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.SubOrder{}, 0, pkgerrors.Wrap(err, "count suborders")
	}

	var subs []model.SubOrder
	offset := (page - 1) * limit
	if err := q.Order("id desc").Limit(limit).Offset(offset).Find(&subs).Error; err != nil {
		return []model.SubOrder{}, 0, pkgerrors.Wrap(err, "list suborders")
	}
	return subs, total, nil
}

// Fromのときだけ更新。SHIPPEDの追跡番号も同時に書く
func (r *SubOrderGormRepository) UpdateStatus(ctx context.Context, u repo.SubOrderStatusUpdate) error {
	values := map[string]any{
		"status":            u.To,
		"status_updated_at": u.At,
	}
	if u.TrackingNumber != nil {
		values["tracking_number"] = *u.TrackingNumber
	}
	if u.ShippingProvider != nil {
		values["shipping_provider"] = *u.ShippingProvider
	}

	res := r.db.WithContext(ctx).Model(&model.SubOrder{}).
		Where("id = ? AND status = ?", u.SubOrderID, u.From).
		Updates(values)
	if res.Error != nil {
		return pkgerrors.Wrapf(res.Error, "update suborder %d", u.SubOrderID)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var n int64
	if err := r.db.WithContext(ctx).Model(&model.SubOrder{}).Where("id = ?", u.SubOrderID).Count(&n).Error; err != nil {
		return pkgerrors.Wrap(err, "count suborder")
	}
	if n == 0 {
		return repo.ErrNotFound
	}
	return repo.ErrConflict
}
