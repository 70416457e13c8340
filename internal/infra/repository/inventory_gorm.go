package repository

import (
	"context"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// バリエーションならproduct_variants、無ければproducts
func (r *InventoryGormRepository) target(ctx context.Context, ref model.ItemRef) *gorm.DB {
	if ref.HasVariant() {
		return r.db.WithContext(ctx).Model(&model.ProductVariant{}).
			Where("id = ? AND product_id = ?", *ref.VariantID, ref.ProductID)
	}
	return r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", ref.ProductID)
}

// 在庫戻しは公開停止（論理削除）済みの商品にも効かせる
func (r *InventoryGormRepository) releaseTarget(ctx context.Context, ref model.ItemRef) *gorm.DB {
	return r.target(ctx, ref).Unscoped()
}

// 在庫が足りるときだけ減らす（1文の条件付きUPDATEなので同時実行でも売り越さない）
func (r *InventoryGormRepository) DecreaseStockIfEnough(ctx context.Context, ref model.ItemRef, qty int64) (bool, error) {
	res := r.target(ctx, ref).
		Where("stock >= ?", qty).
		Update("stock", gorm.Expr("stock - ?", qty))

	if res.Error != nil {
		return false, errors.Wrapf(res.Error, "decrease stock of %s", ref)
	}
	return res.RowsAffected > 0, nil
}

// 在庫戻し（キャンセル）
func (r *InventoryGormRepository) IncreaseStock(ctx context.Context, ref model.ItemRef, qty int64) error {
	res := r.releaseTarget(ctx, ref).
		Update("stock", gorm.Expr("stock + ?", qty))

	if res.Error != nil {
		return errors.Wrapf(res.Error, "increase stock of %s", ref)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *InventoryGormRepository) CurrentStock(ctx context.Context, ref model.ItemRef) (int64, error) {
	var stocks []int64
	if err := r.target(ctx, ref).Pluck("stock", &stocks).Error; err != nil {
		return 0, errors.Wrapf(err, "read stock of %s", ref)
	}
	if len(stocks) == 0 {
		return 0, repo.ErrNotFound
	}
	return stocks[0], nil
}

// 在庫の現在値を設定（行ロックしてから読む）
func (r *InventoryGormRepository) SetStock(ctx context.Context, ref model.ItemRef, newStock int64) (int64, error) {
	var stocks []int64
	err := r.target(ctx, ref).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Pluck("stock", &stocks).Error
	if err != nil {
		return 0, errors.Wrapf(err, "lock stock of %s", ref)
	}
	if len(stocks) == 0 {
		return 0, repo.ErrNotFound
	}

	if err := r.target(ctx, ref).Update("stock", newStock).Error; err != nil {
		return 0, errors.Wrapf(err, "set stock of %s", ref)
	}
	return stocks[0], nil
}

// 台帳（調整履歴）作成
func (r *InventoryGormRepository) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	if err := r.db.WithContext(ctx).Create(&adj).Error; err != nil {
		return errors.Wrap(err, "create inventory adjustment")
	}
	return nil
}
