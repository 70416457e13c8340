package repository

import (
	"context"
	"errors"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// IDで商品を取得（論理削除済みは見つからない扱い）
func (r *ProductGormRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, pkgerrors.Wrapf(err, "find product %d", id)
	}
	return p, nil
}

func (r *ProductGormRepository) FindVariantByID(ctx context.Context, variantID int64) (model.ProductVariant, error) {
	var v model.ProductVariant
	err := r.db.WithContext(ctx).First(&v, variantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.ProductVariant{}, repo.ErrNotFound
	}
	if err != nil {
		return model.ProductVariant{}, pkgerrors.Wrapf(err, "find variant %d", variantID)
	}
	return v, nil
}

// 現在の価格・在庫・公開状態
// バリエーションが別の商品のものなら見つからない扱い
func (r *ProductGormRepository) GetCurrentPriceAndStock(ctx context.Context, productID int64, variantID *int64) (repo.CatalogEntry, error) {
	p, err := r.FindByID(ctx, productID)
	if err != nil {
		return repo.CatalogEntry{}, err
	}
	ref := model.ItemRef{ProductID: productID, VariantID: variantID}
	entry := repo.CatalogEntry{
		Ref:         ref,
		SellerID:    p.SellerID,
		Name:        p.Name,
		Price:       p.Price,
		Stock:       p.Stock,
		IsAvailable: p.IsActive,
	}
	if !ref.HasVariant() {
		return entry, nil
	}

	v, err := r.FindVariantByID(ctx, *variantID)
	if err != nil {
		return repo.CatalogEntry{}, err
	}
	if v.ProductID != p.ID {
		return repo.CatalogEntry{}, repo.ErrNotFound
	}
	entry.Name = p.Name + " / " + v.Name
	entry.Price = v.EffectivePrice(p.Price)
	entry.Stock = v.Stock
	entry.IsAvailable = p.IsActive && v.IsActive
	return entry, nil
}
