package repository

import (
	"context"
	"marketplace/internal/domain/model"
)

// 現在の価格・在庫・公開状態（カタログから読む）
type CatalogEntry struct {
	Ref         model.ItemRef
	SellerID    int64
	Name        string
	Price       int64
	Stock       int64
	IsAvailable bool
}

// カタログの読み取り窓口
type CatalogReader interface {
	// variantIDがnilなら商品本体。見つからなければErrNotFound
	GetCurrentPriceAndStock(ctx context.Context, productID int64, variantID *int64) (CatalogEntry, error)
}

// 商品の永続化（取得）だけを約束。
type ProductRepository interface {
	CatalogReader
	FindByID(ctx context.Context, id int64) (model.Product, error)
	FindVariantByID(ctx context.Context, variantID int64) (model.ProductVariant, error)
}
