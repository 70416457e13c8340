package repository

import (
	"context"
	"marketplace/internal/domain/model"
)

// refがバリエーションならproduct_variants.stock、無ければproducts.stockを対象にする
type InventoryRepository interface {
	// 在庫が足りるときだけ減算（条件付きUPDATE）
	DecreaseStockIfEnough(ctx context.Context, ref model.ItemRef, qty int64) (bool, error)

	// 在庫戻し（キャンセルなど）
	IncreaseStock(ctx context.Context, ref model.ItemRef, qty int64) error

	// 現在の在庫
	CurrentStock(ctx context.Context, ref model.ItemRef) (int64, error)

	// 在庫の現在値を設定し、変更前の値を返す
	SetStock(ctx context.Context, ref model.ItemRef, newStock int64) (int64, error)

	// 台帳（調整履歴）作成
	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
}
