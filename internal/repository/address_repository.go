package repository

import (
	"context"
	"marketplace/internal/domain/model"
)

// 住所(Address)の取得窓口（住所録そのものは外部）
type AddressRepository interface {
	//住所IDから住所を1件取得
	FindByID(ctx context.Context, addressID int64) (model.Address, error)
}
