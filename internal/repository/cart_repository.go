package repository

import (
	"context"

	"marketplace/internal/domain/model"
)

type CartRepository interface {
	GetOrCreateActiveByCustomerID(ctx context.Context, customerID int64) (model.Cart, error)
	FindActiveByCustomerID(ctx context.Context, customerID int64) (model.Cart, error)
	UpdateStatus(ctx context.Context, cartID int64, status model.CartStatus) error
	Clear(ctx context.Context, cartID int64) error
}
