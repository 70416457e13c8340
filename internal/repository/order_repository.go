package repository

import (
	"context"
	"time"

	"marketplace/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page       int
	Limit      int
	Status     string
	CustomerID *int64
	From       *time.Time
	To         *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByCustomerID(ctx context.Context, customerID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (int64, error)

	// fromのときだけtoに更新（CAS）。違っていればErrConflict
	UpdateStatus(ctx context.Context, orderID int64, from, to model.OrderStatus) error
	UpdatePaymentStatus(ctx context.Context, orderID int64, from, to model.PaymentStatus) error

	//検索（同じキーなら同じ結果を返す）
	FindByIdempotencyKey(ctx context.Context, customerID int64, key string) (model.Order, bool, error)
	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)

	// クーポンを使った有効な注文数（CANCELED/FAILEDは数えない）
	CountActiveByCustomerAndCoupon(ctx context.Context, customerID int64, couponID int64) (int64, error)
}
