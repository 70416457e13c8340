package usecase

import (
	"context"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

type OrderItemOutput struct {
	ID         int64  `json:"id"`
	SubOrderID int64  `json:"sub_order_id"`
	ProductID  int64  `json:"product_id"`
	VariantID  *int64 `json:"variant_id,omitempty"`
	Name       string `json:"name"`
	Price      int64  `json:"price"`
	Quantity   int64  `json:"quantity"`
	TotalPrice int64  `json:"total_price"`
}

type SubOrderOutput struct {
	ID               int64             `json:"id"`
	OrderID          int64             `json:"order_id"`
	SellerID         int64             `json:"seller_id"`
	Subtotal         int64             `json:"subtotal"`
	Status           string            `json:"status"`
	StatusUpdatedAt  time.Time         `json:"status_updated_at"`
	TrackingNumber   *string           `json:"tracking_number,omitempty"`
	ShippingProvider *string           `json:"shipping_provider,omitempty"`
	Items            []OrderItemOutput `json:"items"`
}

type OrderOutput struct {
	ID             int64            `json:"id"`
	OrderNumber    string           `json:"order_number"`
	CustomerID     int64            `json:"customer_id"`
	AddressID      int64            `json:"address_id"`
	CouponID       *int64           `json:"coupon_id,omitempty"`
	TotalAmount    int64            `json:"total_amount"`
	DiscountAmount int64            `json:"discount_amount"`
	ShippingFee    int64            `json:"shipping_fee"`
	TaxAmount      int64            `json:"tax_amount"`
	FinalAmount    int64            `json:"final_amount"`
	PaymentMethod  string           `json:"payment_method"`
	PaymentStatus  string           `json:"payment_status"`
	Status         string           `json:"order_status"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	SubOrders      []SubOrderOutput `json:"sub_orders"`

	// 注文は成立したが後処理で失敗したもの（クーポン使用済み化など）
	Warnings []string `json:"warnings,omitempty"`
}

func toOrderItemOutput(it model.OrderItem) OrderItemOutput {
	return OrderItemOutput{
		ID:         it.ID,
		SubOrderID: it.SubOrderID,
		ProductID:  it.ProductID,
		VariantID:  it.VariantID,
		Name:       it.ProductNameSnapshot,
		Price:      it.PriceAtPurchase,
		Quantity:   it.Quantity,
		TotalPrice: it.TotalPrice,
	}
}

func toSubOrderOutput(s model.SubOrder, items []model.OrderItem) SubOrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		if it.SubOrderID == s.ID {
			outItems = append(outItems, toOrderItemOutput(it))
		}
	}
	return SubOrderOutput{
		ID:               s.ID,
		OrderID:          s.OrderID,
		SellerID:         s.SellerID,
		Subtotal:         s.Subtotal,
		Status:           string(s.Status),
		StatusUpdatedAt:  s.StatusUpdatedAt,
		TrackingNumber:   s.TrackingNumber,
		ShippingProvider: s.ShippingProvider,
		Items:            outItems,
	}
}

func toOrderOutput(o model.Order, subs []model.SubOrder, items []model.OrderItem) OrderOutput {
	outSubs := make([]SubOrderOutput, 0, len(subs))
	for _, s := range subs {
		outSubs = append(outSubs, toSubOrderOutput(s, items))
	}
	return OrderOutput{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		CustomerID:     o.CustomerID,
		AddressID:      o.AddressID,
		CouponID:       o.CouponID,
		TotalAmount:    o.TotalAmount,
		DiscountAmount: o.DiscountAmount,
		ShippingFee:    o.ShippingFee,
		TaxAmount:      o.TaxAmount,
		FinalAmount:    o.FinalAmount,
		PaymentMethod:  string(o.PaymentMethod),
		PaymentStatus:  string(o.PaymentStatus),
		Status:         string(o.Status),
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
		SubOrders:      outSubs,
	}
}

// 注文・出品者別注文・明細をまとめて読む
func loadOrderOutput(ctx context.Context, r repo.TxRepos, o model.Order) (OrderOutput, error) {
	subs, err := r.SubOrders().ListByOrderID(ctx, o.ID)
	if err != nil {
		return OrderOutput{}, persistenceError(err)
	}
	items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
	if err != nil {
		return OrderOutput{}, persistenceError(err)
	}
	return toOrderOutput(o, subs, items), nil
}
