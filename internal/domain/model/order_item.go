package model

import "time"

// 注文明細。作成後は変更しない
// TotalPrice = Quantity * PriceAtPurchase（購入時点の価格で固定）
type OrderItem struct {
	ID                  int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SubOrderID          int64     `gorm:"not null;index" json:"sub_order_id"`
	OrderID             int64     `gorm:"not null;index" json:"order_id"`
	ProductID           int64     `gorm:"not null;index" json:"product_id"`
	VariantID           *int64    `gorm:"index" json:"variant_id,omitempty"`
	ProductNameSnapshot string    `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	Quantity            int64     `gorm:"not null" json:"quantity"`
	PriceAtPurchase     int64     `gorm:"not null" json:"price_at_purchase"`
	TotalPrice          int64     `gorm:"not null" json:"total_price"`
	CreatedAt           time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (it OrderItem) Ref() ItemRef {
	return ItemRef{ProductID: it.ProductID, VariantID: it.VariantID}
}
