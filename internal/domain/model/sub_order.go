package model

import "time"

// 出品者ごとの注文。親Orderと同時に作られ、単独では作られない
type SubOrder struct {
	ID               int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID          int64          `gorm:"not null;index" json:"order_id"`
	SellerID         int64          `gorm:"not null;index" json:"seller_id"`
	Subtotal         int64          `gorm:"not null" json:"subtotal"`
	Status           SubOrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	StatusUpdatedAt  time.Time      `gorm:"not null" json:"status_updated_at"`
	TrackingNumber   *string        `gorm:"type:varchar(100)" json:"tracking_number,omitempty"`
	ShippingProvider *string        `gorm:"type:varchar(100)" json:"shipping_provider,omitempty"`
	CreatedAt        time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (SubOrder) TableName() string { return "sub_orders" }
