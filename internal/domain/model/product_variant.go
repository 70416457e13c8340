package model

import "time"

// 商品のバリエーション（サイズ・色など）
// 在庫はバリエーションごとに持つ。Price=0なら商品価格を使う
type ProductVariant struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64     `gorm:"not null;index" json:"product_id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	SKU       string    `gorm:"type:varchar(100);uniqueIndex" json:"sku"`
	Price     int64     `gorm:"not null;default:0" json:"price"`
	Stock     int64     `gorm:"not null;check:stock >= 0" json:"stock"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 有効な単価（バリエーション価格が無ければ商品価格）
func (v ProductVariant) EffectivePrice(productPrice int64) int64 {
	if v.Price > 0 {
		return v.Price
	}
	return productPrice
}
