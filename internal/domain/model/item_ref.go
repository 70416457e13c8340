package model

import "fmt"

// 在庫の対象。VariantIDがあればバリエーション在庫、無ければ商品の在庫
type ItemRef struct {
	ProductID int64  `json:"product_id"`
	VariantID *int64 `json:"variant_id,omitempty"`
}

func (r ItemRef) HasVariant() bool {
	return r.VariantID != nil && *r.VariantID > 0
}

// 同じ商品・同じバリエーションなら同一キー
func (r ItemRef) Key() string {
	if r.HasVariant() {
		return fmt.Sprintf("%d:%d", r.ProductID, *r.VariantID)
	}
	return fmt.Sprintf("%d:-", r.ProductID)
}

func (r ItemRef) String() string {
	if r.HasVariant() {
		return fmt.Sprintf("variant %d of product %d", *r.VariantID, r.ProductID)
	}
	return fmt.Sprintf("product %d", r.ProductID)
}
