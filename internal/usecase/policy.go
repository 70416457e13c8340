package usecase

import (
	"marketplace/internal/domain/model"

	"github.com/shopspring/decimal"
)

// 出品者ごとの明細のまとまり（送料計算の単位）
type SellerGroup struct {
	SellerID int64
	Subtotal int64
	Units    int64
}

// 送料の決め方。同じ入力なら同じ結果を返すこと
type ShippingPolicy interface {
	ShippingFee(addr model.Address, groups []SellerGroup) int64
}

// 税の決め方。taxableは値引き後の小計
type TaxPolicy interface {
	Tax(addr model.Address, taxable int64) int64
}

// 出品者ごとに定額。合計がFreeOver以上なら無料（0なら無効）
type FlatShippingPolicy struct {
	FeePerSeller int64
	FreeOver     int64
}

func (p FlatShippingPolicy) ShippingFee(_ model.Address, groups []SellerGroup) int64 {
	var subtotal int64
	for _, g := range groups {
		subtotal += g.Subtotal
	}
	if p.FreeOver > 0 && subtotal >= p.FreeOver {
		return 0
	}
	return p.FeePerSeller * int64(len(groups))
}

// 税率はベーシスポイント（1000 = 10%）。端数は四捨五入
type RateTaxPolicy struct {
	RateBasisPoints int64
}

func (p RateTaxPolicy) Tax(_ model.Address, taxable int64) int64 {
	if p.RateBasisPoints <= 0 || taxable <= 0 {
		return 0
	}
	return decimal.NewFromInt(taxable).
		Mul(decimal.NewFromInt(p.RateBasisPoints)).
		Div(decimal.NewFromInt(10000)).
		Round(0).
		IntPart()
}

// 送料なし・税なし
type NoShipping struct{}

func (NoShipping) ShippingFee(model.Address, []SellerGroup) int64 { return 0 }

type NoTax struct{}

func (NoTax) Tax(model.Address, int64) int64 { return 0 }
