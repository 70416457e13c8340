package model

import "time"

type PaymentMethod string

const (
	PaymentMethodCard           PaymentMethod = "CARD"
	PaymentMethodCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
	PaymentMethodBankTransfer   PaymentMethod = "BANK_TRANSFER"
	PaymentMethodWallet         PaymentMethod = "WALLET"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodCashOnDelivery, PaymentMethodBankTransfer, PaymentMethodWallet:
		return true
	}
	return false
}

// 注文（購入者単位）。出品者ごとの内訳はSubOrder
// FinalAmount = TotalAmount - DiscountAmount + ShippingFee + TaxAmount
type Order struct {
	ID             int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber    string        `gorm:"type:varchar(36);not null;uniqueIndex" json:"order_number"`
	CustomerID     int64         `gorm:"not null;index;uniqueIndex:idx_orders_customer_idem" json:"customer_id"`
	AddressID      int64         `gorm:"not null" json:"address_id"`
	CouponID       *int64        `gorm:"index" json:"coupon_id,omitempty"`
	TotalAmount    int64         `gorm:"not null" json:"total_amount"`
	DiscountAmount int64         `gorm:"not null;default:0" json:"discount_amount"`
	ShippingFee    int64         `gorm:"not null;default:0" json:"shipping_fee"`
	TaxAmount      int64         `gorm:"not null;default:0" json:"tax_amount"`
	FinalAmount    int64         `gorm:"not null" json:"final_amount"`
	PaymentMethod  PaymentMethod `gorm:"type:varchar(30);not null" json:"payment_method"`
	PaymentStatus  PaymentStatus `gorm:"type:varchar(30);not null;index" json:"payment_status"`
	Status         OrderStatus   `gorm:"column:order_status;type:varchar(20);not null;index" json:"order_status"`
	IdempotencyKey *string       `gorm:"type:varchar(255);uniqueIndex:idx_orders_customer_idem" json:"-"`
	CreatedAt      time.Time     `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 金額の整合性
func (o Order) AmountsConsistent() bool {
	return o.FinalAmount == ComputeFinalAmount(o.TotalAmount, o.DiscountAmount, o.ShippingFee, o.TaxAmount)
}

// 最終金額。マイナスにはしない
func ComputeFinalAmount(total, discount, shipping, tax int64) int64 {
	final := total - discount + shipping + tax
	if final < 0 {
		return 0
	}
	return final
}
