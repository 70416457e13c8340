package model_test

import (
	"testing"

	"marketplace/internal/domain/model"

	"github.com/stretchr/testify/assert"
)

func TestComputeFinalAmount(t *testing.T) {
	assert.Equal(t, int64(1100), model.ComputeFinalAmount(1000, 100, 100, 100))
	assert.Equal(t, int64(0), model.ComputeFinalAmount(100, 500, 0, 0))
	assert.Equal(t, int64(300), model.ComputeFinalAmount(0, 0, 300, 0))
}

func TestOrder_AmountsConsistent(t *testing.T) {
	o := model.Order{TotalAmount: 5000, DiscountAmount: 500, ShippingFee: 300, TaxAmount: 450, FinalAmount: 5250}
	assert.True(t, o.AmountsConsistent())

	o.FinalAmount = 5000
	assert.False(t, o.AmountsConsistent())
}

func TestItemRef_Key(t *testing.T) {
	v1, v2 := int64(1), int64(2)

	assert.Equal(t, model.ItemRef{ProductID: 5}.Key(), model.ItemRef{ProductID: 5}.Key())
	assert.NotEqual(t, model.ItemRef{ProductID: 5}.Key(), model.ItemRef{ProductID: 5, VariantID: &v1}.Key())
	assert.NotEqual(t, model.ItemRef{ProductID: 5, VariantID: &v1}.Key(), model.ItemRef{ProductID: 5, VariantID: &v2}.Key())

	zero := int64(0)
	assert.False(t, model.ItemRef{ProductID: 5, VariantID: &zero}.HasVariant())
	assert.Equal(t, "variant 2 of product 5", model.ItemRef{ProductID: 5, VariantID: &v2}.String())
}

func TestPaymentMethod_Valid(t *testing.T) {
	assert.True(t, model.PaymentMethodCard.Valid())
	assert.True(t, model.PaymentMethodCashOnDelivery.Valid())
	assert.False(t, model.PaymentMethod("BITCOIN").Valid())
}

func TestProductVariant_EffectivePrice(t *testing.T) {
	assert.Equal(t, int64(1500), model.ProductVariant{Price: 1500}.EffectivePrice(1000))
	assert.Equal(t, int64(1000), model.ProductVariant{}.EffectivePrice(1000))
}

func TestNormalizeCouponCode(t *testing.T) {
	assert.Equal(t, "SAVE10", model.NormalizeCouponCode("  save10 "))
}
