package usecase_test

import (
	"context"
	"sync"
	"testing"

	"marketplace/internal/domain/model"
	"marketplace/internal/notify"
	"marketplace/internal/usecase"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertCode(t *testing.T, err error, code usecase.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok, "expected HTTPError, got %T: %v", err, err)
	assert.Equal(t, code, he.Code, he.Message)
}

// =====================
// 出品者ごとの分割
// =====================

func TestCheckout_SplitsBySeller(t *testing.T) {
	f := newFixture(t)

	out := f.placeOrder(t)

	assert.Equal(t, "PENDING", out.Status)
	assert.Equal(t, "PENDING", out.PaymentStatus)
	assert.Equal(t, "CARD", out.PaymentMethod)
	assert.Equal(t, "ORD-0001", out.OrderNumber)
	assert.Equal(t, int64(3500), out.TotalAmount)
	assert.Equal(t, int64(600), out.ShippingFee)
	assert.Equal(t, int64(350), out.TaxAmount)
	assert.Equal(t, int64(4450), out.FinalAmount)

	require.Len(t, out.SubOrders, 2)
	assert.Equal(t, sellerA.ID, out.SubOrders[0].SellerID)
	assert.Equal(t, int64(1500), out.SubOrders[0].Subtotal)
	assert.Equal(t, sellerB.ID, out.SubOrders[1].SellerID)
	assert.Equal(t, int64(2000), out.SubOrders[1].Subtotal)

	var sum int64
	for _, s := range out.SubOrders {
		assert.Equal(t, "PENDING", s.Status)
		var items int64
		for _, it := range s.Items {
			assert.Equal(t, it.Price*it.Quantity, it.TotalPrice)
			items += it.TotalPrice
		}
		assert.Equal(t, s.Subtotal, items)
		sum += s.Subtotal
	}
	assert.Equal(t, out.TotalAmount, sum)

	assert.Equal(t, int64(7), f.stockOf(t, f.mug))
	assert.Equal(t, int64(3), f.stockOf(t, f.lamp))

	adj := f.store.Adjustments()
	require.Len(t, adj, 2)
	for _, a := range adj {
		assert.Equal(t, model.AdjustmentReserve, a.Reason)
		require.NotNil(t, a.OrderID)
		assert.Equal(t, out.ID, *a.OrderID)
	}

	assert.Equal(t, []string{notify.EventOrderCreated}, f.notifier.types())
	assert.Equal(t, []int64{sellerA.ID, sellerB.ID}, f.notifier.events[0].SellerIDs)
	assert.Equal(t, 1, f.metrics.succeeded)
	assert.Equal(t, int64(5), f.metrics.moved[string(model.AdjustmentReserve)])
}

func TestCheckout_VariantPriceAndStock(t *testing.T) {
	f := newFixture(t)

	out, err := f.checkoutUC(nil).Checkout(context.Background(), customer.ID, usecase.CheckoutInput{
		AddressID:     f.addr.ID,
		Items:         []usecase.CheckoutLine{variantLine(f.shirtL, 2)},
		PaymentMethod: model.PaymentMethodWallet,
	})
	require.NoError(t, err)

	require.Len(t, out.SubOrders, 1)
	require.Len(t, out.SubOrders[0].Items, 1)
	it := out.SubOrders[0].Items[0]
	assert.Equal(t, int64(2200), it.Price)
	assert.Equal(t, "Shirt / L", it.Name)
	require.NotNil(t, it.VariantID)
	assert.Equal(t, f.shirtL.ID, *it.VariantID)

	assert.Equal(t, int64(1), f.variantStock(t, f.shirtL))
	assert.Equal(t, int64(0), f.stockOf(t, f.shirt))
}

func TestCheckout_MergesDuplicateLines(t *testing.T) {
	f := newFixture(t)

	out, err := f.checkoutUC(nil).Checkout(context.Background(), customer.ID, usecase.CheckoutInput{
		AddressID:     f.addr.ID,
		Items:         []usecase.CheckoutLine{line(f.mug, 1), line(f.mug, 2)},
		PaymentMethod: model.PaymentMethodCard,
	})
	require.NoError(t, err)
	require.Len(t, out.SubOrders[0].Items, 1)
	assert.Equal(t, int64(3), out.SubOrders[0].Items[0].Quantity)
}

// =====================
// 冪等キー
// =====================

func TestCheckout_IdempotentReplay(t *testing.T) {
	f := newFixture(t)
	uc := f.checkoutUC(nil)
	in := usecase.CheckoutInput{
		AddressID:      f.addr.ID,
		Items:          []usecase.CheckoutLine{line(f.mug, 2)},
		PaymentMethod:  model.PaymentMethodCard,
		IdempotencyKey: "req-123",
	}

	first, err := uc.Checkout(context.Background(), customer.ID, in)
	require.NoError(t, err)

	in.IdempotencyKey = "  req-123 "
	second, err := uc.Checkout(context.Background(), customer.ID, in)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.FinalAmount, second.FinalAmount)
	assert.Len(t, f.store.Orders(), 1)
	assert.Equal(t, int64(8), f.stockOf(t, f.mug))
	assert.Len(t, f.notifier.types(), 1)
}

func TestCheckout_SameKeyDifferentCustomers(t *testing.T) {
	f := newFixture(t)
	uc := f.checkoutUC(nil)

	_, err := uc.Checkout(context.Background(), customer.ID, usecase.CheckoutInput{
		AddressID: f.addr.ID, Items: []usecase.CheckoutLine{line(f.mug, 1)},
		PaymentMethod: model.PaymentMethodCard, IdempotencyKey: "k1",
	})
	require.NoError(t, err)

	_, err = uc.Checkout(context.Background(), stranger.ID, usecase.CheckoutInput{
		AddressID: f.otherAddr.ID, Items: []usecase.CheckoutLine{line(f.mug, 1)},
		PaymentMethod: model.PaymentMethodCard, IdempotencyKey: "k1",
	})
	require.NoError(t, err)
	assert.Len(t, f.store.Orders(), 2)
}

func TestCheckout_ConcurrentSameKeyCreatesOneOrder(t *testing.T) {
	f := newFixture(t)
	uc := f.checkoutUC(nil)
	in := usecase.CheckoutInput{
		AddressID:      f.addr.ID,
		Items:          []usecase.CheckoutLine{line(f.lamp, 1)},
		PaymentMethod:  model.PaymentMethodCard,
		IdempotencyKey: "double-click",
	}

	var wg sync.WaitGroup
	ids := make([]int64, 5)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := uc.Checkout(context.Background(), customer.ID, in)
			if err == nil {
				ids[i] = out.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.Len(t, f.store.Orders(), 1)
	assert.Equal(t, int64(4), f.stockOf(t, f.lamp))
}

// =====================
// 失敗系
// =====================

func TestCheckout_EmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.checkoutUC(nil).Checkout(context.Background(), customer.ID, usecase.CheckoutInput{
		AddressID:     f.addr.ID,
		PaymentMethod: model.PaymentMethodCard,
	})
	assertCode(t, err, usecase.CodeEmptyCart)
	assert.Equal(t, []string{string(usecase.CodeEmptyCart)}, f.metrics.failed)
}

func TestCheckout_InvalidInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.checkoutUC(nil).Checkout(context.Background(), customer.ID, usecase.CheckoutInput{
		AddressID:     f.addr.ID,
		Items:         []usecase.CheckoutLine{line(f.mug, 1)},
		PaymentMethod: model.PaymentMethod("BITCOIN"),
	})
	assertCode(t, err, usecase.CodeValidation)

	_, err = f.checkoutUC(nil).Checkout(context.Background(), customer.ID, usecase.CheckoutInput{
		AddressID:     f.addr.ID,
		Items:         []usecase.CheckoutLine{line(f.mug, 0)},
		PaymentMethod: model.PaymentMethodCard,
	})
	assertCode(t, err, usecase.CodeValidation)
	assert.Empty(t, f.store.Orders())
}

func TestCheckout_Address(t *testing.T) {
	f := newFixture(t)
	uc := f.checkoutUC(nil)

	_, err := uc.Checkout(context.Background(), customer.ID, usecase.CheckoutInput{
		AddressID:     f.otherAddr.ID,
		Items:         []usecase.CheckoutLine{line(f.mug, 1)},
		PaymentMethod: model.PaymentMethodCard,
	})
	assertCode(t, err, usecase.CodeForbidden)

	_, err = uc.Checkout(context.Background(), customer.ID, usecase.CheckoutInput{
		AddressID:     404,
		Items:         []usecase.CheckoutLine{line(f.mug, 1)},
		PaymentMethod: model.PaymentMethodCard,
	})
	assertCode(t, err, usecase.CodeNotFound)
	assert.Equal(t, int64(10), f.stockOf(t, f.mug))
}

func TestCheckout_ProductUnavailable(t *testing.T) {
	f := newFixture(t)

	_, err := f.checkoutUC(nil).Checkout(context.Background(), customer.ID, usecase.CheckoutInput{
		AddressID:     f.addr.ID,
		Items:         []usecase.CheckoutLine{line(f.mug, 1), line(f.retired, 1)},
		PaymentMethod: model.PaymentMethodCard,
	})
	assertCode(t, err, usecase.CodeProductUnavailable)

	_, err = f.checkoutUC(nil).Checkout(context.Background(), customer.ID, usecase.CheckoutInput{
		AddressID:     f.addr.ID,
		Items:         []usecase.CheckoutLine{{ProductID: 999, Quantity: 1}},
		PaymentMethod: model.PaymentMethodCard,
	})
	assertCode(t, err, usecase.CodeProductUnavailable)
	assert.Equal(t, int64(10), f.stockOf(t, f.mug))
}

func TestCheckout_InsufficientStockRollsBack(t *testing.T) {
	f := newFixture(t)

	_, err := f.checkoutUC(nil).Checkout(context.Background(), customer.ID, usecase.CheckoutInput{
		AddressID:     f.addr.ID,
		Items:         []usecase.CheckoutLine{line(f.mug, 3), line(f.lamp, 6)},
		PaymentMethod: model.PaymentMethodCard,
	})
	assertCode(t, err, usecase.CodeInsufficientStock)

	he, _ := usecase.AsHTTPError(err)
	detail, ok := he.Detail.(usecase.InsufficientStockDetail)
	require.True(t, ok)
	assert.Equal(t, f.lamp.ID, detail.Item.ProductID)
	assert.Equal(t, int64(5), detail.Available)
	assert.Equal(t, int64(6), detail.Requested)

	assert.Equal(t, int64(10), f.stockOf(t, f.mug))
	assert.Equal(t, int64(5), f.stockOf(t, f.lamp))
	assert.Empty(t, f.store.Orders())
	assert.Empty(t, f.store.Adjustments())
	assert.Empty(t, f.notifier.types())
}

func TestCheckout_ConcurrentNoOversell(t *testing.T) {
	f := newFixture(t)
	uc := f.checkoutUC(nil)

	const buyers = 12
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		outOfIt int
	)
	for range buyers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Checkout(context.Background(), customer.ID, usecase.CheckoutInput{
				AddressID:     f.addr.ID,
				Items:         []usecase.CheckoutLine{line(f.lamp, 1)},
				PaymentMethod: model.PaymentMethodCard,
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if usecase.HasCode(err, usecase.CodeInsufficientStock) {
				outOfIt++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, ok)
	assert.Equal(t, buyers-5, outOfIt)
	assert.Equal(t, int64(0), f.stockOf(t, f.lamp))
}

// =====================
// クーポン
// =====================

func TestCheckout_WithPercentageCoupon(t *testing.T) {
	f := newFixture(t)
	limit := int64(5)
	c := f.store.AddCoupon(model.Coupon{Code: "save10", Type: model.CouponTypePercentage, Value: 10, UsageLimit: &limit, IsActive: true})

	out, err := f.checkoutUC(nil).Checkout(context.Background(), customer.ID, usecase.CheckoutInput{
		AddressID:     f.addr.ID,
		Items:         []usecase.CheckoutLine{line(f.mug, 3), line(f.lamp, 2)},
		CouponCode:    "Save10",
		PaymentMethod: model.PaymentMethodCard,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(3500), out.TotalAmount)
	assert.Equal(t, int64(350), out.DiscountAmount)
	assert.Equal(t, int64(315), out.TaxAmount)
	assert.Equal(t, int64(3500-350+600+315), out.FinalAmount)
	require.NotNil(t, out.CouponID)
	assert.Equal(t, c.ID, *out.CouponID)

	got, _ := f.store.Coupon(c.ID)
	assert.Equal(t, int64(1), got.UsedCount)
}

func TestCheckout_InvalidCoupon(t *testing.T) {
	f := newFixture(t)

	_, err := f.checkoutUC(nil).Checkout(context.Background(), customer.ID, usecase.CheckoutInput{
		AddressID:     f.addr.ID,
		Items:         []usecase.CheckoutLine{line(f.mug, 1)},
		CouponCode:    "NOPE",
		PaymentMethod: model.PaymentMethodCard,
	})
	assertCode(t, err, usecase.CodeCouponInvalid)
	assert.Contains(t, err.Error(), "coupon not found")
	assert.Equal(t, int64(10), f.stockOf(t, f.mug))
}

func TestCheckout_PerUserLimitIgnoresCanceledOrders(t *testing.T) {
	f := newFixture(t)
	perUser := int64(1)
	f.store.AddCoupon(model.Coupon{Code: "ONCE", Type: model.CouponTypeFixed, Value: 100, PerUserLimit: &perUser, IsActive: true})
	uc := f.checkoutUC(nil)
	in := usecase.CheckoutInput{
		AddressID:     f.addr.ID,
		Items:         []usecase.CheckoutLine{line(f.mug, 1)},
		CouponCode:    "ONCE",
		PaymentMethod: model.PaymentMethodCard,
	}

	first, err := uc.Checkout(context.Background(), customer.ID, in)
	require.NoError(t, err)

	_, err = uc.Checkout(context.Background(), customer.ID, in)
	assertCode(t, err, usecase.CodeCouponInvalid)

	_, err = f.statusUC().CancelOrder(context.Background(), customer, first.ID)
	require.NoError(t, err)

	_, err = uc.Checkout(context.Background(), customer.ID, in)
	assert.NoError(t, err)
}

func TestCheckout_AssignedCouponMarkedUsed(t *testing.T) {
	f := newFixture(t)
	c := f.store.AddCoupon(model.Coupon{Code: "VIP", Type: model.CouponTypeFixed, Value: 200, IsActive: true, AssignmentOnly: true})
	uc := f.store.AddUserCoupon(model.UserCoupon{CouponID: c.ID, CustomerID: customer.ID})

	out, err := f.checkoutUC(nil).Checkout(context.Background(), customer.ID, usecase.CheckoutInput{
		AddressID:     f.addr.ID,
		Items:         []usecase.CheckoutLine{line(f.mug, 1)},
		CouponCode:    "vip",
		PaymentMethod: model.PaymentMethodCard,
	})
	require.NoError(t, err)
	assert.Empty(t, out.Warnings)
	assert.Equal(t, int64(200), out.DiscountAmount)

	got, _ := f.store.UserCoupon(uc.ID)
	assert.True(t, got.IsUsed)
	require.NotNil(t, got.OrderID)
	assert.Equal(t, out.ID, *got.OrderID)

	_, err = f.checkoutUC(nil).Checkout(context.Background(), customer.ID, usecase.CheckoutInput{
		AddressID:     f.addr.ID,
		Items:         []usecase.CheckoutLine{line(f.mug, 1)},
		CouponCode:    "vip",
		PaymentMethod: model.PaymentMethodCard,
	})
	assertCode(t, err, usecase.CodeCouponInvalid)
	assert.Contains(t, err.Error(), "coupon already used")
}

func TestCheckout_MarkUsedFailureIsWarning(t *testing.T) {
	f := newFixture(t)
	c := f.store.AddCoupon(model.Coupon{Code: "VIP", Type: model.CouponTypeFixed, Value: 200, IsActive: true, AssignmentOnly: true})
	uc := f.store.AddUserCoupon(model.UserCoupon{CouponID: c.ID, CustomerID: customer.ID})

	tx := &failingTx{inner: f.store, after: 1}
	out, err := f.checkoutUC(tx).Checkout(context.Background(), customer.ID, usecase.CheckoutInput{
		AddressID:     f.addr.ID,
		Items:         []usecase.CheckoutLine{line(f.mug, 1)},
		CouponCode:    "VIP",
		PaymentMethod: model.PaymentMethodCard,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"coupon usage could not be recorded"}, out.Warnings)
	assert.Len(t, f.store.Orders(), 1)

	got, _ := f.store.UserCoupon(uc.ID)
	assert.False(t, got.IsUsed)

	entry := f.logs.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "failed to mark coupon used", entry.Message)
}

// =====================
// カートから注文
// =====================

func TestCheckout_FromCart(t *testing.T) {
	f := newFixture(t)
	cart := f.cartUC()

	_, err := cart.AddToCart(context.Background(), customer.ID, usecase.AddCartInput{ProductID: f.mug.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = cart.AddToCart(context.Background(), customer.ID, usecase.AddCartInput{ProductID: f.lamp.ID, Quantity: 1})
	require.NoError(t, err)

	out, err := f.checkoutUC(nil).Checkout(context.Background(), customer.ID, usecase.CheckoutInput{
		AddressID:     f.addr.ID,
		PaymentMethod: model.PaymentMethodCashOnDelivery,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2000), out.TotalAmount)
	assert.Len(t, out.SubOrders, 2)

	got, err := cart.GetCart(context.Background(), customer.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Items)
}

func TestCheckout_NotifierFailureDoesNotFailOrder(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = assert.AnError

	out := f.placeOrder(t)
	assert.NotZero(t, out.ID)

	entry := f.logs.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "notification failed", entry.Message)
}

// カートの価格ではなく注文時点の価格を使い、その後の値上げは反映しない
func TestCheckout_PriceFrozenAtPurchase(t *testing.T) {
	f := newFixture(t)
	cart := f.cartUC()

	_, err := cart.AddToCart(context.Background(), customer.ID, usecase.AddCartInput{ProductID: f.mug.ID, Quantity: 2})
	require.NoError(t, err)

	raised := f.mug
	raised.Price = 600
	f.store.AddProduct(raised)

	out, err := f.checkoutUC(nil).Checkout(context.Background(), customer.ID, usecase.CheckoutInput{
		AddressID:     f.addr.ID,
		PaymentMethod: model.PaymentMethodCard,
	})
	require.NoError(t, err)
	require.Len(t, out.SubOrders, 1)
	require.Len(t, out.SubOrders[0].Items, 1)
	assert.Equal(t, int64(600), out.SubOrders[0].Items[0].Price)
	assert.Equal(t, int64(1200), out.TotalAmount)

	raised.Price = 900
	f.store.AddProduct(raised)

	detail, err := usecase.NewOrderUsecase(f.store).GetMyOrderDetail(context.Background(), customer.ID, out.ID)
	require.NoError(t, err)
	it := detail.SubOrders[0].Items[0]
	assert.Equal(t, int64(600), it.Price)
	assert.Equal(t, it.Quantity*it.Price, it.TotalPrice)
	assert.Equal(t, int64(1200), detail.TotalAmount)
}
