package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"marketplace/internal/domain/model"
	"marketplace/internal/infra/memory"
	repo "marketplace/internal/repository"
	"marketplace/internal/usecase"
	"marketplace/internal/validator"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

var fixtureNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

var (
	customer = model.Actor{ID: 1, Role: model.RoleCustomer}
	stranger = model.Actor{ID: 2, Role: model.RoleCustomer}
	sellerA  = model.Actor{ID: 10, Role: model.RoleSeller}
	sellerB  = model.Actor{ID: 20, Role: model.RoleSeller}
	admin    = model.Actor{ID: 99, Role: model.RoleAdmin}
)

// 出品者10: Mug(500, 在庫10), Shirt L(2200, 在庫3)
// 出品者20: Lamp(1000, 在庫5)
type fixture struct {
	store    *memory.Store
	notifier *recordingNotifier
	metrics  *recordingMetrics
	logs     *test.Hook
	deps     usecase.Deps

	mug     model.Product
	lamp    model.Product
	shirt   model.Product
	shirtL  model.ProductVariant
	retired model.Product

	addr      model.Address
	otherAddr model.Address
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	s := memory.NewStore()
	f := &fixture{
		store:    s,
		notifier: &recordingNotifier{},
		metrics:  newRecordingMetrics(),
	}

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	f.logs = hook

	var seq atomic.Int64
	f.deps = usecase.Deps{
		Notifier: f.notifier,
		Metrics:  f.metrics,
		Logger:   logger,
		Clock:    fixedClock{fixtureNow},
		NewOrderNumber: func() string {
			return fmt.Sprintf("ORD-%04d", seq.Add(1))
		},
	}

	f.mug = s.AddProduct(model.Product{SellerID: sellerA.ID, Name: "Mug", Price: 500, Stock: 10, IsActive: true})
	f.lamp = s.AddProduct(model.Product{SellerID: sellerB.ID, Name: "Lamp", Price: 1000, Stock: 5, IsActive: true})
	f.shirt = s.AddProduct(model.Product{SellerID: sellerA.ID, Name: "Shirt", Price: 2000, IsActive: true})
	f.shirtL = s.AddVariant(model.ProductVariant{ProductID: f.shirt.ID, Name: "L", SKU: "SH-L", Price: 2200, Stock: 3, IsActive: true})
	f.retired = s.AddProduct(model.Product{SellerID: sellerA.ID, Name: "Retired", Price: 100, Stock: 100, IsActive: false})

	f.addr = s.AddAddress(model.Address{UserID: customer.ID, PostalCode: "100-0001", Prefecture: "Tokyo"})
	f.otherAddr = s.AddAddress(model.Address{UserID: stranger.ID, PostalCode: "530-0001", Prefecture: "Osaka"})
	return f
}

func (f *fixture) checkoutUC(tx repo.TransactionManager) *usecase.CheckoutUsecase {
	if tx == nil {
		tx = f.store
	}
	return usecase.NewCheckoutUsecase(
		tx,
		validator.NewCheckoutValidator(),
		usecase.FlatShippingPolicy{FeePerSeller: 300},
		usecase.RateTaxPolicy{RateBasisPoints: 1000},
		f.deps,
	)
}

func (f *fixture) statusUC() *usecase.OrderStatusUsecase {
	return usecase.NewOrderStatusUsecase(f.store, f.deps)
}

func (f *fixture) cartUC() *usecase.CartUsecase {
	auto := f.store.Auto()
	return usecase.NewCartUsecase(auto, auto, auto)
}

func line(p model.Product, qty int64) usecase.CheckoutLine {
	return usecase.CheckoutLine{ProductID: p.ID, Quantity: qty}
}

func variantLine(v model.ProductVariant, qty int64) usecase.CheckoutLine {
	id := v.ID
	return usecase.CheckoutLine{ProductID: v.ProductID, VariantID: &id, Quantity: qty}
}

// Mug x3（出品者10）とLamp x2（出品者20）の注文
func (f *fixture) placeOrder(t *testing.T) usecase.OrderOutput {
	t.Helper()
	out, err := f.checkoutUC(nil).Checkout(context.Background(), customer.ID, usecase.CheckoutInput{
		AddressID:     f.addr.ID,
		Items:         []usecase.CheckoutLine{line(f.mug, 3), line(f.lamp, 2)},
		PaymentMethod: model.PaymentMethodCard,
	})
	require.NoError(t, err)
	return out
}

func (f *fixture) stockOf(t *testing.T, p model.Product) int64 {
	t.Helper()
	got, ok := f.store.Product(p.ID)
	require.True(t, ok)
	return got.Stock
}

func (f *fixture) variantStock(t *testing.T, v model.ProductVariant) int64 {
	t.Helper()
	got, ok := f.store.Variant(v.ID)
	require.True(t, ok)
	return got.Stock
}

// n回目以降のWithinTxを失敗させる
type failingTx struct {
	inner repo.TransactionManager
	after int32
	calls atomic.Int32
}

var errTxUnavailable = errors.New("tx unavailable")

func (f *failingTx) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	if f.calls.Add(1) > f.after {
		return errTxUnavailable
	}
	return f.inner.WithinTx(ctx, fn)
}
