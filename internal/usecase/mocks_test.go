package usecase_test

import (
	"context"
	"sync"
	"time"

	"marketplace/internal/domain/model"
	"marketplace/internal/notify"
	repo "marketplace/internal/repository"

	"github.com/stretchr/testify/mock"
)

// =====================
// clock / notifier / recorder
// =====================

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, ev notify.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return n.err
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, ev := range n.events {
		out = append(out, ev.Type)
	}
	return out
}

type recordingMetrics struct {
	mu        sync.Mutex
	succeeded int
	failed    []string
	changes   []string
	moved     map[string]int64
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{moved: map[string]int64{}}
}

func (m *recordingMetrics) CheckoutSucceeded(int, int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.succeeded++
}

func (m *recordingMetrics) CheckoutFailed(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed = append(m.failed, code)
}

func (m *recordingMetrics) StatusChanged(resource string, to string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changes = append(m.changes, resource+":"+to)
}

func (m *recordingMetrics) StockMoved(reason string, units int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.moved[reason] += units
}

// =====================
// Repository mocks
// =====================

type CouponRepoMock struct{ mock.Mock }

func (m *CouponRepoMock) FindByCode(ctx context.Context, code string) (model.Coupon, error) {
	args := m.Called(ctx, code)
	c, _ := args.Get(0).(model.Coupon)
	return c, args.Error(1)
}

func (m *CouponRepoMock) IncrementUsageIfBelowLimit(ctx context.Context, couponID int64) (bool, error) {
	args := m.Called(ctx, couponID)
	return args.Bool(0), args.Error(1)
}

func (m *CouponRepoMock) ListAssignments(ctx context.Context, couponID int64, customerID int64) ([]model.UserCoupon, error) {
	args := m.Called(ctx, couponID, customerID)
	ucs, _ := args.Get(0).([]model.UserCoupon)
	return ucs, args.Error(1)
}

func (m *CouponRepoMock) MarkUserCouponUsed(ctx context.Context, userCouponID int64, orderID *int64, at time.Time) (bool, error) {
	args := m.Called(ctx, userCouponID, orderID, at)
	return args.Bool(0), args.Error(1)
}

func (m *CouponRepoMock) FindUserCouponByID(ctx context.Context, userCouponID int64) (model.UserCoupon, error) {
	args := m.Called(ctx, userCouponID)
	uc, _ := args.Get(0).(model.UserCoupon)
	return uc, args.Error(1)
}

var _ repo.CouponRepository = (*CouponRepoMock)(nil)

// クーポン判定ではCountActiveByCustomerAndCouponだけ使う
type CouponOrderRepoMock struct{ mock.Mock }

func (m *CouponOrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	panic("not used in coupon tests")
}

func (m *CouponOrderRepoMock) ListByCustomerID(ctx context.Context, customerID int64, page int, limit int) ([]model.Order, int64, error) {
	panic("not used in coupon tests")
}

func (m *CouponOrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	panic("not used in coupon tests")
}

func (m *CouponOrderRepoMock) UpdateStatus(ctx context.Context, orderID int64, from, to model.OrderStatus) error {
	panic("not used in coupon tests")
}

func (m *CouponOrderRepoMock) UpdatePaymentStatus(ctx context.Context, orderID int64, from, to model.PaymentStatus) error {
	panic("not used in coupon tests")
}

func (m *CouponOrderRepoMock) FindByIdempotencyKey(ctx context.Context, customerID int64, key string) (model.Order, bool, error) {
	panic("not used in coupon tests")
}

func (m *CouponOrderRepoMock) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	panic("not used in coupon tests")
}

func (m *CouponOrderRepoMock) CountActiveByCustomerAndCoupon(ctx context.Context, customerID int64, couponID int64) (int64, error) {
	args := m.Called(ctx, customerID, couponID)
	return args.Get(0).(int64), args.Error(1)
}

var _ repo.OrderRepository = (*CouponOrderRepoMock)(nil)

type InventoryRepoMock struct{ mock.Mock }

func (m *InventoryRepoMock) DecreaseStockIfEnough(ctx context.Context, ref model.ItemRef, qty int64) (bool, error) {
	args := m.Called(ctx, ref.Key(), qty)
	return args.Bool(0), args.Error(1)
}

func (m *InventoryRepoMock) IncreaseStock(ctx context.Context, ref model.ItemRef, qty int64) error {
	args := m.Called(ctx, ref.Key(), qty)
	return args.Error(0)
}

func (m *InventoryRepoMock) CurrentStock(ctx context.Context, ref model.ItemRef) (int64, error) {
	args := m.Called(ctx, ref.Key())
	return args.Get(0).(int64), args.Error(1)
}

func (m *InventoryRepoMock) SetStock(ctx context.Context, ref model.ItemRef, newStock int64) (int64, error) {
	args := m.Called(ctx, ref.Key(), newStock)
	return args.Get(0).(int64), args.Error(1)
}

func (m *InventoryRepoMock) CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error {
	args := m.Called(ctx, adjustment)
	return args.Error(0)
}

var _ repo.InventoryRepository = (*InventoryRepoMock)(nil)
