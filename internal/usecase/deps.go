package usecase

import (
	"context"
	"time"

	"marketplace/internal/notify"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// 現在時刻（テストで固定できるように）
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// 注文番号の採番
type OrderNumberGenerator func() string

func uuidOrderNumber() string { return uuid.NewString() }

// 計測（prometheus実装はinternal/metrics）
type Recorder interface {
	CheckoutSucceeded(sellerCount int, finalAmount int64)
	CheckoutFailed(code string)
	StatusChanged(resource string, to string)
	StockMoved(reason string, units int64)
}

type nopRecorder struct{}

func (nopRecorder) CheckoutSucceeded(int, int64) {}
func (nopRecorder) CheckoutFailed(string)        {}
func (nopRecorder) StatusChanged(string, string) {}
func (nopRecorder) StockMoved(string, int64)     {}

// 注文系Usecaseの共通の依存。ゼロ値のフィールドはデフォルトで埋める
type Deps struct {
	Notifier       notify.Notifier
	Metrics        Recorder
	Logger         logrus.FieldLogger
	Clock          Clock
	NewOrderNumber OrderNumberGenerator
}

func (d Deps) withDefaults() Deps {
	if d.Notifier == nil {
		d.Notifier = notify.Nop{}
	}
	if d.Metrics == nil {
		d.Metrics = nopRecorder{}
	}
	if d.Logger == nil {
		d.Logger = logrus.StandardLogger()
	}
	if d.Clock == nil {
		d.Clock = systemClock{}
	}
	if d.NewOrderNumber == nil {
		d.NewOrderNumber = uuidOrderNumber
	}
	return d
}

// commit後に通知。失敗はログだけ
func (d Deps) publish(ctx context.Context, ev notify.Event) {
	if err := d.Notifier.Notify(ctx, ev); err != nil {
		d.Logger.WithFields(logrus.Fields{
			"event":    ev.Type,
			"order_id": ev.OrderID,
		}).WithError(err).Warn("notification failed")
	}
}
