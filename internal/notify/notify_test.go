package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"marketplace/internal/notify"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

type failingNotifier struct{ err error }

func (n failingNotifier) Notify(context.Context, notify.Event) error { return n.err }

func TestKafkaNotifier_Notify(t *testing.T) {
	w := &fakeWriter{}
	n := notify.NewKafkaNotifier(w)
	at := time.Date(2025, 5, 1, 10, 0, 0, 0, time.FixedZone("JST", 9*60*60))

	err := n.Notify(context.Background(), notify.Event{
		Type:       notify.EventOrderCreated,
		OrderID:    42,
		CustomerID: 7,
		SellerIDs:  []int64{10, 20},
		To:         "PENDING",
		Amount:     4450,
		OccurredAt: at,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "42", string(msg.Key))
	assert.Equal(t, at.UTC(), msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, notify.EventOrderCreated, string(msg.Headers[0].Value))

	var got notify.Event
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, int64(42), got.OrderID)
	assert.Equal(t, []int64{10, 20}, got.SellerIDs)
	assert.Equal(t, int64(4450), got.Amount)

	require.NoError(t, n.Close())
	assert.True(t, w.closed)
}

func TestKafkaNotifier_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	n := notify.NewKafkaNotifier(w)

	err := n.Notify(context.Background(), notify.Event{Type: notify.EventOrderCanceled, OrderID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish order.canceled")
	assert.Contains(t, err.Error(), "broker down")
}

func TestNewKafkaWriter(t *testing.T) {
	w := notify.NewKafkaWriter(" kafka-1:9092, ,kafka-2:9092 ", "orders", logrus.New())
	assert.Equal(t, "orders", w.Topic)
	addr := w.Addr.String()
	assert.Contains(t, addr, "kafka-1:9092")
	assert.Contains(t, addr, "kafka-2:9092")
	assert.NotContains(t, addr, " ")
	assert.True(t, w.Async)
}

func TestLogNotifier(t *testing.T) {
	logger, hook := test.NewNullLogger()
	n := notify.NewLogNotifier(logger)

	require.NoError(t, n.Notify(context.Background(), notify.Event{
		Type: notify.EventSubOrderStatusChanged, OrderID: 3, SubOrderID: 8, From: "PENDING", To: "PROCESSING",
	}))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, notify.EventSubOrderStatusChanged, entry.Data["event"])
	assert.Equal(t, int64(8), entry.Data["sub_order_id"])
	assert.Equal(t, "PROCESSING", entry.Data["to"])
}

func TestMulti_SendsToAllAndJoinsErrors(t *testing.T) {
	w := &fakeWriter{}
	boom := errors.New("boom")
	m := notify.Multi{failingNotifier{boom}, notify.NewKafkaNotifier(w), notify.Nop{}}

	err := m.Notify(context.Background(), notify.Event{Type: notify.EventOrderCreated, OrderID: 1})
	assert.ErrorIs(t, err, boom)
	assert.Len(t, w.msgs, 1)

	assert.NoError(t, notify.Multi{notify.Nop{}}.Notify(context.Background(), notify.Event{}))
}
