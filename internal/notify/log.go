package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// ログに出すだけの通知先（開発用・メモリストア用）
type LogNotifier struct {
	Logger logrus.FieldLogger
}

func NewLogNotifier(logger logrus.FieldLogger) *LogNotifier {
	return &LogNotifier{Logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, ev Event) error {
	fields := logrus.Fields{
		"event":    ev.Type,
		"order_id": ev.OrderID,
	}
	if ev.SubOrderID != 0 {
		fields["sub_order_id"] = ev.SubOrderID
	}
	if ev.To != "" {
		fields["from"] = ev.From
		fields["to"] = ev.To
	}
	n.Logger.WithFields(fields).Info("event")
	return nil
}
