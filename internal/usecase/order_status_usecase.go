package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"marketplace/internal/domain/model"
	"marketplace/internal/notify"
	repo "marketplace/internal/repository"
)

// 注文・出品者別注文・支払いのステータス遷移
// 遷移（ステータス更新＋在庫戻し＋監査ログ）は1トランザクション
type OrderStatusUsecase struct {
	tx   repo.TransactionManager
	deps Deps
}

func NewOrderStatusUsecase(tx repo.TransactionManager, deps Deps) *OrderStatusUsecase {
	return &OrderStatusUsecase{tx: tx, deps: deps.withDefaults()}
}

type SubOrderStatusInput struct {
	Status           string
	TrackingNumber   *string
	ShippingProvider *string
}

type statusChange struct {
	resource string
	to       string
}

// 1回の遷移で行ったこと。commit後に通知・計測する
type transition struct {
	ctx     context.Context
	r       repo.TxRepos
	actor   model.Actor
	now     time.Time
	ledger  *StockLedger
	events  []notify.Event
	changes []statusChange
}

func (u *OrderStatusUsecase) begin(ctx context.Context, r repo.TxRepos, actor model.Actor) *transition {
	return &transition{
		ctx:    ctx,
		r:      r,
		actor:  actor,
		now:    u.deps.Clock.Now(),
		ledger: NewStockLedger(r.Inventory()),
	}
}

// commit後に呼ぶ
func (u *OrderStatusUsecase) finish(ctx context.Context, t *transition, released int64) {
	for _, c := range t.changes {
		u.deps.Metrics.StatusChanged(c.resource, c.to)
	}
	if released > 0 {
		u.deps.Metrics.StockMoved(string(model.AdjustmentRelease), released)
	}
	for _, ev := range t.events {
		u.deps.publish(ctx, ev)
	}
}

func checkActor(actor model.Actor) error {
	if actor.ID <= 0 || !actor.Role.Valid() {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return nil
}

func conflictError(kind string, from, to string) error {
	return ErrInvalidTransition(kind, from, to, "status changed concurrently")
}

// 遷移できない理由
func orderTransitionError(from, to model.OrderStatus) error {
	switch {
	case from == to:
		return ErrInvalidTransition("order", string(from), string(to), fmt.Sprintf("order is already %s", from))
	case from.IsTerminal():
		return ErrInvalidTransition("order", string(from), string(to), fmt.Sprintf("%s is a terminal status", from))
	default:
		return ErrInvalidTransition("order", string(from), string(to), "transition not allowed")
	}
}

func subOrderTransitionError(from, to model.SubOrderStatus) error {
	switch {
	case from == to:
		return ErrInvalidTransition("suborder", string(from), string(to), fmt.Sprintf("suborder is already %s", from))
	case from.IsTerminal():
		return ErrInvalidTransition("suborder", string(from), string(to), fmt.Sprintf("%s is a terminal status", from))
	default:
		return ErrInvalidTransition("suborder", string(from), string(to), "transition not allowed")
	}
}

func paymentTransitionError(from, to model.PaymentStatus) error {
	switch {
	case from == to:
		return ErrInvalidTransition("payment", string(from), string(to), fmt.Sprintf("payment is already %s", from))
	case from.IsTerminal():
		return ErrInvalidTransition("payment", string(from), string(to), fmt.Sprintf("%s is a terminal status", from))
	default:
		return ErrInvalidTransition("payment", string(from), string(to), "transition not allowed")
	}
}

func toJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func (t *transition) audit(action model.AuditAction, resource model.AuditResourceType, id int64, before, after any) error {
	err := t.r.AuditLogs().Create(t.ctx, model.AuditLog{
		ActorUserID:  t.actor.ID,
		ActorRole:    t.actor.Role,
		Action:       action,
		ResourceType: resource,
		ResourceID:   id,
		BeforeJSON:   toJSON(before),
		AfterJSON:    toJSON(after),
		CreatedAt:    t.now,
	})
	return persistenceError(err)
}

func (t *transition) releaseSubOrderItems(subOrderID int64) error {
	items, err := t.r.OrderItems().ListBySubOrderID(t.ctx, subOrderID)
	if err != nil {
		return persistenceError(err)
	}
	return t.ledger.ReleaseItems(t.ctx, items)
}

// 注文をCANCELED/FAILEDにし、終わっていない出品者別注文をCANCELEDにして在庫を戻す
// 配送中(SHIPPED)の出品者別注文があれば不可。DELIVERED/CANCELEDはそのまま残す
func (t *transition) cancelOrder(o model.Order, to model.OrderStatus, action model.AuditAction) error {
	if !o.Status.CanTransitionTo(to) {
		return orderTransitionError(o.Status, to)
	}

	subs, err := t.r.SubOrders().ListByOrderID(t.ctx, o.ID)
	if err != nil {
		return persistenceError(err)
	}
	for _, s := range subs {
		if s.Status == model.SubOrderStatusShipped {
			return ErrInvalidTransition("order", string(o.Status), string(to),
				fmt.Sprintf("suborder %d is already %s", s.ID, s.Status))
		}
	}

	if err := t.r.Orders().UpdateStatus(t.ctx, o.ID, o.Status, to); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return conflictError("order", string(o.Status), string(to))
		}
		return lookupError(err, "order")
	}

	canceled := []int64{}
	for _, s := range subs {
		//キャンセル済みは戻さない（二重戻し防止）
		if !s.Status.IsCancelable() {
			continue
		}
		err := t.r.SubOrders().UpdateStatus(t.ctx, repo.SubOrderStatusUpdate{
			SubOrderID: s.ID,
			From:       s.Status,
			To:         model.SubOrderStatusCanceled,
			At:         t.now,
		})
		if errors.Is(err, repo.ErrConflict) {
			return conflictError("suborder", string(s.Status), string(model.SubOrderStatusCanceled))
		}
		if err != nil {
			return persistenceError(err)
		}
		if err := t.releaseSubOrderItems(s.ID); err != nil {
			return err
		}
		canceled = append(canceled, s.ID)
		t.changes = append(t.changes, statusChange{"sub_order", string(model.SubOrderStatusCanceled)})
	}

	if err := t.ledger.Journal(t.ctx, &o.ID, t.actor.ID, t.now); err != nil {
		return err
	}
	if err := t.audit(action, model.AuditResourceOrder, o.ID,
		map[string]any{"order_status": o.Status},
		map[string]any{"order_status": to, "canceled_sub_orders": canceled},
	); err != nil {
		return err
	}

	evType := notify.EventOrderStatusChanged
	if to == model.OrderStatusCanceled {
		evType = notify.EventOrderCanceled
	}
	t.changes = append(t.changes, statusChange{"order", string(to)})
	t.events = append(t.events, notify.Event{
		Type:       evType,
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		From:       string(o.Status),
		To:         string(to),
		OccurredAt: t.now,
	})
	return nil
}

// 出品者別注文をCANCELEDにし、その明細だけ在庫を戻す。親や他の出品者別注文は変えない
func (t *transition) cancelSubOrder(s model.SubOrder) error {
	to := model.SubOrderStatusCanceled
	if !s.Status.CanTransitionTo(to) {
		return subOrderTransitionError(s.Status, to)
	}
	err := t.r.SubOrders().UpdateStatus(t.ctx, repo.SubOrderStatusUpdate{
		SubOrderID: s.ID,
		From:       s.Status,
		To:         to,
		At:         t.now,
	})
	if errors.Is(err, repo.ErrConflict) {
		return conflictError("suborder", string(s.Status), string(to))
	}
	if err != nil {
		return lookupError(err, "suborder")
	}
	if err := t.releaseSubOrderItems(s.ID); err != nil {
		return err
	}
	if err := t.ledger.Journal(t.ctx, &s.OrderID, t.actor.ID, t.now); err != nil {
		return err
	}
	if err := t.audit(model.AuditActionCancelSubOrder, model.AuditResourceSubOrder, s.ID,
		map[string]any{"status": s.Status},
		map[string]any{"status": to},
	); err != nil {
		return err
	}
	t.changes = append(t.changes, statusChange{"sub_order", string(to)})
	t.events = append(t.events, notify.Event{
		Type:       notify.EventSubOrderCanceled,
		OrderID:    s.OrderID,
		SubOrderID: s.ID,
		SellerIDs:  []int64{s.SellerID},
		From:       string(s.Status),
		To:         string(to),
		OccurredAt: t.now,
	})
	return nil
}

// 購入者は自分の注文だけ（他人の注文は存在しない扱い）。出品者は不可
func authorizeOrder(actor model.Actor, o model.Order) error {
	switch actor.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleCustomer:
		if o.CustomerID != actor.ID {
			return ErrNotFound("order")
		}
		return nil
	default:
		return ErrForbidden("sellers cannot change orders")
	}
}

// 出品者は自分の分だけ。購入者は不可
func authorizeSubOrder(actor model.Actor, s model.SubOrder) error {
	switch actor.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleSeller:
		if s.SellerID != actor.ID {
			return ErrForbidden("suborder belongs to another seller")
		}
		return nil
	default:
		return ErrForbidden("customers cannot change suborders")
	}
}

func (u *OrderStatusUsecase) CancelOrder(ctx context.Context, actor model.Actor, orderID int64) (OrderOutput, error) {
	if err := checkActor(actor); err != nil {
		return OrderOutput{}, err
	}
	if orderID <= 0 {
		return OrderOutput{}, ErrValidation("invalid id")
	}
	if actor.Role == model.RoleSeller {
		return OrderOutput{}, ErrForbidden("sellers cannot cancel orders")
	}

	var (
		out      OrderOutput
		t        *transition
		released int64
	)
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return lookupError(err, "order")
		}
		if err := authorizeOrder(actor, o); err != nil {
			return err
		}
		t = u.begin(ctx, r, actor)
		if err := t.cancelOrder(o, model.OrderStatusCanceled, model.AuditActionCancelOrder); err != nil {
			return err
		}
		released = t.ledger.ReleasedUnits()
		o, err = r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return lookupError(err, "order")
		}
		out, err = loadOrderOutput(ctx, r, o)
		return err
	})
	if err != nil {
		return OrderOutput{}, err
	}
	u.finish(ctx, t, released)
	return out, nil
}

func (u *OrderStatusUsecase) UpdateOrderStatus(ctx context.Context, actor model.Actor, orderID int64, status string) (OrderOutput, error) {
	if err := checkActor(actor); err != nil {
		return OrderOutput{}, err
	}
	if orderID <= 0 {
		return OrderOutput{}, ErrValidation("invalid id")
	}
	to, ok := model.ParseOrderStatus(status)
	if !ok {
		return OrderOutput{}, ErrInvalidStatusValue("order", status)
	}

	switch actor.Role {
	case model.RoleSeller:
		return OrderOutput{}, ErrForbidden("sellers cannot change order status")
	case model.RoleCustomer:
		//購入者はキャンセルだけ
		if to != model.OrderStatusCanceled {
			return OrderOutput{}, ErrForbidden("customers can only cancel orders")
		}
		return u.CancelOrder(ctx, actor, orderID)
	}

	var (
		out      OrderOutput
		t        *transition
		released int64
	)
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return lookupError(err, "order")
		}
		t = u.begin(ctx, r, actor)

		switch to {
		case model.OrderStatusCanceled, model.OrderStatusFailed:
			if err := t.cancelOrder(o, to, model.AuditActionUpdateOrderStatus); err != nil {
				return err
			}
		default:
			if err := t.advanceOrder(o, to); err != nil {
				return err
			}
		}
		released = t.ledger.ReleasedUnits()

		o, err = r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return lookupError(err, "order")
		}
		out, err = loadOrderOutput(ctx, r, o)
		return err
	})
	if err != nil {
		return OrderOutput{}, err
	}
	u.finish(ctx, t, released)
	return out, nil
}

// CANCELED/FAILED以外への遷移。RETURNEDはキャンセルされていない出品者別注文の在庫を戻す
func (t *transition) advanceOrder(o model.Order, to model.OrderStatus) error {
	if !o.Status.CanTransitionTo(to) {
		return orderTransitionError(o.Status, to)
	}
	if err := t.r.Orders().UpdateStatus(t.ctx, o.ID, o.Status, to); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return conflictError("order", string(o.Status), string(to))
		}
		return lookupError(err, "order")
	}

	if to == model.OrderStatusReturned {
		subs, err := t.r.SubOrders().ListByOrderID(t.ctx, o.ID)
		if err != nil {
			return persistenceError(err)
		}
		for _, s := range subs {
			if s.Status == model.SubOrderStatusCanceled {
				continue
			}
			if err := t.releaseSubOrderItems(s.ID); err != nil {
				return err
			}
		}
		if err := t.ledger.Journal(t.ctx, &o.ID, t.actor.ID, t.now); err != nil {
			return err
		}
	}

	if err := t.audit(model.AuditActionUpdateOrderStatus, model.AuditResourceOrder, o.ID,
		map[string]any{"order_status": o.Status},
		map[string]any{"order_status": to},
	); err != nil {
		return err
	}
	t.changes = append(t.changes, statusChange{"order", string(to)})
	t.events = append(t.events, notify.Event{
		Type:       notify.EventOrderStatusChanged,
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		From:       string(o.Status),
		To:         string(to),
		OccurredAt: t.now,
	})
	return nil
}

// 親注文が終端なら出品者別注文は動かせない
func (t *transition) loadSubOrderWithParent(subOrderID int64, to string) (model.SubOrder, error) {
	s, err := t.r.SubOrders().FindByID(t.ctx, subOrderID)
	if err != nil {
		return model.SubOrder{}, lookupError(err, "suborder")
	}
	if err := authorizeSubOrder(t.actor, s); err != nil {
		return model.SubOrder{}, err
	}
	parent, err := t.r.Orders().FindByID(t.ctx, s.OrderID)
	if err != nil {
		return model.SubOrder{}, lookupError(err, "order")
	}
	if parent.Status.IsTerminal() {
		return model.SubOrder{}, ErrInvalidTransition("suborder", string(s.Status), to,
			fmt.Sprintf("order %d is %s", parent.ID, parent.Status))
	}
	return s, nil
}

func (u *OrderStatusUsecase) CancelSubOrder(ctx context.Context, actor model.Actor, subOrderID int64) (SubOrderOutput, error) {
	if err := checkActor(actor); err != nil {
		return SubOrderOutput{}, err
	}
	if subOrderID <= 0 {
		return SubOrderOutput{}, ErrValidation("invalid id")
	}
	if actor.Role == model.RoleCustomer {
		return SubOrderOutput{}, ErrForbidden("customers cannot cancel suborders")
	}
	return u.changeSubOrder(ctx, actor, subOrderID, SubOrderStatusInput{Status: string(model.SubOrderStatusCanceled)})
}

func (u *OrderStatusUsecase) UpdateSubOrderStatus(ctx context.Context, actor model.Actor, subOrderID int64, in SubOrderStatusInput) (SubOrderOutput, error) {
	if err := checkActor(actor); err != nil {
		return SubOrderOutput{}, err
	}
	if subOrderID <= 0 {
		return SubOrderOutput{}, ErrValidation("invalid id")
	}
	if _, ok := model.ParseSubOrderStatus(in.Status); !ok {
		return SubOrderOutput{}, ErrInvalidStatusValue("suborder", in.Status)
	}
	if actor.Role == model.RoleCustomer {
		return SubOrderOutput{}, ErrForbidden("customers cannot change suborders")
	}
	return u.changeSubOrder(ctx, actor, subOrderID, in)
}

func (u *OrderStatusUsecase) changeSubOrder(ctx context.Context, actor model.Actor, subOrderID int64, in SubOrderStatusInput) (SubOrderOutput, error) {
	to, _ := model.ParseSubOrderStatus(in.Status)

	var (
		out      SubOrderOutput
		t        *transition
		released int64
	)
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		t = u.begin(ctx, r, actor)
		s, err := t.loadSubOrderWithParent(subOrderID, string(to))
		if err != nil {
			return err
		}

		if to == model.SubOrderStatusCanceled {
			if err := t.cancelSubOrder(s); err != nil {
				return err
			}
		} else if err := t.advanceSubOrder(s, to, in); err != nil {
			return err
		}
		released = t.ledger.ReleasedUnits()

		s, err = r.SubOrders().FindByID(ctx, subOrderID)
		if err != nil {
			return lookupError(err, "suborder")
		}
		items, err := r.OrderItems().ListBySubOrderID(ctx, subOrderID)
		if err != nil {
			return persistenceError(err)
		}
		out = toSubOrderOutput(s, items)
		return nil
	})
	if err != nil {
		return SubOrderOutput{}, err
	}
	u.finish(ctx, t, released)
	return out, nil
}

// 追跡番号はSHIPPEDのときだけ保存する
func (t *transition) advanceSubOrder(s model.SubOrder, to model.SubOrderStatus, in SubOrderStatusInput) error {
	if !s.Status.CanTransitionTo(to) {
		return subOrderTransitionError(s.Status, to)
	}
	upd := repo.SubOrderStatusUpdate{
		SubOrderID: s.ID,
		From:       s.Status,
		To:         to,
		At:         t.now,
	}
	after := map[string]any{"status": to}
	if to == model.SubOrderStatusShipped {
		upd.TrackingNumber = trimmedOrNil(in.TrackingNumber)
		upd.ShippingProvider = trimmedOrNil(in.ShippingProvider)
		if upd.TrackingNumber != nil {
			after["tracking_number"] = *upd.TrackingNumber
		}
		if upd.ShippingProvider != nil {
			after["shipping_provider"] = *upd.ShippingProvider
		}
	}
	err := t.r.SubOrders().UpdateStatus(t.ctx, upd)
	if errors.Is(err, repo.ErrConflict) {
		return conflictError("suborder", string(s.Status), string(to))
	}
	if err != nil {
		return lookupError(err, "suborder")
	}
	if err := t.audit(model.AuditActionUpdateSubOrderStatus, model.AuditResourceSubOrder, s.ID,
		map[string]any{"status": s.Status},
		after,
	); err != nil {
		return err
	}
	t.changes = append(t.changes, statusChange{"sub_order", string(to)})
	t.events = append(t.events, notify.Event{
		Type:       notify.EventSubOrderStatusChanged,
		OrderID:    s.OrderID,
		SubOrderID: s.ID,
		SellerIDs:  []int64{s.SellerID},
		From:       string(s.Status),
		To:         string(to),
		OccurredAt: t.now,
	})
	return nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// 支払いステータス（管理者のみ）。注文ステータスとは独立
func (u *OrderStatusUsecase) UpdatePaymentStatus(ctx context.Context, actor model.Actor, orderID int64, status string) (OrderOutput, error) {
	if err := checkActor(actor); err != nil {
		return OrderOutput{}, err
	}
	if orderID <= 0 {
		return OrderOutput{}, ErrValidation("invalid id")
	}
	to, ok := model.ParsePaymentStatus(status)
	if !ok {
		return OrderOutput{}, ErrInvalidStatusValue("payment", status)
	}
	if !actor.IsAdmin() {
		return OrderOutput{}, ErrForbidden("admin only")
	}

	var (
		out OrderOutput
		t   *transition
	)
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return lookupError(err, "order")
		}
		if !o.PaymentStatus.CanTransitionTo(to) {
			return paymentTransitionError(o.PaymentStatus, to)
		}
		t = u.begin(ctx, r, actor)
		if err := r.Orders().UpdatePaymentStatus(ctx, o.ID, o.PaymentStatus, to); err != nil {
			if errors.Is(err, repo.ErrConflict) {
				return conflictError("payment", string(o.PaymentStatus), string(to))
			}
			return lookupError(err, "order")
		}
		if err := t.audit(model.AuditActionUpdatePaymentStatus, model.AuditResourceOrder, o.ID,
			map[string]any{"payment_status": o.PaymentStatus},
			map[string]any{"payment_status": to},
		); err != nil {
			return err
		}
		t.changes = append(t.changes, statusChange{"payment", string(to)})
		t.events = append(t.events, notify.Event{
			Type:       notify.EventPaymentStatusChanged,
			OrderID:    o.ID,
			CustomerID: o.CustomerID,
			From:       string(o.PaymentStatus),
			To:         string(to),
			OccurredAt: t.now,
		})

		o, err = r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return lookupError(err, "order")
		}
		out, err = loadOrderOutput(ctx, r, o)
		return err
	})
	if err != nil {
		return OrderOutput{}, err
	}
	u.finish(ctx, t, 0)
	return out, nil
}
