package usecase

import (
	"context"
	"fmt"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

// 在庫の予約/戻しの1行
type StockLine struct {
	Ref      model.ItemRef
	Quantity int64
}

// 在庫台帳。1トランザクションにつき1つ作る
// 減算/加算はすぐDBに反映し、履歴はJournalでまとめて書く
type StockLedger struct {
	inv       repo.InventoryRepository
	movements []model.InventoryAdjustment
	released  int64
}

func NewStockLedger(inv repo.InventoryRepository) *StockLedger {
	return &StockLedger{inv: inv}
}

// 在庫を減らす。足りなければInsufficientStock（在庫は変えない）
func (l *StockLedger) Reserve(ctx context.Context, ref model.ItemRef, qty int64) error {
	if qty <= 0 {
		return ErrValidation(fmt.Sprintf("quantity must be positive for %s", ref))
	}
	ok, err := l.inv.DecreaseStockIfEnough(ctx, ref, qty)
	if err != nil {
		return lookupError(err, ref.String())
	}
	if !ok {
		available, err := l.inv.CurrentStock(ctx, ref)
		if err != nil {
			return lookupError(err, ref.String())
		}
		return ErrInsufficientStock(ref, available, qty)
	}
	l.record(ref, -qty, model.AdjustmentReserve)
	return nil
}

// 在庫を戻す（無条件に加算）
func (l *StockLedger) Release(ctx context.Context, ref model.ItemRef, qty int64) error {
	return l.release(ctx, ref, qty, model.AdjustmentRelease)
}

func (l *StockLedger) release(ctx context.Context, ref model.ItemRef, qty int64, reason model.AdjustmentReason) error {
	if qty <= 0 {
		return ErrValidation(fmt.Sprintf("quantity must be positive for %s", ref))
	}
	if err := l.inv.IncreaseStock(ctx, ref, qty); err != nil {
		return lookupError(err, ref.String())
	}
	l.released += qty
	l.record(ref, qty, reason)
	return nil
}

// 順に予約し、途中で失敗したら予約済みの分だけ逆順で戻す
func (l *StockLedger) ReserveAll(ctx context.Context, lines []StockLine) error {
	for i, line := range lines {
		err := l.Reserve(ctx, line.Ref, line.Quantity)
		if err == nil {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			if rerr := l.release(ctx, lines[j].Ref, lines[j].Quantity, model.AdjustmentCompensate); rerr != nil {
				return rerr
			}
		}
		return err
	}
	return nil
}

// 明細をまとめて戻す（キャンセル用）
func (l *StockLedger) ReleaseItems(ctx context.Context, items []model.OrderItem) error {
	for _, it := range items {
		if err := l.Release(ctx, it.Ref(), it.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// 戻した数量の合計
func (l *StockLedger) ReleasedUnits() int64 {
	return l.released
}

// まだ台帳に書いていない移動
func (l *StockLedger) Movements() []model.InventoryAdjustment {
	return l.movements
}

// 記録した移動を台帳に書く
func (l *StockLedger) Journal(ctx context.Context, orderID *int64, actorID int64, at time.Time) error {
	for _, m := range l.movements {
		m.OrderID = orderID
		m.ActorUserID = actorID
		m.CreatedAt = at
		if err := l.inv.CreateAdjustment(ctx, m); err != nil {
			return persistenceError(err)
		}
	}
	l.movements = nil
	return nil
}

func (l *StockLedger) record(ref model.ItemRef, delta int64, reason model.AdjustmentReason) {
	l.movements = append(l.movements, model.InventoryAdjustment{
		ProductID: ref.ProductID,
		VariantID: ref.VariantID,
		Delta:     delta,
		Reason:    reason,
	})
}
