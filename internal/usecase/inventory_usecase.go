package usecase

import (
	"context"
	"net/http"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

// 管理者の在庫設定。台帳と監査ログを同じトランザクションで書く
type InventoryUsecase struct {
	tx   repo.TransactionManager
	deps Deps
}

func NewInventoryUsecase(tx repo.TransactionManager, deps Deps) *InventoryUsecase {
	return &InventoryUsecase{tx: tx, deps: deps.withDefaults()}
}

type SetStockInput struct {
	ProductID int64
	VariantID *int64
	Stock     int64
	Note      string
}

type StockOutput struct {
	ProductID int64  `json:"product_id"`
	VariantID *int64 `json:"variant_id,omitempty"`
	Before    int64  `json:"before"`
	Stock     int64  `json:"stock"`
}

func (u *InventoryUsecase) SetStock(ctx context.Context, actor model.Actor, in SetStockInput) (StockOutput, error) {
	if actor.ID <= 0 {
		return StockOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if !actor.IsAdmin() {
		return StockOutput{}, ErrForbidden("admin only")
	}
	if in.ProductID <= 0 {
		return StockOutput{}, ErrValidation("invalid product_id")
	}
	if in.VariantID != nil && *in.VariantID <= 0 {
		return StockOutput{}, ErrValidation("invalid variant_id")
	}
	if in.Stock < 0 {
		return StockOutput{}, ErrValidation("stock must be >= 0")
	}
	ref := model.ItemRef{ProductID: in.ProductID, VariantID: in.VariantID}

	out := StockOutput{ProductID: in.ProductID, VariantID: in.VariantID, Stock: in.Stock}
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		now := u.deps.Clock.Now()
		before, err := r.Inventory().SetStock(ctx, ref, in.Stock)
		if err != nil {
			return lookupError(err, ref.String())
		}
		out.Before = before

		if delta := in.Stock - before; delta != 0 {
			if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
				ProductID:   ref.ProductID,
				VariantID:   ref.VariantID,
				ActorUserID: actor.ID,
				Delta:       delta,
				Reason:      model.AdjustmentAdminSet,
				Note:        in.Note,
				CreatedAt:   now,
			}); err != nil {
				return persistenceError(err)
			}
		}

		//★監査ログ（UPDATE_STOCK）
		return persistenceError(r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor.ID,
			ActorRole:    actor.Role,
			Action:       model.AuditActionUpdateStock,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   ref.ProductID,
			BeforeJSON:   toJSON(map[string]any{"item": ref, "stock": before}),
			AfterJSON:    toJSON(map[string]any{"item": ref, "stock": in.Stock}),
			CreatedAt:    now,
		}))
	})
	if err != nil {
		return StockOutput{}, err
	}
	u.deps.Metrics.StockMoved(string(model.AdjustmentAdminSet), abs(out.Stock-out.Before))
	return out, nil
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
