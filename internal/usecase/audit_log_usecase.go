package usecase

import (
	"context"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

// 監査ログの参照（管理者のみ）
type AuditLogUsecase struct {
	tx repo.TransactionManager
}

func NewAuditLogUsecase(tx repo.TransactionManager) *AuditLogUsecase {
	return &AuditLogUsecase{tx: tx}
}

func (u *AuditLogUsecase) List(ctx context.Context, actor model.Actor, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden("admin only")
	}
	if f.CreatedFrom != nil && f.CreatedTo != nil && f.CreatedFrom.After(*f.CreatedTo) {
		return nil, ErrValidation("from must be before to")
	}
	if f.ResourceType != nil && !f.ResourceType.Valid() {
		return nil, ErrValidation("invalid resource_type")
	}
	if f.ActorRole != nil && !f.ActorRole.Valid() {
		return nil, ErrValidation("invalid actor_role")
	}
	// 注文単位の履歴は order/sub_order の両方をまたぐので resource_type とは併用しない
	if f.OrderID != nil && (f.ResourceType != nil || f.ResourceID != nil) {
		return nil, ErrValidation("order_id cannot be combined with resource_type or resource_id")
	}
	if f.Limit < 0 || f.Limit > repo.MaxAuditLogLimit {
		return nil, ErrValidation("invalid limit")
	}
	if f.Offset < 0 {
		return nil, ErrValidation("invalid offset")
	}

	var logs []model.AuditLog
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		logs, err = r.AuditLogs().List(ctx, f)
		return persistenceError(err)
	})
	if err != nil {
		return nil, err
	}
	return logs, nil
}
