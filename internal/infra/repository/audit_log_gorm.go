package repository

import (
	"context"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type auditLogGormRepository struct {
	db *gorm.DB
}

func NewAuditLogGormRepository(db *gorm.DB) repo.AuditLogRepository {
	return &auditLogGormRepository{db: db}
}

// 状態変更と同じトランザクションで書く
func (r *auditLogGormRepository) Create(ctx context.Context, log model.AuditLog) error {
	if err := r.db.WithContext(ctx).Create(&log).Error; err != nil {
		return errors.Wrapf(err, "create audit log %s %s/%d", log.Action, log.ResourceType, log.ResourceID)
	}
	return nil
}

// 注文1件の履歴: order行そのもの + その注文に属するsub_order行
func orderTrailScope(orderID int64) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		subIDs := db.Session(&gorm.Session{NewDB: true}).
			Model(&model.SubOrder{}).
			Select("id").
			Where("order_id = ?", orderID)
		return db.Where(
			"(resource_type = ? AND resource_id = ?) OR (resource_type = ? AND resource_id IN (?))",
			model.AuditResourceOrder, orderID, model.AuditResourceSubOrder, subIDs,
		)
	}
}

func (r *auditLogGormRepository) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	q := r.db.WithContext(ctx).Model(&model.AuditLog{})

	if f.ActorUserID != nil {
		q = q.Where("actor_user_id = ?", *f.ActorUserID)
	}
	if f.ActorRole != nil {
		q = q.Where("actor_role = ?", *f.ActorRole)
	}
	if f.Action != nil {
		q = q.Where("action = ?", *f.Action)
	}
	if f.OrderID != nil {
		q = q.Scopes(orderTrailScope(*f.OrderID))
	}
	if f.ResourceType != nil {
		q = q.Where("resource_type = ?", *f.ResourceType)
	}
	if f.ResourceID != nil {
		q = q.Where("resource_id = ?", *f.ResourceID)
	}
	if f.CreatedFrom != nil {
		q = q.Where("created_at >= ?", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		q = q.Where("created_at <= ?", *f.CreatedTo)
	}

	limit := f.Limit
	if limit <= 0 || limit > repo.MaxAuditLogLimit {
		limit = repo.DefaultAuditLogLimit
	}

	logs := []model.AuditLog{}
	if err := q.Order("id DESC").Limit(limit).Offset(max(f.Offset, 0)).Find(&logs).Error; err != nil {
		return nil, errors.Wrap(err, "list audit logs")
	}
	return logs, nil
}
