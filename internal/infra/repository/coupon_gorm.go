package repository

import (
	"context"
	"errors"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

type CouponGormRepository struct {
	db *gorm.DB
}

func NewCouponGormRepository(db *gorm.DB) *CouponGormRepository {
	return &CouponGormRepository{db: db}
}

func (r *CouponGormRepository) FindByCode(ctx context.Context, code string) (model.Coupon, error) {
	var c model.Coupon
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Coupon{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Coupon{}, pkgerrors.Wrap(err, "find coupon")
	}
	return c, nil
}

// 上限未満のときだけ+1（同時に使われても上限は超えない）
func (r *CouponGormRepository) IncrementUsageIfBelowLimit(ctx context.Context, couponID int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Coupon{}).
		Where("id = ? AND (usage_limit IS NULL OR used_count < usage_limit)", couponID).
		Update("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return false, pkgerrors.Wrapf(res.Error, "increment usage of coupon %d", couponID)
	}
	return res.RowsAffected > 0, nil
}

func (r *CouponGormRepository) ListAssignments(ctx context.Context, couponID int64, customerID int64) ([]model.UserCoupon, error) {
	var list []model.UserCoupon
	err := r.db.WithContext(ctx).
		Where("coupon_id = ? AND customer_id = ?", couponID, customerID).
		Order("id asc").
		Find(&list).Error
	if err != nil {
		return []model.UserCoupon{}, pkgerrors.Wrap(err, "list coupon assignments")
	}
	return list, nil
}

// is_used=falseのときだけ更新
func (r *CouponGormRepository) MarkUserCouponUsed(ctx context.Context, userCouponID int64, orderID *int64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.UserCoupon{}).
		Where("id = ? AND is_used = ?", userCouponID, false).
		Updates(map[string]any{
			"is_used":  true,
			"used_at":  at,
			"order_id": orderID,
		})
	if res.Error != nil {
		return false, pkgerrors.Wrapf(res.Error, "mark user coupon %d used", userCouponID)
	}
	return res.RowsAffected > 0, nil
}

func (r *CouponGormRepository) FindUserCouponByID(ctx context.Context, userCouponID int64) (model.UserCoupon, error) {
	var uc model.UserCoupon
	err := r.db.WithContext(ctx).Where("id = ?", userCouponID).First(&uc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.UserCoupon{}, repo.ErrNotFound
	}
	if err != nil {
		return model.UserCoupon{}, pkgerrors.Wrapf(err, "find user coupon %d", userCouponID)
	}
	return uc, nil
}
