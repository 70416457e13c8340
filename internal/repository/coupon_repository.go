package repository

import (
	"context"
	"time"

	"marketplace/internal/domain/model"
)

type CouponRepository interface {
	// コードは正規化済み（大文字）で渡す
	FindByCode(ctx context.Context, code string) (model.Coupon, error)

	// 上限未満のときだけused_countを+1（条件付きUPDATE）
	IncrementUsageIfBelowLimit(ctx context.Context, couponID int64) (bool, error)

	// ユーザーへの配布一覧
	ListAssignments(ctx context.Context, couponID int64, customerID int64) ([]model.UserCoupon, error)

	// is_used=falseのときだけtrueにする。既に使用済みならfalse
	MarkUserCouponUsed(ctx context.Context, userCouponID int64, orderID *int64, at time.Time) (bool, error)
	FindUserCouponByID(ctx context.Context, userCouponID int64) (model.UserCoupon, error)
}
