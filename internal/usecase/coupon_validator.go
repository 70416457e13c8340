package usecase

import (
	"context"
	"errors"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	"github.com/shopspring/decimal"
)

// クーポン判定の結果。IsValid=falseのときMessageに理由
type CouponValidation struct {
	IsValid        bool
	Message        string
	DiscountAmount int64
	Coupon         *model.Coupon
	UserCoupon     *model.UserCoupon
}

// 判定失敗の理由
const (
	couponMsgNotFound    = "coupon not found"
	couponMsgInactive    = "coupon is not active"
	couponMsgBadValue    = "coupon value is invalid"
	couponMsgNotYetValid = "coupon is not yet valid"
	couponMsgExpired     = "coupon has expired"
	couponMsgMinOrder    = "minimum order value not met"
	couponMsgUsageLimit  = "usage limit reached"
	couponMsgPerUser     = "per-user usage limit reached"
	couponMsgNotAssigned = "coupon is not assigned to this customer"
	couponMsgAlreadyUsed = "coupon already used"
)

type CouponValidator struct {
	coupons repo.CouponRepository
	orders  repo.OrderRepository
	clock   Clock
}

// トランザクション内ではTxReposのリポジトリで作る
func NewCouponValidator(coupons repo.CouponRepository, orders repo.OrderRepository, clock Clock) *CouponValidator {
	if clock == nil {
		clock = systemClock{}
	}
	return &CouponValidator{coupons: coupons, orders: orders, clock: clock}
}

func invalidCoupon(msg string) CouponValidation {
	return CouponValidation{IsValid: false, Message: msg}
}

// 判定順: 存在・有効・値の範囲 → 期間 → 最低金額 → 全体上限 → ユーザー上限 → 配布
// errorはDBエラーのときだけ
func (v *CouponValidator) Validate(ctx context.Context, customerID int64, code string, subtotal int64) (CouponValidation, error) {
	c, err := v.coupons.FindByCode(ctx, model.NormalizeCouponCode(code))
	if errors.Is(err, repo.ErrNotFound) {
		return invalidCoupon(couponMsgNotFound), nil
	}
	if err != nil {
		return CouponValidation{}, persistenceError(err)
	}
	if !c.IsActive {
		return invalidCoupon(couponMsgInactive), nil
	}
	if !c.HasValidValue() {
		return invalidCoupon(couponMsgBadValue), nil
	}

	now := v.clock.Now()
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return invalidCoupon(couponMsgNotYetValid), nil
	}
	if c.ValidTo != nil && now.After(*c.ValidTo) {
		return invalidCoupon(couponMsgExpired), nil
	}

	if subtotal < c.MinOrderValue {
		return invalidCoupon(couponMsgMinOrder), nil
	}

	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return invalidCoupon(couponMsgUsageLimit), nil
	}

	if c.PerUserLimit != nil {
		used, err := v.orders.CountActiveByCustomerAndCoupon(ctx, customerID, c.ID)
		if err != nil {
			return CouponValidation{}, persistenceError(err)
		}
		if used >= *c.PerUserLimit {
			return invalidCoupon(couponMsgPerUser), nil
		}
	}

	var held *model.UserCoupon
	if c.AssignmentOnly {
		assignments, err := v.coupons.ListAssignments(ctx, c.ID, customerID)
		if err != nil {
			return CouponValidation{}, persistenceError(err)
		}
		if len(assignments) == 0 {
			return invalidCoupon(couponMsgNotAssigned), nil
		}
		for i := range assignments {
			if !assignments[i].IsUsed {
				held = &assignments[i]
				break
			}
		}
		if held == nil {
			return invalidCoupon(couponMsgAlreadyUsed), nil
		}
	}

	return CouponValidation{
		IsValid:        true,
		DiscountAmount: CouponDiscount(c, subtotal),
		Coupon:         &c,
		UserCoupon:     held,
	}, nil
}

// 値引き額。小計を超えない
// PERCENTAGEは最小通貨単位で四捨五入。範囲外の値は0
func CouponDiscount(c model.Coupon, subtotal int64) int64 {
	if subtotal <= 0 || !c.HasValidValue() {
		return 0
	}
	var d int64
	switch c.Type {
	case model.CouponTypePercentage:
		d = decimal.NewFromInt(subtotal).
			Mul(decimal.NewFromInt(c.Value)).
			Div(decimal.NewFromInt(100)).
			Round(0).
			IntPart()
	case model.CouponTypeFixed:
		d = c.Value
	}
	return min(d, subtotal)
}

// 全体の使用回数を+1。上限に達していたらCouponInvalid
func (v *CouponValidator) ConsumeGlobalUsage(ctx context.Context, couponID int64) error {
	ok, err := v.coupons.IncrementUsageIfBelowLimit(ctx, couponID)
	if err != nil {
		return lookupError(err, "coupon")
	}
	if !ok {
		return ErrCouponInvalid(couponMsgUsageLimit)
	}
	return nil
}

// 配布クーポンを使用済みにする（一度だけ成功）
func (v *CouponValidator) MarkUsed(ctx context.Context, userCouponID int64, orderID *int64) error {
	ok, err := v.coupons.MarkUserCouponUsed(ctx, userCouponID, orderID, v.clock.Now())
	if err != nil {
		return lookupError(err, "user coupon")
	}
	if ok {
		return nil
	}
	if _, err := v.coupons.FindUserCouponByID(ctx, userCouponID); err != nil {
		return lookupError(err, "user coupon")
	}
	return ErrAlreadyUsed()
}
