package usecase

import (
	"context"
	"net/http"
	"strings"

	repo "marketplace/internal/repository"
)

// クーポンの事前確認（使用回数は消費しない）
type CouponUsecase struct {
	tx    repo.TransactionManager
	clock Clock
}

func NewCouponUsecase(tx repo.TransactionManager, clock Clock) *CouponUsecase {
	if clock == nil {
		clock = systemClock{}
	}
	return &CouponUsecase{tx: tx, clock: clock}
}

type ValidateCouponInput struct {
	Code     string
	Subtotal int64
}

type CouponValidationOutput struct {
	IsValid        bool   `json:"is_valid"`
	Message        string `json:"message,omitempty"`
	Code           string `json:"code"`
	DiscountAmount int64  `json:"discount_amount"`
}

func (u *CouponUsecase) Validate(ctx context.Context, customerID int64, in ValidateCouponInput) (CouponValidationOutput, error) {
	if customerID <= 0 {
		return CouponValidationOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(in.Code) == "" {
		return CouponValidationOutput{}, ErrValidation("code is required")
	}
	if in.Subtotal < 0 {
		return CouponValidationOutput{}, ErrValidation("invalid subtotal")
	}

	var res CouponValidation
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		res, err = NewCouponValidator(r.Coupons(), r.Orders(), u.clock).Validate(ctx, customerID, in.Code, in.Subtotal)
		return err
	})
	if err != nil {
		return CouponValidationOutput{}, err
	}

	out := CouponValidationOutput{
		IsValid:        res.IsValid,
		Message:        res.Message,
		DiscountAmount: res.DiscountAmount,
	}
	if res.Coupon != nil {
		out.Code = res.Coupon.Code
	}
	return out, nil
}
