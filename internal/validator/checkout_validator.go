package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"marketplace/internal/usecase"
)

var (
	// 入力が不正
	ErrInvalidInput = errors.New("invalid input")
)

// 冪等キーに使える文字
var idempotencyKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._:\-]+$`)

const maxIdempotencyKeyLen = 255

type checkoutValidator struct{}

// Usecaseは interface を依存注入
func NewCheckoutValidator() usecase.CheckoutValidator {
	return &checkoutValidator{}
}

// 注文の入力を検証（在庫や価格はUsecase側）
func (v *checkoutValidator) ValidateCheckout(customerID int64, in usecase.CheckoutInput) error {
	if customerID <= 0 {
		return invalid("invalid customer")
	}
	if in.AddressID <= 0 {
		return invalid("invalid address_id")
	}
	if !in.PaymentMethod.Valid() {
		return invalid(fmt.Sprintf("invalid payment_method %q", in.PaymentMethod))
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if len(key) > maxIdempotencyKeyLen {
		return invalid("idempotency key too long")
	}
	if key != "" && !idempotencyKeyPattern.MatchString(key) {
		return invalid("invalid idempotency key")
	}

	for i, l := range in.Items {
		if l.ProductID <= 0 {
			return invalid(fmt.Sprintf("items[%d]: invalid product_id", i))
		}
		if l.VariantID != nil && *l.VariantID <= 0 {
			return invalid(fmt.Sprintf("items[%d]: invalid variant_id", i))
		}
		if l.Quantity < 1 {
			return invalid(fmt.Sprintf("items[%d]: quantity must be at least 1", i))
		}
	}

	if len(in.CouponCode) > 64 {
		return invalid("coupon code too long")
	}
	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}
