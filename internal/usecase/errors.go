package usecase

import (
	"errors"
	"fmt"
	"net/http"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

// 境界に返すエラー種別
type ErrorCode string

const (
	CodeValidation         ErrorCode = "VALIDATION_ERROR"
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeNotFound           ErrorCode = "NOT_FOUND"
	CodeEmptyCart          ErrorCode = "EMPTY_CART"
	CodeProductUnavailable ErrorCode = "PRODUCT_UNAVAILABLE"
	CodeInsufficientStock  ErrorCode = "INSUFFICIENT_STOCK"
	CodeCouponInvalid      ErrorCode = "COUPON_INVALID"
	CodeAlreadyUsed        ErrorCode = "ALREADY_USED"
	CodeInvalidStatusValue ErrorCode = "INVALID_STATUS_VALUE"
	CodeInvalidTransition  ErrorCode = "INVALID_TRANSITION"
	CodeConflict           ErrorCode = "CONFLICT"
	CodePersistence        ErrorCode = "PERSISTENCE_FAILURE"
	CodeInternal           ErrorCode = "INTERNAL_ERROR"
)

var codeStatus = map[ErrorCode]int{
	CodeValidation:         http.StatusBadRequest,
	CodeUnauthorized:       http.StatusUnauthorized,
	CodeForbidden:          http.StatusForbidden,
	CodeNotFound:           http.StatusNotFound,
	CodeEmptyCart:          http.StatusBadRequest,
	CodeProductUnavailable: http.StatusConflict,
	CodeInsufficientStock:  http.StatusConflict,
	CodeCouponInvalid:      http.StatusUnprocessableEntity,
	CodeAlreadyUsed:        http.StatusConflict,
	CodeInvalidStatusValue: http.StatusBadRequest,
	CodeInvalidTransition:  http.StatusConflict,
	CodeConflict:           http.StatusConflict,
	CodePersistence:        http.StatusInternalServerError,
	CodeInternal:           http.StatusInternalServerError,
}

type HTTPError struct {
	Status  int
	Code    ErrorCode
	Message string

	// 在庫不足など、呼び出し側が使う詳細
	Detail any

	// 元のエラー（ログ用。レスポンスには出さない）
	Err error
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error { return e.Err }

// 再試行してよいか（保存失敗のみ）
func (e *HTTPError) Retryable() bool { return e.Code == CodePersistence }

func NewHTTPError(status int, message string) error {
	code := CodeInternal
	switch status {
	case http.StatusBadRequest:
		code = CodeValidation
	case http.StatusUnauthorized:
		code = CodeUnauthorized
	case http.StatusForbidden:
		code = CodeForbidden
	case http.StatusNotFound:
		code = CodeNotFound
	case http.StatusConflict:
		code = CodeConflict
	}
	return &HTTPError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

func newCodeError(code ErrorCode, message string) *HTTPError {
	return &HTTPError{Status: codeStatus[code], Code: code, Message: message}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// コードで判定（テストやハンドラ用）
func HasCode(err error, code ErrorCode) bool {
	he, ok := AsHTTPError(err)
	return ok && he.Code == code
}

type InsufficientStockDetail struct {
	Item      model.ItemRef `json:"item"`
	Available int64         `json:"available"`
	Requested int64         `json:"requested"`
}

func ErrValidation(message string) error { return newCodeError(CodeValidation, message) }

func ErrForbidden(message string) error { return newCodeError(CodeForbidden, message) }

func ErrNotFound(what string) error { return newCodeError(CodeNotFound, what+" not found") }

func ErrEmptyCart() error { return newCodeError(CodeEmptyCart, "cart is empty") }

func ErrProductUnavailable(ref model.ItemRef) error {
	e := newCodeError(CodeProductUnavailable, ref.String()+" is no longer available")
	e.Detail = ref
	return e
}

func ErrInsufficientStock(ref model.ItemRef, available, requested int64) error {
	e := newCodeError(CodeInsufficientStock,
		fmt.Sprintf("insufficient stock for %s: available %d, requested %d", ref, available, requested))
	e.Detail = InsufficientStockDetail{Item: ref, Available: available, Requested: requested}
	return e
}

func ErrCouponInvalid(reason string) error {
	return newCodeError(CodeCouponInvalid, "coupon invalid: "+reason)
}

func ErrAlreadyUsed() error { return newCodeError(CodeAlreadyUsed, "coupon already used") }

func ErrInvalidStatusValue(kind, value string) error {
	return newCodeError(CodeInvalidStatusValue, fmt.Sprintf("invalid %s status %q", kind, value))
}

// 現在のステータスと理由を必ずメッセージに入れる
func ErrInvalidTransition(kind string, from, to string, reason string) error {
	return newCodeError(CodeInvalidTransition,
		fmt.Sprintf("cannot change %s status from %s to %s: %s", kind, from, to, reason))
}

// DBなどのエラーを包む。既にHTTPErrorならそのまま
func persistenceError(err error) error {
	if err == nil {
		return nil
	}
	if he, ok := AsHTTPError(err); ok {
		return he
	}
	e := newCodeError(CodePersistence, "db error")
	e.Err = err
	return e
}

// ErrNotFoundならnotFound、それ以外は保存失敗
func lookupError(err error, what string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return ErrNotFound(what)
	}
	return persistenceError(err)
}
