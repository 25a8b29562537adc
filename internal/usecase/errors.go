package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

// クライアントに返す安定したエラーコード
const (
	CodeValidation        = "VALIDATION"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeNotFound          = "NOT_FOUND"
	CodeEmptyCart         = "EMPTY_CART"
	CodeAddressNotOwned   = "ADDRESS_NOT_OWNED"
	CodeProductInactive   = "PRODUCT_INACTIVE"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeInvalidStatus     = "INVALID_STATUS"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeOrderNotFound     = "ORDER_NOT_FOUND"
	CodeOrderCodeConflict = "ORDER_CODE_CONFLICT"
	CodeConflict          = "CONFLICT"
	CodeInternal          = "INTERNAL"
)

// HTTPError はusecaseからhandlerへ返すエラー。
// Status: 400 入力 / 422 業務ルール / 409 競合 / 500 内部
type HTTPError struct {
	Status  int
	Code    string
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

func NewHTTPError(status int, code, message string) error {
	return &HTTPError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

func errValidation(message string) error {
	return NewHTTPError(http.StatusBadRequest, CodeValidation, message)
}

func errUnauthorized() error {
	return NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
}

func errNotFound() error {
	return NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
}

func errBusiness(code, message string) error {
	return NewHTTPError(http.StatusUnprocessableEntity, code, message)
}

func errConflict(code, message string) error {
	return NewHTTPError(http.StatusConflict, code, message)
}

// DBの中身は返さない
func errInternal() error {
	return NewHTTPError(http.StatusInternalServerError, CodeInternal, "internal error")
}
