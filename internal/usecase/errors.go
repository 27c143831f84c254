package usecase

import (
	"errors"
	"fmt"
)

// クライアントが分岐に使う安定したエラー種別。
const (
	CodeValidation   = "VALIDATION"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"

	//Conflict系
	CodeSelfTrade              = "SELF_TRADE"
	CodeEmptyCart              = "EMPTY_CART"
	CodeProductUnavailable     = "PRODUCT_UNAVAILABLE"
	CodeConcurrentSaleConflict = "CONCURRENT_SALE_CONFLICT"
	CodeDuplicate              = "DUPLICATE"

	CodePersistence = "PERSISTENCE"
)

type HTTPError struct {
	Status  int
	Code    string
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

func NewHTTPError(status int, code string, message string) error {
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
