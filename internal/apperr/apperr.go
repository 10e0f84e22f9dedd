// Package apperr defines the stable error codes surfaced to callers. Every
// failure leaving a use case carries one of these codes plus a human message.
package apperr

import (
	stderrors "errors"
	"fmt"

	"github.com/pkg/errors"
)

type Code string

const (
	CodeNotFound              Code = "NOT_FOUND"
	CodeConflict              Code = "CONFLICT"
	CodeInvalidInput          Code = "INVALID_INPUT"
	CodeInsufficientStock     Code = "INSUFFICIENT_STOCK"
	CodeInvalidTransition     Code = "INVALID_TRANSITION"
	CodeInvalidCoupon         Code = "INVALID_COUPON"
	CodeCouponExpired         Code = "COUPON_EXPIRED"
	CodeCouponUsageLimit      Code = "COUPON_USAGE_LIMIT_REACHED"
	CodeCouponMinOrder        Code = "COUPON_MIN_ORDER_NOT_MET"
	CodeCouponNotAllowed      Code = "COUPON_NOT_ALLOWED_FOR_USER"
	CodeDependencyUnavailable Code = "DEPENDENCY_UNAVAILABLE"
	CodeInternal              Code = "INTERNAL"
)

type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...interface{}) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error, keeping the cause
// chain (with stack) intact for logging.
func Wrap(code Code, message string, cause error) error {
	if cause == nil {
		return &Error{Code: code, Message: message}
	}
	return &Error{Code: code, Message: message, cause: errors.WithStack(cause)}
}

func IsCode(err error, code Code) bool {
	var e *Error
	return stderrors.As(err, &e) && e.Code == code
}

// CodeOf returns the application code carried by err, or CodeInternal when
// the error did not originate from this package.
func CodeOf(err error) Code {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
