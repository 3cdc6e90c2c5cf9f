package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// ============================================================
// Kinds
// ============================================================

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// HTTPStatus: код ответа для вида ошибки.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// ============================================================
// AppError
// ============================================================

// AppError: ошибка уровня сервиса. Message уходит клиенту, Cause только в лог.
type AppError struct {
	Kind    Kind
	Message string
	Detail  string
	Cause   error
}

func (e *AppError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithDetail возвращает копию с заполненным Detail.
func (e *AppError) WithDetail(detail string) *AppError {
	clone := *e
	clone.Detail = detail
	return &clone
}

func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// Wrap прикрепляет причину. nil на входе даёт nil.
func Wrap(err error, kind Kind, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{Kind: kind, Message: message, Cause: err}
}

func Validation(message string) *AppError   { return New(KindValidation, message) }
func NotFound(message string) *AppError     { return New(KindNotFound, message) }
func Unauthorized(message string) *AppError { return New(KindUnauthorized, message) }

func Internal(message string, cause error) error {
	return &AppError{Kind: KindInternal, Message: message, Cause: cause}
}

// ============================================================
// Inspection
// ============================================================

// KindOf возвращает вид первой AppError в цепочке; прочие ошибки считаются внутренними.
func KindOf(err error) Kind {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

func As(err error) (*AppError, bool) {
	var ae *AppError
	ok := errors.As(err, &ae)
	return ae, ok
}

func IsValidation(err error) bool   { return err != nil && KindOf(err) == KindValidation }
func IsNotFound(err error) bool     { return err != nil && KindOf(err) == KindNotFound }
func IsUnauthorized(err error) bool { return err != nil && KindOf(err) == KindUnauthorized }
