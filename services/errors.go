package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrorKind classifies business errors returned by services
type ErrorKind string

const (
	KindNotFound      ErrorKind = "not_found"
	KindForbidden     ErrorKind = "forbidden"
	KindValidation    ErrorKind = "validation"
	KindConflict      ErrorKind = "conflict"
	KindConfiguration ErrorKind = "configuration"
	KindUnauthorized  ErrorKind = "unauthorized"
	KindUnavailable   ErrorKind = "unavailable"
)

// Error is a business error with enough detail for the caller to correct its input
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches on Kind so callers can test with errors.Is(err, ErrNotFound)
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Code == "" || t.Code == e.Code)
}

// Sentinels for errors.Is checks
var (
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrForbidden     = &Error{Kind: KindForbidden}
	ErrValidation    = &Error{Kind: KindValidation}
	ErrConflict      = &Error{Kind: KindConflict}
	ErrConfiguration = &Error{Kind: KindConfiguration}
	ErrUnauthorized  = &Error{Kind: KindUnauthorized}
	ErrUnavailable   = &Error{Kind: KindUnavailable}
)

func notFound(code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: fmt.Sprintf(format, args...)}
}

func forbidden(format string, args ...interface{}) *Error {
	return &Error{Kind: KindForbidden, Code: "FORBIDDEN", Message: fmt.Sprintf(format, args...)}
}

func invalid(code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

func conflict(code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsError extracts a business error from err
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// isUniqueViolation reports whether err came from a unique constraint.
// Works with PostgreSQL and SQLite.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate") ||
		strings.Contains(errMsg, "unique constraint")
}
