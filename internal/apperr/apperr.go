// Package apperr defines the service-wide error taxonomy. Every error that
// crosses a handler boundary is classified into one of the kinds below, and
// the HTTP layer maps the kind to a status code in exactly one place.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/lib/pq"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindUnexpected Kind = iota
	KindNotFound
	KindForbidden
	KindInvalidArgument
	KindConflict
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NOT_FOUND"
	case KindForbidden:
		return "FORBIDDEN"
	case KindInvalidArgument:
		return "INVALID_ARGUMENT"
	case KindConflict:
		return "CONFLICT"
	default:
		return "UNEXPECTED"
	}
}

// Error carries a kind, a client-safe message, and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound returns a not-found error with a client-safe message.
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Forbidden returns an authorization error with a client-safe message.
func Forbidden(format string, args ...any) error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// Invalid returns a validation error with a client-safe message.
func Invalid(format string, args ...any) error {
	return &Error{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// Conflict returns a uniqueness or dependency conflict error.
func Conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Unexpected wraps an internal failure. The message shown to clients is
// generic; err is preserved for logging.
func Unexpected(err error) error {
	return &Error{Kind: KindUnexpected, Message: "internal error", Err: err}
}

// KindOf extracts the kind of err, defaulting to KindUnexpected.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// Message extracts the client-safe message of err. Unexpected errors always
// present as "internal error" so internals never leak to clients.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindUnexpected {
		return e.Message
	}
	return "internal error"
}

// HTTPStatus maps the kind of err to an HTTP status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidArgument:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// constraintMessages maps named database constraints to the message returned
// to clients. New unique constraints must be registered here; unknown
// constraints fall back to a generic conflict message rather than exposing
// the constraint name.
var constraintMessages = map[string]string{
	"users_email_key":                    "email is already registered",
	"users_mobile_key":                   "mobile number is already registered",
	"wards_number_local_body_key":        "ward number already exists in this local body",
	"households_ration_card_number_key":  "ration card number is already registered",
	"family_members_aadhaar_number_key":  "aadhaar number is already registered",
	"households_ward_id_fkey":            "ward has registered households",
	"user_ward_assignments_ward_id_fkey": "ward has assigned users",
}

// FromDB classifies a database error. Unique violations (23505) and foreign
// key violations (23503) become conflicts keyed by constraint name; anything
// else is unexpected.
func FromDB(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505", "23503":
			if msg, ok := constraintMessages[pqErr.Constraint]; ok {
				return &Error{Kind: KindConflict, Message: msg, Err: err}
			}
			return &Error{Kind: KindConflict, Message: "conflicts with existing data", Err: err}
		}
	}
	return Unexpected(err)
}
