package app

import (
	"fmt"

	"account-service/internal/model"
)

// Kind classifies a failure for the transport layer.
type Kind int

const (
	KindBadRequest Kind = iota + 1
	KindValidation
	KindConflict
	KindUnauthorized
	KindNotFound
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindInternal:
		return "internal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

const (
	MsgMissingRegisterFields = "Please provide all required fields"
	MsgMissingLoginFields    = "Please provide email and password"
	MsgUserExists            = "User already exists"
	MsgValidationFailed      = "Validation failed"
	MsgInvalidCredentials    = "Invalid email or password"
	MsgSessionExpired        = "Session expired. Please log in again."
	MsgUserNotFound          = "User not found"
	MsgServerError           = "Server error"
)

// Error is the only error type the service returns. Message is safe to show
// to clients; Err keeps the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Fields  []model.FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func badRequest(msg string) *Error {
	return &Error{Kind: KindBadRequest, Message: msg}
}

func conflict(cause error) *Error {
	return &Error{Kind: KindConflict, Message: MsgUserExists, Err: cause}
}

func validation(fields model.ValidationErrors) *Error {
	return &Error{Kind: KindValidation, Message: MsgValidationFailed, Fields: fields, Err: fields}
}

func unauthorized(msg string, cause error) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg, Err: cause}
}

func notFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: MsgServerError, Err: cause}
}
