package service

import "errors"

// Kind classifies a service failure. The transport maps kinds to status
// codes.
type Kind int

const (
	KindInternal Kind = iota
	KindNullInput
	KindValidation
	KindConflict
	KindAuthentication
	KindNotAuthenticated
	KindAuthorization
)

func (k Kind) String() string {
	switch k {
	case KindNullInput:
		return "NULL_INPUT"
	case KindValidation:
		return "INVALID_INPUT"
	case KindConflict:
		return "CONFLICT"
	case KindAuthentication:
		return "INVALID_CREDENTIALS"
	case KindNotAuthenticated:
		return "NOT_LOGGED_IN"
	case KindAuthorization:
		return "FORBIDDEN"
	default:
		return "INTERNAL_ERROR"
	}
}

// Error is a typed, caller-facing failure with a human-readable message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Message
}

// Is matches any *Error of the same kind. A target with a message must also
// match the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

var (
	ErrNullInput        = &Error{Kind: KindNullInput}
	ErrValidation       = &Error{Kind: KindValidation}
	ErrConflict         = &Error{Kind: KindConflict}
	ErrAuthentication   = &Error{Kind: KindAuthentication}
	ErrNotAuthenticated = &Error{Kind: KindNotAuthenticated}
	ErrAuthorization    = &Error{Kind: KindAuthorization}
)

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf returns the kind of err, or KindInternal for errors that did not
// originate as an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
