package apperr

import "errors"

// Kind is the stable category of a domain error. Handlers map kinds to
// HTTP statuses; services never touch status codes.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindNotFound        Kind = "not_found"
	KindAuthorization   Kind = "authorization"
	KindConflict        Kind = "conflict"
	KindPolicy          Kind = "policy"
	KindExternalService Kind = "external_service"
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Validation(message string) *Error      { return New(KindValidation, message) }
func NotFound(message string) *Error        { return New(KindNotFound, message) }
func Authorization(message string) *Error   { return New(KindAuthorization, message) }
func Conflict(message string) *Error        { return New(KindConflict, message) }
func Policy(message string) *Error          { return New(KindPolicy, message) }
func ExternalService(message string) *Error { return New(KindExternalService, message) }

// KindOf returns the kind of err, or empty string for non-domain errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err is a domain error of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
