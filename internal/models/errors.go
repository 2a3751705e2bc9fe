package models

import "errors"

// ErrorKind classifies domain errors raised while handling a client call.
type ErrorKind string

const (
	KindPrecondition ErrorKind = "precondition"
	KindConflict     ErrorKind = "conflict"
	KindNotFound     ErrorKind = "not_found"
	KindStorage      ErrorKind = "storage"

	// KindInvalidRequest covers malformed calls: unknown methods or bad arguments.
	KindInvalidRequest ErrorKind = "invalid_request"
)

// Error is a domain error delivered to the invoking client only.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

var (
	ErrIdentityNotSet = &Error{Kind: KindPrecondition, Message: "user must set a name before sending messages"}
	ErrNotMember      = &Error{Kind: KindPrecondition, Message: "user is not in this group"}
	ErrGroupExists    = &Error{Kind: KindConflict, Message: "a group with this name already exists"}
	ErrGroupNotFound  = &Error{Kind: KindNotFound, Message: "group does not exist"}
)

// StorageError wraps a failed store operation.
func StorageError(msg string, err error) *Error {
	return &Error{Kind: KindStorage, Message: msg, Err: err}
}

// InvalidRequest reports a call the protocol cannot dispatch.
func InvalidRequest(msg string) *Error {
	return &Error{Kind: KindInvalidRequest, Message: msg}
}

// KindOf reports the kind of err, or KindStorage for errors that are not domain errors.
func KindOf(err error) ErrorKind {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return KindStorage
}

// ClientMessage returns the text the invoking client is allowed to see.
// Storage failures are opaque.
func ClientMessage(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) && domainErr.Kind != KindStorage {
		return domainErr.Message
	}
	return "internal server error"
}
