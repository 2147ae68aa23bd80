package storage

import (
	"errors"
	"fmt"
)

// Kind classifies why an upload could not be stored.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindPayloadTooLarge
	KindUnsupportedMediaType
	KindStorageFailure
)

func (k Kind) String() string {
	switch k {
	case KindPayloadTooLarge:
		return "payload too large"
	case KindUnsupportedMediaType:
		return "unsupported media type"
	case KindStorageFailure:
		return "storage failure"
	default:
		return "unknown"
	}
}

// Error is the result of a failed upload. Callers branch on Kind, not on the message.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the bare kind sentinels below, so errors.Is(err, ErrPayloadTooLarge) works
// for any *Error of that kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Op != "" || t.Err != nil {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrPayloadTooLarge      = &Error{Kind: KindPayloadTooLarge}
	ErrUnsupportedMediaType = &Error{Kind: KindUnsupportedMediaType}
	ErrStorageFailure       = &Error{Kind: KindStorageFailure}

	ErrNotFound    = errors.New("stored file not found")
	ErrInvalidName = errors.New("invalid stored file name")
)

// KindOf returns the Kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func storageFailure(op string, err error) *Error {
	return &Error{Kind: KindStorageFailure, Op: op, Err: err}
}

func tooLarge(op string, size, limit int64) *Error {
	return &Error{
		Kind: KindPayloadTooLarge,
		Op:   op,
		Err:  fmt.Errorf("%d bytes exceeds limit of %d", size, limit),
	}
}
