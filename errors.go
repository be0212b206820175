package nbt

import (
	"errors"
	"fmt"
)

// ErrorKind classifies codec failures.
type ErrorKind uint8

const (
	KindUnknown ErrorKind = iota
	KindTruncated
	KindMalformed
	KindLimitExceeded
	KindContainerCorrupt
	KindRangeExceeded
	KindIO
)

var (
	ErrTruncated        = errors.New("nbt: truncated")
	ErrMalformed        = errors.New("nbt: malformed")
	ErrLimitExceeded    = errors.New("nbt: limit exceeded")
	ErrContainerCorrupt = errors.New("nbt: container corrupt")
	ErrRangeExceeded    = errors.New("nbt: range exceeded")
	ErrIO               = errors.New("nbt: io failure")
)

func (k ErrorKind) String() string {
	switch k {
	case KindTruncated:
		return "truncated"
	case KindMalformed:
		return "malformed"
	case KindLimitExceeded:
		return "limit exceeded"
	case KindContainerCorrupt:
		return "container corrupt"
	case KindRangeExceeded:
		return "range exceeded"
	case KindIO:
		return "io failure"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindTruncated:
		return ErrTruncated
	case KindMalformed:
		return ErrMalformed
	case KindLimitExceeded:
		return ErrLimitExceeded
	case KindContainerCorrupt:
		return ErrContainerCorrupt
	case KindRangeExceeded:
		return ErrRangeExceeded
	case KindIO:
		return ErrIO
	default:
		return nil
	}
}

// Error is the single error value returned by decode and encode calls.
// Offset is the byte position in the raw tag stream, or -1 when unknown.
type Error struct {
	Kind   ErrorKind
	Offset int64
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	var msg string
	if e.Offset >= 0 {
		msg = fmt.Sprintf("nbt: %s at offset %d: %s", e.Kind, e.Offset, e.Msg)
	} else {
		msg = fmt.Sprintf("nbt: %s: %s", e.Kind, e.Msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind, so callers can write
// errors.Is(err, nbt.ErrTruncated).
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func newError(kind ErrorKind, offset int64, format string, args ...any) *Error {
	return &Error{Kind: kind, Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

func wrapError(kind ErrorKind, offset int64, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Offset: offset, Msg: fmt.Sprintf(format, args...), Err: err}
}
