package label

import (
	"errors"
	"fmt"
)

// Kind classifies an Error. Callers map kinds to their own status codes.
type Kind int

const (
	// KindConfiguration covers invalid mm, dpi or margin values.
	KindConfiguration Kind = iota + 1
	// KindValidation covers request problems found before any I/O.
	KindValidation
	// KindTransport covers open/send/close failures reported by a printer connection.
	KindTransport
	// KindEncoding covers text that cannot be expressed in the restricted charset.
	KindEncoding
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindValidation:
		return "validation"
	case KindTransport:
		return "transport"
	case KindEncoding:
		return "encoding"
	default:
		return "unknown"
	}
}

// Error is the error type returned by the layout and encoding core.
type Error struct {
	Kind Kind
	Op   string // e.g. "mm_to_dots", "plan", "encode"
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error in %s: %s: %v", e.Kind, e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s error in %s: %s", e.Kind, e.Op, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// InvalidDimension is the message used when a length or ratio is not positive.
const InvalidDimension = "invalid dimension"

func ConfigurationError(op, format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func ValidationError(op, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func EncodingError(op, format string, args ...any) *Error {
	return &Error{Kind: KindEncoding, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// TransportError wraps a failure from a printer connection.
func TransportError(op string, err error, format string, args ...any) *Error {
	return &Error{Kind: KindTransport, Op: op, Msg: fmt.Sprintf(format, args...), Err: err}
}

// IsKind reports whether err (or anything it wraps) is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
