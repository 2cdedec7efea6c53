package huffpack

import (
	"github.com/pkg/errors"
)

// ErrorKind describes which category of failure an Error belongs to.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindIO
	KindEmptyInput
	KindCodeTooLong
	KindMalformedHeader
	KindUnexpectedEnd
	KindInvalidCode
)

var kindNames = [...]string{
	KindUnknown:         "unknown error",
	KindIO:              "I/O error",
	KindEmptyInput:      "empty input",
	KindCodeTooLong:     "code too long",
	KindMalformedHeader: "malformed header",
	KindUnexpectedEnd:   "unexpected end of data",
	KindInvalidCode:     "invalid code",
}

// String returns a short human-readable name for this kind.
func (kind ErrorKind) String() string {
	if kind < 0 || int(kind) >= len(kindNames) {
		return kindNames[KindUnknown]
	}
	return kindNames[kind]
}

// Error is the error type returned by every operation in this package.  Op
// names the step that failed and may be empty; Err is the underlying cause
// and may be nil.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// Sentinel values for use with errors.Is.  An *Error matches the sentinel
// with the same Kind, regardless of Op or Err.
var (
	ErrIO              = &Error{Kind: KindIO}
	ErrEmptyInput      = &Error{Kind: KindEmptyInput}
	ErrCodeTooLong     = &Error{Kind: KindCodeTooLong}
	ErrMalformedHeader = &Error{Kind: KindMalformedHeader}
	ErrUnexpectedEnd   = &Error{Kind: KindUnexpectedEnd}
	ErrInvalidCode     = &Error{Kind: KindInvalidCode}
)

var errAlreadyClosed = errors.New("already closed")

func (e *Error) Error() string {
	str := "huffpack: "
	if e.Op != "" {
		str += e.Op + ": "
	}
	str += e.Kind.String()
	if e.Err != nil {
		str += ": " + e.Err.Error()
	}
	return str
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func ioError(op string, err error) error {
	return &Error{Kind: KindIO, Op: op, Err: errors.WithStack(err)}
}

func kindError(kind ErrorKind, op string, format string, args ...interface{}) error {
	return &Error{Kind: kind, Op: op, Err: errors.Errorf(format, args...)}
}

var _ error = (*Error)(nil)
