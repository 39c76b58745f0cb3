// Package lisperr defines the error kinds the interpreter core surfaces to
// its caller. Every evaluator-facing function that can fail returns a
// *lisperr.Error; panics are reserved for internal/invariant violations,
// which signal bugs in the interpreter itself, plus one user-reachable
// case: the reader aborts on a numeric literal too large for a float64.
package lisperr

import "fmt"

// Kind distinguishes the handful of ways core evaluation can fail.
type Kind int

const (
	// IllegalType is returned for accessor/type mismatches and shape
	// violations, e.g. calling a non-Function or def! with a non-Symbol name.
	IllegalType Kind = iota
	// ArithError is returned for division by zero.
	ArithError
	// FileNotFound is returned when the filesystem collaborator could not
	// open a requested path.
	FileNotFound
	// Unhandled covers an unrecognised callable, a plugin failure, or an
	// allocation failure - anything that doesn't fit the other three kinds.
	Unhandled
)

func (k Kind) String() string {
	switch k {
	case IllegalType:
		return "IllegalType"
	case ArithError:
		return "ArithError"
	case FileNotFound:
		return "FileNotFound"
	case Unhandled:
		return "Unhandled"
	default:
		return "Unknown"
	}
}

// Error is the error type every core operation returns on failure.
type Error struct {
	Kind Kind
	// Op names the operation that failed, e.g. "def!", "aref", "fs-load".
	Op string
	// Err, when non-nil, wraps an underlying stdlib error (e.g. the os.Open
	// failure behind a FileNotFound).
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Op)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a *Error with the same Kind, so callers can
// write errors.Is(err, lisperr.New(lisperr.IllegalType, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs an *Error with no wrapped cause.
func New(kind Kind, op string) *Error {
	return &Error{Kind: kind, Op: op}
}

// Wrap constructs an *Error around an underlying error.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
