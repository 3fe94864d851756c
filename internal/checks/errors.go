package checks

import "fmt"

// Kind classifies check failures. Keep these values stable; the API returns them.
type Kind string

const (
	KindNoResults                Kind = "NO_RESULTS_AVAILABLE"
	KindPrerequisiteMissing      Kind = "PREREQUISITE_MISSING"
	KindInvalidArgument          Kind = "INVALID_ARGUMENT"
	KindFatalConstraintViolation Kind = "FATAL_CONSTRAINT_VIOLATION"
)

// Error is returned by every check. Match it with errors.Is against the
// sentinels below or with errors.As to read the message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrNoResults                = &Error{Kind: KindNoResults, Message: "no power flow results available"}
	ErrPrerequisiteMissing      = &Error{Kind: KindPrerequisiteMissing, Message: "prerequisite missing"}
	ErrInvalidArgument          = &Error{Kind: KindInvalidArgument, Message: "invalid argument"}
	ErrFatalConstraintViolation = &Error{Kind: KindFatalConstraintViolation, Message: "fatal constraint violation"}
)

func newError(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func errNoResults(what string) error {
	return newError(KindNoResults, "no power flow results to check %s for, please perform power flow analysis first", what)
}
