package post

import (
	"fmt"

	apperrors "github.com/alexjbarnes/postmatter/internal/errors"
)

// Re-exported so callers of this package need not import internal/errors.
var (
	ErrMissingDelimiter     = apperrors.ErrMissingDelimiter
	ErrMissingRequiredField = apperrors.ErrMissingRequiredField
	ErrMalformedValue       = apperrors.ErrMalformedValue
)

// LoadError describes why a file's front matter was rejected. Kind is
// one of the sentinel errors above and is matched by errors.Is.
type LoadError struct {
	Kind  error
	Field string
	// Line is 1-based within the whole file; 0 when unknown.
	Line int
	Msg  string
	Err  error
}

func (e *LoadError) Error() string {
	msg := e.Kind.Error()
	if e.Field != "" {
		msg += fmt.Sprintf(" %q", e.Field)
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(" at line %d", e.Line)
	}
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindName returns a stable short name for the error kind, used in
// reports and tool output.
func (e *LoadError) KindName() string {
	switch e.Kind {
	case ErrMissingDelimiter:
		return "MissingDelimiter"
	case ErrMissingRequiredField:
		return "MissingRequiredField"
	case ErrMalformedValue:
		return "MalformedValue"
	default:
		return "Unknown"
	}
}
