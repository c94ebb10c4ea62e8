package messagelist

import (
	"errors"
	"fmt"

	"github.com/vivek100/mastra-subAgentStreaming-sub000/runtime/messages"
)

// ValidationErrorKind classifies caller-input failures into a small set of
// categories suitable for error handling and UX decisions.
type ValidationErrorKind string

const (
	// KindEmptyContent indicates a message with neither content nor parts.
	KindEmptyContent ValidationErrorKind = "empty_content"

	// KindThreadMismatch indicates a message whose threadId conflicts with the
	// list's bound thread.
	KindThreadMismatch ValidationErrorKind = "thread_mismatch"

	// KindResourceMismatch indicates a message whose resourceId conflicts with
	// the list's bound resource.
	KindResourceMismatch ValidationErrorKind = "resource_mismatch"

	// KindUnsupportedInput indicates an input value of a type the engine
	// cannot classify into any dialect.
	KindUnsupportedInput ValidationErrorKind = "unsupported_input"
)

// ValidationError describes a caller-input failure raised synchronously by
// Add. It carries a machine-readable kind plus the role and source context of
// the offending message. These errors indicate a caller bug and are never
// swallowed.
type ValidationError struct {
	kind    ValidationErrorKind
	role    messages.Role
	source  Source
	message string
}

func newValidationError(kind ValidationErrorKind, role messages.Role, source Source, format string, args ...any) *ValidationError {
	return &ValidationError{
		kind:    kind,
		role:    role,
		source:  source,
		message: fmt.Sprintf(format, args...),
	}
}

// Kind returns the machine-readable error category.
func (e *ValidationError) Kind() ValidationErrorKind { return e.kind }

// Role returns the role of the offending message when known.
func (e *ValidationError) Role() messages.Role { return e.role }

// Source returns the ingestion source of the offending message.
func (e *ValidationError) Source() Source { return e.source }

func (e *ValidationError) Error() string {
	return fmt.Sprintf("messagelist: %s (role=%s source=%s): %s", e.kind, e.role, e.source, e.message)
}

// AsValidationError returns the first ValidationError in err's chain, if any.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
