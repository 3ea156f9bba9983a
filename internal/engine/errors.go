// Package engine holds the shared error taxonomy for the pure scoring
// components. Every engine entry point surfaces typed failures; the
// calling boundary decides whether to substitute fallback values.
package engine

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine failures so callers can choose a fallback
// policy per kind.
type ErrorKind string

const (
	// KindInsufficientData marks missing or empty inputs the engine
	// refuses to guess around: empty element lists, missing primary
	// element, missing coordinates.
	KindInsufficientData ErrorKind = "insufficient-data"

	// KindUnresolvableNavigation marks a CTA target that cannot be
	// followed (cross-domain or missing href). It carries a reason
	// string rather than halting the whole analysis.
	KindUnresolvableNavigation ErrorKind = "unresolvable-navigation"

	// KindInvalidInput marks context or parameters that are malformed
	// beyond what boundary clamping can repair.
	KindInvalidInput ErrorKind = "invalid-input"
)

// Error is the typed failure returned by engine entry points.
type Error struct {
	Kind   ErrorKind
	Op     string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Reason)
}

// InsufficientData builds an insufficient-data error for the given operation.
func InsufficientData(op, reason string) *Error {
	return &Error{Kind: KindInsufficientData, Op: op, Reason: reason}
}

// UnresolvableNavigation builds an unresolvable-navigation error.
func UnresolvableNavigation(op, reason string) *Error {
	return &Error{Kind: KindUnresolvableNavigation, Op: op, Reason: reason}
}

// InvalidInput builds an invalid-input error.
func InvalidInput(op, reason string) *Error {
	return &Error{Kind: KindInvalidInput, Op: op, Reason: reason}
}

// KindOf extracts the ErrorKind from err, or "" when err is not an
// engine error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is an engine error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
