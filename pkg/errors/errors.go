package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies an error into one of the caller-visible outcomes.
type Kind string

const (
	KindUnauthenticated     Kind = "unauthenticated"
	KindForbidden           Kind = "forbidden"
	KindNotFound            Kind = "not_found"
	KindValidationFailed    Kind = "validation_failed"
	KindConflict            Kind = "conflict"
	KindAllocationExhausted Kind = "allocation_exhausted"
	KindInternal            Kind = "internal"
)

// Error is a classified error carrying optional details about the offending input
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target is an *Error of the same kind, so that
// errors.Is(err, ErrNotFound) matches every not-found error.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// WithDetail returns a copy of the error with the given detail attached
func (e *Error) WithDetail(key string, value any) *Error {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &Error{Kind: e.Kind, Message: e.Message, Details: details}
}

var (
	// ErrUnauthenticated is returned when no valid identity proof is present
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated, Message: "unauthenticated"}
	// ErrForbidden is returned when the authorization policy denies an action
	ErrForbidden = &Error{Kind: KindForbidden, Message: "forbidden"}
	// ErrNotFound is returned for unknown resources and malformed task codes
	ErrNotFound = &Error{Kind: KindNotFound, Message: "not found"}
	// ErrValidationFailed is returned for rejected input
	ErrValidationFailed = &Error{Kind: KindValidationFailed, Message: "validation failed"}
	// ErrConflict is returned when a unique key already exists
	ErrConflict = &Error{Kind: KindConflict, Message: "conflict"}
	// ErrAllocationExhausted is returned when the task number space is used up
	ErrAllocationExhausted = &Error{Kind: KindAllocationExhausted, Message: "task identifier space exhausted"}
)

// KindOf returns the kind of err, or KindInternal for unclassified errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// DetailsOf returns the details attached to a classified error
func DetailsOf(err error) map[string]any {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return nil
}

// Forbidden returns a forbidden error with a reason
func Forbidden(reason string) error {
	return &Error{Kind: KindForbidden, Message: "forbidden: " + reason}
}

// NotFound returns a not found error for a resource
func NotFound(resource string, identifier any) error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Details: map[string]any{"resource": resource, "identifier": fmt.Sprint(identifier)},
	}
}

// Invalid returns a validation error for a single field
func Invalid(field, reason string) error {
	return &Error{
		Kind:    KindValidationFailed,
		Message: fmt.Sprintf("invalid %s: %s", field, reason),
		Details: map[string]any{"field": field, "reason": reason},
	}
}

// UnknownAssignees reports every assignee id that does not exist
func UnknownAssignees(ids []uint) error {
	sorted := append([]uint(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return &Error{
		Kind:    KindValidationFailed,
		Message: fmt.Sprintf("unknown user ids: %v", sorted),
		Details: map[string]any{"missing_user_ids": sorted},
	}
}

// UnknownCategory reports a category name that is not defined for a company
func UnknownCategory(companySlug, name string) error {
	return &Error{
		Kind:    KindValidationFailed,
		Message: fmt.Sprintf("unknown category %q for company %q", name, companySlug),
		Details: map[string]any{"category": name, "company": companySlug},
	}
}

// UnknownCompanies reports every company slug that does not exist
func UnknownCompanies(slugs []string) error {
	sorted := append([]string(nil), slugs...)
	sort.Strings(sorted)
	return &Error{
		Kind:    KindValidationFailed,
		Message: "unknown company slugs: " + strings.Join(sorted, ", "),
		Details: map[string]any{"missing_company_slugs": sorted},
	}
}

// Conflict returns a conflict error for a duplicated unique key
func Conflict(what string) error {
	return &Error{
		Kind:    KindConflict,
		Message: what + " already exists",
		Details: map[string]any{"resource": what},
	}
}
