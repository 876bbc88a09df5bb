package errorx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	apperr "github.com/amoylab/taskflow/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryValidation     ErrorCategory = "validation"
	CategoryAuthentication ErrorCategory = "authentication"
	CategoryAuthorization  ErrorCategory = "authorization"
	CategoryNotFound       ErrorCategory = "not_found"
	CategoryConflict       ErrorCategory = "conflict"
	CategoryInternal       ErrorCategory = "internal"
)

// Severity represents the severity level of an error
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// APIError is the JSON error body of the API
type APIError struct {
	Code       string         `json:"code"`
	Kind       apperr.Kind    `json:"kind"`
	Message    string         `json:"message"`
	Reason     string         `json:"reason,omitempty"`
	Category   ErrorCategory  `json:"category"`
	Severity   Severity       `json:"severity"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	TraceID    string         `json:"trace_id,omitempty"`
	Timestamp  string         `json:"timestamp,omitempty"`

	// messageID is the translation key of Message
	messageID string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Category, e.Message)
}

// JSON returns the error as a JSON string
func (e *APIError) JSON() string {
	out, _ := json.Marshal(e)
	return string(out)
}

// WithDetail adds a detail to the error
func (e *APIError) WithDetail(key string, value any) *APIError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// MessageID returns the translation key of the message
func (e *APIError) MessageID() string {
	return e.messageID
}

type kindInfo struct {
	code      string
	category  ErrorCategory
	severity  Severity
	status    int
	messageID string
}

// Codes: E1xxx validation, E2xxx authentication, E3xxx authorization,
// E4xxx lookup and conflicts, E5xxx internal.
var kinds = map[apperr.Kind]kindInfo{
	apperr.KindValidationFailed:    {"E1001", CategoryValidation, SeverityInfo, http.StatusBadRequest, "ErrorValidationFailed"},
	apperr.KindUnauthenticated:     {"E2001", CategoryAuthentication, SeverityInfo, http.StatusUnauthorized, "ErrorUnauthenticated"},
	apperr.KindForbidden:           {"E3001", CategoryAuthorization, SeverityWarning, http.StatusForbidden, "ErrorForbidden"},
	apperr.KindNotFound:            {"E4001", CategoryNotFound, SeverityInfo, http.StatusNotFound, "ErrorNotFound"},
	apperr.KindConflict:            {"E4002", CategoryConflict, SeverityInfo, http.StatusConflict, "ErrorConflict"},
	apperr.KindAllocationExhausted: {"E5002", CategoryInternal, SeverityCritical, http.StatusInternalServerError, "ErrorAllocationExhausted"},
	apperr.KindInternal:            {"E5001", CategoryInternal, SeverityError, http.StatusInternalServerError, "ErrorInternal"},
}

var malformedRequest = kindInfo{"E1002", CategoryValidation, SeverityInfo, http.StatusBadRequest, "ErrorMalformedRequest"}

var errPanic = kindInfo{"E5000", CategoryInternal, SeverityCritical, http.StatusInternalServerError, "ErrorInternal"}

func (k kindInfo) build(kind apperr.Kind, reason string, details map[string]any) *APIError {
	return &APIError{
		Code:       k.code,
		Kind:       kind,
		Message:    k.messageID,
		Reason:     reason,
		Category:   k.category,
		Severity:   k.severity,
		HTTPStatus: k.status,
		Details:    details,
		messageID:  k.messageID,
	}
}

// FromError maps any error onto an APIError. Message holds the translation
// key until Localize runs; Reason carries the untranslated domain message.
// Internal causes never reach the response body.
func FromError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	kind := apperr.KindOf(err)
	info, ok := kinds[kind]
	if !ok {
		kind, info = apperr.KindInternal, kinds[apperr.KindInternal]
	}
	if kind == apperr.KindInternal {
		return info.build(kind, "", nil)
	}
	return info.build(kind, err.Error(), copyDetails(apperr.DetailsOf(err)))
}

// Malformed builds the error for a request body or query that cannot be bound
func Malformed(err error) *APIError {
	return malformedRequest.build(apperr.KindValidationFailed, err.Error(), nil)
}

func copyDetails(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
