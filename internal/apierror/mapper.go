// Package apierror converts downstream Autotask API failures and local
// validation failures into a closed error taxonomy with actionable guidance
// and process-unique correlation ids. Raw transport errors never reach the
// client.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/providentiaww/autotask-mcp/internal/autotask"
)

// Taxonomy codes. The set is closed; new failure modes must be classified
// into one of these before they are surfaced to a client.
const (
	CodeInactiveResource     = "INACTIVE_RESOURCE"
	CodeInvalidStatus        = "INVALID_STATUS"
	CodeInvalidPriority      = "INVALID_PRIORITY"
	CodeMissingRequiredField = "MISSING_REQUIRED_FIELD"
	CodeValidationError      = "VALIDATION_ERROR"
	CodeAuthenticationFailed = "AUTHENTICATION_FAILED"
	CodePermissionDenied     = "PERMISSION_DENIED"
	CodeResourceNotFound     = "RESOURCE_NOT_FOUND"
	CodeMethodNotAllowed     = "METHOD_NOT_ALLOWED"
	CodeConflict             = "CONFLICT"
	CodeServerError          = "AUTOTASK_SERVER_ERROR"
	CodeAutotaskError        = "AUTOTASK_ERROR"
	CodeToolNotFound         = "TOOL_NOT_FOUND"
	CodeError                = "ERROR"
)

// MappedError is the structured failure shape returned to clients.
type MappedError struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	Guidance      string `json:"guidance"`
	CorrelationID string `json:"correlationId"`
}

func (e *MappedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Downstream is the failure shape the Autotask collaborator produces:
// an HTTP-like status (0 when no response was received at all), the payload
// message and an optional payload code.
type Downstream struct {
	Status  int
	Message string
	Code    string
}

// rule is one entry in the classification cascade. Rules are evaluated top
// to bottom and the first match wins.
type rule struct {
	match    func(d Downstream) bool
	code     string
	message  func(d Downstream) string
	guidance func(d Downstream, tool string) string
}

func status(want int) func(Downstream) bool {
	return func(d Downstream) bool { return d.Status == want }
}

func badRequestContains(substr string) func(Downstream) bool {
	return func(d Downstream) bool {
		return d.Status == http.StatusBadRequest &&
			strings.Contains(strings.ToLower(d.Message), substr)
	}
}

func downstreamMessage(fallback string) func(Downstream) string {
	return func(d Downstream) string {
		if d.Message != "" {
			return d.Message
		}
		return fallback
	}
}

// The substring heuristics mirror the wording Autotask currently uses in its
// 400 payloads. They are documented behavior, not a stable contract from the
// upstream service.
var rules = []rule{
	{
		match:   badRequestContains("inactive"),
		code:    CodeInactiveResource,
		message: downstreamMessage("Referenced resource is inactive"),
		guidance: func(Downstream, string) string {
			return "The referenced resource is inactive. Only active resources can be used in this operation."
		},
	},
	{
		match:   badRequestContains("status"),
		code:    CodeInvalidStatus,
		message: downstreamMessage("Invalid status transition"),
		guidance: func(Downstream, string) string {
			return "The requested status value or transition is not allowed. Check the entity's valid status transitions before retrying."
		},
	},
	{
		match:   badRequestContains("priority"),
		code:    CodeInvalidPriority,
		message: downstreamMessage("Invalid priority value"),
		guidance: func(Downstream, string) string {
			return "The priority value is not valid. Use one of the priority values configured in Autotask."
		},
	},
	{
		match:   badRequestContains("required"),
		code:    CodeMissingRequiredField,
		message: downstreamMessage("A required field is missing"),
		guidance: func(d Downstream, _ string) string {
			return "Provide the missing required field: " + d.Message
		},
	},
	{
		match:   status(http.StatusBadRequest),
		code:    CodeValidationError,
		message: downstreamMessage("Autotask rejected the request"),
		guidance: func(Downstream, string) string {
			return "Check that all required fields are present and correctly formatted."
		},
	},
	{
		match:   status(http.StatusUnauthorized),
		code:    CodeAuthenticationFailed,
		message: downstreamMessage("Authentication with the Autotask API failed"),
		guidance: func(Downstream, string) string {
			return "Check the Autotask API credentials and integration code."
		},
	},
	{
		match:   status(http.StatusForbidden),
		code:    CodePermissionDenied,
		message: downstreamMessage("Permission denied by the Autotask API"),
		guidance: func(_ Downstream, tool string) string {
			if tool != "" {
				return fmt.Sprintf("The API user does not have permission to perform %s. Check the security level of the API user.", tool)
			}
			return "The API user does not have permission to perform this operation. Check the security level of the API user."
		},
	},
	{
		match:   status(http.StatusNotFound),
		code:    CodeResourceNotFound,
		message: downstreamMessage("The requested record was not found"),
		guidance: func(_ Downstream, tool string) string {
			if tool != "" {
				return fmt.Sprintf("The requested record was not found. Verify the identifier passed to %s.", tool)
			}
			return "The requested record was not found. Verify the identifier and try again."
		},
	},
	{
		match:   status(http.StatusMethodNotAllowed),
		code:    CodeMethodNotAllowed,
		message: downstreamMessage("Operation not allowed"),
		guidance: func(Downstream, string) string {
			return "The operation is not supported for this entity type."
		},
	},
	{
		match:   status(http.StatusConflict),
		code:    CodeConflict,
		message: downstreamMessage("The record was modified concurrently"),
		guidance: func(Downstream, string) string {
			return "The record was modified by another process. Refresh the record and retry the operation."
		},
	},
	{
		match: func(d Downstream) bool { return d.Status >= 500 },
		code:  CodeServerError,
		message: func(d Downstream) string {
			if d.Message != "" {
				return fmt.Sprintf("Autotask API server error (status %d): %s", d.Status, d.Message)
			}
			return fmt.Sprintf("Autotask API server error (status %d)", d.Status)
		},
		guidance: func(Downstream, string) string {
			return "The Autotask service returned a server error. This is usually transient; retry with backoff."
		},
	},
}

// MapDownstream classifies a downstream failure into the taxonomy. tool is
// the calling tool name, included in guidance where it helps the caller; it
// may be empty. Failures with no usable status (no response at all, or a
// shape the cascade does not recognize) map to the generic AUTOTASK_ERROR.
func MapDownstream(d Downstream, tool string) *MappedError {
	for _, r := range rules {
		if r.match(d) {
			return &MappedError{
				Code:          r.code,
				Message:       r.message(d),
				Guidance:      r.guidance(d, tool),
				CorrelationID: NewCorrelationID(),
			}
		}
	}
	msg := d.Message
	if msg == "" {
		msg = "The request to the Autotask API failed"
	}
	return &MappedError{
		Code:          CodeAutotaskError,
		Message:       msg,
		Guidance:      "The request to the Autotask API failed. Retry the call; if the problem persists check connectivity and the Autotask service status.",
		CorrelationID: NewCorrelationID(),
	}
}

// FromError classifies an arbitrary handler failure. Already-mapped errors
// pass through untouched; *autotask.APIError is unpacked into its downstream
// shape; anything else maps to the generic downstream code.
func FromError(err error, tool string) *MappedError {
	var mapped *MappedError
	if errors.As(err, &mapped) {
		return mapped
	}
	var api *autotask.APIError
	if errors.As(err, &api) {
		return MapDownstream(Downstream{Status: api.Status, Message: api.Message, Code: api.Code}, tool)
	}
	return MapDownstream(Downstream{Message: err.Error()}, tool)
}

// MapValidationErrors folds business-rule validation messages produced inside
// a handler into a single VALIDATION_ERROR. The messages are preserved in
// order, joined with '|'. An empty slice yields an empty guidance string.
func MapValidationErrors(msgs []string) *MappedError {
	return &MappedError{
		Code:          CodeValidationError,
		Message:       "Request validation failed",
		Guidance:      strings.Join(msgs, "|"),
		CorrelationID: NewCorrelationID(),
	}
}

// New builds a MappedError from an arbitrary message for failures that fit
// nowhere else in the taxonomy. The optional code defaults to ERROR.
func New(message string, code ...string) *MappedError {
	c := CodeError
	if len(code) > 0 && code[0] != "" {
		c = code[0]
	}
	return &MappedError{
		Code:          c,
		Message:       message,
		Guidance:      "See the error message for details.",
		CorrelationID: NewCorrelationID(),
	}
}

// NewToolNotFound is the terminal error for an unresolvable tool name.
func NewToolNotFound(name string) *MappedError {
	return &MappedError{
		Code:          CodeToolNotFound,
		Message:       fmt.Sprintf("Unknown tool: %s", name),
		Guidance:      "Use tools/list to discover the available tools and check the tool name for typos.",
		CorrelationID: NewCorrelationID(),
	}
}
