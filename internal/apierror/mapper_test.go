package apierror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/providentiaww/autotask-mcp/internal/autotask"
)

func TestMapDownstreamTaxonomy(t *testing.T) {
	tests := []struct {
		name     string
		in       Downstream
		wantCode string
	}{
		{"inactive resource", Downstream{Status: 400, Message: "Company is an inactive resource"}, CodeInactiveResource},
		{"invalid status", Downstream{Status: 400, Message: "Invalid status transition from 5 to 1"}, CodeInvalidStatus},
		{"invalid priority", Downstream{Status: 400, Message: "Priority 99 is not valid"}, CodeInvalidPriority},
		{"missing required field", Downstream{Status: 400, Message: "Field companyID is required"}, CodeMissingRequiredField},
		{"generic 400", Downstream{Status: 400, Message: "something else"}, CodeValidationError},
		{"unauthorized", Downstream{Status: 401}, CodeAuthenticationFailed},
		{"forbidden", Downstream{Status: 403}, CodePermissionDenied},
		{"not found", Downstream{Status: 404, Message: "Ticket 12345 not found"}, CodeResourceNotFound},
		{"method not allowed", Downstream{Status: 405}, CodeMethodNotAllowed},
		{"conflict", Downstream{Status: 409}, CodeConflict},
		{"server error", Downstream{Status: 500, Message: "boom"}, CodeServerError},
		{"bad gateway", Downstream{Status: 502}, CodeServerError},
		{"no response", Downstream{Message: "connection refused"}, CodeAutotaskError},
		{"unrecognized status", Downstream{Status: 418}, CodeAutotaskError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapDownstream(tt.in, "")
			assert.Equal(t, tt.wantCode, got.Code)
			assert.NotEmpty(t, got.Message)
			assert.NotEmpty(t, got.Guidance)
			assert.NotEmpty(t, got.CorrelationID)
		})
	}
}

func TestMapDownstreamNotFoundIncludesContext(t *testing.T) {
	got := MapDownstream(Downstream{Status: 404, Message: "Ticket 12345 not found"}, "autotask_get_ticket_details")
	assert.Equal(t, CodeResourceNotFound, got.Code)
	assert.Contains(t, got.Message, "Ticket 12345")
	assert.Contains(t, got.Guidance, "autotask_get_ticket_details")
}

func TestMapDownstreamConflictGuidance(t *testing.T) {
	got := MapDownstream(Downstream{Status: 409}, "")
	assert.Equal(t, CodeConflict, got.Code)
	assert.Contains(t, got.Guidance, "modified")
	assert.Contains(t, got.Guidance, "Refresh")
}

func TestMapDownstreamServerErrorIncludesStatus(t *testing.T) {
	got := MapDownstream(Downstream{Status: 503, Message: "unavailable"}, "")
	assert.Equal(t, CodeServerError, got.Code)
	assert.Contains(t, got.Message, "503")
	assert.Contains(t, got.Guidance, "retry")
}

func TestMapDownstreamHeuristicPrecedence(t *testing.T) {
	// "inactive" outranks "status" when both substrings are present.
	got := MapDownstream(Downstream{Status: 400, Message: "cannot change status of inactive ticket"}, "")
	assert.Equal(t, CodeInactiveResource, got.Code)
}

func TestMapValidationErrors(t *testing.T) {
	empty := MapValidationErrors(nil)
	assert.Equal(t, CodeValidationError, empty.Code)
	assert.Equal(t, "Request validation failed", empty.Message)
	assert.Empty(t, empty.Guidance)

	joined := MapValidationErrors([]string{"A", "B"})
	assert.Equal(t, "A|B", joined.Guidance)
}

func TestNewDefaultsToErrorCode(t *testing.T) {
	assert.Equal(t, CodeError, New("something broke").Code)
	assert.Equal(t, "CUSTOM", New("something broke", "CUSTOM").Code)
}

func TestFromError(t *testing.T) {
	mapped := New("already mapped")
	assert.Same(t, mapped, FromError(mapped, ""))

	apiErr := &autotask.APIError{Status: 404, Message: "Company 7 not found"}
	got := FromError(fmt.Errorf("searching: %w", apiErr), "autotask_search_companies")
	require.Equal(t, CodeResourceNotFound, got.Code)
	assert.Contains(t, got.Message, "Company 7")

	plain := FromError(errors.New("dial tcp: timeout"), "")
	assert.Equal(t, CodeAutotaskError, plain.Code)
}
