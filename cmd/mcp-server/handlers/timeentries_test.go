package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/providentiaww/autotask-mcp/internal/autotask"
	"github.com/providentiaww/autotask-mcp/pkg/mcp"
)

type fakeTimeEntryAPI struct {
	createdInput autotask.TimeEntryInput
	createID     int64
}

func (f *fakeTimeEntryAPI) CreateTimeEntry(_ context.Context, in autotask.TimeEntryInput) (int64, error) {
	f.createdInput = in
	return f.createID, nil
}

func registerTimeEntryTools(t *testing.T, api TimeEntryAPI) *mcp.Server {
	t.Helper()
	server := mcp.NewServer("autotask-mcp", "test", zap.NewNop())
	for _, spec := range NewTimeEntryHandler(api, zap.NewNop()).Tools() {
		require.NoError(t, server.RegisterTool(spec))
	}
	return server
}

func TestCreateTimeEntryTool(t *testing.T) {
	api := &fakeTimeEntryAPI{createID: 555}
	server := registerTimeEntryTools(t, api)

	result := server.CallTool(context.Background(), mcp.ToolCall{
		Name: "autotask_create_time_entry",
		Arguments: map[string]any{
			"ticketID":     float64(42),
			"dateWorked":   "2026-08-24",
			"hoursWorked":  2.5,
			"summaryNotes": "Replaced the fuser unit",
		},
	})
	require.False(t, result.IsError)
	assert.Equal(t, int64(42), api.createdInput.TicketID)
	assert.Equal(t, "2026-08-24", api.createdInput.DateWorked)
	assert.Equal(t, 2.5, api.createdInput.HoursWorked)
}

func TestCreateTimeEntryHoursBounds(t *testing.T) {
	api := &fakeTimeEntryAPI{}
	server := registerTimeEntryTools(t, api)

	call := func(hours float64) mcp.ToolResult {
		return server.CallTool(context.Background(), mcp.ToolCall{
			Name: "autotask_create_time_entry",
			Arguments: map[string]any{
				"ticketID":     float64(42),
				"dateWorked":   "2026-08-24",
				"hoursWorked":  hours,
				"summaryNotes": "work",
			},
		})
	}

	assert.False(t, call(0.25).IsError)
	assert.False(t, call(24).IsError)
	assert.True(t, call(0.1).IsError)
	assert.True(t, call(24.5).IsError)
}

func TestCreateTimeEntryRequiresSummary(t *testing.T) {
	server := registerTimeEntryTools(t, &fakeTimeEntryAPI{})

	result := server.CallTool(context.Background(), mcp.ToolCall{
		Name: "autotask_create_time_entry",
		Arguments: map[string]any{
			"ticketID":    float64(42),
			"dateWorked":  "2026-08-24",
			"hoursWorked": 1.0,
		},
	})
	require.True(t, result.IsError)
	assert.Contains(t, result.Content[0].Text, "summaryNotes")
}
