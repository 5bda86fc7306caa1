package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/providentiaww/autotask-mcp/internal/autotask"
	"github.com/providentiaww/autotask-mcp/internal/schema"
	"github.com/providentiaww/autotask-mcp/pkg/mcp"
)

// TimeEntryAPI is the slice of the Autotask client the time entry tool needs.
type TimeEntryAPI interface {
	CreateTimeEntry(ctx context.Context, in autotask.TimeEntryInput) (int64, error)
}

// TimeEntryHandler exposes the time entry creation tool.
type TimeEntryHandler struct {
	api    TimeEntryAPI
	logger *zap.Logger
}

func NewTimeEntryHandler(api TimeEntryAPI, logger *zap.Logger) *TimeEntryHandler {
	return &TimeEntryHandler{api: api, logger: logger}
}

func (h *TimeEntryHandler) Tools() []mcp.ToolSpec {
	return []mcp.ToolSpec{
		{
			Tool: mcp.Tool{
				Name:        "autotask_create_time_entry",
				Description: "Log worked time against a ticket.",
				Annotations: mcp.CreateAnnotations("Create Time Entry"),
			},
			Contract: schema.NewContract(
				schema.ID("ticketID", "Ticket the time was worked on").Require(),
				schema.ID("resourceID", "Resource who worked the time (defaults to the API user)"),
				schema.DateString("dateWorked", "Date the time was worked (YYYY-MM-DD)").Require(),
				schema.Number("hoursWorked", "Hours worked, up to 24").Require().WithRange(0.25, 24),
				schema.String("summaryNotes", "Summary of the work performed").Require().WithLength(1, 8000),
			),
			Handler: h.create,
		},
	}
}

func (h *TimeEntryHandler) create(ctx context.Context, args schema.Args) (mcp.ToolResult, error) {
	id, err := h.api.CreateTimeEntry(ctx, autotask.TimeEntryInput{
		TicketID:     int64(args.Int("ticketID")),
		ResourceID:   int64(args.Int("resourceID")),
		DateWorked:   args.String("dateWorked"),
		HoursWorked:  args.Float("hoursWorked"),
		SummaryNotes: args.String("summaryNotes"),
	})
	if err != nil {
		return mcp.ToolResult{}, err
	}
	h.logger.Debug("created time entry", zap.Int64("id", id))
	return mcp.TextResult(fmt.Sprintf("Created time entry %d (%.2f hours on ticket %d)",
		id, args.Float("hoursWorked"), args.Int("ticketID"))), nil
}
