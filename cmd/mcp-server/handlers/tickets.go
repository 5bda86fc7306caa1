package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/providentiaww/autotask-mcp/internal/autotask"
	"github.com/providentiaww/autotask-mcp/internal/schema"
	"github.com/providentiaww/autotask-mcp/pkg/mcp"
)

// TicketAPI is the slice of the Autotask client the ticket tools need.
type TicketAPI interface {
	SearchTickets(ctx context.Context, opts autotask.SearchTicketsOptions) ([]autotask.Ticket, error)
	GetTicket(ctx context.Context, id int64) (*autotask.Ticket, error)
	CreateTicket(ctx context.Context, in autotask.TicketInput) (int64, error)
	UpdateTicket(ctx context.Context, id int64, fields map[string]any) error
}

// TicketHandler exposes ticket search, detail, create and update tools.
type TicketHandler struct {
	api    TicketAPI
	logger *zap.Logger
}

func NewTicketHandler(api TicketAPI, logger *zap.Logger) *TicketHandler {
	return &TicketHandler{api: api, logger: logger}
}

func (h *TicketHandler) Tools() []mcp.ToolSpec {
	return []mcp.ToolSpec{
		{
			Tool: mcp.Tool{
				Name:        "autotask_search_tickets",
				Description: "Search Autotask tickets by title, optionally filtered by company and status. Ticket payloads are large, so page sizes are capped lower than other entities.",
				Annotations: mcp.ReadOnlyAnnotations("Search Tickets"),
			},
			Contract: schema.NewContract(
				schema.SearchText("searchTerm", "Substring to match against ticket titles"),
				schema.ID("companyID", "Restrict results to this company"),
				schema.ID("status", "Restrict results to this status value"),
				schema.PageSizeCompact(),
			),
			Handler: h.search,
		},
		{
			Tool: mcp.Tool{
				Name:        "autotask_get_ticket_details",
				Description: "Fetch a single ticket by ID, including its full description.",
				Annotations: mcp.ReadOnlyAnnotations("Get Ticket Details"),
			},
			Contract: schema.NewContract(
				schema.ID("ticketID", "Ticket ID to fetch").Require(),
			),
			Handler: h.get,
		},
		{
			Tool: mcp.Tool{
				Name:        "autotask_create_ticket",
				Description: "Create a new service desk ticket.",
				Annotations: mcp.CreateAnnotations("Create Ticket"),
			},
			Contract: schema.NewContract(
				schema.ID("companyID", "Company the ticket belongs to").Require(),
				schema.String("title", "Ticket title").Require().WithLength(1, 255),
				schema.String("description", "Ticket description").Require().WithLength(1, 8000),
				schema.ID("status", "Initial status value").WithDefault(1),
				schema.ID("priority", "Priority value"),
				schema.ID("queueID", "Queue to place the ticket in"),
				schema.DateString("dueDate", "Due date (YYYY-MM-DD)"),
			),
			Handler: h.create,
		},
		{
			Tool: mcp.Tool{
				Name:        "autotask_update_ticket",
				Description: "Update fields on an existing ticket. At least one field besides the id must be supplied.",
				Annotations: mcp.UpdateAnnotations("Update Ticket"),
			},
			Contract: schema.NewContract(
				schema.ID("id", "Ticket ID to update").Require(),
				schema.String("title", "New title").WithLength(1, 255),
				schema.String("description", "New description").WithLength(1, 8000),
				schema.ID("status", "New status value"),
				schema.ID("priority", "New priority value"),
				schema.ID("assignedResourceID", "Resource to assign the ticket to"),
			).WithRule(schema.RequireAnyExcept("id")),
			Handler: h.update,
		},
	}
}

func (h *TicketHandler) search(ctx context.Context, args schema.Args) (mcp.ToolResult, error) {
	tickets, err := h.api.SearchTickets(ctx, autotask.SearchTicketsOptions{
		SearchTerm: args.String("searchTerm"),
		CompanyID:  int64(args.Int("companyID")),
		Status:     args.Int("status"),
		PageSize:   args.Int("pageSize"),
	})
	if err != nil {
		return mcp.ToolResult{}, err
	}
	h.logger.Debug("searched tickets", zap.Int("count", len(tickets)))
	// Strip descriptions from search results; the details tool returns them.
	for i := range tickets {
		tickets[i].Description = ""
	}
	return mcp.JSONResult(map[string]any{
		"count":   len(tickets),
		"tickets": tickets,
	}), nil
}

func (h *TicketHandler) get(ctx context.Context, args schema.Args) (mcp.ToolResult, error) {
	ticket, err := h.api.GetTicket(ctx, int64(args.Int("ticketID")))
	if err != nil {
		return mcp.ToolResult{}, err
	}
	return mcp.JSONResult(ticket), nil
}

func (h *TicketHandler) create(ctx context.Context, args schema.Args) (mcp.ToolResult, error) {
	in := autotask.TicketInput{
		CompanyID:   int64(args.Int("companyID")),
		Title:       args.String("title"),
		Description: args.String("description"),
		Status:      args.Int("status"),
		Priority:    args.Int("priority"),
		QueueID:     int64(args.Int("queueID")),
	}
	if due := args.String("dueDate"); due != "" {
		in.DueDateTime = due + "T00:00:00"
	}
	id, err := h.api.CreateTicket(ctx, in)
	if err != nil {
		return mcp.ToolResult{}, err
	}
	return mcp.TextResult(fmt.Sprintf("Created ticket %d (%s)", id, args.String("title"))), nil
}

func (h *TicketHandler) update(ctx context.Context, args schema.Args) (mcp.ToolResult, error) {
	id := int64(args.Int("id"))
	fields := make(map[string]any)
	for _, name := range []string{"title", "description", "status", "priority", "assignedResourceID"} {
		if args.Has(name) {
			fields[name] = args[name]
		}
	}
	if err := h.api.UpdateTicket(ctx, id, fields); err != nil {
		return mcp.ToolResult{}, err
	}
	return mcp.TextResult(fmt.Sprintf("Updated ticket %d (%d field(s))", id, len(fields))), nil
}
