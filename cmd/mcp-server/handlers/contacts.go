package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/providentiaww/autotask-mcp/internal/autotask"
	"github.com/providentiaww/autotask-mcp/internal/schema"
	"github.com/providentiaww/autotask-mcp/pkg/mcp"
)

// ContactAPI is the slice of the Autotask client the contact tools need.
type ContactAPI interface {
	SearchContacts(ctx context.Context, opts autotask.SearchContactsOptions) ([]autotask.Contact, error)
	CreateContact(ctx context.Context, in autotask.ContactInput) (int64, error)
}

// ContactHandler exposes contact search and create tools.
type ContactHandler struct {
	api    ContactAPI
	logger *zap.Logger
}

func NewContactHandler(api ContactAPI, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{api: api, logger: logger}
}

func (h *ContactHandler) Tools() []mcp.ToolSpec {
	return []mcp.ToolSpec{
		{
			Tool: mcp.Tool{
				Name:        "autotask_search_contacts",
				Description: "Search Autotask contacts by last name, optionally scoped to a company.",
				Annotations: mcp.ReadOnlyAnnotations("Search Contacts"),
			},
			Contract: schema.NewContract(
				schema.SearchText("searchTerm", "Substring to match against contact last names"),
				schema.ID("companyID", "Restrict results to this company"),
				schema.PageSizeStandard(),
			),
			Handler: h.search,
		},
		{
			Tool: mcp.Tool{
				Name:        "autotask_create_contact",
				Description: "Create a new contact under a company.",
				Annotations: mcp.CreateAnnotations("Create Contact"),
			},
			Contract: schema.NewContract(
				schema.ID("companyID", "Company the contact belongs to").Require(),
				schema.String("firstName", "First name").Require().WithLength(1, 50),
				schema.String("lastName", "Last name").Require().WithLength(1, 50),
				schema.Email("emailAddress", "Email address"),
				schema.String("phone", "Phone number").WithLength(1, 25),
			),
			Handler: h.create,
		},
	}
}

func (h *ContactHandler) search(ctx context.Context, args schema.Args) (mcp.ToolResult, error) {
	contacts, err := h.api.SearchContacts(ctx, autotask.SearchContactsOptions{
		SearchTerm: args.String("searchTerm"),
		CompanyID:  int64(args.Int("companyID")),
		PageSize:   args.Int("pageSize"),
	})
	if err != nil {
		return mcp.ToolResult{}, err
	}
	h.logger.Debug("searched contacts", zap.Int("count", len(contacts)))
	return mcp.JSONResult(map[string]any{
		"count":    len(contacts),
		"contacts": contacts,
	}), nil
}

func (h *ContactHandler) create(ctx context.Context, args schema.Args) (mcp.ToolResult, error) {
	id, err := h.api.CreateContact(ctx, autotask.ContactInput{
		CompanyID:    int64(args.Int("companyID")),
		FirstName:    args.String("firstName"),
		LastName:     args.String("lastName"),
		EmailAddress: args.String("emailAddress"),
		Phone:        args.String("phone"),
	})
	if err != nil {
		return mcp.ToolResult{}, err
	}
	return mcp.TextResult(fmt.Sprintf("Created contact %d (%s %s)", id, args.String("firstName"), args.String("lastName"))), nil
}
