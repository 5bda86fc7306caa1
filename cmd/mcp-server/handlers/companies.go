// Package handlers defines the Autotask entity tools: their published
// definitions, input contracts and execution against the downstream API.
// Handlers accept narrow client interfaces so tests can substitute fakes.
package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/providentiaww/autotask-mcp/internal/autotask"
	"github.com/providentiaww/autotask-mcp/internal/schema"
	"github.com/providentiaww/autotask-mcp/pkg/mcp"
)

// CompanyAPI is the slice of the Autotask client the company tools need.
type CompanyAPI interface {
	SearchCompanies(ctx context.Context, opts autotask.SearchCompaniesOptions) ([]autotask.Company, error)
	CreateCompany(ctx context.Context, in autotask.CompanyInput) (int64, error)
	UpdateCompany(ctx context.Context, id int64, fields map[string]any) error
}

// CompanyHandler exposes company search, create and update tools.
type CompanyHandler struct {
	api    CompanyAPI
	logger *zap.Logger
}

func NewCompanyHandler(api CompanyAPI, logger *zap.Logger) *CompanyHandler {
	return &CompanyHandler{api: api, logger: logger}
}

// Tools returns the company tool specs for registration.
func (h *CompanyHandler) Tools() []mcp.ToolSpec {
	return []mcp.ToolSpec{
		{
			Tool: mcp.Tool{
				Name:        "autotask_search_companies",
				Description: "Search Autotask companies by name. Returns active companies unless includeInactive is set.",
				Annotations: mcp.ReadOnlyAnnotations("Search Companies"),
			},
			Contract: schema.NewContract(
				schema.SearchText("searchTerm", "Substring to match against company names"),
				schema.Bool("includeInactive", "Include inactive companies in the results").WithDefault(false),
				schema.PageSizeStandard(),
			),
			Handler: h.search,
		},
		{
			Tool: mcp.Tool{
				Name:        "autotask_create_company",
				Description: "Create a new company in Autotask.",
				Annotations: mcp.CreateAnnotations("Create Company"),
			},
			Contract: schema.NewContract(
				schema.String("companyName", "Company name").Require().WithLength(1, 100),
				schema.Int("companyType", "Company type (1=Customer, 2=Lead, 3=Prospect, 4=Dead, 6=Cancellation, 7=Vendor)").
					Require().WithRange(1, 7),
				schema.String("phone", "Main phone number").WithLength(1, 25),
				schema.ID("ownerResourceID", "Resource ID of the account owner"),
			),
			Handler: h.create,
		},
		{
			Tool: mcp.Tool{
				Name:        "autotask_update_company",
				Description: "Update fields on an existing company. At least one field besides the id must be supplied.",
				Annotations: mcp.UpdateAnnotations("Update Company"),
			},
			Contract: schema.NewContract(
				schema.ID("id", "Company ID to update").Require(),
				schema.String("companyName", "New company name").WithLength(1, 100),
				schema.String("phone", "New phone number").WithLength(1, 25),
				schema.String("webAddress", "New web address").WithLength(1, 255),
				schema.Bool("isActive", "Whether the company is active"),
			).WithRule(schema.RequireAnyExcept("id")),
			Handler: h.update,
		},
	}
}

func (h *CompanyHandler) search(ctx context.Context, args schema.Args) (mcp.ToolResult, error) {
	companies, err := h.api.SearchCompanies(ctx, autotask.SearchCompaniesOptions{
		SearchTerm:      args.String("searchTerm"),
		IncludeInactive: args.Bool("includeInactive"),
		PageSize:        args.Int("pageSize"),
	})
	if err != nil {
		return mcp.ToolResult{}, err
	}
	h.logger.Debug("searched companies", zap.Int("count", len(companies)))
	return mcp.JSONResult(map[string]any{
		"count":     len(companies),
		"companies": companies,
	}), nil
}

func (h *CompanyHandler) create(ctx context.Context, args schema.Args) (mcp.ToolResult, error) {
	id, err := h.api.CreateCompany(ctx, autotask.CompanyInput{
		CompanyName:     args.String("companyName"),
		CompanyType:     args.Int("companyType"),
		Phone:           args.String("phone"),
		OwnerResourceID: int64(args.Int("ownerResourceID")),
	})
	if err != nil {
		return mcp.ToolResult{}, err
	}
	return mcp.TextResult(fmt.Sprintf("Created company %d (%s)", id, args.String("companyName"))), nil
}

func (h *CompanyHandler) update(ctx context.Context, args schema.Args) (mcp.ToolResult, error) {
	id := int64(args.Int("id"))
	fields := make(map[string]any)
	for _, name := range []string{"companyName", "phone", "webAddress", "isActive"} {
		if args.Has(name) {
			fields[name] = args[name]
		}
	}
	if err := h.api.UpdateCompany(ctx, id, fields); err != nil {
		return mcp.ToolResult{}, err
	}
	return mcp.TextResult(fmt.Sprintf("Updated company %d (%d field(s))", id, len(fields))), nil
}
