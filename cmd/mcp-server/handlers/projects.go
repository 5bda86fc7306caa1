package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/providentiaww/autotask-mcp/internal/autotask"
	"github.com/providentiaww/autotask-mcp/internal/schema"
	"github.com/providentiaww/autotask-mcp/pkg/mcp"
)

// ProjectAPI is the slice of the Autotask client the project tools need.
type ProjectAPI interface {
	SearchProjects(ctx context.Context, opts autotask.SearchProjectsOptions) ([]autotask.Project, error)
}

// ProjectHandler exposes the project search tool.
type ProjectHandler struct {
	api    ProjectAPI
	logger *zap.Logger
}

func NewProjectHandler(api ProjectAPI, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{api: api, logger: logger}
}

func (h *ProjectHandler) Tools() []mcp.ToolSpec {
	return []mcp.ToolSpec{
		{
			Tool: mcp.Tool{
				Name:        "autotask_search_projects",
				Description: "Search Autotask projects by name, optionally filtered by company and status.",
				Annotations: mcp.ReadOnlyAnnotations("Search Projects"),
			},
			Contract: schema.NewContract(
				schema.SearchText("searchTerm", "Substring to match against project names"),
				schema.ID("companyID", "Restrict results to this company"),
				schema.ID("status", "Restrict results to this status value"),
				schema.PageSizeStandard(),
			),
			Handler: h.search,
		},
	}
}

func (h *ProjectHandler) search(ctx context.Context, args schema.Args) (mcp.ToolResult, error) {
	projects, err := h.api.SearchProjects(ctx, autotask.SearchProjectsOptions{
		SearchTerm: args.String("searchTerm"),
		CompanyID:  int64(args.Int("companyID")),
		Status:     args.Int("status"),
		PageSize:   args.Int("pageSize"),
	})
	if err != nil {
		return mcp.ToolResult{}, err
	}
	h.logger.Debug("searched projects", zap.Int("count", len(projects)))
	return mcp.JSONResult(map[string]any{
		"count":    len(projects),
		"projects": projects,
	}), nil
}
