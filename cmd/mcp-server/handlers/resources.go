package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/providentiaww/autotask-mcp/internal/autotask"
	"github.com/providentiaww/autotask-mcp/internal/schema"
	"github.com/providentiaww/autotask-mcp/pkg/mcp"
)

// ResourceAPI is the slice of the Autotask client the resource tools need.
// Resources in Autotask are staff members, not MCP resources.
type ResourceAPI interface {
	SearchResources(ctx context.Context, opts autotask.SearchResourcesOptions) ([]autotask.Resource, error)
}

// ResourceHandler exposes the resource (staff) search tool.
type ResourceHandler struct {
	api    ResourceAPI
	logger *zap.Logger
}

func NewResourceHandler(api ResourceAPI, logger *zap.Logger) *ResourceHandler {
	return &ResourceHandler{api: api, logger: logger}
}

func (h *ResourceHandler) Tools() []mcp.ToolSpec {
	return []mcp.ToolSpec{
		{
			Tool: mcp.Tool{
				Name:        "autotask_search_resources",
				Description: "Search Autotask resources (staff members) by last name.",
				Annotations: mcp.ReadOnlyAnnotations("Search Resources"),
			},
			Contract: schema.NewContract(
				schema.SearchText("searchTerm", "Substring to match against resource last names"),
				schema.PageSizeStandard(),
			),
			Handler: h.search,
		},
	}
}

func (h *ResourceHandler) search(ctx context.Context, args schema.Args) (mcp.ToolResult, error) {
	resources, err := h.api.SearchResources(ctx, autotask.SearchResourcesOptions{
		SearchTerm: args.String("searchTerm"),
		PageSize:   args.Int("pageSize"),
	})
	if err != nil {
		return mcp.ToolResult{}, err
	}
	h.logger.Debug("searched resources", zap.Int("count", len(resources)))
	return mcp.JSONResult(map[string]any{
		"count":     len(resources),
		"resources": resources,
	}), nil
}
