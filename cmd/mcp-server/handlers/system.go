package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/providentiaww/autotask-mcp/internal/schema"
	"github.com/providentiaww/autotask-mcp/pkg/mcp"
)

// SystemAPI is the slice of the Autotask client the system tools need.
type SystemAPI interface {
	TestConnection(ctx context.Context) error
}

// SystemHandler exposes the connectivity check tool.
type SystemHandler struct {
	api    SystemAPI
	logger *zap.Logger
}

func NewSystemHandler(api SystemAPI, logger *zap.Logger) *SystemHandler {
	return &SystemHandler{api: api, logger: logger}
}

func (h *SystemHandler) Tools() []mcp.ToolSpec {
	return []mcp.ToolSpec{
		{
			Tool: mcp.Tool{
				Name:        "autotask_test_connection",
				Description: "Verify that the server can reach the Autotask API with the configured credentials.",
				Annotations: mcp.TestAnnotations("Test Connection"),
			},
			// Takes no parameters; anything supplied is rejected.
			Contract: schema.NewContract(),
			Handler:  h.test,
		},
	}
}

func (h *SystemHandler) test(ctx context.Context, _ schema.Args) (mcp.ToolResult, error) {
	if err := h.api.TestConnection(ctx); err != nil {
		return mcp.ToolResult{}, err
	}
	h.logger.Info("autotask connection verified")
	return mcp.TextResult("Connection to the Autotask API succeeded."), nil
}
