// Package mcp implements the protocol core: the tool registry and dispatcher,
// the JSON-RPC message handling shared by all transports, and the stdio and
// HTTP transport variants.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/providentiaww/autotask-mcp/internal/apierror"
	"github.com/providentiaww/autotask-mcp/internal/schema"
)

// HandlerFunc executes one validated tool call. Arguments have already
// passed the tool's contract; failures returned here are classified by the
// error mapper at the dispatcher boundary.
type HandlerFunc func(ctx context.Context, args schema.Args) (ToolResult, error)

// ResourceHandlerFunc reads one addressable resource by URI.
type ResourceHandlerFunc func(ctx context.Context, uri string) (*ResourceContents, error)

// ToolSpec binds a tool definition to its input contract and handler. The
// contract both validates calls and derives the advertised input schema.
type ToolSpec struct {
	Tool     Tool
	Contract *schema.Contract
	Handler  HandlerFunc
}

type resourceEntry struct {
	resource Resource
	handler  ResourceHandlerFunc
}

type prefixEntry struct {
	prefix  string
	handler ResourceHandlerFunc
}

// Server is the single source of truth for available tools and resources.
// Every transport dispatches through the same instance. Registration happens
// at startup, before any transport starts; the registry is read-only
// afterwards, so concurrent calls need no locking.
type Server struct {
	name    string
	version string
	logger  *zap.Logger

	tools     map[string]*ToolSpec
	toolOrder []string

	resources []resourceEntry
	prefixes  []prefixEntry
}

// NewServer creates an empty registry.
func NewServer(name, version string, logger *zap.Logger) *Server {
	return &Server{
		name:    name,
		version: version,
		logger:  logger,
		tools:   make(map[string]*ToolSpec),
	}
}

// RegisterTool adds a tool to the registry. Tool names are unique; the
// advertised input schema is derived from the contract here so discovery and
// enforcement cannot drift.
func (s *Server) RegisterTool(spec ToolSpec) error {
	if spec.Tool.Name == "" {
		return fmt.Errorf("mcp: tool name must not be empty")
	}
	if spec.Contract == nil {
		return fmt.Errorf("mcp: tool %s has no input contract", spec.Tool.Name)
	}
	if spec.Handler == nil {
		return fmt.Errorf("mcp: tool %s has no handler", spec.Tool.Name)
	}
	if _, dup := s.tools[spec.Tool.Name]; dup {
		return fmt.Errorf("mcp: tool %s registered twice", spec.Tool.Name)
	}
	spec.Tool.InputSchema = spec.Contract.JSONSchema()
	s.tools[spec.Tool.Name] = &spec
	s.toolOrder = append(s.toolOrder, spec.Tool.Name)
	return nil
}

// RegisterResource adds an addressable resource with an exact URI.
func (s *Server) RegisterResource(res Resource, h ResourceHandlerFunc) {
	s.resources = append(s.resources, resourceEntry{resource: res, handler: h})
}

// RegisterResourcePrefix adds a handler for id-suffixed URIs such as
// autotask://tickets/12345. Prefix-matched resources are readable but not
// enumerated by resources/list.
func (s *Server) RegisterResourcePrefix(prefix string, h ResourceHandlerFunc) {
	s.prefixes = append(s.prefixes, prefixEntry{prefix: prefix, handler: h})
}

// ListTools returns the tool directory in registration order.
func (s *Server) ListTools() []Tool {
	out := make([]Tool, 0, len(s.toolOrder))
	for _, name := range s.toolOrder {
		out = append(out, s.tools[name].Tool)
	}
	return out
}

// ListResources returns the enumerable resources.
func (s *Server) ListResources() []Resource {
	out := make([]Resource, 0, len(s.resources))
	for _, e := range s.resources {
		out = append(out, e.resource)
	}
	return out
}

// ReadResource resolves a URI against exact registrations, then prefixes.
func (s *Server) ReadResource(ctx context.Context, uri string) (*ResourceContents, error) {
	for _, e := range s.resources {
		if e.resource.URI == uri {
			return e.handler(ctx, uri)
		}
	}
	for _, e := range s.prefixes {
		if strings.HasPrefix(uri, e.prefix) {
			return e.handler(ctx, uri)
		}
	}
	return nil, apierror.New(fmt.Sprintf("Unknown resource: %s", uri), apierror.CodeResourceNotFound)
}

// CallTool is the single choke point every tool call passes through:
// resolve the name, validate the arguments, run the handler, classify any
// failure. It always produces exactly one ToolResult and never lets a
// handler failure escape as a fault.
func (s *Server) CallTool(ctx context.Context, call ToolCall) (result ToolResult) {
	spec, ok := s.tools[call.Name]
	if !ok {
		mapped := apierror.NewToolNotFound(call.Name)
		s.logger.Warn("unknown tool called",
			zap.String("tool", call.Name),
			zap.String("correlationId", mapped.CorrelationID))
		return errorResult(mapped.Code, mapped.Message, mapped.Guidance, mapped.CorrelationID)
	}

	outcome := schema.Validate(spec.Contract, call.Arguments)
	if !outcome.Accepted {
		ve := outcome.Err
		s.logger.Info("tool call rejected by validation",
			zap.String("tool", call.Name),
			zap.Strings("details", ve.Details),
			zap.String("correlationId", ve.CorrelationID))
		text := ve.Message
		if len(ve.Details) > 0 {
			text += "\n" + strings.Join(ve.Details, "\n")
		}
		return errorResult(ve.Code, text, ve.Guidance, ve.CorrelationID)
	}

	defer func() {
		if r := recover(); r != nil {
			mapped := apierror.New(fmt.Sprintf("tool %s panicked: %v", call.Name, r))
			s.logger.Error("tool handler panicked",
				zap.String("tool", call.Name),
				zap.Any("panic", r),
				zap.String("correlationId", mapped.CorrelationID))
			result = errorResult(mapped.Code, mapped.Message, mapped.Guidance, mapped.CorrelationID)
		}
	}()

	res, err := spec.Handler(ctx, outcome.Args)
	if err != nil {
		mapped := s.mapHandlerError(err, call.Name)
		s.logger.Warn("tool call failed",
			zap.String("tool", call.Name),
			zap.String("code", mapped.Code),
			zap.String("correlationId", mapped.CorrelationID))
		return errorResult(mapped.Code, mapped.Message, mapped.Guidance, mapped.CorrelationID)
	}
	return res
}

// mapHandlerError funnels a handler failure through the error mapper. The
// dispatcher never inspects downstream payload shape itself.
func (s *Server) mapHandlerError(err error, tool string) *apierror.MappedError {
	return apierror.FromError(err, tool)
}

// errorResult renders a structured error as the uniform envelope: one text
// block with the error fields, isError set.
func errorResult(code, message, guidance, correlationID string) ToolResult {
	payload, _ := json.MarshalIndent(map[string]string{
		"code":          code,
		"message":       message,
		"guidance":      guidance,
		"correlationId": correlationID,
	}, "", "  ")
	return ToolResult{
		Content: []ContentBlock{{Type: "text", Text: string(payload)}},
		IsError: true,
	}
}
