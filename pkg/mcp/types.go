package mcp

import "encoding/json"

// ToolAnnotations are behavioral hints about a tool's side-effect profile.
// They are advisory only, never enforced. A tool published without
// annotations must be treated by clients as worst case: mutating,
// irreversible, non-idempotent and dependent on external state.
type ToolAnnotations struct {
	Title           string `json:"title,omitempty"`
	ReadOnlyHint    bool   `json:"readOnlyHint"`
	DestructiveHint bool   `json:"destructiveHint"`
	IdempotentHint  bool   `json:"idempotentHint"`
	OpenWorldHint   bool   `json:"openWorldHint"`
}

// DefaultAnnotations is the assume-the-worst profile implied by absent
// annotations.
func DefaultAnnotations() *ToolAnnotations {
	return &ToolAnnotations{DestructiveHint: true, OpenWorldHint: true}
}

// ReadOnlyAnnotations marks a tool that only reads remote state.
func ReadOnlyAnnotations(title string) *ToolAnnotations {
	return &ToolAnnotations{Title: title, ReadOnlyHint: true, IdempotentHint: true, OpenWorldHint: true}
}

// CreateAnnotations marks a tool that creates a new record. Creation is not
// destructive but repeating it with identical arguments makes duplicates.
func CreateAnnotations(title string) *ToolAnnotations {
	return &ToolAnnotations{Title: title, OpenWorldHint: true}
}

// UpdateAnnotations marks a tool that modifies an existing record in place.
func UpdateAnnotations(title string) *ToolAnnotations {
	return &ToolAnnotations{Title: title, DestructiveHint: true, IdempotentHint: true, OpenWorldHint: true}
}

// TestAnnotations marks a connectivity-check tool.
func TestAnnotations(title string) *ToolAnnotations {
	return &ToolAnnotations{Title: title, ReadOnlyHint: true, IdempotentHint: true, OpenWorldHint: true}
}

// Tool is the published definition of one callable operation. InputSchema is
// derived from the tool's validation contract at registration time.
type Tool struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	InputSchema map[string]any   `json:"inputSchema"`
	Annotations *ToolAnnotations `json:"annotations,omitempty"`
}

// ToolCall is one tool invocation request. It lives for a single dispatch.
type ToolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ContentBlock is one entry in a tool result's content sequence.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	Data any    `json:"data,omitempty"`
}

// ToolResult is the uniform result envelope. Clients distinguish success
// from failure by IsError alone, never by inspecting content shape.
type ToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError"`
}

// TextResult wraps plain text in a successful result envelope.
func TextResult(text string) ToolResult {
	return ToolResult{Content: []ContentBlock{{Type: "text", Text: text}}}
}

// JSONResult marshals v and wraps it in a successful result envelope.
func JSONResult(v any) ToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return TextResult("failed to encode result: " + err.Error())
	}
	return TextResult(string(data))
}

// Resource is an addressable read-only data entity.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ResourceContents is the payload returned by resources/read.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text"`
}
