package mcp

import (
	"context"
	"encoding/json"
	"fmt"
)

const protocolVersion = "2024-11-05"

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

func (r rpcRequest) isNotification() bool {
	return len(r.ID) == 0 || string(r.ID) == "null"
}

// HandleMessage processes one JSON-RPC message and returns the serialized
// response, or nil for notifications. Both transports funnel raw messages
// through here, so the same registry answers regardless of channel.
func (s *Server) HandleMessage(ctx context.Context, data []byte) []byte {
	var req rpcRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return marshalResponse(rpcResponse{
			JSONRPC: "2.0",
			ID:      json.RawMessage("null"),
			Error:   &rpcError{Code: codeParseError, Message: "parse error"},
		})
	}

	resp := s.dispatchRPC(ctx, req)
	if req.isNotification() {
		return nil
	}
	return marshalResponse(resp)
}

func (s *Server) dispatchRPC(ctx context.Context, req rpcRequest) rpcResponse {
	base := rpcResponse{JSONRPC: "2.0", ID: req.ID}
	if base.ID == nil {
		base.ID = json.RawMessage("null")
	}

	switch req.Method {
	case "initialize":
		base.Result = map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities": map[string]any{
				"tools":     map[string]any{"listChanged": false},
				"resources": map[string]any{"listChanged": false},
			},
			"serverInfo": map[string]any{
				"name":    s.name,
				"version": s.version,
			},
		}

	case "notifications/initialized":
		// Notification only; no result.

	case "ping":
		base.Result = map[string]any{}

	case "tools/list":
		base.Result = map[string]any{"tools": s.ListTools()}

	case "tools/call":
		var params struct {
			Name      string         `json:"name"`
			Arguments map[string]any `json:"arguments"`
		}
		if err := json.Unmarshal(req.Params, &params); err != nil {
			base.Error = &rpcError{Code: codeInvalidParams, Message: "invalid params: " + err.Error()}
			break
		}
		base.Result = s.CallTool(ctx, ToolCall{Name: params.Name, Arguments: params.Arguments})

	case "resources/list":
		base.Result = map[string]any{"resources": s.ListResources()}

	case "resources/read":
		var params struct {
			URI string `json:"uri"`
		}
		if err := json.Unmarshal(req.Params, &params); err != nil {
			base.Error = &rpcError{Code: codeInvalidParams, Message: "invalid params: " + err.Error()}
			break
		}
		contents, err := s.ReadResource(ctx, params.URI)
		if err != nil {
			base.Error = &rpcError{Code: codeInvalidParams, Message: err.Error()}
			break
		}
		base.Result = map[string]any{"contents": []*ResourceContents{contents}}

	default:
		base.Error = &rpcError{Code: codeMethodNotFound, Message: fmt.Sprintf("method not found: %s", req.Method)}
	}

	return base
}

func marshalResponse(resp rpcResponse) []byte {
	data, err := json.Marshal(resp)
	if err != nil {
		// The response value is built from marshalable parts; this path only
		// fires if a handler returned something unencodable.
		fallback := rpcResponse{
			JSONRPC: "2.0",
			ID:      resp.ID,
			Error:   &rpcError{Code: -32603, Message: "failed to encode response"},
		}
		data, _ = json.Marshal(fallback)
	}
	return data
}
