package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthOptions configures the credential gate in front of the network
// transport. When Enabled, every request except the health probe must carry
// valid HTTP Basic credentials. Password may be supplied as a bcrypt hash.
// ServiceTokenSecret optionally enables signed bearer tokens for trusted
// service-to-service callers.
type AuthOptions struct {
	Enabled            bool
	Username           string
	Password           string
	ServiceTokenSecret string
}

// HTTPOptions configures the network transport.
type HTTPOptions struct {
	Host string
	Port int
	Auth AuthOptions
}

// HTTPServer is the network transport: JSON-RPC over HTTP plus a REST-style
// tool execution endpoint. Multiple client connections are served
// concurrently; a failure on one connection never affects its siblings.
type HTTPServer struct {
	server  *Server
	opts    HTTPOptions
	logger  *zap.Logger
	httpSrv *http.Server
}

// NewHTTPServer creates the network transport around a shared dispatcher.
func NewHTTPServer(server *Server, opts HTTPOptions, logger *zap.Logger) *HTTPServer {
	h := &HTTPServer{server: server, opts: opts, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.Handle("/mcp", h.requireAuth(http.HandlerFunc(h.handleMessage)))
	mux.Handle("/tools", h.requireAuth(http.HandlerFunc(h.handleListTools)))
	mux.Handle("/api/tools/", h.requireAuth(http.HandlerFunc(h.handleRESTTool)))

	h.httpSrv = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		Handler:           corsMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return h
}

// Handler exposes the composed route tree, including the auth gate and CORS
// middleware.
func (h *HTTPServer) Handler() http.Handler {
	return h.httpSrv.Handler
}

// Start blocks serving requests until Shutdown is called. Authentication
// configuration is validated before the process reaches this point, never
// per-request.
func (h *HTTPServer) Start() error {
	h.logger.Info("http transport ready",
		zap.String("addr", h.httpSrv.Addr),
		zap.Bool("authEnabled", h.opts.Auth.Enabled))
	if err := h.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until the context deadline elapses,
// then releases the listener.
func (h *HTTPServer) Shutdown(ctx context.Context) error {
	h.logger.Info("http transport stopping")
	return h.httpSrv.Shutdown(ctx)
}

func (h *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleMessage is the JSON-RPC endpoint. Every message goes through the
// same dispatcher the stdio transport uses.
func (h *HTTPServer) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sessionID := uuid.NewString()
	resp := h.server.HandleMessage(r.Context(), body)
	h.logger.Debug("handled message",
		zap.String("session", sessionID),
		zap.String("remote", r.RemoteAddr))

	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(resp)
}

func (h *HTTPServer) handleListTools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"tools": h.server.ListTools()})
}

// handleRESTTool exposes tools at POST /api/tools/{name} with the request
// body as arguments, for clients that do not speak JSON-RPC.
func (h *HTTPServer) handleRESTTool(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	parts := strings.Split(strings.TrimSuffix(r.URL.Path, "/"), "/")
	toolName := parts[len(parts)-1]
	if toolName == "" || toolName == "tools" {
		http.Error(w, "Missing tool name", http.StatusBadRequest)
		return
	}

	var arguments map[string]any
	if err := json.NewDecoder(r.Body).Decode(&arguments); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result := h.server.CallTool(r.Context(), ToolCall{Name: toolName, Arguments: arguments})

	w.Header().Set("Content-Type", "application/json")
	if result.IsError {
		w.WriteHeader(http.StatusBadRequest)
	}
	// Tool handlers return JSON rendered into text blocks; surface actual
	// JSON to REST callers when the text parses, else wrap it.
	if len(result.Content) > 0 {
		var parsed any
		if err := json.Unmarshal([]byte(result.Content[0].Text), &parsed); err == nil {
			json.NewEncoder(w).Encode(parsed)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"result": result.Content[0].Text})
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "success"})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
