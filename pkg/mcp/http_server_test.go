package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestHTTPServer(t *testing.T, auth AuthOptions) *httptest.Server {
	t.Helper()
	s := NewServer("autotask-mcp", "test", zap.NewNop())
	require.NoError(t, s.RegisterTool(echoSpec("echo")))
	h := NewHTTPServer(s, HTTPOptions{Host: "127.0.0.1", Port: 0, Auth: auth}, zap.NewNop())
	ts := httptest.NewServer(h.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestHealthEndpointUnauthenticated(t *testing.T) {
	ts := newTestHTTPServer(t, AuthOptions{Enabled: true, Username: "svc", Password: "secret"})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMCPEndpointRequiresAuth(t *testing.T) {
	ts := newTestHTTPServer(t, AuthOptions{Enabled: true, Username: "svc", Password: "secret"})

	resp, err := http.Post(ts.URL+"/mcp", "application/json", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("WWW-Authenticate"), "Basic")
}

func TestMCPEndpointBasicAuth(t *testing.T) {
	ts := newTestHTTPServer(t, AuthOptions{Enabled: true, Username: "svc", Password: "secret"})

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/mcp", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	require.NoError(t, err)
	req.SetBasicAuth("svc", "secret")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var rpcResp rpcResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rpcResp))
	assert.Nil(t, rpcResp.Error)
}

func TestMCPEndpointBcryptPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	ts := newTestHTTPServer(t, AuthOptions{Enabled: true, Username: "svc", Password: string(hash)})

	ping := func(pass string) int {
		req, err := http.NewRequest(http.MethodPost, ts.URL+"/mcp", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
		require.NoError(t, err)
		req.SetBasicAuth("svc", pass)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, ping("secret"))
	// supplying the hash itself must not authenticate
	assert.Equal(t, http.StatusUnauthorized, ping(string(hash)))
}

func TestServiceTokenBearer(t *testing.T) {
	const secret = "service-secret"
	ts := newTestHTTPServer(t, AuthOptions{Enabled: true, Username: "svc", Password: "pw", ServiceTokenSecret: secret})

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "internal-service",
		"exp": time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/tools", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// a token signed with the wrong key is rejected
	badToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).
		SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	req, err = http.NewRequest(http.MethodGet, ts.URL+"/tools", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+badToken)

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRESTToolEndpoint(t *testing.T) {
	ts := newTestHTTPServer(t, AuthOptions{})

	resp, err := http.Post(ts.URL+"/api/tools/echo", "application/json",
		strings.NewReader(`{"searchTerm":"hello"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "hello", body["result"])
}

func TestRESTToolEndpointErrorEnvelope(t *testing.T) {
	ts := newTestHTTPServer(t, AuthOptions{})

	resp, err := http.Post(ts.URL+"/api/tools/echo", "application/json",
		strings.NewReader(`{"unexpected":true}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	assert.NotEmpty(t, body["correlationId"])
}

func TestRESTToolEndpointUnknownTool(t *testing.T) {
	ts := newTestHTTPServer(t, AuthOptions{})

	resp, err := http.Post(ts.URL+"/api/tools/missing", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "TOOL_NOT_FOUND", body["code"])
}

func TestMCPEndpointNotificationAccepted(t *testing.T) {
	ts := newTestHTTPServer(t, AuthOptions{})

	resp, err := http.Post(ts.URL+"/mcp", "application/json",
		strings.NewReader(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestHTTPServer(t, AuthOptions{Enabled: true, Username: "svc", Password: "pw"})

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/mcp", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestListToolsEndpoint(t *testing.T) {
	ts := newTestHTTPServer(t, AuthOptions{})

	resp, err := http.Get(ts.URL + "/tools")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Tools []Tool `json:"tools"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Tools, 1)
	assert.Equal(t, "echo", body.Tools[0].Name)
	assert.NotNil(t, body.Tools[0].InputSchema)
}

func TestHandlerSharedWithStdioDispatcher(t *testing.T) {
	// the HTTP transport and the raw dispatcher answer identically
	s := NewServer("autotask-mcp", "test", zap.NewNop())
	require.NoError(t, s.RegisterTool(echoSpec("echo")))
	h := NewHTTPServer(s, HTTPOptions{}, zap.NewNop())
	ts := httptest.NewServer(h.Handler())
	defer ts.Close()

	msg := `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`
	direct := s.HandleMessage(context.Background(), []byte(msg))

	resp, err := http.Post(ts.URL+"/mcp", "application/json", strings.NewReader(msg))
	require.NoError(t, err)
	defer resp.Body.Close()

	var overHTTP json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&overHTTP))
	assert.JSONEq(t, string(direct), string(overHTTP))
}
