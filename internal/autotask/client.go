// Package autotask is the downstream collaborator: a typed client for the
// Autotask PSA REST API (v1.0). Failures surface as *APIError carrying the
// HTTP status and payload message; classification into the error taxonomy
// happens upstream, not here.
package autotask

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const zoneInformationURL = "https://webservices.autotask.net/atservicesrest/v1.0/ZoneInformation"

// Shared HTTP client with connection pooling.
var sharedHTTPClient = &http.Client{
	Timeout: 30 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	},
}

// Client wraps an HTTP client with Autotask header authentication and zone
// resolution.
type Client struct {
	creds      Credentials
	httpClient *http.Client
	logger     *zap.Logger

	mu      sync.Mutex
	baseURL string
}

// NewClient creates an authenticated Autotask client. The zone-specific base
// URL is resolved lazily on the first request unless creds.BaseURL is set.
func NewClient(creds Credentials, logger *zap.Logger) *Client {
	return &Client{
		creds:      creds,
		httpClient: sharedHTTPClient,
		logger:     logger,
		baseURL:    strings.TrimSuffix(creds.BaseURL, "/"),
	}
}

// resolveBaseURL looks up the tenant's API zone. Autotask shards tenants
// across zone hosts; the zone endpoint maps an API user to its host.
func (c *Client) resolveBaseURL(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.baseURL != "" {
		return c.baseURL, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		zoneInformationURL+"?user="+c.creds.Username, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &APIError{Message: "zone lookup failed: " + err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &APIError{Status: resp.StatusCode, Message: "zone lookup failed: " + string(body)}
	}

	var zone struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&zone); err != nil {
		return "", &APIError{Message: "zone lookup returned an unreadable payload", Err: err}
	}
	c.baseURL = strings.TrimSuffix(zone.URL, "/") + "/v1.0"
	c.logger.Info("resolved autotask zone", zap.String("baseURL", c.baseURL))
	return c.baseURL, nil
}

// do executes one API request and decodes a successful response into out.
// Non-2xx responses and transport failures come back as *APIError.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	base, err := c.resolveBaseURL(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding %s %s payload: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("ApiIntegrationCode", c.creds.IntegrationCode)
	req.Header.Set("UserName", c.creds.Username)
	req.Header.Set("Secret", c.creds.Secret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set("X-Request-Id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		raw, _ := io.ReadAll(resp.Body)
		var payload struct {
			Errors []string `json:"errors"`
			Code   string   `json:"code"`
		}
		if json.Unmarshal(raw, &payload) == nil && len(payload.Errors) > 0 {
			apiErr.Message = strings.Join(payload.Errors, "; ")
			apiErr.Code = payload.Code
		} else {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		c.logger.Warn("autotask request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("requestId", requestID))
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Message: "unreadable response payload: " + err.Error(), Err: err}
	}
	return nil
}

// query runs a POST /<Entity>/query with the given filters. Autotask requires
// at least one filter expression, so an all-records filter is substituted
// when none are supplied.
func query[T any](ctx context.Context, c *Client, entity string, filters []QueryFilter, max int) ([]T, error) {
	if len(filters) == 0 {
		filters = []QueryFilter{{Op: "gte", Field: "id", Value: 0}}
	}
	payload := struct {
		MaxRecords int           `json:"maxRecords,omitempty"`
		Filter     []QueryFilter `json:"filter"`
	}{MaxRecords: max, Filter: filters}

	var result struct {
		Items []T `json:"items"`
	}
	if err := c.do(ctx, http.MethodPost, "/"+entity+"/query", payload, &result); err != nil {
		return nil, err
	}
	return result.Items, nil
}

// getByID runs a GET /<Entity>/<id>. Autotask wraps single records in an
// item envelope.
func getByID[T any](ctx context.Context, c *Client, entity string, id int64) (*T, error) {
	var result struct {
		Item *T `json:"item"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/%s/%d", entity, id), nil, &result); err != nil {
		return nil, err
	}
	if result.Item == nil {
		return nil, &APIError{Status: http.StatusNotFound, Message: fmt.Sprintf("%s %d not found", strings.TrimSuffix(entity, "s"), id)}
	}
	return result.Item, nil
}

// create runs a POST /<Entity> and returns the new record id.
func (c *Client) create(ctx context.Context, entity string, payload any) (int64, error) {
	var result struct {
		ItemID int64 `json:"itemId"`
	}
	if err := c.do(ctx, http.MethodPost, "/"+entity, payload, &result); err != nil {
		return 0, err
	}
	return result.ItemID, nil
}

// update runs a PATCH /<Entity> with the record id merged into the changed
// fields.
func (c *Client) update(ctx context.Context, entity string, id int64, fields map[string]any) error {
	payload := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		payload[k] = v
	}
	payload["id"] = id
	return c.do(ctx, http.MethodPatch, "/"+entity, payload, nil)
}

// SearchCompaniesOptions narrows a company search.
type SearchCompaniesOptions struct {
	SearchTerm      string
	IncludeInactive bool
	PageSize        int
}

func (c *Client) SearchCompanies(ctx context.Context, opts SearchCompaniesOptions) ([]Company, error) {
	var filters []QueryFilter
	if opts.SearchTerm != "" {
		filters = append(filters, QueryFilter{Op: "contains", Field: "companyName", Value: opts.SearchTerm})
	}
	if !opts.IncludeInactive {
		filters = append(filters, QueryFilter{Op: "eq", Field: "isActive", Value: true})
	}
	return query[Company](ctx, c, "Companies", filters, opts.PageSize)
}

func (c *Client) GetCompany(ctx context.Context, id int64) (*Company, error) {
	return getByID[Company](ctx, c, "Companies", id)
}

func (c *Client) CreateCompany(ctx context.Context, in CompanyInput) (int64, error) {
	return c.create(ctx, "Companies", in)
}

func (c *Client) UpdateCompany(ctx context.Context, id int64, fields map[string]any) error {
	return c.update(ctx, "Companies", id, fields)
}

// SearchContactsOptions narrows a contact search.
type SearchContactsOptions struct {
	SearchTerm string
	CompanyID  int64
	PageSize   int
}

func (c *Client) SearchContacts(ctx context.Context, opts SearchContactsOptions) ([]Contact, error) {
	var filters []QueryFilter
	if opts.SearchTerm != "" {
		filters = append(filters, QueryFilter{Op: "contains", Field: "lastName", Value: opts.SearchTerm})
	}
	if opts.CompanyID > 0 {
		filters = append(filters, QueryFilter{Op: "eq", Field: "companyID", Value: opts.CompanyID})
	}
	return query[Contact](ctx, c, "Contacts", filters, opts.PageSize)
}

func (c *Client) CreateContact(ctx context.Context, in ContactInput) (int64, error) {
	return c.create(ctx, "Contacts", in)
}

// SearchTicketsOptions narrows a ticket search.
type SearchTicketsOptions struct {
	SearchTerm string
	CompanyID  int64
	Status     int
	PageSize   int
}

func (c *Client) SearchTickets(ctx context.Context, opts SearchTicketsOptions) ([]Ticket, error) {
	var filters []QueryFilter
	if opts.SearchTerm != "" {
		filters = append(filters, QueryFilter{Op: "contains", Field: "title", Value: opts.SearchTerm})
	}
	if opts.CompanyID > 0 {
		filters = append(filters, QueryFilter{Op: "eq", Field: "companyID", Value: opts.CompanyID})
	}
	if opts.Status > 0 {
		filters = append(filters, QueryFilter{Op: "eq", Field: "status", Value: opts.Status})
	}
	return query[Ticket](ctx, c, "Tickets", filters, opts.PageSize)
}

func (c *Client) GetTicket(ctx context.Context, id int64) (*Ticket, error) {
	return getByID[Ticket](ctx, c, "Tickets", id)
}

func (c *Client) CreateTicket(ctx context.Context, in TicketInput) (int64, error) {
	return c.create(ctx, "Tickets", in)
}

func (c *Client) UpdateTicket(ctx context.Context, id int64, fields map[string]any) error {
	return c.update(ctx, "Tickets", id, fields)
}

func (c *Client) CreateTimeEntry(ctx context.Context, in TimeEntryInput) (int64, error) {
	return c.create(ctx, "TimeEntries", in)
}

// SearchProjectsOptions narrows a project search.
type SearchProjectsOptions struct {
	SearchTerm string
	CompanyID  int64
	Status     int
	PageSize   int
}

func (c *Client) SearchProjects(ctx context.Context, opts SearchProjectsOptions) ([]Project, error) {
	var filters []QueryFilter
	if opts.SearchTerm != "" {
		filters = append(filters, QueryFilter{Op: "contains", Field: "projectName", Value: opts.SearchTerm})
	}
	if opts.CompanyID > 0 {
		filters = append(filters, QueryFilter{Op: "eq", Field: "companyID", Value: opts.CompanyID})
	}
	if opts.Status > 0 {
		filters = append(filters, QueryFilter{Op: "eq", Field: "status", Value: opts.Status})
	}
	return query[Project](ctx, c, "Projects", filters, opts.PageSize)
}

// SearchResourcesOptions narrows a resource search.
type SearchResourcesOptions struct {
	SearchTerm string
	PageSize   int
}

func (c *Client) SearchResources(ctx context.Context, opts SearchResourcesOptions) ([]Resource, error) {
	var filters []QueryFilter
	if opts.SearchTerm != "" {
		filters = append(filters, QueryFilter{Op: "contains", Field: "lastName", Value: opts.SearchTerm})
	}
	return query[Resource](ctx, c, "Resources", filters, opts.PageSize)
}

// TestConnection verifies credentials and zone resolution with a minimal
// single-record query.
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := query[Company](ctx, c, "Companies", nil, 1)
	return err
}
