package handlers

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/providentiaww/autotask-mcp/internal/apierror"
	"github.com/providentiaww/autotask-mcp/internal/autotask"
	"github.com/providentiaww/autotask-mcp/pkg/mcp"
)

// ResourceBackend is the slice of the Autotask client backing the protocol
// resources (the addressable autotask:// URIs, distinct from tools).
type ResourceBackend interface {
	SearchCompanies(ctx context.Context, opts autotask.SearchCompaniesOptions) ([]autotask.Company, error)
	GetCompany(ctx context.Context, id int64) (*autotask.Company, error)
	SearchTickets(ctx context.Context, opts autotask.SearchTicketsOptions) ([]autotask.Ticket, error)
	GetTicket(ctx context.Context, id int64) (*autotask.Ticket, error)
}

// RegisterResources publishes the read-only autotask:// entity resources.
// List URIs are enumerable; record URIs resolve by prefix.
func RegisterResources(server *mcp.Server, api ResourceBackend) {
	server.RegisterResource(mcp.Resource{
		URI:         "autotask://companies",
		Name:        "Companies",
		Description: "Active Autotask companies",
		MimeType:    "application/json",
	}, func(ctx context.Context, uri string) (*mcp.ResourceContents, error) {
		companies, err := api.SearchCompanies(ctx, autotask.SearchCompaniesOptions{PageSize: 50})
		if err != nil {
			return nil, err
		}
		return jsonContents(uri, companies)
	})

	server.RegisterResource(mcp.Resource{
		URI:         "autotask://tickets",
		Name:        "Tickets",
		Description: "Recent Autotask tickets",
		MimeType:    "application/json",
	}, func(ctx context.Context, uri string) (*mcp.ResourceContents, error) {
		tickets, err := api.SearchTickets(ctx, autotask.SearchTicketsOptions{PageSize: 25})
		if err != nil {
			return nil, err
		}
		return jsonContents(uri, tickets)
	})

	server.RegisterResourcePrefix("autotask://companies/", func(ctx context.Context, uri string) (*mcp.ResourceContents, error) {
		id, err := uriID(uri, "autotask://companies/")
		if err != nil {
			return nil, err
		}
		company, err := api.GetCompany(ctx, id)
		if err != nil {
			return nil, err
		}
		return jsonContents(uri, company)
	})

	server.RegisterResourcePrefix("autotask://tickets/", func(ctx context.Context, uri string) (*mcp.ResourceContents, error) {
		id, err := uriID(uri, "autotask://tickets/")
		if err != nil {
			return nil, err
		}
		ticket, err := api.GetTicket(ctx, id)
		if err != nil {
			return nil, err
		}
		return jsonContents(uri, ticket)
	})
}

func uriID(uri, prefix string) (int64, error) {
	raw := strings.TrimPrefix(uri, prefix)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, apierror.New("invalid resource id in "+uri, apierror.CodeResourceNotFound)
	}
	return id, nil
}

func jsonContents(uri string, v any) (*mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ResourceContents{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
