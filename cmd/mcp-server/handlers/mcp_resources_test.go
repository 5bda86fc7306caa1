package handlers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/providentiaww/autotask-mcp/internal/apierror"
	"github.com/providentiaww/autotask-mcp/internal/autotask"
	"github.com/providentiaww/autotask-mcp/pkg/mcp"
)

type fakeResourceBackend struct {
	companies []autotask.Company
	company   *autotask.Company
	tickets   []autotask.Ticket
	ticket    *autotask.Ticket

	gotCompanyID int64
	gotTicketID  int64
}

func (f *fakeResourceBackend) SearchCompanies(context.Context, autotask.SearchCompaniesOptions) ([]autotask.Company, error) {
	return f.companies, nil
}

func (f *fakeResourceBackend) GetCompany(_ context.Context, id int64) (*autotask.Company, error) {
	f.gotCompanyID = id
	return f.company, nil
}

func (f *fakeResourceBackend) SearchTickets(context.Context, autotask.SearchTicketsOptions) ([]autotask.Ticket, error) {
	return f.tickets, nil
}

func (f *fakeResourceBackend) GetTicket(_ context.Context, id int64) (*autotask.Ticket, error) {
	f.gotTicketID = id
	return f.ticket, nil
}

func newResourceServer(t *testing.T, backend ResourceBackend) *mcp.Server {
	t.Helper()
	server := mcp.NewServer("autotask-mcp", "test", zap.NewNop())
	RegisterResources(server, backend)
	return server
}

func TestResourceListing(t *testing.T) {
	server := newResourceServer(t, &fakeResourceBackend{})

	resources := server.ListResources()
	require.Len(t, resources, 2)
	assert.Equal(t, "autotask://companies", resources[0].URI)
	assert.Equal(t, "autotask://tickets", resources[1].URI)
	for _, res := range resources {
		assert.Equal(t, "application/json", res.MimeType)
	}
}

func TestReadCompanyListResource(t *testing.T) {
	backend := &fakeResourceBackend{companies: []autotask.Company{
		{ID: 1, CompanyName: "Acme"},
	}}
	server := newResourceServer(t, backend)

	contents, err := server.ReadResource(context.Background(), "autotask://companies")
	require.NoError(t, err)
	assert.Equal(t, "application/json", contents.MimeType)

	var companies []autotask.Company
	require.NoError(t, json.Unmarshal([]byte(contents.Text), &companies))
	require.Len(t, companies, 1)
	assert.Equal(t, "Acme", companies[0].CompanyName)
}

func TestReadTicketRecordResource(t *testing.T) {
	backend := &fakeResourceBackend{ticket: &autotask.Ticket{ID: 42, Title: "Printer on fire"}}
	server := newResourceServer(t, backend)

	contents, err := server.ReadResource(context.Background(), "autotask://tickets/42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), backend.gotTicketID)
	assert.Contains(t, contents.Text, "Printer on fire")
}

func TestReadResourceRejectsBadID(t *testing.T) {
	server := newResourceServer(t, &fakeResourceBackend{})

	for _, uri := range []string{
		"autotask://companies/abc",
		"autotask://companies/0",
		"autotask://companies/-3",
	} {
		_, err := server.ReadResource(context.Background(), uri)
		require.Error(t, err, "expected rejection for %s", uri)
		var mapped *apierror.MappedError
		require.ErrorAs(t, err, &mapped)
		assert.Equal(t, apierror.CodeResourceNotFound, mapped.Code)
	}
}
