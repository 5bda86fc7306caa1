package autotask

import "fmt"

// Credentials holds the Autotask REST API connection settings. BaseURL is
// optional; when empty the client resolves the tenant's zone URL on first use.
type Credentials struct {
	Username        string
	Secret          string
	IntegrationCode string
	BaseURL         string
}

// APIError is the failure shape the Autotask API produces: an HTTP status
// plus the payload message and optional payload code. Status 0 means no
// response was received at all (transport-level failure).
type APIError struct {
	Status  int
	Message string
	Code    string
	Err     error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("autotask: request failed: %s", e.Message)
	}
	return fmt.Sprintf("autotask: status %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Company is an Autotask company (account) record.
type Company struct {
	ID              int64  `json:"id"`
	CompanyName     string `json:"companyName"`
	CompanyType     int    `json:"companyType"`
	Phone           string `json:"phone,omitempty"`
	WebAddress      string `json:"webAddress,omitempty"`
	OwnerResourceID int64  `json:"ownerResourceID,omitempty"`
	IsActive        bool   `json:"isActive"`
}

// Contact is an Autotask contact record.
type Contact struct {
	ID           int64  `json:"id"`
	CompanyID    int64  `json:"companyID"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	EmailAddress string `json:"emailAddress,omitempty"`
	Phone        string `json:"phone,omitempty"`
	IsActive     bool   `json:"isActive"`
}

// Ticket is an Autotask service desk ticket.
type Ticket struct {
	ID                 int64  `json:"id"`
	TicketNumber       string `json:"ticketNumber,omitempty"`
	Title              string `json:"title"`
	Description        string `json:"description,omitempty"`
	CompanyID          int64  `json:"companyID"`
	ContactID          int64  `json:"contactID,omitempty"`
	Status             int    `json:"status"`
	Priority           int    `json:"priority,omitempty"`
	QueueID            int64  `json:"queueID,omitempty"`
	AssignedResourceID int64  `json:"assignedResourceID,omitempty"`
	DueDateTime        string `json:"dueDateTime,omitempty"`
	CreateDate         string `json:"createDate,omitempty"`
	LastActivityDate   string `json:"lastActivityDate,omitempty"`
}

// TimeEntry is an Autotask time entry against a ticket.
type TimeEntry struct {
	ID           int64   `json:"id"`
	TicketID     int64   `json:"ticketID"`
	ResourceID   int64   `json:"resourceID,omitempty"`
	DateWorked   string  `json:"dateWorked"`
	HoursWorked  float64 `json:"hoursWorked"`
	SummaryNotes string  `json:"summaryNotes,omitempty"`
}

// Project is an Autotask project record.
type Project struct {
	ID          int64  `json:"id"`
	ProjectName string `json:"projectName"`
	CompanyID   int64  `json:"companyID"`
	Status      int    `json:"status"`
	ProjectType int    `json:"projectType,omitempty"`
	StartDate   string `json:"startDateTime,omitempty"`
	EndDate     string `json:"endDateTime,omitempty"`
}

// Resource is an Autotask resource (staff member) record.
type Resource struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email,omitempty"`
	UserName     string `json:"userName,omitempty"`
	ResourceType string `json:"resourceType,omitempty"`
	IsActive     bool   `json:"isActive"`
}

// QueryFilter is one filter expression in an entity query.
type QueryFilter struct {
	Op    string `json:"op"`
	Field string `json:"field"`
	Value any    `json:"value,omitempty"`
}

// CompanyInput is the payload for creating a company.
type CompanyInput struct {
	CompanyName     string `json:"companyName"`
	CompanyType     int    `json:"companyType"`
	Phone           string `json:"phone,omitempty"`
	OwnerResourceID int64  `json:"ownerResourceID,omitempty"`
}

// ContactInput is the payload for creating a contact.
type ContactInput struct {
	CompanyID    int64  `json:"companyID"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	EmailAddress string `json:"emailAddress,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

// TicketInput is the payload for creating a ticket.
type TicketInput struct {
	CompanyID   int64  `json:"companyID"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      int    `json:"status,omitempty"`
	Priority    int    `json:"priority,omitempty"`
	QueueID     int64  `json:"queueID,omitempty"`
	DueDateTime string `json:"dueDateTime,omitempty"`
}

// TimeEntryInput is the payload for creating a time entry.
type TimeEntryInput struct {
	TicketID     int64   `json:"ticketID"`
	ResourceID   int64   `json:"resourceID,omitempty"`
	DateWorked   string  `json:"dateWorked"`
	HoursWorked  float64 `json:"hoursWorked"`
	SummaryNotes string  `json:"summaryNotes"`
}
