package domain

import (
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusWaiting    TicketStatus = "WAITING"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
	TicketStatusDeleted    TicketStatus = "DELETED"
)

// TicketStatuses lists every status.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusWaiting,
	TicketStatusResolved,
	TicketStatusClosed,
	TicketStatusDeleted,
}

// ParseTicketStatus upper-cases the input and checks it against the vocabulary.
func ParseTicketStatus(raw string) (TicketStatus, bool) {
	candidate := TicketStatus(strings.ToUpper(strings.TrimSpace(raw)))
	for _, status := range TicketStatuses {
		if candidate == status {
			return status, true
		}
	}
	return "", false
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

// TicketPriorities lists every priority.
var TicketPriorities = []TicketPriority{
	TicketPriorityLow,
	TicketPriorityMedium,
	TicketPriorityHigh,
	TicketPriorityCritical,
}

// ParseTicketPriority upper-cases the input and checks it against the vocabulary.
func ParseTicketPriority(raw string) (TicketPriority, bool) {
	candidate := TicketPriority(strings.ToUpper(strings.TrimSpace(raw)))
	for _, priority := range TicketPriorities {
		if candidate == priority {
			return priority, true
		}
	}
	return "", false
}

// DefaultTicketCategory is applied when a ticket is created without one.
const DefaultTicketCategory = "General"

// Ticket is the aggregate for support requests. OrgID never changes after
// creation.
type Ticket struct {
	ID          string
	OrgID       string
	Title       string
	Description string
	Status      TicketStatus
	Priority    TicketPriority
	Category    string
	CreatedBy   string
	AssignedTo  *string
	Tags        []string
	Resolution  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	UpdatedBy   string
	ResolvedAt  *time.Time
	ClosedAt    *time.Time
	ClosedBy    *string
	DeletedAt   *time.Time
	DeletedBy   *string
}
