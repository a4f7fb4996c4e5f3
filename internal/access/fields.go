package access

import (
	"sort"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// Ticket fields addressable by an update payload.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldPriority    = "priority"
	FieldCategory    = "category"
	FieldTags        = "tags"
	FieldStatus      = "status"
	FieldAssignedTo  = "assigned_to"
	FieldResolution  = "resolution"
)

// GeneralTicketFields may be written by anyone passing CanUpdateTicket.
var GeneralTicketFields = map[string]struct{}{
	FieldTitle:       {},
	FieldDescription: {},
	FieldPriority:    {},
	FieldCategory:    {},
	FieldTags:        {},
}

// PrivilegedTicketFields additionally require an agent role. A customer who
// created the ticket still may not change its status or assignment.
var PrivilegedTicketFields = map[string]struct{}{
	FieldStatus:     {},
	FieldAssignedTo: {},
	FieldResolution: {},
}

// IsTicketField reports whether name is a writable ticket field.
func IsTicketField(name string) bool {
	if _, ok := GeneralTicketFields[name]; ok {
		return true
	}
	_, ok := PrivilegedTicketFields[name]
	return ok
}

// CanWriteTicketField reports whether the actor may set field on ticket.
func CanWriteTicketField(actor domain.Actor, ticket domain.Ticket, field string) bool {
	if !CanUpdateTicket(actor, ticket) {
		return false
	}
	if _, ok := GeneralTicketFields[field]; ok {
		return true
	}
	if _, ok := PrivilegedTicketFields[field]; ok {
		return IsAgent(actor)
	}
	return false
}

// DeniedTicketFields returns, sorted, the subset of fields the actor may not
// write.
func DeniedTicketFields(actor domain.Actor, ticket domain.Ticket, fields []string) []string {
	var denied []string
	for _, field := range fields {
		if !CanWriteTicketField(actor, ticket, field) {
			denied = append(denied, field)
		}
	}
	sort.Strings(denied)
	return denied
}
