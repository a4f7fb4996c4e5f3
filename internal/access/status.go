package access

import "github.com/spec-kit/helpdesk-service/internal/domain"

// ticketTransitions lists forward moves reachable through the update path.
// CLOSED and DELETED are terminal; DELETED is only entered by deletion.
var ticketTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusOpen:       {domain.TicketStatusInProgress},
	domain.TicketStatusInProgress: {domain.TicketStatusWaiting, domain.TicketStatusResolved},
	domain.TicketStatusWaiting:    {domain.TicketStatusResolved, domain.TicketStatusClosed},
	domain.TicketStatusResolved:   {domain.TicketStatusClosed},
	domain.TicketStatusClosed:     {},
	domain.TicketStatusDeleted:    {},
}

// CanTransition reports whether a ticket may move from current to next via
// an update. Keeping the same status is always allowed except on deleted
// tickets.
func CanTransition(current, next domain.TicketStatus) bool {
	if current == domain.TicketStatusDeleted {
		return false
	}
	if current == next {
		return true
	}
	for _, candidate := range ticketTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from current.
func NextStatuses(current domain.TicketStatus) []domain.TicketStatus {
	return append([]domain.TicketStatus(nil), ticketTransitions[current]...)
}

// IsTerminal reports whether no update can move the ticket further.
func IsTerminal(status domain.TicketStatus) bool {
	return status == domain.TicketStatusClosed || status == domain.TicketStatusDeleted
}
