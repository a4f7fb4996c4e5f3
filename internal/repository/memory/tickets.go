package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// TicketRepository is an in-memory repository.TicketRepository.
type TicketRepository struct {
	mu      sync.RWMutex
	tickets map[string]domain.Ticket
}

// NewTicketRepository returns an empty store.
func NewTicketRepository() *TicketRepository {
	return &TicketRepository{tickets: make(map[string]domain.Ticket)}
}

func (r *TicketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tickets[ticket.ID]; exists {
		return repository.ErrDuplicate
	}
	r.tickets[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (r *TicketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneTicket(ticket)
	return &out, nil
}

func (r *TicketRepository) UpdateIfUnchanged(_ context.Context, ticket *domain.Ticket, expected time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticket.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if !stored.UpdatedAt.Equal(expected) {
		return repository.ErrConflict
	}
	updated := cloneTicket(*ticket)
	updated.OrgID = stored.OrgID
	updated.CreatedBy = stored.CreatedBy
	updated.CreatedAt = stored.CreatedAt
	r.tickets[ticket.ID] = updated
	return nil
}

func (r *TicketRepository) Touch(_ context.Context, id, by string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !at.After(stored.UpdatedAt) {
		return nil
	}
	stored.UpdatedAt = at
	stored.UpdatedBy = by
	r.tickets[id] = stored
	return nil
}

func (r *TicketRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.tickets, id)
	return nil
}

func (r *TicketRepository) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	statuses := make(map[domain.TicketStatus]struct{}, len(filter.Statuses))
	for _, status := range filter.Statuses {
		statuses[status] = struct{}{}
	}

	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.OrgID != "" && ticket.OrgID != filter.OrgID {
			continue
		}
		if filter.CreatedBy != "" && ticket.CreatedBy != filter.CreatedBy {
			continue
		}
		if filter.AssignedTo != "" && (ticket.AssignedTo == nil || *ticket.AssignedTo != filter.AssignedTo) {
			continue
		}
		if len(statuses) > 0 {
			if _, ok := statuses[ticket.Status]; !ok {
				continue
			}
		}
		if !filter.IncludeDeleted && ticket.Status == domain.TicketStatusDeleted {
			continue
		}
		if filter.After != nil && !newerFirstBefore(ticket.CreatedAt, ticket.ID, filter.After.CreatedAt, filter.After.ID) {
			continue
		}
		result = append(result, cloneTicket(ticket))
	}

	sort.Slice(result, func(i, j int) bool {
		return newerFirstBefore(result[j].CreatedAt, result[j].ID, result[i].CreatedAt, result[i].ID)
	})
	return truncate(result, filter.Limit), nil
}

// newerFirstBefore reports whether (at, id) sorts strictly after the cursor
// in a newest-first listing.
func newerFirstBefore(at time.Time, id string, cursorAt time.Time, cursorID string) bool {
	if at.Equal(cursorAt) {
		return id < cursorID
	}
	return at.Before(cursorAt)
}

func cloneTicket(ticket domain.Ticket) domain.Ticket {
	ticket.Tags = append([]string(nil), ticket.Tags...)
	return ticket
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
