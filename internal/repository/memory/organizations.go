package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// OrganizationRepository is an in-memory repository.OrganizationRepository.
// The slug index is checked under the same lock as the write.
type OrganizationRepository struct {
	mu     sync.RWMutex
	orgs   map[string]domain.Organization
	bySlug map[string]string
}

// NewOrganizationRepository returns an empty store.
func NewOrganizationRepository() *OrganizationRepository {
	return &OrganizationRepository{
		orgs:   make(map[string]domain.Organization),
		bySlug: make(map[string]string),
	}
}

func (r *OrganizationRepository) Create(_ context.Context, org *domain.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orgs[org.ID]; exists {
		return repository.ErrDuplicate
	}
	if _, taken := r.bySlug[org.Slug]; taken {
		return repository.ErrDuplicate
	}
	r.orgs[org.ID] = *org
	r.bySlug[org.Slug] = org.ID
	return nil
}

func (r *OrganizationRepository) GetByID(_ context.Context, id string) (*domain.Organization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	org, ok := r.orgs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &org, nil
}

func (r *OrganizationRepository) Update(_ context.Context, org *domain.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orgs[org.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if owner, taken := r.bySlug[org.Slug]; taken && owner != org.ID {
		return repository.ErrDuplicate
	}
	delete(r.bySlug, stored.Slug)
	r.bySlug[org.Slug] = org.ID
	r.orgs[org.ID] = *org
	return nil
}

func (r *OrganizationRepository) List(_ context.Context, filter repository.OrganizationFilter) ([]domain.Organization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.Organization
	for _, org := range r.orgs {
		if filter.ID != "" && org.ID != filter.ID {
			continue
		}
		if filter.After != nil && !olderFirstAfter(org.CreatedAt, org.ID, filter.After.CreatedAt, filter.After.ID) {
			continue
		}
		result = append(result, org)
	}

	sort.Slice(result, func(i, j int) bool {
		return olderFirstAfter(result[j].CreatedAt, result[j].ID, result[i].CreatedAt, result[i].ID)
	})
	return truncate(result, filter.Limit), nil
}
