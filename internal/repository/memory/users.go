package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// UserRepository is an in-memory repository.UserRepository. Role changes
// hold the write lock across the guard, matching the row locks taken by
// the Postgres implementation.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewUserRepository returns an empty store.
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]domain.User)}
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r *UserRepository) Upsert(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.users[user.ID]; ok {
		user.CreatedAt = stored.CreatedAt
	}
	r.users[user.ID] = *user
	return nil
}

func (r *UserRepository) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roles := make(map[domain.Role]struct{}, len(filter.Roles))
	for _, role := range filter.Roles {
		roles[role] = struct{}{}
	}

	var result []domain.User
	for _, user := range r.users {
		if filter.OrgID != "" && user.OrgIDValue() != filter.OrgID {
			continue
		}
		if len(roles) > 0 {
			if _, ok := roles[user.Role]; !ok {
				continue
			}
		}
		if filter.After != nil && !olderFirstAfter(user.CreatedAt, user.ID, filter.After.CreatedAt, filter.After.ID) {
			continue
		}
		result = append(result, user)
	}

	sort.Slice(result, func(i, j int) bool {
		return olderFirstAfter(result[j].CreatedAt, result[j].ID, result[i].CreatedAt, result[i].ID)
	})
	return truncate(result, filter.Limit), nil
}

func (r *UserRepository) UpdateRole(_ context.Context, userID string, role domain.Role, at time.Time, guard repository.RoleChangeGuard) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}

	platformAdmins := 0
	for _, user := range r.users {
		if user.Role == domain.RolePlatformAdmin {
			platformAdmins++
		}
	}

	if guard != nil {
		if err := guard(current, platformAdmins); err != nil {
			return nil, err
		}
	}

	current.Role = role
	current.UpdatedAt = at
	r.users[userID] = current
	return &current, nil
}
