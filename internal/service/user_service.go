package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/access"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/pkg/util/cursor"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// UserService manages user records mirrored from the identity provider.
type UserService struct {
	users      repository.UserRepository
	orgs       repository.OrganizationRepository
	events     eventPublisher
	logger     *zap.Logger
	pagination config.PaginationConfig
	now        Clock
}

// UserDependencies bundles collaborators of the user service.
type UserDependencies struct {
	UserRepo   repository.UserRepository
	OrgRepo    repository.OrganizationRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Pagination config.PaginationConfig
	Clock      Clock
}

// UserListFilter narrows the user directory.
type UserListFilter struct {
	OrgID string
	Role  string
	Page  PageRequest
}

// Profile is the caller's own view of themselves.
type Profile struct {
	User         domain.User
	Organization *domain.Organization
	Permissions  access.PermissionSet
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	clock := resolveClock(deps.Clock)
	return &UserService{
		users:      deps.UserRepo,
		orgs:       deps.OrgRepo,
		events:     eventPublisher{dispatcher: deps.Dispatcher, clock: clock},
		logger:     loggerOrNop(deps.Logger),
		pagination: deps.Pagination,
		now:        clock,
	}
}

// EnsureUser creates the record of a first-time caller and keeps identity
// fields in line with the latest assertion. The assertion is authoritative
// for role and org, so a role set through UpdateUserRole holds only until
// the identity provider says otherwise. The one exception is the last
// platform admin, who keeps the role whatever the token claims.
func (s *UserService) EnsureUser(ctx context.Context, actor domain.Actor) (*domain.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByID(ctx, actor.ID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		existing = nil
	case err != nil:
		return nil, mapRepoError(err, "user", nil)
	}

	desired := userFromActor(actor)
	if existing == nil {
		now := s.now()
		desired.CreatedAt = now
		desired.UpdatedAt = now
		if err := s.users.Upsert(ctx, &desired); err != nil {
			return nil, mapRepoError(err, "user", nil)
		}
		s.logger.Info("user record created", zap.String("user_id", desired.ID), zap.String("role", string(desired.Role)))
		return &desired, nil
	}

	keepStoredNames(&desired, *existing)
	if access.RemovesPlatformAdmin(existing.Role, desired.Role) {
		synced, err := s.syncPlatformAdminDemotion(ctx, *existing, desired.Role)
		if err != nil {
			return nil, err
		}
		existing = synced
		desired.Role = synced.Role
	}
	if !userDiverges(*existing, desired) {
		return existing, nil
	}
	desired.CreatedAt = existing.CreatedAt
	desired.UpdatedAt = nextVersion(s.now(), existing.UpdatedAt)
	if err := s.users.Upsert(ctx, &desired); err != nil {
		return nil, mapRepoError(err, "user", nil)
	}
	return &desired, nil
}

var errLastPlatformAdmin = errors.New("last platform admin")

// syncPlatformAdminDemotion applies a role downgrade coming from the
// identity assertion under the same count check as UpdateUserRole. When the
// user is the last platform admin the stored record is returned unchanged.
func (s *UserService) syncPlatformAdminDemotion(ctx context.Context, stored domain.User, role domain.Role) (*domain.User, error) {
	guard := func(current domain.User, platformAdmins int) error {
		if access.RemovesPlatformAdmin(current.Role, role) && !access.CanDemotePlatformAdmin(platformAdmins) {
			return errLastPlatformAdmin
		}
		return nil
	}
	updated, err := s.users.UpdateRole(ctx, stored.ID, role, nextVersion(s.now(), stored.UpdatedAt), guard)
	switch {
	case errors.Is(err, errLastPlatformAdmin):
		s.logger.Warn("identity assertion would demote the last platform admin; keeping stored role",
			zap.String("user_id", stored.ID),
			zap.String("asserted_role", string(role)))
		return &stored, nil
	case err != nil:
		return nil, mapRepoError(err, "user", map[string]any{"user_id": stored.ID})
	}
	s.logger.Info("platform admin role synced from identity assertion",
		zap.String("user_id", updated.ID),
		zap.String("new_role", string(updated.Role)))
	return updated, nil
}

func userFromActor(actor domain.Actor) domain.User {
	user := domain.User{
		ID:        actor.ID,
		Email:     actor.Email,
		FirstName: actor.GivenName,
		LastName:  actor.FamilyName,
		Role:      actor.Role,
	}
	if actor.HasOrg() {
		orgID := actor.OrgID
		user.OrgID = &orgID
	}
	return user
}

// keepStoredNames leaves names alone when the assertion does not carry them.
func keepStoredNames(desired *domain.User, stored domain.User) {
	if strings.TrimSpace(desired.FirstName) == "" {
		desired.FirstName = stored.FirstName
	}
	if strings.TrimSpace(desired.LastName) == "" {
		desired.LastName = stored.LastName
	}
}

func userDiverges(stored, desired domain.User) bool {
	return stored.Email != desired.Email ||
		stored.FirstName != desired.FirstName ||
		stored.LastName != desired.LastName ||
		stored.Role != desired.Role ||
		stored.OrgIDValue() != desired.OrgIDValue()
}

// Me returns the caller's profile, organization summary and permissions.
func (s *UserService) Me(ctx context.Context, actor domain.Actor) (*Profile, error) {
	user, err := s.EnsureUser(ctx, actor)
	if err != nil {
		return nil, err
	}
	profile := &Profile{User: *user, Permissions: access.Permissions(actor)}
	if actor.HasOrg() && s.orgs != nil {
		org, err := s.orgs.GetByID(ctx, actor.OrgID)
		switch {
		case err == nil:
			profile.Organization = org
		case errors.Is(err, repository.ErrNotFound):
			s.logger.Warn("caller references unknown organization", zap.String("user_id", actor.ID), zap.String("org_id", actor.OrgID))
		default:
			return nil, mapRepoError(err, "organization", nil)
		}
	}
	return profile, nil
}

// ListUsers pages through the user directory. Org admins are pinned to
// their own organization.
func (s *UserService) ListUsers(ctx context.Context, actor domain.Actor, filter UserListFilter) (*Page[domain.User], error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !access.CanListUsers(actor) {
		return nil, apperrors.NewForbidden("only administrators can list users")
	}
	orgID, ok := access.OrgScope(actor, strings.TrimSpace(filter.OrgID))
	if !ok {
		return nil, apperrors.NewForbidden("not allowed to list users of this organization")
	}
	limit, err := resolveLimit(filter.Page.Limit, s.pagination)
	if err != nil {
		return nil, err
	}

	repoFilter := repository.UserFilter{OrgID: orgID, Limit: limit + 1}
	if filter.Role != "" {
		role, ok := domain.ParseRole(filter.Role)
		if !ok {
			return nil, invalidEnum("role", filter.Role, domain.Roles)
		}
		repoFilter.Roles = []domain.Role{role}
	}
	if filter.Page.Cursor != "" {
		key, err := cursor.Decode(filter.Page.Cursor)
		if err != nil {
			return nil, invalidCursor()
		}
		createdAt, err := time.Parse(time.RFC3339Nano, key.String("created_at"))
		if err != nil || key.String("user_id") == "" {
			return nil, invalidCursor()
		}
		repoFilter.After = &repository.UserPosition{CreatedAt: createdAt, ID: key.String("user_id")}
	}

	users, err := s.users.List(ctx, repoFilter)
	if err != nil {
		return nil, mapRepoError(err, "user", nil)
	}
	page := &Page[domain.User]{Items: users}
	if len(users) > limit {
		page.Items = users[:limit]
		last := page.Items[limit-1]
		page.NextCursor, err = cursor.Encode(cursor.Key{
			"created_at": last.CreatedAt.Format(time.RFC3339Nano),
			"user_id":    last.ID,
		})
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
	}
	if page.Items == nil {
		page.Items = []domain.User{}
	}
	return page, nil
}

// ListTechnicians returns the staff a ticket may be assigned to, sorted by
// display name.
func (s *UserService) ListTechnicians(ctx context.Context, actor domain.Actor, requestedOrg string) ([]domain.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !access.CanListTechnicians(actor) {
		return nil, apperrors.NewForbidden("only staff can list technicians")
	}
	orgID, ok := access.OrgScope(actor, strings.TrimSpace(requestedOrg))
	if !ok {
		return nil, apperrors.NewForbidden("not allowed to list technicians of this organization")
	}

	roles := []domain.Role{domain.RoleTechnician, domain.RoleOrgAdmin}
	users, err := s.users.List(ctx, repository.UserFilter{OrgID: orgID, Roles: roles})
	if err != nil {
		return nil, mapRepoError(err, "user", nil)
	}
	if access.IsPlatformAdmin(actor) {
		admins, err := s.users.List(ctx, repository.UserFilter{Roles: []domain.Role{domain.RolePlatformAdmin}})
		if err != nil {
			return nil, mapRepoError(err, "user", nil)
		}
		users = append(users, admins...)
	}

	sort.SliceStable(users, func(i, j int) bool {
		left, right := strings.ToLower(users[i].DisplayName()), strings.ToLower(users[j].DisplayName())
		if left != right {
			return left < right
		}
		return users[i].ID < users[j].ID
	})
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// UpdateUserRole changes a user's role. The last platform admin can never
// be demoted; the count is taken under the store's lock.
func (s *UserService) UpdateUserRole(ctx context.Context, actor domain.Actor, targetID, rawRole string) (*domain.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	role, ok := domain.ParseRole(rawRole)
	if !ok {
		return nil, invalidEnum("role", rawRole, domain.Roles)
	}
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, mapRepoError(err, "user", map[string]any{"user_id": targetID})
	}
	if !access.CanChangeRole(actor, roleTarget(*target), role) {
		return nil, apperrors.NewForbidden("not allowed to change this user's role")
	}
	if target.Role == role {
		return target, nil
	}

	guard := func(current domain.User, platformAdmins int) error {
		if !access.CanChangeRole(actor, roleTarget(current), role) {
			return apperrors.NewForbidden("not allowed to change this user's role")
		}
		if access.RemovesPlatformAdmin(current.Role, role) && !access.CanDemotePlatformAdmin(platformAdmins) {
			return apperrors.NewConflict("cannot demote the last platform administrator", map[string]any{"user_id": current.ID})
		}
		return nil
	}
	updated, err := s.users.UpdateRole(ctx, target.ID, role, nextVersion(s.now(), target.UpdatedAt), guard)
	if err != nil {
		return nil, mapRepoError(err, "user", map[string]any{"user_id": targetID})
	}

	s.logger.Info("user role changed",
		zap.String("user_id", updated.ID),
		zap.String("old_role", string(target.Role)),
		zap.String("new_role", string(updated.Role)),
		zap.String("changed_by", actor.ID))
	s.events.publish(ctx, events.Event{
		Type:       events.EventUserRoleChanged,
		OrgID:      updated.OrgIDValue(),
		ResourceID: updated.ID,
		Actor:      events.ActorOf(actor),
		Payload:    events.UserRoleChangedPayload{OldRole: target.Role, NewRole: updated.Role},
	})
	return updated, nil
}

func roleTarget(user domain.User) access.RoleTarget {
	return access.RoleTarget{UserID: user.ID, Role: user.Role, OrgID: user.OrgIDValue()}
}
