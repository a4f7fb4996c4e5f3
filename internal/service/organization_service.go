package service

import (
	"bytes"
	"context"
	"encoding/json"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/access"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/pkg/util/cursor"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

var (
	slugPattern   = regexp.MustCompile(`^[a-z0-9-]+$`)
	slugSeparator = regexp.MustCompile(`[^a-z0-9]+`)
)

// OrganizationService manages tenants.
type OrganizationService struct {
	orgs       repository.OrganizationRepository
	events     eventPublisher
	logger     *zap.Logger
	pagination config.PaginationConfig
	now        Clock
}

// OrganizationDependencies bundles collaborators of the organization service.
type OrganizationDependencies struct {
	OrgRepo    repository.OrganizationRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Pagination config.PaginationConfig
	Clock      Clock
}

// OrganizationCreateInput is the payload of a new tenant.
type OrganizationCreateInput struct {
	Name   string
	Slug   string
	Status string
	Theme  json.RawMessage
}

// NewOrganizationService constructs the service.
func NewOrganizationService(deps OrganizationDependencies) *OrganizationService {
	clock := resolveClock(deps.Clock)
	return &OrganizationService{
		orgs:       deps.OrgRepo,
		events:     eventPublisher{dispatcher: deps.Dispatcher, clock: clock},
		logger:     loggerOrNop(deps.Logger),
		pagination: deps.Pagination,
		now:        clock,
	}
}

// CreateOrganization registers a tenant. Slug uniqueness is enforced by the
// store, so concurrent creations with the same slug yield one success and
// one CONFLICT.
func (s *OrganizationService) CreateOrganization(ctx context.Context, actor domain.Actor, input OrganizationCreateInput) (*domain.Organization, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !access.CanCreateOrg(actor) {
		return nil, apperrors.NewForbidden("only platform administrators can create organizations")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	if slug == "" {
		slug = slugify(name)
	}
	if !slugPattern.MatchString(slug) {
		return nil, apperrors.NewValidationError("slug must contain only lowercase letters, numbers and hyphens", map[string]any{"field": "slug"})
	}

	status := domain.OrganizationStatusActive
	if raw := strings.TrimSpace(input.Status); raw != "" {
		status = domain.OrganizationStatus(strings.ToLower(raw))
		if status != domain.OrganizationStatusActive && status != domain.OrganizationStatusTrial {
			return nil, invalidEnum("status", raw, []domain.OrganizationStatus{domain.OrganizationStatusActive, domain.OrganizationStatusTrial})
		}
	}
	theme, err := validateTheme(input.Theme)
	if err != nil {
		return nil, err
	}

	now := s.now()
	org := &domain.Organization{
		ID:        newOrganizationID(),
		Name:      name,
		Slug:      slug,
		Status:    status,
		Theme:     theme,
		CreatedBy: actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.orgs.Create(ctx, org); err != nil {
		return nil, mapRepoError(err, "organization", map[string]any{"slug": slug})
	}

	s.logger.Info("organization created", zap.String("org_id", org.ID), zap.String("slug", org.Slug))
	s.events.publish(ctx, events.Event{
		Type:       events.EventOrganizationCreated,
		OrgID:      org.ID,
		ResourceID: org.ID,
		Actor:      events.ActorOf(actor),
		Payload:    events.OrganizationPayload{Slug: org.Slug, Status: org.Status},
	})
	return org, nil
}

// GetOrganization returns a tenant the actor belongs to.
func (s *OrganizationService) GetOrganization(ctx context.Context, actor domain.Actor, orgID string) (*domain.Organization, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !access.CanAccessOrg(actor, orgID) {
		return nil, apperrors.NewForbidden("not allowed to view this organization")
	}
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, mapRepoError(err, "organization", map[string]any{"org_id": orgID})
	}
	return org, nil
}

// ListOrganizations pages through every tenant for platform admins. Other
// actors see their own organization only.
func (s *OrganizationService) ListOrganizations(ctx context.Context, actor domain.Actor, page PageRequest) (*Page[domain.Organization], error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	limit, err := resolveLimit(page.Limit, s.pagination)
	if err != nil {
		return nil, err
	}

	filter := repository.OrganizationFilter{Limit: limit + 1}
	if !access.IsPlatformAdmin(actor) {
		if !actor.HasOrg() {
			return &Page[domain.Organization]{Items: []domain.Organization{}}, nil
		}
		filter.ID = actor.OrgID
	}
	if page.Cursor != "" {
		key, err := cursor.Decode(page.Cursor)
		if err != nil {
			return nil, invalidCursor()
		}
		createdAt, err := time.Parse(time.RFC3339Nano, key.String("created_at"))
		if err != nil || key.String("org_id") == "" {
			return nil, invalidCursor()
		}
		filter.After = &repository.OrganizationPosition{CreatedAt: createdAt, ID: key.String("org_id")}
	}

	orgs, err := s.orgs.List(ctx, filter)
	if err != nil {
		return nil, mapRepoError(err, "organization", nil)
	}
	result := &Page[domain.Organization]{Items: orgs}
	if len(orgs) > limit {
		result.Items = orgs[:limit]
		last := result.Items[limit-1]
		result.NextCursor, err = cursor.Encode(cursor.Key{
			"created_at": last.CreatedAt.Format(time.RFC3339Nano),
			"org_id":     last.ID,
		})
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
	}
	if result.Items == nil {
		result.Items = []domain.Organization{}
	}
	return result, nil
}

// UpdateOrganization applies a partial update of name, theme and, for
// platform admins, status.
func (s *OrganizationService) UpdateOrganization(ctx context.Context, actor domain.Actor, orgID string, raw map[string]json.RawMessage) (*domain.Organization, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !access.CanManageOrg(actor, orgID) {
		return nil, apperrors.NewForbidden("not allowed to update this organization")
	}
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, mapRepoError(err, "organization", map[string]any{"org_id": orgID})
	}

	if len(raw) == 0 {
		return nil, apperrors.NewValidationError("no updatable fields provided", nil)
	}
	var unknown []string
	for field := range raw {
		switch field {
		case "name", "theme", "status":
		default:
			unknown = append(unknown, field)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, apperrors.NewValidationError("unknown fields in update", map[string]any{"fields": unknown})
	}
	if _, ok := raw["status"]; ok && !access.IsPlatformAdmin(actor) {
		return nil, apperrors.NewForbiddenFields("only platform administrators can change organization status", []string{"status"})
	}

	if value, ok := raw["name"]; ok {
		name, err := requiredString("name", value)
		if err != nil {
			return nil, err
		}
		org.Name = name
	}
	if value, ok := raw["theme"]; ok {
		theme, err := validateTheme(value)
		if err != nil {
			return nil, err
		}
		org.Theme = theme
	}
	if value, ok := raw["status"]; ok {
		var status string
		if err := json.Unmarshal(value, &status); err != nil {
			return nil, fieldTypeError("status", "string")
		}
		next := domain.OrganizationStatus(strings.ToLower(strings.TrimSpace(status)))
		if !next.Valid() {
			return nil, invalidEnum("status", status, []domain.OrganizationStatus{
				domain.OrganizationStatusActive,
				domain.OrganizationStatusSuspended,
				domain.OrganizationStatusTrial,
			})
		}
		org.Status = next
	}
	org.UpdatedAt = nextVersion(s.now(), org.UpdatedAt)

	if err := s.orgs.Update(ctx, org); err != nil {
		return nil, mapRepoError(err, "organization", map[string]any{"org_id": orgID})
	}
	s.events.publish(ctx, events.Event{
		Type:       events.EventOrganizationUpdated,
		OrgID:      org.ID,
		ResourceID: org.ID,
		Actor:      events.ActorOf(actor),
		Payload:    events.OrganizationPayload{Slug: org.Slug, Status: org.Status},
	})
	return org, nil
}

// validateTheme accepts an absent value, null or a JSON object.
func validateTheme(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var object map[string]any
	if err := json.Unmarshal(trimmed, &object); err != nil {
		return nil, fieldTypeError("theme", "object")
	}
	return json.RawMessage(append([]byte(nil), trimmed...)), nil
}

func slugify(name string) string {
	return strings.Trim(slugSeparator.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

func newOrganizationID() string {
	return "org_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
