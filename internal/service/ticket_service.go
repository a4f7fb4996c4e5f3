package service

import (
	"context"
	"encoding/json"
	"errors"
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

// UserSyncer keeps the stored user record in line with the identity
// assertion.
type UserSyncer interface {
	EnsureUser(ctx context.Context, actor domain.Actor) (*domain.User, error)
}

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	orgs       repository.OrganizationRepository
	history    repository.TicketHistoryRepository
	syncer     UserSyncer
	events     eventPublisher
	logger     *zap.Logger
	pagination config.PaginationConfig
	now        Clock
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	UserRepo    repository.UserRepository
	OrgRepo     repository.OrganizationRepository
	HistoryRepo repository.TicketHistoryRepository
	UserSyncer  UserSyncer
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Pagination  config.PaginationConfig
	Clock       Clock
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    string
	Category    string
	Tags        []string
	OrgID       string
}

// TicketListFilter describes listing filters. Empty values do not filter.
type TicketListFilter struct {
	Status     string
	AssignedTo string
	CreatedBy  string
	OrgID      string
	Page       PageRequest
}

// TicketAssignInput names the new assignee.
type TicketAssignInput struct {
	AssigneeID        string
	ExpectedUpdatedAt *time.Time
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	clock := resolveClock(deps.Clock)
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		orgs:       deps.OrgRepo,
		history:    deps.HistoryRepo,
		syncer:     deps.UserSyncer,
		events:     eventPublisher{dispatcher: deps.Dispatcher, clock: clock},
		logger:     loggerOrNop(deps.Logger),
		pagination: deps.Pagination,
		now:        clock,
	}
}

// CreateTicket opens a ticket in the actor's organization. Platform admins
// choose the organization explicitly.
func (s *TicketService) CreateTicket(ctx context.Context, actor domain.Actor, input TicketCreateInput) (*domain.Ticket, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", map[string]any{"field": "title"})
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, apperrors.NewValidationError("description is required", map[string]any{"field": "description"})
	}

	priority := domain.TicketPriorityMedium
	if strings.TrimSpace(input.Priority) != "" {
		parsed, ok := domain.ParseTicketPriority(input.Priority)
		if !ok {
			return nil, invalidEnum("priority", input.Priority, domain.TicketPriorities)
		}
		priority = parsed
	}

	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = domain.DefaultTicketCategory
	}

	orgID, err := s.resolveTicketOrg(ctx, actor, strings.TrimSpace(input.OrgID))
	if err != nil {
		return nil, err
	}
	if !access.CanCreateTicketIn(actor, orgID) {
		return nil, apperrors.NewForbidden("not allowed to create tickets in this organization")
	}

	now := s.now()
	ticket := &domain.Ticket{
		ID:          newID(),
		OrgID:       orgID,
		Title:       title,
		Description: description,
		Status:      domain.TicketStatusOpen,
		Priority:    priority,
		Category:    category,
		CreatedBy:   actor.ID,
		Tags:        normalizeTags(input.Tags),
		CreatedAt:   now,
		UpdatedAt:   now,
		UpdatedBy:   actor.ID,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, mapRepoError(err, "ticket", nil)
	}

	if s.syncer != nil {
		if _, err := s.syncer.EnsureUser(ctx, actor); err != nil {
			s.logger.Warn("user sync after ticket creation failed",
				zap.String("user_id", actor.ID),
				zap.String("ticket_id", ticket.ID),
				zap.Error(err))
		}
	}
	s.recordHistory(ctx, actor, ticket, domain.ChangeTypeCreated, nil, map[string]any{
		"status":   ticket.Status,
		"priority": ticket.Priority,
	})
	s.events.publish(ctx, events.Event{
		Type:       events.EventTicketCreated,
		OrgID:      ticket.OrgID,
		ResourceID: ticket.ID,
		Actor:      events.ActorOf(actor),
		Payload: events.TicketCreatedPayload{
			Title:    ticket.Title,
			Priority: ticket.Priority,
			Category: ticket.Category,
		},
	})
	return ticket, nil
}

func (s *TicketService) resolveTicketOrg(ctx context.Context, actor domain.Actor, requested string) (string, error) {
	if access.IsPlatformAdmin(actor) {
		orgID := requested
		if orgID == "" {
			orgID = actor.OrgID
		}
		if orgID == "" {
			return "", apperrors.NewValidationError("org_id is required", map[string]any{"field": "org_id"})
		}
		if s.orgs != nil && requested != "" {
			if _, err := s.orgs.GetByID(ctx, orgID); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return "", apperrors.NewValidationError("organization does not exist", map[string]any{"field": "org_id", "org_id": orgID})
				}
				return "", mapRepoError(err, "organization", nil)
			}
		}
		return orgID, nil
	}
	if !actor.HasOrg() {
		return "", apperrors.NewValidationError("user is not a member of any organization", nil)
	}
	if requested != "" && requested != actor.OrgID {
		return "", apperrors.NewValidationError("org_id does not match the user's organization", map[string]any{"field": "org_id"})
	}
	return actor.OrgID, nil
}

// GetTicket returns a ticket visible to the actor.
func (s *TicketService) GetTicket(ctx context.Context, actor domain.Actor, ticketID string) (*domain.Ticket, error) {
	return s.loadTicket(ctx, actor, ticketID, access.CanAccessTicket, "not allowed to view this ticket")
}

func (s *TicketService) loadTicket(ctx context.Context, actor domain.Actor, ticketID string, allowed func(domain.Actor, domain.Ticket) bool, denial string) (*domain.Ticket, error) {
	return fetchTicket(ctx, s.tickets, actor, ticketID, allowed, denial)
}

// fetchTicket loads the ticket and applies allowed. Tickets of other
// tenants are reported as missing so their existence does not leak.
func fetchTicket(ctx context.Context, repo repository.TicketRepository, actor domain.Actor, ticketID string, allowed func(domain.Actor, domain.Ticket) bool, denial string) (*domain.Ticket, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	details := map[string]any{"ticket_id": ticketID}
	ticket, err := repo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapRepoError(err, "ticket", details)
	}
	if allowed(actor, *ticket) {
		return ticket, nil
	}
	if ticket.OrgID != "" && !access.CanAccessOrg(actor, ticket.OrgID) {
		return nil, apperrors.NewNotFound("ticket", details)
	}
	return nil, apperrors.NewForbidden(denial)
}

// ListTickets returns the actor's view of tickets, newest first.
func (s *TicketService) ListTickets(ctx context.Context, actor domain.Actor, filter TicketListFilter) (*Page[domain.Ticket], error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	orgID, ok := access.OrgScope(actor, strings.TrimSpace(filter.OrgID))
	if !ok {
		return nil, apperrors.NewForbidden("not allowed to list tickets of this organization")
	}
	limit, err := resolveLimit(filter.Page.Limit, s.pagination)
	if err != nil {
		return nil, err
	}

	repoFilter := repository.TicketFilter{
		OrgID:      orgID,
		AssignedTo: strings.TrimSpace(filter.AssignedTo),
		CreatedBy:  strings.TrimSpace(filter.CreatedBy),
		Limit:      limit + 1,
	}
	if filter.Status != "" {
		status, ok := domain.ParseTicketStatus(filter.Status)
		if !ok {
			return nil, invalidEnum("status", filter.Status, domain.TicketStatuses)
		}
		repoFilter.Statuses = []domain.TicketStatus{status}
		repoFilter.IncludeDeleted = status == domain.TicketStatusDeleted
	}
	if creator, restricted := access.CreatorScope(actor); restricted {
		if repoFilter.CreatedBy != "" && repoFilter.CreatedBy != creator {
			return nil, apperrors.NewForbidden("customers can only list their own tickets")
		}
		repoFilter.CreatedBy = creator
	}
	if filter.Page.Cursor != "" {
		position, err := decodeTicketCursor(filter.Page.Cursor)
		if err != nil {
			return nil, err
		}
		repoFilter.After = position
	}

	tickets, err := s.tickets.List(ctx, repoFilter)
	if err != nil {
		return nil, mapRepoError(err, "ticket", nil)
	}

	page := &Page[domain.Ticket]{Items: tickets}
	if len(tickets) > limit {
		page.Items = tickets[:limit]
		last := page.Items[limit-1]
		page.NextCursor, err = cursor.Encode(cursor.Key{
			"created_at": last.CreatedAt.Format(time.RFC3339Nano),
			"ticket_id":  last.ID,
		})
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
	}
	if page.Items == nil {
		page.Items = []domain.Ticket{}
	}
	return page, nil
}

func decodeTicketCursor(token string) (*repository.TicketPosition, error) {
	key, err := cursor.Decode(token)
	if err != nil {
		return nil, invalidCursor()
	}
	createdAt, err := time.Parse(time.RFC3339Nano, key.String("created_at"))
	if err != nil || key.String("ticket_id") == "" {
		return nil, invalidCursor()
	}
	return &repository.TicketPosition{CreatedAt: createdAt, ID: key.String("ticket_id")}, nil
}

// UpdateTicket applies a partial update. Field permissions are checked
// before any state rule so that a customer touching status is refused
// regardless of the requested value.
func (s *TicketService) UpdateTicket(ctx context.Context, actor domain.Actor, ticketID string, raw map[string]json.RawMessage) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, actor, ticketID, access.CanUpdateTicket, "not allowed to update this ticket")
	if err != nil {
		return nil, err
	}
	patch, err := ParseTicketPatch(raw)
	if err != nil {
		return nil, err
	}
	if denied := access.DeniedTicketFields(actor, *ticket, patch.Fields); len(denied) > 0 {
		return nil, apperrors.NewForbiddenFields("not allowed to modify these fields", denied)
	}
	if ticket.Status == domain.TicketStatusDeleted {
		return nil, apperrors.NewConflict("ticket is deleted", map[string]any{"ticket_id": ticket.ID})
	}

	before := *ticket
	now := nextVersion(s.now(), ticket.UpdatedAt)

	if patch.Status != nil && *patch.Status != ticket.Status && !access.CanTransition(ticket.Status, *patch.Status) {
		return nil, apperrors.NewValidationError("invalid status transition", map[string]any{
			"from":    ticket.Status,
			"to":      *patch.Status,
			"allowed": access.NextStatuses(ticket.Status),
		})
	}
	// Resolving always needs a resolution in the same request, even when
	// the ticket is already resolved.
	if patch.Status != nil && *patch.Status == domain.TicketStatusResolved && (patch.Resolution == nil || *patch.Resolution == "") {
		return nil, apperrors.NewValidationError("resolution is required when resolving a ticket", map[string]any{"field": access.FieldResolution})
	}
	if (patch.AssignedTo != nil || patch.ClearAssignee) && access.IsTerminal(ticket.Status) {
		return nil, apperrors.NewConflict("ticket is "+strings.ToLower(string(ticket.Status)), map[string]any{"ticket_id": ticket.ID})
	}

	if patch.Status != nil && *patch.Status != ticket.Status {
		ticket.Status = *patch.Status
		switch ticket.Status {
		case domain.TicketStatusResolved:
			ticket.ResolvedAt = &now
		case domain.TicketStatusClosed:
			closedBy := actor.ID
			ticket.ClosedAt = &now
			ticket.ClosedBy = &closedBy
		}
	}

	if patch.ClearResolution {
		if ticket.Status == domain.TicketStatusResolved {
			return nil, apperrors.NewValidationError("resolution cannot be cleared on a resolved ticket", map[string]any{"field": access.FieldResolution})
		}
		ticket.Resolution = nil
	} else if patch.Resolution != nil {
		if *patch.Resolution == "" && ticket.Status == domain.TicketStatusResolved {
			return nil, apperrors.NewValidationError("resolution must not be empty", map[string]any{"field": access.FieldResolution})
		}
		resolution := *patch.Resolution
		ticket.Resolution = &resolution
	}

	if patch.ClearAssignee {
		ticket.AssignedTo = nil
	} else if patch.AssignedTo != nil {
		if err := s.checkAssignee(ctx, actor, ticket, *patch.AssignedTo); err != nil {
			return nil, err
		}
		assignee := *patch.AssignedTo
		ticket.AssignedTo = &assignee
	}

	if patch.Title != nil {
		ticket.Title = *patch.Title
	}
	if patch.Description != nil {
		ticket.Description = *patch.Description
	}
	if patch.Priority != nil {
		ticket.Priority = *patch.Priority
	}
	if patch.Category != nil {
		ticket.Category = *patch.Category
	}
	if patch.Tags != nil {
		ticket.Tags = append([]string(nil), (*patch.Tags)...)
	}

	expected := before.UpdatedAt
	if patch.ExpectedUpdatedAt != nil {
		expected = *patch.ExpectedUpdatedAt
	}
	ticket.UpdatedAt = now
	ticket.UpdatedBy = actor.ID
	if err := s.tickets.UpdateIfUnchanged(ctx, ticket, expected); err != nil {
		return nil, mapRepoError(err, "ticket", map[string]any{"ticket_id": ticket.ID})
	}

	s.recordUpdateHistory(ctx, actor, &before, ticket, patch.Fields)
	s.events.publish(ctx, events.Event{
		Type:       events.EventTicketUpdated,
		OrgID:      ticket.OrgID,
		ResourceID: ticket.ID,
		Actor:      events.ActorOf(actor),
		Payload:    events.TicketUpdatedPayload{Fields: patch.Fields},
	})
	if before.Status != ticket.Status {
		s.events.publish(ctx, events.Event{
			Type:       events.EventTicketStatusChanged,
			OrgID:      ticket.OrgID,
			ResourceID: ticket.ID,
			Actor:      events.ActorOf(actor),
			Payload:    events.TicketStatusChangedPayload{OldStatus: before.Status, NewStatus: ticket.Status},
		})
	}
	if !sameAssignee(before.AssignedTo, ticket.AssignedTo) && ticket.AssignedTo != nil {
		s.events.publish(ctx, events.Event{
			Type:       events.EventTicketAssigned,
			OrgID:      ticket.OrgID,
			ResourceID: ticket.ID,
			Actor:      events.ActorOf(actor),
			Payload:    events.TicketAssignedPayload{PreviousAssignee: before.AssignedTo, Assignee: *ticket.AssignedTo},
		})
	}
	return ticket, nil
}

// AssignTicket sets the assignee. Open tickets move to IN_PROGRESS.
func (s *TicketService) AssignTicket(ctx context.Context, actor domain.Actor, ticketID string, input TicketAssignInput) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, actor, ticketID, access.CanAssignTicket, "not allowed to assign this ticket")
	if err != nil {
		return nil, err
	}
	assigneeID := strings.TrimSpace(input.AssigneeID)
	if assigneeID == "" {
		return nil, apperrors.NewValidationError("assignee_id is required", map[string]any{"field": "assignee_id"})
	}
	if access.IsTerminal(ticket.Status) {
		return nil, apperrors.NewConflict("ticket is "+strings.ToLower(string(ticket.Status)), map[string]any{"ticket_id": ticket.ID})
	}
	if err := s.checkAssignee(ctx, actor, ticket, assigneeID); err != nil {
		return nil, err
	}

	before := *ticket
	ticket.AssignedTo = &assigneeID
	if ticket.Status == domain.TicketStatusOpen {
		ticket.Status = domain.TicketStatusInProgress
	}
	expected := before.UpdatedAt
	if input.ExpectedUpdatedAt != nil {
		expected = *input.ExpectedUpdatedAt
	}
	ticket.UpdatedAt = nextVersion(s.now(), before.UpdatedAt)
	ticket.UpdatedBy = actor.ID
	if err := s.tickets.UpdateIfUnchanged(ctx, ticket, expected); err != nil {
		return nil, mapRepoError(err, "ticket", map[string]any{"ticket_id": ticket.ID})
	}

	fields := []string{access.FieldAssignedTo}
	if before.Status != ticket.Status {
		fields = append(fields, access.FieldStatus)
	}
	s.recordUpdateHistory(ctx, actor, &before, ticket, fields)
	s.events.publish(ctx, events.Event{
		Type:       events.EventTicketAssigned,
		OrgID:      ticket.OrgID,
		ResourceID: ticket.ID,
		Actor:      events.ActorOf(actor),
		Payload:    events.TicketAssignedPayload{PreviousAssignee: before.AssignedTo, Assignee: assigneeID},
	})
	if before.Status != ticket.Status {
		s.events.publish(ctx, events.Event{
			Type:       events.EventTicketStatusChanged,
			OrgID:      ticket.OrgID,
			ResourceID: ticket.ID,
			Actor:      events.ActorOf(actor),
			Payload:    events.TicketStatusChangedPayload{OldStatus: before.Status, NewStatus: ticket.Status},
		})
	}
	return ticket, nil
}

func (s *TicketService) checkAssignee(ctx context.Context, actor domain.Actor, ticket *domain.Ticket, assigneeID string) error {
	assignee, err := s.users.GetByID(ctx, assigneeID)
	if err != nil {
		return mapRepoError(err, "assignee", map[string]any{"user_id": assigneeID})
	}
	if access.CanBeAssignee(actor, *assignee, ticket.OrgID) {
		return nil
	}
	details := map[string]any{"user_id": assigneeID, "role": assignee.Role}
	if !access.IsAgentRole(assignee.Role) {
		return apperrors.NewValidationError("assignee must be a technician or administrator", details)
	}
	return apperrors.NewValidationError("assignee belongs to a different organization", details)
}

// DeleteTicket soft-deletes by default. Hard deletes remove the row and are
// reserved to platform admins.
func (s *TicketService) DeleteTicket(ctx context.Context, actor domain.Actor, ticketID string, hard bool) (*domain.Ticket, error) {
	allowed := func(a domain.Actor, t domain.Ticket) bool { return access.CanDeleteTicket(a, t, hard) }
	ticket, err := s.loadTicket(ctx, actor, ticketID, allowed, "not allowed to delete this ticket")
	if err != nil {
		return nil, err
	}

	if hard {
		if err := s.tickets.Delete(ctx, ticket.ID); err != nil {
			return nil, mapRepoError(err, "ticket", map[string]any{"ticket_id": ticket.ID})
		}
		s.events.publish(ctx, events.Event{
			Type:       events.EventTicketDeleted,
			OrgID:      ticket.OrgID,
			ResourceID: ticket.ID,
			Actor:      events.ActorOf(actor),
			Payload:    events.TicketDeletedPayload{Hard: true},
		})
		return ticket, nil
	}

	if ticket.Status == domain.TicketStatusDeleted {
		return nil, apperrors.NewConflict("ticket is already deleted", map[string]any{"ticket_id": ticket.ID})
	}
	before := *ticket
	now := nextVersion(s.now(), ticket.UpdatedAt)
	deletedBy := actor.ID
	ticket.Status = domain.TicketStatusDeleted
	ticket.DeletedAt = &now
	ticket.DeletedBy = &deletedBy
	ticket.UpdatedAt = now
	ticket.UpdatedBy = actor.ID
	if err := s.tickets.UpdateIfUnchanged(ctx, ticket, before.UpdatedAt); err != nil {
		return nil, mapRepoError(err, "ticket", map[string]any{"ticket_id": ticket.ID})
	}

	s.recordHistory(ctx, actor, ticket, domain.ChangeTypeDeleted,
		map[string]any{"status": before.Status},
		map[string]any{"status": ticket.Status})
	s.events.publish(ctx, events.Event{
		Type:       events.EventTicketDeleted,
		OrgID:      ticket.OrgID,
		ResourceID: ticket.ID,
		Actor:      events.ActorOf(actor),
		Payload:    events.TicketDeletedPayload{Hard: false},
	})
	return ticket, nil
}

// ListHistory returns the audit trail of a ticket to agents.
func (s *TicketService) ListHistory(ctx context.Context, actor domain.Actor, ticketID string) ([]domain.TicketHistory, error) {
	ticket, err := s.loadTicket(ctx, actor, ticketID, access.CanViewHistory, "ticket history is only available to agents")
	if err != nil {
		return nil, err
	}
	if s.history == nil {
		return []domain.TicketHistory{}, nil
	}
	entries, err := s.history.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, mapRepoError(err, "ticket history", nil)
	}
	if entries == nil {
		entries = []domain.TicketHistory{}
	}
	return entries, nil
}

func (s *TicketService) recordUpdateHistory(ctx context.Context, actor domain.Actor, before, after *domain.Ticket, fields []string) {
	if before.Status != after.Status {
		s.recordHistory(ctx, actor, after, domain.ChangeTypeStatus,
			map[string]any{"status": before.Status},
			map[string]any{"status": after.Status})
	}
	if !sameAssignee(before.AssignedTo, after.AssignedTo) {
		s.recordHistory(ctx, actor, after, domain.ChangeTypeAssignee,
			map[string]any{"assigned_to": before.AssignedTo},
			map[string]any{"assigned_to": after.AssignedTo})
	}
	if before.Priority != after.Priority {
		s.recordHistory(ctx, actor, after, domain.ChangeTypePriority,
			map[string]any{"priority": before.Priority},
			map[string]any{"priority": after.Priority})
	}

	var other []string
	for _, field := range fields {
		switch field {
		case access.FieldStatus, access.FieldAssignedTo, access.FieldPriority:
		default:
			other = append(other, field)
		}
	}
	if len(other) > 0 {
		s.recordHistory(ctx, actor, after, domain.ChangeTypeFields, nil, map[string]any{"fields": other})
	}
}

// recordHistory is a secondary write: failures are logged, never returned.
func (s *TicketService) recordHistory(ctx context.Context, actor domain.Actor, ticket *domain.Ticket, changeType domain.TicketChangeType, oldValue, newValue map[string]any) {
	if s.history == nil {
		return
	}
	entry := &domain.TicketHistory{
		ID:          newID(),
		TicketID:    ticket.ID,
		OrgID:       ticket.OrgID,
		ChangedByID: actor.ID,
		ChangedRole: actor.Role,
		ChangeType:  changeType,
		OldValue:    oldValue,
		NewValue:    newValue,
		CreatedAt:   s.now(),
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("ticket history write failed",
			zap.String("ticket_id", ticket.ID),
			zap.String("change_type", string(changeType)),
			zap.Error(err))
	}
}

func sameAssignee(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
