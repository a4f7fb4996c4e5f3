package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func rawPatch(t *testing.T, fields map[string]any) map[string]json.RawMessage {
	t.Helper()
	raw := make(map[string]json.RawMessage, len(fields))
	for name, value := range fields {
		encoded, err := json.Marshal(value)
		require.NoError(t, err)
		raw[name] = encoded
	}
	return raw
}

func TestCreateTicketAppliesDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ticket, err := env.ticketService.CreateTicket(ctx, customer, TicketCreateInput{
		Title:       "  Printer jammed ",
		Description: "Paper stuck in tray 2",
		Tags:        []string{"hardware", " ", "printer"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Printer jammed", ticket.Title)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
	assert.Equal(t, domain.DefaultTicketCategory, ticket.Category)
	assert.Equal(t, "org-1", ticket.OrgID)
	assert.Equal(t, customer.ID, ticket.CreatedBy)
	assert.Equal(t, []string{"hardware", "printer"}, ticket.Tags)

	user, err := env.users.GetByID(ctx, customer.ID)
	require.NoError(t, err, "first action creates the user record")
	assert.Equal(t, "Uma One", user.DisplayName())

	history, err := env.history.ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.ChangeTypeCreated, history[0].ChangeType)

	assert.Contains(t, env.recorded.types(), events.EventTicketCreated)
}

func TestCreateTicketValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	org, err := env.orgService.CreateOrganization(ctx, platformAdmin, OrganizationCreateInput{Name: "Acme", Slug: "acme"})
	require.NoError(t, err)

	orphan := domain.NewActor("u9", "u9@example.com", "customer", "", "", "")

	tests := []struct {
		name  string
		actor domain.Actor
		input TicketCreateInput
		code  string
	}{
		{"missing title", customer, TicketCreateInput{Description: "d"}, apperrors.CodeValidationFailed},
		{"missing description", customer, TicketCreateInput{Title: "t"}, apperrors.CodeValidationFailed},
		{"bad priority", customer, TicketCreateInput{Title: "t", Description: "d", Priority: "urgent-ish"}, apperrors.CodeValidationFailed},
		{"foreign org id", customer, TicketCreateInput{Title: "t", Description: "d", OrgID: "org-2"}, apperrors.CodeValidationFailed},
		{"actor without org", orphan, TicketCreateInput{Title: "t", Description: "d"}, apperrors.CodeValidationFailed},
		{"platform admin without target org", platformAdmin, TicketCreateInput{Title: "t", Description: "d"}, apperrors.CodeValidationFailed},
		{"platform admin unknown org", platformAdmin, TicketCreateInput{Title: "t", Description: "d", OrgID: "org_missing"}, apperrors.CodeValidationFailed},
		{"anonymous", domain.Actor{}, TicketCreateInput{Title: "t", Description: "d"}, apperrors.CodeUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.ticketService.CreateTicket(ctx, tt.actor, tt.input)
			requireCode(t, err, tt.code)
		})
	}

	ticket, err := env.ticketService.CreateTicket(ctx, platformAdmin, TicketCreateInput{
		Title:       "Onboarding",
		Description: "Set up tenant",
		Priority:    "high",
		OrgID:       org.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, org.ID, ticket.OrgID)
	assert.Equal(t, domain.TicketPriorityHigh, ticket.Priority)
}

func TestGetTicketVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := env.createTicket(t, customer, "VPN down")

	_, err := env.ticketService.GetTicket(ctx, customer, ticket.ID)
	require.NoError(t, err)

	_, err = env.ticketService.GetTicket(ctx, technician, ticket.ID)
	require.NoError(t, err)

	_, err = env.ticketService.GetTicket(ctx, platformAdmin, ticket.ID)
	require.NoError(t, err)

	_, err = env.ticketService.GetTicket(ctx, otherCustomer, ticket.ID)
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = env.ticketService.GetTicket(ctx, foreignTech, ticket.ID)
	requireCode(t, err, apperrors.CodeNotFound)

	_, err = env.ticketService.GetTicket(ctx, technician, "does-not-exist")
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestUpdateTicketFieldScope(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := env.createTicket(t, customer, "Laptop slow")

	updated, err := env.ticketService.UpdateTicket(ctx, customer, ticket.ID, rawPatch(t, map[string]any{
		"title":    "Laptop very slow",
		"priority": "HIGH",
	}))
	require.NoError(t, err)
	assert.Equal(t, "Laptop very slow", updated.Title)
	assert.Equal(t, domain.TicketPriorityHigh, updated.Priority)
	assert.True(t, updated.UpdatedAt.After(ticket.UpdatedAt))

	_, err = env.ticketService.UpdateTicket(ctx, customer, ticket.ID, rawPatch(t, map[string]any{"status": "CLOSED"}))
	requireCode(t, err, apperrors.CodeForbidden)
	assert.Equal(t, []string{"status"}, apperrors.ToDomainError(err).Details["fields"])

	_, err = env.ticketService.UpdateTicket(ctx, customer, ticket.ID, rawPatch(t, map[string]any{"owner": "me"}))
	requireCode(t, err, apperrors.CodeValidationFailed)

	_, err = env.ticketService.UpdateTicket(ctx, customer, ticket.ID, map[string]json.RawMessage{})
	requireCode(t, err, apperrors.CodeValidationFailed)

	_, err = env.ticketService.UpdateTicket(ctx, otherCustomer, ticket.ID, rawPatch(t, map[string]any{"title": "x"}))
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = env.ticketService.UpdateTicket(ctx, foreignTech, ticket.ID, rawPatch(t, map[string]any{"title": "x"}))
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestUpdateTicketStatusRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := env.createTicket(t, customer, "Email bounce")

	_, err := env.ticketService.UpdateTicket(ctx, technician, ticket.ID, rawPatch(t, map[string]any{"status": "RESOLVED", "resolution": "fixed"}))
	requireCode(t, err, apperrors.CodeValidationFailed)

	_, err = env.ticketService.UpdateTicket(ctx, technician, ticket.ID, rawPatch(t, map[string]any{"status": "DELETED"}))
	requireCode(t, err, apperrors.CodeValidationFailed)

	inProgress, err := env.ticketService.UpdateTicket(ctx, technician, ticket.ID, rawPatch(t, map[string]any{"status": "in_progress"}))
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, inProgress.Status)

	_, err = env.ticketService.UpdateTicket(ctx, technician, ticket.ID, rawPatch(t, map[string]any{"status": "RESOLVED"}))
	requireCode(t, err, apperrors.CodeValidationFailed)

	resolved, err := env.ticketService.UpdateTicket(ctx, technician, ticket.ID, rawPatch(t, map[string]any{
		"status":     "RESOLVED",
		"resolution": "Cleared the mail queue",
	}))
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)
	require.NotNil(t, resolved.Resolution)
	assert.Equal(t, "Cleared the mail queue", *resolved.Resolution)

	_, err = env.ticketService.UpdateTicket(ctx, technician, ticket.ID, rawPatch(t, map[string]any{"status": "RESOLVED"}))
	requireCode(t, err, apperrors.CodeValidationFailed)

	reResolved, err := env.ticketService.UpdateTicket(ctx, technician, ticket.ID, rawPatch(t, map[string]any{
		"status":     "RESOLVED",
		"resolution": "Cleared the queue and restarted the relay",
	}))
	require.NoError(t, err)
	assert.Equal(t, "Cleared the queue and restarted the relay", *reResolved.Resolution)

	closed, err := env.ticketService.UpdateTicket(ctx, technician, ticket.ID, rawPatch(t, map[string]any{"status": "CLOSED"}))
	require.NoError(t, err)
	require.NotNil(t, closed.ClosedAt)
	require.NotNil(t, closed.ClosedBy)
	assert.Equal(t, technician.ID, *closed.ClosedBy)

	_, err = env.ticketService.UpdateTicket(ctx, technician, ticket.ID, rawPatch(t, map[string]any{"status": "OPEN"}))
	requireCode(t, err, apperrors.CodeValidationFailed)

	assert.Contains(t, env.recorded.types(), events.EventTicketStatusChanged)
}

func TestUpdateTicketOptimisticConcurrency(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := env.createTicket(t, customer, "Shared drive")
	token := ticket.UpdatedAt.Format(time.RFC3339Nano)

	_, err := env.ticketService.UpdateTicket(ctx, technician, ticket.ID, rawPatch(t, map[string]any{
		"priority":            "LOW",
		"expected_updated_at": token,
	}))
	require.NoError(t, err)

	_, err = env.ticketService.UpdateTicket(ctx, customer, ticket.ID, rawPatch(t, map[string]any{
		"title":               "Shared drive offline",
		"expected_updated_at": token,
	}))
	requireCode(t, err, apperrors.CodeConflict)

	current, err := env.ticketService.GetTicket(ctx, customer, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "Shared drive", current.Title)
	assert.Equal(t, domain.TicketPriorityLow, current.Priority)
}

func TestAssignTicket(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, technician)
	env.seedUser(t, customer)
	env.seedUser(t, foreignTech)
	ticket := env.createTicket(t, customer, "Monitor flicker")

	_, err := env.ticketService.AssignTicket(ctx, customer, ticket.ID, TicketAssignInput{AssigneeID: technician.ID})
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = env.ticketService.AssignTicket(ctx, technician, ticket.ID, TicketAssignInput{AssigneeID: "ghost"})
	requireCode(t, err, apperrors.CodeNotFound)

	_, err = env.ticketService.AssignTicket(ctx, technician, ticket.ID, TicketAssignInput{AssigneeID: customer.ID})
	requireCode(t, err, apperrors.CodeValidationFailed)

	_, err = env.ticketService.AssignTicket(ctx, orgAdmin, ticket.ID, TicketAssignInput{AssigneeID: foreignTech.ID})
	requireCode(t, err, apperrors.CodeValidationFailed)

	assigned, err := env.ticketService.AssignTicket(ctx, orgAdmin, ticket.ID, TicketAssignInput{AssigneeID: technician.ID})
	require.NoError(t, err)
	require.NotNil(t, assigned.AssignedTo)
	assert.Equal(t, technician.ID, *assigned.AssignedTo)
	assert.Equal(t, domain.TicketStatusInProgress, assigned.Status)

	crossTenant, err := env.ticketService.AssignTicket(ctx, platformAdmin, ticket.ID, TicketAssignInput{AssigneeID: foreignTech.ID})
	require.NoError(t, err)
	assert.Equal(t, foreignTech.ID, *crossTenant.AssignedTo)

	types := env.recorded.types()
	assert.Contains(t, types, events.EventTicketAssigned)
}

func TestAssignTicketThroughUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, technician)
	env.seedUser(t, otherCustomer)
	ticket := env.createTicket(t, customer, "Badge reader")

	_, err := env.ticketService.UpdateTicket(ctx, technician, ticket.ID, rawPatch(t, map[string]any{"assigned_to": otherCustomer.ID}))
	requireCode(t, err, apperrors.CodeValidationFailed)

	updated, err := env.ticketService.UpdateTicket(ctx, technician, ticket.ID, rawPatch(t, map[string]any{"assigned_to": technician.ID}))
	require.NoError(t, err)
	require.NotNil(t, updated.AssignedTo)

	cleared, err := env.ticketService.UpdateTicket(ctx, technician, ticket.ID, map[string]json.RawMessage{"assigned_to": json.RawMessage("null")})
	require.NoError(t, err)
	assert.Nil(t, cleared.AssignedTo)
}

func TestUpdateTicketRefusesAssigneeOnClosedTicket(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, technician)
	ticket := env.createTicket(t, customer, "Projector bulb")

	for _, patch := range []map[string]any{
		{"status": "IN_PROGRESS"},
		{"status": "WAITING"},
		{"status": "CLOSED"},
	} {
		_, err := env.ticketService.UpdateTicket(ctx, technician, ticket.ID, rawPatch(t, patch))
		require.NoError(t, err)
	}

	_, err := env.ticketService.UpdateTicket(ctx, technician, ticket.ID, rawPatch(t, map[string]any{"assigned_to": technician.ID}))
	requireCode(t, err, apperrors.CodeConflict)

	_, err = env.ticketService.UpdateTicket(ctx, technician, ticket.ID, map[string]json.RawMessage{"assigned_to": json.RawMessage("null")})
	requireCode(t, err, apperrors.CodeConflict)

	_, err = env.ticketService.AssignTicket(ctx, technician, ticket.ID, TicketAssignInput{AssigneeID: technician.ID})
	requireCode(t, err, apperrors.CodeConflict)

	stored, err := env.ticketService.GetTicket(ctx, technician, ticket.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.AssignedTo)
}

func TestDeleteTicket(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	soft := env.createTicket(t, customer, "Old request")
	hard := env.createTicket(t, customer, "Spam")

	deleted, err := env.ticketService.DeleteTicket(ctx, technician, soft.ID, false)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusDeleted, deleted.Status)
	require.NotNil(t, deleted.DeletedAt)
	assert.Equal(t, technician.ID, *deleted.DeletedBy)

	_, err = env.ticketService.DeleteTicket(ctx, technician, soft.ID, false)
	requireCode(t, err, apperrors.CodeConflict)

	_, err = env.ticketService.UpdateTicket(ctx, technician, soft.ID, rawPatch(t, map[string]any{"title": "revived"}))
	requireCode(t, err, apperrors.CodeConflict)

	_, err = env.ticketService.DeleteTicket(ctx, orgAdmin, hard.ID, true)
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = env.ticketService.DeleteTicket(ctx, platformAdmin, hard.ID, true)
	require.NoError(t, err)

	_, err = env.ticketService.GetTicket(ctx, platformAdmin, hard.ID)
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestListTicketsScopeAndPaging(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	var mine []*domain.Ticket
	for _, title := range []string{"first", "second", "third"} {
		mine = append(mine, env.createTicket(t, customer, title))
	}
	env.createTicket(t, otherCustomer, "someone else")

	own, err := env.ticketService.ListTickets(ctx, customer, TicketListFilter{})
	require.NoError(t, err)
	require.Len(t, own.Items, 3)
	assert.Equal(t, "third", own.Items[0].Title, "newest first")
	assert.Empty(t, own.NextCursor)

	_, err = env.ticketService.ListTickets(ctx, customer, TicketListFilter{CreatedBy: otherCustomer.ID})
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = env.ticketService.ListTickets(ctx, foreignTech, TicketListFilter{OrgID: "org-1"})
	requireCode(t, err, apperrors.CodeForbidden)

	first, err := env.ticketService.ListTickets(ctx, technician, TicketListFilter{Page: PageRequest{Limit: 3}})
	require.NoError(t, err)
	require.Len(t, first.Items, 3)
	require.NotEmpty(t, first.NextCursor)

	second, err := env.ticketService.ListTickets(ctx, technician, TicketListFilter{Page: PageRequest{Limit: 3, Cursor: first.NextCursor}})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, "first", second.Items[0].Title)
	assert.Empty(t, second.NextCursor)

	_, err = env.ticketService.DeleteTicket(ctx, customer, mine[1].ID, false)
	require.NoError(t, err)

	visible, err := env.ticketService.ListTickets(ctx, technician, TicketListFilter{})
	require.NoError(t, err)
	assert.Len(t, visible.Items, 3)

	trash, err := env.ticketService.ListTickets(ctx, technician, TicketListFilter{Status: "DELETED"})
	require.NoError(t, err)
	require.Len(t, trash.Items, 1)
	assert.Equal(t, mine[1].ID, trash.Items[0].ID)

	_, err = env.ticketService.ListTickets(ctx, technician, TicketListFilter{Page: PageRequest{Limit: 101}})
	requireCode(t, err, apperrors.CodeValidationFailed)

	_, err = env.ticketService.ListTickets(ctx, technician, TicketListFilter{Page: PageRequest{Cursor: "%%%"}})
	requireCode(t, err, apperrors.CodeValidationFailed)

	_, err = env.ticketService.ListTickets(ctx, technician, TicketListFilter{Status: "PENDING"})
	requireCode(t, err, apperrors.CodeValidationFailed)
}

func TestListHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := env.createTicket(t, customer, "Keyboard")

	_, err := env.ticketService.UpdateTicket(ctx, technician, ticket.ID, rawPatch(t, map[string]any{
		"status":   "IN_PROGRESS",
		"category": "Hardware",
	}))
	require.NoError(t, err)

	_, err = env.ticketService.ListHistory(ctx, customer, ticket.ID)
	requireCode(t, err, apperrors.CodeForbidden)

	entries, err := env.ticketService.ListHistory(ctx, technician, ticket.ID)
	require.NoError(t, err)

	var changeTypes []domain.TicketChangeType
	for _, entry := range entries {
		changeTypes = append(changeTypes, entry.ChangeType)
	}
	assert.ElementsMatch(t, []domain.TicketChangeType{
		domain.ChangeTypeCreated,
		domain.ChangeTypeStatus,
		domain.ChangeTypeFields,
	}, changeTypes)
}
