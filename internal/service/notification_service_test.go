package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
)

type sentLog struct {
	mu   sync.Mutex
	sent []Notification
}

func (l *sentLog) record(n Notification) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sent = append(l.sent, n)
}

func (l *sentLog) recipientsFor(eventType events.EventType) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var recipients []string
	for _, n := range l.sent {
		if n.EventType == eventType {
			recipients = append(recipients, n.Recipient)
		}
	}
	return recipients
}

func TestNotificationsSkipInternalNotesForCreator(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	log := &sentLog{}
	notifications := NewNotificationService(env.dispatcher, env.tickets, nil, config.NotificationConfig{EmailFrom: "support@example.com"})
	notifications.OnSend(log.record)
	notifications.RegisterHandlers()

	env.seedUser(t, technician)
	ticket := env.createTicket(t, customer, "Projector")
	_, err := env.ticketService.AssignTicket(ctx, orgAdmin, ticket.ID, TicketAssignInput{AssigneeID: technician.ID})
	require.NoError(t, err)

	_, err = env.commentService.CreateComment(ctx, orgAdmin, ticket.ID, CommentCreateInput{Content: "check the lamp", IsInternal: true})
	require.NoError(t, err)
	assert.Equal(t, []string{technician.ID}, log.recipientsFor(events.EventCommentAdded))

	_, err = env.commentService.CreateComment(ctx, technician, ticket.ID, CommentCreateInput{Content: "on my way"})
	require.NoError(t, err)
	assert.Equal(t, []string{technician.ID, customer.ID}, log.recipientsFor(events.EventCommentAdded))

	assert.Equal(t, []string{technician.ID}, log.recipientsFor(events.EventTicketAssigned))
	assert.Equal(t, []string{customer.ID}, log.recipientsFor(events.EventTicketStatusChanged))
}

func TestNotificationsDisabledWithoutChannels(t *testing.T) {
	env := newTestEnv(t)
	log := &sentLog{}
	notifications := NewNotificationService(env.dispatcher, env.tickets, nil, config.NotificationConfig{})
	notifications.OnSend(log.record)
	notifications.RegisterHandlers()

	env.createTicket(t, customer, "Desk phone")
	assert.Empty(t, log.sent)
}
