package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// Notification is one message the service decided to send.
type Notification struct {
	Recipient string
	Channel   string
	EventType events.EventType
	TicketID  string
}

// NotificationService turns ticket events into notifications for the
// people involved. Internal notes never notify the ticket creator.
type NotificationService struct {
	dispatcher events.Dispatcher
	tickets    repository.TicketRepository
	logger     *zap.Logger
	cfg        config.NotificationConfig
	sent       func(Notification)
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, tickets repository.TicketRepository, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		tickets:    tickets,
		logger:     loggerOrNop(logger),
		cfg:        cfg,
	}
}

// OnSend installs a hook observing every notification after it is logged.
func (n *NotificationService) OnSend(hook func(Notification)) {
	n.sent = hook
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	n.dispatcher.Subscribe(events.EventCommentAdded, n.handleCommentAdded)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	n.notify(ctx, event, event.ResourceID, event.Actor.ID)
	return nil
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	ticket, err := n.tickets.GetByID(ctx, event.ResourceID)
	if err != nil {
		return err
	}
	if ticket.CreatedBy != event.Actor.ID {
		n.notify(ctx, event, ticket.ID, ticket.CreatedBy)
	}
	return nil
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok || payload.Assignee == "" || payload.Assignee == event.Actor.ID {
		return nil
	}
	n.notify(ctx, event, event.ResourceID, payload.Assignee)
	return nil
}

func (n *NotificationService) handleCommentAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CommentAddedPayload)
	if !ok {
		return nil
	}
	ticket, err := n.tickets.GetByID(ctx, payload.TicketID)
	if err != nil {
		return err
	}

	var recipients []string
	if !payload.IsInternal && ticket.CreatedBy != event.Actor.ID {
		recipients = append(recipients, ticket.CreatedBy)
	}
	if ticket.AssignedTo != nil && *ticket.AssignedTo != event.Actor.ID {
		recipients = append(recipients, *ticket.AssignedTo)
	}
	for _, recipient := range recipients {
		n.notify(ctx, event, ticket.ID, recipient)
	}
	return nil
}

func (n *NotificationService) notify(_ context.Context, event events.Event, ticketID, recipient string) {
	if strings.TrimSpace(n.cfg.EmailFrom) != "" {
		n.deliver(Notification{Recipient: recipient, Channel: "email", EventType: event.Type, TicketID: ticketID},
			zap.String("from", n.cfg.EmailFrom))
	}
	if strings.TrimSpace(n.cfg.WebhookURL) != "" {
		n.deliver(Notification{Recipient: recipient, Channel: "webhook", EventType: event.Type, TicketID: ticketID},
			zap.String("url", n.cfg.WebhookURL))
	}
}

func (n *NotificationService) deliver(notification Notification, target zap.Field) {
	n.logger.Info("notification",
		zap.String("channel", notification.Channel),
		zap.String("recipient", notification.Recipient),
		zap.String("ticket_id", notification.TicketID),
		zap.String("event_type", string(notification.EventType)),
		target)
	if n.sent != nil {
		n.sent(notification)
	}
}
