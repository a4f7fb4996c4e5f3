package service

import (
	"context"
	"net/url"
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

const commentPreviewLength = 120

// CommentService manages ticket threads.
type CommentService struct {
	tickets    repository.TicketRepository
	comments   repository.CommentRepository
	events     eventPublisher
	logger     *zap.Logger
	pagination config.PaginationConfig
	now        Clock
}

// CommentDependencies bundles collaborators of the comment service.
type CommentDependencies struct {
	TicketRepo  repository.TicketRepository
	CommentRepo repository.CommentRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Pagination  config.PaginationConfig
	Clock       Clock
}

// CommentCreateInput is the payload of a new comment.
type CommentCreateInput struct {
	Content     string
	IsInternal  bool
	Attachments []string
}

// NewCommentService constructs the service.
func NewCommentService(deps CommentDependencies) *CommentService {
	clock := resolveClock(deps.Clock)
	return &CommentService{
		tickets:    deps.TicketRepo,
		comments:   deps.CommentRepo,
		events:     eventPublisher{dispatcher: deps.Dispatcher, clock: clock},
		logger:     loggerOrNop(deps.Logger),
		pagination: deps.Pagination,
		now:        clock,
	}
}

// CreateComment appends a comment to a ticket. Customers cannot post
// internal notes; the flag is silently cleared for them.
func (s *CommentService) CreateComment(ctx context.Context, actor domain.Actor, ticketID string, input CommentCreateInput) (*domain.Comment, error) {
	ticket, err := fetchTicket(ctx, s.tickets, actor, ticketID, access.CanComment, "not allowed to comment on this ticket")
	if err != nil {
		return nil, err
	}

	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, apperrors.NewValidationError("content is required", map[string]any{"field": "content"})
	}
	attachments, err := validateAttachments(input.Attachments)
	if err != nil {
		return nil, err
	}
	if ticket.Status == domain.TicketStatusDeleted {
		return nil, apperrors.NewConflict("ticket is deleted", map[string]any{"ticket_id": ticket.ID})
	}

	now := s.now()
	comment := &domain.Comment{
		ID:          newID(),
		TicketID:    ticket.ID,
		OrgID:       ticket.OrgID,
		Content:     content,
		IsInternal:  access.EffectiveInternalFlag(actor, input.IsInternal),
		Attachments: attachments,
		AuthorID:    actor.ID,
		AuthorName:  actor.DisplayName,
		AuthorEmail: actor.Email,
		AuthorRole:  actor.Role,
		CreatedAt:   now,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, mapRepoError(err, "comment", nil)
	}

	if err := s.tickets.Touch(ctx, ticket.ID, actor.ID, nextVersion(now, ticket.UpdatedAt)); err != nil {
		s.logger.Warn("ticket touch after comment failed",
			zap.String("ticket_id", ticket.ID),
			zap.String("comment_id", comment.ID),
			zap.Error(err))
	}
	s.events.publish(ctx, events.Event{
		Type:       events.EventCommentAdded,
		OrgID:      ticket.OrgID,
		ResourceID: comment.ID,
		Actor:      events.ActorOf(actor),
		Payload: events.CommentAddedPayload{
			CommentID:   comment.ID,
			TicketID:    ticket.ID,
			IsInternal:  comment.IsInternal,
			BodyPreview: stringPreview(comment.Content, commentPreviewLength),
		},
	})
	return comment, nil
}

// ListComments returns the thread oldest first. Internal notes are
// excluded at the storage level for customers.
func (s *CommentService) ListComments(ctx context.Context, actor domain.Actor, ticketID string, page PageRequest) (*Page[domain.Comment], error) {
	ticket, err := fetchTicket(ctx, s.tickets, actor, ticketID, access.CanAccessTicket, "not allowed to view this ticket")
	if err != nil {
		return nil, err
	}
	limit, err := resolveLimit(page.Limit, s.pagination)
	if err != nil {
		return nil, err
	}

	filter := repository.CommentFilter{
		TicketID:        ticket.ID,
		IncludeInternal: access.IncludeInternalComments(actor),
		Limit:           limit + 1,
	}
	if page.Cursor != "" {
		key, err := cursor.Decode(page.Cursor)
		if err != nil {
			return nil, invalidCursor()
		}
		createdAt, err := time.Parse(time.RFC3339Nano, key.String("created_at"))
		if err != nil || key.String("comment_id") == "" {
			return nil, invalidCursor()
		}
		filter.After = &repository.CommentPosition{CreatedAt: createdAt, ID: key.String("comment_id")}
	}

	comments, err := s.comments.List(ctx, filter)
	if err != nil {
		return nil, mapRepoError(err, "comment", nil)
	}
	result := &Page[domain.Comment]{Items: comments}
	if len(comments) > limit {
		result.Items = comments[:limit]
		last := result.Items[limit-1]
		result.NextCursor, err = cursor.Encode(cursor.Key{
			"created_at": last.CreatedAt.Format(time.RFC3339Nano),
			"comment_id": last.ID,
		})
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
	}
	if result.Items == nil {
		result.Items = []domain.Comment{}
	}
	return result, nil
}

func validateAttachments(raw []string) ([]string, error) {
	if len(raw) > domain.MaxCommentAttachments {
		return nil, apperrors.NewValidationError("too many attachments", map[string]any{
			"field": "attachments",
			"max":   domain.MaxCommentAttachments,
		})
	}
	attachments := make([]string, 0, len(raw))
	for _, item := range raw {
		item = strings.TrimSpace(item)
		parsed, err := url.Parse(item)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return nil, apperrors.NewValidationError("attachment must be an http(s) URL", map[string]any{
				"field": "attachments",
				"value": item,
			})
		}
		attachments = append(attachments, item)
	}
	return attachments, nil
}
