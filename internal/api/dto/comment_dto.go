package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateCommentRequest payload. Content and attachments are checked by the
// service once the ticket is known to be visible.
type CreateCommentRequest struct {
	Content     string   `json:"content"`
	IsInternal  bool     `json:"is_internal"`
	Attachments []string `json:"attachments"`
}

// CommentResponse is the wire form of a comment.
type CommentResponse struct {
	ID          string      `json:"comment_id"`
	TicketID    string      `json:"ticket_id"`
	OrgID       string      `json:"org_id"`
	Content     string      `json:"content"`
	IsInternal  bool        `json:"is_internal"`
	Attachments []string    `json:"attachments"`
	AuthorID    string      `json:"author_id"`
	AuthorName  string      `json:"author_name"`
	AuthorEmail string      `json:"author_email"`
	AuthorRole  domain.Role `json:"author_role"`
	CreatedAt   time.Time   `json:"created_at"`
}

// NewCommentResponse maps a comment.
func NewCommentResponse(comment *domain.Comment) CommentResponse {
	attachments := comment.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	return CommentResponse{
		ID:          comment.ID,
		TicketID:    comment.TicketID,
		OrgID:       comment.OrgID,
		Content:     comment.Content,
		IsInternal:  comment.IsInternal,
		Attachments: attachments,
		AuthorID:    comment.AuthorID,
		AuthorName:  comment.AuthorName,
		AuthorEmail: comment.AuthorEmail,
		AuthorRole:  comment.AuthorRole,
		CreatedAt:   comment.CreatedAt,
	}
}
