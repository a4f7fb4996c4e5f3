package domain

import "time"

// MaxCommentAttachments bounds the attachment list of a comment.
const MaxCommentAttachments = 5

// Comment is a message in a ticket thread. OrgID is copied from the ticket
// at creation and never changes.
type Comment struct {
	ID          string
	TicketID    string
	OrgID       string
	Content     string
	IsInternal  bool
	Attachments []string
	AuthorID    string
	AuthorName  string
	AuthorEmail string
	AuthorRole  Role
	CreatedAt   time.Time
}
