package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// CommentRepository is an in-memory repository.CommentRepository.
type CommentRepository struct {
	mu       sync.RWMutex
	comments []domain.Comment
}

// NewCommentRepository returns an empty store.
func NewCommentRepository() *CommentRepository {
	return &CommentRepository{}
}

func (r *CommentRepository) Create(_ context.Context, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *comment
	stored.Attachments = append([]string(nil), comment.Attachments...)
	r.comments = append(r.comments, stored)
	return nil
}

func (r *CommentRepository) List(_ context.Context, filter repository.CommentFilter) ([]domain.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.Comment
	for _, comment := range r.comments {
		if comment.TicketID != filter.TicketID {
			continue
		}
		if comment.IsInternal && !filter.IncludeInternal {
			continue
		}
		if filter.After != nil && !olderFirstAfter(comment.CreatedAt, comment.ID, filter.After.CreatedAt, filter.After.ID) {
			continue
		}
		result = append(result, comment)
	}

	sort.Slice(result, func(i, j int) bool {
		return olderFirstAfter(result[j].CreatedAt, result[j].ID, result[i].CreatedAt, result[i].ID)
	})
	return truncate(result, filter.Limit), nil
}

// olderFirstAfter reports whether (at, id) sorts strictly after the cursor
// in an oldest-first listing.
func olderFirstAfter(at time.Time, id string, cursorAt time.Time, cursorID string) bool {
	if at.Equal(cursorAt) {
		return id > cursorID
	}
	return at.After(cursorAt)
}
