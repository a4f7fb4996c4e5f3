package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CommentPosition is the keyset of the last comment on a page.
type CommentPosition struct {
	CreatedAt time.Time
	ID        string
}

// CommentFilter narrows a ticket thread. Results are ordered oldest first.
type CommentFilter struct {
	TicketID        string
	IncludeInternal bool
	After           *CommentPosition
	Limit           int
}

// CommentRepository manages ticket thread entries.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	List(ctx context.Context, filter CommentFilter) ([]domain.Comment, error)
}

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository creates repository.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	const query = `
        INSERT INTO comments (comment_id, ticket_id, org_id, content, is_internal, attachments,
            author_id, author_name, author_email, author_role, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	_, err := r.pool.Exec(ctx, query,
		comment.ID,
		comment.TicketID,
		comment.OrgID,
		comment.Content,
		comment.IsInternal,
		tagsOrEmpty(comment.Attachments),
		comment.AuthorID,
		comment.AuthorName,
		comment.AuthorEmail,
		comment.AuthorRole,
		comment.CreatedAt,
	)
	return translate(err)
}

func (r *commentRepository) List(ctx context.Context, filter CommentFilter) ([]domain.Comment, error) {
	args := []any{filter.TicketID}
	clauses := []string{"ticket_id=$1"}

	if !filter.IncludeInternal {
		clauses = append(clauses, "is_internal = FALSE")
	}
	if filter.After != nil {
		args = append(args, filter.After.CreatedAt, filter.After.ID)
		clauses = append(clauses, fmt.Sprintf("(created_at, comment_id) > ($%d, $%d)", len(args)-1, len(args)))
	}

	query := fmt.Sprintf(`
        SELECT comment_id, ticket_id, org_id, content, is_internal, attachments,
               author_id, author_name, author_email, author_role, created_at
        FROM comments WHERE %s ORDER BY created_at ASC, comment_id ASC%s`,
		strings.Join(clauses, " AND "), limitClause(filter.Limit))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.TicketID,
			&comment.OrgID,
			&comment.Content,
			&comment.IsInternal,
			&comment.Attachments,
			&comment.AuthorID,
			&comment.AuthorName,
			&comment.AuthorEmail,
			&comment.AuthorRole,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}
