package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketPosition is the keyset of the last ticket on a page.
type TicketPosition struct {
	CreatedAt time.Time
	ID        string
}

// TicketFilter narrows ticket listings. Empty fields do not filter.
// Results are ordered newest first.
type TicketFilter struct {
	OrgID          string
	CreatedBy      string
	AssignedTo     string
	Statuses       []domain.TicketStatus
	IncludeDeleted bool
	After          *TicketPosition
	Limit          int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// UpdateIfUnchanged writes ticket only when the stored updated_at still
	// equals expected. It returns ErrNotFound or ErrConflict otherwise.
	UpdateIfUnchanged(ctx context.Context, ticket *domain.Ticket, expected time.Time) error
	// Touch advances updated_at to at unless the stored value is already
	// later.
	Touch(ctx context.Context, id, by string, at time.Time) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `ticket_id, org_id, title, description, status, priority, category, created_by,
               assigned_to, tags, resolution, created_at, updated_at, updated_by, resolved_at,
               closed_at, closed_by, deleted_at, deleted_by`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (` + ticketColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`
	_, err := r.pool.Exec(ctx, query,
		ticket.ID,
		ticket.OrgID,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.Category,
		ticket.CreatedBy,
		ticket.AssignedTo,
		tagsOrEmpty(ticket.Tags),
		ticket.Resolution,
		ticket.CreatedAt,
		ticket.UpdatedAt,
		ticket.UpdatedBy,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.ClosedBy,
		ticket.DeletedAt,
		ticket.DeletedBy,
	)
	return translate(err)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ticket_id=$1`
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err)
	}
	return ticket, nil
}

func (r *ticketRepository) UpdateIfUnchanged(ctx context.Context, ticket *domain.Ticket, expected time.Time) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, status=$3, priority=$4, category=$5,
            assigned_to=$6, tags=$7, resolution=$8, updated_at=$9, updated_by=$10, resolved_at=$11,
            closed_at=$12, closed_by=$13, deleted_at=$14, deleted_by=$15
        WHERE ticket_id=$16 AND updated_at=$17`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.Category,
		ticket.AssignedTo,
		tagsOrEmpty(ticket.Tags),
		ticket.Resolution,
		ticket.UpdatedAt,
		ticket.UpdatedBy,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.ClosedBy,
		ticket.DeletedAt,
		ticket.DeletedBy,
		ticket.ID,
		expected,
	)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return r.missingOrConflict(ctx, ticket.ID)
	}
	return nil
}

func (r *ticketRepository) missingOrConflict(ctx context.Context, id string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE ticket_id=$1)`, id).Scan(&exists); err != nil {
		return translate(err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrConflict
}

func (r *ticketRepository) Touch(ctx context.Context, id, by string, at time.Time) error {
	// updated_at is the concurrency token and never moves backwards.
	const query = `
        UPDATE tickets
        SET updated_by = CASE WHEN $1 > updated_at THEN $2 ELSE updated_by END,
            updated_at = GREATEST(updated_at, $1)
        WHERE ticket_id=$3`
	cmd, err := r.pool.Exec(ctx, query, at, by, id)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE ticket_id=$1`, id)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.OrgID != "" {
		args = append(args, filter.OrgID)
		clauses = append(clauses, fmt.Sprintf("org_id=$%d", len(args)))
	}
	if filter.CreatedBy != "" {
		args = append(args, filter.CreatedBy)
		clauses = append(clauses, fmt.Sprintf("created_by=$%d", len(args)))
	}
	if filter.AssignedTo != "" {
		args = append(args, filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if !filter.IncludeDeleted {
		args = append(args, domain.TicketStatusDeleted)
		clauses = append(clauses, fmt.Sprintf("status <> $%d", len(args)))
	}
	if filter.After != nil {
		args = append(args, filter.After.CreatedAt, filter.After.ID)
		clauses = append(clauses, fmt.Sprintf("(created_at, ticket_id) < ($%d, $%d)", len(args)-1, len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC, ticket_id DESC%s`,
		ticketColumns, strings.Join(clauses, " AND "), limitClause(filter.Limit))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.OrgID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.Category,
		&ticket.CreatedBy,
		&ticket.AssignedTo,
		&ticket.Tags,
		&ticket.Resolution,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.UpdatedBy,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
		&ticket.ClosedBy,
		&ticket.DeletedAt,
		&ticket.DeletedBy,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func limitClause(limit int) string {
	if limit <= 0 {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d", limit)
}
