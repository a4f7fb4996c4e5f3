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

// OrganizationPosition is the keyset of the last organization on a page.
type OrganizationPosition struct {
	CreatedAt time.Time
	ID        string
}

// OrganizationFilter narrows organization listings, oldest first.
type OrganizationFilter struct {
	ID    string
	After *OrganizationPosition
	Limit int
}

// OrganizationRepository persists tenants. Slugs are unique; Create and
// Update return ErrDuplicate when a slug is taken.
type OrganizationRepository interface {
	Create(ctx context.Context, org *domain.Organization) error
	GetByID(ctx context.Context, id string) (*domain.Organization, error)
	Update(ctx context.Context, org *domain.Organization) error
	List(ctx context.Context, filter OrganizationFilter) ([]domain.Organization, error)
}

type organizationRepository struct {
	pool *pgxpool.Pool
}

// NewOrganizationRepository builds repository.
func NewOrganizationRepository(pool *pgxpool.Pool) OrganizationRepository {
	return &organizationRepository{pool: pool}
}

const organizationColumns = `org_id, name, slug, status, theme, created_by, created_at, updated_at`

func (r *organizationRepository) Create(ctx context.Context, org *domain.Organization) error {
	const query = `
        INSERT INTO organizations (` + organizationColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.pool.Exec(ctx, query,
		org.ID,
		org.Name,
		org.Slug,
		org.Status,
		nullableJSON(org.Theme),
		org.CreatedBy,
		org.CreatedAt,
		org.UpdatedAt,
	)
	return translate(err)
}

func (r *organizationRepository) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE org_id=$1`
	org, err := scanOrganization(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err)
	}
	return org, nil
}

func (r *organizationRepository) Update(ctx context.Context, org *domain.Organization) error {
	const query = `
        UPDATE organizations SET name=$1, slug=$2, status=$3, theme=$4, updated_at=$5
        WHERE org_id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		org.Name,
		org.Slug,
		org.Status,
		nullableJSON(org.Theme),
		org.UpdatedAt,
		org.ID,
	)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *organizationRepository) List(ctx context.Context, filter OrganizationFilter) ([]domain.Organization, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ID != "" {
		args = append(args, filter.ID)
		clauses = append(clauses, fmt.Sprintf("org_id=$%d", len(args)))
	}
	if filter.After != nil {
		args = append(args, filter.After.CreatedAt, filter.After.ID)
		clauses = append(clauses, fmt.Sprintf("(created_at, org_id) > ($%d, $%d)", len(args)-1, len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM organizations WHERE %s ORDER BY created_at ASC, org_id ASC%s`,
		organizationColumns, strings.Join(clauses, " AND "), limitClause(filter.Limit))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var orgs []domain.Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, *org)
	}
	return orgs, rows.Err()
}

func scanOrganization(row pgx.Row) (*domain.Organization, error) {
	var (
		org   domain.Organization
		theme []byte
	)
	if err := row.Scan(
		&org.ID,
		&org.Name,
		&org.Slug,
		&org.Status,
		&theme,
		&org.CreatedBy,
		&org.CreatedAt,
		&org.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(theme) > 0 {
		org.Theme = theme
	}
	return &org, nil
}

// nullableJSON stores absent JSON as SQL NULL rather than an empty document.
func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
