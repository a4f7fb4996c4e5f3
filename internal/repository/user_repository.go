package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// UserPosition is the keyset of the last user on a page.
type UserPosition struct {
	CreatedAt time.Time
	ID        string
}

// UserFilter narrows user listings, oldest first.
type UserFilter struct {
	OrgID string
	Roles []domain.Role
	After *UserPosition
	Limit int
}

// RoleChangeGuard inspects the locked target row and the number of platform
// admins before a role write. A non-nil error aborts the change and is
// returned unchanged.
type RoleChangeGuard func(current domain.User, platformAdmins int) error

// UserRepository defines persistence access for user records.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// Upsert inserts the user or overwrites the identity-derived fields of
	// an existing row. CreatedAt is preserved on update.
	Upsert(ctx context.Context, user *domain.User) error
	List(ctx context.Context, filter UserFilter) ([]domain.User, error)
	// UpdateRole changes the role atomically with respect to other role
	// changes so that guard sees a stable platform admin count.
	UpdateRole(ctx context.Context, userID string, role domain.Role, at time.Time, guard RoleChangeGuard) (*domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `user_id, email, first_name, last_name, role, org_id, created_at, updated_at`

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id=$1`
	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err)
	}
	return user, nil
}

func (r *userRepository) Upsert(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (` + userColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (user_id) DO UPDATE SET email=EXCLUDED.email, first_name=EXCLUDED.first_name,
            last_name=EXCLUDED.last_name, role=EXCLUDED.role, org_id=EXCLUDED.org_id, updated_at=EXCLUDED.updated_at
        RETURNING created_at`
	err := r.pool.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Role,
		user.OrgID,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.CreatedAt)
	return translate(err)
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.OrgID != "" {
		args = append(args, filter.OrgID)
		clauses = append(clauses, fmt.Sprintf("org_id=$%d", len(args)))
	}
	if len(filter.Roles) > 0 {
		placeholders := make([]string, len(filter.Roles))
		for i, role := range filter.Roles {
			args = append(args, role)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("role IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.After != nil {
		args = append(args, filter.After.CreatedAt, filter.After.ID)
		clauses = append(clauses, fmt.Sprintf("(created_at, user_id) > ($%d, $%d)", len(args)-1, len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY created_at ASC, user_id ASC%s`,
		userColumns, strings.Join(clauses, " AND "), limitClause(filter.Limit))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (r *userRepository) UpdateRole(ctx context.Context, userID string, role domain.Role, at time.Time, guard RoleChangeGuard) (*domain.User, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// Every role change serializes on the platform admin rows so two
	// concurrent demotions cannot both observe a count of two.
	rows, err := tx.Query(ctx, `SELECT user_id FROM users WHERE role=$1 FOR UPDATE`, domain.RolePlatformAdmin)
	if err != nil {
		return nil, err
	}
	platformAdmins := 0
	for rows.Next() {
		platformAdmins++
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	current, err := scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE user_id=$1 FOR UPDATE`, userID))
	if err != nil {
		return nil, translate(err)
	}

	if guard != nil {
		if err := guard(*current, platformAdmins); err != nil {
			return nil, err
		}
	}

	if _, err := tx.Exec(ctx, `UPDATE users SET role=$1, updated_at=$2 WHERE user_id=$3`, role, at, userID); err != nil {
		return nil, translate(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	current.Role = role
	current.UpdatedAt = at
	return current, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.Role,
		&user.OrgID,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
