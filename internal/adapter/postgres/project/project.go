package project

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainproject "github.com/alanyang/project-registry/internal/domain/project"
	portproject "github.com/alanyang/project-registry/internal/port/project"
)

var _ portproject.Repository = (*Repository)(nil)

const columns = `id, title, description, logo_url, is_active, is_suspended,
	interest_count, interest_emails, created_at, updated_at`

// uniqueViolation is the SQLSTATE Postgres reports for a primary key clash.
const uniqueViolation = "23505"

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, p domainproject.Project) (domainproject.Project, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO projects (`+columns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+columns,
		p.ID, p.Title, p.Description, p.LogoURL, p.IsActive, p.IsSuspended,
		p.InterestCount, emails(p.InterestEmails), p.CreatedAt, p.UpdatedAt,
	)

	out, err := scanProject(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domainproject.Project{}, fmt.Errorf("insert project %s: %w", p.ID, domainproject.ErrDuplicateID)
		}
		return domainproject.Project{}, fmt.Errorf("insert project: %w", err)
	}
	return out, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domainproject.Project, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+columns+` FROM projects WHERE id = $1`, id)

	out, err := scanProject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domainproject.Project{}, fmt.Errorf("get project %s: %w", id, domainproject.ErrNotFound)
	}
	if err != nil {
		return domainproject.Project{}, fmt.Errorf("get project: %w", err)
	}
	return out, nil
}

func (r *Repository) Update(ctx context.Context, p domainproject.Project) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE projects
		 SET title = $2, description = $3, logo_url = $4, is_active = $5, is_suspended = $6,
		     interest_count = $7, interest_emails = $8, updated_at = $9
		 WHERE id = $1`,
		p.ID, p.Title, p.Description, p.LogoURL, p.IsActive, p.IsSuspended,
		p.InterestCount, emails(p.InterestEmails), p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update project %s: %w", p.ID, domainproject.ErrNotFound)
	}
	return nil
}

// List orders by id::text so the sequence matches the other backends, which
// compare the canonical string form.
func (r *Repository) List(ctx context.Context) ([]domainproject.Project, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM projects ORDER BY id::text`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []domainproject.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return out, nil
}

func scanProject(row pgx.Row) (domainproject.Project, error) {
	var p domainproject.Project
	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.LogoURL, &p.IsActive, &p.IsSuspended,
		&p.InterestCount, &p.InterestEmails, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return domainproject.Project{}, err
	}
	if p.InterestEmails == nil {
		p.InterestEmails = []string{}
	}
	return p, nil
}

// emails keeps NULL out of the NOT NULL text[] column.
func emails(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
