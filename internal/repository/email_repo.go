package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"mailtriage/internal/model"
	"mailtriage/pkg/apperr"
	"mailtriage/pkg/metrics"
)

const emailTable = "emailagent"

// DBTX is the subset of *pgxpool.Pool used by the repository.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type EmailRepository struct {
	db DBTX
}

func NewEmailRepository(db DBTX) *EmailRepository {
	return &EmailRepository{db: db}
}

// EnsureSchema creates the email table if it does not exist yet.
func (r *EmailRepository) EnsureSchema(ctx context.Context) error {
	query := `
        CREATE TABLE IF NOT EXISTS emailagent (
            id         TEXT PRIMARY KEY,
            subject    TEXT NOT NULL DEFAULT '',
            body       TEXT NOT NULL DEFAULT '',
            priority   INTEGER NOT NULL DEFAULT 0,
            summary    TEXT NOT NULL DEFAULT '',
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )
    `
	if _, err := r.db.Exec(ctx, query); err != nil {
		return apperr.Dependency("repository.EnsureSchema", err)
	}
	return nil
}

// Upsert inserts the email or replaces every field of the existing row with the same id.
func (r *EmailRepository) Upsert(ctx context.Context, e model.StoredEmail) error {
	query := `
        INSERT INTO emailagent (id, subject, body, priority, summary, updated_at)
        VALUES ($1, $2, $3, $4, $5, NOW())
        ON CONFLICT (id) DO UPDATE
        SET subject = EXCLUDED.subject,
            body = EXCLUDED.body,
            priority = EXCLUDED.priority,
            summary = EXCLUDED.summary,
            updated_at = EXCLUDED.updated_at
    `
	start := time.Now()
	_, err := r.db.Exec(ctx, query, e.ID, e.Subject, e.Body, e.Priority, e.Summary)
	metrics.RecordDBQueryDuration("upsert", emailTable, time.Since(start))
	if err != nil {
		return apperr.Dependency("repository.Upsert", err)
	}
	return nil
}

// GetAll returns every stored email, most recently written first.
func (r *EmailRepository) GetAll(ctx context.Context) ([]model.StoredEmail, error) {
	query := `
        SELECT id, subject, body, priority, summary, updated_at
        FROM emailagent
        ORDER BY updated_at DESC, id
    `
	start := time.Now()
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, apperr.Dependency("repository.GetAll", err)
	}
	defer rows.Close()

	emails := []model.StoredEmail{}
	for rows.Next() {
		var e model.StoredEmail
		if err := rows.Scan(&e.ID, &e.Subject, &e.Body, &e.Priority, &e.Summary, &e.UpdatedAt); err != nil {
			return nil, apperr.Dependency("repository.GetAll", err)
		}
		emails = append(emails, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Dependency("repository.GetAll", err)
	}
	metrics.RecordDBQueryDuration("select_all", emailTable, time.Since(start))
	return emails, nil
}
