package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// postgresStore persists records in the feedback_records table.
type postgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore constructs a Store backed by Postgres.
func NewPostgresStore(db *sqlx.DB) Store {
	return &postgresStore{db: db}
}

func (p *postgresStore) Create(ctx context.Context, rec Record) error {
	const q = `
		INSERT INTO feedback_records (id, user_id, name, feedback_text, media_uri, duration_seconds, created_at)
		VALUES (:id, :user_id, :name, :feedback_text, :media_uri, :duration_seconds, :created_at)`
	if _, err := p.db.NamedExecContext(ctx, q, rec); err != nil {
		return fmt.Errorf("records: create: %w", err)
	}
	return nil
}

func (p *postgresStore) PatchMedia(ctx context.Context, recordID, value string) error {
	const q = `UPDATE feedback_records SET media_uri = $1 WHERE id = $2`
	res, err := p.db.ExecContext(ctx, q, value, recordID)
	if err != nil {
		return fmt.Errorf("records: patch media: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("records: patch media: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *postgresStore) GetByID(ctx context.Context, recordID string) (Record, error) {
	const q = `
		SELECT id, user_id, name, feedback_text, media_uri, duration_seconds, created_at
		FROM feedback_records WHERE id = $1`
	var rec Record
	if err := p.db.GetContext(ctx, &rec, q, recordID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("records: get by id: %w", err)
	}
	return rec, nil
}

func (p *postgresStore) LatestByUser(ctx context.Context, userID string) (Record, error) {
	const q = `
		SELECT id, user_id, name, feedback_text, media_uri, duration_seconds, created_at
		FROM feedback_records WHERE user_id = $1
		ORDER BY created_at DESC LIMIT 1`
	var rec Record
	if err := p.db.GetContext(ctx, &rec, q, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("records: latest by user: %w", err)
	}
	return rec, nil
}

func (p *postgresStore) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	const q = `
		SELECT id, user_id, name, feedback_text, media_uri, duration_seconds, created_at
		FROM feedback_records ORDER BY created_at DESC LIMIT $1`
	if limit <= 0 {
		limit = 20
	}
	var out []Record
	if err := p.db.SelectContext(ctx, &out, q, limit); err != nil {
		return nil, fmt.Errorf("records: list recent: %w", err)
	}
	return out, nil
}

func (p *postgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := p.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM feedback_records`); err != nil {
		return 0, fmt.Errorf("records: count: %w", err)
	}
	return count, nil
}
