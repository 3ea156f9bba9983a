// Package store persists completed analyses in Postgres.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sqlc-dev/pqtype"
)

// ErrNotFound is returned when no analysis matches the requested ID.
var ErrNotFound = errors.New("analysis not found")

// Analysis is one persisted analysis run. Prediction is always
// present; the wasted-click, post-click, and funnel sections are only
// stored when the run produced them.
type Analysis struct {
	ID         uuid.UUID       `json:"id"`
	URL        string          `json:"url"`
	Device     string          `json:"device"`
	Prediction json.RawMessage `json:"prediction"`
	Wasted     json.RawMessage `json:"wasted,omitempty"`
	PostClick  json.RawMessage `json:"postClick,omitempty"`
	Funnel     json.RawMessage `json:"funnel,omitempty"`
	Fallback   bool            `json:"fallback"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Store wraps access to the database via a shared *sql.DB pool.
type Store struct {
	DB *sql.DB
}

func New(database *sql.DB) *Store {
	return &Store{DB: database}
}

// Ping verifies database connectivity for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func nullJSON(raw json.RawMessage) pqtype.NullRawMessage {
	if len(raw) == 0 {
		return pqtype.NullRawMessage{}
	}
	return pqtype.NullRawMessage{RawMessage: raw, Valid: true}
}

// SaveAnalysis inserts a completed analysis and returns its ID.
func (s *Store) SaveAnalysis(ctx context.Context, a Analysis) (uuid.UUID, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	const q = `
		INSERT INTO analyses (id, url, device, prediction, wasted, postclick, funnel, fallback, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.DB.ExecContext(ctx, q,
		a.ID, a.URL, a.Device,
		[]byte(a.Prediction),
		nullJSON(a.Wasted), nullJSON(a.PostClick), nullJSON(a.Funnel),
		a.Fallback, a.CreatedAt,
	)
	if err != nil {
		return uuid.Nil, err
	}
	return a.ID, nil
}

// GetAnalysis fetches one analysis by ID.
func (s *Store) GetAnalysis(ctx context.Context, id uuid.UUID) (Analysis, error) {
	const q = `
		SELECT id, url, device, prediction, wasted, postclick, funnel, fallback, created_at
		FROM analyses WHERE id = $1`

	var (
		a                         Analysis
		wasted, postclick, funnel pqtype.NullRawMessage
	)
	err := s.DB.QueryRowContext(ctx, q, id).Scan(
		&a.ID, &a.URL, &a.Device, &a.Prediction,
		&wasted, &postclick, &funnel,
		&a.Fallback, &a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Analysis{}, ErrNotFound
	}
	if err != nil {
		return Analysis{}, err
	}

	if wasted.Valid {
		a.Wasted = wasted.RawMessage
	}
	if postclick.Valid {
		a.PostClick = postclick.RawMessage
	}
	if funnel.Valid {
		a.Funnel = funnel.RawMessage
	}
	return a, nil
}

// ListAnalysesByURL returns the most recent analyses for a URL, newest
// first, up to limit.
func (s *Store) ListAnalysesByURL(ctx context.Context, url string, limit int32) ([]Analysis, error) {
	if limit <= 0 {
		limit = 20
	}

	const q = `
		SELECT id, url, device, prediction, wasted, postclick, funnel, fallback, created_at
		FROM analyses WHERE url = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.DB.QueryContext(ctx, q, url, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Analysis
	for rows.Next() {
		var (
			a                         Analysis
			wasted, postclick, funnel pqtype.NullRawMessage
		)
		if err := rows.Scan(
			&a.ID, &a.URL, &a.Device, &a.Prediction,
			&wasted, &postclick, &funnel,
			&a.Fallback, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		if wasted.Valid {
			a.Wasted = wasted.RawMessage
		}
		if postclick.Valid {
			a.PostClick = postclick.RawMessage
		}
		if funnel.Valid {
			a.Funnel = funnel.RawMessage
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
