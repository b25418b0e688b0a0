package leaderboard

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/playperu/fingergame/internal/fingergame"
)

// Store keeps result records in a libSQL table with a JSONB data column.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ Client = (*Store)(nil)

func NewStore(ctx context.Context, db *sql.DB) (*Store, error) {
	for _, ddl := range []string{
		`CREATE TABLE IF NOT EXISTS results (
			id     TEXT PRIMARY KEY,
			name   TEXT NOT NULL,
			result INTEGER NOT NULL,
			data   JSONB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS results_result_name ON results (result, name)`,
	} {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return nil, fmt.Errorf("creating results table: %w", err)
		}
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) ReportResult(ctx context.Context, r fingergame.Result) (string, error) {
	r.ID = uuid.NewString()
	if r.RecordedAt.IsZero() {
		r.RecordedAt = s.now().UTC()
	}

	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("%w: encoding result: %w", fingergame.ErrExternalStore, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO results (id, name, result, data) VALUES (?, ?, ?, jsonb(?))`,
		r.ID, DisplayName(r.Name), r.Result, string(data),
	)
	if err != nil {
		return "", fmt.Errorf("%w: inserting result: %w", fingergame.ErrExternalStore, err)
	}
	return r.ID, nil
}

func (s *Store) FetchWinCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, COUNT(*) FROM results
		WHERE result = 1
		GROUP BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying wins: %w", fingergame.ErrExternalStore, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			name string
			n    int
		)
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("%w: scanning wins: %w", fingergame.ErrExternalStore, err)
		}
		counts[DisplayName(name)] += n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading wins: %w", fingergame.ErrExternalStore, err)
	}
	return counts, nil
}

// Get returns one stored record.
func (s *Store) Get(ctx context.Context, id string) (fingergame.Result, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT json(data) FROM results WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return fingergame.Result{}, fmt.Errorf("result %q: %w", id, fingergame.ErrNotFound)
	}
	if err != nil {
		return fingergame.Result{}, fmt.Errorf("%w: reading result: %w", fingergame.ErrExternalStore, err)
	}
	var r fingergame.Result
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return fingergame.Result{}, fmt.Errorf("%w: decoding result: %w", fingergame.ErrExternalStore, err)
	}
	return r, nil
}

// Check pings the database; it satisfies health.Checker.
func (s *Store) Check(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
