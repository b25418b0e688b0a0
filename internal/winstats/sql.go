package winstats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SQLBackend stores values in a libSQL key/value table.
type SQLBackend struct {
	db *sql.DB
}

func NewSQLBackend(ctx context.Context, db *sql.DB) (*SQLBackend, error) {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS local_storage (
		key  TEXT PRIMARY KEY,
		data JSONB NOT NULL
	)`)
	if err != nil {
		return nil, fmt.Errorf("creating local_storage table: %w", err)
	}
	return &SQLBackend{db: db}, nil
}

func (b *SQLBackend) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var data string
	err := b.db.QueryRowContext(ctx, `SELECT json(data) FROM local_storage WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(data), true, nil
}

func (b *SQLBackend) Save(ctx context.Context, key string, data []byte) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO local_storage (key, data) VALUES (?, jsonb(?))
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data`,
		key, string(data),
	)
	return err
}
