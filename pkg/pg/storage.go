package pg

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var tableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Storage is a draft.Storage backed by a PostgreSQL table created by Migrate.
type Storage struct {
	pool  *pgxpool.Pool
	table string
}

// NewStorage returns a Storage over table, defaulting to "onboarding_drafts".
// The table name is interpolated into SQL, so it is restricted to lowercase
// identifiers.
func NewStorage(pool *pgxpool.Pool, table string) (*Storage, error) {
	if table == "" {
		table = "onboarding_drafts"
	}
	if !tableNameRegex.MatchString(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTableName, table)
	}
	return &Storage{pool: pool, table: table}, nil
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	var val []byte
	err := s.pool.QueryRow(ctx, "SELECT value FROM "+s.table+" WHERE key = $1", key).Scan(&val)
	if IsNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select draft: %w", err)
	}
	return val, nil
}

func (s *Storage) Set(ctx context.Context, key string, val []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	_, err := s.pool.Exec(ctx,
		"INSERT INTO "+s.table+" (key, value, updated_at) VALUES ($1, $2, now()) "+
			"ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at",
		key, val)
	if err != nil {
		return fmt.Errorf("upsert draft: %w", err)
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM "+s.table+" WHERE key = $1", key); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

func (s *Storage) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT key FROM "+s.table+" WHERE left(key, char_length($1)) = $1", prefix)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	return keys, nil
}
