package publish

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// PostgresUserStore keeps image URLs in a users table keyed by user_id.
type PostgresUserStore struct {
	db *sql.DB
}

func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return db, nil
}

func NewPostgresUserStore(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

const (
	createUsersTable = `CREATE TABLE IF NOT EXISTS users (
	user_id   TEXT PRIMARY KEY,
	image_url TEXT NOT NULL
)`
	upsertImageURL = `INSERT INTO users (user_id, image_url) VALUES ($1, $2)
ON CONFLICT (user_id) DO UPDATE SET image_url = EXCLUDED.image_url`
)

func (s *PostgresUserStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", describePQ(err))
	}
	return nil
}

func (s *PostgresUserStore) UpsertImageURL(ctx context.Context, userID, url string) error {
	if _, err := s.db.ExecContext(ctx, upsertImageURL, userID, url); err != nil {
		return fmt.Errorf("upsert image url: %w", describePQ(err))
	}
	return nil
}

func (s *PostgresUserStore) Close() error { return s.db.Close() }

// describePQ adds the SQLSTATE to server-side errors.
func describePQ(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("%w (sqlstate %s)", err, pqErr.Code)
	}
	return err
}
