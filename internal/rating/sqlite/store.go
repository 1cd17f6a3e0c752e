// Package sqlite is the single-node rating store used by the dev profile. It
// keeps the same atomic upsert contract as the postgres backend without
// requiring a running database server.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/clockchat/clockchat/internal/rating"
)

const schema = `
CREATE TABLE IF NOT EXISTS response_rating (
	rating_id    INTEGER PRIMARY KEY AUTOINCREMENT,
	message_id   TEXT NOT NULL,
	user_id      TEXT NOT NULL,
	rating_type  TEXT NOT NULL,
	rating_value TEXT NOT NULL,
	feedback     TEXT NOT NULL DEFAULT '',
	created_at   INTEGER NOT NULL,
	updated_at   INTEGER NOT NULL,
	UNIQUE (message_id, user_id, rating_type)
);`

type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open creates or opens the rating database at the given path and applies
// the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("ratings sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ratings data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ratings db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply ratings schema: %w", err)
	}

	return &Store{db: db, path: path, now: time.Now}, nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping ratings db: %w", err)
	}
	return nil
}

// GetOrCreate upserts the rating keyed on (message_id, user_id, rating_type).
// The insert path stores the submission timestamp in both columns; on
// conflict only updated_at moves, so a returned created_at equal to the
// submitted timestamp identifies a fresh row.
func (s *Store) GetOrCreate(ctx context.Context, in rating.Input) (rating.Rating, bool, error) {
	if err := in.Validate(); err != nil {
		return rating.Rating{}, false, err
	}

	now := s.now().UTC()
	query := `
INSERT INTO response_rating (message_id, user_id, rating_type, rating_value, feedback, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (message_id, user_id, rating_type)
DO UPDATE SET rating_value = excluded.rating_value, feedback = excluded.feedback, updated_at = excluded.updated_at
RETURNING rating_id, created_at, updated_at`

	stored := rating.Rating{
		MessageID: in.MessageID,
		UserID:    in.UserID,
		Type:      in.Type,
		Value:     in.Value,
		Feedback:  in.Feedback,
	}
	var createdAt, updatedAt int64
	if err := s.db.QueryRowContext(ctx, query,
		in.MessageID, in.UserID, in.Type, in.Value, in.Feedback, now.UnixNano(), now.UnixNano()).
		Scan(&stored.ID, &createdAt, &updatedAt); err != nil {
		return rating.Rating{}, false, fmt.Errorf("upsert rating: %w", err)
	}
	stored.CreatedAt = time.Unix(0, createdAt).UTC()
	stored.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return stored, createdAt == now.UnixNano(), nil
}

func (s *Store) Stats(ctx context.Context, ratingType string) (rating.Stats, error) {
	query := `
SELECT rating_value, COUNT(*)
FROM response_rating
WHERE (? = '' OR rating_type = ?)
GROUP BY rating_value`

	rows, err := s.db.QueryContext(ctx, query, ratingType, ratingType)
	if err != nil {
		return rating.Stats{}, fmt.Errorf("query rating stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var value string
		var count int
		if err := rows.Scan(&value, &count); err != nil {
			return rating.Stats{}, fmt.Errorf("scan rating stats row: %w", err)
		}
		counts[value] = count
	}
	if err := rows.Err(); err != nil {
		return rating.Stats{}, fmt.Errorf("iterate rating stats rows: %w", err)
	}
	return rating.ComputeStats(counts), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
