// Package postgres is the production rating store. The upsert rides on the
// unique index over (message_id, user_id, rating_type), so concurrent
// submissions for the same triple serialize inside the database instead of
// racing a lookup against a write.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/clockchat/clockchat/internal/rating"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) HealthCheck(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping ratings db: %w", err)
	}
	return nil
}

// GetOrCreate inserts the rating or, when the triple already exists, updates
// its value and feedback in place. The second return value reports whether a
// new row was created; xmax = 0 distinguishes the insert path from the
// conflict-update path.
func (r *Repository) GetOrCreate(ctx context.Context, in rating.Input) (rating.Rating, bool, error) {
	if err := in.Validate(); err != nil {
		return rating.Rating{}, false, err
	}

	query := `
INSERT INTO response_rating (message_id, user_id, rating_type, rating_value, feedback)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (message_id, user_id, rating_type)
DO UPDATE SET rating_value = EXCLUDED.rating_value, feedback = EXCLUDED.feedback, updated_at = now()
RETURNING rating_id, created_at, updated_at, (xmax = 0) AS inserted`

	stored := rating.Rating{
		MessageID: in.MessageID,
		UserID:    in.UserID,
		Type:      in.Type,
		Value:     in.Value,
		Feedback:  in.Feedback,
	}
	var inserted bool
	if err := r.db.QueryRowContext(ctx, query, in.MessageID, in.UserID, in.Type, in.Value, in.Feedback).
		Scan(&stored.ID, &stored.CreatedAt, &stored.UpdatedAt, &inserted); err != nil {
		return rating.Rating{}, false, fmt.Errorf("upsert rating: %w", err)
	}
	return stored, inserted, nil
}

// Stats aggregates ratings per value bucket, optionally filtered by type.
func (r *Repository) Stats(ctx context.Context, ratingType string) (rating.Stats, error) {
	query := `
SELECT rating_value, COUNT(*)
FROM response_rating
WHERE ($1 = '' OR rating_type = $1)
GROUP BY rating_value`

	rows, err := r.db.QueryContext(ctx, query, ratingType)
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

func (r *Repository) Close() error {
	return r.db.Close()
}
