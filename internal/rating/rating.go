// Package rating stores user feedback on bot responses. One rating exists per
// (message, user, type) triple; submitting again updates the row in place.
package rating

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	ValueBad  = "bad"
	ValueOK   = "ok"
	ValueGood = "good"
)

var ErrInvalidValue = errors.New("rating value must be bad, ok or good")

// Rating is one stored feedback row.
type Rating struct {
	ID        int64     `json:"id"`
	MessageID string    `json:"message_id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Value     string    `json:"value"`
	Feedback  string    `json:"feedback,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Input is the submission payload for GetOrCreate.
type Input struct {
	MessageID string
	UserID    string
	Type      string
	Value     string
	Feedback  string
}

func (in Input) Validate() error {
	if in.MessageID == "" {
		return fmt.Errorf("message id is required")
	}
	if in.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	if in.Type == "" {
		return fmt.Errorf("rating type is required")
	}
	if !ValidValue(in.Value) {
		return ErrInvalidValue
	}
	return nil
}

func ValidValue(value string) bool {
	return value == ValueBad || value == ValueOK || value == ValueGood
}

// Weight maps a value bucket to its score for averaging.
func Weight(value string) int {
	switch value {
	case ValueBad:
		return 1
	case ValueOK:
		return 2
	case ValueGood:
		return 3
	default:
		return 0
	}
}

// Stats aggregates ratings per value bucket. Percentages are rounded to
// whole numbers, the average uses the bucket weights.
type Stats struct {
	Total       int            `json:"total"`
	Counts      map[string]int `json:"counts"`
	Percentages map[string]int `json:"percentages"`
	Average     float64        `json:"average"`
}

// Store is the persistence surface. GetOrCreate must be a single atomic
// conditional upsert keyed on the uniqueness triple, so concurrent calls for
// the same triple cannot race a lookup against a write.
type Store interface {
	GetOrCreate(ctx context.Context, in Input) (Rating, bool, error)
	Stats(ctx context.Context, ratingType string) (Stats, error)
	Close() error
}

// ComputeStats builds the aggregate view from per-bucket counts. Both store
// backends share it so the math lives in one place.
func ComputeStats(counts map[string]int) Stats {
	stats := Stats{
		Counts:      map[string]int{ValueBad: 0, ValueOK: 0, ValueGood: 0},
		Percentages: map[string]int{ValueBad: 0, ValueOK: 0, ValueGood: 0},
	}
	weighted := 0
	for value, count := range counts {
		if !ValidValue(value) || count < 0 {
			continue
		}
		stats.Counts[value] = count
		stats.Total += count
		weighted += Weight(value) * count
	}
	if stats.Total == 0 {
		return stats
	}
	for value, count := range stats.Counts {
		stats.Percentages[value] = int(math.Round(float64(count) * 100 / float64(stats.Total)))
	}
	stats.Average = float64(weighted) / float64(stats.Total)
	return stats
}
