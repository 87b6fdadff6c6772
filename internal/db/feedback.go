package db

import (
	"context"
	"fmt"
)

// AggregateRating computes the mean of the given ratings formatted to one
// decimal place. An empty slice yields "0.0".
func AggregateRating(ratings []int) string {
	if len(ratings) == 0 {
		return "0.0"
	}

	sum := 0
	for _, r := range ratings {
		sum += r
	}
	mean := float64(sum) / float64(len(ratings))
	return fmt.Sprintf("%.1f", mean)
}

// SessionAggregate returns the overall rating for a session, derived from its
// recorded turns.
func (db *DB) SessionAggregate(ctx context.Context, sessionID, userID string) (string, error) {
	turns, err := db.ListTurns(ctx, sessionID, userID)
	if err != nil {
		return "", err
	}

	ratings := make([]int, 0, len(turns))
	for _, t := range turns {
		ratings = append(ratings, t.Rating)
	}
	return AggregateRating(ratings), nil
}
