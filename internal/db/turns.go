package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// FindTurn looks up the turn for a (session, question, user) triple.
// Returns (nil, nil) if no turn exists yet.
func (db *DB) FindTurn(ctx context.Context, sessionID, question, userID string) (*Turn, error) {
	var t Turn
	err := db.pool.QueryRow(ctx,
		`SELECT id, session_id, question, ideal_answer, candidate_answer, rating, feedback, user_id, created_at, updated_at
		 FROM turns
		 WHERE session_id = $1 AND question = $2 AND user_id = $3
		 LIMIT 1`,
		sessionID, question, userID,
	).Scan(&t.ID, &t.SessionID, &t.Question, &t.IdealAnswer, &t.CandidateAnswer,
		&t.Rating, &t.Feedback, &t.UserID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find turn: %w", err)
	}
	return &t, nil
}

// UpsertTurn records the outcome of one question. If a turn already exists
// for the (session, question, user) triple its answer, rating, and feedback
// are overwritten; otherwise a new turn is inserted. The lookup and write are
// separate statements, so concurrent writers to the same triple can race.
// Returns true if an existing turn was updated.
func (db *DB) UpsertTurn(ctx context.Context, input TurnInput) (bool, error) {
	existing, err := db.FindTurn(ctx, input.SessionID, input.Question, input.UserID)
	if err != nil {
		return false, err
	}

	if existing != nil {
		_, err := db.pool.Exec(ctx,
			`UPDATE turns
			 SET candidate_answer = $1, rating = $2, feedback = $3, updated_at = NOW()
			 WHERE id = $4`,
			input.CandidateAnswer, input.Rating, input.Feedback, existing.ID,
		)
		if err != nil {
			return false, fmt.Errorf("failed to update turn: %w", err)
		}
		return true, nil
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO turns (session_id, question, ideal_answer, candidate_answer, rating, feedback, user_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		input.SessionID, input.Question, input.IdealAnswer, input.CandidateAnswer,
		input.Rating, input.Feedback, input.UserID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert turn: %w", err)
	}
	return false, nil
}

// CountTurns returns the number of turns recorded for a session.
func (db *DB) CountTurns(ctx context.Context, sessionID, userID string) (int, error) {
	var count int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM turns WHERE session_id = $1 AND user_id = $2`,
		sessionID, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count turns: %w", err)
	}
	return count, nil
}

// ListTurns returns all turns for a session in insertion order.
func (db *DB) ListTurns(ctx context.Context, sessionID, userID string) ([]Turn, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, session_id, question, ideal_answer, candidate_answer, rating, feedback, user_id, created_at, updated_at
		 FROM turns
		 WHERE session_id = $1 AND user_id = $2
		 ORDER BY created_at ASC`,
		sessionID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Question, &t.IdealAnswer, &t.CandidateAnswer,
			&t.Rating, &t.Feedback, &t.UserID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}
