package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateInterview inserts a new interview. If the ID is empty a UUID is
// assigned. Returns the stored interview.
func (db *DB) CreateInterview(ctx context.Context, interview *Interview) (*Interview, error) {
	if interview.ID == "" {
		interview.ID = uuid.NewString()
	}

	questions, err := json.Marshal(interview.Questions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode questions: %w", err)
	}

	err = db.pool.QueryRow(ctx,
		`INSERT INTO interviews (id, position, description, experience, tech_stack, difficulty, user_id, is_default, questions)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at, updated_at`,
		interview.ID, interview.Position, interview.Description, interview.Experience,
		interview.TechStack, interview.Difficulty, interview.UserID, interview.IsDefault, questions,
	).Scan(&interview.CreatedAt, &interview.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create interview: %w", err)
	}
	return interview, nil
}

// GetInterview retrieves an interview by ID. Returns (nil, nil) if not found.
func (db *DB) GetInterview(ctx context.Context, id string) (*Interview, error) {
	var (
		i         Interview
		questions []byte
	)
	err := db.pool.QueryRow(ctx,
		`SELECT id, position, description, experience, tech_stack, difficulty, user_id, is_default, questions, created_at, updated_at
		 FROM interviews WHERE id = $1`,
		id,
	).Scan(&i.ID, &i.Position, &i.Description, &i.Experience, &i.TechStack, &i.Difficulty,
		&i.UserID, &i.IsDefault, &questions, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get interview: %w", err)
	}

	if err := json.Unmarshal(questions, &i.Questions); err != nil {
		return nil, fmt.Errorf("failed to decode questions: %w", err)
	}
	return &i, nil
}

// ListInterviewsByUser returns all interviews owned by userID, newest first.
func (db *DB) ListInterviewsByUser(ctx context.Context, userID string) ([]Interview, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, position, description, experience, tech_stack, difficulty, user_id, is_default, questions, created_at, updated_at
		 FROM interviews WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list interviews: %w", err)
	}
	defer rows.Close()

	var interviews []Interview
	for rows.Next() {
		var (
			i         Interview
			questions []byte
		)
		if err := rows.Scan(&i.ID, &i.Position, &i.Description, &i.Experience, &i.TechStack,
			&i.Difficulty, &i.UserID, &i.IsDefault, &questions, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan interview: %w", err)
		}
		if err := json.Unmarshal(questions, &i.Questions); err != nil {
			return nil, fmt.Errorf("failed to decode questions: %w", err)
		}
		interviews = append(interviews, i)
	}
	return interviews, rows.Err()
}

// UpdateInterview overwrites the mutable fields of an interview.
func (db *DB) UpdateInterview(ctx context.Context, interview *Interview) error {
	questions, err := json.Marshal(interview.Questions)
	if err != nil {
		return fmt.Errorf("failed to encode questions: %w", err)
	}

	tag, err := db.pool.Exec(ctx,
		`UPDATE interviews
		 SET position = $1, description = $2, experience = $3, tech_stack = $4,
		     difficulty = $5, questions = $6, updated_at = NOW()
		 WHERE id = $7`,
		interview.Position, interview.Description, interview.Experience, interview.TechStack,
		interview.Difficulty, questions, interview.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update interview: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("interview not found: %s", interview.ID)
	}
	return nil
}

// UpdateInterviewQuestions replaces only the question set of an interview.
func (db *DB) UpdateInterviewQuestions(ctx context.Context, id string, questions []QuestionAnswer) error {
	encoded, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("failed to encode questions: %w", err)
	}

	tag, err := db.pool.Exec(ctx,
		`UPDATE interviews SET questions = $1, updated_at = NOW() WHERE id = $2`,
		encoded, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update interview questions: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("interview not found: %s", id)
	}
	return nil
}

// DeleteInterview removes an interview by ID.
func (db *DB) DeleteInterview(ctx context.Context, id string) error {
	_, err := db.pool.Exec(ctx, `DELETE FROM interviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete interview: %w", err)
	}
	return nil
}
