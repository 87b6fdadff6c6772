package db

import (
	"time"

	"github.com/google/uuid"
)

// DefaultUserID is the owner sentinel for built-in interview templates.
const DefaultUserID = "default"

// User represents a user account
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"-"` // Never serialize to JSON
	PasswordSet  bool      `json:"password_set"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// QuestionAnswer is one interview question with its ideal answer.
type QuestionAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Interview represents an interview definition, either user-created or a
// built-in template. Template IDs carry the "default-" prefix and are owned
// by DefaultUserID.
type Interview struct {
	ID          string           `json:"id"`
	Position    string           `json:"position"`
	Description string           `json:"description"`
	Experience  int              `json:"experience"`
	TechStack   string           `json:"tech_stack"`
	Difficulty  string           `json:"difficulty"`
	UserID      string           `json:"user_id"`
	IsDefault   bool             `json:"is_default"`
	Questions   []QuestionAnswer `json:"questions"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Turn is the recorded outcome of one question within a session: the
// candidate's answer, its rating, and the feedback text. At most one Turn
// exists per (session, question, user).
type Turn struct {
	ID              uuid.UUID `json:"id"`
	SessionID       string    `json:"session_id"`
	Question        string    `json:"question"`
	IdealAnswer     string    `json:"ideal_answer"`
	CandidateAnswer string    `json:"candidate_answer"`
	Rating          int       `json:"rating"`
	Feedback        string    `json:"feedback"`
	UserID          string    `json:"user_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TurnInput carries the fields written by an upsert.
type TurnInput struct {
	SessionID       string
	Question        string
	IdealAnswer     string
	CandidateAnswer string
	Rating          int
	Feedback        string
	UserID          string
}
