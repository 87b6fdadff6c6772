// Package interview drives a turn-based interview session: capture an answer,
// score it, persist the turn, advance. Scoring and persistence failures
// degrade the session instead of stopping it; only validation and capture
// permission problems block the user.
package interview

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/jonathan/interview-coach/internal/db"
	"github.com/jonathan/interview-coach/internal/scoring"
)

// MinAnswerLength is the minimum accepted answer length for typed/recorded
// submissions. Voice transcripts are exempt.
const MinAnswerLength = 30

// Skip sentinel values written for skipped questions.
const (
	SkipAnswer   = "(Question skipped)"
	SkipFeedback = "This question was skipped during the interview."
)

// SkipAdvanceDelay is how long the skip confirmation stays visible before the
// session advances.
const SkipAdvanceDelay = 1500 * time.Millisecond

// ErrAnswerTooShort rejects recorded-mode submissions at or under
// MinAnswerLength characters.
var ErrAnswerTooShort = errors.New("Your answer should be more than 30 characters")

// State is the executor's position within one turn.
type State int

// Turn executor states.
const (
	StateIdle State = iota
	StateCapturing
	StateScoring
	StatePersisted
	StateSkipped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateScoring:
		return "scoring"
	case StatePersisted:
		return "persisted"
	case StateSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// ResultKind classifies how a turn concluded.
type ResultKind int

// Turn result variants.
const (
	// ResultSuccess means the answer was scored by the provider and recorded.
	ResultSuccess ResultKind = iota
	// ResultFallback means the provider was unavailable and the canned
	// evaluation was recorded instead.
	ResultFallback
	// ResultValidationRejected means the answer was too short; nothing was
	// scored or persisted and the user may resubmit.
	ResultValidationRejected
	// ResultPermissionDenied means audio capture was refused; the turn is
	// blocked until the user grants access.
	ResultPermissionDenied
	// ResultTimedOut means capture produced no input within the wait window;
	// the turn stays re-enterable.
	ResultTimedOut
)

// Mode distinguishes typed/recorded submissions from voice transcripts.
type Mode int

// Submission modes.
const (
	ModeRecorded Mode = iota
	ModeVoice
)

// Turn identifies one question within a resolved session.
type Turn struct {
	InterviewID string // raw interview or template ID
	SessionID   string // resolved session namespace for persistence
	UserID      string
	Question    string
	IdealAnswer string
}

// Outcome is the conclusion of one executor operation.
type Outcome struct {
	Kind     ResultKind
	Answer   string
	Rating   int
	Feedback string
	// Persisted is false when the turn write failed; the session continues
	// regardless.
	Persisted bool
	// AdvanceAfter is a cosmetic delay before the session moves to the next
	// question. Zero means the caller advances on its own terms.
	AdvanceAfter time.Duration
}

// Scorer grades one answer. Implementations never fail outward.
type Scorer interface {
	Score(ctx context.Context, question, idealAnswer, candidateAnswer string) *scoring.Result
}

// TurnGateway persists turn records. Reports whether an existing record was
// updated.
type TurnGateway interface {
	UpsertTurn(ctx context.Context, input db.TurnInput) (bool, error)
}

// FreshnessTracker is notified when a session records its first answer.
type FreshnessTracker interface {
	MarkUsed(interviewID, userID string) error
}

// Executor runs the turn state machine. Safe for concurrent use; the voice
// driver mutates state from background score-and-persist goroutines.
type Executor struct {
	scorer  Scorer
	gateway TurnGateway
	tracker FreshnessTracker
	logger  *log.Logger

	mu    sync.Mutex
	state State
}

// NewExecutor creates an Executor. tracker may be nil for sessions without
// freshness tracking.
func NewExecutor(scorer Scorer, gateway TurnGateway, tracker FreshnessTracker) *Executor {
	return &Executor{
		scorer:  scorer,
		gateway: gateway,
		tracker: tracker,
		logger:  log.Default(),
		state:   StateIdle,
	}
}

// State returns the executor's current state.
func (e *Executor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Executor) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// BeginCapture marks the executor as waiting for candidate input.
func (e *Executor) BeginCapture() {
	e.setState(StateCapturing)
}

// Submit scores and records an answer for the turn. Recorded-mode answers at
// or under MinAnswerLength characters are rejected with ErrAnswerTooShort and
// leave no trace. Scoring never fails; persistence failures are logged and
// the outcome reports Persisted=false.
func (e *Executor) Submit(ctx context.Context, turn Turn, answer string, mode Mode) (*Outcome, error) {
	if mode == ModeRecorded && utf8.RuneCountInString(strings.TrimSpace(answer)) <= MinAnswerLength {
		e.setState(StateIdle)
		return &Outcome{Kind: ResultValidationRejected, Answer: answer}, ErrAnswerTooShort
	}

	e.setState(StateScoring)
	result := e.scorer.Score(ctx, turn.Question, turn.IdealAnswer, answer)

	kind := ResultSuccess
	if result.Fallback {
		kind = ResultFallback
	}

	persisted := e.persist(ctx, turn, answer, result.Rating, result.Feedback)
	e.setState(StatePersisted)

	return &Outcome{
		Kind:      kind,
		Answer:    answer,
		Rating:    result.Rating,
		Feedback:  result.Feedback,
		Persisted: persisted,
	}, nil
}

// Skip records the turn as skipped without capturing or scoring, then signals
// advancement after SkipAdvanceDelay.
func (e *Executor) Skip(ctx context.Context, turn Turn) *Outcome {
	persisted := e.persist(ctx, turn, SkipAnswer, 0, SkipFeedback)
	e.setState(StateSkipped)

	return &Outcome{
		Kind:         ResultSuccess,
		Answer:       SkipAnswer,
		Rating:       0,
		Feedback:     SkipFeedback,
		Persisted:    persisted,
		AdvanceAfter: SkipAdvanceDelay,
	}
}

// persist upserts the turn record and marks the session used on first insert.
// Errors are logged and swallowed; the session must keep going.
func (e *Executor) persist(ctx context.Context, turn Turn, answer string, rating int, feedback string) bool {
	updated, err := e.gateway.UpsertTurn(ctx, db.TurnInput{
		SessionID:       turn.SessionID,
		Question:        turn.Question,
		IdealAnswer:     turn.IdealAnswer,
		CandidateAnswer: answer,
		Rating:          rating,
		Feedback:        feedback,
		UserID:          turn.UserID,
	})
	if err != nil {
		e.logger.Printf("failed to persist turn for session %s: %v", turn.SessionID, err)
		return false
	}

	if !updated && e.tracker != nil {
		if err := e.tracker.MarkUsed(turn.InterviewID, turn.UserID); err != nil {
			e.logger.Printf("failed to mark session used: %v", err)
		}
	}
	return true
}
