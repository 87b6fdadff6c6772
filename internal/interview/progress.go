package interview

import "context"

// TurnCounter reports how many turns a session has recorded.
type TurnCounter interface {
	CountTurns(ctx context.Context, sessionID, userID string) (int, error)
}

// Freshness reports whether a session is fresh.
type Freshness interface {
	IsFresh(interviewID, userID string) (bool, error)
}

// Progress answers "how many questions has this session answered". Fresh
// sessions always report zero so a restarted template interview starts from
// the top even when older turns still exist under a previous session ID.
type Progress struct {
	counter TurnCounter
	fresh   Freshness
}

// NewProgress creates a Progress reader.
func NewProgress(counter TurnCounter, fresh Freshness) *Progress {
	return &Progress{counter: counter, fresh: fresh}
}

// AnsweredCount returns the number of answered questions for the session.
func (p *Progress) AnsweredCount(ctx context.Context, interviewID, sessionID, userID string) (int, error) {
	fresh, err := p.fresh.IsFresh(interviewID, userID)
	if err != nil {
		return 0, err
	}
	if fresh {
		return 0, nil
	}
	return p.counter.CountTurns(ctx, sessionID, userID)
}

// Complete reports whether the session has answered every question.
func (p *Progress) Complete(ctx context.Context, interviewID, sessionID, userID string, totalQuestions int) (bool, error) {
	count, err := p.AnsweredCount(ctx, interviewID, sessionID, userID)
	if err != nil {
		return false, err
	}
	return totalQuestions > 0 && count >= totalQuestions, nil
}
