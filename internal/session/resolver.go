package session

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"
)

// TemplatePrefix marks interview IDs that refer to built-in templates rather
// than user-created interviews. Only template interviews get per-session
// identity; user interviews use their ID as-is.
const TemplatePrefix = "default-"

// StaleAfter is how long a session may sit idle before a page load treats it
// as abandoned and forces a fresh one.
const StaleAfter = 5 * time.Minute

// IsTemplate reports whether id refers to a built-in interview template.
func IsTemplate(id string) bool {
	return strings.HasPrefix(id, TemplatePrefix)
}

func tokenKey(interviewID, userID string) string {
	return fmt.Sprintf("interview_session_%s_%s", interviewID, userID)
}

func freshKey(interviewID, userID string) string {
	return fmt.Sprintf("fresh_session_%s_%s", interviewID, userID)
}

func activityKey(interviewID, userID string) string {
	return fmt.Sprintf("last_activity_%s_%s", interviewID, userID)
}

// Resolver maps (interviewID, userID) pairs to session-scoped IDs used as the
// transcript namespace.
type Resolver struct {
	store Store
	now   func() time.Time
	rand  *rand.Rand
}

// NewResolver creates a Resolver backed by store.
func NewResolver(store Store) *Resolver {
	return &Resolver{
		store: store,
		now:   time.Now,
		rand:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SessionID resolves the ID under which turns for this interview are
// recorded. Non-template interviews resolve to their own ID. Template
// interviews resolve to "<interviewID>-<userID>-<token>", minting a token and
// marking the session fresh if none exists yet.
func (r *Resolver) SessionID(interviewID, userID string) (string, error) {
	if !IsTemplate(interviewID) {
		return interviewID, nil
	}

	token, err := r.store.Get(tokenKey(interviewID, userID))
	if err != nil {
		return "", err
	}

	if token == "" {
		token = r.newToken()
		if err := r.store.Set(tokenKey(interviewID, userID), token); err != nil {
			return "", err
		}
		if err := r.store.Set(freshKey(interviewID, userID), "true"); err != nil {
			return "", err
		}
	}

	return fmt.Sprintf("%s-%s-%s", interviewID, userID, token), nil
}

// Reset discards the current session and mints a new fresh one. Used by the
// "start fresh" action. Non-template interviews are unaffected.
func (r *Resolver) Reset(interviewID, userID string) error {
	if !IsTemplate(interviewID) {
		return nil
	}

	if err := r.store.Delete(tokenKey(interviewID, userID)); err != nil {
		return err
	}
	if err := r.store.Delete(freshKey(interviewID, userID)); err != nil {
		return err
	}

	if err := r.store.Set(tokenKey(interviewID, userID), r.newToken()); err != nil {
		return err
	}
	return r.store.Set(freshKey(interviewID, userID), "true")
}

// newToken mints a "<unix-millis>-<7 base36 chars>" session token.
func (r *Resolver) newToken() string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffix := make([]byte, 7)
	for i := range suffix {
		suffix[i] = alphabet[r.rand.Intn(len(alphabet))]
	}
	return fmt.Sprintf("%d-%s", r.now().UnixMilli(), suffix)
}

// Tracker maintains the freshness state of template interview sessions. A
// fresh session reports zero progress regardless of any persisted turns; the
// flag is cleared the first time an answer is recorded.
type Tracker struct {
	store Store
	now   func() time.Time
}

// NewTracker creates a Tracker backed by store.
func NewTracker(store Store) *Tracker {
	return &Tracker{store: store, now: time.Now}
}

// IsFresh reports whether the session has not yet recorded any answer.
// Non-template interviews are never fresh.
func (t *Tracker) IsFresh(interviewID, userID string) (bool, error) {
	if !IsTemplate(interviewID) {
		return false, nil
	}
	value, err := t.store.Get(freshKey(interviewID, userID))
	if err != nil {
		return false, err
	}
	return value == "true", nil
}

// SyncActivity is called on session load. If the last recorded activity is
// older than StaleAfter (or absent), the session is forced fresh. The
// activity timestamp is restamped either way.
func (t *Tracker) SyncActivity(interviewID, userID string) error {
	if !IsTemplate(interviewID) {
		return nil
	}

	now := t.now()
	last, err := t.store.Get(activityKey(interviewID, userID))
	if err != nil {
		return err
	}

	stale := true
	if last != "" {
		if millis, perr := strconv.ParseInt(last, 10, 64); perr == nil {
			stale = millis < now.Add(-StaleAfter).UnixMilli()
		}
	}

	if stale {
		if err := t.store.Set(freshKey(interviewID, userID), "true"); err != nil {
			return err
		}
	}

	return t.store.Set(activityKey(interviewID, userID), strconv.FormatInt(now.UnixMilli(), 10))
}

// MarkUsed clears the fresh flag and stamps activity. Called after the first
// answer of a session is persisted.
func (t *Tracker) MarkUsed(interviewID, userID string) error {
	if !IsTemplate(interviewID) {
		return nil
	}

	if err := t.store.Delete(freshKey(interviewID, userID)); err != nil {
		return err
	}
	return t.store.Set(activityKey(interviewID, userID), strconv.FormatInt(t.now().UnixMilli(), 10))
}
