package server

import (
	"net/http"

	"github.com/jonathan/interview-coach/internal/db"
	"github.com/jonathan/interview-coach/internal/server/middleware"
	"golang.org/x/sync/errgroup"
)

// FeedbackResponse represents the per-question feedback and the overall
// rating for a session. OverallRating is the mean of the turn ratings with
// one decimal, "0.0" when nothing was answered.
type FeedbackResponse struct {
	SessionID     string    `json:"session_id"`
	Turns         []db.Turn `json:"turns"`
	OverallRating string    `json:"overall_rating"`
}

// handleGetFeedback returns the recorded turns and aggregate rating for the
// current session
func (s *Server) handleGetFeedback(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	uid := userID.String()

	iv := s.getOwnedInterview(w, r, uid)
	if iv == nil {
		return
	}

	sessionID, err := s.sessions.SessionID(iv.ID, uid)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Session error: "+err.Error())
		return
	}

	// The turn list and the aggregate are independent queries.
	var (
		turns   []db.Turn
		overall string
	)
	g, gctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		turns, err = s.store.ListTurns(gctx, sessionID, uid)
		return err
	})
	g.Go(func() error {
		var err error
		overall, err = s.store.SessionAggregate(gctx, sessionID, uid)
		return err
	})
	if err := g.Wait(); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	if turns == nil {
		turns = []db.Turn{}
	}

	s.jsonResponse(w, http.StatusOK, FeedbackResponse{
		SessionID:     sessionID,
		Turns:         turns,
		OverallRating: overall,
	})
}
