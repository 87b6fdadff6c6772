package server

import (
	"net/http"

	"github.com/jonathan/interview-coach/internal/interview"
	"github.com/jonathan/interview-coach/internal/server/middleware"
)

// SessionResponse represents the response for session resolution
type SessionResponse struct {
	SessionID string `json:"session_id"`
	Fresh     bool   `json:"fresh"`
}

// ProgressResponse represents the response for interview progress
type ProgressResponse struct {
	SessionID string `json:"session_id"`
	Answered  int    `json:"answered"`
	Total     int    `json:"total"`
	Complete  bool   `json:"complete"`
}

// handleResolveSession returns the session ID for an interview, minting one
// if needed. Resolving also counts as activity, so an idle session that went
// stale comes back fresh.
func (s *Server) handleResolveSession(w http.ResponseWriter, r *http.Request) {
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

	if err := s.tracker.SyncActivity(iv.ID, uid); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Session error: "+err.Error())
		return
	}

	sessionID, err := s.sessions.SessionID(iv.ID, uid)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Session error: "+err.Error())
		return
	}

	fresh, err := s.tracker.IsFresh(iv.ID, uid)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Session error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, SessionResponse{
		SessionID: sessionID,
		Fresh:     fresh,
	})
}

// handleResetSession discards the current session and mints a new one
func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
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

	if err := s.sessions.Reset(iv.ID, uid); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Session error: "+err.Error())
		return
	}

	sessionID, err := s.sessions.SessionID(iv.ID, uid)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Session error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, SessionResponse{
		SessionID: sessionID,
		Fresh:     true,
	})
}

// handleGetProgress reports how many questions the current session answered
func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
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

	progress := interview.NewProgress(s.store, s.tracker)
	answered, err := progress.AnsweredCount(r.Context(), iv.ID, sessionID, uid)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	complete, err := progress.Complete(r.Context(), iv.ID, sessionID, uid, len(iv.Questions))
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, ProgressResponse{
		SessionID: sessionID,
		Answered:  answered,
		Total:     len(iv.Questions),
		Complete:  complete,
	})
}
