package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jonathan/interview-coach/internal/db"
	"github.com/jonathan/interview-coach/internal/interview"
	"github.com/jonathan/interview-coach/internal/server/middleware"
)

// SubmitAnswerRequest represents the request body for answering a question
type SubmitAnswerRequest struct {
	Question string `json:"question" validate:"required,min=1"`
	Answer   string `json:"answer" validate:"required,min=1"`
	Mode     string `json:"mode,omitempty" validate:"omitempty,oneof=recorded voice"`
}

// SkipRequest represents the request body for skipping a question
type SkipRequest struct {
	Question string `json:"question" validate:"required,min=1"`
}

// TurnResponse represents the recorded outcome of one question
type TurnResponse struct {
	SessionID      string `json:"session_id"`
	Answer         string `json:"answer"`
	Rating         int    `json:"rating"`
	Feedback       string `json:"feedback"`
	Persisted      bool   `json:"persisted"`
	Fallback       bool   `json:"fallback,omitempty"`
	AdvanceAfterMS int64  `json:"advance_after_ms,omitempty"`
}

// findQuestion locates a question within the interview's question set.
func findQuestion(iv *db.Interview, question string) *db.QuestionAnswer {
	for i := range iv.Questions {
		if iv.Questions[i].Question == question {
			return &iv.Questions[i]
		}
	}
	return nil
}

// handleSubmitAnswer scores and records an answer for the current session
func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
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

	var req SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	qa := findQuestion(iv, req.Question)
	if qa == nil {
		s.errorResponse(w, http.StatusNotFound, "Question is not part of this interview")
		return
	}

	sessionID, err := s.sessions.SessionID(iv.ID, uid)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Session error: "+err.Error())
		return
	}

	mode := interview.ModeRecorded
	if req.Mode == "voice" {
		mode = interview.ModeVoice
	}

	exec := interview.NewExecutor(s.scorer, s.store, s.tracker)
	outcome, err := exec.Submit(r.Context(), interview.Turn{
		InterviewID: iv.ID,
		SessionID:   sessionID,
		UserID:      uid,
		Question:    qa.Question,
		IdealAnswer: qa.Answer,
	}, req.Answer, mode)
	if err != nil {
		if errors.Is(err, interview.ErrAnswerTooShort) {
			s.errorResponse(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.errorResponse(w, http.StatusInternalServerError, "Failed to record answer: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, TurnResponse{
		SessionID: sessionID,
		Answer:    outcome.Answer,
		Rating:    outcome.Rating,
		Feedback:  outcome.Feedback,
		Persisted: outcome.Persisted,
		Fallback:  outcome.Kind == interview.ResultFallback,
	})
}

// handleSkipQuestion records a skipped question for the current session
func (s *Server) handleSkipQuestion(w http.ResponseWriter, r *http.Request) {
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

	var req SkipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	qa := findQuestion(iv, req.Question)
	if qa == nil {
		s.errorResponse(w, http.StatusNotFound, "Question is not part of this interview")
		return
	}

	sessionID, err := s.sessions.SessionID(iv.ID, uid)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Session error: "+err.Error())
		return
	}

	exec := interview.NewExecutor(s.scorer, s.store, s.tracker)
	outcome := exec.Skip(r.Context(), interview.Turn{
		InterviewID: iv.ID,
		SessionID:   sessionID,
		UserID:      uid,
		Question:    qa.Question,
		IdealAnswer: qa.Answer,
	})

	s.jsonResponse(w, http.StatusOK, TurnResponse{
		SessionID:      sessionID,
		Answer:         outcome.Answer,
		Rating:         outcome.Rating,
		Feedback:       outcome.Feedback,
		Persisted:      outcome.Persisted,
		AdvanceAfterMS: outcome.AdvanceAfter.Milliseconds(),
	})
}
