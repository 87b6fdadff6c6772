package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/interview-coach/internal/db"
	"github.com/jonathan/interview-coach/internal/scoring"
	"github.com/jonathan/interview-coach/internal/server/middleware"
)

var validate = validator.New()

// InterviewRequest represents the request body for creating or updating an interview
type InterviewRequest struct {
	Position    string `json:"position" validate:"required,min=1"`
	Description string `json:"description,omitempty"`
	Experience  int    `json:"experience" validate:"min=0"`
	TechStack   string `json:"tech_stack" validate:"required,min=1"`
	Difficulty  string `json:"difficulty,omitempty" validate:"omitempty,oneof=Easy Moderate Difficult"`
}

// InterviewResponse wraps an interview with an optional notice when curated
// fallback questions were used instead of generated ones.
type InterviewResponse struct {
	Interview       *db.Interview `json:"interview"`
	FallbackMessage string        `json:"fallback_message,omitempty"`
}

// CreateFromURLRequest represents the request body for /interviews/from-url
type CreateFromURLRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// ListInterviewsResponse represents the response for listing interviews
type ListInterviewsResponse struct {
	Interviews []db.Interview `json:"interviews"`
	Templates  []db.Interview `json:"templates"`
}

func (r *InterviewRequest) profile() scoring.JobProfile {
	difficulty := scoring.Difficulty(r.Difficulty)
	if r.Difficulty == "" {
		difficulty = scoring.DifficultyModerate
	}
	return scoring.JobProfile{
		Position:    r.Position,
		Description: r.Description,
		Experience:  r.Experience,
		TechStack:   r.TechStack,
		Difficulty:  difficulty,
	}
}

// generateQuestions produces the question set for a profile. A generation
// failure is not fatal; the curated bank serves instead and the response
// carries the fallback notice.
func (s *Server) generateQuestions(r *http.Request, profile scoring.JobProfile) ([]db.QuestionAnswer, string) {
	questions, err := s.generator.Generate(r.Context(), profile)
	if err != nil {
		log.Printf("question generation failed, using curated questions: %v", err)
		return toDBQuestions(scoring.FallbackQuestions(profile)), scoring.FallbackMessage
	}
	return toDBQuestions(scoring.Shuffle(questions)), ""
}

func toDBQuestions(questions []scoring.QuestionAnswer) []db.QuestionAnswer {
	converted := make([]db.QuestionAnswer, len(questions))
	for i, q := range questions {
		converted[i] = db.QuestionAnswer{Question: q.Question, Answer: q.Answer}
	}
	return converted
}

// handleListInterviews lists the user's interviews and the built-in templates
func (s *Server) handleListInterviews(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	interviews, err := s.store.ListInterviewsByUser(r.Context(), userID.String())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	templates, err := s.store.ListInterviewsByUser(r.Context(), db.DefaultUserID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, ListInterviewsResponse{
		Interviews: interviews,
		Templates:  templates,
	})
}

// handleCreateInterview creates an interview with generated questions
func (s *Server) handleCreateInterview(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req InterviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	profile := req.profile()
	questions, fallbackMessage := s.generateQuestions(r, profile)

	created, err := s.store.CreateInterview(r.Context(), &db.Interview{
		Position:    profile.Position,
		Description: profile.Description,
		Experience:  profile.Experience,
		TechStack:   profile.TechStack,
		Difficulty:  string(profile.Difficulty),
		UserID:      userID.String(),
		Questions:   questions,
	})
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusCreated, InterviewResponse{
		Interview:       created,
		FallbackMessage: fallbackMessage,
	})
}

// handleCreateInterviewFromURL builds an interview from a job posting URL
func (s *Server) handleCreateInterviewFromURL(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreateFromURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	posting, err := s.ingester.Posting(r.Context(), req.URL)
	if err != nil {
		s.errorResponse(w, http.StatusBadGateway, "Failed to fetch job posting: "+err.Error())
		return
	}
	if posting.Title == "" {
		s.errorResponse(w, http.StatusUnprocessableEntity, "Could not extract a position from the job posting")
		return
	}

	questions, fallbackMessage := s.generateQuestions(r, posting.Profile())

	draft := posting.Draft(userID.String())
	draft.Questions = questions

	created, err := s.store.CreateInterview(r.Context(), draft)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusCreated, InterviewResponse{
		Interview:       created,
		FallbackMessage: fallbackMessage,
	})
}

// getOwnedInterview loads an interview and checks the caller may see it.
// Templates are visible to everyone; private interviews only to their owner.
// A missing interview and a foreign one both read as not found.
func (s *Server) getOwnedInterview(w http.ResponseWriter, r *http.Request, userID string) *db.Interview {
	id := r.PathValue("id")
	if id == "" {
		s.errorResponse(w, http.StatusBadRequest, "Interview ID is required")
		return nil
	}

	iv, err := s.store.GetInterview(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return nil
	}
	if iv == nil || (!iv.IsDefault && iv.UserID != userID) {
		s.errorResponse(w, http.StatusNotFound, "Interview not found")
		return nil
	}
	return iv
}

// handleGetInterview retrieves an interview by ID
func (s *Server) handleGetInterview(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	iv := s.getOwnedInterview(w, r, userID.String())
	if iv == nil {
		return
	}

	s.jsonResponse(w, http.StatusOK, iv)
}

// handleUpdateInterview updates an interview and regenerates its questions
func (s *Server) handleUpdateInterview(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	iv := s.getOwnedInterview(w, r, userID.String())
	if iv == nil {
		return
	}
	if iv.IsDefault {
		s.errorResponse(w, http.StatusForbidden, "Built-in templates cannot be modified")
		return
	}

	var req InterviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	profile := req.profile()
	questions, fallbackMessage := s.generateQuestions(r, profile)

	iv.Position = profile.Position
	iv.Description = profile.Description
	iv.Experience = profile.Experience
	iv.TechStack = profile.TechStack
	iv.Difficulty = string(profile.Difficulty)
	iv.Questions = questions

	if err := s.store.UpdateInterview(r.Context(), iv); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, InterviewResponse{
		Interview:       iv,
		FallbackMessage: fallbackMessage,
	})
}

// handleDeleteInterview deletes an interview
func (s *Server) handleDeleteInterview(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	iv := s.getOwnedInterview(w, r, userID.String())
	if iv == nil {
		return
	}
	if iv.IsDefault {
		s.errorResponse(w, http.StatusForbidden, "Built-in templates cannot be deleted")
		return
	}

	if err := s.store.DeleteInterview(r.Context(), iv.ID); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
