package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-coach/internal/config"
	"github.com/jonathan/interview-coach/internal/db"
	"github.com/jonathan/interview-coach/internal/ingest"
	"github.com/jonathan/interview-coach/internal/scoring"
	"github.com/jonathan/interview-coach/internal/server/middleware"
	"github.com/jonathan/interview-coach/internal/session"
)

// fakeStore is an in-memory Store.
type fakeStore struct {
	interviews map[string]*db.Interview
	turns      map[string]db.TurnInput
	nextID     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		interviews: make(map[string]*db.Interview),
		turns:      make(map[string]db.TurnInput),
	}
}

func (f *fakeStore) CreateInterview(_ context.Context, iv *db.Interview) (*db.Interview, error) {
	if iv.ID == "" {
		f.nextID++
		iv.ID = fmt.Sprintf("interview-%d", f.nextID)
	}
	stored := *iv
	f.interviews[iv.ID] = &stored
	return &stored, nil
}

func (f *fakeStore) GetInterview(_ context.Context, id string) (*db.Interview, error) {
	iv, ok := f.interviews[id]
	if !ok {
		return nil, nil
	}
	copied := *iv
	return &copied, nil
}

func (f *fakeStore) ListInterviewsByUser(_ context.Context, userID string) ([]db.Interview, error) {
	var out []db.Interview
	for _, iv := range f.interviews {
		if iv.UserID == userID {
			out = append(out, *iv)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateInterview(_ context.Context, iv *db.Interview) error {
	if _, ok := f.interviews[iv.ID]; !ok {
		return fmt.Errorf("interview not found: %s", iv.ID)
	}
	stored := *iv
	f.interviews[iv.ID] = &stored
	return nil
}

func (f *fakeStore) DeleteInterview(_ context.Context, id string) error {
	delete(f.interviews, id)
	return nil
}

func (f *fakeStore) turnKey(sessionID, question, userID string) string {
	return sessionID + "|" + question + "|" + userID
}

func (f *fakeStore) UpsertTurn(_ context.Context, input db.TurnInput) (bool, error) {
	k := f.turnKey(input.SessionID, input.Question, input.UserID)
	_, updated := f.turns[k]
	f.turns[k] = input
	return updated, nil
}

func (f *fakeStore) CountTurns(_ context.Context, sessionID, userID string) (int, error) {
	count := 0
	for _, turn := range f.turns {
		if turn.SessionID == sessionID && turn.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) ListTurns(_ context.Context, sessionID, userID string) ([]db.Turn, error) {
	var out []db.Turn
	for _, turn := range f.turns {
		if turn.SessionID == sessionID && turn.UserID == userID {
			out = append(out, db.Turn{
				SessionID:       turn.SessionID,
				Question:        turn.Question,
				IdealAnswer:     turn.IdealAnswer,
				CandidateAnswer: turn.CandidateAnswer,
				Rating:          turn.Rating,
				Feedback:        turn.Feedback,
				UserID:          turn.UserID,
			})
		}
	}
	return out, nil
}

func (f *fakeStore) SessionAggregate(ctx context.Context, sessionID, userID string) (string, error) {
	turns, _ := f.ListTurns(ctx, sessionID, userID)
	ratings := make([]int, len(turns))
	for i, turn := range turns {
		ratings[i] = turn.Rating
	}
	return db.AggregateRating(ratings), nil
}

// fakeGenerator returns canned questions or an error.
type fakeGenerator struct {
	questions []scoring.QuestionAnswer
	err       error
}

func (f *fakeGenerator) Generate(_ context.Context, _ scoring.JobProfile) ([]scoring.QuestionAnswer, error) {
	return f.questions, f.err
}

// fakeIngester returns a canned posting.
type fakeIngester struct {
	posting *ingest.Posting
	err     error
}

func (f *fakeIngester) Posting(_ context.Context, _ string) (*ingest.Posting, error) {
	return f.posting, f.err
}

// fixedScorer returns a fixed evaluation.
type fixedScorer struct {
	result scoring.Result
}

func (f *fixedScorer) Score(_ context.Context, _, _, _ string) *scoring.Result {
	result := f.result
	return &result
}

func sampleQuestions() []scoring.QuestionAnswer {
	return []scoring.QuestionAnswer{
		{Question: "What is a goroutine?", Answer: "A lightweight thread managed by the Go runtime."},
		{Question: "Explain channels.", Answer: "Typed conduits for communication between goroutines."},
	}
}

func newTestServer() *Server {
	sessionStore := session.NewMemoryStore()
	jwtService := NewJWTService(&config.JWTConfig{
		Secret:          "test-secret-key-for-jwt-signing-minimum-32-bytes",
		ExpirationHours: 24,
	})
	passwordConfig := &config.PasswordConfig{BcryptCost: 10}
	userService := NewUserService(nil, passwordConfig)

	s := &Server{
		store:       newFakeStore(),
		sessions:    session.NewResolver(sessionStore),
		tracker:     session.NewTracker(sessionStore),
		scorer:      &fixedScorer{result: scoring.Result{Rating: 8, Feedback: "Solid answer."}},
		generator:   &fakeGenerator{questions: sampleQuestions()},
		ingester:    &fakeIngester{},
		jwtService:  jwtService,
		userService: userService,
	}
	s.authHandler = NewAuthHandler(userService, jwtService)
	return s
}

// authedRequest builds a request with an authenticated user in context, the
// way the auth middleware would.
func authedRequest(method, target string, userID uuid.UUID, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	ctx := context.WithValue(req.Context(), middleware.UserIDKey(), userID)
	return req.WithContext(ctx)
}

func decodeJSON[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.handleHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeJSON[map[string]string](t, w)
	assert.Equal(t, "ok", resp["status"])
}

func TestRouterRequiresAuth(t *testing.T) {
	s := newTestServer()
	router := s.router()

	protected := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/interviews"},
		{http.MethodPost, "/interviews"},
		{http.MethodGet, "/interviews/some-id"},
		{http.MethodPost, "/interviews/some-id/session"},
		{http.MethodPost, "/interviews/some-id/answers"},
		{http.MethodGet, "/users/me"},
	}

	for _, tt := range protected {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestHandleCreateInterview(t *testing.T) {
	s := newTestServer()
	userID := uuid.New()

	req := authedRequest(http.MethodPost, "/interviews", userID, InterviewRequest{
		Position:   "Backend Engineer",
		TechStack:  "Go, PostgreSQL",
		Experience: 3,
	})
	w := httptest.NewRecorder()
	s.handleCreateInterview(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	resp := decodeJSON[InterviewResponse](t, w)
	assert.Empty(t, resp.FallbackMessage)
	assert.NotEmpty(t, resp.Interview.ID)
	assert.Equal(t, "Backend Engineer", resp.Interview.Position)
	assert.Equal(t, "Moderate", resp.Interview.Difficulty)
	assert.Equal(t, userID.String(), resp.Interview.UserID)
	assert.Len(t, resp.Interview.Questions, len(sampleQuestions()))
}

func TestHandleCreateInterview_GenerationFailureUsesCuratedQuestions(t *testing.T) {
	s := newTestServer()
	s.generator = &fakeGenerator{err: errors.New("model overloaded")}

	req := authedRequest(http.MethodPost, "/interviews", uuid.New(), InterviewRequest{
		Position:  "Backend Engineer",
		TechStack: "Go",
	})
	w := httptest.NewRecorder()
	s.handleCreateInterview(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	resp := decodeJSON[InterviewResponse](t, w)
	assert.Equal(t, scoring.FallbackMessage, resp.FallbackMessage)
	assert.Len(t, resp.Interview.Questions, scoring.QuestionCount)
}

func TestHandleCreateInterview_ValidationRejectsMissingPosition(t *testing.T) {
	s := newTestServer()

	req := authedRequest(http.MethodPost, "/interviews", uuid.New(), InterviewRequest{
		TechStack: "Go",
	})
	w := httptest.NewRecorder()
	s.handleCreateInterview(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleCreateInterviewFromURL(t *testing.T) {
	s := newTestServer()
	s.ingester = &fakeIngester{posting: &ingest.Posting{
		URL:        "https://boards.greenhouse.io/acme/jobs/1",
		Title:      "Platform Engineer",
		TechStack:  "Go, Kubernetes",
		Experience: 4,
	}}

	req := authedRequest(http.MethodPost, "/interviews/from-url", uuid.New(), CreateFromURLRequest{
		URL: "https://boards.greenhouse.io/acme/jobs/1",
	})
	w := httptest.NewRecorder()
	s.handleCreateInterviewFromURL(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	resp := decodeJSON[InterviewResponse](t, w)
	assert.Equal(t, "Platform Engineer", resp.Interview.Position)
	assert.Equal(t, 4, resp.Interview.Experience)
}

func TestHandleCreateInterviewFromURL_FetchFailure(t *testing.T) {
	s := newTestServer()
	s.ingester = &fakeIngester{err: errors.New("connection refused")}

	req := authedRequest(http.MethodPost, "/interviews/from-url", uuid.New(), CreateFromURLRequest{
		URL: "https://example.com/jobs/1",
	})
	w := httptest.NewRecorder()
	s.handleCreateInterviewFromURL(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func createInterview(t *testing.T, s *Server, userID uuid.UUID) *db.Interview {
	t.Helper()
	req := authedRequest(http.MethodPost, "/interviews", userID, InterviewRequest{
		Position:  "Backend Engineer",
		TechStack: "Go",
	})
	w := httptest.NewRecorder()
	s.handleCreateInterview(w, req)
	require.Equal(t, http.StatusCreated, w.Code)
	return decodeJSON[InterviewResponse](t, w).Interview
}

func TestHandleGetInterview_ForeignInterviewReadsAsNotFound(t *testing.T) {
	s := newTestServer()
	owner := uuid.New()
	iv := createInterview(t, s, owner)

	req := authedRequest(http.MethodGet, "/interviews/"+iv.ID, uuid.New(), nil)
	req.SetPathValue("id", iv.ID)
	w := httptest.NewRecorder()
	s.handleGetInterview(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleGetInterview_TemplateVisibleToEveryone(t *testing.T) {
	s := newTestServer()
	template := db.DefaultInterviews()[0]
	_, err := s.store.CreateInterview(context.Background(), &template)
	require.NoError(t, err)

	req := authedRequest(http.MethodGet, "/interviews/"+template.ID, uuid.New(), nil)
	req.SetPathValue("id", template.ID)
	w := httptest.NewRecorder()
	s.handleGetInterview(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleUpdateInterview_TemplateForbidden(t *testing.T) {
	s := newTestServer()
	template := db.DefaultInterviews()[0]
	_, err := s.store.CreateInterview(context.Background(), &template)
	require.NoError(t, err)

	req := authedRequest(http.MethodPut, "/interviews/"+template.ID, uuid.New(), InterviewRequest{
		Position:  "Changed",
		TechStack: "Go",
	})
	req.SetPathValue("id", template.ID)
	w := httptest.NewRecorder()
	s.handleUpdateInterview(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func seedTemplate(t *testing.T, s *Server) *db.Interview {
	t.Helper()
	template := db.DefaultInterviews()[0]
	created, err := s.store.CreateInterview(context.Background(), &template)
	require.NoError(t, err)
	return created
}

func TestHandleResolveSession_TemplateSessionStableAcrossCalls(t *testing.T) {
	s := newTestServer()
	userID := uuid.New()
	template := seedTemplate(t, s)

	resolve := func() SessionResponse {
		req := authedRequest(http.MethodPost, "/interviews/"+template.ID+"/session", userID, nil)
		req.SetPathValue("id", template.ID)
		w := httptest.NewRecorder()
		s.handleResolveSession(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		return decodeJSON[SessionResponse](t, w)
	}

	first := resolve()
	second := resolve()
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Contains(t, first.SessionID, template.ID+"-"+userID.String())
	assert.True(t, first.Fresh)
}

func TestHandleResolveSession_UserInterviewPassesThrough(t *testing.T) {
	s := newTestServer()
	userID := uuid.New()
	iv := createInterview(t, s, userID)

	req := authedRequest(http.MethodPost, "/interviews/"+iv.ID+"/session", userID, nil)
	req.SetPathValue("id", iv.ID)
	w := httptest.NewRecorder()
	s.handleResolveSession(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeJSON[SessionResponse](t, w)
	assert.Equal(t, iv.ID, resp.SessionID)
	assert.False(t, resp.Fresh)
}

func TestHandleResetSession_MintsNewSessionID(t *testing.T) {
	s := newTestServer()
	userID := uuid.New()
	template := seedTemplate(t, s)

	req := authedRequest(http.MethodPost, "/interviews/"+template.ID+"/session", userID, nil)
	req.SetPathValue("id", template.ID)
	w := httptest.NewRecorder()
	s.handleResolveSession(w, req)
	first := decodeJSON[SessionResponse](t, w)

	req = authedRequest(http.MethodPost, "/interviews/"+template.ID+"/session/reset", userID, nil)
	req.SetPathValue("id", template.ID)
	w = httptest.NewRecorder()
	s.handleResetSession(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	reset := decodeJSON[SessionResponse](t, w)

	assert.NotEqual(t, first.SessionID, reset.SessionID)
	assert.True(t, reset.Fresh)
}

func TestHandleSubmitAnswer(t *testing.T) {
	s := newTestServer()
	userID := uuid.New()
	iv := createInterview(t, s, userID)
	question := iv.Questions[0].Question

	req := authedRequest(http.MethodPost, "/interviews/"+iv.ID+"/answers", userID, SubmitAnswerRequest{
		Question: question,
		Answer:   "Goroutines are lightweight threads multiplexed onto OS threads by the runtime scheduler.",
	})
	req.SetPathValue("id", iv.ID)
	w := httptest.NewRecorder()
	s.handleSubmitAnswer(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeJSON[TurnResponse](t, w)
	assert.Equal(t, 8, resp.Rating)
	assert.Equal(t, "Solid answer.", resp.Feedback)
	assert.True(t, resp.Persisted)
	assert.NotEmpty(t, resp.SessionID)
}

func TestHandleSubmitAnswer_TooShort(t *testing.T) {
	s := newTestServer()
	userID := uuid.New()
	iv := createInterview(t, s, userID)

	req := authedRequest(http.MethodPost, "/interviews/"+iv.ID+"/answers", userID, SubmitAnswerRequest{
		Question: iv.Questions[0].Question,
		Answer:   "too short",
	})
	req.SetPathValue("id", iv.ID)
	w := httptest.NewRecorder()
	s.handleSubmitAnswer(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decodeJSON[map[string]string](t, w)
	assert.Equal(t, "Your answer should be more than 30 characters", resp["error"])
}

func TestHandleSubmitAnswer_UnknownQuestion(t *testing.T) {
	s := newTestServer()
	userID := uuid.New()
	iv := createInterview(t, s, userID)

	req := authedRequest(http.MethodPost, "/interviews/"+iv.ID+"/answers", userID, SubmitAnswerRequest{
		Question: "Not one of the interview questions?",
		Answer:   "This answer is long enough to pass the length gate easily.",
	})
	req.SetPathValue("id", iv.ID)
	w := httptest.NewRecorder()
	s.handleSubmitAnswer(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleSkipQuestion(t *testing.T) {
	s := newTestServer()
	userID := uuid.New()
	iv := createInterview(t, s, userID)

	req := authedRequest(http.MethodPost, "/interviews/"+iv.ID+"/skip", userID, SkipRequest{
		Question: iv.Questions[0].Question,
	})
	req.SetPathValue("id", iv.ID)
	w := httptest.NewRecorder()
	s.handleSkipQuestion(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeJSON[TurnResponse](t, w)
	assert.Equal(t, 0, resp.Rating)
	assert.Equal(t, "(Question skipped)", resp.Answer)
	assert.Equal(t, int64(1500), resp.AdvanceAfterMS)
}

func TestHandleGetFeedback(t *testing.T) {
	s := newTestServer()
	userID := uuid.New()
	iv := createInterview(t, s, userID)

	// No answers yet: empty turn list and a "0.0" aggregate.
	req := authedRequest(http.MethodGet, "/interviews/"+iv.ID+"/feedback", userID, nil)
	req.SetPathValue("id", iv.ID)
	w := httptest.NewRecorder()
	s.handleGetFeedback(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeJSON[FeedbackResponse](t, w)
	assert.Empty(t, resp.Turns)
	assert.Equal(t, "0.0", resp.OverallRating)

	// Answer one question, feedback reflects it.
	answer := authedRequest(http.MethodPost, "/interviews/"+iv.ID+"/answers", userID, SubmitAnswerRequest{
		Question: iv.Questions[0].Question,
		Answer:   "Goroutines are lightweight threads multiplexed onto OS threads by the runtime scheduler.",
	})
	answer.SetPathValue("id", iv.ID)
	s.handleSubmitAnswer(httptest.NewRecorder(), answer)

	w = httptest.NewRecorder()
	req = authedRequest(http.MethodGet, "/interviews/"+iv.ID+"/feedback", userID, nil)
	req.SetPathValue("id", iv.ID)
	s.handleGetFeedback(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	resp = decodeJSON[FeedbackResponse](t, w)
	require.Len(t, resp.Turns, 1)
	assert.Equal(t, "8.0", resp.OverallRating)
}

func TestHandleGetProgress(t *testing.T) {
	s := newTestServer()
	userID := uuid.New()
	iv := createInterview(t, s, userID)

	// Answer one of the two questions.
	answer := authedRequest(http.MethodPost, "/interviews/"+iv.ID+"/answers", userID, SubmitAnswerRequest{
		Question: iv.Questions[0].Question,
		Answer:   "Goroutines are lightweight threads multiplexed onto OS threads by the runtime scheduler.",
	})
	answer.SetPathValue("id", iv.ID)
	s.handleSubmitAnswer(httptest.NewRecorder(), answer)

	req := authedRequest(http.MethodGet, "/interviews/"+iv.ID+"/progress", userID, nil)
	req.SetPathValue("id", iv.ID)
	w := httptest.NewRecorder()
	s.handleGetProgress(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeJSON[ProgressResponse](t, w)
	assert.Equal(t, 1, resp.Answered)
	assert.Equal(t, 2, resp.Total)
	assert.False(t, resp.Complete)
}
