package scoring

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jonathan/interview-coach/internal/llm"
)

// fakeLLM returns queued responses and errors in order. Once the queue is
// exhausted it keeps returning the last entry.
type fakeLLM struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (f *fakeLLM) next(prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	i := f.calls
	f.calls++
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	if i < 0 {
		return "", errors.New("no responses queued")
	}
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return f.responses[i], err
}

func (f *fakeLLM) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return f.next(prompt)
}

func (f *fakeLLM) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return f.next(prompt)
}

func (f *fakeLLM) GetModel(tier llm.ModelTier) string { return "fake-model" }

func (f *fakeLLM) Close() error { return nil }

// fastRetry removes real sleeping from the retry policy.
func fastRetry() llm.RetryOptions {
	opts := llm.DefaultRetryOptions()
	opts.Sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return opts
}

func TestScoreParsesEvaluation(t *testing.T) {
	fake := &fakeLLM{
		responses: []string{`{"ratings": 8, "feedback": "Good coverage of the key points."}`},
	}
	scorer := NewScorer(fake).WithRetryOptions(fastRetry())

	result := scorer.Score(context.Background(), "What is a mutex?", "A mutual exclusion lock.", "It locks shared state.")
	if result.Rating != 8 {
		t.Errorf("Rating = %d, want 8", result.Rating)
	}
	if result.Feedback != "Good coverage of the key points." {
		t.Errorf("Feedback = %q", result.Feedback)
	}
	if result.Fallback {
		t.Error("Fallback = true, want false")
	}
}

func TestScorePromptIncludesAllInputs(t *testing.T) {
	fake := &fakeLLM{
		responses: []string{`{"ratings": 5, "feedback": "ok"}`},
	}
	scorer := NewScorer(fake).WithRetryOptions(fastRetry())

	scorer.Score(context.Background(), "the-question", "the-ideal", "the-candidate")
	if len(fake.prompts) != 1 {
		t.Fatalf("prompts = %d, want 1", len(fake.prompts))
	}
	prompt := fake.prompts[0]
	for _, want := range []string{"the-question", "the-ideal", "the-candidate"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestScoreHandlesFencedResponse(t *testing.T) {
	fake := &fakeLLM{
		responses: []string{"```json\n{\"ratings\": 6, \"feedback\": \"Decent answer.\"}\n```"},
	}
	scorer := NewScorer(fake).WithRetryOptions(fastRetry())

	result := scorer.Score(context.Background(), "q", "a", "ans")
	if result.Rating != 6 {
		t.Errorf("Rating = %d, want 6", result.Rating)
	}
}

func TestScoreRetriesRateLimitThenSucceeds(t *testing.T) {
	rateLimit := errors.New("googleapi: Error 429: rate limited")
	fake := &fakeLLM{
		responses: []string{"", `{"ratings": 9, "feedback": "Excellent."}`},
		errs:      []error{rateLimit, nil},
	}
	scorer := NewScorer(fake).WithRetryOptions(fastRetry())

	result := scorer.Score(context.Background(), "q", "a", "ans")
	if result.Rating != 9 {
		t.Errorf("Rating = %d, want 9", result.Rating)
	}
	if result.Fallback {
		t.Error("Fallback = true, want false")
	}
	if fake.calls != 2 {
		t.Errorf("calls = %d, want 2", fake.calls)
	}
}

func TestScoreFallbackAfterExhaustedRetries(t *testing.T) {
	rateLimit := errors.New("googleapi: Error 429: rate limited")
	fake := &fakeLLM{
		responses: []string{"", "", ""},
		errs:      []error{rateLimit, rateLimit, rateLimit},
	}
	scorer := NewScorer(fake).WithRetryOptions(fastRetry())

	result := scorer.Score(context.Background(), "q", "a", "ans")
	if !result.Fallback {
		t.Fatal("Fallback = false, want true")
	}
	if result.Rating != FallbackRating {
		t.Errorf("Rating = %d, want %d", result.Rating, FallbackRating)
	}
	if result.Feedback != FallbackFeedback {
		t.Errorf("Feedback = %q, want fallback text", result.Feedback)
	}
	if fake.calls != llm.DefaultMaxAttempts {
		t.Errorf("calls = %d, want %d", fake.calls, llm.DefaultMaxAttempts)
	}
}

func TestScoreFallbackOnMalformedResponse(t *testing.T) {
	fake := &fakeLLM{
		responses: []string{"I cannot evaluate this answer."},
	}
	scorer := NewScorer(fake).WithRetryOptions(fastRetry())

	result := scorer.Score(context.Background(), "q", "a", "ans")
	if !result.Fallback {
		t.Error("Fallback = false, want true for unparseable response")
	}
}

func TestParseEvaluationRejectsOutOfRangeRating(t *testing.T) {
	_, err := parseEvaluation(`{"ratings": 42, "feedback": "impossible"}`)
	if err == nil {
		t.Fatal("expected validation error for rating above 10")
	}
}

func TestParseEvaluationRoundsFractionalRating(t *testing.T) {
	result, err := parseEvaluation(`{"ratings": 7.6, "feedback": "ok"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Rating != 8 {
		t.Errorf("Rating = %d, want 8", result.Rating)
	}
}
