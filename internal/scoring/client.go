// Package scoring calls the LLM to grade interview answers and generate
// question sets, with retry and fallback policies that keep a session running
// even when the provider is rate limited.
package scoring

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"math"

	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/prompts"
	"github.com/jonathan/interview-coach/internal/schemas"
)

//go:embed evaluation.schema.json
var evaluationSchema string

// Fallback evaluation used when the provider stays rate limited through every
// retry. The session continues with this canned feedback instead of failing.
const (
	FallbackRating   = 7
	FallbackFeedback = "Thank you for your response! Due to high demand, detailed AI feedback is temporarily unavailable. Your answer shows good understanding of the topic. Keep practicing to improve further!"
)

// Result is the outcome of grading one answer.
type Result struct {
	Rating   int
	Feedback string
	// Fallback is true when the provider was unavailable and the canned
	// evaluation was substituted.
	Fallback bool
}

// Scorer grades candidate answers against ideal answers.
type Scorer struct {
	llm    llm.Client
	retry  llm.RetryOptions
	logger *log.Logger
}

// NewScorer creates a Scorer with the default retry policy.
func NewScorer(client llm.Client) *Scorer {
	return &Scorer{
		llm:    client,
		retry:  llm.DefaultRetryOptions(),
		logger: log.Default(),
	}
}

// WithRetryOptions overrides the retry policy. Used by tests to inject a fake
// sleep function.
func (s *Scorer) WithRetryOptions(opts llm.RetryOptions) *Scorer {
	s.retry = opts
	return s
}

// Score evaluates a candidate answer. It never fails: provider errors are
// retried per the rate-limit policy and, once exhausted, replaced by the
// fixed fallback evaluation. The returned Result is always usable.
func (s *Scorer) Score(ctx context.Context, question, idealAnswer, candidateAnswer string) *Result {
	result, err := s.evaluate(ctx, question, idealAnswer, candidateAnswer)
	if err != nil {
		s.logger.Printf("scoring failed, using fallback evaluation: %v", err)
		return &Result{
			Rating:   FallbackRating,
			Feedback: FallbackFeedback,
			Fallback: true,
		}
	}
	return result
}

// evaluate performs the actual provider round trip and response parsing.
func (s *Scorer) evaluate(ctx context.Context, question, idealAnswer, candidateAnswer string) (*Result, error) {
	template, err := prompts.Get("grading.json", "evaluate-answer")
	if err != nil {
		return nil, err
	}

	prompt := prompts.Format(template, map[string]string{
		"Question":        question,
		"IdealAnswer":     idealAnswer,
		"CandidateAnswer": candidateAnswer,
	})

	raw, err := llm.WithRetry(ctx, s.retry, func(ctx context.Context) (string, error) {
		return s.llm.GenerateJSON(ctx, prompt, llm.TierLite)
	})
	if err != nil {
		return nil, err
	}

	return parseEvaluation(raw)
}

// parseEvaluation extracts and validates the {"ratings", "feedback"} object
// from a raw model response.
func parseEvaluation(raw string) (*Result, error) {
	cleaned := llm.ExtractJSONObject(llm.CleanJSONBlock(raw))
	if cleaned == "" {
		return nil, fmt.Errorf("no JSON object found in evaluation response")
	}

	if err := schemas.ValidateJSONString(evaluationSchema, cleaned); err != nil {
		return nil, fmt.Errorf("evaluation response failed validation: %w", err)
	}

	var parsed struct {
		Ratings  float64 `json:"ratings"`
		Feedback string  `json:"feedback"`
	}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse evaluation response: %w", err)
	}

	return &Result{
		Rating:   int(math.Round(parsed.Ratings)),
		Feedback: parsed.Feedback,
	}, nil
}
