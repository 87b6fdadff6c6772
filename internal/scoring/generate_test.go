package scoring

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jonathan/interview-coach/internal/llm"
)

var sampleQuestionJSON = `[
  {"question": "What is a goroutine?", "answer": "A lightweight thread managed by the Go runtime."},
  {"question": "Explain channels.", "answer": "Typed conduits for communication between goroutines."}
]`

func moderateProfile() JobProfile {
	return JobProfile{
		Position:    "Backend Developer",
		Description: "Builds and maintains REST APIs.",
		Experience:  3,
		TechStack:   "Go, PostgreSQL, Docker",
		Difficulty:  DifficultyModerate,
	}
}

func TestGenerateParsesQuestionArray(t *testing.T) {
	fake := &fakeLLM{responses: []string{sampleQuestionJSON}}
	gen := NewGenerator(fake).WithRetryOptions(fastRetry())

	questions, err := gen.Generate(context.Background(), moderateProfile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("len(questions) = %d, want 2", len(questions))
	}
	if questions[0].Question != "What is a goroutine?" {
		t.Errorf("questions[0].Question = %q", questions[0].Question)
	}
}

func TestGenerateExtractsArrayFromProse(t *testing.T) {
	fake := &fakeLLM{
		responses: []string{"Here are your questions:\n" + sampleQuestionJSON + "\nGood luck!"},
	}
	gen := NewGenerator(fake).WithRetryOptions(fastRetry())

	questions, err := gen.Generate(context.Background(), moderateProfile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(questions) != 2 {
		t.Errorf("len(questions) = %d, want 2", len(questions))
	}
}

func TestGenerateMissingArrayIsHardError(t *testing.T) {
	fake := &fakeLLM{responses: []string{"Sorry, I cannot generate questions right now."}}
	gen := NewGenerator(fake).WithRetryOptions(fastRetry())

	_, err := gen.Generate(context.Background(), moderateProfile())
	if !errors.Is(err, ErrNoArray) {
		t.Fatalf("err = %v, want ErrNoArray", err)
	}
}

func TestGenerateRateLimitSurfacesSentinel(t *testing.T) {
	rateLimit := errors.New("quota exceeded")
	fake := &fakeLLM{
		responses: []string{"", "", ""},
		errs:      []error{rateLimit, rateLimit, rateLimit},
	}
	gen := NewGenerator(fake).WithRetryOptions(fastRetry())

	_, err := gen.Generate(context.Background(), moderateProfile())
	if !errors.Is(err, llm.ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
}

func TestGeneratePromptCarriesProfileAndDifficulty(t *testing.T) {
	fake := &fakeLLM{responses: []string{sampleQuestionJSON}}
	gen := NewGenerator(fake).WithRetryOptions(fastRetry())

	profile := moderateProfile()
	if _, err := gen.Generate(context.Background(), profile); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prompt := fake.prompts[0]
	for _, want := range []string{
		profile.Position,
		profile.TechStack,
		string(DifficultyModerate),
		difficultyInstructions[DifficultyModerate],
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "DSA-SPECIFIC REQUIREMENTS") {
		t.Error("non-DSA profile should not get DSA guidelines")
	}
}

func TestGeneratePromptIncludesDSAGuidelines(t *testing.T) {
	fake := &fakeLLM{responses: []string{sampleQuestionJSON}}
	gen := NewGenerator(fake).WithRetryOptions(fastRetry())

	profile := JobProfile{
		Position:   "DSA Interview - Easy",
		TechStack:  "Arrays, Strings, Basic Algorithms",
		Difficulty: DifficultyEasy,
	}
	if _, err := gen.Generate(context.Background(), profile); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prompt := fake.prompts[0]
	if !strings.Contains(prompt, "DSA-SPECIFIC REQUIREMENTS") {
		t.Error("prompt missing DSA guidelines")
	}
	if !strings.Contains(prompt, dsaTopics[DifficultyEasy]) {
		t.Error("prompt missing easy-level DSA topics")
	}
}

func TestGenerateUnknownDifficultyDefaultsToModerate(t *testing.T) {
	fake := &fakeLLM{responses: []string{sampleQuestionJSON}}
	gen := NewGenerator(fake).WithRetryOptions(fastRetry())

	profile := moderateProfile()
	profile.Difficulty = ""
	if _, err := gen.Generate(context.Background(), profile); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(fake.prompts[0], difficultyInstructions[DifficultyModerate]) {
		t.Error("prompt should fall back to Moderate instructions")
	}
}

func TestIsDSAFocused(t *testing.T) {
	tests := []struct {
		name     string
		profile  JobProfile
		expected bool
	}{
		{"dsa in position", JobProfile{Position: "DSA Interview"}, true},
		{"algorithm in position", JobProfile{Position: "Algorithm Specialist"}, true},
		{"data structure in tech stack", JobProfile{TechStack: "Data Structures, C++"}, true},
		{"algorithm in description", JobProfile{Description: "Focus on algorithm design"}, true},
		{"plain backend role", JobProfile{Position: "Backend Developer", TechStack: "Go, Postgres"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDSAFocused(tt.profile); got != tt.expected {
				t.Errorf("IsDSAFocused() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestShufflePreservesElements(t *testing.T) {
	questions := []QuestionAnswer{
		{Question: "q1", Answer: "a1"},
		{Question: "q2", Answer: "a2"},
		{Question: "q3", Answer: "a3"},
	}

	shuffled := Shuffle(questions)
	if len(shuffled) != len(questions) {
		t.Fatalf("len = %d, want %d", len(shuffled), len(questions))
	}

	seen := make(map[string]bool)
	for _, q := range shuffled {
		seen[q.Question] = true
	}
	for _, q := range questions {
		if !seen[q.Question] {
			t.Errorf("question %q lost in shuffle", q.Question)
		}
	}

	// Input must not be reordered in place.
	if questions[0].Question != "q1" || questions[1].Question != "q2" || questions[2].Question != "q3" {
		t.Error("Shuffle modified its input")
	}
}

func TestFallbackQuestionsByRole(t *testing.T) {
	tests := []struct {
		name     string
		profile  JobProfile
		contains string
	}{
		{
			name:     "dsa easy",
			profile:  JobProfile{Position: "DSA Interview - Easy", Difficulty: DifficultyEasy},
			contains: "Big O notation",
		},
		{
			name:     "dsa difficult",
			profile:  JobProfile{Position: "DSA Interview - Difficult", Difficulty: DifficultyDifficult},
			contains: "LRU",
		},
		{
			name:     "frontend",
			profile:  JobProfile{Position: "Frontend Developer"},
			contains: "virtual DOM",
		},
		{
			name:     "backend",
			profile:  JobProfile{Position: "Backend Developer"},
			contains: "SQL and NoSQL",
		},
		{
			name:     "generic",
			profile:  JobProfile{Position: "Product Engineer", TechStack: "Go"},
			contains: "Tell me about yourself",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			questions := FallbackQuestions(tt.profile)
			if len(questions) != 5 {
				t.Fatalf("len(questions) = %d, want 5", len(questions))
			}
			found := false
			for _, q := range questions {
				if strings.Contains(q.Question, tt.contains) {
					found = true
				}
			}
			if !found {
				t.Errorf("no question containing %q", tt.contains)
			}
		})
	}
}
