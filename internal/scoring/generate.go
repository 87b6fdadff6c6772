package scoring

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/prompts"
	"github.com/jonathan/interview-coach/internal/schemas"
)

//go:embed questions.schema.json
var questionsSchema string

// ErrNoArray indicates the model response contained no JSON array to decode.
// Unlike rate limiting this is a hard failure of the generation contract.
var ErrNoArray = errors.New("no JSON array found in model response")

// QuestionCount is the number of questions generated per interview.
const QuestionCount = 5

// Difficulty is the requested question difficulty level.
type Difficulty string

// Supported difficulty levels.
const (
	DifficultyEasy      Difficulty = "Easy"
	DifficultyModerate  Difficulty = "Moderate"
	DifficultyDifficult Difficulty = "Difficult"
)

// JobProfile describes the position a question set is generated for.
type JobProfile struct {
	Position    string
	Description string
	Experience  int
	TechStack   string
	Difficulty  Difficulty
}

// QuestionAnswer is one generated interview question with its ideal answer.
type QuestionAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

var difficultyInstructions = map[Difficulty]string{
	DifficultyEasy:      "Generate basic, entry-level questions suitable for beginners or junior developers. Focus on fundamental concepts, basic syntax, and simple problem-solving scenarios. Questions should be straightforward and test foundational knowledge.",
	DifficultyModerate:  "Generate intermediate-level questions for experienced professionals. Include questions about best practices, design patterns, optimization, and real-world problem-solving. Questions should require practical experience and deeper understanding.",
	DifficultyDifficult: "Generate advanced, challenging questions for senior-level positions. Include complex system design, architecture decisions, performance optimization, scalability concerns, and advanced technical concepts. Questions should test expert-level knowledge and strategic thinking.",
}

type difficultySpec struct {
	types      string
	complexity string
	keywords   string
}

var difficultySpecs = map[Difficulty]difficultySpec{
	DifficultyEasy: {
		types:      "basic syntax, simple concepts, fundamental operations, basic debugging, entry-level best practices",
		complexity: "straightforward, one-concept-per-question, practical examples",
		keywords:   "What is, How do you, Explain the basic, Define, Give an example of",
	},
	DifficultyModerate: {
		types:      "design patterns, performance optimization, debugging complex issues, API integration, state management, testing strategies",
		complexity: "multi-concept questions, scenario-based problems, real-world applications",
		keywords:   "How would you implement, What are the pros and cons, Compare and contrast, How would you optimize, Describe a scenario where",
	},
	DifficultyDifficult: {
		types:      "system architecture, scalability solutions, advanced algorithms, security considerations, performance bottlenecks, microservices design",
		complexity: "multi-layered problems, architectural decisions, trade-off analysis, complex scenarios",
		keywords:   "Design a system that, How would you scale, What are the architectural considerations, Analyze the performance implications, How would you handle",
	},
}

var dsaTopics = map[Difficulty]string{
	DifficultyEasy:      "Basic arrays, strings, simple sorting, basic recursion",
	DifficultyModerate:  "Trees, graphs, dynamic programming, hash tables, advanced sorting",
	DifficultyDifficult: "Advanced trees, graph algorithms, complex DP, system design with algorithms",
}

// IsDSAFocused reports whether the profile describes a data-structures and
// algorithms interview. DSA interviews get coding-problem guidelines appended
// to the generation prompt.
func IsDSAFocused(p JobProfile) bool {
	position := strings.ToLower(p.Position)
	techStack := strings.ToLower(p.TechStack)
	description := strings.ToLower(p.Description)

	return strings.Contains(position, "dsa") ||
		strings.Contains(position, "algorithm") ||
		strings.Contains(techStack, "algorithm") ||
		strings.Contains(techStack, "data structure") ||
		strings.Contains(description, "algorithm") ||
		strings.Contains(description, "data structure")
}

// Generator produces interview question sets from job profiles.
type Generator struct {
	llm   llm.Client
	retry llm.RetryOptions
	// now provides the randomization seed, injectable for tests.
	now func() time.Time
}

// NewGenerator creates a Generator with the default retry policy.
func NewGenerator(client llm.Client) *Generator {
	return &Generator{
		llm:   client,
		retry: llm.DefaultRetryOptions(),
		now:   time.Now,
	}
}

// WithRetryOptions overrides the retry policy.
func (g *Generator) WithRetryOptions(opts llm.RetryOptions) *Generator {
	g.retry = opts
	return g
}

// Generate produces a question set for the profile. A response without a JSON
// array is a hard error (ErrNoArray); rate-limit exhaustion surfaces as
// llm.ErrRateLimited so callers can substitute curated questions.
func (g *Generator) Generate(ctx context.Context, profile JobProfile) ([]QuestionAnswer, error) {
	prompt, err := g.buildPrompt(profile)
	if err != nil {
		return nil, err
	}

	raw, err := llm.WithRetry(ctx, g.retry, func(ctx context.Context) (string, error) {
		return g.llm.GenerateContent(ctx, prompt, llm.TierStandard)
	})
	if err != nil {
		return nil, err
	}

	return parseQuestionSet(raw)
}

func (g *Generator) buildPrompt(profile JobProfile) (string, error) {
	difficulty := profile.Difficulty
	if _, ok := difficultyInstructions[difficulty]; !ok {
		difficulty = DifficultyModerate
	}
	spec := difficultySpecs[difficulty]

	dsaGuidelines := ""
	dsaAnswerNote := ""
	if IsDSAFocused(profile) {
		template, err := prompts.Get("generation.json", "dsa-guidelines")
		if err != nil {
			return "", err
		}
		dsaGuidelines = prompts.Format(template, map[string]string{
			"Difficulty": string(difficulty),
			"DSATopics":  dsaTopics[difficulty],
		})
		dsaAnswerNote = "7. Include algorithm implementation details and complexity analysis in answers"
	}

	template, err := prompts.Get("generation.json", "generate-questions")
	if err != nil {
		return "", err
	}

	return prompts.Format(template, map[string]string{
		"RandomSeed":            strconv.FormatInt(g.now().UnixMilli(), 10),
		"Position":              profile.Position,
		"Description":           profile.Description,
		"Experience":            strconv.Itoa(profile.Experience),
		"TechStack":             profile.TechStack,
		"Difficulty":            string(difficulty),
		"DifficultyInstruction": difficultyInstructions[difficulty],
		"QuestionTypes":         spec.types,
		"Complexity":            spec.complexity,
		"QuestionStarters":      spec.keywords,
		"DSAGuidelines":         dsaGuidelines,
		"DSAAnswerNote":         dsaAnswerNote,
	}), nil
}

// parseQuestionSet extracts the first top-level JSON array from a raw model
// response and decodes it into question/answer pairs.
func parseQuestionSet(raw string) ([]QuestionAnswer, error) {
	arr := llm.ExtractJSONArray(llm.CleanJSONBlock(raw))
	if arr == "" {
		return nil, ErrNoArray
	}

	if err := schemas.ValidateJSONString(questionsSchema, arr); err != nil {
		return nil, fmt.Errorf("question set failed validation: %w", err)
	}

	var questions []QuestionAnswer
	if err := json.Unmarshal([]byte(arr), &questions); err != nil {
		return nil, fmt.Errorf("failed to parse question set: %w", err)
	}

	return questions, nil
}

// Shuffle returns a copy of questions in random order. Used so repeated runs
// of the same interview do not present questions in a fixed sequence.
func Shuffle(questions []QuestionAnswer) []QuestionAnswer {
	shuffled := make([]QuestionAnswer, len(questions))
	copy(shuffled, questions)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}
