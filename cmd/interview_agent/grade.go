package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/scoring"
	"github.com/spf13/cobra"
)

var gradeCmd = &cobra.Command{
	Use:   "grade",
	Short: "Grade a single answer against an ideal answer",
	Long:  "Grade one candidate answer from the command line and print the rating and feedback. Useful for trying out prompts without a running server.",
	RunE:  runGrade,
}

var (
	gradeQuestion string
	gradeIdeal    string
	gradeAnswer   string
	gradeAPIKey   string
)

func init() {
	gradeCmd.Flags().StringVarP(&gradeQuestion, "question", "q", "", "Interview question (required)")
	gradeCmd.Flags().StringVarP(&gradeIdeal, "ideal", "i", "", "Ideal answer to grade against")
	gradeCmd.Flags().StringVarP(&gradeAnswer, "answer", "a", "", "Candidate answer to grade (required)")
	gradeCmd.Flags().StringVar(&gradeAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	_ = gradeCmd.MarkFlagRequired("question")
	_ = gradeCmd.MarkFlagRequired("answer")

	rootCmd.AddCommand(gradeCmd)
}

func runGrade(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	apiKey := gradeAPIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	client, err := llm.NewClient(ctx, llm.DefaultGeminiConfig(), apiKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer func() { _ = client.Close() }()

	result := scoring.NewScorer(client).Score(ctx, gradeQuestion, gradeIdeal, gradeAnswer)

	fmt.Fprintf(os.Stdout, "Rating: %d/10\n", result.Rating)
	fmt.Fprintf(os.Stdout, "Feedback: %s\n", result.Feedback)
	if result.Fallback {
		fmt.Fprintf(os.Stdout, "Note: the AI grader was unavailable; this is the fallback evaluation.\n")
	}
	return nil
}
