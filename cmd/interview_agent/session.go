package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonathan/interview-coach/internal/db"
	"github.com/jonathan/interview-coach/internal/interview"
	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/scoring"
	"github.com/jonathan/interview-coach/internal/session"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Run an interview as a spoken question/answer loop in the terminal",
	Long: `Run an interview interactively: each question is printed, the answer is read from stdin, and scoring happens in the background while the next question is asked. Prints the per-question feedback and overall rating when the session ends.

Answers are recorded against a session, so a run can be resumed or started over with --reset.`,
	RunE: runSession,
}

var (
	sessInterviewID string
	sessUserID      string
	sessReset       bool
	sessFile        string
	sessAPIKey      string
	sessDatabaseURL string
)

func init() {
	sessionCmd.Flags().StringVar(&sessInterviewID, "interview", "", "Interview ID to run (required)")
	sessionCmd.Flags().StringVar(&sessUserID, "user-id", "", "User running the session (required)")
	sessionCmd.Flags().BoolVar(&sessReset, "reset", false, "Discard the previous session for this interview and start over")
	sessionCmd.Flags().StringVar(&sessFile, "session-file", "", "Path for persisting session state across runs (in-memory if empty)")
	sessionCmd.Flags().StringVar(&sessAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	sessionCmd.Flags().StringVar(&sessDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	_ = sessionCmd.MarkFlagRequired("interview")
	_ = sessionCmd.MarkFlagRequired("user-id")

	rootCmd.AddCommand(sessionCmd)
}

func runSession(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	apiKey := sessAPIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	databaseURL := sessDatabaseURL
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}

	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	iv, err := database.GetInterview(ctx, sessInterviewID)
	if err != nil {
		return fmt.Errorf("failed to load interview: %w", err)
	}
	if iv == nil {
		iv = db.FindTemplate(sessInterviewID)
	}
	if iv == nil {
		return fmt.Errorf("interview not found: %s", sessInterviewID)
	}
	if iv.UserID != sessUserID && !iv.IsDefault {
		return fmt.Errorf("interview %s does not belong to user %s", sessInterviewID, sessUserID)
	}
	if len(iv.Questions) == 0 {
		return fmt.Errorf("interview %s has no questions", sessInterviewID)
	}

	var store session.Store
	if sessFile != "" {
		store, err = session.NewFileStore(sessFile)
		if err != nil {
			return fmt.Errorf("failed to open session file: %w", err)
		}
	} else {
		store = session.NewMemoryStore()
	}

	resolver := session.NewResolver(store)
	tracker := session.NewTracker(store)

	if sessReset {
		if err := resolver.Reset(iv.ID, sessUserID); err != nil {
			return fmt.Errorf("failed to reset session: %w", err)
		}
	}
	sessionID, err := resolver.SessionID(iv.ID, sessUserID)
	if err != nil {
		return fmt.Errorf("failed to resolve session: %w", err)
	}

	client, err := llm.NewClient(ctx, llm.DefaultGeminiConfig(), apiKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer func() { _ = client.Close() }()

	exec := interview.NewExecutor(scoring.NewScorer(client), database, tracker)
	driver := interview.NewVoiceDriver(exec, database,
		interview.NewConsoleSpeaker(os.Stdout),
		interview.NewConsoleCapture(os.Stdin))

	summary, err := driver.Run(ctx, interview.VoiceSession{
		InterviewID: iv.ID,
		SessionID:   sessionID,
		UserID:      sessUserID,
		Position:    iv.Position,
		Questions:   iv.Questions,
	})
	if err != nil {
		return fmt.Errorf("session ended early: %w", err)
	}

	fmt.Fprint(os.Stdout, formatSummary(summary))

	// Background scoring has finished by the time Run returns, so the
	// recorded turns are complete.
	turns, err := database.ListTurns(ctx, sessionID, sessUserID)
	if err != nil {
		return fmt.Errorf("failed to load feedback: %w", err)
	}
	overall, err := database.SessionAggregate(ctx, sessionID, sessUserID)
	if err != nil {
		return fmt.Errorf("failed to compute overall rating: %w", err)
	}

	for i, turn := range turns {
		fmt.Fprintf(os.Stdout, "\nQ%d: %s\nRating: %d/10\n%s\n", i+1, turn.Question, turn.Rating, turn.Feedback)
	}
	fmt.Fprintf(os.Stdout, "\nOverall rating: %s/10\n", overall)
	return nil
}

// formatSummary renders the completion summary for the terminal.
func formatSummary(summary *interview.VoiceSummary) string {
	return fmt.Sprintf("\nInterview complete: %s\nAnswered %d of %d questions in %s\n",
		summary.Position, summary.QuestionsAnswered, summary.TotalQuestions,
		summary.Duration.Round(time.Second))
}
