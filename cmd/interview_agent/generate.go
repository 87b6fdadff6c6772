package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jonathan/interview-coach/internal/config"
	"github.com/jonathan/interview-coach/internal/db"
	"github.com/jonathan/interview-coach/internal/fetch"
	"github.com/jonathan/interview-coach/internal/ingest"
	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/observability"
	"github.com/jonathan/interview-coach/internal/scoring"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an interview from a job posting URL or a position description",
	Long: `Generate a tailored interview question set and store it for a user.

The position can come from a job posting URL (fetched and parsed automatically) or be described directly with --position and --tech-stack. Configuration can be loaded from a JSON file using --config; command-line arguments override config file values.`,
	RunE: runGenerate,
}

var (
	genConfigPath  string
	genJobURL      string
	genPosition    string
	genTechStack   string
	genExperience  int
	genDifficulty  string
	genUserID      string
	genAPIKey      string
	genDatabaseURL string
	genUseBrowser  bool
	genVerbose     bool
)

func init() {
	// Config file flag (processed first)
	generateCmd.Flags().StringVar(&genConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	generateCmd.Flags().StringVarP(&genJobURL, "job-url", "u", "", "URL to fetch the job posting from (mutually exclusive with --position)")
	generateCmd.Flags().StringVarP(&genPosition, "position", "p", "", "Position title (mutually exclusive with --job-url)")
	generateCmd.Flags().StringVar(&genTechStack, "tech-stack", "", "Comma-separated technologies the interview should cover")
	generateCmd.Flags().IntVar(&genExperience, "experience", 0, "Years of experience the questions should target")
	generateCmd.Flags().StringVar(&genDifficulty, "difficulty", "", "Question difficulty: Easy, Moderate or Difficult")
	generateCmd.Flags().StringVar(&genUserID, "user-id", "", "User the interview belongs to")
	generateCmd.Flags().BoolVar(&genUseBrowser, "use-browser", false, "Use headless browser for SPA job boards (requires Chrome)")
	generateCmd.Flags().BoolVarP(&genVerbose, "verbose", "v", false, "Print detailed debug information")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	generateCmd.Flags().StringVar(&genAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	// Database URL for interview persistence
	generateCmd.Flags().StringVar(&genDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	// Step 1: Load config file if provided
	var cfg config.Config
	if genConfigPath != "" {
		loadedCfg, err := config.LoadConfig(genConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loadedCfg
		if genVerbose {
			_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", genConfigPath)
		}
	}

	// Step 2: Apply CLI overrides (command-line args take priority)
	// Only override if the flag was explicitly set
	if cmd.Flags().Changed("job-url") {
		cfg.JobURL = genJobURL
	}
	if cmd.Flags().Changed("position") {
		cfg.Position = genPosition
	}
	if cmd.Flags().Changed("tech-stack") {
		cfg.TechStack = genTechStack
	}
	if cmd.Flags().Changed("experience") {
		cfg.Experience = genExperience
	}
	if cmd.Flags().Changed("difficulty") {
		cfg.Difficulty = genDifficulty
	}
	if cmd.Flags().Changed("user-id") {
		cfg.UserID = genUserID
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = genAPIKey
	}
	if cmd.Flags().Changed("use-browser") {
		cfg.UseBrowser = genUseBrowser
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = genVerbose
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = genDatabaseURL
	}

	// Step 3: Validate merged configuration
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.JobURL == "" && cfg.Position == "" {
		return fmt.Errorf("either --job-url or --position must be provided (via flag or config)")
	}
	if cfg.UserID == "" {
		return fmt.Errorf("--user-id is required (via flag or config)")
	}

	// Step 4: API key handling
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	// Step 5: Database URL handling
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	// Step 6: Build the interview draft, from the posting or from flags
	var draft *db.Interview
	if cfg.JobURL != "" {
		ingester := ingest.New(fetch.NewCachedFetcher(database, nil))
		if !cfg.UseBrowser {
			ingester = ingester.WithoutBrowser()
		}
		posting, err := ingester.Posting(ctx, cfg.JobURL)
		if err != nil {
			return fmt.Errorf("failed to ingest job posting: %w", err)
		}
		if posting.Title == "" {
			return fmt.Errorf("could not find a job title at %s", cfg.JobURL)
		}
		if cfg.Verbose {
			observability.NewPrinter(os.Stdout).PrintPosting(posting)
		}
		draft = posting.Draft(cfg.UserID)
		if cfg.Difficulty != "" {
			draft.Difficulty = cfg.Difficulty
		}
	} else {
		draft = draftFromConfig(cfg)
	}

	// Step 7: Generate the question set
	client, err := llm.NewClient(ctx, llm.DefaultGeminiConfig(), cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer func() { _ = client.Close() }()

	profile := profileFromDraft(draft)
	questions, err := scoring.NewGenerator(client).Generate(ctx, profile)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stdout, "%s\n", scoring.FallbackMessage)
		questions = scoring.FallbackQuestions(profile)
	} else {
		questions = scoring.Shuffle(questions)
	}
	draft.Questions = questionsToDB(questions)

	stored, err := database.CreateInterview(ctx, draft)
	if err != nil {
		return fmt.Errorf("failed to store interview: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Created interview %s for %q with %d questions\n", stored.ID, stored.Position, len(stored.Questions))
	if cfg.Verbose {
		observability.NewPrinter(os.Stdout).PrintQuestions(stored.Questions)
	} else {
		for i, qa := range stored.Questions {
			fmt.Fprintf(os.Stdout, "  %d. %s\n", i+1, qa.Question)
		}
	}
	return nil
}

// draftFromConfig builds an interview draft from flag and config values.
func draftFromConfig(cfg config.Config) *db.Interview {
	difficulty := cfg.Difficulty
	if difficulty == "" {
		difficulty = string(scoring.DifficultyModerate)
	}
	return &db.Interview{
		Position:   cfg.Position,
		Experience: cfg.Experience,
		TechStack:  cfg.TechStack,
		Difficulty: difficulty,
		UserID:     cfg.UserID,
	}
}

// profileFromDraft builds the generation profile for an interview draft.
func profileFromDraft(draft *db.Interview) scoring.JobProfile {
	return scoring.JobProfile{
		Position:    draft.Position,
		Description: draft.Description,
		Experience:  draft.Experience,
		TechStack:   draft.TechStack,
		Difficulty:  scoring.Difficulty(draft.Difficulty),
	}
}

// questionsToDB converts generated questions into their storage form.
func questionsToDB(questions []scoring.QuestionAnswer) []db.QuestionAnswer {
	out := make([]db.QuestionAnswer, len(questions))
	for i, qa := range questions {
		out[i] = db.QuestionAnswer{Question: qa.Question, Answer: qa.Answer}
	}
	return out
}
