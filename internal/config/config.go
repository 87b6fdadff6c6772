// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Interview source
	JobURL     string `json:"job_url,omitempty"`    // Job posting URL to build the interview from
	Position   string `json:"position,omitempty"`   // Role to interview for
	TechStack  string `json:"tech_stack,omitempty"` // Comma-separated technologies
	Difficulty string `json:"difficulty,omitempty"` // Easy, Moderate, or Difficult
	Experience int    `json:"experience,omitempty"` // Years of experience

	// Candidate info
	UserID string `json:"user_id,omitempty"` // User ID for session and turn ownership
	Name   string `json:"name,omitempty"`    // Candidate name
	Email  string `json:"email,omitempty"`   // Candidate email

	// Behavior
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	SessionFile string `json:"session_file,omitempty"` // Path to the local session state file
	Port        int    `json:"port,omitempty"`         // HTTP server port
	UseBrowser  bool   `json:"use_browser,omitempty"`  // Use headless browser for SPA job boards
	Verbose     bool   `json:"verbose,omitempty"`      // Print detailed debug information
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	// Validate mutually exclusive fields
	if c.JobURL != "" && c.Position != "" {
		return fmt.Errorf("config error: 'job_url' and 'position' are mutually exclusive")
	}

	// Validate numeric ranges
	if c.Experience < 0 {
		return fmt.Errorf("config error: 'experience' must be non-negative")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}

	switch c.Difficulty {
	case "", "Easy", "Moderate", "Difficult":
	default:
		return fmt.Errorf("config error: 'difficulty' must be Easy, Moderate, or Difficult, got %q", c.Difficulty)
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty string fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.JobURL == "" {
		result.JobURL = defaults.JobURL
	}
	if result.Position == "" {
		result.Position = defaults.Position
	}
	if result.TechStack == "" {
		result.TechStack = defaults.TechStack
	}
	if result.Difficulty == "" {
		result.Difficulty = defaults.Difficulty
	}
	if result.UserID == "" {
		result.UserID = defaults.UserID
	}
	if result.Name == "" {
		result.Name = defaults.Name
	}
	if result.Email == "" {
		result.Email = defaults.Email
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.SessionFile == "" {
		result.SessionFile = defaults.SessionFile
	}

	// Int fields: use default if zero
	if result.Experience == 0 {
		result.Experience = defaults.Experience
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
