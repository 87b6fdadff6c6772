// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/interview-coach/internal/db"
	"github.com/jonathan/interview-coach/internal/ingest"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxDescriptionLines is the number of description lines to display
	maxDescriptionLines = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintPosting outputs a human-readable summary of a parsed job posting.
func (p *Printer) PrintPosting(posting *ingest.Posting) {
	if posting == nil {
		return
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Title:      %s\n", posting.Title))
	sb.WriteString(fmt.Sprintf("Platform:   %s\n", posting.Platform))
	if posting.TechStack != "" {
		sb.WriteString(fmt.Sprintf("Tech stack: %s\n", posting.TechStack))
	}
	if posting.Experience > 0 {
		sb.WriteString(fmt.Sprintf("Experience: %d years\n", posting.Experience))
	}

	if posting.Description != "" {
		sb.WriteString("\n")
		lines := strings.Split(posting.Description, "\n")
		if len(lines) > maxDescriptionLines {
			lines = lines[:maxDescriptionLines]
		}
		sb.WriteString(strings.Join(lines, "\n"))
		sb.WriteString("\n")
	}

	p.printBox("Job Posting", sb.String())
}

// PrintQuestions outputs the generated question set.
func (p *Printer) PrintQuestions(questions []db.QuestionAnswer) {
	if len(questions) == 0 {
		return
	}

	var sb strings.Builder
	for i, qa := range questions {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, qa.Question))
	}

	p.printBox(fmt.Sprintf("Questions (%d)", len(questions)), sb.String())
}

// PrintInterview outputs a one-line summary of a stored interview.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintInterview(iv *db.Interview) {
	if iv == nil {
		return
	}
	fmt.Fprintf(p.out, "Interview %s: %s (%s, %d questions)\n",
		iv.ID, iv.Position, iv.Difficulty, len(iv.Questions))
}
