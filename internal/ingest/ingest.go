// Package ingest turns a job posting URL into an interview draft. It fetches
// the posting, extracts the description text, and guesses position, tech
// stack, and experience so the candidate only has to confirm the form.
package ingest

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/interview-coach/internal/db"
	"github.com/jonathan/interview-coach/internal/fetch"
	"github.com/jonathan/interview-coach/internal/scoring"
)

// MaxDescriptionLength bounds how much posting text is carried into the
// interview description. Long postings blow up the question generation prompt
// without improving the questions.
const MaxDescriptionLength = 4000

// DefaultBrowserTimeout bounds headless rendering of JavaScript-heavy boards.
const DefaultBrowserTimeout = 30 * time.Second

// Posting is the parsed content of a job posting page.
type Posting struct {
	URL         string
	Title       string
	Description string
	TechStack   string
	Experience  int
	Platform    fetch.Platform
}

// Fetcher retrieves a URL, possibly from cache.
type Fetcher interface {
	Fetch(ctx context.Context, urlStr string) (*fetch.CachedResult, error)
}

// Ingester fetches and parses job postings.
type Ingester struct {
	fetcher Fetcher
	logger  *log.Logger

	// browser renders a page in a headless browser when the HTTP fetch
	// yields too little text. Nil disables the fallback.
	browser        func(ctx context.Context, url string, timeout time.Duration, verbose bool) (string, error)
	browserTimeout time.Duration
}

// New creates an Ingester with the headless browser fallback enabled.
func New(fetcher Fetcher) *Ingester {
	return &Ingester{
		fetcher:        fetcher,
		logger:         log.Default(),
		browser:        fetch.WithBrowser,
		browserTimeout: DefaultBrowserTimeout,
	}
}

// WithoutBrowser disables the headless browser fallback.
func (i *Ingester) WithoutBrowser() *Ingester {
	i.browser = nil
	return i
}

// Posting fetches a job posting URL and parses it. If the extracted text is
// too short the page is likely a JavaScript-rendered SPA, so the posting is
// re-rendered in a headless browser before parsing; a browser failure falls
// back to whatever the HTTP fetch produced.
func (i *Ingester) Posting(ctx context.Context, urlStr string) (*Posting, error) {
	result, err := i.fetcher.Fetch(ctx, urlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch posting: %w", err)
	}

	html := result.HTML
	platform := fetch.DetectPlatform(urlStr)
	text, err := extractPostingText(html, platform)
	if err != nil {
		return nil, err
	}

	if fetch.ShouldUseBrowser(text) && i.browser != nil {
		rendered, browserErr := i.browser(ctx, urlStr, i.browserTimeout, false)
		if browserErr != nil {
			i.logger.Printf("browser rendering failed for %s, using plain fetch: %v", urlStr, browserErr)
		} else {
			html = rendered
			if text, err = extractPostingText(html, platform); err != nil {
				return nil, err
			}
		}
	}

	return ParsePosting(urlStr, html, text)
}

// ParsePosting builds a Posting from already-fetched HTML and its extracted
// text. Exposed separately so parsing can be exercised without a network.
func ParsePosting(urlStr, html, text string) (*Posting, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse posting HTML: %w", err)
	}

	description := text
	if len(description) > MaxDescriptionLength {
		description = description[:MaxDescriptionLength]
	}

	return &Posting{
		URL:         urlStr,
		Title:       extractTitle(doc),
		Description: description,
		TechStack:   detectTechStack(text),
		Experience:  detectExperienceYears(text),
		Platform:    fetch.DetectPlatform(urlStr),
	}, nil
}

// Draft maps the posting onto an interview owned by userID. The ID is left
// empty so the store assigns one on create.
func (p *Posting) Draft(userID string) *db.Interview {
	return &db.Interview{
		Position:    p.Title,
		Description: p.Description,
		Experience:  p.Experience,
		TechStack:   p.TechStack,
		Difficulty:  string(scoring.DifficultyModerate),
		UserID:      userID,
	}
}

// Profile maps the posting onto a question generation profile.
func (p *Posting) Profile() scoring.JobProfile {
	return scoring.JobProfile{
		Position:    p.Title,
		Description: p.Description,
		Experience:  p.Experience,
		TechStack:   p.TechStack,
		Difficulty:  scoring.DifficultyModerate,
	}
}

func extractPostingText(html string, platform fetch.Platform) (string, error) {
	return fetch.ExtractMainText(html,
		fetch.PlatformContentSelectors(platform),
		fetch.PlatformNoiseSelectors(platform)...)
}

// extractTitle prefers the og:title meta tag, then the first h1, then the
// document title. Trailing " - Company" or " | Board" suffixes are dropped.
func extractTitle(doc *goquery.Document) string {
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if title := cleanTitle(og); title != "" {
			return title
		}
	}
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		return cleanTitle(h1)
	}
	return cleanTitle(doc.Find("title").First().Text())
}

func cleanTitle(title string) string {
	title = strings.TrimSpace(title)
	for _, sep := range []string{" | ", " - ", " – ", " at "} {
		if idx := strings.Index(title, sep); idx > 0 {
			title = title[:idx]
		}
	}
	return strings.TrimSpace(title)
}

// knownTech maps posting text patterns to canonical stack names. Patterns use
// word boundaries so "javascript" does not register as Java. Order determines
// the resulting TechStack string.
var knownTech = []struct {
	pattern *regexp.Regexp
	name    string
}{
	{regexp.MustCompile(`\bgolang\b|\bgo\b`), "Go"},
	{regexp.MustCompile(`\btypescript\b`), "TypeScript"},
	{regexp.MustCompile(`\bjavascript\b`), "JavaScript"},
	{regexp.MustCompile(`\bpython\b`), "Python"},
	{regexp.MustCompile(`\bjava\b`), "Java"},
	{regexp.MustCompile(`\brust\b`), "Rust"},
	{regexp.MustCompile(`\breact\b`), "React"},
	{regexp.MustCompile(`\bvue\b`), "Vue"},
	{regexp.MustCompile(`\bangular\b`), "Angular"},
	{regexp.MustCompile(`\bnode\.?js\b`), "Node.js"},
	{regexp.MustCompile(`\bpostgres(ql)?\b`), "PostgreSQL"},
	{regexp.MustCompile(`\bmysql\b`), "MySQL"},
	{regexp.MustCompile(`\bmongodb\b`), "MongoDB"},
	{regexp.MustCompile(`\bredis\b`), "Redis"},
	{regexp.MustCompile(`\bkafka\b`), "Kafka"},
	{regexp.MustCompile(`\bkubernetes\b|\bk8s\b`), "Kubernetes"},
	{regexp.MustCompile(`\bdocker\b`), "Docker"},
	{regexp.MustCompile(`\bterraform\b`), "Terraform"},
	{regexp.MustCompile(`\baws\b`), "AWS"},
	{regexp.MustCompile(`\bgcp\b`), "GCP"},
	{regexp.MustCompile(`\bazure\b`), "Azure"},
	{regexp.MustCompile(`\bgraphql\b`), "GraphQL"},
	{regexp.MustCompile(`\bgrpc\b`), "gRPC"},
}

// detectTechStack scans the posting text for known technology names.
func detectTechStack(text string) string {
	lower := strings.ToLower(text)
	var found []string
	for _, tech := range knownTech {
		if tech.pattern.MatchString(lower) {
			found = append(found, tech.name)
		}
	}
	return strings.Join(found, ", ")
}

var yearsPattern = regexp.MustCompile(`(\d{1,2})\+?\s*(?:\+\s*)?years?`)

// detectExperienceYears returns the first "N years" figure in the posting,
// or 0 when none is mentioned.
func detectExperienceYears(text string) int {
	match := yearsPattern.FindStringSubmatch(strings.ToLower(text))
	if match == nil {
		return 0
	}
	years, err := strconv.Atoi(match[1])
	if err != nil {
		return 0
	}
	return years
}
