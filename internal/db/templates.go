package db

import (
	"context"
	"fmt"
	"strings"
)

// TemplateIDPrefix marks built-in interview templates.
const TemplateIDPrefix = "default-"

// DefaultInterviews returns the built-in interview templates. Their question
// sets are empty; questions are generated when a session starts.
func DefaultInterviews() []Interview {
	return []Interview{
		{
			ID:          "default-dsa-easy",
			Position:    "DSA Interview - Easy",
			Description: "Entry-level Data Structures and Algorithms interview focusing on basic concepts, simple problems, and fundamental programming skills.",
			Experience:  0,
			TechStack:   "Arrays, Strings, Basic Algorithms, Time Complexity",
			Difficulty:  "Easy",
			UserID:      DefaultUserID,
			IsDefault:   true,
		},
		{
			ID:          "default-dsa-moderate",
			Position:    "DSA Interview - Moderate",
			Description: "Mid-level Data Structures and Algorithms interview covering trees, graphs, dynamic programming, and optimization problems.",
			Experience:  2,
			TechStack:   "Trees, Graphs, Hash Maps, Dynamic Programming, Sorting",
			Difficulty:  "Moderate",
			UserID:      DefaultUserID,
			IsDefault:   true,
		},
		{
			ID:          "default-dsa-difficult",
			Position:    "DSA Interview - Difficult",
			Description: "Advanced Data Structures and Algorithms interview for senior positions, covering complex algorithms, system design, and optimization challenges.",
			Experience:  4,
			TechStack:   "Advanced Trees, Graph Algorithms, System Design, Optimization",
			Difficulty:  "Difficult",
			UserID:      DefaultUserID,
			IsDefault:   true,
		},
		{
			ID:          "default-easy-1",
			Position:    "Junior Frontend Developer",
			Description: "Entry-level position focusing on HTML, CSS, and basic JavaScript. Perfect for new graduates or career changers.",
			Experience:  0,
			TechStack:   "HTML, CSS, JavaScript, React",
			Difficulty:  "Easy",
			UserID:      DefaultUserID,
			IsDefault:   true,
		},
		{
			ID:          "default-easy-2",
			Position:    "Junior QA Tester",
			Description: "Entry-level quality assurance position focusing on manual testing and basic automation concepts.",
			Experience:  1,
			TechStack:   "Manual Testing, Selenium, API Testing",
			Difficulty:  "Easy",
			UserID:      DefaultUserID,
			IsDefault:   true,
		},
		{
			ID:          "default-moderate-1",
			Position:    "Full Stack Developer",
			Description: "Mid-level position requiring knowledge of both frontend and backend technologies with 2-3 years experience.",
			Experience:  3,
			TechStack:   "React, Node.js, Express, MongoDB, REST APIs",
			Difficulty:  "Moderate",
			UserID:      DefaultUserID,
			IsDefault:   true,
		},
		{
			ID:          "default-moderate-2",
			Position:    "DevOps Engineer",
			Description: "Mid-level DevOps role focusing on CI/CD, cloud services, and infrastructure automation.",
			Experience:  3,
			TechStack:   "Docker, Kubernetes, AWS, Jenkins, Terraform",
			Difficulty:  "Moderate",
			UserID:      DefaultUserID,
			IsDefault:   true,
		},
		{
			ID:          "default-difficult-1",
			Position:    "Senior Software Architect",
			Description: "Senior-level position requiring deep technical expertise, system design skills, and leadership experience.",
			Experience:  7,
			TechStack:   "Microservices, System Design, AWS, Kafka, Redis",
			Difficulty:  "Difficult",
			UserID:      DefaultUserID,
			IsDefault:   true,
		},
		{
			ID:          "default-difficult-2",
			Position:    "Machine Learning Engineer",
			Description: "Advanced ML role requiring expertise in algorithms, model deployment, and production ML systems.",
			Experience:  5,
			TechStack:   "Python, TensorFlow, PyTorch, MLOps, Kubernetes",
			Difficulty:  "Difficult",
			UserID:      DefaultUserID,
			IsDefault:   true,
		},
	}
}

// FindTemplate returns the built-in template with the given ID, or nil.
func FindTemplate(id string) *Interview {
	if !strings.HasPrefix(id, TemplateIDPrefix) {
		return nil
	}
	for _, t := range DefaultInterviews() {
		if t.ID == id {
			template := t
			return &template
		}
	}
	return nil
}

// SeedTemplates inserts the built-in templates, skipping any that already
// exist. Question sets of existing templates are left untouched.
func (db *DB) SeedTemplates(ctx context.Context) error {
	for _, t := range DefaultInterviews() {
		_, err := db.pool.Exec(ctx,
			`INSERT INTO interviews (id, position, description, experience, tech_stack, difficulty, user_id, is_default, questions)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, '[]')
			 ON CONFLICT (id) DO NOTHING`,
			t.ID, t.Position, t.Description, t.Experience, t.TechStack, t.Difficulty, t.UserID, t.IsDefault,
		)
		if err != nil {
			return fmt.Errorf("failed to seed template %s: %w", t.ID, err)
		}
	}
	return nil
}
