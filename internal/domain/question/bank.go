// Package question provides the in-memory question bank used to seed
// interview sessions. How questions are authored is out of scope; this
// bank carries fixed sets per session type.
package question

import (
	"strings"
)

// Question is one interview prompt and its expected answering time.
type Question struct {
	ID               string `json:"id"`
	Content          string `json:"content"`
	Type             string `json:"type"`
	ExpectedDuration int    `json:"expected_duration"` // seconds
}

// Bank selects question sets for new sessions.
type Bank struct {
	sets map[string][]Question
}

// Option applies a configuration option to the Bank.
type Option func(*Bank)

// WithSet replaces the question set for a session type.
func WithSet(sessionType string, qs []Question) Option {
	return func(b *Bank) {
		if len(qs) > 0 {
			b.sets[strings.ToLower(sessionType)] = qs
		}
	}
}

// NewBank creates a bank preloaded with the default question sets.
func NewBank(opts ...Option) *Bank {
	b := &Bank{sets: map[string][]Question{
		"technical": {
			{ID: "tech-1", Content: "Walk me through a challenging technical problem you solved recently.", Type: "technical", ExpectedDuration: 180},
			{ID: "tech-2", Content: "How do you approach debugging a production issue under time pressure?", Type: "technical", ExpectedDuration: 180},
			{ID: "tech-3", Content: "Describe a system you designed and the trade-offs you made.", Type: "technical", ExpectedDuration: 240},
			{ID: "tech-4", Content: "How do you keep your technical skills current?", Type: "technical", ExpectedDuration: 120},
			{ID: "tech-5", Content: "Explain a technical concept from your field to a non-technical audience.", Type: "technical", ExpectedDuration: 150},
			{ID: "tech-6", Content: "Tell me about a time a technical decision you made turned out wrong.", Type: "technical", ExpectedDuration: 180},
		},
		"hr": {
			{ID: "hr-1", Content: "Tell me about yourself and your career so far.", Type: "behavioral", ExpectedDuration: 150},
			{ID: "hr-2", Content: "Describe a conflict with a colleague and how you resolved it.", Type: "behavioral", ExpectedDuration: 180},
			{ID: "hr-3", Content: "What motivates you in your work?", Type: "behavioral", ExpectedDuration: 120},
			{ID: "hr-4", Content: "Where do you see yourself in five years?", Type: "behavioral", ExpectedDuration: 120},
			{ID: "hr-5", Content: "Tell me about a time you failed and what you learned.", Type: "behavioral", ExpectedDuration: 180},
			{ID: "hr-6", Content: "Why do you want this role?", Type: "behavioral", ExpectedDuration: 120},
		},
		"mixed": {
			{ID: "mix-1", Content: "Tell me about yourself and your career so far.", Type: "behavioral", ExpectedDuration: 150},
			{ID: "mix-2", Content: "Walk me through a challenging technical problem you solved recently.", Type: "technical", ExpectedDuration: 180},
			{ID: "mix-3", Content: "Describe a situation where you had to learn something quickly.", Type: "situational", ExpectedDuration: 150},
			{ID: "mix-4", Content: "How do you prioritize when everything is urgent?", Type: "situational", ExpectedDuration: 150},
			{ID: "mix-5", Content: "Tell me about a time you disagreed with your manager.", Type: "behavioral", ExpectedDuration: 180},
		},
	}}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// PickForSession returns up to count questions for the session type.
// Unknown types fall back to the mixed set. The role is accepted for
// future role-specific sets; selection is currently type-driven only.
func (b *Bank) PickForSession(_ string, sessionType string, count int) []Question {
	set, ok := b.sets[strings.ToLower(sessionType)]
	if !ok {
		set = b.sets["mixed"]
	}
	if count <= 0 || count > len(set) {
		count = len(set)
	}

	out := make([]Question, count)
	copy(out, set[:count])
	return out
}

// EstimatedDuration sums the expected answering time of a question set.
func EstimatedDuration(qs []Question) int {
	total := 0
	for _, q := range qs {
		total += q.ExpectedDuration
	}
	return total
}
