// Package llm defines the boundary to the external reasoning engine that
// turns a job description into structured interview questions. The core
// treats the engine as an opaque collaborator: text and a decrypted API key
// in, a validated Result or an error out. The production implementation
// (gemini.go) talks to Google's Generative AI API; tests substitute fakes.
package llm

import (
	"context"
	"errors"
)

// Generator is the reasoning-engine contract consumed by the generation
// pipeline. Implementations must be safe for concurrent use, must honor ctx
// for cancellation/timeouts, and must never retain or log the apiKey.
type Generator interface {
	// GenerateQuestions produces a structured question set for the job
	// description. The returned Result has passed Validate.
	GenerateQuestions(ctx context.Context, jobDescription, apiKey string) (*Result, error)

	// GenerateAnswer produces a model answer for a single question.
	GenerateAnswer(ctx context.Context, p AnswerPrompt, apiKey string) (string, error)
}

// ErrMalformedResult is returned when the engine's output does not parse into
// the expected shape or contains no questions.
var ErrMalformedResult = errors.New("llm: malformed engine result")

// Result is the engine's structured output: an inferred role level, the
// skills extracted from the job description, and questions grouped into
// sections.
type Result struct {
	RoleLevel       string    `json:"role_level"`
	ExtractedSkills []string  `json:"extracted_skills"`
	Sections        []Section `json:"sections"`
}

// Section groups questions that probe one skill area.
type Section struct {
	Title     string     `json:"title"`
	Skill     string     `json:"skill"`
	Questions []Question `json:"questions"`
}

// Question is one generated question as emitted by the engine. Code is the
// engine-assigned identifier ("Q1", "Q2", …) used for display ordering.
type Question struct {
	Code            string   `json:"id"`
	Type            string   `json:"type"`
	Difficulty      string   `json:"difficulty"`
	Text            string   `json:"text"`
	ExpectedSignals []string `json:"expected_signals"`
}

// AnswerPrompt carries the context the engine needs to draft a model answer
// for one question.
type AnswerPrompt struct {
	RoleLevel       string
	Skill           string
	QuestionType    string
	Difficulty      string
	Text            string
	ExpectedSignals []string
}

// Validate checks the structural invariants the pipeline relies on: at least
// one section, every section carries a question list, every question has
// text, and the set is non-empty overall. It returns ErrMalformedResult
// (wrapped with detail) on the first violation.
func (r *Result) Validate() error {
	if r.RoleLevel == "" {
		return wrapMalformed("missing role_level")
	}
	if len(r.Sections) == 0 {
		return wrapMalformed("no sections")
	}
	total := 0
	for _, s := range r.Sections {
		for _, q := range s.Questions {
			if q.Text == "" {
				return wrapMalformed("question without text in section " + s.Title)
			}
			total++
		}
	}
	if total == 0 {
		return wrapMalformed("no questions")
	}
	return nil
}

// TotalQuestions returns the number of questions across all sections.
func (r *Result) TotalQuestions() int {
	n := 0
	for _, s := range r.Sections {
		n += len(s.Questions)
	}
	return n
}

// FlatQuestion is a section-denormalized question, the shape the storage
// layer persists.
type FlatQuestion struct {
	Code            string
	SectionTitle    string
	Skill           string
	Type            string
	Difficulty      string
	Text            string
	ExpectedSignals []string
}

// Flatten denormalizes the section grouping into a single ordered list,
// preserving section order then question order.
func (r *Result) Flatten() []FlatQuestion {
	out := make([]FlatQuestion, 0, r.TotalQuestions())
	for _, s := range r.Sections {
		for _, q := range s.Questions {
			out = append(out, FlatQuestion{
				Code:            q.Code,
				SectionTitle:    s.Title,
				Skill:           s.Skill,
				Type:            q.Type,
				Difficulty:      q.Difficulty,
				Text:            q.Text,
				ExpectedSignals: q.ExpectedSignals,
			})
		}
	}
	return out
}

func wrapMalformed(detail string) error {
	return errors.Join(ErrMalformedResult, errors.New(detail))
}
