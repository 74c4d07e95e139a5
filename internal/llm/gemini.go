// Gemini-backed Generator.
//
// Each call builds a short-lived client with the caller's decrypted API key:
// keys are per-user, so no client can be shared across requests. The key
// lives only in the option passed to the SDK and is gone when the client is
// closed.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	// DefaultModel is the engine model used when none is configured.
	DefaultModel = "gemini-2.5-flash"

	questionSystemPrompt = `You are an expert technical interviewer. Given a job description,
infer the role level, extract the key skills, and produce interview questions grouped into
sections by skill. Respond with JSON only, matching this schema:
{"role_level": string, "extracted_skills": [string], "sections": [{"title": string,
"skill": string, "questions": [{"id": string, "type": string, "difficulty": string,
"text": string, "expected_signals": [string]}]}]}`

	questionUserTemplate = `Generate at least {{min_questions}} interview questions for the
following job description. Assign each question an id like "Q1", "Q2" in order.

Job description:
{{job_description}}`

	answerSystemPrompt = `You are an expert interviewer writing a model answer that a strong
candidate would give. Be concrete and concise; cover the expected signals.`

	answerUserTemplate = `Role level: {{role_level}}
Skill: {{skill}}
Question type: {{question_type}}
Difficulty: {{difficulty}}

Question:
{{question_text}}

Expected signals:
{{expected_signals}}`
)

// GeminiGenerator implements Generator against the Google Generative AI API.
type GeminiGenerator struct {
	// Model is the model name, e.g. "gemini-2.5-flash".
	Model string
	// MinQuestions is interpolated into the prompt as the requested floor.
	MinQuestions int
}

// NewGeminiGenerator returns a GeminiGenerator with defaults applied.
func NewGeminiGenerator(model string, minQuestions int) *GeminiGenerator {
	if model == "" {
		model = DefaultModel
	}
	if minQuestions <= 0 {
		minQuestions = 15
	}
	return &GeminiGenerator{Model: model, MinQuestions: minQuestions}
}

// GenerateQuestions implements Generator.
func (g *GeminiGenerator) GenerateQuestions(ctx context.Context, jobDescription, apiKey string) (*Result, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(strings.TrimSpace(apiKey)))
	if err != nil {
		return nil, fmt.Errorf("create engine client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.Model)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(questionSystemPrompt)}}
	model.SetTemperature(0.7)
	model.SetTopP(0.95)
	model.SetTopK(40)
	model.SetMaxOutputTokens(8192)
	model.ResponseMIMEType = "application/json"

	prompt := strings.NewReplacer(
		"{{job_description}}", jobDescription,
		"{{min_questions}}", strconv.Itoa(g.MinQuestions),
	).Replace(questionUserTemplate)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("engine call: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}

	var result Result
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}
	if err := result.Validate(); err != nil {
		return nil, err
	}
	return &result, nil
}

// GenerateAnswer implements Generator.
func (g *GeminiGenerator) GenerateAnswer(ctx context.Context, p AnswerPrompt, apiKey string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(strings.TrimSpace(apiKey)))
	if err != nil {
		return "", fmt.Errorf("create engine client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.Model)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(answerSystemPrompt)}}
	model.SetTemperature(0.8)
	model.SetTopP(0.95)
	model.SetMaxOutputTokens(1024)

	signals := make([]string, 0, len(p.ExpectedSignals))
	for _, s := range p.ExpectedSignals {
		signals = append(signals, "- "+s)
	}
	prompt := strings.NewReplacer(
		"{{role_level}}", p.RoleLevel,
		"{{skill}}", p.Skill,
		"{{question_type}}", p.QuestionType,
		"{{difficulty}}", p.Difficulty,
		"{{question_text}}", p.Text,
		"{{expected_signals}}", strings.Join(signals, "\n"),
	).Replace(answerUserTemplate)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("engine call: %w", err)
	}
	text, err := responseText(resp)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: empty response", ErrMalformedResult)
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%w: no text parts", ErrMalformedResult)
	}
	return b.String(), nil
}
