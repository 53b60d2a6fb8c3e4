package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/Kiranreddymk90/ai-job-application-agent/internal/job"
	"github.com/Kiranreddymk90/ai-job-application-agent/internal/logger"
	"github.com/Kiranreddymk90/ai-job-application-agent/internal/profile"
	"github.com/Kiranreddymk90/ai-job-application-agent/internal/qa"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

// Answerer generates application answers with Gemini. It implements
// qa.Answerer.
type Answerer struct {
	generator     contentGenerator
	minConfidence float64
	logger        *zap.Logger
	maxLogLen     int
}

func NewAnswerer(generator contentGenerator, minConfidence float64, maxLogLength int, log *zap.Logger) *Answerer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Answerer{
		generator:     generator,
		minConfidence: minConfidence,
		logger:        log,
		maxLogLen:     maxLogLength,
	}
}

// Answer produces an answer for the question. It never returns an empty
// answer: any failure surfaces as *qa.GenerationError.
func (a *Answerer) Answer(ctx context.Context, question qa.Question, posting *job.Posting, applicant *profile.Profile) (qa.Answer, error) {
	if posting == nil {
		return qa.Answer{}, &qa.GenerationError{Question: question.Text, Reason: "posting is required"}
	}
	if applicant == nil {
		return qa.Answer{}, &qa.GenerationError{Question: question.Text, Reason: "profile is required"}
	}

	prompt, err := a.buildPrompt(question, posting, applicant)
	if err != nil {
		return qa.Answer{}, &qa.GenerationError{Question: question.Text, Reason: "build prompt", Err: err}
	}

	a.logger.Debug("gemini answer request",
		zap.String("job_key", posting.Key()),
		zap.Int("question_ordinal", question.Ordinal),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, a.maxLogLen)),
	)

	raw, err := a.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return qa.Answer{}, &qa.GenerationError{Question: question.Text, Reason: "backend call failed", Err: err}
	}

	a.logger.Debug("gemini answer response",
		zap.String("job_key", posting.Key()),
		zap.Int("question_ordinal", question.Ordinal),
		zap.String("response_preview", logger.TruncateForLog(raw, a.maxLogLen)),
	)

	answer, err := parseResponse(raw)
	if err != nil {
		return qa.Answer{}, &qa.GenerationError{Question: question.Text, Reason: "unparseable response", Err: err}
	}

	if answer.Text == "" {
		return qa.Answer{}, &qa.GenerationError{Question: question.Text, Reason: "backend returned an empty answer"}
	}

	if len(question.Choices) > 0 {
		matched := matchChoice(answer.Text, question.Choices)
		if matched == "" {
			return qa.Answer{}, &qa.GenerationError{
				Question: question.Text,
				Reason:   fmt.Sprintf("answer %q is not among the allowed choices", answer.Text),
			}
		}
		answer.Text = matched
	}

	if answer.Confidence < a.minConfidence {
		return qa.Answer{}, &qa.GenerationError{
			Question: question.Text,
			Reason:   fmt.Sprintf("confidence %.2f below floor %.2f", answer.Confidence, a.minConfidence),
		}
	}

	answer.QuestionText = question.Text
	answer.QuestionOrdinal = question.Ordinal

	return answer, nil
}

func (a *Answerer) buildPrompt(question qa.Question, posting *job.Posting, applicant *profile.Profile) (string, error) {
	jobJSON, err := json.MarshalIndent(posting, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal posting: %w", err)
	}

	profilePayload := map[string]any{
		"name":       applicant.Name,
		"skills":     applicant.Skills,
		"experience": applicant.Experience,
	}
	profileJSON, err := json.MarshalIndent(profilePayload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal profile: %w", err)
	}

	choices := "none (free text)"
	if len(question.Choices) > 0 {
		choices = strings.Join(question.Choices, " | ")
	}

	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Question:\n{{QUESTION}}\nChoices: {{CHOICES}}\n\nJob:\n{{JOB_JSON}}\n\nProfile:\n{{PROFILE_JSON}}\n\nJSON Response:"
	}

	prompt := strings.ReplaceAll(template, "{{QUESTION}}", question.Text)
	prompt = strings.ReplaceAll(prompt, "{{CHOICES}}", choices)
	prompt = strings.ReplaceAll(prompt, "{{JOB_JSON}}", string(jobJSON))
	prompt = strings.ReplaceAll(prompt, "{{PROFILE_JSON}}", string(profileJSON))

	return prompt, nil
}

func parseResponse(raw string) (qa.Answer, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return qa.Answer{}, fmt.Errorf("parse gemini response: %w", err)
	}

	confidence := coerceFloat(data["confidence"])
	if math.IsNaN(confidence) {
		confidence = 0
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return qa.Answer{
		Text:       coerceString(data["answer"]),
		Confidence: confidence,
	}, nil
}

func matchChoice(answer string, choices []string) string {
	for _, choice := range choices {
		if strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(choice)) {
			return choice
		}
	}
	return ""
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
