package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Kiranreddymk90/ai-job-application-agent/internal/job"
	"github.com/Kiranreddymk90/ai-job-application-agent/internal/profile"
	"github.com/Kiranreddymk90/ai-job-application-agent/internal/qa"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func testProfile(t *testing.T) *profile.Profile {
	t.Helper()
	p, err := profile.Analyze(&profile.Raw{
		Name:   "Jane Doe",
		Skills: map[string]float64{"go": 4},
	})
	require.NoError(t, err)
	return p
}

func testPosting() *job.Posting {
	return &job.Posting{PlatformID: "board", ExternalID: "7", Title: "Go Developer"}
}

func TestAnswererAnswer(t *testing.T) {
	stub := &stubGenerator{response: `{"answer": "I have four years of Go experience.", "confidence": 0.9}`}
	answerer := NewAnswerer(stub, 0.3, 0, zap.NewNop())

	question := qa.Question{Text: "How many years of Go experience do you have?", Ordinal: 1}
	answer, err := answerer.Answer(context.Background(), question, testPosting(), testProfile(t))

	require.NoError(t, err)
	assert.Equal(t, "I have four years of Go experience.", answer.Text)
	assert.Equal(t, 0.9, answer.Confidence)
	assert.Equal(t, question.Text, answer.QuestionText)
	assert.Equal(t, 1, answer.QuestionOrdinal)

	assert.True(t, strings.Contains(stub.lastPrompt, question.Text))
	assert.True(t, strings.Contains(stub.lastPrompt, "Jane Doe"))
	assert.True(t, strings.Contains(stub.lastPrompt, "none (free text)"))
}

func TestAnswererFencedResponse(t *testing.T) {
	stub := &stubGenerator{response: "```json\n{\"answer\": \"Yes\", \"confidence\": \"0.8\"}\n```"}
	answerer := NewAnswerer(stub, 0, 0, zap.NewNop())

	question := qa.Question{Text: "Are you authorized to work in the US?", Choices: []string{"Yes", "No"}}
	answer, err := answerer.Answer(context.Background(), question, testPosting(), testProfile(t))

	require.NoError(t, err)
	assert.Equal(t, "Yes", answer.Text)
	assert.Equal(t, 0.8, answer.Confidence)
	assert.True(t, strings.Contains(stub.lastPrompt, "Yes | No"))
}

func TestAnswererRejectsAnswerOutsideChoices(t *testing.T) {
	stub := &stubGenerator{response: `{"answer": "Maybe", "confidence": 0.9}`}
	answerer := NewAnswerer(stub, 0, 0, zap.NewNop())

	question := qa.Question{Text: "Do you require sponsorship?", Choices: []string{"Yes", "No"}}
	_, err := answerer.Answer(context.Background(), question, testPosting(), testProfile(t))

	var genErr *qa.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Contains(t, genErr.Reason, "not among the allowed choices")
}

func TestAnswererRejectsLowConfidence(t *testing.T) {
	stub := &stubGenerator{response: `{"answer": "Probably", "confidence": 0.1}`}
	answerer := NewAnswerer(stub, 0.5, 0, zap.NewNop())

	_, err := answerer.Answer(context.Background(), qa.Question{Text: "Why us?"}, testPosting(), testProfile(t))

	var genErr *qa.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Contains(t, genErr.Reason, "below floor")
}

func TestAnswererNeverReturnsEmptyAnswer(t *testing.T) {
	stub := &stubGenerator{response: `{"answer": "", "confidence": 0.9}`}
	answerer := NewAnswerer(stub, 0, 0, zap.NewNop())

	_, err := answerer.Answer(context.Background(), qa.Question{Text: "Why us?"}, testPosting(), testProfile(t))

	var genErr *qa.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Contains(t, genErr.Reason, "empty answer")
}

func TestAnswererWrapsBackendErrors(t *testing.T) {
	backendErr := errors.New("quota exceeded")
	stub := &stubGenerator{err: backendErr}
	answerer := NewAnswerer(stub, 0, 0, zap.NewNop())

	_, err := answerer.Answer(context.Background(), qa.Question{Text: "Why us?"}, testPosting(), testProfile(t))

	var genErr *qa.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.ErrorIs(t, err, backendErr)
}
