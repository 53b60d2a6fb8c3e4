// Package qa defines the question/answer pipeline contract: detecting
// application questions embedded in a form and generating answers for them.
package qa

import (
	"context"
	"fmt"

	"github.com/Kiranreddymk90/ai-job-application-agent/internal/job"
	"github.com/Kiranreddymk90/ai-job-application-agent/internal/profile"
)

// Question is one free-text question extracted from an application form.
type Question struct {
	// Text is the question as presented to the applicant.
	Text string `json:"text"`
	// Ordinal is the position of the question within the form, starting
	// at zero.
	Ordinal int `json:"ordinal"`
	// Choices constrains the answer to an enumerated domain when the
	// platform exposes one. Empty means free text.
	Choices []string `json:"choices,omitempty"`
}

// Answer is the generated response for one question.
type Answer struct {
	QuestionText    string  `json:"question_text"`
	QuestionOrdinal int     `json:"question_ordinal"`
	Text            string  `json:"text"`
	// Confidence is the generator's self-reported confidence in [0,1].
	Confidence float64 `json:"confidence"`
}

// Answerer produces an answer for a question in the context of a posting and
// profile. Generation may be non-deterministic; implementations must return
// a GenerationError instead of an empty answer when they cannot produce one.
type Answerer interface {
	Answer(ctx context.Context, question Question, posting *job.Posting, applicant *profile.Profile) (Answer, error)
}

// GenerationError reports that an answer could not be produced. It is never
// swallowed: the orchestrator decides whether to abort the application.
type GenerationError struct {
	Question string
	Reason   string
	Err      error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("answer generation failed for %q: %s: %v", e.Question, e.Reason, e.Err)
	}
	return fmt.Sprintf("answer generation failed for %q: %s", e.Question, e.Reason)
}

func (e *GenerationError) Unwrap() error { return e.Err }
