package tracker

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Kiranreddymk90/ai-job-application-agent/internal/qa"
)

// Status is the state of an application attempt.
type Status string

const (
	StatusDiscovered        Status = "discovered"
	StatusMatched           Status = "matched"
	StatusQuestionsDetected Status = "questions_detected"
	StatusAnswersGenerated  Status = "answers_generated"
	StatusSubmitted         Status = "submitted"
	StatusConfirmed         Status = "confirmed"
	StatusFailed            Status = "failed"

	// StatusSkippedDuplicate is a reporting disposition, not a stored
	// state: a blocked attempt creates no record, so nothing ever holds
	// this status. Run summaries count it.
	StatusSkippedDuplicate Status = "skipped_duplicate"
)

// Failure reasons recorded on StatusFailed. Adapter errors are recorded
// verbatim in addition to the taxonomy tag.
const (
	ReasonAnswerGenerationFailed = "answer_generation_failed"
	ReasonAdapterTransient       = "adapter_transient_error"
	ReasonAdapterPermanent       = "adapter_permanent_error"
	ReasonSubmissionRejected     = "submission_rejected"
	ReasonJobDisappeared         = "job_disappeared"
)

// Terminal reports whether no further transition may leave the status.
func (s Status) Terminal() bool {
	switch s {
	case StatusConfirmed, StatusFailed, StatusSkippedDuplicate:
		return true
	}
	return false
}

// transitions is the allowed state graph. StatusFailed is reachable from
// every non-terminal state since any pipeline step can fail.
var transitions = map[Status][]Status{
	StatusDiscovered:        {StatusMatched, StatusFailed},
	StatusMatched:           {StatusQuestionsDetected, StatusFailed},
	StatusQuestionsDetected: {StatusAnswersGenerated, StatusFailed},
	StatusAnswersGenerated:  {StatusSubmitted, StatusFailed},
	StatusSubmitted:         {StatusConfirmed, StatusFailed},
}

// CanTransition reports whether the move from one status to another follows
// the state graph.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition is one recorded state change.
type Transition struct {
	From Status    `json:"from"`
	To   Status    `json:"to"`
	At   time.Time `json:"at"`
}

// Record is the unit of application tracking: one attempt to apply to one
// job for one profile. Records are append-only; a permitted re-application
// creates a new attempt instead of mutating a terminal record.
type Record struct {
	AttemptID     string `json:"attempt_id"`
	ProfileID     string `json:"profile_id"`
	PlatformID    string `json:"platform_id"`
	ExternalJobID string `json:"external_job_id"`
	Attempt       int    `json:"attempt"`

	Status   Status  `json:"status"`
	JobTitle string  `json:"job_title,omitempty"`
	Company  string  `json:"company,omitempty"`
	Score    float64 `json:"score,omitempty"`

	// Answers is the submitted answer set, recorded at AnswersGenerated.
	Answers []qa.Answer `json:"answers,omitempty"`

	// FailureReason carries the taxonomy tag and, when present, the
	// verbatim adapter error.
	FailureReason string `json:"failure_reason,omitempty"`

	// SubmitRetried marks that the one allowed submission retry was used.
	SubmitRetried bool `json:"submit_retried,omitempty"`

	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Transitions []Transition `json:"transitions,omitempty"`
}

// NewRecord creates an attempt record in StatusDiscovered.
func NewRecord(profileID, platformID, externalJobID string, attempt int, now time.Time) *Record {
	return &Record{
		AttemptID:     uuid.NewString(),
		ProfileID:     profileID,
		PlatformID:    platformID,
		ExternalJobID: externalJobID,
		Attempt:       attempt,
		Status:        StatusDiscovered,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Key identifies the (profile, platform, job) tuple the duplicate gate
// guards.
func (r *Record) Key() string {
	return fmt.Sprintf("%s/%s/%s", r.ProfileID, r.PlatformID, r.ExternalJobID)
}

// InvalidTransitionError reports a state change that is not in the graph.
type InvalidTransitionError struct {
	Key  string
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s for %s", e.From, e.To, e.Key)
}

// apply moves the record to the next status, recording the transition.
func (r *Record) apply(to Status, now time.Time) error {
	if !CanTransition(r.Status, to) {
		return &InvalidTransitionError{Key: r.Key(), From: r.Status, To: to}
	}

	r.Transitions = append(r.Transitions, Transition{From: r.Status, To: to, At: now})
	r.Status = to
	r.UpdatedAt = now

	return nil
}
