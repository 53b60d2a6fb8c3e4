// Package platform defines the contract every job platform adapter
// satisfies. Adapters own nothing durable: a live session handle and a login
// flag. All tracking state lives in the application tracker.
package platform

import (
	"context"
	"errors"

	"github.com/Kiranreddymk90/ai-job-application-agent/internal/job"
	"github.com/Kiranreddymk90/ai-job-application-agent/internal/qa"
)

// SearchFilters narrows a platform search. Adapters map these onto their
// own wire parameters.
type SearchFilters struct {
	Text             string   `mapstructure:"text"`
	Locations        []string `mapstructure:"locations"`
	Remote           bool     `mapstructure:"remote"`
	PerPage          int      `mapstructure:"per-page"`
	PostedWithinDays int      `mapstructure:"posted-within-days"`
}

// ErrEndOfSearch signals that a search cursor is exhausted.
var ErrEndOfSearch = errors.New("end of search")

// SearchCursor yields postings in platform order, fetching pages on demand.
// A cursor is not restartable; restart by calling SearchJobs again.
type SearchCursor interface {
	// Next returns the next posting or ErrEndOfSearch when the sequence
	// is exhausted.
	Next(ctx context.Context) (*job.Posting, error)
}

// Adapter is implemented once per supported platform. Only adapters talk to
// the external platform.
type Adapter interface {
	// ID returns the platform id, unique across configured adapters.
	ID() string

	// Login authenticates the session. Expected failures (bad
	// credentials, rejected login) return (false, nil); only transport
	// or configuration problems return an error. The adapter is left in
	// a well-defined logged-in state either way.
	Login(ctx context.Context) (bool, error)

	// IsLoggedIn reports the current session state.
	IsLoggedIn() bool

	// SearchJobs starts a lazy search. It must not mutate any state
	// outside the returned cursor.
	SearchJobs(ctx context.Context, filters *SearchFilters) (SearchCursor, error)

	// GetJobDetails fetches the full posting including the application
	// form text. A nil posting with nil error means the job disappeared.
	GetJobDetails(ctx context.Context, externalID string) (*job.Posting, error)

	// SubmitApplication is the only call with an external side effect of
	// record. True means the platform accepted the submission. Safe to
	// retry at most once; the caller tracks whether a retry occurred.
	SubmitApplication(ctx context.Context, posting *job.Posting, answers []qa.Answer) (bool, error)

	// Logout ends the session. Best effort.
	Logout(ctx context.Context) (bool, error)
}
