// Package tracker is the system of record for application attempts. It
// enforces the state machine and the at-most-one-submission guarantee per
// (profile, platform, job) key.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Kiranreddymk90/ai-job-application-agent/internal/qa"
)

// ErrDuplicateApplication signals that the duplicate gate blocked a new
// attempt. It is a no-op outcome, not a failure.
var ErrDuplicateApplication = errors.New("duplicate application")

type Tracker struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	keyLocks map[string]*sync.Mutex
}

func New(store Store, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Tracker{
		store:    store,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		keyLocks: make(map[string]*sync.Mutex),
	}
}

// lockKey serializes all writes for one (profile, platform, job) key.
func (t *Tracker) lockKey(key string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	lock, ok := t.keyLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		t.keyLocks[key] = lock
	}
	return lock
}

// Begin is the duplicate gate. It creates a Discovered record for the key
// unless an attempt already blocks it: Confirmed and Submitted always
// block, and so does any attempt still in flight. A blocked Begin returns
// ErrDuplicateApplication and creates nothing. A Failed attempt permits a
// fresh one.
func (t *Tracker) Begin(ctx context.Context, profileID, platformID, externalJobID string) (*Record, error) {
	record := NewRecord(profileID, platformID, externalJobID, 1, t.now())

	lock := t.lockKey(record.Key())
	lock.Lock()
	defer lock.Unlock()

	existing, inserted, err := t.store.InsertIfAbsent(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("insert attempt: %w", err)
	}
	if inserted {
		return record, nil
	}

	if existing.Status != StatusFailed {
		t.logger.Debug("duplicate gate blocked attempt",
			zap.String("key", record.Key()),
			zap.String("existing_status", string(existing.Status)),
		)
		return nil, fmt.Errorf("%s already %s: %w", record.Key(), existing.Status, ErrDuplicateApplication)
	}

	// Failed is terminal but retryable: supersede with a new attempt.
	record.Attempt = existing.Attempt + 1
	if err := t.store.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("insert retry attempt: %w", err)
	}

	return record, nil
}

// Transition advances a record through the state graph and persists it.
func (t *Tracker) Transition(ctx context.Context, record *Record, to Status) error {
	lock := t.lockKey(record.Key())
	lock.Lock()
	defer lock.Unlock()

	if err := record.apply(to, t.now()); err != nil {
		return err
	}
	return t.persist(ctx, record)
}

// RecordAnswers transitions to AnswersGenerated, storing the full answer
// set that will be submitted.
func (t *Tracker) RecordAnswers(ctx context.Context, record *Record, answers []qa.Answer) error {
	lock := t.lockKey(record.Key())
	lock.Lock()
	defer lock.Unlock()

	if err := record.apply(StatusAnswersGenerated, t.now()); err != nil {
		return err
	}
	record.Answers = answers
	return t.persist(ctx, record)
}

// Fail moves a record to Failed with the given taxonomy reason. The
// verbatim cause, when present, is appended so the disposition is fully
// resolvable from the record alone.
func (t *Tracker) Fail(ctx context.Context, record *Record, reason string, cause error) error {
	lock := t.lockKey(record.Key())
	lock.Lock()
	defer lock.Unlock()

	if err := record.apply(StatusFailed, t.now()); err != nil {
		return err
	}

	record.FailureReason = reason
	if cause != nil {
		record.FailureReason = fmt.Sprintf("%s: %v", reason, cause)
	}

	return t.persist(ctx, record)
}

// MarkSubmitRetried flags that the single allowed submission retry was
// consumed.
func (t *Tracker) MarkSubmitRetried(ctx context.Context, record *Record) error {
	lock := t.lockKey(record.Key())
	lock.Lock()
	defer lock.Unlock()

	record.SubmitRetried = true
	record.UpdatedAt = t.now()
	return t.persist(ctx, record)
}

// History returns every recorded attempt for the profile, oldest first.
func (t *Tracker) History(ctx context.Context, profileID string) ([]*Record, error) {
	return t.store.ListByProfile(ctx, profileID)
}

// Lookup returns the latest attempt for a key, nil when none exists.
func (t *Tracker) Lookup(ctx context.Context, profileID, platformID, externalJobID string) (*Record, error) {
	return t.store.Get(ctx, profileID, platformID, externalJobID)
}

func (t *Tracker) persist(ctx context.Context, record *Record) error {
	if err := t.store.Upsert(ctx, record); err != nil {
		return fmt.Errorf("persist record %s: %w", record.Key(), err)
	}
	return nil
}
