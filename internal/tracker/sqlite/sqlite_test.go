package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Kiranreddymk90/ai-job-application-agent/internal/qa"
	"github.com/Kiranreddymk90/ai-job-application-agent/internal/tracker"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "tracker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestUpsertRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	created := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	record := tracker.NewRecord("me", "board", "42", 1, created)
	record.JobTitle = "Go Developer"
	record.Company = "Acme"
	record.Score = 0.82
	record.Status = tracker.StatusAnswersGenerated
	record.SubmitRetried = true
	record.UpdatedAt = created.Add(2 * time.Minute)
	record.Answers = []qa.Answer{
		{QuestionText: "Why here?", QuestionOrdinal: 0, Text: "Because of the platform work.", Confidence: 0.9},
	}
	record.Transitions = []tracker.Transition{
		{From: tracker.StatusDiscovered, To: tracker.StatusMatched, At: created.Add(time.Minute)},
	}

	require.NoError(t, store.Upsert(ctx, record))

	stored, err := store.Get(ctx, "me", "board", "42")
	require.NoError(t, err)
	require.NotNil(t, stored)

	assert.Equal(t, record.AttemptID, stored.AttemptID)
	assert.Equal(t, tracker.StatusAnswersGenerated, stored.Status)
	assert.Equal(t, "Go Developer", stored.JobTitle)
	assert.Equal(t, 0.82, stored.Score)
	assert.True(t, stored.SubmitRetried)
	assert.Equal(t, record.Answers, stored.Answers)
	assert.Equal(t, record.Transitions, stored.Transitions)
	assert.True(t, stored.CreatedAt.Equal(created))
	assert.True(t, stored.UpdatedAt.Equal(created.Add(2*time.Minute)))
}

func TestUpsertReplacesSameAttempt(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	record := tracker.NewRecord("me", "board", "42", 1, now)
	require.NoError(t, store.Upsert(ctx, record))

	record.Status = tracker.StatusFailed
	record.FailureReason = "adapter_permanent_error: account locked"
	require.NoError(t, store.Upsert(ctx, record))

	stored, err := store.Get(ctx, "me", "board", "42")
	require.NoError(t, err)
	assert.Equal(t, tracker.StatusFailed, stored.Status)
	assert.Equal(t, "adapter_permanent_error: account locked", stored.FailureReason)
}

func TestGetReturnsLatestAttempt(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	first := tracker.NewRecord("me", "board", "42", 1, now)
	first.Status = tracker.StatusFailed
	require.NoError(t, store.Upsert(ctx, first))

	second := tracker.NewRecord("me", "board", "42", 2, now.Add(time.Hour))
	require.NoError(t, store.Upsert(ctx, second))

	stored, err := store.Get(ctx, "me", "board", "42")
	require.NoError(t, err)
	assert.Equal(t, second.AttemptID, stored.AttemptID)
	assert.Equal(t, 2, stored.Attempt)
}

func TestGetAbsentKey(t *testing.T) {
	store := openTestStore(t)

	stored, err := store.Get(context.Background(), "me", "board", "missing")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestInsertIfAbsent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	first := tracker.NewRecord("me", "board", "42", 1, now)

	existing, inserted, err := store.InsertIfAbsent(ctx, first)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Nil(t, existing)

	// A second insert for the same key loses and sees the winner.
	rival := tracker.NewRecord("me", "board", "42", 1, now)
	existing, inserted, err = store.InsertIfAbsent(ctx, rival)
	require.NoError(t, err)
	assert.False(t, inserted)
	require.NotNil(t, existing)
	assert.Equal(t, first.AttemptID, existing.AttemptID)
}

func TestListByProfile(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	older := tracker.NewRecord("me", "board", "1", 1, now)
	newer := tracker.NewRecord("me", "board", "2", 1, now.Add(time.Hour))
	other := tracker.NewRecord("someone-else", "board", "3", 1, now)

	require.NoError(t, store.Upsert(ctx, newer))
	require.NoError(t, store.Upsert(ctx, older))
	require.NoError(t, store.Upsert(ctx, other))

	records, err := store.ListByProfile(ctx, "me")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "1", records[0].ExternalJobID)
	assert.Equal(t, "2", records[1].ExternalJobID)
}

func TestConcurrentBeginAllowsSingleAttempt(t *testing.T) {
	store := openTestStore(t)
	tr := tracker.New(store, zap.NewNop())

	const runs = 8

	var wg sync.WaitGroup
	results := make([]error, runs)
	for i := range runs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, results[i] = tr.Begin(context.Background(), "me", "board", "42")
		}()
	}
	wg.Wait()

	won := 0
	for _, err := range results {
		if err == nil {
			won++
			continue
		}
		assert.ErrorIs(t, err, tracker.ErrDuplicateApplication)
	}
	assert.Equal(t, 1, won, "exactly one concurrent begin may win the insert")

	stored, err := store.Get(context.Background(), "me", "board", "42")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 1, stored.Attempt)
}
