// Package memory provides an in-memory tracker store. It backs tests and
// dry runs where persistence across processes is not wanted.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Kiranreddymk90/ai-job-application-agent/internal/tracker"
)

type Store struct {
	mu sync.Mutex

	// attempts holds every attempt per key, ordered by attempt number.
	attempts map[string][]*tracker.Record
}

func New() *Store {
	return &Store{attempts: make(map[string][]*tracker.Record)}
}

func (s *Store) Upsert(_ context.Context, record *tracker.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := record.Key()
	for i, existing := range s.attempts[key] {
		if existing.AttemptID == record.AttemptID {
			s.attempts[key][i] = clone(record)
			return nil
		}
	}

	s.attempts[key] = append(s.attempts[key], clone(record))
	sort.SliceStable(s.attempts[key], func(i, j int) bool {
		return s.attempts[key][i].Attempt < s.attempts[key][j].Attempt
	})

	return nil
}

func (s *Store) Get(_ context.Context, profileID, platformID, externalJobID string) (*tracker.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return clone(s.latest(profileID + "/" + platformID + "/" + externalJobID)), nil
}

func (s *Store) ListByProfile(_ context.Context, profileID string) ([]*tracker.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []*tracker.Record
	for _, attempts := range s.attempts {
		for _, record := range attempts {
			if record.ProfileID == profileID {
				records = append(records, clone(record))
			}
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.Before(records[j].CreatedAt)
		}
		return records[i].Key() < records[j].Key()
	})

	return records, nil
}

func (s *Store) InsertIfAbsent(_ context.Context, record *tracker.Record) (*tracker.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := record.Key()
	if latest := s.latest(key); latest != nil {
		return clone(latest), false, nil
	}

	s.attempts[key] = append(s.attempts[key], clone(record))

	return nil, true, nil
}

func (s *Store) latest(key string) *tracker.Record {
	attempts := s.attempts[key]
	if len(attempts) == 0 {
		return nil
	}
	return attempts[len(attempts)-1]
}

// clone keeps callers from mutating stored records through shared pointers.
func clone(record *tracker.Record) *tracker.Record {
	if record == nil {
		return nil
	}

	copied := *record
	copied.Answers = append(copied.Answers[:0:0], record.Answers...)
	copied.Transitions = append(copied.Transitions[:0:0], record.Transitions...)

	return &copied
}
