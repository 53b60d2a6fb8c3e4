package tracker

import "context"

// Store is the durable persistence contract the tracker delegates to.
// Implementations must make InsertIfAbsent atomic: it is the foundation of
// the duplicate gate.
type Store interface {
	// Upsert writes the record, replacing any stored attempt with the
	// same attempt id.
	Upsert(ctx context.Context, record *Record) error

	// Get returns the latest attempt for the key, or nil when no attempt
	// exists.
	Get(ctx context.Context, profileID, platformID, externalJobID string) (*Record, error)

	// ListByProfile returns every attempt for a profile, oldest first.
	ListByProfile(ctx context.Context, profileID string) ([]*Record, error)

	// InsertIfAbsent atomically inserts the record only when the key has
	// no attempt at all. When one exists, it returns the latest attempt
	// and false; the tracker decides whether that attempt blocks or may
	// be superseded.
	InsertIfAbsent(ctx context.Context, record *Record) (*Record, bool, error)
}
