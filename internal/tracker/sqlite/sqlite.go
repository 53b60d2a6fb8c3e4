// Package sqlite persists tracker records in a SQLite database so the
// duplicate gate survives across runs and processes.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Kiranreddymk90/ai-job-application-agent/internal/qa"
	"github.com/Kiranreddymk90/ai-job-application-agent/internal/tracker"
)

type Store struct {
	db *sql.DB
}

// Open opens the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open tracker database: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS attempts (
	attempt_id TEXT PRIMARY KEY,
	profile_id TEXT NOT NULL,
	platform_id TEXT NOT NULL,
	external_job_id TEXT NOT NULL,
	attempt INTEGER NOT NULL,
	status TEXT NOT NULL,
	job_title TEXT,
	company TEXT,
	score REAL,
	answers TEXT,
	failure_reason TEXT,
	submit_retried INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	transitions TEXT,
	UNIQUE(profile_id, platform_id, external_job_id, attempt)
);
`)
	if err != nil {
		return fmt.Errorf("migrate tracker schema: %w", err)
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, record *tracker.Record) error {
	answers, transitions, err := encodeRecord(record)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO attempts (
	attempt_id, profile_id, platform_id, external_job_id, attempt,
	status, job_title, company, score, answers,
	failure_reason, submit_retried, created_at, updated_at, transitions
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(attempt_id) DO UPDATE SET
	status = excluded.status,
	job_title = excluded.job_title,
	company = excluded.company,
	score = excluded.score,
	answers = excluded.answers,
	failure_reason = excluded.failure_reason,
	submit_retried = excluded.submit_retried,
	updated_at = excluded.updated_at,
	transitions = excluded.transitions;
`,
		record.AttemptID, record.ProfileID, record.PlatformID, record.ExternalJobID, record.Attempt,
		string(record.Status), record.JobTitle, record.Company, record.Score, answers,
		record.FailureReason, boolToInt(record.SubmitRetried),
		record.CreatedAt.Format(time.RFC3339Nano), record.UpdatedAt.Format(time.RFC3339Nano), transitions,
	)
	if err != nil {
		return fmt.Errorf("upsert attempt %s: %w", record.Key(), err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, profileID, platformID, externalJobID string) (*tracker.Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+`
FROM attempts
WHERE profile_id = ? AND platform_id = ? AND external_job_id = ?
ORDER BY attempt DESC
LIMIT 1;
`, profileID, platformID, externalJobID)

	record, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load attempt: %w", err)
	}

	return record, nil
}

func (s *Store) ListByProfile(ctx context.Context, profileID string) ([]*tracker.Record, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+`
FROM attempts
WHERE profile_id = ?
ORDER BY created_at ASC, attempt ASC;
`, profileID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var records []*tracker.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// InsertIfAbsent inserts the first attempt for a key inside a transaction so
// concurrent runs cannot both slip past the duplicate gate.
func (s *Store) InsertIfAbsent(ctx context.Context, record *tracker.Record) (*tracker.Record, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin insert transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, selectColumns+`
FROM attempts
WHERE profile_id = ? AND platform_id = ? AND external_job_id = ?
ORDER BY attempt DESC
LIMIT 1;
`, record.ProfileID, record.PlatformID, record.ExternalJobID)

	existing, err := scanRecord(row)
	if err != nil && err != sql.ErrNoRows {
		return nil, false, fmt.Errorf("check existing attempt: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	answers, transitions, err := encodeRecord(record)
	if err != nil {
		return nil, false, err
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO attempts (
	attempt_id, profile_id, platform_id, external_job_id, attempt,
	status, job_title, company, score, answers,
	failure_reason, submit_retried, created_at, updated_at, transitions
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`,
		record.AttemptID, record.ProfileID, record.PlatformID, record.ExternalJobID, record.Attempt,
		string(record.Status), record.JobTitle, record.Company, record.Score, answers,
		record.FailureReason, boolToInt(record.SubmitRetried),
		record.CreatedAt.Format(time.RFC3339Nano), record.UpdatedAt.Format(time.RFC3339Nano), transitions,
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert attempt %s: %w", record.Key(), err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit insert: %w", err)
	}

	return nil, true, nil
}

const selectColumns = `
SELECT attempt_id, profile_id, platform_id, external_job_id, attempt,
	status, job_title, company, score, answers,
	failure_reason, submit_retried, created_at, updated_at, transitions
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*tracker.Record, error) {
	var (
		record               tracker.Record
		status               string
		answers, transitions sql.NullString
		submitRetried        int
		createdAt, updatedAt string
	)

	err := row.Scan(
		&record.AttemptID, &record.ProfileID, &record.PlatformID, &record.ExternalJobID, &record.Attempt,
		&status, &record.JobTitle, &record.Company, &record.Score, &answers,
		&record.FailureReason, &submitRetried, &createdAt, &updatedAt, &transitions,
	)
	if err != nil {
		return nil, err
	}

	record.Status = tracker.Status(status)
	record.SubmitRetried = submitRetried != 0

	if record.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if record.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	if answers.Valid && answers.String != "" {
		var decoded []qa.Answer
		if err := json.Unmarshal([]byte(answers.String), &decoded); err != nil {
			return nil, fmt.Errorf("decode answers: %w", err)
		}
		record.Answers = decoded
	}
	if transitions.Valid && transitions.String != "" {
		var decoded []tracker.Transition
		if err := json.Unmarshal([]byte(transitions.String), &decoded); err != nil {
			return nil, fmt.Errorf("decode transitions: %w", err)
		}
		record.Transitions = decoded
	}

	return &record, nil
}

func encodeRecord(record *tracker.Record) (answers, transitions string, err error) {
	if len(record.Answers) > 0 {
		raw, err := json.Marshal(record.Answers)
		if err != nil {
			return "", "", fmt.Errorf("encode answers: %w", err)
		}
		answers = string(raw)
	}
	if len(record.Transitions) > 0 {
		raw, err := json.Marshal(record.Transitions)
		if err != nil {
			return "", "", fmt.Errorf("encode transitions: %w", err)
		}
		transitions = string(raw)
	}

	return answers, transitions, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
