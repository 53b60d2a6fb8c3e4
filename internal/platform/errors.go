package platform

import (
	"errors"
	"fmt"
)

// ErrLoginFailed is returned by callers that need a sentinel for an aborted
// platform run after Login returned false.
var ErrLoginFailed = errors.New("login failed")

// TransientError is a retryable adapter failure: network errors, timeouts,
// 5xx responses. The orchestrator retries the affected job at most once.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient adapter error: %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError is a non-retryable adapter failure, e.g. a locked account
// or a rejected request that will not succeed on retry.
type PermanentError struct {
	Op  string
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent adapter error: %s: %v", e.Op, e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// Transient wraps err as a retryable adapter failure.
func Transient(op string, err error) error {
	return &TransientError{Op: op, Err: err}
}

// Permanent wraps err as a non-retryable adapter failure.
func Permanent(op string, err error) error {
	return &PermanentError{Op: op, Err: err}
}

// IsTransient reports whether err is a retryable adapter failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsPermanent reports whether err is a non-retryable adapter failure.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
