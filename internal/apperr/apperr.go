// Package apperr defines the error taxonomy shared by services and handlers.
// Services wrap these sentinels with context; handlers map them to HTTP
// status codes with errors.Is.
package apperr

import (
    "errors"
    "time"
)

var (
    // ErrValidation marks missing or malformed input (400).
    ErrValidation = errors.New("validation failed")
    // ErrUnauthorized marks a missing, invalid or expired credential (401).
    ErrUnauthorized = errors.New("unauthorized")
    // ErrForbidden marks an authenticated but disallowed request (403).
    ErrForbidden = errors.New("forbidden")
    // ErrNotFound marks an absent resource (404).
    ErrNotFound = errors.New("not found")
    // ErrConflict marks a duplicate unique field.
    ErrConflict = errors.New("conflict")
)

// BlockedError is returned when a blocked account attempts to authenticate.
// Until is nil for a block without expiry.
type BlockedError struct {
    Until *time.Time
}

func (e *BlockedError) Error() string {
    if e.Until == nil {
        return "account blocked"
    }
    return "account blocked until " + e.Until.UTC().Format(time.RFC3339)
}

// Is makes a BlockedError match ErrForbidden.
func (e *BlockedError) Is(target error) bool { return target == ErrForbidden }
