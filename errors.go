package chores

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownTask    = errors.New("unknown task")
	ErrUnknownChild   = errors.New("unknown child")
	ErrInvalidDate    = errors.New("invalid date")
	ErrInvalidCatalog = errors.New("invalid catalog")

	// Remote sync failures. Every error returned by RemoteStore wraps
	// exactly one of these.
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrMalformedResponse  = errors.New("malformed response")
	ErrServerRejected     = errors.New("server rejected request")
)

// SyncError describes a failed call to the remote store
type SyncError struct {
	Op         string // "load" or "save"
	StatusCode int    // zero when no response was received
	Err        error
}

func (e *SyncError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// Temporary reports whether retrying the call could succeed.
// Client errors (4xx) and malformed payloads are not temporary.
func (e *SyncError) Temporary() bool {
	if errors.Is(e.Err, ErrNetworkUnavailable) {
		return true
	}
	if errors.Is(e.Err, ErrServerRejected) {
		return e.StatusCode >= 500 || e.StatusCode == 429
	}
	return false
}
