package core

import "fmt"

// ValidationError reports bad numeric or cursor input from the user.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// FormatError reports a malformed import payload.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid format: %s: %v", e.Reason, e.Err)
	}
	return "invalid format: " + e.Reason
}

func (e *FormatError) Unwrap() error { return e.Err }

// SyncKind classifies remote failures.
type SyncKind string

const (
	SyncNetwork  SyncKind = "network"
	SyncAuth     SyncKind = "auth"
	SyncConflict SyncKind = "conflict"
	SyncNotFound SyncKind = "not_found"
	SyncRemote   SyncKind = "remote"
	SyncContent  SyncKind = "content"
)

// SyncError reports a remote read or write failure. It never aborts a local save.
type SyncError struct {
	Op   string
	Kind SyncKind
	Err  error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s failed (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// ParseError reports corrupt content in local storage.
type ParseError struct {
	Key string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("corrupt stored value %q: %v", e.Key, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
