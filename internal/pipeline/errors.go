package pipeline

import (
	"errors"
	"fmt"
)

// Stage names the pipeline step an error occurred in.
type Stage string

// Pipeline stages, in execution order.
const (
	StageFetch   Stage = "fetch"
	StageExtract Stage = "extract"
	StageMap     Stage = "map"
	StageWrite   Stage = "write"
)

// Sentinel error kinds. Components wrap these with %w; the runner and the
// presentation shell match them with errors.Is.
var (
	ErrFetch          = errors.New("catalog fetch failed")
	ErrNotFound       = errors.New("not found")
	ErrRateLimited    = errors.New("rate limited")
	ErrParse          = errors.New("payload parse failed")
	ErrMapping        = errors.New("schema mapping failed")
	ErrAuth           = errors.New("authentication failed")
	ErrSchemaMismatch = errors.New("schema mismatch")
	ErrWrite          = errors.New("record write failed")
)

// Kind is the short machine-readable classification of a failure.
type Kind string

// Failure kinds, one per sentinel.
const (
	KindFetch          Kind = "fetch_failed"
	KindNotFound       Kind = "not_found"
	KindRateLimited    Kind = "rate_limited"
	KindParse          Kind = "parse_failed"
	KindMapping        Kind = "mapping_failed"
	KindAuth           Kind = "auth_failed"
	KindSchemaMismatch Kind = "schema_mismatch"
	KindWrite          Kind = "write_failed"
	KindUnknown        Kind = "unknown"
)

// KindOf classifies an error by the sentinel it wraps.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrParse):
		return KindParse
	case errors.Is(err, ErrMapping):
		return KindMapping
	case errors.Is(err, ErrAuth):
		return KindAuth
	case errors.Is(err, ErrSchemaMismatch):
		return KindSchemaMismatch
	case errors.Is(err, ErrFetch):
		return KindFetch
	case errors.Is(err, ErrWrite):
		return KindWrite
	default:
		return KindUnknown
	}
}

// Error is the single failure a run reports: the stage it stopped at, the
// classified kind, and the wrapped cause.
type Error struct {
	Stage Stage
	Kind  Kind
	ISBN  string
	Err   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s stage (%s) for isbn %s: %v", e.Stage, e.Kind, e.ISBN, e.Err)
}

// Unwrap exposes the cause for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError tags a component failure with its stage.
func NewError(stage Stage, isbn string, err error) *Error {
	return &Error{Stage: stage, Kind: KindOf(err), ISBN: isbn, Err: err}
}
