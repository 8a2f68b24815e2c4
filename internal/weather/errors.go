package weather

import (
	"errors"
	"fmt"
)

var (
	ErrAPIKeyMissing       = errors.New("api key missing")
	ErrUnexpectedStatus    = errors.New("unexpected status code")
	ErrMalformedResponse   = errors.New("malformed response body")
	ErrIndexAlreadyExists  = errors.New("index already exists")
	ErrCycleAlreadyRunning = errors.New("cycle already running")
)

// FetchError reports a failed call to the weather provider.
type FetchError struct {
	Provider   string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Provider, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// StoreError reports a failed datastore operation.
type StoreError struct {
	Op         string // "exists", "create", "index"
	Index      string
	StatusCode int
	Err        error
}

func (e *StoreError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("store %s %q: status %d: %v", e.Op, e.Index, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("store %s %q: %v", e.Op, e.Index, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsFetchError reports whether err (or anything it wraps) is a *FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// IsStoreError reports whether err (or anything it wraps) is a *StoreError.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
