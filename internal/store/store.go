// Package store provides the key/value persistence backends that hold the
// API key, the usage record and the test history.
package store

import (
	"context"
	"fmt"
)

// Backend is a string key/value store. Implementations must be safe for
// concurrent use.
type Backend interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
	Close() error
}

// Keys used by the application stores.
const (
	KeyAPIKey      = "apiKey"
	KeyUsage       = "usage"
	KeyTestHistory = "testHistory"
)

// ReadError reports a persisted value that exists but cannot be decoded.
// Callers treat it as an absent value.
type ReadError struct {
	Key string
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("unreadable value for key %q: %v", e.Key, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }
