// Package options is the named key-value store that persists plugin options.
package options

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no option with that name was ever written.
var ErrNotFound = errors.New("options: not found")

// Store persists option values keyed by name. Writes are last-writer-wins.
type Store interface {
	// Get decodes the stored value into dst.
	Get(ctx context.Context, name string, dst interface{}) error
	// Set creates or replaces the value.
	Set(ctx context.Context, name string, value interface{}) error
	// Add stores value only if name is unused and reports whether it did.
	Add(ctx context.Context, name string, value interface{}) (bool, error)
}
