package utils

import (
	"context"
	"time"
)

const (
	// DefaultTimeout bounds admin reads and writes against the option store.
	DefaultTimeout = 10 * time.Second

	// ShortTimeout bounds public embed requests, which must never hang a page.
	ShortTimeout = 2 * time.Second
)

func WithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultTimeout)
}

func WithShortTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, ShortTimeout)
}
