// Package render settles pages whose images are injected lazily by client-side
// script, using a live rendering session.
package render

import (
	"context"
	"errors"
	"time"
)

// ErrElementsNotFound is returned when the expected elements never appear
// within the wait timeout. It is a soft failure for one page.
var ErrElementsNotFound = errors.New("expected elements not found")

// Element addresses one node matched by a selector at wait time.
type Element struct {
	Selector string
	Index    int
}

// Session is a live rendering session positioned at one page at a time.
// Close must be safe to call more than once.
type Session interface {
	Navigate(ctx context.Context, url string) error
	WaitForElements(ctx context.Context, selector string, timeout time.Duration) ([]Element, error)
	ScrollToBottom(ctx context.Context) error
	DocumentHeight(ctx context.Context) (int, error)
	ReadAttribute(ctx context.Context, el Element, name string) (string, bool, error)
	Close() error
}

// Opener hands out sessions. Every session must be closed by its caller.
type Opener interface {
	NewSession(ctx context.Context) (Session, error)
}
