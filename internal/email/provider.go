package email

import (
	"context"
	"fmt"
	"time"
)

// Provider opens authenticated sessions against a mailbox
type Provider interface {
	Open(ctx context.Context, token, accountEmail string) (Session, error)
}

// Session reads recent messages from one mailbox
type Session interface {
	// ListRecent returns ids of at most limit messages received after the
	// given time, newest first
	ListRecent(ctx context.Context, after time.Time, limit int64) ([]string, error)
	// GetMessage fetches one message with its full MIME tree
	GetMessage(ctx context.Context, id string) (*Message, error)
	Close() error
}

// ProviderError is a non-2xx answer from the mail provider
type ProviderError struct {
	Status int
	Err    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("mail provider returned status %d", e.Status)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
