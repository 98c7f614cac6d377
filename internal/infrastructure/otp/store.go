// Package otp stores one-time verification codes and hands them to an SMS
// gateway. Codes are stored hashed; the caller compares them.
package otp

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned for unknown or expired verification ids.
var ErrNotFound = errors.New("verification not found")

type Entry struct {
	PhoneNumber string
	CodeHash    string
	Attempts    int
}

type CodeStore interface {
	Save(ctx context.Context, verificationID string, entry Entry, ttl time.Duration) error
	Get(ctx context.Context, verificationID string) (*Entry, error)
	// IncrementAttempts records a failed check and returns the new count.
	IncrementAttempts(ctx context.Context, verificationID string) (int, error)
	// Consume removes the entry and returns it in one step. Of several
	// concurrent callers exactly one gets the entry; the rest get ErrNotFound.
	Consume(ctx context.Context, verificationID string) (*Entry, error)
	Delete(ctx context.Context, verificationID string) error
}

type Sender interface {
	Send(ctx context.Context, phone, code string) error
}
