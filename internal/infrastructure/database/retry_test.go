package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestRetryStopsOnSuccess(t *testing.T) {
	calls := 0
	err := retry(context.Background(), zerolog.Nop(), "test", func(context.Context) error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Fatalf("retry() = %v after %d calls, want nil after 1", err, calls)
	}
}

func TestRetryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	boom := errors.New("connection refused")
	calls := 0

	done := make(chan error, 1)
	go func() {
		done <- retry(ctx, zerolog.Nop(), "test", func(context.Context) error {
			calls++
			cancel()
			return boom
		})
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("retry() error = %v, want context.Canceled", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	case <-time.After(time.Second):
		t.Fatal("retry() did not return after cancellation")
	}
}
