package otp

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestMemoryCodeStoreExpiry(t *testing.T) {
	store := NewMemoryCodeStore()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	if err := store.Save(ctx, "v1", Entry{PhoneNumber: "+15551234567", CodeHash: "h"}, time.Minute); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := store.Get(ctx, "v1"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	now = now.Add(time.Minute)
	if _, err := store.Get(ctx, "v1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after ttl error = %v, want ErrNotFound", err)
	}
}

func TestMemoryCodeStoreAttempts(t *testing.T) {
	store := NewMemoryCodeStore()
	ctx := context.Background()

	_ = store.Save(ctx, "v1", Entry{PhoneNumber: "+15551234567", CodeHash: "h"}, time.Minute)
	for want := 1; want <= 3; want++ {
		got, err := store.IncrementAttempts(ctx, "v1")
		if err != nil {
			t.Fatalf("IncrementAttempts() error = %v", err)
		}
		if got != want {
			t.Errorf("IncrementAttempts() = %d, want %d", got, want)
		}
	}

	_ = store.Delete(ctx, "v1")
	if _, err := store.IncrementAttempts(ctx, "v1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("IncrementAttempts() after delete error = %v, want ErrNotFound", err)
	}
}

func TestMemoryCodeStoreConsumeHasOneWinner(t *testing.T) {
	store := NewMemoryCodeStore()
	ctx := context.Background()
	_ = store.Save(ctx, "v1", Entry{PhoneNumber: "+15551234567", CodeHash: "h"}, time.Minute)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry, err := store.Consume(ctx, "v1")
			if err != nil {
				if !errors.Is(err, ErrNotFound) {
					t.Errorf("Consume() error = %v", err)
				}
				return
			}
			if entry.PhoneNumber != "+15551234567" {
				t.Errorf("Consume() phone = %q", entry.PhoneNumber)
			}
			mu.Lock()
			wins++
			mu.Unlock()
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("Consume() winners = %d, want 1", wins)
	}
	if _, err := store.Get(ctx, "v1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after consume error = %v, want ErrNotFound", err)
	}
}

func TestMaskPhone(t *testing.T) {
	if got := maskPhone("+15551234567"); got != "+1555123****" {
		t.Errorf("maskPhone() = %q", got)
	}
	if got := maskPhone("123"); got != "****" {
		t.Errorf("maskPhone() = %q", got)
	}
}
