// Package memory keeps every repository in process. It backs the "memory"
// database driver and the usecase tests.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/gdugdh24/rider-seeker-backend/internal/domain"
	"github.com/gdugdh24/rider-seeker-backend/internal/repository"
)

type swipeKey struct{ seekerID, rideID string }

type ratingKey struct{ matchID, raterID string }

type txKey struct{}

// Store holds the records of all repositories. Transactions are serialised
// by txMu; a failed transaction restores the snapshot taken when it began.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	users    map[string]domain.User
	profiles map[string]domain.Profile
	rides    map[string]domain.Ride
	swipes   map[swipeKey]domain.Swipe
	matches  map[string]domain.Match
	ratings  map[ratingKey]domain.Rating
	payments map[string]domain.Payment
}

func NewStore() *Store {
	return &Store{
		users:    make(map[string]domain.User),
		profiles: make(map[string]domain.Profile),
		rides:    make(map[string]domain.Ride),
		swipes:   make(map[swipeKey]domain.Swipe),
		matches:  make(map[string]domain.Match),
		ratings:  make(map[ratingKey]domain.Rating),
		payments: make(map[string]domain.Payment),
	}
}

type snapshot struct {
	users    map[string]domain.User
	profiles map[string]domain.Profile
	rides    map[string]domain.Ride
	swipes   map[swipeKey]domain.Swipe
	matches  map[string]domain.Match
	ratings  map[ratingKey]domain.Rating
	payments map[string]domain.Payment
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		users:    maps.Clone(s.users),
		profiles: maps.Clone(s.profiles),
		rides:    maps.Clone(s.rides),
		swipes:   maps.Clone(s.swipes),
		matches:  maps.Clone(s.matches),
		ratings:  maps.Clone(s.ratings),
		payments: maps.Clone(s.payments),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.profiles = snap.profiles
	s.rides = snap.rides
	s.swipes = snap.swipes
	s.matches = snap.matches
	s.ratings = snap.ratings
	s.payments = snap.payments
}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(bool)
	return ok
}

// write runs fn under the data lock. Outside a transaction it also takes
// txMu so a plain write never interleaves with a running transaction.
func (s *Store) write(ctx context.Context, fn func() error) error {
	if !inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func (s *Store) read(fn func()) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}

type txManager struct {
	store *Store
}

func NewTxManager(store *Store) repository.TxManager {
	return &txManager{store: store}
}

func (m *txManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	m.store.txMu.Lock()
	defer m.store.txMu.Unlock()

	snap := m.store.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

// paginate applies limit/offset the way the SQL repositories do.
// A non-positive limit means no limit.
func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	if offset > 0 {
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func cloneProfile(p domain.Profile) domain.Profile {
	p.Photos = slices.Clone(p.Photos)
	p.Hobbies = slices.Clone(p.Hobbies)
	p.Habits = slices.Clone(p.Habits)
	p.Personality = slices.Clone(p.Personality)
	return p
}
