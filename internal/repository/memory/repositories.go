package memory

import (
	"context"
	"sort"
	"time"

	"github.com/gdugdh24/rider-seeker-backend/internal/domain"
	"github.com/gdugdh24/rider-seeker-backend/internal/repository"
)

type userRepository struct{ s *Store }

func NewUserRepository(s *Store) repository.UserRepository {
	return &userRepository{s: s}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	return r.s.write(ctx, func() error {
		for _, u := range r.s.users {
			if u.PhoneNumber == user.PhoneNumber {
				return domain.ErrUserAlreadyExists
			}
		}
		if _, ok := r.s.users[user.ID]; ok {
			return domain.ErrUserAlreadyExists
		}
		r.s.users[user.ID] = *user
		return nil
	})
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var (
		u  domain.User
		ok bool
	)
	r.s.read(func() { u, ok = r.s.users[id] })
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r *userRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	var found *domain.User
	r.s.read(func() {
		for _, u := range r.s.users {
			if u.PhoneNumber == phone {
				u := u
				found = &u
				return
			}
		}
	})
	if found == nil {
		return nil, domain.ErrUserNotFound
	}
	return found, nil
}

func (r *userRepository) UpdateKYC(ctx context.Context, id string, status domain.KYCStatus, documentURL *string) error {
	return r.s.write(ctx, func() error {
		u, ok := r.s.users[id]
		if !ok {
			return domain.ErrUserNotFound
		}
		u.KYCStatus = &status
		if documentURL != nil {
			url := *documentURL
			u.KYCDocumentURL = &url
		}
		r.s.users[id] = u
		return nil
	})
}

type profileRepository struct{ s *Store }

func NewProfileRepository(s *Store) repository.ProfileRepository {
	return &profileRepository{s: s}
}

func (r *profileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	return r.s.write(ctx, func() error {
		if _, ok := r.s.profiles[profile.UserID]; ok {
			return domain.ErrProfileAlreadyExists
		}
		r.s.profiles[profile.UserID] = cloneProfile(*profile)
		return nil
	})
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	var (
		p  domain.Profile
		ok bool
	)
	r.s.read(func() { p, ok = r.s.profiles[userID] })
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	p = cloneProfile(p)
	return &p, nil
}

// GetByUserIDForUpdate needs no extra locking: transactions already hold txMu.
func (r *profileRepository) GetByUserIDForUpdate(ctx context.Context, userID string) (*domain.Profile, error) {
	return r.GetByUserID(ctx, userID)
}

func (r *profileRepository) Update(ctx context.Context, profile *domain.Profile) error {
	return r.s.write(ctx, func() error {
		if _, ok := r.s.profiles[profile.UserID]; !ok {
			return domain.ErrProfileNotFound
		}
		r.s.profiles[profile.UserID] = cloneProfile(*profile)
		return nil
	})
}

type rideRepository struct{ s *Store }

func NewRideRepository(s *Store) repository.RideRepository {
	return &rideRepository{s: s}
}

func (r *rideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	return r.s.write(ctx, func() error {
		r.s.rides[ride.ID] = *ride
		return nil
	})
}

func (r *rideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	var (
		ride domain.Ride
		ok   bool
	)
	r.s.read(func() { ride, ok = r.s.rides[id] })
	if !ok {
		return nil, domain.ErrRideNotFound
	}
	return &ride, nil
}

// GetForUpdate needs no extra locking: transactions already hold txMu.
func (r *rideRepository) GetForUpdate(ctx context.Context, id string) (*domain.Ride, error) {
	return r.GetByID(ctx, id)
}

func (r *rideRepository) Update(ctx context.Context, ride *domain.Ride) error {
	return r.s.write(ctx, func() error {
		if _, ok := r.s.rides[ride.ID]; !ok {
			return domain.ErrRideNotFound
		}
		r.s.rides[ride.ID] = *ride
		return nil
	})
}

func (r *rideRepository) ListWithin(ctx context.Context, status domain.RideStatus, box domain.BoundingBox) ([]*domain.Ride, error) {
	return r.list(func(ride *domain.Ride) bool {
		return ride.Status == status && box.Contains(ride.Start)
	}, 0, 0), nil
}

func (r *rideRepository) ListByRider(ctx context.Context, riderID string, limit, offset int) ([]*domain.Ride, error) {
	return r.list(func(ride *domain.Ride) bool { return ride.RiderID == riderID }, limit, offset), nil
}

func (r *rideRepository) list(keep func(*domain.Ride) bool, limit, offset int) []*domain.Ride {
	var rides []*domain.Ride
	r.s.read(func() {
		for _, ride := range r.s.rides {
			ride := ride
			if keep(&ride) {
				rides = append(rides, &ride)
			}
		}
	})
	sort.Slice(rides, func(i, j int) bool {
		return rides[i].CreatedAt.After(rides[j].CreatedAt)
	})
	return paginate(rides, limit, offset)
}

type swipeRepository struct{ s *Store }

func NewSwipeRepository(s *Store) repository.SwipeRepository {
	return &swipeRepository{s: s}
}

func (r *swipeRepository) Upsert(ctx context.Context, swipe *domain.Swipe) error {
	return r.s.write(ctx, func() error {
		key := swipeKey{swipe.SeekerID, swipe.RideID}
		if existing, ok := r.s.swipes[key]; ok {
			swipe.CreatedAt = existing.CreatedAt
		}
		r.s.swipes[key] = *swipe
		return nil
	})
}

func (r *swipeRepository) Get(ctx context.Context, seekerID, rideID string) (*domain.Swipe, error) {
	var (
		sw domain.Swipe
		ok bool
	)
	r.s.read(func() { sw, ok = r.s.swipes[swipeKey{seekerID, rideID}] })
	if !ok {
		return nil, domain.ErrSwipeNotFound
	}
	return &sw, nil
}

func (r *swipeRepository) ListRideIDsBySeeker(ctx context.Context, seekerID string) ([]string, error) {
	var ids []string
	r.s.read(func() {
		for key, sw := range r.s.swipes {
			if key.seekerID == seekerID && sw.ResetAt == nil {
				ids = append(ids, key.rideID)
			}
		}
	})
	sort.Strings(ids)
	return ids, nil
}

func (r *swipeRepository) ResetPasses(ctx context.Context, seekerID string, at time.Time) (int, error) {
	var n int
	err := r.s.write(ctx, func() error {
		for key, sw := range r.s.swipes {
			if key.seekerID == seekerID && sw.Action == domain.SwipePass && sw.ResetAt == nil {
				sw.ResetAt = &at
				r.s.swipes[key] = sw
				n++
			}
		}
		return nil
	})
	return n, err
}

type matchRepository struct{ s *Store }

func NewMatchRepository(s *Store) repository.MatchRepository {
	return &matchRepository{s: s}
}

func (r *matchRepository) Create(ctx context.Context, match *domain.Match) error {
	return r.s.write(ctx, func() error {
		for _, m := range r.s.matches {
			if m.RideID != match.RideID {
				continue
			}
			if m.SeekerID == match.SeekerID {
				return domain.ErrRideAlreadyMatched
			}
			if m.Status == domain.MatchActive && match.Status == domain.MatchActive {
				return domain.ErrRideAlreadyMatched
			}
		}
		r.s.matches[match.ID] = *match
		return nil
	})
}

func (r *matchRepository) GetByID(ctx context.Context, id string) (*domain.Match, error) {
	var (
		m  domain.Match
		ok bool
	)
	r.s.read(func() { m, ok = r.s.matches[id] })
	if !ok {
		return nil, domain.ErrMatchNotFound
	}
	return &m, nil
}

func (r *matchRepository) GetByRideAndSeeker(ctx context.Context, rideID, seekerID string) (*domain.Match, error) {
	var found *domain.Match
	r.s.read(func() {
		for _, m := range r.s.matches {
			if m.RideID == rideID && m.SeekerID == seekerID {
				m := m
				found = &m
				return
			}
		}
	})
	if found == nil {
		return nil, domain.ErrMatchNotFound
	}
	return found, nil
}

func (r *matchRepository) ListByRide(ctx context.Context, rideID string) ([]*domain.Match, error) {
	matches := r.list(func(m *domain.Match) bool { return m.RideID == rideID })
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	return matches, nil
}

func (r *matchRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Match, error) {
	matches := r.list(func(m *domain.Match) bool { return m.HasUser(userID) })
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return paginate(matches, limit, offset), nil
}

func (r *matchRepository) list(keep func(*domain.Match) bool) []*domain.Match {
	var matches []*domain.Match
	r.s.read(func() {
		for _, m := range r.s.matches {
			m := m
			if keep(&m) {
				matches = append(matches, &m)
			}
		}
	})
	return matches
}

func (r *matchRepository) Update(ctx context.Context, match *domain.Match) error {
	return r.s.write(ctx, func() error {
		if _, ok := r.s.matches[match.ID]; !ok {
			return domain.ErrMatchNotFound
		}
		if match.Status == domain.MatchActive {
			for id, m := range r.s.matches {
				if id != match.ID && m.RideID == match.RideID && m.Status == domain.MatchActive {
					return domain.ErrRideAlreadyMatched
				}
			}
		}
		r.s.matches[match.ID] = *match
		return nil
	})
}

type ratingRepository struct{ s *Store }

func NewRatingRepository(s *Store) repository.RatingRepository {
	return &ratingRepository{s: s}
}

func (r *ratingRepository) Upsert(ctx context.Context, rating *domain.Rating) error {
	return r.s.write(ctx, func() error {
		key := ratingKey{rating.MatchID, rating.RaterID}
		if existing, ok := r.s.ratings[key]; ok {
			rating.CreatedAt = existing.CreatedAt
		}
		r.s.ratings[key] = *rating
		return nil
	})
}

func (r *ratingRepository) ListByMatch(ctx context.Context, matchID string) ([]*domain.Rating, error) {
	var ratings []*domain.Rating
	r.s.read(func() {
		for key, rating := range r.s.ratings {
			rating := rating
			if key.matchID == matchID {
				ratings = append(ratings, &rating)
			}
		}
	})
	sort.Slice(ratings, func(i, j int) bool {
		return ratings[i].CreatedAt.Before(ratings[j].CreatedAt)
	})
	return ratings, nil
}

type paymentRepository struct{ s *Store }

func NewPaymentRepository(s *Store) repository.PaymentRepository {
	return &paymentRepository{s: s}
}

func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	return r.s.write(ctx, func() error {
		for _, p := range r.s.payments {
			if p.MatchID == payment.MatchID {
				return domain.ErrInvalidInput
			}
		}
		r.s.payments[payment.ID] = *payment
		return nil
	})
}

func (r *paymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	return r.find(func(p *domain.Payment) bool { return p.ID == id })
}

func (r *paymentRepository) GetByMatch(ctx context.Context, matchID string) (*domain.Payment, error) {
	return r.find(func(p *domain.Payment) bool { return p.MatchID == matchID })
}

func (r *paymentRepository) GetByProviderIntent(ctx context.Context, intentID string) (*domain.Payment, error) {
	return r.find(func(p *domain.Payment) bool {
		return p.ProviderIntentID != nil && *p.ProviderIntentID == intentID
	})
}

func (r *paymentRepository) find(match func(*domain.Payment) bool) (*domain.Payment, error) {
	var found *domain.Payment
	r.s.read(func() {
		for _, p := range r.s.payments {
			p := p
			if match(&p) {
				found = &p
				return
			}
		}
	})
	if found == nil {
		return nil, domain.ErrPaymentNotFound
	}
	return found, nil
}

func (r *paymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	return r.s.write(ctx, func() error {
		if _, ok := r.s.payments[payment.ID]; !ok {
			return domain.ErrPaymentNotFound
		}
		r.s.payments[payment.ID] = *payment
		return nil
	})
}
