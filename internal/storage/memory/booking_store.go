package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/qurbani/share-reservations/internal/domain"
)

type BookingStore struct {
	mu       sync.RWMutex
	bookings map[string]domain.Booking
}

func NewBookingStore() *BookingStore {
	return &BookingStore{bookings: make(map[string]domain.Booking)}
}

// CreateBookings stores all bookings or none.
func (s *BookingStore) CreateBookings(_ context.Context, bookings []domain.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range bookings {
		if b.ID == "" {
			return domain.ErrInvalidID
		}
		if _, exists := s.bookings[b.ID]; exists {
			return domain.ErrIdempotencyConflict
		}
	}
	for _, b := range bookings {
		s.bookings[b.ID] = b
	}
	return nil
}

func (s *BookingStore) GetBooking(_ context.Context, id string) (domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return domain.Booking{}, domain.ErrBookingNotFound
	}
	return b, nil
}

// ListBySubmission returns the bookings one checkout created, ordered by
// animal id like the commit lines.
func (s *BookingStore) ListBySubmission(_ context.Context, key string) ([]domain.Booking, error) {
	if key == "" {
		return nil, nil
	}
	out := s.filter(func(b domain.Booking) bool { return b.SubmissionKey == key })
	sort.SliceStable(out, func(i, j int) bool { return out[i].AnimalID < out[j].AnimalID })
	return out, nil
}

func (s *BookingStore) ListByAnimal(_ context.Context, animalID string) ([]domain.Booking, error) {
	return s.filter(func(b domain.Booking) bool { return b.AnimalID == animalID }), nil
}

func (s *BookingStore) ListBySession(_ context.Context, sessionID string) ([]domain.Booking, error) {
	return s.filter(func(b domain.Booking) bool { return b.SessionID == sessionID }), nil
}

// UpdateStatus moves a booking from one status to another; it fails with
// ErrInvalidTransition when the stored status is no longer from.
func (s *BookingStore) UpdateStatus(_ context.Context, id string, from, to domain.BookingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return domain.ErrBookingNotFound
	}
	if b.Status != from {
		return domain.ErrInvalidTransition
	}
	b.Status = to
	s.bookings[id] = b
	return nil
}

func (s *BookingStore) filter(keep func(domain.Booking) bool) []domain.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Booking
	for _, b := range s.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
