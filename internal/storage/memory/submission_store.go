package memory

import (
	"context"
	"sync"
	"time"

	"github.com/qurbani/share-reservations/internal/domain"
)

type SubmissionStore struct {
	mu   sync.Mutex
	subs map[string]domain.Submission
}

func NewSubmissionStore() *SubmissionStore {
	return &SubmissionStore{subs: make(map[string]domain.Submission)}
}

// Begin records a pending submission. A key that already exists fails with
// ErrIdempotencyConflict; the caller re-reads to decide what to return.
func (s *SubmissionStore) Begin(_ context.Context, sub domain.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.subs[sub.Key]; exists {
		return domain.ErrIdempotencyConflict
	}
	sub.Status = domain.SubmissionStatusPending
	s.subs[sub.Key] = sub
	return nil
}

// Get returns nil when the key is unknown.
func (s *SubmissionStore) Get(_ context.Context, key string) (*domain.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[key]
	if !ok {
		return nil, nil
	}
	sub.BookingIDs = append([]string(nil), sub.BookingIDs...)
	return &sub, nil
}

func (s *SubmissionStore) Complete(_ context.Context, key string, bookingIDs []string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[key]
	if !ok {
		return domain.ErrSubmissionNotFound
	}
	sub.Status = domain.SubmissionStatusCommitted
	sub.BookingIDs = append([]string(nil), bookingIDs...)
	sub.UpdatedAt = at
	s.subs[key] = sub
	return nil
}

// Discard forgets a pending key so the buyer can retry with it.
func (s *SubmissionStore) Discard(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub, ok := s.subs[key]; ok && sub.Status == domain.SubmissionStatusPending {
		delete(s.subs, key)
	}
	return nil
}
