// Package memory provides in-process stores with the same contracts as the
// Postgres repositories. They back the default single-node deployment and the
// unit tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/qurbani/share-reservations/internal/domain"
)

// AnimalStore keeps one mutex per animal; TryIncrementBooked is a
// compare-and-swap on (BookedShares, Version) under that mutex.
type AnimalStore struct {
	mu   sync.RWMutex
	rows map[string]*animalRow
}

type animalRow struct {
	mu     sync.Mutex
	animal domain.Animal
}

func NewAnimalStore() *AnimalStore {
	return &AnimalStore{rows: make(map[string]*animalRow)}
}

func (s *AnimalStore) row(id string) (*animalRow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rows[id]
	return r, ok
}

func (s *AnimalStore) CreateAnimal(_ context.Context, animal domain.Animal) error {
	if animal.ID == "" {
		return domain.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rows[animal.ID]; exists {
		return fmt.Errorf("create animal %s: already exists", animal.ID)
	}
	if animal.Version == 0 {
		animal.Version = 1
	}
	s.rows[animal.ID] = &animalRow{animal: animal}
	return nil
}

func (s *AnimalStore) GetAnimal(_ context.Context, id string) (domain.Animal, error) {
	r, ok := s.row(id)
	if !ok {
		return domain.Animal{}, domain.ErrAnimalNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.animal, nil
}

func (s *AnimalStore) ListAnimals(_ context.Context) ([]domain.Animal, error) {
	s.mu.RLock()
	rows := make([]*animalRow, 0, len(s.rows))
	for _, r := range s.rows {
		rows = append(rows, r)
	}
	s.mu.RUnlock()

	out := make([]domain.Animal, 0, len(rows))
	for _, r := range rows {
		r.mu.Lock()
		out = append(out, r.animal)
		r.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// TryIncrementBooked adds delta (negative to compensate or cancel) to the
// animal's booked shares if expectedVersion is current. ErrExceeded wins over
// ErrConflict so a stale caller learns the shares are gone without retrying.
func (s *AnimalStore) TryIncrementBooked(_ context.Context, id string, delta int, expectedVersion int64) (int64, error) {
	if delta == 0 {
		return 0, domain.ErrInvalidShares
	}
	r, ok := s.row(id)
	if !ok {
		return 0, domain.ErrAnimalNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.animal.BookedShares + delta
	if next > r.animal.TotalShares {
		return 0, domain.ErrExceeded
	}
	if next < 0 {
		return 0, fmt.Errorf("booked shares of %s would drop below zero: %w", id, domain.ErrInvalidShares)
	}
	if r.animal.Version != expectedVersion {
		return 0, domain.ErrConflict
	}
	r.animal.BookedShares = next
	r.animal.Version++
	return r.animal.Version, nil
}

// UpdateAnimal rewrites the catalogue fields of a stored animal and bumps its
// version. Share counts are left as stored.
func (s *AnimalStore) UpdateAnimal(_ context.Context, animal domain.Animal) (domain.Animal, error) {
	r, ok := s.row(animal.ID)
	if !ok {
		return domain.Animal{}, domain.ErrAnimalNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.animal
	cur.Name = animal.Name
	cur.Category = animal.Category
	cur.Breed = animal.Breed
	cur.WeightKg = animal.WeightKg
	cur.Age = animal.Age
	cur.Price = animal.Price
	cur.PricePerShare = animal.PricePerShare
	cur.ImageURL = animal.ImageURL
	cur.Version++
	r.animal = cur
	return cur, nil
}

func (s *AnimalStore) DeleteAnimal(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok {
		return domain.ErrAnimalNotFound
	}
	r.mu.Lock()
	booked := r.animal.BookedShares
	r.mu.Unlock()
	if booked > 0 {
		return domain.ErrAnimalHasBookings
	}
	delete(s.rows, id)
	return nil
}
