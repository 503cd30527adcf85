package app

import (
	"context"
	"strings"

	"github.com/qurbani/share-reservations/internal/clock"
	"github.com/qurbani/share-reservations/internal/domain"
)

type AdminRepository interface {
	CreateAnimal(ctx context.Context, animal domain.Animal) error
	ListAnimals(ctx context.Context) ([]domain.Animal, error)
	GetAnimal(ctx context.Context, animalID string) (domain.Animal, error)
	UpdateAnimal(ctx context.Context, animal domain.Animal) (domain.Animal, error)
	DeleteAnimal(ctx context.Context, animalID string) error
}

type BookingLister interface {
	ListByAnimal(ctx context.Context, animalID string) ([]domain.Booking, error)
}

type AdminService struct {
	repo     AdminRepository
	bookings BookingLister
	clock    clock.Clock
}

func NewAdminService(repo AdminRepository, bookings BookingLister, clk clock.Clock) *AdminService {
	return &AdminService{
		repo:     repo,
		bookings: bookings,
		clock:    clk,
	}
}

type CreateAnimalInput struct {
	Name          string
	Category      string
	Breed         string
	WeightKg      int
	Age           string
	Price         int64
	PricePerShare int64
	ImageURL      string
	TotalShares   int
}

func (s *AdminService) CreateAnimal(ctx context.Context, in CreateAnimalInput) (domain.Animal, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Animal{}, domain.ErrAnimalNameRequired
	}
	if in.TotalShares <= 0 {
		return domain.Animal{}, domain.ErrInvalidTotalShares
	}
	if in.PricePerShare <= 0 {
		return domain.Animal{}, domain.ErrInvalidPrice
	}
	price := in.Price
	if price <= 0 {
		price = in.PricePerShare * int64(in.TotalShares)
	}

	animal := domain.Animal{
		ID:            newID(),
		Name:          name,
		Category:      strings.ToLower(strings.TrimSpace(in.Category)),
		Breed:         strings.TrimSpace(in.Breed),
		WeightKg:      in.WeightKg,
		Age:           strings.TrimSpace(in.Age),
		Price:         price,
		PricePerShare: in.PricePerShare,
		ImageURL:      strings.TrimSpace(in.ImageURL),
		TotalShares:   in.TotalShares,
		Version:       1,
		CreatedAt:     s.clock.Now(),
	}

	if err := s.repo.CreateAnimal(ctx, animal); err != nil {
		return domain.Animal{}, err
	}
	return animal, nil
}

func (s *AdminService) ListAnimals(ctx context.Context) ([]domain.Animal, error) {
	return s.repo.ListAnimals(ctx)
}

func (s *AdminService) GetAnimal(ctx context.Context, animalID string) (domain.Animal, error) {
	if animalID == "" {
		return domain.Animal{}, domain.ErrInvalidID
	}
	return s.repo.GetAnimal(ctx, animalID)
}

// UpdateAnimalInput holds the editable catalogue fields. TotalShares may be
// zero or the stored value; share counts never change after creation.
type UpdateAnimalInput struct {
	Name          string
	Category      string
	Breed         string
	WeightKg      int
	Age           string
	Price         int64
	PricePerShare int64
	ImageURL      string
	TotalShares   int
}

// UpdateAnimal rewrites the catalogue fields. The store bumps the version, so
// a commit racing the edit retries and books at the new price.
func (s *AdminService) UpdateAnimal(ctx context.Context, animalID string, in UpdateAnimalInput) (domain.Animal, error) {
	if animalID == "" {
		return domain.Animal{}, domain.ErrInvalidID
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Animal{}, domain.ErrAnimalNameRequired
	}
	if in.PricePerShare <= 0 {
		return domain.Animal{}, domain.ErrInvalidPrice
	}

	current, err := s.repo.GetAnimal(ctx, animalID)
	if err != nil {
		return domain.Animal{}, err
	}
	if in.TotalShares != 0 && in.TotalShares != current.TotalShares {
		return domain.Animal{}, domain.ErrTotalSharesImmutable
	}
	price := in.Price
	if price <= 0 {
		price = in.PricePerShare * int64(current.TotalShares)
	}

	edit := current
	edit.Name = name
	edit.Category = strings.ToLower(strings.TrimSpace(in.Category))
	edit.Breed = strings.TrimSpace(in.Breed)
	edit.WeightKg = in.WeightKg
	edit.Age = strings.TrimSpace(in.Age)
	edit.Price = price
	edit.PricePerShare = in.PricePerShare
	edit.ImageURL = strings.TrimSpace(in.ImageURL)
	return s.repo.UpdateAnimal(ctx, edit)
}

// DeleteAnimal refuses while any booking that is not cancelled references the animal.
func (s *AdminService) DeleteAnimal(ctx context.Context, animalID string) error {
	if animalID == "" {
		return domain.ErrInvalidID
	}
	bookings, err := s.bookings.ListByAnimal(ctx, animalID)
	if err != nil {
		return err
	}
	for _, b := range bookings {
		if b.Status != domain.BookingStatusCancelled {
			return domain.ErrAnimalHasBookings
		}
	}
	return s.repo.DeleteAnimal(ctx, animalID)
}
