package app

import (
	"context"
	"testing"
	"time"

	"github.com/qurbani/share-reservations/internal/clock"
	"github.com/qurbani/share-reservations/internal/domain"
	"github.com/qurbani/share-reservations/internal/storage/memory"
)

func TestAdminService_CreateAnimal_DefaultsPrice(t *testing.T) {
	repo := memory.NewAnimalStore()
	now := time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC)
	svc := NewAdminService(repo, memory.NewBookingStore(), clock.NewFixed(now))

	got, err := svc.CreateAnimal(context.Background(), CreateAnimalInput{
		Name:          " Brahman Bull ",
		Category:      "Cow",
		TotalShares:   7,
		PricePerShare: 30000,
	})
	if err != nil {
		t.Fatalf("create animal: %v", err)
	}
	if got.ID == "" {
		t.Fatalf("expected animal ID to be set")
	}
	if got.Name != "Brahman Bull" || got.Category != "cow" {
		t.Fatalf("expected trimmed name and lower-case category, got %q %q", got.Name, got.Category)
	}
	if got.Price != 210000 {
		t.Fatalf("expected price 210000, got %d", got.Price)
	}
	if got.CreatedAt != now {
		t.Fatalf("expected created_at %v, got %v", now, got.CreatedAt)
	}

	stored, err := svc.GetAnimal(context.Background(), got.ID)
	if err != nil {
		t.Fatalf("get animal: %v", err)
	}
	if stored.TotalShares != 7 || stored.BookedShares != 0 {
		t.Fatalf("unexpected share counts %d/%d", stored.BookedShares, stored.TotalShares)
	}
}

func TestAdminService_CreateAnimal_ValidatesInput(t *testing.T) {
	svc := NewAdminService(memory.NewAnimalStore(), memory.NewBookingStore(), clock.NewFixed(time.Now()))
	ctx := context.Background()

	_, err := svc.CreateAnimal(ctx, CreateAnimalInput{Name: "", TotalShares: 7, PricePerShare: 1})
	if err != domain.ErrAnimalNameRequired {
		t.Fatalf("expected ErrAnimalNameRequired, got %v", err)
	}

	_, err = svc.CreateAnimal(ctx, CreateAnimalInput{Name: "Goat", TotalShares: 0, PricePerShare: 1})
	if err != domain.ErrInvalidTotalShares {
		t.Fatalf("expected ErrInvalidTotalShares, got %v", err)
	}

	_, err = svc.CreateAnimal(ctx, CreateAnimalInput{Name: "Goat", TotalShares: 1, PricePerShare: 0})
	if err != domain.ErrInvalidPrice {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
}

func TestAdminService_DeleteAnimal(t *testing.T) {
	ctx := context.Background()
	animals := memory.NewAnimalStore()
	bookings := memory.NewBookingStore()
	svc := NewAdminService(animals, bookings, clock.NewFixed(time.Now()))

	for _, id := range []string{"cow-1", "cow-2"} {
		if err := animals.CreateAnimal(ctx, domain.Animal{ID: id, Name: id, TotalShares: 7}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	if err := bookings.CreateBookings(ctx, []domain.Booking{
		{ID: "b1", AnimalID: "cow-1", Shares: 1, Status: domain.BookingStatusConfirmed},
		{ID: "b2", AnimalID: "cow-2", Shares: 1, Status: domain.BookingStatusCancelled},
	}); err != nil {
		t.Fatalf("seed bookings: %v", err)
	}

	if err := svc.DeleteAnimal(ctx, "cow-1"); err != domain.ErrAnimalHasBookings {
		t.Fatalf("expected ErrAnimalHasBookings, got %v", err)
	}
	if err := svc.DeleteAnimal(ctx, "cow-2"); err != nil {
		t.Fatalf("delete animal with only cancelled bookings: %v", err)
	}
	if err := svc.DeleteAnimal(ctx, ""); err != domain.ErrInvalidID {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestAdminService_UpdateAnimal(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewAnimalStore()
	svc := NewAdminService(repo, memory.NewBookingStore(), clock.NewFixed(time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC)))

	created, err := svc.CreateAnimal(ctx, CreateAnimalInput{Name: "Brahman Bull", Category: "cow", TotalShares: 7, PricePerShare: 30000})
	if err != nil {
		t.Fatalf("create animal: %v", err)
	}
	if _, err := repo.TryIncrementBooked(ctx, created.ID, 3, created.Version); err != nil {
		t.Fatalf("book shares: %v", err)
	}
	before, err := svc.GetAnimal(ctx, created.ID)
	if err != nil {
		t.Fatalf("get animal: %v", err)
	}

	got, err := svc.UpdateAnimal(ctx, created.ID, UpdateAnimalInput{Name: " Brahman Bull XL ", Category: "Cow", Breed: "Brahman", PricePerShare: 35000})
	if err != nil {
		t.Fatalf("update animal: %v", err)
	}
	if got.Name != "Brahman Bull XL" || got.Breed != "Brahman" || got.Category != "cow" {
		t.Fatalf("unexpected catalogue fields: %+v", got)
	}
	if got.Price != 245000 || got.PricePerShare != 35000 {
		t.Fatalf("expected price 245000 at 35000 per share, got %d at %d", got.Price, got.PricePerShare)
	}
	if got.Version != before.Version+1 {
		t.Fatalf("expected version %d, got %d", before.Version+1, got.Version)
	}
	if got.TotalShares != 7 || got.BookedShares != 3 || !got.CreatedAt.Equal(before.CreatedAt) {
		t.Fatalf("update must keep share counters and creation time, got %+v", got)
	}

	if _, err := svc.UpdateAnimal(ctx, created.ID, UpdateAnimalInput{Name: "Bull", TotalShares: 9, PricePerShare: 35000}); err != domain.ErrTotalSharesImmutable {
		t.Fatalf("expected ErrTotalSharesImmutable, got %v", err)
	}
	if _, err := svc.UpdateAnimal(ctx, created.ID, UpdateAnimalInput{Name: "Bull", TotalShares: 7, PricePerShare: 35000}); err != nil {
		t.Fatalf("unchanged total shares must be accepted: %v", err)
	}
	if _, err := svc.UpdateAnimal(ctx, created.ID, UpdateAnimalInput{Name: " ", PricePerShare: 1}); err != domain.ErrAnimalNameRequired {
		t.Fatalf("expected ErrAnimalNameRequired, got %v", err)
	}
	if _, err := svc.UpdateAnimal(ctx, created.ID, UpdateAnimalInput{Name: "Bull"}); err != domain.ErrInvalidPrice {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
	if _, err := svc.UpdateAnimal(ctx, "missing", UpdateAnimalInput{Name: "Bull", PricePerShare: 1}); err != domain.ErrAnimalNotFound {
		t.Fatalf("expected ErrAnimalNotFound, got %v", err)
	}
}
