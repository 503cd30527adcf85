package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/qurbani/share-reservations/internal/app"
	"github.com/qurbani/share-reservations/internal/domain"
)

// AnimalAdmin is the minimal interface needed for admin animal endpoints.
type AnimalAdmin interface {
	CreateAnimal(ctx context.Context, in app.CreateAnimalInput) (domain.Animal, error)
	ListAnimals(ctx context.Context) ([]domain.Animal, error)
	GetAnimal(ctx context.Context, animalID string) (domain.Animal, error)
	UpdateAnimal(ctx context.Context, animalID string, in app.UpdateAnimalInput) (domain.Animal, error)
	DeleteAnimal(ctx context.Context, animalID string) error
}

type createAnimalRequest struct {
	Name          string `json:"name"`
	Category      string `json:"category"`
	Breed         string `json:"breed"`
	WeightKg      int    `json:"weight_kg"`
	Age           string `json:"age"`
	Price         int64  `json:"price"`
	PricePerShare int64  `json:"price_per_share"`
	ImageURL      string `json:"image_url"`
	TotalShares   int    `json:"total_shares"`
}

type animalResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Category        string    `json:"category"`
	Breed           string    `json:"breed,omitempty"`
	WeightKg        int       `json:"weight_kg,omitempty"`
	Age             string    `json:"age,omitempty"`
	Price           int64     `json:"price"`
	PricePerShare   int64     `json:"price_per_share"`
	ImageURL        string    `json:"image_url,omitempty"`
	TotalShares     int       `json:"total_shares"`
	BookedShares    int       `json:"booked_shares"`
	RemainingShares int       `json:"remaining_shares"`
	CreatedAt       time.Time `json:"created_at"`
}

func toAnimalResponse(a domain.Animal) animalResponse {
	return animalResponse{
		ID:              a.ID,
		Name:            a.Name,
		Category:        a.Category,
		Breed:           a.Breed,
		WeightKg:        a.WeightKg,
		Age:             a.Age,
		Price:           a.Price,
		PricePerShare:   a.PricePerShare,
		ImageURL:        a.ImageURL,
		TotalShares:     a.TotalShares,
		BookedShares:    a.BookedShares,
		RemainingShares: a.RemainingShares(),
		CreatedAt:       a.CreatedAt,
	}
}

func HandleCreateAnimal(svc AnimalAdmin, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createAnimalRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		animal, err := svc.CreateAnimal(r.Context(), app.CreateAnimalInput{
			Name:          req.Name,
			Category:      req.Category,
			Breed:         req.Breed,
			WeightKg:      req.WeightKg,
			Age:           req.Age,
			Price:         req.Price,
			PricePerShare: req.PricePerShare,
			ImageURL:      req.ImageURL,
			TotalShares:   req.TotalShares,
		})
		if err != nil {
			writeDomainError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, toAnimalResponse(animal))
	}
}

func HandleListAnimals(svc AnimalAdmin, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		animals, err := svc.ListAnimals(r.Context())
		if err != nil {
			writeDomainError(w, r, logger, err)
			return
		}
		resp := make([]animalResponse, 0, len(animals))
		for _, a := range animals {
			resp = append(resp, toAnimalResponse(a))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func HandleGetAnimal(svc AnimalAdmin, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		animal, err := svc.GetAnimal(r.Context(), chi.URLParam(r, "animalID"))
		if err != nil {
			writeDomainError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toAnimalResponse(animal))
	}
}

// HandleUpdateAnimal serves PUT /admin/animals/{animalID}. The body has the
// create shape; total_shares may be omitted but not changed.
func HandleUpdateAnimal(svc AnimalAdmin, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createAnimalRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		animal, err := svc.UpdateAnimal(r.Context(), chi.URLParam(r, "animalID"), app.UpdateAnimalInput{
			Name:          req.Name,
			Category:      req.Category,
			Breed:         req.Breed,
			WeightKg:      req.WeightKg,
			Age:           req.Age,
			Price:         req.Price,
			PricePerShare: req.PricePerShare,
			ImageURL:      req.ImageURL,
			TotalShares:   req.TotalShares,
		})
		if err != nil {
			writeDomainError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toAnimalResponse(animal))
	}
}

func HandleDeleteAnimal(svc AnimalAdmin, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteAnimal(r.Context(), chi.URLParam(r, "animalID")); err != nil {
			writeDomainError(w, r, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
