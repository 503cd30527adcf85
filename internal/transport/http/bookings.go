package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/qurbani/share-reservations/internal/domain"
)

// BookingAdmin is the back-office booking surface.
type BookingAdmin interface {
	ListForAnimal(ctx context.Context, animalID string) ([]domain.Booking, error)
	ListForSession(ctx context.Context, sessionID string) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, bookingID string, next domain.BookingStatus) (domain.Booking, error)
}

// HandleSessionBookings serves GET /bookings for the calling session.
func HandleSessionBookings(svc BookingAdmin, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookings, err := svc.ListForSession(r.Context(), sessionID(r))
		if err != nil {
			writeDomainError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toBookingResponses(bookings))
	}
}

func HandleAnimalBookings(svc BookingAdmin, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookings, err := svc.ListForAnimal(r.Context(), chi.URLParam(r, "animalID"))
		if err != nil {
			writeDomainError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toBookingResponses(bookings))
	}
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func HandleUpdateBookingStatus(svc BookingAdmin, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateStatusRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		b, err := svc.UpdateStatus(r.Context(), chi.URLParam(r, "bookingID"), domain.BookingStatus(req.Status))
		if err != nil {
			writeDomainError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toBookingResponse(b))
	}
}
