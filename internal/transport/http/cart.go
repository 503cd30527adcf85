package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/qurbani/share-reservations/internal/app"
	"github.com/qurbani/share-reservations/internal/availability"
	"github.com/qurbani/share-reservations/internal/domain"
)

// Reservations is the engine surface the cart routes need.
type Reservations interface {
	Available(ctx context.Context, animalID, sessionID string) (availability.Snapshot, error)
	ModifyHold(ctx context.Context, sessionID, animalID string, shares int) (domain.Hold, error)
	ReleaseHold(ctx context.Context, sessionID, animalID string) error
	Cart(ctx context.Context, sessionID string) ([]domain.Hold, error)
	Commit(ctx context.Context, sessionID string, buyer domain.Buyer) (app.CommitResult, error)
}

type availabilityResponse struct {
	AnimalID      string `json:"animal_id"`
	Total         int    `json:"total"`
	Booked        int    `json:"booked"`
	Held          int    `json:"held"`
	HeldBySession int    `json:"held_by_session"`
	Available     int    `json:"available"`
}

// HandleAvailability serves GET /animals/{animalID}/availability. The
// session header is optional; with it the caller's own hold is excluded.
func HandleAvailability(svc Reservations, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := svc.Available(r.Context(), chi.URLParam(r, "animalID"), sessionID(r))
		if err != nil {
			writeDomainError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, availabilityResponse{
			AnimalID:      snap.AnimalID,
			Total:         snap.Total,
			Booked:        snap.Booked,
			Held:          snap.Held,
			HeldBySession: snap.HeldBySession,
			Available:     snap.Available,
		})
	}
}

type cartResponse struct {
	Holds  []holdResponse `json:"holds"`
	Shares int            `json:"shares"`
}

func HandleCart(svc Reservations, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		holds, err := svc.Cart(r.Context(), sessionID(r))
		if err != nil {
			writeDomainError(w, r, logger, err)
			return
		}
		resp := cartResponse{Holds: make([]holdResponse, 0, len(holds))}
		for _, h := range holds {
			resp.Holds = append(resp.Holds, toHoldResponse(h))
			resp.Shares += h.Shares
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type modifyHoldRequest struct {
	Shares *int `json:"shares"`
}

// HandleModifyHold serves PUT /cart/holds/{animalID}. Zero shares releases the hold.
func HandleModifyHold(svc Reservations, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req modifyHoldRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.Shares == nil {
			writeError(w, http.StatusBadRequest, codeInvalidShares, "shares is required")
			return
		}

		hold, err := svc.ModifyHold(r.Context(), sessionID(r), chi.URLParam(r, "animalID"), *req.Shares)
		if err != nil {
			writeDomainError(w, r, logger, err)
			return
		}
		if *req.Shares == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, toHoldResponse(hold))
	}
}

func HandleReleaseHold(svc Reservations, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.ReleaseHold(r.Context(), sessionID(r), chi.URLParam(r, "animalID")); err != nil {
			writeDomainError(w, r, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type commitResponse struct {
	Bookings []bookingResponse `json:"bookings"`
	Lines    []lineResponse    `json:"lines"`
	Replayed bool              `json:"replayed,omitempty"`
}

// HandleCommit serves POST /cart/commit without idempotency bookkeeping;
// clients that may retry should use /submissions.
func HandleCommit(svc Reservations, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req buyerRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		res, err := svc.Commit(r.Context(), sessionID(r), req.toDomain())
		if err != nil {
			writeDomainError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, commitResponse{
			Bookings: toBookingResponses(res.Bookings),
			Lines:    toLineResponses(res.Lines),
		})
	}
}
