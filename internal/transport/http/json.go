package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/qurbani/share-reservations/internal/domain"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

type buyerRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Notes    string `json:"notes,omitempty"`
}

func (b buyerRequest) toDomain() domain.Buyer {
	return domain.Buyer{
		FullName: b.FullName,
		Email:    b.Email,
		Phone:    b.Phone,
		Address:  b.Address,
		Notes:    b.Notes,
	}
}

type buyerResponse struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Notes    string `json:"notes,omitempty"`
}

type holdResponse struct {
	AnimalID  string    `json:"animal_id"`
	Shares    int       `json:"shares"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func toHoldResponse(h domain.Hold) holdResponse {
	return holdResponse{
		AnimalID:  h.AnimalID,
		Shares:    h.Shares,
		State:     string(h.State),
		CreatedAt: h.CreatedAt,
		ExpiresAt: h.ExpiresAt,
	}
}

type lineResponse struct {
	AnimalID  string `json:"animal_id"`
	Shares    int    `json:"shares"`
	Status    string `json:"status"`
	Available int    `json:"available"`
}

func toLineResponses(lines []domain.LineResult) []lineResponse {
	out := make([]lineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, lineResponse{
			AnimalID:  l.AnimalID,
			Shares:    l.Shares,
			Status:    string(l.Status),
			Available: l.Available,
		})
	}
	return out
}

type bookingResponse struct {
	ID            string        `json:"id"`
	AnimalID      string        `json:"animal_id"`
	AnimalName    string        `json:"animal_name"`
	Shares        int           `json:"shares"`
	PricePerShare int64         `json:"price_per_share"`
	TotalPrice    int64         `json:"total_price"`
	Status        string        `json:"status"`
	Buyer         buyerResponse `json:"buyer"`
	CreatedAt     time.Time     `json:"created_at"`
}

func toBookingResponses(bookings []domain.Booking) []bookingResponse {
	out := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingResponse(b))
	}
	return out
}

func toBookingResponse(b domain.Booking) bookingResponse {
	return bookingResponse{
		ID:            b.ID,
		AnimalID:      b.AnimalID,
		AnimalName:    b.AnimalName,
		Shares:        b.Shares,
		PricePerShare: b.PricePerShare,
		TotalPrice:    b.TotalPrice,
		Status:        string(b.Status),
		Buyer: buyerResponse{
			FullName: b.Buyer.FullName,
			Email:    b.Buyer.Email,
			Phone:    b.Buyer.Phone,
			Address:  b.Buyer.Address,
			Notes:    b.Buyer.Notes,
		},
		CreatedAt: b.CreatedAt,
	}
}
