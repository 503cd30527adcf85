package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/qurbani/share-reservations/internal/app"
	"github.com/qurbani/share-reservations/internal/clock"
	"github.com/qurbani/share-reservations/internal/domain"
	"github.com/qurbani/share-reservations/internal/ledger"
	"github.com/qurbani/share-reservations/internal/storage/memory"
)

const buyerJSON = `{"full_name":"Amina Yusuf","email":"amina@example.com","phone":"+44 7700 900123","address":"1 High Street, Leeds"}`

type testServer struct {
	router  http.Handler
	animals *memory.AnimalStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	clk := clock.NewFixed(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	animals := memory.NewAnimalStore()
	bookings := memory.NewBookingStore()
	l := ledger.New(animals, clk)
	engine := app.NewEngine(animals, bookings, l, clk)

	return &testServer{
		animals: animals,
		router: NewRouter(RouterConfig{
			Reservations: engine,
			Submissions:  app.NewGateway(engine, memory.NewSubmissionStore(), bookings, clk, nil, nil),
			Animals:      app.NewAdminService(animals, bookings, clk),
			Bookings:     app.NewBookingService(bookings, engine, nil),
		}),
	}
}

func (s *testServer) do(t *testing.T, method, path, session, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if session != "" {
		req.Header.Set(sessionHeader, session)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestRouter_ReservationFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/admin/animals", "", `{"name":"Brahman Bull","category":"cow","total_shares":7,"price_per_share":30000}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	cow := decode[animalResponse](t, rec)
	require.Equal(t, 7, cow.RemainingShares)

	holdPath := "/cart/holds/" + cow.ID
	rec = s.do(t, http.MethodPut, holdPath, "x", `{"shares":5}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPut, holdPath, "y", `{"shares":3}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	rejected := decode[errorResponse](t, rec)
	require.Equal(t, codeInsufficientShares, rejected.Code)
	require.NotNil(t, rejected.Available)
	require.Equal(t, 2, *rejected.Available)

	rec = s.do(t, http.MethodPut, holdPath, "y", `{"shares":2}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/animals/"+cow.ID+"/availability", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 0, decode[availabilityResponse](t, rec).Available)

	rec = s.do(t, http.MethodGet, "/cart", "x", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 5, decode[cartResponse](t, rec).Shares)

	rec = s.do(t, http.MethodPost, "/submissions", "x", buyerJSON, idempotencyHeader, "k-1")
	require.Equal(t, http.StatusCreated, rec.Code)
	first := decode[commitResponse](t, rec)
	require.Len(t, first.Bookings, 1)
	require.EqualValues(t, 150000, first.Bookings[0].TotalPrice)

	rec = s.do(t, http.MethodPost, "/submissions", "x", buyerJSON, idempotencyHeader, "k-1")
	require.Equal(t, http.StatusOK, rec.Code)
	replay := decode[commitResponse](t, rec)
	require.True(t, replay.Replayed)
	require.Equal(t, first.Bookings[0].ID, replay.Bookings[0].ID)

	rec = s.do(t, http.MethodPost, "/cart/commit", "y", buyerJSON)
	require.Equal(t, http.StatusCreated, rec.Code)

	a, err := s.animals.GetAnimal(context.Background(), cow.ID)
	require.NoError(t, err)
	require.Equal(t, 7, a.BookedShares)

	rec = s.do(t, http.MethodGet, "/admin/animals/"+cow.ID+"/bookings", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]bookingResponse](t, rec), 2)

	rec = s.do(t, http.MethodDelete, "/admin/animals/"+cow.ID, "", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, codeAnimalHasBookings, decode[errorResponse](t, rec).Code)

	rec = s.do(t, http.MethodPost, "/admin/bookings/"+first.Bookings[0].ID+"/status", "", `{"status":"cancelled"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	a, err = s.animals.GetAnimal(context.Background(), cow.ID)
	require.NoError(t, err)
	require.Equal(t, 2, a.BookedShares)

	rec = s.do(t, http.MethodGet, "/bookings", "x", "")
	require.Equal(t, http.StatusOK, rec.Code)
	mine := decode[[]bookingResponse](t, rec)
	require.Len(t, mine, 1)
	require.Equal(t, string(domain.BookingStatusCancelled), mine[0].Status)
}

func TestRouter_RequestValidation(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.animals.CreateAnimal(context.Background(), domain.Animal{ID: "cow-1", Name: "Cow", TotalShares: 7}))

	tests := []struct {
		name    string
		method  string
		path    string
		session string
		body    string
		headers []string
		status  int
		code    string
	}{
		{"cart needs a session", http.MethodGet, "/cart", "", "", nil, http.StatusBadRequest, codeSessionRequired},
		{"shares required", http.MethodPut, "/cart/holds/cow-1", "x", `{}`, nil, http.StatusBadRequest, codeInvalidShares},
		{"negative shares", http.MethodPut, "/cart/holds/cow-1", "x", `{"shares":-1}`, nil, http.StatusBadRequest, codeInvalidShares},
		{"unknown field", http.MethodPut, "/cart/holds/cow-1", "x", `{"shares":1,"extra":true}`, nil, http.StatusBadRequest, codeInvalidRequestBody},
		{"unknown animal", http.MethodPut, "/cart/holds/camel-9", "x", `{"shares":1}`, nil, http.StatusNotFound, codeAnimalNotFound},
		{"empty cart commit", http.MethodPost, "/cart/commit", "x", buyerJSON, nil, http.StatusNotFound, codeNoActiveHolds},
		{"missing buyer details", http.MethodPost, "/cart/commit", "x", `{"full_name":"A"}`, nil, http.StatusBadRequest, codeBuyerDetailsRequired},
		{"submission needs key", http.MethodPost, "/submissions", "x", buyerJSON, nil, http.StatusBadRequest, codeIdempotencyRequired},
		{"bad status", http.MethodPost, "/admin/bookings/b1/status", "", `{"status":"shipped"}`, nil, http.StatusBadRequest, codeInvalidStatus},
		{"animal needs shares", http.MethodPost, "/admin/animals", "", `{"name":"Goat","price_per_share":100}`, nil, http.StatusBadRequest, codeInvalidTotalShares},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.session, tt.body, tt.headers...)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			require.Equal(t, tt.code, decode[errorResponse](t, rec).Code)
		})
	}
}

func TestRouter_ReleaseHold(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.animals.CreateAnimal(context.Background(), domain.Animal{ID: "cow-1", Name: "Cow", TotalShares: 7}))

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, "/cart/holds/cow-1", "x", `{"shares":4}`).Code)
	require.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/cart/holds/cow-1", "x", "").Code)
	require.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/cart/holds/cow-1", "x", "").Code)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, "/cart/holds/cow-1", "x", `{"shares":4}`).Code)
	require.Equal(t, http.StatusNoContent, s.do(t, http.MethodPut, "/cart/holds/cow-1", "x", `{"shares":0}`).Code)

	rec := s.do(t, http.MethodGet, "/animals/cow-1/availability", "x", "")
	require.Equal(t, 7, decode[availabilityResponse](t, rec).Available)
}
