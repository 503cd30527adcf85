package http

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qurbani/share-reservations/internal/app"
	"github.com/qurbani/share-reservations/internal/clock"
	"github.com/qurbani/share-reservations/internal/ledger"
	"github.com/qurbani/share-reservations/internal/storage/postgres"
	"github.com/qurbani/share-reservations/internal/testutil"
)

type pgServer struct {
	testServer
	pool *pgxpool.Pool
}

func newPostgresServer(t *testing.T) *pgServer {
	t.Helper()
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	clk := clock.NewFixed(time.Date(2026, 5, 26, 9, 0, 0, 0, time.UTC))
	animals := postgres.NewAnimalRepository(pool)
	bookings := postgres.NewBookingRepository(pool)
	l := ledger.New(animals, clk)
	engine := app.NewEngine(animals, bookings, l, clk)

	var router http.Handler = NewRouter(RouterConfig{
		Reservations: engine,
		Submissions:  app.NewGateway(engine, postgres.NewSubmissionRepository(pool), bookings, clk, nil, nil),
		Animals:      app.NewAdminService(animals, bookings, clk),
		Bookings:     app.NewBookingService(bookings, engine, nil),
	})
	return &pgServer{testServer: testServer{router: router}, pool: pool}
}

func (s *pgServer) bookedShares(t *testing.T, animalID string) int {
	t.Helper()
	var booked int
	if err := s.pool.QueryRow(context.Background(),
		`SELECT booked_shares FROM animals WHERE id = $1`, animalID,
	).Scan(&booked); err != nil {
		t.Fatalf("query booked shares: %v", err)
	}
	return booked
}

func (s *pgServer) animalVersion(t *testing.T, animalID string) int64 {
	t.Helper()
	var version int64
	if err := s.pool.QueryRow(context.Background(),
		`SELECT version FROM animals WHERE id = $1`, animalID,
	).Scan(&version); err != nil {
		t.Fatalf("query animal version: %v", err)
	}
	return version
}
