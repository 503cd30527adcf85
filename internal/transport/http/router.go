package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Reservations Reservations
	Submissions  Submitter
	Animals      AnimalAdmin
	Bookings     BookingAdmin
	Metrics      http.Handler
	CORSOrigins  []string
	Logger       *zap.Logger
}

// NewRouter wires every public and admin route.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(CORS(cfg.CORSOrigins))

	r.NotFound(NotFoundHandler().ServeHTTP)
	r.MethodNotAllowed(MethodNotAllowedHandler().ServeHTTP)

	r.Get("/health", HealthHandler)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Route("/animals", func(r chi.Router) {
		r.Get("/", HandleListAnimals(cfg.Animals, logger))
		r.Get("/{animalID}", HandleGetAnimal(cfg.Animals, logger))
		r.Get("/{animalID}/availability", HandleAvailability(cfg.Reservations, logger))
	})

	r.Group(func(r chi.Router) {
		r.Use(RequireSession)
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", HandleCart(cfg.Reservations, logger))
			r.Put("/holds/{animalID}", HandleModifyHold(cfg.Reservations, logger))
			r.Delete("/holds/{animalID}", HandleReleaseHold(cfg.Reservations, logger))
			r.Post("/commit", HandleCommit(cfg.Reservations, logger))
		})
		r.Post("/submissions", HandleSubmit(cfg.Submissions, logger))
		r.Get("/bookings", HandleSessionBookings(cfg.Bookings, logger))
	})

	r.Route("/admin", func(r chi.Router) {
		r.Route("/animals", func(r chi.Router) {
			r.Get("/", HandleListAnimals(cfg.Animals, logger))
			r.Post("/", HandleCreateAnimal(cfg.Animals, logger))
			r.Get("/{animalID}", HandleGetAnimal(cfg.Animals, logger))
			r.Put("/{animalID}", HandleUpdateAnimal(cfg.Animals, logger))
			r.Delete("/{animalID}", HandleDeleteAnimal(cfg.Animals, logger))
			r.Get("/{animalID}/bookings", HandleAnimalBookings(cfg.Bookings, logger))
		})
		r.Post("/bookings/{bookingID}/status", HandleUpdateBookingStatus(cfg.Bookings, logger))
	})

	return r
}
