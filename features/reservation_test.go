package features

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cucumber/godog"

	"github.com/qurbani/share-reservations/internal/app"
	"github.com/qurbani/share-reservations/internal/clock"
	"github.com/qurbani/share-reservations/internal/domain"
	"github.com/qurbani/share-reservations/internal/ledger"
	"github.com/qurbani/share-reservations/internal/storage/memory"
)

var buyer = domain.Buyer{
	FullName: "Yusuf Khan",
	Email:    "yusuf@example.com",
	Phone:    "+44 7700 900456",
	Address:  "22 Mill Lane, Bradford",
}

type reservationContext struct {
	animals  *memory.AnimalStore
	bookings *memory.BookingStore
	clock    *clock.Manual
	engine   *app.Engine
	gateway  *app.Gateway

	err        error
	lastCommit []domain.LineResult
	lastSubmit app.SubmitResult
}

func (c *reservationContext) reset() {
	c.animals = memory.NewAnimalStore()
	c.bookings = memory.NewBookingStore()
	c.clock = clock.NewManual(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	l := ledger.New(c.animals, c.clock)
	c.engine = app.NewEngine(c.animals, c.bookings, l, c.clock)
	c.gateway = app.NewGateway(c.engine, memory.NewSubmissionStore(), c.bookings, c.clock, nil, nil)
	c.err = nil
	c.lastCommit = nil
	c.lastSubmit = app.SubmitResult{}
}

func (c *reservationContext) anAnimalWithShares(id string, total int) error {
	return c.animals.CreateAnimal(context.Background(), domain.Animal{ID: id, Name: id, TotalShares: total, PricePerShare: 1000})
}

func (c *reservationContext) sessionHoldsShares(session string, shares int, animalID string) error {
	_, c.err = c.engine.ModifyHold(context.Background(), session, animalID, shares)
	return nil
}

func (c *reservationContext) sessionCommits(session string) error {
	var res app.CommitResult
	res, c.err = c.engine.Commit(context.Background(), session, buyer)
	c.lastCommit = res.Lines
	return nil
}

func (c *reservationContext) sessionSubmits(session, key string) error {
	c.lastSubmit, c.err = c.gateway.Submit(context.Background(), session, buyer, key)
	return nil
}

func (c *reservationContext) anotherReplicaBooks(shares int, animalID string) error {
	ctx := context.Background()
	a, err := c.animals.GetAnimal(ctx, animalID)
	if err != nil {
		return err
	}
	_, err = c.animals.TryIncrementBooked(ctx, animalID, shares, a.Version)
	return err
}

func (c *reservationContext) minutesPass(n int) error {
	c.clock.Advance(time.Duration(n) * time.Minute)
	return nil
}

func (c *reservationContext) sharesAvailable(animalID string, want int) error {
	snap, err := c.engine.Available(context.Background(), animalID, "")
	if err != nil {
		return err
	}
	if snap.Available != want {
		return fmt.Errorf("expected %d shares available, got %d", want, snap.Available)
	}
	return nil
}

func (c *reservationContext) bookedShares(animalID string, want int) error {
	a, err := c.animals.GetAnimal(context.Background(), animalID)
	if err != nil {
		return err
	}
	if a.BookedShares != want {
		return fmt.Errorf("expected %d booked shares, got %d", want, a.BookedShares)
	}
	return nil
}

func (c *reservationContext) requestRejectedWith(kind string) error {
	if c.err == nil {
		return errors.New("expected the request to fail but it succeeded")
	}
	if got := domain.KindOf(c.err).String(); got != kind {
		return fmt.Errorf("expected %s, got %s (%v)", kind, got, c.err)
	}
	return nil
}

func (c *reservationContext) cartHolds(session string, shares int, animalID string) error {
	cart, err := c.engine.Cart(context.Background(), session)
	if err != nil {
		return err
	}
	for _, h := range cart {
		if h.AnimalID == animalID {
			if h.Shares != shares {
				return fmt.Errorf("expected %d shares held, got %d", shares, h.Shares)
			}
			return nil
		}
	}
	return fmt.Errorf("no hold on %s for session %s", animalID, session)
}

func (c *reservationContext) emptyCart(session string) error {
	cart, err := c.engine.Cart(context.Background(), session)
	if err != nil {
		return err
	}
	if len(cart) != 0 {
		return fmt.Errorf("expected empty cart, got %d holds", len(cart))
	}
	return nil
}

func (c *reservationContext) sessionHasBooking(session string, shares int, animalID string) error {
	bookings, err := c.bookings.ListBySession(context.Background(), session)
	if err != nil {
		return err
	}
	for _, b := range bookings {
		if b.AnimalID == animalID && b.Shares == shares {
			return nil
		}
	}
	return fmt.Errorf("no booking of %d shares on %s for session %s", shares, animalID, session)
}

func (c *reservationContext) lineStatus(animalID, status string) error {
	for _, l := range c.lastCommit {
		if l.AnimalID == animalID {
			if string(l.Status) != status {
				return fmt.Errorf("expected line %s to be %s, got %s", animalID, status, l.Status)
			}
			return nil
		}
	}
	return fmt.Errorf("no line for %s in the last commit", animalID)
}

func (c *reservationContext) lastSubmissionReplayed() error {
	if c.err != nil {
		return fmt.Errorf("submission failed: %w", c.err)
	}
	if !c.lastSubmit.Replayed {
		return errors.New("expected the submission to be replayed")
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	rc := &reservationContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		rc.reset()
		return ctx, nil
	})

	ctx.Step(`^an animal "([^"]*)" with (\d+) shares$`, rc.anAnimalWithShares)
	ctx.Step(`^another replica books (\d+) shares of "([^"]*)"$`, rc.anotherReplicaBooks)

	ctx.Step(`^session "([^"]*)" holds (\d+) shares of "([^"]*)"$`, rc.sessionHoldsShares)
	ctx.Step(`^session "([^"]*)" commits the cart$`, rc.sessionCommits)
	ctx.Step(`^session "([^"]*)" submits with key "([^"]*)"$`, rc.sessionSubmits)
	ctx.Step(`^(\d+) minutes pass$`, rc.minutesPass)

	ctx.Step(`^"([^"]*)" has (\d+) shares available$`, rc.sharesAvailable)
	ctx.Step(`^"([^"]*)" has (\d+) booked shares$`, rc.bookedShares)
	ctx.Step(`^the request is rejected with "([^"]*)"$`, rc.requestRejectedWith)
	ctx.Step(`^session "([^"]*)" holds (\d+) shares of "([^"]*)" in the cart$`, rc.cartHolds)
	ctx.Step(`^session "([^"]*)" has an empty cart$`, rc.emptyCart)
	ctx.Step(`^session "([^"]*)" has a booking of (\d+) shares on "([^"]*)"$`, rc.sessionHasBooking)
	ctx.Step(`^line "([^"]*)" of the last commit is "([^"]*)"$`, rc.lineStatus)
	ctx.Step(`^the last submission was replayed$`, rc.lastSubmissionReplayed)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"reservation.feature"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
