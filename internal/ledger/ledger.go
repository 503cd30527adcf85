// Package ledger tracks short-lived share holds per (session, animal).
//
// Holds for one animal live in a shard guarded by its own mutex. Every
// check-then-write on an animal's holds runs under that mutex, and the animal
// record is read inside it. Between a commit's increment and the removal of
// its holds the shares are counted twice, never zero times. Different animals
// never contend.
package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/qurbani/share-reservations/internal/availability"
	"github.com/qurbani/share-reservations/internal/clock"
	"github.com/qurbani/share-reservations/internal/domain"
)

// AnimalReader supplies the durable share counters the ledger checks holds against.
type AnimalReader interface {
	GetAnimal(ctx context.Context, animalID string) (domain.Animal, error)
}

type Ledger struct {
	animals AnimalReader
	clock   clock.Clock
	ttl     time.Duration

	mu     sync.Mutex
	shards map[string]*shard
}

type shard struct {
	mu    sync.Mutex
	holds map[string]domain.Hold // by session id
	dead  bool                   // removed from Ledger.shards; callers must look up again
}

const DefaultHoldTTL = 15 * time.Minute

type Option func(*Ledger)

// WithHoldTTL overrides the default time-to-live of new or replaced holds.
func WithHoldTTL(d time.Duration) Option {
	return func(l *Ledger) {
		if d > 0 {
			l.ttl = d
		}
	}
}

func New(animals AnimalReader, clk clock.Clock, opts ...Option) *Ledger {
	l := &Ledger{
		animals: animals,
		clock:   clk,
		ttl:     DefaultHoldTTL,
		shards:  make(map[string]*shard),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) TTL() time.Duration {
	return l.ttl
}

// lockShard returns the animal's shard locked. Without create it reports
// false when the animal has no shard.
func (l *Ledger) lockShard(animalID string, create bool) (*shard, bool) {
	for {
		l.mu.Lock()
		s, ok := l.shards[animalID]
		if !ok {
			if !create {
				l.mu.Unlock()
				return nil, false
			}
			s = &shard{holds: make(map[string]domain.Hold)}
			l.shards[animalID] = s
		}
		l.mu.Unlock()

		s.mu.Lock()
		if !s.dead {
			return s, true
		}
		s.mu.Unlock()
	}
}

// animalIDs returns shard keys in ascending order.
func (l *Ledger) animalIDs() []string {
	l.mu.Lock()
	ids := make([]string, 0, len(l.shards))
	for id := range l.shards {
		ids = append(ids, id)
	}
	l.mu.Unlock()
	sort.Strings(ids)
	return ids
}

// purge drops expired holds. Caller holds s.mu.
func (s *shard) purge(now time.Time) int {
	removed := 0
	for session, h := range s.holds {
		if !h.Active(now) {
			delete(s.holds, session)
			removed++
		}
	}
	return removed
}

func (s *shard) list() []domain.Hold {
	out := make([]domain.Hold, 0, len(s.holds))
	for _, h := range s.holds {
		out = append(out, h)
	}
	return out
}

// Hold places or replaces the session's hold on an animal. The availability
// check excludes the session's own previous hold, so the effective delta is
// newShares - oldShares. On rejection the ledger is unchanged.
func (l *Ledger) Hold(ctx context.Context, sessionID, animalID string, shares int) (domain.Hold, error) {
	if sessionID == "" {
		return domain.Hold{}, domain.ErrSessionRequired
	}
	if animalID == "" {
		return domain.Hold{}, domain.ErrInvalidID
	}
	if shares <= 0 {
		return domain.Hold{}, domain.ErrInvalidShares
	}

	s, ok := l.lockShard(animalID, false)
	if !ok {
		if _, err := l.animals.GetAnimal(ctx, animalID); err != nil {
			return domain.Hold{}, err
		}
		s, _ = l.lockShard(animalID, true)
	}
	defer s.mu.Unlock()

	now := l.clock.Now()
	s.purge(now)

	prev, hadPrev := s.holds[sessionID]
	if hadPrev && prev.State == domain.HoldStateCommitting {
		return domain.Hold{}, domain.ErrCommitInProgress
	}

	animal, err := l.animals.GetAnimal(ctx, animalID)
	if err != nil {
		return domain.Hold{}, err
	}
	if err := availability.Check(animal, s.list(), sessionID, shares, now); err != nil {
		return domain.Hold{}, err
	}

	h := domain.Hold{
		SessionID: sessionID,
		AnimalID:  animalID,
		Shares:    shares,
		State:     domain.HoldStateHeld,
		CreatedAt: now,
		ExpiresAt: now.Add(l.ttl),
	}
	if hadPrev {
		h.CreatedAt = prev.CreatedAt
	}
	s.holds[sessionID] = h
	return h, nil
}

// Release removes the session's hold on an animal. Releasing a missing hold is a no-op.
func (l *Ledger) Release(sessionID, animalID string) error {
	if sessionID == "" {
		return domain.ErrSessionRequired
	}
	s, ok := l.lockShard(animalID, false)
	if !ok {
		return nil
	}
	defer s.mu.Unlock()

	h, ok := s.holds[sessionID]
	if !ok {
		return nil
	}
	if h.State == domain.HoldStateCommitting {
		return domain.ErrCommitInProgress
	}
	delete(s.holds, sessionID)
	return nil
}

// Snapshot reads the animal and its active holds under the shard lock.
// An animal without a shard has no holds.
func (l *Ledger) Snapshot(ctx context.Context, animalID, sessionID string) (availability.Snapshot, error) {
	now := l.clock.Now()
	var holds []domain.Hold
	if s, ok := l.lockShard(animalID, false); ok {
		defer s.mu.Unlock()
		s.purge(now)
		holds = s.list()
	}

	animal, err := l.animals.GetAnimal(ctx, animalID)
	if err != nil {
		return availability.Snapshot{}, err
	}
	return availability.Compute(animal, holds, sessionID, now), nil
}

// SessionHolds lists the session's active holds ordered by animal id.
func (l *Ledger) SessionHolds(sessionID string) []domain.Hold {
	now := l.clock.Now()
	var out []domain.Hold
	for _, id := range l.animalIDs() {
		s, ok := l.lockShard(id, false)
		if !ok {
			continue
		}
		if h, ok := s.holds[sessionID]; ok && h.Active(now) {
			out = append(out, h)
		}
		s.mu.Unlock()
	}
	return out
}

// SweepExpired removes every expired hold and returns how many were removed.
// Holds being committed are never expired. Shards left empty are dropped.
func (l *Ledger) SweepExpired() int {
	now := l.clock.Now()
	removed := 0
	for _, id := range l.animalIDs() {
		l.mu.Lock()
		if s, ok := l.shards[id]; ok {
			s.mu.Lock()
			removed += s.purge(now)
			if len(s.holds) == 0 {
				s.dead = true
				delete(l.shards, id)
			}
			s.mu.Unlock()
		}
		l.mu.Unlock()
	}
	return removed
}

// Len counts holds currently stored, expired or not.
func (l *Ledger) Len() int {
	n := 0
	for _, id := range l.animalIDs() {
		s, ok := l.lockShard(id, false)
		if !ok {
			continue
		}
		n += len(s.holds)
		s.mu.Unlock()
	}
	return n
}

// BeginCommit moves every active hold of the session from held to committing
// and returns them ordered by animal id. If any hold is already committing
// (another tab is checking out) nothing is changed.
func (l *Ledger) BeginCommit(sessionID string) ([]domain.Hold, error) {
	if sessionID == "" {
		return nil, domain.ErrSessionRequired
	}
	now := l.clock.Now()
	var marked []domain.Hold
	for _, id := range l.animalIDs() {
		s, ok := l.lockShard(id, false)
		if !ok {
			continue
		}
		h, ok := s.holds[sessionID]
		switch {
		case !ok:
		case h.State == domain.HoldStateCommitting:
			s.mu.Unlock()
			l.setState(sessionID, marked, domain.HoldStateHeld)
			return nil, domain.ErrCommitInProgress
		case h.Active(now):
			h.State = domain.HoldStateCommitting
			s.holds[sessionID] = h
			marked = append(marked, h)
		}
		s.mu.Unlock()
	}
	if len(marked) == 0 {
		return nil, domain.ErrNoActiveHolds
	}
	return marked, nil
}

// AbortCommit returns committing holds to held.
func (l *Ledger) AbortCommit(sessionID string, holds []domain.Hold) {
	l.setState(sessionID, holds, domain.HoldStateHeld)
}

// CompleteCommit removes committed holds; their shares now live in bookedShares.
func (l *Ledger) CompleteCommit(sessionID string, holds []domain.Hold) {
	for _, h := range holds {
		s, ok := l.lockShard(h.AnimalID, false)
		if !ok {
			continue
		}
		if cur, ok := s.holds[sessionID]; ok && cur.State == domain.HoldStateCommitting {
			delete(s.holds, sessionID)
		}
		s.mu.Unlock()
	}
}

func (l *Ledger) setState(sessionID string, holds []domain.Hold, state domain.HoldState) {
	for _, h := range holds {
		s, ok := l.lockShard(h.AnimalID, false)
		if !ok {
			continue
		}
		if cur, ok := s.holds[sessionID]; ok {
			cur.State = state
			s.holds[sessionID] = cur
		}
		s.mu.Unlock()
	}
}
