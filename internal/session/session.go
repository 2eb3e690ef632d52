// Package session keeps transactions that wait for the user to pick a
// category. Each record lives until it is taken, discarded or expired.
package session

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrPendingNotFound is returned for unknown ids and for ids owned by
	// another user.
	ErrPendingNotFound = errors.New("pending transaction not found")
	// ErrPendingExpired is returned when the record outlived its TTL. The
	// record is removed.
	ErrPendingExpired = errors.New("pending transaction expired")
)

// Pending is a transaction whose category is still unknown.
type Pending struct {
	ID         string
	UserID     string
	Amount     decimal.Decimal
	Note       string
	OccurredAt time.Time
	CreatedAt  time.Time
	ExpiresAt  time.Time

	seq uint64
}

// Store is an in-memory set of pending records, safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	pending map[string]*Pending
	ttl     time.Duration
	limit   int
	seq     uint64
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a store whose records expire after ttl. maxPerUser
// bounds how many records one user may hold; the oldest is evicted first.
func NewStore(ttl time.Duration, maxPerUser int, opts ...Option) *Store {
	s := &Store{
		pending: make(map[string]*Pending),
		ttl:     ttl,
		limit:   maxPerUser,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put stores a new record for userID and returns a copy of it. It also
// returns the records evicted to respect the per-user cap.
func (s *Store) Put(userID string, amount decimal.Decimal, note string, occurredAt time.Time) (Pending, []Pending) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.seq++
	p := &Pending{
		ID:         uuid.NewString(),
		UserID:     userID,
		Amount:     amount,
		Note:       note,
		OccurredAt: occurredAt,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
		seq:        s.seq,
	}
	s.pending[p.ID] = p

	var evicted []Pending
	if s.limit > 0 {
		owned := s.ownedLocked(userID)
		for len(owned) > s.limit {
			evicted = append(evicted, *owned[0])
			delete(s.pending, owned[0].ID)
			owned = owned[1:]
		}
	}

	return *p, evicted
}

// Take removes and returns the record id of userID.
func (s *Store) Take(userID, id string) (Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[id]
	if !ok || p.UserID != userID {
		return Pending{}, ErrPendingNotFound
	}
	delete(s.pending, id)

	if !s.now().Before(p.ExpiresAt) {
		return Pending{}, ErrPendingExpired
	}
	return *p, nil
}

// List returns the live records of userID, oldest first.
func (s *Store) List(userID string) []Pending {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var out []Pending
	for _, p := range s.ownedLocked(userID) {
		if now.Before(p.ExpiresAt) {
			out = append(out, *p)
		}
	}
	return out
}

// DiscardUser removes every record of userID and returns how many there were.
func (s *Store) DiscardUser(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, p := range s.pending {
		if p.UserID == userID {
			delete(s.pending, id)
			n++
		}
	}
	return n
}

// Sweep removes expired records and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for id, p := range s.pending {
		if !now.Before(p.ExpiresAt) {
			delete(s.pending, id)
			n++
		}
	}
	return n
}

// Len returns the number of stored records, expired ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// ownedLocked returns userID's records in insertion order.
func (s *Store) ownedLocked(userID string) []*Pending {
	var owned []*Pending
	for _, p := range s.pending {
		if p.UserID == userID {
			owned = append(owned, p)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].seq < owned[j].seq })
	return owned
}
