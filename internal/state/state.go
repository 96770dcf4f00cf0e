// Package state implements the request lifecycle shared by every
// asynchronous dashboard operation: idle -> pending -> fulfilled | rejected.
//
// One Machine exists per operation kind. Starting a new request never
// cancels one already in flight; each settlement overwrites the previous
// outcome, so the request that settles last wins. Settlements are matched to
// the request id Begin handed out, and Reset invalidates every id issued
// before it.
package state

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle position of a kind.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusPending   Status = "pending"
	StatusFulfilled Status = "fulfilled"
	StatusRejected  Status = "rejected"
)

// Kind names the logical category of an operation.
type Kind string

const (
	KindCurrentWeather   Kind = "current-weather"
	KindForecast         Kind = "forecast"
	KindCitySearch       Kind = "city-search"
	KindReverseGeocode   Kind = "reverse-geocode"
	KindAirQuality       Kind = "air-quality"
	KindFavorites        Kind = "favorites"
	KindFavoriteMutation Kind = "favorite-mutation"
	KindLogin            Kind = "login"
	KindRegister         Kind = "register"
)

// ErrNoPendingRequest is returned when a settlement arrives for a request
// that is not outstanding: it already settled, was never begun, or was
// issued before a Reset.
var ErrNoPendingRequest = errors.New("no pending request")

// Snapshot is a point-in-time copy of a kind's state.
type Snapshot[T any] struct {
	Kind      Kind      `json:"kind"`
	Status    Status    `json:"status"`
	Data      T         `json:"data"`
	HasData   bool      `json:"hasData"`
	Error     string    `json:"error,omitempty"`
	Err       error     `json:"-"`
	RequestID string    `json:"requestId,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Loading reports whether a request of this kind is in progress.
func (s Snapshot[T]) Loading() bool { return s.Status == StatusPending }

// Machine holds the state of one kind.
type Machine[T any] struct {
	kind      Kind
	mu        sync.RWMutex
	cur       Snapshot[T]
	pending   map[string]struct{}
	now       func() time.Time
	listeners []func(Snapshot[T])
}

// NewMachine creates a Machine in the idle state.
func NewMachine[T any](kind Kind) *Machine[T] {
	return &Machine[T]{
		kind:    kind,
		cur:     Snapshot[T]{Kind: kind, Status: StatusIdle},
		pending: make(map[string]struct{}),
		now:     time.Now,
	}
}

// Kind returns the kind this machine tracks.
func (m *Machine[T]) Kind() Kind { return m.kind }

// Subscribe registers fn to be called with the new snapshot after every
// transition. Callbacks run synchronously and must not call back into m.
func (m *Machine[T]) Subscribe(fn func(Snapshot[T])) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Begin moves to pending, clears the error and keeps the last data. It
// returns the id the request must settle with.
func (m *Machine[T]) Begin() string {
	id, _ := m.BeginContext(context.Background())
	return id
}

// BeginContext is Begin, but refuses to start when ctx is already done. The
// check happens under the same lock as Reset, so a caller that cancels ctx
// and then resets can never see a request begun in between.
func (m *Machine[T]) BeginContext(ctx context.Context) (string, error) {
	id := uuid.NewString()
	err := m.transition(func(s *Snapshot[T]) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.pending[id] = struct{}{}
		s.Status = StatusPending
		s.Error = ""
		s.Err = nil
		s.RequestID = id
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Succeed settles request id as fulfilled with data.
func (m *Machine[T]) Succeed(id string, data T) error {
	return m.transition(func(s *Snapshot[T]) error {
		if err := m.settle(id); err != nil {
			return err
		}
		s.Status = StatusFulfilled
		s.Data = data
		s.HasData = true
		s.Error = ""
		s.Err = nil
		s.RequestID = id
		return nil
	})
}

// Fail settles request id as rejected with err, keeping the last data.
func (m *Machine[T]) Fail(id string, err error) error {
	if err == nil {
		err = errors.New("unknown error")
	}
	return m.transition(func(s *Snapshot[T]) error {
		if err := m.settle(id); err != nil {
			return err
		}
		s.Status = StatusRejected
		s.Err = err
		s.Error = err.Error()
		s.RequestID = id
		return nil
	})
}

// Reset returns the machine to its initial idle value and forgets requests
// still in flight; their settlements will be refused.
func (m *Machine[T]) Reset() {
	m.transition(func(s *Snapshot[T]) error {
		clear(m.pending)
		*s = Snapshot[T]{Kind: m.kind, Status: StatusIdle}
		return nil
	})
}

// settle must be called with m.mu held.
func (m *Machine[T]) settle(id string) error {
	if _, ok := m.pending[id]; !ok {
		return ErrNoPendingRequest
	}
	delete(m.pending, id)
	return nil
}

// Snapshot returns the current state.
func (m *Machine[T]) Snapshot() Snapshot[T] {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cur
}

func (m *Machine[T]) transition(apply func(*Snapshot[T]) error) error {
	m.mu.Lock()
	next := m.cur
	if err := apply(&next); err != nil {
		m.mu.Unlock()
		return err
	}
	next.UpdatedAt = m.now()
	m.cur = next
	listeners := append([]func(Snapshot[T]){}, m.listeners...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
	return nil
}
