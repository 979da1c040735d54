// Package session keeps the per-user cart and checkout state for the
// lifetime of a login. Nothing here is written to the relational store.
package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/go-faster/errors"

	"github.com/example/storefront/internal/cart"
	"github.com/example/storefront/internal/checkout"
)

// State is everything a signed-in user accumulates while shopping.
type State struct {
	Cart     *cart.Cart        `json:"cart"`
	Checkout *checkout.Session `json:"checkout"`
}

// NewState returns an empty cart on a fresh first-order checkout.
func NewState() *State {
	return &State{Cart: cart.New(), Checkout: checkout.NewSession()}
}

func (s *State) normalize() {
	if s.Cart == nil {
		s.Cart = cart.New()
	}
	if s.Checkout == nil {
		s.Checkout = checkout.NewSession()
	}
}

// Store persists encoded state by user id.
type Store interface {
	// Load returns the encoded state and whether it existed.
	Load(ctx context.Context, userID uint) ([]byte, bool, error)
	Save(ctx context.Context, userID uint, data []byte) error
	Delete(ctx context.Context, userID uint) error
}

const lockStripes = 64

// Manager serializes read-modify-write cycles per user on top of a Store.
type Manager struct {
	store Store
	locks [lockStripes]sync.Mutex
}

// NewManager constructs a Manager over store.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

func (m *Manager) lock(userID uint) *sync.Mutex {
	return &m.locks[userID%lockStripes]
}

// Get returns the state of userID, or a fresh one if none is stored.
func (m *Manager) Get(ctx context.Context, userID uint) (*State, error) {
	mu := m.lock(userID)
	mu.Lock()
	defer mu.Unlock()

	return m.load(ctx, userID)
}

// Update applies fn to the state of userID and saves the result. Nothing is
// saved when fn fails.
func (m *Manager) Update(ctx context.Context, userID uint, fn func(*State) error) (*State, error) {
	mu := m.lock(userID)
	mu.Lock()
	defer mu.Unlock()

	st, err := m.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(st); err != nil {
		return nil, err
	}

	data, err := json.Marshal(st)
	if err != nil {
		return nil, errors.Wrap(err, "encode session")
	}
	if err := m.store.Save(ctx, userID, data); err != nil {
		return nil, errors.Wrap(err, "save session")
	}
	return st, nil
}

// Drop discards the state of userID.
func (m *Manager) Drop(ctx context.Context, userID uint) error {
	mu := m.lock(userID)
	mu.Lock()
	defer mu.Unlock()

	if err := m.store.Delete(ctx, userID); err != nil {
		return errors.Wrap(err, "delete session")
	}
	return nil
}

func (m *Manager) load(ctx context.Context, userID uint) (*State, error) {
	data, ok, err := m.store.Load(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load session")
	}
	if !ok {
		return NewState(), nil
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, errors.Wrap(err, "decode session")
	}
	st.normalize()
	return &st, nil
}
