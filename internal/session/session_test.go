package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/cart"
	"github.com/example/storefront/internal/checkout"
)

func lipstick() cart.Product {
	return cart.Product{ID: 1, Name: "Velvet Dream Matte Lipstick", Price: decimal.RequireFromString("399.00"), Category: "Lips"}
}

func exerciseManager(t *testing.T, m *Manager) {
	ctx := context.Background()

	st, err := m.Get(ctx, 1)
	require.NoError(t, err)
	assert.True(t, st.Cart.IsEmpty())
	assert.Equal(t, checkout.StepCart, st.Checkout.Step)
	assert.True(t, st.Checkout.FirstOrder)

	_, err = m.Update(ctx, 1, func(s *State) error {
		s.Cart.Add(lipstick(), 2)
		return s.Checkout.Proceed(s.Cart)
	})
	require.NoError(t, err)

	st, err = m.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Cart.ItemCount())
	assert.True(t, decimal.RequireFromString("798").Equal(st.Cart.Subtotal()))
	assert.Equal(t, checkout.StepDetails, st.Checkout.Step)

	other, err := m.Get(ctx, 2)
	require.NoError(t, err)
	assert.True(t, other.Cart.IsEmpty())

	boom := errors.New("boom")
	_, err = m.Update(ctx, 1, func(s *State) error {
		s.Cart.Clear()
		return boom
	})
	require.ErrorIs(t, err, boom)

	st, err = m.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Cart.ItemCount())

	require.NoError(t, m.Drop(ctx, 1))
	st, err = m.Get(ctx, 1)
	require.NoError(t, err)
	assert.True(t, st.Cart.IsEmpty())
}

func TestManager_Memory(t *testing.T) {
	exerciseManager(t, NewManager(NewMemoryStore()))
}

func TestManager_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	store := NewRedisStore(client, time.Hour)
	t.Cleanup(func() { _ = store.Close() })

	exerciseManager(t, NewManager(store))
}

func TestRedisStore_TTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	store := NewRedisStore(client, time.Minute)
	t.Cleanup(func() { _ = store.Close() })

	m := NewManager(store)
	_, err = m.Update(context.Background(), 5, func(s *State) error {
		s.Cart.Add(lipstick(), 1)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, time.Minute, mr.TTL("session:5"))

	mr.FastForward(2 * time.Minute)
	st, err := m.Get(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, st.Cart.IsEmpty())
}

func TestNewRedisClient_BadURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestManager_NormalizesPartialState(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), 9, []byte(`{}`)))

	st, err := NewManager(store).Get(context.Background(), 9)
	require.NoError(t, err)
	require.NotNil(t, st.Cart)
	require.NotNil(t, st.Checkout)
	assert.True(t, st.Checkout.FirstOrder)
}
