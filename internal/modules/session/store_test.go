package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niksan004/Stonks/internal/domain"
	"github.com/niksan004/Stonks/internal/modules/portfolio"
	testutil "github.com/niksan004/Stonks/internal/testing"
)

func newStore() *Store {
	return NewStore(testutil.NewStaticProvider(testutil.AppleFixture()), zerolog.Nop())
}

func TestStore_CreateGetDelete(t *testing.T) {
	s := newStore()

	sess := s.Create()
	require.NotEmpty(t, sess.ID)
	assert.Equal(t, 1, s.Len())

	got, err := s.Get(sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)

	require.NoError(t, s.Delete(sess.ID))
	assert.Equal(t, 0, s.Len())

	_, err = s.Get(sess.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.Delete(sess.ID), domain.ErrNotFound)
}

func TestStore_IDsAreUnique(t *testing.T) {
	s := newStore()
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id := s.Create().ID
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestStore_With(t *testing.T) {
	s := newStore()
	sess := s.Create()

	err := s.With(sess.ID, func(p *portfolio.Portfolio) error {
		_, err := p.AddAsset(context.Background(), "AAPL", 10)
		return err
	})
	require.NoError(t, err)

	var value float64
	require.NoError(t, s.With(sess.ID, func(p *portfolio.Portfolio) error {
		var err error
		value, err = p.InitialValue()
		return err
	}))
	assert.InDelta(t, 1600.0, value, 1e-9)

	err = s.With("missing", func(*portfolio.Portfolio) error { return nil })
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_WithSerializesMutation(t *testing.T) {
	s := newStore()
	sess := s.Create()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.With(sess.ID, func(p *portfolio.Portfolio) error {
				_, err := p.AddAsset(context.Background(), "AAPL", 1)
				return err
			})
		}()
	}
	wg.Wait()

	require.NoError(t, s.With(sess.ID, func(p *portfolio.Portfolio) error {
		assert.Equal(t, []float64{20}, p.Shares())
		return nil
	}))
}

func TestStore_Expire(t *testing.T) {
	s := newStore()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	idle := s.Create()
	active := s.Create()

	now = now.Add(2 * time.Hour)
	require.NoError(t, s.With(active.ID, func(*portfolio.Portfolio) error { return nil }))

	assert.Equal(t, 1, s.Expire(time.Hour))
	_, err := s.Get(idle.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.Get(active.ID)
	assert.NoError(t, err)
}
