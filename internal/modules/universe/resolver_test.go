package universe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/niksan004/Stonks/internal/clients/yahoo"
	"github.com/niksan004/Stonks/internal/domain"
	testutil "github.com/niksan004/Stonks/internal/testing"
)

// MockHistoryClient is a mock Yahoo client for testing
type MockHistoryClient struct {
	mock.Mock
}

func (m *MockHistoryClient) FetchHistory(ctx context.Context, symbol, rangeSpec string) (*yahoo.History, error) {
	args := m.Called(ctx, symbol, rangeSpec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*yahoo.History), args.Error(1)
}

func appleHistory() *yahoo.History {
	fixture := testutil.AppleFixture()
	return &yahoo.History{
		Symbol:      "AAPL",
		DisplayName: fixture.DisplayName,
		Currency:    "USD",
		Bars:        fixture.Series.Bars(),
	}
}

func newTestResolver(t *testing.T, client yahoo.HistoryClient, cfg ResolverConfig) (*Resolver, *HistoryDB) {
	t.Helper()
	repo := newTestHistoryDB(t)
	log := zerolog.New(nil).Level(zerolog.Disabled)
	return NewResolver(repo, client, NewPriceValidator(false, log), cfg, log), repo
}

func TestResolver_FetchesOnMissThenServesFromCache(t *testing.T) {
	client := new(MockHistoryClient)
	client.On("FetchHistory", mock.Anything, "AAPL", "max").Return(appleHistory(), nil).Once()

	resolver, repo := newTestResolver(t, client, ResolverConfig{})
	ctx := context.Background()

	res, err := resolver.Resolve(ctx, "aapl")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", res.Symbol)
	assert.Equal(t, "Apple Inc.", res.DisplayName)
	assert.Equal(t, 3, res.Series.Len())

	cached, err := repo.GetAsset(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "USD", cached.Currency)

	// Second call must not hit the client (Once above would fail it).
	again, err := resolver.Resolve(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, res.Series.Bars(), again.Series.Bars())
	assert.Equal(t, res.DisplayName, again.DisplayName)

	client.AssertExpectations(t)
}

func TestResolver_UsesConfiguredRange(t *testing.T) {
	client := new(MockHistoryClient)
	client.On("FetchHistory", mock.Anything, "AAPL", "10y").Return(appleHistory(), nil).Once()

	resolver, _ := newTestResolver(t, client, ResolverConfig{FetchRange: "10y"})
	_, err := resolver.Resolve(context.Background(), "AAPL")
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestResolver_StaleCacheRefetches(t *testing.T) {
	client := new(MockHistoryClient)
	client.On("FetchHistory", mock.Anything, "AAPL", "max").Return(appleHistory(), nil).Twice()

	resolver, _ := newTestResolver(t, client, ResolverConfig{MaxAge: time.Hour})
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	resolver.now = func() time.Time { return now }

	_, err := resolver.Resolve(context.Background(), "AAPL")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = resolver.Resolve(context.Background(), "AAPL")
	require.NoError(t, err)

	client.AssertExpectations(t)
}

func TestResolver_Refresh(t *testing.T) {
	client := new(MockHistoryClient)
	client.On("FetchHistory", mock.Anything, "AAPL", "max").Return(appleHistory(), nil).Twice()

	resolver, _ := newTestResolver(t, client, ResolverConfig{})
	ctx := context.Background()

	_, err := resolver.Resolve(ctx, "AAPL")
	require.NoError(t, err)
	_, err = resolver.Refresh(ctx, "AAPL")
	require.NoError(t, err)

	symbols, err := resolver.CachedSymbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, symbols)
	client.AssertExpectations(t)
}

func TestResolver_Failures(t *testing.T) {
	tests := []struct {
		name      string
		history   *yahoo.History
		err       error
		wantInner error
	}{
		{
			name:      "unknown symbol",
			err:       &domain.ResolutionError{Symbol: "ZZZZ", Err: domain.ErrNotFound},
			wantInner: domain.ErrNotFound,
		},
		{
			name:      "upstream down",
			err:       yahoo.ErrUpstream,
			wantInner: yahoo.ErrUpstream,
		},
		{
			name:      "no bars",
			history:   &yahoo.History{Symbol: "ZZZZ", DisplayName: "Zed"},
			wantInner: domain.ErrEmptySeries,
		},
		{
			name: "only invalid bars",
			history: &yahoo.History{Symbol: "ZZZZ", Bars: []domain.Bar{
				{Date: domain.MustParseDate("2024-01-01")},
			}},
			wantInner: domain.ErrEmptySeries,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(MockHistoryClient)
			if tt.history != nil {
				client.On("FetchHistory", mock.Anything, "ZZZZ", "max").Return(tt.history, nil)
			} else {
				client.On("FetchHistory", mock.Anything, "ZZZZ", "max").Return(nil, tt.err)
			}

			resolver, repo := newTestResolver(t, client, ResolverConfig{})
			_, err := resolver.Resolve(context.Background(), "zzzz")
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrResolution)
			assert.ErrorIs(t, err, tt.wantInner)

			var resErr *domain.ResolutionError
			require.True(t, errors.As(err, &resErr))
			assert.Equal(t, "ZZZZ", resErr.Symbol)

			_, err = repo.GetAsset(context.Background(), "ZZZZ")
			assert.ErrorIs(t, err, domain.ErrNotFound, "failed resolutions are not cached")
		})
	}
}

func TestResolver_RejectsMalformedSymbol(t *testing.T) {
	client := new(MockHistoryClient)
	resolver, _ := newTestResolver(t, client, ResolverConfig{})

	for _, sym := range []string{"", "   ", "A/B", "A B"} {
		_, err := resolver.Resolve(context.Background(), sym)
		assert.ErrorIs(t, err, domain.ErrResolution, sym)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument, sym)
	}
	client.AssertNotCalled(t, "FetchHistory", mock.Anything, mock.Anything, mock.Anything)
}
