package universe

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niksan004/Stonks/internal/domain"
	testutil "github.com/niksan004/Stonks/internal/testing"
)

func TestLookupPeriod(t *testing.T) {
	tests := []struct {
		name     string
		wantDays int
		wantErr  bool
	}{
		{name: "1 day", wantDays: 1},
		{name: "1 week", wantDays: 5},
		{name: "1 MONTH", wantDays: 30},
		{name: " 1 year ", wantDays: 365},
		{name: "5 years", wantDays: 1825},
		{name: "10 years", wantDays: 3650},
		{name: "max", wantDays: 42069},
		{name: "fortnight", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := LookupPeriod(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDays, p.Days)
		})
	}
}

func TestHistoryService_Window(t *testing.T) {
	provider := testutil.NewStaticProvider(domain.Resolution{
		Symbol:      "SPY",
		DisplayName: "SPDR S&P 500",
		Series:      testutil.DailySeries("2024-01-01", 60, testutil.Linear(100, 1)),
	})
	svc := NewHistoryService(provider)
	svc.now = func() time.Time { return time.Date(2024, 2, 29, 18, 0, 0, 0, time.UTC) }

	w, err := svc.Window(context.Background(), "spy", "1 week")
	require.NoError(t, err)
	assert.Equal(t, "SPY", w.Symbol)
	assert.Equal(t, domain.MustParseDate("2024-02-24"), w.Since)
	// Series ends on 2024-02-29 (day 59): bars 24th..29th inclusive.
	require.Len(t, w.Bars, 6)
	assert.Equal(t, domain.MustParseDate("2024-02-24"), w.Bars[0].Date)

	all, err := svc.Window(context.Background(), "SPY", "Max")
	require.NoError(t, err)
	assert.Len(t, all.Bars, 60)
}

func TestHistoryService_Errors(t *testing.T) {
	svc := NewHistoryService(testutil.NewStaticProvider())

	_, err := svc.Window(context.Background(), "SPY", "1 month")
	assert.ErrorIs(t, err, domain.ErrResolution)

	_, err = svc.Window(context.Background(), "SPY", "eons")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
