package di

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterJobs(t *testing.T) {
	tests := []struct {
		name     string
		refresh  string
		dbCheck  string
		expiry   string
		wantJobs []string
		wantErr  bool
	}{
		{
			name:     "all schedules",
			refresh:  "30 22 * * MON-FRI",
			dbCheck:  "@daily",
			expiry:   "@every 15m",
			wantJobs: []string{"check_database", "expire_sessions", "refresh_prices"},
		},
		{
			name:     "refresh only",
			refresh:  "@hourly",
			wantJobs: []string{"refresh_prices"},
		},
		{
			name:     "everything disabled",
			wantJobs: []string{},
		},
		{
			name:    "invalid schedule",
			dbCheck: "whenever",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.RefreshSchedule = tt.refresh
			cfg.DBCheckSchedule = tt.dbCheck
			cfg.SessionExpirySchedule = tt.expiry

			container, err := WireServices(cfg, zerolog.Nop())
			require.NoError(t, err)
			defer container.Close()

			jobs, err := RegisterJobs(container, cfg, zerolog.Nop())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, tt.wantJobs, container.Scheduler.JobNames())
			assert.Equal(t, tt.refresh != "", jobs.RefreshPrices != nil)
			assert.Equal(t, tt.dbCheck != "", jobs.CheckDatabase != nil)
			assert.Equal(t, tt.expiry != "", jobs.ExpireSessions != nil)
		})
	}
}

func TestRegisterJobs_NilContainer(t *testing.T) {
	_, err := RegisterJobs(nil, testConfig(t), zerolog.Nop())
	assert.Error(t, err)
}
