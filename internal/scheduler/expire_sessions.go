package scheduler

import (
	"time"

	"github.com/rs/zerolog"
)

// SessionExpirer drops idle sessions; session.Store implements it.
type SessionExpirer interface {
	Expire(maxIdle time.Duration) int
}

// ExpireSessionsJob removes sessions nobody used for a while.
type ExpireSessionsJob struct {
	log     zerolog.Logger
	store   SessionExpirer
	maxIdle time.Duration
}

// NewExpireSessionsJob creates a new ExpireSessionsJob
func NewExpireSessionsJob(store SessionExpirer, maxIdle time.Duration) *ExpireSessionsJob {
	return &ExpireSessionsJob{
		log:     zerolog.Nop(),
		store:   store,
		maxIdle: maxIdle,
	}
}

// SetLogger sets the logger for the job
func (j *ExpireSessionsJob) SetLogger(log zerolog.Logger) {
	j.log = log
}

// Name returns the job name
func (j *ExpireSessionsJob) Name() string {
	return "expire_sessions"
}

// Run executes the expire sessions job
func (j *ExpireSessionsJob) Run() error {
	removed := j.store.Expire(j.maxIdle)
	j.log.Debug().Int("removed", removed).Dur("max_idle", j.maxIdle).Msg("Session expiry completed")
	return nil
}
