package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/niksan004/Stonks/internal/config"
	"github.com/niksan004/Stonks/internal/scheduler"
)

// RegisterJobs creates the scheduler and registers every job whose
// schedule is set. The scheduler is not started.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	sched := scheduler.New(log)
	instances := &JobInstances{}

	if cfg.RefreshSchedule != "" {
		job := scheduler.NewRefreshPricesJob(container.Resolver, cfg.HTTPTimeout)
		job.SetLogger(log)
		if err := sched.AddJob(cfg.RefreshSchedule, job); err != nil {
			return nil, err
		}
		instances.RefreshPrices = job
	}

	if cfg.DBCheckSchedule != "" {
		job := scheduler.NewCheckDatabaseJob(container.HistoryDB)
		job.SetLogger(log)
		if err := sched.AddJob(cfg.DBCheckSchedule, job); err != nil {
			return nil, err
		}
		instances.CheckDatabase = job
	}

	if cfg.SessionExpirySchedule != "" {
		job := scheduler.NewExpireSessionsJob(container.Sessions, cfg.SessionIdleTimeout)
		job.SetLogger(log)
		if err := sched.AddJob(cfg.SessionExpirySchedule, job); err != nil {
			return nil, err
		}
		instances.ExpireSessions = job
	}

	container.Scheduler = sched
	container.Jobs = instances

	log.Info().Strs("jobs", sched.JobNames()).Msg("Background jobs registered")

	return instances, nil
}
