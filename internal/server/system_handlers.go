package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/niksan004/Stonks/internal/database"
	"github.com/niksan004/Stonks/internal/domain"
	"github.com/niksan004/Stonks/internal/modules/session"
)

// SystemStatusResponse represents system status
type SystemStatusResponse struct {
	Status        string   `json:"status"`
	UptimeSeconds int64    `json:"uptime_seconds"`
	CPUPercent    float64  `json:"cpu_percent"`
	MemoryPercent float64  `json:"memory_percent"`
	Goroutines    int      `json:"goroutines"`
	Sessions      int      `json:"sessions"`
	Database      string   `json:"database"`
	Jobs          []string `json:"jobs"`
	LastChecked   string   `json:"last_checked"`
}

// DatabaseStatsResponse represents the price cache database on disk
type DatabaseStatsResponse struct {
	Path        string  `json:"path"`
	SizeMB      float64 `json:"size_mb"`
	WALSizeMB   float64 `json:"wal_size_mb"`
	Healthy     bool    `json:"healthy"`
	LastChecked string  `json:"last_checked"`
}

// SystemHandlers handles system-wide monitoring and job triggers
type SystemHandlers struct {
	historyDB *database.DB
	sessions  *session.Store
	jobs      JobRunner
	startedAt time.Time
	log       zerolog.Logger

	// Swapped in tests so status requests don't block on CPU sampling.
	systemStats func() (float64, float64)
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(
	historyDB *database.DB,
	sessions *session.Store,
	jobs JobRunner,
	startedAt time.Time,
	log zerolog.Logger,
) *SystemHandlers {
	h := &SystemHandlers{
		historyDB: historyDB,
		sessions:  sessions,
		jobs:      jobs,
		startedAt: startedAt,
		log:       log.With().Str("component", "system_handlers").Logger(),
	}
	h.systemStats = h.getSystemStats
	return h
}

// HandleSystemStatus returns process, host and cache status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.systemStats()

	response := SystemStatusResponse{
		Status:        "healthy",
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		Goroutines:    runtime.NumGoroutine(),
		Database:      "ok",
		Jobs:          []string{},
		LastChecked:   time.Now().Format(time.RFC3339),
	}

	if h.sessions != nil {
		response.Sessions = h.sessions.Len()
	}
	if h.jobs != nil {
		response.Jobs = h.jobs.JobNames()
	}
	if h.historyDB == nil {
		response.Database = "unavailable"
		response.Status = "degraded"
	} else if err := h.historyDB.HealthCheck(r.Context()); err != nil {
		h.log.Warn().Err(err).Msg("Price cache health check failed")
		response.Database = err.Error()
		response.Status = "degraded"
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleDatabaseStats returns size and health of the price cache
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	if h.historyDB == nil {
		http.Error(w, "price cache not configured", http.StatusServiceUnavailable)
		return
	}

	response := DatabaseStatsResponse{
		Path:        h.historyDB.Path(),
		SizeMB:      fileSizeMB(h.historyDB.Path()),
		WALSizeMB:   fileSizeMB(h.historyDB.Path() + "-wal"),
		Healthy:     h.historyDB.HealthCheck(r.Context()) == nil,
		LastChecked: time.Now().Format(time.RFC3339),
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleListJobs lists the registered background jobs
func (h *SystemHandlers) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	names := []string{}
	if h.jobs != nil {
		names = h.jobs.JobNames()
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": names})
}

// HandleTriggerJob runs a registered job immediately
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request, name string) {
	if h.jobs == nil {
		http.Error(w, "no background jobs configured", http.StatusNotFound)
		return
	}

	h.log.Info().Str("job", name).Msg("Manually triggering job")

	if err := h.jobs.RunByName(name); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("job", name).Msg("Manual job run failed")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": name + " completed",
	})
}

// getSystemStats calculates CPU and RAM usage percentages
// Uses a short sampling interval so status requests stay fast
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

func fileSizeMB(path string) float64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return float64(info.Size()) / 1024 / 1024
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
