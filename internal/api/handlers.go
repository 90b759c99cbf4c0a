package api

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/rss-digest/internal/state"
)

// NewHandler creates the status handlers. scheduler may be nil when the
// process is not running on a schedule.
func NewHandler(current state.Peeker, tracker *Tracker, scheduler SchedulerInterface, version string) *Handler {
	return &Handler{
		state:     current,
		tracker:   tracker,
		scheduler: scheduler,
		version:   version,
	}
}

// HealthCheck reports liveness and the running version.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"version":   h.version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// GetStats summarizes the durable state, the last run and the scheduler.
// The state is only read; a malformed record is reported, not repaired.
func (h *Handler) GetStats(c *gin.Context) {
	current, err := h.state.Peek(c.Request.Context())
	if err != nil {
		slog.Error("Failed to load state", "operation", "get_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load state"})
		return
	}

	feeds := make([]feedSummary, 0, len(current.Feeds))
	for url, record := range current.Feeds {
		feeds = append(feeds, feedSummary{URL: url, Seen: len(record.SeenIDs)})
	}
	slices.SortFunc(feeds, func(a, b feedSummary) int {
		return strings.Compare(a.URL, b.URL)
	})

	var lastRun *string
	if current.LastRun != nil {
		formatted := state.FormatTimestamp(*current.LastRun)
		lastRun = &formatted
	}

	stats := gin.H{
		"version":      h.version,
		"last_run_utc": lastRun,
		"feeds":        feeds,
		"last_report":  h.tracker.summary(),
	}

	if h.scheduler != nil {
		s := h.scheduler.GetStats()
		stats["scheduler"] = gin.H{
			"total_runs":   s.TotalRuns,
			"total_errors": s.TotalErrors,
			"last_run_at":  s.LastRunAt,
			"next_run_at":  s.NextRunAt,
			"last_error":   s.LastError,
		}
	}

	c.JSON(http.StatusOK, stats)
}
