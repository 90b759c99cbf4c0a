package api

import (
	"sync"
	"time"

	"github.com/lysyi3m/rss-digest/internal/runner"
	"github.com/lysyi3m/rss-digest/internal/scheduler"
	"github.com/lysyi3m/rss-digest/internal/state"
)

// SchedulerInterface exposes scheduler statistics to the stats endpoint.
type SchedulerInterface interface {
	GetStats() scheduler.Stats
}

var _ SchedulerInterface = (*scheduler.Scheduler)(nil)

type Handler struct {
	state     state.Peeker
	tracker   *Tracker
	scheduler SchedulerInterface
	version   string
}

// Tracker remembers the outcome of the most recent run.
type Tracker struct {
	mu         sync.RWMutex
	report     *runner.Report
	err        error
	finishedAt *time.Time
}

type runSummary struct {
	RunID      string     `json:"run_id,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at"`
	NewItems   int        `json:"new_items"`
	Failures   []string   `json:"failures"`
	WarmStart  bool       `json:"warm_start"`
	Sent       bool       `json:"sent"`
	Advanced   bool       `json:"advanced"`
	Error      string     `json:"error,omitempty"`
}

type feedSummary struct {
	URL  string `json:"url"`
	Seen int    `json:"seen"`
}
