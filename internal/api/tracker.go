package api

import (
	"time"

	"github.com/lysyi3m/rss-digest/internal/runner"
)

// NewTracker creates a tracker with no recorded run.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Record stores the outcome of a finished run. report is nil when the run
// failed before producing one.
func (t *Tracker) Record(report *runner.Report, err error) {
	now := time.Now().UTC()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.report = report
	t.err = err
	t.finishedAt = &now
}

func (t *Tracker) summary() *runSummary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.finishedAt == nil {
		return nil
	}

	s := &runSummary{FinishedAt: t.finishedAt, Failures: []string{}}
	if t.err != nil {
		s.Error = t.err.Error()
	}
	if r := t.report; r != nil {
		startedAt := r.StartedAt
		s.RunID = r.RunID
		s.StartedAt = &startedAt
		s.NewItems = r.NewItems
		s.WarmStart = r.WarmStart
		s.Sent = r.Sent
		s.Advanced = r.Advanced
		if r.Failures != nil {
			s.Failures = r.Failures
		}
	}
	return s
}
