// Package runner performs one complete polling pass: load state, fetch and
// reconcile every feed, send the digest and persist the next state.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lysyi3m/rss-digest/internal/digest"
	"github.com/lysyi3m/rss-digest/internal/feed"
	"github.com/lysyi3m/rss-digest/internal/feedlist"
	"github.com/lysyi3m/rss-digest/internal/mailer"
	"github.com/lysyi3m/rss-digest/internal/state"
)

// ErrConfig marks errors caused by configuration rather than by the run.
var ErrConfig = errors.New("configuration error")

// FeedSource fetches and parses one feed per call.
type FeedSource interface {
	Fetch(ctx context.Context, url string) (*feed.Document, error)
	UserAgent() string
}

var _ FeedSource = (*feed.Fetcher)(nil)

// Options are the run-level settings passed down to reconciliation and
// rendering.
type Options struct {
	InitialRunSend  bool
	SeenLimit       int
	MaxItemsPerFeed int
	SubjectPrefix   string
}

type Runner struct {
	feedListPath string
	store        state.Store
	source       FeedSource
	sender       mailer.Sender
	options      Options
	now          func() time.Time
}

// NewRunner creates a runner that re-reads the feed list at feedListPath on
// every run.
func NewRunner(feedListPath string, store state.Store, source FeedSource, sender mailer.Sender, options Options) *Runner {
	return &Runner{
		feedListPath: feedListPath,
		store:        store,
		source:       source,
		sender:       sender,
		options:      options,
		now:          time.Now,
	}
}

// Report summarizes a completed run.
type Report struct {
	RunID     string
	StartedAt time.Time
	Feeds     int
	NewItems  int
	Failures  []string
	WarmStart bool
	Sent      bool
	Advanced  bool
}

// Outcome is the result of polling every feed, before any decision is made.
type Outcome struct {
	NewItems []feed.Entry
	Failures []string
	Next     *state.State
}

// RunOnce is safe to call repeatedly; nothing is retained between calls.
// State is persisted only after a digest, when one is due, was sent.
func (r *Runner) RunOnce(ctx context.Context) (*Report, error) {
	runID := uuid.Must(uuid.NewV7()).String()
	log := slog.With("run", runID)

	urls, err := feedlist.Load(r.feedListPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	startedAt := r.now().UTC().Truncate(time.Second)

	prior, err := r.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	log.Debug("Run started", "feeds", len(urls), "last_run", prior.LastRun)

	outcome, err := r.Poll(ctx, log, urls, prior, startedAt)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:     runID,
		StartedAt: startedAt,
		Feeds:     len(urls),
		NewItems:  len(outcome.NewItems),
		Failures:  outcome.Failures,
		WarmStart: digest.WarmStart(prior.LastRun, r.settings()),
	}

	switch {
	case report.WarmStart:
		log.Info("Initial run: recording current entries without sending", "feeds", len(urls), "failures", len(outcome.Failures))
		report.Advanced = true
	case len(outcome.NewItems) == 0:
		log.Info("No new items", "failures", len(outcome.Failures))
		report.Advanced = len(outcome.Failures) == 0
	default:
		msg := mailer.Render(outcome.NewItems, outcome.Failures, startedAt, r.options.SubjectPrefix)
		if err := r.sender.Send(ctx, msg); err != nil {
			return nil, fmt.Errorf("failed to send digest: %w", err)
		}
		report.Sent = true
		report.Advanced = len(outcome.Failures) == 0
		log.Info("Digest sent", "items", len(outcome.NewItems), "failures", len(outcome.Failures))
	}

	if report.Advanced {
		outcome.Next.LastRun = &startedAt
	} else if len(outcome.Failures) > 0 {
		log.Warn("Feed failures occurred, not advancing last run", "failures", outcome.Failures)
	}

	// The digest may already be out; a shutdown must not lose its record.
	if err := r.store.Save(context.WithoutCancel(ctx), outcome.Next); err != nil {
		return nil, fmt.Errorf("failed to save state: %w", err)
	}

	return report, nil
}

// Poll folds every feed into a working copy of prior. A failing feed only
// adds a failure description and keeps its record; prior is not modified.
// Only context cancellation aborts the pass.
func (r *Runner) Poll(ctx context.Context, log *slog.Logger, urls []string, prior *state.State, startedAt time.Time) (*Outcome, error) {
	settings := r.settings()
	outcome := &Outcome{Next: prior.Clone()}

	for _, url := range urls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record := prior.Record(url)

		doc, err := r.source.Fetch(ctx, url)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			failure := feed.DescribeFailure(url, err, r.source.UserAgent())
			log.Warn("Feed fetch failed", "feed", url, "failure", failure)
			outcome.Failures = append(outcome.Failures, failure)
			outcome.Next.Feeds[url] = record
			continue
		}

		entries := feed.NormalizeDocument(doc, url, r.options.MaxItemsPerFeed)
		result := digest.Reconcile(digest.Input{
			Record:    record,
			LastRun:   prior.LastRun,
			StartedAt: startedAt,
			Entries:   entries,
		}, settings)

		outcome.Next.Feeds[url] = result.Record
		outcome.NewItems = append(outcome.NewItems, result.New...)

		log.Debug("Feed reconciled", "feed", url, "entries", len(entries), "new", len(result.New), "seen", len(result.Record.SeenIDs))
	}

	digest.SortEntries(outcome.NewItems, startedAt)
	return outcome, nil
}

func (r *Runner) settings() digest.Settings {
	return digest.Settings{
		InitialRunSend: r.options.InitialRunSend,
		SeenLimit:      r.options.SeenLimit,
	}
}
