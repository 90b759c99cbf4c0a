// Package digest decides which feed entries are new since the last
// successful run and how each feed's seen-set evolves.
//
// Reconcile is pure: it never mutates its input record and the same input
// always produces the same result.
package digest

import (
	"cmp"
	"slices"
	"time"

	"github.com/lysyi3m/rss-digest/internal/feed"
	"github.com/lysyi3m/rss-digest/internal/state"
)

type Settings struct {
	// InitialRunSend reports the current backlog on the very first run
	// instead of silently recording it.
	InitialRunSend bool
	// SeenLimit caps each feed's seen-set; zero or less disables the cap.
	SeenLimit int
}

// Input is everything reconciliation needs for one feed.
type Input struct {
	Record    state.FeedRecord
	LastRun   *time.Time
	StartedAt time.Time
	// Entries in document order, usually most-recent-first.
	Entries []feed.Entry
}

// Result holds the feed's next record and the entries to report.
type Result struct {
	Record state.FeedRecord
	New    []feed.Entry
}

// WarmStart reports whether a run suppresses all notifications and only
// records what it sees.
func WarmStart(lastRun *time.Time, settings Settings) bool {
	return lastRun == nil && !settings.InitialRunSend
}

// Reconcile classifies a feed's entries against its seen-set and the last
// successful run and returns the updated record. During a warm start nothing
// is new and every entry is recorded, oldest first. Otherwise an unseen entry
// is new when IsNew holds, and every unseen entry is recorded either way.
// Recorded ids are appended by publish time and the record is capped at
// settings.SeenLimit.
func Reconcile(in Input, settings Settings) Result {
	var marks []mark
	var fresh []feed.Entry

	if WarmStart(in.LastRun, settings) {
		// Oldest first, so a later cap keeps the most recent entries.
		for i := len(in.Entries) - 1; i >= 0; i-- {
			marks = append(marks, mark{id: in.Entries[i].ID})
		}
	} else {
		seen := make(map[string]struct{}, len(in.Record.SeenIDs)+len(in.Entries))
		for _, id := range in.Record.SeenIDs {
			seen[id] = struct{}{}
		}

		for _, entry := range in.Entries {
			if _, ok := seen[entry.ID]; ok {
				continue
			}
			seen[entry.ID] = struct{}{}

			if IsNew(entry, in.LastRun) {
				fresh = append(fresh, entry)
			}
			marks = append(marks, mark{id: entry.ID, publishedAt: entry.PublishedAt})
		}
	}

	return Result{
		Record: appendSeen(in.Record, marks, in.StartedAt, settings.SeenLimit),
		New:    fresh,
	}
}

// IsNew applies the time window to an entry whose id is not yet seen. An
// entry without a timestamp cannot be filtered by time and counts as new.
func IsNew(entry feed.Entry, lastRun *time.Time) bool {
	if lastRun == nil || entry.PublishedAt == nil {
		return true
	}
	return entry.PublishedAt.After(*lastRun)
}

type mark struct {
	id          string
	publishedAt *time.Time
}

// appendSeen orders marks by publish time, undated last, appends them and
// enforces the cap. The prior record's slice is never written to.
func appendSeen(record state.FeedRecord, marks []mark, startedAt time.Time, limit int) state.FeedRecord {
	if len(marks) == 0 && (limit <= 0 || len(record.SeenIDs) <= limit) {
		return record
	}

	slices.SortStableFunc(marks, func(a, b mark) int {
		if c := cmp.Compare(undated(a), undated(b)); c != 0 {
			return c
		}
		return orNow(a.publishedAt, startedAt).Compare(orNow(b.publishedAt, startedAt))
	})

	seen := make([]string, 0, len(record.SeenIDs)+len(marks))
	seen = append(seen, record.SeenIDs...)
	for _, m := range marks {
		seen = append(seen, m.id)
	}

	if limit > 0 && len(seen) > limit {
		seen = slices.Clone(seen[len(seen)-limit:])
	}

	return state.FeedRecord{SeenIDs: seen}
}

func undated(m mark) int {
	if m.publishedAt == nil {
		return 1
	}
	return 0
}

func orNow(t *time.Time, now time.Time) time.Time {
	if t == nil {
		return now
	}
	return *t
}

// SortEntries orders digest entries by source domain, then publish time with
// undated entries treated as published at now. Ties keep their input order.
func SortEntries(entries []feed.Entry, now time.Time) {
	slices.SortStableFunc(entries, func(a, b feed.Entry) int {
		if c := cmp.Compare(a.SourceDomain, b.SourceDomain); c != 0 {
			return c
		}
		return orNow(a.PublishedAt, now).Compare(orNow(b.PublishedAt, now))
	})
}
