package state

import (
	"context"
	"maps"
	"time"
)

// State is the durable record shared by every run: the global watermark and
// the per-feed seen-sets keyed by feed URL.
type State struct {
	LastRun *time.Time
	Feeds   map[string]FeedRecord
}

// FeedRecord holds the identifiers already reported or deliberately suppressed
// for one feed, oldest first.
type FeedRecord struct {
	SeenIDs []string
}

type Store interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, s *State) error
}

// Peeker reads the durable record without changing it, even when the record
// is malformed.
type Peeker interface {
	Peek(ctx context.Context) (*State, error)
}

// Backend is a Store that status reporting can also inspect read-only.
type Backend interface {
	Store
	Peeker
}

// New returns an empty state with no successful run.
func New() *State {
	return &State{Feeds: make(map[string]FeedRecord)}
}

// Clone returns a working copy. Records are shared because they are treated
// as immutable values and replaced wholesale.
func (s *State) Clone() *State {
	clone := &State{Feeds: maps.Clone(s.Feeds)}
	if clone.Feeds == nil {
		clone.Feeds = make(map[string]FeedRecord)
	}
	if s.LastRun != nil {
		lastRun := *s.LastRun
		clone.LastRun = &lastRun
	}
	return clone
}

// Record returns the feed's record, empty when the feed was never seen.
func (s *State) Record(feedURL string) FeedRecord {
	return s.Feeds[feedURL]
}
