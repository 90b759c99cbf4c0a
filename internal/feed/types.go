package feed

import (
	"time"
)

// Document is a fetched and parsed feed, entries in document order.
type Document struct {
	Title   string
	Entries []RawEntry
}

// RawEntry carries the entry fields the normalizer looks at. Parsed
// timestamps are nil when the feed library could not read the raw value.
type RawEntry struct {
	ID              string
	Link            string
	Title           string
	Published       string
	PublishedParsed *time.Time
	Updated         string
	UpdatedParsed   *time.Time
}

// Entry is a normalized entry ready for reconciliation and rendering.
type Entry struct {
	ID           string
	Title        string
	Link         string
	PublishedAt  *time.Time // UTC, nil when unknown
	FeedURL      string
	SourceTitle  string
	SourceDomain string
}

// Source describes the feed an entry came from.
type Source struct {
	URL    string
	Title  string
	Domain string
}
