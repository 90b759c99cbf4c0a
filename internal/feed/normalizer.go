package feed

import (
	"cmp"
	"net/url"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"golang.org/x/text/unicode/norm"
)

// NewSource describes a feed by URL, cleaned title and domain.
func NewSource(feedURL, title string) Source {
	return Source{
		URL:    feedURL,
		Title:  cleanText(title),
		Domain: DomainOf(feedURL),
	}
}

// DomainOf returns the host of a feed URL, or the URL itself when no host
// can be parsed out of it.
func DomainOf(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Host == "" {
		return feedURL
	}
	return u.Host
}

// Normalize maps a raw entry to an Entry. The second result is false when the
// entry has neither an id nor a link and therefore cannot be tracked.
func Normalize(raw RawEntry, source Source) (Entry, bool) {
	id := cmp.Or(raw.ID, raw.Link)
	if id == "" {
		return Entry{}, false
	}

	publishedAt := resolveTime(raw.PublishedParsed, raw.Published)
	if publishedAt == nil {
		publishedAt = resolveTime(raw.UpdatedParsed, raw.Updated)
	}

	return Entry{
		ID:           id,
		Title:        cleanText(raw.Title),
		Link:         raw.Link,
		PublishedAt:  publishedAt,
		FeedURL:      source.URL,
		SourceTitle:  source.Title,
		SourceDomain: source.Domain,
	}, true
}

// NormalizeDocument truncates the document to maxItems entries (when
// positive) and normalizes what remains, dropping unidentifiable entries.
// Document order is kept, which for most feeds is most-recent-first.
func NormalizeDocument(doc *Document, feedURL string, maxItems int) []Entry {
	raw := doc.Entries
	if maxItems > 0 && len(raw) > maxItems {
		raw = raw[:maxItems]
	}

	source := NewSource(feedURL, doc.Title)
	entries := make([]Entry, 0, len(raw))
	for _, r := range raw {
		if entry, ok := Normalize(r, source); ok {
			entries = append(entries, entry)
		}
	}
	return entries
}

// Timestamps are kept at whole-second precision, matching the watermark.
func resolveTime(parsed *time.Time, value string) *time.Time {
	if parsed != nil {
		t := parsed.UTC().Truncate(time.Second)
		return &t
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	t, err := dateparse.ParseIn(value, time.UTC)
	if err != nil {
		return nil
	}
	t = t.UTC().Truncate(time.Second)
	return &t
}

func cleanText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
