package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeIdentifier(t *testing.T) {
	source := NewSource("https://example.com/feed.xml", "Example")

	tests := []struct {
		name   string
		raw    RawEntry
		wantID string
		wantOK bool
	}{
		{"guid preferred", RawEntry{ID: "guid-1", Link: "https://example.com/a"}, "guid-1", true},
		{"link fallback", RawEntry{Link: "https://example.com/a"}, "https://example.com/a", true},
		{"unidentifiable", RawEntry{Title: "No id, no link"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, ok := Normalize(tt.raw, source)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, entry.ID)
		})
	}
}

func TestNormalizeTimestamp(t *testing.T) {
	source := NewSource("https://example.com/feed.xml", "")
	published := time.Date(2024, 2, 1, 13, 0, 0, 750_000_000, time.FixedZone("EST", -5*3600))
	updated := time.Date(2024, 2, 2, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  RawEntry
		want *time.Time
	}{
		{
			name: "parsed publish time converted to UTC",
			raw:  RawEntry{ID: "a", PublishedParsed: &published, UpdatedParsed: &updated},
			want: ptr(time.Date(2024, 2, 1, 18, 0, 0, 0, time.UTC)),
		},
		{
			name: "update time fallback",
			raw:  RawEntry{ID: "a", Published: "", UpdatedParsed: &updated},
			want: ptr(updated),
		},
		{
			name: "raw publish string parsed leniently",
			raw:  RawEntry{ID: "a", Published: "2024-02-03 04:05:06"},
			want: ptr(time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)),
		},
		{
			name: "unparseable publish falls through to update",
			raw:  RawEntry{ID: "a", Published: "definitely not a date", UpdatedParsed: &updated},
			want: ptr(updated),
		},
		{
			name: "nothing usable",
			raw:  RawEntry{ID: "a", Published: "definitely not a date", Updated: "also not a date"},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, ok := Normalize(tt.raw, source)
			require.True(t, ok)
			if tt.want == nil {
				assert.Nil(t, entry.PublishedAt)
				return
			}
			require.NotNil(t, entry.PublishedAt)
			assert.Equal(t, *tt.want, *entry.PublishedAt)
			assert.Equal(t, time.UTC, entry.PublishedAt.Location())
		})
	}
}

func TestNormalizeDescriptiveFields(t *testing.T) {
	source := NewSource("https://news.example.com:8443/rss", "  Café News ")

	entry, ok := Normalize(RawEntry{ID: "x", Title: " Re\u0301sume\u0301 tips ", Link: "https://news.example.com/x"}, source)
	require.True(t, ok)

	assert.Equal(t, "Résumé tips", entry.Title)
	assert.Equal(t, "https://news.example.com/x", entry.Link)
	assert.Equal(t, "Café News", entry.SourceTitle)
	assert.Equal(t, "news.example.com:8443", entry.SourceDomain)
	assert.Equal(t, "https://news.example.com:8443/rss", entry.FeedURL)
}

func TestDomainOf(t *testing.T) {
	assert.Equal(t, "example.com", DomainOf("https://example.com/feed"))
	assert.Equal(t, "not a url", DomainOf("not a url"))
	assert.Equal(t, "/relative/feed.xml", DomainOf("/relative/feed.xml"))
	assert.Equal(t, "://broken", DomainOf("://broken"))
}

func TestNormalizeDocument(t *testing.T) {
	doc := &Document{
		Title: "Feed",
		Entries: []RawEntry{
			{ID: "1"},
			{Title: "unidentifiable"},
			{ID: "3"},
			{ID: "4"},
		},
	}

	all := NormalizeDocument(doc, "https://example.com/feed", 0)
	assert.Equal(t, []string{"1", "3", "4"}, ids(all))

	truncated := NormalizeDocument(doc, "https://example.com/feed", 3)
	assert.Equal(t, []string{"1", "3"}, ids(truncated))

	for _, entry := range truncated {
		assert.Equal(t, "Feed", entry.SourceTitle)
		assert.Equal(t, "example.com", entry.SourceDomain)
	}
}

func ids(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}
