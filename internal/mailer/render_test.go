package mailer

import (
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"

	"github.com/lysyi3m/rss-digest/internal/feed"
)

var renderNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func sampleEntries() []feed.Entry {
	first := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	third := time.Date(2024, 5, 31, 23, 5, 0, 0, time.UTC)

	return []feed.Entry{
		{
			ID:           "a-1",
			Title:        "First post",
			Link:         "https://a.example.com/1",
			PublishedAt:  &first,
			SourceTitle:  "Blog A",
			SourceDomain: "a.example.com",
		},
		{
			ID:           "https://a.example.com/2",
			Link:         "https://a.example.com/2",
			SourceTitle:  "Blog A",
			SourceDomain: "a.example.com",
		},
		{
			ID:           "urn:b:3",
			PublishedAt:  &third,
			SourceDomain: "b.example.com",
		},
	}
}

func sampleFailures() []string {
	return []string{
		"https://c.example.com/feed (HTTPError; 500 Internal Server Error for url: https://c.example.com/feed; " +
			"status=500 Internal Server Error; ua=rss-digest/1.0)",
	}
}

func TestRenderTextGolden(t *testing.T) {
	msg := Render(sampleEntries(), sampleFailures(), renderNow, "RSS updates")

	g := goldie.New(t)
	g.Assert(t, "digest_text", []byte(msg.Text))
}

func TestRenderTextWithoutFailures(t *testing.T) {
	msg := Render(sampleEntries()[2:], nil, renderNow, "News")

	expected := "News - 1 new\n\nb.example.com\n- urn:b:3\n  2024-05-31 23:05 UTC\n"
	assert.Equal(t, expected, msg.Text)
	assert.Equal(t, "News (1 new)", msg.Subject)
}

func TestRenderHTML(t *testing.T) {
	entries := sampleEntries()
	entries[0].Title = `Tips & <tricks>`

	msg := Render(entries, sampleFailures(), renderNow, "RSS updates")

	assert.True(t, strings.HasPrefix(msg.HTML, "<!doctype html>\n"))
	assert.True(t, strings.HasSuffix(msg.HTML, "</body></html>\n"))
	assert.Contains(t, msg.HTML, "<title>RSS updates (3 new)</title>")
	assert.Contains(t, msg.HTML, "2024-06-01 12:00 UTC • 3 new")
	assert.Contains(t, msg.HTML, `<a href="https://a.example.com/1" style="color:#0b57d0; text-decoration:none;">Tips &amp; &lt;tricks&gt;</a>`)
	assert.Contains(t, msg.HTML, "Blog A • 2024-06-01 09:30 UTC")
	assert.Contains(t, msg.HTML, `<li style="margin: 8px 0;">urn:b:3<div`)
	assert.Contains(t, msg.HTML, "<h2 style=\"margin:20px 0 8px 0;\">Failures</h2>")
	assert.NotContains(t, msg.HTML, "<tricks>")

	aIndex := strings.Index(msg.HTML, ">a.example.com</h2>")
	bIndex := strings.Index(msg.HTML, ">b.example.com</h2>")
	assert.True(t, aIndex >= 0 && bIndex > aIndex, "domains must be rendered in sorted order")
}

func TestRenderGroupsKeepOrderWithinDomain(t *testing.T) {
	entries := []feed.Entry{
		{ID: "z1", Title: "Z one", SourceDomain: "z.example.com"},
		{ID: "a1", Title: "A one", SourceDomain: "a.example.com"},
		{ID: "z2", Title: "Z two", SourceDomain: "z.example.com"},
	}

	msg := Render(entries, nil, renderNow, "Digest")

	expected := "Digest - 3 new\n\na.example.com\n- A one\n\nz.example.com\n- Z one\n- Z two\n"
	assert.Equal(t, expected, msg.Text)
}
