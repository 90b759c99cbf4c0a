package feed

import (
	"errors"
	"testing"
	"time"
)

func TestParseRSS2(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <link>https://example.com</link>
    <description>Test Description</description>
    <item>
      <title>Test Item 1</title>
      <link>https://example.com/item1</link>
      <guid>item-1</guid>
      <pubDate>Mon, 03 Jul 2023 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Test Item 2</title>
      <link>https://example.com/item2</link>
    </item>
  </channel>
</rss>`

	parser := NewParser()
	doc, err := parser.Run([]byte(rssData))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if doc.Title != "Test Feed" {
		t.Errorf("Expected title 'Test Feed', got: %s", doc.Title)
	}
	if len(doc.Entries) != 2 {
		t.Fatalf("Expected 2 entries, got: %d", len(doc.Entries))
	}

	first := doc.Entries[0]
	if first.ID != "item-1" {
		t.Errorf("Expected ID 'item-1', got: %s", first.ID)
	}
	if first.Title != "Test Item 1" {
		t.Errorf("Expected title 'Test Item 1', got: %s", first.Title)
	}
	if first.PublishedParsed == nil {
		t.Fatal("Expected parsed publish date")
	}
	expected := time.Date(2023, 7, 3, 10, 0, 0, 0, time.UTC)
	if !first.PublishedParsed.Equal(expected) {
		t.Errorf("Expected publish date %v, got: %v", expected, *first.PublishedParsed)
	}

	second := doc.Entries[1]
	if second.ID != "" {
		t.Errorf("Expected empty ID for entry without guid, got: %s", second.ID)
	}
	if second.Link != "https://example.com/item2" {
		t.Errorf("Expected link 'https://example.com/item2', got: %s", second.Link)
	}
}

func TestParseAtom(t *testing.T) {
	atomData := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Test Atom Feed</title>
  <link href="https://example.com"/>
  <updated>2023-07-03T12:00:00Z</updated>
  <id>urn:uuid:1234567890</id>
  <entry>
    <title>Test Entry</title>
    <link href="https://example.com/entry1"/>
    <id>urn:uuid:entry-1</id>
    <updated>2023-07-03T10:00:00Z</updated>
  </entry>
</feed>`

	parser := NewParser()
	doc, err := parser.Run([]byte(atomData))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if doc.Title != "Test Atom Feed" {
		t.Errorf("Expected title 'Test Atom Feed', got: %s", doc.Title)
	}
	if len(doc.Entries) != 1 {
		t.Fatalf("Expected 1 entry, got: %d", len(doc.Entries))
	}

	entry := doc.Entries[0]
	if entry.ID != "urn:uuid:entry-1" {
		t.Errorf("Expected ID 'urn:uuid:entry-1', got: %s", entry.ID)
	}
	if entry.UpdatedParsed == nil {
		t.Fatal("Expected parsed updated date")
	}
}

func TestParseInvalidData(t *testing.T) {
	parser := NewParser()
	_, err := parser.Run([]byte("<html><body>not a feed</body></html>"))
	if err == nil {
		t.Fatal("Expected error for non-feed data")
	}

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("Expected *ParseError, got: %T", err)
	}
}
