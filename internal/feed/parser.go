package feed

import (
	"bytes"
	"fmt"

	"github.com/mmcdole/gofeed"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

// NewParser creates a parser for RSS, Atom and JSON Feed documents.
func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses a feed body into a Document, keeping entries in document order.
// Failures are returned as *ParseError.
func (p *Parser) Run(data []byte) (*Document, error) {
	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	doc := &Document{
		Title:   parsed.Title,
		Entries: make([]RawEntry, 0, len(parsed.Items)),
	}

	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		doc.Entries = append(doc.Entries, RawEntry{
			ID:              item.GUID,
			Link:            item.Link,
			Title:           item.Title,
			Published:       item.Published,
			PublishedParsed: item.PublishedParsed,
			Updated:         item.Updated,
			UpdatedParsed:   item.UpdatedParsed,
		})
	}

	return doc, nil
}

// ParseError reports a response body that is not a readable feed.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse feed: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
