package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

const timestampLayout = "2006-01-02T15:04:05Z"

type document struct {
	Feeds      map[string]*feedDocument `json:"feeds"`
	LastRunUTC *string                  `json:"last_run_utc"`
}

type feedDocument struct {
	SeenUIDs []string `json:"seen_uids"`
}

// Marshal encodes s as the durable JSON record. Timestamps are truncated to
// whole seconds and written in UTC with a Z suffix.
func Marshal(s *State) ([]byte, error) {
	doc := document{Feeds: make(map[string]*feedDocument, len(s.Feeds))}

	if s.LastRun != nil {
		formatted := FormatTimestamp(*s.LastRun)
		doc.LastRunUTC = &formatted
	}

	for feedURL, record := range s.Feeds {
		seen := record.SeenIDs
		if seen == nil {
			seen = []string{}
		}
		doc.Feeds[feedURL] = &feedDocument{SeenUIDs: seen}
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}

	return buf.Bytes(), nil
}

// Unmarshal decodes a durable record. Structural damage is an error; a bad
// timestamp or missing fields are not.
func Unmarshal(data []byte) (*State, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}

	s := New()

	if doc.LastRunUTC != nil && *doc.LastRunUTC != "" {
		lastRun, err := ParseTimestamp(*doc.LastRunUTC)
		if err != nil {
			slog.Warn("Ignoring malformed last run timestamp", "value", *doc.LastRunUTC, "error", err)
		} else {
			s.LastRun = &lastRun
		}
	}

	for feedURL, feedDoc := range doc.Feeds {
		var seen []string
		if feedDoc != nil && feedDoc.SeenUIDs != nil {
			seen = feedDoc.SeenUIDs
		}
		s.Feeds[feedURL] = FeedRecord{SeenIDs: seen}
	}

	return s, nil
}

// FormatTimestamp renders t in UTC at whole-second precision with a Z suffix.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(timestampLayout)
}

// ParseTimestamp accepts RFC 3339 values with any offset and naive values,
// which are taken as UTC.
func ParseTimestamp(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC(), nil
	}

	t, err := time.Parse("2006-01-02T15:04:05.999999999", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", value)
	}
	return t.UTC(), nil
}
