package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalFormat(t *testing.T) {
	lastRun := time.Date(2024, 3, 1, 12, 30, 45, 987654321, time.FixedZone("CET", 3600))
	s := &State{
		LastRun: &lastRun,
		Feeds: map[string]FeedRecord{
			"https://b.example.com/feed": {SeenIDs: []string{"b1"}},
			"https://a.example.com/feed": {},
		},
	}

	data, err := Marshal(s)
	require.NoError(t, err)

	expected := `{
  "feeds": {
    "https://a.example.com/feed": {
      "seen_uids": []
    },
    "https://b.example.com/feed": {
      "seen_uids": [
        "b1"
      ]
    }
  },
  "last_run_utc": "2024-03-01T11:30:45Z"
}
`
	assert.Equal(t, expected, string(data))
}

func TestMarshalNullLastRun(t *testing.T) {
	data, err := Marshal(New())
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"feeds\": {},\n  \"last_run_utc\": null\n}\n", string(data))
}

func TestUnmarshalTolerance(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantLastRun *time.Time
		wantFeeds   map[string][]string
	}{
		{
			name:      "empty object",
			input:     `{}`,
			wantFeeds: map[string][]string{},
		},
		{
			name:        "offset timestamp",
			input:       `{"last_run_utc": "2024-03-01T12:00:00+01:00", "feeds": {}}`,
			wantLastRun: ptr(time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC)),
			wantFeeds:   map[string][]string{},
		},
		{
			name:      "malformed timestamp",
			input:     `{"last_run_utc": "yesterday", "feeds": {"u": {"seen_uids": ["a"]}}}`,
			wantFeeds: map[string][]string{"u": {"a"}},
		},
		{
			name:      "null feed and missing seen_uids",
			input:     `{"feeds": {"u1": null, "u2": {}}}`,
			wantFeeds: map[string][]string{"u1": nil, "u2": nil},
		},
		{
			name:        "naive timestamp",
			input:       `{"last_run_utc": "2024-03-01T12:00:00"}`,
			wantLastRun: ptr(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)),
			wantFeeds:   map[string][]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Unmarshal([]byte(tt.input))
			require.NoError(t, err)

			if tt.wantLastRun == nil {
				assert.Nil(t, s.LastRun)
			} else {
				require.NotNil(t, s.LastRun)
				assert.True(t, tt.wantLastRun.Equal(*s.LastRun), "got %v", *s.LastRun)
			}

			require.Len(t, s.Feeds, len(tt.wantFeeds))
			for feedURL, ids := range tt.wantFeeds {
				assert.Equal(t, ids, s.Feeds[feedURL].SeenIDs)
			}
		})
	}
}

func TestUnmarshalRejectsBrokenJSON(t *testing.T) {
	_, err := Unmarshal([]byte(`{"feeds": [`))
	assert.Error(t, err)
}

func TestCloneIsIndependent(t *testing.T) {
	lastRun := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	original := &State{
		LastRun: &lastRun,
		Feeds:   map[string]FeedRecord{"u": {SeenIDs: []string{"a"}}},
	}

	clone := original.Clone()
	advanced := lastRun.Add(time.Hour)
	clone.LastRun = &advanced
	clone.Feeds["v"] = FeedRecord{SeenIDs: []string{"b"}}

	assert.True(t, original.LastRun.Equal(lastRun))
	assert.NotContains(t, original.Feeds, "v")
}

func ptr[T any](v T) *T {
	return &v
}
