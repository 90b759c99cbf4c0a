// Package feedlist reads the ordered list of feed URLs a run polls.
package feedlist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrEmpty = errors.New("feed list is empty")

type document struct {
	Feeds []string `yaml:"feeds"`
}

// Load reads a plaintext list (one URL per line, '#' comments) or, for
// .yml/.yaml files, a document with a top-level feeds sequence. Order is
// preserved and duplicates are kept.
func Load(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed list: %w", err)
	}

	var lines []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		var doc document
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse feed list %s: %w", path, err)
		}
		lines = doc.Feeds
	default:
		lines = strings.Split(string(data), "\n")
	}

	urls := clean(lines)
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmpty, path)
	}
	return urls, nil
}

func clean(lines []string) []string {
	var urls []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls
}
