package state

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

var _ Backend = (*JSONStore)(nil)

// JSONStore keeps the durable record in a single JSON file that is replaced
// atomically on every save.
type JSONStore struct {
	path string
	now  func() time.Time
}

// NewJSONStore creates a store for the file at path. The file and its
// directory are created on the first save.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path, now: time.Now}
}

// Load returns an empty state when the file does not exist. A file that
// cannot be decoded is moved aside and also yields an empty state.
func (s *JSONStore) Load(ctx context.Context) (*State, error) {
	data, found, err := s.read()
	if err != nil {
		return nil, err
	}
	if !found {
		slog.Debug("State file not found, starting fresh", "path", s.path)
		return New(), nil
	}

	state, err := Unmarshal(data)
	if err != nil {
		backup := fmt.Sprintf("%s.corrupt-%d", s.path, s.now().Unix())
		slog.Warn("State file is malformed, starting fresh", "path", s.path, "backup", backup, "error", err)
		if renameErr := os.Rename(s.path, backup); renameErr != nil {
			slog.Warn("Failed to move malformed state file aside", "path", s.path, "error", renameErr)
		}
		return New(), nil
	}

	return state, nil
}

// Peek reads the state file without moving a malformed file aside; a
// malformed file is returned as an error instead.
func (s *JSONStore) Peek(ctx context.Context) (*State, error) {
	data, found, err := s.read()
	if err != nil {
		return nil, err
	}
	if !found {
		return New(), nil
	}

	state, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("state file %s is malformed: %w", s.path, err)
	}
	return state, nil
}

func (s *JSONStore) read() ([]byte, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read state file: %w", err)
	}
	return data, true, nil
}

// Save writes a temporary file next to the target and renames it over the
// previous record.
func (s *JSONStore) Save(ctx context.Context, state *State) error {
	data, err := Marshal(state)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary state file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temporary state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temporary state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary state file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("failed to set state file permissions: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	slog.Debug("State saved", "path", s.path, "feeds", len(state.Feeds))
	return nil
}
