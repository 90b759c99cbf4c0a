package state

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

var _ Backend = (*SQLiteStore)(nil)

// SQLiteStore keeps the durable record as a single-row JSON blob. It exists
// for deployments where a database file is easier to back up than a loose
// JSON file; the document format is identical.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database at path and applies pending migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite database: %w", err)
	}

	version, dirty, err := runMigrations(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	slog.Debug("State database ready", "path", path, "schema_version", version, "dirty", dirty)

	return &SQLiteStore{db: db}, nil
}

func runMigrations(db *sql.DB) (uint, bool, error) {
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return 0, false, fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return 0, false, fmt.Errorf("failed to create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return 0, false, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, false, fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}

	return version, dirty, nil
}

// Load returns an empty state when no record has been saved yet or the
// stored document cannot be decoded.
func (s *SQLiteStore) Load(ctx context.Context) (*State, error) {
	document, found, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		slog.Debug("State record not found, starting fresh")
		return New(), nil
	}

	state, err := Unmarshal([]byte(document))
	if err != nil {
		slog.Warn("State record is malformed, starting fresh", "error", err)
		return New(), nil
	}

	return state, nil
}

// Peek is Load without the fallback: a malformed document is an error.
func (s *SQLiteStore) Peek(ctx context.Context) (*State, error) {
	document, found, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		return New(), nil
	}

	state, err := Unmarshal([]byte(document))
	if err != nil {
		return nil, fmt.Errorf("state record is malformed: %w", err)
	}
	return state, nil
}

func (s *SQLiteStore) read(ctx context.Context) (string, bool, error) {
	var document string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM state_record WHERE id = 1`).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read state record: %w", err)
	}
	return document, true, nil
}

// Save replaces the stored document inside a transaction.
func (s *SQLiteStore) Save(ctx context.Context, state *State) error {
	data, err := Marshal(state)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO state_record (id, document, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			document = excluded.document,
			updated_at = excluded.updated_at
	`, string(data), FormatTimestamp(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to write state record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit state record: %w", err)
	}

	slog.Debug("State saved", "feeds", len(state.Feeds))
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
