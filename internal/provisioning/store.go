package provisioning

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-edge/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-edge/internal/infrastructure/database"
	_ "github.com/nerrad567/gray-logic-edge/migrations" // registers the schema
)

// Credentials are what the device needs to reach its management server.
type Credentials struct {
	// EndpointName identifies the device to the server.
	EndpointName string

	// Username and Password authenticate against the broker.
	Username string
	Password string

	// ServerURI optionally overrides the configured broker.
	ServerURI string

	CreatedAt time.Time
}

// Logger defines the logging interface used by the store.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Options configures a Store.
type Options struct {
	Database config.DatabaseConfig

	// Seed is written on first boot when the store holds no credentials.
	// A zero Seed writes nothing.
	Seed Credentials

	// FirmwareDir holds downloaded firmware images. Wipe removes it.
	FirmwareDir string

	// ReformatOnFailure recreates the database once if it cannot be opened
	// or fails its integrity check.
	ReformatOnFailure bool

	Logger Logger
}

// Store keeps provisioned credentials in SQLite.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Store struct {
	opts   Options
	logger Logger

	mu sync.Mutex
	db *database.DB
}

// New creates a store. Nothing touches the disk until Init.
func New(opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	return &Store{opts: opts, logger: logger}
}

// Init opens the database, applies migrations and seeds credentials.
//
// If the database cannot be opened or is corrupt and ReformatOnFailure is
// set, the file is removed and recreated once. All provisioned data is
// lost in that case.
//
// Returns:
//   - error: wrapping ErrUnreadable if the storage stays unusable
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}

	db, err := s.open(ctx)
	if err != nil {
		if !s.opts.ReformatOnFailure {
			return fmt.Errorf("%w: %w", ErrUnreadable, err)
		}
		s.logger.Warn("storage unreadable, reformatting", "path", s.opts.Database.Path, "error", err)

		if rmErr := database.Remove(s.opts.Database.Path); rmErr != nil {
			return fmt.Errorf("%w: %w", ErrUnreadable, rmErr)
		}
		if db, err = s.open(ctx); err != nil {
			return fmt.Errorf("%w after reformat: %w", ErrUnreadable, err)
		}
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return fmt.Errorf("migrating provisioning schema: %w", err)
	}
	s.db = db

	return s.seed(ctx)
}

func (s *Store) open(ctx context.Context) (*database.DB, error) {
	db, err := database.Open(ctx, database.Config{
		Path:        s.opts.Database.Path,
		WALMode:     s.opts.Database.WALMode,
		BusyTimeout: s.opts.Database.BusyTimeout,
	})
	if err != nil {
		return nil, err
	}
	if err := db.IntegrityCheck(ctx); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, err
	}
	return db, nil
}

// seed writes the developer credentials if the store is empty. Caller holds mu.
func (s *Store) seed(ctx context.Context) error {
	if s.opts.Seed.EndpointName == "" {
		return nil
	}

	_, err := s.credentials(ctx)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, ErrNotProvisioned):
		return err
	}

	if err := s.save(ctx, s.opts.Seed); err != nil {
		return fmt.Errorf("seeding credentials: %w", err)
	}
	s.logger.Info("developer credentials provisioned", "endpoint", s.opts.Seed.EndpointName)
	return nil
}

// Credentials returns the stored credentials.
//
// Returns:
//   - error: ErrNotProvisioned if none are stored, ErrNotOpen before Init
func (s *Store) Credentials(ctx context.Context) (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credentials(ctx)
}

func (s *Store) credentials(ctx context.Context) (Credentials, error) {
	if s.db == nil {
		return Credentials{}, ErrNotOpen
	}

	var (
		c         Credentials
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT endpoint_name, username, password, server_uri, created_at
		FROM credentials
		ORDER BY created_at DESC
		LIMIT 1
	`).Scan(&c.EndpointName, &c.Username, &c.Password, &c.ServerURI, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Credentials{}, ErrNotProvisioned
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("reading credentials: %w", err)
	}

	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // Format is controlled
	return c, nil
}

// Save replaces the stored credentials.
func (s *Store) Save(ctx context.Context, c Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return ErrNotOpen
	}
	return s.save(ctx, c)
}

func (s *Store) save(ctx context.Context, c Credentials) error {
	if c.EndpointName == "" {
		return ErrInvalidCredentials
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM credentials"); err != nil {
		return fmt.Errorf("clearing credentials: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO credentials (endpoint_name, username, password, server_uri, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, c.EndpointName, c.Username, c.Password, c.ServerURI, c.CreatedAt.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("inserting credentials: %w", err)
	}
	return tx.Commit()
}

// Wipe deletes the credentials, the audit trail and the firmware directory.
// The store stays open; a following Credentials call returns ErrNotProvisioned.
func (s *Store) Wipe(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return ErrNotOpen
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning wipe: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, table := range []string{"credentials", "audit_logs"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil { //nolint:gosec // fixed table names
			return fmt.Errorf("wiping %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing wipe: %w", err)
	}

	if s.opts.FirmwareDir != "" {
		if err := os.RemoveAll(s.opts.FirmwareDir); err != nil {
			return fmt.Errorf("removing firmware images: %w", err)
		}
	}
	return nil
}

// DB returns the open database handle, or nil before Init and after Close.
// The audit trail shares it.
func (s *Store) DB() *sql.DB {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	return s.db.DB
}

// Close closes the database. Safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
