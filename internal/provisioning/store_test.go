package provisioning

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nerrad567/gray-logic-edge/internal/infrastructure/config"
)

var devCreds = Credentials{
	EndpointName: "urn:dev:edge-001",
	Username:     "edge-001",
	Password:     "dev-secret",
}

// newTestStore returns an un-initialised store in a temp dir.
func newTestStore(t *testing.T, opts Options) *Store {
	t.Helper()
	dir := t.TempDir()
	if opts.Database.Path == "" {
		opts.Database = config.DatabaseConfig{Path: filepath.Join(dir, "edge.db"), BusyTimeout: 5}
	}
	if opts.FirmwareDir == "" {
		opts.FirmwareDir = filepath.Join(dir, "firmware")
	}
	s := New(opts)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck // Test cleanup
	return s
}

// ===== Init =====

func TestInit_SeedsCredentials(t *testing.T) {
	s := newTestStore(t, Options{Seed: devCreds})
	ctx := context.Background()

	if err := s.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	got, err := s.Credentials(ctx)
	if err != nil {
		t.Fatalf("Credentials() error = %v", err)
	}
	if got.EndpointName != devCreds.EndpointName || got.Username != devCreds.Username || got.Password != devCreds.Password {
		t.Errorf("Credentials() = %+v, want %+v", got, devCreds)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestInit_NoSeed(t *testing.T) {
	s := newTestStore(t, Options{})
	ctx := context.Background()

	if err := s.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if _, err := s.Credentials(ctx); !errors.Is(err, ErrNotProvisioned) {
		t.Errorf("Credentials() error = %v, want ErrNotProvisioned", err)
	}
}

func TestInit_SeedDoesNotOverwrite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "edge.db")
	ctx := context.Background()

	first := New(Options{Database: config.DatabaseConfig{Path: dbPath}})
	if err := first.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	stored := Credentials{EndpointName: "urn:dev:provisioned", Username: "real"}
	if err := first.Save(ctx, stored); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	first.Close() //nolint:errcheck // reopened below

	second := newTestStore(t, Options{
		Database: config.DatabaseConfig{Path: dbPath},
		Seed:     devCreds,
	})
	if err := second.Init(ctx); err != nil {
		t.Fatalf("second Init() error = %v", err)
	}

	got, err := second.Credentials(ctx)
	if err != nil {
		t.Fatalf("Credentials() error = %v", err)
	}
	if got.EndpointName != stored.EndpointName {
		t.Errorf("EndpointName = %q, want %q", got.EndpointName, stored.EndpointName)
	}
}

func TestInit_Idempotent(t *testing.T) {
	s := newTestStore(t, Options{Seed: devCreds})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := s.Init(ctx); err != nil {
			t.Fatalf("Init() #%d error = %v", i+1, err)
		}
	}
}

func TestInit_CorruptStorage(t *testing.T) {
	tests := []struct {
		name     string
		reformat bool
		wantErr  error
	}{
		{name: "reformat recovers", reformat: true},
		{name: "no reformat fails", reformat: false, wantErr: ErrUnreadable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbPath := filepath.Join(t.TempDir(), "edge.db")
			garbage := make([]byte, 8192)
			for i := range garbage {
				garbage[i] = byte(i*31 + 7)
			}
			if err := os.WriteFile(dbPath, garbage, 0o600); err != nil {
				t.Fatalf("writing garbage: %v", err)
			}

			s := newTestStore(t, Options{
				Database:          config.DatabaseConfig{Path: dbPath},
				Seed:              devCreds,
				ReformatOnFailure: tt.reformat,
			})

			err := s.Init(context.Background())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Init() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Init() error = %v", err)
			}
			if _, err := s.Credentials(context.Background()); err != nil {
				t.Errorf("Credentials() after reformat error = %v", err)
			}
		})
	}
}

// ===== Save / Wipe =====

func TestSave_Replaces(t *testing.T) {
	s := newTestStore(t, Options{Seed: devCreds})
	ctx := context.Background()
	if err := s.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	next := Credentials{EndpointName: "urn:dev:edge-002", ServerURI: "tcp://dm.example:1883"}
	if err := s.Save(ctx, next); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Credentials(ctx)
	if err != nil {
		t.Fatalf("Credentials() error = %v", err)
	}
	if got.EndpointName != next.EndpointName || got.ServerURI != next.ServerURI {
		t.Errorf("Credentials() = %+v, want %+v", got, next)
	}

	if err := s.Save(ctx, Credentials{}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Save(empty) error = %v, want ErrInvalidCredentials", err)
	}
}

func TestWipe(t *testing.T) {
	s := newTestStore(t, Options{Seed: devCreds})
	ctx := context.Background()
	if err := s.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	image := filepath.Join(s.opts.FirmwareDir, "edge-1.2.0.bin")
	if err := os.MkdirAll(s.opts.FirmwareDir, 0o700); err != nil {
		t.Fatalf("creating firmware dir: %v", err)
	}
	if err := os.WriteFile(image, []byte("fw"), 0o600); err != nil {
		t.Fatalf("writing firmware image: %v", err)
	}
	if _, err := s.DB().ExecContext(ctx,
		`INSERT INTO audit_logs (id, action, source, created_at) VALUES ('aud-1', 'blink', 'server', '2026-03-01T00:00:00Z')`,
	); err != nil {
		t.Fatalf("inserting audit row: %v", err)
	}

	if err := s.Wipe(ctx); err != nil {
		t.Fatalf("Wipe() error = %v", err)
	}

	if _, err := s.Credentials(ctx); !errors.Is(err, ErrNotProvisioned) {
		t.Errorf("Credentials() after Wipe error = %v, want ErrNotProvisioned", err)
	}
	if _, err := os.Stat(s.opts.FirmwareDir); !os.IsNotExist(err) {
		t.Errorf("firmware dir still present: %v", err)
	}
	var n int
	if err := s.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_logs").Scan(&n); err != nil {
		t.Fatalf("counting audit rows: %v", err)
	}
	if n != 0 {
		t.Errorf("audit rows after Wipe = %d, want 0", n)
	}
}

func TestNotOpen(t *testing.T) {
	s := newTestStore(t, Options{})
	ctx := context.Background()

	if _, err := s.Credentials(ctx); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Credentials() error = %v, want ErrNotOpen", err)
	}
	if err := s.Save(ctx, devCreds); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Save() error = %v, want ErrNotOpen", err)
	}
	if err := s.Wipe(ctx); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Wipe() error = %v, want ErrNotOpen", err)
	}
	if s.DB() != nil {
		t.Error("DB() on unopened store should be nil")
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on unopened store error = %v", err)
	}
}
