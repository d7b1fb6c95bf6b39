package database

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestValidateConnString(t *testing.T) {
	tests := []struct {
		name    string
		connStr string
		wantErr error
	}{
		{"url without password", "postgres://user@localhost:5432/sqirvy", nil},
		{"postgresql scheme", "postgresql://localhost/sqirvy?sslmode=disable", nil},
		{"dsn without password", "host=localhost user=me dbname=sqirvy", nil},
		{"url with password", "postgres://user:pw@localhost/sqirvy", ErrEmbeddedCredentials},
		{"dsn with password", "host=localhost password=pw dbname=sqirvy", ErrEmbeddedCredentials},
		{"empty", "   ", ErrInvalidConnectionString},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := ValidateConnString(tt.connStr)
			if tt.wantErr == nil {
				if err != nil || !ok {
					t.Errorf("ValidateConnString() = %v, %v, want true, nil", ok, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateConnString() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnsureSearchPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://localhost/db", "search_path=sqirvy"},
		{"postgres://localhost/db?search_path=custom", "search_path=custom"},
		{"host=localhost dbname=db", "host=localhost dbname=db search_path=sqirvy"},
		{"host=localhost search_path=custom", "host=localhost search_path=custom"},
	}
	for _, tt := range tests {
		got := ensureSearchPath(tt.in, PostgresSchema)
		if !strings.Contains(got, tt.want) {
			t.Errorf("ensureSearchPath(%q) = %q, want it to contain %q", tt.in, got, tt.want)
		}
	}
}

func TestHasSSLMode(t *testing.T) {
	if !hasSSLMode("postgres://localhost/db?sslmode=disable") {
		t.Error("hasSSLMode(url) = false, want true")
	}
	if !hasSSLMode("host=localhost SSLMODE=require") {
		t.Error("hasSSLMode(dsn) = false, want true")
	}
	if hasSSLMode("postgres://localhost/db") {
		t.Error("hasSSLMode() = true, want false")
	}
}

// Requires SQIRVY_TEST_POSTGRES_URL, e.g. postgres://postgres@localhost:5432/sqirvy_test?sslmode=disable
func TestPostgresIntegration(t *testing.T) {
	connStr := os.Getenv("SQIRVY_TEST_POSTGRES_URL")
	if connStr == "" {
		t.Skip("SQIRVY_TEST_POSTGRES_URL not set, skipping PostgreSQL integration test")
	}
	ctx := context.Background()

	db, err := Open(Options{Driver: Postgres, DSN: connStr})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer db.Release()

	if _, err := db.Migrate(ctx, nil); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM meals"); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}

	err = db.RunAtomic(ctx, func(ctx context.Context) error {
		if err := insertDay(ctx, db, "2024-01-15"); err != nil {
			return err
		}
		return insertDay(ctx, db, "2024-01-15")
	})
	if err == nil {
		t.Fatal("duplicate date inside RunAtomic succeeded")
	}
	if got := countRows(t, db, "meals"); got != 0 {
		t.Errorf("meals after rollback = %d, want 0", got)
	}
}
