package testutil

import (
	"database/sql"
	"os"
	"testing"

	"github.com/larkvine/docrag/internal/config"
	"github.com/larkvine/docrag/internal/db"
)

// OpenTestDB connects to the postgres instance named by TEST_DB_HOST
// and applies migrations. Tests that need a real database skip when
// the variable is unset.
func OpenTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping postgres test")
	}
	conn, err := db.Open(config.DatabaseConfig{
		Host:     host,
		Port:     5432,
		User:     "docrag",
		Password: "docrag_pass",
		DBName:   "docrag_test",
		SSLMode:  "disable",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(conn, 0); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	return conn, func() {
		_ = conn.Close()
	}
}
