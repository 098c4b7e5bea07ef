package db

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/larkvine/docrag/internal/config"
)

// DefaultEmbeddingDim is the vector column width used when the
// retrieval config leaves embedding_dim unset.
const DefaultEmbeddingDim = 1536

//go:embed migrations/*.sql
var migrationsFS embed.FS

func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn := cfg.DSN
	if dsn == "" {
		sslmode := cfg.SSLMode
		if sslmode == "" {
			sslmode = "disable"
		}
		dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslmode)
	}
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		return nil, err
	}
	return conn, nil
}

// ApplyMigrations runs every embedded migration file that is not yet
// recorded in schema_migrations, in filename order. The vector column
// width is rendered from dim, so the schema always matches the
// configured embedding dimensionality.
func ApplyMigrations(conn *sql.DB, dim int) error {
	if dim <= 0 {
		dim = DefaultEmbeddingDim
	}
	if _, err := conn.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at BIGINT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create migration ledger: %w", err)
	}
	files, err := migrationFiles()
	if err != nil {
		return err
	}
	for _, file := range files {
		applied, err := migrationApplied(conn, file)
		if err != nil {
			return err
		}
		if applied {
			continue
		}
		content, err := fs.ReadFile(migrationsFS, "migrations/"+file)
		if err != nil {
			return err
		}
		if err := applyMigration(conn, file, renderMigration(string(content), dim)); err != nil {
			return err
		}
	}
	return nil
}

func migrationFiles() ([]string, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func migrationApplied(conn *sql.DB, file string) (bool, error) {
	var n int
	err := conn.QueryRow(`SELECT COUNT(1) FROM schema_migrations WHERE filename = $1`, file).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query migration ledger: %w", err)
	}
	return n > 0, nil
}

// applyMigration executes statements one by one rather than in a
// transaction: an "already exists" error would abort a postgres
// transaction, and tolerating it is what lets schemas created before
// the ledger existed converge.
func applyMigration(conn *sql.DB, file string, content string) error {
	for _, stmt := range strings.Split(content, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := conn.Exec(stmt); err != nil {
			if strings.Contains(err.Error(), "already exists") {
				continue
			}
			return fmt.Errorf("execute statement in %s: %w", file, err)
		}
	}
	if _, err := conn.Exec(`INSERT INTO schema_migrations (filename, applied_at) VALUES ($1, $2)`,
		file, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("record migration %s: %w", file, err)
	}
	return nil
}

// renderMigration substitutes the vector column width placeholder.
func renderMigration(content string, dim int) string {
	return strings.ReplaceAll(content, "{{dim}}", strconv.Itoa(dim))
}
