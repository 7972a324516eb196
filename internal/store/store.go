package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// PersistentStore keeps archived article metadata in SQL and bodies as
// plain files in blobDir. driver is "sqlite" (modernc) or "pgx" (PostgreSQL).
type PersistentStore struct {
	db      *sqlx.DB
	blobDir string
}

func NewPersistentStore(ctx context.Context, driver, dsn, blobDir string) (*PersistentStore, error) {
	switch driver {
	case "sqlite":
		// Ensure the database directory exists
		if !strings.HasPrefix(dsn, ":memory:") && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		if !strings.Contains(dsn, "?") {
			dsn += "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
		}
	case "pgx":
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}

	// Ensure the blob directory exist
	if err := os.MkdirAll(blobDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", driver, err)
	}

	// Ping makes sure the database is actually reachable and the DSN is valid
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	store := &PersistentStore{db: db, blobDir: blobDir}

	if err := store.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not migrate database: %w", err)
	}

	return store, nil
}

// OpenBody streams the stored body of an archived article.
func (s *PersistentStore) OpenBody(id string) (io.ReadCloser, error) {
	return os.Open(s.bodyPath(id))
}

func (s *PersistentStore) bodyPath(id string) string {
	return filepath.Join(s.blobDir, id+".txt")
}

func (s *PersistentStore) Close() error {
	return s.db.Close()
}
