package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openSQLite opens the embedded database. Foreign keys go in the DSN so every
// pooled connection enforces them. File-backed databases also get WAL and a
// busy timeout because the reminder scheduler and the API share the pool. An
// explicit DSN override is used verbatim.
func openSQLite(cfg Config) (*gorm.DB, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		dsn = sqliteDSN(cfg)
		if strings.Contains(dsn, "_journal_mode=WAL") {
			if err := ensureParentDir(cfg.Path); err != nil {
				return nil, err
			}
		}
	}

	return gorm.Open(sqlite.Open(dsn), &gorm.Config{
		// gorm's default logger prints every slow query to stderr; the HTTP
		// request log already covers timing.
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

func sqliteDSN(cfg Config) string {
	path := strings.TrimSpace(cfg.Path)
	if path == "" || strings.EqualFold(path, ":memory:") {
		return "file::memory:?cache=shared&_foreign_keys=1"
	}
	return fmt.Sprintf("file:%s?_foreign_keys=1&_journal_mode=WAL&_busy_timeout=5000", filepath.ToSlash(path))
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(strings.TrimSpace(path))
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create database directory %s: %w", dir, err)
	}
	return nil
}
