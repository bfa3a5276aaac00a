package database

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func openPostgres(cfg Config) (*gorm.DB, error) {
	dsn, err := postgresDSN(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}

// postgresDSN assembles a keyword/value DSN. Options from configuration win
// over the defaults and are emitted in sorted order so the DSN is stable.
func postgresDSN(cfg Config) (string, error) {
	if dsn := strings.TrimSpace(cfg.DSN); dsn != "" {
		return dsn, nil
	}
	if cfg.User == "" || cfg.Name == "" {
		return "", errors.New("postgres: user and database name are required")
	}

	kv := map[string]string{
		"host":    "localhost",
		"port":    "5432",
		"sslmode": "disable",
	}
	if cfg.Host != "" {
		kv["host"] = cfg.Host
	}
	if cfg.Port != 0 {
		kv["port"] = fmt.Sprintf("%d", cfg.Port)
	}
	kv["user"] = cfg.User
	kv["dbname"] = cfg.Name
	if cfg.Password != "" {
		kv["password"] = cfg.Password
	}
	for key, value := range cfg.Options {
		kv[key] = value
	}

	keys := make([]string, 0, len(kv))
	for key := range kv {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+"="+kv[key])
	}
	return strings.Join(parts, " "), nil
}
