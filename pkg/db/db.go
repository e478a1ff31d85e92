// Database connection setup
package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// sqlitePragmas are applied to every pooled connection through the DSN.
const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

// Open connects to the configured database. For sqlite, target is a file
// path; for postgres it is a DSN.
func Open(driver, target string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	}

	switch strings.ToLower(driver) {
	case "", DriverSQLite:
		return openSQLite(target, cfg)
	case DriverPostgres:
		gdb, err := gorm.Open(postgres.Open(target), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return gdb, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func openSQLite(path string, cfg *gorm.Config) (*gorm.DB, error) {
	if path == "" {
		return nil, errors.New("sqlite path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create database dir %s: %w", dir, err)
		}
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	gdb, err := gorm.Open(sqlite.Open(path+sep+sqlitePragmas), cfg)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	// One writer at a time; readers share the pool under WAL.
	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	return gdb, nil
}

// Close releases the underlying connection pool.
func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AllModels lists every table owned by the application, in dependency order.
func AllModels() []any {
	return []any{
		&User{},
		&Project{},
		&Conversation{},
		&Message{},
		&Artifact{},
		&Folder{},
		&FolderItem{},
		&SharedConversation{},
	}
}

// Migrate creates or updates all tables.
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(AllModels()...)
}
