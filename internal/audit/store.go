// Package audit keeps an append-only record of tool invocations.
package audit

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Entry is one recorded invocation.
type Entry struct {
	ID         string `gorm:"primaryKey"`
	Tool       string `gorm:"index"`
	Detail     string
	Outcome    string
	DurationMs int64
	CreatedAt  time.Time
}

// TableName keeps the table singular and explicit.
func (Entry) TableName() string { return "audit_entries" }

// Store persists entries to sqlite or postgres.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Options selects the backing database.
type Options struct {
	// Driver is "sqlite" (default) or "postgres".
	Driver string

	// SQLitePath is the database file for the sqlite driver.
	SQLitePath string

	// PostgresDSN is the connection string for the postgres driver.
	PostgresDSN string
}

// Open connects to the configured database and migrates the schema.
func Open(opts Options, logger *slog.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch opts.Driver {
	case "", "sqlite":
		path := opts.SQLitePath
		if path == "" {
			path = "hostbox-audit.db"
		}
		dialector = sqlite.Open(path)
	case "postgres":
		if opts.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres driver requires a DSN")
		}
		dialector = postgres.Open(opts.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown audit driver: %s", opts.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening audit store: %w", err)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrating audit schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Record appends one entry. Storage failures are logged, never returned;
// auditing must not break the tool path.
func (s *Store) Record(tool, detail, outcome string, duration time.Duration) {
	if s == nil {
		return
	}
	entry := Entry{
		ID:         uuid.NewString(),
		Tool:       tool,
		Detail:     detail,
		Outcome:    outcome,
		DurationMs: duration.Milliseconds(),
		CreatedAt:  time.Now(),
	}
	if err := s.db.Create(&entry).Error; err != nil {
		s.logger.Warn("audit record failed", "tool", tool, "error", err)
	}
}

// Recent returns the latest entries, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []Entry
	err := s.db.Order("created_at desc").Limit(limit).Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("listing audit entries: %w", err)
	}
	return entries, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
