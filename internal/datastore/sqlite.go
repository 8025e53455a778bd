package datastore

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nareynolds/dicommanager-go/internal/config"
)

// SQLiteStore implements Interface on an SQLite database.
type SQLiteStore struct {
	DataStore
	Settings *config.Settings
}

// New creates the catalogue store for the given settings.
func New(settings *config.Settings) Interface {
	return &SQLiteStore{Settings: settings}
}

// Open connects to the SQLite database, creating it and its schema on
// first use.
func (store *SQLiteStore) Open() error {
	path := store.Settings.Storage.DatabasePath

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating database directory: %w", err)
	}

	logLevel := logger.Silent
	if store.Settings.Debug {
		logLevel = logger.Warn
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to open SQLite database %s: %w", path, err)
	}

	store.DB = db
	return performAutoMigration(db)
}

// Close closes the underlying database connection.
func (store *SQLiteStore) Close() error {
	if store.DB == nil {
		return nil
	}
	sqlDB, err := store.DB.DB()
	if err != nil {
		return fmt.Errorf("error getting database handle: %w", err)
	}
	return sqlDB.Close()
}

func performAutoMigration(db *gorm.DB) error {
	if err := db.AutoMigrate(&Series{}, &ProjectSeries{}, &WantedStudy{}, &SeriesNote{}); err != nil {
		return fmt.Errorf("failed to auto-migrate database schema: %w", err)
	}
	return nil
}
