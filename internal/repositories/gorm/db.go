package repositories_gorm

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"gitlab.com/lfmsh/bank/internal/logger"
	"gitlab.com/lfmsh/bank/models"
)

var zlog *logger.Logger

func init() {
	zlog = logger.New("repositories_gorm")
}

// Open connects to the SQLite database at path, creating its directory, and
// migrates the ledger schema. ":memory:" gives a private in-memory database.
func Open(path string) (*gorm.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("unable to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows one writer; an in-memory database also lives in a single connection.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.Use(otelgorm.NewPlugin()); err != nil {
		return nil, fmt.Errorf("unable to register tracing plugin: %w", err)
	}

	if err := db.AutoMigrate(models.Entities()...); err != nil {
		return nil, fmt.Errorf("unable to migrate database: %w", err)
	}

	zlog.Sugar().Debugf("database ready at %s", path)
	return db, nil
}

// Close releases the connection pool behind db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
