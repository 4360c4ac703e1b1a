package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/camden-git/rostertagger/models"
)

// sqlite connection parameters applied to every pooled connection
var sqliteParams = []string{
	"_foreign_keys=on",
	"_journal_mode=WAL",
	"_busy_timeout=5000",
}

// ParseLogLevel maps a config string onto a GORM log level, defaulting to Warn.
func ParseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func buildDSN(dataSourceName string) string {
	sep := "?"
	if strings.Contains(dataSourceName, "?") {
		sep = "&"
	}
	var missing []string
	for _, p := range sqliteParams {
		key := p[:strings.Index(p, "=")]
		if !strings.Contains(dataSourceName, key+"=") {
			missing = append(missing, p)
		}
	}
	if len(missing) == 0 {
		return dataSourceName
	}
	return dataSourceName + sep + strings.Join(missing, "&")
}

// InitGormDB initializes and returns a GORM database instance
func InitGormDB(dataSourceName string, level logger.LogLevel) (*gorm.DB, error) {
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(buildDSN(dataSourceName)), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database using GORM: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB from GORM: %w", err)
	}

	sqlDB.SetMaxIdleConns(4)
	sqlDB.SetMaxOpenConns(8)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("GORM Database initialized successfully at", dataSourceName)
	return db, nil
}

// AutoMigrateModels creates or updates the profiles, images and tags tables
func AutoMigrateModels(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Profile{},
		&models.Image{},
		&models.Tag{},
	)
	if err != nil {
		return fmt.Errorf("GORM AutoMigrate failed: %w", err)
	}
	return nil
}

// Open initializes the database and migrates the schema.
func Open(dataSourceName string, level logger.LogLevel) (*gorm.DB, error) {
	db, err := InitGormDB(dataSourceName, level)
	if err != nil {
		return nil, err
	}
	if err := AutoMigrateModels(db); err != nil {
		Close(db)
		return nil, err
	}
	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("database: failed to get sql.DB for close: %v", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Printf("database: close failed: %v", err)
	}
}

// BackupPath names a timestamped copy of the database next to it,
// e.g. data/roster.db -> data/roster_backup_20240102_150405.db.
func BackupPath(dataSourceName string, now time.Time) string {
	ext := filepath.Ext(dataSourceName)
	if ext == "" {
		ext = ".db"
	}
	return strings.TrimSuffix(dataSourceName, filepath.Ext(dataSourceName)) + "_backup_" + now.Format("20060102_150405") + ext
}

// Backup writes a consistent copy of the database to path with VACUUM INTO.
// The target must not exist yet.
func Backup(db *gorm.DB, path string) error {
	if err := db.Exec("VACUUM INTO ?", path).Error; err != nil {
		return fmt.Errorf("failed to back up database to %s: %w", path, err)
	}
	return nil
}
