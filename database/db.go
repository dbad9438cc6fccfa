package database

import (
	"context"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sentix/logging"
	"sentix/models"
)

// Open connects to the journal database and migrates its schema. The default
// DSN is an in-memory database, so nothing outlives the process.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// An in-memory database lives as long as its last connection.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.ScanRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logging.Info("Journal database connected", "dsn", dsn)
	return db, nil
}

// Journal stores one row per load attempt.
type Journal struct {
	db    *gorm.DB
	limit int
}

// NewJournal keeps at most limit rows; zero or less keeps everything.
func NewJournal(db *gorm.DB, limit int) *Journal {
	return &Journal{db: db, limit: limit}
}

// Record inserts rec and trims rows beyond the limit.
func (j *Journal) Record(ctx context.Context, rec models.ScanRecord) error {
	rec.ID = 0
	if err := j.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to save scan record: %w", err)
	}
	if j.limit <= 0 {
		return nil
	}

	var cutoff models.ScanRecord
	err := j.db.WithContext(ctx).
		Order("id DESC").
		Offset(j.limit).
		Limit(1).
		Take(&cutoff).Error
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to find journal cutoff: %w", err)
	}
	if err := j.db.WithContext(ctx).Where("id <= ?", cutoff.ID).Delete(&models.ScanRecord{}).Error; err != nil {
		return fmt.Errorf("failed to trim journal: %w", err)
	}
	return nil
}

// Recent returns up to n records, newest first.
func (j *Journal) Recent(ctx context.Context, n int) ([]models.ScanRecord, error) {
	if n <= 0 {
		n = 50
	}
	var recs []models.ScanRecord
	err := j.db.WithContext(ctx).Order("id DESC").Limit(n).Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}
