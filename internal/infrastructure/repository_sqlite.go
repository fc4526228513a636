package infrastructure

import (
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wlfogle/mediafetch/internal/domain"
)

// SQLiteHistoryRepository implements HistoryRepository using SQLite.
type SQLiteHistoryRepository struct {
	db *gorm.DB
}

// NewSQLiteHistoryRepository opens (or creates) the history database.
func NewSQLiteHistoryRepository(dbPath string) (*SQLiteHistoryRepository, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if err := db.AutoMigrate(&domain.AcquisitionRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}

	return &SQLiteHistoryRepository{db: db}, nil
}

// Create stores a completed acquisition record
func (r *SQLiteHistoryRepository) Create(record *domain.AcquisitionRecord) error {
	return r.db.Create(record).Error
}

// FindByID retrieves a record by ID
func (r *SQLiteHistoryRepository) FindByID(id string) (*domain.AcquisitionRecord, error) {
	var record domain.AcquisitionRecord
	err := r.db.First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByOutcome retrieves records with the given terminal outcome
func (r *SQLiteHistoryRepository) FindByOutcome(outcome domain.ItemOutcome) ([]*domain.AcquisitionRecord, error) {
	var records []*domain.AcquisitionRecord
	err := r.db.Where("outcome = ?", outcome).Order("created_at DESC").Find(&records).Error
	return records, err
}

// Recent retrieves the most recent records, newest first
func (r *SQLiteHistoryRepository) Recent(limit int) ([]*domain.AcquisitionRecord, error) {
	var records []*domain.AcquisitionRecord
	err := r.db.Order("created_at DESC").Limit(limit).Find(&records).Error
	return records, err
}

// GetStats returns aggregate history statistics
func (r *SQLiteHistoryRepository) GetStats() (*domain.HistoryStats, error) {
	stats := &domain.HistoryStats{}

	if err := r.db.Model(&domain.AcquisitionRecord{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&domain.AcquisitionRecord{}).
		Where("outcome = ?", domain.OutcomeSucceeded).Count(&stats.Succeeded).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&domain.AcquisitionRecord{}).
		Where("outcome = ?", domain.OutcomeExhausted).Count(&stats.Exhausted).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&domain.AcquisitionRecord{}).
		Where("discovery_used = ?", true).Count(&stats.DiscoveryUsed).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

// Close closes the underlying database connection.
func (r *SQLiteHistoryRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
