package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"trade-ledger-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	HasProcessed(ctx context.Context, fileName string) (bool, error)
	ApplyFile(ctx context.Context, fileName string, processedAt time.Time, apply func(Ledger) error) error
	ListPurchases(ctx context.Context, filter PurchaseFilter) ([]model.Purchase, error)
	Summary(ctx context.Context) (LedgerSummary, error)
	DB() *gorm.DB
}

// Ledger is the purchase ledger as seen from inside one file's transaction.
// Each write is isolated in a savepoint: a failed write leaves the rest of
// the file's work intact.
type Ledger interface {
	InsertPurchase(p *model.Purchase) error
	MarkSold(item string, count int, t Transition) (int64, error)
	MarkDelivered(item string, count int, t Transition) (int64, error)
	MarkAllOpenDelivered(t Transition) (int64, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// HasProcessed reports whether fileName has an ingestion record.
func (s *gormStore) HasProcessed(ctx context.Context, fileName string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.ProcessedLog{}).
		Where("file_name = ?", fileName).
		Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to look up processed log %s: %w", fileName, err)
	}
	return n > 0, nil
}

// ApplyFile runs apply and records fileName as processed in one transaction.
// If apply fails or the ingestion record cannot be written (for example
// because another run recorded the file first), nothing is committed.
func (s *gormStore) ApplyFile(ctx context.Context, fileName string, processedAt time.Time, apply func(Ledger) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := apply(&gormLedger{tx: tx}); err != nil {
			return err
		}
		record := model.ProcessedLog{FileName: fileName, ProcessedAt: processedAt}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to record processed log %s: %w", fileName, err)
		}
		return nil
	})
}

// ListPurchases returns purchases ordered by purchase time.
func (s *gormStore) ListPurchases(ctx context.Context, filter PurchaseFilter) ([]model.Purchase, error) {
	q := s.db.WithContext(ctx).Model(&model.Purchase{})
	switch filter.Disposition {
	case DispositionOpen:
		q = q.Where("delivered = ? AND sold = ?", false, false)
	case DispositionSold:
		q = q.Where("sold = ?", true)
	case DispositionDelivered:
		q = q.Where("delivered = ?", true)
	}
	if filter.Item != "" {
		q = q.Where("item = ?", filter.Item)
	}

	var purchases []model.Purchase
	if err := q.Order("bought_time").Order("id").Find(&purchases).Error; err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	return purchases, nil
}

// Summary counts purchases per state and reports the latest ingestion time.
func (s *gormStore) Summary(ctx context.Context) (LedgerSummary, error) {
	var sum LedgerSummary
	db := s.db.WithContext(ctx)

	if err := db.Model(&model.Purchase{}).Where("delivered = ? AND sold = ?", false, false).Count(&sum.Open).Error; err != nil {
		return sum, fmt.Errorf("failed to count open purchases: %w", err)
	}
	if err := db.Model(&model.Purchase{}).Where("sold = ?", true).Count(&sum.Sold).Error; err != nil {
		return sum, fmt.Errorf("failed to count sold purchases: %w", err)
	}
	if err := db.Model(&model.Purchase{}).Where("delivered = ?", true).Count(&sum.Delivered).Error; err != nil {
		return sum, fmt.Errorf("failed to count delivered purchases: %w", err)
	}
	if err := db.Model(&model.ProcessedLog{}).Count(&sum.ProcessedFiles).Error; err != nil {
		return sum, fmt.Errorf("failed to count processed logs: %w", err)
	}

	var latest model.ProcessedLog
	err := db.Order("processed_at DESC").Take(&latest).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		return sum, fmt.Errorf("failed to fetch last processed log: %w", err)
	default:
		sum.LastProcessedAt = &latest.ProcessedAt
	}
	return sum, nil
}
