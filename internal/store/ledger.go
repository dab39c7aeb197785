package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"trade-ledger-backend/internal/model"
)

// gormLedger applies ledger writes inside an open file transaction.
type gormLedger struct {
	tx *gorm.DB
}

// write runs fn in a nested transaction, which gorm maps to a savepoint.
func (l *gormLedger) write(fn func(tx *gorm.DB) error) error {
	return l.tx.Transaction(fn)
}

// openScope restricts a query to purchases that are neither sold nor delivered.
func openScope(db *gorm.DB) *gorm.DB {
	return db.Where("delivered = ? AND sold = ?", false, false)
}

func (l *gormLedger) InsertPurchase(p *model.Purchase) error {
	return l.write(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return fmt.Errorf("failed to insert purchase of %d %s: %w", p.Count, p.Item, err)
		}
		return nil
	})
}

func (l *gormLedger) MarkSold(item string, count int, t Transition) (int64, error) {
	return l.transitionOldest(item, count, map[string]any{
		"sold":      true,
		"sold_at":   t.Station,
		"sold_time": t.At,
	})
}

func (l *gormLedger) MarkDelivered(item string, count int, t Transition) (int64, error) {
	return l.transitionOldest(item, count, map[string]any{
		"delivered":      true,
		"delivered_to":   t.Station,
		"delivered_time": t.At,
	})
}

// transitionOldest moves the oldest open purchase with exactly this item and
// count out of the Open state. At most one row changes.
func (l *gormLedger) transitionOldest(item string, count int, updates map[string]any) (int64, error) {
	var affected int64
	err := l.write(func(tx *gorm.DB) error {
		var candidate model.Purchase
		err := tx.Model(&model.Purchase{}).Scopes(openScope).
			Select("id").
			Where("item = ? AND count = ?", item, count).
			Order("bought_time ASC").Order("id ASC").
			Take(&candidate).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to find open purchase of %d %s: %w", count, item, err)
		}

		res := tx.Model(&model.Purchase{}).Scopes(openScope).
			Where("id = ?", candidate.ID).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("failed to update purchase %d: %w", candidate.ID, res.Error)
		}
		affected = res.RowsAffected
		return nil
	})
	return affected, err
}

// MarkAllOpenDelivered delivers every open purchase regardless of item or count.
func (l *gormLedger) MarkAllOpenDelivered(t Transition) (int64, error) {
	var affected int64
	err := l.write(func(tx *gorm.DB) error {
		res := tx.Model(&model.Purchase{}).Scopes(openScope).Updates(map[string]any{
			"delivered":      true,
			"delivered_to":   t.Station,
			"delivered_time": t.At,
		})
		if res.Error != nil {
			return fmt.Errorf("failed to bulk deliver open purchases: %w", res.Error)
		}
		affected = res.RowsAffected
		return nil
	})
	return affected, err
}
