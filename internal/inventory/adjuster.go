package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dopeevents/dopeevents-backend/pkg/enums"
	pkgerrors "github.com/dopeevents/dopeevents-backend/pkg/errors"
)

// Adjuster mutates ticket and merchandise stock counters inside a caller-owned
// transaction. All decrements are conditional, clamped, and never drive a
// counter negative.
type Adjuster interface {
	DeductTier(ctx context.Context, tx *gorm.DB, tierID uuid.UUID, qty int) error
	DeductStock(ctx context.Context, tx *gorm.DB, merchandiseID uuid.UUID, qty int) error
	RestoreStock(ctx context.Context, tx *gorm.DB, merchandiseID uuid.UUID, qty int) error
}

type adjuster struct{}

// NewAdjuster returns the default inventory adjuster.
func NewAdjuster() Adjuster {
	return adjuster{}
}

// DeductTier removes qty tickets from a tier. The WHERE clause is the
// concurrency guard: zero rows affected means insufficient availability.
// Hitting zero marks the tier sold out, and the event sold out once its last
// tier empties.
func (adjuster) DeductTier(ctx context.Context, tx *gorm.DB, tierID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for inventory deduction")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE ticket_categories
		SET available_tickets = available_tickets - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND available_tickets >= ?
	`, qty, tierID, qty)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "deduct tier inventory")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "not enough tickets available")
	}

	var tier struct {
		EventID          uuid.UUID
		AvailableTickets int
	}
	err := tx.WithContext(ctx).
		Table("ticket_categories").
		Select("event_id, available_tickets").
		Where("id = ?", tierID).
		Take(&tier).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload tier")
	}

	if tier.AvailableTickets == 0 {
		if err := tx.WithContext(ctx).Exec(`
			UPDATE ticket_categories SET sold_out = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
		`, true, tierID).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark tier sold out")
		}
	}

	// event counter mirrors the per-tier counters, clamped at zero
	if err := tx.WithContext(ctx).Exec(`
		UPDATE events
		SET available_tickets = CASE WHEN available_tickets >= ? THEN available_tickets - ? ELSE 0 END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, qty, tier.EventID).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deduct event inventory")
	}

	var remaining int64
	err = tx.WithContext(ctx).
		Table("ticket_categories").
		Where("event_id = ? AND available_tickets > 0", tier.EventID).
		Count(&remaining).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count open tiers")
	}
	if remaining == 0 {
		if err := tx.WithContext(ctx).Exec(`
			UPDATE events SET sold_out = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
		`, true, tier.EventID).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark event sold out")
		}
	}

	return nil
}

// DeductStock removes qty units of merchandise, marking the item sold out at
// zero. Same conditional-update guard as ticket tiers.
func (adjuster) DeductStock(ctx context.Context, tx *gorm.DB, merchandiseID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock deduction")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE merchandise
		SET stock_quantity = stock_quantity - ?,
			status = CASE WHEN stock_quantity - ? = 0 THEN ? ELSE status END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock_quantity >= ?
	`, qty, qty, enums.MerchandiseStatusSoldOut, merchandiseID, qty)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "deduct merchandise stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "not enough stock available")
	}
	return nil
}

// RestoreStock returns qty units to merchandise, reactivating a sold-out item.
func (adjuster) RestoreStock(ctx context.Context, tx *gorm.DB, merchandiseID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock restore")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE merchandise
		SET stock_quantity = stock_quantity + ?,
			status = CASE WHEN status = ? THEN ? ELSE status END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, enums.MerchandiseStatusSoldOut, enums.MerchandiseStatusActive, merchandiseID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "restore merchandise stock")
	}
	return nil
}
