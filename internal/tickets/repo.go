package tickets

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dopeevents/dopeevents-backend/pkg/db/models"
	"github.com/dopeevents/dopeevents-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a tickets repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.db.WithContext(ctx).
		Where("ticket_code = ?", code).
		First(&ticket).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *repository) FindByReceipt(ctx context.Context, receipt string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.db.WithContext(ctx).
		Where("transaction_code = ?", receipt).
		First(&ticket).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&ticket).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// MarkUsed flips a confirmed ticket to used. The conditional status filter
// keeps the transition single-shot under concurrent scans.
func (r *repository) MarkUsed(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("id = ? AND status = ?", id, enums.TicketStatusConfirmed).
		Updates(map[string]any{
			"status":  enums.TicketStatusUsed,
			"used_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Cancel moves a pending or confirmed ticket to cancelled.
func (r *repository) Cancel(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("id = ? AND status IN ?", id, []enums.TicketStatus{
			enums.TicketStatusPending, enums.TicketStatusConfirmed,
		}).
		Updates(map[string]any{
			"status":       enums.TicketStatusCancelled,
			"cancelled_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) FindEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *repository) FindTier(ctx context.Context, id uuid.UUID) (*models.TicketCategory, error) {
	var tier models.TicketCategory
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&tier).Error
	if err != nil {
		return nil, err
	}
	return &tier, nil
}
