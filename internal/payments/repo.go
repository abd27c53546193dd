package payments

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

// NewRepository builds a payments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.Transaction) (*models.Transaction, error) {
	if txn.ID == "" {
		txn.ID = models.NewTransactionID()
	}
	if txn.Status == "" {
		txn.Status = enums.TransactionStatusPending
	}
	if err := r.db.WithContext(ctx).Create(txn).Error; err != nil {
		return nil, err
	}
	return txn, nil
}

func (r *repository) FindTransactionByID(ctx context.Context, id string) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) FindTransactionByCheckoutRequestID(ctx context.Context, token string) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).
		Where("checkout_request_id = ?", token).
		First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) SetCheckoutRequestID(ctx context.Context, id string, token string) error {
	return r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ?", id).
		Update("checkout_request_id", token).Error
}

// SettleFromPending is the serialization point for concurrent callback
// deliveries: the status predicate in the WHERE clause means at most one
// caller ever sees a row transition out of pending.
func (r *repository) SettleFromPending(ctx context.Context, id string, updates map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, enums.TransactionStatusPending).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) MarkFailedFromPending(ctx context.Context, id string, description string) error {
	now := time.Now().UTC()
	_, err := r.SettleFromPending(ctx, id, map[string]any{
		"status":       enums.TransactionStatusFailed,
		"description":  description,
		"completed_at": now,
	})
	return err
}

func (r *repository) ExpirePending(ctx context.Context, cutoff time.Time, description string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("status = ? AND created_at < ?", enums.TransactionStatusPending, cutoff).
		Updates(map[string]any{
			"status":      enums.TransactionStatusUnknown,
			"description": description,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) CreateTicket(ctx context.Context, ticket *models.Ticket) (*models.Ticket, error) {
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	if ticket.TicketCode == "" {
		ticket.TicketCode = models.NewTicketCode()
	}
	if err := r.db.WithContext(ctx).Create(ticket).Error; err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *repository) FindTier(ctx context.Context, tierID uuid.UUID) (*models.TicketCategory, error) {
	var tier models.TicketCategory
	err := r.db.WithContext(ctx).
		Where("id = ?", tierID).
		First(&tier).Error
	if err != nil {
		return nil, err
	}
	return &tier, nil
}

func (r *repository) FindEvent(ctx context.Context, eventID uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).
		Where("id = ?", eventID).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}
