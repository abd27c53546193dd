package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dopeevents/dopeevents-backend/pkg/db/models"
	"github.com/dopeevents/dopeevents-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an analytics repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateVisit(ctx context.Context, visit *models.Visit) error {
	if visit.ID == uuid.Nil {
		visit.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(visit).Error
}

func (r *repository) DailyVisitCounts(ctx context.Context, since time.Time) ([]DailyCount, error) {
	var counts []DailyCount
	err := r.db.WithContext(ctx).
		Model(&models.Visit{}).
		Select("DATE(created_at) AS day, COUNT(*) AS visits").
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Order("day ASC").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *repository) TopPages(ctx context.Context, since time.Time, limit int) ([]PageCount, error) {
	var counts []PageCount
	err := r.db.WithContext(ctx).
		Model(&models.Visit{}).
		Select("path, COUNT(*) AS visits").
		Where("created_at >= ?", since).
		Group("path").
		Order("visits DESC").
		Limit(limit).
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *repository) VisitTypeBreakdown(ctx context.Context, since time.Time) ([]TypeCount, error) {
	var counts []TypeCount
	err := r.db.WithContext(ctx).
		Model(&models.Visit{}).
		Select("type, COUNT(*) AS visits").
		Where("created_at >= ?", since).
		Group("type").
		Order("visits DESC").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *repository) EventRevenue(ctx context.Context, eventID uuid.UUID) (*EventRevenue, error) {
	var txnAgg struct {
		Revenue decimal.Decimal
		Settled int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("COALESCE(SUM(COALESCE(settled_amount, amount)), 0) AS revenue, COUNT(*) AS settled").
		Where("event_id = ? AND status = ?", eventID, enums.TransactionStatusSuccess).
		Scan(&txnAgg).Error
	if err != nil {
		return nil, err
	}

	var ticketAgg struct {
		Sold   int64
		Issued int64
	}
	err = r.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Select("COALESCE(SUM(quantity), 0) AS sold, COUNT(*) AS issued").
		Where("event_id = ? AND status IN ?", eventID, []enums.TicketStatus{
			enums.TicketStatusConfirmed, enums.TicketStatusUsed,
		}).
		Scan(&ticketAgg).Error
	if err != nil {
		return nil, err
	}

	return &EventRevenue{
		Revenue:       txnAgg.Revenue,
		Settled:       txnAgg.Settled,
		TicketsSold:   ticketAgg.Sold,
		TicketsIssued: ticketAgg.Issued,
	}, nil
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
