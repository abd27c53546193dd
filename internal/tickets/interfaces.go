package tickets

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dopeevents/dopeevents-backend/pkg/db/models"
	"github.com/dopeevents/dopeevents-backend/pkg/enums"
)

// Repository is the persistence surface for issued tickets.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindByCode(ctx context.Context, code string) (*models.Ticket, error)
	FindByReceipt(ctx context.Context, receipt string) (*models.Ticket, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error)
	MarkUsed(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	Cancel(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)

	FindEvent(ctx context.Context, id uuid.UUID) (*models.Event, error)
	FindTier(ctx context.Context, id uuid.UUID) (*models.TicketCategory, error)
}

// Service exposes ticket lookups and lifecycle transitions.
type Service interface {
	// Confirmation resolves a ticket code or M-Pesa receipt to the
	// post-payment confirmation payload.
	Confirmation(ctx context.Context, codeOrReceipt string) (*Confirmation, error)
	MarkUsed(ctx context.Context, ticketID uuid.UUID) (*models.Ticket, error)
	Cancel(ctx context.Context, ticketID uuid.UUID) (*models.Ticket, error)
}

// Confirmation is the payload rendered on the post-payment page.
type Confirmation struct {
	TicketID        uuid.UUID          `json:"ticket_id"`
	TicketCode      string             `json:"ticket_code"`
	Status          enums.TicketStatus `json:"status"`
	EventTitle      string             `json:"event_title"`
	EventDate       time.Time          `json:"event_date"`
	EventLocation   string             `json:"event_location"`
	TierName        string             `json:"tier_name"`
	Quantity        int                `json:"quantity"`
	TotalAmount     decimal.Decimal    `json:"total_amount"`
	BuyerName       string             `json:"buyer_name"`
	BuyerEmail      string             `json:"buyer_email"`
	TransactionCode string             `json:"transaction_code,omitempty"`
	PurchasedAt     time.Time          `json:"purchased_at"`
}
