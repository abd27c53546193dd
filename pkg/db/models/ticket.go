package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dopeevents/dopeevents-backend/pkg/enums"
)

// Ticket is materialized exactly once per successful transaction and carries a
// denormalized copy of the price and quantity at settlement time.
type Ticket struct {
	ID                    uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	EventID               uuid.UUID          `gorm:"column:event_id;type:uuid;not null;index"`
	TicketCategoryID      uuid.UUID          `gorm:"column:ticket_category_id;type:uuid;not null;index"`
	TransactionID         *string            `gorm:"column:transaction_id;uniqueIndex"`
	BuyerName             string             `gorm:"column:buyer_name;not null"`
	BuyerEmail            string             `gorm:"column:buyer_email;not null"`
	BuyerPhone            string             `gorm:"column:buyer_phone"`
	Quantity              int                `gorm:"column:quantity;not null;default:1"`
	UnitPrice             decimal.Decimal    `gorm:"column:unit_price;type:numeric(10,2);not null"`
	TotalAmount           decimal.Decimal    `gorm:"column:total_amount;type:numeric(10,2);not null"`
	TicketCode            string             `gorm:"column:ticket_code;not null;unique"`
	TransactionCode       string             `gorm:"column:transaction_code"`
	StripePaymentIntentID *string            `gorm:"column:stripe_payment_intent_id"`
	Status                enums.TicketStatus `gorm:"column:status;not null;default:'pending'"`
	PurchasedAt           time.Time          `gorm:"column:purchased_at;autoCreateTime"`
	UsedAt                *time.Time         `gorm:"column:used_at"`
	CancelledAt           *time.Time         `gorm:"column:cancelled_at"`
}

// NewTicketCode returns a short human-readable ticket code.
func NewTicketCode() string {
	return strings.ToUpper(uuid.NewString()[:8])
}
