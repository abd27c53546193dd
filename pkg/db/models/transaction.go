package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dopeevents/dopeevents-backend/pkg/enums"
)

// Transaction is the payment ledger row for a single payment attempt. The
// reconciliation engine is the only writer of Status after creation; rows are
// created pending and move to exactly one terminal status.
type Transaction struct {
	ID               string                  `gorm:"column:id;primaryKey"`
	PhoneNumber      string                  `gorm:"column:phone_number"`
	Amount           decimal.Decimal         `gorm:"column:amount;type:numeric(10,2);not null"`
	SettledAmount    *decimal.Decimal        `gorm:"column:settled_amount;type:numeric(10,2)"`
	EventID          uuid.UUID               `gorm:"column:event_id;type:uuid;not null;index"`
	TicketCategoryID uuid.UUID               `gorm:"column:ticket_category_id;type:uuid;not null;index"`
	BuyerName        string                  `gorm:"column:buyer_name;not null"`
	BuyerEmail       string                  `gorm:"column:buyer_email;not null"`
	BuyerPhone       string                  `gorm:"column:buyer_phone"`
	Quantity         int                     `gorm:"column:quantity;not null;default:1"`
	PaymentMethod    enums.PaymentMethod     `gorm:"column:payment_method;not null;default:'mpesa'"`
	Status           enums.TransactionStatus `gorm:"column:status;not null;default:'pending';index"`
	CheckoutRequestID *string                `gorm:"column:checkout_request_id;uniqueIndex"`
	ReceiptNumber    *string                 `gorm:"column:receipt_number"`
	Description      *string                 `gorm:"column:description"`
	CreatedAt        time.Time               `gorm:"column:created_at;autoCreateTime;index"`
	CompletedAt      *time.Time              `gorm:"column:completed_at"`
}

// NewTransactionID generates the ledger identifier used when the caller does
// not supply one.
func NewTransactionID() string {
	return fmt.Sprintf("txn_%s", strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}
