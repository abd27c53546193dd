package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dopeevents/dopeevents-backend/pkg/db/models"
	"github.com/dopeevents/dopeevents-backend/pkg/enums"
	"github.com/dopeevents/dopeevents-backend/pkg/mpesa"
)

// Repository is the persistence surface for the payment ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateTransaction(ctx context.Context, txn *models.Transaction) (*models.Transaction, error)
	FindTransactionByID(ctx context.Context, id string) (*models.Transaction, error)
	FindTransactionByCheckoutRequestID(ctx context.Context, token string) (*models.Transaction, error)
	SetCheckoutRequestID(ctx context.Context, id string, token string) error

	// SettleFromPending applies updates only while the row is still pending
	// and reports whether this caller won the transition.
	SettleFromPending(ctx context.Context, id string, updates map[string]any) (bool, error)
	// MarkFailedFromPending settles an initiation that never reached the
	// provider, preserving the failure description.
	MarkFailedFromPending(ctx context.Context, id string, description string) error
	// ExpirePending moves every pending row older than the cutoff to unknown.
	ExpirePending(ctx context.Context, cutoff time.Time, description string) (int64, error)

	CreateTicket(ctx context.Context, ticket *models.Ticket) (*models.Ticket, error)
	FindTier(ctx context.Context, tierID uuid.UUID) (*models.TicketCategory, error)
	FindEvent(ctx context.Context, eventID uuid.UUID) (*models.Event, error)
}

// PushClient is the outbound STK push surface, satisfied by *mpesa.Client.
type PushClient interface {
	STKPush(ctx context.Context, params mpesa.StkPushParams) (*mpesa.StkPushResponse, error)
}

// TierDeducter decrements ticket inventory inside the settlement transaction.
type TierDeducter interface {
	DeductTier(ctx context.Context, tx *gorm.DB, tierID uuid.UUID, qty int) error
}

// WebhookGuard is the redis fast-path duplicate filter. The DB transition
// remains the authoritative idempotency boundary.
type WebhookGuard interface {
	Acquire(ctx context.Context, token string, resultCode int) (bool, error)
	Release(ctx context.Context, token string, resultCode int) error
}

// Service exposes the payment operations used by controllers and cron.
type Service interface {
	Initiate(ctx context.Context, input InitiateInput) (*InitiateResult, error)
	Reconcile(ctx context.Context, callback mpesa.StkCallback) (ReconcileResult, error)
	Status(ctx context.Context, transactionID string) (*StatusResult, error)
	ExpirePending(ctx context.Context, pendingFor time.Duration) (int64, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// InitiateInput carries one checkout request from the API layer.
type InitiateInput struct {
	EventID          uuid.UUID
	TicketCategoryID uuid.UUID
	PhoneNumber      string
	BuyerName        string
	BuyerEmail       string
	BuyerPhone       string
	Quantity         int
}

// InitiateResult is returned to the buyer after the provider accepts the push.
type InitiateResult struct {
	TransactionID     string          `json:"transaction_id"`
	CheckoutRequestID string          `json:"checkout_request_id"`
	Amount            decimal.Decimal `json:"amount"`
	CustomerMessage   string          `json:"customer_message"`
}

// ReconcileResult describes what a callback delivery actually did.
type ReconcileResult struct {
	TransactionID string
	Outcome       SettlementOutcome
	Duplicate     bool
	NotFound      bool
}

// StatusResult is the read-only settlement view for polling clients.
type StatusResult struct {
	TransactionID string                  `json:"transaction_id"`
	Status        enums.TransactionStatus `json:"status"`
	Amount        decimal.Decimal         `json:"amount"`
	ReceiptNumber string                  `json:"receipt_number,omitempty"`
}
