package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"
	"gorm.io/gorm"

	"github.com/dopeevents/dopeevents-backend/internal/inventory"
	"github.com/dopeevents/dopeevents-backend/pkg/db/models"
	"github.com/dopeevents/dopeevents-backend/pkg/enums"
	pkgerrors "github.com/dopeevents/dopeevents-backend/pkg/errors"
	"github.com/dopeevents/dopeevents-backend/pkg/logger"
)

// StripeIntentClient is the subset of Stripe operations the card path needs.
type StripeIntentClient interface {
	Create(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type stripeIntentWrapper struct{}

// NewStripeIntentClient exposes the default Stripe payment-intent client.
func NewStripeIntentClient() StripeIntentClient {
	return stripeIntentWrapper{}
}

func (stripeIntentWrapper) Create(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if params != nil {
		params.Context = ctx
	}
	return paymentintent.New(params)
}

// CardIntentInput carries one card checkout request.
type CardIntentInput struct {
	EventID          uuid.UUID
	TicketCategoryID uuid.UUID
	BuyerName        string
	BuyerEmail       string
	BuyerPhone       string
	Quantity         int
}

// CardIntentResult returns what the frontend needs to confirm the payment.
type CardIntentResult struct {
	PaymentIntentID string          `json:"payment_intent_id"`
	ClientSecret    string          `json:"client_secret"`
	Amount          decimal.Decimal `json:"amount"`
	TicketCode      string          `json:"ticket_code"`
}

// CardService is the thin Stripe checkout path. Card tickets track their
// payment intent directly on the ticket row; the M-Pesa ledger is not
// involved.
type CardService interface {
	CreateIntent(ctx context.Context, input CardIntentInput) (*CardIntentResult, error)
	HandleEvent(ctx context.Context, event *stripe.Event) error
}

type cardService struct {
	repo      Repository
	tx        txRunner
	intents   StripeIntentClient
	inventory inventory.Adjuster
	logg      *logger.Logger
	now       func() time.Time
}

// NewCardService builds the Stripe card payment service.
func NewCardService(repo Repository, tx txRunner, intents StripeIntentClient,
	adj inventory.Adjuster, logg *logger.Logger) (CardService, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if intents == nil {
		return nil, fmt.Errorf("stripe intent client required")
	}
	if adj == nil {
		return nil, fmt.Errorf("inventory adjuster required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &cardService{
		repo:      repo,
		tx:        tx,
		intents:   intents,
		inventory: adj,
		logg:      logg,
		now:       time.Now,
	}, nil
}

func (s *cardService) CreateIntent(ctx context.Context, input CardIntentInput) (*CardIntentResult, error) {
	if input.EventID == uuid.Nil || input.TicketCategoryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event and ticket category ids required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if strings.TrimSpace(input.BuyerEmail) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer email required")
	}

	tier, err := s.repo.FindTier(ctx, input.TicketCategoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ticket category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ticket category")
	}
	if tier.EventID != input.EventID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket category does not belong to event")
	}
	if !tier.IsAvailable(s.now().UTC()) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "ticket category is not on sale")
	}
	if input.Quantity > tier.AvailableTickets {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "not enough tickets available")
	}

	amount := tier.Price.Mul(decimal.NewFromInt(int64(input.Quantity)))
	ticketCode := models.NewTicketCode()

	intent, err := s.intents.Create(ctx, &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount.Mul(decimal.NewFromInt(100)).IntPart()),
		Currency: stripe.String(string(stripe.CurrencyKES)),
		Metadata: map[string]string{
			"event_id":           input.EventID.String(),
			"ticket_category_id": input.TicketCategoryID.String(),
			"ticket_code":        ticketCode,
		},
		ReceiptEmail: stripe.String(strings.TrimSpace(input.BuyerEmail)),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment intent")
	}

	intentID := intent.ID
	_, err = s.repo.CreateTicket(ctx, &models.Ticket{
		EventID:               input.EventID,
		TicketCategoryID:      input.TicketCategoryID,
		BuyerName:             strings.TrimSpace(input.BuyerName),
		BuyerEmail:            strings.TrimSpace(input.BuyerEmail),
		BuyerPhone:            strings.TrimSpace(input.BuyerPhone),
		Quantity:              input.Quantity,
		UnitPrice:             tier.Price,
		TotalAmount:           amount,
		TicketCode:            ticketCode,
		StripePaymentIntentID: &intentID,
		Status:                enums.TicketStatusPending,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create pending ticket")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"payment_intent_id": intent.ID,
		"amount":            amount.String(),
	}), "stripe intent created")

	return &CardIntentResult{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Amount:          amount,
		TicketCode:      ticketCode,
	}, nil
}

// HandleEvent confirms or cancels pending card tickets from Stripe webhook
// events. Unhandled event types are ignored.
func (s *cardService) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		intent, err := decodeIntent(event)
		if err != nil {
			return err
		}
		return s.confirmTicket(ctx, intent.ID)
	case stripe.EventTypePaymentIntentPaymentFailed, stripe.EventTypePaymentIntentCanceled:
		intent, err := decodeIntent(event)
		if err != nil {
			return err
		}
		return s.cancelTicket(ctx, intent.ID)
	default:
		return nil
	}
}

func decodeIntent(event *stripe.Event) (*stripe.PaymentIntent, error) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment intent event")
	}
	return &intent, nil
}

func (s *cardService) confirmTicket(ctx context.Context, intentID string) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var ticket models.Ticket
		err := tx.WithContext(ctx).
			Where("stripe_payment_intent_id = ?", intentID).
			First(&ticket).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				s.logg.Warn(ctx, "stripe event for unknown payment intent")
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load card ticket")
		}
		if ticket.Status != enums.TicketStatusPending {
			return nil
		}

		// confirmation guarded the same way as the ledger: the status
		// predicate makes redeliveries no-ops
		res := tx.WithContext(ctx).
			Model(&models.Ticket{}).
			Where("id = ? AND status = ?", ticket.ID, enums.TicketStatusPending).
			Update("status", enums.TicketStatusConfirmed)
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "confirm card ticket")
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return s.inventory.DeductTier(ctx, tx, ticket.TicketCategoryID, ticket.Quantity)
	})
}

func (s *cardService) cancelTicket(ctx context.Context, intentID string) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		now := s.now().UTC()
		res := tx.WithContext(ctx).
			Model(&models.Ticket{}).
			Where("stripe_payment_intent_id = ? AND status = ?", intentID, enums.TicketStatusPending).
			Updates(map[string]any{
				"status":       enums.TicketStatusCancelled,
				"cancelled_at": now,
			})
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "cancel card ticket")
		}
		return nil
	})
}
