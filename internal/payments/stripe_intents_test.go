package payments

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	"github.com/dopeevents/dopeevents-backend/internal/inventory"
	"github.com/dopeevents/dopeevents-backend/pkg/db"
	"github.com/dopeevents/dopeevents-backend/pkg/db/models"
	"github.com/dopeevents/dopeevents-backend/pkg/enums"
	"github.com/dopeevents/dopeevents-backend/pkg/logger"
)

type fakeIntentClient struct {
	created []*stripe.PaymentIntentParams
}

func (f *fakeIntentClient) Create(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	f.created = append(f.created, params)
	return &stripe.PaymentIntent{
		ID:           "pi_" + uuid.NewString()[:8],
		ClientSecret: "secret_test",
	}, nil
}

func newCardFixture(t *testing.T) (*fixture, CardService, *fakeIntentClient) {
	t.Helper()
	f := newFixture(t)
	client, err := db.NewWithConn(f.conn)
	if err != nil {
		t.Fatalf("wrap db: %v", err)
	}
	intents := &fakeIntentClient{}
	logg := logger.New(logger.Options{ServiceName: "card-test"})
	svc, err := NewCardService(NewRepository(f.conn), client, intents, inventory.NewAdjuster(), logg)
	if err != nil {
		t.Fatalf("new card service: %v", err)
	}
	return f, svc, intents
}

func TestCreateIntentCreatesPendingTicket(t *testing.T) {
	t.Parallel()

	f, svc, intents := newCardFixture(t)
	res, err := svc.CreateIntent(context.Background(), CardIntentInput{
		EventID:          f.event.ID,
		TicketCategoryID: f.tier.ID,
		BuyerName:        "Wanjiku Kamau",
		BuyerEmail:       "wanjiku@example.com",
		Quantity:         2,
	})
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}

	if !res.Amount.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("expected amount 1000, got %s", res.Amount)
	}
	if len(intents.created) != 1 {
		t.Fatalf("expected 1 intent, got %d", len(intents.created))
	}
	if got := *intents.created[0].Amount; got != 100000 {
		t.Fatalf("expected 100000 cents, got %d", got)
	}

	var ticket models.Ticket
	if err := f.conn.First(&ticket, "stripe_payment_intent_id = ?", res.PaymentIntentID).Error; err != nil {
		t.Fatalf("load ticket: %v", err)
	}
	if ticket.Status != enums.TicketStatusPending {
		t.Fatalf("expected pending card ticket, got %s", ticket.Status)
	}

	// inventory is only deducted on confirmation
	var tier models.TicketCategory
	if err := f.conn.First(&tier, "id = ?", f.tier.ID).Error; err != nil {
		t.Fatalf("load tier: %v", err)
	}
	if tier.AvailableTickets != 5 {
		t.Fatalf("intent creation must not deduct inventory, got %d", tier.AvailableTickets)
	}
}

func TestHandleEventConfirmsTicketOnceAndDeductsInventory(t *testing.T) {
	t.Parallel()

	f, svc, _ := newCardFixture(t)
	res, err := svc.CreateIntent(context.Background(), CardIntentInput{
		EventID:          f.event.ID,
		TicketCategoryID: f.tier.ID,
		BuyerEmail:       "wanjiku@example.com",
		Quantity:         2,
	})
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}

	event := intentEvent(t, stripe.EventTypePaymentIntentSucceeded, res.PaymentIntentID)
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	// redelivery is a no-op
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("redelivery: %v", err)
	}

	var ticket models.Ticket
	if err := f.conn.First(&ticket, "stripe_payment_intent_id = ?", res.PaymentIntentID).Error; err != nil {
		t.Fatalf("load ticket: %v", err)
	}
	if ticket.Status != enums.TicketStatusConfirmed {
		t.Fatalf("expected confirmed ticket, got %s", ticket.Status)
	}

	var tier models.TicketCategory
	if err := f.conn.First(&tier, "id = ?", f.tier.ID).Error; err != nil {
		t.Fatalf("load tier: %v", err)
	}
	if tier.AvailableTickets != 3 {
		t.Fatalf("expected single deduction 5→3, got %d", tier.AvailableTickets)
	}
}

func TestHandleEventCancelsPendingTicket(t *testing.T) {
	t.Parallel()

	f, svc, _ := newCardFixture(t)
	res, err := svc.CreateIntent(context.Background(), CardIntentInput{
		EventID:          f.event.ID,
		TicketCategoryID: f.tier.ID,
		BuyerEmail:       "wanjiku@example.com",
		Quantity:         1,
	})
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}

	event := intentEvent(t, stripe.EventTypePaymentIntentPaymentFailed, res.PaymentIntentID)
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	var ticket models.Ticket
	if err := f.conn.First(&ticket, "stripe_payment_intent_id = ?", res.PaymentIntentID).Error; err != nil {
		t.Fatalf("load ticket: %v", err)
	}
	if ticket.Status != enums.TicketStatusCancelled || ticket.CancelledAt == nil {
		t.Fatalf("expected cancelled ticket with timestamp, got %+v", ticket)
	}
}

func TestHandleEventIgnoresUnknownIntent(t *testing.T) {
	t.Parallel()

	_, svc, _ := newCardFixture(t)
	event := intentEvent(t, stripe.EventTypePaymentIntentSucceeded, "pi_unknown")
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unknown intent must be acknowledged, got %v", err)
	}
}

func intentEvent(t *testing.T, eventType stripe.EventType, intentID string) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(stripe.PaymentIntent{ID: intentID})
	if err != nil {
		t.Fatalf("marshal intent: %v", err)
	}
	return &stripe.Event{
		Type: eventType,
		Data: &stripe.EventData{Raw: raw},
	}
}
