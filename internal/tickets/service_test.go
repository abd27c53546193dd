package tickets

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dopeevents/dopeevents-backend/pkg/db/models"
	"github.com/dopeevents/dopeevents-backend/pkg/enums"
	pkgerrors "github.com/dopeevents/dopeevents-backend/pkg/errors"
	"github.com/dopeevents/dopeevents-backend/pkg/logger"
)

type fixture struct {
	svc    Service
	conn   *gorm.DB
	event  models.Event
	tier   models.TicketCategory
	ticket models.Ticket
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := "file:tickets_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Event{}, &models.TicketCategory{}, &models.Ticket{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	event := models.Event{
		ID:          uuid.New(),
		OrganizerID: uuid.New(),
		Title:       "Nairobi Fest",
		Date:        time.Now().Add(72 * time.Hour),
		Location:    "KICC Grounds",
		IsActive:    true,
	}
	if err := conn.Create(&event).Error; err != nil {
		t.Fatalf("seed event: %v", err)
	}
	tier := models.TicketCategory{
		ID:             uuid.New(),
		EventID:        event.ID,
		Name:           "Regular",
		Type:           enums.TicketCategoryTypeRegular,
		Price:          decimal.NewFromInt(500),
		InitialTickets: 10,
		SalesStart:     time.Now().Add(-time.Hour),
		SalesEnd:       event.Date,
	}
	if err := conn.Create(&tier).Error; err != nil {
		t.Fatalf("seed tier: %v", err)
	}
	txnID := models.NewTransactionID()
	ticket := models.Ticket{
		ID:               uuid.New(),
		EventID:          event.ID,
		TicketCategoryID: tier.ID,
		TransactionID:    &txnID,
		BuyerName:        "Wanjiku",
		BuyerEmail:       "wanjiku@example.com",
		Quantity:         2,
		UnitPrice:        decimal.NewFromInt(500),
		TotalAmount:      decimal.NewFromInt(1000),
		TicketCode:       models.NewTicketCode(),
		TransactionCode:  "SBK45XYZ12",
		Status:           enums.TicketStatusConfirmed,
		PurchasedAt:      time.Now().Add(-time.Minute),
	}
	if err := conn.Create(&ticket).Error; err != nil {
		t.Fatalf("seed ticket: %v", err)
	}

	logg := logger.New(logger.Options{ServiceName: "tickets-test"})
	svc, err := NewService(NewRepository(conn), logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &fixture{svc: svc, conn: conn, event: event, tier: tier, ticket: ticket}
}

func TestConfirmationByCode(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	conf, err := f.svc.Confirmation(context.Background(), "  "+f.ticket.TicketCode+" ")
	if err != nil {
		t.Fatalf("confirmation: %v", err)
	}
	if conf.TicketID != f.ticket.ID {
		t.Fatalf("wrong ticket resolved: %s", conf.TicketID)
	}
	if conf.EventTitle != "Nairobi Fest" || conf.TierName != "Regular" {
		t.Fatalf("payload missing event context: %+v", conf)
	}
	if !conf.TotalAmount.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("expected total 1000, got %s", conf.TotalAmount)
	}
}

func TestConfirmationByReceipt(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	conf, err := f.svc.Confirmation(context.Background(), "sbk45xyz12")
	if err != nil {
		t.Fatalf("confirmation by receipt: %v", err)
	}
	if conf.TicketCode != f.ticket.TicketCode {
		t.Fatalf("receipt resolved wrong ticket: %+v", conf)
	}
}

func TestConfirmationNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.svc.Confirmation(context.Background(), "NOPE1234")
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestMarkUsedOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	used, err := f.svc.MarkUsed(ctx, f.ticket.ID)
	if err != nil {
		t.Fatalf("mark used: %v", err)
	}
	if used.Status != enums.TicketStatusUsed || used.UsedAt == nil {
		t.Fatalf("ticket not marked used: %+v", used)
	}

	// a second scan of the same ticket is rejected
	_, err = f.svc.MarkUsed(ctx, f.ticket.ID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict on reuse, got %v", err)
	}
}

func TestMarkUsedRejectsPending(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if err := f.conn.Model(&models.Ticket{}).
		Where("id = ?", f.ticket.ID).
		Update("status", enums.TicketStatusPending).Error; err != nil {
		t.Fatalf("reset status: %v", err)
	}

	_, err := f.svc.MarkUsed(ctx, f.ticket.ID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for pending ticket, got %v", err)
	}
}

func TestCancelTicket(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	cancelled, err := f.svc.Cancel(ctx, f.ticket.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != enums.TicketStatusCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("ticket not cancelled: %+v", cancelled)
	}

	// cancelled tickets stay cancelled
	_, err = f.svc.Cancel(ctx, f.ticket.ID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	_, err = f.svc.MarkUsed(ctx, f.ticket.ID)
	appErr = pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("cancelled ticket must not be usable, got %v", err)
	}
}

func TestTransitionUnknownTicket(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.svc.MarkUsed(context.Background(), uuid.New())
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
}
