package events

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
	"github.com/dopeevents/dopeevents-backend/pkg/pagination"
)

type fixture struct {
	svc  Service
	conn *gorm.DB
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := "file:events_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Category{}, &models.Event{}, &models.TicketCategory{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logg := logger.New(logger.Options{ServiceName: "events-test"})
	svc, err := NewService(NewRepository(conn), logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &fixture{svc: svc, conn: conn}
}

func seedEvent(t *testing.T, f *fixture, title string, createdAt time.Time) models.Event {
	t.Helper()
	event := models.Event{
		ID:          uuid.New(),
		OrganizerID: uuid.New(),
		Title:       title,
		Date:        time.Now().Add(72 * time.Hour),
		Location:    "Nairobi",
		IsActive:    true,
		CreatedAt:   createdAt,
	}
	if err := f.conn.Create(&event).Error; err != nil {
		t.Fatalf("seed event %s: %v", title, err)
	}
	return event
}

func TestCreateEvent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	event, err := f.svc.Create(ctx, CreateInput{
		OrganizerID: uuid.New(),
		Title:       "  Nairobi Fest  ",
		Description: "Two days of live music",
		Date:        time.Now().Add(30 * 24 * time.Hour),
		Location:    "KICC Grounds",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if event.Title != "Nairobi Fest" {
		t.Fatalf("expected trimmed title, got %q", event.Title)
	}
	if !event.IsActive {
		t.Fatal("new events should be active")
	}

	var got models.Event
	if err := f.conn.First(&got, "id = ?", event.ID).Error; err != nil {
		t.Fatalf("load event: %v", err)
	}
	if got.TotalTickets != 0 || got.AvailableTickets != 0 {
		t.Fatalf("new event should have zero counters, got %d/%d", got.TotalTickets, got.AvailableTickets)
	}
}

func TestCreateEventRejectsPastDate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), CreateInput{
		OrganizerID: uuid.New(),
		Title:       "Throwback",
		Date:        time.Now().Add(-time.Hour),
		Location:    "Mombasa",
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateEventUnknownCategory(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	missing := uuid.New()

	_, err := f.svc.Create(context.Background(), CreateInput{
		OrganizerID: uuid.New(),
		CategoryID:  &missing,
		Title:       "Jazz Night",
		Date:        time.Now().Add(24 * time.Hour),
		Location:    "Westlands",
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestUpdateEventPartialFields(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	event := seedEvent(t, f, "Draft Gala", time.Now())

	newTitle := "Charity Gala"
	inactive := false
	updated, err := f.svc.Update(ctx, event.ID, UpdateInput{
		Title:    &newTitle,
		IsActive: &inactive,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Charity Gala" {
		t.Fatalf("title not updated: %q", updated.Title)
	}
	if updated.IsActive {
		t.Fatal("event should be inactive")
	}
	if updated.Location != event.Location {
		t.Fatalf("location should be untouched, got %q", updated.Location)
	}

	_, err = f.svc.Update(ctx, event.ID, UpdateInput{})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("empty update should be rejected, got %v", err)
	}
}

func TestGetEventComputesTierAvailability(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	event := seedEvent(t, f, "Summer Jam", time.Now())

	now := time.Now()
	open := models.TicketCategory{
		ID:               uuid.New(),
		EventID:          event.ID,
		Name:             "Regular",
		Type:             enums.TicketCategoryTypeRegular,
		Price:            decimal.NewFromInt(500),
		InitialTickets:   10,
		AvailableTickets: 10,
		MaxPerPurchase:   10,
		SalesStart:       now.Add(-time.Hour),
		SalesEnd:         now.Add(24 * time.Hour),
	}
	closed := models.TicketCategory{
		ID:               uuid.New(),
		EventID:          event.ID,
		Name:             "Early Bird",
		Type:             enums.TicketCategoryTypeEarlyBird,
		Price:            decimal.NewFromInt(300),
		InitialTickets:   10,
		AvailableTickets: 4,
		MaxPerPurchase:   10,
		SalesStart:       now.Add(-48 * time.Hour),
		SalesEnd:         now.Add(-24 * time.Hour),
	}
	for _, tier := range []models.TicketCategory{open, closed} {
		if err := f.conn.Create(&tier).Error; err != nil {
			t.Fatalf("seed tier: %v", err)
		}
	}

	detail, err := f.svc.Get(ctx, event.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(detail.Tiers) != 2 {
		t.Fatalf("expected 2 tiers, got %d", len(detail.Tiers))
	}
	// ordered by price: early bird first
	if detail.Tiers[0].Name != "Early Bird" || detail.Tiers[0].Available {
		t.Fatalf("early bird should be listed first and unavailable: %+v", detail.Tiers[0])
	}
	if detail.Tiers[1].Name != "Regular" || !detail.Tiers[1].Available {
		t.Fatalf("regular should be available: %+v", detail.Tiers[1])
	}
}

func TestGetEventNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.Get(context.Background(), uuid.New())
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestListEventsCursorPagination(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		seedEvent(t, f, "Show", base.Add(time.Duration(i)*time.Minute))
	}

	first, err := f.svc.List(ctx, ListFilter{}, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(first.Items))
	}
	if first.NextCursor == nil {
		t.Fatal("expected a next cursor")
	}

	second, err := f.svc.List(ctx, ListFilter{}, pagination.Params{Limit: 2, Cursor: *first.NextCursor})
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second.Items) != 2 {
		t.Fatalf("expected 2 items on second page, got %d", len(second.Items))
	}
	for _, got := range second.Items {
		for _, prev := range first.Items {
			if got.ID == prev.ID {
				t.Fatalf("event %s appeared on both pages", got.ID)
			}
		}
	}

	third, err := f.svc.List(ctx, ListFilter{}, pagination.Params{Limit: 2, Cursor: *second.NextCursor})
	if err != nil {
		t.Fatalf("third page: %v", err)
	}
	if len(third.Items) != 1 || third.NextCursor != nil {
		t.Fatalf("expected final page of 1 with no cursor, got %d items", len(third.Items))
	}
}

func TestListEventsFilters(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	active := seedEvent(t, f, "Active Show", time.Now())
	inactive := seedEvent(t, f, "Cancelled Show", time.Now())
	if err := f.conn.Model(&models.Event{}).
		Where("id = ?", inactive.ID).
		Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	page, err := f.svc.List(ctx, ListFilter{ActiveOnly: true}, pagination.Params{Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != active.ID {
		t.Fatalf("expected only the active event, got %d items", len(page.Items))
	}

	org := active.OrganizerID
	page, err = f.svc.List(ctx, ListFilter{OrganizerID: &org}, pagination.Params{Limit: 10})
	if err != nil {
		t.Fatalf("list by organizer: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != active.ID {
		t.Fatalf("organizer filter failed, got %d items", len(page.Items))
	}
}

func TestAddTierUpdatesEventCounters(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	event := seedEvent(t, f, "Festival", time.Now())

	tier, err := f.svc.AddTier(ctx, event.ID, TierInput{
		Name:           "VIP",
		Type:           enums.TicketCategoryTypeVIP,
		Price:          decimal.NewFromInt(2500),
		InitialTickets: 50,
	})
	if err != nil {
		t.Fatalf("add tier: %v", err)
	}
	if tier.AvailableTickets != 50 {
		t.Fatalf("expected 50 available, got %d", tier.AvailableTickets)
	}
	if tier.MaxPerPurchase != 10 {
		t.Fatalf("expected default max per purchase, got %d", tier.MaxPerPurchase)
	}
	if !tier.SalesEnd.Equal(event.Date) {
		t.Fatalf("sales should default to closing at the event date, got %v", tier.SalesEnd)
	}

	var got models.Event
	if err := f.conn.First(&got, "id = ?", event.ID).Error; err != nil {
		t.Fatalf("load event: %v", err)
	}
	if got.TotalTickets != 50 || got.AvailableTickets != 50 {
		t.Fatalf("event counters not updated: %d/%d", got.TotalTickets, got.AvailableTickets)
	}
}

func TestAddTierDuplicateType(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	event := seedEvent(t, f, "Festival", time.Now())

	input := TierInput{
		Name:           "Regular",
		Type:           enums.TicketCategoryTypeRegular,
		Price:          decimal.NewFromInt(500),
		InitialTickets: 20,
	}
	if _, err := f.svc.AddTier(ctx, event.ID, input); err != nil {
		t.Fatalf("first tier: %v", err)
	}

	_, err := f.svc.AddTier(ctx, event.ID, input)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestAddTierValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	event := seedEvent(t, f, "Festival", time.Now())

	cases := []struct {
		name  string
		input TierInput
	}{
		{"missing name", TierInput{Type: enums.TicketCategoryTypeRegular, Price: decimal.NewFromInt(500), InitialTickets: 5}},
		{"invalid type", TierInput{Name: "Mystery", Type: "mystery", Price: decimal.NewFromInt(500), InitialTickets: 5}},
		{"zero tickets", TierInput{Name: "Regular", Type: enums.TicketCategoryTypeRegular, Price: decimal.NewFromInt(500)}},
		{"negative price", TierInput{Name: "Regular", Type: enums.TicketCategoryTypeRegular, Price: decimal.NewFromInt(-1), InitialTickets: 5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.AddTier(ctx, event.ID, tc.input)
			appErr := pkgerrors.As(err)
			if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCategories(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	for _, name := range []string{"Concerts", "Conferences", "Art"} {
		cat := models.Category{ID: uuid.New(), Name: name, Slug: name + "-slug"}
		if err := f.conn.Create(&cat).Error; err != nil {
			t.Fatalf("seed category %s: %v", name, err)
		}
	}

	categories, err := f.svc.Categories(ctx)
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	if len(categories) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(categories))
	}
	if categories[0].Name != "Art" {
		t.Fatalf("expected alphabetical order, got %q first", categories[0].Name)
	}
}
