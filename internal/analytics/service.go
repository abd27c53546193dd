package analytics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dopeevents/dopeevents-backend/pkg/db/models"
	"github.com/dopeevents/dopeevents-backend/pkg/enums"
	pkgerrors "github.com/dopeevents/dopeevents-backend/pkg/errors"
	"github.com/dopeevents/dopeevents-backend/pkg/logger"
)

const (
	defaultStatsDays = 30
	maxStatsDays     = 365
	topPagesLimit    = 10
)

type service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

// NewService builds the analytics service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("analytics repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg, now: time.Now}, nil
}

// Record writes one visit row. Tracking is best-effort for callers: the
// middleware drops the error after logging it.
func (s *service) Record(ctx context.Context, input VisitInput) error {
	if strings.TrimSpace(input.SessionKey) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session key required")
	}
	if strings.TrimSpace(input.Path) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "path required")
	}
	visitType := input.Type
	if visitType == "" {
		visitType = enums.VisitTypePageView
	}
	if !visitType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid visit type")
	}

	err := s.repo.CreateVisit(ctx, &models.Visit{
		SessionKey: strings.TrimSpace(input.SessionKey),
		Path:       input.Path,
		Type:       visitType,
		EventID:    input.EventID,
		IPAddress:  input.IPAddress,
		UserAgent:  input.UserAgent,
		Referrer:   input.Referrer,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record visit")
	}
	return nil
}

func (s *service) VisitorStats(ctx context.Context, days int) (*VisitorStats, error) {
	if days <= 0 {
		days = defaultStatsDays
	}
	if days > maxStatsDays {
		days = maxStatsDays
	}
	since := s.now().UTC().AddDate(0, 0, -days)

	daily, err := s.repo.DailyVisitCounts(ctx, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "daily visit counts")
	}
	pages, err := s.repo.TopPages(ctx, since, topPagesLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "top pages")
	}
	breakdown, err := s.repo.VisitTypeBreakdown(ctx, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "visit type breakdown")
	}

	var total int64
	for _, day := range daily {
		total += day.Visits
	}
	return &VisitorStats{
		Days:      days,
		Total:     total,
		Daily:     daily,
		TopPages:  pages,
		Breakdown: breakdown,
	}, nil
}

func (s *service) EventSummary(ctx context.Context, eventID uuid.UUID) (*EventSummary, error) {
	if eventID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}

	event, err := s.repo.FindEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
	}

	revenue, err := s.repo.EventRevenue(ctx, eventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "event revenue")
	}

	return &EventSummary{
		EventID:          event.ID,
		Title:            event.Title,
		Revenue:          revenue.Revenue,
		Settled:          revenue.Settled,
		TicketsSold:      revenue.TicketsSold,
		TicketsIssued:    revenue.TicketsIssued,
		AvailableTickets: event.AvailableTickets,
		SoldOut:          event.SoldOut,
	}, nil
}
