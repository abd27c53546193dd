package tickets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dopeevents/dopeevents-backend/pkg/db/models"
	pkgerrors "github.com/dopeevents/dopeevents-backend/pkg/errors"
	"github.com/dopeevents/dopeevents-backend/pkg/logger"
)

type service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

// NewService builds the ticket lookup and lifecycle service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tickets repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg, now: time.Now}, nil
}

func (s *service) Confirmation(ctx context.Context, codeOrReceipt string) (*Confirmation, error) {
	key := strings.ToUpper(strings.TrimSpace(codeOrReceipt))
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket code required")
	}

	ticket, err := s.repo.FindByCode(ctx, key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// fall back to the M-Pesa receipt the buyer got by SMS
		ticket, err = s.repo.FindByReceipt(ctx, key)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ticket not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ticket")
	}

	event, err := s.repo.FindEvent(ctx, ticket.EventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
	}
	tier, err := s.repo.FindTier(ctx, ticket.TicketCategoryID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tier")
	}

	return &Confirmation{
		TicketID:        ticket.ID,
		TicketCode:      ticket.TicketCode,
		Status:          ticket.Status,
		EventTitle:      event.Title,
		EventDate:       event.Date,
		EventLocation:   event.Location,
		TierName:        tier.Name,
		Quantity:        ticket.Quantity,
		TotalAmount:     ticket.TotalAmount,
		BuyerName:       ticket.BuyerName,
		BuyerEmail:      ticket.BuyerEmail,
		TransactionCode: ticket.TransactionCode,
		PurchasedAt:     ticket.PurchasedAt,
	}, nil
}

func (s *service) MarkUsed(ctx context.Context, ticketID uuid.UUID) (*models.Ticket, error) {
	if ticketID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket id required")
	}

	flipped, err := s.repo.MarkUsed(ctx, ticketID, s.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark ticket used")
	}
	ticket, err := s.loadAfterTransition(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !flipped {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("ticket is %s, only confirmed tickets can be used", ticket.Status))
	}

	s.logg.Info(s.logg.WithField(ctx, "ticket_code", ticket.TicketCode), "ticket marked used")
	return ticket, nil
}

func (s *service) Cancel(ctx context.Context, ticketID uuid.UUID) (*models.Ticket, error) {
	if ticketID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket id required")
	}

	flipped, err := s.repo.Cancel(ctx, ticketID, s.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel ticket")
	}
	ticket, err := s.loadAfterTransition(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !flipped {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("ticket is %s and cannot be cancelled", ticket.Status))
	}

	s.logg.Info(s.logg.WithField(ctx, "ticket_code", ticket.TicketCode), "ticket cancelled")
	return ticket, nil
}

func (s *service) loadAfterTransition(ctx context.Context, ticketID uuid.UUID) (*models.Ticket, error) {
	ticket, err := s.repo.FindByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ticket not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ticket")
	}
	return ticket, nil
}
