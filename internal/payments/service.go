package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dopeevents/dopeevents-backend/pkg/db/models"
	"github.com/dopeevents/dopeevents-backend/pkg/enums"
	pkgerrors "github.com/dopeevents/dopeevents-backend/pkg/errors"
	"github.com/dopeevents/dopeevents-backend/pkg/logger"
	"github.com/dopeevents/dopeevents-backend/pkg/metrics"
	"github.com/dopeevents/dopeevents-backend/pkg/mpesa"
)

type service struct {
	repo      Repository
	tx        txRunner
	push      PushClient
	inventory TierDeducter
	guard     WebhookGuard
	metrics   *metrics.PaymentMetrics
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds the payment service. The guard and metrics are optional;
// everything else is required.
func NewService(repo Repository, tx txRunner, push PushClient, inventory TierDeducter,
	guard WebhookGuard, pm *metrics.PaymentMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if push == nil {
		return nil, fmt.Errorf("push client required")
	}
	if inventory == nil {
		return nil, fmt.Errorf("inventory adjuster required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		push:      push,
		inventory: inventory,
		guard:     guard,
		metrics:   pm,
		logg:      logg,
		now:       time.Now,
	}, nil
}

func (s *service) Initiate(ctx context.Context, input InitiateInput) (*InitiateResult, error) {
	if input.EventID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	if input.TicketCategoryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket category id required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if strings.TrimSpace(input.BuyerName) == "" || strings.TrimSpace(input.BuyerEmail) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer name and email required")
	}

	phone, err := mpesa.NormalizePhone(input.PhoneNumber)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid phone number")
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

	event, err := s.repo.FindEvent(ctx, input.EventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
	}

	now := s.now().UTC()
	if !event.IsActive || event.IsPast(now) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "event is not open for sales")
	}
	if !tier.IsAvailable(now) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "ticket category is not on sale")
	}
	if input.Quantity > tier.MaxPerPurchase {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("quantity exceeds limit of %d per purchase", tier.MaxPerPurchase))
	}
	if input.Quantity > tier.AvailableTickets {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "not enough tickets available")
	}

	// the computed amount is authoritative end to end: it is what the row
	// records and what the provider is asked to collect
	amount := tier.Price.Mul(decimal.NewFromInt(int64(input.Quantity)))

	txn, err := s.repo.CreateTransaction(ctx, &models.Transaction{
		PhoneNumber:      phone,
		Amount:           amount,
		EventID:          input.EventID,
		TicketCategoryID: input.TicketCategoryID,
		BuyerName:        strings.TrimSpace(input.BuyerName),
		BuyerEmail:       strings.TrimSpace(input.BuyerEmail),
		BuyerPhone:       strings.TrimSpace(input.BuyerPhone),
		Quantity:         input.Quantity,
		PaymentMethod:    enums.PaymentMethodMpesa,
		Status:           enums.TransactionStatusPending,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create transaction")
	}

	ctx = s.logg.WithTransactionID(ctx, txn.ID)

	pushStarted := s.now()
	resp, err := s.push.STKPush(ctx, mpesa.StkPushParams{
		PhoneNumber:      phone,
		Amount:           amount,
		AccountReference: fmt.Sprintf("Ticket_%s", txn.ID),
		Description:      fmt.Sprintf("Payment for %s - %s", event.Title, tier.Name),
	})
	s.metrics.ObservePushLatency(s.now().Sub(pushStarted))
	if err != nil {
		s.metrics.IncInitiation(enums.PaymentMethodMpesa.String(), "error")
		s.failInitiation(ctx, txn.ID, fmt.Sprintf("stk push failed: %v", err))
		return nil, err
	}
	if !resp.Accepted() {
		s.metrics.IncInitiation(enums.PaymentMethodMpesa.String(), "rejected")
		s.failInitiation(ctx, txn.ID, fmt.Sprintf("stk push rejected: %s", resp.ResponseDescription))
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("payment provider rejected the request: %s", resp.ResponseDescription))
	}

	if err := s.repo.SetCheckoutRequestID(ctx, txn.ID, resp.CheckoutRequestID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store checkout request id")
	}

	s.metrics.IncInitiation(enums.PaymentMethodMpesa.String(), "accepted")
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"checkout_request_id": resp.CheckoutRequestID,
		"amount":              amount.String(),
	}), "stk push accepted")

	return &InitiateResult{
		TransactionID:     txn.ID,
		CheckoutRequestID: resp.CheckoutRequestID,
		Amount:            amount,
		CustomerMessage:   resp.CustomerMessage,
	}, nil
}

// failInitiation settles a row whose push never went through. Best effort:
// losing the race to a concurrent callback leaves the row as that callback
// settled it.
func (s *service) failInitiation(ctx context.Context, id, description string) {
	if err := s.repo.MarkFailedFromPending(ctx, id, description); err != nil {
		s.logg.Error(ctx, "mark transaction failed", err)
	}
}

func (s *service) Reconcile(ctx context.Context, callback mpesa.StkCallback) (ReconcileResult, error) {
	token := strings.TrimSpace(callback.CheckoutRequestID)
	if token == "" {
		s.metrics.IncUnknownReference()
		return ReconcileResult{NotFound: true}, nil
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"checkout_request_id": token,
		"result_code":         callback.ResultCode,
	})

	guardHeld := false
	if s.guard != nil {
		fresh, err := s.guard.Acquire(ctx, token, callback.ResultCode)
		if err != nil {
			// redis being down must never block settlement
			s.logg.Warn(ctx, "webhook guard unavailable, falling through to db")
		} else if !fresh {
			s.metrics.IncDuplicateCallback()
			s.logg.Info(ctx, "duplicate callback short-circuited by guard")
			return ReconcileResult{Duplicate: true}, nil
		} else {
			guardHeld = true
		}
	}

	outcome := OutcomeForResultCode(callback.ResultCode)
	var result ReconcileResult

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		txn, err := repo.FindTransactionByCheckoutRequestID(ctx, token)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				result = ReconcileResult{NotFound: true}
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
		}

		ctx := s.logg.WithTransactionID(ctx, txn.ID)
		result.TransactionID = txn.ID

		if txn.Status.IsTerminal() {
			result.Duplicate = true
			return nil
		}

		now := s.now().UTC()
		updates := map[string]any{
			"status":       outcome.TransactionStatus(),
			"completed_at": now,
		}

		switch outcome {
		case OutcomeSuccess:
			receipt := callback.ReceiptNumber()
			if receipt == "" {
				// settle as unknown rather than success without a receipt
				updates["status"] = enums.TransactionStatusUnknown
				updates["description"] = "success callback missing receipt number"
				outcome = OutcomeUnknown
				break
			}
			updates["receipt_number"] = receipt
			if settled, ok := callback.SettledAmount(); ok {
				updates["settled_amount"] = settled
				if !settled.Equal(txn.Amount) {
					s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
						"ledger_amount":  txn.Amount.String(),
						"settled_amount": settled.String(),
					}), "settled amount differs from ledger amount")
				}
			}
		case OutcomeFailed:
			updates["description"] = descOrDefault(callback.ResultDesc, "Payment failed due to an error.")
		case OutcomeCancelled:
			updates["description"] = descOrDefault(callback.ResultDesc, "Transaction was cancelled by the user.")
		default:
			updates["description"] = fmt.Sprintf("Unhandled result code %d: %s", callback.ResultCode, callback.ResultDesc)
		}

		won, err := repo.SettleFromPending(ctx, txn.ID, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settle transaction")
		}
		if !won {
			result.Duplicate = true
			return nil
		}
		result.Outcome = outcome

		if outcome != OutcomeSuccess {
			return nil
		}

		// success: ticket materialization and inventory decrement are part of
		// the same transaction as the status write
		if err := s.inventory.DeductTier(ctx, tx, txn.TicketCategoryID, txn.Quantity); err != nil {
			return err
		}

		tier, err := repo.FindTier(ctx, txn.TicketCategoryID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tier for ticket")
		}

		txnID := txn.ID
		_, err = repo.CreateTicket(ctx, &models.Ticket{
			EventID:          txn.EventID,
			TicketCategoryID: txn.TicketCategoryID,
			TransactionID:    &txnID,
			BuyerName:        txn.BuyerName,
			BuyerEmail:       txn.BuyerEmail,
			BuyerPhone:       txn.BuyerPhone,
			Quantity:         txn.Quantity,
			UnitPrice:        tier.Price,
			TotalAmount:      txn.Amount,
			TransactionCode:  callback.ReceiptNumber(),
			Status:           enums.TicketStatusConfirmed,
			PurchasedAt:      now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "materialize ticket")
		}
		return nil
	})
	if err != nil {
		// free the guard so the provider's redelivery can retry settlement,
		// otherwise the payment stays pending until the expiry cron buries it
		if guardHeld {
			if relErr := s.guard.Release(ctx, token, callback.ResultCode); relErr != nil {
				s.logg.Error(ctx, "release webhook guard", relErr)
			}
		}
		return result, err
	}

	switch {
	case result.NotFound:
		s.metrics.IncUnknownReference()
		s.logg.Warn(ctx, "callback for unknown checkout request")
	case result.Duplicate:
		s.metrics.IncDuplicateCallback()
		s.logg.Info(ctx, "duplicate callback ignored")
	default:
		s.metrics.IncSettlement(result.Outcome.String())
		s.logg.Info(ctx, fmt.Sprintf("transaction settled as %s", result.Outcome))
	}
	return result, nil
}

func (s *service) Status(ctx context.Context, transactionID string) (*StatusResult, error) {
	id := strings.TrimSpace(transactionID)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id required")
	}

	txn, err := s.repo.FindTransactionByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
	}

	result := &StatusResult{
		TransactionID: txn.ID,
		Status:        txn.Status,
		Amount:        txn.Amount,
	}
	if txn.ReceiptNumber != nil {
		result.ReceiptNumber = *txn.ReceiptNumber
	}
	return result, nil
}

func (s *service) ExpirePending(ctx context.Context, pendingFor time.Duration) (int64, error) {
	if pendingFor <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "expiry window must be positive")
	}
	cutoff := s.now().UTC().Add(-pendingFor)
	expired, err := s.repo.ExpirePending(ctx, cutoff,
		fmt.Sprintf("no callback received within %s", pendingFor))
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire pending transactions")
	}
	return expired, nil
}

func descOrDefault(desc, fallback string) string {
	if strings.TrimSpace(desc) == "" {
		return fallback
	}
	return desc
}
