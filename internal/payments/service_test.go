package payments

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dopeevents/dopeevents-backend/internal/inventory"
	"github.com/dopeevents/dopeevents-backend/pkg/db"
	"github.com/dopeevents/dopeevents-backend/pkg/db/models"
	"github.com/dopeevents/dopeevents-backend/pkg/enums"
	pkgerrors "github.com/dopeevents/dopeevents-backend/pkg/errors"
	"github.com/dopeevents/dopeevents-backend/pkg/logger"
	"github.com/dopeevents/dopeevents-backend/pkg/mpesa"
)

type fakePush struct {
	mu       sync.Mutex
	requests []mpesa.StkPushParams
	resp     *mpesa.StkPushResponse
	err      error
}

func (f *fakePush) STKPush(ctx context.Context, params mpesa.StkPushParams) (*mpesa.StkPushResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, params)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.resp != nil {
		return f.resp, nil
	}
	return &mpesa.StkPushResponse{
		CheckoutRequestID: "ws_CO_" + uuid.NewString()[:8],
		ResponseCode:      "0",
		CustomerMessage:   "Success. Request accepted for processing",
	}, nil
}

type memoryGuard struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (g *memoryGuard) Acquire(ctx context.Context, token string, code int) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.seen == nil {
		g.seen = map[string]bool{}
	}
	key := fmt.Sprintf("%s:%d", token, code)
	if g.seen[key] {
		return false, nil
	}
	g.seen[key] = true
	return true, nil
}

func (g *memoryGuard) Release(ctx context.Context, token string, code int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.seen, fmt.Sprintf("%s:%d", token, code))
	return nil
}

// flakyTxRunner fails the first n transactions, then delegates.
type flakyTxRunner struct {
	inner    txRunner
	failures int
}

func (f *flakyTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("connection reset by peer")
	}
	return f.inner.WithTx(ctx, fn)
}

type fixture struct {
	svc   Service
	conn  *gorm.DB
	push  *fakePush
	event models.Event
	tier  models.TicketCategory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := "file:payments_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Event{}, &models.TicketCategory{},
		&models.Transaction{}, &models.Ticket{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	client, err := db.NewWithConn(conn)
	if err != nil {
		t.Fatalf("wrap db: %v", err)
	}

	event := models.Event{
		ID:               uuid.New(),
		OrganizerID:      uuid.New(),
		Title:            "Nairobi Fest",
		Date:             time.Now().Add(72 * time.Hour),
		Location:         "Nairobi",
		TotalTickets:     5,
		AvailableTickets: 5,
		IsActive:         true,
	}
	if err := conn.Create(&event).Error; err != nil {
		t.Fatalf("seed event: %v", err)
	}
	tier := models.TicketCategory{
		ID:               uuid.New(),
		EventID:          event.ID,
		Name:             "Regular",
		Type:             enums.TicketCategoryTypeRegular,
		Price:            decimal.NewFromInt(500),
		InitialTickets:   5,
		AvailableTickets: 5,
		MaxPerPurchase:   10,
		SalesStart:       time.Now().Add(-time.Hour),
		SalesEnd:         time.Now().Add(48 * time.Hour),
	}
	if err := conn.Create(&tier).Error; err != nil {
		t.Fatalf("seed tier: %v", err)
	}

	push := &fakePush{}
	logg := logger.New(logger.Options{ServiceName: "payments-test"})
	svc, err := NewService(NewRepository(conn), client, push, inventory.NewAdjuster(), nil, nil, logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	return &fixture{svc: svc, conn: conn, push: push, event: event, tier: tier}
}

// seedPending plants a pending transaction the way a completed initiation
// would leave it.
func (f *fixture) seedPending(t *testing.T, token string, amount decimal.Decimal, qty int) models.Transaction {
	t.Helper()
	txn := models.Transaction{
		ID:               models.NewTransactionID(),
		PhoneNumber:      "254712345678",
		Amount:           amount,
		EventID:          f.event.ID,
		TicketCategoryID: f.tier.ID,
		BuyerName:        "Wanjiku Kamau",
		BuyerEmail:       "wanjiku@example.com",
		BuyerPhone:       "254712345678",
		Quantity:         qty,
		PaymentMethod:    enums.PaymentMethodMpesa,
		Status:           enums.TransactionStatusPending,
		CheckoutRequestID: &token,
	}
	if err := f.conn.Create(&txn).Error; err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
	return txn
}

func successCallback(token, receipt string, amount int64) mpesa.StkCallback {
	return mpesa.StkCallback{
		CheckoutRequestID: token,
		ResultCode:        mpesa.ResultCodeSuccess,
		ResultDesc:        "The service request is processed successfully.",
		CallbackMetadata: mpesa.CallbackMetadata{
			Item: []mpesa.MetadataItem{
				{Name: "Amount", Value: float64(amount)},
				{Name: "MpesaReceiptNumber", Value: receipt},
				{Name: "PhoneNumber", Value: float64(254712345678)},
			},
		},
	}
}

func TestInitiateCreatesPendingRowAndSendsComputedAmount(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	res, err := f.svc.Initiate(context.Background(), InitiateInput{
		EventID:          f.event.ID,
		TicketCategoryID: f.tier.ID,
		PhoneNumber:      "0712345678",
		BuyerName:        "Wanjiku Kamau",
		BuyerEmail:       "wanjiku@example.com",
		Quantity:         2,
	})
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}

	if !res.Amount.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("expected computed amount 1000, got %s", res.Amount)
	}
	if res.CheckoutRequestID == "" {
		t.Fatal("expected checkout request id")
	}

	if len(f.push.requests) != 1 {
		t.Fatalf("expected 1 push, got %d", len(f.push.requests))
	}
	if !f.push.requests[0].Amount.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("provider must receive the computed amount, got %s", f.push.requests[0].Amount)
	}
	if f.push.requests[0].PhoneNumber != "254712345678" {
		t.Fatalf("expected normalized phone, got %q", f.push.requests[0].PhoneNumber)
	}

	var txn models.Transaction
	if err := f.conn.First(&txn, "id = ?", res.TransactionID).Error; err != nil {
		t.Fatalf("load transaction: %v", err)
	}
	if txn.Status != enums.TransactionStatusPending {
		t.Fatalf("expected pending row, got %s", txn.Status)
	}
	if txn.CheckoutRequestID == nil || *txn.CheckoutRequestID != res.CheckoutRequestID {
		t.Fatal("checkout request id not stored on the row")
	}
	if !txn.Amount.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("ledger amount mismatch: %s", txn.Amount)
	}

	// initiation must not touch inventory
	var tier models.TicketCategory
	if err := f.conn.First(&tier, "id = ?", f.tier.ID).Error; err != nil {
		t.Fatalf("load tier: %v", err)
	}
	if tier.AvailableTickets != 5 {
		t.Fatalf("initiation must not decrement inventory, got %d", tier.AvailableTickets)
	}
}

func TestInitiateRejectsOversizedQuantity(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.Initiate(context.Background(), InitiateInput{
		EventID:          f.event.ID,
		TicketCategoryID: f.tier.ID,
		PhoneNumber:      "0712345678",
		BuyerName:        "Wanjiku Kamau",
		BuyerEmail:       "wanjiku@example.com",
		Quantity:         6, // tier has 5
	})
	if err == nil {
		t.Fatal("expected availability rejection")
	}
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(f.push.requests) != 0 {
		t.Fatal("no push may be sent for rejected initiations")
	}
}

func TestInitiateMarksRowFailedWhenProviderRejects(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.push.resp = &mpesa.StkPushResponse{ResponseCode: "1", ResponseDescription: "Invalid Access Token"}

	_, err := f.svc.Initiate(context.Background(), InitiateInput{
		EventID:          f.event.ID,
		TicketCategoryID: f.tier.ID,
		PhoneNumber:      "0712345678",
		BuyerName:        "Wanjiku Kamau",
		BuyerEmail:       "wanjiku@example.com",
		Quantity:         1,
	})
	if err == nil {
		t.Fatal("expected provider rejection to surface")
	}

	var txn models.Transaction
	if err := f.conn.First(&txn).Error; err != nil {
		t.Fatalf("load transaction: %v", err)
	}
	if txn.Status != enums.TransactionStatusFailed {
		t.Fatalf("rejected initiation must not leave a usable pending row, got %s", txn.Status)
	}
	if txn.Description == nil || *txn.Description == "" {
		t.Fatal("expected provider description on the failed row")
	}
}

func TestReconcileSuccessSettlesOnceAndMaterializesTicket(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	token := "ws_CO_success"
	txn := f.seedPending(t, token, decimal.NewFromInt(1000), 2)

	res, err := f.svc.Reconcile(context.Background(), successCallback(token, "ABC123", 1000))
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if res.Outcome != OutcomeSuccess || res.Duplicate || res.NotFound {
		t.Fatalf("unexpected result %+v", res)
	}

	var settled models.Transaction
	if err := f.conn.First(&settled, "id = ?", txn.ID).Error; err != nil {
		t.Fatalf("load transaction: %v", err)
	}
	if settled.Status != enums.TransactionStatusSuccess {
		t.Fatalf("expected success, got %s", settled.Status)
	}
	if settled.ReceiptNumber == nil || *settled.ReceiptNumber != "ABC123" {
		t.Fatal("expected receipt ABC123 on the ledger row")
	}
	if settled.CompletedAt == nil {
		t.Fatal("expected completed-at timestamp")
	}
	if settled.SettledAmount == nil || !settled.SettledAmount.Equal(decimal.NewFromInt(1000)) {
		t.Fatal("expected settled amount recorded from metadata")
	}

	var tickets []models.Ticket
	if err := f.conn.Find(&tickets).Error; err != nil {
		t.Fatalf("load tickets: %v", err)
	}
	if len(tickets) != 1 {
		t.Fatalf("expected exactly one ticket, got %d", len(tickets))
	}
	ticket := tickets[0]
	if ticket.TransactionID == nil || *ticket.TransactionID != txn.ID {
		t.Fatal("ticket not linked to transaction")
	}
	if ticket.Quantity != 2 || !ticket.TotalAmount.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("ticket snapshot mismatch: %+v", ticket)
	}
	if ticket.TransactionCode != "ABC123" {
		t.Fatalf("expected receipt as transaction code, got %q", ticket.TransactionCode)
	}
	if ticket.TicketCode == "" {
		t.Fatal("expected generated ticket code")
	}

	var tier models.TicketCategory
	if err := f.conn.First(&tier, "id = ?", f.tier.ID).Error; err != nil {
		t.Fatalf("load tier: %v", err)
	}
	if tier.AvailableTickets != 3 {
		t.Fatalf("expected tier 5→3, got %d", tier.AvailableTickets)
	}
}

func TestReconcileDuplicateSuccessIsIdempotent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	token := "ws_CO_dup"
	f.seedPending(t, token, decimal.NewFromInt(1000), 2)

	cb := successCallback(token, "ABC123", 1000)
	if _, err := f.svc.Reconcile(context.Background(), cb); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	res, err := f.svc.Reconcile(context.Background(), cb)
	if err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	if !res.Duplicate {
		t.Fatalf("expected duplicate result, got %+v", res)
	}

	var ticketCount int64
	if err := f.conn.Model(&models.Ticket{}).Count(&ticketCount).Error; err != nil {
		t.Fatalf("count tickets: %v", err)
	}
	if ticketCount != 1 {
		t.Fatalf("duplicate delivery must not create a second ticket, got %d", ticketCount)
	}

	var tier models.TicketCategory
	if err := f.conn.First(&tier, "id = ?", f.tier.ID).Error; err != nil {
		t.Fatalf("load tier: %v", err)
	}
	if tier.AvailableTickets != 3 {
		t.Fatalf("duplicate delivery must not decrement again, got %d", tier.AvailableTickets)
	}
}

func TestReconcileCancellationLeavesInventoryUntouched(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	token := "ws_CO_cancel"
	txn := f.seedPending(t, token, decimal.NewFromInt(500), 1)

	res, err := f.svc.Reconcile(context.Background(), mpesa.StkCallback{
		CheckoutRequestID: token,
		ResultCode:        mpesa.ResultCodeCancelledByUser,
		ResultDesc:        "Request cancelled by user",
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if res.Outcome != OutcomeCancelled {
		t.Fatalf("expected cancelled outcome, got %+v", res)
	}

	var settled models.Transaction
	if err := f.conn.First(&settled, "id = ?", txn.ID).Error; err != nil {
		t.Fatalf("load transaction: %v", err)
	}
	if settled.Status != enums.TransactionStatusCancelled {
		t.Fatalf("expected cancelled, got %s", settled.Status)
	}
	if settled.ReceiptNumber != nil {
		t.Fatal("cancelled transactions must not carry a receipt")
	}

	var ticketCount int64
	if err := f.conn.Model(&models.Ticket{}).Count(&ticketCount).Error; err != nil {
		t.Fatalf("count tickets: %v", err)
	}
	if ticketCount != 0 {
		t.Fatal("cancellation must not create tickets")
	}

	var tier models.TicketCategory
	if err := f.conn.First(&tier, "id = ?", f.tier.ID).Error; err != nil {
		t.Fatalf("load tier: %v", err)
	}
	if tier.AvailableTickets != 5 {
		t.Fatalf("cancellation must leave tier at 5, got %d", tier.AvailableTickets)
	}
}

func TestReconcileFailureCodes(t *testing.T) {
	t.Parallel()

	for _, code := range []int{mpesa.ResultCodeFailed, mpesa.ResultCodeInvalidInitiator} {
		f := newFixture(t)
		token := "ws_CO_fail"
		txn := f.seedPending(t, token, decimal.NewFromInt(500), 1)

		res, err := f.svc.Reconcile(context.Background(), mpesa.StkCallback{
			CheckoutRequestID: token,
			ResultCode:        code,
		})
		if err != nil {
			t.Fatalf("reconcile code %d: %v", code, err)
		}
		if res.Outcome != OutcomeFailed {
			t.Fatalf("code %d expected failed outcome, got %+v", code, res)
		}

		var settled models.Transaction
		if err := f.conn.First(&settled, "id = ?", txn.ID).Error; err != nil {
			t.Fatalf("load transaction: %v", err)
		}
		if settled.Status != enums.TransactionStatusFailed {
			t.Fatalf("code %d expected failed status, got %s", code, settled.Status)
		}
		if settled.Description == nil || *settled.Description == "" {
			t.Fatalf("code %d expected failure description", code)
		}
	}
}

func TestReconcileUnknownCodeSettlesAsUnknownWithAudit(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	token := "ws_CO_weird"
	txn := f.seedPending(t, token, decimal.NewFromInt(500), 1)

	res, err := f.svc.Reconcile(context.Background(), mpesa.StkCallback{
		CheckoutRequestID: token,
		ResultCode:        4999,
		ResultDesc:        "An unusual thing happened",
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if res.Outcome != OutcomeUnknown {
		t.Fatalf("expected unknown outcome, got %+v", res)
	}

	var settled models.Transaction
	if err := f.conn.First(&settled, "id = ?", txn.ID).Error; err != nil {
		t.Fatalf("load transaction: %v", err)
	}
	if settled.Status != enums.TransactionStatusUnknown {
		t.Fatalf("expected unknown status, got %s", settled.Status)
	}
	if settled.Description == nil || *settled.Description == "" {
		t.Fatal("expected raw code preserved in description")
	}
}

func TestReconcileUnknownTokenIsAcknowledgedNoWrites(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedPending(t, "ws_CO_real", decimal.NewFromInt(500), 1)

	res, err := f.svc.Reconcile(context.Background(), mpesa.StkCallback{
		CheckoutRequestID: "XYZ",
		ResultCode:        mpesa.ResultCodeSuccess,
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !res.NotFound {
		t.Fatalf("expected not-found result, got %+v", res)
	}

	var pendingCount int64
	if err := f.conn.Model(&models.Transaction{}).
		Where("status = ?", enums.TransactionStatusPending).
		Count(&pendingCount).Error; err != nil {
		t.Fatalf("count pending: %v", err)
	}
	if pendingCount != 1 {
		t.Fatal("unknown token must not mutate any row")
	}

	var tier models.TicketCategory
	if err := f.conn.First(&tier, "id = ?", f.tier.ID).Error; err != nil {
		t.Fatalf("load tier: %v", err)
	}
	if tier.AvailableTickets != 5 {
		t.Fatalf("unknown token must not touch inventory, got %d", tier.AvailableTickets)
	}
}

func TestReconcileSuccessWithoutReceiptSettlesUnknown(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	token := "ws_CO_noreceipt"
	txn := f.seedPending(t, token, decimal.NewFromInt(500), 1)

	res, err := f.svc.Reconcile(context.Background(), mpesa.StkCallback{
		CheckoutRequestID: token,
		ResultCode:        mpesa.ResultCodeSuccess,
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if res.Outcome != OutcomeUnknown {
		t.Fatalf("expected unknown outcome, got %+v", res)
	}

	var settled models.Transaction
	if err := f.conn.First(&settled, "id = ?", txn.ID).Error; err != nil {
		t.Fatalf("load transaction: %v", err)
	}
	if settled.Status != enums.TransactionStatusUnknown {
		t.Fatalf("expected unknown status, got %s", settled.Status)
	}

	var ticketCount int64
	if err := f.conn.Model(&models.Ticket{}).Count(&ticketCount).Error; err != nil {
		t.Fatalf("count tickets: %v", err)
	}
	if ticketCount != 0 {
		t.Fatal("receipt-less success must not materialize a ticket")
	}
}

func TestReconcileGuardShortCircuitsRedelivery(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	guard := &memoryGuard{}
	logg := logger.New(logger.Options{ServiceName: "payments-test"})
	client, err := db.NewWithConn(f.conn)
	if err != nil {
		t.Fatalf("wrap db: %v", err)
	}
	svc, err := NewService(NewRepository(f.conn), client, f.push, inventory.NewAdjuster(), guard, nil, logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	token := "ws_CO_guarded"
	f.seedPending(t, token, decimal.NewFromInt(500), 1)

	cb := successCallback(token, "DEF456", 500)
	if _, err := svc.Reconcile(context.Background(), cb); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	res, err := svc.Reconcile(context.Background(), cb)
	if err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	if !res.Duplicate {
		t.Fatalf("expected guard to flag duplicate, got %+v", res)
	}
}

func TestReconcileReleasesGuardWhenTxFails(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	guard := &memoryGuard{}
	logg := logger.New(logger.Options{ServiceName: "payments-test"})
	client, err := db.NewWithConn(f.conn)
	if err != nil {
		t.Fatalf("wrap db: %v", err)
	}
	flaky := &flakyTxRunner{inner: client, failures: 1}
	svc, err := NewService(NewRepository(f.conn), flaky, f.push, inventory.NewAdjuster(), guard, nil, logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	token := "ws_CO_transient"
	txn := f.seedPending(t, token, decimal.NewFromInt(500), 1)

	cb := successCallback(token, "GHI789", 500)
	if _, err := svc.Reconcile(context.Background(), cb); err == nil {
		t.Fatal("expected transient tx failure to surface")
	}

	// the redelivery must settle, not be swallowed as a guard duplicate
	res, err := svc.Reconcile(context.Background(), cb)
	if err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if res.Duplicate {
		t.Fatalf("redelivery flagged duplicate, got %+v", res)
	}
	if res.Outcome != OutcomeSuccess {
		t.Fatalf("expected success settlement, got %s", res.Outcome)
	}

	var settled models.Transaction
	if err := f.conn.First(&settled, "id = ?", txn.ID).Error; err != nil {
		t.Fatalf("load transaction: %v", err)
	}
	if settled.Status != enums.TransactionStatusSuccess {
		t.Fatalf("expected success status after retry, got %s", settled.Status)
	}
}

func TestStatusReturnsSettlementView(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	token := "ws_CO_status"
	txn := f.seedPending(t, token, decimal.NewFromInt(1000), 2)

	got, err := f.svc.Status(context.Background(), txn.ID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if got.Status != enums.TransactionStatusPending || got.ReceiptNumber != "" {
		t.Fatalf("unexpected pending view %+v", got)
	}

	if _, err := f.svc.Reconcile(context.Background(), successCallback(token, "ABC123", 1000)); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	got, err = f.svc.Status(context.Background(), txn.ID)
	if err != nil {
		t.Fatalf("status after settle: %v", err)
	}
	if got.Status != enums.TransactionStatusSuccess || got.ReceiptNumber != "ABC123" {
		t.Fatalf("unexpected settled view %+v", got)
	}
	if !got.Amount.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("unexpected amount %s", got.Amount)
	}
}

func TestStatusUnknownTransaction(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.Status(context.Background(), "txn_nope")
	if err == nil {
		t.Fatal("expected not found")
	}
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found code, got %v", err)
	}
}

func TestExpirePendingMovesStaleRowsToUnknown(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	stale := f.seedPending(t, "ws_CO_stale", decimal.NewFromInt(500), 1)
	if err := f.conn.Model(&models.Transaction{}).
		Where("id = ?", stale.ID).
		Update("created_at", time.Now().Add(-3*time.Hour)).Error; err != nil {
		t.Fatalf("age transaction: %v", err)
	}
	fresh := f.seedPending(t, "ws_CO_fresh", decimal.NewFromInt(500), 1)

	expired, err := f.svc.ExpirePending(context.Background(), 2*time.Hour)
	if err != nil {
		t.Fatalf("expire pending: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expected 1 expiry, got %d", expired)
	}

	var staleRow models.Transaction
	if err := f.conn.First(&staleRow, "id = ?", stale.ID).Error; err != nil {
		t.Fatalf("load stale: %v", err)
	}
	if staleRow.Status != enums.TransactionStatusUnknown {
		t.Fatalf("expected unknown, got %s", staleRow.Status)
	}
	var freshRow models.Transaction
	if err := f.conn.First(&freshRow, "id = ?", fresh.ID).Error; err != nil {
		t.Fatalf("load fresh: %v", err)
	}
	if freshRow.Status != enums.TransactionStatusPending {
		t.Fatalf("fresh row must stay pending, got %s", freshRow.Status)
	}
}

func TestInitiateTransportErrorSurfacesAndSettlesRow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.push.err = errors.New("connect: connection refused")

	_, err := f.svc.Initiate(context.Background(), InitiateInput{
		EventID:          f.event.ID,
		TicketCategoryID: f.tier.ID,
		PhoneNumber:      "0712345678",
		BuyerName:        "Wanjiku Kamau",
		BuyerEmail:       "wanjiku@example.com",
		Quantity:         1,
	})
	if err == nil {
		t.Fatal("expected transport error to surface")
	}

	var txn models.Transaction
	if err := f.conn.First(&txn).Error; err != nil {
		t.Fatalf("load transaction: %v", err)
	}
	if txn.Status != enums.TransactionStatusFailed {
		t.Fatalf("expected failed row after transport error, got %s", txn.Status)
	}
}

func TestOutcomeForResultCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code int
		want SettlementOutcome
	}{
		{0, OutcomeSuccess},
		{1, OutcomeFailed},
		{2001, OutcomeFailed},
		{1032, OutcomeCancelled},
		{1037, OutcomeUnknown},
		{-1, OutcomeUnknown},
	}
	for _, tt := range tests {
		if got := OutcomeForResultCode(tt.code); got != tt.want {
			t.Errorf("OutcomeForResultCode(%d) = %s, want %s", tt.code, got, tt.want)
		}
	}
}
