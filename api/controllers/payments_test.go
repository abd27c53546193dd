package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dopeevents/dopeevents-backend/internal/payments"
	"github.com/dopeevents/dopeevents-backend/pkg/enums"
	"github.com/dopeevents/dopeevents-backend/pkg/mpesa"
)

type testPaymentsService struct {
	initiateFn func(ctx context.Context, input payments.InitiateInput) (*payments.InitiateResult, error)
	statusFn   func(ctx context.Context, transactionID string) (*payments.StatusResult, error)
}

func (s *testPaymentsService) Initiate(ctx context.Context, input payments.InitiateInput) (*payments.InitiateResult, error) {
	if s.initiateFn != nil {
		return s.initiateFn(ctx, input)
	}
	return &payments.InitiateResult{}, nil
}

func (s *testPaymentsService) Reconcile(ctx context.Context, callback mpesa.StkCallback) (payments.ReconcileResult, error) {
	return payments.ReconcileResult{}, nil
}

func (s *testPaymentsService) Status(ctx context.Context, transactionID string) (*payments.StatusResult, error) {
	if s.statusFn != nil {
		return s.statusFn(ctx, transactionID)
	}
	return &payments.StatusResult{}, nil
}

func (s *testPaymentsService) ExpirePending(ctx context.Context, pendingFor time.Duration) (int64, error) {
	return 0, nil
}

func TestPaymentInitiateAccepted(t *testing.T) {
	eventID := uuid.New()
	tierID := uuid.New()
	var captured payments.InitiateInput
	svc := &testPaymentsService{
		initiateFn: func(ctx context.Context, input payments.InitiateInput) (*payments.InitiateResult, error) {
			captured = input
			return &payments.InitiateResult{
				TransactionID:     "TXN-MPESA-ABC123",
				CheckoutRequestID: "ws_CO_191220191020363925",
				Amount:            decimal.NewFromInt(2000),
				CustomerMessage:   "Success. Request accepted for processing",
			}, nil
		},
	}

	body := `{"event_id":"` + eventID.String() + `","ticket_category_id":"` + tierID.String() + `","phone_number":"254712345678","buyer_name":"Amina","buyer_email":"amina@example.com","quantity":2}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/mpesa/initiate", strings.NewReader(body))
	resp := httptest.NewRecorder()

	PaymentInitiate(svc, testLogger())(resp, req)

	if resp.Code != http.StatusAccepted {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if captured.EventID != eventID || captured.TicketCategoryID != tierID {
		t.Fatal("ids not forwarded")
	}
	if captured.Quantity != 2 {
		t.Fatalf("unexpected quantity %d", captured.Quantity)
	}
	if captured.BuyerPhone != "254712345678" {
		t.Fatalf("buyer phone should fall back to the paying number, got %q", captured.BuyerPhone)
	}

	var envelope struct {
		Data payments.InitiateResult `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.CheckoutRequestID != "ws_CO_191220191020363925" {
		t.Fatalf("unexpected checkout request id %q", envelope.Data.CheckoutRequestID)
	}
}

func TestPaymentInitiateRejectsMissingPhone(t *testing.T) {
	body := `{"event_id":"` + uuid.NewString() + `","ticket_category_id":"` + uuid.NewString() + `","buyer_name":"Amina","buyer_email":"amina@example.com","quantity":1}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/mpesa/initiate", strings.NewReader(body))
	resp := httptest.NewRecorder()

	PaymentInitiate(&testPaymentsService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestPaymentStatusForwardsID(t *testing.T) {
	svc := &testPaymentsService{
		statusFn: func(ctx context.Context, transactionID string) (*payments.StatusResult, error) {
			if transactionID != "TXN-MPESA-ABC123" {
				t.Fatalf("unexpected transaction id %q", transactionID)
			}
			return &payments.StatusResult{
				TransactionID: transactionID,
				Status:        enums.TransactionStatusSuccess,
				Amount:        decimal.NewFromInt(1000),
				ReceiptNumber: "SBK45XYZ12",
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/TXN-MPESA-ABC123/status", nil)
	req = withURLParam(req, "transactionID", "TXN-MPESA-ABC123")
	resp := httptest.NewRecorder()

	PaymentStatus(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data payments.StatusResult `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.Status != enums.TransactionStatusSuccess {
		t.Fatalf("unexpected status %s", envelope.Data.Status)
	}
}
