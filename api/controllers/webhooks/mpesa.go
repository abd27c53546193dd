package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dopeevents/dopeevents-backend/internal/payments"
	"github.com/dopeevents/dopeevents-backend/pkg/logger"
	"github.com/dopeevents/dopeevents-backend/pkg/mpesa"
)

type MpesaWebhookService interface {
	Reconcile(ctx context.Context, callback mpesa.StkCallback) (payments.ReconcileResult, error)
}

// mpesaAck is the acknowledgement shape Daraja expects. Anything else, or a
// non-200 status, makes the provider retry the delivery.
type mpesaAck struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}

// MpesaWebhook settles the payment ledger from an STK push callback. The
// response always acknowledges receipt: settlement failures are our problem
// to resolve, not Daraja's to retry, and the DB transition plus the redis
// guard make redeliveries harmless anyway.
func MpesaWebhook(svc MpesaWebhookService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var envelope mpesa.CallbackEnvelope
		if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
			if logg != nil {
				logg.Error(ctx, "mpesa callback body unreadable", err)
			}
			writeMpesaAck(w, "Accepted")
			return
		}

		callback := envelope.Body.StkCallback
		if callback.CheckoutRequestID == "" {
			if logg != nil {
				logg.Warn(ctx, "mpesa callback missing CheckoutRequestID")
			}
			writeMpesaAck(w, "Accepted")
			return
		}

		if svc == nil {
			writeMpesaAck(w, "Accepted")
			return
		}

		result, err := svc.Reconcile(ctx, callback)
		if err != nil {
			if logg != nil {
				logg.Error(ctx, fmt.Sprintf("mpesa callback %s reconciliation failed", callback.CheckoutRequestID), err)
			}
			writeMpesaAck(w, "Accepted")
			return
		}

		if logg != nil {
			ctx = logg.WithTransactionID(ctx, result.TransactionID)
			switch {
			case result.NotFound:
				logg.Warn(ctx, fmt.Sprintf("mpesa callback %s matched no transaction", callback.CheckoutRequestID))
			case result.Duplicate:
				logg.Info(ctx, "mpesa callback duplicate delivery ignored")
			default:
				logg.Info(ctx, fmt.Sprintf("mpesa callback settled as %s", result.Outcome))
			}
		}

		writeMpesaAck(w, "Accepted")
	}
}

func writeMpesaAck(w http.ResponseWriter, desc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(mpesaAck{ResultCode: 0, ResultDesc: desc})
}
