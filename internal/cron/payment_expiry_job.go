package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/dopeevents/dopeevents-backend/pkg/logger"
)

// pendingExpirer is the slice of the payments service the job needs.
type pendingExpirer interface {
	ExpirePending(ctx context.Context, pendingFor time.Duration) (int64, error)
}

// PaymentExpiryJob moves transactions that never received a callback out of
// pending. Expired rows land in the unknown bucket for manual review; no
// inventory or ticket state is touched.
type PaymentExpiryJob struct {
	payments   pendingExpirer
	pendingTTL time.Duration
	logg       *logger.Logger
}

// NewPaymentExpiryJob builds the pending-payment expiry job.
func NewPaymentExpiryJob(payments pendingExpirer, pendingTTL time.Duration, logg *logger.Logger) (*PaymentExpiryJob, error) {
	if payments == nil {
		return nil, fmt.Errorf("payments service required")
	}
	if pendingTTL <= 0 {
		return nil, fmt.Errorf("pending ttl must be positive")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &PaymentExpiryJob{payments: payments, pendingTTL: pendingTTL, logg: logg}, nil
}

// Name implements Job.
func (j *PaymentExpiryJob) Name() string { return "pending_payment_expiry" }

// Run implements Job.
func (j *PaymentExpiryJob) Run(ctx context.Context) error {
	expired, err := j.payments.ExpirePending(ctx, j.pendingTTL)
	if err != nil {
		return fmt.Errorf("expire pending payments: %w", err)
	}
	if expired > 0 {
		j.logg.Info(j.logg.WithField(ctx, "expired", expired), "stale pending payments moved to unknown")
	}
	return nil
}
