package cron

import (
	"context"
	"fmt"

	"github.com/dopeevents/dopeevents-backend/pkg/logger"
)

// draftActivator is the slice of the merchandise service the job needs.
type draftActivator interface {
	ActivateDrafts(ctx context.Context) (int64, error)
}

// MerchandiseActivationJob publishes stocked draft merchandise.
type MerchandiseActivationJob struct {
	merch draftActivator
	logg  *logger.Logger
}

// NewMerchandiseActivationJob builds the draft activation job.
func NewMerchandiseActivationJob(merch draftActivator, logg *logger.Logger) (*MerchandiseActivationJob, error) {
	if merch == nil {
		return nil, fmt.Errorf("merchandise service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &MerchandiseActivationJob{merch: merch, logg: logg}, nil
}

// Name implements Job.
func (j *MerchandiseActivationJob) Name() string { return "merchandise_activation" }

// Run implements Job.
func (j *MerchandiseActivationJob) Run(ctx context.Context) error {
	activated, err := j.merch.ActivateDrafts(ctx)
	if err != nil {
		return fmt.Errorf("activate draft merchandise: %w", err)
	}
	if activated > 0 {
		j.logg.Info(j.logg.WithField(ctx, "activated", activated), "draft merchandise published")
	}
	return nil
}
