package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/clickmarket/clickmarket-backend/pkg/logger"
	"github.com/clickmarket/clickmarket-backend/pkg/metrics"
)

const cartSweepJobName = "cart-sweep"

type guestCartSweeper interface {
	DeleteGuestCartsIdleSince(ctx context.Context, cutoff time.Time) (int64, error)
}

// CartSweepJobParams configure the guest cart sweeper.
type CartSweepJobParams struct {
	Logger  *logger.Logger
	Carts   guestCartSweeper
	TTL     time.Duration
	Metrics *metrics.CronJobMetrics
}

// NewCartSweepJob builds the cron job that deletes idle guest carts.
// Carts attached to a user account are never swept.
func NewCartSweepJob(params CartSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart sweeper required")
	}
	if params.TTL <= 0 {
		return nil, fmt.Errorf("guest cart ttl must be positive")
	}
	return &cartSweepJob{
		logg:    params.Logger,
		carts:   params.Carts,
		ttl:     params.TTL,
		metrics: params.Metrics,
		now:     time.Now,
	}, nil
}

type cartSweepJob struct {
	logg    *logger.Logger
	carts   guestCartSweeper
	ttl     time.Duration
	metrics *metrics.CronJobMetrics
	now     func() time.Time
}

func (j *cartSweepJob) Name() string { return cartSweepJobName }

func (j *cartSweepJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	swept, err := j.carts.DeleteGuestCartsIdleSince(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("sweep guest carts: %w", err)
	}
	if j.metrics != nil {
		j.metrics.AddSwept(cartSweepJobName, int(swept))
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"count":  swept,
		"cutoff": cutoff.Format(time.RFC3339),
	})
	j.logg.Info(logCtx, "guest cart sweep complete")
	return nil
}
