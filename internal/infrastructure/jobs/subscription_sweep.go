package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"lumikid.backend/pkg/gate"
	"lumikid.backend/pkg/logger"
	"lumikid.backend/pkg/metrics"
)

// GateOpSubscriptionSweep names the busy-flag slot guarding the sweep.
const GateOpSubscriptionSweep = "subscription_sweep"

// Sweeper reconciles every account's subscription
type Sweeper interface {
	SweepAll(ctx context.Context) error
}

// SubscriptionSweep runs the daily subscription reconciliation at UTC
// midnight. The busy-flag gate rejects an overlapping run instead of
// queueing it.
type SubscriptionSweep struct {
	sweeper Sweeper
	gate    *gate.Gate
	cron    *cron.Cron
}

// NewSubscriptionSweep creates the sweep job
func NewSubscriptionSweep(sweeper Sweeper, g *gate.Gate) *SubscriptionSweep {
	return &SubscriptionSweep{
		sweeper: sweeper,
		gate:    g,
		cron:    cron.New(cron.WithLocation(time.UTC)),
	}
}

// Start schedules the daily run and fires one sweep immediately so a restart
// never leaves lapsed subscriptions waiting until midnight.
func (j *SubscriptionSweep) Start(ctx context.Context) error {
	if _, err := j.cron.AddFunc("0 0 * * *", func() { j.run(ctx) }); err != nil {
		return err
	}
	j.cron.Start()

	go j.run(ctx)
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish
func (j *SubscriptionSweep) Stop() {
	<-j.cron.Stop().Done()
}

func (j *SubscriptionSweep) run(ctx context.Context) {
	err := j.gate.Do(GateOpSubscriptionSweep, func() error {
		logger.Info(ctx, "subscription sweep started")
		metrics.SweepRuns.Inc()
		return j.sweeper.SweepAll(ctx)
	})
	switch {
	case err == nil:
		logger.Info(ctx, "subscription sweep finished")
	case errors.Is(err, gate.ErrBusy):
		logger.Warn(ctx, "subscription sweep skipped: previous run still in progress")
	default:
		metrics.SweepFailures.Inc()
		logger.Error(ctx, "subscription sweep failed", zap.Error(err))
	}
}
