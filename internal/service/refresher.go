package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// RenewalRefresher periodically persists derived full-crew statuses.
type RenewalRefresher struct {
	contracts ContractService
	interval  time.Duration
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewRenewalRefresher(contracts ContractService, interval time.Duration, log logrus.FieldLogger) *RenewalRefresher {
	return &RenewalRefresher{contracts: contracts, interval: interval, log: log, now: utcNow}
}

// RunOnce refreshes every contract against the current time.
func (r *RenewalRefresher) RunOnce(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "RenewalRefresher.RunOnce")
	defer span.End()

	n, err := r.contracts.RefreshDerived(ctx, r.now())
	span.SetAttributes(attribute.Int("contracts.updated", n))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		r.log.WithError(err).Error("refresh derived statuses failed")
		return n, err
	}
	r.log.WithField("updated", n).Debug("derived statuses refreshed")
	return n, nil
}

// Run ticks until ctx is cancelled. It returns immediately when the interval
// is not positive.
func (r *RenewalRefresher) Run(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.WithField("interval", r.interval.String()).Info("renewal refresher started")
	for {
		select {
		case <-ctx.Done():
			r.log.Info("renewal refresher stopped")
			return
		case <-ticker.C:
			_, _ = r.RunOnce(ctx)
		}
	}
}
