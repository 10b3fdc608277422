package ingest

import (
	"context"
	"time"

	"dms-backend/internal/shared/metrics"
	"dms-backend/internal/shared/telemetry"
)

// Poller drives the pipeline on a fixed interval. Cycle errors are logged
// and counted; the loop only stops on context cancellation.
type Poller struct {
	Pipeline *Pipeline

	Enabled      bool
	Interval     time.Duration
	StartupDelay time.Duration
}

// Run blocks until ctx is canceled. When polling is disabled it returns
// immediately with nil.
func (p *Poller) Run(ctx context.Context) error {
	if !p.Enabled {
		telemetry.Info("ingestion polling disabled", nil)
		return nil
	}

	interval := p.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	telemetry.Info("ingestion poller starting", map[string]any{
		"intervalSeconds":     interval.Seconds(),
		"startupDelaySeconds": p.StartupDelay.Seconds(),
		"inboxPrefix":         p.Pipeline.InboxPrefix,
	})

	if p.StartupDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.StartupDelay):
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := p.Pipeline.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			metrics.IncIngestCycleError()
			telemetry.Error("ingest cycle failed", map[string]any{"error": err.Error()})
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
