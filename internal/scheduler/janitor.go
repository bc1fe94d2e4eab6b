package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lenslabs/paperlens/internal/config"
)

// JobPurger removes finished jobs past their retention window
type JobPurger interface {
	DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Janitor periodically purges DONE/ERROR jobs older than the configured TTL.
// Disabled by default: the pipelines themselves never delete job state, so
// retention is an operator decision.
type Janitor struct {
	cfg    *config.Config
	purger JobPurger
	cron   *cron.Cron
}

// NewJanitor creates a new janitor
func NewJanitor(cfg *config.Config, purger JobPurger) *Janitor {
	return &Janitor{
		cfg:    cfg,
		purger: purger,
		cron:   cron.New(),
	}
}

// Start schedules the sweep according to configuration
func (j *Janitor) Start() error {
	if !j.cfg.JanitorEnabled {
		slog.Info("Janitor is disabled by configuration")
		return nil
	}

	if _, err := j.cron.AddFunc(j.cfg.JanitorSchedule, j.sweep); err != nil {
		return err
	}

	j.cron.Start()
	slog.Info("Janitor started",
		"schedule", j.cfg.JanitorSchedule,
		"job_ttl", j.cfg.JobTTL.String(),
	)
	return nil
}

// Stop halts scheduling and waits for an in-flight sweep to finish
func (j *Janitor) Stop(ctx context.Context) {
	stopped := j.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
		slog.Warn("Timed out waiting for janitor sweep to finish")
	}
}

func (j *Janitor) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().Add(-j.cfg.JobTTL)
	removed, err := j.purger.DeleteFinishedBefore(ctx, cutoff)
	if err != nil {
		slog.Error("Janitor sweep failed", "error", err.Error())
		return
	}

	if removed > 0 {
		slog.Info("Janitor removed expired jobs", "removed", removed, "cutoff", cutoff)
	}
}
