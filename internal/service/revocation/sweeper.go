// Package revocation keeps the revoked refresh token registry small.
package revocation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nkiryanov/savingapp/internal/logger"
	"github.com/nkiryanov/savingapp/internal/repository"
)

const DefaultSchedule = "@every 1h"

// Sweeper purges registry entries whose tokens have expired anyway
type Sweeper struct {
	schedule string
	registry repository.RevocationRepo
	logger   logger.Logger
	now      func() time.Time
}

func NewSweeper(registry repository.RevocationRepo, schedule string, l logger.Logger) (*Sweeper, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &Sweeper{
		schedule: schedule,
		registry: registry,
		logger:   l.With("component", "revocation-sweeper"),
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Sweep once, returns number of purged entries
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	purged, err := s.registry.Purge(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("purging revoked tokens failed: %w", err)
	}
	return purged, nil
}

// Run sweeps by schedule until ctx is done.
// Returned channel is closed when the running sweep (if any) finished
func (s *Sweeper) Run(ctx context.Context) <-chan struct{} {
	idleStopped := make(chan struct{})

	c := cron.New(cron.WithChain(cron.Recover(cron.PrintfLogger(
		slog.NewLogLogger(logger.Slog(s.logger).Handler(), slog.LevelError),
	))))

	// Schedule validated in NewSweeper
	_, _ = c.AddFunc(s.schedule, func() {
		purged, err := s.Sweep(ctx)
		if err != nil {
			s.logger.Error("Sweep failed", "error", err)
			return
		}
		s.logger.Debug("Sweep finished", "purged", purged)
	})
	c.Start()
	s.logger.Info("Sweeper started", "schedule", s.schedule)

	go func() {
		defer close(idleStopped)
		<-ctx.Done()
		<-c.Stop().Done()
		s.logger.Debug("Sweeper stopped")
	}()

	return idleStopped
}
