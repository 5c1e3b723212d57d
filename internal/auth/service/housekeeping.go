package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/campuskit/portalauth/internal/auth/store"
)

// HousekeepingService periodically prunes the audit trail so the auth_events
// table does not grow without bound.
type HousekeepingService struct {
	Store         store.Store
	Logger        *slog.Logger
	Interval      time.Duration
	RetentionDays int

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service. A non-positive
// interval defaults to 1 hour, a non-positive retention to 90 days.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval time.Duration, retentionDays int) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	if retentionDays <= 0 {
		retentionDays = 90
	}

	return &HousekeepingService{
		Store:         store,
		Logger:        logger,
		Interval:      interval,
		RetentionDays: retentionDays,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started",
		"interval", s.Interval, "retention_days", s.RetentionDays)
}

// Stop shuts down the worker and blocks until any in-progress cleanup finishes.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) cleanup() {
	ctx := context.Background()

	if err := s.Store.AuthEvents().DeleteOlderThan(ctx, s.RetentionDays); err != nil {
		s.Logger.Error("failed to prune auth events", "error", err)
		return
	}
	s.Logger.Debug("pruned auth events", "retention_days", s.RetentionDays)
}
