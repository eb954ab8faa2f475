package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/teamspaceapp/teamspace/internal/workspace/store"
)

// HousekeepingService periodically repairs the two crash windows in the
// delivery pipeline: PENDING rows whose enqueue was lost, and SENDING rows
// whose worker died mid-send.
type HousekeepingService struct {
	Store     store.Store
	Publisher Publisher
	Logger    *slog.Logger
	Interval  time.Duration

	// PendingRequeueAfter is how old a PENDING row must be before it is
	// re-enqueued. It must comfortably exceed normal queue latency so the
	// sweep never races a healthy worker.
	PendingRequeueAfter time.Duration
	// SendingFailAfter is how long a row may sit in SENDING before it is
	// written off as FAILED.
	SendingFailAfter time.Duration

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates the recovery sweeper. Zero or negative
// durations fall back to a 1 minute interval, 5 minute requeue age and
// 10 minute fail age.
func NewHousekeepingService(st store.Store, publisher Publisher, logger *slog.Logger, interval, pendingRequeueAfter, sendingFailAfter time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Minute
	}
	if pendingRequeueAfter <= 0 {
		pendingRequeueAfter = 5 * time.Minute
	}
	if sendingFailAfter <= 0 {
		sendingFailAfter = 10 * time.Minute
	}

	return &HousekeepingService{
		Store:               st,
		Publisher:           publisher,
		Logger:              logger,
		Interval:            interval,
		PendingRequeueAfter: pendingRequeueAfter,
		SendingFailAfter:    sendingFailAfter,
		stopCh:              make(chan struct{}),
		doneCh:              make(chan struct{}),
	}
}

// Start begins the background sweeper. Non-blocking; call Stop() to shut it
// down gracefully.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts down the sweeper. Blocks until an in-progress sweep finishes.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run a sweep immediately on startup to repair anything a previous
	// process left behind.
	s.Sweep(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Sweep(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Sweep runs both recovery passes once. Failures in one pass don't stop the
// other.
func (s *HousekeepingService) Sweep(ctx context.Context) {
	now := time.Now().UTC()

	stale, err := s.Store.Invitations().ListStalePending(ctx, now.Add(-s.PendingRequeueAfter))
	if err != nil {
		s.Logger.Error("failed to list stale pending invitations", "error", err)
	} else if len(stale) > 0 {
		ids := make([]string, 0, len(stale))
		for _, inv := range stale {
			ids = append(ids, inv.ID)
		}
		s.Publisher.PublishInvitations(ctx, ids)
		s.Logger.Info("re-enqueued stale pending invitations", "count", len(ids))
	}

	failed, err := s.Store.Invitations().FailStaleSending(ctx, now.Add(-s.SendingFailAfter))
	if err != nil {
		s.Logger.Error("failed to fail stale sending invitations", "error", err)
	} else if failed > 0 {
		s.Logger.Warn("failed stale sending invitations", "count", failed)
	}
}
