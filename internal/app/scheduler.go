package app

import (
	"context"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/mexicorn/podium/internal/platform/logging"
	"github.com/mexicorn/podium/internal/usecase"
)

// SyncScheduler runs the reconciliation pass periodically, replacing an
// external cron for deployments that do not call the internal job route.
type SyncScheduler struct {
	syncService *usecase.SyncService
	interval    time.Duration
	// year pins the season to sync; zero means the current year at each tick.
	year   int
	logger *logging.Logger
	wg     conc.WaitGroup
	now    func() time.Time
}

func NewSyncScheduler(syncService *usecase.SyncService, interval time.Duration, year int, logger *logging.Logger) *SyncScheduler {
	if logger == nil {
		logger = logging.Default()
	}
	if interval <= 0 {
		interval = time.Hour
	}

	return &SyncScheduler{
		syncService: syncService,
		interval:    interval,
		year:        year,
		logger:      logger,
		now:         time.Now,
	}
}

// Start launches the periodic loop. The first pass runs immediately; the
// loop stops when ctx is cancelled.
func (s *SyncScheduler) Start(ctx context.Context) {
	s.wg.Go(func() {
		s.runOnce(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("sync scheduler stopping")
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	})
}

// Wait blocks until the loop goroutine has exited.
func (s *SyncScheduler) Wait() {
	s.wg.Wait()
}

func (s *SyncScheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	year := s.year
	if year <= 0 {
		year = s.now().UTC().Year()
	}

	summary := s.syncService.SyncYear(ctx, year)
	if len(summary.Errors) > 0 {
		s.logger.WarnContext(ctx, "scheduled sync finished with errors",
			"year", year, "errors", summary.Errors)
	}
}
