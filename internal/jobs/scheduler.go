package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"MarketBrief/internal/domain/models"
	"MarketBrief/internal/usecase"
	"MarketBrief/pkg/config"
	applogger "MarketBrief/pkg/logger"
	"MarketBrief/pkg/queue"
)

// refreshCycleTimeout bounds one full scheduled cycle, providers included.
const refreshCycleTimeout = 5 * time.Minute

// Scheduler drives the hourly refresh. Each tick rebuilds the formatted
// context cache for every (tier, demo) pair and enqueues one persisted
// refresh job per tier for the worker pool.
type Scheduler struct {
	cron  *cron.Cron
	orch  *usecase.DataOrchestrator
	queue queue.QueueService
	l     *applogger.Logger
}

// NewScheduler builds the cron runner in the configured timezone so the
// schedule tracks market hours across DST changes.
func NewScheduler(cfg config.SchedulerConfig, orch *usecase.DataOrchestrator, q queue.QueueService, l *applogger.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	s := &Scheduler{
		cron:  cron.New(cron.WithLocation(loc)),
		orch:  orch,
		queue: q,
		l:     l,
	}
	if _, err := s.cron.AddFunc(cfg.Cron, s.runCycle); err != nil {
		return nil, fmt.Errorf("register refresh schedule %q: %w", cfg.Cron, err)
	}
	return s, nil
}

// Start begins the schedule; the first run happens at the next tick, not
// immediately.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.l.Info("refresh scheduler started")
}

// Stop halts the schedule and waits for a running cycle to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) runCycle() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshCycleTimeout)
	defer cancel()

	start := time.Now()
	s.orch.ForceRefreshAllContext(ctx)

	for _, tier := range models.AllTiers() {
		payload := ContextRefreshPayload{Tier: string(tier)}
		if err := s.queue.PublishMessage(ctx, TypeContextRefresh, payload); err != nil {
			s.l.Error("enqueue refresh failed", applogger.String("tier", string(tier)), applogger.Error(err))
		}
	}
	stats := s.orch.GetCacheStats()
	s.l.Info("scheduled refresh cycle done",
		applogger.Duration("took", time.Since(start)),
		applogger.Int("cached_entries", stats.Size),
		applogger.Int("context_entries", stats.MarketContextCache.Size))
}
