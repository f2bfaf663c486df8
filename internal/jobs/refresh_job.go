package jobs

import (
	"context"
	"fmt"

	"MarketBrief/internal/domain/models"
	"MarketBrief/internal/usecase"
	applogger "MarketBrief/pkg/logger"
	"MarketBrief/pkg/queue"
)

// TypeContextRefresh is the queue message type for one tier refresh.
const TypeContextRefresh = "context.refresh"

// ContextRefreshPayload carries the tier to refresh.
type ContextRefreshPayload struct {
	Tier string `json:"tier"`
}

// ContextRefreshJob runs one aggregate-synthesize-persist cycle for a tier.
// Running refreshes through the queue keeps provider calls off the request
// path and serializes work under the worker pool.
type ContextRefreshJob struct {
	manager *usecase.NewsManager
	l       *applogger.Logger
}

func NewContextRefreshJob(manager *usecase.NewsManager, l *applogger.Logger) *ContextRefreshJob {
	return &ContextRefreshJob{manager: manager, l: l}
}

func (j *ContextRefreshJob) Name() string { return "context_refresh" }
func (j *ContextRefreshJob) Type() string { return TypeContextRefresh }

func (j *ContextRefreshJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[ContextRefreshPayload](payload)
	if err != nil {
		return fmt.Errorf("parse refresh payload: %w", err)
	}
	tier, err := models.ParseTier(p.Tier)
	if err != nil {
		return err
	}
	j.l.Info("queued context refresh", applogger.String("tier", string(tier)))
	return j.manager.UpdateMarketContext(ctx, tier)
}

var _ queue.Job = (*ContextRefreshJob)(nil)
