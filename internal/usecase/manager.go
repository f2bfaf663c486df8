package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"MarketBrief/internal/domain/models"
	drepo "MarketBrief/internal/domain/repository"
	applogger "MarketBrief/pkg/logger"
)

// historyPageSize caps how many ledger rows a single read returns.
const historyPageSize = 50

// NewsManager runs the aggregate-synthesize-persist pipeline and supports
// manual admin overrides with an audit trail. It is the only writer of
// persisted context rows and history entries.
type NewsManager struct {
	agg     *NewsAggregator
	synth   *NewsSynthesizer
	store   drepo.ContextStore
	history drepo.HistoryStore
	events  drepo.EventPublisher
	metrics drepo.Metrics
	l       *applogger.Logger
}

// NewNewsManager creates the manager.
func NewNewsManager(
	agg *NewsAggregator,
	synth *NewsSynthesizer,
	store drepo.ContextStore,
	history drepo.HistoryStore,
	events drepo.EventPublisher,
	metrics drepo.Metrics,
	l *applogger.Logger,
) *NewsManager {
	return &NewsManager{agg: agg, synth: synth, store: store, history: history, events: events, metrics: metrics, l: l}
}

// UpdateMarketContext refreshes the auto-generated context row for a tier.
// Provider and LLM failures are logged and absorbed; the previous row keeps
// serving and the schedule decides when to retry.
func (m *NewsManager) UpdateMarketContext(ctx context.Context, tier models.Tier) error {
	if !models.IsValidTier(tier) {
		return fmt.Errorf("invalid tier %q", tier)
	}

	data := m.agg.AggregateMarketData(ctx)
	if len(data) == 0 {
		m.l.Warn("no fresh market data this cycle", applogger.String("tier", string(tier)))
	}

	row, err := m.synth.SynthesizeMarketContext(ctx, data, tier)
	if err != nil {
		if errors.Is(err, ErrSynthesisFailed) {
			// keep the previous row; nothing to persist this cycle
			return nil
		}
		return err
	}

	if err := m.store.Upsert(ctx, row); err != nil {
		return fmt.Errorf("upsert context %s: %w", tier, err)
	}
	m.appendHistory(ctx, row, models.ChangeAutoUpdate, "")
	m.publish(ctx, row, models.ChangeAutoUpdate)
	if m.metrics != nil {
		m.metrics.RecordContextRefresh(string(tier))
	}
	m.l.Info("market context refreshed",
		applogger.String("tier", string(tier)),
		applogger.Int("sources", len(row.DataSources)),
		applogger.Int("key_events", len(row.KeyEvents)))
	return nil
}

// UpdateMarketContextManual upserts the manual-override row for a tier. The
// manual row coexists with the auto row; serving picks whichever was updated
// last, so the override wins until the next auto refresh overtakes it.
func (m *NewsManager) UpdateMarketContextManual(ctx context.Context, tier models.Tier, text, adminUser string) error {
	if !models.IsValidTier(tier) {
		return fmt.Errorf("invalid tier %q", tier)
	}
	if text == "" {
		return fmt.Errorf("manual context text is required")
	}

	row := &models.MarketNewsContext{
		Tier:           tier,
		Origin:         models.OriginManual,
		ContextText:    text,
		DataSources:    []string{},
		KeyEvents:      []string{},
		AvailableTiers: []models.Tier{tier},
		ManualOverride: true,
		LastEditedBy:   adminUser,
		LastUpdate:     time.Now(),
	}
	if err := m.store.Upsert(ctx, row); err != nil {
		return fmt.Errorf("upsert manual context %s: %w", tier, err)
	}
	m.appendHistory(ctx, row, models.ChangeManualEdit, adminUser)
	m.publish(ctx, row, models.ChangeManualEdit)
	m.l.Info("manual market context saved",
		applogger.String("tier", string(tier)),
		applogger.String("admin", adminUser))
	return nil
}

// GetMarketContext returns the most-recently-updated context text serving the
// tier, or an empty string when none has been persisted yet.
func (m *NewsManager) GetMarketContext(ctx context.Context, tier models.Tier) (string, error) {
	if !models.IsValidTier(tier) {
		return "", fmt.Errorf("invalid tier %q", tier)
	}
	row, err := m.store.Latest(ctx, tier)
	if err != nil {
		return "", fmt.Errorf("load context %s: %w", tier, err)
	}
	if row == nil {
		return "", nil
	}
	return row.ContextText, nil
}

// GetMarketContextHistory returns up to 50 most recent ledger entries whose
// parent context serves the tier, newest first.
func (m *NewsManager) GetMarketContextHistory(ctx context.Context, tier models.Tier) ([]models.MarketNewsHistoryEntry, error) {
	if !models.IsValidTier(tier) {
		return nil, fmt.Errorf("invalid tier %q", tier)
	}
	return m.history.Recent(ctx, tier, historyPageSize)
}

func (m *NewsManager) appendHistory(ctx context.Context, row *models.MarketNewsContext, change models.ChangeType, by string) {
	entry := &models.MarketNewsHistoryEntry{
		ContextID:      row.ID(),
		Tier:           row.Tier,
		Origin:         row.Origin,
		ContextText:    row.ContextText,
		DataSources:    row.DataSources,
		KeyEvents:      row.KeyEvents,
		AvailableTiers: row.AvailableTiers,
		ChangeType:     change,
		ChangedBy:      by,
		CreatedAt:      time.Now(),
	}
	if err := m.history.Append(ctx, entry); err != nil {
		// ledger write failure must not lose the context row
		m.l.Error("history append failed", applogger.String("tier", string(row.Tier)), applogger.Error(err))
	}
}

func (m *NewsManager) publish(ctx context.Context, row *models.MarketNewsContext, change models.ChangeType) {
	if m.events == nil {
		return
	}
	ev := &models.ContextEvent{
		Kind:       EventContextUpdated,
		Tier:       row.Tier,
		Origin:     row.Origin,
		ChangeType: change,
		At:         time.Now(),
	}
	if err := m.events.Publish(ctx, ev); err != nil {
		m.l.Warn("context event publish failed", applogger.Error(err))
	}
}
