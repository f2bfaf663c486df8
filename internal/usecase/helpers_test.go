package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"MarketBrief/internal/domain/models"
	applogger "MarketBrief/pkg/logger"
)

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func econDatum(series string, value float64) models.MarketNewsDatum {
	return models.MarketNewsDatum{
		Source:    models.SourceFRED,
		Timestamp: time.Now(),
		Type:      models.DatumEconomicIndicator,
		Relevance: scoreEconomicIndicator(series, value),
		Economic:  &models.EconomicIndicatorRecord{Series: series, Value: value, ObservationDate: "2025-07-01"},
	}
}

func newsDatum(title string) models.MarketNewsDatum {
	return models.MarketNewsDatum{
		Source:    models.SourceBraveSearch,
		Timestamp: time.Now(),
		Type:      models.DatumNewsArticle,
		Relevance: scoreNewsArticle(title, "", ""),
		News:      &models.NewsRecord{Title: title},
	}
}

func marketDatum(symbol string, pct float64) models.MarketNewsDatum {
	return models.MarketNewsDatum{
		Source:    models.SourcePolygon,
		Timestamp: time.Now(),
		Type:      models.DatumMarketData,
		Relevance: scoreMarketData(pct),
		Market:    &models.MarketDataRecord{Symbol: symbol, Price: 100, PercentChange: pct},
	}
}

func rateDatum(term string, rate float64) models.MarketNewsDatum {
	return models.MarketNewsDatum{
		Source:    models.SourceAlphaVantage,
		Timestamp: time.Now(),
		Type:      models.DatumRateInformation,
		Relevance: scoreRateInformation(rate),
		Rate:      &models.RateRecord{Category: "treasury", Term: term, Rate: rate},
	}
}

// fakeLLM records calls and returns canned output.
type fakeLLM struct {
	mu    sync.Mutex
	calls int
	text  string
	err   error
}

func (f *fakeLLM) Synthesize(ctx context.Context, system, prompt string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.text, f.err
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeSource is a configurable aggregation source.
type fakeSource struct {
	name     string
	priority int
	enabled  bool
	data     []models.MarketNewsDatum
	err      error
	calls    int
	callAt   []time.Time
}

func (s *fakeSource) Name() string  { return s.name }
func (s *fakeSource) Priority() int { return s.priority }
func (s *fakeSource) Enabled() bool { return s.enabled }

func (s *fakeSource) Fetch(ctx context.Context) ([]models.MarketNewsDatum, error) {
	s.calls++
	s.callAt = append(s.callAt, time.Now())
	return s.data, s.err
}

// fakeEcon implements EconomicDataSource.
type fakeEcon struct {
	mu    sync.Mutex
	snap  *models.EconomicIndicators
	err   error
	calls int
}

func (f *fakeEcon) Indicators(ctx context.Context, demo bool) (*models.EconomicIndicators, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.snap, nil
}

func (f *fakeEcon) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeLive implements LiveMarketDataSource.
type fakeLive struct {
	snap  *models.LiveMarketData
	err   error
	calls int
}

func (f *fakeLive) LiveMarketData(ctx context.Context, demo bool) (*models.LiveMarketData, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.snap, nil
}

// fakeSearch implements SearchSource and records call timestamps.
type fakeSearch struct {
	mu      sync.Mutex
	results []models.SearchResult
	err     error
	callAt  []time.Time
}

func (f *fakeSearch) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	f.mu.Lock()
	f.callAt = append(f.callAt, time.Now())
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func (f *fakeSearch) callTimes() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]time.Time, len(f.callAt))
	copy(out, f.callAt)
	return out
}

// memContextStore is an in-memory ContextStore mirroring the repository's
// last-write-wins contract.
type memContextStore struct {
	mu   sync.Mutex
	rows map[string]*models.MarketNewsContext
}

func newMemContextStore() *memContextStore {
	return &memContextStore{rows: make(map[string]*models.MarketNewsContext)}
}

func (s *memContextStore) Upsert(ctx context.Context, row *models.MarketNewsContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := string(row.Tier) + "/" + string(row.Origin)
	if cur, ok := s.rows[key]; ok && cur.LastUpdate.After(row.LastUpdate) {
		return nil
	}
	cp := *row
	s.rows[key] = &cp
	return nil
}

func (s *memContextStore) Get(ctx context.Context, tier models.Tier, origin models.ContextOrigin) (*models.MarketNewsContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[string(tier)+"/"+string(origin)]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (s *memContextStore) Latest(ctx context.Context, tier models.Tier) (*models.MarketNewsContext, error) {
	var latest *models.MarketNewsContext
	for _, origin := range []models.ContextOrigin{models.OriginAuto, models.OriginManual} {
		row, _ := s.Get(ctx, tier, origin)
		if row == nil || !row.ServesTier(tier) {
			continue
		}
		if latest == nil || row.LastUpdate.After(latest.LastUpdate) {
			latest = row
		}
	}
	return latest, nil
}

func (s *memContextStore) Health(ctx context.Context) error { return nil }

// memHistoryStore is an append-only in-memory ledger.
type memHistoryStore struct {
	mu      sync.Mutex
	entries []models.MarketNewsHistoryEntry
}

func (s *memHistoryStore) Append(ctx context.Context, e *models.MarketNewsHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *e)
	return nil
}

func (s *memHistoryStore) Recent(ctx context.Context, tier models.Tier, limit int) ([]models.MarketNewsHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.MarketNewsHistoryEntry
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		for _, at := range s.entries[i].AvailableTiers {
			if at == tier {
				out = append(out, s.entries[i])
				break
			}
		}
	}
	return out, nil
}

func (s *memHistoryStore) Health(ctx context.Context) error { return nil }

// memPublisher records published events.
type memPublisher struct {
	mu     sync.Mutex
	events []models.ContextEvent
}

func (p *memPublisher) Publish(ctx context.Context, ev *models.ContextEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *ev)
	return nil
}

func (p *memPublisher) Close() error { return nil }
