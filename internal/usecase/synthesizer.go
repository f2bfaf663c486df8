package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"MarketBrief/internal/domain/models"
	drepo "MarketBrief/internal/domain/repository"
	domsvc "MarketBrief/internal/domain/service"
	"MarketBrief/internal/service/fred"
	applogger "MarketBrief/pkg/logger"
)

// ErrSynthesisFailed marks an LLM failure for this cycle. Callers keep
// serving the previous persisted context; the scheduled job retries next run.
var ErrSynthesisFailed = errors.New("synthesis failed")

// standardSources is the strict allow-list for the STANDARD tier.
var standardSources = map[string]bool{
	models.SourceFRED:        true,
	models.SourceBraveSearch: true,
}

// NewsSynthesizer turns an aggregated data list into tier-appropriate
// narrative text plus deterministic structured metadata.
type NewsSynthesizer struct {
	llm     domsvc.TextSynthesizer
	metrics drepo.Metrics
	l       *applogger.Logger
}

// NewNewsSynthesizer creates the synthesizer.
func NewNewsSynthesizer(llm domsvc.TextSynthesizer, metrics drepo.Metrics, l *applogger.Logger) *NewsSynthesizer {
	return &NewsSynthesizer{llm: llm, metrics: metrics, l: l}
}

// SynthesizeMarketContext filters data for the tier, asks the LLM for a
// structured summary, and extracts rule-based key events independent of the
// LLM output. A nil error always carries a complete context row.
func (s *NewsSynthesizer) SynthesizeMarketContext(ctx context.Context, data []models.MarketNewsDatum, tier models.Tier) (*models.MarketNewsContext, error) {
	if !models.IsValidTier(tier) {
		return nil, fmt.Errorf("invalid tier %q", tier)
	}

	filtered := FilterByTier(data, tier)
	row := &models.MarketNewsContext{
		Tier:           tier,
		Origin:         models.OriginAuto,
		DataSources:    DataSources(filtered),
		KeyEvents:      ExtractKeyEvents(filtered),
		AvailableTiers: []models.Tier{tier},
		LastUpdate:     time.Now(),
	}
	if raw, err := json.Marshal(filtered); err == nil {
		row.RawData = string(raw)
	}

	if len(filtered) == 0 {
		// nothing to narrate; no LLM call for an empty list
		row.ContextText = "No market news is available for this subscription tier."
		return row, nil
	}

	start := time.Now()
	text, err := s.llm.Synthesize(ctx, synthesisSystemPrompt, buildPrompt(filtered))
	if err != nil {
		s.l.Warn("market context synthesis failed", applogger.String("tier", string(tier)), applogger.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}
	if s.metrics != nil {
		s.metrics.RecordSynthesis(string(tier), time.Since(start).Seconds())
	}
	row.ContextText = text
	return row, nil
}

// FilterByTier applies the strict allow-list: STARTER sees nothing, STANDARD
// sees economic-data and search sources only, PREMIUM sees everything.
func FilterByTier(data []models.MarketNewsDatum, tier models.Tier) []models.MarketNewsDatum {
	switch tier {
	case models.TierStarter:
		return nil
	case models.TierStandard:
		var out []models.MarketNewsDatum
		for _, d := range data {
			if standardSources[d.Source] {
				out = append(out, d)
			}
		}
		return out
	default:
		return data
	}
}

// DataSources returns the de-duplicated source set of the filtered list, in
// first-seen order.
func DataSources(data []models.MarketNewsDatum) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, d := range data {
		if !seen[d.Source] {
			seen[d.Source] = true
			out = append(out, d.Source)
		}
	}
	return out
}

// ExtractKeyEvents derives deterministic one-line facts from raw indicator
// values crossing fixed thresholds. CPI here is the index level; the
// orchestrator's insight rules use the YoY percentage and the two threshold
// sets are intentionally distinct.
func ExtractKeyEvents(data []models.MarketNewsDatum) []string {
	events := []string{}
	for _, d := range data {
		if d.Type != models.DatumEconomicIndicator || d.Economic == nil {
			continue
		}
		v := d.Economic.Value
		switch d.Economic.Series {
		case fred.SeriesFedFunds:
			if v > 5 {
				events = append(events, fmt.Sprintf("Federal Reserve rate at %s%% - high interest rate environment", formatRate(v)))
			}
		case fred.SeriesCPI:
			if v > 300 {
				events = append(events, fmt.Sprintf("Consumer Price Index at %s - elevated inflation raising cost of living", formatRate(v)))
			}
		case fred.SeriesMortgage30:
			if v > 7 {
				events = append(events, fmt.Sprintf("30-year mortgage rate at %s%% - high mortgage rates impacting housing market", formatRate(v)))
			}
		}
	}
	return events
}

const synthesisSystemPrompt = "You are a financial market analyst writing a briefing " +
	"for a personal-finance assistant. Be factual and concise; do not invent figures."

// buildPrompt renders the filtered data under fixed headings the model must
// mirror in its answer.
func buildPrompt(data []models.MarketNewsDatum) string {
	var b strings.Builder
	b.WriteString("Summarize the following market data in at most 800 words, ")
	b.WriteString("structured under exactly these headings: ECONOMIC INDICATORS, ")
	b.WriteString("MARKET TRENDS, KEY DEVELOPMENTS, MARKET OUTLOOK.\n\nDATA:\n")
	for _, d := range data {
		switch d.Type {
		case models.DatumEconomicIndicator:
			fmt.Fprintf(&b, "- [%s] %s = %s (observed %s)\n", d.Source, d.Economic.Series, formatRate(d.Economic.Value), d.Economic.ObservationDate)
		case models.DatumMarketData:
			fmt.Fprintf(&b, "- [%s] %s price %.2f, change %.2f%%\n", d.Source, d.Market.Symbol, d.Market.Price, d.Market.PercentChange)
		case models.DatumNewsArticle:
			fmt.Fprintf(&b, "- [%s] %q: %s\n", d.Source, d.News.Title, d.News.Snippet)
		case models.DatumRateInformation:
			fmt.Fprintf(&b, "- [%s] %s %s rate %s%%\n", d.Source, d.Rate.Category, d.Rate.Term, formatRate(d.Rate.Rate))
		}
	}
	return b.String()
}

// formatRate trims trailing zeros: 5.50 renders as "5.5", 5.0 as "5".
func formatRate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
