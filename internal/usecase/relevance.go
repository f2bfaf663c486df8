package usecase

import (
	"math"
	"strings"

	"MarketBrief/internal/service/fred"
)

// financialKeywords is the fixed list used to score news articles.
var financialKeywords = []string{
	"earnings", "revenue", "profit", "loss", "market", "economy",
	"inflation", "interest", "rate", "fed", "trading",
}

// headlineSeries are the series that carry a higher base relevance.
var headlineSeries = map[string]bool{
	fred.SeriesCPI:        true,
	fred.SeriesFedFunds:   true,
	fred.SeriesMortgage30: true,
}

// scoreEconomicIndicator ranks a series observation. Relevance increases
// monotonically with headline-worthiness: base 0.6-0.8, boosted when a
// threshold makes the reading newsworthy on its own.
func scoreEconomicIndicator(series string, value float64) float64 {
	score := 0.6
	if headlineSeries[series] {
		score = 0.8
	}
	switch series {
	case fred.SeriesFedFunds:
		if value > 5 {
			score = 1.0
		}
	case fred.SeriesCPI:
		// index level, not YoY percent
		if value > 300 {
			score = math.Max(score, 0.9)
		}
	case fred.SeriesMortgage30:
		if value > 7 {
			score = math.Max(score, 0.9)
		}
	}
	return score
}

// scoreNewsArticle ranks an article by the fraction of financial keywords
// found in title+snippet (weight 0.7) plus a 0.3 bonus when the literal
// query appears in the title. Capped at 1.0.
func scoreNewsArticle(title, snippet, query string) float64 {
	text := strings.ToLower(title + " " + snippet)
	hits := 0
	for _, kw := range financialKeywords {
		if strings.Contains(text, kw) {
			hits++
		}
	}
	score := float64(hits) / float64(len(financialKeywords)) * 0.7
	if query != "" && strings.Contains(strings.ToLower(title), strings.ToLower(query)) {
		score += 0.3
	}
	return math.Min(score, 1.0)
}

// scoreMarketData ranks a price move by magnitude: |percentChange|/10, capped.
func scoreMarketData(percentChange float64) float64 {
	return math.Min(1.0, math.Abs(percentChange)/10)
}

// scoreRateInformation ranks a published rate; high offers are headline-worthy.
func scoreRateInformation(rateValue float64) float64 {
	if rateValue > 5 {
		return 0.9
	}
	return 0.6
}
