package usecase

import (
	"fmt"
	"strings"
	"time"

	"MarketBrief/internal/domain/models"
)

// Insight thresholds. CPI here is the year-over-year percentage, not the
// index level the key-event rules use.
const (
	insightFedRateAbove  = 5.0
	insightCPIYoYAbove   = 3.2
	insightMortgageAbove = 7.0
	insightCDRateAtLeast = 5.0
)

const contextClosing = "Use this current market context to provide informed financial advice and recommendations."

// formatMarketContext renders the deterministic prompt-injection block.
// Sections for data that is nil are omitted entirely; KEY INSIGHTS and the
// closing instruction always appear.
func formatMarketContext(now time.Time, tier models.Tier, ind *models.EconomicIndicators, live *models.LiveMarketData) string {
	sections := []string{
		fmt.Sprintf("CURRENT MARKET CONTEXT (Updated: %s):", now.Format("1/2/2006, 3:04:05 PM")),
	}
	if ind != nil {
		sections = append(sections, formatIndicators(ind))
	}
	if tier == models.TierPremium && live != nil {
		if s := formatLiveData(live); s != "" {
			sections = append(sections, s)
		}
	}
	sections = append(sections, formatKeyInsights(ind, live), contextClosing)
	return strings.Join(sections, "\n\n")
}

func formatIndicators(ind *models.EconomicIndicators) string {
	lines := []string{
		"ECONOMIC INDICATORS:",
		fmt.Sprintf("- Fed Funds Rate: %s%%", formatRate(ind.FedRate.Value)),
		fmt.Sprintf("- CPI (YoY): %s%%", formatRate(ind.CPIYoY.Value)),
		fmt.Sprintf("- 30-Year Mortgage Rate: %s%%", formatRate(ind.MortgageRate.Value)),
		fmt.Sprintf("- Average Credit Card APR: %s%%", formatRate(ind.CreditCardAPR.Value)),
	}
	return strings.Join(lines, "\n")
}

func formatLiveData(live *models.LiveMarketData) string {
	lines := []string{"LIVE MARKET DATA:"}
	if len(live.CDRates) > 0 {
		parts := make([]string, 0, len(live.CDRates))
		for _, cd := range live.CDRates {
			parts = append(parts, fmt.Sprintf("%s: %s%%", cd.Term, formatRate(cd.Rate)))
		}
		lines = append(lines, "- CD Rates: "+strings.Join(parts, ", "))
	}
	if len(live.TreasuryYields) > 0 {
		parts := make([]string, 0, len(live.TreasuryYields))
		for _, ty := range live.TreasuryYields {
			parts = append(parts, fmt.Sprintf("%s: %s%%", ty.Maturity, formatRate(ty.Yield)))
		}
		lines = append(lines, "- Treasury Yields: "+strings.Join(parts, ", "))
	}
	if len(live.MortgageRates) > 0 {
		parts := make([]string, 0, len(live.MortgageRates))
		for _, mr := range live.MortgageRates {
			parts = append(parts, fmt.Sprintf("%s: %s%%", mr.Type, formatRate(mr.Rate)))
		}
		lines = append(lines, "- Mortgage Rates: "+strings.Join(parts, ", "))
	}
	if len(lines) == 1 {
		return ""
	}
	return strings.Join(lines, "\n")
}

// formatKeyInsights applies the strict-comparison advisory rules. When no
// rule fires the section still appears with a neutral line.
func formatKeyInsights(ind *models.EconomicIndicators, live *models.LiveMarketData) string {
	insights := []string{}
	if ind != nil {
		if ind.FedRate.Value > insightFedRateAbove {
			insights = append(insights, "High interest rates favor savers - consider high-yield savings accounts and CDs.")
		}
		if ind.CPIYoY.Value > insightCPIYoYAbove {
			insights = append(insights, "Elevated inflation suggests TIPS and other inflation-protected investments may be beneficial.")
		}
		if ind.MortgageRate.Value > insightMortgageAbove {
			insights = append(insights, "High mortgage rates suggest waiting for rate drops or exploring refinancing opportunities.")
		}
	}
	if live != nil {
		for _, cd := range live.CDRates {
			if cd.Rate >= insightCDRateAtLeast {
				insights = append(insights, "High-yield CD rates available - consider laddering CDs for steady income.")
				break
			}
		}
	}
	if len(insights) == 0 {
		insights = append(insights, "Market conditions are within normal ranges - maintain a diversified approach.")
	}
	lines := []string{"KEY INSIGHTS:"}
	for _, in := range insights {
		lines = append(lines, "- "+in)
	}
	return strings.Join(lines, "\n")
}

// formatSearchSummary renders the numbered digest injected into chat prompts.
func formatSearchSummary(query string, results []models.SearchResult, max int) string {
	if len(results) == 0 {
		return fmt.Sprintf("No recent information found for %q.", query)
	}
	if max > 0 && len(results) > max {
		results = results[:max]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Latest real-time information for %q:\n", query)
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s", i+1, r.Title)
		if r.Snippet != "" {
			fmt.Fprintf(&b, " - %s", r.Snippet)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
