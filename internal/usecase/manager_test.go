package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketBrief/internal/domain/models"
	drepo "MarketBrief/internal/domain/repository"
	"MarketBrief/internal/service/fred"
)

func newTestManager(t *testing.T, llm *fakeLLM, sources []drepo.NewsSource) (*NewsManager, *memContextStore, *memHistoryStore, *memPublisher) {
	t.Helper()
	store := newMemContextStore()
	history := &memHistoryStore{}
	events := &memPublisher{}
	agg := NewNewsAggregator(sources, nil, nil, testLogger(t))
	synth := NewNewsSynthesizer(llm, nil, testLogger(t))
	m := NewNewsManager(agg, synth, store, history, events, nil, testLogger(t))
	return m, store, history, events
}

func oneSource() []drepo.NewsSource {
	return []drepo.NewsSource{
		&fakeSource{name: models.SourceFRED, priority: PriorityFRED, enabled: true,
			data: []models.MarketNewsDatum{econDatum(fred.SeriesFedFunds, 5.5)}},
	}
}

func TestUpdateMarketContextPersists(t *testing.T) {
	llm := &fakeLLM{text: "Rates remain elevated."}
	m, store, history, events := newTestManager(t, llm, oneSource())

	require.NoError(t, m.UpdateMarketContext(context.Background(), models.TierStandard))

	row, err := store.Get(context.Background(), models.TierStandard, models.OriginAuto)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "Rates remain elevated.", row.ContextText)
	assert.False(t, row.ManualOverride)

	require.Len(t, history.entries, 1)
	assert.Equal(t, models.ChangeAutoUpdate, history.entries[0].ChangeType)
	assert.Equal(t, row.ContextText, history.entries[0].ContextText)
	assert.Empty(t, history.entries[0].ChangedBy)

	require.Len(t, events.events, 1)
	assert.Equal(t, EventContextUpdated, events.events[0].Kind)
	assert.Equal(t, models.TierStandard, events.events[0].Tier)
	assert.Equal(t, models.OriginAuto, events.events[0].Origin)
}

func TestUpdateMarketContextKeepsPreviousRowOnSynthesisFailure(t *testing.T) {
	llm := &fakeLLM{text: "First pass."}
	m, store, history, events := newTestManager(t, llm, oneSource())
	require.NoError(t, m.UpdateMarketContext(context.Background(), models.TierStandard))

	llm.err = errors.New("model overloaded")
	require.NoError(t, m.UpdateMarketContext(context.Background(), models.TierStandard),
		"a failed cycle is not an error, the previous row keeps serving")

	row, err := store.Get(context.Background(), models.TierStandard, models.OriginAuto)
	require.NoError(t, err)
	assert.Equal(t, "First pass.", row.ContextText)
	assert.Len(t, history.entries, 1)
	assert.Len(t, events.events, 1)
}

func TestUpdateMarketContextRejectsInvalidTier(t *testing.T) {
	m, _, _, _ := newTestManager(t, &fakeLLM{text: "x"}, oneSource())
	assert.Error(t, m.UpdateMarketContext(context.Background(), models.Tier("platinum")))
}

func TestUpdateMarketContextManual(t *testing.T) {
	m, store, history, events := newTestManager(t, &fakeLLM{text: "x"}, oneSource())

	err := m.UpdateMarketContextManual(context.Background(), models.TierPremium, "Holiday notice: markets closed.", "admin@example.com")
	require.NoError(t, err)

	row, err := store.Get(context.Background(), models.TierPremium, models.OriginManual)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "Holiday notice: markets closed.", row.ContextText)
	assert.True(t, row.ManualOverride)
	assert.Equal(t, "admin@example.com", row.LastEditedBy)
	assert.NotNil(t, row.DataSources)
	assert.Empty(t, row.DataSources)
	assert.NotNil(t, row.KeyEvents)
	assert.Empty(t, row.KeyEvents)
	assert.Equal(t, []models.Tier{models.TierPremium}, row.AvailableTiers)

	require.Len(t, history.entries, 1)
	assert.Equal(t, models.ChangeManualEdit, history.entries[0].ChangeType)
	assert.Equal(t, "admin@example.com", history.entries[0].ChangedBy)

	require.Len(t, events.events, 1)
	assert.Equal(t, models.ChangeManualEdit, events.events[0].ChangeType)
}

func TestUpdateMarketContextManualValidation(t *testing.T) {
	m, _, _, _ := newTestManager(t, &fakeLLM{text: "x"}, oneSource())
	assert.Error(t, m.UpdateMarketContextManual(context.Background(), models.TierPremium, "", "admin"))
	assert.Error(t, m.UpdateMarketContextManual(context.Background(), models.Tier("gold"), "text", "admin"))
}

func TestManualOverrideWinsUntilNextRefresh(t *testing.T) {
	llm := &fakeLLM{text: "Auto summary one."}
	m, _, _, _ := newTestManager(t, llm, oneSource())

	require.NoError(t, m.UpdateMarketContext(context.Background(), models.TierStandard))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, m.UpdateMarketContextManual(context.Background(), models.TierStandard, "Manual notice.", "admin"))

	got, err := m.GetMarketContext(context.Background(), models.TierStandard)
	require.NoError(t, err)
	assert.Equal(t, "Manual notice.", got, "newer manual row shadows the auto row")

	time.Sleep(2 * time.Millisecond)
	llm.text = "Auto summary two."
	require.NoError(t, m.UpdateMarketContext(context.Background(), models.TierStandard))

	got, err = m.GetMarketContext(context.Background(), models.TierStandard)
	require.NoError(t, err)
	assert.Equal(t, "Auto summary two.", got, "next auto refresh overtakes the override")
}

func TestGetMarketContextEmptyWhenNothingPersisted(t *testing.T) {
	m, _, _, _ := newTestManager(t, &fakeLLM{text: "x"}, oneSource())
	got, err := m.GetMarketContext(context.Background(), models.TierPremium)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetMarketContextHistoryLimit(t *testing.T) {
	m, _, history, _ := newTestManager(t, &fakeLLM{text: "x"}, oneSource())

	for i := 0; i < 60; i++ {
		entry := &models.MarketNewsHistoryEntry{
			ContextID:      "auto-standard",
			Tier:           models.TierStandard,
			Origin:         models.OriginAuto,
			ContextText:    fmt.Sprintf("revision %d", i),
			AvailableTiers: []models.Tier{models.TierStandard},
			ChangeType:     models.ChangeAutoUpdate,
			CreatedAt:      time.Now(),
		}
		require.NoError(t, history.Append(context.Background(), entry))
	}

	entries, err := m.GetMarketContextHistory(context.Background(), models.TierStandard)
	require.NoError(t, err)
	assert.Len(t, entries, 50)
	assert.Equal(t, "revision 59", entries[0].ContextText, "newest first")
}
