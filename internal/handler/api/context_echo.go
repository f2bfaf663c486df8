package api

import (
	"encoding/json"
	"net/http"
	"time"

	models "MarketBrief/internal/domain/models"
	domrepo "MarketBrief/internal/domain/repository"
	icache "MarketBrief/internal/service/cache"
	"MarketBrief/internal/service/metrics"
	"MarketBrief/internal/service/ratelimit"
	"MarketBrief/internal/usecase"
	xhttp "MarketBrief/pkg/http"
	xlogger "MarketBrief/pkg/logger"

	"github.com/labstack/echo/v4"
)

// historyCacheTTL bounds staleness of the cached history response.
const historyCacheTTL = 30 * time.Second

// ContextEchoHandler exposes the market-context API: tier-scoped context
// reads, on-demand search context, admin overrides with history, and cache
// diagnostics.
type ContextEchoHandler struct {
	logger  *xlogger.Logger
	orch    *usecase.DataOrchestrator
	manager *usecase.NewsManager
	events  domrepo.EventPublisher
	store   domrepo.ContextStore
	history domrepo.HistoryStore
	cache   icache.BytesCache
	rl      *ratelimit.Limiter
}

func NewContextEchoHandler(
	logger *xlogger.Logger,
	orch *usecase.DataOrchestrator,
	manager *usecase.NewsManager,
	events domrepo.EventPublisher,
	store domrepo.ContextStore,
	history domrepo.HistoryStore,
) *ContextEchoHandler {
	metrics.Register()
	return &ContextEchoHandler{
		logger:  logger,
		orch:    orch,
		manager: manager,
		events:  events,
		store:   store,
		history: history,
		rl:      ratelimit.New(),
	}
}

// SetCache injects a response cache for the history endpoint.
func (h *ContextEchoHandler) SetCache(c icache.BytesCache) { h.cache = c }

func (h *ContextEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/context", h.Context)
	g.GET("/context/search", h.SearchContext)
	g.GET("/context/stored", h.StoredContext)
	g.POST("/admin/context/:tier", h.ManualContext)
	g.GET("/admin/context/:tier/history", h.ContextHistory)
	g.POST("/admin/context/:tier/refresh", h.RefreshContext)
	g.GET("/cache/stats", h.CacheStats)
	g.POST("/cache/invalidate", h.InvalidateCache)
	g.GET("/health", h.Health)
}

// Context serves the formatted market context for the caller's tier.
func (h *ContextEchoHandler) Context(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.ContextLatency.WithLabelValues("context").Observe(time.Since(start).Seconds()) }()

	req := &models.ContextRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tier, err := models.ParseTier(req.Tier)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}

	text, err := h.orch.GetMarketContextSummary(c.Request().Context(), tier, req.Demo)
	if err != nil {
		metrics.ContextErrors.WithLabelValues("context").Inc()
		h.logger.Error("context usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"tier":    tier,
		"demo":    req.Demo,
		"context": text,
	})
}

// SearchContext serves a fresh or cached search digest. Starter-tier callers
// are refused; provider outages map to 503 so clients degrade gracefully.
func (h *ContextEchoHandler) SearchContext(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.ContextLatency.WithLabelValues("search").Observe(time.Since(start).Seconds()) }()

	req := &models.SearchContextRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tier, err := models.ParseTier(req.Tier)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}
	if !h.rl.Allow(c.RealIP()+":search", 5, 1) {
		h.logger.Warn("search rate_limited", xlogger.String("remote", c.RealIP()))
		return xhttp.DataResponse(c, http.StatusTooManyRequests, map[string]string{"error": "rate limited"})
	}

	outcome := h.orch.GetSearchContext(c.Request().Context(), req.Query, tier, req.Demo)
	switch outcome.Status {
	case models.SearchDenied:
		return xhttp.ForbiddenResponse(c, map[string]string{"error": "search is not available on this subscription tier"})
	case models.SearchUnavailable:
		metrics.ContextErrors.WithLabelValues("search").Inc()
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, map[string]string{"error": "search is temporarily unavailable"})
	}
	return xhttp.SuccessResponse(c, outcome.Context())
}

// StoredContext serves the persisted (synthesized or manual) context row text.
func (h *ContextEchoHandler) StoredContext(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.ContextLatency.WithLabelValues("stored").Observe(time.Since(start).Seconds()) }()

	req := &models.ContextRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tier, err := models.ParseTier(req.Tier)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}

	text, err := h.manager.GetMarketContext(c.Request().Context(), tier)
	if err != nil {
		metrics.ContextErrors.WithLabelValues("stored").Inc()
		h.logger.Error("stored context usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"tier":    tier,
		"context": text,
	})
}

// ManualContext saves an admin-authored override for a tier.
func (h *ContextEchoHandler) ManualContext(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.ContextLatency.WithLabelValues("manual").Observe(time.Since(start).Seconds()) }()

	tier, err := models.ParseTier(c.Param("tier"))
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}
	req := &models.ManualContextRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if err := h.manager.UpdateMarketContextManual(c.Request().Context(), tier, req.Text, req.Admin); err != nil {
		metrics.ContextErrors.WithLabelValues("manual").Inc()
		h.logger.Error("manual context usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"tier":   tier,
		"status": "saved",
	})
}

// ContextHistory returns the most recent audit entries for a tier.
func (h *ContextEchoHandler) ContextHistory(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.ContextLatency.WithLabelValues("history").Observe(time.Since(start).Seconds()) }()

	tier, err := models.ParseTier(c.Param("tier"))
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}

	cacheKey := "history:" + string(tier)
	if h.cache != nil {
		if b, ok, _ := h.cache.GetBytes(cacheKey); ok {
			return xhttp.SuccessResponse(c, json.RawMessage(b))
		}
	}

	entries, err := h.manager.GetMarketContextHistory(c.Request().Context(), tier)
	if err != nil {
		metrics.ContextErrors.WithLabelValues("history").Inc()
		h.logger.Error("context history usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if h.cache != nil {
		if b, merr := json.Marshal(entries); merr == nil {
			_ = h.cache.SetBytes(cacheKey, b, historyCacheTTL)
		}
	}
	return xhttp.SuccessResponse(c, entries)
}

// RefreshContext forces a full aggregate-synthesize-persist cycle for a tier
// and drops the matching cache entries.
func (h *ContextEchoHandler) RefreshContext(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.ContextLatency.WithLabelValues("refresh").Observe(time.Since(start).Seconds()) }()

	tier, err := models.ParseTier(c.Param("tier"))
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}

	if err := h.manager.UpdateMarketContext(c.Request().Context(), tier); err != nil {
		metrics.ContextErrors.WithLabelValues("refresh").Inc()
		h.logger.Error("context refresh usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	h.orch.InvalidateCache("market_context_" + string(tier))
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"tier":   tier,
		"status": "refreshed",
	})
}

// CacheStats exposes cache sizes, keys and last refresh time.
func (h *ContextEchoHandler) CacheStats(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.orch.GetCacheStats())
}

// InvalidateCache drops matching local cache entries and optionally
// broadcasts the invalidation to sibling instances.
func (h *ContextEchoHandler) InvalidateCache(c echo.Context) error {
	req := &models.InvalidateCacheRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	removed := h.orch.InvalidateCache(req.Pattern)
	if req.Broadcast && h.events != nil {
		ev := &models.ContextEvent{
			Kind:    usecase.EventCacheInvalidate,
			Pattern: req.Pattern,
			At:      time.Now(),
		}
		if err := h.events.Publish(c.Request().Context(), ev); err != nil {
			h.logger.Warn("invalidate broadcast failed", xlogger.Error(err))
		}
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"pattern": req.Pattern,
		"removed": removed,
	})
}

// Health checks the persistence backends; degraded dependencies are reported
// per component with a 503 overall.
func (h *ContextEchoHandler) Health(c echo.Context) error {
	ctx := c.Request().Context()
	components := map[string]string{}
	healthy := true

	if h.store != nil {
		if err := h.store.Health(ctx); err != nil {
			components["context_store"] = err.Error()
			healthy = false
		} else {
			components["context_store"] = "ok"
		}
	}
	if h.history != nil {
		if err := h.history.Health(ctx); err != nil {
			components["history_store"] = err.Error()
			healthy = false
		} else {
			components["history_store"] = "ok"
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	return xhttp.DataResponse(c, status, map[string]interface{}{
		"healthy":    healthy,
		"components": components,
	})
}
