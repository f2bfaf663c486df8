package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"MarketBrief/internal/domain/models"
	pkgkafka "MarketBrief/pkg/kafka"
	applogger "MarketBrief/pkg/logger"
)

// Event kinds carried on the context topic.
const (
	EventContextUpdated  = "context.updated"
	EventCacheInvalidate = "cache.invalidate"
)

// KafkaEventsHandler consumes context lifecycle events from sibling
// instances and drops the matching local cache entries, so a manual edit or
// admin invalidation on one instance propagates within one consumer poll
// instead of waiting out the TTL.
type KafkaEventsHandler struct {
	topic string
	orch  *DataOrchestrator
	l     *applogger.Logger
}

func NewKafkaEventsHandler(topic string, orch *DataOrchestrator, l *applogger.Logger) *KafkaEventsHandler {
	return &KafkaEventsHandler{topic: topic, orch: orch, l: l}
}

func (h *KafkaEventsHandler) Topic() string { return h.topic }

func (h *KafkaEventsHandler) Handle(ctx context.Context, b []byte) error {
	var ev models.ContextEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		return fmt.Errorf("decode context event: %w", err)
	}

	switch ev.Kind {
	case EventContextUpdated:
		// drop only the affected tier; other entries stay warm
		n := h.orch.InvalidateCache(fmt.Sprintf("%s_%s", marketContextPrefix, ev.Tier))
		h.l.Info("context update event applied",
			applogger.String("tier", string(ev.Tier)),
			applogger.String("origin", string(ev.Origin)),
			applogger.Int("invalidated", n))
	case EventCacheInvalidate:
		n := h.orch.InvalidateCache(ev.Pattern)
		h.l.Info("cache invalidate event applied",
			applogger.String("pattern", ev.Pattern),
			applogger.Int("invalidated", n))
	default:
		h.l.Warn("unknown context event kind", applogger.String("kind", ev.Kind))
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaEventsHandler)(nil)
