package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"MarketBrief/internal/domain/models"
	pkgch "MarketBrief/pkg/clickhouse"
	applogger "MarketBrief/pkg/logger"
)

const historyTable = "marketbrief.context_history"

// HistorySchema are the idempotent DDL statements for the ledger, applied
// through Client.InitSchema at startup.
var HistorySchema = []string{
	`CREATE DATABASE IF NOT EXISTS marketbrief`,
	`CREATE TABLE IF NOT EXISTS ` + historyTable + ` (
        context_id      String,
        tier            String,
        origin          String,
        context_text    String,
        data_sources    Array(String),
        key_events      Array(String),
        available_tiers Array(String),
        change_type     String,
        changed_by      String,
        created_at      DateTime
    ) ENGINE = MergeTree()
    ORDER BY (tier, created_at)`,
}

// CHHistoryStore is the append-only audit ledger backed by ClickHouse. Rows
// are never updated or deleted; every context mutation adds one entry.
type CHHistoryStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHHistoryStore(ch *pkgch.Client) *CHHistoryStore {
	return &CHHistoryStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHHistoryStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHHistoryStore) Append(ctx context.Context, e *models.MarketNewsHistoryEntry) error {
	const q = `INSERT INTO ` + historyTable + `
        (context_id, tier, origin, context_text, data_sources, key_events, available_tiers, change_type, changed_by, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	tiers := make([]string, len(e.AvailableTiers))
	for i, t := range e.AvailableTiers {
		tiers[i] = string(t)
	}
	_, err := s.db.ExecContext(ctx, q,
		e.ContextID,
		string(e.Tier),
		string(e.Origin),
		e.ContextText,
		e.DataSources,
		e.KeyEvents,
		tiers,
		string(e.ChangeType),
		e.ChangedBy,
		e.CreatedAt,
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse history append error",
				applogger.String("tier", string(e.Tier)),
				applogger.String("change_type", string(e.ChangeType)),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// Recent returns up to limit entries serving the tier, newest first. The
// tier match uses the denormalized available_tiers array so entries from
// shared contexts surface for every tier they served.
func (s *CHHistoryStore) Recent(ctx context.Context, tier models.Tier, limit int) ([]models.MarketNewsHistoryEntry, error) {
	start := time.Now()
	const q = `
        SELECT context_id, tier, origin, context_text, data_sources, key_events, available_tiers, change_type, changed_by, created_at
        FROM ` + historyTable + `
        WHERE has(available_tiers, ?)
        ORDER BY created_at DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, string(tier), limit)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse history query error",
				applogger.String("tier", string(tier)),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := make([]models.MarketNewsHistoryEntry, 0, limit)
	for rows.Next() {
		var (
			e     models.MarketNewsHistoryEntry
			tiers []string
		)
		if err := rows.Scan(&e.ContextID, &e.Tier, &e.Origin, &e.ContextText, &e.DataSources, &e.KeyEvents, &tiers, &e.ChangeType, &e.ChangedBy, &e.CreatedAt); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse history scan error",
					applogger.String("tier", string(tier)),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		e.AvailableTiers = make([]models.Tier, len(tiers))
		for i, t := range tiers {
			e.AvailableTiers[i] = models.Tier(t)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse history query ok",
			applogger.String("tier", string(tier)),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHHistoryStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
