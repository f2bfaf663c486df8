package polygon

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"MarketBrief/internal/domain/models"

	"github.com/gorilla/websocket"
)

const (
	defaultReconnectDelay = 5 * time.Second
	defaultPingInterval   = 30 * time.Second
)

// Stream maintains a WebSocket subscription to the provider's rate feed and
// keeps the latest snapshot in memory so the REST path can degrade to it.
type Stream struct {
	apiKey         string
	websocketURL   string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	connMu    sync.Mutex
	conn      *websocket.Conn
	connected bool

	mu       sync.RWMutex
	snapshot *models.LiveMarketData
}

// NewStream creates a live-rate stream. Zero durations fall back to safe
// defaults so a sparse config cannot produce a zero-interval ticker.
func NewStream(apiKey, websocketURL string, reconnectDelay, pingInterval time.Duration) *Stream {
	if reconnectDelay <= 0 {
		reconnectDelay = defaultReconnectDelay
	}
	if pingInterval <= 0 {
		pingInterval = defaultPingInterval
	}
	return &Stream{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect establishes the WebSocket connection and authenticates.
func (s *Stream) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.websocketURL, nil)
	if err != nil {
		return fmt.Errorf("polygon connect: %w", err)
	}
	s.connMu.Lock()
	s.conn = conn
	s.connected = true
	s.connMu.Unlock()
	auth := map[string]string{"action": "auth", "params": s.apiKey}
	if err := conn.WriteJSON(auth); err != nil {
		return fmt.Errorf("polygon auth: %w", err)
	}
	return nil
}

// Subscribe subscribes to the rates channel.
func (s *Stream) Subscribe(ctx context.Context) error {
	conn := s.current()
	if conn == nil {
		return fmt.Errorf("polygon stream not connected")
	}
	msg := map[string]string{"action": "subscribe", "params": "RATES.*"}
	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("subscribe rates: %w", err)
	}
	return nil
}

type wsRates struct {
	Event string        `json:"ev"`
	Rates ratesResponse `json:"rates"`
}

// Run reads rate frames and refreshes the snapshot until ctx is done,
// reconnecting on read errors.
func (s *Stream) Run(ctx context.Context, errs chan<- error) {
	// ping loop
	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if conn := s.current(); conn != nil {
					_ = conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		conn := s.current()
		if conn == nil {
			if err := s.Reconnect(ctx); err != nil {
				select {
				case errs <- err:
				default:
				}
				continue
			}
			conn = s.current()
			if conn == nil {
				continue
			}
		}
		_, b, err := conn.ReadMessage()
		if err != nil {
			select {
			case errs <- fmt.Errorf("polygon read: %w", err):
			default:
			}
			_ = s.Close()
			continue
		}
		var m wsRates
		if err := json.Unmarshal(b, &m); err != nil {
			// ignore non-rate frames
			continue
		}
		if m.Event != "rates" {
			continue
		}
		snap := toSnapshot(&m.Rates, time.Now())
		s.mu.Lock()
		s.snapshot = snap
		s.mu.Unlock()
	}
}

// Snapshot returns the last streamed snapshot, or nil if none arrived yet.
func (s *Stream) Snapshot() *models.LiveMarketData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Reconnect closes and reconnects.
func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	time.Sleep(s.reconnectDelay)
	if err := s.Connect(ctx); err != nil {
		return err
	}
	return s.Subscribe(ctx)
}

// Close closes the WS connection.
func (s *Stream) Close() error {
	s.connMu.Lock()
	conn := s.conn
	s.conn = nil
	s.connected = false
	s.connMu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (s *Stream) IsConnected() bool {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	return s.connected
}

func (s *Stream) current() *websocket.Conn {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	return s.conn
}
