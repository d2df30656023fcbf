package feeds

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ═══════════════════════════════════════════════════════════════════════════════
// SPOT STREAM - Websocket quotes for mark-to-market between refreshes
// ═══════════════════════════════════════════════════════════════════════════════

// PriceUpdate is one streamed quote.
type PriceUpdate struct {
	Symbol string
	Price  decimal.Decimal
	Time   time.Time
}

type streamMessage struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
	TS     int64  `json:"ts"`
}

type subscribeMessage struct {
	Op      string   `json:"op"`
	Symbols []string `json:"symbols"`
}

// SpotStream maintains a websocket subscription with automatic reconnect.
type SpotStream struct {
	url     string
	symbols []string
	log     zerolog.Logger

	mu       sync.RWMutex
	prices   map[string]decimal.Decimal
	onUpdate func(PriceUpdate)
	running  bool
	stopCh   chan struct{}
}

// NewSpotStream builds a stream client for the given symbols.
func NewSpotStream(url string, symbols []string, log zerolog.Logger) *SpotStream {
	return &SpotStream{
		url:     url,
		symbols: symbols,
		log:     log,
		prices:  map[string]decimal.Decimal{},
		stopCh:  make(chan struct{}),
	}
}

// OnUpdate registers a callback invoked for every quote. Must be set before
// Start.
func (s *SpotStream) OnUpdate(fn func(PriceUpdate)) {
	s.onUpdate = fn
}

// Start launches the connect/read loop in a goroutine.
func (s *SpotStream) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	go s.loop()
	s.log.Info().Str("url", s.url).Int("symbols", len(s.symbols)).Msg("📡 Spot stream started")
}

// Stop closes the stream.
func (s *SpotStream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.stopCh)
}

// Price returns the last streamed quote for a symbol.
func (s *SpotStream) Price(symbol string) (decimal.Decimal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prices[symbol]
	return p, ok
}

func (s *SpotStream) loop() {
	backoff := time.Second
	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		conn, _, err := websocket.DefaultDialer.Dial(s.url, nil)
		if err != nil {
			s.log.Warn().Err(err).Dur("retry", backoff).Msg("⚠️ Stream connect failed")
			select {
			case <-time.After(backoff):
			case <-s.stopCh:
				return
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := conn.WriteJSON(subscribeMessage{Op: "subscribe", Symbols: s.symbols}); err != nil {
			s.log.Warn().Err(err).Msg("⚠️ Stream subscribe failed")
			conn.Close()
			continue
		}

		s.readLoop(conn)
		conn.Close()
	}
}

func (s *SpotStream) readLoop(conn *websocket.Conn) {
	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			s.log.Warn().Err(err).Msg("⚠️ Stream read failed, reconnecting")
			return
		}

		var msg streamMessage
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Symbol == "" {
			continue
		}
		price, err := decimal.NewFromString(msg.Price)
		if err != nil {
			continue
		}

		s.mu.Lock()
		s.prices[msg.Symbol] = price
		s.mu.Unlock()

		if s.onUpdate != nil {
			s.onUpdate(PriceUpdate{
				Symbol: msg.Symbol,
				Price:  price,
				Time:   time.Unix(msg.TS, 0).UTC(),
			})
		}
	}
}
