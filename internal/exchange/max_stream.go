package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"macdbot-go/internal/signal"
)

// DefaultMAXStreamURL is the public MAX websocket endpoint.
const DefaultMAXStreamURL = "wss://max-stream.maicoin.com/ws"

type maxSubscription struct {
	Channel string `json:"channel"`
	Market  string `json:"market"`
}

type maxSubscribe struct {
	Action        string            `json:"action"`
	Subscriptions []maxSubscription `json:"subscriptions"`
	ID            string            `json:"id"`
}

type maxStreamTicker struct {
	Close  flexFloat `json:"C"`
	Volume flexFloat `json:"v"`
}

type maxStreamMessage struct {
	Channel string          `json:"c"`
	Market  string          `json:"M"`
	Event   string          `json:"e"`
	Ticker  maxStreamTicker `json:"tk"`
	Time    int64           `json:"T"`
	Error   []string        `json:"E"`
}

// TickerStream follows the MAX ticker channel for a set of markets and reconnects
// with capped exponential backoff.
type TickerStream struct {
	url     string
	markets []string
	log     zerolog.Logger
}

// NewTickerStream subscribes to markets on url (DefaultMAXStreamURL when empty).
func NewTickerStream(url string, markets []string, log zerolog.Logger) *TickerStream {
	if url == "" {
		url = DefaultMAXStreamURL
	}
	ms := make([]string, 0, len(markets))
	for _, m := range markets {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			ms = append(ms, m)
		}
	}
	return &TickerStream{url: url, markets: ms, log: log}
}

// Run pushes ticks onto out until the context is canceled.
func (s *TickerStream) Run(ctx context.Context, out chan<- signal.Tick) error {
	if len(s.markets) == 0 {
		return fmt.Errorf("ticker stream requires at least one market")
	}
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.consume(ctx, out); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Warn().Err(err).Dur("backoff", backoff).Msg("max stream disconnected, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
			continue
		}
		return nil
	}
}

func (s *TickerStream) consume(ctx context.Context, out chan<- signal.Tick) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	sub := maxSubscribe{Action: "sub", ID: uuid.NewString()}
	for _, m := range s.markets {
		sub.Subscriptions = append(sub.Subscriptions, maxSubscription{Channel: "ticker", Market: m})
	}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	s.log.Info().Strs("markets", s.markets).Msg("connected max ticker stream")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(20 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					s.log.Warn().Err(err).Msg("max stream ping failed")
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()
	go func() {
		<-pingCtx.Done()
		conn.Close()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		tick, ok, err := parseMAXTicker(message)
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to decode max message")
			continue
		}
		if !ok {
			continue
		}
		select {
		case out <- tick:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// parseMAXTicker decodes one stream frame. ok is false for frames that are not
// ticker updates, such as subscription acknowledgements.
func parseMAXTicker(message []byte) (signal.Tick, bool, error) {
	var msg maxStreamMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return signal.Tick{}, false, err
	}
	if len(msg.Error) > 0 {
		return signal.Tick{}, false, fmt.Errorf("max stream error: %s", strings.Join(msg.Error, "; "))
	}
	if msg.Channel != "ticker" || (msg.Event != "snapshot" && msg.Event != "update") {
		return signal.Tick{}, false, nil
	}
	if msg.Ticker.Close <= 0 {
		return signal.Tick{}, false, fmt.Errorf("ticker %s without close price", msg.Market)
	}
	return signal.Tick{
		Symbol: msg.Market,
		Price:  float64(msg.Ticker.Close),
		Volume: float64(msg.Ticker.Volume),
		Ts:     time.UnixMilli(msg.Time).UTC(),
	}, true, nil
}
