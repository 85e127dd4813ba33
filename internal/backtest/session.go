package backtest

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"macdbot-go/internal/indicator"
	"macdbot-go/internal/paper"
	"macdbot-go/internal/scan"
	"macdbot-go/internal/signal"
)

// Session drives one long-lived paper account from successive candle windows.
// Each window's indicators are recomputed in full, but the scan only walks candles
// newer than the previous window's last one, starting from the account's position.
type Session struct {
	account *paper.Account
	engine  *scan.Engine
	params  indicator.Params
	events  []EventRecorder
	log     zerolog.Logger
	last    time.Time
	primed  bool
}

// SessionOption customises a Session.
type SessionOption func(*Session)

// WithSessionLogger attaches a logger.
func WithSessionLogger(log zerolog.Logger) SessionOption {
	return func(s *Session) { s.log = log }
}

// WithSessionEvents forwards every fresh event to rec.
func WithSessionEvents(rec EventRecorder) SessionOption {
	return func(s *Session) { s.events = append(s.events, rec) }
}

// WithReplayFirstWindow makes the first window trade too instead of only setting
// the starting point.
func WithReplayFirstWindow() SessionOption {
	return func(s *Session) { s.primed = true }
}

func NewSession(account *paper.Account, engine *scan.Engine, params indicator.Params, opts ...SessionOption) *Session {
	s := &Session{account: account, engine: engine, params: params, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Step processes one window and returns the events that were new in it.
func (s *Session) Step(candles []signal.Candle) ([]signal.Event, error) {
	if len(candles) == 0 {
		return nil, errors.New("empty candle window")
	}
	newest := candles[len(candles)-1].Ts
	if !s.primed {
		s.primed = true
		s.last = newest
		s.log.Info().Time("from", newest).Msg("session primed")
		return nil, nil
	}
	if !newest.After(s.last) {
		return nil, nil
	}
	rows, err := indicator.Compute(candles, s.params)
	if err != nil {
		return nil, err
	}

	from := len(rows)
	for i, r := range rows {
		if r.Ts.After(s.last) {
			from = i
			break
		}
	}
	state := scan.PositionState{Sequence: s.account.Sequence()}
	if s.account.Holdings(s.account.Symbol()) > 0 {
		state.Position = scan.Long
	}

	var fresh []signal.Event
	for ev := range s.engine.ScanFrom(rows, from, state) {
		fresh = append(fresh, ev)
		for _, rec := range s.events {
			rec.RecordEvent(ev)
		}
		if !ev.Direction.Accepted() {
			continue
		}
		if _, rej := s.account.Apply(ev); rej != nil {
			s.log.Warn().Str("direction", string(ev.Direction)).Str("reason", string(rej.Reason)).
				Str("detail", rej.Detail).Msg("signal not executed")
		}
	}
	s.last = newest
	return fresh, nil
}

// Last is the newest candle time already processed.
func (s *Session) Last() time.Time { return s.last }
