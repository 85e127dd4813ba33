package scan

import "macdbot-go/internal/signal"

// Position is the engine's exposure.
type Position int

const (
	Flat Position = iota
	Long
)

func (p Position) String() string {
	if p == Long {
		return "long"
	}
	return "flat"
}

// PositionState is the mutable state of one scan. The zero value is flat with no
// trades.
type PositionState struct {
	Position Position
	Sequence int
}

// Accepts reports whether an accepted event on side is legal from the current state.
func (s PositionState) Accepts(side signal.Direction) bool {
	switch side {
	case signal.Buy:
		return s.Position == Flat
	case signal.Sell:
		return s.Position == Long
	}
	return false
}

// Apply records an accepted event and returns its trade sequence. Rejected events
// leave the state untouched and return 0.
func (s *PositionState) Apply(dir signal.Direction) int {
	switch {
	case dir == signal.Buy && s.Position == Flat:
		s.Sequence++
		s.Position = Long
		return s.Sequence
	case dir == signal.Sell && s.Position == Long:
		s.Position = Flat
		return s.Sequence
	}
	return 0
}
