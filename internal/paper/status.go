package paper

// PositionStatus values one open position.
type PositionStatus struct {
	Qty         float64 `json:"qty"`
	Cost        float64 `json:"cost"`
	Price       float64 `json:"price"`
	MarketValue float64 `json:"market_value"`
	Unrealized  float64 `json:"unrealized"`
	Sequence    int     `json:"trade_sequence"`
}

// Status is a point-in-time valuation of the account.
type Status struct {
	StartingCash  float64                   `json:"starting_cash"`
	Cash          float64                   `json:"cash"`
	HoldingsValue float64                   `json:"holdings_value"`
	TotalValue    float64                   `json:"total_value"`
	Realized      float64                   `json:"realized_profit"`
	Unrealized    float64                   `json:"unrealized_profit"`
	ReturnPct     float64                   `json:"return_pct"`
	Wins          int                       `json:"wins"`
	Losses        int                       `json:"losses"`
	Positions     map[string]PositionStatus `json:"positions"`
}

// Status marks open positions with prices. A position with no price is valued at
// cost so the total stays meaningful.
func (a *Account) Status(prices map[string]float64) Status {
	a.mu.Lock()
	defer a.mu.Unlock()

	st := Status{
		StartingCash: a.startingCash,
		Cash:         a.cash,
		Realized:     a.realized,
		Wins:         a.wins,
		Losses:       a.losses,
		Positions:    make(map[string]PositionStatus, len(a.positions)),
	}
	for sym, pos := range a.positions {
		ps := PositionStatus{Qty: pos.Qty, Cost: pos.Cost, Sequence: pos.Sequence, MarketValue: pos.Cost}
		if px := prices[sym]; px > 0 {
			ps.Price = px
			ps.MarketValue = pos.Qty * px * (1 - a.feeRate)
			ps.Unrealized = ps.MarketValue - pos.Cost
		}
		st.HoldingsValue += ps.MarketValue
		st.Unrealized += ps.Unrealized
		st.Positions[sym] = ps
	}
	st.TotalValue = st.Cash + st.HoldingsValue
	if a.startingCash > 0 {
		st.ReturnPct = (st.TotalValue - a.startingCash) / a.startingCash * 100
	}
	return st
}
