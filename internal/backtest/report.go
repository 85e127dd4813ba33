package backtest

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"macdbot-go/internal/signal"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).MarginBottom(1)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	gainStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	headStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle  = lipgloss.NewStyle().Padding(0, 1)
)

func money(v float64) string {
	s := fmt.Sprintf("%+.2f", v)
	if v < 0 {
		return lossStyle.Render(s)
	}
	return gainStyle.Render(s)
}

// Report renders a terminal summary of res. Trade rows are capped at maxTrades;
// zero shows all of them.
func Report(res Result, maxTrades int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s · %s · %d candles", strings.ToUpper(res.Symbol), res.Preset, res.Candles)))
	b.WriteString("\n")

	p := res.Performance
	kv := [][2]string{
		{"window", fmt.Sprintf("%s → %s", res.From.Format("2006-01-02 15:04"), res.To.Format("2006-01-02 15:04"))},
		{"signals", fmt.Sprintf("%d accepted / %d rejected (%.1f%% rejected)", p.Accepted, p.Rejected, p.RejectionRate)},
		{"trades", fmt.Sprintf("%d closed, %d wins, %d losses, win rate %.1f%%", p.TotalTrades, p.Wins, p.Losses, p.WinRate)},
		{"profit", money(p.TotalProfit)},
		{"profit factor", fmt.Sprintf("%.2f", p.ProfitFactor)},
		{"fees", fmt.Sprintf("%.2f", p.TotalFees)},
		{"max drawdown", fmt.Sprintf("%.2f (%.2f%%)", p.MaxDrawdown, p.MaxDrawdownPct)},
		{"cash", fmt.Sprintf("%.2f", res.Status.Cash)},
		{"total value", fmt.Sprintf("%.2f (%s%%)", res.Status.TotalValue, money(res.Status.ReturnPct))},
	}
	if res.Signals.Open {
		kv = append(kv, [2]string{"open position", fmt.Sprintf("trade #%d", res.Signals.OpenSequence)})
	}
	for _, row := range kv {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-14s", row[0])))
		b.WriteString(row[1])
		b.WriteString("\n")
	}

	trades := res.Trades
	if maxTrades > 0 && len(trades) > maxTrades {
		trades = trades[len(trades)-maxTrades:]
	}
	if len(trades) == 0 {
		return b.String()
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headStyle
			}
			return cellStyle
		}).
		Headers("#", "time", "action", "price", "qty", "net", "profit")
	for _, rec := range trades {
		profit := ""
		if rec.Action == signal.Sell {
			profit = fmt.Sprintf("%+.2f", rec.Profit)
		}
		t.Row(
			fmt.Sprint(rec.TradeSequence),
			rec.Ts.Format("01-02 15:04"),
			string(rec.Action),
			fmt.Sprintf("%.2f", rec.Price),
			fmt.Sprintf("%.6f", rec.Quantity),
			fmt.Sprintf("%.2f", rec.NetAmount),
			profit,
		)
	}
	b.WriteString("\n")
	b.WriteString(t.String())
	b.WriteString("\n")
	return b.String()
}
