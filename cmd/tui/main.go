package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"macdbot-go/internal/config"
	"macdbot-go/internal/strategy"
)

const defaultConfigPath = "internal/config/config.yaml"

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func main() {
	reader := bufio.NewReader(os.Stdin)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	for {
		fmt.Println("\n" + headerStyle.Render("=== MACD Bot Control ==="))
		fmt.Println("1) Show configuration summary")
		fmt.Println("2) Edit bankroll and risk knobs")
		fmt.Println("3) Edit strategy preset and thresholds")
		fmt.Println("4) Edit market settings")
		fmt.Println("5) Save config")
		fmt.Println("6) Run backtest")
		fmt.Println("7) Launch paper bot")
		fmt.Println("8) Reload config from disk")
		fmt.Println("0) Exit")
		fmt.Print("Select option: ")

		input, _ := reader.ReadString('\n')
		choice := strings.TrimSpace(input)

		switch choice {
		case "1":
			printSummary(cfg)
		case "2":
			editRisk(reader, cfg)
		case "3":
			editStrategy(reader, cfg)
		case "4":
			editExchange(reader, cfg)
		case "5":
			if err := cfg.Validate(); err != nil {
				fmt.Println(errStyle.Render("not saved, config invalid:\n" + err.Error()))
				continue
			}
			if err := saveConfig(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
			} else {
				fmt.Println("config saved")
			}
		case "6":
			runBacktest()
		case "7":
			launchPaper(reader)
		case "8":
			reloaded, err := loadConfig()
			if err != nil {
				fmt.Fprintf(os.Stderr, "reload failed: %v\n", err)
			} else {
				cfg = reloaded
				fmt.Println("config reloaded")
			}
		case "0":
			return
		default:
			fmt.Println("unknown option")
		}
	}
}

func printSummary(cfg *config.Config) {
	fmt.Println("\n" + headerStyle.Render("--- Configuration Summary ---"))
	fmt.Printf("Market: %s via %s (%dm candles, %d per window)\n", cfg.Exchange.Symbol, cfg.Exchange.Provider, cfg.Exchange.Interval, cfg.Exchange.Limit)
	fmt.Printf("Starting cash: %.2f\n", cfg.Paper.StartingCash)
	fmt.Printf("Trade notional: %.2f (fee %.3f%%)\n", cfg.Paper.TradeNotional, cfg.Paper.FeeRate*100)
	fmt.Printf("Per-trade notional cap: %.2f (min %.2f)\n", cfg.Risk.MaxNotionalPerTrade, cfg.Risk.MinNotional)
	fmt.Printf("Kill switch drawdown: %.2f%%\n", cfg.Risk.KillSwitchDrawdown*100)
	fmt.Printf("MACD spans: %d/%d/%d\n", cfg.Strategy.FastSpan, cfg.Strategy.SlowSpan, cfg.Strategy.SignalSpan)
	scoring, err := cfg.Strategy.Scoring()
	if err != nil {
		fmt.Println(errStyle.Render(err.Error()))
		return
	}
	t := scoring.Threshold
	fmt.Printf("Preset: %s (max score %.0f)\n", scoring.Name, scoring.MaxScore())
	fmt.Printf("Threshold: %.0f, strong market %.0f +%.0f when |strength| > %.2f, zero-line gate %t\n",
		t.Base, t.Strong, t.StrongBonus, t.StrongCutoff, scoring.Cross.ZeroLineGate)
	names := make([]string, 0, len(scoring.Checks))
	for _, c := range scoring.Checks {
		names = append(names, fmt.Sprintf("%s(%.0f)", c.Name(), c.Max()))
	}
	fmt.Println("Checks:", strings.Join(names, ", "))
}

func editRisk(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n" + headerStyle.Render("--- Edit Risk / Bankroll ---"))
	cfg.Paper.StartingCash = promptFloat(reader, "Starting cash", cfg.Paper.StartingCash)
	cfg.Paper.TradeNotional = promptFloat(reader, "Trade notional", cfg.Paper.TradeNotional)
	cfg.Paper.FeeRate = promptPercent(reader, "Fee rate (%)", cfg.Paper.FeeRate)
	cfg.Risk.MaxNotionalPerTrade = promptFloat(reader, "Max notional per trade", cfg.Risk.MaxNotionalPerTrade)
	cfg.Risk.MinNotional = promptFloat(reader, "Min notional per trade", cfg.Risk.MinNotional)
	cfg.Risk.KillSwitchDrawdown = promptPercent(reader, "Kill switch drawdown (%)", cfg.Risk.KillSwitchDrawdown)
}

func editStrategy(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n" + headerStyle.Render("--- Edit Strategy ---"))
	fmt.Printf("Presets: %s\n", strings.Join(strategy.Names(), ", "))
	fmt.Printf("Preset [%s]: ", cfg.Strategy.Preset)
	if line, _ := reader.ReadString('\n'); strings.TrimSpace(line) != "" {
		cfg.Strategy.Preset = strings.TrimSpace(line)
		cfg.Strategy.Overrides = config.Overrides{}
	}
	base, err := strategy.Build(cfg.Strategy.Preset)
	if err != nil {
		fmt.Println(errStyle.Render(err.Error()))
		return
	}
	o := &cfg.Strategy.Overrides
	o.Threshold = promptOverride(reader, "Base threshold", o.Threshold, base.Threshold.Base)
	o.StrongThreshold = promptOverride(reader, "Strong market threshold", o.StrongThreshold, base.Threshold.Strong)
	o.StrengthBonus = promptOverride(reader, "Strong market bonus", o.StrengthBonus, base.Threshold.StrongBonus)
	o.StrongMarketCutoff = promptOverride(reader, "Strong market cutoff", o.StrongMarketCutoff, base.Threshold.StrongCutoff)

	gate := base.Cross.ZeroLineGate
	if o.ZeroLineGate != nil {
		gate = *o.ZeroLineGate
	}
	fmt.Printf("Zero-line gate (y/n) [%t]: ", gate)
	if line, _ := reader.ReadString('\n'); strings.TrimSpace(line) != "" {
		on := strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "y")
		o.ZeroLineGate = &on
	}
}

func editExchange(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n" + headerStyle.Render("--- Edit Market ---"))
	cfg.Exchange.Provider = promptString(reader, "Provider (stub|max)", cfg.Exchange.Provider)
	cfg.Exchange.Symbol = strings.ToLower(promptString(reader, "Symbol", cfg.Exchange.Symbol))
	cfg.Exchange.Interval = int(promptFloat(reader, "Candle interval (minutes)", float64(cfg.Exchange.Interval)))
	cfg.Exchange.Limit = int(promptFloat(reader, "Candles per window", float64(cfg.Exchange.Limit)))
}

func runBacktest() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	cmd := exec.CommandContext(ctx, "go", "run", "./cmd/backtest", "-config", locateConfig())
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "backtest failed: %v\n", err)
	}
}

func launchPaper(reader *bufio.Reader) {
	fmt.Println("Launching paper bot (Ctrl+C to stop)...")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := exec.CommandContext(ctx, "go", "run", "./cmd/paper", "-config", locateConfig())
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start bot: %v\n", err)
		return
	}

	go func() {
		_ = cmd.Wait()
		cancel()
	}()

	fmt.Print("\nPress ENTER to stop the bot and return to menu...")
	_, _ = reader.ReadString('\n')
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func promptString(reader *bufio.Reader, label, current string) string {
	fmt.Printf("%s [%s]: ", label, current)
	line, _ := reader.ReadString('\n')
	if line = strings.TrimSpace(line); line == "" {
		return current
	}
	return line
}

func promptFloat(reader *bufio.Reader, label string, current float64) float64 {
	fmt.Printf("%s [%.2f]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	val, err := strconv.ParseFloat(line, 64)
	if err != nil {
		fmt.Printf("invalid number, keeping %.2f\n", current)
		return current
	}
	return val
}

func promptPercent(reader *bufio.Reader, label string, current float64) float64 {
	pct := promptFloat(reader, label, current*100)
	return pct / 100
}

// promptOverride keeps the override unset unless the user types a value that
// differs from the preset.
func promptOverride(reader *bufio.Reader, label string, current *float64, preset float64) *float64 {
	shown := preset
	if current != nil {
		shown = *current
	}
	v := promptFloat(reader, label, shown)
	if current == nil && v == preset {
		return nil
	}
	return &v
}

func loadConfig() (*config.Config, error) {
	return config.Load(locateConfig())
}

func saveConfig(cfg *config.Config) error {
	return config.Save(locateConfig(), cfg)
}

func locateConfig() string {
	if filepath.IsAbs(defaultConfigPath) {
		return defaultConfigPath
	}
	return filepath.Clean(defaultConfigPath)
}
