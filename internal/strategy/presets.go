package strategy

// Preset names.
const (
	VolumeEnhanced = "volume_enhanced"
	Advanced       = "advanced"
	UltraAdvanced  = "ultra_advanced"
	SmartBalanced  = "smart_balanced"
	Final85        = "final_85"
)

func rsiBand(full Cond, fullPts float64, partial Cond, partialPts float64) Tiered {
	tiers := []Tier{{full, fullPts}, {partial, partialPts}}
	return Tiered{Label: "rsi", Field: "rsi", Buy: tiers, Sell: tiers}
}

// volumeEnhanced is the all-or-nothing confirmation: every check must pass, so the
// weights sum exactly to the threshold.
func volumeEnhanced() Config {
	return Config{
		Name: VolumeEnhanced,
		Checks: []Check{
			Tiered{Label: "volume_ratio", Field: "volume_ratio",
				Buy:  []Tier{{AtLeast(1.2), 40}},
				Sell: []Tier{{AtLeast(1.2), 40}}},
			Tiered{Label: "volume_trend", Field: "volume_trend",
				Buy:  []Tier{{Above(0), 30}},
				Sell: []Tier{{Above(-0.1), 30}}},
			OBVSignal{Points: 30},
		},
		Threshold: Static(100),
		Cross:     CrossRule{ZeroLineGate: true},
		Requires:  []string{"macd", "macd_signal", "macd_hist", "volume_ratio", "volume_trend", "obv_ma"},
	}
}

func advanced() Config {
	return Config{
		Name: Advanced,
		Checks: []Check{
			Tiered{Label: "volume_ratio", Field: "volume_ratio",
				Buy:  []Tier{{AtLeast(1.3), 30}},
				Sell: []Tier{{AtLeast(1.3), 30}}},
			Tiered{Label: "volume_trend", Field: "volume_trend",
				Buy:  []Tier{{Above(0.1), 25}},
				Sell: []Tier{{Above(-0.2), 25}}},
			Tiered{Label: "rsi", Field: "rsi",
				Buy:  []Tier{{Within(30, 70), 20}},
				Sell: []Tier{{Within(30, 70), 20}}},
			Bollinger{
				Buy:  []Tier{{Within(0.1, 0.6), 15}},
				Sell: []Tier{{Within(0.4, 0.9), 15}}},
			Tiered{Label: "obv_trend", Field: "obv_trend",
				Buy:  []Tier{{Above(0), 10}},
				Sell: []Tier{{Below(0), 10}}},
		},
		Threshold: Static(70),
		Cross:     CrossRule{ZeroLineGate: true},
		Requires:  []string{"macd", "macd_signal", "macd_hist", "volume_ratio", "rsi", "bb_position"},
	}
}

func ultraAdvanced() Config {
	width := Within(0.03, 0.20)
	return Config{
		Name: UltraAdvanced,
		Checks: []Check{
			Tiered{Label: "volume_ratio", Field: "volume_ratio",
				Buy:   []Tier{{AtLeast(1), 25}, {AtLeast(0.8), 15}},
				Sell:  []Tier{{AtLeast(1), 25}, {AtLeast(0.8), 15}},
				Scale: &Scale{Field: "volatility_ratio", Base: 1.0, Slope: 0.2, Min: 0.9, Max: 1.5}},
			Tiered{Label: "volume_trend", Field: "volume_trend",
				Buy:  []Tier{{Above(0.08), 20}, {Above(0.02), 12}},
				Sell: []Tier{{Above(-0.15), 20}, {Above(-0.25), 12}}},
			rsiBand(Within(30, 70), 15, Within(25, 75), 10),
			Bollinger{Width: &width, Outside: 5,
				Buy:  []Tier{{Within(0.1, 0.6), 15}, {Within(0.05, 0.7), 10}},
				Sell: []Tier{{Within(0.4, 0.9), 15}, {Within(0.3, 0.95), 10}}},
			Trend{
				Buy: TrendRule{Regime: Above(-0.05), Alone: Above(0.015), Points: 15,
					Fallback: []Tier{{Above(-0.08), 8}}},
				Sell: TrendRule{Regime: Below(0.05), Alone: Below(-0.015), Points: 15,
					Fallback: []Tier{{Below(0.08), 8}}},
			},
			Momentum{Strong: 3, Partial: 2, Points: 10, PartialPoints: 6},
			VolumePrice{Momentum: 0.03, LooseMomentum: 0.05, Points: 10, PartialPoints: 5},
		},
		Threshold: Static(70),
		Cross:     CrossRule{ZeroLineGate: true},
		Requires:  []string{"macd", "macd_signal", "macd_hist", "volume_ratio", "rsi", "bb_position", "trend_strength"},
	}
}

func smartBalanced() Config {
	width := Within(0.02, 0.25)
	return Config{
		Name: SmartBalanced,
		Checks: []Check{
			Tiered{Label: "volume_ratio", Field: "volume_ratio",
				Buy:   []Tier{{AtLeast(1.1), 25}, {AtLeast(1), 18}, {AtLeast(0.8), 10}},
				Sell:  []Tier{{AtLeast(1.1), 25}, {AtLeast(1), 18}, {AtLeast(0.8), 10}},
				Scale: &Scale{Field: "volatility_ratio", Base: 0.95, Slope: 0.15, Min: 0.8, Max: 1.3}},
			Tiered{Label: "volume_trend", Field: "volume_trend",
				Buy:  []Tier{{Above(0.05), 20}, {Above(0), 12}, {Above(-0.05), 6}},
				Sell: []Tier{{Above(-0.1), 20}, {Above(-0.2), 12}}},
			rsiBand(Within(25, 75), 15, Within(20, 80), 10),
			Bollinger{Width: &width, Outside: 8,
				Buy:  []Tier{{Within(0.05, 0.65), 15}, {Within(0, 0.8), 10}},
				Sell: []Tier{{Within(0.35, 0.95), 15}, {Within(0.2, 1), 10}}},
			Trend{
				Buy: TrendRule{Regime: Above(-0.03), Alone: Above(0.01), Points: 15,
					Fallback: []Tier{{Above(-0.06), 10}, {Above(-0.1), 5}}},
				Sell: TrendRule{Regime: Below(0.03), Alone: Below(-0.01), Points: 15,
					Fallback: []Tier{{Below(0.06), 10}, {Below(0.1), 5}}},
			},
			Momentum{Strong: 2, Partial: 1, Points: 10, PartialPoints: 6},
		},
		Threshold: Threshold{Base: 72, Strong: 68, StrongBonus: 5, StrongCutoff: 0.1},
		Cross:     CrossRule{ZeroLineGate: true},
		Requires:  []string{"macd", "macd_signal", "macd_hist", "volume_ratio", "rsi", "bb_position", "trend_strength"},
	}
}

func final85() Config {
	return Config{
		Name: Final85,
		Checks: []Check{
			Tiered{Label: "volume_ratio", Field: "volume_ratio",
				Buy:  []Tier{{AtLeast(1.4), 30}, {AtLeast(1.2), 20}},
				Sell: []Tier{{AtLeast(1.3), 30}, {AtLeast(1.1), 20}}},
			Tiered{Label: "volume_trend", Field: "volume_trend",
				Buy:  []Tier{{Above(0.15), 25}, {Above(0.05), 15}},
				Sell: []Tier{{Above(-0.1), 25}, {Above(-0.2), 15}}},
			rsiBand(Within(35, 65), 20, Within(30, 70), 10),
			Bollinger{
				Buy:  []Tier{{Within(0.15, 0.5), 15}, {Within(0.1, 0.6), 8}},
				Sell: []Tier{{Within(0.5, 0.85), 15}, {Within(0.4, 0.9), 8}}},
			Tiered{Label: "obv_trend", Field: "obv_trend",
				Buy:  []Tier{{Above(0), 10}},
				Sell: []Tier{{Below(0), 10}}},
			MACross{Points: 5},
		},
		Threshold: Static(80),
		Cross:     CrossRule{ZeroLineGate: true},
		Requires:  []string{"macd", "macd_signal", "macd_hist", "volume_ratio", "rsi", "bb_position"},
	}
}
