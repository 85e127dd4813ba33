package strategy

import (
	"fmt"
	"sort"
	"strings"
)

var presets = map[string]func() Config{
	VolumeEnhanced: volumeEnhanced,
	Advanced:       advanced,
	UltraAdvanced:  ultraAdvanced,
	SmartBalanced:  smartBalanced,
	Final85:        final85,
}

// Build returns the named preset. Names are case-insensitive and an empty name
// selects smart_balanced.
func Build(name string) (Config, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = SmartBalanced
	}
	mk, ok := presets[key]
	if !ok {
		return Config{}, fmt.Errorf("unknown strategy preset %q", name)
	}
	return mk(), nil
}

// Names lists the available presets in sorted order.
func Names() []string {
	out := make([]string, 0, len(presets))
	for name := range presets {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
