package paper

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"macdbot-go/internal/signal"
)

func TestJSONLRecorder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "trades.jsonl")

	recorder, err := NewJSONLRecorder(path, "run-1")
	if err != nil {
		t.Fatalf("NewJSONLRecorder error: %v", err)
	}
	account := NewAccount(100_000, 0.0015, WithRecorder(recorder))
	recorder.RecordEvent(signal.Event{Ts: t0, Price: 1_000_000, Direction: signal.Buy, TradeSequence: 1, Reasons: []string{"rsi 50.000✓"}})
	if _, rej := account.Buy(t0, "btctwd", 1_000_000, 10_000); rej != nil {
		t.Fatalf("buy rejected: %s", rej)
	}
	if err := recorder.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	recorder.Record(TradeRecord{}) // after close: ignored

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open recorded file: %v", err)
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("json decode: %v", err)
		}
		entries = append(entries, e)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(entries))
	}
	if entries[0].Kind != "event" || entries[0].Event == nil || entries[0].Event.Direction != signal.Buy {
		t.Fatalf("unexpected event line %+v", entries[0])
	}
	if entries[1].Kind != "trade" || entries[1].Trade == nil || entries[1].Trade.ID == "" || entries[1].RunID != "run-1" {
		t.Fatalf("unexpected trade line %+v", entries[1])
	}
}
