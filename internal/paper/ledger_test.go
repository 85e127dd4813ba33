package paper

import "testing"

func TestLedgerRecordSnapshot(t *testing.T) {
	ledger := NewLedger(2)
	rec := TradeRecord{Symbol: "btctwd", Quantity: 1}
	ledger.Record(rec)

	snapshot := ledger.Snapshot()
	if len(snapshot) != 1 || ledger.Len() != 1 {
		t.Fatalf("expected 1 record, got %d", len(snapshot))
	}
	if snapshot[0].Symbol != rec.Symbol {
		t.Fatalf("unexpected record symbol")
	}
	snapshot[0].Symbol = "mutated"
	if ledger.Snapshot()[0].Symbol != "btctwd" {
		t.Fatalf("snapshot must be a copy")
	}

	ledger.Record(TradeRecord{Symbol: "btctwd", Quantity: 2})
	if ledger.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", ledger.Len())
	}
}
