package telemetry

import (
	"os"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "chesscore-telemetry-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	store, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndRetrieveSearch(t *testing.T) {
	store := openTestStore(t)

	rec := SearchRecord{
		PositionHash:  0x1234567890abcdef,
		Depth:         5,
		Score:         37,
		Nodes:         123456,
		ElapsedMillis: 842,
		NPS:           146622,
		BestMove:      "e2e4",
	}

	if err := store.RecordSearch(rec); err != nil {
		t.Fatalf("RecordSearch failed: %v", err)
	}

	records, err := store.RecentSearches(10)
	if err != nil {
		t.Fatalf("RecentSearches failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].BestMove != "e2e4" {
		t.Errorf("expected best move e2e4, got %s", records[0].BestMove)
	}
	if records[0].Depth != 5 {
		t.Errorf("expected depth 5, got %d", records[0].Depth)
	}
}

func TestRecentSearchesOrdersIterationsTogether(t *testing.T) {
	store := openTestStore(t)

	hash := uint64(0xdeadbeef)
	for depth := 1; depth <= 4; depth++ {
		rec := SearchRecord{PositionHash: hash, Depth: depth, Score: depth * 10}
		if err := store.RecordSearch(rec); err != nil {
			t.Fatalf("RecordSearch depth %d failed: %v", depth, err)
		}
	}

	records, err := store.RecentSearches(0)
	if err != nil {
		t.Fatalf("RecentSearches failed: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}
	for i, rec := range records {
		if rec.Depth != i+1 {
			t.Errorf("expected records sorted by depth, index %d has depth %d", i, rec.Depth)
		}
	}
}

func TestRecentSearchesLimit(t *testing.T) {
	store := openTestStore(t)

	for depth := 1; depth <= 5; depth++ {
		store.RecordSearch(SearchRecord{PositionHash: 1, Depth: depth})
	}

	records, err := store.RecentSearches(2)
	if err != nil {
		t.Fatalf("RecentSearches failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}
