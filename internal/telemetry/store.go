package telemetry

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// SearchRecord is a snapshot of one completed iterative-deepening iteration,
// suitable for offline analysis of search performance across runs.
type SearchRecord struct {
	PositionHash  uint64 `json:"position_hash"`
	Depth         int    `json:"depth"`
	Score         int    `json:"score"`
	Nodes         uint64 `json:"nodes"`
	ElapsedMillis int64  `json:"elapsed_millis"`
	NPS           uint64 `json:"nps"`
	BestMove      string `json:"best_move"`
}

// Store wraps BadgerDB to persist SearchRecord entries.
type Store struct {
	db *badger.DB
}

// Open opens (creating if necessary) the telemetry database at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// recordKey orders records by position then by depth so that successive
// iterations of one root search sort together.
func recordKey(rec SearchRecord) []byte {
	return []byte(fmt.Sprintf("search/%016x/%04d", rec.PositionHash, rec.Depth))
}

// RecordSearch persists one iteration's diagnostics.
func (s *Store) RecordSearch(rec SearchRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(rec), data)
	})
}

// RecentSearches returns up to limit persisted records, in key order
// (grouped by position hash, ascending depth within each position).
func (s *Store) RecentSearches(limit int) ([]SearchRecord, error) {
	var records []SearchRecord

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("search/")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			if limit > 0 && len(records) >= limit {
				break
			}
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var rec SearchRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					return err
				}
				records = append(records, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	return records, err
}
