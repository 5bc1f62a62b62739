package engine

import (
	"github.com/halvardolsen/chesscore/internal/board"
)

// TTFlag indicates the kind of bound a transposition entry stores.
type TTFlag uint8

const (
	TTExact      TTFlag = iota // exact score
	TTLowerBound               // beta cutoff: true score >= stored score
	TTUpperBound               // fail-low: true score <= stored score
)

// TTEntry is one slot of the transposition table.
type TTEntry struct {
	Key      uint32     // upper 32 bits of the Zobrist hash, for collision detection
	BestMove board.Move
	Score    int32 // wide enough for mate scores plus ply adjustment
	Depth    int8
	Flag     TTFlag
	Age      uint8
}

// TranspositionTable is a fixed-size, direct-mapped hash table keyed by the
// low bits of the Zobrist hash.
type TranspositionTable struct {
	entries []TTEntry
	size    uint64
	mask    uint64
	age     uint8

	hits   uint64
	probes uint64
}

// NewTranspositionTable creates a table sized to roughly sizeMB megabytes,
// rounded down to a power of two number of entries for fast indexing.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	const entrySize = 16 // approximate bytes per TTEntry
	numEntries := (uint64(sizeMB) * 1024 * 1024) / entrySize
	numEntries = roundDownToPowerOf2(numEntries)
	if numEntries == 0 {
		numEntries = 1
	}

	return &TranspositionTable{
		entries: make([]TTEntry, numEntries),
		size:    numEntries,
		mask:    numEntries - 1,
	}
}

func roundDownToPowerOf2(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// Probe implements the collaborator contract of spec.md §4.4:
// a hit returns a usable score only when the stored depth is at least the
// query depth and the stored bound permits a cutoff under (alpha, beta).
// ttMove is returned on any key match, regardless of depth, since it is
// still useful for move ordering. ply is the probing node's own ply,
// needed to re-adjust a stored mate score to this node's distance from it.
func (tt *TranspositionTable) Probe(hash uint64, depth, alpha, beta, ply int) (usable bool, score int, ttMove board.Move) {
	tt.probes++

	idx := hash & tt.mask
	entry := tt.entries[idx]

	if entry.Key != uint32(hash>>32) {
		return false, 0, board.NoMove
	}

	ttMove = entry.BestMove
	tt.hits++

	if int(entry.Depth) < depth {
		return false, 0, ttMove
	}

	adjusted := adjustFromTT(int(entry.Score), ply)
	switch entry.Flag {
	case TTExact:
		return true, adjusted, ttMove
	case TTLowerBound:
		if adjusted >= beta {
			return true, adjusted, ttMove
		}
	case TTUpperBound:
		if adjusted <= alpha {
			return true, adjusted, ttMove
		}
	}

	return false, 0, ttMove
}

// Store saves a search result, keyed by hash. Replacement favors entries
// from the current search generation at equal or greater depth, or any
// entry left over from a previous generation.
func (tt *TranspositionTable) Store(hash uint64, depth int, score int, flag TTFlag, bestMove board.Move) {
	idx := hash & tt.mask
	entry := &tt.entries[idx]

	if entry.Age != tt.age || depth >= int(entry.Depth) {
		entry.Key = uint32(hash >> 32)
		entry.BestMove = bestMove
		entry.Score = int32(score)
		entry.Depth = int8(depth)
		entry.Flag = flag
		entry.Age = tt.age
	}
}

// NewSearch increments the age counter; called once per getBestMove so
// stale entries from earlier root searches can be displaced.
func (tt *TranspositionTable) NewSearch() {
	tt.age++
}

// Clear empties the table.
func (tt *TranspositionTable) Clear() {
	for i := range tt.entries {
		tt.entries[i] = TTEntry{}
	}
	tt.age = 0
	tt.hits = 0
	tt.probes = 0
}

// HashFull returns the permille of the table occupied by the current
// search generation, sampled over the first 1000 entries.
func (tt *TranspositionTable) HashFull() int {
	sampleSize := 1000
	if uint64(sampleSize) > tt.size {
		sampleSize = int(tt.size)
	}

	used := 0
	for i := 0; i < sampleSize; i++ {
		if tt.entries[i].Age == tt.age && (tt.entries[i].Key != 0 || tt.entries[i].Depth != 0) {
			used++
		}
	}
	return (used * 1000) / sampleSize
}

// HitRate returns the fraction of probes that found a key match, as a
// percentage.
func (tt *TranspositionTable) HitRate() float64 {
	if tt.probes == 0 {
		return 0
	}
	return float64(tt.hits) / float64(tt.probes) * 100
}

// Size returns the number of entries in the table.
func (tt *TranspositionTable) Size() uint64 {
	return tt.size
}

// adjustFromTT and adjustToTT convert mate scores between the ply-relative
// form used during search and the ply-independent form stored in the
// table, so that a mate score found deep in one search is still correctly
// interpreted as "mate in N from here" when reused at a different ply.
func adjustFromTT(score, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -MateScore+MaxPly {
		return score + ply
	}
	return score
}

func adjustToTT(score, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -MateScore+MaxPly {
		return score - ply
	}
	return score
}
