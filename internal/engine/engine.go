package engine

import (
	"log"
	"time"

	"github.com/halvardolsen/chesscore/internal/board"
)

// SearchInfo describes one completed iterative-deepening iteration, reported
// through Engine.OnInfo as the search progresses.
type SearchInfo struct {
	Depth    int
	Score    int
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int // Permille of hash table used
}

// SearchLimits bounds a single getBestMove call. A zero Depth means MaxPly;
// a zero MoveTime means no time limit.
type SearchLimits struct {
	Depth    int           // Maximum depth (0 = MaxPly)
	MoveTime time.Duration // Wall-clock budget for this move (0 = no limit)
}

// Engine drives a single-threaded iterative-deepening search over one
// Searcher and transposition table.
type Engine struct {
	tt       *TranspositionTable
	searcher *Searcher

	// OnInfo, if set, is called once per completed iteration with the
	// progress snapshot described in the collaborator contract.
	OnInfo func(SearchInfo)
}

// NewEngine creates a chess engine with a transposition table sized to
// ttSizeMB megabytes.
func NewEngine(ttSizeMB int) *Engine {
	tt := NewTranspositionTable(ttSizeMB)
	e := &Engine{
		tt:       tt,
		searcher: NewSearcher(tt),
	}
	log.Printf("[engine] transposition table sized for %d MB (%d entries)", ttSizeMB, tt.Size())
	return e
}

// GetBestMove runs iterative deepening up to limits.Depth (or MaxPly, if
// unset) and returns the best move found, its score, and the depth
// actually reached. If limits.MoveTime is set, the search is asked to stop
// once the budget elapses; the result is whatever the deepest completed
// iteration found.
func (e *Engine) GetBestMove(pos *board.Position, limits SearchLimits) (board.Move, int, int) {
	maxDepth := limits.Depth
	if maxDepth <= 0 {
		maxDepth = MaxPly
	}

	startTime := time.Now()

	var timer *time.Timer
	if limits.MoveTime > 0 {
		timer = time.AfterFunc(limits.MoveTime, e.searcher.Stop)
		defer timer.Stop()
	}

	var lastDepth int
	move, score := e.searcher.Search(pos, maxDepth, func(depth, score int, nodes uint64, pv []board.Move) {
		lastDepth = depth
		log.Printf("[search] Depth: %d, Score: %d, Nodes: %d, Time: %d ms, NPS: %d",
			depth, score, nodes, time.Since(startTime).Milliseconds(), nps(nodes, time.Since(startTime)))
		log.Printf("[search] PV at depth %d: %s", depth, formatPV(pv))

		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{
				Depth:    depth,
				Score:    score,
				Nodes:    nodes,
				Time:     time.Since(startTime),
				PV:       pv,
				HashFull: e.tt.HashFull(),
			})
		}
	})

	return move, score, lastDepth
}

// Stop halts the current search at the next node-count checkpoint.
func (e *Engine) Stop() {
	e.searcher.Stop()
}

// Clear empties the transposition table ahead of a new game.
func (e *Engine) Clear() {
	e.tt.Clear()
}

// Nodes returns the number of nodes visited by the most recent search.
func (e *Engine) Nodes() uint64 {
	return e.searcher.Nodes()
}

// GetPV returns the principal variation found by the most recent search.
func (e *Engine) GetPV() []board.Move {
	return e.searcher.GetPV()
}

// Perft counts leaf nodes at a fixed depth, for move-generator validation.
func (e *Engine) Perft(pos *board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	moves := pos.GenerateLegalMoves()
	if depth == 1 {
		return uint64(moves.Len())
	}

	var nodes uint64
	for i := 0; i < moves.Len(); i++ {
		move := moves.Get(i)
		undo := pos.MakeMove(move)
		nodes += e.Perft(pos, depth-1)
		pos.UnmakeMove(move, undo)
	}

	return nodes
}

// Evaluate returns the static evaluation of a position.
func (e *Engine) Evaluate(pos *board.Position) int {
	return Evaluate(pos)
}

func nps(nodes uint64, elapsed time.Duration) uint64 {
	seconds := elapsed.Seconds()
	if seconds <= 0 {
		return 0
	}
	return uint64(float64(nodes) / seconds)
}

func formatPV(pv []board.Move) string {
	s := ""
	for i, m := range pv {
		if i > 0 {
			s += " "
		}
		s += m.String()
	}
	return s
}

// ScoreToString converts a centipawn or mate score to a human-readable
// string, e.g. "+0.37" or "Mate in 3".
func ScoreToString(score int) string {
	if score > MateScore-MaxPly {
		mateIn := (MateScore - score + 1) / 2
		return "Mate in " + itoa(mateIn)
	}
	if score < -MateScore+MaxPly {
		mateIn := (MateScore + score + 1) / 2
		return "Mated in " + itoa(mateIn)
	}

	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	} else if score > 0 {
		sign = "+"
	}
	pawns := score / 100
	centipawns := score % 100

	frac := itoa(centipawns)
	if centipawns < 10 {
		frac = "0" + frac
	}
	return sign + itoa(pawns) + "." + frac
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	if n < 0 {
		return "-" + itoa(-n)
	}
	s := ""
	for n > 0 {
		s = string('0'+byte(n%10)) + s
		n /= 10
	}
	return s
}
