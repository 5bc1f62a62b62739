package engine

import (
	"github.com/halvardolsen/chesscore/internal/board"
)

// Move-ordering score tiers. Each tier numerically dominates every tier
// below it, so a plain descending sort by score produces the order spec'd
// in the move-ordering design: TT move, PV move, good captures, bad
// captures, counter-move, killers, quiet history.
const (
	ttMoveScore      = 10000000
	pvMoveBase       = 9000000
	pvMoveDepthBonus = 1000
	goodCaptureBase  = 4000000
	badCaptureBase   = 3000000
	counterMoveScore = 2500000
	killerScore1     = 2000100
	killerScore2     = 2000000
)

// historyMax is the ceiling before the history table is globally rescaled.
const historyMax = 10000

// mvvLva is the fixed 6x6 Most-Valuable-Victim/Least-Valuable-Attacker
// matrix, rows = attacker, columns = victim, in PAWN..KING order.
var mvvLva = [6][6]int{
	{105, 205, 305, 405, 505, 605},
	{104, 204, 304, 404, 504, 604},
	{103, 203, 303, 403, 503, 603},
	{102, 202, 302, 402, 502, 602},
	{101, 201, 301, 401, 501, 601},
	{100, 200, 300, 400, 500, 600},
}

// MoveOrderer owns all mutable move-ordering state for one Searcher:
// killer slots, history table, counter-move table, and the previous-
// iteration PV used to bias ordering toward the running principal variation.
type MoveOrderer struct {
	killers      [MaxPly][2]board.Move
	history      [2][64][64]int // [color][from][to]
	counterMoves [12][64]board.Move

	// pvMoves[ply] is the move that appeared in the PV at this ply in the
	// deepest iteration so far, with pvDepth[ply] recording that depth.
	pvMoves [MaxPly]board.Move
	pvDepth [MaxPly]int
}

// NewMoveOrderer creates an empty move orderer.
func NewMoveOrderer() *MoveOrderer {
	mo := &MoveOrderer{}
	mo.Clear()
	return mo
}

// Clear resets killers, counter-moves and the running PV for a new root
// search, while aging (not zeroing) the history table.
func (mo *MoveOrderer) Clear() {
	for i := range mo.killers {
		mo.killers[i][0] = board.NoMove
		mo.killers[i][1] = board.NoMove
		mo.pvMoves[i] = board.NoMove
		mo.pvDepth[i] = 0
	}
	for c := range mo.history {
		for i := range mo.history[c] {
			for j := range mo.history[c][i] {
				mo.history[c][i][j] /= 2
			}
		}
	}
	for i := range mo.counterMoves {
		for j := range mo.counterMoves[i] {
			mo.counterMoves[i][j] = board.NoMove
		}
	}
}

// SetPVMove records the move that held this ply in the PV at the given
// iteration depth, so deeper iterations take priority over shallower ones.
func (mo *MoveOrderer) SetPVMove(ply int, m board.Move, depth int) {
	if ply >= MaxPly {
		return
	}
	if depth >= mo.pvDepth[ply] {
		mo.pvMoves[ply] = m
		mo.pvDepth[ply] = depth
	}
}

// ScoreMoves assigns ordering scores to every move in the list.
func (mo *MoveOrderer) ScoreMoves(pos *board.Position, moves *board.MoveList, ply int, ttMove, prevMove board.Move) []int {
	scores := make([]int, moves.Len())
	counterMove := mo.GetCounterMove(prevMove, pos)
	for i := 0; i < moves.Len(); i++ {
		scores[i] = mo.scoreMove(pos, moves.Get(i), ply, ttMove, counterMove)
	}
	return scores
}

func (mo *MoveOrderer) scoreMove(pos *board.Position, m board.Move, ply int, ttMove, counterMove board.Move) int {
	if m == ttMove {
		return ttMoveScore
	}
	if ply < MaxPly && m == mo.pvMoves[ply] {
		return pvMoveBase + pvMoveDepthBonus*mo.pvDepth[ply]
	}

	if m.IsCapture(pos) {
		attacker := pos.PieceAt(m.From())
		var victim board.PieceType
		if m.IsEnPassant() {
			victim = board.Pawn
		} else {
			victim = pos.PieceAt(m.To()).Type()
		}
		seeScore := SeeCapture(pos, m)
		if seeScore >= 0 {
			return goodCaptureBase + seeScore
		}
		return badCaptureBase + mvvLva[attacker.Type()][victim]
	}

	if m == counterMove {
		return counterMoveScore
	}

	if ply < MaxPly {
		if m == mo.killers[ply][0] {
			return killerScore1
		}
		if m == mo.killers[ply][1] {
			return killerScore2
		}
	}

	return mo.GetHistoryScore(pos.SideToMove, m)
}

// PickMove selects the best-scoring remaining move and swaps it into index,
// enabling lazy (partial) selection sort during move iteration.
func PickMove(moves *board.MoveList, scores []int, index int) {
	best := index
	for j := index + 1; j < moves.Len(); j++ {
		if scores[j] > scores[best] {
			best = j
		}
	}
	if best != index {
		moves.Swap(index, best)
		scores[index], scores[best] = scores[best], scores[index]
	}
}

// UpdateKillers records m as a killer at ply, per the storage rule: if m is
// not already the first killer, it shifts into the first slot and the
// previous first killer becomes the second.
func (mo *MoveOrderer) UpdateKillers(m board.Move, ply int) {
	if ply >= MaxPly || mo.killers[ply][0] == m {
		return
	}
	mo.killers[ply][1] = mo.killers[ply][0]
	mo.killers[ply][0] = m
}

// UpdateHistory adds depth^2 to the history slot for a quiet move that
// caused a beta cutoff, globally halving the table if any entry would
// exceed historyMax.
func (mo *MoveOrderer) UpdateHistory(pos *board.Position, m board.Move, depth int) {
	c := pos.SideToMove
	from, to := m.From(), m.To()
	mo.history[c][from][to] += depth * depth

	if mo.history[c][from][to] > historyMax {
		for cc := range mo.history {
			for i := range mo.history[cc] {
				for j := range mo.history[cc][i] {
					mo.history[cc][i][j] /= 2
				}
			}
		}
	}
}

// GetHistoryScore returns the history score for a quiet move by a color.
func (mo *MoveOrderer) GetHistoryScore(c board.Color, m board.Move) int {
	return mo.history[c][m.From()][m.To()]
}

// UpdateCounterMove records counterMove as the reply that refuted prevMove.
// Keyed on the moved piece and destination of prevMove, per the table's
// (piece_type, color, from_index, to_index) index described by the design
// — simplified here to (piece, to) since the piece already encodes color;
// the from-square of prevMove is not part of the key.
func (mo *MoveOrderer) UpdateCounterMove(pos *board.Position, prevMove, counterMove board.Move) {
	if prevMove == board.NoMove {
		return
	}
	piece := pos.PieceAt(prevMove.To())
	if piece == board.NoPiece {
		return
	}
	mo.counterMoves[piece][prevMove.To()] = counterMove
}

// GetCounterMove returns the recorded reply to prevMove, if any.
func (mo *MoveOrderer) GetCounterMove(prevMove board.Move, pos *board.Position) board.Move {
	if prevMove == board.NoMove {
		return board.NoMove
	}
	piece := pos.PieceAt(prevMove.To())
	if piece == board.NoPiece {
		return board.NoMove
	}
	return mo.counterMoves[piece][prevMove.To()]
}
