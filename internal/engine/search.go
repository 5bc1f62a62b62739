package engine

import (
	"sync/atomic"

	"github.com/halvardolsen/chesscore/internal/board"
)

// Search constants.
const (
	Infinity  = 1000000
	MateScore = 100000
	MaxPly    = 128
)

// PVTable stores the principal variation collected during one negamax call.
type PVTable struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]board.Move
}

// Searcher performs iterative-deepening PV search with alpha-beta pruning,
// principal variation search, a transposition table and the full set of
// move-ordering heuristics.
type Searcher struct {
	pos     *board.Position
	tt      *TranspositionTable
	orderer *MoveOrderer

	nodes    uint64
	stopFlag atomic.Bool

	pv PVTable

	undoStack [MaxPly]board.UndoInfo

	// prevMove[ply] is the move made to reach this ply, used to look up
	// counter-moves and to detect recapture extensions.
	prevMove [MaxPly]board.Move
}

// NewSearcher creates a new searcher sharing the given transposition table.
func NewSearcher(tt *TranspositionTable) *Searcher {
	return &Searcher{
		tt:      tt,
		orderer: NewMoveOrderer(),
	}
}

// Stop signals the search to halt as soon as the next node-count checkpoint
// is reached.
func (s *Searcher) Stop() {
	s.stopFlag.Store(true)
}

// Reset clears per-search state ahead of a new root search.
func (s *Searcher) Reset() {
	s.stopFlag.Store(false)
	s.nodes = 0
}

// Nodes returns the number of nodes visited by the most recent search.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

// Search runs iterative deepening from depth 1 up to maxDepth (inclusive),
// feeding each completed iteration's PV into the move orderer so the next,
// deeper iteration benefits from the previous iteration's best line. It
// returns the best move and score found at the deepest completed iteration.
// onInfo, if non-nil, is called once per completed iteration.
func (s *Searcher) Search(pos *board.Position, maxDepth int, onInfo func(depth, score int, nodes uint64, pv []board.Move)) (board.Move, int) {
	s.pos = pos.Copy()
	s.Reset()
	s.orderer.Clear()
	s.tt.NewSearch()

	var bestMove board.Move
	var bestScore int

	for depth := 1; depth <= maxDepth; depth++ {
		score := s.negamax(depth, 0, -Infinity, Infinity)

		if s.stopFlag.Load() && depth > 1 {
			break
		}

		if s.pv.length[0] > 0 {
			bestMove = s.pv.moves[0][0]
			bestScore = score

			for ply := 0; ply < s.pv.length[0]; ply++ {
				s.orderer.SetPVMove(ply, s.pv.moves[0][ply], depth)
			}
		}

		if onInfo != nil {
			onInfo(depth, score, s.nodes, s.GetPV())
		}

		if score > MateScore-MaxPly || score < -MateScore+MaxPly {
			break
		}
	}

	return bestMove, bestScore
}

// negamax is the unified negamax core: every node, regardless of whether it
// is "maximizing" from the outside, is scored from the side-to-move's own
// perspective, and a child's score is negated when folded back into the
// parent. Principal variation search narrows the window for every move
// after the first, re-searching with the full window only if the narrow
// search indicates the move might raise alpha.
func (s *Searcher) negamax(depth, ply int, alpha, beta int) int {
	if s.nodes&4095 == 0 && s.stopFlag.Load() {
		return 0
	}
	s.nodes++
	s.pv.length[ply] = ply

	if ply > 0 && s.isDraw() {
		return 0
	}

	// A perpetual-check line can keep extension == depth cost on every
	// in-check node, so ply must be bounded independently of depth: without
	// this, prevMove[ply+1] below would eventually index past MaxPly.
	if ply >= MaxPly-1 {
		return Evaluate(s.pos)
	}

	inCheck := s.pos.InCheck()

	// The root (ply 0) never returns a cached cutoff: a full PV must be
	// produced at every iteration. The TT move is still used for ordering.
	usable, ttScore, ttMove := s.tt.Probe(s.pos.Hash, depth, alpha, beta, ply)
	if usable && ply > 0 {
		return ttScore
	}

	if depth <= 0 {
		return s.quiescence(ply, alpha, beta)
	}

	moves := s.pos.GenerateLegalMoves()
	if moves.Len() == 0 {
		if inCheck {
			return -MateScore + ply
		}
		return 0
	}

	// Check extension: a side to move in check searches one ply deeper,
	// since forced replies make the position easier to resolve. Singular
	// extension: a forced (only-legal-move) node likewise deserves the
	// extra ply, once depth is large enough to afford it.
	extension := 0
	if inCheck {
		extension = 1
	}
	if extension == 0 && moves.Len() == 1 && depth >= 2 {
		extension = 1
	}

	scores := s.orderer.ScoreMoves(s.pos, moves, ply, ttMove, s.prevMove[ply])

	bestScore := -Infinity
	bestMove := board.NoMove
	flag := TTUpperBound
	movesSearched := 0
	foundPV := false

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		move := moves.Get(i)

		isCapture := move.IsCapture(s.pos)
		seeScore := 0
		if isCapture {
			seeScore = SeeCapture(s.pos, move)
		}

		// Early pruning: at sufficient depth, drop clearly losing captures
		// from consideration entirely rather than searching them.
		if depth >= 3 && isCapture && seeScore < -2*PawnValue {
			continue
		}

		// Recapture extension: re-establish full depth when immediately
		// recapturing on the square the opponent just captured on, so the
		// exchange is resolved rather than cut off mid-sequence.
		moveExtension := extension
		if moveExtension == 0 && isCapture && s.prevMove[ply] != board.NoMove && move.To() == s.prevMove[ply].To() {
			moveExtension = 1
		}
		// Seventh-rank pawn push extension (any pawn, passed or not).
		if moveExtension == 0 && s.isSeventhRankPawnPush(move) {
			moveExtension = 1
		}

		s.undoStack[ply] = s.pos.MakeMove(move)
		if !s.undoStack[ply].Valid {
			s.pos.UnmakeMove(move, s.undoStack[ply])
			continue
		}
		s.prevMove[ply+1] = move

		var score int
		if movesSearched == 0 {
			newDepth := max(0, depth-1+moveExtension)
			score = -s.negamax(newDepth, ply+1, -beta, -alpha)
		} else {
			// Late move reduction, applied only while this node has not
			// yet found a move establishing its PV.
			reduction := 0
			if !foundPV {
				switch {
				case ply < MaxPly && move == s.orderer.pvMoves[ply]:
					reduction = 0
				case isCapture && seeScore < 0:
					reduction = 1
				case movesSearched <= 2:
					reduction = 0
				case movesSearched <= 5:
					reduction = 1
				default:
					reduction = 2
				}
			}

			newDepth := max(0, depth-1+moveExtension-reduction)
			score = -s.negamax(newDepth, ply+1, -alpha-1, -alpha)
			if score > alpha && score < beta {
				fullDepth := max(0, depth-1+moveExtension)
				score = -s.negamax(fullDepth, ply+1, -beta, -alpha)
			}
		}

		s.pos.UnmakeMove(move, s.undoStack[ply])
		movesSearched++

		if s.stopFlag.Load() {
			return 0
		}

		if score > bestScore {
			bestScore = score
			bestMove = move

			if score > alpha {
				alpha = score
				flag = TTExact
				foundPV = true

				s.pv.moves[ply][ply] = move
				for j := ply + 1; j < s.pv.length[ply+1]; j++ {
					s.pv.moves[ply][j] = s.pv.moves[ply+1][j]
				}
				s.pv.length[ply] = s.pv.length[ply+1]
			}
		}

		if score >= beta {
			s.tt.Store(s.pos.Hash, depth, adjustToTT(score, ply), TTLowerBound, bestMove)

			if !isCapture {
				s.orderer.UpdateKillers(move, ply)
				s.orderer.UpdateHistory(s.pos, move, depth)
				if s.prevMove[ply] != board.NoMove {
					s.orderer.UpdateCounterMove(s.pos, s.prevMove[ply], move)
				}
			}

			return score
		}
	}

	s.tt.Store(s.pos.Hash, depth, adjustToTT(bestScore, ply), flag, bestMove)

	return bestScore
}

// isSeventhRankPawnPush reports whether move advances a pawn to the
// opponent's second rank (one step from promotion).
func (s *Searcher) isSeventhRankPawnPush(move board.Move) bool {
	piece := s.pos.PieceAt(move.From())
	if piece.Type() != board.Pawn {
		return false
	}
	rank := move.To().Rank()
	if piece.Color() == board.White {
		return rank == 6
	}
	return rank == 1
}

// quiescence extends the search along tactical lines only: captures,
// en-passant, and, when in check, every legal move (since a position in
// check cannot be considered quiet). qDepth counts plies spent inside
// quiescence itself, separate from ply: the first quiescence ply (qDepth
// == 0) always searches every tactical reply; delta pruning engages once
// qDepth > 0, and the "skip bad captures" rule once qDepth > 2.
func (s *Searcher) quiescence(ply int, alpha, beta int) int {
	return s.quiescenceAt(ply, 0, alpha, beta)
}

func (s *Searcher) quiescenceAt(ply, qDepth int, alpha, beta int) int {
	const maxQuiescencePly = 32
	if ply >= MaxPly || ply > maxQuiescencePly {
		return Evaluate(s.pos)
	}

	if s.stopFlag.Load() {
		return 0
	}
	s.nodes++

	inCheck := s.pos.InCheck()

	var standPat int
	if !inCheck {
		standPat = Evaluate(s.pos)
		if standPat >= beta {
			return beta
		}
		if standPat > alpha {
			alpha = standPat
		}
		// Delta pruning only applies once quiescence is already a ply deep:
		// the first quiescence ply must search every tactical reply.
		if qDepth > 0 && standPat+QueenValue < alpha {
			return alpha
		}
	}

	var moves *board.MoveList
	if inCheck {
		moves = s.pos.GenerateLegalMoves()
		if moves.Len() == 0 {
			return -MateScore + ply
		}
	} else {
		moves = s.pos.GenerateCaptures()
	}

	scores := s.orderer.ScoreMoves(s.pos, moves, ply, board.NoMove, board.NoMove)

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		move := moves.Get(i)

		isCapture := move.IsCapture(s.pos)

		if !inCheck {
			// Skip captures with a clearly losing exchange once we are a
			// few plies into quiescence; near the horizon even losing
			// captures can matter for tactical accuracy.
			if qDepth > 2 && isCapture && SeeCapture(s.pos, move) < 0 {
				continue
			}

			var captureValue int
			if move.IsEnPassant() {
				captureValue = PawnValue
			} else if isCapture {
				capturedPiece := s.pos.PieceAt(move.To())
				captureValue = pieceValues[capturedPiece.Type()]
			}
			if move.IsPromotion() {
				captureValue += QueenValue - PawnValue
			}
			if qDepth > 0 && standPat+captureValue+200 <= alpha {
				continue
			}
		}

		undo := s.pos.MakeMove(move)
		if !undo.Valid {
			s.pos.UnmakeMove(move, undo)
			continue
		}

		score := -s.quiescenceAt(ply+1, qDepth+1, -beta, -alpha)

		s.pos.UnmakeMove(move, undo)

		if score >= beta {
			return beta
		}
		if score > alpha {
			alpha = score
		}
	}

	return alpha
}

// isDraw checks for draw conditions reachable without full game history:
// the 50-move rule and insufficient mating material. Repetition is not
// detected.
func (s *Searcher) isDraw() bool {
	if s.pos.HalfMoveClock >= 100 {
		return true
	}
	if s.pos.IsInsufficientMaterial() {
		return true
	}
	return false
}

// GetPV returns the principal variation found by the most recent root
// search.
func (s *Searcher) GetPV() []board.Move {
	pv := make([]board.Move, s.pv.length[0])
	for i := 0; i < s.pv.length[0]; i++ {
		pv[i] = s.pv.moves[0][i]
	}
	return pv
}
