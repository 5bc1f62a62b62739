// Package engine implements the search core of the chess engine: evaluation,
// static exchange evaluation, move ordering, the transposition table, and
// the iterative-deepening PV search built on top of them.
package engine

import (
	"github.com/halvardolsen/chesscore/internal/board"
)

// Piece values in centipawns.
const (
	PawnValue   = 100
	KnightValue = 320
	BishopValue = 330
	RookValue   = 500
	QueenValue  = 900
	KingValue   = 20000
)

// pieceValues mirrors board.PieceValue, indexed by board.PieceType.
var pieceValues = [7]int{PawnValue, KnightValue, BishopValue, RookValue, QueenValue, KingValue, 0}

// Piece-square tables, white's perspective. Black indexes with the square
// mirrored vertically (board.Square.Mirror). Values reproduced verbatim
// from the reference "simplified evaluation" tables.
var pawnPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	50, 50, 50, 50, 50, 50, 50, 50,
	10, 10, 20, 30, 30, 20, 10, 10,
	5, 5, 10, 25, 25, 10, 5, 5,
	0, 0, 0, 20, 20, 0, 0, 0,
	5, -5, -10, 0, 0, -10, -5, 5,
	5, 10, 10, -20, -20, 10, 10, 5,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var knightPST = [64]int{
	-50, -40, -30, -30, -30, -30, -40, -50,
	-40, -20, 0, 0, 0, 0, -20, -40,
	-30, 0, 10, 15, 15, 10, 0, -30,
	-30, 5, 15, 20, 20, 15, 5, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 10, 15, 15, 10, 5, -30,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-50, -40, -30, -30, -30, -30, -40, -50,
}

var bishopPST = [64]int{
	-20, -10, -10, -10, -10, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 10, 10, 5, 0, -10,
	-10, 5, 5, 10, 10, 5, 5, -10,
	-10, 0, 10, 10, 10, 10, 0, -10,
	-10, 10, 10, 10, 10, 10, 10, -10,
	-10, 5, 0, 0, 0, 0, 5, -10,
	-20, -10, -10, -10, -10, -10, -10, -20,
}

var rookPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	5, 10, 10, 10, 10, 10, 10, 5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	0, 0, 0, 5, 5, 0, 0, 0,
}

var queenPST = [64]int{
	-20, -10, -10, -5, -5, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 5, 5, 5, 0, -10,
	-5, 0, 5, 5, 5, 5, 0, -5,
	0, 0, 5, 5, 5, 5, 0, -5,
	-10, 5, 5, 5, 5, 5, 0, -10,
	-10, 0, 5, 0, 0, 0, 0, -10,
	-20, -10, -10, -5, -5, -10, -10, -20,
}

var kingMiddlegamePST = [64]int{
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-20, -30, -30, -40, -40, -30, -30, -20,
	-10, -20, -20, -20, -20, -20, -20, -10,
	20, 20, 0, 0, 0, 0, 20, 20,
	20, 30, 10, 0, 0, 10, 30, 20,
}

var kingEndgamePST = [64]int{
	-50, -40, -30, -20, -20, -30, -40, -50,
	-30, -20, -10, 0, 0, -10, -20, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -30, 0, 0, 0, 0, -30, -30,
	-50, -30, -30, -30, -30, -30, -30, -50,
}

// pstByType indexes the non-king tables by board.PieceType.
var pstByType = [5][64]int{pawnPST, knightPST, bishopPST, rookPST, queenPST}

// IsEndgame reports whether the position satisfies the endgame predicate:
// neither side has a queen, or at most 6 non-king, non-pawn pieces remain
// on the board in total.
func IsEndgame(pos *board.Position) bool {
	whiteQueens := pos.Pieces[board.White][board.Queen].PopCount()
	blackQueens := pos.Pieces[board.Black][board.Queen].PopCount()
	if whiteQueens == 0 && blackQueens == 0 {
		return true
	}

	n := 0
	for c := board.White; c <= board.Black; c++ {
		for pt := board.Knight; pt <= board.Queen; pt++ {
			n += pos.Pieces[c][pt].PopCount()
		}
	}
	return n <= 6
}

// Evaluate returns the static score of the position from the side-to-move's
// perspective: material plus piece-square bonuses, with checkmate and
// stalemate overrides. The checkmate override is not flipped to the side to
// move: it is -MateScore when White is mated and +MateScore when Black is
// mated. Stalemate scores 0.
func Evaluate(pos *board.Position) int {
	if pos.IsCheckmate() {
		if pos.SideToMove == board.White {
			return -MateScore
		}
		return MateScore
	}
	if pos.IsStalemate() {
		return 0
	}

	endgame := IsEndgame(pos)

	white := materialAndPST(pos, board.White, endgame)
	black := materialAndPST(pos, board.Black, endgame)
	raw := white - black

	if pos.SideToMove == board.White {
		return raw
	}
	return -raw
}

// materialAndPST sums material plus piece-square bonuses for one color.
func materialAndPST(pos *board.Position, c board.Color, endgame bool) int {
	score := 0
	for pt := board.Pawn; pt <= board.King; pt++ {
		bb := pos.Pieces[c][pt]
		for bb != 0 {
			sq := bb.PopLSB()
			score += pieceValues[pt]

			pstSq := sq
			if c == board.Black {
				pstSq = sq.Mirror()
			}

			if pt == board.King {
				if endgame {
					score += kingEndgamePST[pstSq]
				} else {
					score += kingMiddlegamePST[pstSq]
				}
			} else {
				score += pstByType[pt][pstSq]
			}
		}
	}
	return score
}

// EvaluateMaterial returns just the material balance from the side-to-move's
// perspective, ignoring piece-square bonuses and kings.
func EvaluateMaterial(pos *board.Position) int {
	score := 0
	for pt := board.Pawn; pt < board.King; pt++ {
		score += pos.Pieces[board.White][pt].PopCount() * pieceValues[pt]
		score -= pos.Pieces[board.Black][pt].PopCount() * pieceValues[pt]
	}
	if pos.SideToMove == board.Black {
		return -score
	}
	return score
}

// SeeCapture estimates the material delta of initiating a capture sequence
// on move.To(). Returns 0 if the move is not a capture.
func SeeCapture(pos *board.Position, m board.Move) int {
	from := m.From()
	to := m.To()

	attackerPiece := pos.PieceAt(from)
	if attackerPiece == board.NoPiece {
		return 0
	}

	var victimValue int
	var excludeCapturedSq board.Square = board.NoSquare
	if m.IsEnPassant() {
		victimValue = PawnValue
		if attackerPiece.Color() == board.White {
			excludeCapturedSq = board.NewSquare(to.File(), to.Rank()-1)
		} else {
			excludeCapturedSq = board.NewSquare(to.File(), to.Rank()+1)
		}
	} else {
		victim := pos.PieceAt(to)
		if victim == board.NoPiece {
			return 0
		}
		victimValue = pieceValues[victim.Type()]
	}

	attackerValue := pieceValues[attackerPiece.Type()]
	occupied := pos.AllOccupied &^ board.SquareBB(from)
	if excludeCapturedSq != board.NoSquare {
		occupied &^= board.SquareBB(excludeCapturedSq)
	}

	return victimValue - see(pos, to, attackerPiece.Color(), attackerValue, occupied)
}

// see returns the best material the side-to-recapture can gain by
// continuing the exchange on square, clamped to >= 0. side is the color of
// the piece that just captured on square; the recapture, if any, is made by
// the opposite color.
func see(pos *board.Position, square board.Square, side board.Color, captureValue int, occupied board.Bitboard) int {
	attackerSq, attackerPiece := getLeastValuableAttacker(pos, square, side.Other(), occupied)
	if attackerPiece == board.NoPiece {
		return 0
	}

	v := pieceValues[attackerPiece.Type()]
	nextOccupied := occupied &^ board.SquareBB(attackerSq)

	gain := captureValue - see(pos, square, side.Other(), v, nextOccupied)
	return max(0, gain)
}

// getLeastValuableAttacker finds the lowest-value piece of side attacking
// target, under the given occupancy. Ties break by bitboard LSB scan order,
// which is row-major under this engine's Little-Endian Rank-File square
// numbering. Returns (NoSquare, NoPiece) if side has no attacker.
func getLeastValuableAttacker(pos *board.Position, target board.Square, side board.Color, occupied board.Bitboard) (board.Square, board.Piece) {
	if pawns := pos.Pieces[side][board.Pawn] & board.PawnAttacks(target, side.Other()) & occupied; pawns != 0 {
		return pawns.LSB(), board.NewPiece(board.Pawn, side)
	}
	if knights := pos.Pieces[side][board.Knight] & board.KnightAttacks(target) & occupied; knights != 0 {
		return knights.LSB(), board.NewPiece(board.Knight, side)
	}

	bishopRay := board.BishopAttacks(target, occupied)
	if bishops := pos.Pieces[side][board.Bishop] & bishopRay & occupied; bishops != 0 {
		return bishops.LSB(), board.NewPiece(board.Bishop, side)
	}

	rookRay := board.RookAttacks(target, occupied)
	if rooks := pos.Pieces[side][board.Rook] & rookRay & occupied; rooks != 0 {
		return rooks.LSB(), board.NewPiece(board.Rook, side)
	}
	if queens := pos.Pieces[side][board.Queen] & (bishopRay | rookRay) & occupied; queens != 0 {
		return queens.LSB(), board.NewPiece(board.Queen, side)
	}
	if kings := pos.Pieces[side][board.King] & board.KingAttacks(target) & occupied; kings != 0 {
		return kings.LSB(), board.NewPiece(board.King, side)
	}

	return board.NoSquare, board.NoPiece
}
