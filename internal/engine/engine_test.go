package engine

import (
	"testing"

	"github.com/halvardolsen/chesscore/internal/board"
)

func TestSearchBasic(t *testing.T) {
	pos := board.NewPosition()
	eng := NewEngine(16)

	move, score, depth := eng.GetBestMove(pos, SearchLimits{Depth: 1})
	if move == board.NoMove {
		t.Fatal("search returned NoMove for starting position")
	}
	if depth < 1 {
		t.Errorf("expected depth >= 1, got %d", depth)
	}
	if eng.Nodes() <= 20 {
		t.Errorf("expected more than 20 nodes at depth 1 (20 legal moves), got %d", eng.Nodes())
	}
	if score < -50 || score > 50 {
		t.Errorf("expected starting position score within +/-50, got %d", score)
	}
	t.Logf("best move: %s, score: %d", move.String(), score)
}

func TestMateInOne(t *testing.T) {
	pos, err := board.ParseFEN("6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1")
	if err != nil {
		t.Fatalf("failed to parse FEN: %v", err)
	}
	eng := NewEngine(16)

	move, score, _ := eng.GetBestMove(pos, SearchLimits{Depth: 3})
	if move == board.NoMove {
		t.Fatal("expected a mating move")
	}
	if score != MateScore-1 {
		t.Errorf("expected score %d (MATE-1), got %d", MateScore-1, score)
	}

	undo := pos.MakeMove(move)
	if !undo.Valid {
		t.Fatal("engine returned an invalid move")
	}
	if !pos.IsCheckmate() {
		t.Errorf("move %s did not deliver checkmate", move.String())
	}
}

// TestMateScoreStableAcrossDepth checks that a search allowed to go deeper
// than the mate distance (depth 3 for a mate in one) still reports a mate
// score rather than losing it to the horizon. The position is a
// king-and-rook mate (Ra8#), not the back-rank position of TestMateInOne.
func TestMateScoreStableAcrossDepth(t *testing.T) {
	pos, err := board.ParseFEN("6k1/8/6K1/8/8/8/8/R7 w - - 0 1")
	if err != nil {
		t.Fatalf("failed to parse FEN: %v", err)
	}
	eng := NewEngine(16)

	_, score, _ := eng.GetBestMove(pos, SearchLimits{Depth: 3})
	if score < MateScore-MaxPly {
		t.Errorf("expected a mate score at depth 3, got %d", score)
	}
}

func TestStalemateEvaluatesToZero(t *testing.T) {
	pos, err := board.ParseFEN("7k/8/6Q1/8/8/8/8/7K b - - 0 1")
	if err != nil {
		t.Fatalf("failed to parse FEN: %v", err)
	}
	if !pos.IsStalemate() {
		t.Fatal("expected position to be stalemate")
	}
	if score := Evaluate(pos); score != 0 {
		t.Errorf("expected stalemate score 0, got %d", score)
	}
}

func TestSeeLosingCapture(t *testing.T) {
	// White queen on d4 takes a pawn on d5 defended by a knight on f6.
	pos, err := board.ParseFEN("rnbqkb1r/ppp1pppp/5n2/3p4/3Q4/8/PPPPPPPP/RNB1KBNR w KQkq - 2 3")
	if err != nil {
		t.Fatalf("failed to parse FEN: %v", err)
	}

	m := board.NewMove(board.D4, board.D5)
	see := SeeCapture(pos, m)
	if see >= 0 {
		t.Errorf("expected a losing SEE score for queen takes defended pawn, got %d", see)
	}
	if want := PawnValue - QueenValue; see != want {
		t.Errorf("expected SEE %d, got %d", want, see)
	}
}

func TestSeeNonNegativeForWinningCapture(t *testing.T) {
	// Black rook on d5 hangs to a white pawn on e4, undefended.
	pos, err := board.ParseFEN("4k3/8/8/3r4/4P3/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("failed to parse FEN: %v", err)
	}

	m := board.NewMove(board.E4, board.D5)
	if see := SeeCapture(pos, m); see < 0 {
		t.Errorf("expected non-negative SEE for winning capture, got %d", see)
	}
}

func TestHistoryBoundedAfterRescale(t *testing.T) {
	mo := NewMoveOrderer()
	pos := board.NewPosition()
	m := board.NewMove(board.E2, board.E4)

	for i := 0; i < 200; i++ {
		mo.UpdateHistory(pos, m, 10)
	}

	if score := mo.GetHistoryScore(pos.SideToMove, m); score > historyMax {
		t.Errorf("expected history score <= %d after rescale, got %d", historyMax, score)
	}
}

func TestKillerMovePersistsAcrossPlyLookup(t *testing.T) {
	mo := NewMoveOrderer()
	m := board.NewMove(board.G1, board.F3)

	mo.UpdateKillers(m, 3)

	pos := board.NewPosition()
	moves := pos.GenerateLegalMoves()
	scores := mo.ScoreMoves(pos, moves, 3, board.NoMove, board.NoMove)

	for i := 0; i < moves.Len(); i++ {
		if moves.Get(i) == m {
			if scores[i] != killerScore1 {
				t.Errorf("expected killer move to score %d, got %d", killerScore1, scores[i])
			}
			return
		}
	}
	// m (g1f3) is always a legal opening move, so this path should be unreachable.
	t.Fatal("killer move not found in generated move list")
}

func TestMakeUnmakeBalance(t *testing.T) {
	pos := board.NewPosition()
	before := pos.Hash

	eng := NewEngine(4)
	eng.GetBestMove(pos, SearchLimits{Depth: 3})

	if pos.Hash != before {
		t.Errorf("position hash changed across search: before=%x after=%x", before, pos.Hash)
	}
}

func TestPVPrefixProperty(t *testing.T) {
	pos := board.NewPosition()
	eng := NewEngine(16)

	_, _, _ = eng.GetBestMove(pos, SearchLimits{Depth: 3})
	pv := eng.GetPV()
	if len(pv) < 2 {
		t.Skip("PV too short to check prefix property")
	}

	undo := pos.MakeMove(pv[0])
	if !undo.Valid {
		t.Fatal("PV's first move was not legal")
	}
	defer pos.UnmakeMove(pv[0], undo)

	eng2 := NewEngine(16)
	_, _, _ = eng2.GetBestMove(pos, SearchLimits{Depth: 2})
	childPV := eng2.GetPV()

	if len(childPV) == 0 {
		t.Skip("child search returned empty PV")
	}
	// The remainder of the parent PV should at least agree on the immediate
	// reply in the common case; ties in evaluation can legitimately differ,
	// so this only checks that a reply was found, not exact equality.
	if childPV[0] == board.NoMove {
		t.Error("expected a non-null reply move")
	}
}

func TestPerft(t *testing.T) {
	pos := board.NewPosition()
	eng := NewEngine(1)

	// Known perft values for the starting position.
	want := map[int]uint64{
		1: 20,
		2: 400,
		3: 8902,
	}

	for depth, expected := range want {
		if got := eng.Perft(pos, depth); got != expected {
			t.Errorf("perft(%d) = %d, want %d", depth, got, expected)
		}
	}
}
