// Command chessplay-search runs the engine's iterative-deepening search on
// a single position and prints the best move found.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/halvardolsen/chesscore/internal/board"
	"github.com/halvardolsen/chesscore/internal/engine"
	"github.com/halvardolsen/chesscore/internal/telemetry"
)

var (
	fen          = flag.String("fen", board.StartFEN, "FEN of the position to search")
	depth        = flag.Int("depth", 8, "maximum search depth (0 = engine default)")
	moveTime     = flag.Duration("movetime", 0, "time budget for the search, e.g. 5s (0 = unbounded)")
	ttSizeMB     = flag.Int("hash", 64, "transposition table size in MB")
	telemetryDir = flag.String("telemetry-dir", "", "directory for the telemetry store (empty = platform default, \"-\" = disabled)")
)

func main() {
	flag.Parse()

	pos, err := board.ParseFEN(*fen)
	if err != nil {
		log.Fatalf("invalid FEN %q: %v", *fen, err)
	}

	store, err := openTelemetry(*telemetryDir)
	if err != nil {
		log.Printf("[telemetry] disabled: %v", err)
	}
	if store != nil {
		defer store.Close()
	}

	eng := engine.NewEngine(*ttSizeMB)

	startTime := time.Now()
	eng.OnInfo = func(info engine.SearchInfo) {
		if store == nil {
			return
		}
		elapsed := time.Since(startTime).Milliseconds()
		nps := uint64(0)
		if elapsed > 0 {
			nps = info.Nodes * 1000 / uint64(elapsed)
		}
		bestMove := ""
		if len(info.PV) > 0 {
			bestMove = info.PV[0].String()
		}
		rec := telemetry.SearchRecord{
			PositionHash:  pos.Hash,
			Depth:         info.Depth,
			Score:         info.Score,
			Nodes:         info.Nodes,
			ElapsedMillis: elapsed,
			NPS:           nps,
			BestMove:      bestMove,
		}
		if err := store.RecordSearch(rec); err != nil {
			log.Printf("[telemetry] record failed: %v", err)
		}
	}

	move, score, reachedDepth := eng.GetBestMove(pos, engine.SearchLimits{
		Depth:    *depth,
		MoveTime: *moveTime,
	})

	if move == board.NoMove {
		fmt.Println("no move found (terminal position)")
		return
	}

	fmt.Printf("bestmove %s (%s)\n", move.String(), move.ToSAN(pos))
	fmt.Printf("score %s (depth %d, %d nodes)\n", engine.ScoreToString(score), reachedDepth, eng.Nodes())
	fmt.Printf("pv %s\n", pvString(eng.GetPV()))
}

func pvString(pv []board.Move) string {
	s := ""
	for i, m := range pv {
		if i > 0 {
			s += " "
		}
		s += m.String()
	}
	return s
}

func openTelemetry(dir string) (*telemetry.Store, error) {
	if dir == "-" {
		return nil, nil
	}
	if dir == "" {
		var err error
		dir, err = telemetry.DefaultDBDir()
		if err != nil {
			return nil, err
		}
	}
	return telemetry.Open(dir)
}
