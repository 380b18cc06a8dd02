package main

import "testing"

func mustPlay(t *testing.T, g *Game, x, y int) {
	t.Helper()
	if ok, reason := g.TryApplyMove(Move{X: x, Y: y}); !ok {
		t.Fatalf("move (%d,%d) rejected: %s", x, y, reason)
	}
}

func mustPass(t *testing.T, g *Game) {
	t.Helper()
	if ok, reason := g.TryApplyMove(PassMove()); !ok {
		t.Fatalf("pass rejected: %s", reason)
	}
}

func statesEqual(a, b GameState) bool {
	if a.Board.Size() != b.Board.Size() {
		return false
	}
	size := a.Board.Size()
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if a.Board.At(x, y) != b.Board.At(x, y) {
				return false
			}
		}
	}
	return a.ToMove == b.ToMove &&
		a.CapturedBlack == b.CapturedBlack &&
		a.CapturedWhite == b.CapturedWhite &&
		a.HasLastMove == b.HasLastMove &&
		a.LastMove == b.LastMove &&
		a.HasKo == b.HasKo &&
		a.KoPoint == b.KoPoint &&
		a.PassCount == b.PassCount &&
		a.GameOver == b.GameOver &&
		a.Hash == b.Hash
}

func TestTurnOrderAndHistoryGrowth(t *testing.T) {
	g := newTestGame(9)
	if g.state.ToMove != PlayerBlack {
		t.Fatalf("black moves first, got %s", g.state.ToMove)
	}
	mustPlay(t, &g, 4, 4)
	if g.state.Board.At(4, 4) != CellBlack {
		t.Fatalf("expected black stone at (4,4), got %v", g.state.Board.At(4, 4))
	}
	if g.state.ToMove != PlayerWhite {
		t.Fatalf("turn should flip to white, got %s", g.state.ToMove)
	}
	if g.HistorySize() != 1 {
		t.Fatalf("expected 1 snapshot, got %d", g.HistorySize())
	}
	mustPlay(t, &g, 4, 5)
	if g.state.Board.At(4, 5) != CellWhite {
		t.Fatalf("expected white stone at (4,5), got %v", g.state.Board.At(4, 5))
	}
	if !g.state.HasLastMove || g.state.LastMove != (Move{X: 4, Y: 5}) {
		t.Fatalf("last move not tracked: %+v", g.state.LastMove)
	}
	if g.HistorySize() != 2 {
		t.Fatalf("expected 2 snapshots, got %d", g.HistorySize())
	}
}

func TestRejectedMoveLeavesStateUntouched(t *testing.T) {
	g := newTestGame(9)
	mustPlay(t, &g, 4, 4)
	before := g.state.Clone()
	historyBefore := g.HistorySize()
	if ok, reason := g.TryApplyMove(Move{X: 4, Y: 4}); ok || reason != "occupied" {
		t.Fatalf("replay onto occupied cell should fail, got ok=%v reason=%q", ok, reason)
	}
	if !statesEqual(before, g.state) {
		t.Fatalf("rejected move mutated the state")
	}
	if g.HistorySize() != historyBefore {
		t.Fatalf("rejected move grew history: %d -> %d", historyBefore, g.HistorySize())
	}
}

func TestDoublePassEndsGamePermanently(t *testing.T) {
	g := newTestGame(9)
	mustPlay(t, &g, 4, 4)
	mustPlay(t, &g, 4, 5)
	mustPass(t, &g)
	if g.state.PassCount != 1 || g.state.GameOver {
		t.Fatalf("after one pass: passCount=%d gameOver=%v", g.state.PassCount, g.state.GameOver)
	}
	mustPass(t, &g)
	if !g.state.GameOver {
		t.Fatalf("two consecutive passes should end the game")
	}
	if ok, reason := g.TryApplyMove(Move{X: 2, Y: 2}); ok || reason != "game over" {
		t.Fatalf("play after game over should fail, got ok=%v reason=%q", ok, reason)
	}
	if ok, reason := g.TryApplyMove(PassMove()); ok || reason != "game over" {
		t.Fatalf("pass after game over should fail, got ok=%v reason=%q", ok, reason)
	}
}

func TestPassCountResetsOnStonePlay(t *testing.T) {
	g := newTestGame(9)
	mustPass(t, &g)
	if g.state.PassCount != 1 {
		t.Fatalf("passCount=%d after one pass", g.state.PassCount)
	}
	mustPlay(t, &g, 3, 3)
	if g.state.PassCount != 0 {
		t.Fatalf("stone play should reset passCount, got %d", g.state.PassCount)
	}
	mustPass(t, &g)
	mustPass(t, &g)
	if !g.state.GameOver {
		t.Fatalf("two fresh consecutive passes should still end the game")
	}
}

func TestCornerCaptureRemovesStoneAndCounts(t *testing.T) {
	g := newTestGame(9)
	mustPlay(t, &g, 1, 0) // black
	mustPlay(t, &g, 0, 0) // white into the corner
	mustPlay(t, &g, 0, 1) // black takes the last liberty
	if g.state.Board.At(0, 0) != CellEmpty {
		t.Fatalf("captured stone still on board")
	}
	if g.state.CapturedBlack != 1 || g.state.CapturedWhite != 0 {
		t.Fatalf("capture counts wrong: black=%d white=%d", g.state.CapturedBlack, g.state.CapturedWhite)
	}
	// Capturing stone keeps three liberties, so the single-stone capture does
	// not arm a ko.
	if g.state.HasKo {
		t.Fatalf("no ko expected after this capture, got ko at %+v", g.state.KoPoint)
	}
}

func TestKoForbidsImmediateRecapture(t *testing.T) {
	g := newTestGame(9)
	b := &g.state.Board
	// Classic ko shape around (1,1)/(2,1).
	b.Set(1, 1, CellWhite)
	b.Set(1, 0, CellBlack)
	b.Set(0, 1, CellBlack)
	b.Set(1, 2, CellBlack)
	b.Set(2, 0, CellWhite)
	b.Set(3, 1, CellWhite)
	b.Set(2, 2, CellWhite)
	g.state.recomputeHash()

	mustPlay(t, &g, 2, 1) // black captures white (1,1)
	if g.state.Board.At(1, 1) != CellEmpty {
		t.Fatalf("ko capture did not remove the stone")
	}
	if !g.state.HasKo || g.state.KoPoint != (Move{X: 1, Y: 1}) {
		t.Fatalf("expected ko at (1,1), got hasKo=%v point=%+v", g.state.HasKo, g.state.KoPoint)
	}
	if ok, reason := g.TryApplyMove(Move{X: 1, Y: 1}); ok || reason != "ko" {
		t.Fatalf("immediate recapture should be rejected as ko, got ok=%v reason=%q", ok, reason)
	}

	// One intervening play per side clears the ko; the recapture is legal and
	// arms the mirror ko.
	mustPlay(t, &g, 7, 7) // white elsewhere
	if g.state.HasKo {
		t.Fatalf("ko should clear after an intervening play")
	}
	mustPlay(t, &g, 6, 6) // black elsewhere
	mustPlay(t, &g, 1, 1) // white recaptures
	if g.state.Board.At(2, 1) != CellEmpty {
		t.Fatalf("recapture did not remove black (2,1)")
	}
	if g.state.CapturedWhite != 1 {
		t.Fatalf("white capture count wrong: %d", g.state.CapturedWhite)
	}
	if !g.state.HasKo || g.state.KoPoint != (Move{X: 2, Y: 1}) {
		t.Fatalf("expected mirror ko at (2,1), got hasKo=%v point=%+v", g.state.HasKo, g.state.KoPoint)
	}
}

func TestPassClearsKo(t *testing.T) {
	g := newTestGame(9)
	b := &g.state.Board
	b.Set(1, 1, CellWhite)
	b.Set(1, 0, CellBlack)
	b.Set(0, 1, CellBlack)
	b.Set(1, 2, CellBlack)
	b.Set(2, 0, CellWhite)
	b.Set(3, 1, CellWhite)
	b.Set(2, 2, CellWhite)
	g.state.recomputeHash()

	mustPlay(t, &g, 2, 1)
	if !g.state.HasKo {
		t.Fatalf("capture should arm the ko")
	}
	mustPass(t, &g) // white passes instead of recapturing
	if g.state.HasKo {
		t.Fatalf("pass should clear the ko")
	}
	mustPass(t, &g) // black passes too, ending the game
	if !g.state.GameOver {
		t.Fatalf("double pass should end the game")
	}
}

func TestUndoRestoresExactState(t *testing.T) {
	g := newTestGame(9)
	mustPlay(t, &g, 1, 0)
	mustPlay(t, &g, 0, 0)
	checkpoint := g.state.Clone()

	mustPlay(t, &g, 0, 1) // capture
	mustPass(t, &g)
	if !g.Undo() || !g.Undo() {
		t.Fatalf("undo failed with non-empty history")
	}
	if !statesEqual(checkpoint, g.state) {
		t.Fatalf("undo did not restore the checkpoint state:\nwant %+v\ngot  %+v", checkpoint, g.state)
	}
	if g.HistorySize() != 2 {
		t.Fatalf("expected 2 snapshots after two undos, got %d", g.HistorySize())
	}
}

func TestUndoWalksBackToEmptyBoardThenFails(t *testing.T) {
	g := newTestGame(9)
	initial := g.state.Clone()
	if g.Undo() {
		t.Fatalf("undo on a fresh game should fail")
	}
	mustPlay(t, &g, 4, 4)
	mustPlay(t, &g, 5, 5)
	mustPass(t, &g)
	for g.Undo() {
	}
	if !statesEqual(initial, g.state) {
		t.Fatalf("repeated undo did not reach the initial state")
	}
	if g.HistorySize() != 0 {
		t.Fatalf("history should be empty, got %d", g.HistorySize())
	}
}

func TestUndoReopensFinishedGame(t *testing.T) {
	g := newTestGame(9)
	mustPass(t, &g)
	mustPass(t, &g)
	if !g.state.GameOver {
		t.Fatalf("double pass should end the game")
	}
	if !g.Undo() {
		t.Fatalf("undo after game over should succeed")
	}
	if g.state.GameOver {
		t.Fatalf("undo should reopen the game")
	}
	if g.state.PassCount != 1 {
		t.Fatalf("expected passCount 1 after undoing the final pass, got %d", g.state.PassCount)
	}
	if ok, reason := g.TryApplyMove(Move{X: 3, Y: 3}); !ok {
		t.Fatalf("play after reopening rejected: %s", reason)
	}
}

func TestNonDefaultBoardSize(t *testing.T) {
	g := newTestGame(5)
	if g.state.Board.Size() != 5 {
		t.Fatalf("expected 5x5 board, got %d", g.state.Board.Size())
	}
	mustPlay(t, &g, 4, 4)
	if ok, reason := g.TryApplyMove(Move{X: 5, Y: 0}); ok || reason != "out of bounds" {
		t.Fatalf("(5,0) should be out of bounds on 5x5, got ok=%v reason=%q", ok, reason)
	}
	if got := len(g.EncodeFeatures(2)); got != EncodedLength(5, 2) {
		t.Fatalf("encode length on 5x5: got %d want %d", got, EncodedLength(5, 2))
	}
}
