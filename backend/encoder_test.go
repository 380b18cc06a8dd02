package main

import "testing"

func TestEncodedLengthByBoardAndLookback(t *testing.T) {
	if got := EncodedLength(9, 3); got != 729 {
		t.Fatalf("9x9 lookback 3: got %d want 729", got)
	}
	if got := EncodedLength(5, 0); got != 75 {
		t.Fatalf("5x5 lookback 0: got %d want 75", got)
	}
}

func TestEncodeFreshGameIsZerosPlusColorPlane(t *testing.T) {
	g := newTestGame(9)
	data := g.EncodeFeatures(3)
	if len(data) != 729 {
		t.Fatalf("buffer length: got %d want 729", len(data))
	}
	planeSize := 81
	colorPlane := len(data) - planeSize
	for i := 0; i < colorPlane; i++ {
		if data[i] != 0 {
			t.Fatalf("stone plane cell %d should be 0 on an empty board, got %v", i, data[i])
		}
	}
	// Black moves first, so the color plane is all ones.
	for i := colorPlane; i < len(data); i++ {
		if data[i] != 1.0 {
			t.Fatalf("color plane cell %d should be 1.0 with black to move, got %v", i, data[i])
		}
	}
}

func TestEncodePerspectiveFollowsSideToMove(t *testing.T) {
	g := newTestGame(9)
	mustPlay(t, &g, 4, 4) // black; white to move now
	data := g.EncodeFeatures(3)
	planeSize := 81
	idx := 4*9 + 4

	// Plane 0 holds the mover's (white's) stones: none yet.
	if data[idx] != 0 {
		t.Fatalf("own plane should not hold the opponent stone")
	}
	// Plane 1 holds the opponent's (black's) stones.
	if data[planeSize+idx] != 1.0 {
		t.Fatalf("opponent plane missing black stone at (4,4)")
	}
	// h=1 planes show the position before the play: an empty board.
	if data[2*planeSize+idx] != 0 || data[3*planeSize+idx] != 0 {
		t.Fatalf("history planes should show the pre-move empty board")
	}
	// White to move: color plane all zeros.
	colorPlane := len(data) - planeSize
	for i := colorPlane; i < len(data); i++ {
		if data[i] != 0 {
			t.Fatalf("color plane cell should be 0 with white to move, got %v", data[i])
		}
	}
}

func TestEncodeHistoryPlanesTrackPastPositions(t *testing.T) {
	g := newTestGame(9)
	mustPlay(t, &g, 4, 4) // black
	mustPlay(t, &g, 2, 2) // white; black to move again
	data := g.EncodeFeatures(2)
	planeSize := 81
	black44 := 4*9 + 4
	white22 := 2*9 + 2

	// h=0: live board from black's perspective.
	if data[black44] != 1.0 || data[planeSize+white22] != 1.0 {
		t.Fatalf("live planes wrong: own(4,4)=%v opp(2,2)=%v", data[black44], data[planeSize+white22])
	}
	// h=1: after black's first play, before white's. Perspective stays with
	// the current side to move.
	if data[2*planeSize+black44] != 1.0 {
		t.Fatalf("h=1 own plane missing black (4,4)")
	}
	if data[3*planeSize+white22] != 0 {
		t.Fatalf("h=1 opponent plane should predate white (2,2)")
	}
	// h=2: the initial empty board.
	if data[4*planeSize+black44] != 0 || data[5*planeSize+white22] != 0 {
		t.Fatalf("h=2 planes should be empty")
	}
}

func TestEncodePadsMissingHistoryWithZeros(t *testing.T) {
	g := newTestGame(9)
	mustPlay(t, &g, 4, 4)
	data := g.EncodeFeatures(3) // only 1 snapshot exists; h=2 and h=3 are padding
	planeSize := 81
	for h := 2; h <= 3; h++ {
		for i := 0; i < 2*planeSize; i++ {
			if data[2*h*planeSize+i] != 0 {
				t.Fatalf("padding plane h=%d cell %d should be 0, got %v", h, i, data[2*h*planeSize+i])
			}
		}
	}
}

func TestEncodeIsPure(t *testing.T) {
	g := newTestGame(9)
	mustPlay(t, &g, 4, 4)
	mustPlay(t, &g, 2, 2)
	before := g.state.Clone()
	historyBefore := g.HistorySize()
	_ = g.EncodeFeatures(3)
	_ = g.EncodeFeatures(0)
	if !statesEqual(before, g.state) {
		t.Fatalf("encoding mutated the game state")
	}
	if g.HistorySize() != historyBefore {
		t.Fatalf("encoding changed the history: %d -> %d", historyBefore, g.HistorySize())
	}
}
