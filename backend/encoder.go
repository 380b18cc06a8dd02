package main

// EncodeFeatures renders the live position plus a lookback window of history
// into the flat float32 buffer consumed by the move-prediction collaborator.
//
// Layout, plane-major then row-major: for each temporal offset h from 0
// (current) to lookback, plane 2h holds the stones of the side to move and
// plane 2h+1 the opponent's; the final plane is a constant 1.0 when Black is
// to move, 0.0 otherwise. Positions older than the game simply stay zero.
// Pure: neither state nor history is touched.
func EncodeFeatures(state GameState, history HistoryStore, lookback int) []float32 {
	size := state.Board.Size()
	planeSize := size * size
	planes := (lookback+1)*2 + 1
	buffer := make([]float32, planes*planeSize)

	ownCell := CellFromPlayer(state.ToMove)
	oppCell := otherCell(ownCell)

	for h := 0; h <= lookback; h++ {
		board, ok := boardAtOffset(state, history, h)
		if !ok {
			continue
		}
		ownPlane := 2 * h * planeSize
		oppPlane := (2*h + 1) * planeSize
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				switch board.At(x, y) {
				case ownCell:
					buffer[ownPlane+y*size+x] = 1.0
				case oppCell:
					buffer[oppPlane+y*size+x] = 1.0
				}
			}
		}
	}

	if state.ToMove == PlayerBlack {
		colorPlane := (planes - 1) * planeSize
		for i := 0; i < planeSize; i++ {
			buffer[colorPlane+i] = 1.0
		}
	}
	return buffer
}

// EncodedLength is the buffer size EncodeFeatures produces for a board side
// and lookback window.
func EncodedLength(size, lookback int) int {
	return ((lookback+1)*2 + 1) * size * size
}

func boardAtOffset(state GameState, history HistoryStore, h int) (Board, bool) {
	if h == 0 {
		return state.Board, true
	}
	snapshot, ok := history.Snapshot(history.Size() - h)
	if !ok {
		return Board{}, false
	}
	return snapshot.Board, true
}
