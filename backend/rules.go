package main

import "fmt"

type Rules struct {
	settings GameSettings
}

func NewRules(settings GameSettings) Rules {
	return Rules{settings: settings}
}

// IsLegal reports whether player may play move on state. Checks run in order
// and stop at the first failure: game over, bounds, occupancy, ko, suicide.
// A pass is legal whenever the game is still running.
func (r Rules) IsLegal(state GameState, move Move, player PlayerColor) (bool, string) {
	if state.GameOver {
		return false, "game over"
	}
	if move.IsPass() {
		return true, ""
	}
	if !move.IsValid(r.settings.BoardSize) {
		return false, "out of bounds"
	}
	if !state.Board.IsEmpty(move.X, move.Y) {
		return false, "occupied"
	}
	if state.HasKo && move.Equals(state.KoPoint) {
		return false, "ko"
	}
	// Suicide probe mutates the board only transiently (set/remove move),
	// so we can run it directly without cloning the whole board.
	cell := CellFromPlayer(player)
	state.Board.Set(move.X, move.Y, cell)
	group := state.Board.Group(move.X, move.Y)
	liberties := state.Board.Liberties(group)
	captures := r.FindCaptures(state.Board, move, cell)
	state.Board.Remove(move.X, move.Y)
	if liberties == 0 && len(captures) == 0 {
		return false, "suicide"
	}
	return true, ""
}

func (r Rules) IsLegalDefault(state GameState, move Move) (bool, string) {
	return r.IsLegal(state, move, state.ToMove)
}

// FindCaptures returns every opponent stone left without liberties by the
// stone at move. The board must already hold that stone. Each adjacent enemy
// chain is flood-filled once; a chain spanning two neighbors is not repeated.
func (r Rules) FindCaptures(board Board, move Move, playerCell Cell) []Move {
	opponentCell := otherCell(playerCell)
	seen := make([]bool, board.Size()*board.Size())
	var captures []Move
	for _, neighbor := range board.Neighbors(move.X, move.Y) {
		if board.At(neighbor.X, neighbor.Y) != opponentCell {
			continue
		}
		if seen[board.index(neighbor.X, neighbor.Y)] {
			continue
		}
		group := board.Group(neighbor.X, neighbor.Y)
		for _, stone := range group {
			seen[board.index(stone.X, stone.Y)] = true
		}
		if board.Liberties(group) == 0 {
			captures = append(captures, group...)
		}
	}
	return captures
}

func (r Rules) BoardSize() int {
	return r.settings.BoardSize
}

func (r Rules) String() string {
	return fmt.Sprintf("Rules{size=%d}", r.settings.BoardSize)
}
