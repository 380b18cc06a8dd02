package main

type PlayerColor int

const (
	PlayerBlack PlayerColor = iota
	PlayerWhite
)

func (p PlayerColor) String() string {
	if p == PlayerBlack {
		return "Black"
	}
	return "White"
}

type GameState struct {
	Board         Board
	ToMove        PlayerColor
	CapturedBlack int
	CapturedWhite int
	HasLastMove   bool
	LastMove      Move
	HasKo         bool
	KoPoint       Move
	PassCount     int
	GameOver      bool
	Hash          uint64
}

func DefaultGameState(settings GameSettings) GameState {
	state := GameState{}
	state.Reset(settings)
	return state
}

func (s *GameState) Reset(settings GameSettings) {
	s.Board = NewBoard(settings.BoardSize)
	s.ToMove = PlayerBlack
	s.CapturedBlack = 0
	s.CapturedWhite = 0
	s.HasLastMove = false
	s.LastMove = Move{X: -1, Y: -1}
	s.HasKo = false
	s.KoPoint = Move{X: -1, Y: -1}
	s.PassCount = 0
	s.GameOver = false
	s.recomputeHash()
}

// Clone returns a snapshot that shares nothing with the receiver. History
// relies on this: undo must restore a board no later play has touched.
func (s GameState) Clone() GameState {
	clone := s
	clone.Board = s.Board.Clone()
	return clone
}

func (s GameState) CapturedBy(player PlayerColor) int {
	if player == PlayerBlack {
		return s.CapturedBlack
	}
	return s.CapturedWhite
}

func otherPlayer(player PlayerColor) PlayerColor {
	if player == PlayerBlack {
		return PlayerWhite
	}
	return PlayerBlack
}

func (s *GameState) recomputeHash() {
	s.Hash = ComputeHash(*s)
}
