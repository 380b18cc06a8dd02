package main

type Move struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// PassMove consumes a turn without placing a stone. The -1,-1 convention is
// shared with the HTTP API and the websocket payloads.
func PassMove() Move {
	return Move{X: -1, Y: -1}
}

func NewMove(x, y int) Move {
	return Move{X: x, Y: y}
}

func (m Move) IsPass() bool {
	return m.X == -1 && m.Y == -1
}

func (m Move) IsValid(boardSize int) bool {
	return m.X >= 0 && m.Y >= 0 && m.X < boardSize && m.Y < boardSize
}

func (m Move) Equals(other Move) bool {
	return m.X == other.X && m.Y == other.Y
}
