package main

import "log"

type Game struct {
	settings GameSettings
	rules    Rules
	state    GameState
	history  HistoryStore
}

func NewGame(settings GameSettings) Game {
	g := Game{}
	g.Reset(settings)
	return g
}

func (g *Game) Reset(settings GameSettings) {
	g.settings = settings
	g.rules = NewRules(settings)
	g.state.Reset(settings)
	g.history.Clear()
}

func (g *Game) State() GameState {
	return g.state.Clone()
}

func (g *Game) Settings() GameSettings {
	return g.settings
}

func (g *Game) HistorySize() int {
	return g.history.Size()
}

// TryApplyMove validates and applies one play for the side to move. On
// rejection nothing changes: no board mutation, no turn flip, no history
// growth. On success the pre-move state is snapshotted first, so Undo can
// restore it wholesale.
func (g *Game) TryApplyMove(move Move) (bool, string) {
	ok, reason := g.rules.IsLegalDefault(g.state, move)
	if !ok {
		return false, reason
	}
	prevToMove := g.state.ToMove
	prevHasKo := g.state.HasKo
	prevKoPoint := g.state.KoPoint
	g.history.Push(g.state.Clone())

	if move.IsPass() {
		g.state.PassCount++
		g.state.HasKo = false
		g.state.KoPoint = Move{X: -1, Y: -1}
		g.state.LastMove = move
		g.state.HasLastMove = true
		g.state.ToMove = otherPlayer(prevToMove)
		if g.state.PassCount >= 2 {
			g.state.GameOver = true
		}
		UpdateHashAfterMove(&g.state, move, prevToMove, nil, prevToMove, prevHasKo, prevKoPoint)
		g.logMovePlayed(move, prevToMove, 0)
		return true, ""
	}

	cell := CellFromPlayer(prevToMove)
	g.state.Board.Set(move.X, move.Y, cell)
	g.state.PassCount = 0
	captures := g.rules.FindCaptures(g.state.Board, move, cell)
	for _, captured := range captures {
		g.state.Board.Remove(captured.X, captured.Y)
	}
	if len(captures) > 0 {
		if prevToMove == PlayerBlack {
			g.state.CapturedBlack += len(captures)
		} else {
			g.state.CapturedWhite += len(captures)
		}
	}

	// Single-step ko: recapturing at the emptied point is forbidden for one
	// ply, but only after the classic shape — exactly one stone captured by
	// a lone stone that itself has exactly one liberty.
	g.state.HasKo = false
	g.state.KoPoint = Move{X: -1, Y: -1}
	if len(captures) == 1 {
		own := g.state.Board.Group(move.X, move.Y)
		if len(own) == 1 && g.state.Board.Liberties(own) == 1 {
			g.state.HasKo = true
			g.state.KoPoint = captures[0]
		}
	}

	g.state.LastMove = move
	g.state.HasLastMove = true
	g.state.ToMove = otherPlayer(prevToMove)
	UpdateHashAfterMove(&g.state, move, prevToMove, captures, prevToMove, prevHasKo, prevKoPoint)
	g.logMovePlayed(move, prevToMove, len(captures))
	return true, ""
}

// Undo rewinds one ply by restoring the latest snapshot. Returns false on an
// empty history. Applied repeatedly it walks all the way back to the initial
// empty board.
func (g *Game) Undo() bool {
	snapshot, ok := g.history.Pop()
	if !ok {
		return false
	}
	g.state = snapshot
	return true
}

func (g *Game) EncodeFeatures(lookback int) []float32 {
	return EncodeFeatures(g.state, g.history, lookback)
}

func (g *Game) logMovePlayed(move Move, player PlayerColor, captured int) {
	if !GetConfig().LogMoves {
		return
	}
	if move.IsPass() {
		log.Printf("[backend] %s passed (pass count %d)", player, g.state.PassCount)
		return
	}
	log.Printf("[backend] %s played (%d,%d) captured=%d", player, move.X, move.Y, captured)
}
