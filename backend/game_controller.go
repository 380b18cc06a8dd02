package main

import "sync"

// GameController serializes every play/undo/encode on the single game
// instance. The engine itself is single-threaded; concurrent callers (HTTP
// handlers, the websocket hub) must go through here.
type GameController struct {
	mu   sync.Mutex
	game Game
}

func NewGameController(settings GameSettings) *GameController {
	return &GameController{game: NewGame(settings)}
}

func (gc *GameController) ApplyMove(move Move) (bool, string) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.TryApplyMove(move)
}

func (gc *GameController) Pass() (bool, string) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.TryApplyMove(PassMove())
}

func (gc *GameController) Undo() bool {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.Undo()
}

func (gc *GameController) State() GameState {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.State()
}

func (gc *GameController) Settings() GameSettings {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.Settings()
}

func (gc *GameController) HistorySize() int {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.HistorySize()
}

// PreviousState returns the snapshot preceding the latest play, used to diff
// board changes for websocket clients.
func (gc *GameController) PreviousState() (GameState, bool) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	snapshot, ok := gc.game.history.Snapshot(gc.game.history.Size() - 1)
	if !ok {
		return GameState{}, false
	}
	return snapshot.Clone(), true
}

// Encode runs under the same lock as ApplyMove/Undo: the encoder reads the
// live board and history without copying them first.
func (gc *GameController) Encode(lookback int) []float32 {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.EncodeFeatures(lookback)
}

func (gc *GameController) Reset(settings GameSettings) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	gc.game.Reset(settings)
}

func (gc *GameController) UpdateSettings(update GameSettings) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	gc.game.Reset(update)
}
