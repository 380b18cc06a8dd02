package main

// HistoryStore keeps one full GameState snapshot per successful play,
// including passes. Snapshots are deep copies, so popping one hands back a
// state no later play could have touched. The stack also feeds the temporal
// planes of the feature encoder.
type HistoryStore struct {
	snapshots []GameState
}

func (h *HistoryStore) Clear() {
	h.snapshots = nil
}

func (h *HistoryStore) Push(snapshot GameState) {
	h.snapshots = append(h.snapshots, snapshot)
}

func (h *HistoryStore) Pop() (GameState, bool) {
	if len(h.snapshots) == 0 {
		return GameState{}, false
	}
	last := h.snapshots[len(h.snapshots)-1]
	h.snapshots = h.snapshots[:len(h.snapshots)-1]
	return last, true
}

func (h HistoryStore) Size() int {
	return len(h.snapshots)
}

// Snapshot returns the i-th oldest snapshot (0 is the position before the
// first play). ok is false when i is out of range.
func (h HistoryStore) Snapshot(i int) (GameState, bool) {
	if i < 0 || i >= len(h.snapshots) {
		return GameState{}, false
	}
	return h.snapshots[i], true
}
