package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

type StatusResponse struct {
	Settings      GameSettings `json:"settings"`
	Config        Config       `json:"config"`
	Board         [][]int      `json:"board"`
	BoardSize     int          `json:"board_size"`
	NextPlayer    int          `json:"next_player"`
	Status        string       `json:"status"`
	LastMove      *Move        `json:"last_move,omitempty"`
	LastMovePass  bool         `json:"last_move_pass"`
	KoPoint       *Move        `json:"ko_point,omitempty"`
	PassCount     int          `json:"pass_count"`
	CapturedBlack int          `json:"captured_black"`
	CapturedWhite int          `json:"captured_white"`
	HistoryLen    int          `json:"history_len"`
	Hash          string       `json:"hash"`
}

type apiMove struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type cellChange struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	Value int `json:"value"`
}

type movePayload struct {
	X          int          `json:"x"`
	Y          int          `json:"y"`
	Player     int          `json:"player"`
	Pass       bool         `json:"pass"`
	Changes    []cellChange `json:"changes"`
	Captured   int          `json:"captured"`
	NextPlayer int          `json:"next_player"`
	PassCount  int          `json:"pass_count"`
	Status     string       `json:"status"`
	HistoryLen int          `json:"history_len"`
}

type resetPayload struct {
	BoardSize  int    `json:"board_size"`
	NextPlayer int    `json:"next_player"`
	Status     string `json:"status"`
	HistoryLen int    `json:"history_len"`
}

type settingsPayload struct {
	Settings GameSettings `json:"settings"`
	Config   Config       `json:"config"`
}

type encodeResponse struct {
	BoardSize int       `json:"board_size"`
	Lookback  int       `json:"lookback"`
	Planes    int       `json:"planes"`
	Length    int       `json:"length"`
	Data      []float32 `json:"data"`
}

func main() {
	controller := NewGameController(DefaultGameSettings())
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hub.Run(ctx.Done())

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Get("/api/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, controllerStatus(controller))
	})

	r.Post("/api/start", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Settings *GameSettings `json:"settings"`
		}
		// An empty body restarts with the current settings.
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		settings := controller.Settings()
		if payload.Settings != nil {
			settings = sanitizeSettings(*payload.Settings, settings)
		}
		controller.Reset(settings)
		writeJSON(w, http.StatusOK, controllerStatus(controller))
		hub.broadcastReset <- resetFromController(controller)
	})

	r.Post("/api/stop", func(w http.ResponseWriter, r *http.Request) {
		controller.Reset(controller.Settings())
		writeJSON(w, http.StatusOK, controllerStatus(controller))
		hub.broadcastReset <- resetFromController(controller)
	})

	r.Post("/api/settings", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Settings *GameSettings `json:"settings"`
			Config   *Config       `json:"config"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		if payload.Config != nil {
			update := *payload.Config
			// A body that omits max_lookback decodes as 0; keep the cap.
			if update.MaxLookback <= 0 {
				update.MaxLookback = GetConfig().MaxLookback
			}
			configStore.Update(update)
		}
		if payload.Settings != nil {
			// Board size is fixed per game instance: settings changes restart.
			controller.UpdateSettings(sanitizeSettings(*payload.Settings, controller.Settings()))
		}
		hub.broadcastSettings <- settingsPayload{
			Settings: controller.Settings(),
			Config:   GetConfig(),
		}
		writeJSON(w, http.StatusOK, controllerStatus(controller))
	})

	r.Post("/api/move", func(w http.ResponseWriter, r *http.Request) {
		var payload apiMove
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		applyAndBroadcast(w, controller, hub, NewMove(payload.X, payload.Y))
	})

	r.Post("/api/pass", func(w http.ResponseWriter, r *http.Request) {
		applyAndBroadcast(w, controller, hub, PassMove())
	})

	r.Post("/api/undo", func(w http.ResponseWriter, r *http.Request) {
		if !controller.Undo() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "nothing to undo"})
			return
		}
		status := controllerStatus(controller)
		writeJSON(w, http.StatusOK, status)
		hub.broadcastStatus <- status
	})

	r.Get("/api/encode", func(w http.ResponseWriter, r *http.Request) {
		lookback := controller.Settings().Lookback
		if raw := r.URL.Query().Get("lookback"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 || parsed > GetConfig().MaxLookback {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid lookback"})
				return
			}
			lookback = parsed
		}
		data := controller.Encode(lookback)
		size := controller.Settings().BoardSize
		writeJSON(w, http.StatusOK, encodeResponse{
			BoardSize: size,
			Lookback:  lookback,
			Planes:    (lookback+1)*2 + 1,
			Length:    len(data),
			Data:      data,
		})
	})

	r.Get("/ws/", func(w http.ResponseWriter, r *http.Request) {
		serveWS(hub, controller, w, r)
	})

	server := &http.Server{
		Addr:    listenAddr(),
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
		close(serverErrCh)
	}()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	log.Printf("[backend] listening on %s", server.Addr)
	var runErr error
	select {
	case <-sigCtx.Done():
		log.Printf("[backend] shutdown signal received: %v", sigCtx.Err())
	case err, ok := <-serverErrCh:
		if ok {
			runErr = err
			log.Printf("[backend] server error: %v", err)
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("[backend] graceful shutdown failed: %v", err)
		if closeErr := server.Close(); closeErr != nil && !errors.Is(closeErr, http.ErrServerClosed) {
			log.Printf("[backend] forced close failed: %v", closeErr)
		}
	}

	cancel()
	if runErr != nil {
		log.Printf("[backend] exiting after server error: %v", runErr)
	}
}

func listenAddr() string {
	if addr := os.Getenv("BACKEND_ADDR"); addr != "" {
		return addr
	}
	return ":8080"
}

func applyAndBroadcast(w http.ResponseWriter, controller *GameController, hub *Hub, move Move) {
	applied, reason := controller.ApplyMove(move)
	if !applied {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": reason})
		return
	}
	// Diffing against the previous snapshot only pays off with listeners.
	if hub.HasClients() {
		hub.broadcastMove <- movePayloadFromController(controller, move)
	}
	writeJSON(w, http.StatusOK, controllerStatus(controller))
}

func serveWS(hub *Hub, controller *GameController, w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := &Client{hub: hub, send: make(chan []byte, 16)}
	hub.Register(client)

	status := controllerStatus(controller)
	client.sendJSON(wsMessage{Type: "status", Payload: mustMarshal(status)})

	go func() {
		defer conn.Close()
		_ = writeWSWithHeartbeat(conn, client.send)
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			hub.Unregister(client)
			return
		}
		var msg wsMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "request_status":
			status := controllerStatus(controller)
			client.sendJSON(wsMessage{Type: "status", Payload: mustMarshal(status)})
		}
	}
}

func controllerStatus(controller *GameController) StatusResponse {
	state := controller.State()
	status := StatusResponse{
		Settings:      controller.Settings(),
		Config:        GetConfig(),
		Board:         boardToSlice(state.Board),
		BoardSize:     state.Board.Size(),
		NextPlayer:    playerToInt(state.ToMove),
		Status:        statusToString(state),
		LastMovePass:  state.HasLastMove && state.LastMove.IsPass(),
		PassCount:     state.PassCount,
		CapturedBlack: state.CapturedBlack,
		CapturedWhite: state.CapturedWhite,
		HistoryLen:    controller.HistorySize(),
		Hash:          fmt.Sprintf("0x%016x", state.Hash),
	}
	if state.HasLastMove && !state.LastMove.IsPass() {
		move := state.LastMove
		status.LastMove = &move
	}
	if state.HasKo {
		ko := state.KoPoint
		status.KoPoint = &ko
	}
	return status
}

func movePayloadFromController(controller *GameController, move Move) movePayload {
	state := controller.State()
	mover := otherPlayer(state.ToMove)
	payload := movePayload{
		X:          move.X,
		Y:          move.Y,
		Player:     playerToInt(mover),
		Pass:       move.IsPass(),
		NextPlayer: playerToInt(state.ToMove),
		PassCount:  state.PassCount,
		Status:     statusToString(state),
		HistoryLen: controller.HistorySize(),
	}
	if previous, ok := controller.PreviousState(); ok {
		payload.Changes = changesBetween(previous.Board, state.Board)
		payload.Captured = state.CapturedBy(mover) - previous.CapturedBy(mover)
	}
	return payload
}

// changesBetween diffs two boards into the cell updates a client needs to
// repaint: the placed stone plus any captured points emptied by it.
func changesBetween(before, after Board) []cellChange {
	var changes []cellChange
	size := after.Size()
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if before.At(x, y) == after.At(x, y) {
				continue
			}
			changes = append(changes, cellChange{X: x, Y: y, Value: cellToInt(after.At(x, y))})
		}
	}
	return changes
}

func resetFromController(controller *GameController) resetPayload {
	state := controller.State()
	return resetPayload{
		BoardSize:  state.Board.Size(),
		NextPlayer: playerToInt(state.ToMove),
		Status:     statusToString(state),
		HistoryLen: controller.HistorySize(),
	}
}

func sanitizeSettings(update GameSettings, base GameSettings) GameSettings {
	settings := base
	if update.BoardSize > 0 {
		settings.BoardSize = update.BoardSize
	}
	if update.Lookback > 0 && update.Lookback <= GetConfig().MaxLookback {
		settings.Lookback = update.Lookback
	}
	return settings
}

func boardToSlice(board Board) [][]int {
	size := board.Size()
	rows := make([][]int, size)
	for y := 0; y < size; y++ {
		rows[y] = make([]int, size)
		for x := 0; x < size; x++ {
			rows[y][x] = cellToInt(board.At(x, y))
		}
	}
	return rows
}

func cellToInt(cell Cell) int {
	switch cell {
	case CellBlack:
		return 1
	case CellWhite:
		return 2
	default:
		return 0
	}
}

func playerToInt(player PlayerColor) int {
	if player == PlayerBlack {
		return 1
	}
	return 2
}

func statusToString(state GameState) string {
	if state.GameOver {
		return "finished"
	}
	return "running"
}

func mustMarshal(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
