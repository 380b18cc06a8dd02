package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"
)

// The exporter plays random legal self-play games against the backend and
// records the encoded feature buffer after every accepted play. The samples
// are the training corpus for the external move-prediction model; the model
// itself lives outside this repository.

type exporter struct {
	client       *http.Client
	baseURL      string
	pollInterval time.Duration
	logger       *log.Logger
	apiAddr      string
	outputDir    string
	rng          *rand.Rand

	gamesTarget  int
	maxPlies     int
	lookback     int
	moveAttempts int

	statusMu  sync.RWMutex
	status    exporterStatus
	jobMu     sync.Mutex
	jobCancel context.CancelFunc
	jobDone   chan struct{}
}

type exporterStatus struct {
	Running        bool   `json:"running"`
	Phase          string `json:"phase"`
	Message        string `json:"message"`
	StartedAt      string `json:"started_at"`
	UpdatedAt      string `json:"updated_at"`
	GamesPlayed    int    `json:"games_played"`
	SamplesWritten int    `json:"samples_written"`
	CurrentGame    int    `json:"current_game"`
	CurrentPly     int    `json:"current_ply"`
}

type statusResponse struct {
	Board      [][]int `json:"board"`
	BoardSize  int     `json:"board_size"`
	NextPlayer int     `json:"next_player"`
	Status     string  `json:"status"`
	PassCount  int     `json:"pass_count"`
	HistoryLen int     `json:"history_len"`
}

type encodeResponse struct {
	BoardSize int       `json:"board_size"`
	Lookback  int       `json:"lookback"`
	Planes    int       `json:"planes"`
	Length    int       `json:"length"`
	Data      []float32 `json:"data"`
}

type sampleRecord struct {
	Game       int       `json:"game"`
	Ply        int       `json:"ply"`
	BoardSize  int       `json:"board_size"`
	Lookback   int       `json:"lookback"`
	NextPlayer int       `json:"next_player"`
	MoveX      int       `json:"move_x"`
	MoveY      int       `json:"move_y"`
	Data       []float32 `json:"data"`
}

func main() {
	logger, closeLog, err := buildLogger(getenv("EXPORTER_LOG", "/logs/exporter.log"))
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer closeLog()

	e := &exporter{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:      getenv("BACKEND_URL", "http://backend:8080"),
		pollInterval: time.Duration(getenvInt("POLL_INTERVAL_MS", 50)) * time.Millisecond,
		logger:       logger,
		apiAddr:      getenv("EXPORTER_API_ADDR", ":8090"),
		outputDir:    getenv("EXPORTER_OUTPUT_DIR", "/data"),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		gamesTarget:  getenvInt("EXPORTER_GAMES", 100),
		maxPlies:     getenvInt("EXPORTER_MAX_PLIES", 200),
		lookback:     getenvInt("EXPORTER_LOOKBACK", 3),
		moveAttempts: getenvInt("EXPORTER_MOVE_ATTEMPTS", 32),
		status: exporterStatus{
			Running:   false,
			Phase:     "idle",
			Message:   "service ready",
			StartedAt: time.Now().UTC().Format(time.RFC3339),
			UpdatedAt: time.Now().UTC().Format(time.RFC3339),
		},
	}

	e.logf("exporter service started. backend=%s output=%s games=%d", e.baseURL, e.outputDir, e.gamesTarget)
	e.startStatusAPI()

	if autostart := getenv("EXPORTER_AUTOSTART", ""); autostart == "1" || autostart == "true" || autostart == "yes" {
		if err := e.startExport(); err != nil {
			e.logf("autostart failed: %v", err)
		}
	}

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	<-sigCtx.Done()
	_ = e.stopExport("shutdown")
	e.logf("exporter service stopping")
}

func (e *exporter) startStatusAPI() {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/exporter/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "running": e.getStatus().Running})
	})
	mux.HandleFunc("/api/exporter/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, e.getStatus())
	})
	mux.HandleFunc("/api/exporter/start", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		if err := e.startExport(); err != nil {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, e.getStatus())
	})
	mux.HandleFunc("/api/exporter/stop", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		if err := e.stopExport("requested via api"); err != nil {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, e.getStatus())
	})
	server := &http.Server{Addr: e.apiAddr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			e.logf("exporter api server error: %v", err)
		}
	}()
}

func (e *exporter) getStatus() exporterStatus {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return e.status
}

func (e *exporter) updateStatus(mutator func(*exporterStatus)) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	mutator(&e.status)
	e.status.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
}

func (e *exporter) startExport() error {
	e.jobMu.Lock()
	defer e.jobMu.Unlock()
	if e.jobCancel != nil {
		return fmt.Errorf("export already running")
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	e.jobCancel = cancel
	e.jobDone = done
	e.updateStatus(func(s *exporterStatus) {
		s.Running = true
		s.Phase = "starting"
		s.Message = "export starting"
		s.GamesPlayed = 0
		s.SamplesWritten = 0
	})
	go func() {
		defer close(done)
		if err := e.waitBackendReady(ctx); err != nil {
			e.updateStatus(func(s *exporterStatus) {
				s.Phase = "error"
				s.Message = err.Error()
			})
		} else if err := e.runExport(ctx); err != nil && err != context.Canceled {
			e.updateStatus(func(s *exporterStatus) {
				s.Phase = "error"
				s.Message = err.Error()
			})
		}
		e.updateStatus(func(s *exporterStatus) {
			s.Running = false
			if s.Phase != "error" {
				s.Phase = "idle"
				s.Message = "service ready"
			}
		})
		e.jobMu.Lock()
		e.jobCancel = nil
		e.jobDone = nil
		e.jobMu.Unlock()
	}()
	return nil
}

func (e *exporter) stopExport(reason string) error {
	e.jobMu.Lock()
	cancel := e.jobCancel
	done := e.jobDone
	e.jobMu.Unlock()
	if cancel == nil {
		return fmt.Errorf("no running export job")
	}
	e.logf("stopping export: %s", reason)
	cancel()
	if done != nil {
		<-done
	}
	return nil
}

func (e *exporter) runExport(ctx context.Context) error {
	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(e.outputDir, fmt.Sprintf("samples-%d.jsonl", time.Now().Unix()))
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()
	writer := json.NewEncoder(out)

	e.updateStatus(func(s *exporterStatus) {
		s.Phase = "running"
		s.Message = "export running"
	})

	for game := 1; e.gamesTarget <= 0 || game <= e.gamesTarget; game++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		samples, err := e.playOneGame(ctx, writer, game)
		if err != nil {
			return err
		}
		e.updateStatus(func(s *exporterStatus) {
			s.GamesPlayed++
			s.SamplesWritten += samples
		})
		e.logf("game %d finished, %d samples written", game, samples)
	}
	e.logf("export complete")
	return nil
}

func (e *exporter) playOneGame(ctx context.Context, writer *json.Encoder, game int) (int, error) {
	if err := e.postJSON("/api/start", map[string]any{}, nil); err != nil {
		return 0, err
	}
	samples := 0
	for ply := 1; ply <= e.maxPlies; ply++ {
		if ctx.Err() != nil {
			return samples, ctx.Err()
		}
		status, err := e.fetchStatus()
		if err != nil {
			return samples, err
		}
		if status.Status != "running" {
			return samples, nil
		}
		e.updateStatus(func(s *exporterStatus) {
			s.CurrentGame = game
			s.CurrentPly = ply
		})

		move, played, err := e.playRandomMove(status)
		if err != nil {
			return samples, err
		}
		if !played {
			// No acceptable placement found; pass. Two of these in a row
			// end the game on the backend side.
			if err := e.postJSON("/api/pass", map[string]any{}, nil); err != nil {
				return samples, err
			}
			move = [2]int{-1, -1}
		}

		encoded, err := e.fetchEncoded()
		if err != nil {
			return samples, err
		}
		record := sampleRecord{
			Game:       game,
			Ply:        ply,
			BoardSize:  encoded.BoardSize,
			Lookback:   encoded.Lookback,
			NextPlayer: status.NextPlayer,
			MoveX:      move[0],
			MoveY:      move[1],
			Data:       encoded.Data,
		}
		if err := writer.Encode(record); err != nil {
			return samples, err
		}
		samples++
		if !sleepWithContext(ctx, e.pollInterval) {
			return samples, ctx.Err()
		}
	}
	// Ply budget exhausted; reset so the next game starts clean.
	return samples, e.postJSON("/api/stop", map[string]any{}, nil)
}

// playRandomMove tries random empty points until the backend accepts one.
// The backend is the referee: ko and suicide rejections just trigger another
// attempt. Returns played=false when the attempt budget runs out.
func (e *exporter) playRandomMove(status statusResponse) ([2]int, bool, error) {
	var empties [][2]int
	for y := range status.Board {
		for x := range status.Board[y] {
			if status.Board[y][x] == 0 {
				empties = append(empties, [2]int{x, y})
			}
		}
	}
	attempts := e.moveAttempts
	if attempts > len(empties) {
		attempts = len(empties)
	}
	e.rng.Shuffle(len(empties), func(i, j int) {
		empties[i], empties[j] = empties[j], empties[i]
	})
	for i := 0; i < attempts; i++ {
		candidate := empties[i]
		err := e.postJSON("/api/move", map[string]any{"x": candidate[0], "y": candidate[1]}, nil)
		if err == nil {
			return candidate, true, nil
		}
		if !isRejection(err) {
			return [2]int{}, false, err
		}
	}
	return [2]int{}, false, nil
}

type httpStatusError struct {
	code int
	body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.code, e.body)
}

func isRejection(err error) bool {
	statusErr, ok := err.(*httpStatusError)
	return ok && statusErr.code == http.StatusBadRequest
}

func (e *exporter) fetchStatus() (statusResponse, error) {
	var status statusResponse
	if err := e.getJSON("/api/status", &status); err != nil {
		return statusResponse{}, err
	}
	return status, nil
}

func (e *exporter) fetchEncoded() (encodeResponse, error) {
	var encoded encodeResponse
	if err := e.getJSON(fmt.Sprintf("/api/encode?lookback=%d", e.lookback), &encoded); err != nil {
		return encodeResponse{}, err
	}
	return encoded, nil
}

func (e *exporter) waitBackendReady(ctx context.Context) error {
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := e.ping(); err == nil {
			return nil
		}
		if !sleepWithContext(ctx, 1*time.Second) {
			return ctx.Err()
		}
	}
	return fmt.Errorf("timeout after 60s")
}

func (e *exporter) ping() error {
	req, err := http.NewRequest(http.MethodGet, e.baseURL+"/api/ping", nil)
	if err != nil {
		return err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ping status %d", resp.StatusCode)
	}
	return nil
}

func (e *exporter) getJSON(path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, e.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &httpStatusError{code: resp.StatusCode, body: string(body)}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (e *exporter) postJSON(path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, e.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &httpStatusError{code: resp.StatusCode, body: string(respBody)}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (e *exporter) logf(format string, args ...any) {
	ts := time.Now().Format("2006-01-02 15:04:05")
	e.logger.Printf("[%s] %s", ts, fmt.Sprintf(format, args...))
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func buildLogger(path string) (*log.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger := log.New(io.MultiWriter(os.Stdout, f), "", 0)
	return logger, func() { _ = f.Close() }, nil
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var parsed int
	if _, err := fmt.Sscanf(value, "%d", &parsed); err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
