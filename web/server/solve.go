package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/df07/go-progressive-radiosity/pkg/loaders"
	"github.com/df07/go-progressive-radiosity/pkg/radiosity"
	"github.com/df07/go-progressive-radiosity/pkg/renderer"
	"github.com/df07/go-progressive-radiosity/pkg/scene"
)

// Request limits
const (
	maxIterations       = 100000
	maxResolution       = 2048
	maxThreshold        = 0.99
	maxPatchSize        = 1e6
	maxGatherers        = 1 << 20
	minPreviewSize      = 32
	maxPreviewSize      = 2048
	defaultPreviewEvery = 10
	defaultPreviewSize  = 400
)

// SolveRequest represents a solve request from the client
type SolveRequest struct {
	Scene        string  `json:"scene"`        // Scene ID (e.g., "cornell" or "model:room")
	Iterations   int     `json:"iterations"`   // Maximum number of shoots
	Resolution   int     `json:"resolution"`   // Hemicube face resolution
	Threshold    float64 `json:"threshold"`    // Convergence threshold (0 = run all iterations)
	ShooterSize  float64 `json:"shooterSize"`  // Subdivision override (0 = scene default)
	GathererSize float64 `json:"gathererSize"` // Subdivision override (0 = scene default)
	PreviewEvery int     `json:"previewEvery"` // Send a preview every N iterations (0 = final only)
	PreviewSize  int     `json:"previewSize"`  // Preview width and height
}

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "progress", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// ProgressUpdate describes one shoot
type ProgressUpdate struct {
	Iteration     int     `json:"iteration"`
	MaxIterations int     `json:"maxIterations"`
	Shooter       int     `json:"shooter"`
	ShotPower     float64 `json:"shotPower"`
	TotalUnshot   float64 `json:"totalUnshot"`
	Hits          int     `json:"hits"`
	ElapsedMs     int64   `json:"elapsedMs"`
	ImageData     string  `json:"imageData,omitempty"` // Base64 encoded PNG
}

// CompleteUpdate summarises a finished solve
type CompleteUpdate struct {
	State       string  `json:"state"`
	Iterations  int     `json:"iterations"`
	TotalUnshot float64 `json:"totalUnshot"`
	ElapsedMs   int64   `json:"elapsedMs"`
	ImageData   string  `json:"imageData,omitempty"`
}

// parseSolveRequest parses request parameters
func (s *Server) parseSolveRequest(r *http.Request) (*SolveRequest, error) {
	query := r.URL.Query()
	defaults := radiosity.DefaultConfig()

	req := &SolveRequest{Scene: query.Get("scene")}
	if req.Scene == "" {
		req.Scene = "cornell"
	}

	var err error
	if req.Iterations, err = parseIntParam(query, "iterations", defaults.MaxIterations, 1, maxIterations); err != nil {
		return nil, err
	}
	if req.Resolution, err = parseIntParam(query, "resolution", defaults.Resolution, radiosity.MinResolution, maxResolution); err != nil {
		return nil, err
	}
	if req.Threshold, err = parseFloatParam(query, "threshold", defaults.ConvergenceThreshold, 0, maxThreshold); err != nil {
		return nil, err
	}
	if req.ShooterSize, err = parseFloatParam(query, "shooterSize", 0, 0, maxPatchSize); err != nil {
		return nil, err
	}
	if req.GathererSize, err = parseFloatParam(query, "gathererSize", 0, 0, maxPatchSize); err != nil {
		return nil, err
	}
	if req.PreviewEvery, err = parseIntParam(query, "previewEvery", defaultPreviewEvery, 0, maxIterations); err != nil {
		return nil, err
	}
	if req.PreviewSize, err = parseIntParam(query, "previewSize", defaultPreviewSize, minPreviewSize, maxPreviewSize); err != nil {
		return nil, err
	}
	return req, nil
}

// handleSolve runs one solve and streams console output, per-iteration
// progress and periodic previews via SSE
func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)
	ctx := r.Context()

	// All writes to w happen on one goroutine, which finishes before we return
	sseEventChan := make(chan SSEEvent, 100)
	var writers sync.WaitGroup
	writers.Add(1)
	go func() {
		defer writers.Done()
		s.writeSSEEvents(ctx, w, sseEventChan)
	}()
	defer func() {
		close(sseEventChan)
		writers.Wait()
	}()

	req, err := s.parseSolveRequest(r)
	if err != nil {
		s.sendEvent(ctx, sseEventChan, "error", fmt.Sprintf("Invalid request: %v", err))
		return
	}

	consoleChan := make(chan ConsoleMessage, 50)
	var streamer sync.WaitGroup
	streamer.Add(1)
	go func() {
		defer streamer.Done()
		s.streamConsoleMessages(ctx, consoleChan, sseEventChan)
	}()

	err = s.solve(ctx, req, consoleChan, sseEventChan)
	close(consoleChan)
	streamer.Wait()

	if err != nil {
		s.sendEvent(ctx, sseEventChan, "error", fmt.Sprintf("Solve failed: %v", err))
	}
}

// solve builds the scene and solver and runs it, sending progress events
func (s *Server) solve(ctx context.Context, req *SolveRequest, consoleChan chan<- ConsoleMessage, sseEventChan chan<- SSEEvent) error {
	logger := slog.New(NewConsoleHandler(consoleChan, slog.LevelInfo)).With("scene", req.Scene)

	subdivision := scene.SubdivisionConfig{
		ShooterSize:  req.ShooterSize,
		GathererSize: req.GathererSize,
		MaxGatherers: maxGatherers,
	}
	model, err := loaders.OpenScene(req.Scene, s.scenesDir, subdivision)
	if err != nil {
		return err
	}

	config := radiosity.DefaultConfig()
	config.MaxIterations = req.Iterations
	config.Resolution = req.Resolution
	config.ConvergenceThreshold = req.Threshold
	config.Logger = logger

	rast, err := renderer.NewSoftwareRasterizer(config.Resolution, config.Resolution,
		renderer.WithBackground(renderer.IDToRGB(config.BackgroundID)),
		renderer.WithLogger(logger))
	if err != nil {
		return err
	}
	solver, err := radiosity.NewSolver(model, rast, config)
	if err != nil {
		return err
	}

	startTime := time.Now()
	result, err := solver.RunContext(ctx, func(stats radiosity.IterationStats) error {
		update := ProgressUpdate{
			Iteration:     stats.Iteration,
			MaxIterations: req.Iterations,
			Shooter:       stats.Shooter,
			ShotPower:     stats.ShotPower.Sum(),
			TotalUnshot:   stats.TotalUnshot,
			Hits:          stats.Accumulate.Hits,
			ElapsedMs:     time.Since(startTime).Milliseconds(),
		}
		if req.PreviewEvery > 0 && stats.Iteration%req.PreviewEvery == 0 {
			image, err := previewToBase64PNG(model, req.PreviewSize)
			if err != nil {
				return fmt.Errorf("failed to encode preview: %w", err)
			}
			update.ImageData = image
		}
		return s.sendJSONEvent(ctx, sseEventChan, "progress", update)
	})
	if err != nil {
		return err
	}

	image, err := previewToBase64PNG(model, req.PreviewSize)
	if err != nil {
		return fmt.Errorf("failed to encode preview: %w", err)
	}
	s.logger.Info("solve finished", "scene", req.Scene, "state", result.State, "iterations", result.Iterations)
	return s.sendJSONEvent(ctx, sseEventChan, "complete", CompleteUpdate{
		State:       result.State.String(),
		Iterations:  result.Iterations,
		TotalUnshot: result.TotalUnshot,
		ElapsedMs:   time.Since(startTime).Milliseconds(),
		ImageData:   image,
	})
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// writeSSEEvents writes every event until the channel is closed. After the
// client disconnects it keeps draining without writing.
func (s *Server) writeSSEEvents(ctx context.Context, w http.ResponseWriter, sseEventChan <-chan SSEEvent) {
	flusher, _ := w.(http.Flusher)
	connected := true
	for event := range sseEventChan {
		if !connected || ctx.Err() != nil {
			connected = false
			continue
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
			connected = false
			continue
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// streamConsoleMessages forwards console messages until the channel is closed
func (s *Server) streamConsoleMessages(ctx context.Context, consoleChan <-chan ConsoleMessage, sseEventChan chan<- SSEEvent) {
	for consoleMsg := range consoleChan {
		data, err := json.Marshal(consoleMsg)
		if err != nil {
			s.logger.Warn("failed to marshal console message", "err", err)
			continue
		}
		select {
		case sseEventChan <- SSEEvent{Type: "console", Data: string(data)}:
		case <-ctx.Done():
		}
	}
}

// sendJSONEvent marshals data and queues it for the SSE writer
func (s *Server) sendJSONEvent(ctx context.Context, sseEventChan chan<- SSEEvent, eventType string, data interface{}) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return s.sendEvent(ctx, sseEventChan, eventType, string(encoded))
}

// sendEvent queues an event, giving up if the client has gone
func (s *Server) sendEvent(ctx context.Context, sseEventChan chan<- SSEEvent, eventType, data string) error {
	select {
	case sseEventChan <- SSEEvent{Type: eventType, Data: data}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
