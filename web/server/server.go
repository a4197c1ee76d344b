package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/df07/go-progressive-radiosity/pkg/core"
	"github.com/df07/go-progressive-radiosity/pkg/loaders"
	"github.com/df07/go-progressive-radiosity/pkg/radiosity"
	"github.com/df07/go-progressive-radiosity/pkg/renderer"
	"github.com/df07/go-progressive-radiosity/pkg/scene"
)

// Server handles web requests for the progressive radiosity solver
type Server struct {
	port      int
	scenesDir string
	logger    *slog.Logger
}

// NewServer creates a new web server. Model scenes are discovered in scenesDir.
func NewServer(port int, scenesDir string, logger *slog.Logger) *Server {
	return &Server{port: port, scenesDir: scenesDir, logger: core.LoggerOrNop(logger)}
}

// Handler returns the API routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	mux.HandleFunc("/api/scene-config", s.handleSceneConfig)
	mux.HandleFunc("/api/solve", s.handleSolve)
	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting web server", "addr", "http://localhost"+addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists built-in and model file scenes
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	scenes, err := scene.ListAllScenes(s.scenesDir)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, scenes)
}

// handleSceneConfig returns the patch counts of a scene and the solver
// defaults and limits
func (s *Server) handleSceneConfig(w http.ResponseWriter, r *http.Request) {
	sceneName := r.URL.Query().Get("scene")
	if sceneName == "" {
		sceneName = "cornell"
	}

	model, err := loaders.OpenScene(sceneName, s.scenesDir, scene.SubdivisionConfig{MaxGatherers: maxGatherers})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	defaults := radiosity.DefaultConfig()
	response := map[string]interface{}{
		"scene": sceneName,
		"model": map[string]interface{}{
			"surfaces":  len(model.Surfaces),
			"shooters":  len(model.Shooters),
			"gatherers": len(model.Gatherers),
			"radius":    model.Radius,
		},
		"defaults": map[string]interface{}{
			"iterations":   defaults.MaxIterations,
			"resolution":   defaults.Resolution,
			"threshold":    defaults.ConvergenceThreshold,
			"previewEvery": defaultPreviewEvery,
			"previewSize":  defaultPreviewSize,
		},
		"limits": map[string]interface{}{
			"iterations":  map[string]int{"min": 1, "max": maxIterations},
			"resolution":  map[string]int{"min": radiosity.MinResolution, "max": maxResolution},
			"threshold":   map[string]float64{"min": 0, "max": maxThreshold},
			"previewSize": map[string]int{"min": minPreviewSize, "max": maxPreviewSize},
			"gatherers":   map[string]int{"max": maxGatherers},
		},
	}
	writeJSON(w, http.StatusOK, response)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseFloatParam parses a float parameter from URL query with validation
func parseFloatParam(values url.Values, key string, defaultValue, min, max float64) (float64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %g and %g, got: %g", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// previewToBase64PNG draws the current solution and returns it as a
// base64-encoded PNG
func previewToBase64PNG(model *scene.Model, size int) (string, error) {
	config := renderer.DefaultPreviewConfig()
	config.Width, config.Height = size, size
	preview, err := renderer.NewPreview(model, config)
	if err != nil {
		return "", err
	}
	defer preview.Close()

	var buf bytes.Buffer
	if err := preview.EncodePNG(&buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
