package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gogpu/gg"

	"github.com/df07/go-progressive-radiosity/pkg/loaders"
	"github.com/df07/go-progressive-radiosity/pkg/radiosity"
	"github.com/df07/go-progressive-radiosity/pkg/renderer"
	"github.com/df07/go-progressive-radiosity/pkg/scene"
)

// runConfig is everything one solve needs. It can be loaded from a JSON
// file; flags set on the command line take precedence.
type runConfig struct {
	Scene       string                  `json:"scene"`
	ScenesDir   string                  `json:"scenesDir"`
	Subdivision scene.SubdivisionConfig `json:"subdivision"`
	Solver      radiosity.Config        `json:"solver"`
	Workers     int                     `json:"workers"`     // Rasterizer goroutines (0 = all CPUs)
	OutputDir   string                  `json:"outputDir"`   // Default directory for outputs
	Output      string                  `json:"output"`      // Solution file (.out, .out.gz, .out.zst)
	PLY         string                  `json:"ply"`         // Optional PLY export
	Preview     string                  `json:"preview"`     // Optional PNG preview
	PreviewSize int                     `json:"previewSize"` // Preview width and height
	Hemicube    string                  `json:"hemicube"`    // Optional PNG of the last hemicube
}

func defaultRunConfig() runConfig {
	return runConfig{
		Scene:       "cornell",
		ScenesDir:   "scenes",
		Solver:      radiosity.DefaultConfig(),
		OutputDir:   "output",
		PreviewSize: 512,
	}
}

// loadRunConfig reads a JSON config on top of the defaults
func loadRunConfig(path string) (runConfig, error) {
	cfg := defaultRunConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// solutionPath returns the configured solution file or a default under
// OutputDir/<scene>
func (c runConfig) solutionPath(sceneName string) string {
	if c.Output != "" {
		return c.Output
	}
	return filepath.Join(c.OutputDir, sceneName, "solution.out")
}

// createParent makes the directory that will hold path
func createParent(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

func main() {
	configPath := flag.String("config", "", "JSON run configuration file")
	sceneRef := flag.String("scene", "cornell", "Scene: built-in ID, model:<name> or a model file path")
	scenesDir := flag.String("scenes-dir", "scenes", "Directory searched for model:<name> scenes")
	iterations := flag.Int("iterations", 250, "Maximum number of shoots")
	resolution := flag.Int("resolution", 600, "Hemicube face resolution in pixels (even)")
	threshold := flag.Float64("threshold", 0, "Stop when unshot power falls to this fraction (0 = run all iterations)")
	shooterSize := flag.Float64("shooter-size", 0, "Maximum shooter patch edge (0 = scene default)")
	gathererSize := flag.Float64("gatherer-size", 0, "Maximum gatherer patch edge (0 = scene default)")
	maxGatherers := flag.Int("max-gatherers", 0, "Fail when subdivision would create more gatherers (0 = id limit)")
	workers := flag.Int("workers", 0, "Rasterizer worker goroutines (0 = all CPUs)")
	output := flag.String("output", "", "Solution file (default output/<scene>/solution.out)")
	plyPath := flag.String("ply", "", "Also write a PLY mesh with vertex colours")
	previewPath := flag.String("preview", "", "Also write a PNG preview of the solution")
	previewSize := flag.Int("preview-size", 512, "Preview width and height")
	hemicubePath := flag.String("dump-hemicube", "", "Write the item buffers of the last rendered shoot as a PNG")
	listScenes := flag.Bool("list", false, "List available scenes and exit")
	verbose := flag.Bool("v", false, "Verbose (debug) logging")
	help := flag.Bool("help", false, "Show help information")
	flag.Parse()

	if *help {
		fmt.Println("Progressive Radiosity")
		fmt.Println("Usage: radiosity [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	gg.SetLogger(logger)

	cfg := defaultRunConfig()
	if *configPath != "" {
		var err error
		if cfg, err = loadRunConfig(*configPath); err != nil {
			logger.Error("invalid configuration", "err", err)
			os.Exit(1)
		}
	}

	// Explicit flags override the config file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "scene":
			cfg.Scene = *sceneRef
		case "scenes-dir":
			cfg.ScenesDir = *scenesDir
		case "iterations":
			cfg.Solver.MaxIterations = *iterations
		case "resolution":
			cfg.Solver.Resolution = *resolution
		case "threshold":
			cfg.Solver.ConvergenceThreshold = *threshold
		case "shooter-size":
			cfg.Subdivision.ShooterSize = *shooterSize
		case "gatherer-size":
			cfg.Subdivision.GathererSize = *gathererSize
		case "max-gatherers":
			cfg.Subdivision.MaxGatherers = *maxGatherers
		case "workers":
			cfg.Workers = *workers
		case "output":
			cfg.Output = *output
		case "ply":
			cfg.PLY = *plyPath
		case "preview":
			cfg.Preview = *previewPath
		case "preview-size":
			cfg.PreviewSize = *previewSize
		case "dump-hemicube":
			cfg.Hemicube = *hemicubePath
		}
	})

	if *listScenes {
		if err := printScenes(cfg.ScenesDir); err != nil {
			logger.Error("failed to list scenes", "err", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("radiosity solve failed", "err", err)
		os.Exit(1)
	}
}

func printScenes(dir string) error {
	scenes, err := scene.ListAllScenes(dir)
	if err != nil {
		return err
	}
	for _, group := range scenes.Groups {
		fmt.Printf("%s:\n", group.Name)
		for _, s := range group.Scenes {
			fmt.Printf("  %-24s %s\n", s.ID, s.DisplayName)
		}
	}
	return nil
}

// run solves one scene and writes every requested output
func run(cfg runConfig, logger *slog.Logger) error {
	cfg.Solver.Logger = logger

	model, err := loaders.OpenScene(cfg.Scene, cfg.ScenesDir, cfg.Subdivision)
	if err != nil {
		return err
	}
	logger.Info("scene loaded",
		"scene", model.Name,
		"surfaces", len(model.Surfaces),
		"shooters", len(model.Shooters),
		"gatherers", len(model.Gatherers),
		"radius", model.Radius)

	rast, err := renderer.NewSoftwareRasterizer(cfg.Solver.Resolution, cfg.Solver.Resolution,
		renderer.WithWorkers(cfg.Workers),
		renderer.WithBackground(renderer.IDToRGB(cfg.Solver.BackgroundID)),
		renderer.WithLogger(logger))
	if err != nil {
		return err
	}

	solver, err := radiosity.NewSolver(model, rast, cfg.Solver)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := solver.Run(nil)
	if err != nil {
		return err
	}
	fmt.Printf("Radiosity computation %s after %d iterations in %v (unshot %.4g)\n",
		result.State, result.Iterations, time.Since(start), result.TotalUnshot)

	solutionPath := cfg.solutionPath(model.Name)
	if err := createParent(solutionPath); err != nil {
		return err
	}
	if err := loaders.SaveSolution(solutionPath, model); err != nil {
		return err
	}
	fmt.Printf("Solution saved as %s\n", solutionPath)

	if cfg.PLY != "" {
		if err := createParent(cfg.PLY); err != nil {
			return err
		}
		if err := loaders.SavePLY(cfg.PLY, model, loaders.DefaultPLYOptions()); err != nil {
			return err
		}
		mesh, err := loaders.VerifyPLY(cfg.PLY, model)
		if err != nil {
			return err
		}
		fmt.Printf("Mesh saved as %s (%d vertices, %d faces)\n", cfg.PLY, len(mesh.Positions), len(mesh.Faces))
	}

	if cfg.Preview != "" {
		if err := createParent(cfg.Preview); err != nil {
			return err
		}
		luminance, err := savePreview(cfg.Preview, model, cfg.PreviewSize)
		if err != nil {
			return err
		}
		fmt.Printf("Preview saved as %s (average luminance %.3f)\n", cfg.Preview, luminance)
	}

	if cfg.Hemicube != "" && solver.SampledIteration() > 0 {
		img, err := renderer.HemicubeAtlas(radiosity.AtlasFaces(solver.Faces()), renderer.AtlasOptions{HashColors: true})
		if err != nil {
			return err
		}
		if err := createParent(cfg.Hemicube); err != nil {
			return err
		}
		if err := renderer.SaveAtlasPNG(cfg.Hemicube, img); err != nil {
			return err
		}
		fmt.Printf("Hemicube of iteration %d saved as %s\n", solver.SampledIteration(), cfg.Hemicube)
	}
	return nil
}

// savePreview writes the preview PNG and returns its average luminance
func savePreview(path string, model *scene.Model, size int) (float64, error) {
	config := renderer.DefaultPreviewConfig()
	config.Width, config.Height = size, size
	preview, err := renderer.NewPreview(model, config)
	if err != nil {
		return 0, err
	}
	defer preview.Close()
	if err := preview.SavePNG(path); err != nil {
		return 0, err
	}
	return renderer.CalculateAverageLuminance(preview.Image()), nil
}
