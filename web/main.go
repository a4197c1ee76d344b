package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/gogpu/gg"

	"github.com/df07/go-progressive-radiosity/web/server"
)

func main() {
	// Parse command line flags
	port := flag.Int("port", 8080, "Port to serve on")
	scenesDir := flag.String("scenes-dir", "scenes", "Directory searched for model:<name> scenes")
	verbose := flag.Bool("v", false, "Verbose (debug) logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	gg.SetLogger(logger)

	// Create and start web server
	webServer := server.NewServer(*port, *scenesDir, logger)

	if err := webServer.Start(); err != nil {
		logger.Error("error starting server", "err", err)
		os.Exit(1)
	}
}
