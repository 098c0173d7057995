package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/yudis/h2database/internal"
	"github.com/yudis/h2database/internal/engine"
)

func main() {
	cfgPath := flag.String("config", "", "Path to yaml config file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	var cfg *internal.H2Config
	if *cfgPath != "" {
		c, err := internal.LoadConfig(*cfgPath)
		if err != nil {
			slog.Error("failed to load config", "path", *cfgPath, "err", err)
			os.Exit(1)
		}
		cfg = c
	}

	level := slog.LevelInfo
	if *debug || (cfg != nil && cfg.Server.Debug) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	eng := engine.New(logger)

	logger.Info("h2d started", "tables", len(eng.Catalog().Tables()))
	// TODO: attach the SQL front-end and wire server once they land.

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("shutting down")
}
