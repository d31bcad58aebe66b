package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/replog/internal/cli"
	"github.com/claude/replog/internal/config"
	"github.com/claude/replog/internal/storage"
	"github.com/claude/replog/internal/tagger"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	dataDir := flag.String("data", "", "data directory (overrides config)")
	verbose := flag.Bool("verbose", false, "log diagnostics to stderr")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("replog", Version)
		return
	}

	// Diagnostics go to stderr so they never interleave with the prompt.
	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	store, err := storage.NewFileStore(cfg.DataDir, log)
	if err != nil {
		log.Error("failed to open data directory", "error", err)
		os.Exit(1)
	}

	tags := tagger.New(cfg.Tags)
	ui := cli.NewConsoleUI(os.Stdin, os.Stdout)

	app := cli.New(cfg, store, tags, ui, log)
	if err := app.Run(); err != nil {
		log.Error("session failed", "error", err)
		os.Exit(1)
	}
}
