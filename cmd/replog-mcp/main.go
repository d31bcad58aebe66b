// Package main runs the replog MCP server over stdio, exposing the workout
// log and weight history read-only to local MCP clients.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/replog/internal/config"
	replogmcp "github.com/claude/replog/internal/mcp"
	"github.com/claude/replog/internal/storage"
	"github.com/claude/replog/internal/tagger"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	dataDir := flag.String("data", "", "data directory (overrides config)")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("replog-mcp", Version)
		return
	}

	// stdout carries the MCP protocol; everything else goes to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

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

	s := replogmcp.New(store, tagger.New(cfg.Tags), cfg.DefaultUser, Version, log)
	if err := server.ServeStdio(s); err != nil {
		log.Error("mcp server stopped", "error", err)
		os.Exit(1)
	}
}
