// Package mcp exposes the replog data directory to MCP clients over stdio.
// The surface is strictly read-only: mutations stay with the interactive CLI,
// which owns the session state machine.
package mcp

import (
	"log/slog"

	"github.com/claude/replog/internal/storage"
	"github.com/claude/replog/internal/tagger"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered. Tags
// are derived state, not persisted, so the server carries its own tagger to
// recompute them on loaded workouts before serving.
func New(store *storage.FileStore, tags *tagger.Tagger, defaultUser, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("replog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("replog fitness log. Query workouts per calendar month and the body-weight history. Read-only: use the replog CLI to record anything."),
	)

	h := &handlers{store: store, tags: tags, defaultUser: defaultUser, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolListMonths, Handler: h.listMonths},
		server.ServerTool{Tool: toolGetWorkouts, Handler: h.getWorkouts},
		server.ServerTool{Tool: toolGetWeightHistory, Handler: h.getWeightHistory},
	)

	s.AddResources(
		server.ServerResource{Resource: resCurrentMonth, Handler: h.currentMonth},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	store       *storage.FileStore
	tags        *tagger.Tagger
	defaultUser string
	log         *slog.Logger
}

// --- Tool definitions ---

var toolListMonths = mcp.NewTool("list_months",
	mcp.WithDescription("List the saved workout months for a user, oldest first."),
	mcp.WithString("user", mcp.Description("Username. Defaults to the last-used profile.")),
)

var toolGetWorkouts = mcp.NewTool("get_workouts",
	mcp.WithDescription("Get one month's workout collection: name, duration, tags, and every exercise with its set rep counts."),
	mcp.WithString("user", mcp.Description("Username. Defaults to the last-used profile.")),
	mcp.WithString("month", mcp.Description("Calendar month as YYYY-MM. Defaults to the current month.")),
)

var toolGetWeightHistory = mcp.NewTool("get_weight_history",
	mcp.WithDescription("Get the full body-weight history in recording order."),
	mcp.WithString("user", mcp.Description("Username. Defaults to the last-used profile.")),
)

// --- Resource definitions ---

var resCurrentMonth = mcp.NewResource(
	"replog://current_month",
	"Current Month Log",
	mcp.WithResourceDescription("The current calendar month's workout collection for the last-used profile"),
	mcp.WithMIMEType("application/json"),
)
