package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/claude/replog/internal/models"
	"github.com/claude/replog/internal/storage"
	"github.com/mark3labs/mcp-go/mcp"
)

// resolveUser falls back to the profile's last-used name, then the configured
// default.
func (h *handlers) resolveUser(requested string) string {
	if requested != "" {
		return requested
	}
	if user, err := h.store.LoadLastUser(); err == nil {
		return user
	}
	return h.defaultUser
}

// JSON shapes for tool results.
type workoutJSON struct {
	Name      string         `json:"name"`
	Date      string         `json:"date,omitempty"`
	Duration  int            `json:"durationMinutes"`
	Tags      []string       `json:"tags"`
	Exercises []exerciseJSON `json:"exercises"`
}

type exerciseJSON struct {
	Name string `json:"name"`
	Sets []int  `json:"sets"`
}

type weightJSON struct {
	Weight float64 `json:"weightKg"`
	Date   string  `json:"date"`
}

func workoutsToJSON(ws []*models.Workout) []workoutJSON {
	out := make([]workoutJSON, 0, len(ws))
	for _, w := range ws {
		wj := workoutJSON{
			Name:     w.Name,
			Duration: w.Duration,
			Tags:     w.DisplayTags(),
		}
		if !w.StartTime.IsZero() {
			wj.Date = w.StartTime.Format("2006-01-02")
		}
		for _, ex := range w.Exercises {
			wj.Exercises = append(wj.Exercises, exerciseJSON{Name: ex.Name, Sets: ex.Sets})
		}
		out = append(out, wj)
	}
	return out
}

// --- Tool handlers ---

func (h *handlers) listMonths(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user := h.resolveUser(req.GetString("user", ""))

	months, err := h.store.Months(user)
	if errors.Is(err, storage.ErrNotFound) {
		return mcp.NewToolResultError("no saved data for user " + user), nil
	}
	if err != nil {
		h.log.Error("mcp list_months", "error", err)
		return mcp.NewToolResultError("listing months failed: " + err.Error()), nil
	}

	names := make([]string, len(months))
	for i, m := range months {
		names[i] = m.String()
	}
	result, err := mcp.NewToolResultJSON(map[string]any{"user": user, "months": names})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user := h.resolveUser(req.GetString("user", ""))

	month := models.CurrentMonth()
	if monthStr := req.GetString("month", ""); monthStr != "" {
		parsed, err := models.ParseMonth(monthStr)
		if err != nil {
			return mcp.NewToolResultError("invalid month (want YYYY-MM): " + err.Error()), nil
		}
		month = parsed
	}

	data, err := h.store.LoadMonth(user, month)
	if errors.Is(err, storage.ErrNotFound) {
		return mcp.NewToolResultError("no saved data for " + user + " in " + month.String()), nil
	}
	if err != nil {
		h.log.Error("mcp get_workouts", "error", err)
		return mcp.NewToolResultError("loading month failed: " + err.Error()), nil
	}

	h.tags.Retag(data.Workouts)
	result, err := mcp.NewToolResultJSON(map[string]any{
		"user":     user,
		"month":    month.String(),
		"workouts": workoutsToJSON(data.Workouts),
		"skipped":  len(data.Skipped),
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWeightHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user := h.resolveUser(req.GetString("user", ""))

	records, err := h.store.LoadWeightHistory(user)
	if errors.Is(err, storage.ErrNotFound) {
		return mcp.NewToolResultError("no weight history for user " + user), nil
	}
	if err != nil {
		h.log.Error("mcp get_weight_history", "error", err)
		return mcp.NewToolResultError("loading weight history failed: " + err.Error()), nil
	}

	out := make([]weightJSON, len(records))
	for i, r := range records {
		out[i] = weightJSON{Weight: r.Weight, Date: r.Date.Format("2006-01-02")}
	}
	result, err := mcp.NewToolResultJSON(map[string]any{"user": user, "records": out})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// --- Resource handlers ---

func (h *handlers) currentMonth(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	user := h.resolveUser("")
	month := models.CurrentMonth()

	data, err := h.store.LoadMonth(user, month)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	h.tags.Retag(data.Workouts)
	payload, err := json.Marshal(map[string]any{
		"user":     user,
		"month":    month.String(),
		"workouts": workoutsToJSON(data.Workouts),
	})
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(payload),
		},
	}, nil
}
