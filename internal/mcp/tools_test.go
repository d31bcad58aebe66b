package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/claude/replog/internal/config"
	"github.com/claude/replog/internal/models"
	"github.com/claude/replog/internal/storage"
	"github.com/claude/replog/internal/tagger"
	"github.com/mark3labs/mcp-go/mcp"
)

func testHandlers(t *testing.T) (*handlers, *storage.FileStore) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := storage.NewFileStore(t.TempDir(), log)
	if err != nil {
		t.Fatal(err)
	}
	tags := tagger.New(config.TagsConfig{
		Modalities: map[string][]string{
			"CARDIO":   {"run"},
			"STRENGTH": {"squat"},
		},
		MuscleGroups: map[string][]string{
			"LEGS": {"squat"},
		},
	})
	return &handlers{store: store, tags: tags, defaultUser: "fallback", log: log}, store
}

func callReq(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func TestResolveUser(t *testing.T) {
	h, store := testHandlers(t)

	if got := h.resolveUser("alex"); got != "alex" {
		t.Errorf("explicit user: got %q", got)
	}
	if got := h.resolveUser(""); got != "fallback" {
		t.Errorf("no profile: got %q, want configured default", got)
	}

	if err := store.SaveLastUser("sam"); err != nil {
		t.Fatal(err)
	}
	if got := h.resolveUser(""); got != "sam" {
		t.Errorf("with profile: got %q, want sam", got)
	}
}

func TestWorkoutsToJSON(t *testing.T) {
	w := models.NewWorkout("Leg Day", time.Date(2026, 9, 15, 9, 0, 0, 0, time.Local), "alex")
	w.AutoTags = map[string]struct{}{"LEGS": {}}
	ex := models.NewExercise("Squat", 10)
	ex.AddSet(8)
	w.AddExercise(ex)

	restored := models.RestoredWorkout("Old", 30, "alex")

	out := workoutsToJSON([]*models.Workout{w, restored})
	if len(out) != 2 {
		t.Fatalf("got %d entries", len(out))
	}
	if out[0].Date != "2026-09-15" {
		t.Errorf("Date = %q", out[0].Date)
	}
	if len(out[0].Exercises) != 1 || out[0].Exercises[0].Name != "Squat" {
		t.Errorf("Exercises = %+v", out[0].Exercises)
	}
	if out[0].Tags[0] != "LEGS" {
		t.Errorf("Tags = %v", out[0].Tags)
	}
	// Restored workouts carry no timestamp; the field is omitted, not zero.
	if out[1].Date != "" {
		t.Errorf("restored Date = %q, want empty", out[1].Date)
	}
}

// TestGetWorkoutsRecomputesTags verifies the serialized workouts carry their
// keyword-derived tags. Tags are not part of the file format, so the handler
// must recompute them on load.
func TestGetWorkoutsRecomputesTags(t *testing.T) {
	h, store := testHandlers(t)

	mo := models.Month{Year: 2026, Mon: time.September}
	w := models.RestoredWorkout("Squat Day", 40, "alex")
	if err := store.SaveMonth("alex", mo, []*models.Workout{w}); err != nil {
		t.Fatal(err)
	}

	res, err := h.getWorkouts(context.Background(), callReq(map[string]any{
		"user":  "alex",
		"month": "2026-09",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %+v", res)
	}

	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type %T, want TextContent", res.Content[0])
	}
	var payload struct {
		Workouts []struct {
			Name string   `json:"name"`
			Tags []string `json:"tags"`
		} `json:"workouts"`
	}
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		t.Fatal(err)
	}
	if len(payload.Workouts) != 1 {
		t.Fatalf("got %d workouts", len(payload.Workouts))
	}
	tags := payload.Workouts[0].Tags
	if len(tags) != 2 || tags[0] != "LEGS" || tags[1] != "STRENGTH" {
		t.Errorf("tags = %v, want [LEGS STRENGTH]", tags)
	}
}

func TestGetWorkoutsUnknownMonth(t *testing.T) {
	h, _ := testHandlers(t)

	res, err := h.getWorkouts(context.Background(), callReq(map[string]any{
		"user":  "alex",
		"month": "2026-01",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("expected a tool error result for a month with no data")
	}
}

func TestGetWorkoutsBadMonth(t *testing.T) {
	h, _ := testHandlers(t)

	res, err := h.getWorkouts(context.Background(), callReq(map[string]any{
		"month": "January 2026",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("expected a tool error result for a malformed month")
	}
}

func TestListMonths(t *testing.T) {
	h, store := testHandlers(t)

	mo := models.Month{Year: 2026, Mon: time.September}
	if err := store.SaveMonth("alex", mo, nil); err != nil {
		t.Fatal(err)
	}

	res, err := h.listMonths(context.Background(), callReq(map[string]any{"user": "alex"}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %+v", res)
	}
}
