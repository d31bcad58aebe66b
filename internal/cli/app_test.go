package cli

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude/replog/internal/config"
	"github.com/claude/replog/internal/storage"
	"github.com/claude/replog/internal/tagger"
)

func testConfig(dir string) *config.Config {
	return &config.Config{
		DataDir:     dir,
		DefaultUser: "tester",
		Tags: config.TagsConfig{
			Modalities: map[string][]string{
				"CARDIO":   {"run"},
				"STRENGTH": {"squat"},
			},
			MuscleGroups: map[string][]string{
				"LEGS": {"leg", "squat"},
			},
		},
	}
}

// runScript feeds a scripted session through the app and returns everything
// it printed.
func runScript(t *testing.T, dir, script string) string {
	t.Helper()
	cfg := testConfig(dir)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := storage.NewFileStore(cfg.DataDir, log)
	require.NoError(t, err)

	var out bytes.Buffer
	ui := NewConsoleUI(strings.NewReader(script), &out)
	app := New(cfg, store, tagger.New(cfg.Tags), ui, log)
	require.NoError(t, app.Run())
	return out.String()
}

// TestScriptedSession drives a full create/exercise/set/end/view/weight
// session through the command loop.
func TestScriptedSession(t *testing.T) {
	dir := t.TempDir()

	// First line answers the new-month prompt.
	out := runScript(t, dir, strings.Join([]string{
		"Y",
		"/create_workout n/Leg Day",
		"/add_exercise n/Squat r/10",
		"/add_set r/8",
		"/end_workout",
		"/view_log",
		"/open 1",
		"/add_weight w/82.5",
		"/view_weight",
		"/exit",
	}, "\n") + "\n")

	assert.Contains(t, out, "Welcome to replog, tester!")
	assert.Contains(t, out, `Workout "Leg Day" started`)
	assert.Contains(t, out, `Added "Squat" with 10 reps.`)
	assert.Contains(t, out, "Added a set of 8 reps.")
	assert.Contains(t, out, `Workout "Leg Day" wrapped:`)
	assert.Contains(t, out, "1. Leg Day")
	assert.Contains(t, out, "sets: 10,8")
	assert.Contains(t, out, "82.5 kg")
	assert.Contains(t, out, "Saving your progress...")
}

// TestSessionPersistsAcrossRuns verifies a second run finds the saved month
// and the remembered user.
func TestSessionPersistsAcrossRuns(t *testing.T) {
	dir := t.TempDir()

	runScript(t, dir, strings.Join([]string{
		"Y",
		"/create_workout n/Morning Run",
		"/end_workout",
		"/exit",
	}, "\n") + "\n")

	out := runScript(t, dir, "/view_log\n/exit\n")
	assert.Contains(t, out, "Loaded 1 workout(s) for tester")
	assert.Contains(t, out, "1. Morning Run")
	assert.Contains(t, out, "CARDIO")
}

// TestSessionErrorsStayInteractive verifies rejected commands report and the
// loop keeps going.
func TestSessionErrorsStayInteractive(t *testing.T) {
	out := runScript(t, t.TempDir(), strings.Join([]string{
		"Y",
		"/add_set r/10",
		"/definitely_not_a_command",
		"/create_workout",
		"/exit",
	}, "\n") + "\n")

	assert.Contains(t, out, "no open workout")
	assert.Contains(t, out, "unknown command /definitely_not_a_command")
	assert.Contains(t, out, "Usage: /create_workout")
	assert.Contains(t, out, "Bye!")
}

// TestUserSwitch verifies /my_name starts a fresh session for the new user.
func TestUserSwitch(t *testing.T) {
	dir := t.TempDir()

	out := runScript(t, dir, strings.Join([]string{
		"Y",
		"/create_workout n/Squats",
		"/end_workout",
		"/my_name n/sam",
		"Y",
		"/view_log",
		"/exit",
	}, "\n") + "\n")

	assert.Contains(t, out, "Switched to user: sam")
	// sam's month is empty; tester's workout must not leak across.
	assert.Contains(t, out, "(no workouts)")
}
