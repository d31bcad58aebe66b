package workout

import (
	"fmt"
	"strings"
	"time"

	"github.com/claude/replog/internal/models"
)

// ViewLog is the read-only presentation layer over the active month. Display
// identifiers are 1-based positions in the collection's insertion order,
// stable only within one render; they are never persisted.
type ViewLog struct {
	mgr *Manager
}

// NewViewLog wraps a session's manager.
func NewViewLog(m *Manager) *ViewLog {
	return &ViewLog{mgr: m}
}

// Size returns the number of workouts currently addressable.
func (v *ViewLog) Size() int { return len(v.mgr.Workouts()) }

// WorkoutByDisplayID resolves a display identifier back to its workout.
// Identifiers outside [1, size], including any id when the month is empty,
// get a bounds error.
func (v *ViewLog) WorkoutByDisplayID(n int) (*models.Workout, error) {
	ws := v.mgr.Workouts()
	if n < 1 || n > len(ws) {
		return nil, fmt.Errorf("%w: got %d, have %d workout(s)", ErrBadIndex, n, len(ws))
	}
	return ws[n-1], nil
}

// Render lists the active month's workouts in insertion order: display id,
// name, date, duration, and tags. An optional d/DD/MM/YY filter restricts
// the listing to one day without renumbering the ids.
func (v *ViewLog) Render(filter string) ([]string, error) {
	var filterDay time.Time
	filtered := false
	if rest, ok := strings.CutPrefix(strings.TrimSpace(filter), "d/"); ok {
		day, err := time.ParseInLocation(dateLayout, strings.TrimSpace(rest), time.Local)
		if err != nil {
			return nil, fmt.Errorf("invalid date filter %q (want d/DD/MM/YY)", rest)
		}
		filterDay = day
		filtered = true
	}

	ws := v.mgr.Workouts()
	lines := []string{fmt.Sprintf("Workout log for %s, %s:", v.mgr.User(), v.mgr.ActiveMonth())}
	shown := 0
	for i, w := range ws {
		if filtered && !sameDay(w.StartTime, filterDay) {
			continue
		}
		lines = append(lines, fmt.Sprintf("%2d. %s | %s | %s | %s",
			i+1, w.Name, w.DateString(), durationLabel(w), tagsLabel(w)))
		shown++
	}
	if shown == 0 {
		lines = append(lines, "  (no workouts)")
	}
	return lines, nil
}

// OpenByIndex renders the detailed view of one workout: every exercise with
// its full set sequence.
func (v *ViewLog) OpenByIndex(n int) ([]string, error) {
	w, err := v.WorkoutByDisplayID(n)
	if err != nil {
		return nil, err
	}

	lines := []string{fmt.Sprintf("%s | %s | %s | %s",
		w.Name, w.DateString(), durationLabel(w), tagsLabel(w))}
	if len(w.Exercises) == 0 {
		lines = append(lines, "  (no exercises)")
	}
	for i, ex := range w.Exercises {
		lines = append(lines, fmt.Sprintf("  %d. %s | sets: %s", i+1, ex.Name, ex.SetsString()))
	}
	return lines, nil
}

func durationLabel(w *models.Workout) string {
	if w.Open() {
		return "(open)"
	}
	return fmt.Sprintf("%d min", w.Duration)
}

func tagsLabel(w *models.Workout) string {
	tags := w.DisplayTags()
	if len(tags) == 0 {
		return "no tags"
	}
	return strings.Join(tags, " ")
}
