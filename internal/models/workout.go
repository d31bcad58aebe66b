package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrEndBeforeStart is returned when a workout's end time precedes its start
// time. The workout stays open; the caller may resubmit a corrected end time.
var ErrEndBeforeStart = errors.New("end time precedes start time")

// Exercise is a named movement within a workout with an ordered list of set
// rep counts. An exercise always has at least one set; creation requires the
// initial rep count.
type Exercise struct {
	Name string
	Sets []int
}

// NewExercise creates an exercise with its first set.
func NewExercise(name string, initialReps int) *Exercise {
	return &Exercise{Name: name, Sets: []int{initialReps}}
}

// AddSet appends a rep count to the exercise's set sequence.
func (e *Exercise) AddSet(reps int) {
	e.Sets = append(e.Sets, reps)
}

// SetsString renders the set sequence as "10,8,8", the on-disk form.
func (e *Exercise) SetsString() string {
	parts := make([]string, len(e.Sets))
	for i, r := range e.Sets {
		parts[i] = fmt.Sprintf("%d", r)
	}
	return strings.Join(parts, ",")
}

// Workout is a named exercise session owned by one user, filed under the
// calendar month of its start timestamp. It is open (accepting exercises and
// sets) from creation until ended; after that only tag overrides may change.
type Workout struct {
	ID        uuid.UUID
	Name      string
	Username  string
	StartTime time.Time
	EndTime   time.Time // zero until ended
	Duration  int       // whole minutes
	Closed    bool
	Exercises []*Exercise

	// AutoTags is the keyword-derived tag set, recomputed wholesale whenever
	// the workout text or the keyword dictionaries change. OverrideTags is the
	// manually forced set; when non-empty it wins for display.
	AutoTags     map[string]struct{}
	OverrideTags map[string]struct{}
}

// NewWorkout creates an open workout starting at the given time.
func NewWorkout(name string, start time.Time, username string) *Workout {
	return &Workout{
		ID:        uuid.New(),
		Name:      name,
		Username:  username,
		StartTime: start,
	}
}

// RestoredWorkout reconstructs a closed workout from persisted name and
// duration. Start and end timestamps are not part of the saved record.
func RestoredWorkout(name string, duration int, username string) *Workout {
	return &Workout{
		ID:       uuid.New(),
		Name:     name,
		Username: username,
		Duration: duration,
		Closed:   true,
	}
}

// Open reports whether the workout still accepts exercises and sets.
func (w *Workout) Open() bool { return !w.Closed }

// AddExercise appends an exercise to the workout.
func (w *Workout) AddExercise(e *Exercise) {
	w.Exercises = append(w.Exercises, e)
}

// CurrentExercise returns the most recently added exercise, the implicit
// target for new sets, or nil when the workout has none.
func (w *Workout) CurrentExercise() *Exercise {
	if len(w.Exercises) == 0 {
		return nil
	}
	return w.Exercises[len(w.Exercises)-1]
}

// End closes the workout at the given time and derives the duration in whole
// minutes. An end before the start is rejected without touching any state so
// the caller can retry.
func (w *Workout) End(end time.Time) error {
	if end.Before(w.StartTime) {
		return fmt.Errorf("%w: start %s, got end %s",
			ErrEndBeforeStart,
			w.StartTime.Format("02/01/06 1504"),
			end.Format("02/01/06 1504"))
	}
	w.EndTime = end
	w.Duration = int(end.Sub(w.StartTime) / time.Minute)
	w.Closed = true
	return nil
}

// SearchText is the lowercased text the tagger matches keywords against:
// the workout name plus every exercise name.
func (w *Workout) SearchText() string {
	var b strings.Builder
	b.WriteString(w.Name)
	for _, e := range w.Exercises {
		b.WriteByte(' ')
		b.WriteString(e.Name)
	}
	return strings.ToLower(b.String())
}

// DisplayTags returns the tags shown to the user, sorted. Manual overrides,
// when present, take precedence over the auto-generated set.
func (w *Workout) DisplayTags() []string {
	set := w.AutoTags
	if len(w.OverrideTags) > 0 {
		set = w.OverrideTags
	}
	tags := make([]string, 0, len(set))
	for t := range set {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// DateString formats the start date as e.g. "Wednesday 22nd of October".
// Restored workouts have no start timestamp and render as "unknown date".
func (w *Workout) DateString() string {
	if w.StartTime.IsZero() {
		return "unknown date"
	}
	day := w.StartTime.Day()
	return fmt.Sprintf("%s %d%s of %s",
		w.StartTime.Weekday(), day, ordinalSuffix(day), w.StartTime.Month())
}

func ordinalSuffix(day int) string {
	if day >= 11 && day <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}
