// Package workout holds the session state machine for the fitness log: the
// per-session Manager with its open-workout and open-exercise cursors, the
// read-only ViewLog over the active month, and the weight log.
package workout

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/claude/replog/internal/models"
	"github.com/claude/replog/internal/storage"
	"github.com/claude/replog/internal/tagger"
	"github.com/google/uuid"
)

const (
	dateLayout = "02/01/06"
	timeLayout = "1504"
)

var (
	// ErrNoOpenWorkout rejects exercise and set operations in the Idle state.
	ErrNoOpenWorkout = errors.New("no open workout; create one first")
	// ErrNoExercise rejects AddSet when the open workout has no exercises.
	ErrNoExercise = errors.New("open workout has no exercises yet")
	// ErrBadReps rejects non-positive rep counts.
	ErrBadReps = errors.New("rep count must be a positive integer")
	// ErrEmptyName rejects blank workout or exercise names.
	ErrEmptyName = errors.New("name must not be empty")
	// ErrEmptyTag rejects blank tag override text.
	ErrEmptyTag = errors.New("tag text must not be empty")
	// ErrBadIndex rejects display identifiers outside [1, size].
	ErrBadIndex = errors.New("display id out of range")
	// ErrNoMatch means a delete query found nothing.
	ErrNoMatch = errors.New("no matching workout")
)

// SaveError reports a persistence failure for a mutation that already applied
// in memory. The in-memory state stays the source of truth for the rest of
// the session; the caller reports the failure and carries on.
type SaveError struct {
	What string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("saving %s: %v (changes kept in memory)", e.What, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// Store is the slice of the persistence layer the manager drives.
type Store interface {
	LoadMonth(user string, m models.Month) (storage.MonthData, error)
	SaveMonth(user string, m models.Month, workouts []*models.Workout) error
	Months(user string) ([]models.Month, error)
}

// Manager owns one user's session: the month-indexed workout collections and
// the "currently open workout" / "currently open exercise" cursors. It is a
// per-session value, created per user; nothing about it is process-global.
type Manager struct {
	store Store
	tags  *tagger.Tagger
	log   *slog.Logger
	clock func() time.Time

	user    string
	active  models.Month
	months  map[models.Month][]*models.Workout
	current *models.Workout
}

// NewManager creates a session for the given user, viewing the current
// calendar month. The collection itself is installed via SetMonth once the
// caller has resolved the load (including the not-found decision).
func NewManager(store Store, tags *tagger.Tagger, user string, log *slog.Logger) *Manager {
	return &Manager{
		store:  store,
		tags:   tags,
		log:    log,
		clock:  time.Now,
		user:   user,
		active: models.CurrentMonth(),
		months: make(map[models.Month][]*models.Workout),
	}
}

// User returns the owning username.
func (m *Manager) User() string { return m.user }

// ActiveMonth returns the month whose collection the view addresses.
func (m *Manager) ActiveMonth() models.Month { return m.active }

// Workouts returns the active month's collection in insertion order.
func (m *Manager) Workouts() []*models.Workout { return m.months[m.active] }

// CurrentWorkout returns the open workout, or nil when Idle.
func (m *Manager) CurrentWorkout() *models.Workout { return m.current }

// SetMonth installs a loaded (or freshly initialized) collection as the
// active month and resets the cursors.
func (m *Manager) SetMonth(mo models.Month, workouts []*models.Workout) {
	m.active = mo
	m.months[mo] = workouts
	m.current = nil
}

// loadAllMonths pulls every saved month into the index, for scans that must
// see the full history.
func (m *Manager) loadAllMonths() {
	months, err := m.store.Months(m.user)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			m.log.Warn("month listing degraded", "user", m.user, "error", err)
		}
		return
	}
	for _, mo := range months {
		m.loadMonth(mo)
	}
}

// allWorkouts flattens every loaded month, for dictionary-wide scans.
func (m *Manager) allWorkouts() []*models.Workout {
	var all []*models.Workout
	for _, ws := range m.months {
		all = append(all, ws...)
	}
	return all
}

// loadMonth ensures a month's collection is in memory. A month that was
// never saved starts empty; unreadable data degrades to empty with a logged
// diagnostic. Only the initial session load routes not-found to the user.
func (m *Manager) loadMonth(mo models.Month) []*models.Workout {
	if ws, ok := m.months[mo]; ok {
		return ws
	}
	data, err := m.store.LoadMonth(m.user, mo)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		m.log.Warn("month load degraded to empty", "month", mo.String(), "error", err)
	}
	m.months[mo] = data.Workouts
	return data.Workouts
}

func (m *Manager) save(mo models.Month) error {
	if err := m.store.SaveMonth(m.user, mo, m.months[mo]); err != nil {
		m.log.Error("save failed", "user", m.user, "month", mo.String(), "error", err)
		return &SaveError{What: "month " + mo.String(), Err: err}
	}
	return nil
}

// SaveActiveMonth persists the active collection. The surrounding program
// calls this before exit; teardown itself never saves implicitly.
func (m *Manager) SaveActiveMonth() error {
	return m.save(m.active)
}

// CreateResult reports a created workout and which of date and time were
// defaulted to "now" because the caller omitted them.
type CreateResult struct {
	Workout       *models.Workout
	DefaultedDate bool
	DefaultedTime bool
}

// CreateWorkout opens a new workout. An already-open workout simply stops
// being current; it is neither closed nor discarded. Missing date or time
// default independently to now (reported via the result); an unparseable
// date or time rejects the whole operation with nothing created.
//
// The workout is filed under the month of its start timestamp, which may not
// be the active month; the active view does not switch.
func (m *Manager) CreateWorkout(name, dateStr, timeStr string) (CreateResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return CreateResult{}, fmt.Errorf("workout %w", ErrEmptyName)
	}

	start, defaultedDate, defaultedTime, err := m.parseMoment(dateStr, timeStr)
	if err != nil {
		return CreateResult{}, err
	}

	w := models.NewWorkout(name, start, m.user)
	w.AutoTags = m.tags.Suggest(w)

	mo := models.MonthOf(start)
	m.loadMonth(mo)
	m.months[mo] = append(m.months[mo], w)
	m.current = w

	res := CreateResult{Workout: w, DefaultedDate: defaultedDate, DefaultedTime: defaultedTime}
	return res, m.save(mo)
}

// parseMoment combines optional DD/MM/YY and HHmm arguments, defaulting each
// independently to the present.
func (m *Manager) parseMoment(dateStr, timeStr string) (t time.Time, defaultedDate, defaultedTime bool, err error) {
	now := m.clock()
	day := now
	if dateStr == "" {
		defaultedDate = true
	} else {
		day, err = time.ParseInLocation(dateLayout, dateStr, time.Local)
		if err != nil {
			return time.Time{}, false, false, fmt.Errorf("invalid date %q (want DD/MM/YY)", dateStr)
		}
	}

	hour, minute := now.Hour(), now.Minute()
	if timeStr == "" {
		defaultedTime = true
	} else {
		clock, perr := time.Parse(timeLayout, timeStr)
		if perr != nil {
			return time.Time{}, false, false, fmt.Errorf("invalid time %q (want HHmm)", timeStr)
		}
		hour, minute = clock.Hour(), clock.Minute()
	}

	t = time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.Local)
	return t, defaultedDate, defaultedTime, nil
}

// AddExercise appends an exercise with its initial set to the open workout
// and refreshes the workout's auto tags, since the new name may match
// keywords.
func (m *Manager) AddExercise(name string, initialReps int) (*models.Exercise, error) {
	if m.current == nil {
		return nil, ErrNoOpenWorkout
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("exercise %w", ErrEmptyName)
	}
	if initialReps <= 0 {
		return nil, ErrBadReps
	}

	ex := models.NewExercise(name, initialReps)
	m.current.AddExercise(ex)
	m.current.AutoTags = m.tags.Suggest(m.current)
	return ex, nil
}

// AddSet appends a set to the most recently added exercise of the open
// workout.
func (m *Manager) AddSet(reps int) error {
	if m.current == nil {
		return ErrNoOpenWorkout
	}
	ex := m.current.CurrentExercise()
	if ex == nil {
		return ErrNoExercise
	}
	if reps <= 0 {
		return ErrBadReps
	}
	ex.AddSet(reps)
	return nil
}

// EndResult reports an ended workout and any defaulted end date/time.
type EndResult struct {
	Workout       *models.Workout
	DefaultedDate bool
	DefaultedTime bool
}

// EndWorkout closes the open workout at the given end moment, deriving the
// duration in whole minutes. An end before the start fails with a retryable
// error: the workout stays open and untouched, and the caller may resubmit.
func (m *Manager) EndWorkout(dateStr, timeStr string) (EndResult, error) {
	if m.current == nil {
		return EndResult{}, ErrNoOpenWorkout
	}

	end, defaultedDate, defaultedTime, err := m.parseMoment(dateStr, timeStr)
	if err != nil {
		return EndResult{}, err
	}

	w := m.current
	if err := w.End(end); err != nil {
		return EndResult{}, err
	}
	m.current = nil

	res := EndResult{Workout: w, DefaultedDate: defaultedDate, DefaultedTime: defaultedTime}
	return res, m.save(models.MonthOf(w.StartTime))
}

// DeleteByIndex removes the workout at a 1-based display position in the
// active month, without confirmation.
func (m *Manager) DeleteByIndex(n int) (*models.Workout, error) {
	ws := m.Workouts()
	if n < 1 || n > len(ws) {
		return nil, fmt.Errorf("%w: got %d, have %d workout(s)", ErrBadIndex, n, len(ws))
	}
	w := ws[n-1]
	m.removeFromMonth(m.active, w)
	return w, m.save(m.active)
}

// DeleteRequest is the suspension point of the delete flow: the manager
// returns the matching candidates and the caller runs the one-at-a-time
// confirmation loop, resuming each accepted deletion via ConfirmDelete with
// the workout's ID as the token. The manager never blocks on a prompt.
type DeleteRequest struct {
	Query      string
	Candidates []*models.Workout
}

// PrepareDelete resolves a delete query, either an exact workout name or a date
// filter of the form d/DD/MM/YY, against the active month.
func (m *Manager) PrepareDelete(query string) (*DeleteRequest, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("delete query %w", ErrEmptyName)
	}

	var matches []*models.Workout
	if rest, ok := strings.CutPrefix(query, "d/"); ok {
		day, err := time.ParseInLocation(dateLayout, strings.TrimSpace(rest), time.Local)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q (want d/DD/MM/YY)", rest)
		}
		for _, w := range m.Workouts() {
			if sameDay(w.StartTime, day) {
				matches = append(matches, w)
			}
		}
	} else {
		for _, w := range m.Workouts() {
			if w.Name == query {
				matches = append(matches, w)
			}
		}
	}

	if len(matches) == 0 {
		return nil, fmt.Errorf("%w for %q", ErrNoMatch, query)
	}
	return &DeleteRequest{Query: query, Candidates: matches}, nil
}

// ConfirmDelete removes one candidate by its resumption token.
func (m *Manager) ConfirmDelete(token uuid.UUID) error {
	for mo, ws := range m.months {
		for _, w := range ws {
			if w.ID == token {
				m.removeFromMonth(mo, w)
				return m.save(mo)
			}
		}
	}
	return fmt.Errorf("%w for token %s", ErrNoMatch, token)
}

func (m *Manager) removeFromMonth(mo models.Month, target *models.Workout) {
	ws := m.months[mo]
	for i, w := range ws {
		if w == target {
			m.months[mo] = append(ws[:i], ws[i+1:]...)
			break
		}
	}
	if m.current == target {
		m.current = nil
	}
}

// OverrideTags replaces (not merges) the manual tag set of a workout. The
// returned slice lists the auto tags the new set contradicts, a diagnostic
// for the caller, not an error.
func (m *Manager) OverrideTags(w *models.Workout, tagText string) ([]string, error) {
	tagText = strings.TrimSpace(tagText)
	if tagText == "" {
		return nil, ErrEmptyTag
	}

	newSet := make(map[string]struct{})
	for _, t := range strings.Fields(strings.ToUpper(tagText)) {
		newSet[t] = struct{}{}
	}

	var overridden []string
	for t := range w.AutoTags {
		if _, ok := newSet[t]; !ok {
			overridden = append(overridden, t)
		}
	}
	sort.Strings(overridden)

	w.OverrideTags = newSet
	return overridden, m.save(m.monthHolding(w))
}

// monthHolding finds the partition a workout lives in. Falls back to the
// active month, which can only happen for a workout not managed here.
func (m *Manager) monthHolding(target *models.Workout) models.Month {
	for mo, ws := range m.months {
		for _, w := range ws {
			if w == target {
				return mo
			}
		}
	}
	return m.active
}

// AddModalityKeyword extends a modality dictionary. The conflict scan must
// see every existing workout, so all saved months are loaded first. Tags are
// derived state and are not persisted, so no save follows.
func (m *Manager) AddModalityKeyword(mod models.Modality, keyword string) error {
	m.loadAllMonths()
	return m.tags.AddModalityKeyword(mod, keyword, m.allWorkouts())
}

// AddMuscleKeyword extends a muscle group dictionary and re-tags every
// loaded workout.
func (m *Manager) AddMuscleKeyword(group models.MuscleGroup, keyword string) error {
	return m.tags.AddMuscleKeyword(group, keyword, m.allWorkouts())
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
