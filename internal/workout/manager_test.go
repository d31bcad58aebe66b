package workout

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude/replog/internal/config"
	"github.com/claude/replog/internal/models"
	"github.com/claude/replog/internal/storage"
	"github.com/claude/replog/internal/tagger"
)

// fakeStore keeps month collections in memory and can be switched into a
// failing mode to exercise the save-degradation path.
type fakeStore struct {
	months  map[string][]*models.Workout
	saves   int
	saveErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{months: make(map[string][]*models.Workout)}
}

func (f *fakeStore) key(user string, m models.Month) string {
	return user + "/" + m.String()
}

func (f *fakeStore) LoadMonth(user string, m models.Month) (storage.MonthData, error) {
	ws, ok := f.months[f.key(user, m)]
	if !ok {
		return storage.MonthData{}, fmt.Errorf("month %s: %w", m, storage.ErrNotFound)
	}
	return storage.MonthData{Username: user, Workouts: ws}, nil
}

func (f *fakeStore) SaveMonth(user string, m models.Month, workouts []*models.Workout) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.months[f.key(user, m)] = append([]*models.Workout(nil), workouts...)
	return nil
}

func (f *fakeStore) Months(user string) ([]models.Month, error) {
	var months []models.Month
	for key := range f.months {
		rest, ok := strings.CutPrefix(key, user+"/")
		if !ok {
			continue
		}
		m, err := models.ParseMonth(rest)
		if err != nil {
			continue
		}
		months = append(months, m)
	}
	if len(months) == 0 {
		return nil, fmt.Errorf("user %s: %w", user, storage.ErrNotFound)
	}
	sort.Slice(months, func(i, j int) bool {
		if months[i].Year != months[j].Year {
			return months[i].Year < months[j].Year
		}
		return months[i].Mon < months[j].Mon
	})
	return months, nil
}

var testNow = time.Date(2026, 9, 15, 9, 30, 0, 0, time.Local)

func newTestManager(t *testing.T, store Store) *Manager {
	t.Helper()
	tags := tagger.New(config.TagsConfig{
		Modalities: map[string][]string{
			"CARDIO":   {"run"},
			"STRENGTH": {"squat", "bench"},
		},
		MuscleGroups: map[string][]string{
			"LEGS":  {"leg", "squat"},
			"CHEST": {"bench"},
		},
	})
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := NewManager(store, tags, "tester", log)
	m.clock = func() time.Time { return testNow }
	m.SetMonth(models.MonthOf(testNow), nil)
	return m
}

func TestCreateWorkoutDefaultsToNow(t *testing.T) {
	m := newTestManager(t, newFakeStore())

	res, err := m.CreateWorkout("Leg Day", "", "")
	require.NoError(t, err)
	assert.True(t, res.DefaultedDate)
	assert.True(t, res.DefaultedTime)
	assert.Equal(t, testNow, res.Workout.StartTime)
	assert.Same(t, res.Workout, m.CurrentWorkout())
	assert.Contains(t, res.Workout.AutoTags, "LEGS")
}

func TestCreateWorkoutExplicitMoment(t *testing.T) {
	m := newTestManager(t, newFakeStore())

	res, err := m.CreateWorkout("Swim", "22/10/25", "0745")
	require.NoError(t, err)
	assert.False(t, res.DefaultedDate)
	assert.False(t, res.DefaultedTime)
	want := time.Date(2025, 10, 22, 7, 45, 0, 0, time.Local)
	assert.Equal(t, want, res.Workout.StartTime)
}

func TestCreateWorkoutFilesUnderStartMonth(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(t, store)

	// Back-dated workout lands in its own month; the active view stays put.
	_, err := m.CreateWorkout("Old Run", "03/07/26", "1800")
	require.NoError(t, err)

	assert.Equal(t, models.MonthOf(testNow), m.ActiveMonth())
	assert.Empty(t, m.Workouts())
	assert.Len(t, store.months["tester/2026-07"], 1)
}

func TestCreateWorkoutRejectsBadInput(t *testing.T) {
	m := newTestManager(t, newFakeStore())

	_, err := m.CreateWorkout("  ", "", "")
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = m.CreateWorkout("X", "2026-09-15", "")
	assert.Error(t, err)
	_, err = m.CreateWorkout("X", "", "9:30")
	assert.Error(t, err)
	assert.Nil(t, m.CurrentWorkout(), "nothing created on a parse failure")
}

func TestCreateLeavesPreviousWorkoutOpen(t *testing.T) {
	m := newTestManager(t, newFakeStore())

	first, err := m.CreateWorkout("First", "", "")
	require.NoError(t, err)
	second, err := m.CreateWorkout("Second", "", "")
	require.NoError(t, err)

	assert.Same(t, second.Workout, m.CurrentWorkout())
	assert.False(t, first.Workout.Closed, "displaced workout stays open")
	assert.Len(t, m.Workouts(), 2)
}

// TestSessionLifecycle walks the create → exercise → set → end path and
// checks the derived duration.
func TestSessionLifecycle(t *testing.T) {
	m := newTestManager(t, newFakeStore())

	res, err := m.CreateWorkout("Leg Day", "", "")
	require.NoError(t, err)

	ex, err := m.AddExercise("Squat", 10)
	require.NoError(t, err)
	require.NoError(t, m.AddSet(8))
	assert.Equal(t, "10,8", ex.SetsString())

	end := testNow.Add(45 * time.Minute)
	endRes, err := m.EndWorkout(end.Format("02/01/06"), end.Format("1504"))
	require.NoError(t, err)

	assert.Equal(t, 45, endRes.Workout.Duration)
	assert.True(t, endRes.Workout.Closed)
	assert.Nil(t, m.CurrentWorkout())
	assert.Same(t, res.Workout, endRes.Workout)
}

func TestEndBeforeStartIsRetryable(t *testing.T) {
	m := newTestManager(t, newFakeStore())

	_, err := m.CreateWorkout("Run", "", "1000")
	require.NoError(t, err)

	_, err = m.EndWorkout("", "0930")
	require.ErrorIs(t, err, models.ErrEndBeforeStart)
	require.NotNil(t, m.CurrentWorkout(), "workout stays open after a bad end")

	res, err := m.EndWorkout("", "1100")
	require.NoError(t, err)
	assert.Equal(t, 60, res.Workout.Duration)
}

func TestIdleStateRejectsSessionOps(t *testing.T) {
	m := newTestManager(t, newFakeStore())

	_, err := m.AddExercise("Squat", 10)
	assert.ErrorIs(t, err, ErrNoOpenWorkout)
	assert.ErrorIs(t, m.AddSet(10), ErrNoOpenWorkout)
	_, err = m.EndWorkout("", "")
	assert.ErrorIs(t, err, ErrNoOpenWorkout)
}

func TestRepValidation(t *testing.T) {
	m := newTestManager(t, newFakeStore())
	_, err := m.CreateWorkout("Push Day", "", "")
	require.NoError(t, err)

	_, err = m.AddExercise("Bench", 0)
	assert.ErrorIs(t, err, ErrBadReps)
	assert.ErrorIs(t, m.AddSet(5), ErrNoExercise)

	_, err = m.AddExercise("Bench", 10)
	require.NoError(t, err)
	assert.ErrorIs(t, m.AddSet(-3), ErrBadReps)
}

func TestDeleteByIndex(t *testing.T) {
	m := newTestManager(t, newFakeStore())
	_, err := m.CreateWorkout("A", "", "")
	require.NoError(t, err)
	_, err = m.CreateWorkout("B", "", "")
	require.NoError(t, err)

	_, err = m.DeleteByIndex(0)
	assert.ErrorIs(t, err, ErrBadIndex)
	_, err = m.DeleteByIndex(3)
	assert.ErrorIs(t, err, ErrBadIndex)

	w, err := m.DeleteByIndex(1)
	require.NoError(t, err)
	assert.Equal(t, "A", w.Name)
	require.Len(t, m.Workouts(), 1)
	assert.Equal(t, "B", m.Workouts()[0].Name)
}

func TestDeleteCurrentClearsCursor(t *testing.T) {
	m := newTestManager(t, newFakeStore())
	_, err := m.CreateWorkout("Solo", "", "")
	require.NoError(t, err)

	_, err = m.DeleteByIndex(1)
	require.NoError(t, err)
	assert.Nil(t, m.CurrentWorkout())
}

func TestPrepareAndConfirmDelete(t *testing.T) {
	m := newTestManager(t, newFakeStore())
	_, err := m.CreateWorkout("Run", "10/09/26", "0700")
	require.NoError(t, err)
	_, err = m.CreateWorkout("Run", "12/09/26", "0700")
	require.NoError(t, err)
	_, err = m.CreateWorkout("Swim", "12/09/26", "0800")
	require.NoError(t, err)

	byName, err := m.PrepareDelete("Run")
	require.NoError(t, err)
	assert.Len(t, byName.Candidates, 2)

	byDate, err := m.PrepareDelete("d/12/09/26")
	require.NoError(t, err)
	assert.Len(t, byDate.Candidates, 2)

	_, err = m.PrepareDelete("Yoga")
	assert.ErrorIs(t, err, ErrNoMatch)
	_, err = m.PrepareDelete("d/12-09-26")
	assert.Error(t, err)

	require.NoError(t, m.ConfirmDelete(byName.Candidates[0].ID))
	assert.Len(t, m.Workouts(), 2)

	// The token is single-use: the workout is gone.
	assert.ErrorIs(t, m.ConfirmDelete(byName.Candidates[0].ID), ErrNoMatch)
}

func TestOverrideTagsReportsContradictions(t *testing.T) {
	m := newTestManager(t, newFakeStore())
	res, err := m.CreateWorkout("Squat Session", "", "")
	require.NoError(t, err)
	require.Contains(t, res.Workout.AutoTags, "STRENGTH")
	require.Contains(t, res.Workout.AutoTags, "LEGS")

	overridden, err := m.OverrideTags(res.Workout, "cardio legs")
	require.NoError(t, err)
	assert.Equal(t, []string{"STRENGTH"}, overridden)
	assert.Equal(t, []string{"CARDIO", "LEGS"}, res.Workout.DisplayTags())

	_, err = m.OverrideTags(res.Workout, "   ")
	assert.ErrorIs(t, err, ErrEmptyTag)
}

func TestSaveFailureKeepsMutation(t *testing.T) {
	store := newFakeStore()
	store.saveErr = errors.New("disk full")
	m := newTestManager(t, store)

	res, err := m.CreateWorkout("Run", "", "")
	require.Error(t, err)

	var saveErr *SaveError
	require.ErrorAs(t, err, &saveErr)
	assert.ErrorIs(t, err, store.saveErr)

	// The mutation survived in memory despite the failed save.
	require.Len(t, m.Workouts(), 1)
	assert.Same(t, res.Workout, m.Workouts()[0])
	assert.Same(t, res.Workout, m.CurrentWorkout())
}

func TestAddModalityKeywordConflictThroughManager(t *testing.T) {
	m := newTestManager(t, newFakeStore())
	_, err := m.CreateWorkout("Squat Session", "", "")
	require.NoError(t, err)

	// "squat" already resolves to STRENGTH for the loaded workout.
	err = m.AddModalityKeyword(models.ModalityCardio, "squat session")
	var conflict *tagger.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Len(t, conflict.Conflicts, 1)
}

// TestAddModalityKeywordScansSavedMonths verifies the conflict scan covers
// months that were never touched this session, not just the loaded index.
func TestAddModalityKeywordScansSavedMonths(t *testing.T) {
	store := newFakeStore()
	store.months["tester/2026-03"] = []*models.Workout{
		models.RestoredWorkout("Squat Morning", 40, "tester"),
	}
	m := newTestManager(t, store)

	// "morning" matches the saved March workout, which already resolves to
	// STRENGTH through "squat".
	err := m.AddModalityKeyword(models.ModalityCardio, "morning")
	var conflict *tagger.ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Len(t, conflict.Conflicts, 1)
	assert.Equal(t, "Squat Morning", conflict.Conflicts[0].Workout.Name)
}

func TestAddMuscleKeywordRetags(t *testing.T) {
	m := newTestManager(t, newFakeStore())
	res, err := m.CreateWorkout("Rowing Intervals", "", "")
	require.NoError(t, err)
	require.NotContains(t, res.Workout.AutoTags, "BACK")

	require.NoError(t, m.AddMuscleKeyword(models.MuscleBack, "rowing"))
	assert.Contains(t, res.Workout.AutoTags, "BACK")
}

func TestSaveActiveMonth(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(t, store)
	_, err := m.CreateWorkout("Run", "", "")
	require.NoError(t, err)

	saves := store.saves
	require.NoError(t, m.SaveActiveMonth())
	assert.Equal(t, saves+1, store.saves)
}
