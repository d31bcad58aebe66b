package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/claude/replog/internal/config"
	"github.com/claude/replog/internal/models"
	"github.com/claude/replog/internal/storage"
	"github.com/claude/replog/internal/tagger"
	"github.com/claude/replog/internal/workout"
)

// App wires one interactive session: a command loop over the workout manager,
// view log, and weight log for the active user. Commands are processed one at
// a time; a blocking confirmation finishes before the next command is read.
type App struct {
	cfg   *config.Config
	store *storage.FileStore
	tags  *tagger.Tagger
	log   *slog.Logger

	ui      *ConsoleUI
	mgr     *workout.Manager
	view    *workout.ViewLog
	weights *workout.WeightLog

	weightDB *storage.WeightDB
}

// New builds the app. The session itself starts inside Run, where the
// not-found decisions can prompt the user.
func New(cfg *config.Config, store *storage.FileStore, tags *tagger.Tagger, ui *ConsoleUI, log *slog.Logger) *App {
	return &App{cfg: cfg, store: store, tags: tags, ui: ui, log: log}
}

// Run loads the last-used profile, starts the session, and processes commands
// until /exit or end of input. The final save of the active month happens
// here, never implicitly in teardown.
func (a *App) Run() error {
	user, err := a.store.LoadLastUser()
	if errors.Is(err, storage.ErrNotFound) {
		user = a.cfg.DefaultUser
	} else if err != nil {
		a.ui.ShowError(err.Error())
		user = a.cfg.DefaultUser
	}

	if err := a.startSession(user); err != nil {
		return err
	}
	defer func() {
		if a.weightDB != nil {
			a.weightDB.Close()
		}
	}()

	a.ui.Show(fmt.Sprintf("Welcome to replog, %s! Type /help for commands.", a.mgr.User()))

	for {
		a.ui.Prompt()
		input, ok := a.ui.ReadLine()
		if !ok {
			break
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		parts := strings.SplitN(input, " ", 2)
		verb := strings.ToLower(parts[0])
		argStr := ""
		if len(parts) > 1 {
			argStr = strings.TrimSpace(parts[1])
		}

		if verb == "/exit" {
			break
		}
		a.dispatch(verb, argStr)
		a.ui.Divider()
	}

	a.ui.Show("Saving your progress...")
	if err := a.mgr.SaveActiveMonth(); err != nil {
		a.ui.ShowError(err.Error())
	}
	a.ui.Show("Bye! Keep chasing those reps.")
	return nil
}

// startSession switches the app to a user: a fresh manager (the cursors are
// per-session state), the user's current month, and their weight history.
func (a *App) startSession(user string) error {
	month := models.CurrentMonth()
	mgr := workout.NewManager(a.store, a.tags, user, a.log)

	data, err := a.store.LoadMonth(user, month)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		a.ui.Show(fmt.Sprintf("Seems like %s is a new month for %s!", month, user))
		if a.ui.Confirm("Create new workouts for this month? (Y/N)") {
			if err := a.store.SaveMonth(user, month, nil); err != nil {
				a.ui.ShowError(err.Error())
			}
		}
		mgr.SetMonth(month, nil)
	case err != nil:
		// Unreadable data degrades to an empty collection, never a dead end.
		a.ui.ShowError(fmt.Sprintf("could not read %s for %s: %v; starting empty", month, user, err))
		mgr.SetMonth(month, nil)
	default:
		for _, skipped := range data.Skipped {
			a.ui.Show("Skipping malformed entry: " + skipped.String())
		}
		a.tags.Retag(data.Workouts)
		mgr.SetMonth(month, data.Workouts)
		a.ui.Show(fmt.Sprintf("Loaded %d workout(s) for %s (%s).", len(data.Workouts), user, month))
	}

	if a.weightDB != nil {
		a.weightDB.Close()
		a.weightDB = nil
	}
	hadHistory := a.store.WeightHistoryExists(user)
	wdb, err := a.store.OpenWeightDB(user)
	if err != nil {
		return fmt.Errorf("opening weight history: %w", err)
	}
	records, err := wdb.Load()
	if err != nil {
		a.ui.ShowError(fmt.Sprintf("could not read weight history: %v; starting empty", err))
		records = nil
	}
	if !hadHistory {
		a.ui.Show("No weight history for " + user + " yet.")
	}

	a.weightDB = wdb
	a.mgr = mgr
	a.view = workout.NewViewLog(mgr)
	a.weights = workout.NewWeightLog(wdb, records)

	if err := a.store.SaveLastUser(user); err != nil {
		a.ui.ShowError(err.Error())
	}
	return nil
}

func (a *App) dispatch(verb, argStr string) {
	switch verb {
	case "/help":
		a.showHelp()
	case "/my_name":
		a.handleMyName(argStr)
	case "/create_workout":
		a.handleCreate(argStr)
	case "/add_exercise":
		a.handleAddExercise(argStr)
	case "/add_set":
		a.handleAddSet(argStr)
	case "/end_workout":
		a.handleEnd(argStr)
	case "/del_workout":
		a.handleDelete(argStr)
	case "/tag":
		a.handleTag(argStr)
	case "/add_modality_keyword":
		a.handleModalityKeyword(argStr)
	case "/add_muscle_keyword":
		a.handleMuscleKeyword(argStr)
	case "/view_log", "vl":
		a.handleViewLog(argStr)
	case "/open":
		a.handleOpen(argStr)
	case "/add_weight":
		a.handleAddWeight(argStr)
	case "/view_weight":
		a.handleViewWeight()
	default:
		a.ui.ShowError("unknown command " + verb + ", try /help")
	}
}

// report routes an operation's error to the right channel: a SaveError means
// the mutation applied but persisting failed (warn and continue), anything
// else failed the operation. Returns true when the operation itself went
// through.
func (a *App) report(err error) bool {
	if err == nil {
		return true
	}
	var saveErr *workout.SaveError
	if errors.As(err, &saveErr) {
		a.ui.Show("Warning: " + saveErr.Error())
		return true
	}
	a.ui.ShowError(err.Error())
	return false
}

func (a *App) handleMyName(argStr string) {
	name := ParseArgs(argStr).Get("n")
	if name == "" {
		a.ui.Show("Usage: /my_name n/YourName")
		return
	}
	if err := a.startSession(name); err != nil {
		a.ui.ShowError(err.Error())
		return
	}
	a.ui.Show("Switched to user: " + name)
}

func (a *App) handleCreate(argStr string) {
	args := ParseArgs(argStr)
	if args.Get("n") == "" {
		a.ui.Show("Usage: /create_workout n/NAME [d/DD/MM/YY] [t/HHmm]")
		return
	}

	res, err := a.mgr.CreateWorkout(args.Get("n"), args.Get("d"), args.Get("t"))
	if !a.report(err) {
		return
	}
	if res.DefaultedDate {
		a.ui.Show("No date given, using today.")
	}
	if res.DefaultedTime {
		a.ui.Show("No time given, using the current time.")
	}
	a.ui.Show(fmt.Sprintf("Workout %q started at %s.",
		res.Workout.Name, res.Workout.StartTime.Format("02/01/06 15:04")))
}

func (a *App) handleAddExercise(argStr string) {
	args := ParseArgs(argStr)
	name := args.Get("n")
	reps, err := strconv.Atoi(args.Get("r"))
	if name == "" || err != nil {
		a.ui.Show("Usage: /add_exercise n/NAME r/REPS")
		return
	}

	ex, err := a.mgr.AddExercise(name, reps)
	if !a.report(err) {
		return
	}
	a.ui.Show(fmt.Sprintf("Added %q with %d reps.", ex.Name, reps))
}

func (a *App) handleAddSet(argStr string) {
	reps, err := strconv.Atoi(ParseArgs(argStr).Get("r"))
	if err != nil {
		a.ui.Show("Usage: /add_set r/REPS")
		return
	}

	if !a.report(a.mgr.AddSet(reps)) {
		return
	}
	a.ui.Show(fmt.Sprintf("Added a set of %d reps.", reps))
}

func (a *App) handleEnd(argStr string) {
	args := ParseArgs(argStr)
	res, err := a.mgr.EndWorkout(args.Get("d"), args.Get("t"))
	if errors.Is(err, models.ErrEndBeforeStart) {
		a.ui.ShowError(err.Error() + "; the workout is still open, try again")
		return
	}
	if !a.report(err) {
		return
	}
	if res.DefaultedDate {
		a.ui.Show("No end date given, using today.")
	}
	if res.DefaultedTime {
		a.ui.Show("No end time given, using the current time.")
	}
	a.ui.Show(fmt.Sprintf("Workout %q wrapped: %d minute(s).", res.Workout.Name, res.Workout.Duration))
}

func (a *App) handleDelete(argStr string) {
	if argStr == "" {
		a.ui.Show("Usage: /del_workout NAME | /del_workout d/DD/MM/YY | /del_workout INDEX")
		return
	}

	// A bare number deletes by display index, directly and without
	// confirmation.
	if n, err := strconv.Atoi(argStr); err == nil {
		w, err := a.mgr.DeleteByIndex(n)
		if !a.report(err) {
			return
		}
		a.ui.Show(fmt.Sprintf("Deleted %q.", w.Name))
		return
	}

	req, err := a.mgr.PrepareDelete(argStr)
	if !a.report(err) {
		return
	}

	if len(req.Candidates) == 1 {
		w := req.Candidates[0]
		if !a.report(a.mgr.ConfirmDelete(w.ID)) {
			return
		}
		a.ui.Show(fmt.Sprintf("Deleted %q.", w.Name))
		return
	}

	// Multiple matches: one blocking yes/no prompt per candidate. Answering
	// no simply skips that workout.
	for _, w := range req.Candidates {
		prompt := fmt.Sprintf("Delete %q (%s)? (Y/N)", w.Name, w.DateString())
		if !a.ui.Confirm(prompt) {
			continue
		}
		if a.report(a.mgr.ConfirmDelete(w.ID)) {
			a.ui.Show(fmt.Sprintf("Deleted %q.", w.Name))
		}
	}
}

func (a *App) handleTag(argStr string) {
	args := ParseArgs(argStr)
	id, err := strconv.Atoi(args.Get("id"))
	if err != nil || args.Get("t") == "" {
		a.ui.Show("Usage: /tag id/WORKOUT_ID t/TAG [TAG...]")
		return
	}

	w, err := a.view.WorkoutByDisplayID(id)
	if !a.report(err) {
		return
	}

	overridden, err := a.mgr.OverrideTags(w, args.Get("t"))
	if !a.report(err) {
		return
	}
	if len(overridden) > 0 {
		a.ui.Show("Note: overriding auto tags: " + strings.Join(overridden, " "))
	}
	a.ui.Show(fmt.Sprintf("Tags for %q set to: %s", w.Name, strings.Join(w.DisplayTags(), " ")))
}

func (a *App) handleModalityKeyword(argStr string) {
	args := ParseArgs(argStr)
	mod, err := models.ParseModality(args.Get("m"))
	if err != nil || args.Get("k") == "" {
		a.ui.Show("Usage: /add_modality_keyword m/MODALITY k/KEYWORD")
		if err != nil && args.Get("m") != "" {
			a.ui.ShowError(err.Error())
		}
		return
	}

	err = a.mgr.AddModalityKeyword(mod, args.Get("k"))
	var conflict *tagger.ConflictError
	if errors.As(err, &conflict) {
		a.ui.ShowError("keyword rejected: it would contradict existing workouts:")
		for _, c := range conflict.Conflicts {
			a.ui.Show(fmt.Sprintf("  %q is already tagged %s", c.Workout.Name, c.Resolved))
		}
		return
	}
	if !a.report(err) {
		return
	}
	a.ui.Show(fmt.Sprintf("Keyword %q added to %s.", strings.ToLower(args.Get("k")), mod))
}

func (a *App) handleMuscleKeyword(argStr string) {
	args := ParseArgs(argStr)
	group, err := models.ParseMuscleGroup(args.Get("g"))
	if err != nil || args.Get("k") == "" {
		a.ui.Show("Usage: /add_muscle_keyword g/MUSCLE_GROUP k/KEYWORD")
		if err != nil && args.Get("g") != "" {
			a.ui.ShowError(err.Error())
		}
		return
	}

	if !a.report(a.mgr.AddMuscleKeyword(group, args.Get("k"))) {
		return
	}
	a.ui.Show(fmt.Sprintf("Keyword %q added to %s.", strings.ToLower(args.Get("k")), group))
}

func (a *App) handleViewLog(argStr string) {
	lines, err := a.view.Render(argStr)
	if !a.report(err) {
		return
	}
	for _, line := range lines {
		a.ui.Show(line)
	}
}

func (a *App) handleOpen(argStr string) {
	n, err := strconv.Atoi(strings.TrimSpace(argStr))
	if err != nil {
		a.ui.Show("Usage: /open WORKOUT_ID")
		return
	}

	lines, err := a.view.OpenByIndex(n)
	if !a.report(err) {
		return
	}
	for _, line := range lines {
		a.ui.Show(line)
	}
}

func (a *App) handleAddWeight(argStr string) {
	args := ParseArgs(argStr)
	weight, err := strconv.ParseFloat(args.Get("w"), 64)
	if err != nil {
		a.ui.Show("Usage: /add_weight w/WEIGHT_KG [d/DD/MM/YY]")
		return
	}

	rec, err := a.weights.Add(weight, args.Get("d"))
	if !a.report(err) {
		return
	}
	a.ui.Show("Logged: " + rec.String())
}

func (a *App) handleViewWeight() {
	records := a.weights.Records()
	if len(records) == 0 {
		a.ui.Show("No weight history recorded yet.")
		return
	}
	for _, rec := range records {
		a.ui.Show(rec.String())
	}
}

func (a *App) showHelp() {
	for _, line := range []string{
		"Commands:",
		"  /create_workout n/NAME [d/DD/MM/YY] [t/HHmm]   start a workout",
		"  /add_exercise n/NAME r/REPS                    add an exercise to the open workout",
		"  /add_set r/REPS                                add a set to the latest exercise",
		"  /end_workout [d/DD/MM/YY] [t/HHmm]             close the open workout",
		"  /view_log [d/DD/MM/YY]                         list this month's workouts",
		"  /open WORKOUT_ID                               show one workout in detail",
		"  /del_workout NAME | d/DD/MM/YY | INDEX         delete workouts",
		"  /tag id/WORKOUT_ID t/TAG [TAG...]              override a workout's tags",
		"  /add_modality_keyword m/MODALITY k/KEYWORD     teach the tagger a modality keyword",
		"  /add_muscle_keyword g/GROUP k/KEYWORD          teach the tagger a muscle keyword",
		"  /add_weight w/WEIGHT_KG [d/DD/MM/YY]           log a body-weight measurement",
		"  /view_weight                                   show the weight history",
		"  /my_name n/NAME                                switch user",
		"  /exit                                          save and quit",
	} {
		a.ui.Show(line)
	}
}
