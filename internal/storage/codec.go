package storage

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/claude/replog/internal/models"
)

// Month log line format, one logical record per line:
//
//	USER | Name
//	WORKOUT | Name | Duration
//	EXERCISE | Name | reps,reps,reps
//	END_WORKOUT
//
// Decoding is tolerant: any single malformed line is reported and skipped,
// never aborting the whole load.
const (
	recordUser       = "USER"
	recordWorkout    = "WORKOUT"
	recordExercise   = "EXERCISE"
	recordEndWorkout = "END_WORKOUT"
	fieldSep         = "|"
)

// SkippedLine describes one record the decoder could not use.
type SkippedLine struct {
	LineNo int
	Line   string
	Reason string
}

func (s SkippedLine) String() string {
	return fmt.Sprintf("line %d: %s (%q)", s.LineNo, s.Reason, s.Line)
}

// MonthData is the result of decoding one month log: the recovered collection
// plus diagnostics for every line that had to be skipped.
type MonthData struct {
	Username string
	Workouts []*models.Workout
	Skipped  []SkippedLine
}

// decodeMonth reads a month log. The decoder is a two-state line classifier:
// outside any workout group, or inside the group opened by the last valid
// WORKOUT line. An EXERCISE line outside a group is discarded; a malformed
// WORKOUT line discards its whole group.
func decodeMonth(r io.Reader, username string) MonthData {
	data := MonthData{Username: username}
	var current *models.Workout

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := splitFields(line)
		switch fields[0] {
		case recordUser:
			if len(fields) != 2 || fields[1] == "" {
				data.skip(lineNo, line, "malformed USER entry")
				continue
			}
			data.Username = fields[1]

		case recordWorkout:
			if len(fields) != 3 || fields[1] == "" {
				data.skip(lineNo, line, "malformed workout entry")
				current = nil
				continue
			}
			duration, err := strconv.Atoi(fields[2])
			if err != nil || duration < 0 {
				data.skip(lineNo, line, "invalid workout duration")
				current = nil
				continue
			}
			current = models.RestoredWorkout(fields[1], duration, data.Username)
			data.Workouts = append(data.Workouts, current)

		case recordExercise:
			if current == nil {
				data.skip(lineNo, line, "exercise outside workout group")
				continue
			}
			if len(fields) != 3 || fields[1] == "" {
				data.skip(lineNo, line, "malformed exercise entry")
				continue
			}
			reps, err := parseReps(fields[2])
			if err != nil {
				data.skip(lineNo, line, err.Error())
				continue
			}
			ex := models.NewExercise(fields[1], reps[0])
			for _, r := range reps[1:] {
				ex.AddSet(r)
			}
			current.AddExercise(ex)

		case recordEndWorkout:
			current = nil

		default:
			data.skip(lineNo, line, "unrecognized record")
		}
	}
	return data
}

func (d *MonthData) skip(lineNo int, line, reason string) {
	d.Skipped = append(d.Skipped, SkippedLine{LineNo: lineNo, Line: line, Reason: reason})
}

// splitFields splits a line on the field separator and trims each field.
// The first field is the record type; a mangled type never matches a record
// constant and falls through to the unrecognized case.
func splitFields(line string) []string {
	parts := strings.Split(line, fieldSep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// parseReps parses the comma-joined rep list. Every count must be a positive
// integer; any bad entry rejects the whole line.
func parseReps(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	reps := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid rep count %q", p)
		}
		reps = append(reps, n)
	}
	if len(reps) == 0 {
		return nil, fmt.Errorf("empty rep list")
	}
	return reps, nil
}

// encodeMonth writes the full collection in the line format above, USER
// header first.
func encodeMonth(w io.Writer, username string, workouts []*models.Workout) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s\n", recordUser, fieldSep, username)
	for _, workout := range workouts {
		fmt.Fprintf(&b, "%s %s %s %s %d\n",
			recordWorkout, fieldSep, workout.Name, fieldSep, workout.Duration)
		for _, ex := range workout.Exercises {
			fmt.Fprintf(&b, "%s %s %s %s %s\n",
				recordExercise, fieldSep, ex.Name, fieldSep, ex.SetsString())
		}
		b.WriteString(recordEndWorkout + "\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}
