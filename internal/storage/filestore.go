// Package storage persists replog state under a single data directory:
//
//	<dataDir>/profile            last-used display name
//	<dataDir>/<user>/<yyyy-mm>.log   one workout collection per calendar month
//	<dataDir>/<user>/weights.db      sqlite weight history
//
// Saves are full-replace writes of an entire collection. Loads either return
// the complete collection, a typed ErrNotFound, or degrade per-record with
// diagnostics; a load never fails the caller on malformed data.
package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/claude/replog/internal/models"
)

// ErrNotFound signals that no data was ever saved for the requested user and
// period. Callers distinguish it from an empty collection and from corrupt
// data, typically by offering to initialize a new period.
var ErrNotFound = errors.New("no saved data")

// FileStore is the durable store for workout collections and the profile.
type FileStore struct {
	dir string
	log *slog.Logger
}

// NewFileStore creates the data directory if needed.
func NewFileStore(dir string, log *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir, log: log}, nil
}

// Dir returns the root data directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) userDir(user string) string {
	return filepath.Join(s.dir, user)
}

func (s *FileStore) monthPath(user string, m models.Month) string {
	return filepath.Join(s.userDir(user), m.String()+".log")
}

// WeightDBPath returns the path of a user's weight database.
func (s *FileStore) WeightDBPath(user string) string {
	return filepath.Join(s.userDir(user), "weights.db")
}

// LoadMonth reads one (user, month) workout collection. A month that was
// never saved returns ErrNotFound. Malformed records inside an existing file
// are skipped and reported through MonthData.Skipped, never as an error.
func (s *FileStore) LoadMonth(user string, m models.Month) (MonthData, error) {
	f, err := os.Open(s.monthPath(user, m))
	if err != nil {
		if os.IsNotExist(err) {
			return MonthData{}, fmt.Errorf("month %s for %s: %w", m, user, ErrNotFound)
		}
		return MonthData{}, fmt.Errorf("opening month log: %w", err)
	}
	defer f.Close()

	data := decodeMonth(f, user)
	for _, skipped := range data.Skipped {
		s.log.Warn("skipping malformed record",
			"user", user, "month", m.String(), "line", skipped.LineNo, "reason", skipped.Reason)
	}
	return data, nil
}

// SaveMonth replaces one (user, month) collection on disk with the given
// workouts. The write goes through a temp file and rename so a failed save
// never truncates the previous contents.
func (s *FileStore) SaveMonth(user string, m models.Month, workouts []*models.Workout) error {
	if err := os.MkdirAll(s.userDir(user), 0o755); err != nil {
		return fmt.Errorf("creating user dir: %w", err)
	}

	path := s.monthPath(user, m)
	tmp, err := os.CreateTemp(s.userDir(user), m.String()+".log.tmp*")
	if err != nil {
		return fmt.Errorf("creating temp month log: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := encodeMonth(tmp, user, workouts); err != nil {
		tmp.Close()
		return fmt.Errorf("writing month log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing month log: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing month log: %w", err)
	}
	return nil
}

// Months lists the saved month partitions for a user, oldest first.
func (s *FileStore) Months(user string) ([]models.Month, error) {
	entries, err := os.ReadDir(s.userDir(user))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("user %s: %w", user, ErrNotFound)
		}
		return nil, fmt.Errorf("listing months: %w", err)
	}

	var months []models.Month
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".log") {
			continue
		}
		m, err := models.ParseMonth(strings.TrimSuffix(name, ".log"))
		if err != nil {
			continue
		}
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool {
		if months[i].Year != months[j].Year {
			return months[i].Year < months[j].Year
		}
		return months[i].Mon < months[j].Mon
	})
	return months, nil
}

// LoadLastUser reads the profile file holding the last-used display name.
func (s *FileStore) LoadLastUser() (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, "profile"))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("profile: %w", ErrNotFound)
		}
		return "", fmt.Errorf("reading profile: %w", err)
	}
	name := strings.TrimSpace(string(data))
	if name == "" {
		return "", fmt.Errorf("profile: %w", ErrNotFound)
	}
	return name, nil
}

// SaveLastUser records the display name to greet with next session.
func (s *FileStore) SaveLastUser(name string) error {
	if err := os.WriteFile(filepath.Join(s.dir, "profile"), []byte(name+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing profile: %w", err)
	}
	return nil
}
