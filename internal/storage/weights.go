package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/claude/replog/internal/models"
	_ "modernc.org/sqlite"
)

// WeightDB holds one user's body-weight history in a per-user sqlite file.
// The seq column preserves recording order, which is the display order: the
// history is append-only and deliberately not sorted by date.
type WeightDB struct {
	db  *sql.DB
	log *slog.Logger
}

// WeightHistoryExists reports whether the user has a saved weight history.
// Load on a fresh database cannot tell "never saved" from "empty", so the
// not-found signal comes from the file itself.
func (s *FileStore) WeightHistoryExists(user string) bool {
	_, err := os.Stat(s.WeightDBPath(user))
	return err == nil
}

// OpenWeightDB opens (or creates) a user's weight database.
func (s *FileStore) OpenWeightDB(user string) (*WeightDB, error) {
	if err := os.MkdirAll(s.userDir(user), 0o755); err != nil {
		return nil, fmt.Errorf("creating user dir: %w", err)
	}

	db, err := sql.Open("sqlite", s.WeightDBPath(user))
	if err != nil {
		return nil, fmt.Errorf("opening weight db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS weight_records (
		seq    INTEGER PRIMARY KEY AUTOINCREMENT,
		weight REAL NOT NULL,
		day    TEXT NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating weight table: %w", err)
	}

	return &WeightDB{db: db, log: s.log}, nil
}

// Load returns the full weight history in recording order.
func (w *WeightDB) Load() ([]models.WeightRecord, error) {
	rows, err := w.db.Query(`SELECT weight, day FROM weight_records ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying weight records: %w", err)
	}
	defer rows.Close()

	var records []models.WeightRecord
	for rows.Next() {
		var weight float64
		var day string
		if err := rows.Scan(&weight, &day); err != nil {
			return nil, fmt.Errorf("scanning weight record: %w", err)
		}
		date, err := time.Parse("2006-01-02", day)
		if err != nil {
			// Tolerate a bad row the same way the month decoder does:
			// skip it and report, never fail the whole load.
			w.log.Warn("skipping malformed weight row", "day", day, "error", err)
			continue
		}
		records = append(records, models.WeightRecord{Weight: weight, Date: date})
	}
	return records, rows.Err()
}

// Save replaces the entire history in one transaction.
func (w *WeightDB) Save(records []models.WeightRecord) error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("starting weight save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM weight_records`); err != nil {
		return fmt.Errorf("clearing weight records: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO weight_records (weight, day) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing weight insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(r.Weight, r.Date.Format("2006-01-02")); err != nil {
			return fmt.Errorf("inserting weight record: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing weight save: %w", err)
	}
	return nil
}

// Close closes the weight database.
func (w *WeightDB) Close() error {
	return w.db.Close()
}

// LoadWeightHistory is the not-found-aware load used at session start:
// a user with no weight database gets ErrNotFound rather than an empty,
// silently created history.
func (s *FileStore) LoadWeightHistory(user string) ([]models.WeightRecord, error) {
	if !s.WeightHistoryExists(user) {
		return nil, fmt.Errorf("weight history for %s: %w", user, ErrNotFound)
	}
	db, err := s.OpenWeightDB(user)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return db.Load()
}
