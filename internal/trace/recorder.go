// Package trace records every message the scheduler dispatches into a
// sqlite database, so a run can be replayed or diffed after the fact - the
// cycle-accurate analog of a transaction log. It opens the database with
// go-sqlite3 and applies its embedded schema with golang-migrate.
package trace

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	sqlite_migrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/httpfs"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/phire/bus-mu-sub000/internal/baselib/actor"
)

// Recorder appends one row per dispatched message to a sqlite database
// under a single run ID, generated fresh each time NewRecorder is called.
type Recorder struct {
	db    *sql.DB
	runID string
	seq   int64
}

// NewRecorder opens (creating if necessary) the sqlite database at path,
// applies pending migrations, and starts a new run. pifImage is recorded
// alongside the run for later identification; it may be empty.
func NewRecorder(path, pifImage string) (*Recorder, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("trace: creating directory for %q: %w", path, err)
		}
	}

	dsn := fmt.Sprintf(
		"file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", path,
	)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("trace: opening %q: %w", path, err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("trace: migrating %q: %w", path, err)
	}

	runID := uuid.NewString()
	if _, err := db.Exec(
		`INSERT INTO runs (id, started_at, pif_image) VALUES (?, ?, ?)`,
		runID, time.Now().Unix(), pifImage,
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("trace: recording run start: %w", err)
	}

	return &Recorder{db: db, runID: runID}, nil
}

func applyMigrations(db *sql.DB) error {
	driver, err := sqlite_migrate.WithInstance(db, &sqlite_migrate.Config{})
	if err != nil {
		return err
	}

	src, err := httpfs.New(http.FS(sqlSchemas), "migrations")
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("migrations", src, "trace", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

// RunID returns the UUID identifying this recorder's run.
func (r *Recorder) RunID() string {
	return r.runID
}

// RecordDispatch appends one row describing a single Scheduler.Step result.
func (r *Recorder) RecordDispatch(cycle actor.Time, id actor.ID, result actor.SchedulerResult) error {
	r.seq++
	_, err := r.db.ExecContext(context.Background(),
		`INSERT INTO dispatch_events
			(run_id, seq, cycle_time, actor_id, actor_name, exit, exit_reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.runID, r.seq, uint64(cycle), int(id), id.String(),
		boolToInt(result.IsExit()), result.Reason(),
	)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Close closes the underlying database handle.
func (r *Recorder) Close() error {
	return r.db.Close()
}
