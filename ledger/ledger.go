// Package ledger records every generated print in a SQLite table, so
// that a G-code file can be traced back to the job that produced it.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Get for an unknown run.
var ErrNotFound = errors.New("ledger: run not found")

// Run is one generated G-code file.
type Run struct {
	ID       string
	Job      string
	Output   string
	Layers   int
	Commands int
	Feed     float64 // total filament fed, mm
	Checksum uint64  // xxhash of the G-code text
	Created  time.Time
}

// Ledger is a table of runs.
//
// It expects an *sql.DB using a SQLite driver, for example
// "modernc.org/sqlite":
//
//	import _ "modernc.org/sqlite"
type Ledger struct {
	db *sql.DB
}

// New creates the schema if needed.
func New(db *sql.DB) (*Ledger, error) {
	l := &Ledger{db: db}
	if err := l.initSchema(); err != nil {
		return nil, fmt.Errorf("ledger: %w", err)
	}
	return l, nil
}

func (l *Ledger) initSchema() error {
	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			job TEXT NOT NULL,
			output TEXT NOT NULL,
			layers INTEGER NOT NULL,
			commands INTEGER NOT NULL,
			feed REAL NOT NULL,
			checksum TEXT NOT NULL,
			created INTEGER NOT NULL
		);`,
	)
	if err != nil {
		return err
	}
	_, err = l.db.Exec(`CREATE INDEX IF NOT EXISTS runs_job ON runs (job, created);`)
	return err
}

// Record stores r. An empty ID is replaced by a new UUID and a zero
// Created time by the current time; the stored run is returned.
func (l *Ledger) Record(ctx context.Context, r Run) (Run, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Created.IsZero() {
		r.Created = time.Now()
	}
	r.Created = r.Created.UTC().Truncate(time.Microsecond)
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO runs (id, job, output, layers, commands, feed, checksum, created)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Job, r.Output, r.Layers, r.Commands, r.Feed,
		strconv.FormatUint(r.Checksum, 16), r.Created.UnixMicro(),
	)
	if err != nil {
		return Run{}, fmt.Errorf("ledger: record %s: %w", r.ID, err)
	}
	return r, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		r       Run
		sum     string
		created int64
	)
	if err := s.Scan(&r.ID, &r.Job, &r.Output, &r.Layers, &r.Commands, &r.Feed, &sum, &created); err != nil {
		return Run{}, err
	}
	cs, err := strconv.ParseUint(sum, 16, 64)
	if err != nil {
		return Run{}, fmt.Errorf("ledger: bad checksum %q for %s: %w", sum, r.ID, err)
	}
	r.Checksum = cs
	r.Created = time.UnixMicro(created).UTC()
	return r, nil
}

const selectRuns = `SELECT id, job, output, layers, commands, feed, checksum, created FROM runs`

// Get returns the run with the given id.
func (l *Ledger) Get(ctx context.Context, id string) (Run, error) {
	r, err := scanRun(l.db.QueryRowContext(ctx, selectRuns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	return r, err
}

// List returns the runs of a job, oldest first. An empty job lists
// every run.
func (l *Ledger) List(ctx context.Context, job string) ([]Run, error) {
	q := selectRuns + ` ORDER BY created, id`
	var args []any
	if job != "" {
		q = selectRuns + ` WHERE job = ? ORDER BY created, id`
		args = append(args, job)
	}
	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Open opens (creating if needed) the SQLite ledger at path. The
// SQLite driver must be registered under the name "sqlite".
func Open(path string) (*Ledger, *sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, err
	}
	l, err := New(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return l, db, nil
}
