// Package history keeps a durable audit log of sweep runs.
//
// Every enforcement pass records what it scanned, kept, and deleted, so an
// operator can answer "what did the rotation do last night" without trawling
// logs. Storage is a single SQLite file in WAL mode.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Run is one recorded sweep pass.
type Run struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Backend    string
	Scanned    int
	Kept       int
	Deleted    int
	Skipped    int
	Errors     int
	DryRun     bool
}

// Log is a SQLite-backed run log.
type Log struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	started_at_ms INTEGER NOT NULL,
	finished_at_ms INTEGER NOT NULL,
	backend TEXT NOT NULL,
	scanned INTEGER NOT NULL,
	kept INTEGER NOT NULL,
	deleted INTEGER NOT NULL,
	skipped INTEGER NOT NULL,
	errors INTEGER NOT NULL,
	dry_run INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_started_at ON runs(started_at_ms);
`

// Open opens (creating if necessary) the run log at path.
func Open(path string) (*Log, error) {
	if path == "" {
		return nil, fmt.Errorf("history: db path cannot be empty")
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		path, int((5 * time.Second).Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: initialize schema: %w", err)
	}

	return &Log{db: db}, nil
}

// Record appends one run.
func (l *Log) Record(ctx context.Context, run Run) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, started_at_ms, finished_at_ms, backend,
			scanned, kept, deleted, skipped, errors, dry_run)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID,
		run.StartedAt.UnixMilli(),
		run.FinishedAt.UnixMilli(),
		run.Backend,
		run.Scanned,
		run.Kept,
		run.Deleted,
		run.Skipped,
		run.Errors,
		boolToInt(run.DryRun),
	)
	if err != nil {
		return fmt.Errorf("history: record run %s: %w", run.RunID, err)
	}
	return nil
}

// Recent returns up to n runs, newest first.
func (l *Log) Recent(ctx context.Context, n int) ([]Run, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT run_id, started_at_ms, finished_at_ms, backend,
			scanned, kept, deleted, skipped, errors, dry_run
		FROM runs ORDER BY started_at_ms DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("history: query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var startedMs, finishedMs int64
		var dryRun int
		if err := rows.Scan(&run.RunID, &startedMs, &finishedMs, &run.Backend,
			&run.Scanned, &run.Kept, &run.Deleted, &run.Skipped, &run.Errors, &dryRun); err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		run.StartedAt = time.UnixMilli(startedMs).UTC()
		run.FinishedAt = time.UnixMilli(finishedMs).UTC()
		run.DryRun = dryRun != 0
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Close closes the underlying database.
func (l *Log) Close() error {
	return l.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
