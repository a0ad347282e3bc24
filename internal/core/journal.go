package core

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Journal is an append-only sqlite log of relocation runs. It is never read
// back by the relocation operations themselves.
type Journal struct {
	db *sql.DB
}

// Run identifies one command invocation recorded in the journal.
type Run struct {
	ID      string
	Command string
	Source  string
	Target  string
	Started time.Time
}

// NewRun returns a Run with a fresh id, started now.
func NewRun(command, source, target string) Run {
	return Run{
		ID:      uuid.NewString(),
		Command: command,
		Source:  source,
		Target:  target,
		Started: time.Now(),
	}
}

// RunSummary is one row of Journal.Recent.
type RunSummary struct {
	Run
	Copied    int
	Removed   int
	Rewritten int
	Problems  int
}

const (
	entryCopy    = "copy"
	entryRemove  = "remove"
	entryRewrite = "rewrite"
)

// OpenJournal opens (creating if needed) the journal database at path.
func OpenJournal(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, err
	}
	if err := initJournalSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal %s: %w", path, err)
	}
	return &Journal{db: db}, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

func initJournalSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id         TEXT PRIMARY KEY,
			command    TEXT NOT NULL,
			source     TEXT NOT NULL,
			target     TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			problems   INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS entries (
			id       INTEGER PRIMARY KEY,
			run_id   TEXT NOT NULL,
			kind     TEXT NOT NULL,
			file     TEXT NOT NULL,
			old      TEXT,
			new      TEXT,
			FOREIGN KEY(run_id) REFERENCES runs(id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_entries_run ON entries(run_id);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Record stores run and everything result reports in one transaction.
func (j *Journal) Record(run Run, result *Result) error {
	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO runs (id, command, source, target, started_at, problems) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Command, run.Source, run.Target, run.Started.Unix(), len(result.Problems),
	); err != nil {
		return err
	}

	insert := func(kind, file, oldVal, newVal string) error {
		_, err := tx.Exec(
			`INSERT INTO entries (run_id, kind, file, old, new) VALUES (?, ?, ?, ?, ?)`,
			run.ID, kind, file, oldVal, newVal,
		)
		return err
	}
	for _, c := range result.Copied {
		if err := insert(entryCopy, c.From, c.From, c.To); err != nil {
			return err
		}
	}
	for _, r := range result.Removed {
		if err := insert(entryRemove, r, r, ""); err != nil {
			return err
		}
	}
	for _, rw := range result.Rewritten {
		if err := insert(entryRewrite, rw.File, rw.OldLink, rw.NewLink); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Recent returns the latest runs, newest first, with per-kind entry counts.
func (j *Journal) Recent(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.Query(
		`SELECT r.id, r.command, r.source, r.target, r.started_at, r.problems,
		        COALESCE(SUM(e.kind = 'copy'), 0),
		        COALESCE(SUM(e.kind = 'remove'), 0),
		        COALESCE(SUM(e.kind = 'rewrite'), 0)
		 FROM runs r LEFT JOIN entries e ON e.run_id = r.id
		 GROUP BY r.id
		 ORDER BY r.started_at DESC, r.rowid DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		var started int64
		if err := rows.Scan(&s.ID, &s.Command, &s.Source, &s.Target, &started, &s.Problems,
			&s.Copied, &s.Removed, &s.Rewritten); err != nil {
			return nil, err
		}
		s.Started = time.Unix(started, 0)
		out = append(out, s)
	}
	return out, rows.Err()
}
