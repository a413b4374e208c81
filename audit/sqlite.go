package audit

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/phuslu/log"
	_ "modernc.org/sqlite"
)

// Message kinds in the run_messages table.
const (
	kindFailure  = "failure"
	kindDegraded = "degraded"
)

// SQLiteRecorder stores runs in a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the database at path.
func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id          TEXT PRIMARY KEY,
			started_at  INTEGER NOT NULL,
			year        INTEGER NOT NULL,
			allow_fetch INTEGER NOT NULL,
			status      TEXT NOT NULL,
			error       TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,
		`CREATE TABLE IF NOT EXISTS run_rows (
			run_id    TEXT NOT NULL REFERENCES runs(id),
			seq       INTEGER NOT NULL,
			symbol    TEXT NOT NULL,
			vest_date TEXT NOT NULL,
			initial   INTEGER NOT NULL,
			peak      INTEGER NOT NULL,
			closing   INTEGER NOT NULL,
			proceeds  INTEGER NOT NULL,
			PRIMARY KEY (run_id, seq)
		)`,
		`CREATE TABLE IF NOT EXISTS run_messages (
			run_id  TEXT NOT NULL REFERENCES runs(id),
			seq     INTEGER NOT NULL,
			kind    TEXT NOT NULL,
			message TEXT NOT NULL,
			PRIMARY KEY (run_id, seq)
		)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Record stores a run with its rows and messages in a single transaction.
func (r *SQLiteRecorder) Record(ctx context.Context, run *Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, year, allow_fetch, status, error) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.Unix(), run.Year, run.AllowFetch, run.Status, run.Error,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for i, row := range run.Rows {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_rows (run_id, seq, symbol, vest_date, initial, peak, closing, proceeds) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i, row.Symbol, row.VestDate, row.Initial, row.Peak, row.Closing, row.Proceeds,
		); err != nil {
			return fmt.Errorf("insert row: %w", err)
		}
	}
	seq := 0
	insertMessages := func(kind string, msgs []string) error {
		for _, m := range msgs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO run_messages (run_id, seq, kind, message) VALUES (?, ?, ?, ?)`,
				run.ID, seq, kind, m,
			); err != nil {
				return fmt.Errorf("insert message: %w", err)
			}
			seq++
		}
		return nil
	}
	if err := insertMessages(kindFailure, run.Failures); err != nil {
		return err
	}
	if err := insertMessages(kindDegraded, run.Degraded); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	log.Debug().Str("run", run.ID).Str("status", run.Status).Int("rows", len(run.Rows)).Msg("run recorded")
	return nil
}

// History returns the last limit runs, most recent first. limit <= 0 returns all of them.
func (r *SQLiteRecorder) History(ctx context.Context, limit int) ([]Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, started_at, year, allow_fetch, status, error FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	var runs []Run
	for rows.Next() {
		var (
			run     Run
			started int64
		)
		if err := rows.Scan(&run.ID, &started, &run.Year, &run.AllowFetch, &run.Status, &run.Error); err != nil {
			rows.Close()
			return nil, err
		}
		run.StartedAt = time.Unix(started, 0).UTC()
		runs = append(runs, run)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		if err := r.load(ctx, &runs[i]); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// load reads the rows and messages of run.
func (r *SQLiteRecorder) load(ctx context.Context, run *Run) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT symbol, vest_date, initial, peak, closing, proceeds FROM run_rows WHERE run_id = ? ORDER BY seq`, run.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.Symbol, &row.VestDate, &row.Initial, &row.Peak, &row.Closing, &row.Proceeds); err != nil {
			rows.Close()
			return err
		}
		run.Rows = append(run.Rows, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	msgs, err := r.db.QueryContext(ctx,
		`SELECT kind, message FROM run_messages WHERE run_id = ? ORDER BY seq`, run.ID)
	if err != nil {
		return err
	}
	defer msgs.Close()
	for msgs.Next() {
		var kind, msg string
		if err := msgs.Scan(&kind, &msg); err != nil {
			return err
		}
		switch kind {
		case kindFailure:
			run.Failures = append(run.Failures, msg)
		case kindDegraded:
			run.Degraded = append(run.Degraded, msg)
		}
	}
	return msgs.Err()
}

// Close closes the database.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
