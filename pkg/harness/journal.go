package harness

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Launch outcomes recorded in the journal, matching the error taxonomy of
// Session.Run.
const (
	OutcomeOK           = "ok"
	OutcomeStepFailure  = "step-failure"
	OutcomeAbnormalExit = "abnormal-exit"
	OutcomeLaunchError  = "launch-error"
)

const createSessionsTable = `CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	label TEXT NOT NULL,
	dir TEXT NOT NULL,
	port INTEGER NOT NULL,
	created_at TEXT NOT NULL
)`

const createLaunchesTable = `CREATE TABLE IF NOT EXISTS launches (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL REFERENCES sessions(id),
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	exit_code INTEGER NOT NULL,
	outcome TEXT NOT NULL
)`

// Journal is the SQLite record of sessions and their launches. It is
// observability state: Session treats every journal failure as non-fatal
// so bookkeeping can never gate the protocol.
type Journal struct {
	db *sql.DB
}

// OpenJournal opens (creating if needed) the journal database at path and
// enforces production-safe defaults: WAL journal mode and a 5-second busy
// timeout. It pings the connection before returning.
func OpenJournal(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	ctx := context.Background()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode on %s: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout on %s: %w", path, err)
	}

	for _, stmt := range []string{createSessionsTable, createLaunchesTable} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create journal schema in %s: %w", path, err)
		}
	}

	return &Journal{db: db}, nil
}

// Close releases the database handle.
func (j *Journal) Close() error {
	return j.db.Close()
}

// RecordSession inserts the session row at allocation time.
func (j *Journal) RecordSession(id, label, dir string, port int) error {
	_, err := j.db.ExecContext(context.Background(),
		"INSERT INTO sessions (id, label, dir, port, created_at) VALUES (?, ?, ?, ?, ?)",
		id, label, dir, port, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("record session %s: %w", id, err)
	}
	return nil
}

// RecordLaunch appends one launch row for the session.
func (j *Journal) RecordLaunch(sessionID string, started, finished time.Time, exitCode int, outcome string) error {
	_, err := j.db.ExecContext(context.Background(),
		"INSERT INTO launches (session_id, started_at, finished_at, exit_code, outcome) VALUES (?, ?, ?, ?, ?)",
		sessionID, started.UTC().Format(time.RFC3339), finished.UTC().Format(time.RFC3339), exitCode, outcome)
	if err != nil {
		return fmt.Errorf("record launch for session %s: %w", sessionID, err)
	}
	return nil
}

// SessionRecord is one row of the sessions listing.
type SessionRecord struct {
	ID        string `yaml:"id"`
	Label     string `yaml:"label"`
	Dir       string `yaml:"dir"`
	Port      int    `yaml:"port"`
	CreatedAt string `yaml:"created_at"`
	Launches  int    `yaml:"launches"`
}

// Sessions returns all recorded sessions, newest first, with their launch
// counts.
func (j *Journal) Sessions(ctx context.Context) ([]SessionRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT s.id, s.label, s.dir, s.port, s.created_at, COUNT(l.id)
		FROM sessions s LEFT JOIN launches l ON l.session_id = s.id
		GROUP BY s.id ORDER BY s.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var r SessionRecord
		if err := rows.Scan(&r.ID, &r.Label, &r.Dir, &r.Port, &r.CreatedAt, &r.Launches); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return out, nil
}

// DeleteSession removes a session row and its launches.
func (j *Journal) DeleteSession(id string) error {
	ctx := context.Background()
	if _, err := j.db.ExecContext(ctx, "DELETE FROM launches WHERE session_id = ?", id); err != nil {
		return fmt.Errorf("delete launches for %s: %w", id, err)
	}
	if _, err := j.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}
