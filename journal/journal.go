package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/swdee/go-rcfollow/dispatch"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS commands (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	channel     TEXT NOT NULL,
	value       TEXT NOT NULL,
	forced      INTEGER NOT NULL,
	outcome     TEXT NOT NULL,
	error       TEXT
);

CREATE INDEX IF NOT EXISTS commands_session ON commands (session_id);
`

var _ dispatch.Recorder = (*Journal)(nil)

// Record is a stored command outcome
type Record struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Time      time.Time `json:"time"`
	Channel   string    `json:"channel"`
	Value     string    `json:"value"`
	Forced    bool      `json:"forced"`
	Outcome   string    `json:"outcome"`
	Error     string    `json:"error,omitempty"`
}

// Journal stores every dispatched command in SQLite, commands are grouped
// by the session which opened the journal
type Journal struct {
	db        *sql.DB
	sessionID string
}

// Open opens or creates the journal database at path and starts a new
// session
func Open(path string) (*Journal, error) {

	db, err := sql.Open("sqlite", path)

	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	// the frame loop writes while the operator console reads
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Journal{
		db:        db,
		sessionID: uuid.New().String(),
	}, nil
}

// SessionID returns the identifier of the current session
func (j *Journal) SessionID() string {
	return j.sessionID
}

// Record stores a dispatch entry
func (j *Journal) Record(ctx context.Context, e dispatch.Entry) error {

	var errText sql.NullString

	if e.Err != nil {
		errText = sql.NullString{String: e.Err.Error(), Valid: true}
	}

	forced := 0
	if e.Forced {
		forced = 1
	}

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO commands (session_id, created_at, channel, value, forced, outcome, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		j.sessionID, e.Time.UTC().Format(time.RFC3339Nano), string(e.Channel),
		e.Value, forced, e.Outcome.String(), errText,
	)

	if err != nil {
		return fmt.Errorf("insert command: %w", err)
	}

	return nil
}

// Recent returns up to limit of the latest commands across all sessions,
// newest first
func (j *Journal) Recent(ctx context.Context, limit int) ([]Record, error) {

	if limit <= 0 {
		return []Record{}, nil
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, session_id, created_at, channel, value, forced, outcome, error
		 FROM commands ORDER BY id DESC LIMIT ?`, limit)

	if err != nil {
		return nil, fmt.Errorf("query commands: %w", err)
	}

	defer rows.Close()

	records := []Record{}

	for rows.Next() {
		var (
			rec     Record
			created string
			forced  int
			errText sql.NullString
		)

		if err := rows.Scan(&rec.ID, &rec.SessionID, &created, &rec.Channel,
			&rec.Value, &forced, &rec.Outcome, &errText); err != nil {
			return nil, fmt.Errorf("scan command: %w", err)
		}

		rec.Time, err = time.Parse(time.RFC3339Nano, created)

		if err != nil {
			return nil, fmt.Errorf("parse command time: %w", err)
		}

		rec.Forced = forced != 0
		rec.Error = errText.String
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commands: %w", err)
	}

	return records, nil
}

// Close closes the journal database
func (j *Journal) Close() error {
	return j.db.Close()
}
