// Package sqlite provides a durable SessionStore backed by SQLite via the
// cgo-free modernc.org/sqlite driver. Transcript events are stored as
// append-only rows; the session row carries the round counter, termination
// flag and state map.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/groupplan/groupplan/core"
	_ "modernc.org/sqlite"
)

// Store implements core.SessionStore on a SQLite database file.
type Store struct {
	db *sql.DB
}

// New opens (creating if necessary) the database at dbPath and initializes
// the schema.
func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// WAL mode; the conversation is single-threaded but tests may probe
	// concurrently.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		rounds INTEGER NOT NULL DEFAULT 0,
		terminated INTEGER NOT NULL DEFAULT 0,
		state_json TEXT NOT NULL DEFAULT '{}',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS session_events (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL REFERENCES sessions(id),
		event_id TEXT NOT NULL,
		author TEXT NOT NULL,
		round INTEGER NOT NULL,
		role TEXT NOT NULL,
		text TEXT NOT NULL,
		calls_json TEXT NOT NULL DEFAULT '[]',
		responses_json TEXT NOT NULL DEFAULT '[]',
		timestamp INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_session_events_session ON session_events(session_id, seq);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Create inserts (or resets) a session with the given id.
func (s *Store) Create(id string) (*core.Session, error) {
	now := time.Now().Unix()
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM session_events WHERE session_id = ?`, id); err != nil {
		return nil, fmt.Errorf("reset session events: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO sessions (id, rounds, terminated, state_json, created_at, updated_at)
		 VALUES (?, 0, 0, '{}', ?, ?)
		 ON CONFLICT(id) DO UPDATE SET rounds = 0, terminated = 0, state_json = '{}', updated_at = excluded.updated_at`,
		id, now, now,
	); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return core.NewSession(id), nil
}

// Get loads a session, creating it lazily if absent.
func (s *Store) Get(id string) (*core.Session, error) {
	row := s.db.QueryRow(`SELECT rounds, terminated, state_json, created_at, updated_at FROM sessions WHERE id = ?`, id)

	var rounds, terminated int
	var stateJSON string
	var createdAt, updatedAt int64
	err := row.Scan(&rounds, &terminated, &stateJSON, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return s.Create(id)
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}

	sess := core.NewSession(id)
	sess.Created = time.Unix(createdAt, 0)
	sess.Updated = time.Unix(updatedAt, 0)

	state := map[string]interface{}{}
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		return nil, fmt.Errorf("decode session state: %w", err)
	}
	sess.MergeState(state)

	events, err := s.loadEvents(id)
	if err != nil {
		return nil, err
	}
	for _, ev := range events {
		if err := sess.AddEvent(ev); err != nil {
			return nil, err
		}
	}

	for i := 0; i < rounds; i++ {
		sess.BeginRound()
	}
	if terminated != 0 {
		sess.Terminate()
	}
	return sess, nil
}

// AppendEvent stores one transcript event. Appends against a terminated
// session fail with core.ErrSessionTerminated.
func (s *Store) AppendEvent(sessionID string, ev core.Event) error {
	var terminated int
	err := s.db.QueryRow(`SELECT terminated FROM sessions WHERE id = ?`, sessionID).Scan(&terminated)
	if err == sql.ErrNoRows {
		if _, err := s.Create(sessionID); err != nil {
			return err
		}
	} else if err != nil {
		return fmt.Errorf("scan session row: %w", err)
	} else if terminated != 0 {
		return core.ErrSessionTerminated
	}

	role, text := "", ""
	if ev.Content != nil {
		role = ev.Content.Role
		text = ev.Content.Text()
	}

	callsJSON, err := json.Marshal(ev.GetFunctionCalls())
	if err != nil {
		return fmt.Errorf("encode function calls: %w", err)
	}
	responsesJSON, err := json.Marshal(ev.GetFunctionResponses())
	if err != nil {
		return fmt.Errorf("encode function responses: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(
		`INSERT INTO session_events (session_id, event_id, author, round, role, text, calls_json, responses_json, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, ev.ID, ev.Author, ev.Round, role, text, string(callsJSON), string(responsesJSON), ev.Timestamp.UnixNano(),
	); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	if _, err := tx.Exec(
		`UPDATE sessions SET rounds = MAX(rounds, ?), updated_at = ? WHERE id = ?`,
		ev.Round, time.Now().Unix(), sessionID,
	); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return tx.Commit()
}

// ApplyDelta merges a key/value delta into the stored session state.
func (s *Store) ApplyDelta(sessionID string, delta map[string]interface{}) error {
	var stateJSON string
	err := s.db.QueryRow(`SELECT state_json FROM sessions WHERE id = ?`, sessionID).Scan(&stateJSON)
	if err == sql.ErrNoRows {
		if _, err := s.Create(sessionID); err != nil {
			return err
		}
		stateJSON = "{}"
	} else if err != nil {
		return fmt.Errorf("scan session row: %w", err)
	}

	state := map[string]interface{}{}
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		return fmt.Errorf("decode session state: %w", err)
	}
	for k, v := range delta {
		state[k] = v
	}
	merged, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}

	_, err = s.db.Exec(
		`UPDATE sessions SET state_json = ?, updated_at = ? WHERE id = ?`,
		string(merged), time.Now().Unix(), sessionID,
	)
	return err
}

// Terminate sets the termination flag; the transcript stays readable but
// rejects further appends.
func (s *Store) Terminate(sessionID string) error {
	res, err := s.db.Exec(
		`UPDATE sessions SET terminated = 1, updated_at = ? WHERE id = ?`,
		time.Now().Unix(), sessionID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := s.Create(sessionID); err != nil {
			return err
		}
		_, err = s.db.Exec(`UPDATE sessions SET terminated = 1 WHERE id = ?`, sessionID)
		return err
	}
	return nil
}

// loadEvents reconstructs the ordered transcript from event rows.
func (s *Store) loadEvents(sessionID string) ([]core.Event, error) {
	rows, err := s.db.Query(
		`SELECT event_id, author, round, role, text, calls_json, responses_json, timestamp
		 FROM session_events WHERE session_id = ? ORDER BY seq`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var events []core.Event
	for rows.Next() {
		var (
			eventID, author, role, text, callsJSON, responsesJSON string
			round                                                 int
			ts                                                    int64
		)
		if err := rows.Scan(&eventID, &author, &round, &role, &text, &callsJSON, &responsesJSON, &ts); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}

		var calls []core.FunctionCall
		if err := json.Unmarshal([]byte(callsJSON), &calls); err != nil {
			return nil, fmt.Errorf("decode function calls: %w", err)
		}
		var responses []core.FunctionResponse
		if err := json.Unmarshal([]byte(responsesJSON), &responses); err != nil {
			return nil, fmt.Errorf("decode function responses: %w", err)
		}

		content := &core.Content{Role: role}
		if text != "" {
			content.Parts = append(content.Parts, core.TextPart{Text: text})
		}
		for _, fc := range calls {
			content.Parts = append(content.Parts, core.FunctionCallPart{FunctionCall: fc})
		}
		for _, fr := range responses {
			content.Parts = append(content.Parts, core.FunctionResponsePart{FunctionResponse: fr})
		}

		events = append(events, core.Event{
			ID:        eventID,
			SessionID: sessionID,
			Author:    author,
			Round:     round,
			Timestamp: time.Unix(0, ts).UTC(),
			Content:   content,
		})
	}
	return events, rows.Err()
}
