// Package store persists dialogue transcripts in SQLite: one row per session,
// one row per message. It also hosts the HTTP session table used by scs.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQL database connection
type DB struct {
	*sql.DB
}

// Session is one dialogue session with a generation mode.
type Session struct {
	ID        string
	Mode      string
	Title     string
	Params    string // opaque JSON blob of generation parameters
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is one transcript entry inside a session.
type Message struct {
	ID         string
	SessionID  string
	Role       string // "user" or "assistant"
	Content    string
	ResultURL  string
	ResultType string
	Feedback   string // "", "like", "dislike"
	CreatedAt  time.Time
}

// Open opens a SQLite database connection
func Open(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set busy timeout to avoid "database is locked" errors under concurrent load
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	return &DB{db}, nil
}

// Migrate creates the database schema
func (db *DB) Migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS dialogue_sessions (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		title TEXT NOT NULL,
		params TEXT NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT,
		result_url TEXT,
		result_type TEXT,
		feedback TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		FOREIGN KEY (session_id) REFERENCES dialogue_sessions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON dialogue_sessions(updated_at);

	CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_expiry ON sessions(expiry);
	`

	_, err := db.Exec(schema)
	return err
}

// CreateSession inserts a new dialogue session and returns it.
func (db *DB) CreateSession(mode, title, params string) (*Session, error) {
	now := time.Now()
	s := &Session{
		ID:        uuid.NewString(),
		Mode:      mode,
		Title:     title,
		Params:    params,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if s.Params == "" {
		s.Params = "{}"
	}
	_, err := db.Exec(
		`INSERT INTO dialogue_sessions (id, mode, title, params, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.Mode, s.Title, s.Params, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetSession retrieves a session by ID
func (db *DB) GetSession(id string) (*Session, error) {
	s := &Session{}
	err := db.QueryRow(
		`SELECT id, mode, title, params, created_at, updated_at
		 FROM dialogue_sessions WHERE id = ?`,
		id,
	).Scan(&s.ID, &s.Mode, &s.Title, &s.Params, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListSessions returns sessions ordered by most recent activity. mode filters
// to one generation mode when non-empty.
func (db *DB) ListSessions(mode string, limit int) ([]Session, error) {
	query := `SELECT id, mode, title, params, created_at, updated_at
	          FROM dialogue_sessions`
	var args []interface{}
	if mode != "" {
		query += ` WHERE mode = ?`
		args = append(args, mode)
	}
	query += ` ORDER BY updated_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.Mode, &s.Title, &s.Params, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// AppendMessage adds a message to a session and bumps the session's
// updated_at so history sorts by recency.
func (db *DB) AppendMessage(m *Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO messages (id, session_id, role, content, result_url, result_type, feedback, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.SessionID, m.Role, m.Content, m.ResultURL, m.ResultType, m.Feedback, m.CreatedAt,
	)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(
		`UPDATE dialogue_sessions SET updated_at = ? WHERE id = ?`,
		m.CreatedAt, m.SessionID,
	); err != nil {
		return err
	}

	return tx.Commit()
}

// ListMessages returns a session's messages in chronological order.
func (db *DB) ListMessages(sessionID string) ([]Message, error) {
	rows, err := db.Query(
		`SELECT id, session_id, role, content, result_url, result_type, feedback, created_at
		 FROM messages WHERE session_id = ? ORDER BY created_at, id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		var content, resultURL, resultType sql.NullString
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &content, &resultURL, &resultType, &m.Feedback, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Content = content.String
		m.ResultURL = resultURL.String
		m.ResultType = resultType.String
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// SetMessageFeedback stores a like/dislike verdict on a message. An empty
// feedback clears it.
func (db *DB) SetMessageFeedback(messageID, feedback string) error {
	switch feedback {
	case "", "like", "dislike":
	default:
		return fmt.Errorf("invalid feedback %q", feedback)
	}
	_, err := db.Exec(`UPDATE messages SET feedback = ? WHERE id = ?`, feedback, messageID)
	return err
}

// DeleteSession removes a session and, via the cascade, its messages.
func (db *DB) DeleteSession(id string) error {
	_, err := db.Exec(`DELETE FROM dialogue_sessions WHERE id = ?`, id)
	return err
}
