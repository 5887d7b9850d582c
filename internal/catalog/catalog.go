// Package catalog persists an index of archived sweeps: which sessions
// exist, which output files each iteration produced, and enough per-run
// metadata (checksum, node and step counts) to validate a restored tree
// without decoding it again.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/simherd/simherd/internal/errors"
)

// Session is one indexed sweep.
type Session struct {
	SessionID string
	BaseDir   string
	NumDirs   int
	CreatedAt time.Time
}

// RunRecord is one iteration's output file within a session.
type RunRecord struct {
	RunID        string
	SessionID    string
	Iteration    int
	FilePath     string
	Checksum     string
	NumNodes     int
	NumTimeSteps int
	SizeBytes    int64
	CreatedAt    time.Time
}

// Catalog is the sweep index.
type Catalog interface {
	// BeginSession records a new sweep session.
	BeginSession(ctx context.Context, baseDir string, numDirs int) (*Session, error)

	// GetSession retrieves a session by ID.
	GetSession(ctx context.Context, sessionID string) (*Session, error)

	// RegisterRun records one iteration's output file.
	RegisterRun(ctx context.Context, rec *RunRecord) error

	// GetRun retrieves the record of one iteration of a session.
	GetRun(ctx context.Context, sessionID string, iteration int) (*RunRecord, error)

	// ListRuns returns every run of a session in iteration order.
	ListRuns(ctx context.Context, sessionID string) ([]*RunRecord, error)

	// ListSessions returns every session, newest first.
	ListSessions(ctx context.Context) ([]*Session, error)

	// Close closes the database connections.
	Close() error
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	base_dir   TEXT NOT NULL,
	num_dirs   INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	run_id         TEXT PRIMARY KEY,
	session_id     TEXT NOT NULL REFERENCES sessions(session_id),
	iteration      INTEGER NOT NULL,
	file_path      TEXT NOT NULL,
	checksum       TEXT NOT NULL,
	num_nodes      INTEGER NOT NULL,
	num_time_steps INTEGER NOT NULL,
	size_bytes     INTEGER NOT NULL,
	created_at     INTEGER NOT NULL,
	UNIQUE (session_id, iteration)
);

CREATE INDEX IF NOT EXISTS idx_runs_session ON runs(session_id, iteration);
`

// SQLiteCatalog implements Catalog using SQLite.
type SQLiteCatalog struct {
	db     *sql.DB // Write connection (single writer)
	readDB *sql.DB // Read connection pool
	mu     sync.Mutex

	insertRunStmt *sql.Stmt
}

// NewCatalog opens (creating if necessary) the catalog at dbPath.
func NewCatalog(dbPath string) (*SQLiteCatalog, error) {
	// Write connection: single writer with WAL mode.
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errors.NewCatalogError(errors.CodeUnexpected,
			"failed to open catalog at "+dbPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	readDB, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		db.Close()
		return nil, errors.NewCatalogError(errors.CodeUnexpected,
			"failed to open catalog reader at "+dbPath, err)
	}
	readDB.SetMaxOpenConns(4)
	readDB.SetMaxIdleConns(4)
	readDB.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.Exec(schemaSQL); err != nil {
		readDB.Close()
		db.Close()
		return nil, errors.NewCatalogError(errors.CodeUnexpected,
			"failed to initialize catalog schema", err)
	}

	insertStmt, err := db.Prepare(`
		INSERT INTO runs (
			run_id, session_id, iteration, file_path,
			checksum, num_nodes, num_time_steps, size_bytes, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		readDB.Close()
		db.Close()
		return nil, errors.NewCatalogError(errors.CodeUnexpected,
			"failed to prepare run insert", err)
	}

	return &SQLiteCatalog{
		db:            db,
		readDB:        readDB,
		insertRunStmt: insertStmt,
	}, nil
}

// BeginSession records a new sweep session and returns it.
func (c *SQLiteCatalog) BeginSession(ctx context.Context, baseDir string, numDirs int) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	session := &Session{
		SessionID: uuid.NewString(),
		BaseDir:   baseDir,
		NumDirs:   numDirs,
		CreatedAt: time.Now(),
	}

	_, err := c.db.ExecContext(ctx,
		"INSERT INTO sessions (session_id, base_dir, num_dirs, created_at) VALUES (?, ?, ?, ?)",
		session.SessionID, session.BaseDir, session.NumDirs, session.CreatedAt.Unix(),
	)
	if err != nil {
		return nil, errors.NewCatalogError(errors.CodeUnexpected,
			"failed to insert session", err)
	}
	return session, nil
}

// GetSession retrieves a session by ID.
func (c *SQLiteCatalog) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	row := c.readDB.QueryRowContext(ctx,
		"SELECT session_id, base_dir, num_dirs, created_at FROM sessions WHERE session_id = ?",
		sessionID,
	)

	var s Session
	var createdAtUnix int64
	if err := row.Scan(&s.SessionID, &s.BaseDir, &s.NumDirs, &createdAtUnix); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewCatalogError(errors.CodeSessionNotFound,
				"no session "+sessionID, nil)
		}
		return nil, errors.NewCatalogError(errors.CodeUnexpected,
			"failed to scan session", err)
	}
	s.CreatedAt = time.Unix(createdAtUnix, 0)
	return &s, nil
}

// RegisterRun records one iteration's output file. The RunID is assigned
// here when empty.
func (c *SQLiteCatalog) RegisterRun(ctx context.Context, rec *RunRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if rec.RunID == "" {
		rec.RunID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := c.insertRunStmt.ExecContext(ctx,
		rec.RunID, rec.SessionID, rec.Iteration, rec.FilePath,
		rec.Checksum, rec.NumNodes, rec.NumTimeSteps, rec.SizeBytes,
		rec.CreatedAt.Unix(),
	)
	if err != nil {
		return errors.NewCatalogError(errors.CodeUnexpected,
			fmt.Sprintf("failed to insert run for iteration %d", rec.Iteration), err)
	}
	return nil
}

// GetRun retrieves the record of one iteration of a session.
func (c *SQLiteCatalog) GetRun(ctx context.Context, sessionID string, iteration int) (*RunRecord, error) {
	row := c.readDB.QueryRowContext(ctx, `
		SELECT run_id, session_id, iteration, file_path,
			checksum, num_nodes, num_time_steps, size_bytes, created_at
		FROM runs WHERE session_id = ? AND iteration = ?`,
		sessionID, iteration,
	)

	rec, err := scanRun(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewCatalogError(errors.CodeRunNotFound,
				fmt.Sprintf("session %s has no run for iteration %d", sessionID, iteration), nil)
		}
		return nil, errors.NewCatalogError(errors.CodeUnexpected,
			"failed to scan run", err)
	}
	return rec, nil
}

// ListRuns returns every run of a session in iteration order.
func (c *SQLiteCatalog) ListRuns(ctx context.Context, sessionID string) ([]*RunRecord, error) {
	rows, err := c.readDB.QueryContext(ctx, `
		SELECT run_id, session_id, iteration, file_path,
			checksum, num_nodes, num_time_steps, size_bytes, created_at
		FROM runs WHERE session_id = ? ORDER BY iteration ASC`,
		sessionID,
	)
	if err != nil {
		return nil, errors.NewCatalogError(errors.CodeUnexpected,
			"failed to query runs", err)
	}
	defer rows.Close()

	var records []*RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, errors.NewCatalogError(errors.CodeUnexpected,
				"failed to scan run", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewCatalogError(errors.CodeUnexpected,
			"error iterating runs", err)
	}
	return records, nil
}

// ListSessions returns every session, newest first.
func (c *SQLiteCatalog) ListSessions(ctx context.Context) ([]*Session, error) {
	rows, err := c.readDB.QueryContext(ctx,
		"SELECT session_id, base_dir, num_dirs, created_at FROM sessions ORDER BY created_at DESC",
	)
	if err != nil {
		return nil, errors.NewCatalogError(errors.CodeUnexpected,
			"failed to query sessions", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		var s Session
		var createdAtUnix int64
		if err := rows.Scan(&s.SessionID, &s.BaseDir, &s.NumDirs, &createdAtUnix); err != nil {
			return nil, errors.NewCatalogError(errors.CodeUnexpected,
				"failed to scan session", err)
		}
		s.CreatedAt = time.Unix(createdAtUnix, 0)
		sessions = append(sessions, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewCatalogError(errors.CodeUnexpected,
			"error iterating sessions", err)
	}
	return sessions, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var rec RunRecord
	var createdAtUnix int64
	err := row.Scan(
		&rec.RunID, &rec.SessionID, &rec.Iteration, &rec.FilePath,
		&rec.Checksum, &rec.NumNodes, &rec.NumTimeSteps, &rec.SizeBytes,
		&createdAtUnix,
	)
	if err != nil {
		return nil, err
	}
	rec.CreatedAt = time.Unix(createdAtUnix, 0)
	return &rec, nil
}

// Close closes the catalog database connections.
func (c *SQLiteCatalog) Close() error {
	if c.insertRunStmt != nil {
		c.insertRunStmt.Close()
	}
	if err := c.readDB.Close(); err != nil {
		c.db.Close()
		return err
	}
	return c.db.Close()
}
