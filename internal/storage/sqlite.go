package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/bunsho/internal/models"
)

const memoryDSN = ":memory:"

// SQLiteTranscript implements Transcript using SQLite.
type SQLiteTranscript struct {
	db   *sql.DB
	path string
}

// NewSQLiteTranscript opens or creates a SQLite database at dbPath and initializes the
// schema. Parent directories are created if they do not exist. ":memory:" opens a
// private in-memory database.
func NewSQLiteTranscript(dbPath string) (*SQLiteTranscript, error) {
	if dbPath != memoryDSN {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == memoryDSN {
		// Every pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteTranscript{db: db, path: dbPath}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS turns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_turns_session_id ON turns(session_id, id);
	`
	_, err := db.Exec(schema)
	return err
}

// Append inserts turns in one transaction.
func (s *SQLiteTranscript) Append(ctx context.Context, sessionID string, turns ...models.Turn) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO turns (session_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, turn := range turns {
		if turn.CreatedAt.IsZero() {
			turn.CreatedAt = time.Now()
		}
		if _, err := stmt.ExecContext(ctx, sessionID, string(turn.Role), turn.Content, turn.CreatedAt.UTC()); err != nil {
			return fmt.Errorf("failed to insert turn: %w", err)
		}
	}
	return tx.Commit()
}

// List returns the session's turns in insertion order.
func (s *SQLiteTranscript) List(ctx context.Context, sessionID string) ([]models.Turn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, created_at FROM turns WHERE session_id = ? ORDER BY id`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	turns := []models.Turn{}
	for rows.Next() {
		var t models.Turn
		var role string
		if err := rows.Scan(&role, &t.Content, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Role = models.Role(role)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Reset deletes the session's turns.
func (s *SQLiteTranscript) Reset(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM turns WHERE session_id = ?`, sessionID)
	return err
}

// SizeBytes returns the size of the database file together with its WAL files.
// An in-memory database reports 0.
func (s *SQLiteTranscript) SizeBytes() (int64, error) {
	if s.path == memoryDSN {
		return 0, nil
	}
	return DiskUsageBytes(s.path, s.path+"-wal", s.path+"-shm")
}

// Close closes the database connection.
func (s *SQLiteTranscript) Close() error {
	return s.db.Close()
}
