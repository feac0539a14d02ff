package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Promptonauts/relpipe/pkg/models"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// OpenSQLiteStore opens the database and applies the schema.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	s, err := NewSQLiteStore(path)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		name TEXT DEFAULT '',
		state TEXT NOT NULL,
		data TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS run_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		level TEXT NOT NULL,
		message TEXT NOT NULL,
		step INTEGER DEFAULT 0,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_state ON runs(state);
	CREATE INDEX IF NOT EXISTS idx_run_logs_run_id ON run_logs(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(run *models.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.State == "" {
		run.State = models.RunPending
	}
	now := time.Now().UTC()
	run.CreatedAt = now
	run.UpdatedAt = now

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO runs (id, mode, name, state, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID, string(run.Mode), run.Name, string(run.State), string(data), now, now)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetRun(id string) (*models.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data string
	err := s.db.QueryRow("SELECT data FROM runs WHERE id = ?", id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}

	var run models.RunRecord
	if err := json.Unmarshal([]byte(data), &run); err != nil {
		return nil, fmt.Errorf("unmarshal run: %w", err)
	}
	if run.Logs, err = s.runLogsUnlocked(id); err != nil {
		return nil, fmt.Errorf("query run logs: %w", err)
	}
	return &run, nil
}

func (s *SQLiteStore) UpdateRun(run *models.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}

	res, err := s.db.Exec(`
		UPDATE runs SET name = ?, state = ?, data = ?, updated_at = ? WHERE id = ?
	`, run.Name, string(run.State), string(data), run.UpdatedAt, run.ID)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, run.ID)
	}
	return nil
}

func (s *SQLiteStore) ListRuns(limit int) ([]*models.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT data FROM runs ORDER BY created_at DESC, rowid DESC"
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var results []*models.RunRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var run models.RunRecord
		if err := json.Unmarshal([]byte(data), &run); err != nil {
			return nil, err
		}
		results = append(results, &run)
	}
	return results, rows.Err()
}

func (s *SQLiteStore) AppendRunLog(id string, logEntry models.RunLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if logEntry.Timestamp.IsZero() {
		logEntry.Timestamp = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO run_logs (run_id, timestamp, level, message, step)
		VALUES (?, ?, ?, ?, ?)
	`, id, logEntry.Timestamp, logEntry.Level, logEntry.Message, logEntry.Step)
	return err
}

func (s *SQLiteStore) GetRunLogs(id string) ([]models.RunLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runLogsUnlocked(id)
}

func (s *SQLiteStore) runLogsUnlocked(id string) ([]models.RunLog, error) {
	rows, err := s.db.Query(
		"SELECT timestamp, level, message, step FROM run_logs WHERE run_id = ? ORDER BY id ASC",
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.RunLog
	for rows.Next() {
		var l models.RunLog
		if err := rows.Scan(&l.Timestamp, &l.Level, &l.Message, &l.Step); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
