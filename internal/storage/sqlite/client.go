package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/echo-recall/backend/internal/recall"
	"github.com/echo-recall/backend/pkg/logger"
)

// ErrNotFound is returned when a record id does not exist in the store.
var ErrNotFound = errors.New("record not found")

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS learning_records (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT UNIQUE NOT NULL,
		created_at INTEGER NOT NULL,
		page_title TEXT NOT NULL,
		page_url TEXT NOT NULL,
		user_recall TEXT NOT NULL,
		analysis TEXT NOT NULL,
		feedback TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_records_created ON learning_records(created_at);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

// SaveRecord appends a learning record. The autoincrement seq preserves
// insertion order so listing newest-first matches unshift semantics even when
// two records share a created_at millisecond.
func (c *Client) SaveRecord(rec *recall.LearningRecord) error {
	analysisJSON, err := json.Marshal(rec.Analysis)
	if err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}
	feedbackJSON, err := json.Marshal(rec.Feedback)
	if err != nil {
		return fmt.Errorf("failed to encode feedback: %w", err)
	}

	query := `
		INSERT INTO learning_records (id, created_at, page_title, page_url, user_recall, analysis, feedback)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = c.db.Exec(
		query,
		rec.ID,
		rec.CreatedAt,
		rec.PageTitle,
		rec.PageURL,
		rec.UserRecall,
		string(analysisJSON),
		string(feedbackJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}

	logger.Info("Learning record saved",
		zap.String("record_id", rec.ID),
		zap.String("page_url", rec.PageURL),
		zap.Int("score", rec.Feedback.Score),
	)

	return nil
}

// ListRecords returns records newest-first. limit <= 0 means no limit.
func (c *Client) ListRecords(limit int) ([]recall.LearningRecord, error) {
	if limit <= 0 {
		limit = -1
	}

	query := `
		SELECT id, created_at, page_title, page_url, user_recall, analysis, feedback
		FROM learning_records
		ORDER BY seq DESC
		LIMIT ?
	`

	rows, err := c.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var records []recall.LearningRecord
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}

	return records, rows.Err()
}

func (c *Client) GetRecord(id string) (*recall.LearningRecord, error) {
	query := `
		SELECT id, created_at, page_title, page_url, user_recall, analysis, feedback
		FROM learning_records
		WHERE id = ?
	`

	rec, err := scanRecord(c.db.QueryRow(query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return rec, nil
}

// DeleteRecord removes exactly the record with the given id; all other
// records keep their relative order.
func (c *Client) DeleteRecord(id string) error {
	res, err := c.db.Exec(`DELETE FROM learning_records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	logger.Info("Learning record deleted", zap.String("record_id", id))
	return nil
}

func (c *Client) ClearRecords() error {
	if _, err := c.db.Exec(`DELETE FROM learning_records`); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}

	logger.Info("Learning history cleared")
	return nil
}

func scanRecord(scan func(dest ...interface{}) error) (*recall.LearningRecord, error) {
	var rec recall.LearningRecord
	var analysisJSON, feedbackJSON string

	err := scan(
		&rec.ID,
		&rec.CreatedAt,
		&rec.PageTitle,
		&rec.PageURL,
		&rec.UserRecall,
		&analysisJSON,
		&feedbackJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan record: %w", err)
	}

	if err := json.Unmarshal([]byte(analysisJSON), &rec.Analysis); err != nil {
		return nil, fmt.Errorf("failed to decode analysis: %w", err)
	}
	if err := json.Unmarshal([]byte(feedbackJSON), &rec.Feedback); err != nil {
		return nil, fmt.Errorf("failed to decode feedback: %w", err)
	}

	return &rec, nil
}

func (c *Client) GetSetting(key string) (string, bool, error) {
	var value string
	err := c.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get setting: %w", err)
	}
	return value, true, nil
}

func (c *Client) SetSetting(key, value string) error {
	query := `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	if _, err := c.db.Exec(query, key, value); err != nil {
		return fmt.Errorf("failed to set setting: %w", err)
	}
	return nil
}

func (c *Client) RemoveSetting(key string) error {
	if _, err := c.db.Exec(`DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to remove setting: %w", err)
	}
	return nil
}
