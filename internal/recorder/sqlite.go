package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists decision history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for better concurrent read performance (dashboards read while
	// the bot writes).
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS decision_cycles (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			run_id      TEXT,
			ticker      TEXT,
			price       TEXT,
			sigma       REAL,
			threshold   TEXT,
			days_waited INTEGER,
			action      TEXT,
			reason      TEXT,
			notified    INTEGER,
			recovered   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_ts ON decision_cycles(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_ticker ON decision_cycles(ticker)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordCycle(rec *CycleRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO decision_cycles
		(timestamp, run_id, ticker, price, sigma, threshold, days_waited, action, reason, notified, recovered)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), rec.RunID, rec.Ticker, rec.Price, rec.Sigma,
		rec.Threshold, rec.DaysWaited, string(rec.Action), string(rec.Reason),
		boolToInt(rec.Notified), boolToInt(rec.Recovered),
	)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
