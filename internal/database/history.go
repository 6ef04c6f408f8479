package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/linkcrawl/internal/model"
)

// DBFileName is the name of the SQLite file inside the data directory.
const DBFileName = "linkcrawl.db"

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("crawl run not found")

// startedAtLayout sorts lexicographically in chronological order.
const startedAtLayout = "2006-01-02 15:04:05.000000"

// HistoryDB stores finished crawl reports in SQLite.
type HistoryDB struct {
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging, which lets concurrent batch
	// crawls save while history is being read.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- One row per finished crawl run; report_json holds the full report
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seed_source TEXT NOT NULL,
		started_at TEXT NOT NULL,
		seed_count INTEGER NOT NULL DEFAULT 0,
		total INTEGER NOT NULL DEFAULT 0,
		successes INTEGER NOT NULL DEFAULT 0,
		failures INTEGER NOT NULL DEFAULT 0,
		elapsed_ms INTEGER NOT NULL DEFAULT 0,
		cancelled INTEGER NOT NULL DEFAULT 0,
		seed_error TEXT,
		report_json TEXT NOT NULL,
		saved_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_source ON runs(seed_source);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores report and sets its ID.
func (hdb *HistoryDB) SaveRun(ctx context.Context, report *model.RunReport) (int64, error) {
	if report == nil {
		return 0, errors.New("report is nil")
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	query := `
	INSERT INTO runs (seed_source, started_at, seed_count, total, successes, failures, elapsed_ms, cancelled, seed_error, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := hdb.db.ExecContext(ctx, query,
		report.SeedSource,
		report.StartedAt.UTC().Format(startedAtLayout),
		report.SeedCount,
		report.Total,
		report.Successes,
		report.Failures,
		report.ElapsedMillis,
		boolToInt(report.Cancelled),
		nullString(report.SeedError),
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save crawl run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}
	report.ID = id
	return id, nil
}

// ListRuns returns run summaries, newest first. An empty source lists every
// run. A limit of zero or less means no limit.
//
// The returned reports carry counters only; use GetRun for visited links and
// failed visits.
func (hdb *HistoryDB) ListRuns(ctx context.Context, source string, limit int) ([]*model.RunReport, error) {
	query := `
	SELECT id, seed_source, started_at, seed_count, total, successes, failures, elapsed_ms, cancelled, seed_error
	FROM runs
	WHERE (? = '' OR seed_source = ?)
	ORDER BY started_at DESC, id DESC
	`
	args := []any{source, source}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list crawl runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.RunReport
	for rows.Next() {
		var (
			r         model.RunReport
			startedAt string
			seedError sql.NullString
		)
		if err := rows.Scan(
			&r.ID, &r.SeedSource, &startedAt, &r.SeedCount,
			&r.Total, &r.Successes, &r.Failures, &r.ElapsedMillis,
			&r.Cancelled, &seedError,
		); err != nil {
			return nil, fmt.Errorf("failed to scan crawl run: %w", err)
		}
		r.StartedAt = parseTimestamp(startedAt)
		r.SeedError = seedError.String
		runs = append(runs, &r)
	}

	return runs, rows.Err()
}

// GetRun returns the full report stored under id.
func (hdb *HistoryDB) GetRun(ctx context.Context, id int64) (*model.RunReport, error) {
	query := `SELECT report_json FROM runs WHERE id = ?`

	var reportJSON string
	err := hdb.db.QueryRowContext(ctx, query, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl run: %w", err)
	}

	var report model.RunReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	report.ID = id

	return &report, nil
}

// ListSources returns every seed source with at least one saved run.
func (hdb *HistoryDB) ListSources(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT seed_source FROM runs
	ORDER BY seed_source
	`

	rows, err := hdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list seed sources: %w", err)
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var source string
		if err := rows.Scan(&source); err != nil {
			return nil, fmt.Errorf("failed to scan seed source: %w", err)
		}
		sources = append(sources, source)
	}

	return sources, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",  // startedAtLayout and SQLite datetime; fraction accepted
	"2006-01-02T15:04:05Z", // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",  // ISO 8601 without timezone
	time.RFC3339,
	time.RFC3339Nano,
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
