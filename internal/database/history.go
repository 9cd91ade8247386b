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

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/secretgarden/internal/model"
)

// FileName is the history database file inside the data directory.
const FileName = "history.db"

// ErrRunNotFound is returned when no run matches the requested id.
var ErrRunNotFound = errors.New("run not found")

// ErrAmbiguousRunID is returned when an id prefix matches several runs.
var ErrAmbiguousRunID = errors.New("run id prefix matches more than one run")

// HistoryDB stores run statistics.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file when missing.
	CreateIfNotExists bool

	// EnableWAL enables write-ahead logging.
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
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	mode := "rwc"
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	} else {
		if _, err := os.Stat(dbPath); err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("history database not found at %s", dbPath)
			}
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
		mode = "rw"
	}

	db, err := sql.Open("sqlite", dbPath+"?mode="+mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	h := &HistoryDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := h.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return h, nil
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

func (h *HistoryDB) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		config_path TEXT NOT NULL,
		build_dir TEXT,
		denylist_enabled INTEGER NOT NULL DEFAULT 0,
		denylist_threshold INTEGER NOT NULL DEFAULT 0,
		warning_count INTEGER NOT NULL DEFAULT 0,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	CREATE TABLE IF NOT EXISTS site_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		domain TEXT NOT NULL,
		requested INTEGER NOT NULL DEFAULT 0,
		produced INTEGER NOT NULL DEFAULT 0,
		attempts INTEGER NOT NULL DEFAULT 0,
		denylist_rejections INTEGER NOT NULL DEFAULT 0,
		exit_reason TEXT,
		p_single REAL NOT NULL DEFAULT 0,
		p_session REAL NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_site_runs_run ON site_runs(run_id);
	CREATE INDEX IF NOT EXISTS idx_site_runs_domain ON site_runs(domain);
	`
	_, err := h.db.ExecContext(ctx, schema)
	return err
}

// SaveRun stores a run report and one row per site in a single transaction.
// A report without a run id gets a fresh UUID.
func (h *HistoryDB) SaveRun(ctx context.Context, report *model.RunReport) error {
	if report.RunID == "" {
		report.RunID = uuid.NewString()
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	_, err = tx.ExecContext(ctx, `
	INSERT INTO runs (id, started_at, config_path, build_dir, denylist_enabled, denylist_threshold, warning_count, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.StartedAt.UTC().Format(time.RFC3339Nano),
		report.ConfigPath,
		report.BuildDir,
		report.DenylistEnabled,
		report.DenylistThreshold,
		len(report.AllWarnings()),
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, site := range report.Sites {
		var stats model.PoolStats
		if site.Pool != nil {
			stats = *site.Pool
		}
		_, err = tx.ExecContext(ctx, `
		INSERT INTO site_runs (run_id, domain, requested, produced, attempts, denylist_rejections, exit_reason, p_single, p_session)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			report.RunID, site.Domain, stats.Requested, stats.Produced, stats.Attempts,
			stats.DenylistRejections, stats.Exit, site.Estimate.Single, site.Estimate.Session,
		)
		if err != nil {
			return fmt.Errorf("failed to insert site run for %s: %w", site.Domain, err)
		}
	}

	return tx.Commit()
}

// RunSummary is one row of the history listing.
type RunSummary struct {
	ID                string    `json:"id"`
	StartedAt         time.Time `json:"started_at"`
	ConfigPath        string    `json:"config_path"`
	BuildDir          string    `json:"build_dir"`
	DenylistEnabled   bool      `json:"denylist_enabled"`
	DenylistThreshold int       `json:"denylist_threshold"`
	Sites             int       `json:"sites"`
	Requested         int       `json:"requested"`
	Produced          int       `json:"produced"`
	Warnings          int       `json:"warnings"`
}

// ListRuns returns the most recent runs first. A non-positive limit lists all.
func (h *HistoryDB) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `
	SELECT r.id, r.started_at, r.config_path, COALESCE(r.build_dir, ''), r.denylist_enabled,
	       r.denylist_threshold, r.warning_count,
	       COUNT(s.id), COALESCE(SUM(s.requested), 0), COALESCE(SUM(s.produced), 0)
	FROM runs r
	LEFT JOIN site_runs s ON s.run_id = r.id
	GROUP BY r.id
	ORDER BY r.started_at DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var startedAt string
		if err := rows.Scan(&r.ID, &startedAt, &r.ConfigPath, &r.BuildDir, &r.DenylistEnabled,
			&r.DenylistThreshold, &r.Warnings, &r.Sites, &r.Requested, &r.Produced); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = parseTimestamp(startedAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns the stored report of a run. id may be a full UUID or a
// unique prefix of one.
func (h *HistoryDB) GetRun(ctx context.Context, id string) (*model.RunReport, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if _, parseErr := uuid.Parse(id); parseErr == nil {
		rows, err = h.db.QueryContext(ctx, `SELECT report_json FROM runs WHERE id = ?`, id)
	} else {
		rows, err = h.db.QueryContext(ctx, `SELECT report_json FROM runs WHERE id LIKE ? || '%' LIMIT 2`, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	defer rows.Close()

	var found []string
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		found = append(found, reportJSON)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case 1:
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousRunID, id)
	}

	var report model.RunReport
	if err := json.Unmarshal([]byte(found[0]), &report); err != nil {
		return nil, fmt.Errorf("failed to deserialize report: %w", err)
	}
	return &report, nil
}

// SiteRun is the stored statistics of one site in one run.
type SiteRun struct {
	RunID              string  `json:"run_id"`
	Domain             string  `json:"domain"`
	Requested          int     `json:"requested"`
	Produced           int     `json:"produced"`
	Attempts           int     `json:"attempts"`
	DenylistRejections int     `json:"denylist_rejections"`
	Exit               string  `json:"exit"`
	PSingle            float64 `json:"p_single"`
	PSession           float64 `json:"p_session"`
}

// SiteHistory returns the runs of one domain, most recent first.
func (h *HistoryDB) SiteHistory(ctx context.Context, domain string) ([]SiteRun, error) {
	rows, err := h.db.QueryContext(ctx, `
	SELECT s.run_id, s.domain, s.requested, s.produced, s.attempts, s.denylist_rejections,
	       COALESCE(s.exit_reason, ''), s.p_single, s.p_session
	FROM site_runs s
	JOIN runs r ON r.id = s.run_id
	WHERE s.domain = ?
	ORDER BY r.started_at DESC, s.id DESC
	`, domain)
	if err != nil {
		return nil, fmt.Errorf("failed to get site history: %w", err)
	}
	defer rows.Close()

	var out []SiteRun
	for rows.Next() {
		var s SiteRun
		if err := rows.Scan(&s.RunID, &s.Domain, &s.Requested, &s.Produced, &s.Attempts,
			&s.DenylistRejections, &s.Exit, &s.PSingle, &s.PSession); err != nil {
			return nil, fmt.Errorf("failed to scan site run: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// timestampFormats are the layouts SQLite timestamps may come back in.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp parses s with the first matching layout, or returns the zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
