package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/afi-report/backend/internal/storage/models"
	"github.com/afi-report/backend/pkg/logger"
)

// Client mirrors the reconciled district table into sqlite so the JSON API
// can filter and rank without walking the table on every request.
type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// every connection to ":memory:" is a separate database
	db.SetMaxOpenConns(1)

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS districts (
		position INTEGER PRIMARY KEY,
		district TEXT NOT NULL,
		state TEXT NOT NULL,
		afi REAL,
		bio_score REAL,
		child_exclusion_score REAL,
		overload_score REAL,
		avg_daily_vol REAL,
		total_enrol REAL
	);
	CREATE INDEX IF NOT EXISTS idx_districts_state ON districts(state);
	CREATE INDEX IF NOT EXISTS idx_districts_afi ON districts(afi);

	CREATE TABLE IF NOT EXISTS load_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		outcome TEXT NOT NULL,
		primary_path TEXT NOT NULL,
		pattern TEXT,
		files TEXT,
		rows_total INTEGER NOT NULL,
		matched_rows INTEGER NOT NULL,
		unknown_rows INTEGER NOT NULL,
		cache_hit INTEGER DEFAULT 0,
		error TEXT,
		duration_ms INTEGER,
		loaded_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_load_history_loaded ON load_history(loaded_at);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

// ReplaceDistricts swaps the mirrored table for districts in one transaction.
func (c *Client) ReplaceDistricts(ctx context.Context, districts []models.District) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM districts`); err != nil {
		return fmt.Errorf("failed to clear districts: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO districts (position, district, state, afi, bio_score, child_exclusion_score,
			overload_score, avg_daily_vol, total_enrol)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range districts {
		_, err := stmt.ExecContext(ctx,
			d.Position,
			d.Name,
			d.State,
			nullable(d.AFI),
			d.BioScore,
			d.ChildExclusionScore,
			d.OverloadScore,
			d.AvgDailyVol,
			d.TotalEnrol,
		)
		if err != nil {
			return fmt.Errorf("failed to insert district %q: %w", d.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit districts: %w", err)
	}

	logger.Debug("Districts mirrored", zap.Int("count", len(districts)))
	return nil
}

// TopDistricts ranks districts by AFI descending, optionally within one
// state. Ties keep the table order.
func (c *Client) TopDistricts(ctx context.Context, state string, limit int) ([]models.District, error) {
	query := `
		SELECT position, district, state, afi, bio_score, child_exclusion_score,
			overload_score, avg_daily_vol, total_enrol
		FROM districts
	`
	var args []any
	if state != "" {
		query += ` WHERE state = ?`
		args = append(args, state)
	}
	query += ` ORDER BY afi IS NULL, afi DESC, position ASC LIMIT ?`
	args = append(args, limit)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query districts: %w", err)
	}
	defer rows.Close()

	var out []models.District
	for rows.Next() {
		var d models.District
		var afi, bio, child, load, vol, enrol sql.NullFloat64
		if err := rows.Scan(&d.Position, &d.Name, &d.State, &afi, &bio, &child, &load, &vol, &enrol); err != nil {
			return nil, fmt.Errorf("failed to scan district: %w", err)
		}
		if afi.Valid {
			d.AFI = afi.Float64
		}
		d.BioScore = ptr(bio)
		d.ChildExclusionScore = ptr(child)
		d.OverloadScore = ptr(load)
		d.AvgDailyVol = ptr(vol)
		d.TotalEnrol = ptr(enrol)
		out = append(out, d)
	}
	return out, rows.Err()
}

// StateSummaries aggregates district counts and AFI per state.
func (c *Client) StateSummaries(ctx context.Context) ([]models.StateSummary, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT state, COUNT(*), AVG(afi), MAX(afi)
		FROM districts
		GROUP BY state
		ORDER BY AVG(afi) DESC, state ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query states: %w", err)
	}
	defer rows.Close()

	var out []models.StateSummary
	for rows.Next() {
		var s models.StateSummary
		var avg, peak sql.NullFloat64
		if err := rows.Scan(&s.State, &s.Districts, &avg, &peak); err != nil {
			return nil, fmt.Errorf("failed to scan state: %w", err)
		}
		s.AvgAFI = avg.Float64
		s.MaxAFI = peak.Float64
		out = append(out, s)
	}
	return out, rows.Err()
}

// RecordLoad appends a reconciliation report to the load history.
func (c *Client) RecordLoad(ctx context.Context, report models.ReconciliationReport) error {
	cacheHit := 0
	if report.CacheHit {
		cacheHit = 1
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO load_history (outcome, primary_path, pattern, files, rows_total, matched_rows,
			unknown_rows, cache_hit, error, duration_ms, loaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		string(report.Outcome),
		report.PrimaryPath,
		report.Pattern,
		strings.Join(report.Files, "\n"),
		report.Rows,
		report.MatchedRows,
		report.UnknownRows,
		cacheHit,
		report.Error,
		report.DurationMS,
		report.LoadedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record load: %w", err)
	}
	return nil
}

// LoadHistory returns the most recent reconciliation reports, newest first.
func (c *Client) LoadHistory(ctx context.Context, limit int) ([]models.ReconciliationReport, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT outcome, primary_path, pattern, files, rows_total, matched_rows, unknown_rows,
			cache_hit, error, duration_ms, loaded_at
		FROM load_history
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query load history: %w", err)
	}
	defer rows.Close()

	var out []models.ReconciliationReport
	for rows.Next() {
		var (
			r        models.ReconciliationReport
			outcome  string
			files    string
			cacheHit int
			loadedAt int64
		)
		err := rows.Scan(&outcome, &r.PrimaryPath, &r.Pattern, &files, &r.Rows, &r.MatchedRows,
			&r.UnknownRows, &cacheHit, &r.Error, &r.DurationMS, &loadedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan load: %w", err)
		}
		r.Outcome = models.ReconciliationOutcome(outcome)
		if files != "" {
			r.Files = strings.Split(files, "\n")
		}
		r.CacheHit = cacheHit == 1
		r.LoadedAt = time.UnixMilli(loadedAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullable(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func ptr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
