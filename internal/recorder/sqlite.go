package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"RiskForecast/internal/model"
)

// SQLiteRecorder persists runs to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log *zap.Logger) (*SQLiteRecorder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS report_runs (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			symbol         TEXT NOT NULL,
			start_date     TEXT,
			end_date       TEXT,
			observations   INTEGER,
			horizon        INTEGER,
			risk_free_rate REAL,
			provider       TEXT,
			chart_path     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_symbol_ts ON report_runs(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS report_metrics (
			run_id   INTEGER NOT NULL REFERENCES report_runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			name     TEXT NOT NULL,
			value    REAL,
			PRIMARY KEY (run_id, position)
		)`,

		`CREATE TABLE IF NOT EXISTS forecast_points (
			run_id     INTEGER NOT NULL REFERENCES report_runs(id) ON DELETE CASCADE,
			ds         TEXT NOT NULL,
			yhat       REAL,
			yhat_lower REAL,
			yhat_upper REAL,
			PRIMARY KEY (run_id, ds)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// nullable stores NaN as NULL; SQLite has no NaN.
func nullable(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: !math.IsNaN(v)}
}

// RecordRun stores one run with its metrics and forecast rows in a single
// transaction and returns the run id.
func (r *SQLiteRecorder) RecordRun(ctx context.Context, rec *model.RunRecord) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	ranAt := rec.RanAt
	if ranAt.IsZero() {
		ranAt = time.Now()
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO report_runs
		(timestamp, symbol, start_date, end_date, observations, horizon, risk_free_rate, provider, chart_path)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		ranAt.Unix(), rec.Symbol,
		rec.StartDate.Format(time.DateOnly), rec.EndDate.Format(time.DateOnly),
		rec.Observations, rec.Horizon, rec.RiskFreeRate, rec.Provider, rec.ChartPath,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	if rec.Report != nil {
		for i, m := range rec.Report.Metrics {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO report_metrics (run_id, position, name, value) VALUES (?,?,?,?)`,
				runID, i, m.Name, nullable(m.Value)); err != nil {
				return 0, fmt.Errorf("insert metric %q: %w", m.Name, err)
			}
		}
	}

	if rec.Forecast != nil {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO forecast_points (run_id, ds, yhat, yhat_lower, yhat_upper) VALUES (?,?,?,?,?)`)
		if err != nil {
			return 0, fmt.Errorf("prepare forecast insert: %w", err)
		}
		defer stmt.Close()
		for _, p := range rec.Forecast.Points {
			if _, err := stmt.ExecContext(ctx, runID, p.Date.Format(time.DateOnly),
				nullable(p.Yhat), nullable(p.YhatLower), nullable(p.YhatUpper)); err != nil {
				return 0, fmt.Errorf("insert forecast point: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return runID, nil
}

// RecentRuns returns up to limit runs for symbol, newest first.
func (r *SQLiteRecorder) RecentRuns(ctx context.Context, symbol string, limit int) ([]RunSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.QueryContext(ctx, `SELECT id, timestamp, symbol, observations, horizon, provider, chart_path
		FROM report_runs WHERE symbol = ? ORDER BY timestamp DESC, id DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	var runs []RunSummary
	for rows.Next() {
		var s RunSummary
		var ts int64
		if err := rows.Scan(&s.ID, &ts, &s.Symbol, &s.Observations, &s.Horizon, &s.Provider, &s.ChartPath); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan run: %w", err)
		}
		s.RanAt = time.Unix(ts, 0)
		runs = append(runs, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		metrics, err := r.loadMetrics(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Metrics = metrics
	}
	return runs, nil
}

func (r *SQLiteRecorder) loadMetrics(ctx context.Context, runID int64) ([]model.Metric, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, value FROM report_metrics WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()

	var out []model.Metric
	for rows.Next() {
		var name string
		var v sql.NullFloat64
		if err := rows.Scan(&name, &v); err != nil {
			return nil, fmt.Errorf("scan metric: %w", err)
		}
		value := math.NaN()
		if v.Valid {
			value = v.Float64
		}
		out = append(out, model.Metric{Name: name, Value: value})
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}
