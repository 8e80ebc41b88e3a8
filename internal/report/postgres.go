package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/pressbot/pressbot/internal/pipeline"
	"github.com/pressbot/pressbot/pkg/config"
	"github.com/pressbot/pressbot/pkg/errors"
)

// PostgresSink stores pipeline runs and their stage results for the
// dashboard.
type PostgresSink struct {
	db *sqlx.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS pipeline_runs (
	run_id            TEXT PRIMARY KEY,
	started_at        TIMESTAMPTZ NOT NULL,
	total_duration_ms BIGINT NOT NULL,
	outcome           TEXT NOT NULL,
	config_snapshot   JSONB
);

CREATE TABLE IF NOT EXISTS pipeline_stage_results (
	run_id      TEXT NOT NULL REFERENCES pipeline_runs(run_id) ON DELETE CASCADE,
	position    INT NOT NULL,
	stage_name  TEXT NOT NULL,
	status      TEXT NOT NULL,
	duration_ms BIGINT NOT NULL,
	error       TEXT,
	PRIMARY KEY (run_id, position)
);
`

// NewPostgresSink connects to Postgres and ensures the report schema exists
func NewPostgresSink(cfg *config.DatabaseConfig) (*PostgresSink, error) {
	if cfg == nil {
		return nil, errors.NewValidationError("database configuration is required")
	}

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=10",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode,
	)

	db, err := sqlx.Connect("postgres", connStr)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to connect to database").WithCause(err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.NewDatabaseError("failed to ensure report schema").WithCause(err)
	}

	return &PostgresSink{db: db}, nil
}

// Close closes the database connection
func (s *PostgresSink) Close() error {
	return s.db.Close()
}

// Health checks the database connection
func (s *PostgresSink) Health(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errors.NewDatabaseError("report store health check failed").WithCause(err)
	}
	return nil
}

// Persist stores the run and its stage rows in one transaction
func (s *PostgresSink) Persist(ctx context.Context, report *pipeline.Report) error {
	snapshot, err := json.Marshal(report.ConfigSnapshot)
	if err != nil {
		return errors.NewInternalError("failed to serialize config snapshot").WithCause(err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.NewDatabaseError("failed to begin report transaction").WithCause(err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO pipeline_runs (run_id, started_at, total_duration_ms, outcome, config_snapshot)
		VALUES ($1, $2, $3, $4, $5)`,
		report.RunID, report.Timestamp, report.TotalDurationMS, report.Outcome, snapshot,
	)
	if err != nil {
		return errors.NewDatabaseError("failed to insert pipeline run").WithCause(err)
	}

	for i, stage := range report.Stages {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO pipeline_stage_results (run_id, position, stage_name, status, duration_ms, error)
			VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))`,
			report.RunID, i, stage.StageName, stage.Status, stage.DurationMS, stage.Error,
		)
		if err != nil {
			return errors.NewDatabaseError("failed to insert stage result").WithCause(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewDatabaseError("failed to commit report transaction").WithCause(err)
	}
	return nil
}

// RunSummary is one row of the dashboard's run listing
type RunSummary struct {
	RunID           string    `db:"run_id" json:"run_id"`
	StartedAt       time.Time `db:"started_at" json:"started_at"`
	TotalDurationMS int64     `db:"total_duration_ms" json:"total_duration_ms"`
	Outcome         string    `db:"outcome" json:"outcome"`
}

// StageRow is one stored stage result
type StageRow struct {
	StageName  string         `db:"stage_name" json:"stage_name"`
	Status     string         `db:"status" json:"status"`
	DurationMS int64          `db:"duration_ms" json:"duration_ms"`
	Error      sql.NullString `db:"error" json:"-"`
}

// ListRuns returns the most recent runs, newest first
func (s *PostgresSink) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []RunSummary
	err := s.db.SelectContext(ctx, &runs, `
		SELECT run_id, started_at, total_duration_ms, outcome
		FROM pipeline_runs
		ORDER BY started_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list pipeline runs").WithCause(err)
	}
	return runs, nil
}

// GetRun returns one run with its stage results
func (s *PostgresSink) GetRun(ctx context.Context, runID string) (*RunSummary, []StageRow, error) {
	var run RunSummary
	err := s.db.GetContext(ctx, &run, `
		SELECT run_id, started_at, total_duration_ms, outcome
		FROM pipeline_runs WHERE run_id = $1`, runID)
	if err == sql.ErrNoRows {
		return nil, nil, errors.NewValidationError("pipeline run not found").WithStatusCode(404)
	}
	if err != nil {
		return nil, nil, errors.NewDatabaseError("failed to load pipeline run").WithCause(err)
	}

	var stages []StageRow
	err = s.db.SelectContext(ctx, &stages, `
		SELECT stage_name, status, duration_ms, error
		FROM pipeline_stage_results
		WHERE run_id = $1
		ORDER BY position`, runID)
	if err != nil {
		return nil, nil, errors.NewDatabaseError("failed to load stage results").WithCause(err)
	}

	return &run, stages, nil
}
