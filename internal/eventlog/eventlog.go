// Package eventlog records pipeline events in Postgres.
//
// The log is optional: the orchestrator works without one, and recording
// failures are logged, never propagated. It exists for after-the-fact
// analytics over sprints, stages, and checkpoints.
package eventlog

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Log wraps a Postgres connection pool.
type Log struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS pipeline_events (
    id         BIGSERIAL PRIMARY KEY,
    run_id     TEXT NOT NULL,
    event      TEXT NOT NULL,
    stage      TEXT,
    detail     TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_pipeline_events_run ON pipeline_events (run_id, created_at DESC);

CREATE TABLE IF NOT EXISTS stage_runs (
    id          BIGSERIAL PRIMARY KEY,
    run_id      TEXT NOT NULL,
    stage       TEXT NOT NULL,
    agent       TEXT NOT NULL,
    status      TEXT NOT NULL,
    duration_ms BIGINT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_stage_runs_run ON stage_runs (run_id, created_at DESC);
`

// Open connects to Postgres at dsn and applies the schema.
func Open(ctx context.Context, dsn string, logger *zap.Logger) (*Log, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect event log: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping event log: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply event log schema: %w", err)
	}
	return &Log{pool: pool, logger: logger}, nil
}

// Close releases the connection pool.
func (l *Log) Close() {
	if l != nil && l.pool != nil {
		l.pool.Close()
	}
}

// PipelineEvent records a pipeline-level event. Nil-safe and best-effort.
func (l *Log) PipelineEvent(ctx context.Context, runID, event, stage, detail string) {
	if l == nil || l.pool == nil {
		return
	}
	_, err := l.pool.Exec(ctx,
		`INSERT INTO pipeline_events (run_id, event, stage, detail) VALUES ($1, $2, $3, $4)`,
		runID, event, stage, detail)
	if err != nil {
		l.logger.Warn("failed to record pipeline event",
			zap.String("event", event), zap.Error(err))
	}
}

// StageRun records the outcome of a single stage execution. Nil-safe and
// best-effort.
func (l *Log) StageRun(ctx context.Context, runID, stage, agent, status string, duration time.Duration) {
	if l == nil || l.pool == nil {
		return
	}
	_, err := l.pool.Exec(ctx,
		`INSERT INTO stage_runs (run_id, stage, agent, status, duration_ms) VALUES ($1, $2, $3, $4, $5)`,
		runID, stage, agent, status, duration.Milliseconds())
	if err != nil {
		l.logger.Warn("failed to record stage run",
			zap.String("stage", stage), zap.Error(err))
	}
}
