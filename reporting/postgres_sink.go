package reporting

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ethereum-optimism/infra/procbench/types"
)

const createSummariesTableSQL = `
CREATE TABLE IF NOT EXISTS procbench_summaries (
	id          BIGSERIAL PRIMARY KEY,
	run_id      TEXT NOT NULL,
	mean_cpu    DOUBLE PRECISION NOT NULL,
	stddev_cpu  DOUBLE PRECISION NOT NULL,
	mean_wss    DOUBLE PRECISION NOT NULL,
	stddev_wss  DOUBLE PRECISION NOT NULL,
	mean_pf     DOUBLE PRECISION NOT NULL,
	stddev_pf   DOUBLE PRECISION NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)
`

const insertSummarySQL = `
INSERT INTO procbench_summaries (run_id, mean_cpu, stddev_cpu, mean_wss, stddev_wss, mean_pf, stddev_pf)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`

// Execer is the subset of pgxpool.Pool the sink needs.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

var _ SummarySink = (*PostgresSink)(nil)

// PostgresSink appends batch summaries to a PostgreSQL table, keeping a
// queryable history next to the CSV log.
type PostgresSink struct {
	db    Execer
	close func()
}

// NewPostgresSink connects to dsn and makes sure the summaries table exists.
func NewPostgresSink(ctx context.Context, dsn string) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	sink, err := newPostgresSink(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	sink.close = pool.Close
	return sink, nil
}

func newPostgresSink(ctx context.Context, db Execer) (*PostgresSink, error) {
	if _, err := db.Exec(ctx, createSummariesTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create summaries table: %w", err)
	}
	return &PostgresSink{db: db}, nil
}

func (s *PostgresSink) Name() string {
	return "postgres"
}

func (s *PostgresSink) AppendSummary(ctx context.Context, summary *types.BatchSummary) error {
	_, err := s.db.Exec(ctx, insertSummarySQL,
		summary.RunID,
		summary.MeanCPU, summary.StddevCPU,
		summary.MeanWSS, summary.StddevWSS,
		summary.MeanPF, summary.StddevPF,
	)
	if err != nil {
		return fmt.Errorf("failed to insert summary: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresSink) Close() {
	if s.close != nil {
		s.close()
	}
}
