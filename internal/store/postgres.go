package store

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/proppant-cli/internal/db"
	"github.com/sells-group/proppant-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns, minConns := int32(10), int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = min(minConns, maxConns)
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	input       TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	params      JSONB,
	diagnostics JSONB,
	tables      JSONB,
	error       TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS aggregates (
	run_id                   TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	table_name               TEXT NOT NULL,
	row_idx                  INTEGER NOT NULL,
	quarter                  TEXT NOT NULL,
	basin                    TEXT NOT NULL DEFAULT '',
	state                    TEXT NOT NULL DEFAULT '',
	county                   TEXT NOT NULL DEFAULT '',
	product_category         TEXT NOT NULL DEFAULT '',
	total_mass               DOUBLE PRECISION NOT NULL,
	tracked_entity_mass      DOUBLE PRECISION NOT NULL,
	total_water              DOUBLE PRECISION NOT NULL,
	unique_job_count         INTEGER NOT NULL,
	tracked_job_count        INTEGER NOT NULL,
	market_share             DOUBLE PRECISION NOT NULL,
	avg_mass_per_job         DOUBLE PRECISION NOT NULL,
	tracked_avg_mass_per_job DOUBLE PRECISION NOT NULL,
	revenue                  JSONB,
	PRIMARY KEY (run_id, table_name, row_idx)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// SaveRun inserts the run row and COPYs every aggregate row inside one
// transaction.
func (s *PostgresStore) SaveRun(ctx context.Context, run model.Run, tables map[string][]model.QuarterlyAggregate) (string, error) {
	run = prepareRun(run, tables)
	now := time.Now().UTC()
	enc, err := encodeRun(run)
	if err != nil {
		return "", err
	}

	var rows [][]any
	for _, name := range sortedTableNames(tables) {
		for i, r := range tables[name] {
			args, err := aggregateArgs(run.ID, name, i, r)
			if err != nil {
				return "", err
			}
			rows = append(rows, args)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx,
		`INSERT INTO runs (id, input, status, params, diagnostics, tables, error, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		run.ID, run.Input, string(run.Status), enc.params, enc.diagnostics, enc.tables, run.Error, now, now,
	)
	if err != nil {
		return "", eris.Wrapf(err, "postgres: insert run %s", run.ID)
	}
	if _, err := db.CopyFrom(ctx, tx, "aggregates", aggregateColumns, rows); err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", eris.Wrap(err, "postgres: commit")
	}
	return run.ID, nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, input, status, params, diagnostics, tables, error, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	)
	r, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get run")
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, input, status, params, diagnostics, tables, error, created_at, updated_at FROM runs`
	args := []any{}
	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(filter.Status))
	}
	args = append(args, filter.limit(), max(filter.Offset, 0))
	query += ` ORDER BY created_at DESC, id LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) GetAggregates(ctx context.Context, runID, table string) ([]model.QuarterlyAggregate, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+selectAggregateColumns+` FROM aggregates WHERE run_id = $1 AND table_name = $2 ORDER BY row_idx`,
		runID, table,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get aggregates %s/%s", runID, table)
	}
	defer rows.Close()

	var out []model.QuarterlyAggregate
	for rows.Next() {
		r, err := scanAggregate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: get aggregates iterate")
	}
	if len(out) == 0 {
		run, err := s.GetRun(ctx, runID)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(run.Tables, table) {
			return nil, eris.Wrapf(ErrNotFound, "postgres: table %s in run %s", table, runID)
		}
	}
	return out, nil
}
