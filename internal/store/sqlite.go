package store

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/proppant-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	input       TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	params      TEXT,
	diagnostics TEXT,
	tables      TEXT,
	error       TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
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
	total_mass               REAL NOT NULL,
	tracked_entity_mass      REAL NOT NULL,
	total_water              REAL NOT NULL,
	unique_job_count         INTEGER NOT NULL,
	tracked_job_count        INTEGER NOT NULL,
	market_share             REAL NOT NULL,
	avg_mass_per_job         REAL NOT NULL,
	tracked_avg_mass_per_job REAL NOT NULL,
	revenue                  TEXT,
	PRIMARY KEY (run_id, table_name, row_idx)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run model.Run, tables map[string][]model.QuarterlyAggregate) (string, error) {
	run = prepareRun(run, tables)
	now := time.Now().UTC()
	enc, err := encodeRun(run)
	if err != nil {
		return "", err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, input, status, params, diagnostics, tables, error, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Input, string(run.Status), string(enc.params), string(enc.diagnostics), string(enc.tables), run.Error, now, now,
	)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: insert run %s", run.ID)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO aggregates (`+strings.Join(aggregateColumns, ", ")+`)
		 VALUES (`+strings.TrimSuffix(strings.Repeat("?, ", len(aggregateColumns)), ", ")+`)`)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: prepare aggregate insert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, name := range sortedTableNames(tables) {
		for i, r := range tables[name] {
			args, err := aggregateArgs(run.ID, name, i, r)
			if err != nil {
				return "", err
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return "", eris.Wrapf(err, "sqlite: insert %s row %d", name, i)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", eris.Wrap(err, "sqlite: commit")
	}
	return run.ID, nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, input, status, params, diagnostics, tables, error, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: run %s", runID)
	}
	return r, err
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, input, status, params, diagnostics, tables, error, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, filter.limit())
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) GetAggregates(ctx context.Context, runID, table string) ([]model.QuarterlyAggregate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectAggregateColumns+` FROM aggregates WHERE run_id = ? AND table_name = ? ORDER BY row_idx`,
		runID, table,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get aggregates %s/%s", runID, table)
	}
	defer rows.Close() //nolint:errcheck

	var out []model.QuarterlyAggregate
	for rows.Next() {
		r, err := scanAggregate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: get aggregates iterate")
	}
	if len(out) == 0 {
		run, err := s.GetRun(ctx, runID)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(run.Tables, table) {
			return nil, eris.Wrapf(ErrNotFound, "sqlite: table %s in run %s", table, runID)
		}
	}
	return out, nil
}

func scanRun(row scannable) (*model.Run, error) {
	var (
		r      model.Run
		status string
		enc    runJSON
	)
	err := row.Scan(&r.ID, &r.Input, &status, &enc.params, &enc.diagnostics, &enc.tables, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, eris.Wrap(err, "store: scan run")
	}
	r.Status = model.RunStatus(status)
	if err := enc.decodeInto(&r); err != nil {
		return nil, err
	}
	return &r, nil
}
