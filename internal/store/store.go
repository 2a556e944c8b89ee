// Package store persists analysis runs and their aggregate tables.
package store

import (
	"context"
	"errors"
	"slices"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/proppant-cli/internal/model"
	"github.com/sells-group/proppant-cli/internal/resilience"
)

// ErrNotFound is returned when a run or table does not exist.
var ErrNotFound = errors.New("not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

const defaultListLimit = 100

func (f RunFilter) limit() int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}

// Store defines the persistence interface for analysis runs.
type Store interface {
	// SaveRun writes the run and every table in one transaction and returns
	// the run ID. A blank run.ID is assigned.
	SaveRun(ctx context.Context, run model.Run, tables map[string][]model.QuarterlyAggregate) (string, error)
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)
	// GetAggregates returns a table's rows in their saved order.
	GetAggregates(ctx context.Context, runID, table string) ([]model.QuarterlyAggregate, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Driver      string `mapstructure:"driver"`
	DatabaseURL string `mapstructure:"database_url"`
	MaxConns    int32  `mapstructure:"max_conns"`
	MinConns    int32  `mapstructure:"min_conns"`
}

// New opens the configured backend and runs its migration. Connection and
// migration failures that look transient are retried with backoff.
func New(ctx context.Context, cfg Config) (Store, error) {
	var open func(ctx context.Context) (Store, error)
	switch cfg.Driver {
	case "", "sqlite":
		open = func(context.Context) (Store, error) { return NewSQLite(cfg.DatabaseURL) }
	case "postgres":
		open = func(ctx context.Context) (Store, error) {
			return NewPostgres(ctx, cfg.DatabaseURL, &PoolConfig{MaxConns: cfg.MaxConns, MinConns: cfg.MinConns})
		}
	default:
		return nil, eris.Wrapf(model.ErrInvalidConfig, "store: unknown driver %q", cfg.Driver)
	}

	var s Store
	err := resilience.Do(ctx, resilience.DefaultRetryConfig(), "store open", func(ctx context.Context) error {
		st, err := open(ctx)
		if err != nil {
			return err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close() //nolint:errcheck
			return err
		}
		s = st
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func sortedTableNames(tables map[string][]model.QuarterlyAggregate) []string {
	names := make([]string, 0, len(tables))
	for n := range tables {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// prepareRun fills the defaults SaveRun applies: an ID, complete status and
// the table list.
func prepareRun(run model.Run, tables map[string][]model.QuarterlyAggregate) model.Run {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.Status == "" {
		run.Status = model.RunStatusComplete
	}
	if len(run.Tables) == 0 {
		run.Tables = sortedTableNames(tables)
	}
	return run
}
