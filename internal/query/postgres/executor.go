package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/clockchat/clockchat/internal/query"
)

type Config struct {
	DSN          string
	QueryTimeout time.Duration
	MaxRows      int
	MaxOpenConns int
	MaxIdleConns int
}

const (
	defaultQueryTimeout = 10 * time.Second
	defaultMaxRows      = 1000
)

// Executor runs statements against the analytics database with a per-query
// timeout and a hard row cap.
type Executor struct {
	db      *sql.DB
	timeout time.Duration
	maxRows int
}

func Open(ctx context.Context, cfg Config) (*Executor, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("analytics dsn is required")
	}

	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open analytics db: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping analytics db: %w", err)
	}

	return NewExecutor(db, cfg.QueryTimeout, cfg.MaxRows), nil
}

func NewExecutor(db *sql.DB, timeout time.Duration, maxRows int) *Executor {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	if maxRows <= 0 {
		maxRows = defaultMaxRows
	}
	return &Executor{db: db, timeout: timeout, maxRows: maxRows}
}

func (e *Executor) HealthCheck(ctx context.Context) error {
	if err := e.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping analytics db: %w", err)
	}
	return nil
}

func (e *Executor) Execute(ctx context.Context, statement string) (query.ResultSet, error) {
	queryCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	rows, err := e.db.QueryContext(queryCtx, statement)
	if err != nil {
		return query.ResultSet{}, fmt.Errorf("execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return query.ResultSet{}, fmt.Errorf("read result columns: %w", err)
	}

	result := query.ResultSet{Columns: columns, Rows: make([]query.Row, 0)}
	for rows.Next() {
		if len(result.Rows) == e.maxRows {
			result.Truncated = true
			break
		}
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return query.ResultSet{}, fmt.Errorf("scan result row: %w", err)
		}
		row := make(query.Row, len(columns))
		for i, column := range columns {
			if raw, ok := values[i].([]byte); ok {
				row[column] = string(raw)
				continue
			}
			row[column] = values[i]
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return query.ResultSet{}, fmt.Errorf("iterate result rows: %w", err)
	}
	return result, nil
}

func (e *Executor) Close() error {
	return e.db.Close()
}
