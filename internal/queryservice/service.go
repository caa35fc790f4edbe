// Package queryservice implements the query-execution service: it validates a
// structured query specification, assembles SQL and runs it against Postgres.
package queryservice

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"orderboard_agent/internal/logger"
	"orderboard_agent/internal/sqlgen"
	"orderboard_agent/pkg"
)

const maxLimit = 1000

// QueryPayload is the inbound query specification. Select is required; the
// other clauses are optional.
type QueryPayload struct {
	Select  []string `json:"select"`
	Where   []string `json:"where,omitempty"`
	GroupBy []string `json:"group_by,omitempty"`
	OrderBy []string `json:"order_by,omitempty"`
	Limit   int      `json:"limit,omitempty"`
}

// Validate checks the payload's structural rules before SQL assembly.
func (p QueryPayload) Validate() error {
	if len(p.Select) == 0 {
		return fmt.Errorf("select is required and must contain at least one field")
	}
	if p.Limit < 0 {
		return fmt.Errorf("limit must be greater than 0")
	}
	if p.Limit > maxLimit {
		return fmt.Errorf("limit must not exceed %d", maxLimit)
	}
	return nil
}

// Service assembles and executes order queries.
type Service struct {
	pool *pgxpool.Pool
}

// NewService creates a service backed by the given connection pool.
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// Connect opens a pgx pool against databaseURL and verifies connectivity.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Execute validates the payload, builds the SQL statement and runs it. Rows
// come back as column-name maps so the agent can serve them untouched.
func (s *Service) Execute(ctx context.Context, payload QueryPayload) (*pkg.ExecuteResult, error) {
	if err := payload.Validate(); err != nil {
		return nil, pkg.NewPipelineError(pkg.StageValidation, pkg.KindClientError, err)
	}

	builder := sqlgen.NewBuilder().
		Select(payload.Select).
		Where(payload.Where).
		GroupBy(payload.GroupBy).
		OrderBy(payload.OrderBy).
		Limit(payload.Limit)

	sql, err := builder.Build()
	if err != nil {
		return nil, pkg.NewPipelineError(pkg.StageValidation, pkg.KindClientError, err)
	}

	logger.Debug().Str("sql", sql).Msg("executing query")

	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, pkg.NewPipelineError(pkg.StageExecute, pkg.KindInternal,
			fmt.Errorf("query execution failed: %w", err))
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	data := make([]map[string]any, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, pkg.NewPipelineError(pkg.StageExecute, pkg.KindInternal,
				fmt.Errorf("read row: %w", err))
		}
		row := make(map[string]any, len(fields))
		for i, field := range fields {
			row[field.Name] = values[i]
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, pkg.NewPipelineError(pkg.StageExecute, pkg.KindInternal,
			fmt.Errorf("query execution failed: %w", err))
	}

	return &pkg.ExecuteResult{
		Success: true,
		Data:    data,
		Count:   len(data),
		SQL:     sql,
	}, nil
}
