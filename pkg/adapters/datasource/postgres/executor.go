package postgres

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/datachat-io/engine/pkg/adapters/datasource"
	"github.com/datachat-io/engine/pkg/config"
	"github.com/datachat-io/engine/pkg/database"
	"github.com/datachat-io/engine/pkg/logging"
	"github.com/datachat-io/engine/pkg/models"
	"github.com/datachat-io/engine/pkg/sql"
)

// timeoutMessage is the user-visible text for a query that ran past its
// wall-clock budget.
const timeoutMessage = "Query execution exceeded maximum time limit."

// Executor runs validated statements against PostgreSQL under a wall-clock
// timeout and row cap, normalizing every cell into the portable value model.
type Executor struct {
	db      *database.DB
	timeout time.Duration
	maxRows int
	logger  *zap.Logger
}

// NewExecutor creates a bounded PostgreSQL executor over an existing pool.
// If logger is nil, a no-op logger is used.
func NewExecutor(db *database.DB, limits config.QueryLimitsConfig, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		db:      db,
		timeout: time.Duration(limits.QueryTimeoutMs) * time.Millisecond,
		maxRows: limits.MaxRows,
		logger:  logger,
	}
}

// Execute runs a single statement. Anything after the first semicolon is
// discarded before the driver sees the text, the query races a wall-clock
// timeout, and driver failures surface as outcome errors, never as Go errors.
func (e *Executor) Execute(ctx context.Context, sqlQuery string) models.ExecutionOutcome {
	stmt := sql.TruncateToSingleStatement(sqlQuery)
	if stmt == "" {
		return models.ExecutionOutcome{
			Rows:    []map[string]any{},
			Columns: []models.ResultColumn{},
			Error:   "empty SQL statement",
		}
	}

	execCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	rows, err := e.db.Query(execCtx, stmt)
	if err != nil {
		return e.failure(execCtx, stmt, err)
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]models.ResultColumn, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = models.ResultColumn{
			Name: string(fd.Name),
			Type: genericTypeFromOID(fd.DataTypeOID),
		}
	}

	resultRows := make([]map[string]any, 0)
	for rows.Next() {
		if len(resultRows) >= e.maxRows {
			break
		}
		values, err := rows.Values()
		if err != nil {
			return e.failure(execCtx, stmt, err)
		}
		rowMap := make(map[string]any, len(columns))
		for i, col := range columns {
			rowMap[col.Name] = normalizeValue(values[i], col.Type)
		}
		resultRows = append(resultRows, rowMap)
	}
	if err := rows.Err(); err != nil {
		return e.failure(execCtx, stmt, err)
	}

	e.logger.Debug("query executed",
		zap.String("query", logging.SanitizeQuery(stmt)),
		zap.Int("rows", len(resultRows)),
		zap.Duration("elapsed", time.Since(start)))

	if len(resultRows) == 0 {
		return models.ExecutionOutcome{
			Rows:    []map[string]any{},
			Columns: []models.ResultColumn{},
		}
	}

	return models.ExecutionOutcome{Rows: resultRows, Columns: columns}
}

// failure maps a driver error to an outcome. A deadline hit becomes the
// fixed timeout message; everything else passes through for diagnosis, with
// credentials scrubbed.
func (e *Executor) failure(ctx context.Context, stmt string, err error) models.ExecutionOutcome {
	msg := logging.SanitizeError(err)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		msg = timeoutMessage
	}

	e.logger.Warn("query failed",
		zap.String("query", logging.SanitizeQuery(stmt)),
		zap.String("error", msg))

	return models.ExecutionOutcome{
		Rows:    []map[string]any{},
		Columns: []models.ResultColumn{},
		Error:   msg,
	}
}

// Close is a no-op: the pool is owned by the caller that constructed it.
func (e *Executor) Close() error {
	return nil
}

var _ datasource.BoundedExecutor = (*Executor)(nil)
