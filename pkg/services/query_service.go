// Package services orchestrates the validation-then-execution pipeline for a
// single untrusted SQL statement.
package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/datachat-io/engine/pkg/adapters/datasource"
	"github.com/datachat-io/engine/pkg/config"
	"github.com/datachat-io/engine/pkg/logging"
	"github.com/datachat-io/engine/pkg/models"
	"github.com/datachat-io/engine/pkg/sql"
)

// QueryService runs untrusted, machine-generated SQL through the three
// validation tiers, the numeric-sort safety net, and the sanitizer before
// handing it to the bounded executor. Each request operates on its own SQL
// string and its own schema snapshot; the service holds no mutable state.
type QueryService struct {
	schema   models.SchemaProvider
	executor datasource.BoundedExecutor
	limits   config.QueryLimitsConfig
	logger   *zap.Logger
}

// NewQueryService wires the pipeline. If logger is nil, a no-op logger is
// used.
func NewQueryService(schema models.SchemaProvider, executor datasource.BoundedExecutor, limits config.QueryLimitsConfig, logger *zap.Logger) *QueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryService{
		schema:   schema,
		executor: executor,
		limits:   limits,
		logger:   logger,
	}
}

// Validate runs tiers 1 through 3 in order, fail-fast: a statement that
// violates a tier-1 rule is reported with tier 1 even when later tiers would
// also reject it.
func (s *QueryService) Validate(ctx context.Context, sqlText string) models.ValidationOutcome {
	return s.validate(ctx, sqlText, s.schema)
}

func (s *QueryService) validate(ctx context.Context, sqlText string, schema models.SchemaProvider) models.ValidationOutcome {
	if outcome := sql.CheckSyntaxAndSafety(sqlText); !outcome.Valid {
		return outcome
	}
	if outcome := sql.CheckStructure(sqlText, s.limits.MaxRows); !outcome.Valid {
		return outcome
	}
	return sql.CheckAgainstSchema(ctx, sqlText, schema)
}

// Run validates and, when validation passes, executes the statement. The
// user's natural-language question gates the numeric-sort rewrite. On
// validation failure the SQL is discarded and the execution outcome stays
// empty; the validation outcome carries the reason.
func (s *QueryService) Run(ctx context.Context, sqlText, userQuery string) (models.ValidationOutcome, models.ExecutionOutcome) {
	queryID := uuid.New().String()
	log := s.logger.With(zap.String("query_id", queryID))

	// One schema snapshot per request: every tier and the safety net see the
	// same view of the world.
	tables, err := s.schema.Tables(ctx)
	if err != nil {
		log.Warn("schema snapshot failed", zap.Error(err))
		return models.ValidationOutcome{
			Valid: false,
			Tier:  3,
			Error: "schema provider error: " + err.Error(),
		}, emptyExecution()
	}
	snapshot := &models.StaticSchemaProvider{TableList: tables}

	validation := s.validate(ctx, sqlText, snapshot)
	if !validation.Valid {
		log.Info("validation rejected",
			zap.Int("tier", validation.Tier),
			zap.String("reason", validation.Error),
			zap.String("query", logging.SanitizeQuery(sqlText)))
		return validation, emptyExecution()
	}

	finalSQL := sqlText
	if validation.CorrectedSQL != "" {
		finalSQL = validation.CorrectedSQL
		log.Info("identifiers corrected", zap.String("query", logging.SanitizeQuery(finalSQL)))
	}

	var allColumns []models.ColumnDescriptor
	for _, t := range tables {
		allColumns = append(allColumns, t.Columns...)
	}
	finalSQL = sql.ApplyNumericSortGuard(finalSQL, userQuery, allColumns)
	finalSQL = sql.EnsureBounded(finalSQL, s.limits.MaxRows)

	execution := s.executor.Execute(ctx, finalSQL)
	if execution.Error != "" {
		log.Warn("execution failed", zap.String("error", execution.Error))
	} else {
		log.Debug("execution succeeded", zap.Int("rows", len(execution.Rows)))
	}
	return validation, execution
}

func emptyExecution() models.ExecutionOutcome {
	return models.ExecutionOutcome{
		Rows:    []map[string]any{},
		Columns: []models.ResultColumn{},
	}
}
