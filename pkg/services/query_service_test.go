package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datachat-io/engine/pkg/config"
	"github.com/datachat-io/engine/pkg/models"
)

// recordingExecutor captures every statement handed to it and returns a
// canned outcome.
type recordingExecutor struct {
	received []string
	outcome  models.ExecutionOutcome
}

func (r *recordingExecutor) Execute(_ context.Context, sqlQuery string) models.ExecutionOutcome {
	r.received = append(r.received, sqlQuery)
	return r.outcome
}

func (r *recordingExecutor) Close() error { return nil }

type failingSchema struct{}

func (failingSchema) Tables(context.Context) ([]models.TableDescriptor, error) {
	return nil, errors.New("connection refused")
}

func testSchema() models.SchemaProvider {
	return &models.StaticSchemaProvider{
		TableList: []models.TableDescriptor{
			{
				Name: "cities",
				Columns: []models.ColumnDescriptor{
					{Name: "city", Type: models.TypeText},
					{Name: "state", Type: models.TypeText},
					{Name: "population", Type: models.TypeInteger},
				},
			},
			{
				Name: "sales_data_1699999999",
				Columns: []models.ColumnDescriptor{
					{Name: "product", Type: models.TypeText},
					{Name: "amount", Type: models.TypeText},
				},
			},
		},
	}
}

func testLimits() config.QueryLimitsConfig {
	return config.QueryLimitsConfig{MaxRows: 5000, QueryTimeoutMs: 5000}
}

func TestValidate_FailFastTierOrder(t *testing.T) {
	svc := NewQueryService(testSchema(), &recordingExecutor{}, testLimits(), nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		sql      string
		wantTier int
	}{
		{name: "lexical violation reported at tier 1", sql: "SELECT * FROM cities -- note", wantTier: 1},
		{name: "structural violation reported at tier 2", sql: "SELECT * FROM cities LIMIT 99999", wantTier: 2},
		{name: "schema violation reported at tier 3", sql: "SELECT * FROM unicorns", wantTier: 3},
		{
			name:     "lexical beats structural when both violated",
			sql:      "SELECT * FROM cities LIMIT 99999 -- note",
			wantTier: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := svc.Validate(ctx, tt.sql)
			require.False(t, outcome.Valid)
			assert.Equal(t, tt.wantTier, outcome.Tier)
			assert.NotEmpty(t, outcome.Error)
		})
	}
}

func TestValidate_CleanStatement(t *testing.T) {
	svc := NewQueryService(testSchema(), &recordingExecutor{}, testLimits(), nil)
	outcome := svc.Validate(context.Background(), "SELECT city FROM cities")
	require.True(t, outcome.Valid)
	assert.Empty(t, outcome.Error)
	assert.Empty(t, outcome.CorrectedSQL)
}

func TestRun_ExecutesSanitizedSQL(t *testing.T) {
	exec := &recordingExecutor{outcome: models.ExecutionOutcome{
		Rows:    []map[string]any{{"city": "Austin"}},
		Columns: []models.ResultColumn{{Name: "city", Type: models.TypeText}},
	}}
	svc := NewQueryService(testSchema(), exec, testLimits(), nil)

	validation, execution := svc.Run(context.Background(), "SELECT city FROM cities", "")
	require.True(t, validation.Valid)
	require.Len(t, exec.received, 1)
	assert.Equal(t, "SELECT city FROM cities LIMIT 5000", exec.received[0])
	assert.Len(t, execution.Rows, 1)
}

func TestRun_InvalidSQLNeverReachesExecutor(t *testing.T) {
	exec := &recordingExecutor{}
	svc := NewQueryService(testSchema(), exec, testLimits(), nil)

	validation, execution := svc.Run(context.Background(), "SELECT * FROM pg_tables", "")
	require.False(t, validation.Valid)
	assert.Equal(t, 1, validation.Tier)
	assert.Empty(t, exec.received)
	assert.Empty(t, execution.Rows)
	assert.Empty(t, execution.Columns)
	assert.Empty(t, execution.Error)
}

func TestRun_CorrectedIdentifiersFlowToExecutor(t *testing.T) {
	exec := &recordingExecutor{}
	svc := NewQueryService(testSchema(), exec, testLimits(), nil)

	validation, _ := svc.Run(context.Background(), "SELECT * FROM sales_data", "")
	require.True(t, validation.Valid)
	assert.Equal(t, "SELECT * FROM sales_data_1699999999", validation.CorrectedSQL)
	require.Len(t, exec.received, 1)
	assert.Equal(t, "SELECT * FROM sales_data_1699999999 LIMIT 5000", exec.received[0])
}

func TestRun_NumericSortGuardApplied(t *testing.T) {
	exec := &recordingExecutor{}
	svc := NewQueryService(testSchema(), exec, testLimits(), nil)

	sqlText := "SELECT product, amount FROM sales_data_1699999999 ORDER BY amount DESC"
	validation, _ := svc.Run(context.Background(), sqlText, "top products by amount")
	require.True(t, validation.Valid)
	require.Len(t, exec.received, 1)
	assert.Equal(t,
		"SELECT product, amount FROM sales_data_1699999999 ORDER BY CAST(amount AS DOUBLE PRECISION) DESC LIMIT 5000",
		exec.received[0])
}

func TestRun_NoRankingIntentLeavesSortAlone(t *testing.T) {
	exec := &recordingExecutor{}
	svc := NewQueryService(testSchema(), exec, testLimits(), nil)

	sqlText := "SELECT product, amount FROM sales_data_1699999999 ORDER BY amount DESC"
	_, _ = svc.Run(context.Background(), sqlText, "show all sales")
	require.Len(t, exec.received, 1)
	assert.Equal(t, sqlText+" LIMIT 5000", exec.received[0])
}

func TestRun_SchemaProviderFailure(t *testing.T) {
	exec := &recordingExecutor{}
	svc := NewQueryService(failingSchema{}, exec, testLimits(), nil)

	validation, execution := svc.Run(context.Background(), "SELECT city FROM cities", "")
	require.False(t, validation.Valid)
	assert.Equal(t, 3, validation.Tier)
	assert.Contains(t, validation.Error, "schema provider error")
	assert.Empty(t, exec.received)
	assert.Empty(t, execution.Rows)
}
