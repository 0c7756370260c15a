//go:build integration

package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datachat-io/engine/pkg/config"
	"github.com/datachat-io/engine/pkg/database"
	"github.com/datachat-io/engine/pkg/models"
	"github.com/datachat-io/engine/pkg/testhelpers"
)

func integrationDB(t *testing.T) *database.DB {
	t.Helper()
	tdb := testhelpers.GetTestDB(t)
	require.NoError(t, testhelpers.SeedAnalyticsTables(context.Background(), tdb.Pool))
	return &database.DB{Pool: tdb.Pool}
}

func TestExecutor_SelectRows(t *testing.T) {
	db := integrationDB(t)
	exec := NewExecutor(db, config.QueryLimitsConfig{MaxRows: 5000, QueryTimeoutMs: 5000}, nil)

	outcome := exec.Execute(context.Background(), "SELECT city, population FROM cities ORDER BY city")
	require.Empty(t, outcome.Error)
	require.Len(t, outcome.Rows, 3)
	require.Len(t, outcome.Columns, 2)

	assert.Equal(t, "city", outcome.Columns[0].Name)
	assert.Equal(t, models.TypeText, outcome.Columns[0].Type)
	assert.Equal(t, models.TypeInteger, outcome.Columns[1].Type)

	assert.Equal(t, "Austin", outcome.Rows[0]["city"])
	assert.Equal(t, float64(960000), outcome.Rows[0]["population"])
}

func TestExecutor_RowCap(t *testing.T) {
	db := integrationDB(t)
	exec := NewExecutor(db, config.QueryLimitsConfig{MaxRows: 2, QueryTimeoutMs: 5000}, nil)

	outcome := exec.Execute(context.Background(), "SELECT city FROM cities")
	require.Empty(t, outcome.Error)
	assert.Len(t, outcome.Rows, 2)
}

func TestExecutor_Timeout(t *testing.T) {
	db := integrationDB(t)
	exec := NewExecutor(db, config.QueryLimitsConfig{MaxRows: 5000, QueryTimeoutMs: 100}, nil)

	outcome := exec.Execute(context.Background(), "SELECT pg_sleep(5)")
	assert.Equal(t, "Query execution exceeded maximum time limit.", outcome.Error)
	assert.Empty(t, outcome.Rows)
	assert.Empty(t, outcome.Columns)
}

func TestExecutor_DriverErrorSurfacesInOutcome(t *testing.T) {
	db := integrationDB(t)
	exec := NewExecutor(db, config.QueryLimitsConfig{MaxRows: 5000, QueryTimeoutMs: 5000}, nil)

	outcome := exec.Execute(context.Background(), "SELECT nope FROM does_not_exist")
	assert.NotEmpty(t, outcome.Error)
	assert.Empty(t, outcome.Rows)
}

func TestExecutor_SecondStatementDiscarded(t *testing.T) {
	db := integrationDB(t)
	exec := NewExecutor(db, config.QueryLimitsConfig{MaxRows: 5000, QueryTimeoutMs: 5000}, nil)

	outcome := exec.Execute(context.Background(), "SELECT city FROM cities; DROP TABLE cities")
	require.Empty(t, outcome.Error)
	assert.Len(t, outcome.Rows, 3)

	// The table must have survived.
	again := exec.Execute(context.Background(), "SELECT city FROM cities")
	require.Empty(t, again.Error)
	assert.Len(t, again.Rows, 3)
}

func TestExecutor_DateAndTextAmountNormalization(t *testing.T) {
	db := integrationDB(t)
	exec := NewExecutor(db, config.QueryLimitsConfig{MaxRows: 5000, QueryTimeoutMs: 5000}, nil)

	outcome := exec.Execute(context.Background(),
		"SELECT product, amount, sold_on FROM sales_data_1699999999 WHERE product = 'widget'")
	require.Empty(t, outcome.Error)
	require.Len(t, outcome.Rows, 1)

	assert.Equal(t, "19.99", outcome.Rows[0]["amount"])
	assert.Equal(t, "2024-01-15", outcome.Rows[0]["sold_on"])
}

func TestExecutor_EmptyResult(t *testing.T) {
	db := integrationDB(t)
	exec := NewExecutor(db, config.QueryLimitsConfig{MaxRows: 5000, QueryTimeoutMs: 5000}, nil)

	outcome := exec.Execute(context.Background(), "SELECT city FROM cities WHERE city = 'Nowhere'")
	require.Empty(t, outcome.Error)
	assert.NotNil(t, outcome.Rows)
	assert.Empty(t, outcome.Rows)
}

func TestSchemaProvider_Tables(t *testing.T) {
	db := integrationDB(t)
	provider := NewSchemaProvider(db, nil)

	tables, err := provider.Tables(context.Background())
	require.NoError(t, err)

	byName := make(map[string]models.TableDescriptor)
	for _, tbl := range tables {
		byName[tbl.Name] = tbl
	}

	cities, ok := byName["cities"]
	require.True(t, ok, "cities table missing from snapshot")
	colTypes := make(map[string]models.GenericType)
	for _, c := range cities.Columns {
		colTypes[c.Name] = c.Type
	}
	assert.Equal(t, models.TypeText, colTypes["city"])
	assert.Equal(t, models.TypeInteger, colTypes["population"])

	sales, ok := byName["sales_data_1699999999"]
	require.True(t, ok, "sales table missing from snapshot")
	assert.Equal(t, []string{"id", "product", "amount", "sold_on"}, sales.ColumnNames())

	for _, tbl := range tables {
		assert.NotContains(t, tbl.Name, "pg_")
	}
}
