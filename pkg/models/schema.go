package models

import "context"

// GenericType is the portable column type every driver-specific type is
// coerced into before leaving the engine.
type GenericType string

const (
	TypeBoolean   GenericType = "boolean"
	TypeInteger   GenericType = "integer"
	TypeDecimal   GenericType = "decimal"
	TypeDate      GenericType = "date"
	TypeTimestamp GenericType = "timestamp"
	TypeText      GenericType = "text"
)

// IsNumeric reports whether values of this type sort numerically.
func (t GenericType) IsNumeric() bool {
	return t == TypeInteger || t == TypeDecimal
}

// ColumnDescriptor describes a single column in a known table.
type ColumnDescriptor struct {
	Name     string      `json:"name"`
	Type     GenericType `json:"type"`
	Nullable bool        `json:"nullable"`
}

// TableDescriptor describes a known table and its columns.
type TableDescriptor struct {
	Name    string             `json:"name"`
	Columns []ColumnDescriptor `json:"columns"`
}

// ColumnNames returns the column names in declaration order.
func (t TableDescriptor) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// SchemaProvider supplies the current set of known tables and columns.
// Implementations return a fresh snapshot per call; the engine never mutates
// the snapshot and treats staleness as the provider's responsibility.
type SchemaProvider interface {
	Tables(ctx context.Context) ([]TableDescriptor, error)
}

// StaticSchemaProvider is a SchemaProvider over a fixed table list.
// Used by in-process file registries and in tests.
type StaticSchemaProvider struct {
	TableList []TableDescriptor
}

// Tables returns the fixed table list.
func (p *StaticSchemaProvider) Tables(_ context.Context) ([]TableDescriptor, error) {
	return p.TableList, nil
}
