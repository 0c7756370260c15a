package models

// ValidationOutcome is the result of running a SQL statement through the
// validation tiers. When Valid is false, Error describes exactly one violated
// rule with enough context for the caller to retry. CorrectedSQL, when set,
// differs from the input only in identifier spelling or casing.
type ValidationOutcome struct {
	Valid        bool   `json:"valid"`
	Tier         int    `json:"tier"`
	Error        string `json:"error,omitempty"`
	CorrectedSQL string `json:"corrected_sql,omitempty"`
}

// ResultColumn describes one column of an execution result.
type ResultColumn struct {
	Name string      `json:"name"`
	Type GenericType `json:"type"`
}

// ExecutionOutcome is the result of executing a bounded query. Cell values
// are restricted to portable scalars: float64, string, bool, or nil.
// Rows and Columns are empty whenever Error is set.
type ExecutionOutcome struct {
	Rows    []map[string]any `json:"rows"`
	Columns []ResultColumn   `json:"columns"`
	Error   string           `json:"error,omitempty"`
}
