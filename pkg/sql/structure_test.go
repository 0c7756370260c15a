package sql

import (
	"strings"
	"testing"
)

func TestCheckStructure_LimitCeiling(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		maxRows int
		valid   bool
	}{
		{name: "no limit", sql: "SELECT * FROM cities", maxRows: 5000, valid: true},
		{name: "limit under cap", sql: "SELECT * FROM cities LIMIT 100", maxRows: 5000, valid: true},
		{name: "limit at cap", sql: "SELECT * FROM cities LIMIT 5000", maxRows: 5000, valid: true},
		{name: "limit over cap", sql: "SELECT * FROM cities LIMIT 9999", maxRows: 5000, valid: false},
		{name: "oversized limit in subquery", sql: "SELECT * FROM (SELECT * FROM cities LIMIT 6000) sub LIMIT 10", maxRows: 5000, valid: false},
		{name: "limit too large to parse", sql: "SELECT * FROM cities LIMIT 99999999999999999999", maxRows: 5000, valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := CheckStructure(tt.sql, tt.maxRows)
			if outcome.Valid != tt.valid {
				t.Errorf("valid = %v, want %v (error: %s)", outcome.Valid, tt.valid, outcome.Error)
			}
			if outcome.Tier != 2 {
				t.Errorf("expected tier 2, got %d", outcome.Tier)
			}
			if !tt.valid && !strings.Contains(outcome.Error, "LIMIT") {
				t.Errorf("expected LIMIT in error, got %q", outcome.Error)
			}
		})
	}
}

func TestCheckStructure_SubqueryKeywords(t *testing.T) {
	outcome := CheckStructure("SELECT * FROM logs WHERE id IN (SELECT id FROM audit WHERE action = copy)", 5000)
	if outcome.Valid {
		t.Fatal("expected rejection")
	}
	if !strings.Contains(outcome.Error, "dangerous keyword in subquery: COPY") {
		t.Errorf("unexpected error: %q", outcome.Error)
	}
}

func TestCheckStructure_GroupByAgreement(t *testing.T) {
	tests := []struct {
		name        string
		sql         string
		valid       bool
		wantMissing string
	}{
		{
			name:  "all selected columns grouped",
			sql:   "SELECT city, COUNT(*) FROM cities GROUP BY city",
			valid: true,
		},
		{
			name:        "ungrouped column",
			sql:         "SELECT city, state, COUNT(*) FROM cities GROUP BY city",
			valid:       false,
			wantMissing: "state",
		},
		{
			name:  "qualified references match by bare name",
			sql:   "SELECT c.city FROM cities c GROUP BY c.city",
			valid: true,
		},
		{
			name:  "aggregates are exempt",
			sql:   "SELECT state, SUM(population), AVG(population) FROM cities GROUP BY state",
			valid: true,
		},
		{
			name:  "group by with trailing order by",
			sql:   "SELECT state, COUNT(*) FROM cities GROUP BY state ORDER BY state",
			valid: true,
		},
		{
			name:  "no group by clause",
			sql:   "SELECT city, state FROM cities",
			valid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := CheckStructure(tt.sql, 5000)
			if outcome.Valid != tt.valid {
				t.Errorf("valid = %v, want %v (error: %s)", outcome.Valid, tt.valid, outcome.Error)
			}
			if tt.wantMissing != "" && !strings.Contains(outcome.Error, tt.wantMissing) {
				t.Errorf("expected %q named in error, got %q", tt.wantMissing, outcome.Error)
			}
		})
	}
}

func TestCheckStructure_CatalogTargets(t *testing.T) {
	tests := []struct {
		sql   string
		valid bool
	}{
		{sql: "SELECT * FROM pg_catalog.pg_tables", valid: false},
		{sql: "SELECT * FROM information_schema.columns", valid: false},
		{sql: "SELECT * FROM cities JOIN pg_stat_activity ON true", valid: false},
		{sql: "SELECT * FROM cities", valid: true},
	}

	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			outcome := CheckStructure(tt.sql, 5000)
			if outcome.Valid != tt.valid {
				t.Errorf("valid = %v, want %v (error: %s)", outcome.Valid, tt.valid, outcome.Error)
			}
		})
	}
}
