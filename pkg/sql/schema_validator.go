package sql

import (
	"context"
	"fmt"
	"strings"

	"github.com/datachat-io/engine/pkg/models"
)

const maxTableHints = 10

// CheckAgainstSchema is the tier-3 schema validator. Every FROM/JOIN table
// reference must resolve against the provider's snapshot: exact
// (case-insensitive) matches pass, references that are an underscore-joined
// prefix or extension of a known table (the naming convention for
// uploaded-file tables) are silently rewritten, and anything else fails with
// the available table names as a hint. Column references are then corrected
// best-effort via the fuzzy resolver; a column that cannot be resolved does
// not fail validation here. The caller's post-execution column check owns
// that rejection.
func CheckAgainstSchema(ctx context.Context, sqlText string, provider models.SchemaProvider) models.ValidationOutcome {
	reject := func(msg string) models.ValidationOutcome {
		return models.ValidationOutcome{Valid: false, Tier: 3, Error: msg}
	}

	tables, err := provider.Tables(ctx)
	if err != nil {
		return reject(fmt.Sprintf("schema provider error: %v", err))
	}

	knownNames := make([]string, len(tables))
	columnsByTable := make(map[string][]string, len(tables))
	for i, t := range tables {
		knownNames[i] = t.Name
		columnsByTable[t.Name] = t.ColumnNames()
	}

	corrected := sqlText
	resolved := make([]string, 0, len(tables))
	for _, ref := range extractTableRefs(corrected) {
		if canonical, ok := findFold(knownNames, ref.Name); ok {
			resolved = append(resolved, canonical)
			continue
		}
		if canonical, ok := suffixMatch(ref.Name, knownNames); ok {
			corrected = replaceIdentifier(corrected, ref.Name, canonical)
			resolved = append(resolved, canonical)
			continue
		}
		return reject(fmt.Sprintf(
			"unknown table %q; available tables: %s", ref.Name, tableHints(knownNames)))
	}

	// Column-level correction over the resolved tables' column sets.
	resolution := Resolve(corrected, resolved, columnsByTable)
	corrected = resolution.SQL

	// A rewrite must never have produced a malformed qualified name.
	if strings.Contains(corrected, "..") {
		return reject("malformed qualified name after identifier resolution")
	}

	outcome := models.ValidationOutcome{Valid: true, Tier: 3}
	if corrected != sqlText {
		outcome.CorrectedSQL = corrected
	}
	return outcome
}

// suffixMatch resolves a table reference that is a strict underscore-joined
// prefix or extension of a known table name. Uploaded spreadsheets land in
// tables suffixed with a timestamp (sales_data_1699999999), and generated SQL
// routinely drops the suffix.
func suffixMatch(ref string, known []string) (string, bool) {
	lowerRef := strings.ToLower(ref)
	for _, k := range known {
		lowerKnown := strings.ToLower(k)
		if strings.HasPrefix(lowerKnown, lowerRef+"_") || strings.HasPrefix(lowerRef, lowerKnown+"_") {
			return k, true
		}
	}
	return "", false
}

func tableHints(known []string) string {
	if len(known) == 0 {
		return "(none)"
	}
	n := len(known)
	if n > maxTableHints {
		n = maxTableHints
	}
	return strings.Join(known[:n], ", ")
}
