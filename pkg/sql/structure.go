package sql

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/datachat-io/engine/pkg/models"
)

var (
	limitClausePattern = regexp.MustCompile(`(?i)\blimit\s+(\d+)`)
	subqueryPattern    = regexp.MustCompile(`\(([^()]*)\)`)
	groupByPattern     = regexp.MustCompile(`(?i)\bgroup\s+by\s+(.+?)(\border\s+by\b|\bhaving\b|\blimit\b|;|$)`)
)

// CheckStructure is the tier-2 structural validator. It checks result-shape
// constraints on a statement that already passed tier 1: the LIMIT ceiling,
// dangerous keywords hidden inside subqueries, GROUP BY/SELECT agreement, and
// catalog FROM/JOIN targets. It never consults the live schema.
func CheckStructure(sqlText string, maxRows int) models.ValidationOutcome {
	reject := func(msg string) models.ValidationOutcome {
		return models.ValidationOutcome{Valid: false, Tier: 2, Error: msg}
	}

	// (a) Explicit LIMIT must not exceed the row cap. A constant too large
	// to parse is over the cap by definition.
	for _, m := range limitClausePattern.FindAllStringSubmatch(sqlText, -1) {
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil || n > int64(maxRows) {
			return reject(fmt.Sprintf("LIMIT %s exceeds the maximum of %d rows", m[1], maxRows))
		}
	}

	// (b) Re-scan parenthesized subqueries for dangerous keywords. Tier 1
	// already scanned the whole statement; this catches keywords assembled
	// across clause boundaries inside nested expressions.
	for _, m := range subqueryPattern.FindAllStringSubmatch(sqlText, -1) {
		inner := m[1]
		for _, kw := range dangerousKeywords {
			if keywordPatterns[kw].MatchString(inner) {
				return reject(fmt.Sprintf("dangerous keyword in subquery: %s", kw))
			}
		}
	}

	// (c) GROUP BY agreement: every non-aggregate SELECT column must appear
	// in the GROUP BY list.
	if missing := missingGroupByColumns(sqlText); len(missing) > 0 {
		return reject(fmt.Sprintf(
			"columns in SELECT must appear in GROUP BY: %s", strings.Join(missing, ", ")))
	}

	// (d) FROM/JOIN targets must not be catalog or system tables.
	for _, ref := range extractTableRefs(sqlText) {
		lower := strings.ToLower(ref.Name)
		for _, prefix := range catalogPrefixes {
			if strings.HasPrefix(lower, prefix) {
				return reject(fmt.Sprintf("system table not allowed as query target: %s", ref.Name))
			}
		}
	}

	return models.ValidationOutcome{Valid: true, Tier: 2}
}

// missingGroupByColumns returns SELECT columns absent from the GROUP BY list.
// Columns are matched by bare name, ignoring table qualifiers, which mirrors
// how the statement was generated in the first place.
func missingGroupByColumns(sqlText string) []string {
	m := groupByPattern.FindStringSubmatch(sqlText)
	if m == nil {
		return nil
	}

	grouped := make(map[string]bool)
	for _, col := range strings.Split(m[1], ",") {
		col = strings.TrimSpace(col)
		col = qualifierPattern.ReplaceAllString(col, "")
		col = strings.Trim(col, `"`)
		if col != "" {
			grouped[strings.ToLower(col)] = true
		}
	}

	var missing []string
	for _, col := range ParseSelectColumns(sqlText) {
		if col.Aggregate || col.BareName == "" {
			continue
		}
		if !grouped[strings.ToLower(col.BareName)] {
			missing = append(missing, col.BareName)
		}
	}
	return missing
}
