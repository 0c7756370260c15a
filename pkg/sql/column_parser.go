package sql

import (
	"regexp"
	"strings"
)

// aggregateFunctions are the functions whose arguments are exempt from the
// GROUP BY agreement rule.
var aggregateFunctions = map[string]bool{
	"count": true, "sum": true, "avg": true, "max": true, "min": true,
	"stddev": true, "variance": true,
}

// SelectColumn is one entry of a SELECT list.
type SelectColumn struct {
	Expr      string // full expression as written (e.g. "SUM(amount)")
	Name      string // output name: alias if present, else the bare column name
	BareName  string // unqualified, unquoted column name for plain references
	Aggregate bool   // wrapped in an aggregate function
}

var (
	aliasPattern     = regexp.MustCompile(`(?i)\s+as\s+("?[\w]+"?)\s*$`)
	funcCallPattern  = regexp.MustCompile(`^(\w+)\s*\(`)
	plainRefPattern  = regexp.MustCompile(`^"?[\w$]+"?(\."?[\w$]+"?)?$`)
	qualifierPattern = regexp.MustCompile(`^.*\.`)
)

// ParseSelectColumns extracts the SELECT list of a statement. It is a
// regex-based heuristic, not a parser: it handles plain columns, aliases,
// qualified references, and aggregate calls, and assumes the statement has
// already passed lexical validation. SELECT * yields an empty list because
// the columns cannot be known without a schema.
func ParseSelectColumns(sqlText string) []SelectColumn {
	sqlText = strings.TrimSpace(sqlText)
	lower := strings.ToLower(sqlText)

	selectIdx := strings.Index(lower, "select")
	if selectIdx == -1 {
		return nil
	}

	// The SELECT list ends at the first top-level clause keyword.
	endIdx := len(sqlText)
	for _, kw := range []string{" from ", " where ", " group ", " order ", " limit ", " having ", ";"} {
		if idx := strings.Index(lower[selectIdx:], kw); idx != -1 && selectIdx+idx < endIdx {
			endIdx = selectIdx + idx
		}
	}

	clause := strings.TrimSpace(sqlText[selectIdx+len("select") : endIdx])
	clause = strings.TrimSpace(strings.TrimPrefix(clause, "DISTINCT"))
	clause = strings.TrimSpace(strings.TrimPrefix(clause, "distinct"))
	if strings.HasPrefix(clause, "*") {
		return nil
	}

	var result []SelectColumn
	for _, raw := range splitSelectList(clause) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		result = append(result, parseSelectColumn(raw))
	}
	return result
}

// splitSelectList splits a SELECT list on commas, respecting parentheses so
// that function arguments stay together.
func splitSelectList(clause string) []string {
	var columns []string
	var current strings.Builder
	depth := 0

	for _, ch := range clause {
		switch ch {
		case '(':
			depth++
			current.WriteRune(ch)
		case ')':
			depth--
			current.WriteRune(ch)
		case ',':
			if depth == 0 {
				columns = append(columns, current.String())
				current.Reset()
			} else {
				current.WriteRune(ch)
			}
		default:
			current.WriteRune(ch)
		}
	}
	if current.Len() > 0 {
		columns = append(columns, current.String())
	}
	return columns
}

func parseSelectColumn(expr string) SelectColumn {
	col := SelectColumn{Expr: expr}

	body := expr
	if m := aliasPattern.FindStringSubmatch(expr); m != nil {
		col.Name = strings.Trim(m[1], `"`)
		body = strings.TrimSpace(expr[:len(expr)-len(m[0])])
	}

	if m := funcCallPattern.FindStringSubmatch(body); m != nil {
		col.Aggregate = aggregateFunctions[strings.ToLower(m[1])]
		if col.Name == "" {
			col.Name = strings.ToLower(m[1])
		}
		return col
	}

	if plainRefPattern.MatchString(body) {
		bare := qualifierPattern.ReplaceAllString(body, "")
		bare = strings.Trim(bare, `"`)
		col.BareName = bare
		if col.Name == "" {
			col.Name = bare
		}
	}

	return col
}
