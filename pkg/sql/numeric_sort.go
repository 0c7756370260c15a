package sql

import (
	"regexp"
	"strings"

	"github.com/datachat-io/engine/pkg/models"
)

// topBottomKeywords are the natural-language markers of a "top/bottom N"
// question. Only such questions get the numeric-sort rewrite. Keywords match
// as whole words, so "top" inside "laptop" or "stopped" does not count.
var topBottomKeywords = []string{
	"top", "highest", "most expensive", "largest", "biggest",
	"lowest", "smallest", "cheapest", "bottom",
}

var topBottomPatterns = compileIntentPatterns(topBottomKeywords)

func compileIntentPatterns(keywords []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(keywords))
	for i, kw := range keywords {
		patterns[i] = regexp.MustCompile(`\b` + strings.ReplaceAll(regexp.QuoteMeta(kw), " ", `\s+`) + `\b`)
	}
	return patterns
}

// numericNamePattern flags columns whose name implies numeric content even
// when the declared type is text. Spreadsheet imports routinely store numbers
// as text, and sorting those lexicographically puts 9 above 10.
var numericNamePattern = regexp.MustCompile(
	`(?i)(amount|total|revenue|price|cost|count|quantity|qty|value|score|sales|salary|population|size|number)`)

var orderByPattern = regexp.MustCompile(`(?i)\border\s+by\s+(.+?)(\s+limit\b.*|\s*;|\s*$)`)

// ApplyNumericSortGuard rewrites ORDER BY targets to force numeric casting
// when the user's question asks for a top/bottom ranking and the sort column
// is numeric by declared type or by name. A target already wrapped in a CAST
// is left alone, and ASC/DESC direction is preserved. Without top/bottom
// intent the statement passes through untouched.
func ApplyNumericSortGuard(sqlText, userQuery string, columns []models.ColumnDescriptor) string {
	if !hasTopBottomIntent(userQuery) {
		return sqlText
	}

	m := orderByPattern.FindStringSubmatchIndex(sqlText)
	if m == nil {
		return sqlText
	}
	targetsStart, targetsEnd := m[2], m[3]
	targets := sqlText[targetsStart:targetsEnd]

	byName := make(map[string]models.ColumnDescriptor, len(columns))
	for _, c := range columns {
		byName[strings.ToLower(c.Name)] = c
	}

	parts := strings.Split(targets, ",")
	changed := false
	for i, part := range parts {
		rewritten, ok := castSortTarget(part, byName)
		if ok {
			parts[i] = rewritten
			changed = true
		}
	}
	if !changed {
		return sqlText
	}

	return sqlText[:targetsStart] + strings.Join(parts, ",") + sqlText[targetsEnd:]
}

func hasTopBottomIntent(userQuery string) bool {
	lower := strings.ToLower(userQuery)
	for _, p := range topBottomPatterns {
		if p.MatchString(lower) {
			return true
		}
	}
	return false
}

var sortTargetPattern = regexp.MustCompile(`(?i)^(\s*)("?[\w$]+"?(?:\."?[\w$]+"?)?)(\s+(?:asc|desc))?(\s*)$`)

// castSortTarget rewrites one ORDER BY target to CAST(col AS DOUBLE
// PRECISION) when the column qualifies, returning the rewritten target and
// whether a rewrite happened.
func castSortTarget(target string, byName map[string]models.ColumnDescriptor) (string, bool) {
	if strings.Contains(strings.ToLower(target), "cast(") {
		return target, false
	}

	m := sortTargetPattern.FindStringSubmatch(target)
	if m == nil {
		return target, false
	}
	leading, ref, direction, trailing := m[1], m[2], m[3], m[4]

	bare := ref
	if idx := strings.LastIndex(bare, "."); idx != -1 {
		bare = bare[idx+1:]
	}
	bare = strings.Trim(bare, `"`)
	if isKeyword(bare) {
		return target, false
	}

	numeric := numericNamePattern.MatchString(bare)
	if desc, ok := byName[strings.ToLower(bare)]; ok {
		numeric = numeric || desc.Type.IsNumeric()
	}
	if !numeric {
		return target, false
	}

	return leading + "CAST(" + ref + " AS DOUBLE PRECISION)" + direction + trailing, true
}
