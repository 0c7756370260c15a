package sql

import (
	"regexp"
	"strings"
)

// sqlKeywords are tokens that must never be treated as identifiers, even when
// they happen to resemble a table or column name.
var sqlKeywords = map[string]bool{
	"select": true, "from": true, "where": true, "group": true, "by": true,
	"order": true, "limit": true, "offset": true, "having": true,
	"join": true, "inner": true, "left": true, "right": true, "outer": true,
	"full": true, "cross": true, "on": true, "as": true, "and": true,
	"or": true, "not": true, "in": true, "like": true, "ilike": true,
	"between": true, "case": true, "when": true, "then": true, "else": true,
	"end": true, "asc": true, "desc": true, "distinct": true, "all": true,
	"union": true, "null": true, "is": true, "cast": true, "exists": true,
	"count": true, "sum": true, "avg": true, "min": true, "max": true,
	"stddev": true, "variance": true, "coalesce": true, "nullif": true,
	"true": true, "false": true,
}

// isKeyword reports whether a token is a reserved SQL word.
func isKeyword(token string) bool {
	return sqlKeywords[strings.ToLower(token)]
}

// tableRefPattern captures identifiers following FROM or JOIN, with optional
// double quoting. Subqueries open with a parenthesis and are not captured.
var tableRefPattern = regexp.MustCompile(`(?i)\b(from|join)\s+("?[A-Za-z_][A-Za-z0-9_.$]*"?)`)

// tableRef is one FROM/JOIN target found in a statement.
type tableRef struct {
	Raw    string // token as written, quotes included
	Name   string // unquoted name
	Quoted bool
}

// extractTableRefs returns every FROM/JOIN table target in the statement.
// Aliases are not included; only the target identifier itself.
func extractTableRefs(sqlText string) []tableRef {
	matches := tableRefPattern.FindAllStringSubmatch(sqlText, -1)
	refs := make([]tableRef, 0, len(matches))
	seen := make(map[string]bool)
	for _, m := range matches {
		raw := m[2]
		name := strings.Trim(raw, `"`)
		if name == "" || isKeyword(name) {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		refs = append(refs, tableRef{Raw: raw, Name: name, Quoted: strings.HasPrefix(raw, `"`)})
	}
	return refs
}

// hasSemicolonOutsideStrings returns true if the SQL contains any semicolon
// outside of string literals and quoted identifiers.
func hasSemicolonOutsideStrings(sqlText string) bool {
	return firstSemicolonOutsideStrings(sqlText) >= 0
}

// firstSemicolonOutsideStrings returns the index of the first semicolon not
// inside a single- or double-quoted region, or -1 when there is none.
// Handles both backslash escapes (\') and SQL standard doubled quotes ('').
func firstSemicolonOutsideStrings(sqlText string) int {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
	)

	state := stateNormal
	prev := rune(0)

	for i, ch := range sqlText {
		switch state {
		case stateNormal:
			switch ch {
			case ';':
				return i
			case '\'':
				state = stateSingleQuote
			case '"':
				state = stateDoubleQuote
			}
		case stateSingleQuote:
			// A doubled quote ('') exits and immediately re-enters on the
			// next quote, which keeps us inside the literal.
			if ch == '\'' && prev != '\\' {
				state = stateNormal
			}
		case stateDoubleQuote:
			if ch == '"' && prev != '\\' {
				state = stateNormal
			}
		}
		prev = ch
	}

	return -1
}

// countSemicolonsOutsideStrings counts statement separators that are not part
// of a string literal or quoted identifier.
func countSemicolonsOutsideStrings(sqlText string) int {
	count := 0
	rest := sqlText
	offset := 0
	for {
		idx := firstSemicolonOutsideStrings(rest)
		if idx < 0 {
			return count
		}
		count++
		offset = idx + 1
		rest = rest[offset:]
	}
}

// stripTrailingSemicolon removes a trailing semicolon and surrounding
// whitespace.
func stripTrailingSemicolon(sqlText string) string {
	sqlText = strings.TrimRight(sqlText, " \t\n\r")
	if strings.HasSuffix(sqlText, ";") {
		sqlText = strings.TrimRight(strings.TrimSuffix(sqlText, ";"), " \t\n\r")
	}
	return sqlText
}

// TruncateToSingleStatement strips a trailing semicolon and cuts the text at
// the first remaining semicolon outside string literals, so a smuggled second
// statement can never reach the driver.
func TruncateToSingleStatement(sqlText string) string {
	body := stripTrailingSemicolon(strings.TrimSpace(sqlText))
	if idx := firstSemicolonOutsideStrings(body); idx >= 0 {
		body = strings.TrimSpace(body[:idx])
	}
	return body
}

// replaceIdentifier substitutes every whole-word occurrence of an identifier,
// case-insensitively, leaving longer identifiers that merely contain it
// untouched.
func replaceIdentifier(sqlText, from, to string) string {
	if from == to {
		return sqlText
	}
	pattern := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(from) + `\b`)
	return pattern.ReplaceAllString(sqlText, to)
}
