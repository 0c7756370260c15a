package sql

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var trailingLimitPattern = regexp.MustCompile(`(?i)\blimit\s+(\d+)(\s+offset\s+\d+)?\s*$`)

// EnsureBounded guarantees a SELECT statement carries a LIMIT no greater than
// maxRows: an oversized existing LIMIT is rewritten down to the cap, a
// missing one is appended after the last clause present. Non-SELECT
// statements pass through untouched, as does a trailing semicolon.
// EnsureBounded is idempotent.
func EnsureBounded(sqlText string, maxRows int) string {
	trimmed := strings.TrimSpace(sqlText)
	if !strings.HasPrefix(strings.ToLower(trimmed), "select") {
		return sqlText
	}

	hadSemicolon := strings.HasSuffix(strings.TrimRight(trimmed, " \t\n\r"), ";")
	body := stripTrailingSemicolon(trimmed)

	if m := trailingLimitPattern.FindStringSubmatch(body); m != nil {
		// A constant that fails to parse is over the cap by definition.
		n, err := strconv.Atoi(m[1])
		if err != nil || n > maxRows {
			capped := fmt.Sprintf("LIMIT %d%s", maxRows, m[2])
			body = body[:len(body)-len(m[0])] + capped
		}
	} else {
		// LIMIT is syntactically last, so appending places it after whichever
		// closing clause the statement has (ORDER BY, HAVING, GROUP BY,
		// WHERE, or the bare SELECT).
		body = body + fmt.Sprintf(" LIMIT %d", maxRows)
	}

	if hadSemicolon {
		return body + ";"
	}
	return body
}
