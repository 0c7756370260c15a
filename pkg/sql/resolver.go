package sql

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/datachat-io/engine/pkg/fuzzy"
)

// Resolution is the output of a fuzzy resolver pass: the (possibly rewritten)
// SQL and a human-readable explanation of every substitution made.
type Resolution struct {
	SQL      string
	Mappings []string
}

var (
	qualifiedColumnPattern = regexp.MustCompile(`\b([A-Za-z_][\w$]*)\.([A-Za-z_][\w$]*)\b`)
	quotedTokenPattern     = regexp.MustCompile(`"([^"]+)"`)
)

// Resolve walks a raw SQL string and rewrites table and column identifiers
// that nearly miss the known schema, using the fuzzy matcher. Tables are
// matched against knownTables; columns against the column set of their
// resolved table, or the union of all columns when unqualified. SQL keywords
// are never touched. Running Resolve on its own output is a no-op once every
// identifier matches exactly.
func Resolve(sqlText string, knownTables []string, columnsByTable map[string][]string) Resolution {
	res := Resolution{SQL: sqlText}

	// Pass 1: table identifiers following FROM/JOIN.
	resolvedTables := make([]string, 0, len(knownTables))
	for _, ref := range extractTableRefs(res.SQL) {
		if canonical, ok := findFold(knownTables, ref.Name); ok {
			resolvedTables = append(resolvedTables, canonical)
			continue
		}
		match := fuzzy.MatchName(ref.Name, knownTables, sqlText)
		if match.Matched == "" || strings.EqualFold(match.Matched, ref.Name) {
			continue
		}
		res.SQL = replaceIdentifier(res.SQL, ref.Name, match.Matched)
		res.Mappings = append(res.Mappings,
			fmt.Sprintf("table %q corrected to %q (%s)", ref.Name, match.Matched, match.Reason))
		resolvedTables = append(resolvedTables, match.Matched)
	}

	// Column candidates: the resolved tables' columns, or everything when no
	// table reference resolved.
	if len(resolvedTables) == 0 {
		resolvedTables = knownTables
	}
	var allColumns []string
	seen := make(map[string]bool)
	for _, t := range resolvedTables {
		for _, c := range columnsForTable(columnsByTable, t) {
			if key := strings.ToLower(c); !seen[key] {
				seen[key] = true
				allColumns = append(allColumns, c)
			}
		}
	}

	// Pass 2: qualified column tokens (table.column or alias.column). Only
	// the column part is ever rewritten; the qualifier may be an alias.
	for _, m := range qualifiedColumnPattern.FindAllStringSubmatch(res.SQL, -1) {
		qualifier, column := m[1], m[2]
		if isKeyword(column) || isKeyword(qualifier) {
			continue
		}
		candidates := allColumns
		if canonical, ok := findFold(resolvedTables, qualifier); ok {
			candidates = columnsForTable(columnsByTable, canonical)
		}
		if _, ok := findFold(candidates, column); ok {
			continue
		}
		match := fuzzy.MatchName(column, candidates, sqlText)
		if match.Matched == "" || strings.EqualFold(match.Matched, column) {
			continue
		}
		res.SQL = strings.ReplaceAll(res.SQL, m[0], qualifier+"."+match.Matched)
		res.Mappings = append(res.Mappings,
			fmt.Sprintf("column %q corrected to %q (%s)", column, match.Matched, match.Reason))
	}

	// Pass 3: quoted identifiers.
	for _, m := range quotedTokenPattern.FindAllStringSubmatch(res.SQL, -1) {
		token := m[1]
		if isKeyword(token) {
			continue
		}
		if _, ok := findFold(resolvedTables, token); ok {
			continue
		}
		if _, ok := findFold(allColumns, token); ok {
			continue
		}
		match := fuzzy.MatchName(token, allColumns, sqlText)
		if match.Matched == "" || strings.EqualFold(match.Matched, token) {
			continue
		}
		res.SQL = strings.ReplaceAll(res.SQL, `"`+token+`"`, `"`+match.Matched+`"`)
		res.Mappings = append(res.Mappings,
			fmt.Sprintf("column %q corrected to %q (%s)", token, match.Matched, match.Reason))
	}

	// Pass 4: bare SELECT-list references.
	for _, col := range ParseSelectColumns(res.SQL) {
		name := col.BareName
		if name == "" || isKeyword(name) {
			continue
		}
		if _, ok := findFold(allColumns, name); ok {
			continue
		}
		match := fuzzy.MatchName(name, allColumns, sqlText)
		if match.Matched == "" || strings.EqualFold(match.Matched, name) {
			continue
		}
		res.SQL = replaceIdentifier(res.SQL, name, match.Matched)
		res.Mappings = append(res.Mappings,
			fmt.Sprintf("column %q corrected to %q (%s)", name, match.Matched, match.Reason))
	}

	return res
}

// findFold returns the canonical spelling of name within list, matched
// case-insensitively.
func findFold(list []string, name string) (string, bool) {
	for _, item := range list {
		if strings.EqualFold(item, name) {
			return item, true
		}
	}
	return "", false
}

func columnsForTable(columnsByTable map[string][]string, table string) []string {
	if cols, ok := columnsByTable[table]; ok {
		return cols
	}
	// Fall back to a case-insensitive key lookup.
	for k, cols := range columnsByTable {
		if strings.EqualFold(k, table) {
			return cols
		}
	}
	return nil
}
