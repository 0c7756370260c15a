// Package sql validates, corrects, and bounds machine-generated SQL before it
// is allowed anywhere near a database. Validation runs in three sequential
// tiers: a lexical denylist, a structural check, and a schema-aware check
// that auto-corrects near-miss identifiers. All results are carried in
// ValidationOutcome values; no tier panics or returns a Go error across its
// public boundary.
package sql

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/datachat-io/engine/pkg/models"
)

// dangerousKeywords disqualify a statement wherever they appear.
var dangerousKeywords = []string{
	"COMMENT", "EXEC", "EXECUTE", "CALL", "GRANT", "REVOKE",
	"MERGE", "COPY", "IMPORT", "EXPORT", "BACKUP", "RESTORE",
}

// allowedLeadingVerbs are the statement types the engine will consider at all.
var allowedLeadingVerbs = []string{
	"SELECT", "INSERT", "UPDATE", "DELETE", "CREATE", "ALTER", "DROP", "TRUNCATE",
}

// transactionKeywords are rejected because the engine owns transaction scope.
var transactionKeywords = []string{"BEGIN", "COMMIT", "ROLLBACK"}

// catalogPrefixes mark system-catalog access attempts.
var catalogPrefixes = []string{"pg_", "information_schema", "sys.", "master."}

// procedurePrefixes mark stored-procedure naming conventions.
var procedurePrefixes = []string{"xp_", "sp_"}

var (
	danglingComparisonPattern = regexp.MustCompile(`(?i)(=|<>|!=|<|>|<=|>=)\s*$`)
	danglingBoolOpPattern     = regexp.MustCompile(`(?i)\b(and|or|where)\s*$`)
	keywordPatterns           = compileKeywordPatterns(dangerousKeywords)
	transactionPatterns       = compileKeywordPatterns(transactionKeywords)
)

func compileKeywordPatterns(keywords []string) map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(keywords))
	for _, kw := range keywords {
		patterns[kw] = regexp.MustCompile(`(?i)\b` + kw + `\b`)
	}
	return patterns
}

// CheckSyntaxAndSafety is the tier-1 denylist validator. It rejects lexically
// dangerous statements before anything else runs. The first violated rule
// wins and later tiers never see the statement.
func CheckSyntaxAndSafety(sqlText string) models.ValidationOutcome {
	trimmed := strings.TrimSpace(sqlText)

	reject := func(msg string) models.ValidationOutcome {
		return models.ValidationOutcome{Valid: false, Tier: 1, Error: msg}
	}

	if trimmed == "" {
		return reject("empty SQL statement")
	}

	// (a) Malformed qualified names.
	if strings.Contains(trimmed, "..") {
		return reject("malformed qualified name: '..' is not allowed")
	}

	// (b) Incomplete WHERE clauses and boolean operator tails.
	body := stripTrailingSemicolon(trimmed)
	if danglingComparisonPattern.MatchString(body) {
		return reject("incomplete WHERE clause: statement ends with a dangling comparison operator")
	}
	if danglingBoolOpPattern.MatchString(body) {
		return reject("incomplete WHERE clause: statement ends with a dangling boolean operator")
	}
	if strings.Count(body, "(") != strings.Count(body, ")") {
		return reject("unbalanced parentheses in statement")
	}

	// (c) Dangerous keywords.
	for _, kw := range dangerousKeywords {
		if keywordPatterns[kw].MatchString(trimmed) {
			return reject(fmt.Sprintf("dangerous keyword not allowed: %s", kw))
		}
	}

	// (d) Suspicious patterns: comment markers, catalog access, stored
	// procedures, and injection-shaped string literals.
	if strings.Contains(trimmed, "--") || strings.Contains(trimmed, "/*") || strings.Contains(trimmed, "*/") {
		return reject("SQL comments are not allowed")
	}
	lower := strings.ToLower(trimmed)
	for _, prefix := range catalogPrefixes {
		if strings.Contains(lower, prefix) {
			return reject(fmt.Sprintf("system catalog access is not allowed: %s", prefix))
		}
	}
	for _, prefix := range procedurePrefixes {
		if strings.Contains(lower, prefix) {
			return reject(fmt.Sprintf("stored procedure access is not allowed: %s", prefix))
		}
	}
	if finding := CheckLiterals(trimmed); finding != nil {
		return reject(fmt.Sprintf("injection pattern detected in string literal (fingerprint %s)", finding.Fingerprint))
	}

	// (e) Statement must start with an allowed verb.
	if !startsWithAllowedVerb(lower) {
		return reject(fmt.Sprintf("statement must start with one of: %s", strings.Join(allowedLeadingVerbs, ", ")))
	}

	// (f) Multi-statement injection.
	if countSemicolonsOutsideStrings(trimmed) > 1 {
		return reject("multiple SQL statements are not allowed")
	}

	// (g) Transaction control.
	for _, kw := range transactionKeywords {
		if transactionPatterns[kw].MatchString(trimmed) {
			return reject(fmt.Sprintf("transaction control is not allowed: %s", kw))
		}
	}

	return models.ValidationOutcome{Valid: true, Tier: 1}
}

func startsWithAllowedVerb(lowerSQL string) bool {
	fields := strings.Fields(lowerSQL)
	if len(fields) == 0 {
		return false
	}
	first := fields[0]
	for _, verb := range allowedLeadingVerbs {
		if first == strings.ToLower(verb) {
			return true
		}
	}
	return false
}
