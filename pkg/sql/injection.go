package sql

import (
	"regexp"

	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionFinding describes an injection-shaped string literal found inside
// a statement.
type InjectionFinding struct {
	Literal     string // the literal's contents, without quotes
	Fingerprint string // libinjection fingerprint of the detected pattern
}

var stringLiteralPattern = regexp.MustCompile(`'((?:[^']|'')*)'`)

// CheckLiterals runs libinjection over every single-quoted string literal in
// the statement and returns the first injection-shaped one, or nil when all
// literals are clean. The statement as a whole is not scanned: legitimate
// SELECTs are themselves SQL and would always trip the detector.
func CheckLiterals(sqlText string) *InjectionFinding {
	for _, m := range stringLiteralPattern.FindAllStringSubmatch(sqlText, -1) {
		literal := m[1]
		if literal == "" {
			continue
		}
		if isSQLi, fingerprint := libinjection.IsSQLi(literal); isSQLi {
			return &InjectionFinding{
				Literal:     literal,
				Fingerprint: string(fingerprint),
			}
		}
	}
	return nil
}
