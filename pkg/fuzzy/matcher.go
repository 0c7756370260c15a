// Package fuzzy scores the similarity between a candidate identifier and a
// set of known schema names. It is a pure function library: identical inputs
// always produce identical results, with ties resolved by the input order of
// the known names.
package fuzzy

import (
	"fmt"
	"strings"

	"github.com/jinzhu/inflection"
)

const (
	scoreExact     = 1.0
	scorePlural    = 0.95
	scoreSubstring = 0.85
	scoreSynonym   = 0.8

	// minEditSimilarity is the acceptance floor for the edit-distance strategy.
	minEditSimilarity = 0.6

	// substringEditFloor gates substring containment: the two names must also
	// clear this edit-distance similarity, or the containment is coincidental.
	substringEditFloor = 0.5

	// contextBoost is added to a known name's edit-distance score when the
	// surrounding SQL or user question mentions it.
	contextBoost = 0.1

	maxSampleNames = 5
)

// MatchResult describes how a candidate identifier relates to a known name.
// Matched is empty exactly when Score is zero. Score is 1.0 exactly when the
// match was exact (case-insensitive). Reason is human-readable and names the
// single strategy that produced the match.
type MatchResult struct {
	Matched string  `json:"matched,omitempty"`
	Score   float64 `json:"score"`
	Reason  string  `json:"reason"`
}

// normalize case-folds an identifier and strips every non-alphanumeric rune,
// so "Order_Total" and "ordertotal" compare equal.
func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MatchName finds the best known name for a candidate identifier.
//
// Strategies run in strict priority order and the first hit wins:
// exact, plural/singular, substring, synonym, edit distance. The optional
// context (surrounding SQL or the user's question) boosts edit-distance
// scores for known names it mentions.
func MatchName(candidate string, known []string, context string) MatchResult {
	candNorm := normalize(candidate)

	// Exact match after case-fold and normalization.
	for _, k := range known {
		if normalize(k) == candNorm {
			return MatchResult{
				Matched: k,
				Score:   scoreExact,
				Reason:  fmt.Sprintf("exact match for %q", candidate),
			}
		}
	}

	// Plural/singular equivalence.
	for _, k := range known {
		if pluralEquivalent(candNorm, normalize(k)) {
			return MatchResult{
				Matched: k,
				Score:   scorePlural,
				Reason:  fmt.Sprintf("plural/singular match: %q ~ %q", candidate, k),
			}
		}
	}

	// Substring containment, gated on edit-distance similarity so that short
	// accidental containments (e.g. "id" in "paid") do not win.
	for _, k := range known {
		kNorm := normalize(k)
		if candNorm == "" || kNorm == "" {
			continue
		}
		if strings.Contains(kNorm, candNorm) || strings.Contains(candNorm, kNorm) {
			if Similarity(candNorm, kNorm) > substringEditFloor {
				return MatchResult{
					Matched: k,
					Score:   scoreSubstring,
					Reason:  fmt.Sprintf("substring match: %q ~ %q", candidate, k),
				}
			}
		}
	}

	// Semantic synonym lookup against the embedded domain dictionary.
	for _, k := range known {
		if synonymous(candNorm, normalize(k)) {
			return MatchResult{
				Matched: k,
				Score:   scoreSynonym,
				Reason:  fmt.Sprintf("semantic match: %q ~ %q", candidate, k),
			}
		}
	}

	// Normalized Levenshtein similarity, best known name wins. A strictly
	// greater comparison keeps the earliest of tied candidates.
	contextLower := strings.ToLower(context)
	best := MatchResult{}
	for _, k := range known {
		score := Similarity(candNorm, normalize(k))
		if contextLower != "" && strings.Contains(contextLower, strings.ToLower(k)) {
			score += contextBoost
			// A boosted score stays below 1.0 so that only exact matches
			// ever report a perfect score.
			if score >= 1.0 {
				score = 0.99
			}
		}
		if score > best.Score {
			best = MatchResult{
				Matched: k,
				Score:   score,
				Reason:  fmt.Sprintf("edit-distance match: %q ~ %q (similarity %.2f)", candidate, k, score),
			}
		}
	}
	if best.Score >= minEditSimilarity {
		return best
	}

	return MatchResult{
		Score:  0,
		Reason: fmt.Sprintf("no match for %q; known names include: %s", candidate, sampleNames(known)),
	}
}

// pluralEquivalent reports whether two normalized identifiers differ only by
// English pluralization.
func pluralEquivalent(a, b string) bool {
	if a == "" || b == "" || a == b {
		return false
	}

	// ±s / ±es
	if a+"s" == b || b+"s" == a || a+"es" == b || b+"es" == a {
		return true
	}

	// y→ies
	if strings.HasSuffix(a, "y") && strings.TrimSuffix(a, "y")+"ies" == b {
		return true
	}
	if strings.HasSuffix(b, "y") && strings.TrimSuffix(b, "y")+"ies" == a {
		return true
	}

	// f/fe→ves
	if strings.HasSuffix(a, "f") && strings.TrimSuffix(a, "f")+"ves" == b {
		return true
	}
	if strings.HasSuffix(b, "f") && strings.TrimSuffix(b, "f")+"ves" == a {
		return true
	}
	if strings.HasSuffix(a, "fe") && strings.TrimSuffix(a, "fe")+"ves" == b {
		return true
	}
	if strings.HasSuffix(b, "fe") && strings.TrimSuffix(b, "fe")+"ves" == a {
		return true
	}

	// Irregular forms (person/people, etc.) via the inflection tables.
	return inflection.Singular(a) == inflection.Singular(b)
}

// sampleNames formats up to maxSampleNames known names for diagnostics.
func sampleNames(known []string) string {
	if len(known) == 0 {
		return "(none)"
	}
	n := len(known)
	if n > maxSampleNames {
		n = maxSampleNames
	}
	return strings.Join(known[:n], ", ")
}
