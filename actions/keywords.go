package actions

import (
	"strconv"
	"strings"
)

// keywordRule maps a group of trigger terms to the slot value used when
// any of them appears in the query.
type keywordRule struct {
	terms []string
	value string
}

// firstKeyword walks the rules in order and returns the value of the first
// rule with a term present in the query, or the fallback when none match.
// Matching is substring-based, the same contract the routing rules use.
func firstKeyword(query string, rules []keywordRule, fallback string) string {
	for _, rule := range rules {
		if containsAny(query, rule.terms) {
			return rule.value
		}
	}
	return fallback
}

func containsAny(query string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(query, term) {
			return true
		}
	}
	return false
}

// capitalizeFirst upper-cases the first byte of s. Queries are normalized
// to lowercase ASCII before slot extraction, so a rune-aware version is not
// needed here.
func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// atoiSafe parses a digit run, falling back to 0 on overflow or malformed
// input instead of signaling failure.
func atoiSafe(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
