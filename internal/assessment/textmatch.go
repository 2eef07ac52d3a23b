package assessment

import (
	"math"
	"strings"
)

// normalize trims surrounding whitespace and case-folds.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// splitList splits a comma-separated answer into normalized, non-empty items.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if item := normalize(p); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// containsEither reports whether needle is a substring of some candidate or
// some candidate is a substring of needle.
func containsEither(candidates []string, needle string) bool {
	for _, c := range candidates {
		if strings.Contains(c, needle) || strings.Contains(needle, c) {
			return true
		}
	}
	return false
}

// threshold returns ceil(ratio * n), ignoring float noise such as 0.7*10 = 7.000000000000001.
func threshold(ratio float64, n int) int {
	return int(math.Ceil(ratio*float64(n) - 1e-9))
}

func toSet(arr []string) map[string]struct{} {
	m := make(map[string]struct{}, len(arr))
	for _, s := range arr {
		if n := normalize(s); n != "" {
			m[n] = struct{}{}
		}
	}
	return m
}

func setEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
