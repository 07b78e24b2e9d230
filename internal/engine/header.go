package engine

import "strings"

// MatchHeaders compares expected column names against the columns
// actually present. Matching is case-insensitive; reported names keep
// the spelling of the side they came from. Output order follows input
// order on each side.
func MatchHeaders(expected, actual []string) HeaderMatch {
	actualSet := make(map[string]bool, len(actual))
	for _, a := range actual {
		actualSet[strings.ToLower(strings.TrimSpace(a))] = true
	}
	expectedSet := make(map[string]bool, len(expected))
	for _, e := range expected {
		expectedSet[strings.ToLower(strings.TrimSpace(e))] = true
	}

	var m HeaderMatch
	for _, e := range expected {
		if actualSet[strings.ToLower(strings.TrimSpace(e))] {
			m.Common = append(m.Common, e)
		} else {
			m.Missing = append(m.Missing, e)
		}
	}
	for _, a := range actual {
		if !expectedSet[strings.ToLower(strings.TrimSpace(a))] {
			m.Extra = append(m.Extra, a)
		}
	}
	return m
}
