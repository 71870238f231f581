package models

import "strings"

// NormalizeGenres trims entries, drops empties and repeats (case-insensitively), and keeps first-seen order.
func NormalizeGenres(genres []string) []string {
	out := make([]string, 0, len(genres))
	seen := make(map[string]struct{}, len(genres))
	for _, g := range genres {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		key := strings.ToLower(g)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, g)
	}
	return out
}

// JoinGenres serialises genres into the comma-delimited column format.
func JoinGenres(genres []string) string {
	return strings.Join(NormalizeGenres(genres), ",")
}

// SplitGenres parses the comma-delimited column format.
func SplitGenres(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	return NormalizeGenres(strings.Split(s, ","))
}
