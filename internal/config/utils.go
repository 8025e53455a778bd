package config

import "strings"

// containsFold reports whether needle occurs in s, case-insensitively.
func containsFold(s, needle string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(needle))
}
