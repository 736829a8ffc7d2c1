package hooks

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// matchToolName checks if toolName satisfies pattern.
// An empty pattern matches everything. Otherwise the pattern is a list of
// alternatives separated by "|"; each alternative matches when it is a glob
// that matches ("mcp__*"), or when it occurs in the tool name ("Edit" also
// matches "MultiEdit"). A non-empty pattern never matches an empty tool name.
func matchToolName(pattern, toolName string) bool {
	if pattern == "" {
		return true
	}
	if toolName == "" {
		return false
	}

	for _, alt := range strings.Split(pattern, "|") {
		alt = strings.TrimSpace(alt)
		if alt == "" {
			continue
		}
		if strings.Contains(toolName, alt) {
			return true
		}
		if strings.ContainsAny(alt, "*?[{") {
			if ok, err := doublestar.Match(alt, toolName); err == nil && ok {
				return true
			}
		}
	}
	return false
}
