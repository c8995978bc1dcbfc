package utils

import (
	"fmt"
	"strings"
)

// ParseCSV splits a comma-separated string and returns trimmed non-empty values.
// Returns nil for empty/whitespace-only input.
func ParseCSV(s string) []string {
	if s == "" {
		return nil
	}

	var result []string
	for _, v := range strings.Split(s, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return nil
	}

	return result
}

// SplitPair splits "KEY=VALUE" into its trimmed halves. Both must be non-empty.
func SplitPair(s, sep string) (string, string, error) {
	key, value, ok := strings.Cut(s, sep)
	key, value = strings.TrimSpace(key), strings.TrimSpace(value)
	if !ok || key == "" || value == "" {
		return "", "", fmt.Errorf("expected KEY%sVALUE, got %q", sep, s)
	}
	return key, value, nil
}
