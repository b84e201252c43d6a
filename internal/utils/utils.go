package utils

import (
	"strings"
)

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}

// SplitList splits a comma separated value, trimming whitespace and dropping
// empty and duplicate (case-insensitive) entries. Order is preserved.
func SplitList(s string) []string {
	return NormalizeList(strings.Split(s, ","))
}

// NormalizeList trims items and drops empty and duplicate (case-insensitive) entries.
func NormalizeList(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	result := make([]string, 0, len(items))

	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		key := strings.ToLower(item)
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}
		result = append(result, item)
	}

	return result
}
