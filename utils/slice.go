package utils

import (
	"strconv"
	"strings"
)

// Unique removes duplicates while keeping first-seen order.
func Unique[T comparable](items []T) []T {
	seen := make(map[T]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}

// ParseUintList converts form values such as remove_files[] into ids, skipping
// anything that is not a positive integer. Duplicates are dropped.
func ParseUintList(values []string) []uint {
	ids := make([]uint, 0, len(values))
	for _, v := range values {
		n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil || n == 0 {
			continue
		}
		ids = append(ids, uint(n))
	}
	return Unique(ids)
}
