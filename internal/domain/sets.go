package domain

import "strings"

// JoinLower concatenates set members into a single lower-cased
// space-separated string for case-insensitive text comparison.
func JoinLower(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return strings.ToLower(strings.Join(items, " "))
}

// IntersectCountFold returns |a ∩ b| comparing members case-insensitively.
func IntersectCountFold(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(b))
	for _, v := range b {
		set[strings.ToLower(v)] = struct{}{}
	}
	count := 0
	seen := make(map[string]struct{}, len(a))
	for _, v := range a {
		k := strings.ToLower(v)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if _, ok := set[k]; ok {
			count++
		}
	}
	return count
}

// IntersectIDs reports whether two identifier sets share any element.
// Identifiers are compared exactly.
func IntersectIDs(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(b))
	for _, v := range b {
		set[v] = struct{}{}
	}
	for _, v := range a {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}

// IntersectIDCount returns |a ∩ b| over exact identifier comparison.
func IntersectIDCount(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(b))
	for _, v := range b {
		set[v] = struct{}{}
	}
	count := 0
	for _, v := range a {
		if _, ok := set[v]; ok {
			count++
			delete(set, v)
		}
	}
	return count
}

// UnionFold merges two string sets, deduplicating case-insensitively and
// preserving first-seen order and spelling.
func UnionFold(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, v := range a {
		k := strings.ToLower(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	for _, v := range b {
		k := strings.ToLower(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}

// ContainsID reports whether the identifier set contains id.
func ContainsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// RemoveID returns ids without id, preserving order.
func RemoveID(ids []string, id string) []string {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
