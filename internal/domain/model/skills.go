package model

import (
	"slices"
	"strings"
)

// SkillKey is the comparison form of a skill tag: trimmed and lower-cased.
func SkillKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeSkills trims tags, drops empty ones and removes case-insensitive
// duplicates. The first spelling of each tag wins and input order is kept.
func NormalizeSkills(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		k := strings.ToLower(s)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}

// SplitCSV splits a comma separated list, dropping blank entries.
func SplitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// NormalizeDates sorts dates ascending and removes duplicates and zero values.
func NormalizeDates(in []Date) []Date {
	out := make([]Date, 0, len(in))
	for _, d := range in {
		if !d.IsZero() {
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b Date) int { return a.t.Compare(b.t) })
	return slices.CompactFunc(out, Date.Equal)
}

// ParseDates parses and normalizes a list of date strings.
func ParseDates(in []string) ([]Date, error) {
	dates := make([]Date, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) == "" {
			continue
		}
		d, err := ParseDate(s)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return NormalizeDates(dates), nil
}
