package model

import (
	"fmt"
	"strings"
)

var scoreWeights = map[Severity]int{
	SeverityCritical: 10,
	SeverityHigh:     5,
	SeverityMedium:   2,
	SeverityLow:      1,
}

// Breakdown counts findings per severity. Every class is present, zero or not.
func Breakdown(findings []Finding) map[string]int {
	out := make(map[string]int, len(Severities))
	for _, s := range Severities {
		out[string(s)] = 0
	}
	for _, f := range findings {
		out[string(f.Severity)]++
	}
	return out
}

// SecurityScore starts at 100 and subtracts a weight per finding, floored at 0.
func SecurityScore(findings []Finding) int {
	score := 100
	for _, f := range findings {
		score -= scoreWeights[f.Severity]
	}
	if score < 0 {
		return 0
	}
	return score
}

// Summarize renders a one-line verdict such as "2 critical, 1 high - UNSAFE".
func Summarize(breakdown map[string]int, score int) string {
	var parts []string
	for _, s := range Severities {
		if n := breakdown[string(s)]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, s))
		}
	}
	if len(parts) == 0 {
		return "No vulnerabilities found - SAFE"
	}
	var status string
	switch {
	case score >= 80:
		status = "GOOD"
	case score >= 60:
		status = "MODERATE"
	case score >= 40:
		status = "RISKY"
	default:
		status = "UNSAFE"
	}
	return strings.Join(parts, ", ") + " - " + status
}
