package util

import (
	"strings"
)

// ExtractSnippet returns the lines of [start,end] plus up to context lines either side.
func ExtractSnippet(content string, start, end, context int) string {
	lines := strings.Split(content, "\n")
	if start < 1 {
		start = 1
	}
	if end < start {
		end = start
	}
	if start > len(lines) {
		return ""
	}
	s := max(0, start-1-context)
	e := min(len(lines)-1, end-1+context)
	return strings.Join(lines[s:e+1], "\n")
}

// Line returns line n (1-based) of content, or "" when out of range.
func Line(content string, n int) string {
	if n < 1 {
		return ""
	}
	for i := 1; ; i++ {
		j := strings.IndexByte(content, '\n')
		if i == n {
			if j < 0 {
				return content
			}
			return strings.TrimSuffix(content[:j], "\r")
		}
		if j < 0 {
			return ""
		}
		content = content[j+1:]
	}
}
