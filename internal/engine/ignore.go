package engine

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/harshilnayi/BlockScope/internal/config"
	"github.com/harshilnayi/BlockScope/internal/model"
)

// suppressWindow is how many lines above a finding an inline marker may sit.
const suppressWindow = 5

const suppressMarker = "blockscope:ignore"

// applyIgnores drops findings matched by an active config rule or by an inline
// "// blockscope:ignore RULE-ID" comment in the scanned source.
func applyIgnores(findings []model.Finding, rules []config.IgnoreRule, path, source string, now time.Time) []model.Finding {
	var lines []string
	if strings.Contains(source, suppressMarker) {
		lines = strings.Split(source, "\n")
	}
	out := findings[:0:0]
	for _, f := range findings {
		if ignoredByRule(f, rules, path, now) || hasInlineSuppression(lines, f.RuleID, f.Lines.Start) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func ignoredByRule(f model.Finding, rules []config.IgnoreRule, path string, now time.Time) bool {
	for _, ig := range rules {
		if !ig.Active(now) {
			continue
		}
		if ig.Rule != "" && !strings.EqualFold(ig.Rule, f.RuleID) {
			continue
		}
		if ig.Path != "" && !pathMatches(ig.Path, path) {
			continue
		}
		return true
	}
	return false
}

// pathMatches accepts a directory prefix or a glob against the full path or its base name.
func pathMatches(pattern, path string) bool {
	if path == "" {
		return false
	}
	pattern, path = filepath.ToSlash(pattern), filepath.ToSlash(path)
	if strings.HasPrefix(path, pattern) || strings.Contains(path, "/"+strings.TrimPrefix(pattern, "./")) {
		return true
	}
	if ok, _ := filepath.Match(pattern, path); ok {
		return true
	}
	ok, _ := filepath.Match(pattern, filepath.Base(path))
	return ok
}

func hasInlineSuppression(lines []string, ruleID string, line int) bool {
	if len(lines) == 0 || line <= 0 {
		return false
	}
	from := line - 1 - suppressWindow
	if from < 0 {
		from = 0
	}
	to := line - 1
	if to >= len(lines) {
		to = len(lines) - 1
	}
	for i := from; i <= to; i++ {
		_, rest, ok := strings.Cut(lines[i], suppressMarker)
		if !ok {
			continue
		}
		for _, id := range strings.FieldsFunc(rest, func(r rune) bool { return r == ' ' || r == ',' || r == '\t' }) {
			if strings.EqualFold(id, ruleID) || id == "*" {
				return true
			}
		}
	}
	return false
}
