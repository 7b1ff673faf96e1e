package engine

import (
	"strings"

	"github.com/harshilnayi/BlockScope/internal/model"
)

// filterBySeverity removes findings below min.
func filterBySeverity(findings []model.Finding, min model.Severity) []model.Finding {
	if min == "" {
		return findings
	}
	out := findings[:0:0]
	for _, f := range findings {
		if model.SeverityGTE(f.Severity, min) {
			out = append(out, f)
		}
	}
	return out
}

// filterByRules keeps findings whose rule ID is allowed. An entry ending in ":" allows
// every rule of that tool, e.g. "slither:".
func filterByRules(findings []model.Finding, allow []string) []model.Finding {
	if len(allow) == 0 {
		return findings
	}
	exact := map[string]bool{}
	var prefixes []string
	for _, id := range allow {
		id = strings.ToUpper(strings.TrimSpace(id))
		if strings.HasSuffix(id, ":") {
			prefixes = append(prefixes, id)
			continue
		}
		exact[id] = true
	}
	out := findings[:0:0]
	for _, f := range findings {
		id := strings.ToUpper(f.RuleID)
		keep := exact[id]
		for _, p := range prefixes {
			keep = keep || strings.HasPrefix(id, p)
		}
		if keep {
			out = append(out, f)
		}
	}
	return out
}
