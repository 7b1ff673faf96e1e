package engine

import (
	"sort"

	"github.com/harshilnayi/BlockScope/internal/model"
)

// Aggregator merges finding sets from detectors and adapters.
type Aggregator struct {
	// Bonus is the share of the remaining confidence gap closed by each additional
	// distinct source reporting the same issue.
	Bonus float64
}

// Merge collapses findings that share a dedup key into the most severe instance and
// raises its confidence once per corroborating source. Sources already accounted for
// add nothing, so merging a set with itself changes nothing.
func (a Aggregator) Merge(sets ...[]model.Finding) []model.Finding {
	groups := map[model.Key][]model.Finding{}
	var order []model.Key
	for _, set := range sets {
		for _, f := range set {
			k := f.Key()
			if _, ok := groups[k]; !ok {
				order = append(order, k)
			}
			groups[k] = append(groups[k], f)
		}
	}
	out := make([]model.Finding, 0, len(order))
	for _, k := range order {
		out = append(out, a.merge(groups[k]))
	}
	SortFindings(out)
	return out
}

func (a Aggregator) merge(group []model.Finding) model.Finding {
	best := group[0]
	for _, f := range group[1:] {
		if better(f, best) {
			best = f
		}
	}
	seen := map[string]bool{}
	for _, s := range best.Sources() {
		seen[s] = true
	}
	extra := append([]string(nil), best.CorroboratedBy...)
	conf := best.Confidence
	for _, f := range group {
		for _, s := range f.Sources() {
			if seen[s] {
				continue
			}
			seen[s] = true
			extra = append(extra, s)
			conf += a.Bonus * (1 - conf)
		}
	}
	if conf > 1 {
		conf = 1
	}
	sort.Strings(extra)
	if len(extra) > 0 {
		best.CorroboratedBy = extra
	}
	best.Confidence = conf
	return best
}

// better reports whether f should replace cur as the representative of a group.
func better(f, cur model.Finding) bool {
	if f.Severity.Rank() != cur.Severity.Rank() {
		return f.Severity.Rank() > cur.Severity.Rank()
	}
	if f.Confidence != cur.Confidence {
		return f.Confidence > cur.Confidence
	}
	if f.RuleID != cur.RuleID {
		return f.RuleID < cur.RuleID
	}
	if f.Source != cur.Source {
		return f.Source < cur.Source
	}
	return f.Message < cur.Message
}

// SortFindings orders findings by severity descending, then line range, rule ID and
// the remaining identity fields so that output is stable across runs.
func SortFindings(fs []model.Finding) {
	sort.SliceStable(fs, func(i, j int) bool {
		a, b := fs[i], fs[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		if a.Lines != b.Lines {
			return a.Lines.Less(b.Lines)
		}
		if a.RuleID != b.RuleID {
			return a.RuleID < b.RuleID
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Contract != b.Contract {
			return a.Contract < b.Contract
		}
		if a.Function != b.Function {
			return a.Function < b.Function
		}
		return a.Source < b.Source
	})
}
