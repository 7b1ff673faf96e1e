package tools

import (
	"github.com/harshilnayi/BlockScope/internal/model"
)

// DefaultUnmappedPenalty scales the confidence of findings whose category has no kind.
const DefaultUnmappedPenalty = 0.5

// Taxonomy maps a tool's own categories (check names, SWC ids, rule ids) to kinds.
type Taxonomy struct {
	Kinds           map[string]model.Kind
	UnmappedPenalty float64
}

// Classify returns the kind for category and the adjusted confidence. Unknown
// categories become KindOther with the penalty applied.
func (t Taxonomy) Classify(category string, confidence float64) (model.Kind, float64) {
	if k, ok := t.Kinds[category]; ok {
		return k, confidence
	}
	p := t.UnmappedPenalty
	if p <= 0 || p > 1 {
		p = DefaultUnmappedPenalty
	}
	return model.KindOther, confidence * p
}

// With returns a copy of t with overrides applied. Override values are kind names;
// unknown names map to KindOther.
func (t Taxonomy) With(overrides map[string]string) Taxonomy {
	out := Taxonomy{Kinds: make(map[string]model.Kind, len(t.Kinds)+len(overrides)), UnmappedPenalty: t.UnmappedPenalty}
	for k, v := range t.Kinds {
		out.Kinds[k] = v
	}
	for k, v := range overrides {
		out.Kinds[k], _ = model.ParseKind(v)
	}
	return out
}

func DefaultTaxonomy(tool string) Taxonomy {
	var kinds map[string]model.Kind
	switch tool {
	case "slither":
		kinds = slitherKinds
	case "mythril":
		kinds = mythrilKinds
	case "solhint":
		kinds = solhintKinds
	}
	t := Taxonomy{Kinds: make(map[string]model.Kind, len(kinds)), UnmappedPenalty: DefaultUnmappedPenalty}
	for k, v := range kinds {
		t.Kinds[k] = v
	}
	return t
}

var slitherKinds = map[string]model.Kind{
	"reentrancy-eth":           model.KindReentrancy,
	"reentrancy-no-eth":        model.KindReentrancy,
	"reentrancy-benign":        model.KindReentrancy,
	"reentrancy-events":        model.KindReentrancy,
	"reentrancy-unlimited-gas": model.KindReentrancy,
	"unchecked-lowlevel":       model.KindUncheckedCall,
	"unchecked-send":           model.KindUncheckedCall,
	"unchecked-transfer":       model.KindTokenTransferIssue,
	"erc20-interface":          model.KindTokenTransferIssue,
	"arbitrary-send-erc20":     model.KindTokenTransferIssue,
	"arbitrary-send-eth":       model.KindAccessControl,
	"suicidal":                 model.KindAccessControl,
	"unprotected-upgrade":      model.KindAccessControl,
	"tx-origin":                model.KindAccessControl,
	"protected-vars":           model.KindAccessControl,
	"controlled-delegatecall":  model.KindUnsafeDelegatecall,
	"delegatecall-loop":        model.KindUnsafeDelegatecall,
	"timestamp":                model.KindTimestampDependency,
	"weak-prng":                model.KindTimestampDependency,
	"incorrect-shift":          model.KindIntegerOverflow,
	"divide-before-multiply":   model.KindIntegerOverflow,
	"msg-value-loop":           model.KindOther,
}

var mythrilKinds = map[string]model.Kind{
	"101": model.KindIntegerOverflow,
	"104": model.KindUncheckedCall,
	"105": model.KindAccessControl,
	"106": model.KindAccessControl,
	"107": model.KindReentrancy,
	"112": model.KindUnsafeDelegatecall,
	"115": model.KindAccessControl,
	"116": model.KindTimestampDependency,
	"120": model.KindTimestampDependency,
}

var solhintKinds = map[string]model.Kind{
	"reentrancy":            model.KindReentrancy,
	"check-send-result":     model.KindUncheckedCall,
	"avoid-tx-origin":       model.KindAccessControl,
	"avoid-suicide":         model.KindAccessControl,
	"not-rely-on-time":      model.KindTimestampDependency,
	"avoid-low-level-calls": model.KindUncheckedCall,
}
