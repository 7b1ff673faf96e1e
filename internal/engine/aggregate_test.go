package engine

import (
	"reflect"
	"testing"

	"github.com/harshilnayi/BlockScope/internal/model"
	"github.com/harshilnayi/BlockScope/internal/plugins"
)

func finding(rule, source string, sev model.Severity, conf float64, line int) model.Finding {
	return model.Finding{
		RuleID:     rule,
		Kind:       model.KindReentrancy,
		Severity:   sev,
		Confidence: conf,
		Lines:      model.Line(line),
		Contract:   "Bank",
		Function:   "withdraw",
		Source:     source,
	}
}

func TestMergeCorroborationBonus(t *testing.T) {
	a := Aggregator{Bonus: 0.25}
	out := a.Merge(
		[]model.Finding{finding("SOL-REENTRANCY", "blockscope", model.SeverityHigh, 0.6, 5)},
		[]model.Finding{finding("slither:reentrancy-eth", "slither", model.SeverityHigh, 0.6, 5)},
	)
	if len(out) != 1 {
		t.Fatalf("merged = %d, want 1", len(out))
	}
	c := out[0].Confidence
	if c <= 0.6 || c > 1 {
		t.Fatalf("confidence = %v", c)
	}
	if out[0].RuleID != "SOL-REENTRANCY" || !reflect.DeepEqual(out[0].CorroboratedBy, []string{"slither"}) {
		t.Fatalf("representative = %+v", out[0])
	}
}

func TestMergeCorroboratesAcrossDetectors(t *testing.T) {
	access := finding("SOL-ACCESS-CONTROL", plugins.SourceOf("SOL-ACCESS-CONTROL"), model.SeverityHigh, 0.6, 5)
	origin := finding("SOL-TX-ORIGIN", plugins.SourceOf("SOL-TX-ORIGIN"), model.SeverityHigh, 0.6, 5)
	access.Kind, origin.Kind = model.KindAccessControl, model.KindAccessControl
	out := Aggregator{Bonus: 0.25}.Merge([]model.Finding{access}, []model.Finding{origin})
	if len(out) != 1 {
		t.Fatalf("merged = %d, want 1", len(out))
	}
	if c := out[0].Confidence; c <= 0.6 || c > 1 {
		t.Fatalf("confidence = %v, want above 0.6", c)
	}
	if out[0].RuleID != "SOL-ACCESS-CONTROL" || !reflect.DeepEqual(out[0].CorroboratedBy, []string{"blockscope/SOL-TX-ORIGIN"}) {
		t.Fatalf("representative = %+v", out[0])
	}
}

func TestMergeKeepsMostSevere(t *testing.T) {
	out := Aggregator{}.Merge([]model.Finding{
		finding("slither:x", "slither", model.SeverityMedium, 0.9, 5),
		finding("SOL-REENTRANCY", "blockscope", model.SeverityHigh, 0.5, 5),
	})
	if len(out) != 1 || out[0].Severity != model.SeverityHigh || out[0].Confidence != 0.5 {
		t.Fatalf("out = %+v", out)
	}
}

func TestMergeIdempotent(t *testing.T) {
	set := []model.Finding{
		finding("SOL-REENTRANCY", "blockscope", model.SeverityHigh, 0.75, 5),
		finding("slither:reentrancy-eth", "slither", model.SeverityHigh, 0.6, 5),
		finding("SOL-REENTRANCY", "blockscope", model.SeverityHigh, 0.75, 9),
	}
	a := Aggregator{Bonus: 0.25}
	once := a.Merge(set)
	if got := a.Merge(once, once); !reflect.DeepEqual(got, once) {
		t.Fatalf("merge with itself changed the set:\n%+v\n%+v", got, once)
	}
	if got := a.Merge(set, set); !reflect.DeepEqual(got, once) {
		t.Fatalf("duplicate sources added confidence:\n%+v\n%+v", got, once)
	}
}

func TestMergeCapsAtOne(t *testing.T) {
	out := Aggregator{Bonus: 1}.Merge([]model.Finding{
		finding("a", "blockscope", model.SeverityHigh, 0.9, 1),
		finding("b", "slither", model.SeverityHigh, 0.9, 1),
		finding("c", "mythril", model.SeverityHigh, 0.9, 1),
	})
	if out[0].Confidence != 1 {
		t.Fatalf("confidence = %v", out[0].Confidence)
	}
}

func TestSortFindings(t *testing.T) {
	fs := []model.Finding{
		finding("B", "blockscope", model.SeverityLow, 0.5, 1),
		finding("B", "blockscope", model.SeverityHigh, 0.5, 9),
		finding("A", "blockscope", model.SeverityHigh, 0.5, 9),
		finding("Z", "blockscope", model.SeverityHigh, 0.5, 2),
		finding("C", "blockscope", model.SeverityCritical, 0.5, 30),
	}
	SortFindings(fs)
	var got []string
	for _, f := range fs {
		got = append(got, f.RuleID)
	}
	if want := []string{"C", "Z", "A", "B", "B"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestFilterByRulesPrefix(t *testing.T) {
	fs := []model.Finding{
		finding("slither:reentrancy-eth", "slither", model.SeverityHigh, 0.5, 1),
		finding("SOL-TIMESTAMP", "blockscope", model.SeverityHigh, 0.5, 2),
		finding("mythril:SWC-107", "mythril", model.SeverityHigh, 0.5, 3),
	}
	got := filterByRules(fs, []string{"slither:", "sol-timestamp"})
	if len(got) != 2 || got[0].RuleID != "slither:reentrancy-eth" || got[1].RuleID != "SOL-TIMESTAMP" {
		t.Fatalf("got %+v", got)
	}
}
