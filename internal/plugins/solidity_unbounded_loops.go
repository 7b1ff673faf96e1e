package plugins

import (
	"regexp"
	"strings"

	"github.com/harshilnayi/BlockScope/internal/model"
	"github.com/harshilnayi/BlockScope/internal/solidity"
)

var (
	lengthRef     = regexp.MustCompile(`([A-Za-z_$][A-Za-z0-9_$]*)\s*\.\s*length\b`)
	constantBound = regexp.MustCompile(`<=?\s*\d+`)
)

// solidityUnboundedLoops flags loops in entry points whose trip count is the length of a
// caller-growable array.
type solidityUnboundedLoops struct{}

func (d *solidityUnboundedLoops) Meta() model.RuleMeta {
	return model.RuleMeta{
		ID:         "SOL-UNBOUNDED-LOOP",
		Title:      "Loop over unbounded array",
		Kind:       model.KindOther,
		Severity:   model.SeverityMedium,
		Confidence: 0.55,
		References: []string{"SWC-128"},
	}
}

func (d *solidityUnboundedLoops) Scan(c *solidity.Contract) ([]model.Finding, error) {
	var findings []model.Finding
	for _, fn := range c.Functions {
		if !fn.ExternallyVisible() {
			continue
		}
		for _, cnd := range fn.Conditions {
			if cnd.Kind != "for" && cnd.Kind != "while" {
				continue
			}
			if constantBound.MatchString(cnd.Text) {
				continue
			}
			arr := ""
			for _, m := range lengthRef.FindAllStringSubmatch(cnd.Text, -1) {
				if dynamicArray(c, fn, m[1]) {
					arr = m[1]
					break
				}
			}
			if arr == "" {
				continue
			}
			findings = append(findings, newFinding(d.Meta(), c, fn.Name, cnd.Line,
				"loop in "+fn.Name+" runs once per element of "+arr+"; a long array exhausts the block gas limit",
				"Bound the array length or split the work across transactions",
				map[string]string{"array": arr, "condition": cnd.Text}))
		}
	}
	return findings, nil
}

func dynamicArray(c *solidity.Contract, fn *solidity.Function, name string) bool {
	if sv, ok := c.StateVar(name); ok {
		return strings.HasSuffix(sv.Type, "[]") && !sv.Constant && !sv.Immutable
	}
	for _, p := range fn.Params {
		if p.Name == name {
			return strings.HasSuffix(p.Type, "[]")
		}
	}
	return false
}
