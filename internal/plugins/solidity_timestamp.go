package plugins

import (
	"github.com/harshilnayi/BlockScope/internal/model"
	"github.com/harshilnayi/BlockScope/internal/solidity"
)

// solidityTimestamp flags branches on block.timestamp (or the legacy now alias) that
// decide whether state changes or value moves.
type solidityTimestamp struct{}

func (d *solidityTimestamp) Meta() model.RuleMeta {
	return model.RuleMeta{
		ID:         "SOL-TIMESTAMP",
		Title:      "Block timestamp dependency",
		Kind:       model.KindTimestampDependency,
		Severity:   model.SeverityMedium,
		Confidence: 0.55,
		References: []string{"SWC-116", "SWC-120"},
	}
}

func (d *solidityTimestamp) Scan(c *solidity.Contract) ([]model.Finding, error) {
	var findings []model.Finding
	for _, fn := range c.Functions {
		if fn.ReadOnly() {
			continue
		}
		for _, cnd := range fn.Conditions {
			if !cnd.GatesStateWrite {
				continue
			}
			src := ""
			for _, id := range cnd.Idents {
				if id == "block.timestamp" || id == "now" {
					src = id
					break
				}
			}
			if src == "" {
				continue
			}
			findings = append(findings, newFinding(d.Meta(), c, fn.Name, cnd.Line,
				src+" decides a state-changing branch in "+fn.Name+"; block producers can shift it by several seconds",
				"Avoid using block.timestamp for critical decisions or randomness; tolerate drift or use an oracle/VRF",
				map[string]string{"condition": cnd.Text, "kind": cnd.Kind}))
		}
	}
	return findings, nil
}
