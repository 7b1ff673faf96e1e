package plugins

import (
	"github.com/harshilnayi/BlockScope/internal/model"
	"github.com/harshilnayi/BlockScope/internal/solidity"
)

// solidityTxOrigin flags authorization decided by tx.origin.
type solidityTxOrigin struct{}

func (d *solidityTxOrigin) Meta() model.RuleMeta {
	return model.RuleMeta{
		ID:         "SOL-TX-ORIGIN",
		Title:      "tx.origin used for authorization",
		Kind:       model.KindAccessControl,
		Severity:   model.SeverityHigh,
		Confidence: 0.85,
		References: []string{"SWC-115"},
	}
}

func (d *solidityTxOrigin) Scan(c *solidity.Contract) ([]model.Finding, error) {
	var findings []model.Finding
	check := func(where string, conds []solidity.Condition) {
		for _, cnd := range conds {
			if !contains(cnd.Idents, "tx.origin") || !cnd.SenderCheck {
				continue
			}
			// tx.origin == msg.sender only rejects contract callers
			if contains(cnd.Idents, "msg.sender") {
				continue
			}
			findings = append(findings, newFinding(d.Meta(), c, where, cnd.Line,
				"tx.origin used in authorization logic: "+cnd.Text,
				"Replace tx.origin with msg.sender and implement proper access control.",
				map[string]string{"condition": cnd.Text}))
		}
	}
	for _, m := range c.Modifiers {
		check(m.Name, m.Conditions)
	}
	for _, fn := range c.Functions {
		check(fn.Name, fn.Conditions)
	}
	return findings, nil
}
