package plugins

import (
	"github.com/harshilnayi/BlockScope/internal/model"
	"github.com/harshilnayi/BlockScope/internal/solidity"
)

// soliditySelfdestruct flags selfdestruct reachable from an unguarded entry point,
// directly or through one internal helper.
type soliditySelfdestruct struct{}

func (d *soliditySelfdestruct) Meta() model.RuleMeta {
	return model.RuleMeta{
		ID:         "SOL-SELFDESTRUCT",
		Title:      "Unprotected selfdestruct",
		Kind:       model.KindAccessControl,
		Severity:   model.SeverityCritical,
		Confidence: 0.7,
		References: []string{"SWC-106"},
	}
}

func (d *soliditySelfdestruct) Scan(c *solidity.Contract) ([]model.Finding, error) {
	helpers := map[string]bool{}
	for _, fn := range c.Functions {
		if fn.ExternallyVisible() || isAccessControlled(c, fn) {
			continue
		}
		if selfdestructLine(fn.Body) > 0 {
			helpers[fn.Name] = true
		}
	}
	var findings []model.Finding
	for _, fn := range c.Functions {
		if !fn.ExternallyVisible() || isAccessControlled(c, fn) {
			continue
		}
		line, via := selfdestructLine(fn.Body), ""
		if line == 0 {
			for _, inv := range fn.Invocations {
				if helpers[inv.Name] {
					line, via = inv.Line, inv.Name
					break
				}
			}
		}
		if line == 0 {
			continue
		}
		msg := "selfdestruct in " + fn.Name + " can be triggered by any caller"
		ev := map[string]string{"entry": fn.Name}
		if via != "" {
			msg = fn.Name + " reaches selfdestruct through " + via + " without restricting the caller"
			ev["via"] = via
		}
		findings = append(findings, newFinding(d.Meta(), c, fn.Name, line, msg,
			"Avoid selfdestruct; if needed, restrict via onlyOwner/timelock and use fixed, vetted payout addresses.", ev))
	}
	return findings, nil
}

func selfdestructLine(b solidity.Body) int {
	for _, inv := range b.Invocations {
		if inv.Name == "selfdestruct" || inv.Name == "suicide" {
			return inv.Line
		}
	}
	return 0
}
