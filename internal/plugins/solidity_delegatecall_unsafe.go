package plugins

import (
	"strings"

	"github.com/harshilnayi/BlockScope/internal/model"
	"github.com/harshilnayi/BlockScope/internal/solidity"
)

// solidityDelegatecallUnsafe flags delegatecall whose target or payload the caller
// controls, or that any caller can reach.
type solidityDelegatecallUnsafe struct{}

func (d *solidityDelegatecallUnsafe) Meta() model.RuleMeta {
	return model.RuleMeta{
		ID:         "SOL-UNSAFE-DELEGATECALL",
		Title:      "delegatecall to potentially untrusted target",
		Kind:       model.KindUnsafeDelegatecall,
		Severity:   model.SeverityCritical,
		Confidence: 0.7,
		References: []string{"SWC-112"},
	}
}

func (d *solidityDelegatecallUnsafe) Scan(c *solidity.Contract) ([]model.Finding, error) {
	var findings []model.Finding
	for _, fn := range c.Functions {
		for _, call := range fn.Calls {
			if call.Kind != solidity.CallDelegate {
				continue
			}
			m := d.Meta()
			var reason string
			open := fn.ExternallyVisible() && !isAccessControlled(c, fn)
			tainted := argsTainted(fn, call.Args)
			switch {
			case paramIn(fn, call.Target):
				reason = "target comes from a parameter"
				m.Confidence = 0.85
			case open && tainted:
				reason = "any caller chooses the payload"
			case tainted:
				reason = "payload comes from the caller"
				m.Confidence = 0.5
			case open:
				reason = "reachable by any caller"
				m.Confidence = 0.5
			default:
				continue
			}
			findings = append(findings, newFinding(m, c, fn.Name, call.Line,
				"delegatecall to "+call.Target+" in "+fn.Name+": "+reason,
				"Restrict and validate delegatecall targets. Use UUPS/transparent proxy patterns with access control.",
				map[string]string{"target": call.Target, "reason": reason}))
		}
	}
	return findings, nil
}

func paramIn(fn *solidity.Function, expr string) bool {
	for _, id := range identifiers(expr) {
		if fn.IsParam(id) {
			return true
		}
	}
	return false
}

func argsTainted(fn *solidity.Function, args []string) bool {
	for _, a := range args {
		compact := strings.Join(strings.Fields(a), "")
		if strings.Contains(compact, "msg.data") || paramIn(fn, a) {
			return true
		}
	}
	return false
}
