package plugins

import (
	"strings"

	"github.com/harshilnayi/BlockScope/internal/model"
	"github.com/harshilnayi/BlockScope/internal/solidity"
)

// solidityReentrancy flags value-moving calls that happen before a state update in a
// function without a reentrancy guard.
type solidityReentrancy struct{}

func (d *solidityReentrancy) Meta() model.RuleMeta {
	return model.RuleMeta{
		ID:         "SOL-REENTRANCY",
		Title:      "External call before state update",
		Kind:       model.KindReentrancy,
		Severity:   model.SeverityHigh,
		Confidence: 0.75,
		References: []string{"SWC-107"},
	}
}

func (d *solidityReentrancy) Scan(c *solidity.Contract) ([]model.Finding, error) {
	var findings []model.Finding
	for _, fn := range c.Functions {
		if fn.ReadOnly() || hasReentrancyGuard(fn) {
			continue
		}
		for _, call := range fn.Calls {
			switch call.Kind {
			case solidity.CallLowLevel, solidity.CallSend, solidity.CallTransfer:
			default:
				continue
			}
			if !call.PrecedesStateWrite {
				continue
			}
			written := firstWriteAfter(fn.Body, call.Order)
			f := newFinding(d.Meta(), c, fn.Name, call.Line,
				"External call to "+call.Target+"."+call.Method+" occurs before "+written+" is updated; the callee can re-enter "+fn.Name,
				"Move state updates before external calls or add ReentrancyGuard; prefer pull over push",
				map[string]string{"call": call.Target + "." + call.Method, "state_write": written})
			if call.Kind != solidity.CallLowLevel {
				// transfer and send forward only the gas stipend
				f.Confidence *= 0.6
			}
			findings = append(findings, f)
		}
	}
	return findings, nil
}

func hasReentrancyGuard(fn *solidity.Function) bool {
	for _, m := range fn.Modifiers {
		switch m {
		case "nonReentrant", "noReentrant", "lock", "noReentrancy":
			return true
		}
		if strings.Contains(strings.ToLower(m), "reentran") {
			return true
		}
	}
	return false
}

func firstWriteAfter(b solidity.Body, order int) string {
	for _, w := range b.Writes {
		if w.Order > order {
			return w.Var
		}
	}
	return ""
}
