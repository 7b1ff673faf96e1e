package plugins

import (
	"github.com/harshilnayi/BlockScope/internal/model"
	"github.com/harshilnayi/BlockScope/internal/solidity"
)

// solidityUncheckedCalls flags low-level calls whose success flag is dropped or only
// inspected after the next state write.
type solidityUncheckedCalls struct{}

func (d *solidityUncheckedCalls) Meta() model.RuleMeta {
	return model.RuleMeta{
		ID:         "SOL-UNCHECKED-LOWLEVEL",
		Title:      "Unchecked low-level call",
		Kind:       model.KindUncheckedCall,
		Severity:   model.SeverityHigh,
		Confidence: 0.65,
		References: []string{"SWC-104"},
	}
}

func (d *solidityUncheckedCalls) Scan(c *solidity.Contract) ([]model.Finding, error) {
	var findings []model.Finding
	for _, fn := range c.Functions {
		for _, call := range fn.Calls {
			switch call.Kind {
			case solidity.CallLowLevel, solidity.CallStatic, solidity.CallDelegate, solidity.CallSend:
			default:
				continue
			}
			if call.Checked {
				continue
			}
			findings = append(findings, newFinding(d.Meta(), c, fn.Name, call.Line,
				"Return value of "+call.Target+"."+call.Method+" is not checked",
				"Capture the boolean return and handle failures (require/if/rollback)",
				map[string]string{"call": call.Target + "." + call.Method, "kind": string(call.Kind)}))
		}
	}
	return findings, nil
}
