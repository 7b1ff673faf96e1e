package plugins

import (
	"github.com/harshilnayi/BlockScope/internal/model"
	"github.com/harshilnayi/BlockScope/internal/solidity"
)

// solidityTransferSend flags ether transfers that rely on the 2300 gas stipend.
type solidityTransferSend struct{}

func (d *solidityTransferSend) Meta() model.RuleMeta {
	return model.RuleMeta{
		ID:         "SOL-TRANSFER-SEND",
		Title:      "Use of transfer/send (gas stipend)",
		Kind:       model.KindOther,
		Severity:   model.SeverityLow,
		Confidence: 0.5,
		References: []string{"EIP-1884"},
	}
}

func (d *solidityTransferSend) Scan(c *solidity.Contract) ([]model.Finding, error) {
	var findings []model.Finding
	for _, fn := range c.Functions {
		for _, call := range fn.Calls {
			if call.Kind != solidity.CallTransfer && call.Kind != solidity.CallSend {
				continue
			}
			findings = append(findings, newFinding(d.Meta(), c, fn.Name, call.Line,
				"Use of "+call.Method+" can break with gas repricing; the recipient gets only 2300 gas",
				"Use call{value: amount}(\"\") and handle the success boolean, or implement pull payment pattern.",
				map[string]string{"call": call.Target + "." + call.Method}))
		}
	}
	return findings, nil
}
