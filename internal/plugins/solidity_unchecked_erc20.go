package plugins

import (
	"github.com/harshilnayi/BlockScope/internal/model"
	"github.com/harshilnayi/BlockScope/internal/solidity"
)

// solidityUncheckedERC20 flags token transfers and approvals whose boolean result is
// ignored. Tokens that return false instead of reverting leave the caller believing
// the transfer happened.
type solidityUncheckedERC20 struct{}

func (d *solidityUncheckedERC20) Meta() model.RuleMeta {
	return model.RuleMeta{
		ID:         "SOL-UNCHECKED-ERC20",
		Title:      "Unchecked ERC20 transfer result",
		Kind:       model.KindTokenTransferIssue,
		Severity:   model.SeverityMedium,
		Confidence: 0.6,
		References: []string{"SWC-104", "EIP-20"},
	}
}

func (d *solidityUncheckedERC20) Scan(c *solidity.Contract) ([]model.Finding, error) {
	var findings []model.Finding
	for _, fn := range c.Functions {
		for _, call := range fn.Calls {
			if call.Kind != solidity.CallInterface || call.Checked {
				continue
			}
			switch call.Method {
			case "transfer", "transferFrom", "approve":
			default:
				continue
			}
			findings = append(findings, newFinding(d.Meta(), c, fn.Name, call.Line,
				"Result of "+call.Target+"."+call.Method+" is ignored",
				"Use SafeERC20 (safeTransfer/safeTransferFrom/forceApprove) or require the returned bool",
				map[string]string{"call": call.Target + "." + call.Method}))
		}
	}
	return findings, nil
}
