package plugins

import (
	"strings"

	"github.com/harshilnayi/BlockScope/internal/model"
	"github.com/harshilnayi/BlockScope/internal/solidity"
)

// solidityMEV flags router swaps that a searcher can sandwich: a zero minimum output or
// a deadline of the current block.
type solidityMEV struct{}

func (d *solidityMEV) Meta() model.RuleMeta {
	return model.RuleMeta{
		ID:         "SOL-MEV",
		Title:      "Swap without slippage or deadline protection",
		Kind:       model.KindOther,
		Severity:   model.SeverityMedium,
		Confidence: 0.5,
		References: []string{"SWC-114"},
	}
}

func (d *solidityMEV) Scan(c *solidity.Contract) ([]model.Finding, error) {
	var findings []model.Finding
	for _, fn := range c.Functions {
		for _, call := range fn.Calls {
			if !strings.HasPrefix(call.Method, "swapExact") || len(call.Args) < 4 {
				continue
			}
			// swapExactETHFor... takes no amountIn
			minIdx := 1
			if strings.HasPrefix(call.Method, "swapExactETH") {
				minIdx = 0
			}
			minOut := strings.TrimSpace(call.Args[minIdx])
			deadline := strings.Join(strings.Fields(call.Args[len(call.Args)-1]), "")
			var msg string
			switch {
			case minOut == "0":
				msg = call.Method + " in " + fn.Name + " accepts any output amount; the swap can be sandwiched"
			case deadline == "block.timestamp" || deadline == "now" || strings.Contains(deadline, "type(uint256).max"):
				msg = call.Method + " in " + fn.Name + " uses a deadline that never expires; a held transaction executes at a stale price"
			default:
				continue
			}
			findings = append(findings, newFinding(d.Meta(), c, fn.Name, call.Line, msg,
				"Pass a caller-chosen amountOutMin based on an oracle or TWAP and a real deadline",
				map[string]string{"method": call.Method, "amountOutMin": minOut, "deadline": deadline}))
		}
	}
	return findings, nil
}
