package plugins

import (
	"strings"

	"github.com/harshilnayi/BlockScope/internal/model"
	"github.com/harshilnayi/BlockScope/internal/solidity"
)

// solidityFlashLoan flags two flash-loan shapes: state changes priced from a spot
// reading that one transaction can move, and loan callbacks that accept any caller.
type solidityFlashLoan struct{}

func (d *solidityFlashLoan) Meta() model.RuleMeta {
	return model.RuleMeta{
		ID:         "SOL-FLASHLOAN",
		Title:      "Flash-loan manipulable logic",
		Kind:       model.KindFlashLoan,
		Severity:   model.SeverityHigh,
		Confidence: 0.5,
		References: []string{"SWC-114"},
	}
}

var spotPriceMethods = map[string]bool{
	"getReserves":   true,
	"slot0":         true,
	"getAmountsOut": true,
	"getAmountOut":  true,
	"getAmountsIn":  true,
}

var flashCallbacks = map[string]bool{
	"onFlashLoan":            true,
	"executeOperation":       true,
	"receiveFlashLoan":       true,
	"uniswapV2Call":          true,
	"uniswapV3FlashCallback": true,
	"pancakeCall":            true,
	"DVMFlashLoanCall":       true,
}

func (d *solidityFlashLoan) Scan(c *solidity.Contract) ([]model.Finding, error) {
	var findings []model.Finding
	for _, fn := range c.Functions {
		if !fn.ExternallyVisible() {
			continue
		}
		if flashCallbacks[fn.Name] && !isAccessControlled(c, fn) {
			m := d.Meta()
			m.Confidence = 0.6
			findings = append(findings, newFinding(m, c, fn.Name, fn.Lines.Start,
				"Flash-loan callback "+fn.Name+" does not authenticate the lender or initiator",
				"require(msg.sender == trustedPool) and check the initiator argument before acting on the loan",
				map[string]string{"callback": fn.Name}))
		}
		if fn.ReadOnly() || !fn.WritesState() {
			continue
		}
		for _, call := range fn.Calls {
			if call.Kind != solidity.CallInterface || !spotPrice(call) {
				continue
			}
			findings = append(findings, newFinding(d.Meta(), c, fn.Name, call.Line,
				fn.Name+" prices a state change from "+call.Target+"."+call.Method+", which a flash loan can move within one transaction",
				"Use a TWAP or a manipulation-resistant oracle instead of spot reserves or balances",
				map[string]string{"price_source": call.Target + "." + call.Method}))
		}
	}
	return findings, nil
}

func spotPrice(call solidity.ExternalCall) bool {
	if spotPriceMethods[call.Method] {
		return true
	}
	if call.Method == "balanceOf" && len(call.Args) == 1 {
		return strings.Join(strings.Fields(call.Args[0]), "") == "address(this)"
	}
	return false
}
