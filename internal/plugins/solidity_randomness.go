package plugins

import (
	"github.com/harshilnayi/BlockScope/internal/model"
	"github.com/harshilnayi/BlockScope/internal/solidity"
)

var chainEntropy = map[string]bool{
	"block.timestamp":  true,
	"block.difficulty": true,
	"block.prevrandao": true,
	"block.number":     true,
	"block.coinbase":   true,
	"now":              true,
}

// solidityRandomness flags chain attributes hashed or reduced modulo n, the usual shape of
// on-chain dice and lotteries.
type solidityRandomness struct{}

func (d *solidityRandomness) Meta() model.RuleMeta {
	return model.RuleMeta{
		ID:         "SOL-RANDOMNESS",
		Title:      "Weak randomness from chain attributes",
		Kind:       model.KindOther,
		Severity:   model.SeverityMedium,
		Confidence: 0.6,
		References: []string{"SWC-120"},
	}
}

func (d *solidityRandomness) Scan(c *solidity.Contract) ([]model.Finding, error) {
	var findings []model.Finding
	for _, fn := range c.Functions {
		sources := map[int]string{}
		var lines []int
		note := func(line int, name string) {
			if _, ok := sources[line]; !ok {
				sources[line] = name
				lines = append(lines, line)
			}
		}
		for _, g := range fn.Globals {
			if chainEntropy[g.Name] {
				note(g.Line, g.Name)
			}
		}
		mixers := map[int]bool{}
		for _, inv := range fn.Invocations {
			switch inv.Name {
			case "blockhash":
				note(inv.Line, "blockhash")
			case "keccak256", "sha256":
				mixers[inv.Line] = true
			}
		}
		for _, op := range fn.Arithmetic {
			if op.Op == "%" || op.Op == "%=" {
				mixers[op.Line] = true
			}
		}
		for _, line := range lines {
			if !mixers[line] {
				continue
			}
			src := sources[line]
			findings = append(findings, newFinding(d.Meta(), c, fn.Name, line,
				src+" feeds a random value in "+fn.Name+"; block producers can influence or predict it",
				"Use Chainlink VRF or a commit-reveal scheme instead of chain attributes",
				map[string]string{"source": src}))
		}
	}
	return findings, nil
}
