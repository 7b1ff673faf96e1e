package plugins

import (
	"fmt"
	"strings"

	"github.com/harshilnayi/BlockScope/internal/model"
	"github.com/harshilnayi/BlockScope/internal/solidity"
)

// solidityIntegerOverflow flags arithmetic on state that the compiler does not check:
// everything before 0.8 unless SafeMath is in use, and unchecked blocks after.
type solidityIntegerOverflow struct{}

func (d *solidityIntegerOverflow) Meta() model.RuleMeta {
	return model.RuleMeta{
		ID:         "SOL-INTEGER-OVERFLOW",
		Title:      "Unchecked integer arithmetic on state",
		Kind:       model.KindIntegerOverflow,
		Severity:   model.SeverityHigh,
		Confidence: 0.6,
		References: []string{"SWC-101"},
	}
}

var overflowOps = map[string]bool{
	"+": true, "-": true, "*": true, "**": true,
	"+=": true, "-=": true, "*=": true, "**=": true, "++": true, "--": true,
}

func (d *solidityIntegerOverflow) Scan(c *solidity.Contract) ([]model.Finding, error) {
	major, minor, ok := c.Unit().Version()
	legacy := ok && major == 0 && minor < 8
	for _, u := range c.Using {
		if strings.HasPrefix(u, "SafeMath") {
			legacy = false
		}
	}
	var findings []model.Finding
	for _, fn := range c.Functions {
		seen := map[int]bool{}
		for _, op := range fn.Arithmetic {
			if op.Var == "" || !overflowOps[op.Op] || seen[op.Line] {
				continue
			}
			if !op.InUnchecked && !legacy {
				continue
			}
			seen[op.Line] = true
			m := d.Meta()
			msg := fmt.Sprintf("Arithmetic %q on %s is not overflow-checked (pragma %s)", op.Op, op.Var, c.Unit().Pragma)
			if op.InUnchecked {
				m.Confidence = 0.45
				msg = fmt.Sprintf("Arithmetic %q on %s inside an unchecked block can wrap", op.Op, op.Var)
			}
			findings = append(findings, newFinding(m, c, fn.Name, op.Line, msg,
				"Use Solidity >=0.8 checked arithmetic or SafeMath; keep unchecked blocks to proven-safe counters",
				map[string]string{"variable": op.Var, "operator": op.Op, "unchecked": fmt.Sprint(op.InUnchecked)}))
		}
	}
	return findings, nil
}
