package plugins

import (
	"github.com/harshilnayi/BlockScope/internal/model"
	"github.com/harshilnayi/BlockScope/internal/solidity"
)

// solidityProxyUpgrade flags upgrade entry points and UUPS authorization hooks that
// anyone can pass.
type solidityProxyUpgrade struct{}

func (d *solidityProxyUpgrade) Meta() model.RuleMeta {
	return model.RuleMeta{
		ID:         "SOL-PROXY-UPGRADE",
		Title:      "Unprotected proxy upgrade",
		Kind:       model.KindAccessControl,
		Severity:   model.SeverityHigh,
		Confidence: 0.65,
		References: []string{"EIP-1822", "SWC-105"},
	}
}

func (d *solidityProxyUpgrade) Scan(c *solidity.Contract) ([]model.Finding, error) {
	if c.Kind == "interface" {
		return nil, nil
	}
	var findings []model.Finding
	for _, fn := range c.Functions {
		switch {
		case (fn.Name == "upgradeTo" || fn.Name == "upgradeToAndCall") && fn.ExternallyVisible():
		case fn.Name == "_authorizeUpgrade":
		default:
			continue
		}
		if isAccessControlled(c, fn) {
			continue
		}
		findings = append(findings, newFinding(d.Meta(), c, fn.Name, fn.Lines.Start,
			fn.Name+" lets any caller replace the implementation",
			"Restrict upgrades with onlyOwner, onlyProxy or a role check",
			map[string]string{"function": fn.Name}))
	}
	return findings, nil
}
