package plugins

import (
	"sort"
	"strings"

	"github.com/harshilnayi/BlockScope/internal/model"
	"github.com/harshilnayi/BlockScope/internal/solidity"
)

// solidityAccessControl flags externally callable functions that change variables the
// contract otherwise protects by caller checks, without any such check themselves.
type solidityAccessControl struct{}

func (d *solidityAccessControl) Meta() model.RuleMeta {
	return model.RuleMeta{
		ID:         "SOL-ACCESS-CONTROL",
		Title:      "Missing access control on state-changing function",
		Kind:       model.KindAccessControl,
		Severity:   model.SeverityHigh,
		Confidence: 0.6,
		References: []string{"SWC-105", "SWC-106"},
	}
}

func (d *solidityAccessControl) Scan(c *solidity.Contract) ([]model.Finding, error) {
	gated := gatedVars(c)
	if len(gated) == 0 {
		return nil, nil
	}
	var findings []model.Finding
	for _, fn := range c.Functions {
		if !fn.ExternallyVisible() || fn.ReadOnly() || isAccessControlled(c, fn) {
			continue
		}
		var hit []string
		line := 0
		for _, w := range fn.Writes {
			if gated[w.Var] && !contains(hit, w.Var) {
				hit = append(hit, w.Var)
				if line == 0 {
					line = w.Line
				}
			}
		}
		if len(hit) == 0 {
			continue
		}
		sort.Strings(hit)
		findings = append(findings, newFinding(d.Meta(), c, fn.Name, line,
			"Function "+fn.Name+" changes access-controlled state ("+strings.Join(hit, ", ")+") without restricting the caller",
			"Add appropriate access control (e.g., onlyOwner/onlyRole) or explicit require() checks.",
			map[string]string{"variables": strings.Join(hit, ","), "visibility": string(fn.Visibility)}))
	}
	return findings, nil
}

// gatedVars collects the state variables the contract treats as privileged: those
// compared against the caller, those written only behind caller checks, and address
// slots named like an authority.
func gatedVars(c *solidity.Contract) map[string]bool {
	gated := map[string]bool{}
	addConds := func(conds []solidity.Condition) {
		for _, cnd := range conds {
			for _, v := range cnd.SenderVars {
				gated[v] = true
			}
		}
	}
	for _, m := range c.Modifiers {
		addConds(m.Conditions)
	}
	for _, fn := range c.Functions {
		addConds(fn.Conditions)
		if fn.Kind == solidity.KindConstructor || !isAccessControlled(c, fn) {
			continue
		}
		for _, w := range fn.Writes {
			gated[w.Var] = true
		}
	}
	for _, v := range c.StateVars {
		if strings.HasPrefix(v.Type, "address") && authName(v.Name) {
			gated[v.Name] = true
		}
	}
	return gated
}

// isAccessControlled reports whether fn restricts its caller through an access
// modifier or an inline check.
func isAccessControlled(c *solidity.Contract, fn *solidity.Function) bool {
	if fn.Guarded {
		return true
	}
	for _, name := range fn.Modifiers {
		if isAccessModifier(c, name) {
			return true
		}
	}
	return false
}

func isAccessModifier(c *solidity.Contract, name string) bool {
	if m, ok := c.Modifier(name); ok {
		if m.Guarded {
			return true
		}
		for _, inv := range m.Invocations {
			if fn, ok := privateGuard(c, inv.Name); ok && fn.Guarded {
				return true
			}
		}
	}
	// inherited modifiers are judged by name
	return strings.HasPrefix(name, "only") || authName(name)
}

// privateGuard resolves a helper such as _checkOwner declared in the same contract.
func privateGuard(c *solidity.Contract, name string) (*solidity.Function, bool) {
	for _, fn := range c.Functions {
		if fn.Name == name && !fn.ExternallyVisible() {
			return fn, true
		}
	}
	return nil, false
}

func authName(name string) bool {
	n := strings.ToLower(name)
	for _, s := range []string{"owner", "admin", "auth", "role", "governance", "guardian", "operator", "minter"} {
		if strings.Contains(n, s) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
