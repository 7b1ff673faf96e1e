package plugins

import (
	"regexp"
	"strings"

	"github.com/harshilnayi/BlockScope/internal/model"
	"github.com/harshilnayi/BlockScope/internal/solidity"
)

var exactPragma = regexp.MustCompile(`^=?\s*\d+\.\d+\.\d+$`)

// solidityFloatingPragma reports a version pragma that admits more than one compiler.
// The finding is attached to the first contract of the unit so it is reported once.
type solidityFloatingPragma struct{}

func (d *solidityFloatingPragma) Meta() model.RuleMeta {
	return model.RuleMeta{
		ID:         "SOL-FLOATING-PRAGMA",
		Title:      "Floating pragma solidity version",
		Kind:       model.KindOther,
		Severity:   model.SeverityLow,
		Confidence: 0.9,
		References: []string{"SWC-103"},
	}
}

func (d *solidityFloatingPragma) Scan(c *solidity.Contract) ([]model.Finding, error) {
	u := c.Unit()
	if u == nil || len(u.Contracts) == 0 || u.Contracts[0] != c || !floatingPragma(u.Pragma) {
		return nil, nil
	}
	return []model.Finding{newFinding(d.Meta(), c, "", u.PragmaLine,
		"pragma solidity "+u.Pragma+" lets different builds use different compilers",
		"Pin an exact compiler version, e.g. pragma solidity 0.8.20; and enforce it in CI",
		map[string]string{"pragma": u.Pragma})}, nil
}

func floatingPragma(ver string) bool {
	ver = strings.TrimSpace(ver)
	if ver == "" || exactPragma.MatchString(ver) {
		return false
	}
	return strings.ContainsAny(ver, "^~<>")
}
