package plugins

import (
	"fmt"
	"sort"
	"strings"

	"github.com/harshilnayi/BlockScope/internal/model"
	"github.com/harshilnayi/BlockScope/internal/solidity"
	"github.com/harshilnayi/BlockScope/internal/util"
)

// Source prefixes the source of findings produced by the built-in detectors.
const Source = "blockscope"

// SourceOf names the producing detector, e.g. "blockscope/SOL-REENTRANCY", so that two
// detectors reporting the same issue count as independent sources.
func SourceOf(ruleID string) string { return Source + "/" + ruleID }

// Detector inspects one contract of a built source unit. Implementations must not
// retain or mutate the contract.
type Detector interface {
	Meta() model.RuleMeta
	Scan(c *solidity.Contract) ([]model.Finding, error)
}

// DetectorError reports a detector that returned an error or panicked.
type DetectorError struct {
	RuleID   string
	Contract string
	Err      error
}

func (e *DetectorError) Error() string {
	return fmt.Sprintf("detector %s on %s: %v", e.RuleID, e.Contract, e.Err)
}

func (e *DetectorError) Unwrap() error { return e.Err }

// Builtin returns a fresh instance of every built-in detector, ordered by rule ID.
func Builtin() []Detector {
	ds := []Detector{
		&solidityReentrancy{},
		&solidityUncheckedCalls{},
		&solidityAccessControl{},
		&solidityTimestamp{},
		&solidityIntegerOverflow{},
		&solidityDelegatecallUnsafe{},
		&solidityFlashLoan{},
		&solidityUncheckedERC20{},
		&solidityTxOrigin{},
		&soliditySelfdestruct{},
		&solidityTransferSend{},
		&solidityRandomness{},
		&solidityFloatingPragma{},
		&solidityUnboundedLoops{},
		&solidityMEV{},
		&solidityProxyUpgrade{},
	}
	sort.Slice(ds, func(i, j int) bool { return ds[i].Meta().ID < ds[j].Meta().ID })
	return ds
}

type Registry struct{ detectors []Detector }

func NewRegistry() *Registry { return &Registry{} }

func (r *Registry) Register(d Detector) { r.detectors = append(r.detectors, d) }

func (r *Registry) RegisterBuiltin() {
	for _, d := range Builtin() {
		r.Register(d)
	}
}

func (r *Registry) Detectors() []Detector { return r.detectors }

// Select returns the registered detectors whose rule IDs appear in allow. An empty
// allowlist selects everything.
func (r *Registry) Select(allow []string) []Detector {
	if len(allow) == 0 {
		return r.detectors
	}
	ok := map[string]bool{}
	for _, id := range allow {
		ok[strings.ToUpper(strings.TrimSpace(id))] = true
	}
	var out []Detector
	for _, d := range r.detectors {
		if ok[d.Meta().ID] {
			out = append(out, d)
		}
	}
	return out
}

// Run executes d against c. Errors and panics come back as *DetectorError with no
// findings.
func Run(d Detector, c *solidity.Contract) (fs []model.Finding, err error) {
	id := d.Meta().ID
	defer func() {
		if r := recover(); r != nil {
			fs, err = nil, &DetectorError{RuleID: id, Contract: c.Name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	fs, err = d.Scan(c)
	if err != nil {
		return nil, &DetectorError{RuleID: id, Contract: c.Name, Err: err}
	}
	return fs, nil
}

// newFinding fills the fields every detector shares from the rule metadata and the
// location.
func newFinding(m model.RuleMeta, c *solidity.Contract, function string, line int, msg, remediation string, evidence map[string]string) model.Finding {
	src := c.Unit().Text
	return model.Finding{
		RuleID:      m.ID,
		Kind:        m.Kind,
		Severity:    m.Severity,
		Confidence:  m.Confidence,
		LineNumber:  line,
		Lines:       model.Line(line),
		Contract:    c.Name,
		Function:    function,
		Title:       m.Title,
		Message:     msg,
		Snippet:     util.ExtractSnippet(src, line, line, 2),
		Evidence:    evidence,
		Remediation: remediation,
		References:  m.References,
		Source:      SourceOf(m.ID),
		Fingerprint: util.Fingerprint(m.ID, c.Name, function, util.Line(src, line)),
	}
}

// identifiers splits expression text into its identifier tokens.
func identifiers(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !(r == '_' || r == '$' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	})
}

func mentions(s string, names ...string) bool {
	for _, id := range identifiers(s) {
		for _, n := range names {
			if id == n {
				return true
			}
		}
	}
	return false
}
