package model

import "time"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities lists every class from most to least severe.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

func ParseSeverity(s string) Severity {
	switch s {
	case string(SeverityCritical):
		return SeverityCritical
	case string(SeverityHigh):
		return SeverityHigh
	case string(SeverityMedium):
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Rank orders severities; higher is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	default:
		return 1
	}
}

func SeverityGTE(a, b Severity) bool { return a.Rank() >= b.Rank() }

// Kind is the vulnerability class a finding belongs to.
type Kind string

const (
	KindReentrancy          Kind = "Reentrancy"
	KindIntegerOverflow     Kind = "IntegerOverflow"
	KindAccessControl       Kind = "AccessControl"
	KindUnsafeDelegatecall  Kind = "UnsafeDelegatecall"
	KindUncheckedCall       Kind = "UncheckedCall"
	KindTimestampDependency Kind = "TimestampDependency"
	KindFlashLoan           Kind = "FlashLoan"
	KindTokenTransferIssue  Kind = "TokenTransferIssue"
	KindOther               Kind = "Other"
)

var Kinds = []Kind{
	KindReentrancy, KindIntegerOverflow, KindAccessControl, KindUnsafeDelegatecall,
	KindUncheckedCall, KindTimestampDependency, KindFlashLoan, KindTokenTransferIssue, KindOther,
}

// ParseKind maps a kind name to its constant; unknown names become KindOther.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return KindOther, false
}

type LineRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func Line(n int) LineRange { return LineRange{Start: n, End: n} }

func (r LineRange) Contains(line int) bool { return line >= r.Start && line <= r.End }

// Less orders ranges by start line, then end line.
func (r LineRange) Less(o LineRange) bool {
	if r.Start != o.Start {
		return r.Start < o.Start
	}
	return r.End < o.End
}

type RuleMeta struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Kind       Kind     `json:"kind"`
	Severity   Severity `json:"severity"`
	Confidence float64  `json:"confidence"`
	References []string `json:"references"`
}

// Finding is one potential vulnerability. Detectors and adapters emit findings whose
// Severity and Confidence are priors; the calculator produces the final values.
type Finding struct {
	RuleID         string            `json:"rule_id"`
	Kind           Kind              `json:"kind"`
	Severity       Severity          `json:"severity"`
	Confidence     float64           `json:"confidence"`
	Score          float64           `json:"score,omitempty"`
	LineNumber     int               `json:"line_number"`
	Lines          LineRange         `json:"line_range"`
	Contract       string            `json:"contract,omitempty"`
	Function       string            `json:"function,omitempty"`
	Title          string            `json:"title"`
	Message        string            `json:"message"`
	Snippet        string            `json:"code_snippet"`
	Evidence       map[string]string `json:"evidence,omitempty"`
	Remediation    string            `json:"remediation,omitempty"`
	References     []string          `json:"references,omitempty"`
	Source         string            `json:"source"`
	CorroboratedBy []string          `json:"corroborated_by,omitempty"`
	Fingerprint    string            `json:"fingerprint,omitempty"`
}

// Key is the dedup identity of a finding; it ignores the producing source.
type Key struct {
	Kind     Kind
	Lines    LineRange
	Contract string
	Function string
}

func (f Finding) Key() Key {
	return Key{Kind: f.Kind, Lines: f.Lines, Contract: f.Contract, Function: f.Function}
}

// Sources returns the producing source followed by every corroborating source.
func (f Finding) Sources() []string {
	out := make([]string, 0, 1+len(f.CorroboratedBy))
	out = append(out, f.Source)
	return append(out, f.CorroboratedBy...)
}

type ScanRequest struct {
	ContractName string
	SourceCode   string
	FilePath     string
	// TimeBudget bounds the whole scan when positive, in addition to any context deadline.
	TimeBudget time.Duration
}

type Diagnostic struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

type ScanResult struct {
	ContractName      string         `json:"contract_name"`
	FilePath          string         `json:"file_path,omitempty"`
	Findings          []Finding      `json:"findings"`
	Partial           bool           `json:"partial"`
	Errors            []string       `json:"errors"`
	ParseError        *string        `json:"parse_error"`
	Diagnostics       []Diagnostic   `json:"diagnostics,omitempty"`
	SeverityBreakdown map[string]int `json:"severity_breakdown"`
	OverallScore      int            `json:"overall_score"`
	Summary           string         `json:"summary"`
	Elapsed           time.Duration  `json:"elapsed"`
}
