package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/harshilnayi/BlockScope/internal/model"
)

func sample() *model.ScanResult {
	fs := []model.Finding{
		{
			RuleID: "SOL-REENTRANCY", Kind: model.KindReentrancy, Severity: model.SeverityHigh,
			Confidence: 0.81, Score: 0.83, LineNumber: 5, Lines: model.Line(5), Contract: "Bank",
			Function: "withdraw", Title: "Reentrancy", Message: "external call before state write",
			Source: "blockscope", CorroboratedBy: []string{"slither"}, Fingerprint: "abc",
		},
		{
			RuleID: "slither:solc-version", Kind: model.KindOther, Severity: model.SeverityLow,
			Confidence: 0.4, Lines: model.LineRange{Start: 1, End: 2}, Message: "pragma", Source: "slither",
		},
	}
	b := model.Breakdown(fs)
	score := model.SecurityScore(fs)
	return &model.ScanResult{
		ContractName: "Bank", FilePath: "contracts/Bank.sol", Findings: fs,
		Errors: []string{}, SeverityBreakdown: b, OverallScore: score, Summary: model.Summarize(b, score),
	}
}

func TestToSARIF(t *testing.T) {
	data, err := ToSARIF(sample())
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Version string `json:"version"`
		Runs    []struct {
			Tool struct {
				Driver struct {
					Name  string `json:"name"`
					Rules []struct {
						ID string `json:"id"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
			Results []struct {
				RuleID    string `json:"ruleId"`
				Level     string `json:"level"`
				Locations []struct {
					Physical struct {
						Artifact struct {
							URI string `json:"uri"`
						} `json:"artifactLocation"`
						Region struct {
							StartLine int `json:"startLine"`
							EndLine   int `json:"endLine"`
						} `json:"region"`
					} `json:"physicalLocation"`
					Logical []struct {
						Name string `json:"fullyQualifiedName"`
					} `json:"logicalLocations"`
				} `json:"locations"`
				Fingerprints map[string]string `json:"partialFingerprints"`
			} `json:"results"`
		} `json:"runs"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Version != "2.1.0" || len(doc.Runs) != 1 {
		t.Fatalf("doc = %+v", doc)
	}
	run := doc.Runs[0]
	if run.Tool.Driver.Name != "BlockScope" || len(run.Tool.Driver.Rules) != 17 {
		t.Fatalf("driver = %+v", run.Tool.Driver)
	}
	if len(run.Results) != 2 {
		t.Fatalf("results = %d", len(run.Results))
	}
	r := run.Results[0]
	loc := r.Locations[0]
	if r.Level != "error" || loc.Physical.Artifact.URI != "contracts/Bank.sol" || loc.Physical.Region.StartLine != 5 ||
		loc.Logical[0].Name != "Bank.withdraw" || r.Fingerprints["blockscope/v1"] != "abc" {
		t.Fatalf("result = %+v", r)
	}
	if run.Results[1].Level != "note" || run.Results[1].Locations[0].Physical.Region.EndLine != 2 {
		t.Fatalf("second result = %+v", run.Results[1])
	}
}

func TestLevel(t *testing.T) {
	cases := map[model.Severity]string{
		model.SeverityCritical: "error",
		model.SeverityHigh:     "error",
		model.SeverityMedium:   "warning",
		model.SeverityLow:      "note",
	}
	for sev, want := range cases {
		if got := Level(sev); got != want {
			t.Errorf("Level(%s) = %s, want %s", sev, got, want)
		}
	}
}

func TestWriteTable(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	if err := WriteTable(&buf, sample()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Bank (contracts/Bank.sol)", "HIGH", "Bank.withdraw:5", "blockscope,slither", " 1-2 ", "Score 94/100"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteTableParseError(t *testing.T) {
	color.NoColor = true
	msg := "line 1: unclosed '('"
	var buf bytes.Buffer
	if err := WriteTable(&buf, &model.ScanResult{ParseError: &msg}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "parse error: "+msg) {
		t.Fatalf("output = %s", buf.String())
	}
}
