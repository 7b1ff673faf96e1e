// Package report renders scan results as SARIF, JSON or a terminal table.
package report

import (
	"encoding/json"
	"sort"

	"github.com/harshilnayi/BlockScope/internal/model"
	"github.com/harshilnayi/BlockScope/internal/plugins"
)

const toolName = "BlockScope"

type sarif struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name  string      `json:"name"`
	Rules []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
	HelpURI          string       `json:"helpUri,omitempty"`
}

type sarifResult struct {
	RuleID              string            `json:"ruleId"`
	Level               string            `json:"level"`
	Message             sarifMessage      `json:"message"`
	Locations           []sarifLoc        `json:"locations"`
	PartialFingerprints map[string]string `json:"partialFingerprints,omitempty"`
	Properties          map[string]any    `json:"properties,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLoc struct {
	Physical sarifPhys      `json:"physicalLocation"`
	Logical  []sarifLogical `json:"logicalLocations,omitempty"`
}

type sarifPhys struct {
	ArtifactLocation sarifArt    `json:"artifactLocation"`
	Region           sarifRegion `json:"region"`
}

type sarifArt struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
	EndLine   int `json:"endLine"`
}

type sarifLogical struct {
	FullyQualifiedName string `json:"fullyQualifiedName"`
	Kind               string `json:"kind"`
}

// Level maps a severity to a SARIF result level.
func Level(s model.Severity) string {
	switch s {
	case model.SeverityHigh, model.SeverityCritical:
		return "error"
	case model.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}

// ToSARIF renders a result as a SARIF 2.1.0 log with one run.
func ToSARIF(res *model.ScanResult) ([]byte, error) {
	results := make([]sarifResult, 0, len(res.Findings))
	seen := map[string]bool{}
	var rules []sarifRule
	for _, m := range builtinRules() {
		seen[m.ID] = true
		rules = append(rules, ruleOf(m))
	}
	for _, f := range res.Findings {
		if !seen[f.RuleID] {
			seen[f.RuleID] = true
			rules = append(rules, sarifRule{ID: f.RuleID, ShortDescription: sarifMessage{Text: f.Title}})
		}
		loc := sarifLoc{Physical: sarifPhys{
			ArtifactLocation: sarifArt{URI: res.FilePath},
			Region:           sarifRegion{StartLine: max(f.Lines.Start, 1), EndLine: max(f.Lines.End, f.Lines.Start, 1)},
		}}
		if f.Contract != "" {
			name, kind := f.Contract, "type"
			if f.Function != "" {
				name, kind = f.Contract+"."+f.Function, "function"
			}
			loc.Logical = []sarifLogical{{FullyQualifiedName: name, Kind: kind}}
		}
		r := sarifResult{
			RuleID:    f.RuleID,
			Level:     Level(f.Severity),
			Message:   sarifMessage{Text: f.Message},
			Locations: []sarifLoc{loc},
			Properties: map[string]any{
				"kind":       f.Kind,
				"severity":   f.Severity,
				"confidence": f.Confidence,
				"score":      f.Score,
				"source":     f.Source,
			},
		}
		if len(f.CorroboratedBy) > 0 {
			r.Properties["corroboratedBy"] = f.CorroboratedBy
		}
		if f.Fingerprint != "" {
			r.PartialFingerprints = map[string]string{"blockscope/v1": f.Fingerprint}
		}
		results = append(results, r)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	s := sarif{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs:    []sarifRun{{Tool: sarifTool{Driver: sarifDriver{Name: toolName, Rules: rules}}, Results: results}},
	}
	return json.MarshalIndent(s, "", "  ")
}

// ToJSON renders the full scan result.
func ToJSON(res *model.ScanResult) ([]byte, error) {
	return json.MarshalIndent(res, "", "  ")
}

func builtinRules() []model.RuleMeta {
	var out []model.RuleMeta
	for _, d := range plugins.Builtin() {
		out = append(out, d.Meta())
	}
	return out
}

func ruleOf(m model.RuleMeta) sarifRule {
	r := sarifRule{ID: m.ID, ShortDescription: sarifMessage{Text: m.Title}}
	if len(m.References) > 0 {
		r.HelpURI = m.References[0]
	}
	return r
}
