package tools

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/harshilnayi/BlockScope/internal/model"
)

// Slither --json output (the parts we read)
type slitherElement struct {
	Type          string `json:"type"`
	Name          string `json:"name"`
	SourceMapping struct {
		Lines []int `json:"lines"`
	} `json:"source_mapping"`
}
type slitherDetection struct {
	Check       string           `json:"check"`
	Impact      string           `json:"impact"`
	Confidence  string           `json:"confidence"`
	Description string           `json:"description"`
	Elements    []slitherElement `json:"elements"`
}
type slitherOut struct {
	Success bool    `json:"success"`
	Error   *string `json:"error"`
	Results struct {
		Detectors []slitherDetection `json:"detectors"`
	} `json:"results"`
}

var slitherSeverity = map[string]model.Severity{
	"High":          model.SeverityCritical,
	"Medium":        model.SeverityHigh,
	"Low":           model.SeverityMedium,
	"Informational": model.SeverityLow,
	"Optimization":  model.SeverityLow,
}

func normalizeSlither(raw []byte, tax Taxonomy) ([]model.Finding, error) {
	var o slitherOut
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, err
	}
	if !o.Success {
		msg := "analysis failed"
		if o.Error != nil {
			msg = *o.Error
		}
		return nil, errors.New(msg)
	}
	var out []model.Finding
	for _, d := range o.Results.Detectors {
		sev, ok := slitherSeverity[d.Impact]
		if !ok {
			sev = model.SeverityLow
		}
		conf := 0.5
		switch d.Confidence {
		case "High":
			conf = 0.85
		case "Medium":
			conf = 0.7
		}
		kind, conf := tax.Classify(d.Check, conf)
		el, ok := slitherAnchor(d.Elements)
		if !ok {
			continue
		}
		lines := el.SourceMapping.Lines
		f := model.Finding{
			RuleID:     d.Check,
			Kind:       kind,
			Severity:   sev,
			Confidence: conf,
			LineNumber: lines[0],
			Lines:      model.Line(lines[0]),
			Title:      d.Check,
			Message:    d.Description,
			Evidence: map[string]string{
				"check":      d.Check,
				"impact":     d.Impact,
				"confidence": d.Confidence,
				"span":       fmt.Sprintf("%d-%d", lines[0], lines[len(lines)-1]),
			},
		}
		if el.Type == "function" {
			f.Function = el.Name
		}
		out = append(out, f)
	}
	return out, nil
}

// slitherAnchor picks the statement-level element when present, otherwise the first
// element with source lines.
func slitherAnchor(els []slitherElement) (slitherElement, bool) {
	for _, e := range els {
		if e.Type == "node" && len(e.SourceMapping.Lines) > 0 {
			return e, true
		}
	}
	for _, e := range els {
		if len(e.SourceMapping.Lines) > 0 {
			return e, true
		}
	}
	return slitherElement{}, false
}
