package tools

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/harshilnayi/BlockScope/internal/model"
)

// Mythril "analyze -o json" output
type mythIssue struct {
	Title       string `json:"title"`
	SwcID       string `json:"swc-id"`
	Severity    string `json:"severity"`
	Contract    string `json:"contract"`
	Function    string `json:"function"`
	Lineno      int    `json:"lineno"`
	Description string `json:"description"`
}
type mythOut struct {
	Success bool        `json:"success"`
	Error   *string     `json:"error"`
	Issues  []mythIssue `json:"issues"`
}

func normalizeMythril(raw []byte, tax Taxonomy) ([]model.Finding, error) {
	var o mythOut
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, err
	}
	if !o.Success && o.Error != nil {
		return nil, errors.New(*o.Error)
	}
	var out []model.Finding
	for _, i := range o.Issues {
		if i.Lineno < 1 {
			continue
		}
		kind, conf := tax.Classify(i.SwcID, 0.7)
		fn := i.Function
		if p := strings.IndexByte(fn, '('); p >= 0 {
			fn = fn[:p]
		}
		out = append(out, model.Finding{
			RuleID:     "SWC-" + i.SwcID,
			Kind:       kind,
			Severity:   model.ParseSeverity(strings.ToLower(i.Severity)),
			Confidence: conf,
			LineNumber: i.Lineno,
			Lines:      model.Line(i.Lineno),
			Contract:   i.Contract,
			Function:   fn,
			Title:      i.Title,
			Message:    i.Description,
			References: []string{"SWC-" + i.SwcID},
			Evidence:   map[string]string{"swc": i.SwcID},
		})
	}
	return out, nil
}
