package tools

import (
	"encoding/json"

	"github.com/harshilnayi/BlockScope/internal/model"
)

// Solhint JSON schema (simplified)
type solhintMsg struct {
	RuleId   string `json:"ruleId"`
	Message  string `json:"message"`
	Severity int    `json:"severity"`
	Line     int    `json:"line"`
}
type solhintFile struct {
	FilePath string       `json:"filePath"`
	Messages []solhintMsg `json:"messages"`
}

func normalizeSolhint(raw []byte, tax Taxonomy) ([]model.Finding, error) {
	var files []solhintFile
	if err := json.Unmarshal(raw, &files); err != nil {
		return nil, err
	}
	var out []model.Finding
	for _, f := range files {
		for _, m := range f.Messages {
			if m.Line < 1 || m.RuleId == "" {
				continue
			}
			sev := model.SeverityLow
			if m.Severity >= 2 {
				sev = model.SeverityMedium
			}
			kind, conf := tax.Classify(m.RuleId, 0.5)
			out = append(out, model.Finding{
				RuleID:     m.RuleId,
				Kind:       kind,
				Severity:   sev,
				Confidence: conf,
				LineNumber: m.Line,
				Lines:      model.Line(m.Line),
				Title:      m.RuleId,
				Message:    m.Message,
			})
		}
	}
	return out, nil
}
