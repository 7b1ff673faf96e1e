package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/harshilnayi/BlockScope/internal/model"
)

type baselineFile struct {
	GeneratedAt  time.Time `json:"generatedAt"`
	Fingerprints []string  `json:"fingerprints"`
}

// LoadBaseline reads a baseline written by WriteBaseline. A bare JSON array of
// fingerprints is accepted too. An empty path yields an empty set.
func LoadBaseline(path string) (map[string]bool, error) {
	set := map[string]bool{}
	if path == "" {
		return set, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read baseline: %w", err)
	}
	var fps []string
	if err := json.Unmarshal(data, &fps); err != nil {
		var b baselineFile
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("parse baseline %s: %w", path, err)
		}
		fps = b.Fingerprints
	}
	for _, fp := range fps {
		set[fp] = true
	}
	return set, nil
}

func filterByBaseline(findings []model.Finding, known map[string]bool) []model.Finding {
	if len(known) == 0 {
		return findings
	}
	out := findings[:0:0]
	for _, f := range findings {
		if f.Fingerprint != "" && known[f.Fingerprint] {
			continue
		}
		out = append(out, f)
	}
	return out
}

// WriteBaseline records the fingerprints of findings so later scans report only new
// issues.
func WriteBaseline(path string, findings []model.Finding) error {
	if path == "" {
		return nil
	}
	seen := map[string]bool{}
	b := baselineFile{GeneratedAt: time.Now().UTC(), Fingerprints: []string{}}
	for _, f := range findings {
		if f.Fingerprint != "" && !seen[f.Fingerprint] {
			seen[f.Fingerprint] = true
			b.Fingerprints = append(b.Fingerprints, f.Fingerprint)
		}
	}
	sort.Strings(b.Fingerprints)
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
