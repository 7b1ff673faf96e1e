package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, path, err := Load(NewViper(), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if path != "" {
		t.Skipf("a %s above the temp dir shadows the defaults: %s", FileName, path)
	}
	if cfg.Scoring.ConfidenceFloor != 0.3 || cfg.Scoring.Ladder.Critical != 0.85 || cfg.CorroborationBonus != 0.25 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.ExternalTools.Slither.Enabled || cfg.ExternalTools.Mythril.Enabled {
		t.Fatalf("tool defaults = %+v", cfg.ExternalTools)
	}
}

func TestLoadSearchesUpwardsAndMerges(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "contracts", "vault")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	yml := `severity_threshold: high
time_budget_ms: 5000
rules: [SOL-REENTRANCY]
ignore:
  - rule: SOL-TIMESTAMP
    path: contracts/legacy
scoring:
  confidence_floor: 0.4
taxonomy:
  slither:
    naming-convention: Other
`
	if err := os.WriteFile(filepath.Join(root, FileName), []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(nested, "Vault.sol")
	if err := os.WriteFile(file, []byte("contract Vault {}"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, path, err := Load(NewViper(), file)
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(root, FileName) {
		t.Fatalf("path = %s", path)
	}
	if cfg.SeverityThreshold != "high" || cfg.TimeBudget() != 5*time.Second || len(cfg.Rules) != 1 || len(cfg.Ignore) != 1 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Scoring.ConfidenceFloor != 0.4 || cfg.Scoring.Ladder.High != 0.65 {
		t.Fatalf("scoring merge = %+v", cfg.Scoring)
	}
	if cfg.Taxonomy["slither"]["naming-convention"] != "Other" {
		t.Fatalf("taxonomy = %v", cfg.Taxonomy)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("BLOCKSCOPE_SEVERITY_THRESHOLD", "critical")
	t.Setenv("BLOCKSCOPE_SCORING_CONFIDENCE_FLOOR", "0.5")
	cfg, _, err := Load(NewViper(), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SeverityThreshold != "critical" || cfg.Scoring.ConfidenceFloor != 0.5 {
		t.Fatalf("env not applied: threshold=%s floor=%v", cfg.SeverityThreshold, cfg.Scoring.ConfidenceFloor)
	}
}

func TestInvalidLadderRejected(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("scoring:\n  ladder:\n    high: 0.95\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Load(NewViper(), dir); err == nil {
		t.Fatal("want validation error")
	}
}

func TestIgnoreRuleExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cases := map[string]bool{"": true, "2025-06-01": true, "2025-05-31": false, "soon": true}
	for exp, want := range cases {
		if got := (IgnoreRule{Expires: exp}).Active(now); got != want {
			t.Errorf("Active(%q) = %v, want %v", exp, got, want)
		}
	}
}
