package model

import "testing"

func TestSecurityScoreAndSummary(t *testing.T) {
	findings := []Finding{
		{Severity: SeverityCritical},
		{Severity: SeverityCritical},
		{Severity: SeverityHigh},
	}
	b := Breakdown(findings)
	if b["critical"] != 2 || b["high"] != 1 || b["medium"] != 0 || b["low"] != 0 {
		t.Fatalf("unexpected breakdown %v", b)
	}
	score := SecurityScore(findings)
	if score != 75 {
		t.Fatalf("score = %d, want 75", score)
	}
	if got, want := Summarize(b, score), "2 critical, 1 high - MODERATE"; got != want {
		t.Fatalf("summary = %q, want %q", got, want)
	}
}

func TestSecurityScoreFloorsAtZero(t *testing.T) {
	var findings []Finding
	for i := 0; i < 12; i++ {
		findings = append(findings, Finding{Severity: SeverityCritical})
	}
	if got := SecurityScore(findings); got != 0 {
		t.Fatalf("score = %d, want 0", got)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	if got := Summarize(Breakdown(nil), 100); got != "No vulnerabilities found - SAFE" {
		t.Fatalf("unexpected summary %q", got)
	}
}

func TestSeverityRankAndKind(t *testing.T) {
	if !SeverityGTE(SeverityCritical, SeverityHigh) || SeverityGTE(SeverityLow, SeverityMedium) {
		t.Fatal("severity ordering broken")
	}
	if k, ok := ParseKind("FlashLoan"); !ok || k != KindFlashLoan {
		t.Fatalf("ParseKind(FlashLoan) = %v, %v", k, ok)
	}
	if k, ok := ParseKind("bogus"); ok || k != KindOther {
		t.Fatalf("ParseKind(bogus) = %v, %v", k, ok)
	}
}
