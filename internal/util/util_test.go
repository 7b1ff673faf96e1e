package util

import "testing"

func TestExtractSnippet(t *testing.T) {
	src := "a\nb\nc\nd\ne"
	cases := []struct {
		start, end, ctx int
		want            string
	}{
		{3, 3, 0, "c"},
		{3, 3, 1, "b\nc\nd"},
		{1, 2, 5, "a\nb\nc\nd\ne"},
		{9, 9, 1, ""},
	}
	for _, tc := range cases {
		if got := ExtractSnippet(src, tc.start, tc.end, tc.ctx); got != tc.want {
			t.Errorf("ExtractSnippet(%d,%d,%d) = %q, want %q", tc.start, tc.end, tc.ctx, got, tc.want)
		}
	}
}

func TestLine(t *testing.T) {
	src := "first\r\nsecond\nthird"
	if got := Line(src, 1); got != "first" {
		t.Fatalf("Line 1 = %q", got)
	}
	if got := Line(src, 3); got != "third" {
		t.Fatalf("Line 3 = %q", got)
	}
	if got := Line(src, 4); got != "" {
		t.Fatalf("Line 4 = %q", got)
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("SOL-REENTRANCY", "Vault", "withdraw", "  to.call{value: x}(\"\");")
	b := Fingerprint("SOL-REENTRANCY", "Vault", "withdraw", "\tto.call{value:   x}(\"\");  ")
	if a != b {
		t.Fatal("whitespace should not change the fingerprint")
	}
	if a == Fingerprint("SOL-TRANSFER-SEND", "Vault", "withdraw", "to.call{value: x}(\"\");") {
		t.Fatal("rule id must be part of the fingerprint")
	}
}
