package util

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Fingerprint computes a stable hash for a finding key. The anchor is the trimmed
// source line of the finding, so the hash survives edits that only shift lines.
func Fingerprint(ruleID, contract, function, anchor string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s", ruleID, contract, function, strings.Join(strings.Fields(anchor), " "))
	return hex.EncodeToString(h.Sum(nil))
}
