package analysis

import (
	"testing"

	"github.com/harshilnayi/BlockScope/internal/solidity"
)

func TestScanContext(t *testing.T) {
	src := `contract A {
    function pay(address payable to) external { to.transfer(1); }
    function ping(address t) external { t.call(""); }
}
contract B {
    function noop() external {}
}`
	u, err := solidity.Build(src)
	if err != nil {
		t.Fatal(err)
	}
	sc := NewScanContext(u)
	a := sc.Contract("A")
	if a.Functions != 2 || a.ExternalCalls != 2 || a.ValueTransfers != 1 || !a.HasValueTransfer || a.Lines != 4 {
		t.Fatalf("A = %+v", a)
	}
	if a.CallDensity() != 1 {
		t.Fatalf("density = %v", a.CallDensity())
	}
	if b := sc.Contract("B"); b.HasValueTransfer || b.CallDensity() != 0 {
		t.Fatalf("B = %+v", b)
	}
	if agg := sc.Contract("Missing"); agg.Functions != 3 || agg.Contract != "Missing" {
		t.Fatalf("aggregate = %+v", agg)
	}
	if c, fn := sc.ContractAt(3); c != "A" || fn != "ping" {
		t.Fatalf("ContractAt(3) = %s.%s", c, fn)
	}
	if c, _ := sc.ContractAt(99); c != "" {
		t.Fatalf("ContractAt(99) = %s", c)
	}
}
