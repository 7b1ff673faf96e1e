package analysis

import (
	"github.com/harshilnayi/BlockScope/internal/solidity"
)

// ContractContext carries the per-contract facts the scoring stage weighs.
type ContractContext struct {
	Contract         string
	Lines            int
	Functions        int
	ExternalCalls    int
	ValueTransfers   int
	HasValueTransfer bool
}

// CallDensity is external calls per function, 0 for a contract without functions.
func (c ContractContext) CallDensity() float64 {
	if c.Functions == 0 {
		return 0
	}
	return float64(c.ExternalCalls) / float64(c.Functions)
}

// ScanContext holds artifacts shared by one scan. It is built once after parsing and
// only read afterwards, so detectors and the scorer may use it concurrently.
type ScanContext struct {
	Unit      *solidity.SourceUnit
	contracts map[string]ContractContext
	aggregate ContractContext
}

func NewScanContext(u *solidity.SourceUnit) *ScanContext {
	sc := &ScanContext{Unit: u, contracts: make(map[string]ContractContext, len(u.Contracts))}
	for _, c := range u.Contracts {
		cc := describe(c)
		sc.contracts[c.Name] = cc
		sc.aggregate.Lines += cc.Lines
		sc.aggregate.Functions += cc.Functions
		sc.aggregate.ExternalCalls += cc.ExternalCalls
		sc.aggregate.ValueTransfers += cc.ValueTransfers
		sc.aggregate.HasValueTransfer = sc.aggregate.HasValueTransfer || cc.HasValueTransfer
	}
	return sc
}

func describe(c *solidity.Contract) ContractContext {
	cc := ContractContext{Contract: c.Name, Lines: c.Lines.End - c.Lines.Start + 1, Functions: len(c.Functions)}
	for _, fn := range c.Functions {
		cc.ExternalCalls += len(fn.Calls)
		for _, call := range fn.Calls {
			if call.HasValue {
				cc.ValueTransfers++
			}
		}
		if fn.Mutability == solidity.MutPayable {
			cc.HasValueTransfer = true
		}
	}
	if cc.ValueTransfers > 0 {
		cc.HasValueTransfer = true
	}
	return cc
}

// Contract returns the context of the named contract. Findings not attributed to a
// known contract get the aggregate over the whole unit.
func (s *ScanContext) Contract(name string) ContractContext {
	if cc, ok := s.contracts[name]; ok {
		return cc
	}
	agg := s.aggregate
	agg.Contract = name
	return agg
}

// ContractAt resolves a line to its enclosing contract and function names.
func (s *ScanContext) ContractAt(line int) (contract, function string) {
	c, ok := s.Unit.ContractAt(line)
	if !ok {
		return "", ""
	}
	if fn, ok := c.FunctionAt(line); ok {
		return c.Name, fn.Name
	}
	return c.Name, ""
}
