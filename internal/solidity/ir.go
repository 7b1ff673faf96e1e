package solidity

import (
	"strconv"
	"strings"

	"github.com/harshilnayi/BlockScope/internal/model"
)

type Visibility string

const (
	VisPublic   Visibility = "public"
	VisExternal Visibility = "external"
	VisInternal Visibility = "internal"
	VisPrivate  Visibility = "private"
)

type Mutability string

const (
	MutNone    Mutability = ""
	MutPure    Mutability = "pure"
	MutView    Mutability = "view"
	MutPayable Mutability = "payable"
)

type FunctionKind string

const (
	KindFunction    FunctionKind = "function"
	KindConstructor FunctionKind = "constructor"
	KindFallback    FunctionKind = "fallback"
	KindReceive     FunctionKind = "receive"
)

type CallKind string

const (
	CallLowLevel  CallKind = "call"
	CallStatic    CallKind = "staticcall"
	CallDelegate  CallKind = "delegatecall"
	CallTransfer  CallKind = "transfer"
	CallSend      CallKind = "send"
	CallInterface CallKind = "interface"
)

// SourceUnit is the parsed form of one source text. It is never mutated after Build.
type SourceUnit struct {
	Text        string
	Pragma      string
	PragmaLine  int
	Contracts   []*Contract
	Diagnostics []model.Diagnostic
}

type Contract struct {
	Name       string
	Kind       string // contract, abstract, interface or library
	Bases      []string
	StateVars  []*StateVariable
	Functions  []*Function
	Modifiers  []*Modifier
	Events     []*Event
	Using      []string
	Lines      model.LineRange
	unit       *SourceUnit
	stateIndex map[string]*StateVariable
}

type StateVariable struct {
	Name       string
	Type       string
	Visibility Visibility
	Constant   bool
	Immutable  bool
	Line       int
}

type Param struct {
	Type     string
	Name     string
	Location string
}

type Event struct {
	Name   string
	Params []Param
	Line   int
}

type Modifier struct {
	Name   string
	Params []Param
	Lines  model.LineRange
	Body
}

type Function struct {
	Name       string
	Kind       FunctionKind
	Visibility Visibility
	Mutability Mutability
	Params     []Param
	Modifiers  []string
	Selector   string
	Lines      model.LineRange
	Body
}

// Body holds the call sites of a function or modifier in program order. Order values
// are token positions, so comparing two Orders compares execution order along the
// straight-line reading of the body.
type Body struct {
	Calls       []ExternalCall
	Writes      []StateAccess
	Reads       []StateAccess
	Conditions  []Condition
	Arithmetic  []ArithmeticOp
	Invocations []Invocation
	Globals     []GlobalUse
	// Guarded is set when the body checks the caller inline (msg.sender comparisons,
	// role lookups, _checkOwner style helpers).
	Guarded bool
}

type ExternalCall struct {
	Target             string
	Method             string
	Kind               CallKind
	Line               int
	Order              int
	HasValue           bool
	Checked            bool
	PrecedesStateWrite bool
	FollowsStateWrite  bool
	Args               []string
}

type StateAccess struct {
	Var         string
	Op          string
	Line        int
	Order       int
	InUnchecked bool
}

type Condition struct {
	Kind            string // if, while, for, require, assert
	Text            string
	Idents          []string
	Line            int
	Order           int
	SenderCheck     bool
	SenderVars      []string
	GatesStateWrite bool
	bodyLo, bodyHi  int
}

type ArithmeticOp struct {
	Op          string
	Line        int
	Order       int
	Var         string // state variable written by the enclosing statement, if any
	InUnchecked bool
}

// GlobalUse is a read of a chain or transaction attribute such as block.timestamp,
// msg.value or the legacy alias now.
type GlobalUse struct {
	Name  string
	Line  int
	Order int
}

type Invocation struct {
	Name  string
	Line  int
	Order int
	Args  []string
}

// Unit returns the source unit that owns the contract.
func (c *Contract) Unit() *SourceUnit { return c.unit }

func (c *Contract) StateVar(name string) (*StateVariable, bool) {
	v, ok := c.stateIndex[name]
	return v, ok
}

func (c *Contract) Modifier(name string) (*Modifier, bool) {
	for _, m := range c.Modifiers {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// FunctionAt returns the function whose line range covers line.
func (c *Contract) FunctionAt(line int) (*Function, bool) {
	for _, f := range c.Functions {
		if f.Lines.Contains(line) {
			return f, true
		}
	}
	return nil, false
}

// ContractAt returns the contract whose line range covers line.
func (u *SourceUnit) ContractAt(line int) (*Contract, bool) {
	for _, c := range u.Contracts {
		if c.Lines.Contains(line) {
			return c, true
		}
	}
	return nil, false
}

func (u *SourceUnit) Contract(name string) (*Contract, bool) {
	for _, c := range u.Contracts {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Version returns the major and minor compiler version of the first number in the
// pragma, e.g. (0, 8) for "^0.8.19" or ">=0.6.0 <0.9.0".
func (u *SourceUnit) Version() (major, minor int, ok bool) {
	p := u.Pragma
	start := strings.IndexAny(p, "0123456789")
	if start < 0 {
		return 0, 0, false
	}
	parts := strings.SplitN(strings.FieldsFunc(p[start:], func(r rune) bool {
		return !(r == '.' || (r >= '0' && r <= '9'))
	})[0], ".", 3)
	if len(parts) < 2 {
		return 0, 0, false
	}
	major, errMaj := strconv.Atoi(parts[0])
	minor, errMin := strconv.Atoi(parts[1])
	return major, minor, errMaj == nil && errMin == nil
}

// ExternallyVisible reports whether outside callers can enter the function.
func (f *Function) ExternallyVisible() bool {
	switch f.Kind {
	case KindFallback, KindReceive:
		return true
	case KindFunction:
		return f.Visibility == VisPublic || f.Visibility == VisExternal
	}
	return false
}

func (f *Function) ReadOnly() bool { return f.Mutability == MutView || f.Mutability == MutPure }

func (f *Function) HasModifier(name string) bool {
	for _, m := range f.Modifiers {
		if m == name {
			return true
		}
	}
	return false
}

func (f *Function) IsParam(name string) bool {
	for _, p := range f.Params {
		if p.Name != "" && p.Name == name {
			return true
		}
	}
	return false
}

// WritesState reports whether the body writes any state variable.
func (b *Body) WritesState() bool { return len(b.Writes) > 0 }

func (b *Body) WritesVar(name string) bool {
	for _, w := range b.Writes {
		if w.Var == name {
			return true
		}
	}
	return false
}
