package solidity

import (
	"fmt"
	"strings"

	"github.com/harshilnayi/BlockScope/internal/model"
)

// Build parses source text into a SourceUnit.
//
// Delimiter structure must be intact: an unterminated literal or comment, or an
// unbalanced bracket, fails the build with a *ParseError. Inside a well-formed contract
// body a member that cannot be understood is skipped up to its terminating ';' or
// closing block, recorded in Diagnostics, and parsing continues with the next member.
func Build(text string) (*SourceUnit, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ParseError{Line: 1, Msg: "empty source"}
	}
	toks, err := lex(text)
	if err != nil {
		return nil, err
	}
	match, err := balance(toks)
	if err != nil {
		return nil, err
	}
	p := &parser{
		toks:          toks,
		match:         match,
		src:           text,
		unit:          &SourceUnit{Text: text},
		contractTypes: map[string]bool{},
		valueTypes:    map[string]bool{},
		enums:         map[string]bool{},
	}
	p.collectTypeNames()
	p.parseTop()
	return p.unit, nil
}

type parser struct {
	toks  []token
	match []int
	src   string
	unit  *SourceUnit

	contractTypes map[string]bool // contracts and interfaces: calls on them leave the contract
	valueTypes    map[string]bool // structs, enums, libraries, user-defined value types
	enums         map[string]bool
}

type span struct{ lo, hi int }

func (p *parser) text(i int) string {
	if i < 0 || i >= len(p.toks) {
		return ""
	}
	return p.toks[i].text
}

func (p *parser) isIdent(i int) bool {
	return i >= 0 && i < len(p.toks) && p.toks[i].kind == tokIdent
}

func (p *parser) line(i int) int {
	if i < 0 {
		return 1
	}
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1].line
	}
	return p.toks[i].line
}

// raw returns the exact source text covered by tokens [lo, hi).
func (p *parser) raw(lo, hi int) string {
	if lo >= hi || lo < 0 || hi > len(p.toks) {
		return ""
	}
	return p.src[p.toks[lo].off:p.toks[hi-1].end]
}

func (p *parser) diag(line int, format string, args ...any) {
	p.unit.Diagnostics = append(p.unit.Diagnostics, model.Diagnostic{Line: line, Message: fmt.Sprintf(format, args...)})
}

func (p *parser) isOpener(i int) bool {
	t := p.text(i)
	return p.toks[i].kind == tokPunct && (t == "(" || t == "[" || t == "{")
}

func (p *parser) collectTypeNames() {
	for i := 0; i+1 < len(p.toks); i++ {
		if p.toks[i].kind != tokIdent || !p.isIdent(i+1) {
			continue
		}
		name := p.text(i + 1)
		switch p.text(i) {
		case "contract", "interface":
			p.contractTypes[name] = true
		case "library", "struct":
			p.valueTypes[name] = true
		case "enum":
			p.valueTypes[name] = true
			p.enums[name] = true
		case "type":
			if p.text(i+2) == "is" {
				p.valueTypes[name] = true
			}
		}
	}
}

func (p *parser) parseTop() {
	n := len(p.toks)
	for i := 0; i < n; {
		t := p.toks[i]
		if t.kind != tokIdent {
			i = p.skipMember(i, n)
			continue
		}
		switch t.text {
		case "pragma":
			j := p.findSemi(i, n)
			if j < 0 {
				p.diag(t.line, "pragma without terminating ';'")
				return
			}
			if p.text(i+1) == "solidity" && p.unit.Pragma == "" && i+2 < j {
				p.unit.Pragma = strings.TrimSpace(p.raw(i+2, j))
				p.unit.PragmaLine = p.line(i)
			}
			i = j + 1
		case "abstract":
			if p.text(i+1) == "contract" {
				i = p.parseContract(i+1, "abstract")
			} else {
				i = p.skipMember(i, n)
			}
		case "contract", "interface", "library":
			i = p.parseContract(i, t.text)
		default:
			i = p.skipMember(i, n)
		}
	}
}

// findSemi returns the index of the next ';' outside any bracket group, or -1.
func (p *parser) findSemi(from, hi int) int {
	for j := from; j < hi; j++ {
		switch p.text(j) {
		case ";":
			return j
		case "(", "[", "{":
			j = p.match[j]
		}
	}
	return -1
}

// skipMember returns the index just past the declaration starting at i: after its ';'
// or after the first top-level block it opens.
func (p *parser) skipMember(i, hi int) int {
	for j := i; j < hi; j++ {
		switch p.text(j) {
		case ";":
			return j + 1
		case "{":
			return p.match[j] + 1
		case "(", "[":
			j = p.match[j]
		}
	}
	return hi
}

func (p *parser) splitAt(lo, hi int, sep string) []span {
	if lo >= hi {
		return nil
	}
	var out []span
	start := lo
	for j := lo; j < hi; j++ {
		if p.isOpener(j) {
			j = p.match[j]
			continue
		}
		if p.text(j) == sep {
			out = append(out, span{start, j})
			start = j + 1
		}
	}
	return append(out, span{start, hi})
}

func (p *parser) splitArgs(lo, hi int) []span { return p.splitAt(lo, hi, ",") }

func (p *parser) parseContract(i int, kind string) int {
	n := len(p.toks)
	if !p.isIdent(i + 1) {
		p.diag(p.line(i), "expected a name after %q", p.text(i))
		return p.skipMember(i, n)
	}
	c := &Contract{Name: p.text(i + 1), Kind: kind, unit: p.unit, stateIndex: map[string]*StateVariable{}}
	j := i + 2
	if p.text(j) == "is" {
		j++
		for j < n && p.text(j) != "{" {
			if p.isIdent(j) && (p.text(j-1) == "is" || p.text(j-1) == ",") {
				c.Bases = append(c.Bases, p.text(j))
			}
			if p.text(j) == "(" {
				j = p.match[j]
			}
			j++
		}
	}
	for j < n && p.text(j) != "{" {
		if p.text(j) == ";" {
			p.diag(p.line(i), "contract %s has no body", c.Name)
			return j + 1
		}
		if p.isOpener(j) {
			j = p.match[j]
		}
		j++
	}
	if j >= n {
		p.diag(p.line(i), "contract %s has no body", c.Name)
		return n
	}
	open, close := j, p.match[j]
	c.Lines = model.LineRange{Start: p.line(i), End: p.line(close)}
	p.parseMembers(c, open+1, close)
	p.unit.Contracts = append(p.unit.Contracts, c)
	return close + 1
}

func (p *parser) parseMembers(c *Contract, lo, hi int) {
	var callables []span
	for k := lo; k < hi; {
		end := p.skipMember(k, hi)
		switch p.text(k) {
		case "function":
			if p.text(k+1) == "(" && p.text(end-1) == ";" && p.isIdent(end-2) {
				// state variable of function type
				p.parseStateVar(c, k, end)
				break
			}
			callables = append(callables, span{k, end})
		case "constructor", "fallback", "receive", "modifier":
			callables = append(callables, span{k, end})
		case "event":
			p.parseEvent(c, k, end)
		case "using":
			if p.isIdent(k + 1) {
				c.Using = append(c.Using, p.text(k+1))
			}
		case "struct", "enum", "error", "type", ";":
		default:
			p.parseStateVar(c, k, end)
		}
		k = end
	}
	// Bodies are analyzed once every state variable is known, since declarations
	// may follow the functions that use them.
	for _, s := range callables {
		if p.text(s.lo) == "modifier" {
			p.parseModifier(c, s.lo, s.hi)
		} else {
			p.parseFunction(c, s.lo, s.hi)
		}
	}
}

func (p *parser) parseStateVar(c *Contract, lo, hi int) {
	last := hi - 1
	if p.text(last) != ";" {
		p.diag(p.line(lo), "unrecognized member in %s", c.Name)
		return
	}
	declEnd := last
	for j := lo; j < last; j++ {
		if p.isOpener(j) {
			j = p.match[j]
			continue
		}
		if p.text(j) == "=" {
			declEnd = j
			break
		}
	}
	if declEnd-lo < 2 || !p.isIdent(declEnd-1) {
		p.diag(p.line(lo), "malformed declaration in %s", c.Name)
		return
	}
	typeEnd := p.skipType(lo, declEnd-1)
	if typeEnd == lo {
		p.diag(p.line(lo), "malformed declaration in %s", c.Name)
		return
	}
	v := &StateVariable{Name: p.text(declEnd - 1), Type: p.typeText(lo, typeEnd), Visibility: VisInternal, Line: p.line(lo)}
	for j := typeEnd; j < declEnd-1; j++ {
		switch t := p.text(j); t {
		case "public", "private", "internal", "external":
			v.Visibility = Visibility(t)
		case "constant":
			v.Constant = true
		case "immutable":
			v.Immutable = true
		case "(":
			j = p.match[j]
		}
	}
	c.StateVars = append(c.StateVars, v)
	c.stateIndex[v.Name] = v
}

// skipType returns the index after the type name starting at lo, or lo if there is none.
func (p *parser) skipType(lo, hi int) int {
	if lo >= hi || !p.isIdent(lo) {
		return lo
	}
	j := lo + 1
	switch {
	case (p.text(lo) == "mapping" || p.text(lo) == "function") && p.text(lo+1) == "(":
		j = p.match[lo+1] + 1
	default:
		for p.text(j) == "." && p.isIdent(j+1) {
			j += 2
		}
		if p.text(j-1) == "address" && p.text(j) == "payable" {
			j++
		}
	}
	for j < hi && p.text(j) == "[" {
		j = p.match[j] + 1
	}
	if j > hi {
		return hi
	}
	return j
}

func (p *parser) typeText(lo, hi int) string {
	var b strings.Builder
	for j := lo; j < hi; j++ {
		if j > lo && p.toks[j].kind != tokPunct && p.toks[j-1].kind != tokPunct {
			b.WriteByte(' ')
		}
		b.WriteString(p.text(j))
	}
	return b.String()
}

func (p *parser) parseParams(lo, hi int) []Param {
	var out []Param
	for _, s := range p.splitArgs(lo, hi) {
		typeEnd := p.skipType(s.lo, s.hi)
		if typeEnd == s.lo {
			continue
		}
		prm := Param{Type: p.typeText(s.lo, typeEnd)}
		for j := typeEnd; j < s.hi; j++ {
			switch t := p.text(j); t {
			case "memory", "storage", "calldata":
				prm.Location = t
			case "indexed", "payable":
			default:
				if p.isIdent(j) {
					prm.Name = t
				}
			}
		}
		out = append(out, prm)
	}
	return out
}

func (p *parser) parseEvent(c *Contract, lo, hi int) {
	if !p.isIdent(lo+1) || p.text(lo+2) != "(" {
		p.diag(p.line(lo), "malformed event in %s", c.Name)
		return
	}
	open := lo + 2
	c.Events = append(c.Events, &Event{Name: p.text(lo + 1), Params: p.parseParams(open+1, p.match[open]), Line: p.line(lo)})
}

func (p *parser) parseModifier(c *Contract, lo, hi int) {
	if !p.isIdent(lo + 1) {
		p.diag(p.line(lo), "malformed modifier in %s", c.Name)
		return
	}
	m := &Modifier{Name: p.text(lo + 1), Lines: model.LineRange{Start: p.line(lo), End: p.line(hi - 1)}}
	j := lo + 2
	if p.text(j) == "(" {
		m.Params = p.parseParams(j+1, p.match[j])
		j = p.match[j] + 1
	}
	for j < hi && p.text(j) != "{" {
		if p.isOpener(j) {
			j = p.match[j]
		}
		j++
	}
	if j < hi {
		p.analyzeBody(c, &m.Body, j+1, p.match[j], m.Params)
	}
	c.Modifiers = append(c.Modifiers, m)
}

func (p *parser) parseFunction(c *Contract, lo, hi int) {
	f := &Function{Kind: KindFunction}
	k := lo + 1
	switch p.text(lo) {
	case "function":
		if p.isIdent(lo + 1) {
			f.Name = p.text(lo + 1)
			k = lo + 2
			if f.Name == c.Name {
				f.Kind = KindConstructor
			}
		} else {
			f.Kind, f.Name = KindFallback, "fallback"
		}
	case "constructor":
		f.Kind, f.Name = KindConstructor, "constructor"
	case "fallback":
		f.Kind, f.Name = KindFallback, "fallback"
	case "receive":
		f.Kind, f.Name = KindReceive, "receive"
	}
	if p.text(k) != "(" {
		p.diag(p.line(lo), "malformed %s declaration in %s", p.text(lo), c.Name)
		return
	}
	f.Params = p.parseParams(k+1, p.match[k])

	bases := map[string]bool{}
	for _, b := range c.Bases {
		bases[b] = true
	}
	bodyOpen := -1
	j := p.match[k] + 1
header:
	for j < hi {
		t := p.text(j)
		switch t {
		case "{":
			bodyOpen = j
			break header
		case ";":
			break header
		case "returns", "override":
			j++
			if p.text(j) == "(" {
				j = p.match[j] + 1
			}
		case "public", "external", "internal", "private":
			f.Visibility = Visibility(t)
			j++
		case "pure", "view", "payable":
			f.Mutability = Mutability(t)
			j++
		case "constant":
			f.Mutability = MutView
			j++
		case "virtual":
			j++
		default:
			if p.isIdent(j) && !(f.Kind == KindConstructor && bases[t]) {
				f.Modifiers = append(f.Modifiers, t)
			}
			j++
			if p.text(j) == "(" {
				j = p.match[j] + 1
			}
		}
	}
	if f.Visibility == "" {
		switch {
		case f.Kind == KindFallback || f.Kind == KindReceive || c.Kind == "interface":
			f.Visibility = VisExternal
		default:
			f.Visibility = VisPublic
		}
	}
	f.Lines = model.LineRange{Start: p.line(lo), End: p.line(hi - 1)}
	if f.Kind == KindFunction && f.ExternallyVisible() {
		f.Selector = Selector(f.Name, p.abiTypes(f.Params))
	}
	if bodyOpen >= 0 {
		p.analyzeBody(c, &f.Body, bodyOpen+1, p.match[bodyOpen], f.Params)
	}
	c.Functions = append(c.Functions, f)
}

func (p *parser) abiTypes(params []Param) []string {
	out := make([]string, 0, len(params))
	for _, prm := range params {
		out = append(out, p.canonicalType(prm.Type))
	}
	return out
}

// canonicalType rewrites a declared type into its ABI spelling for selector hashing.
func (p *parser) canonicalType(t string) string {
	t = strings.TrimSuffix(t, " payable")
	base, suffix := t, ""
	if i := strings.Index(t, "["); i >= 0 {
		base, suffix = t[:i], t[i:]
	}
	switch {
	case base == "uint":
		base = "uint256"
	case base == "int":
		base = "int256"
	case base == "byte":
		base = "bytes1"
	case p.enums[base]:
		base = "uint8"
	case p.isExternalType(base):
		base = "address"
	}
	return base + suffix
}

// isExternalType reports whether values of type t are contract references, so that
// member calls on them leave the current contract.
func (p *parser) isExternalType(t string) bool {
	base := strings.TrimSpace(t)
	if i := strings.Index(base, "["); i >= 0 {
		base = base[:i]
	}
	if base == "" {
		return false
	}
	if p.contractTypes[base] {
		return true
	}
	if p.valueTypes[base] || elementaryType(base) {
		return false
	}
	return base[0] >= 'A' && base[0] <= 'Z'
}

func elementaryType(t string) bool {
	switch t {
	case "address", "address payable", "bool", "string", "bytes", "byte", "var":
		return true
	}
	for _, prefix := range []string{"uint", "int", "bytes", "fixed", "ufixed", "mapping("} {
		if strings.HasPrefix(t, prefix) {
			return true
		}
	}
	return false
}
