package solidity

import (
	"math"
	"strings"
)

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"|=": true, "&=": true, "^=": true, "<<=": true, ">>=": true,
}

var arithmeticOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true, "**": true,
	"+=": true, "-=": true, "*=": true, "/=": true, "%=": true, "**=": true,
	"++": true, "--": true,
}

// Single-token receivers that never reach another contract.
var builtinRoots = map[string]bool{
	"abi": true, "msg": true, "block": true, "tx": true, "bytes": true,
	"string": true, "type": true, "super": true,
}

var globalRoots = map[string]bool{"msg": true, "block": true, "tx": true}

var statementKeywords = map[string]bool{
	"return": true, "emit": true, "delete": true, "new": true, "revert": true,
	"if": true, "else": true, "while": true, "for": true, "do": true, "try": true,
	"catch": true, "break": true, "continue": true, "throw": true, "_": true,
}

var guardHelpers = map[string]bool{
	"_checkOwner": true, "_checkRole": true, "_onlyOwner": true, "_requireOwner": true,
	"_checkAdmin": true, "_onlyAdmin": true, "_authorize": true,
}

type pendingCheck struct {
	call  int    // index into Body.Calls
	v     string // local holding the success flag or return data
	after int    // token order of the assigning statement's end
}

type returnUse struct {
	idents []string
	order  int
}

// exprCtx describes how the value of an expression is consumed.
type exprCtx struct {
	checked bool         // the value feeds a condition, return, emit or argument
	result  string       // local receiving the value of the statement
	assigns bool         // the expression is the right-hand side of an assignment
	written string       // state variable written by the enclosing statement
	bare    bool         // the expression is a whole statement
	skip    map[int]bool // token indices that are write targets, not reads
}

type bodyAnalyzer struct {
	p       *parser
	c       *Contract
	b       *Body
	locals  map[string]string // local name -> declared type
	aliases map[string]string // storage pointer -> state variable it references
	pending []pendingCheck
	returns []returnUse
}

func (p *parser) analyzeBody(c *Contract, b *Body, lo, hi int, params []Param) {
	w := &bodyAnalyzer{p: p, c: c, b: b, locals: map[string]string{}, aliases: map[string]string{}}
	for _, prm := range params {
		if prm.Name != "" {
			w.locals[prm.Name] = prm.Type
		}
	}
	w.walk(lo, hi, false)
	w.resolve()
}

func (w *bodyAnalyzer) walk(lo, hi int, unchecked bool) {
	p := w.p
	for i := lo; i < hi; {
		t := p.text(i)
		switch {
		case t == "{":
			w.walk(i+1, p.match[i], unchecked)
			i = p.match[i] + 1
		case t == "unchecked" && p.text(i+1) == "{":
			w.walk(i+2, p.match[i+1], true)
			i = p.match[i+1] + 1
		case t == "assembly":
			i = w.stmtEnd(i, hi)
		case (t == "if" || t == "while") && p.text(i+1) == "(":
			closeParen := p.match[i+1]
			gateEnd := w.stmtEnd(closeParen+1, hi)
			if t == "if" && p.text(gateEnd) == "else" && gateEnd < hi {
				gateEnd = w.stmtEnd(gateEnd+1, hi)
			}
			w.condition(t, i, i+2, closeParen, closeParen+1, gateEnd, unchecked)
			i = closeParen + 1
		case t == "for" && p.text(i+1) == "(":
			closeParen := p.match[i+1]
			parts := p.splitAt(i+2, closeParen, ";")
			if len(parts) == 3 {
				w.statement(parts[0].lo, parts[0].hi, unchecked)
				if parts[1].lo < parts[1].hi {
					w.condition("for", i, parts[1].lo, parts[1].hi, closeParen+1, w.stmtEnd(closeParen+1, hi), unchecked)
				}
				w.statement(parts[2].lo, parts[2].hi, unchecked)
			}
			i = closeParen + 1
		case t == "try":
			j := i + 1
			for j < hi && p.text(j) != "{" && p.text(j) != "returns" {
				if p.isOpener(j) {
					j = p.match[j]
				}
				j++
			}
			w.expression(i+1, j, unchecked, exprCtx{checked: true})
			for j < hi && p.text(j) != "{" {
				if p.text(j) == "(" {
					j = p.match[j]
				}
				j++
			}
			i = j
		case t == "catch":
			j := i + 1
			for j < hi && p.text(j) != "{" {
				if p.text(j) == "(" {
					j = p.match[j]
				}
				j++
			}
			i = j
		case t == "do" || t == "else" || t == ";":
			i++
		default:
			end := w.stmtEnd(i, hi)
			stop := end
			if stop > i && p.text(stop-1) == ";" {
				stop--
			}
			w.statement(i, stop, unchecked)
			i = end
		}
	}
}

// stmtEnd returns the index just past the statement that starts at i.
func (w *bodyAnalyzer) stmtEnd(i, hi int) int {
	p := w.p
	if i >= hi {
		return hi
	}
	switch p.text(i) {
	case "{":
		return p.match[i] + 1
	case "unchecked":
		if p.text(i+1) == "{" {
			return p.match[i+1] + 1
		}
	case "if", "while", "for":
		if p.text(i+1) == "(" {
			end := w.stmtEnd(p.match[i+1]+1, hi)
			if p.text(i) == "if" && end < hi && p.text(end) == "else" {
				end = w.stmtEnd(end+1, hi)
			}
			return end
		}
	case "do":
		end := w.stmtEnd(i+1, hi)
		if p.text(end) == "while" && p.text(end+1) == "(" {
			end = p.match[end+1] + 1
			if p.text(end) == ";" {
				end++
			}
		}
		return end
	case "assembly":
		for j := i + 1; j < hi; j++ {
			switch p.text(j) {
			case "{":
				return p.match[j] + 1
			case "(":
				j = p.match[j]
			}
		}
		return hi
	}
	for j := i; j < hi; j++ {
		if p.text(j) == ";" {
			return j + 1
		}
		if p.isOpener(j) {
			j = p.match[j]
		}
	}
	return hi
}

func (w *bodyAnalyzer) condition(kind string, kw, lo, hi, bodyLo, bodyHi int, unchecked bool) {
	cond := Condition{Kind: kind, Line: w.p.line(kw), Order: kw, Text: w.p.raw(lo, hi), bodyLo: bodyLo, bodyHi: bodyHi}
	w.describeCondition(&cond, lo, hi)
	w.b.Conditions = append(w.b.Conditions, cond)
	w.expression(lo, hi, unchecked, exprCtx{checked: true})
}

func (w *bodyAnalyzer) describeCondition(cond *Condition, lo, hi int) {
	p := w.p
	seen := map[string]bool{}
	for j := lo; j < hi; j++ {
		if !p.isIdent(j) || p.text(j-1) == "." {
			continue
		}
		name := p.text(j)
		if globalRoots[name] && p.text(j+1) == "." && p.isIdent(j+2) {
			name += "." + p.text(j+2)
		}
		if !seen[name] {
			seen[name] = true
			cond.Idents = append(cond.Idents, name)
		}
	}

	relational := false
	for j := lo; j < hi; j++ {
		switch p.text(j) {
		case "<", ">", "<=", ">=":
			relational = true
		}
	}
	addVar := func(name string) {
		if sv, ok := w.resolveState(name); ok {
			for _, v := range cond.SenderVars {
				if v == sv {
					return
				}
			}
			cond.SenderVars = append(cond.SenderVars, sv)
		}
	}
	for j := lo; j < hi; j++ {
		end, ok := w.senderAt(j)
		if !ok {
			continue
		}
		if j-1 >= lo && (p.text(j-1) == "==" || p.text(j-1) == "!=") {
			cond.SenderCheck = true
			if r := w.rootBefore(j-1, lo); r >= 0 {
				addVar(p.text(r))
			}
		}
		if end < hi && (p.text(end) == "==" || p.text(end) == "!=") {
			cond.SenderCheck = true
			if p.isIdent(end + 1) {
				addVar(p.text(end + 1))
			}
		}
		if p.text(j-1) == "[" && p.isIdent(j-2) && !relational {
			if _, ok := w.resolveState(p.text(j - 2)); ok {
				cond.SenderCheck = true
				addVar(p.text(j - 2))
			}
		}
	}
	if !cond.SenderCheck && mentionsSender(cond.Idents) {
		for j := lo; j < hi; j++ {
			if p.isIdent(j) && p.text(j+1) == "(" && authName(p.text(j)) {
				cond.SenderCheck = true
				break
			}
		}
	}
	if cond.SenderCheck {
		w.b.Guarded = true
	}
}

// senderAt reports whether the caller identity starts at j and returns the index past it.
func (w *bodyAnalyzer) senderAt(j int) (int, bool) {
	p := w.p
	switch p.text(j) {
	case "msg":
		if p.text(j+1) == "." && p.text(j+2) == "sender" {
			return j + 3, true
		}
	case "tx":
		if p.text(j+1) == "." && p.text(j+2) == "origin" {
			return j + 3, true
		}
	case "_msgSender":
		if p.text(j+1) == "(" {
			return p.match[j+1] + 1, true
		}
	}
	return 0, false
}

func mentionsSender(idents []string) bool {
	for _, id := range idents {
		if id == "msg.sender" || id == "_msgSender" || id == "tx.origin" {
			return true
		}
	}
	return false
}

func authName(name string) bool {
	n := strings.ToLower(name)
	for _, s := range []string{"role", "owner", "auth", "admin", "whitelist", "allowed"} {
		if strings.Contains(n, s) {
			return true
		}
	}
	return false
}

// rootBefore returns the root identifier of the operand that ends just before op.
func (w *bodyAnalyzer) rootBefore(op, lo int) int {
	p := w.p
	j := op - 1
	for j >= lo {
		if t := p.text(j); t == ")" || t == "]" {
			j = p.match[j] - 1
			continue
		}
		if !p.isIdent(j) {
			return -1
		}
		if j-2 >= lo && p.text(j-1) == "." {
			j -= 2
			continue
		}
		return j
	}
	return -1
}

func (w *bodyAnalyzer) resolveState(name string) (string, bool) {
	if sv, ok := w.aliases[name]; ok {
		return sv, true
	}
	if _, local := w.locals[name]; local {
		return "", false
	}
	if v, ok := w.c.stateIndex[name]; ok && !v.Constant {
		return name, true
	}
	return "", false
}

func (w *bodyAnalyzer) typeOf(name string) string {
	if t, ok := w.locals[name]; ok {
		return t
	}
	if v, ok := w.c.stateIndex[name]; ok {
		return v.Type
	}
	return ""
}

func (w *bodyAnalyzer) statement(lo, hi int, unchecked bool) {
	p := w.p
	if lo >= hi {
		return
	}
	switch p.text(lo) {
	case "return":
		w.returns = append(w.returns, returnUse{idents: w.identsIn(lo+1, hi), order: lo})
		w.expression(lo+1, hi, unchecked, exprCtx{checked: true})
		return
	case "emit", "revert", "throw":
		w.expression(lo+1, hi, unchecked, exprCtx{checked: true})
		return
	case "require", "assert":
		if p.text(lo+1) == "(" {
			closeParen := p.match[lo+1]
			if args := p.splitArgs(lo+2, closeParen); len(args) > 0 {
				cond := Condition{Kind: p.text(lo), Line: p.line(lo), Order: lo, Text: p.raw(args[0].lo, args[0].hi), bodyLo: -1}
				w.describeCondition(&cond, args[0].lo, args[0].hi)
				w.b.Conditions = append(w.b.Conditions, cond)
			}
			w.expression(lo+2, closeParen, unchecked, exprCtx{checked: true})
			return
		}
	case "delete":
		written := w.writeRoot(lo+1, "delete", hi, unchecked)
		w.expression(lo+1, hi, unchecked, exprCtx{written: written, skip: map[int]bool{lo + 1: true}})
		return
	case "_", "break", "continue":
		return
	}

	if names, eq, ok := w.declaration(lo, hi); ok {
		if eq > 0 {
			ctx := exprCtx{assigns: true}
			if len(names) > 0 {
				ctx.result = names[0]
			}
			w.expression(eq+1, hi, unchecked, ctx)
		}
		return
	}

	if a := w.assignOp(lo, hi); a > 0 {
		op := p.text(a)
		skip := map[int]bool{}
		var written, result string
		for _, r := range w.lhsRoots(lo, a) {
			skip[r] = true
			name := p.text(r)
			if sv, ok := w.resolveState(name); ok {
				w.addWrite(sv, op, p.line(r), hi, unchecked)
				if written == "" {
					written = sv
				}
			} else if _, local := w.locals[name]; local && result == "" {
				result = name
			}
		}
		if op != "=" && arithmeticOps[op] {
			w.b.Arithmetic = append(w.b.Arithmetic, ArithmeticOp{Op: op, Line: p.line(a), Order: a, Var: written, InUnchecked: unchecked})
		}
		w.expression(lo, a, unchecked, exprCtx{checked: true, written: written, skip: skip})
		w.expression(a+1, hi, unchecked, exprCtx{assigns: true, result: result, written: written})
		return
	}

	var written string
	skip := map[int]bool{}
	switch {
	case p.text(lo) == "++" || p.text(lo) == "--":
		written = w.writeRoot(lo+1, p.text(lo), hi, unchecked)
		skip[lo+1] = true
	case p.text(hi-1) == "++" || p.text(hi-1) == "--":
		written = w.writeRoot(lo, p.text(hi-1), hi, unchecked)
		skip[lo] = true
	default:
		for j := lo + 1; j+2 < hi; j++ {
			if p.text(j) == "." && (p.text(j+1) == "push" || p.text(j+1) == "pop") && p.text(j+2) == "(" {
				written = w.writeRoot(lo, p.text(j+1), hi, unchecked)
				break
			}
			if p.isOpener(j) {
				j = p.match[j]
			}
		}
	}
	w.expression(lo, hi, unchecked, exprCtx{bare: true, written: written, skip: skip})
}

func (w *bodyAnalyzer) writeRoot(root int, op string, order int, unchecked bool) string {
	if !w.p.isIdent(root) {
		return ""
	}
	sv, ok := w.resolveState(w.p.text(root))
	if !ok {
		return ""
	}
	w.addWrite(sv, op, w.p.line(root), order, unchecked)
	return sv
}

func (w *bodyAnalyzer) addWrite(sv, op string, line, order int, unchecked bool) {
	w.b.Writes = append(w.b.Writes, StateAccess{Var: sv, Op: op, Line: line, Order: order, InUnchecked: unchecked})
}

// declaration recognizes local variable declarations, including tuple forms such as
// "(bool ok, ) = ...". It returns the declared names in position order and the index
// of '=' (or -1 when there is no initializer).
func (w *bodyAnalyzer) declaration(lo, hi int) ([]string, int, bool) {
	p := w.p
	if p.text(lo) == "(" {
		closeParen := p.match[lo]
		if closeParen+1 >= hi || p.text(closeParen+1) != "=" {
			return nil, 0, false
		}
		segs := p.splitArgs(lo+1, closeParen)
		names := make([]string, len(segs))
		declared := false
		for i, s := range segs {
			if s.hi-s.lo >= 2 && p.isIdent(s.hi-1) {
				if typeEnd := p.skipType(s.lo, s.hi); typeEnd > s.lo && typeEnd < s.hi {
					declared = true
					names[i] = p.text(s.hi - 1)
					w.locals[names[i]] = p.typeText(s.lo, typeEnd)
				}
			}
		}
		if !declared {
			return nil, 0, false
		}
		return names, closeParen + 1, true
	}
	if !p.isIdent(lo) || statementKeywords[p.text(lo)] {
		return nil, 0, false
	}
	typeEnd := p.skipType(lo, hi)
	if typeEnd == lo {
		return nil, 0, false
	}
	j := typeEnd
	loc := ""
	for j < hi {
		t := p.text(j)
		if t != "memory" && t != "storage" && t != "calldata" {
			break
		}
		loc = t
		j++
	}
	if j >= hi || !p.isIdent(j) || statementKeywords[p.text(j)] {
		return nil, 0, false
	}
	if j+1 < hi && p.text(j+1) != "=" {
		return nil, 0, false
	}
	name := p.text(j)
	if j+1 >= hi {
		w.locals[name] = p.typeText(lo, typeEnd)
		return []string{name}, -1, true
	}
	if loc == "storage" {
		if sv, ok := w.resolveState(p.text(j + 2)); ok {
			w.aliases[name] = sv
		}
	}
	w.locals[name] = p.typeText(lo, typeEnd)
	return []string{name}, j + 1, true
}

func (w *bodyAnalyzer) assignOp(lo, hi int) int {
	p := w.p
	for j := lo; j < hi; j++ {
		if p.isOpener(j) {
			j = p.match[j]
			continue
		}
		if p.toks[j].kind == tokPunct && assignOps[p.text(j)] {
			return j
		}
	}
	return -1
}

func (w *bodyAnalyzer) lhsRoots(lo, a int) []int {
	p := w.p
	if p.text(lo) == "(" && p.match[lo] == a-1 {
		var roots []int
		for _, s := range p.splitArgs(lo+1, a-1) {
			if s.lo < s.hi && p.isIdent(s.lo) {
				roots = append(roots, s.lo)
			}
		}
		return roots
	}
	if p.isIdent(lo) {
		return []int{lo}
	}
	return nil
}

func (w *bodyAnalyzer) identsIn(lo, hi int) []string {
	var out []string
	for j := lo; j < hi; j++ {
		if w.p.isIdent(j) && w.p.text(j-1) != "." {
			out = append(out, w.p.text(j))
		}
	}
	return out
}

// expression scans tokens [lo, hi) for external calls, reads, invocations and
// arithmetic.
func (w *bodyAnalyzer) expression(lo, hi int, unchecked bool, ctx exprCtx) {
	p := w.p
	read := map[string]bool{}
	for j := lo; j < hi; j++ {
		t := p.toks[j]
		switch {
		case t.kind == tokPunct && t.text == "." && p.isIdent(j+1):
			w.externalCall(j, lo, hi, unchecked, ctx)
		case t.kind == tokIdent && p.text(j-1) != ".":
			name := t.text
			if p.text(j+1) == "(" {
				if guardHelpers[name] {
					w.b.Guarded = true
				}
				if w.invocable(name) {
					w.b.Invocations = append(w.b.Invocations, Invocation{Name: name, Line: t.line, Order: j, Args: w.argTexts(j + 1)})
				}
				continue
			}
			if globalRoots[name] && p.text(j+1) == "." && p.isIdent(j+2) {
				w.b.Globals = append(w.b.Globals, GlobalUse{Name: name + "." + p.text(j+2), Line: t.line, Order: j})
				continue
			}
			if ctx.skip[j] {
				continue
			}
			if name == "now" && w.typeOf(name) == "" {
				w.b.Globals = append(w.b.Globals, GlobalUse{Name: name, Line: t.line, Order: j})
				continue
			}
			if sv, ok := w.resolveState(name); ok && !read[sv] {
				read[sv] = true
				w.b.Reads = append(w.b.Reads, StateAccess{Var: sv, Op: "read", Line: t.line, Order: j, InUnchecked: unchecked})
			}
		case t.kind == tokPunct && arithmeticOps[t.text]:
			w.b.Arithmetic = append(w.b.Arithmetic, ArithmeticOp{Op: t.text, Line: t.line, Order: j, Var: ctx.written, InUnchecked: unchecked})
		}
	}
}

func (w *bodyAnalyzer) invocable(name string) bool {
	if statementKeywords[name] || elementaryType(name) || name == "payable" || name == "type" {
		return false
	}
	return !w.p.contractTypes[name] && !w.p.valueTypes[name]
}

func (w *bodyAnalyzer) argTexts(open int) []string {
	var out []string
	for _, s := range w.p.splitArgs(open+1, w.p.match[open]) {
		out = append(out, w.p.raw(s.lo, s.hi))
	}
	return out
}

// externalCall records a call whose member name follows the '.' at dot when the
// receiver can leave the contract.
func (w *bodyAnalyzer) externalCall(dot, lo, hi int, unchecked bool, ctx exprCtx) {
	p := w.p
	member := p.text(dot + 1)
	k := dot + 2
	hasValue := false
	for k < hi {
		if p.text(k) == "{" {
			for j := k + 1; j < p.match[k]; j++ {
				if p.text(j) == "value" && p.text(j+1) == ":" {
					hasValue = true
				}
			}
			k = p.match[k] + 1
			continue
		}
		if p.text(k) == "." && (p.text(k+1) == "value" || p.text(k+1) == "gas") && p.text(k+2) == "(" {
			if p.text(k+1) == "value" {
				hasValue = true
			}
			k = p.match[k+2] + 1
			continue
		}
		break
	}
	if k >= hi || p.text(k) != "(" {
		return
	}
	argsClose := p.match[k]
	rs := w.receiverStart(dot, lo)
	if rs < 0 || rs >= dot {
		return
	}
	if rs == dot-1 && builtinRoots[p.text(rs)] {
		return
	}
	args := w.argTexts(k)
	var kind CallKind
	switch member {
	case "call":
		kind = CallLowLevel
	case "staticcall":
		kind = CallStatic
	case "delegatecall", "callcode":
		kind = CallDelegate
	case "send":
		kind, hasValue = CallSend, true
	case "transfer":
		if len(args) == 1 {
			kind, hasValue = CallTransfer, true
			break
		}
		if !w.externalReceiver(rs, dot) {
			return
		}
		kind = CallInterface
	default:
		if !w.externalReceiver(rs, dot) {
			return
		}
		kind = CallInterface
	}

	checked := ctx.checked || kind == CallTransfer || strings.HasPrefix(member, "safe")
	bare := ctx.bare && rs == lo && argsClose == hi-1
	if !checked && !bare && !ctx.assigns {
		// nested inside a larger expression: the result is consumed
		checked = true
	}
	if !checked && ctx.assigns && !(rs == lo && argsClose == hi-1) {
		checked = true
	}
	call := ExternalCall{
		Target:   p.raw(rs, dot),
		Method:   member,
		Kind:     kind,
		Line:     p.line(dot + 1),
		Order:    dot + 1,
		HasValue: hasValue,
		Checked:  checked,
		Args:     args,
	}
	w.b.Calls = append(w.b.Calls, call)
	if !checked && ctx.assigns {
		w.pending = append(w.pending, pendingCheck{call: len(w.b.Calls) - 1, v: ctx.result, after: hi})
	}
}

// receiverStart walks back from the '.' at dot to the first token of the receiver.
func (w *bodyAnalyzer) receiverStart(dot, lo int) int {
	p := w.p
	j := dot - 1
	for j >= lo {
		t := p.text(j)
		if t == ")" || t == "]" {
			open := p.match[j]
			if open <= lo || !(p.isIdent(open-1) || p.text(open-1) == ")" || p.text(open-1) == "]") {
				return open
			}
			j = open - 1
			continue
		}
		if !p.isIdent(j) {
			return j + 1
		}
		if j-2 >= lo && p.text(j-1) == "." {
			j -= 2
			continue
		}
		return j
	}
	return -1
}

func (w *bodyAnalyzer) externalReceiver(rs, dot int) bool {
	p := w.p
	root := p.text(rs)
	if root == "this" && rs+1 == dot {
		return true
	}
	if p.text(rs+1) == "(" && p.match[rs+1] == dot-1 {
		return p.isExternalType(root)
	}
	if !p.isIdent(rs) {
		return false
	}
	typ := w.typeOf(root)
	j := rs + 1
	for j < dot && p.text(j) == "[" {
		typ = elementType(typ)
		j = p.match[j] + 1
	}
	return j == dot && p.isExternalType(typ)
}

func elementType(t string) string {
	if strings.HasPrefix(t, "mapping(") {
		i := strings.LastIndex(t, "=>")
		if i < 0 {
			return ""
		}
		return strings.TrimRight(strings.TrimSpace(t[i+2:]), ")")
	}
	if strings.HasSuffix(t, "]") {
		return t[:strings.LastIndex(t, "[")]
	}
	return ""
}

func (w *bodyAnalyzer) resolve() {
	b := w.b
	for _, pc := range w.pending {
		call := &b.Calls[pc.call]
		if pc.v == "" {
			continue
		}
		limit := math.MaxInt
		for _, wr := range b.Writes {
			if wr.Order > pc.after && wr.Order < limit {
				limit = wr.Order
			}
		}
		for _, cnd := range b.Conditions {
			if cnd.Order > call.Order && cnd.Order < limit && contains(cnd.Idents, pc.v) {
				call.Checked = true
			}
		}
		for _, r := range w.returns {
			if r.order > call.Order && r.order < limit && contains(r.idents, pc.v) {
				call.Checked = true
			}
		}
	}
	for i := range b.Calls {
		call := &b.Calls[i]
		for _, wr := range b.Writes {
			if wr.Order > call.Order {
				call.PrecedesStateWrite = true
			} else {
				call.FollowsStateWrite = true
			}
		}
	}
	for i := range b.Conditions {
		cnd := &b.Conditions[i]
		inGate := func(order int) bool {
			if cnd.bodyLo < 0 {
				return order > cnd.Order
			}
			return order >= cnd.bodyLo && order < cnd.bodyHi
		}
		for _, wr := range b.Writes {
			if inGate(wr.Order) {
				cnd.GatesStateWrite = true
			}
		}
		for _, call := range b.Calls {
			if call.HasValue && inGate(call.Order) {
				cnd.GatesStateWrite = true
			}
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
