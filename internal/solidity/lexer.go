package solidity

import (
	"fmt"
	"strings"
)

type tokKind int

const (
	tokIdent tokKind = iota
	tokNumber
	tokString
	tokPunct
)

type token struct {
	kind tokKind
	text string
	line int
	off  int // byte offset of the first character
	end  int // byte offset one past the last character
}

// ParseError reports source the builder could not recover from.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Msg) }

var punct3 = []string{"<<=", ">>=", ">>>", "**="}

var punct2 = []string{
	"==", "!=", "<=", ">=", "&&", "||", "++", "--", "+=", "-=", "*=", "/=", "%=",
	"|=", "&=", "^=", "<<", ">>", "**", "=>", "->", ":=",
}

// lex splits source into tokens. Comments are dropped and string literals become a
// single token, so nothing inside them is ever matched structurally.
func lex(src string) ([]token, error) {
	var toks []token
	line := 1
	i := 0
	n := len(src)
	for i < n {
		c := src[i]
		switch {
		case c == '\n':
			line++
			i++
		case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
			i++
		case c == '/' && i+1 < n && src[i+1] == '/':
			for i < n && src[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < n && src[i+1] == '*':
			start := line
			j := strings.Index(src[i+2:], "*/")
			if j < 0 {
				return nil, &ParseError{Line: start, Msg: "unterminated block comment"}
			}
			body := src[i : i+2+j+2]
			line += strings.Count(body, "\n")
			i += len(body)
		case c == '"' || c == '\'':
			start, startLine := i, line
			i++
			closed := false
			for i < n {
				if src[i] == '\\' && i+1 < n {
					if src[i+1] == '\n' {
						line++
					}
					i += 2
					continue
				}
				if src[i] == '\n' {
					break
				}
				if src[i] == c {
					closed = true
					i++
					break
				}
				i++
			}
			if !closed {
				return nil, &ParseError{Line: startLine, Msg: "unterminated string literal"}
			}
			toks = append(toks, token{kind: tokString, text: src[start:i], line: startLine, off: start, end: i})
		case isDigit(c):
			start := i
			for i < n && (isIdentChar(src[i]) || src[i] == '.') {
				i++
			}
			toks = append(toks, token{kind: tokNumber, text: src[start:i], line: line, off: start, end: i})
		case isIdentStart(c):
			start := i
			for i < n && isIdentChar(src[i]) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: src[start:i], line: line, off: start, end: i})
		default:
			w := 1
			for _, p := range punct3 {
				if strings.HasPrefix(src[i:], p) {
					w = 3
					break
				}
			}
			if w == 1 {
				for _, p := range punct2 {
					if strings.HasPrefix(src[i:], p) {
						w = 2
						break
					}
				}
			}
			toks = append(toks, token{kind: tokPunct, text: src[i : i+w], line: line, off: i, end: i + w})
			i += w
		}
	}
	return toks, nil
}

var closers = map[string]string{")": "(", "]": "[", "}": "{"}

// balance pairs every opening delimiter with its closer. A stray closer, a mismatched
// pair or an unclosed opener is unrecoverable and reported at the offending line.
func balance(toks []token) ([]int, error) {
	match := make([]int, len(toks))
	for i := range match {
		match[i] = -1
	}
	var stack []int
	for i, t := range toks {
		if t.kind != tokPunct {
			continue
		}
		switch t.text {
		case "(", "[", "{":
			stack = append(stack, i)
		case ")", "]", "}":
			if len(stack) == 0 {
				return nil, &ParseError{Line: t.line, Msg: fmt.Sprintf("unexpected %q", t.text)}
			}
			open := stack[len(stack)-1]
			if toks[open].text != closers[t.text] {
				return nil, &ParseError{Line: t.line, Msg: fmt.Sprintf("%q does not close %q opened at line %d", t.text, toks[open].text, toks[open].line)}
			}
			stack = stack[:len(stack)-1]
			match[open], match[i] = i, open
		}
	}
	if len(stack) > 0 {
		open := toks[stack[len(stack)-1]]
		return nil, &ParseError{Line: open.line, Msg: fmt.Sprintf("unclosed %q", open.text)}
	}
	return match, nil
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdentChar(c byte) bool  { return isIdentStart(c) || isDigit(c) }
