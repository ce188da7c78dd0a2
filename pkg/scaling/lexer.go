package scaling

import (
	"fmt"
	"strconv"
	"strings"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

// tokenize splits a formula into tokens.
func tokenize(expr string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(expr) {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case isDigit(c) || (c == '.' && i+1 < len(expr) && isDigit(expr[i+1])):
			start := i
			if c == '0' && i+1 < len(expr) && (expr[i+1] == 'x' || expr[i+1] == 'X') {
				i += 2
				for i < len(expr) && isHex(expr[i]) {
					i++
				}
				v, err := strconv.ParseUint(expr[start+2:i], 16, 64)
				if err != nil {
					return nil, &SyntaxError{Expr: expr, Pos: start, Msg: fmt.Sprintf("invalid hex literal %q", expr[start:i])}
				}
				toks = append(toks, token{kind: tokNumber, text: expr[start:i], num: float64(v), pos: start})
				continue
			}
			for i < len(expr) && (isDigit(expr[i]) || expr[i] == '.') {
				i++
			}
			if i < len(expr) && (expr[i] == 'e' || expr[i] == 'E') {
				j := i + 1
				if j < len(expr) && (expr[j] == '+' || expr[j] == '-') {
					j++
				}
				if j < len(expr) && isDigit(expr[j]) {
					i = j
					for i < len(expr) && isDigit(expr[i]) {
						i++
					}
				}
			}
			v, err := strconv.ParseFloat(expr[start:i], 64)
			if err != nil {
				return nil, &SyntaxError{Expr: expr, Pos: start, Msg: fmt.Sprintf("invalid number %q", expr[start:i])}
			}
			toks = append(toks, token{kind: tokNumber, text: expr[start:i], num: v, pos: start})

		case isLetter(c):
			start := i
			for i < len(expr) && (isLetter(expr[i]) || isDigit(expr[i])) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: strings.ToLower(expr[start:i]), pos: start})

		case strings.IndexByte("+-*/%^", c) >= 0:
			toks = append(toks, token{kind: tokOp, text: string(c), pos: i})
			i++

		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++

		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++

		case c == ',':
			toks = append(toks, token{kind: tokComma, text: ",", pos: i})
			i++

		default:
			return nil, &SyntaxError{Expr: expr, Pos: i, Msg: fmt.Sprintf("unexpected character %q", c)}
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(expr)})
	return toks, nil
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' }
func isHex(c byte) bool {
	return isDigit(c) || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}
