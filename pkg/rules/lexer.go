package rules

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokenIdentifier tokenKind = iota
	tokenString
	tokenNumber
	tokenBool
	tokenNull
	tokenCompare
	tokenAssign
	tokenArith
	tokenAnd
	tokenOr
	tokenNot
	tokenIf
	tokenThen
	tokenElse
	tokenLParen
	tokenRParen
)

type token struct {
	kind tokenKind
	raw  string
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isDelimiter(ch byte) bool {
	switch ch {
	case '(', ')', '!', '=', '&', '|', '<', '>', '+', '*', '/', ',':
		return true
	}
	return isSpace(ch)
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0

	next := func() byte {
		if i >= len(input) {
			return 0
		}
		return input[i]
	}

	consume := func() byte {
		if i >= len(input) {
			return 0
		}
		ch := input[i]
		i++
		return ch
	}

	emit := func(kind tokenKind, raw string) {
		tokens = append(tokens, token{kind: kind, raw: raw})
	}

	for i < len(input) {
		ch := next()
		if isSpace(ch) {
			i++
			continue
		}

		switch ch {
		case '(':
			consume()
			emit(tokenLParen, "(")
			continue
		case ')':
			consume()
			emit(tokenRParen, ")")
			continue
		case '!':
			consume()
			if next() == '=' {
				consume()
				emit(tokenCompare, "!=")
				continue
			}
			emit(tokenNot, "!")
			continue
		case '=':
			consume()
			if next() == '=' {
				consume()
				emit(tokenCompare, "==")
				continue
			}
			emit(tokenAssign, "=")
			continue
		case '<', '>':
			op := string(consume())
			if next() == '=' {
				consume()
				op += "="
			}
			emit(tokenCompare, op)
			continue
		case '&':
			consume()
			if next() != '&' {
				return nil, fmt.Errorf("rules: unexpected '&' at %d; use '&&' or AND", i-1)
			}
			consume()
			emit(tokenAnd, "&&")
			continue
		case '|':
			consume()
			if next() != '|' {
				return nil, fmt.Errorf("rules: unexpected '|' at %d; use '||' or OR", i-1)
			}
			consume()
			emit(tokenOr, "||")
			continue
		case '+', '*', '/', ',':
			emit(tokenArith, string(consume()))
			continue
		case '-':
			if i+1 >= len(input) || input[i+1] < '0' || input[i+1] > '9' {
				emit(tokenArith, string(consume()))
				continue
			}
		case '"', '\'':
			quote := consume()
			start := i
			escaped := false
			closed := false
			for i < len(input) {
				c := consume()
				if escaped {
					escaped = false
					continue
				}
				if c == '\\' {
					escaped = true
					continue
				}
				if c == quote {
					closed = true
					break
				}
			}
			if !closed {
				return nil, errors.New("rules: unterminated string literal")
			}
			body := input[start : i-1]
			if quote == '\'' {
				body = strings.ReplaceAll(body, `\'`, `'`)
				body = strings.ReplaceAll(body, `"`, `\"`)
			}
			value, err := strconv.Unquote(`"` + body + `"`)
			if err != nil {
				return nil, fmt.Errorf("rules: invalid string literal: %w", err)
			}
			emit(tokenString, value)
			continue
		}

		// identifier / number / keyword; '-' only counts as a delimiter at
		// the start of a word so ids like "new-text" stay whole.
		start := i
		i++
		for i < len(input) && !isDelimiter(input[i]) {
			i++
		}
		raw := input[start:i]
		switch strings.ToLower(raw) {
		case "true", "false":
			emit(tokenBool, strings.ToLower(raw))
		case "null", "nil":
			emit(tokenNull, "null")
		case "and":
			emit(tokenAnd, "AND")
		case "or":
			emit(tokenOr, "OR")
		case "not":
			emit(tokenNot, "NOT")
		case "if":
			emit(tokenIf, "IF")
		case "then":
			emit(tokenThen, "THEN")
		case "else":
			emit(tokenElse, "ELSE")
		default:
			if looksLikeNumber(raw) {
				emit(tokenNumber, raw)
			} else {
				emit(tokenIdentifier, raw)
			}
		}
	}

	return tokens, nil
}

func looksLikeNumber(raw string) bool {
	if raw == "" {
		return false
	}
	ch := raw[0]
	if (ch < '0' || ch > '9') && ch != '-' && ch != '+' && ch != '.' {
		return false
	}
	_, err := strconv.ParseFloat(raw, 64)
	return err == nil
}

// Check tokenizes expr and verifies that parentheses balance and that
// THEN/ELSE only follow an IF.
func Check(expr string) error {
	tokens, err := tokenize(expr)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return ErrNoExpression
	}
	depth := 0
	sawIf := false
	for _, tok := range tokens {
		switch tok.kind {
		case tokenLParen:
			depth++
		case tokenRParen:
			depth--
			if depth < 0 {
				return errors.New("rules: unbalanced ')'")
			}
		case tokenIf:
			sawIf = true
		case tokenThen, tokenElse:
			if !sawIf {
				return fmt.Errorf("rules: %s without IF", tok.raw)
			}
		}
	}
	if depth != 0 {
		return errors.New("rules: unbalanced '('")
	}
	return nil
}

// Dependencies returns the field ids expr reads, deduplicated in order of
// first appearance. Identifiers that do not resolve in catalog are skipped;
// a nil catalog accepts every identifier. A '-' inside a word does not end
// it, so an unresolved word such as "age-18" is read as a subtraction of its
// resolvable parts. An identifier written to by an assignment
// ("THEN x = 1") is not a dependency unless it is also read.
func Dependencies(expr string, catalog *Catalog) ([]string, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return nil, err
	}
	out := []string{}
	seen := make(map[string]struct{})
	for i, tok := range tokens {
		if tok.kind != tokenIdentifier {
			continue
		}
		if i+1 < len(tokens) && tokens[i+1].kind == tokenAssign {
			continue
		}
		for _, id := range resolveIdentifier(tok.raw, catalog) {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out, nil
}

// resolveIdentifier returns the catalog ids raw refers to. A word that does
// not resolve whole is split on '-' and the longest resolvable runs of
// segments are kept.
func resolveIdentifier(raw string, catalog *Catalog) []string {
	if catalog == nil || catalog.Has(raw) {
		return []string{raw}
	}
	if !strings.Contains(raw, "-") {
		return nil
	}
	parts := strings.Split(raw, "-")
	var out []string
	for i := 0; i < len(parts); {
		next := i + 1
		for j := len(parts); j > i; j-- {
			candidate := strings.Join(parts[i:j], "-")
			if candidate != "" && catalog.Has(candidate) {
				out = append(out, candidate)
				next = j
				break
			}
		}
		i = next
	}
	return out
}
