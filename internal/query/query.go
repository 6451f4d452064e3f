// Package query implements WoS-style boolean retrieval over an in-memory
// corpus. Queries look like
//
//	ts=deep learning AND (ti=survey OR de=transfer learning) NOT py=2019
//
// with two-letter field conditions, AND/OR/NOT operators and parentheses.
// Operators share one precedence level and group to the right, so
// "a AND b OR c" reads as "a AND (b OR c)".
package query

import (
	"fmt"
	"regexp"
	"strings"
)

// fieldTags are the condition fields a query may use. ts fans out over
// title, keywords and abstract; every other tag reads one record field.
var fieldTags = map[string]bool{
	"ts": true,
	"ti": true,
	"ab": true,
	"de": true,
	"au": true,
	"so": true,
	"py": true,
	"id": true,
	"pt": true,
}

type tokenKind int

const (
	tokCond tokenKind = iota
	tokOp
	tokOpen
	tokClose
)

type queryToken struct {
	kind  tokenKind
	text  string
	field string // tokCond only
	term  string // tokCond only
}

var eqSpaces = regexp.MustCompile(`\s*=\s*`)

// lex splits a query into condition, operator and bracket tokens. A
// condition starts at a word containing '=' and swallows following words
// until an operator, bracket or the end, so multi-word terms need no
// quoting.
func lex(q string) ([]queryToken, error) {
	q = eqSpaces.ReplaceAllString(q, "=")

	var (
		tokens []queryToken
		word   []rune
		cond   []string
	)
	flushCond := func() error {
		if len(cond) == 0 {
			return nil
		}
		raw := strings.Join(cond, " ")
		cond = nil
		field, term, err := splitCondition(raw)
		if err != nil {
			return err
		}
		tokens = append(tokens, queryToken{kind: tokCond, text: raw, field: field, term: term})
		return nil
	}
	flushWord := func() error {
		if len(word) == 0 {
			return nil
		}
		w := string(word)
		word = word[:0]
		switch {
		case strings.EqualFold(w, "and"), strings.EqualFold(w, "or"), strings.EqualFold(w, "not"):
			if err := flushCond(); err != nil {
				return err
			}
			tokens = append(tokens, queryToken{kind: tokOp, text: strings.ToUpper(w)})
		case strings.Contains(w, "="):
			if err := flushCond(); err != nil {
				return err
			}
			cond = append(cond, w)
		case len(cond) > 0:
			cond = append(cond, w)
		default:
			return fmt.Errorf("query: unexpected term %q", w)
		}
		return nil
	}

	for _, r := range q {
		switch {
		case r == '(' || r == ')':
			if err := flushWord(); err != nil {
				return nil, err
			}
			if err := flushCond(); err != nil {
				return nil, err
			}
			kind := tokOpen
			if r == ')' {
				kind = tokClose
			}
			tokens = append(tokens, queryToken{kind: kind, text: string(r)})
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if err := flushWord(); err != nil {
				return nil, err
			}
		default:
			word = append(word, r)
		}
	}
	if err := flushWord(); err != nil {
		return nil, err
	}
	if err := flushCond(); err != nil {
		return nil, err
	}
	return tokens, nil
}

func splitCondition(raw string) (field, term string, err error) {
	f, t, _ := strings.Cut(raw, "=")
	f = strings.ToLower(strings.TrimSpace(f))
	if !fieldTags[f] {
		return "", "", fmt.Errorf("query: unknown field %q", f)
	}
	t = strings.TrimSpace(t)
	if t == "" {
		return "", "", fmt.Errorf("query: empty term for field %q", f)
	}
	return f, t, nil
}

// validate checks bracket balance and condition/operator alternation before
// the parser runs, so parse can assume a well-formed token stream.
func validate(tokens []queryToken) error {
	if len(tokens) == 0 {
		return fmt.Errorf("query: empty query")
	}
	depth := 0
	expectOperand := true
	for _, tk := range tokens {
		switch tk.kind {
		case tokOpen:
			if !expectOperand {
				return fmt.Errorf("query: missing operator before '('")
			}
			depth++
		case tokClose:
			if expectOperand {
				return fmt.Errorf("query: dangling operator or empty group before ')'")
			}
			if depth == 0 {
				return fmt.Errorf("query: unbalanced ')'")
			}
			depth--
		case tokOp:
			if expectOperand {
				return fmt.Errorf("query: operator %s has no left operand", tk.text)
			}
			expectOperand = true
		case tokCond:
			if !expectOperand {
				return fmt.Errorf("query: missing operator before %q", tk.text)
			}
			expectOperand = false
		}
	}
	if depth != 0 {
		return fmt.Errorf("query: unbalanced '('")
	}
	if expectOperand {
		return fmt.Errorf("query: dangling operator at end")
	}
	return nil
}

// node is one vertex of the parse tree: either an operator with two
// children or a field condition leaf.
type node struct {
	op          string // AND, OR, NOT; "" for a leaf
	field, term string
	left, right *node
}

func (n *node) bareOp() bool {
	return n.op != "" && n.op != "(" && n.left == nil && n.right == nil
}

// parse folds the infix token stream into a tree with a stack. The stream
// is wrapped in one outer bracket pair; on every ')' nodes are popped and
// folded until the matching '(', which makes same-level operators group to
// the right.
func parse(tokens []queryToken) (*node, error) {
	wrapped := make([]queryToken, 0, len(tokens)+2)
	wrapped = append(wrapped, queryToken{kind: tokOpen})
	wrapped = append(wrapped, tokens...)
	wrapped = append(wrapped, queryToken{kind: tokClose})

	var stack []*node
	pop := func() *node {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return n
	}

	for _, tk := range wrapped {
		switch tk.kind {
		case tokOpen:
			stack = append(stack, &node{op: "("})
		case tokClose:
			var sub *node
			for len(stack) > 0 && stack[len(stack)-1].op != "(" {
				n := pop()
				if sub != nil && n.bareOp() {
					n.right = sub
					if len(stack) == 0 {
						return nil, fmt.Errorf("query: malformed expression")
					}
					n.left = pop()
				}
				sub = n
			}
			if len(stack) == 0 {
				return nil, fmt.Errorf("query: malformed expression")
			}
			pop() // the '('
			stack = append(stack, sub)
		case tokCond:
			stack = append(stack, &node{field: tk.field, term: tk.term})
		case tokOp:
			stack = append(stack, &node{op: tk.text})
		}
	}

	if len(stack) != 1 || stack[0] == nil {
		return nil, fmt.Errorf("query: malformed expression")
	}
	return stack[0], nil
}

// compile runs the full lex/validate/parse path.
func compile(q string) (*node, error) {
	tokens, err := lex(q)
	if err != nil {
		return nil, err
	}
	if err := validate(tokens); err != nil {
		return nil, err
	}
	return parse(tokens)
}
