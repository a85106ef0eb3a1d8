// Package filter compiles declarative, JSON-shaped criteria into
// predicates over arbitrary nested records.
//
// Criteria keys are either field paths (dotted/bracketed selectors)
// mapped to a literal, a wildcard pattern, or a comparison object, or
// the logical combinators $and / $or mapped to lists of nested criteria.
// A criteria value is compiled exactly once; evaluation is allocation
// free and shared by every component that filters widgets, so matching
// semantics are identical regardless of scope.
package filter

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/starford/raido/internal/apperr"
)

// Filter is a compiled criteria tree.
type Filter struct {
	root node
}

type node interface {
	matches(record map[string]any) bool
}

// Compile validates criteria and builds the predicate tree. Malformed
// criteria (unknown $ operator, wrong shape, bad $regex) fail here with
// a ValidationError, never silently at evaluation time.
//
// An empty criteria object matches every record.
func Compile(criteria map[string]any) (*Filter, error) {
	root, err := compileCriteria(criteria)
	if err != nil {
		return nil, err
	}
	return &Filter{root: root}, nil
}

// Matches evaluates the compiled criteria against a record.
func (f *Filter) Matches(record map[string]any) bool {
	return f.root.matches(record)
}

// compileCriteria builds the implicit top-level $and over all declared
// keys.
func compileCriteria(criteria map[string]any) (node, error) {
	children := make([]node, 0, len(criteria))
	for key, value := range criteria {
		switch {
		case key == "$and" || key == "$or":
			sub, err := compileCombinator(key, value)
			if err != nil {
				return nil, err
			}
			children = append(children, sub)
		case strings.HasPrefix(key, "$"):
			return nil, apperr.Validationf(key, "unknown combinator")
		default:
			sub, err := compileField(key, value)
			if err != nil {
				return nil, err
			}
			children = append(children, sub)
		}
	}
	return andNode(children), nil
}

func compileCombinator(key string, value any) (node, error) {
	list, ok := value.([]any)
	if !ok {
		return nil, apperr.Validationf(key, "expects a list of criteria")
	}
	children := make([]node, 0, len(list))
	for _, item := range list {
		sub, ok := item.(map[string]any)
		if !ok {
			return nil, apperr.Validationf(key, "list items must be criteria objects")
		}
		n, err := compileCriteria(sub)
		if err != nil {
			return nil, err
		}
		children = append(children, n)
	}
	if key == "$or" {
		return orNode(children), nil
	}
	return andNode(children), nil
}

func compileField(key string, value any) (node, error) {
	path, err := parsePath(key)
	if err != nil {
		return nil, err
	}
	pred, err := compilePredicate(key, value)
	if err != nil {
		return nil, err
	}
	return &fieldNode{path: path, pred: pred}, nil
}

func compilePredicate(key string, value any) (predicate, error) {
	if m, ok := value.(map[string]any); ok {
		return compileComparison(key, m)
	}
	if s, ok := value.(string); ok {
		if p, isWildcard := compileWildcard(s); isWildcard {
			return p, nil
		}
	}
	return literalPred{want: value}, nil
}

// compileComparison handles {$gt: ..} style objects. A map value with no
// $ keys is matched as a literal; mixing the two shapes is malformed.
func compileComparison(key string, m map[string]any) (predicate, error) {
	ops := 0
	for k := range m {
		if strings.HasPrefix(k, "$") {
			ops++
		}
	}
	if ops == 0 {
		return literalPred{want: m}, nil
	}
	if ops != len(m) {
		return nil, apperr.Validationf(key, "comparison object mixes operators and plain keys")
	}

	preds := make(allOfPred, 0, len(m))
	for op, operand := range m {
		switch op {
		case "$gt", "$gte", "$lt", "$lte":
			n, ok := asFloat(operand)
			if !ok {
				return nil, apperr.Validationf(key, "%s expects a numeric operand", op)
			}
			preds = append(preds, orderPred{op: op, operand: n})
		case "$ne":
			preds = append(preds, notPred{literalPred{want: operand}})
		case "$regex":
			expr, ok := operand.(string)
			if !ok {
				return nil, apperr.Validationf(key, "$regex expects a string operand")
			}
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, apperr.Validationf(key, "invalid $regex: %v", err)
			}
			preds = append(preds, regexPred{re: re})
		default:
			return nil, apperr.Validationf(key, "unknown comparison operator %s", op)
		}
	}
	if len(preds) == 1 {
		return preds[0], nil
	}
	return preds, nil
}

// parsePath splits a dotted/bracketed selector into segments. Bracket
// segments may contain dots: `properties[app.version]`.
func parsePath(s string) ([]string, error) {
	if s == "" {
		return nil, apperr.Validationf(s, "empty field path")
	}
	var segs []string
	rest := s
	for rest != "" {
		if rest[0] == '.' {
			rest = rest[1:]
			if rest == "" || rest[0] == '.' {
				return nil, apperr.Validationf(s, "empty field path segment")
			}
			continue
		}
		if rest[0] == '[' {
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, apperr.Validationf(s, "unterminated bracket in field path")
			}
			if end == 1 {
				return nil, apperr.Validationf(s, "empty bracket segment")
			}
			segs = append(segs, rest[1:end])
			rest = rest[end+1:]
			continue
		}
		end := strings.IndexAny(rest, ".[")
		if end < 0 {
			segs = append(segs, rest)
			break
		}
		if end == 0 {
			return nil, apperr.Validationf(s, "empty field path segment")
		}
		segs = append(segs, rest[:end])
		rest = rest[end:]
	}
	if len(segs) == 0 {
		return nil, apperr.Validationf(s, "empty field path")
	}
	return segs, nil
}

// resolve walks the record along path. Missing intermediate keys mean
// "field absent", reported via ok=false, never an error.
func resolve(record map[string]any, path []string) (any, bool) {
	var current any = record
	for _, seg := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

type andNode []node

func (n andNode) matches(record map[string]any) bool {
	for _, c := range n {
		if !c.matches(record) {
			return false
		}
	}
	return true
}

type orNode []node

func (n orNode) matches(record map[string]any) bool {
	for _, c := range n {
		if c.matches(record) {
			return true
		}
	}
	return len(n) == 0
}

type fieldNode struct {
	path []string
	pred predicate
}

func (n *fieldNode) matches(record map[string]any) bool {
	value, ok := resolve(record, n.path)
	if !ok {
		// An absent field never matches, not even a bare "*".
		return false
	}
	return n.pred.matches(value)
}

type predicate interface {
	matches(value any) bool
}

// literalPred is strict equality. Numeric values compare across Go
// numeric representations (JSON decoding yields float64), but numeric
// strings are never coerced.
type literalPred struct {
	want any
}

func (p literalPred) matches(value any) bool {
	if a, ok := asFloat(p.want); ok {
		b, ok := asFloat(value)
		return ok && a == b
	}
	return reflect.DeepEqual(value, p.want)
}

type notPred struct {
	inner predicate
}

func (p notPred) matches(value any) bool { return !p.inner.matches(value) }

type allOfPred []predicate

func (p allOfPred) matches(value any) bool {
	for _, sub := range p {
		if !sub.matches(value) {
			return false
		}
	}
	return true
}

type orderPred struct {
	op      string
	operand float64
}

func (p orderPred) matches(value any) bool {
	n, ok := asFloat(value)
	if !ok {
		// Type-incompatible comparisons never match and never throw.
		return false
	}
	switch p.op {
	case "$gt":
		return n > p.operand
	case "$gte":
		return n >= p.operand
	case "$lt":
		return n < p.operand
	default:
		return n <= p.operand
	}
}

type regexPred struct {
	re *regexp.Regexp
}

func (p regexPred) matches(value any) bool {
	s, ok := value.(string)
	return ok && p.re.MatchString(s)
}

// Wildcard modes. Only leading/trailing stars are pattern markers; any
// interior star is a literal character.
type wildcardMode int

const (
	wildcardAny wildcardMode = iota // "*": any present value
	wildcardPrefix
	wildcardSuffix
	wildcardContains
)

type wildcardPred struct {
	mode wildcardMode
	body string
}

// compileWildcard reports whether s is a wildcard pattern and returns
// its compiled form.
func compileWildcard(s string) (predicate, bool) {
	leading := strings.HasPrefix(s, "*")
	trailing := strings.HasSuffix(s, "*") && len(s) > 1
	if !leading && !trailing {
		return nil, false
	}
	body := strings.TrimSuffix(strings.TrimPrefix(s, "*"), "*")
	switch {
	case body == "" && leading && !trailing:
		return wildcardPred{mode: wildcardAny}, true
	case leading && trailing:
		return wildcardPred{mode: wildcardContains, body: body}, true
	case trailing:
		return wildcardPred{mode: wildcardPrefix, body: body}, true
	default:
		return wildcardPred{mode: wildcardSuffix, body: body}, true
	}
}

func (p wildcardPred) matches(value any) bool {
	if p.mode == wildcardAny {
		return true
	}
	s, ok := value.(string)
	if !ok {
		return false
	}
	switch p.mode {
	case wildcardPrefix:
		return strings.HasPrefix(s, p.body)
	case wildcardSuffix:
		return strings.HasSuffix(s, p.body)
	default:
		return strings.Contains(s, p.body)
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
