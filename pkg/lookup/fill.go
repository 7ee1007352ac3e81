package lookup

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ohler55/ojg/jp"

	"github.com/goliatone/go-formtemplate/pkg/template"
)

type fillRule struct {
	path   string
	expr   jp.Expr
	target string
}

// Filler applies one field's fill mapping to picked records.
type Filler struct {
	rules []fillRule
}

// NewFiller compiles the fill paths of l. Paths without a leading "$" or "@"
// are read relative to the record root. A nil lookup yields a Filler that
// produces nothing.
func NewFiller(l *template.Lookup) (*Filler, error) {
	f := &Filler{}
	if l == nil {
		return f, nil
	}
	paths := make([]string, 0, len(l.Fill))
	for path := range l.Fill {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		target := strings.TrimSpace(l.Fill[path])
		if target == "" {
			continue
		}
		selector := strings.TrimSpace(path)
		if !strings.HasPrefix(selector, "$") && !strings.HasPrefix(selector, "@") {
			selector = "$." + selector
		}
		expr, err := jp.ParseString(selector)
		if err != nil {
			return nil, fmt.Errorf("lookup: invalid fill path %q: %w", path, err)
		}
		f.rules = append(f.rules, fillRule{path: path, expr: expr, target: target})
	}
	return f, nil
}

// Targets returns the field ids the Filler writes, sorted.
func (f *Filler) Targets() []string {
	seen := make(map[string]struct{}, len(f.rules))
	var out []string
	for _, r := range f.rules {
		if _, ok := seen[r.target]; ok {
			continue
		}
		seen[r.target] = struct{}{}
		out = append(out, r.target)
	}
	sort.Strings(out)
	return out
}

// Apply reads every fill path from record and returns the values keyed by
// target field id. A path that matches nothing sets its target to nil so a
// stale value from a previous pick is cleared. When several paths write the
// same target the first match in path order wins.
func (f *Filler) Apply(record any) map[string]any {
	out := make(map[string]any, len(f.rules))
	for _, r := range f.rules {
		results := r.expr.Get(record)
		if len(results) == 0 {
			if _, set := out[r.target]; !set {
				out[r.target] = nil
			}
			continue
		}
		if current, set := out[r.target]; set && current != nil {
			continue
		}
		out[r.target] = results[0]
	}
	return out
}

// Fill compiles l and applies it to record in one step.
func Fill(l *template.Lookup, record any) (map[string]any, error) {
	f, err := NewFiller(l)
	if err != nil {
		return nil, err
	}
	return f.Apply(record), nil
}
