package visibility

import "github.com/goliatone/go-formtemplate/pkg/template"

// FieldState is the evaluated visibility and requiredness of one field.
type FieldState struct {
	ID       string `json:"id"`
	Path     string `json:"path"`
	Visible  bool   `json:"visible"`
	Required bool   `json:"required"`
}

// States evaluates every field of t. A field is hidden when its own
// conditions fail or when any enclosing section or subsection is hidden.
// A nil evaluator falls back to the condition evaluator.
func States(t *template.Template, evaluator Evaluator, ctx Context) []FieldState {
	if evaluator == nil {
		evaluator = ConditionEvaluator{}
	}
	var out []FieldState
	if t == nil {
		return out
	}
	for i := range t.Sections {
		sec := &t.Sections[i]
		out = appendStates(out, sec, sec.SectionName, true, evaluator, ctx)
	}
	return out
}

func appendStates(out []FieldState, sec *template.Section, path string, parentVisible bool, evaluator Evaluator, ctx Context) []FieldState {
	visible := parentVisible && evaluator.Eval(path, sec.Conditions, ctx)
	for _, f := range sec.Fields {
		fieldVisible := visible && evaluator.Eval(f.ID, f.Conditions, ctx)
		required := false
		if fieldVisible {
			required = IsRequired(f, ctx.Values)
		}
		out = append(out, FieldState{ID: f.ID, Path: path, Visible: fieldVisible, Required: required})
	}
	sec.Subsections.Each(func(key string, child *template.Section) bool {
		out = appendStates(out, child, template.JoinPath(path, key), visible, evaluator, ctx)
		return true
	})
	return out
}

// HiddenFields returns the ids of fields that are not visible for values, in
// render order. A nil evaluator falls back to the condition evaluator.
func HiddenFields(t *template.Template, evaluator Evaluator, values map[string]any) []string {
	var out []string
	for _, state := range States(t, evaluator, Context{Values: values}) {
		if !state.Visible {
			out = append(out, state.ID)
		}
	}
	return out
}

// FilterSubmission drops the values of hidden fields so they are ignored at
// submission time. Keys that do not belong to any field are kept.
func FilterSubmission(t *template.Template, evaluator Evaluator, values map[string]any) map[string]any {
	hidden := make(map[string]struct{})
	for _, id := range HiddenFields(t, evaluator, values) {
		hidden[id] = struct{}{}
	}
	out := make(map[string]any, len(values))
	for k, v := range values {
		if _, skip := hidden[k]; skip {
			continue
		}
		out[k] = v
	}
	return out
}

// MissingRequired lists visible, required fields that have no value.
func MissingRequired(t *template.Template, evaluator Evaluator, values map[string]any) []string {
	var out []string
	for _, state := range States(t, evaluator, Context{Values: values}) {
		if state.Required && !HasValue(values[state.ID]) {
			out = append(out, state.ID)
		}
	}
	return out
}
