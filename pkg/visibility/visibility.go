package visibility

import "github.com/goliatone/go-formtemplate/pkg/template"

// Evaluator determines whether a condition list holds for a field, section or
// subsection given the current form values.
type Evaluator interface {
	Eval(owner string, conditions []template.Condition, ctx Context) bool
}

// Context provides inputs to an Evaluator. Values maps field ids to the
// values currently entered in the form.
type Context struct {
	Values map[string]any
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(owner string, conditions []template.Condition, ctx Context) bool

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(owner string, conditions []template.Condition, ctx Context) bool {
	return fn(owner, conditions, ctx)
}

// ConditionEvaluator is the default Evaluator: it chains condition rows left
// to right using each row's OperatorWithPrev.
type ConditionEvaluator struct{}

// New returns the default condition evaluator.
func New() *ConditionEvaluator { return &ConditionEvaluator{} }

// Eval implements Evaluator.
func (ConditionEvaluator) Eval(_ string, conditions []template.Condition, ctx Context) bool {
	return IsVisible(conditions, ctx.Values)
}
