package rules

import "errors"

var (
	// ErrNotReady reports a draft that is missing an operand or operator.
	ErrNotReady = errors.New("rules: draft not ready")
	// ErrNoExpression reports that free-text translation produced nothing.
	ErrNoExpression = errors.New("rules: could not generate rule")
	// ErrUnknownField reports a field id the catalog cannot resolve.
	ErrUnknownField = errors.New("rules: unknown field")
	// ErrUnknownPreset reports a preset name missing from the catalog.
	ErrUnknownPreset = errors.New("rules: unknown preset")
	// ErrUnknownRule reports a rule id missing from a RuleSet.
	ErrUnknownRule = errors.New("rules: unknown rule")
	// ErrDuplicateRule reports an id already present in a RuleSet.
	ErrDuplicateRule = errors.New("rules: duplicate rule id")
)
