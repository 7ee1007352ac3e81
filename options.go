package formtemplate

import (
	"log/slog"

	"github.com/goliatone/go-formtemplate/pkg/lookup"
	"github.com/goliatone/go-formtemplate/pkg/placement"
	"github.com/goliatone/go-formtemplate/pkg/rules"
	"github.com/goliatone/go-formtemplate/pkg/template"
	"github.com/goliatone/go-formtemplate/pkg/visibility"
)

// Option customises an Editor.
type Option func(*Editor)

// WithLogger routes editor diagnostics to logger. Editors log nothing by
// default.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithBaseline sets the reference template used by Diff and the restore
// operations. The editor keeps its own deep copy.
func WithBaseline(baseline *template.Template) Option {
	return func(e *Editor) {
		if baseline == nil {
			e.baseline = nil
			return
		}
		clone := baseline.Clone()
		e.baseline = &clone
	}
}

// WithPairedSection overrides the name of the section that keeps separate
// button and data orderings.
func WithPairedSection(name string) Option {
	return func(e *Editor) {
		e.placementOptions = append(e.placementOptions, placement.WithPairedSection(name))
	}
}

// WithIDGenerator overrides how ids for cloned catalog fields are generated.
func WithIDGenerator(gen placement.IDGenerator) Option {
	return func(e *Editor) {
		e.placementOptions = append(e.placementOptions, placement.WithIDGenerator(gen))
	}
}

// WithFieldCatalog replaces the palette of reusable default fields.
func WithFieldCatalog(fields []template.Field) Option {
	return func(e *Editor) {
		e.placementOptions = append(e.placementOptions, placement.WithCatalog(fields))
	}
}

// WithDatasources sets the lookup service select options are resolved from.
func WithDatasources(source lookup.Source) Option {
	return func(e *Editor) {
		e.source = source
	}
}

// WithTranslator sets the free-text rule translator.
func WithTranslator(t rules.Translator) Option {
	return func(e *Editor) {
		e.ruleOptions = append(e.ruleOptions, rules.WithTranslator(t))
	}
}

// WithPresets replaces the rule preset catalog.
func WithPresets(presets []rules.Preset) Option {
	return func(e *Editor) {
		e.ruleOptions = append(e.ruleOptions, rules.WithPresets(presets))
	}
}

// WithRuleIDGenerator overrides rule id generation.
func WithRuleIDGenerator(gen func() string) Option {
	return func(e *Editor) {
		e.ruleOptions = append(e.ruleOptions, rules.WithIDGenerator(gen))
	}
}

// WithExternalFields makes fields of other templates referenceable from
// rules.
func WithExternalFields(entries ...rules.Entry) Option {
	return func(e *Editor) {
		e.external = append(e.external, entries...)
	}
}

// WithRules seeds the editor's validation rule set.
func WithRules(list ...rules.Rule) Option {
	return func(e *Editor) {
		e.rules.Rules = append(e.rules.Rules, list...)
	}
}

// WithEvaluator replaces the condition evaluator used by States.
func WithEvaluator(evaluator visibility.Evaluator) Option {
	return func(e *Editor) {
		if evaluator != nil {
			e.evaluator = evaluator
		}
	}
}
