// Package formtemplate is the entry point for editing one form template. An
// Editor bundles the working tree, the baseline it is reconciled against,
// the placement session and the validation rules, and exposes the operations
// the template and validation builder screens need.
package formtemplate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/goliatone/go-formtemplate/pkg/diff"
	"github.com/goliatone/go-formtemplate/pkg/document"
	"github.com/goliatone/go-formtemplate/pkg/lookup"
	"github.com/goliatone/go-formtemplate/pkg/placement"
	"github.com/goliatone/go-formtemplate/pkg/rules"
	"github.com/goliatone/go-formtemplate/pkg/template"
	"github.com/goliatone/go-formtemplate/pkg/visibility"
)

// Repository is the persistence collaborator. *store.Store implements it.
type Repository interface {
	LoadTemplate(ctx context.Context, id int64) (template.Template, error)
	LoadBaseline(ctx context.Context, id int64) (*template.Template, error)
	SaveTemplate(ctx context.Context, tpl *template.Template) (int64, error)
	SaveValidationSet(ctx context.Context, moduleID, name string, list []rules.Rule) error
}

// Editor is one editing session. It is not safe for concurrent use.
type Editor struct {
	logger    *slog.Logger
	baseline  *template.Template
	session   *placement.Session
	evaluator visibility.Evaluator
	resolver  *lookup.Resolver
	source    lookup.Source
	external  []rules.Entry
	rules     rules.RuleSet

	placementOptions []placement.Option
	ruleOptions      []rules.Option
}

// New starts an editing session over raw, which may be a decoded document, a
// template.Template or a *template.Template. Malformed input degrades to an
// empty tree.
func New(raw any, options ...Option) *Editor {
	e := &Editor{
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		evaluator: visibility.New(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}

	tpl := document.Normalize(raw)
	e.session = placement.NewSession(&tpl, e.placementOptions...)
	e.resolver = lookup.NewResolver(e.source, lookup.WithLogger(e.logger))
	e.logger.Debug("editor opened",
		"template", tpl.ID,
		"sections", len(tpl.Sections),
		"baseline", e.baseline != nil,
	)
	return e
}

// Load decodes a JSON, JSON-with-comments or YAML document and starts an
// editing session over it.
func Load(data []byte, options ...Option) (*Editor, error) {
	raw, err := document.Decode(data)
	if err != nil {
		return nil, err
	}
	return New(raw, options...), nil
}

// Open loads template id and, when baselineID is non-zero, its baseline from
// repo. A missing baseline is treated as none.
func Open(ctx context.Context, repo Repository, id, baselineID int64, options ...Option) (*Editor, error) {
	if repo == nil {
		return nil, errors.New("formtemplate: repository is required")
	}
	tpl, err := repo.LoadTemplate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("formtemplate: load template %d: %w", id, err)
	}
	if baselineID != 0 {
		baseline, err := repo.LoadBaseline(ctx, baselineID)
		if err != nil {
			return nil, fmt.Errorf("formtemplate: load baseline %d: %w", baselineID, err)
		}
		options = append([]Option{WithBaseline(baseline)}, options...)
	}
	return New(tpl, options...), nil
}

// Template returns the working tree. It must only be mutated through the
// Editor.
func (e *Editor) Template() *template.Template {
	return e.session.Template()
}

// Baseline returns the reference template, or nil.
func (e *Editor) Baseline() *template.Template {
	return e.baseline
}

// Session exposes the placement session for callers that need the lower
// level API.
func (e *Editor) Session() *placement.Session {
	return e.session
}

// Targets lists the valid placement targets.
func (e *Editor) Targets() []string {
	return e.session.Targets()
}

// CreateSection appends a new empty section.
func (e *Editor) CreateSection() template.Section {
	sec := e.session.CreateSection()
	e.logger.Debug("section created", "section", sec.SectionName, "order", sec.Order)
	return sec
}

// CreateSubsection adds an empty subsection under parent.
func (e *Editor) CreateSubsection(parent string) (string, error) {
	target, err := e.session.CreateSubsection(parent)
	if err != nil {
		return "", err
	}
	e.logger.Debug("subsection created", "target", target)
	return target, nil
}

// DeleteSection removes a top-level section.
func (e *Editor) DeleteSection(name string) error {
	if err := e.session.DeleteSection(name); err != nil {
		return err
	}
	e.logger.Debug("section deleted", "section", name)
	return nil
}

// RestoreSection copies a section back from the baseline. A name that is
// already in use is rejected with placement.ErrSectionExists.
func (e *Editor) RestoreSection(name string) error {
	if err := e.session.RestoreSection(name, e.baseline); err != nil {
		e.logger.Warn("section restore rejected", "section", name, "error", err)
		return err
	}
	e.logger.Debug("section restored", "section", name)
	return nil
}

// RestoreField copies a field back from the baseline section.
func (e *Editor) RestoreField(section, id string) (template.Field, error) {
	f, err := e.session.RestoreField(section, id, e.baseline)
	if err != nil {
		e.logger.Warn("field restore rejected", "section", section, "field", id, "error", err)
		return template.Field{}, err
	}
	e.logger.Debug("field restored", "field", id, "path", f.OwningPath)
	return f, nil
}

// MoveWithin reorders a field inside one container.
func (e *Editor) MoveWithin(c placement.Container, fromIndex, toIndex int) error {
	if err := e.session.MoveWithin(c, fromIndex, toIndex); err != nil {
		return err
	}
	e.logger.Debug("field reordered", "container", c.String(), "from", fromIndex, "to", toIndex)
	return nil
}

// MoveAcross moves, or clones from the catalog, a field between containers.
func (e *Editor) MoveAcross(from, to placement.Container, fromIndex, toIndex int) (template.Field, error) {
	f, err := e.session.MoveAcross(from, to, fromIndex, toIndex)
	if err != nil {
		return template.Field{}, err
	}
	e.logger.Debug("field moved", "field", f.ID, "from", from.String(), "to", to.String())
	return f, nil
}

// InsertField places a new field.
func (e *Editor) InsertField(c placement.Container, index int, f template.Field) (template.Field, error) {
	placed, err := e.session.InsertField(c, index, f)
	if err != nil {
		return template.Field{}, err
	}
	e.logger.Debug("field inserted", "field", placed.ID, "container", c.String())
	return placed, nil
}

// DeleteField removes a field.
func (e *Editor) DeleteField(c placement.Container, index int) (template.Field, error) {
	removed, err := e.session.DeleteField(c, index)
	if err != nil {
		return template.Field{}, err
	}
	e.logger.Debug("field deleted", "field", removed.ID, "container", c.String())
	return removed, nil
}

// Diff reports what the working tree lacks compared to the baseline.
func (e *Editor) Diff() diff.Result {
	return diff.Diff(e.baseline, e.Template())
}

// States evaluates visibility and requiredness of every field for values.
func (e *Editor) States(values map[string]any) []visibility.FieldState {
	return visibility.States(e.Template(), e.evaluator, visibility.Context{Values: values})
}

// FilterSubmission drops values of hidden fields.
func (e *Editor) FilterSubmission(values map[string]any) map[string]any {
	return visibility.FilterSubmission(e.Template(), e.evaluator, values)
}

// MissingRequired lists visible required fields without a value.
func (e *Editor) MissingRequired(values map[string]any) []string {
	return visibility.MissingRequired(e.Template(), e.evaluator, values)
}

// ReferenceCandidates lists the fields a condition on ownerID may reference.
func (e *Editor) ReferenceCandidates(ownerID string) []template.FieldRef {
	return visibility.ReferenceCandidates(e.Template(), ownerID)
}

// ReferenceProblems reports invalid condition references and reference
// cycles.
func (e *Editor) ReferenceProblems() ([]visibility.ReferenceProblem, [][]string) {
	return visibility.ValidateReferences(e.Template()), visibility.ReferenceCycles(e.Template())
}

// PopulateOptions resolves the options of every select field that names a
// datasource.
func (e *Editor) PopulateOptions(ctx context.Context) error {
	if e.source == nil {
		return errors.New("formtemplate: no datasource configured")
	}
	if err := e.resolver.Populate(ctx, e.Template()); err != nil {
		e.logger.Warn("datasource options incomplete", "error", err)
		return err
	}
	return nil
}

// Fill maps a record picked in search field fieldID onto the fields named by
// its lookup configuration.
func (e *Editor) Fill(fieldID string, record any) (map[string]any, error) {
	f, ok := e.Template().FindField(fieldID)
	if !ok {
		return nil, fmt.Errorf("formtemplate: unknown field %q", fieldID)
	}
	if f.Lookup == nil {
		return nil, fmt.Errorf("formtemplate: field %q has no lookup", fieldID)
	}
	return lookup.Fill(f.Lookup, record)
}

// Catalog returns the fields rules may reference: the working tree's
// non-button fields followed by external entries.
func (e *Editor) Catalog() *rules.Catalog {
	return rules.NewCatalog(e.Template(), e.external...)
}

// Compiler returns a rule compiler bound to the current catalog.
func (e *Editor) Compiler() *rules.Compiler {
	return rules.NewCompiler(e.Catalog(), e.ruleOptions...)
}

// Rules returns the editor's validation rule set.
func (e *Editor) Rules() *rules.RuleSet {
	return &e.rules
}

// AddRule compiles d and appends it to the rule set.
func (e *Editor) AddRule(d rules.Draft) (rules.Rule, error) {
	r, err := e.Compiler().Compile(d)
	if err != nil {
		return rules.Rule{}, err
	}
	return r, e.addRule(r)
}

// AddPresetRule applies the named preset and appends the result.
func (e *Editor) AddPresetRule(name string, bindings map[string]string, message string) (rules.Rule, error) {
	r, err := e.Compiler().ApplyPreset(name, bindings, message)
	if err != nil {
		return rules.Rule{}, err
	}
	return r, e.addRule(r)
}

// AddFreeTextRule translates text and appends the result.
func (e *Editor) AddFreeTextRule(ctx context.Context, text string) (rules.Rule, error) {
	r, err := e.Compiler().FreeText(ctx, e.Template(), text)
	if err != nil {
		e.logger.Info("free-text rule not generated", "error", err)
		return rules.Rule{}, err
	}
	return r, e.addRule(r)
}

func (e *Editor) addRule(r rules.Rule) error {
	if err := e.rules.Add(r); err != nil {
		return err
	}
	e.logger.Debug("rule added", "rule", r.ID, "expression", r.Expression, "dependsOn", r.DependsOn)
	return nil
}

// ValidateRules reports rule dependencies that no longer resolve, for
// example after a referenced field was deleted.
func (e *Editor) ValidateRules() []rules.Problem {
	return e.rules.Validate(e.Catalog())
}

// Save renumbers the working tree and serialises it.
func (e *Editor) Save() map[string]any {
	return e.session.Save()
}

// Persist saves the working tree through repo and returns its id.
func (e *Editor) Persist(ctx context.Context, repo Repository) (int64, error) {
	id, err := repo.SaveTemplate(ctx, e.Template())
	if err != nil {
		return 0, fmt.Errorf("formtemplate: persist template: %w", err)
	}
	e.logger.Info("template persisted", "id", id)
	return id, nil
}

// PersistRules saves the rule set as the named validation set of moduleID.
func (e *Editor) PersistRules(ctx context.Context, repo Repository, moduleID, name string) error {
	if err := repo.SaveValidationSet(ctx, moduleID, name, e.rules.Rules); err != nil {
		return fmt.Errorf("formtemplate: persist rules: %w", err)
	}
	e.logger.Info("validation set persisted", "module", moduleID, "name", name, "rules", len(e.rules.Rules))
	return nil
}
