package formtemplate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formtemplate/pkg/lookup"
	"github.com/goliatone/go-formtemplate/pkg/placement"
	"github.com/goliatone/go-formtemplate/pkg/rules"
	"github.com/goliatone/go-formtemplate/pkg/store"
	"github.com/goliatone/go-formtemplate/pkg/template"
	"github.com/goliatone/go-formtemplate/pkg/visibility"
)

const reviewDocument = `{
  // utilization review intake
  "id": 7,
  "name": "Review",
  "sections": [
    {
      "sectionName": "patient",
      "order": 1,
      "fields": [
        {"id": "age", "displayName": "Age", "type": "number"},
        {"id": "guardian", "displayName": "Guardian", "type": "text",
         "conditions": [{"showWhen": "fieldEquals", "referenceFieldId": "minor", "value": "yes"}]},
        {"id": "minor", "displayName": "Minor", "type": "select", "datasource": "yesNo",
         "required": true, "requiredWhen": "always"},
        {"id": "payer", "displayName": "Payer", "type": "search",
         "lookup": {"datasource": "payers", "fill": {"$.plan.code": "planCode"}}}
      ]
    },
    {
      "sectionName": "actions",
      "order": 2,
      "fields": [
        {"id": "notes", "displayName": "Notes", "type": "textarea"},
        {"id": "approve", "type": "button", "buttonText": "Approve", "action": "approve"}
      ]
    },
  ]
}`

func sequence(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func TestEditor_EndToEnd(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	baseline, err := Load([]byte(reviewDocument))
	if err != nil {
		t.Fatalf("load baseline: %v", err)
	}
	e, err := Load([]byte(reviewDocument),
		WithLogger(logger),
		WithBaseline(baseline.Template()),
		WithRuleIDGenerator(sequence("rule")),
		WithDatasources(lookup.StaticSource{"yesNo": {{ID: "yes", Label: "Yes"}, {ID: "no", Label: "No"}}}),
	)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	actions, _ := e.Template().Section("actions")
	if got := []string{actions.Fields[0].ID, actions.Fields[1].ID}; !cmp.Equal(got, []string{"approve", "notes"}) {
		t.Fatalf("paired section not synced: %v", got)
	}

	if err := e.DeleteSection("patient"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if diff := cmp.Diff([]string{"patient"}, e.Diff().MissingSections); diff != "" {
		t.Fatalf("missing sections mismatch (-want +got):\n%s", diff)
	}
	if err := e.RestoreSection("actions"); !errors.Is(err, placement.ErrSectionExists) {
		t.Fatalf("expected ErrSectionExists, got %v", err)
	}
	if err := e.RestoreSection("patient"); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !e.Diff().Empty() {
		t.Fatalf("expected no differences after restore, got %+v", e.Diff())
	}

	if err := e.PopulateOptions(context.Background()); err != nil {
		t.Fatalf("populate: %v", err)
	}
	minor, _ := e.Template().FindField("minor")
	if len(minor.Options) != 2 {
		t.Fatalf("expected options to be resolved, got %+v", minor.Options)
	}

	values := map[string]any{"age": 12, "minor": "no", "guardian": "Pat"}
	if got := e.FilterSubmission(values); got["guardian"] != nil {
		t.Fatalf("expected hidden guardian to be dropped, got %v", got)
	}
	if got := e.MissingRequired(map[string]any{}); !cmp.Equal(got, []string{"minor"}) {
		t.Fatalf("unexpected missing required: %v", got)
	}

	filled, err := e.Fill("payer", map[string]any{"plan": map[string]any{"code": "GOLD"}})
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if filled["planCode"] != "GOLD" {
		t.Fatalf("unexpected fill %v", filled)
	}
	if _, err := e.Fill("age", nil); err == nil {
		t.Fatalf("expected error for field without lookup")
	}

	rule, err := e.AddRule(rules.Draft{First: rules.Clause{Left: "age", Operator: rules.OpGreater, Right: rules.Constant("18")}})
	if err != nil {
		t.Fatalf("add rule: %v", err)
	}
	if rule.ID != "rule-1" || rule.Expression != "age > 18" {
		t.Fatalf("unexpected rule %+v", rule)
	}
	if _, err := e.AddRule(rules.Draft{First: rules.Clause{Left: "approve", Operator: rules.OpNotNull}}); !errors.Is(err, rules.ErrUnknownField) {
		t.Fatalf("expected buttons to be unreferenceable, got %v", err)
	}
	if _, err := e.AddPresetRule("required", map[string]string{rules.TokenA: "guardian"}, ""); err != nil {
		t.Fatalf("add preset rule: %v", err)
	}

	if _, err := e.DeleteField(placement.At("patient"), 0); err != nil {
		t.Fatalf("delete field: %v", err)
	}
	if diff := cmp.Diff([]rules.Problem{{RuleID: "rule-1", Field: "age"}}, e.ValidateRules()); diff != "" {
		t.Fatalf("rule problems mismatch (-want +got):\n%s", diff)
	}
	if _, err := e.RestoreField("patient", "age"); err != nil {
		t.Fatalf("restore field: %v", err)
	}
	if len(e.ValidateRules()) != 0 {
		t.Fatalf("expected rules to resolve after restore")
	}

	if logs.Len() == 0 {
		t.Fatalf("expected debug logs to be written")
	}
}

func TestEditor_SubmissionUsesConfiguredEvaluator(t *testing.T) {
	t.Parallel()

	// Shows every field except minor, ignoring stored conditions.
	evaluator := visibility.EvaluatorFunc(func(owner string, _ []template.Condition, _ visibility.Context) bool {
		return owner != "minor"
	})
	e, err := Load([]byte(reviewDocument), WithEvaluator(evaluator))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	values := map[string]any{"minor": "no", "guardian": "Pat"}
	shown := make(map[string]bool)
	for _, state := range e.States(values) {
		shown[state.ID] = state.Visible
	}
	if !shown["guardian"] || shown["minor"] {
		t.Fatalf("unexpected live states %v", shown)
	}

	filtered := e.FilterSubmission(values)
	if filtered["guardian"] != "Pat" {
		t.Fatalf("expected guardian shown live to survive submission, got %v", filtered)
	}
	if _, ok := filtered["minor"]; ok {
		t.Fatalf("expected minor hidden live to be dropped, got %v", filtered)
	}
	if got := e.MissingRequired(map[string]any{}); len(got) != 0 {
		t.Fatalf("expected hidden required field to be skipped, got %v", got)
	}
}

func TestEditor_CatalogDragAndSave(t *testing.T) {
	t.Parallel()

	e := New(nil, WithIDGenerator(func(ft template.FieldType) string { return string(ft) + "-x" }))
	e.CreateSection()
	e.CreateSection()

	first, err := e.MoveAcross(placement.Catalog(), placement.At("New Section 1"), 0, 0)
	if err != nil {
		t.Fatalf("drag: %v", err)
	}
	second, err := e.MoveAcross(placement.Catalog(), placement.At("New Section 2"), 0, 0)
	if err != nil {
		t.Fatalf("drag: %v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("expected unique ids, got %q twice", first.ID)
	}

	if err := e.DeleteSection("New Section 1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	third := e.CreateSection()
	if third.SectionName != "New Section 3" {
		t.Fatalf("unexpected name %q", third.SectionName)
	}
	doc := e.Save()
	sections := doc["sections"].([]any)
	last := sections[len(sections)-1].(map[string]any)
	if last["sectionName"] != "New Section 3" || last["order"] != 2 {
		t.Fatalf("unexpected saved section %v", last)
	}
}

func TestEditor_StoreRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo, err := store.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer repo.Close()

	seed, err := Load([]byte(reviewDocument))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := seed.Persist(ctx, repo); err != nil {
		t.Fatalf("persist: %v", err)
	}

	e, err := Open(ctx, repo, 7, 404, WithRuleIDGenerator(sequence("r")))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if e.Baseline() != nil {
		t.Fatalf("missing baseline should be treated as none")
	}
	if !e.Diff().Empty() {
		t.Fatalf("diff without baseline must be empty")
	}

	if _, err := e.AddPresetRule("date-after", map[string]string{rules.TokenA: "age", rules.TokenB: "minor"}, "custom"); err != nil {
		t.Fatalf("preset: %v", err)
	}
	if err := e.PersistRules(ctx, repo, "um", "intake"); err != nil {
		t.Fatalf("persist rules: %v", err)
	}
	got, err := repo.LoadValidationSet(ctx, "um", "intake")
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	if diff := cmp.Diff(e.Rules().Rules, got); diff != "" {
		t.Fatalf("stored rules mismatch (-want +got):\n%s", diff)
	}

	if _, err := Open(ctx, repo, 99, 0); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
