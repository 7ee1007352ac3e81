package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formtemplate/internal/prompt"
	"github.com/goliatone/go-formtemplate/pkg/testsupport"
)

const reviewTemplate = `{
  // stored by the admin UI
  "name": "Review",
  "sections": [
    {"sectionName": "patient", "displayName": "Patient", "order": 5, "fields": [
      {"id": "mrn", "displayName": "MRN", "type": "text", "order": 3, "required": true},
      {"id": "age", "displayName": "Age", "type": "number", "order": 9}
    ]},
    {"sectionName": "review", "displayName": "Review", "order": 8, "fields": [
      {"id": "level", "displayName": "Level", "type": "select", "requiredWhen": "whenVisible",
       "conditions": [{"ordinal": 0, "showWhen": "fieldHasValue", "referenceFieldId": "age"}]}
    ]}
  ]
}`

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

// run executes the CLI with args and returns what it printed to stdout.
func run(t *testing.T, driver prompt.Driver, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	a := newApp(strings.NewReader(""), &out, &errOut)
	if driver != nil {
		a.newDriver = func() prompt.Driver { return driver }
	}
	cmd := a.root()
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func decodeJSON(t *testing.T, raw string) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("decode output %q: %v", raw, err)
	}
	return out
}

func TestNormalize_DenseOrder(t *testing.T) {
	t.Parallel()

	path := writeFixture(t, "review.jsonc", reviewTemplate)
	out, err := run(t, nil, "normalize", path)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	doc := decodeJSON(t, out)
	sections := doc["sections"].([]any)
	var orders []float64
	for _, raw := range sections {
		sec := raw.(map[string]any)
		orders = append(orders, sec["order"].(float64))
		for _, f := range sec["fields"].([]any) {
			orders = append(orders, f.(map[string]any)["order"].(float64))
		}
	}
	if diff := cmp.Diff([]float64{1, 0, 1, 2, 0}, orders); diff != "" {
		t.Fatalf("orders mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalize_Golden(t *testing.T) {
	t.Parallel()

	path := writeFixture(t, "review.jsonc", reviewTemplate)
	out, err := run(t, nil, "normalize", path)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	golden := filepath.Join("testdata", "review.normalized.json")
	if testsupport.WriteMaybeGolden(t, golden, []byte(out)) {
		return
	}
	if diff := testsupport.CompareJSON(testsupport.MustReadGolden(t, golden), []byte(out)); diff != "" {
		t.Fatalf("normalized output mismatch (-want +got):\n%s", diff)
	}
}

func TestTargets(t *testing.T) {
	t.Parallel()

	path := writeFixture(t, "review.json", reviewTemplate)
	out, err := run(t, nil, "targets", path)
	if err != nil {
		t.Fatalf("targets: %v", err)
	}
	if diff := cmp.Diff("patient\nreview\n", out); diff != "" {
		t.Fatalf("targets mismatch (-want +got):\n%s", diff)
	}
}

func TestDiff_ReportsDroppedContent(t *testing.T) {
	t.Parallel()

	baseline := writeFixture(t, "baseline.json", reviewTemplate)
	edited := writeFixture(t, "edited.json", `{"sections": [
	  {"sectionName": "patient", "fields": [{"id": "mrn", "displayName": "MRN", "type": "text"}]}
	]}`)
	out, err := run(t, nil, "diff", baseline, edited)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	doc := decodeJSON(t, out)
	if diff := cmp.Diff([]any{"review"}, doc["missingSections"]); diff != "" {
		t.Fatalf("missing sections mismatch (-want +got):\n%s", diff)
	}
	missing := doc["missingFieldsBySection"].(map[string]any)["patient"].([]any)
	if len(missing) != 1 || missing[0].(map[string]any)["id"] != "age" {
		t.Fatalf("expected age missing from patient, got %v", missing)
	}
}

func TestVisible_StatesAndFilter(t *testing.T) {
	t.Parallel()

	path := writeFixture(t, "review.json", reviewTemplate)
	values := writeFixture(t, "values.yaml", "mrn: A1\nlevel: acute\n")

	out, err := run(t, nil, "visible", path, "--values", values)
	if err != nil {
		t.Fatalf("visible: %v", err)
	}
	doc := decodeJSON(t, out)
	visible := map[string]bool{}
	for _, raw := range doc["fields"].([]any) {
		state := raw.(map[string]any)
		visible[state["id"].(string)] = state["visible"].(bool)
	}
	if diff := cmp.Diff(map[string]bool{"mrn": true, "age": true, "level": false}, visible); diff != "" {
		t.Fatalf("visibility mismatch (-want +got):\n%s", diff)
	}

	out, err = run(t, nil, "visible", path, "--values", values, "--filter")
	if err != nil {
		t.Fatalf("visible --filter: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"mrn": "A1"}, decodeJSON(t, out)); diff != "" {
		t.Fatalf("filtered values mismatch (-want +got):\n%s", diff)
	}
}

func TestPopulate(t *testing.T) {
	t.Parallel()

	path := writeFixture(t, "sched.json", `{"sections": [{"sectionName": "s", "fields": [
	  {"id": "tz", "type": "select", "datasource": "timezones"},
	  {"id": "level", "type": "select", "datasource": "levels"}
	]}]}`)
	sources := writeFixture(t, "sources.yaml", "levels:\n  - id: acute\n    label: Acute\n")

	out, err := run(t, nil, "populate", path, "--datasources", sources)
	if err != nil {
		t.Fatalf("populate: %v", err)
	}
	fields := decodeJSON(t, out)["sections"].([]any)[0].(map[string]any)["fields"].([]any)
	tz := fields[0].(map[string]any)["options"].([]any)
	if len(tz) == 0 {
		t.Fatal("expected timezone options")
	}
	level := fields[1].(map[string]any)["options"].([]any)
	if diff := cmp.Diff([]any{map[string]any{"id": "acute", "label": "Acute"}}, level); diff != "" {
		t.Fatalf("level options mismatch (-want +got):\n%s", diff)
	}

	if _, err := run(t, nil, "populate", path); err == nil {
		t.Fatal("expected an unknown datasource to fail")
	}

	out, err = run(t, nil, "populate", path, "--datasources", sources, "--timezone-query", "new_york")
	if err != nil {
		t.Fatalf("populate with timezone query: %v", err)
	}
	fields = decodeJSON(t, out)["sections"].([]any)[0].(map[string]any)["fields"].([]any)
	tz = fields[0].(map[string]any)["options"].([]any)
	if diff := cmp.Diff([]any{map[string]any{"id": "America/New_York", "label": "America/New_York"}}, tz); diff != "" {
		t.Fatalf("filtered timezone options mismatch (-want +got):\n%s", diff)
	}
}

func TestLint(t *testing.T) {
	t.Parallel()

	clean := writeFixture(t, "clean.json", reviewTemplate)
	if out, err := run(t, nil, "lint", clean); err != nil {
		t.Fatalf("expected clean lint, got %v\n%s", err, out)
	}

	broken := writeFixture(t, "broken.json", `{"sections": [
	  {"sectionName": "a", "fields": [
	    {"id": "x", "type": "text", "conditions": [{"ordinal": 0, "showWhen": "fieldEquals", "referenceFieldId": "ghost", "value": "1"}]},
	    {"id": "x", "type": "number"}
	  ]}
	]}`)
	rulesPath := writeFixture(t, "rules.json", `{"rules": [{"id": "r1", "expression": "y > 1", "dependsOn": ["y"]}]}`)
	out, err := run(t, nil, "lint", broken, "--rules", rulesPath)
	if !errors.Is(err, errLintFailed) {
		t.Fatalf("expected errLintFailed, got %v", err)
	}
	for _, want := range []string{
		"field > x -> id is used by more than one field",
		`reference "ghost": unknown field`,
		`rule > r1 -> depends on unknown field "y"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in lint output:\n%s", want, out)
		}
	}
}

func TestRuleCompile(t *testing.T) {
	t.Parallel()

	path := writeFixture(t, "review.json", reviewTemplate)
	out, err := run(t, nil, "rule", "compile", path,
		"--left", "age", "--op", ">=", "--right", "18",
		"--join", "and", "--left2", "mrn", "--op2", "!= null",
		"--then", "level=@age",
		"--message", "Too young",
	)
	if err != nil {
		t.Fatalf("rule compile: %v", err)
	}
	doc := decodeJSON(t, out)
	if got := doc["expression"]; got != "IF age >= 18 AND mrn != null THEN level = age" {
		t.Fatalf("unexpected expression %v", got)
	}
	if diff := cmp.Diff([]any{"age", "mrn"}, doc["dependsOn"]); diff != "" {
		t.Fatalf("dependsOn mismatch (-want +got):\n%s", diff)
	}

	if _, err := run(t, nil, "rule", "compile", path, "--left", "ghost", "--op", ">", "--right", "1"); err == nil {
		t.Fatal("expected unknown field to fail")
	}
}

func TestRulePreset(t *testing.T) {
	t.Parallel()

	path := writeFixture(t, "review.json", reviewTemplate)
	out, err := run(t, nil, "rule", "preset", path, "required", "--bind", "A=mrn")
	if err != nil {
		t.Fatalf("rule preset: %v", err)
	}
	doc := decodeJSON(t, out)
	if diff := cmp.Diff([]any{"mrn"}, doc["dependsOn"]); diff != "" {
		t.Fatalf("dependsOn mismatch (-want +got):\n%s", diff)
	}

	out, err = run(t, nil, "rule", "preset", path, "--list")
	if err != nil {
		t.Fatalf("rule preset --list: %v", err)
	}
	if !strings.Contains(out, "date-after") {
		t.Fatalf("expected built-in presets listed, got:\n%s", out)
	}
}

type cannedDriver struct {
	selects  []int
	confirms []bool
	inputs   []string
}

func (d *cannedDriver) Input(context.Context, prompt.InputConfig) (string, error) {
	v := d.inputs[0]
	d.inputs = d.inputs[1:]
	return v, nil
}

func (d *cannedDriver) Confirm(context.Context, prompt.ConfirmConfig) (bool, error) {
	v := d.confirms[0]
	d.confirms = d.confirms[1:]
	return v, nil
}

func (d *cannedDriver) Select(context.Context, prompt.SelectConfig) (int, error) {
	v := d.selects[0]
	d.selects = d.selects[1:]
	return v, nil
}

func (d *cannedDriver) Info(context.Context, string) error { return nil }

func TestRuleBuild_SavesToStore(t *testing.T) {
	t.Parallel()

	path := writeFixture(t, "review.json", reviewTemplate)
	db := filepath.Join(t.TempDir(), "forms.db")
	driver := &cannedDriver{
		// left=age (second catalog entry), operator="<", right is a constant
		selects:  []int{1, 1, 1},
		confirms: []bool{false, false, false},
		inputs:   []string{"120", "Age is implausible"},
	}
	out, err := run(t, driver, "--db", db, "rule", "build", path, "--save", "review/intake")
	if err != nil {
		t.Fatalf("rule build: %v", err)
	}
	if got := decodeJSON(t, out)["expression"]; got != "age < 120" {
		t.Fatalf("unexpected expression %v", got)
	}

	out, err = run(t, nil, "--db", db, "store", "rules", "review/intake")
	if err != nil {
		t.Fatalf("store rules: %v", err)
	}
	var list []map[string]any
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("decode rules: %v", err)
	}
	if len(list) != 1 || list[0]["errorMessage"] != "Age is implausible" {
		t.Fatalf("unexpected stored rules %v", list)
	}
}

func TestStore_PutGetList(t *testing.T) {
	t.Parallel()

	path := writeFixture(t, "review.json", reviewTemplate)
	db := filepath.Join(t.TempDir(), "forms.db")

	out, err := run(t, nil, "--db", db, "store", "put", path)
	if err != nil {
		t.Fatalf("store put: %v", err)
	}
	if strings.TrimSpace(out) != "1" {
		t.Fatalf("expected id 1, got %q", out)
	}

	out, err = run(t, nil, "--db", db, "store", "get", "1")
	if err != nil {
		t.Fatalf("store get: %v", err)
	}
	doc := decodeJSON(t, out)
	if doc["name"] != "Review" || doc["id"] != float64(1) {
		t.Fatalf("unexpected stored document %v", doc)
	}

	out, err = run(t, nil, "--db", db, "store", "list")
	if err != nil {
		t.Fatalf("store list: %v", err)
	}
	if !strings.Contains(out, "1   Review") {
		t.Fatalf("expected listing to contain the template, got:\n%s", out)
	}

	if _, err := run(t, nil, "--db", db, "store", "get", "zero"); err == nil {
		t.Fatal("expected invalid id to fail")
	}
}
