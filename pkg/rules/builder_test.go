package rules

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formtemplate/pkg/template"
)

func testCatalog() *Catalog {
	tpl := &template.Template{Sections: []template.Section{{
		SectionName: "patient",
		Fields: []template.Field{
			{ID: "age", DisplayName: "Age", Type: template.FieldTypeNumber},
			{ID: "admitDate", DisplayName: "Admit date", Type: template.FieldTypeDateTime},
			{ID: "dischargeDate", DisplayName: "Discharge date", Type: template.FieldTypeDateTime},
			{ID: "status", DisplayName: "Status", Type: template.FieldTypeSelect},
			{ID: "submit", Type: template.FieldTypeButton},
		},
	}}}
	return NewCatalog(tpl, Entry{ID: "plan.tier", Label: "Plan tier", Source: "Eligibility"})
}

func fixedIDs() Option {
	n := 0
	return WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("rule-%d", n)
	})
}

func TestCompile_ConstantIsNotADependency(t *testing.T) {
	t.Parallel()

	c := NewCompiler(testCatalog(), fixedIDs())
	got, err := c.Compile(Draft{
		First:        Clause{Left: "age", Operator: OpGreater, Right: Constant("18")},
		ErrorMessage: "<b>Patient</b> must be an adult &amp; consenting",
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	want := Rule{
		ID:           "rule-1",
		Expression:   "age > 18",
		DependsOn:    []string{"age"},
		ErrorMessage: "Patient must be an adult & consenting",
		Enabled:      true,
		IsError:      true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("rule mismatch (-want +got):\n%s", diff)
	}
	for _, dep := range got.DependsOn {
		if dep == "18" {
			t.Fatalf("constant leaked into dependsOn: %v", got.DependsOn)
		}
	}
}

func TestCompile_Expressions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		draft    Draft
		wantExpr string
		wantDeps []string
	}{
		{
			name:     "field to field",
			draft:    Draft{First: Clause{Left: "dischargeDate", Operator: OpGreaterEqual, Right: Field("admitDate")}},
			wantExpr: "dischargeDate >= admitDate",
			wantDeps: []string{"dischargeDate", "admitDate"},
		},
		{
			name:     "null check drops right side",
			draft:    Draft{First: Clause{Left: "status", Operator: OpIsNull, Right: Constant("ignored")}},
			wantExpr: "status == null",
			wantDeps: []string{"status"},
		},
		{
			name:     "string constant is quoted",
			draft:    Draft{First: Clause{Left: "status", Operator: OpNotEqual, Right: Constant("closed")}},
			wantExpr: `status != "closed"`,
			wantDeps: []string{"status"},
		},
		{
			name: "joined conditions",
			draft: Draft{
				First:  Clause{Left: "age", Operator: OpLess, Right: Constant("65")},
				Join:   JoinOr,
				Second: &Clause{Left: "plan.tier", Operator: OpEqual, Right: Constant("gold")},
			},
			wantExpr: `age < 65 OR plan.tier == "gold"`,
			wantDeps: []string{"age", "plan.tier"},
		},
		{
			name: "if then else",
			draft: Draft{
				First:  Clause{Left: "dischargeDate", Operator: OpLess, Right: Field("admitDate")},
				Join:   JoinAnd,
				Second: &Clause{Left: "age", Operator: OpNotNull},
				Then:   &Assignment{Field: "status", Value: Constant("review")},
				Else:   &Assignment{Field: "status", Value: Field("plan.tier")},
			},
			wantExpr: `IF dischargeDate < admitDate AND age != null THEN status = "review" ELSE status = plan.tier`,
			wantDeps: []string{"dischargeDate", "admitDate", "age", "plan.tier"},
		},
		{
			name: "repeated field listed once",
			draft: Draft{
				First:  Clause{Left: "age", Operator: OpGreater, Right: Constant("0")},
				Join:   JoinAnd,
				Second: &Clause{Left: "age", Operator: OpLessEqual, Right: Constant("120")},
			},
			wantExpr: "age > 0 AND age <= 120",
			wantDeps: []string{"age"},
		},
	}

	c := NewCompiler(testCatalog())
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := c.Compile(tt.draft)
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
			if got.Expression != tt.wantExpr {
				t.Fatalf("expression = %q, want %q", got.Expression, tt.wantExpr)
			}
			if diff := cmp.Diff(tt.wantDeps, got.DependsOn); diff != "" {
				t.Fatalf("dependsOn mismatch (-want +got):\n%s", diff)
			}
			if got.ID == "" || !got.Enabled || !got.IsError {
				t.Fatalf("unexpected defaults: %+v", got)
			}
		})
	}
}

func TestCompile_NotReady(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		draft Draft
	}{
		{name: "empty", draft: Draft{}},
		{name: "no operator", draft: Draft{First: Clause{Left: "age"}}},
		{name: "unknown operator", draft: Draft{First: Clause{Left: "age", Operator: "~=", Right: Constant("1")}}},
		{name: "no right side", draft: Draft{First: Clause{Left: "age", Operator: OpGreater}}},
		{name: "empty constant", draft: Draft{First: Clause{Left: "age", Operator: OpGreater, Right: Constant("  ")}}},
		{name: "join without second", draft: Draft{First: Clause{Left: "age", Operator: OpNotNull}, Join: JoinAnd}},
		{name: "second without join", draft: Draft{
			First:  Clause{Left: "age", Operator: OpNotNull},
			Second: &Clause{Left: "status", Operator: OpNotNull},
		}},
		{name: "incomplete second", draft: Draft{
			First:  Clause{Left: "age", Operator: OpNotNull},
			Join:   JoinOr,
			Second: &Clause{Left: "status", Operator: OpEqual},
		}},
		{name: "incomplete then", draft: Draft{
			First: Clause{Left: "age", Operator: OpNotNull},
			Then:  &Assignment{Field: "status"},
		}},
	}

	c := NewCompiler(testCatalog())
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			before := tt.draft
			if _, err := c.Compile(tt.draft); !errors.Is(err, ErrNotReady) {
				t.Fatalf("expected ErrNotReady, got %v", err)
			}
			if !cmp.Equal(before, tt.draft) {
				t.Fatalf("draft was modified")
			}
		})
	}
}

func TestCompile_UnknownField(t *testing.T) {
	t.Parallel()

	c := NewCompiler(testCatalog())
	drafts := []Draft{
		{First: Clause{Left: "weight", Operator: OpGreater, Right: Constant("1")}},
		{First: Clause{Left: "age", Operator: OpGreater, Right: Field("height")}},
		{First: Clause{Left: "submit", Operator: OpNotNull}},
		{First: Clause{Left: "age", Operator: OpNotNull}, Then: &Assignment{Field: "ghost", Value: Constant("x")}},
	}
	for _, d := range drafts {
		if _, err := c.Compile(d); !errors.Is(err, ErrUnknownField) {
			t.Fatalf("expected ErrUnknownField for %+v, got %v", d, err)
		}
	}

	if _, err := NewCompiler(nil).Compile(drafts[0]); err != nil {
		t.Fatalf("nil catalog should skip resolution, got %v", err)
	}
}

func TestLiteral(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"18":         "18",
		"-2.5":       "-2.5",
		"TRUE":       "true",
		"null":       "null",
		"gold":       `"gold"`,
		`say "hi"`:   `"say \"hi\""`,
		"2024-01-01": `"2024-01-01"`,
	}
	for in, want := range tests {
		if got := literal(in); got != want {
			t.Fatalf("literal(%q) = %q, want %q", in, got, want)
		}
	}
}
