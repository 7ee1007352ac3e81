package rules

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTokenize(t *testing.T) {
	t.Parallel()

	tokens, err := tokenize(`IF new-text >= -3 && status != 'ok' THEN x = "a\"b" ELSE y = null`)
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	type tok struct {
		Kind tokenKind
		Raw  string
	}
	var got []tok
	for _, tk := range tokens {
		got = append(got, tok{tk.kind, tk.raw})
	}
	want := []tok{
		{tokenIf, "IF"},
		{tokenIdentifier, "new-text"},
		{tokenCompare, ">="},
		{tokenNumber, "-3"},
		{tokenAnd, "&&"},
		{tokenIdentifier, "status"},
		{tokenCompare, "!="},
		{tokenString, "ok"},
		{tokenThen, "THEN"},
		{tokenIdentifier, "x"},
		{tokenAssign, "="},
		{tokenString, `a"b`},
		{tokenElse, "ELSE"},
		{tokenIdentifier, "y"},
		{tokenAssign, "="},
		{tokenNull, "null"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestDependencies(t *testing.T) {
	t.Parallel()

	catalog := testCatalog()
	hyphenated := NewCatalog(nil, Entry{ID: "plan-tier", Label: "Plan tier"}, Entry{ID: "age", Label: "Age"})
	tests := []struct {
		name    string
		expr    string
		catalog *Catalog
		want    []string
	}{
		{name: "constants ignored", expr: "age > 18", catalog: catalog, want: []string{"age"}},
		{name: "first appearance order", expr: "(dischargeDate - admitDate) > 3 OR age < dischargeDate", catalog: catalog, want: []string{"dischargeDate", "admitDate", "age"}},
		{name: "assignment target skipped", expr: `IF age > 1 THEN status = "x"`, catalog: catalog, want: []string{"age"}},
		{name: "target also read", expr: `IF status == null THEN status = "open"`, catalog: catalog, want: []string{"status"}},
		{name: "unknown identifiers skipped", expr: "weight > 3 AND plan.tier != null", catalog: catalog, want: []string{"plan.tier"}},
		{name: "nil catalog accepts all", expr: "weight > height", catalog: nil, want: []string{"weight", "height"}},
		{name: "keywords are not fields", expr: "not age and true", catalog: nil, want: []string{"age"}},
		{name: "unspaced subtraction of a constant", expr: "age-18 > 0", catalog: catalog, want: []string{"age"}},
		{name: "unspaced subtraction of fields", expr: "dischargeDate-admitDate > 3", catalog: catalog, want: []string{"dischargeDate", "admitDate"}},
		{name: "hyphenated id resolves whole", expr: "plan-tier > 1", catalog: hyphenated, want: []string{"plan-tier"}},
		{name: "hyphenated id minus field", expr: "plan-tier-age > 1", catalog: hyphenated, want: []string{"plan-tier", "age"}},
		{name: "unresolved hyphenated word", expr: "weight-height > 1", catalog: catalog, want: []string{}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Dependencies(tt.expr, tt.catalog)
			if err != nil {
				t.Fatalf("dependencies: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("dependencies mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	t.Parallel()

	valid := []string{"age > 18", "(age > 1) AND (age < 3)", `IF a == 1 THEN b = 2 ELSE b = 3`}
	for _, expr := range valid {
		if err := Check(expr); err != nil {
			t.Fatalf("Check(%q): %v", expr, err)
		}
	}
	invalid := []string{"", "   ", "(age > 1", "age > 1)", "THEN a = 1", `a == "open`, "a & b", "a | b"}
	for _, expr := range invalid {
		if err := Check(expr); err == nil {
			t.Fatalf("Check(%q): expected error", expr)
		}
	}
}
