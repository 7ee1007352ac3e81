package template

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleTree() Template {
	contact := NewSubsections()
	contact.Set("contact", Section{
		SectionName: "contact",
		Order:       4,
		Fields:      []Field{{ID: "phone", Type: FieldTypeText, Order: 7}},
	})
	return Template{Sections: []Section{
		{
			SectionName: "review",
			Order:       9,
			Fields:      []Field{{ID: "level", Type: FieldTypeSelect, Options: []Option{{ID: "1", Label: "Acute"}}}},
		},
		{
			SectionName: "patient",
			Order:       3,
			Fields: []Field{
				{ID: "mrn", Type: FieldTypeText, Order: 5},
				{ID: "payer", Type: FieldTypeSearch, Order: 8, Lookup: &Lookup{Fill: map[string]string{"$.plan": "level"}}},
			},
			Subsections: contact,
		},
	}}
}

func TestJoinPath(t *testing.T) {
	t.Parallel()

	if got := JoinPath("patient", "", "contact"); got != "patient.contact" {
		t.Fatalf("unexpected path %q", got)
	}
	if got := JoinPath(); got != "" {
		t.Fatalf("expected empty path, got %q", got)
	}
}

func TestTemplate_Renumber(t *testing.T) {
	t.Parallel()

	tpl := sampleTree()
	tpl.Renumber()

	type order struct {
		Path  string
		Order int
	}
	var got []order
	tpl.Walk(func(path string, sec *Section) bool {
		got = append(got, order{path, sec.Order})
		for _, f := range sec.Fields {
			got = append(got, order{path + "/" + f.ID, f.Order})
		}
		return true
	})
	want := []order{
		{"patient", 1},
		{"patient/mrn", 0},
		{"patient/payer", 1},
		{"patient.contact", 0},
		{"patient.contact/phone", 0},
		{"review", 2},
		{"review/level", 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("orders mismatch (-want +got):\n%s", diff)
	}
}

func TestTemplate_TargetsAndContainer(t *testing.T) {
	t.Parallel()

	tpl := sampleTree()
	if diff := cmp.Diff([]string{"review", "patient", "patient.contact"}, tpl.Targets()); diff != "" {
		t.Fatalf("targets mismatch (-want +got):\n%s", diff)
	}

	sec, ok := tpl.Container("patient.contact")
	if !ok || sec.SectionName != "contact" {
		t.Fatalf("expected contact subsection, got %v %v", sec, ok)
	}
	for _, target := range []string{"patient.missing", "ghost", "review.contact"} {
		if _, ok := tpl.Container(target); ok {
			t.Fatalf("expected %q not to resolve", target)
		}
	}
}

func TestTemplate_ContainerDottedNames(t *testing.T) {
	t.Parallel()

	notes := NewSubsections()
	notes.Set("v1.2", Section{SectionName: "v1.2", Fields: []Field{{ID: "rev"}}})
	tpl := Template{Sections: []Section{
		{SectionName: "Dr", Fields: []Field{{ID: "short"}}},
		{SectionName: "Dr. Notes", Fields: []Field{{ID: "note"}}, Subsections: notes},
	}}

	cases := []struct {
		target string
		want   string
	}{
		{"Dr", "short"},
		{"Dr. Notes", "note"},
		{"Dr. Notes.v1.2", "rev"},
	}
	for _, tc := range cases {
		sec, ok := tpl.Container(tc.target)
		if !ok {
			t.Fatalf("expected %q to resolve", tc.target)
		}
		if sec.Fields[0].ID != tc.want {
			t.Fatalf("%q: expected field %q, got %q", tc.target, tc.want, sec.Fields[0].ID)
		}
	}
	for _, target := range tpl.Targets() {
		if _, ok := tpl.Container(target); !ok {
			t.Fatalf("listed target %q does not resolve", target)
		}
	}
	if _, ok := tpl.Container("Dr. Notes.v1"); ok {
		t.Fatal("expected partial subsection key not to resolve")
	}
}

func TestTemplate_CatalogAndFind(t *testing.T) {
	t.Parallel()

	tpl := sampleTree()
	var ids []string
	for _, ref := range tpl.Catalog() {
		ids = append(ids, ref.OwningPath+"/"+ref.ID)
	}
	want := []string{"review/level", "patient/mrn", "patient/payer", "patient.contact/phone"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Fatalf("catalog mismatch (-want +got):\n%s", diff)
	}

	f, ok := tpl.FindField("phone")
	if !ok {
		t.Fatal("expected to find phone")
	}
	f.DisplayName = "Phone"
	sec, _ := tpl.Container("patient.contact")
	if sec.Fields[0].DisplayName != "Phone" {
		t.Fatal("expected FindField to return a pointer into the tree")
	}
	if tpl.HasField("ghost") {
		t.Fatal("unexpected ghost field")
	}
}

func TestTemplate_DuplicateIDs(t *testing.T) {
	t.Parallel()

	tpl := sampleTree()
	if got := tpl.DuplicateIDs(); len(got) != 0 {
		t.Fatalf("expected no duplicates, got %v", got)
	}
	sec, _ := tpl.Container("patient.contact")
	sec.Fields = append(sec.Fields, Field{ID: "level"}, Field{ID: "mrn"})
	if diff := cmp.Diff([]string{"level", "mrn"}, tpl.DuplicateIDs()); diff != "" {
		t.Fatalf("duplicates mismatch (-want +got):\n%s", diff)
	}
}

func TestTemplate_CloneIsDeep(t *testing.T) {
	t.Parallel()

	tpl := sampleTree()
	clone := tpl.Clone()

	patient, _ := clone.Section("patient")
	patient.Fields[1].Lookup.Fill["$.plan"] = "changed"
	child, _ := patient.Subsections.Get("contact")
	child.Fields[0].ID = "changed"
	review, _ := clone.Section("review")
	review.Fields[0].Options[0].Label = "changed"

	original := sampleTree()
	if diff := cmp.Diff(original.Sections[0].Fields, tpl.Sections[0].Fields); diff != "" {
		t.Fatalf("clone aliased review fields (-want +got):\n%s", diff)
	}
	if tpl.Sections[1].Fields[1].Lookup.Fill["$.plan"] != "level" {
		t.Fatal("clone aliased lookup fill")
	}
	if !tpl.Sections[1].Subsections.Equal(original.Sections[1].Subsections) {
		t.Fatal("clone aliased subsections")
	}
}

func TestSubsections(t *testing.T) {
	t.Parallel()

	var absent *Subsections
	if absent.Len() != 0 || absent.Keys() != nil || absent.Clone() != nil {
		t.Fatal("nil subsections should behave as absent")
	}
	if absent.Equal(NewSubsections()) {
		t.Fatal("absent and empty subsections must differ")
	}

	subs := NewSubsections()
	subs.Set("b", Section{SectionName: "b"})
	subs.Set("a", Section{SectionName: "a"})
	subs.Set("b", Section{SectionName: "b", DisplayName: "B"})
	if diff := cmp.Diff([]string{"b", "a"}, subs.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if sec, _ := subs.Get("b"); sec.DisplayName != "B" {
		t.Fatalf("expected replaced value, got %q", sec.DisplayName)
	}
	if !subs.Delete("b") || subs.Delete("b") {
		t.Fatal("expected delete to report presence once")
	}
	if diff := cmp.Diff([]string{"a"}, subs.Keys()); diff != "" {
		t.Fatalf("keys after delete mismatch (-want +got):\n%s", diff)
	}

	var zero Subsections
	zero.Set("x", Section{})
	if zero.Len() != 1 {
		t.Fatal("zero value should be usable")
	}
}

func TestFieldType_Valid(t *testing.T) {
	t.Parallel()

	for _, ft := range []FieldType{FieldTypeText, FieldTypeButton, FieldTypeCheckbox} {
		if !ft.Valid() {
			t.Fatalf("expected %q valid", ft)
		}
	}
	if FieldType("signature").Valid() {
		t.Fatal("unexpected valid type")
	}
}
