package document

import (
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-formtemplate/pkg/template"
)

// Save renumbers t so every order is dense and serialises it back to the
// persisted document shape. It mutates t's order values.
func Save(t *template.Template) map[string]any {
	if t == nil {
		return map[string]any{"sections": []any{}}
	}
	t.Renumber()
	return Encode(*t)
}

// Marshal is Save followed by JSON encoding.
func Marshal(t *template.Template) ([]byte, error) {
	payload, err := json.MarshalIndent(Save(t), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("document: marshal template: %w", err)
	}
	return payload, nil
}

// Encode serialises t without touching order values.
func Encode(t template.Template) map[string]any {
	out := map[string]any{}
	if t.ID != 0 {
		out["id"] = t.ID
	}
	if t.Name != "" {
		out["name"] = t.Name
	}
	sections := make([]any, 0, len(t.Sections))
	for _, sec := range t.Sections {
		sections = append(sections, encodeSection(sec))
	}
	out["sections"] = sections
	return out
}

func encodeSection(sec template.Section) map[string]any {
	out := copyExtra(sec.Extra)
	out["sectionName"] = sec.SectionName
	out["displayName"] = sec.DisplayName
	out["order"] = sec.Order

	fields := make([]any, 0, len(sec.Fields))
	for _, f := range sec.Fields {
		fields = append(fields, encodeField(f))
	}
	out["fields"] = fields

	if conds := encodeConditions(sec.Conditions); conds != nil {
		out["conditions"] = conds
	}
	if sec.Subsections != nil {
		subs := make(map[string]any, sec.Subsections.Len())
		sec.Subsections.Each(func(key string, child *template.Section) bool {
			subs[key] = encodeSection(*child)
			return true
		})
		out["subsections"] = subs
	}
	return out
}

// EncodeFields serialises fields in their persisted shape, for payloads
// that carry loose fields outside a template.
func EncodeFields(fields []template.Field) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, encodeField(f))
	}
	return out
}

func encodeField(f template.Field) map[string]any {
	out := copyExtra(f.Extra)
	out["id"] = f.ID
	out["displayName"] = f.DisplayName
	out["type"] = string(f.Type)
	out["required"] = f.Required
	out["order"] = f.Order
	if f.RequiredWhen != template.RequiredUnset {
		out["requiredWhen"] = string(f.RequiredWhen)
	}
	if f.Datasource != "" {
		out["datasource"] = f.Datasource
	}
	if len(f.Options) > 0 {
		options := make([]any, 0, len(f.Options))
		for _, opt := range f.Options {
			options = append(options, map[string]any{"id": opt.ID, "label": opt.Label})
		}
		out["options"] = options
	}
	if conds := encodeConditions(f.Conditions); conds != nil {
		out["conditions"] = conds
	}
	if f.Lookup != nil {
		lookup := map[string]any{}
		if f.Lookup.Datasource != "" {
			lookup["datasource"] = f.Lookup.Datasource
		}
		if len(f.Lookup.Fill) > 0 {
			fill := make(map[string]any, len(f.Lookup.Fill))
			for path, target := range f.Lookup.Fill {
				fill[path] = target
			}
			lookup["fill"] = fill
		}
		out["lookup"] = lookup
	}
	if f.Button != nil {
		if f.Button.Text != "" {
			out["buttonText"] = f.Button.Text
		}
		if f.Button.Action != "" {
			out["action"] = f.Button.Action
		}
	}
	return out
}

func encodeConditions(conds []template.Condition) []any {
	if len(conds) == 0 {
		return nil
	}
	out := make([]any, 0, len(conds))
	for _, c := range conds {
		row := map[string]any{
			"ordinal":  c.Ordinal,
			"showWhen": string(c.ShowWhen),
		}
		if c.ReferenceFieldID != "" {
			row["referenceFieldId"] = c.ReferenceFieldID
		}
		if c.Value != "" {
			row["value"] = c.Value
		}
		if c.OperatorWithPrev != template.JoinNone {
			row["operatorWithPrev"] = string(c.OperatorWithPrev)
		}
		out = append(out, row)
	}
	return out
}

func copyExtra(extra map[string]any) map[string]any {
	out := make(map[string]any, len(extra)+8)
	for k, v := range extra {
		out[k] = v
	}
	return out
}
