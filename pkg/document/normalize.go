package document

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-formtemplate/pkg/template"
)

var sectionKeys = map[string]struct{}{
	"key":         {},
	"sectionName": {},
	"name":        {},
	"displayName": {},
	"order":       {},
	"fields":      {},
	"subsections": {},
	"conditions":  {},
}

var fieldKeys = map[string]struct{}{
	"id":           {},
	"displayName":  {},
	"label":        {},
	"type":         {},
	"options":      {},
	"datasource":   {},
	"required":     {},
	"requiredWhen": {},
	"order":        {},
	"conditions":   {},
	"lookup":       {},
	"buttonText":   {},
	"action":       {},
	"owningPath":   {},
}

var fieldTypeAliases = map[string]template.FieldType{
	"string":    template.FieldTypeText,
	"input":     template.FieldTypeText,
	"integer":   template.FieldTypeNumber,
	"date":      template.FieldTypeDateTime,
	"time":      template.FieldTypeDateTime,
	"datetime":  template.FieldTypeDateTime,
	"dropdown":  template.FieldTypeSelect,
	"typeahead": template.FieldTypeSearch,
	"boolean":   template.FieldTypeCheckbox,
}

// Normalize converts a loosely structured document into the canonical tree.
// It accepts a decoded document (map or bare section array) or an existing
// template; anything it cannot interpret becomes an empty collection.
func Normalize(raw any) template.Template {
	var tpl template.Template
	switch v := raw.(type) {
	case template.Template:
		tpl = v.Clone()
	case *template.Template:
		if v != nil {
			tpl = v.Clone()
		}
	case map[string]any:
		tpl.ID = readInt64(v, "id")
		tpl.Name = readString(v, "name")
		tpl.Sections = decodeSections(v["sections"])
	case []any:
		tpl.Sections = decodeSections(v)
	}
	canonicalize(&tpl)
	return tpl
}

// Targets rebuilds the flat list of valid placement targets for t.
func Targets(t *template.Template) []string {
	return t.Targets()
}

func canonicalize(t *template.Template) {
	if t.Sections == nil {
		t.Sections = []template.Section{}
	}
	for i := range t.Sections {
		sec := &t.Sections[i]
		if strings.TrimSpace(sec.SectionName) == "" {
			sec.SectionName = fmt.Sprintf("Section%d", i+1)
		}
		canonicalizeSection(sec)
	}
	t.TagOwningPaths()
}

func canonicalizeSection(sec *template.Section) {
	if sec.Fields == nil {
		sec.Fields = []template.Field{}
	}
	sec.Conditions = canonicalizeConditions(sec.Conditions)
	for i := range sec.Fields {
		f := &sec.Fields[i]
		f.Conditions = canonicalizeConditions(f.Conditions)
		if f.Type != template.FieldTypeSearch {
			f.Lookup = nil
		}
		if f.Type != template.FieldTypeButton || (f.Button != nil && *f.Button == template.Button{}) {
			f.Button = nil
		}
	}
	sec.Subsections.Each(func(key string, child *template.Section) bool {
		if strings.TrimSpace(child.SectionName) == "" {
			child.SectionName = key
		}
		canonicalizeSection(child)
		return true
	})
}

func canonicalizeConditions(conds []template.Condition) []template.Condition {
	if len(conds) == 0 {
		return nil
	}
	conds[0].OperatorWithPrev = template.JoinNone
	for i := range conds {
		if conds[i].ShowWhen == "" {
			conds[i].ShowWhen = template.ShowAlways
		}
	}
	return conds
}

func decodeSections(raw any) []template.Section {
	items := orderedItems(raw)
	out := make([]template.Section, 0, len(items))
	for _, item := range items {
		out = append(out, decodeSection(item.payload))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func decodeSection(payload map[string]any) template.Section {
	sec := template.Section{
		SectionName: readString(payload, "sectionName", "name"),
		DisplayName: readString(payload, "displayName"),
		Fields:      decodeFields(payload["fields"]),
		Conditions:  decodeConditions(payload["conditions"]),
		Extra:       extraKeys(payload, sectionKeys),
	}
	sec.Order, _ = readInt(payload, "order")
	sec.Subsections = decodeSubsections(payload["subsections"])
	return sec
}

// placeholderKey returns the first unused "SubsectionN" key, starting at n.
func placeholderKey(subs *template.Subsections, n int) string {
	for ; ; n++ {
		key := fmt.Sprintf("Subsection%d", n)
		if _, taken := subs.Get(key); !taken {
			return key
		}
	}
}

// decodeSubsections returns nil when the attribute is absent or unusable so
// that "no subsections" stays distinct from "empty subsections".
func decodeSubsections(raw any) *template.Subsections {
	switch v := raw.(type) {
	case []any:
		out := template.NewSubsections()
		for idx, item := range v {
			payload, ok := asMap(item)
			if !ok {
				payload = map[string]any{}
			}
			key := readString(payload, "key")
			if key == "" {
				key = readString(payload, "sectionName", "name")
			}
			if _, taken := out.Get(key); key == "" || taken {
				key = placeholderKey(out, idx+1)
			}
			child := decodeSection(payload)
			if _, ok := readInt(payload, "order"); !ok {
				child.Order = idx
			}
			out.Set(key, child)
		}
		return out
	case map[string]any:
		out := template.NewSubsections()
		type entry struct {
			key   string
			child template.Section
		}
		entries := make([]entry, 0, len(v))
		for key, item := range v {
			payload, ok := asMap(item)
			if !ok {
				payload = map[string]any{}
			}
			entries = append(entries, entry{key: key, child: decodeSection(payload)})
		}
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].child.Order != entries[j].child.Order {
				return entries[i].child.Order < entries[j].child.Order
			}
			return entries[i].key < entries[j].key
		})
		for _, e := range entries {
			out.Set(e.key, e.child)
		}
		return out
	default:
		return nil
	}
}

func decodeFields(raw any) []template.Field {
	items := orderedItems(raw)
	out := make([]template.Field, 0, len(items))
	for _, item := range items {
		f := decodeField(item.payload)
		if f.ID == "" {
			f.ID = item.key
		}
		out = append(out, f)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func decodeField(payload map[string]any) template.Field {
	f := template.Field{
		ID:          readString(payload, "id"),
		DisplayName: readString(payload, "displayName", "label"),
		Type:        decodeFieldType(readString(payload, "type")),
		Options:     decodeOptions(payload["options"]),
		Datasource:  readString(payload, "datasource"),
		Required:    readBool(payload, "required"),
		Conditions:  decodeConditions(payload["conditions"]),
		Extra:       extraKeys(payload, fieldKeys),
	}
	f.Order, _ = readInt(payload, "order")

	switch template.RequiredWhen(readString(payload, "requiredWhen")) {
	case template.RequiredNever:
		f.RequiredWhen = template.RequiredNever
	case template.RequiredAlways:
		f.RequiredWhen = template.RequiredAlways
	case template.RequiredWhenVisible:
		f.RequiredWhen = template.RequiredWhenVisible
	}

	switch f.Type {
	case template.FieldTypeSearch:
		if lookup, ok := asMap(payload["lookup"]); ok {
			f.Lookup = &template.Lookup{Datasource: readString(lookup, "datasource")}
			if fill, ok := asMap(lookup["fill"]); ok && len(fill) > 0 {
				f.Lookup.Fill = make(map[string]string, len(fill))
				for path, target := range fill {
					if id := stringify(target); id != "" {
						f.Lookup.Fill[path] = id
					}
				}
			}
		}
	case template.FieldTypeButton:
		text, action := readString(payload, "buttonText"), readString(payload, "action")
		if text != "" || action != "" {
			f.Button = &template.Button{Text: text, Action: action}
		}
	}
	return f
}

func decodeFieldType(raw string) template.FieldType {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	if t := template.FieldType(lowered); t.Valid() {
		return t
	}
	if alias, ok := fieldTypeAliases[lowered]; ok {
		return alias
	}
	if strings.Contains(lowered, "date") || strings.Contains(lowered, "time") {
		return template.FieldTypeDateTime
	}
	return template.FieldTypeText
}

func decodeOptions(raw any) []template.Option {
	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		return nil
	}
	out := make([]template.Option, 0, len(list))
	for _, item := range list {
		if payload, ok := asMap(item); ok {
			id := readString(payload, "id", "value")
			label := readString(payload, "label", "name")
			if label == "" {
				label = id
			}
			out = append(out, template.Option{ID: id, Label: label})
			continue
		}
		if str := stringify(item); str != "" {
			out = append(out, template.Option{ID: str, Label: str})
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func decodeConditions(raw any) []template.Condition {
	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		return nil
	}
	out := make([]template.Condition, 0, len(list))
	for idx, item := range list {
		payload, ok := asMap(item)
		if !ok {
			continue
		}
		cond := template.Condition{
			ShowWhen:         template.ShowWhen(readString(payload, "showWhen")),
			ReferenceFieldID: readString(payload, "referenceFieldId", "referenceField"),
			Value:            readString(payload, "value"),
		}
		if ordinal, ok := readInt(payload, "ordinal"); ok {
			cond.Ordinal = ordinal
		} else {
			cond.Ordinal = idx
		}
		switch template.Join(strings.ToUpper(readString(payload, "operatorWithPrev"))) {
		case template.JoinAnd:
			cond.OperatorWithPrev = template.JoinAnd
		case template.JoinOr:
			cond.OperatorWithPrev = template.JoinOr
		}
		out = append(out, cond)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	if len(out) == 0 {
		return nil
	}
	return out
}

type keyedPayload struct {
	key     string
	payload map[string]any
}

// orderedItems accepts either an array of objects or an object keyed by
// name/id and yields the object payloads. Keyed objects are visited in key
// order so decoding stays deterministic; callers re-sort by "order".
func orderedItems(raw any) []keyedPayload {
	switch v := raw.(type) {
	case []any:
		out := make([]keyedPayload, 0, len(v))
		for _, item := range v {
			if payload, ok := asMap(item); ok {
				out = append(out, keyedPayload{payload: payload})
			}
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		out := make([]keyedPayload, 0, len(keys))
		for _, key := range keys {
			if payload, ok := asMap(v[key]); ok {
				out = append(out, keyedPayload{key: key, payload: payload})
			}
		}
		return out
	default:
		return nil
	}
}

func extraKeys(payload map[string]any, known map[string]struct{}) map[string]any {
	var out map[string]any
	for key, value := range payload {
		if _, ok := known[key]; ok {
			continue
		}
		if out == nil {
			out = make(map[string]any)
		}
		out[key] = value
	}
	return out
}
