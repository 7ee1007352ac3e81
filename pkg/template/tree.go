package template

import (
	"sort"
	"strings"
)

// PathSeparator joins ancestor section names in owning paths and placement
// targets.
const PathSeparator = "."

// JoinPath builds an owning path from section names, skipping empty parts.
func JoinPath(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			out = append(out, part)
		}
	}
	return strings.Join(out, PathSeparator)
}

// Clone returns a deep copy of the field.
func (f Field) Clone() Field {
	out := f
	if f.Options != nil {
		out.Options = append([]Option(nil), f.Options...)
	}
	if f.Conditions != nil {
		out.Conditions = append([]Condition(nil), f.Conditions...)
	}
	if f.Lookup != nil {
		lookup := *f.Lookup
		if f.Lookup.Fill != nil {
			lookup.Fill = make(map[string]string, len(f.Lookup.Fill))
			for k, v := range f.Lookup.Fill {
				lookup.Fill[k] = v
			}
		}
		out.Lookup = &lookup
	}
	if f.Button != nil {
		button := *f.Button
		out.Button = &button
	}
	out.Extra = cloneExtra(f.Extra)
	return out
}

// Clone returns a deep copy of the section and everything below it.
func (s Section) Clone() Section {
	out := s
	if s.Fields != nil {
		out.Fields = make([]Field, len(s.Fields))
		for i, f := range s.Fields {
			out.Fields[i] = f.Clone()
		}
	}
	if s.Conditions != nil {
		out.Conditions = append([]Condition(nil), s.Conditions...)
	}
	out.Subsections = s.Subsections.Clone()
	out.Extra = cloneExtra(s.Extra)
	return out
}

// Clone returns a deep copy of the template.
func (t Template) Clone() Template {
	out := t
	if t.Sections != nil {
		out.Sections = make([]Section, len(t.Sections))
		for i, s := range t.Sections {
			out.Sections[i] = s.Clone()
		}
	}
	return out
}

// Section returns the top-level section with the given name.
func (t *Template) Section(name string) (*Section, bool) {
	if t == nil {
		return nil, false
	}
	for i := range t.Sections {
		if t.Sections[i].SectionName == name {
			return &t.Sections[i], true
		}
	}
	return nil, false
}

// SectionIndex returns the position of the named top-level section or -1.
func (t *Template) SectionIndex(name string) int {
	if t == nil {
		return -1
	}
	for i := range t.Sections {
		if t.Sections[i].SectionName == name {
			return i
		}
	}
	return -1
}

// Container resolves a placement target ("section" or "section.sub") to the
// section that owns the fields rendered there. Names may themselves contain
// the separator: an exact name always wins over a split.
func (t *Template) Container(target string) (*Section, bool) {
	if t == nil {
		return nil, false
	}
	if sec, ok := t.Section(target); ok {
		return sec, true
	}
	for i := range t.Sections {
		rest, ok := strings.CutPrefix(target, t.Sections[i].SectionName+PathSeparator)
		if !ok {
			continue
		}
		if sec, ok := descend(&t.Sections[i], rest); ok {
			return sec, true
		}
	}
	return nil, false
}

func descend(section *Section, rest string) (*Section, bool) {
	if child, ok := section.Subsections.Get(rest); ok {
		return child, true
	}
	var found *Section
	section.Subsections.Each(func(key string, child *Section) bool {
		if tail, ok := strings.CutPrefix(rest, key+PathSeparator); ok {
			found, _ = descend(child, tail)
		}
		return found == nil
	})
	return found, found != nil
}

// Walk visits every section depth-first in order, passing its owning path.
// Returning false from fn stops descent into that section's subsections.
func (t *Template) Walk(fn func(path string, section *Section) bool) {
	if t == nil {
		return
	}
	for i := range t.Sections {
		walkSection(&t.Sections[i], t.Sections[i].SectionName, fn)
	}
}

func walkSection(section *Section, path string, fn func(string, *Section) bool) {
	if !fn(path, section) {
		return
	}
	section.Subsections.Each(func(key string, child *Section) bool {
		walkSection(child, JoinPath(path, key), fn)
		return true
	})
}

// TagOwningPaths stamps every field with the dotted path of its section.
func (t *Template) TagOwningPaths() {
	t.Walk(func(path string, section *Section) bool {
		for i := range section.Fields {
			section.Fields[i].OwningPath = path
		}
		return true
	})
}

// Targets lists the valid placement targets: one per top-level section plus
// one per section.subsection pair.
func (t *Template) Targets() []string {
	var out []string
	if t == nil {
		return out
	}
	for i := range t.Sections {
		sec := &t.Sections[i]
		out = append(out, sec.SectionName)
		for _, key := range sec.Subsections.Keys() {
			out = append(out, JoinPath(sec.SectionName, key))
		}
	}
	return out
}

// Catalog flattens every field in render order.
func (t *Template) Catalog() []FieldRef {
	var out []FieldRef
	t.Walk(func(path string, section *Section) bool {
		for _, f := range section.Fields {
			out = append(out, FieldRef{
				ID:          f.ID,
				DisplayName: f.DisplayName,
				Type:        f.Type,
				OwningPath:  path,
			})
		}
		return true
	})
	return out
}

// FindField locates a field by id anywhere in the tree.
func (t *Template) FindField(id string) (*Field, bool) {
	var found *Field
	t.Walk(func(_ string, section *Section) bool {
		if found != nil {
			return false
		}
		for i := range section.Fields {
			if section.Fields[i].ID == id {
				found = &section.Fields[i]
				return false
			}
		}
		return true
	})
	return found, found != nil
}

// HasField reports whether any field in the tree uses id.
func (t *Template) HasField(id string) bool {
	_, ok := t.FindField(id)
	return ok
}

// DuplicateIDs returns ids used by more than one field, sorted.
func (t *Template) DuplicateIDs() []string {
	seen := make(map[string]int)
	t.Walk(func(_ string, section *Section) bool {
		for _, f := range section.Fields {
			seen[f.ID]++
		}
		return true
	})
	var out []string
	for id, n := range seen {
		if n > 1 {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// MaxSectionOrder returns the highest top-level section order, or 0.
func (t *Template) MaxSectionOrder() int {
	highest := 0
	for _, s := range t.Sections {
		if s.Order > highest {
			highest = s.Order
		}
	}
	return highest
}

// Renumber makes every order dense: top-level sections count from one,
// fields and subsections count from zero within their owner.
func (t *Template) Renumber() {
	sort.SliceStable(t.Sections, func(i, j int) bool {
		return t.Sections[i].Order < t.Sections[j].Order
	})
	for i := range t.Sections {
		t.Sections[i].Order = i + 1
		renumberSection(&t.Sections[i])
	}
}

func renumberSection(section *Section) {
	for i := range section.Fields {
		section.Fields[i].Order = i
	}
	idx := 0
	section.Subsections.Each(func(_ string, child *Section) bool {
		child.Order = idx
		idx++
		renumberSection(child)
		return true
	})
}

// RenumberFields makes field order dense and zero-based within one section.
func (s *Section) RenumberFields() {
	for i := range s.Fields {
		s.Fields[i].Order = i
	}
}

func cloneExtra(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		return cloneExtra(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
