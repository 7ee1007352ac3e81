package placement

import (
	"fmt"

	"github.com/goliatone/go-formtemplate/pkg/template"
)

// View selects which ordering of a container an index refers to. Only the
// paired section distinguishes views; everywhere else they all mean the
// container's fields array.
type View int

const (
	ViewAll View = iota
	ViewButtons
	ViewData
)

// Container addresses one ordered list of fields.
type Container struct {
	Target string
	View   View
}

// At addresses the fields array of target.
func At(target string) Container { return Container{Target: target} }

// Buttons addresses the button ordering of the paired section.
func Buttons(target string) Container { return Container{Target: target, View: ViewButtons} }

// Data addresses the non-button ordering of the paired section.
func Data(target string) Container { return Container{Target: target, View: ViewData} }

// Catalog addresses the field palette.
func Catalog() Container { return Container{Target: CatalogTarget} }

func (c Container) String() string {
	switch c.View {
	case ViewButtons:
		return c.Target + "[buttons]"
	case ViewData:
		return c.Target + "[data]"
	default:
		return c.Target
	}
}

// fieldList is a view over a container's fields that can be edited as a
// plain slice and written back.
type fieldList struct {
	section *template.Section
	path    string
	fields  []template.Field
	commit  func([]template.Field)
}

func (s *Session) isPaired(target string) bool {
	return s.paired != "" && target == s.paired
}

// viewFor picks the view an incoming field lands in: inside the paired
// section buttons always join the button ordering and everything else the
// data ordering.
func (s *Session) viewFor(c Container, f template.Field) Container {
	if !s.isPaired(c.Target) {
		return Container{Target: c.Target}
	}
	if f.IsButton() {
		return Buttons(c.Target)
	}
	return Data(c.Target)
}

func (s *Session) open(c Container) (fieldList, error) {
	if !s.isTarget(c.Target) {
		return fieldList{}, fmt.Errorf("%w: %q", ErrUnknownTarget, c.Target)
	}
	sec, ok := s.tpl.Container(c.Target)
	if !ok {
		return fieldList{}, fmt.Errorf("%w: %q", ErrUnknownTarget, c.Target)
	}

	list := fieldList{section: sec, path: c.Target}
	if !s.isPaired(c.Target) || c.View == ViewAll {
		list.fields = append([]template.Field(nil), sec.Fields...)
		list.commit = func(fields []template.Field) {
			sec.Fields = fields
			if s.isPaired(c.Target) {
				s.dataView = dataIDs(fields)
			}
		}
		return list, nil
	}

	buttons, data := s.split(sec)
	switch c.View {
	case ViewButtons:
		list.fields = buttons
		list.commit = func(fields []template.Field) {
			sec.Fields = joinPaired(fields, data)
		}
	default:
		list.fields = data
		list.commit = func(fields []template.Field) {
			sec.Fields = joinPaired(buttons, fields)
			s.dataView = dataIDs(fields)
		}
	}
	return list, nil
}

// split separates the paired section into its button ordering (relative
// order of the persisted array) and its data ordering (the cached view,
// reconciled against the fields currently present).
func (s *Session) split(sec *template.Section) (buttons, data []template.Field) {
	byID := make(map[string]template.Field)
	for _, f := range sec.Fields {
		if f.IsButton() {
			buttons = append(buttons, f)
			continue
		}
		byID[f.ID] = f
	}

	seen := make(map[string]struct{}, len(byID))
	for _, id := range s.dataView {
		f, ok := byID[id]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		data = append(data, f)
	}
	for _, f := range sec.Fields {
		if f.IsButton() {
			continue
		}
		if _, ok := seen[f.ID]; ok {
			continue
		}
		seen[f.ID] = struct{}{}
		data = append(data, f)
	}
	return buttons, data
}

// syncPaired rewrites the paired section's persisted array as buttons
// followed by data fields and refreshes the cached data ordering.
func (s *Session) syncPaired() {
	sec, ok := s.tpl.Section(s.paired)
	if !ok {
		s.dataView = nil
		return
	}
	buttons, data := s.split(sec)
	sec.Fields = joinPaired(buttons, data)
	s.dataView = dataIDs(data)
	for i := range sec.Fields {
		sec.Fields[i].OwningPath = sec.SectionName
	}
}

// PairedViews returns the button and data orderings of the paired section.
func (s *Session) PairedViews() (buttons, data []template.Field) {
	sec, ok := s.tpl.Section(s.paired)
	if !ok {
		return nil, nil
	}
	return s.split(sec)
}

func joinPaired(buttons, data []template.Field) []template.Field {
	out := make([]template.Field, 0, len(buttons)+len(data))
	out = append(out, buttons...)
	out = append(out, data...)
	return out
}

func dataIDs(fields []template.Field) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if !f.IsButton() {
			out = append(out, f.ID)
		}
	}
	return out
}
