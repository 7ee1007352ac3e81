package placement

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-formtemplate/pkg/template"
)

// CreateSection appends an empty section named "New Section N" with an order
// one past the highest existing order. N only ever grows within a session,
// so names of deleted sections are never handed out again.
func (s *Session) CreateSection() template.Section {
	var name string
	for {
		s.sectionSeq++
		name = fmt.Sprintf("New Section %d", s.sectionSeq)
		if _, taken := s.tpl.Section(name); !taken {
			break
		}
	}
	sec := template.Section{
		SectionName: name,
		DisplayName: name,
		Order:       s.tpl.MaxSectionOrder() + 1,
		Fields:      []template.Field{},
	}
	s.tpl.Sections = append(s.tpl.Sections, sec)
	s.settle()
	return sec
}

// CreateSubsection adds an empty subsection "Subsection N" under the named
// top-level section and returns its placement target.
func (s *Session) CreateSubsection(parent string) (string, error) {
	sec, ok := s.tpl.Section(parent)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSection, parent)
	}
	if sec.Subsections == nil {
		sec.Subsections = template.NewSubsections()
	}
	var key string
	for {
		s.subsectionSeq++
		key = fmt.Sprintf("Subsection%d", s.subsectionSeq)
		if _, taken := sec.Subsections.Get(key); !taken {
			break
		}
	}
	sec.Subsections.Set(key, template.Section{
		SectionName: key,
		DisplayName: fmt.Sprintf("Subsection %d", s.subsectionSeq),
		Order:       sec.Subsections.Len(),
		Fields:      []template.Field{},
	})
	s.settle()
	return template.JoinPath(parent, key), nil
}

// DeleteSection removes the named top-level section and records it, and its
// fields grouped by owning path, as unavailable for later restore.
func (s *Session) DeleteSection(name string) error {
	idx := s.tpl.SectionIndex(name)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownSection, name)
	}
	removed := s.tpl.Sections[idx]
	s.tpl.Sections = append(s.tpl.Sections[:idx:idx], s.tpl.Sections[idx+1:]...)

	s.unavailableSections = append(s.unavailableSections, removed.Clone())
	walkFields(&removed, removed.SectionName, func(path string, _ int, f template.Field) bool {
		s.recordUnavailable(path, f)
		return true
	})
	s.settle()
	return nil
}

// RestoreSection deep-copies the named section out of baseline and appends
// it to the working template. It is rejected, never merged, when a section
// with that name already exists. Fields whose ids are already used elsewhere
// in the working template are left out of the restored copy so ids stay
// unique.
func (s *Session) RestoreSection(name string, baseline *template.Template) error {
	if _, exists := s.tpl.Section(name); exists {
		return fmt.Errorf("%w: %q", ErrSectionExists, name)
	}
	src, ok := baseline.Section(name)
	if !ok {
		return fmt.Errorf("%w: %q not in baseline", ErrUnknownSection, name)
	}

	restored := src.Clone()
	dropTakenFields(&restored, s.tpl)
	restored.Order = s.tpl.MaxSectionOrder() + 1
	s.tpl.Sections = append(s.tpl.Sections, restored)

	for i, sec := range s.unavailableSections {
		if sec.SectionName == name {
			s.unavailableSections = append(s.unavailableSections[:i], s.unavailableSections[i+1:]...)
			break
		}
	}
	for path := range s.unavailableFields {
		if path == name || strings.HasPrefix(path, name+template.PathSeparator) {
			delete(s.unavailableFields, path)
		}
	}
	if name == s.paired {
		s.dataView = nil
	}
	s.settle()
	return nil
}

func dropTakenFields(sec *template.Section, working *template.Template) {
	kept := make([]template.Field, 0, len(sec.Fields))
	for _, f := range sec.Fields {
		if !working.HasField(f.ID) {
			kept = append(kept, f)
		}
	}
	sec.Fields = kept
	sec.Subsections.Each(func(_ string, child *template.Section) bool {
		dropTakenFields(child, working)
		return true
	})
}
