package placement

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-formtemplate/pkg/document"
	"github.com/goliatone/go-formtemplate/pkg/template"
)

const (
	// DefaultPairedSection names the section that keeps separate button and
	// data orderings.
	DefaultPairedSection = "actions"
	// CatalogTarget addresses the palette of reusable default fields as a
	// MoveAcross source.
	CatalogTarget = "catalog"
)

// DefaultCatalog returns the palette of reusable default fields.
func DefaultCatalog() []template.Field {
	return []template.Field{
		{ID: "new-text", DisplayName: "New Text", Type: template.FieldTypeText},
		{ID: "new-number", DisplayName: "New Number", Type: template.FieldTypeNumber},
		{ID: "new-date", DisplayName: "New Date", Type: template.FieldTypeDateTime},
		{ID: "new-select", DisplayName: "New Select", Type: template.FieldTypeSelect},
	}
}

// IDGenerator returns a candidate id for a new field of the given type. The
// Session retries until the candidate is unused.
type IDGenerator func(template.FieldType) string

// UUIDGenerator builds ids like "text_1f0c9a2b".
func UUIDGenerator(t template.FieldType) string {
	return fmt.Sprintf("%s_%s", t, strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// Option customises a Session.
type Option func(*Session)

// WithPairedSection overrides the name of the paired section.
func WithPairedSection(name string) Option {
	return func(s *Session) {
		s.paired = name
	}
}

// WithIDGenerator injects the generator used for cloned catalog fields.
func WithIDGenerator(gen IDGenerator) Option {
	return func(s *Session) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithCatalog replaces the default field palette.
func WithCatalog(fields []template.Field) Option {
	return func(s *Session) {
		s.catalog = append([]template.Field(nil), fields...)
	}
}

// Session owns one working template and the per-session editing state.
// Sessions are not safe for concurrent use; edits are expected to be
// serialized by the caller.
type Session struct {
	tpl     *template.Template
	paired  string
	catalog []template.Field
	newID   IDGenerator

	sectionSeq    int
	subsectionSeq int

	dataView []string

	unavailableSections []template.Section
	unavailableFields   map[string][]template.Field

	targets []string
}

// NewSession takes ownership of tpl. A nil template starts an empty one.
func NewSession(tpl *template.Template, options ...Option) *Session {
	if tpl == nil {
		tpl = &template.Template{Sections: []template.Section{}}
	}
	s := &Session{
		tpl:               tpl,
		paired:            DefaultPairedSection,
		catalog:           DefaultCatalog(),
		newID:             UUIDGenerator,
		unavailableFields: make(map[string][]template.Field),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	s.settle()
	return s
}

// Template returns the working template. Callers must not mutate it
// concurrently with Session edits.
func (s *Session) Template() *template.Template {
	return s.tpl
}

// PairedSection returns the name of the paired section.
func (s *Session) PairedSection() string {
	return s.paired
}

// Catalog returns a copy of the field palette.
func (s *Session) Catalog() []template.Field {
	return append([]template.Field(nil), s.catalog...)
}

// Targets returns the valid placement targets.
func (s *Session) Targets() []string {
	return append([]string(nil), s.targets...)
}

// UnavailableSections lists sections deleted during this session.
func (s *Session) UnavailableSections() []template.Section {
	out := make([]template.Section, len(s.unavailableSections))
	for i, sec := range s.unavailableSections {
		out[i] = sec.Clone()
	}
	return out
}

// UnavailableFields lists fields deleted during this session, grouped by the
// owning path they were removed from.
func (s *Session) UnavailableFields() map[string][]template.Field {
	out := make(map[string][]template.Field, len(s.unavailableFields))
	for path, fields := range s.unavailableFields {
		cloned := make([]template.Field, len(fields))
		for i, f := range fields {
			cloned[i] = f.Clone()
		}
		out[path] = cloned
	}
	return out
}

// Save renumbers the working template and serialises it.
func (s *Session) Save() map[string]any {
	return document.Save(s.tpl)
}

func (s *Session) isTarget(target string) bool {
	for _, t := range s.targets {
		if t == target {
			return true
		}
	}
	return false
}

func (s *Session) isCatalogID(id string) bool {
	for _, f := range s.catalog {
		if f.ID == id {
			return true
		}
	}
	return false
}

func (s *Session) uniqueID(t template.FieldType) string {
	for attempt := 0; ; attempt++ {
		id := s.newID(t)
		if attempt >= 16 {
			id = fmt.Sprintf("%s_%d", id, attempt)
		}
		if id != "" && !s.tpl.HasField(id) && !s.isCatalogID(id) {
			return id
		}
	}
}

// settle restores every invariant after an edit: the paired section is
// resynchronised, field order is dense, owning paths are re-tagged and the
// target list is rebuilt.
func (s *Session) settle() {
	s.syncPaired()
	s.tpl.Walk(func(_ string, sec *template.Section) bool {
		if sec.Fields == nil {
			sec.Fields = []template.Field{}
		}
		sec.RenumberFields()
		return true
	})
	s.tpl.TagOwningPaths()
	s.targets = document.Targets(s.tpl)
}

func (s *Session) recordUnavailable(path string, f template.Field) {
	s.unavailableFields[path] = append(s.unavailableFields[path], f.Clone())
}

func (s *Session) forgetUnavailable(path, id string) {
	fields := s.unavailableFields[path]
	for i, f := range fields {
		if f.ID == id {
			fields = append(fields[:i], fields[i+1:]...)
			break
		}
	}
	if len(fields) == 0 {
		delete(s.unavailableFields, path)
		return
	}
	s.unavailableFields[path] = fields
}
