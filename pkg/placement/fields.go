package placement

import (
	"fmt"

	"github.com/goliatone/go-formtemplate/pkg/template"
)

// MoveWithin moves the field at fromIndex to toIndex inside one container.
// toIndex is clamped to the container bounds. Ids never change.
func (s *Session) MoveWithin(c Container, fromIndex, toIndex int) error {
	list, err := s.open(c)
	if err != nil {
		return err
	}
	if fromIndex < 0 || fromIndex >= len(list.fields) {
		return fmt.Errorf("%w: %s has %d fields, got %d", ErrIndexOutOfRange, c, len(list.fields), fromIndex)
	}

	f := list.fields[fromIndex]
	fields := remove(list.fields, fromIndex)
	fields = insert(fields, clamp(toIndex, len(fields)), f)
	list.commit(fields)
	s.settle()
	return nil
}

// MoveAcross moves the field at fromIndex of one container to toIndex of
// another and returns the placed field. Catalog fields (from the palette or
// any field carrying a catalog id) are cloned under a fresh unique id and
// their source is left untouched; every other field keeps its id and leaves
// its source. Inside the paired section the field lands in the ordering that
// matches its type and toIndex refers to that ordering.
func (s *Session) MoveAcross(from, to Container, fromIndex, toIndex int) (template.Field, error) {
	if from.Target != CatalogTarget && from == to {
		src, err := s.open(from)
		if err != nil {
			return template.Field{}, err
		}
		if fromIndex < 0 || fromIndex >= len(src.fields) {
			return template.Field{}, fmt.Errorf("%w: %s has %d fields, got %d", ErrIndexOutOfRange, from, len(src.fields), fromIndex)
		}
		id := src.fields[fromIndex].ID
		if err := s.MoveWithin(from, fromIndex, toIndex); err != nil {
			return template.Field{}, err
		}
		out, _ := s.tpl.FindField(id)
		return out.Clone(), nil
	}

	if !s.isTarget(to.Target) {
		return template.Field{}, fmt.Errorf("%w: %q", ErrUnknownTarget, to.Target)
	}

	var (
		placed template.Field
		detach func()
	)
	if from.Target == CatalogTarget {
		if fromIndex < 0 || fromIndex >= len(s.catalog) {
			return template.Field{}, fmt.Errorf("%w: catalog has %d fields, got %d", ErrIndexOutOfRange, len(s.catalog), fromIndex)
		}
		placed = s.cloneCatalogField(s.catalog[fromIndex])
	} else {
		src, err := s.open(from)
		if err != nil {
			return template.Field{}, err
		}
		if fromIndex < 0 || fromIndex >= len(src.fields) {
			return template.Field{}, fmt.Errorf("%w: %s has %d fields, got %d", ErrIndexOutOfRange, from, len(src.fields), fromIndex)
		}
		f := src.fields[fromIndex]
		if s.isCatalogID(f.ID) {
			placed = s.cloneCatalogField(f)
		} else {
			placed = f
			detach = func() { src.commit(remove(src.fields, fromIndex)) }
		}
	}

	// The source is only detached once the destination is known to resolve,
	// and the destination is reopened afterwards so a move between the two
	// views of the paired section sees the detached list.
	view := s.viewFor(to, placed)
	dst, err := s.open(view)
	if err != nil {
		return template.Field{}, err
	}
	if detach != nil {
		detach()
		if dst, err = s.open(view); err != nil {
			return template.Field{}, err
		}
	}
	placed.OwningPath = to.Target
	dst.commit(insert(dst.fields, clamp(toIndex, len(dst.fields)), placed))
	s.settle()

	out, _ := s.tpl.FindField(placed.ID)
	return out.Clone(), nil
}

func (s *Session) cloneCatalogField(f template.Field) template.Field {
	out := f.Clone()
	out.ID = s.uniqueID(f.Type)
	return out
}

// InsertField places f at index of container c. An empty id is generated;
// an id already used anywhere in the template is rejected.
func (s *Session) InsertField(c Container, index int, f template.Field) (template.Field, error) {
	if f.ID == "" {
		f.ID = s.uniqueID(f.Type)
	}
	if s.tpl.HasField(f.ID) {
		return template.Field{}, fmt.Errorf("%w: %q", ErrFieldExists, f.ID)
	}
	list, err := s.open(s.viewFor(c, f))
	if err != nil {
		return template.Field{}, err
	}
	list.commit(insert(list.fields, clamp(index, len(list.fields)), f.Clone()))
	s.settle()

	out, _ := s.tpl.FindField(f.ID)
	return out.Clone(), nil
}

// DeleteField removes the field at index of container c and records it as
// unavailable under the container's path.
func (s *Session) DeleteField(c Container, index int) (template.Field, error) {
	list, err := s.open(c)
	if err != nil {
		return template.Field{}, err
	}
	if index < 0 || index >= len(list.fields) {
		return template.Field{}, fmt.Errorf("%w: %s has %d fields, got %d", ErrIndexOutOfRange, c, len(list.fields), index)
	}
	removed := list.fields[index]
	list.commit(remove(list.fields, index))
	s.recordUnavailable(c.Target, removed)
	s.settle()
	return removed, nil
}

// RestoreField copies field id from the named baseline section (or one of
// its subsections) back into the working container at the same path. It is
// rejected when the id is already used in the working template.
func (s *Session) RestoreField(section, id string, baseline *template.Template) (template.Field, error) {
	if s.tpl.HasField(id) {
		return template.Field{}, fmt.Errorf("%w: %q", ErrFieldExists, id)
	}
	var (
		found template.Field
		path  string
		index int
		ok    bool
	)
	if sec, exists := baseline.Section(section); exists {
		walkFields(sec, sec.SectionName, func(p string, i int, f template.Field) bool {
			if f.ID == id {
				found, path, index, ok = f, p, i, true
				return false
			}
			return true
		})
	}
	if !ok {
		return template.Field{}, fmt.Errorf("%w: %q in baseline section %q", ErrUnknownField, id, section)
	}

	list, err := s.open(s.viewFor(At(path), found))
	if err != nil {
		return template.Field{}, err
	}
	list.commit(insert(list.fields, clamp(index, len(list.fields)), found.Clone()))
	s.forgetUnavailable(path, id)
	s.settle()

	out, _ := s.tpl.FindField(id)
	return out.Clone(), nil
}

func walkFields(sec *template.Section, path string, fn func(path string, index int, f template.Field) bool) bool {
	for i, f := range sec.Fields {
		if !fn(path, i, f) {
			return false
		}
	}
	cont := true
	sec.Subsections.Each(func(key string, child *template.Section) bool {
		cont = walkFields(child, template.JoinPath(path, key), fn)
		return cont
	})
	return cont
}

func remove(fields []template.Field, index int) []template.Field {
	out := make([]template.Field, 0, len(fields)-1)
	out = append(out, fields[:index]...)
	return append(out, fields[index+1:]...)
}

func insert(fields []template.Field, index int, f template.Field) []template.Field {
	out := make([]template.Field, 0, len(fields)+1)
	out = append(out, fields[:index]...)
	out = append(out, f)
	return append(out, fields[index:]...)
}

func clamp(index, n int) int {
	if index < 0 {
		return 0
	}
	if index > n {
		return n
	}
	return index
}
