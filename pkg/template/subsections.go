package template

import "reflect"

// Subsections is an insertion-ordered map of child sections keyed by a
// stable key. The zero value is an empty, usable map.
type Subsections struct {
	keys  []string
	items map[string]*Section
}

// NewSubsections returns an empty, present subsections map.
func NewSubsections() *Subsections {
	return &Subsections{items: make(map[string]*Section)}
}

// Len reports the number of children. A nil receiver has no children.
func (s *Subsections) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Keys returns the child keys in order.
func (s *Subsections) Keys() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.keys...)
}

// Get returns the child stored under key. The returned pointer aliases the
// stored section so callers can mutate it in place.
func (s *Subsections) Get(key string) (*Section, bool) {
	if s == nil || s.items == nil {
		return nil, false
	}
	sec, ok := s.items[key]
	return sec, ok
}

// Set stores section under key, appending the key when it is new and
// replacing the value in place otherwise.
func (s *Subsections) Set(key string, section Section) {
	if s.items == nil {
		s.items = make(map[string]*Section)
	}
	if _, exists := s.items[key]; !exists {
		s.keys = append(s.keys, key)
	}
	sec := section
	s.items[key] = &sec
}

// Delete removes key and reports whether it was present.
func (s *Subsections) Delete(key string) bool {
	if s == nil || s.items == nil {
		return false
	}
	if _, ok := s.items[key]; !ok {
		return false
	}
	delete(s.items, key)
	for i, k := range s.keys {
		if k == key {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			break
		}
	}
	return true
}

// Each visits children in order until fn returns false.
func (s *Subsections) Each(fn func(key string, section *Section) bool) {
	if s == nil {
		return
	}
	for _, key := range s.keys {
		if !fn(key, s.items[key]) {
			return
		}
	}
}

// Clone deep-copies the map. Cloning nil yields nil so absence survives.
func (s *Subsections) Clone() *Subsections {
	if s == nil {
		return nil
	}
	out := NewSubsections()
	for _, key := range s.keys {
		out.Set(key, s.items[key].Clone())
	}
	return out
}

// Equal reports whether both maps hold the same keys in the same order with
// equal children. Nil and empty are different.
func (s *Subsections) Equal(other *Subsections) bool {
	if s == nil || other == nil {
		return s == nil && other == nil
	}
	if !reflect.DeepEqual(s.keys, other.keys) && (len(s.keys) != 0 || len(other.keys) != 0) {
		return false
	}
	for _, key := range s.keys {
		a, b := s.items[key], other.items[key]
		if !a.Subsections.Equal(b.Subsections) {
			return false
		}
		left, right := *a, *b
		left.Subsections, right.Subsections = nil, nil
		if !reflect.DeepEqual(left, right) {
			return false
		}
	}
	return true
}
