package rules

import "github.com/goliatone/go-formtemplate/pkg/template"

// Entry is one field a rule may reference. Source names the template the
// field comes from; it is empty for the template being edited.
type Entry struct {
	ID     string             `json:"id" yaml:"id"`
	Label  string             `json:"label" yaml:"label"`
	Type   template.FieldType `json:"type,omitempty" yaml:"type,omitempty"`
	Source string             `json:"source,omitempty" yaml:"source,omitempty"`
}

// Catalog is the flattened, read-only set of referenceable fields.
type Catalog struct {
	entries []Entry
	byID    map[string]int
}

// NewCatalog flattens tpl (button fields excluded) and appends entries from
// other templates. The first entry for an id wins.
func NewCatalog(tpl *template.Template, external ...Entry) *Catalog {
	c := &Catalog{byID: make(map[string]int)}
	if tpl != nil {
		for _, ref := range tpl.Catalog() {
			if ref.Type == template.FieldTypeButton {
				continue
			}
			label := ref.DisplayName
			if label == "" {
				label = ref.ID
			}
			c.add(Entry{ID: ref.ID, Label: label, Type: ref.Type})
		}
	}
	for _, e := range external {
		c.add(e)
	}
	return c
}

func (c *Catalog) add(e Entry) {
	if e.ID == "" {
		return
	}
	if _, ok := c.byID[e.ID]; ok {
		return
	}
	c.byID[e.ID] = len(c.entries)
	c.entries = append(c.entries, e)
}

// Entries returns the catalog in template order followed by external entries.
func (c *Catalog) Entries() []Entry {
	if c == nil {
		return nil
	}
	return append([]Entry(nil), c.entries...)
}

// Lookup returns the entry for id.
func (c *Catalog) Lookup(id string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	i, ok := c.byID[id]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Has reports whether id resolves.
func (c *Catalog) Has(id string) bool {
	_, ok := c.Lookup(id)
	return ok
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}
