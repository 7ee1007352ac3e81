package visibility

import (
	"fmt"

	"github.com/goliatone/go-formtemplate/pkg/template"
)

// ReferenceCandidates lists the fields a condition owned by ownerID may point
// at: every field except the owner itself and button fields. Pass an empty
// ownerID for section-level conditions.
func ReferenceCandidates(t *template.Template, ownerID string) []template.FieldRef {
	var out []template.FieldRef
	for _, ref := range t.Catalog() {
		if ref.Type == template.FieldTypeButton {
			continue
		}
		if ownerID != "" && ref.ID == ownerID {
			continue
		}
		out = append(out, ref)
	}
	return out
}

// ReferenceProblem describes a condition whose reference cannot be used.
type ReferenceProblem struct {
	Owner     string
	Ordinal   int
	Reference string
	Reason    string
}

func (p ReferenceProblem) Error() string {
	return fmt.Sprintf("visibility: %s condition %d references %q: %s", p.Owner, p.Ordinal, p.Reference, p.Reason)
}

// ValidateReferences reports conditions that reference the owner itself, a
// button, or a field that does not exist.
func ValidateReferences(t *template.Template) []ReferenceProblem {
	types := make(map[string]template.FieldType)
	for _, ref := range t.Catalog() {
		types[ref.ID] = ref.Type
	}

	var out []ReferenceProblem
	check := func(owner, ownerID string, conds []template.Condition) {
		for _, c := range conds {
			if c.ShowWhen == template.ShowAlways || c.ReferenceFieldID == "" {
				continue
			}
			typ, ok := types[c.ReferenceFieldID]
			switch {
			case !ok:
				out = append(out, ReferenceProblem{Owner: owner, Ordinal: c.Ordinal, Reference: c.ReferenceFieldID, Reason: "unknown field"})
			case c.ReferenceFieldID == ownerID:
				out = append(out, ReferenceProblem{Owner: owner, Ordinal: c.Ordinal, Reference: c.ReferenceFieldID, Reason: "self reference"})
			case typ == template.FieldTypeButton:
				out = append(out, ReferenceProblem{Owner: owner, Ordinal: c.Ordinal, Reference: c.ReferenceFieldID, Reason: "button field"})
			}
		}
	}

	t.Walk(func(path string, sec *template.Section) bool {
		check(path, "", sec.Conditions)
		for _, f := range sec.Fields {
			check(f.ID, f.ID, f.Conditions)
		}
		return true
	})
	return out
}

// ReferenceCycles returns every cycle in the field-to-field condition graph,
// each as the list of ids along the cycle starting from its first member in
// render order. Self references are reported as one-element cycles.
func ReferenceCycles(t *template.Template) [][]string {
	edges := make(map[string][]string)
	var order []string
	t.Walk(func(_ string, sec *template.Section) bool {
		for _, f := range sec.Fields {
			order = append(order, f.ID)
			for _, c := range f.Conditions {
				if c.ShowWhen != template.ShowAlways && c.ReferenceFieldID != "" {
					edges[f.ID] = append(edges[f.ID], c.ReferenceFieldID)
				}
			}
		}
		return true
	})

	const (
		unvisited = iota
		active
		done
	)
	state := make(map[string]int)
	var stack []string
	var cycles [][]string

	var visit func(id string)
	visit = func(id string) {
		state[id] = active
		stack = append(stack, id)
		for _, next := range edges[id] {
			switch state[next] {
			case unvisited:
				visit(next)
			case active:
				for i := len(stack) - 1; i >= 0; i-- {
					if stack[i] == next {
						cycles = append(cycles, append([]string(nil), stack[i:]...))
						break
					}
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
	}

	for _, id := range order {
		if state[id] == unvisited {
			visit(id)
		}
	}
	return cycles
}
