// Package diff reconciles an edited template against a baseline and reports
// what the edit dropped, so the editor can offer it back for restore.
package diff

import (
	"github.com/goliatone/go-formtemplate/pkg/template"
)

// Result lists what the baseline has and the edited template lacks.
// A section reported in MissingSections never appears in
// MissingFieldsBySection.
type Result struct {
	MissingSections        []string                    `json:"missingSections"`
	MissingFieldsBySection map[string][]template.Field `json:"missingFieldsBySection"`
}

// Empty reports whether nothing is missing.
func (r Result) Empty() bool {
	return len(r.MissingSections) == 0 && len(r.MissingFieldsBySection) == 0
}

// Diff compares the top-level sections of baseline and edited and the direct
// fields of every section both share. Subsections are not compared. A nil
// baseline means there is nothing to reconcile against and yields an empty
// result. Neither template is modified.
func Diff(baseline, edited *template.Template) Result {
	res := Result{
		MissingSections:        []string{},
		MissingFieldsBySection: map[string][]template.Field{},
	}
	if baseline == nil {
		return res
	}

	for i := range baseline.Sections {
		base := &baseline.Sections[i]
		current, ok := edited.Section(base.SectionName)
		if !ok {
			res.MissingSections = append(res.MissingSections, base.SectionName)
			continue
		}

		present := make(map[string]struct{}, len(current.Fields))
		for _, f := range current.Fields {
			present[f.ID] = struct{}{}
		}
		for _, f := range base.Fields {
			if _, ok := present[f.ID]; ok {
				continue
			}
			missing := f.Clone()
			missing.OwningPath = base.SectionName
			res.MissingFieldsBySection[base.SectionName] = append(res.MissingFieldsBySection[base.SectionName], missing)
		}
	}
	return res
}
