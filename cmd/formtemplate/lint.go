package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formtemplate/pkg/rules"
	"github.com/goliatone/go-formtemplate/pkg/template"
	"github.com/goliatone/go-formtemplate/pkg/visibility"
)

// errLintFailed is returned when at least one violation was reported.
var errLintFailed = errors.New("lint failed")

type violation struct {
	file     string
	location string
	message  string
}

func (a *app) lintCmd() *cobra.Command {
	var rulesPath string
	cmd := &cobra.Command{
		Use:   "lint <file>...",
		Short: "Check templates for duplicate ids, broken references and invalid rules",
		Long: "Lint reports fields sharing an id, conditions that point at unknown\n" +
			"fields, buttons or their owner, visibility cycles and, with --rules,\n" +
			"validation rules that depend on fields the template does not have.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ruleSet *rules.RuleSet
			if rulesPath != "" {
				data, err := a.readFile(rulesPath)
				if err != nil {
					return err
				}
				ruleSet = &rules.RuleSet{}
				if err := json.Unmarshal(data, ruleSet); err != nil {
					return fmt.Errorf("%s: %w", rulesPath, err)
				}
			}

			var violations []violation
			for _, path := range args {
				tpl, err := a.readTemplate(path)
				if err != nil {
					return fmt.Errorf("lint %s: %w", path, err)
				}
				violations = append(violations, lintTemplate(path, &tpl, ruleSet)...)
			}
			if len(violations) == 0 {
				a.logger.Debug("lint clean", "files", len(args))
				return nil
			}

			sort.Slice(violations, func(i, j int) bool {
				if violations[i].file == violations[j].file {
					if violations[i].location == violations[j].location {
						return violations[i].message < violations[j].message
					}
					return violations[i].location < violations[j].location
				}
				return violations[i].file < violations[j].file
			})
			for _, v := range violations {
				if _, err := fmt.Fprintf(a.out, "%s: %s -> %s\n", v.file, v.location, v.message); err != nil {
					return err
				}
			}
			return fmt.Errorf("%w: %d violation(s)", errLintFailed, len(violations))
		},
	}
	cmd.Flags().StringVar(&rulesPath, "rules", "", "JSON validation set to check against each template")
	return cmd
}

func lintTemplate(file string, tpl *template.Template, ruleSet *rules.RuleSet) []violation {
	var result []violation
	for _, id := range tpl.DuplicateIDs() {
		result = append(result, violation{
			file:     file,
			location: formatLocation([]string{"field", id}),
			message:  "id is used by more than one field",
		})
	}

	seen := make(map[string]struct{})
	tpl.Walk(func(path string, sec *template.Section) bool {
		if _, dup := seen[path]; dup {
			result = append(result, violation{
				file:     file,
				location: formatLocation([]string{"section", path}),
				message:  "section name is used more than once",
			})
		}
		seen[path] = struct{}{}
		return true
	})

	for _, p := range visibility.ValidateReferences(tpl) {
		result = append(result, violation{
			file:     file,
			location: formatLocation([]string{"conditions", p.Owner, fmt.Sprint(p.Ordinal)}),
			message:  fmt.Sprintf("reference %q: %s", p.Reference, p.Reason),
		})
	}

	for _, cycle := range visibility.ReferenceCycles(tpl) {
		result = append(result, violation{
			file:     file,
			location: formatLocation([]string{"conditions", cycle[0]}),
			message:  "visibility cycle " + strings.Join(append(cycle, cycle[0]), " -> "),
		})
	}

	if ruleSet != nil {
		for _, p := range ruleSet.Validate(rules.NewCatalog(tpl)) {
			result = append(result, violation{
				file:     file,
				location: formatLocation([]string{"rule", p.RuleID}),
				message:  fmt.Sprintf("depends on unknown field %q", p.Field),
			})
		}
	}
	return result
}

func formatLocation(path []string) string {
	return strings.Join(path, " > ")
}
