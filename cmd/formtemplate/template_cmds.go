package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formtemplate/pkg/diff"
	"github.com/goliatone/go-formtemplate/pkg/document"
	"github.com/goliatone/go-formtemplate/pkg/lookup"
	"github.com/goliatone/go-formtemplate/pkg/template"
	"github.com/goliatone/go-formtemplate/pkg/visibility"
)

func (a *app) normalizeCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "normalize <file>",
		Short: "Normalize a template document and print it in canonical form",
		Long: "Reads a JSON, JSON-with-comments or YAML template, normalizes it and\n" +
			"prints the saved form with dense order values. Use - to read stdin.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tpl, err := a.readTemplate(args[0])
			if err != nil {
				return err
			}
			payload, err := document.Marshal(&tpl)
			if err != nil {
				return err
			}
			if output == "" {
				_, err = fmt.Fprintln(a.out, string(payload))
				return err
			}
			if err := os.WriteFile(output, append(payload, '\n'), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			a.logger.Info("template written", "path", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func (a *app) targetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "targets <file>",
		Short: "List placement targets (sections and section.subsection pairs)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tpl, err := a.readTemplate(args[0])
			if err != nil {
				return err
			}
			for _, target := range document.Targets(&tpl) {
				if _, err := fmt.Fprintln(a.out, target); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func (a *app) diffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <baseline> <edited>",
		Short: "Report sections and fields the edited template dropped",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			baseline, err := a.readTemplate(args[0])
			if err != nil {
				return err
			}
			edited, err := a.readTemplate(args[1])
			if err != nil {
				return err
			}
			res := diff.Diff(&baseline, &edited)
			a.logger.Debug("diff computed",
				"missingSections", len(res.MissingSections),
				"sectionsWithMissingFields", len(res.MissingFieldsBySection),
			)
			missing := make(map[string]any, len(res.MissingFieldsBySection))
			for section, fields := range res.MissingFieldsBySection {
				missing[section] = document.EncodeFields(fields)
			}
			return a.writeJSON(map[string]any{
				"missingSections":        res.MissingSections,
				"missingFieldsBySection": missing,
			})
		},
	}
}

func (a *app) visibleCmd() *cobra.Command {
	var (
		valuesPath string
		filter     bool
	)
	cmd := &cobra.Command{
		Use:   "visible <file>",
		Short: "Evaluate visibility and requiredness of every field for a set of values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tpl, err := a.readTemplate(args[0])
			if err != nil {
				return err
			}
			values := map[string]any{}
			if valuesPath != "" {
				data, err := a.readFile(valuesPath)
				if err != nil {
					return err
				}
				raw, err := document.Decode(data)
				if err != nil {
					return fmt.Errorf("%s: %w", valuesPath, err)
				}
				m, ok := raw.(map[string]any)
				if !ok {
					return fmt.Errorf("%s: values must be an object", valuesPath)
				}
				values = m
			}
			if filter {
				return a.writeJSON(visibility.FilterSubmission(&tpl, nil, values))
			}
			return a.writeJSON(struct {
				Fields  []visibility.FieldState `json:"fields"`
				Missing []string                `json:"missingRequired"`
			}{
				Fields:  visibility.States(&tpl, nil, visibility.Context{Values: values}),
				Missing: visibility.MissingRequired(&tpl, nil, values),
			})
		},
	}
	cmd.Flags().StringVar(&valuesPath, "values", "", "JSON or YAML object of field values")
	cmd.Flags().BoolVar(&filter, "filter", false, "print the values with hidden fields removed")
	return cmd
}

func (a *app) populateCmd() *cobra.Command {
	var (
		datasourcesPath string
		zones           lookup.TimezoneSource
	)
	cmd := &cobra.Command{
		Use:   "populate <file>",
		Short: "Resolve the options of select fields that name a datasource",
		Long: "Populate fills select options from a YAML or JSON map of datasource name\n" +
			"to [{id, label}] entries. The \"timezones\" datasource is always available\n" +
			"and can be narrowed with --timezone-query.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tpl, err := a.readTemplate(args[0])
			if err != nil {
				return err
			}
			static := lookup.StaticSource{}
			if datasourcesPath != "" {
				data, err := a.readFile(datasourcesPath)
				if err != nil {
					return err
				}
				var entries map[string][]template.Option
				if err := yaml.Unmarshal(data, &entries); err != nil {
					return fmt.Errorf("%s: %w", datasourcesPath, err)
				}
				for name, opts := range entries {
					static[name] = opts
				}
			}
			resolver := lookup.NewResolver(lookup.Chain(static, zones), lookup.WithLogger(a.logger))
			if err := resolver.Populate(cmd.Context(), &tpl); err != nil {
				return err
			}
			payload, err := document.Marshal(&tpl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, string(payload))
			return err
		},
	}
	cmd.Flags().StringVar(&datasourcesPath, "datasources", "", "YAML or JSON file of datasource options")
	cmd.Flags().StringVar(&zones.Query, "timezone-query", "", "only offer time zones matching this text")
	cmd.Flags().IntVar(&zones.Limit, "timezone-limit", 0, "maximum number of matching time zones (0 for all)")
	return cmd
}
