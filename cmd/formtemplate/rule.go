package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formtemplate/internal/prompt"
	"github.com/goliatone/go-formtemplate/pkg/rules"
	"github.com/goliatone/go-formtemplate/pkg/store"
)

func (a *app) ruleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rule",
		Short: "Compile validation rules against a template's fields",
	}
	cmd.AddCommand(a.ruleCompileCmd(), a.rulePresetCmd(), a.ruleBuildCmd())
	return cmd
}

// ruleTarget carries the flags shared by every rule subcommand.
type ruleTarget struct {
	save string
}

func (r *ruleTarget) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&r.save, "save", "", "append the rule to the stored validation set <module>/<name>")
}

// emit prints rule as JSON and, when --save is set, appends it to the
// stored validation set.
func (a *app) emitRule(cmd *cobra.Command, target ruleTarget, rule rules.Rule) error {
	if target.save != "" {
		module, name, ok := strings.Cut(target.save, "/")
		if !ok || module == "" || name == "" {
			return fmt.Errorf("--save must look like <module>/<name>, got %q", target.save)
		}
		st, err := store.Open(cmd.Context(), a.dbPath, store.WithLogger(a.logger))
		if err != nil {
			return err
		}
		defer st.Close()

		list, err := st.LoadValidationSet(cmd.Context(), module, name)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		set := rules.RuleSet{Rules: list}
		if err := set.Add(rule); err != nil {
			return err
		}
		if err := st.SaveValidationSet(cmd.Context(), module, name, set.Rules); err != nil {
			return err
		}
		a.logger.Info("rule saved", "rule", rule.ID, "set", target.save, "rules", len(set.Rules))
	}
	return a.writeJSON(rule)
}

func (a *app) compilerFor(path, presetsPath string) (*rules.Compiler, error) {
	tpl, err := a.readTemplate(path)
	if err != nil {
		return nil, err
	}
	var options []rules.Option
	if presetsPath != "" {
		data, err := a.readFile(presetsPath)
		if err != nil {
			return nil, err
		}
		presets, err := rules.LoadPresets(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", presetsPath, err)
		}
		options = append(options, rules.WithPresets(presets))
	}
	return rules.NewCompiler(rules.NewCatalog(&tpl), options...), nil
}

func (a *app) ruleCompileCmd() *cobra.Command {
	var (
		target      ruleTarget
		first       clauseFlags
		second      clauseFlags
		join        string
		then, other string
		message     string
	)
	cmd := &cobra.Command{
		Use:   "compile <file>",
		Short: "Compile a structured comparison into a rule expression",
		Example: "  formtemplate rule compile review.json --left age --op '>=' --right 18 \\\n" +
			"    --join AND --left2 status --op2 '!= null' --then level=@age --message 'Too young'",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			compiler, err := a.compilerFor(args[0], "")
			if err != nil {
				return err
			}
			draft := rules.Draft{
				First:        first.clause(),
				Join:         rules.Join(strings.ToUpper(join)),
				ErrorMessage: message,
			}
			if second.left != "" {
				cl := second.clause()
				draft.Second = &cl
			}
			if draft.Then, err = parseAssignment(then); err != nil {
				return err
			}
			if draft.Else, err = parseAssignment(other); err != nil {
				return err
			}
			rule, err := compiler.Compile(draft)
			if err != nil {
				return err
			}
			return a.emitRule(cmd, target, rule)
		},
	}
	first.bind(cmd, "")
	second.bind(cmd, "2")
	cmd.Flags().StringVar(&join, "join", "", "AND or OR between the two clauses")
	cmd.Flags().StringVar(&then, "then", "", "assignment when the condition holds, as field=value (field=@other for a field)")
	cmd.Flags().StringVar(&other, "else", "", "assignment when the condition fails, as field=value")
	cmd.Flags().StringVar(&message, "message", "", "error message shown when the rule fails")
	target.bind(cmd)
	return cmd
}

// clauseFlags binds one comparison's flags. The right operand is a constant
// unless it starts with @, in which case it names a field.
type clauseFlags struct {
	left  string
	op    string
	right string
}

func (c *clauseFlags) bind(cmd *cobra.Command, suffix string) {
	cmd.Flags().StringVar(&c.left, "left"+suffix, "", "left field id")
	cmd.Flags().StringVar(&c.op, "op"+suffix, "", "operator: "+operatorList())
	cmd.Flags().StringVar(&c.right, "right"+suffix, "", "right operand (@id for a field)")
}

func (c clauseFlags) clause() rules.Clause {
	return rules.Clause{Left: c.left, Operator: rules.Operator(c.op), Right: parseOperand(c.right)}
}

func parseOperand(raw string) rules.Operand {
	if raw == "" {
		return rules.Operand{}
	}
	if id, ok := strings.CutPrefix(raw, "@"); ok {
		return rules.Field(id)
	}
	return rules.Constant(raw)
}

func parseAssignment(raw string) (*rules.Assignment, error) {
	if raw == "" {
		return nil, nil
	}
	field, value, ok := strings.Cut(raw, "=")
	if !ok || field == "" {
		return nil, fmt.Errorf("assignment must look like field=value, got %q", raw)
	}
	return &rules.Assignment{Field: field, Value: parseOperand(value)}, nil
}

func operatorList() string {
	ops := rules.Operators()
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = string(op)
	}
	return strings.Join(names, ", ")
}

func (a *app) rulePresetCmd() *cobra.Command {
	var (
		target      ruleTarget
		bindings    map[string]string
		message     string
		presetsPath string
		list        bool
	)
	cmd := &cobra.Command{
		Use:   "preset <file> [name]",
		Short: "Instantiate a rule preset with field bindings",
		Example: "  formtemplate rule preset review.json date-after --bind A=dischargeDate --bind B=admitDate\n" +
			"  formtemplate rule preset review.json --list",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			compiler, err := a.compilerFor(args[0], presetsPath)
			if err != nil {
				return err
			}
			if list || len(args) == 1 {
				for _, p := range compiler.Presets() {
					if _, err := fmt.Fprintf(a.out, "%-16s %s  [%s]\n", p.Name, p.Label, strings.Join(p.Tokens(), " ")); err != nil {
						return err
					}
				}
				return nil
			}
			rule, err := compiler.ApplyPreset(args[1], presetBindings(bindings), message)
			if err != nil {
				return err
			}
			return a.emitRule(cmd, target, rule)
		},
	}
	cmd.Flags().StringToStringVar(&bindings, "bind", nil, "token binding such as A=admitDate or CONST=30")
	cmd.Flags().StringVar(&message, "message", "", "override the preset's error message")
	cmd.Flags().StringVar(&presetsPath, "presets", "", "YAML file replacing the built-in presets")
	cmd.Flags().BoolVar(&list, "list", false, "list the available presets")
	target.bind(cmd)
	return cmd
}

// presetBindings accepts both A=x and {A}=x keys.
func presetBindings(raw map[string]string) map[string]string {
	out := make(map[string]string, len(raw))
	for key, value := range raw {
		key = strings.ToUpper(strings.Trim(key, "{} "))
		out["{"+key+"}"] = value
	}
	return out
}

func (a *app) ruleBuildCmd() *cobra.Command {
	var target ruleTarget
	cmd := &cobra.Command{
		Use:   "build <file>",
		Short: "Build a rule interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			compiler, err := a.compilerFor(args[0], "")
			if err != nil {
				return err
			}
			wizard := prompt.RuleWizard{Driver: a.newDriver(), Compiler: compiler}
			rule, err := wizard.Run(cmd.Context())
			if err != nil {
				return err
			}
			return a.emitRule(cmd, target, rule)
		},
	}
	target.bind(cmd)
	return cmd
}
