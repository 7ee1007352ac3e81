package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formtemplate/pkg/rules"
)

var operandKinds = []rules.OperandKind{rules.OperandField, rules.OperandConstant}

// RuleWizard walks the user through the structured rule builder.
type RuleWizard struct {
	Driver   Driver
	Compiler *rules.Compiler
}

// Run asks for a draft, compiles it and reports the expression.
func (w RuleWizard) Run(ctx context.Context) (rules.Rule, error) {
	draft, err := w.Draft(ctx)
	if err != nil {
		return rules.Rule{}, err
	}
	rule, err := w.Compiler.Compile(draft)
	if err != nil {
		return rules.Rule{}, err
	}
	if err := w.Driver.Info(ctx, "Rule: "+rule.Expression); err != nil {
		return rules.Rule{}, err
	}
	return rule, nil
}

// Draft collects a rules.Draft without compiling it.
func (w RuleWizard) Draft(ctx context.Context) (rules.Draft, error) {
	entries := w.Compiler.Catalog().Entries()
	if len(entries) == 0 {
		return rules.Draft{}, errors.New("prompt: template has no fields to build a rule on")
	}

	var d rules.Draft
	first, err := w.clause(ctx, entries, "")
	if err != nil {
		return rules.Draft{}, err
	}
	d.First = first

	more, err := w.Driver.Confirm(ctx, ConfirmConfig{Message: "Add a second condition?"})
	if err != nil {
		return rules.Draft{}, err
	}
	if more {
		idx, err := w.Driver.Select(ctx, SelectConfig{Message: "Join with", Options: []string{string(rules.JoinAnd), string(rules.JoinOr)}})
		if err != nil {
			return rules.Draft{}, err
		}
		d.Join = rules.JoinAnd
		if idx == 1 {
			d.Join = rules.JoinOr
		}
		second, err := w.clause(ctx, entries, "second ")
		if err != nil {
			return rules.Draft{}, err
		}
		d.Second = &second
	}

	for _, branch := range []string{"THEN", "ELSE"} {
		ok, err := w.Driver.Confirm(ctx, ConfirmConfig{Message: fmt.Sprintf("Add a %s assignment?", branch)})
		if err != nil {
			return rules.Draft{}, err
		}
		if !ok {
			continue
		}
		a, err := w.assignment(ctx, entries, branch)
		if err != nil {
			return rules.Draft{}, err
		}
		if branch == "THEN" {
			d.Then = &a
		} else {
			d.Else = &a
		}
	}

	msg, err := w.Driver.Input(ctx, InputConfig{Message: "Error message"})
	if err != nil {
		return rules.Draft{}, err
	}
	d.ErrorMessage = msg
	return d, nil
}

func (w RuleWizard) clause(ctx context.Context, entries []rules.Entry, label string) (rules.Clause, error) {
	left, err := w.pickField(ctx, entries, fmt.Sprintf("Field for the %scondition", label))
	if err != nil {
		return rules.Clause{}, err
	}

	ops := rules.Operators()
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = string(op)
	}
	idx, err := w.Driver.Select(ctx, SelectConfig{Message: "Operator", Options: names})
	if err != nil {
		return rules.Clause{}, err
	}
	if idx < 0 || idx >= len(ops) {
		return rules.Clause{}, fmt.Errorf("prompt: invalid operator choice %d", idx)
	}
	cl := rules.Clause{Left: left, Operator: ops[idx]}
	if cl.Operator.NullCheck() {
		return cl, nil
	}

	right, err := w.operand(ctx, entries, "Compare with")
	if err != nil {
		return rules.Clause{}, err
	}
	cl.Right = right
	return cl, nil
}

func (w RuleWizard) assignment(ctx context.Context, entries []rules.Entry, branch string) (rules.Assignment, error) {
	target, err := w.pickField(ctx, entries, branch+" sets field")
	if err != nil {
		return rules.Assignment{}, err
	}
	value, err := w.operand(ctx, entries, branch+" value from")
	if err != nil {
		return rules.Assignment{}, err
	}
	return rules.Assignment{Field: target, Value: value}, nil
}

func (w RuleWizard) operand(ctx context.Context, entries []rules.Entry, message string) (rules.Operand, error) {
	kinds := make([]string, len(operandKinds))
	for i, k := range operandKinds {
		kinds[i] = string(k)
	}
	idx, err := w.Driver.Select(ctx, SelectConfig{Message: message, Options: kinds})
	if err != nil {
		return rules.Operand{}, err
	}
	if idx == 0 {
		id, err := w.pickField(ctx, entries, "Field")
		if err != nil {
			return rules.Operand{}, err
		}
		return rules.Field(id), nil
	}
	value, err := w.Driver.Input(ctx, InputConfig{
		Message: "Constant",
		Validator: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("a constant is required")
			}
			return nil
		},
	})
	if err != nil {
		return rules.Operand{}, err
	}
	return rules.Constant(value), nil
}

func (w RuleWizard) pickField(ctx context.Context, entries []rules.Entry, message string) (string, error) {
	options := make([]string, len(entries))
	for i, e := range entries {
		label := e.Label
		if e.Source != "" {
			label = e.Source + ": " + label
		}
		options[i] = fmt.Sprintf("%s (%s)", label, e.ID)
	}
	idx, err := w.Driver.Select(ctx, SelectConfig{Message: message, Options: options, PageSize: 12})
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(entries) {
		return "", fmt.Errorf("prompt: invalid field choice %d", idx)
	}
	return entries[idx].ID, nil
}
