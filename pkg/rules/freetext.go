package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-formtemplate/pkg/template"
)

// Translation is what a Translator returns for a piece of free text.
type Translation struct {
	Expression   string   `json:"expression"`
	DependsOn    []string `json:"dependsOn"`
	ErrorMessage string   `json:"errorMessage"`
}

// Translator turns a natural-language request into an expression. A nil
// Translation or an empty expression means nothing could be generated.
type Translator interface {
	Translate(ctx context.Context, tpl *template.Template, text string) (*Translation, error)
}

// TranslatorFunc adapts a function into a Translator.
type TranslatorFunc func(ctx context.Context, tpl *template.Template, text string) (*Translation, error)

// Translate delegates to the underlying function.
func (fn TranslatorFunc) Translate(ctx context.Context, tpl *template.Template, text string) (*Translation, error) {
	return fn(ctx, tpl, text)
}

// FreeText asks the configured Translator for an expression and wraps it as
// a Rule. DependsOn is the translator's list merged with every catalog field
// found in the expression. Any failure wraps ErrNoExpression so the caller
// can keep the text and let the user retry.
func (c *Compiler) FreeText(ctx context.Context, tpl *template.Template, text string) (Rule, error) {
	if strings.TrimSpace(text) == "" {
		return Rule{}, fmt.Errorf("%w: empty request", ErrNoExpression)
	}
	if c.translator == nil {
		return Rule{}, fmt.Errorf("%w: no translator configured", ErrNoExpression)
	}

	tr, err := c.translator.Translate(ctx, tpl, text)
	if err != nil {
		return Rule{}, fmt.Errorf("%w: %w", ErrNoExpression, err)
	}
	if tr == nil || strings.TrimSpace(tr.Expression) == "" {
		return Rule{}, ErrNoExpression
	}
	expression := strings.TrimSpace(tr.Expression)
	if err := Check(expression); err != nil {
		return Rule{}, fmt.Errorf("%w: %w", ErrNoExpression, err)
	}

	found, err := Dependencies(expression, c.catalog)
	if err != nil {
		return Rule{}, fmt.Errorf("%w: %w", ErrNoExpression, err)
	}
	deps := newDependencySet()
	deps.add(tr.DependsOn...)
	deps.add(found...)

	return c.newRule(expression, deps.ids, tr.ErrorMessage), nil
}
