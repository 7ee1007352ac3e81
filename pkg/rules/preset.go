package rules

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var embeddedPresets []byte

// Placeholder tokens recognised in preset expressions.
const (
	TokenA      = "{A}"
	TokenB      = "{B}"
	TokenC      = "{C}"
	TokenConst  = "{CONST}"
	TokenConst2 = "{CONST2}"
)

var fieldTokens = map[string]bool{TokenA: true, TokenB: true, TokenC: true}

var placeholderPattern = regexp.MustCompile(`\{(A|B|C|CONST|CONST2)\}`)

// Preset is a named expression with placeholder tokens.
type Preset struct {
	Name         string `json:"name" yaml:"name"`
	Label        string `json:"label" yaml:"label"`
	Expression   string `json:"expression" yaml:"expression"`
	ErrorMessage string `json:"errorMessage,omitempty" yaml:"errorMessage,omitempty"`
}

// Tokens returns the placeholders p uses, in order of first appearance.
func (p Preset) Tokens() []string {
	var out []string
	seen := make(map[string]struct{})
	for _, tok := range placeholderPattern.FindAllString(p.Expression, -1) {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// FieldTokens returns the placeholders of p that bind to field ids.
func (p Preset) FieldTokens() []string {
	var out []string
	for _, tok := range p.Tokens() {
		if fieldTokens[tok] {
			out = append(out, tok)
		}
	}
	return out
}

type presetFile struct {
	Presets []Preset `yaml:"presets"`
}

var (
	defaultPresetsOnce sync.Once
	defaultPresets     []Preset
)

// DefaultPresets returns the embedded preset catalog.
func DefaultPresets() []Preset {
	defaultPresetsOnce.Do(func() {
		presets, err := LoadPresets(embeddedPresets)
		if err != nil {
			panic(err)
		}
		defaultPresets = presets
	})
	return append([]Preset(nil), defaultPresets...)
}

// LoadPresets parses a YAML preset catalog. Names must be unique and every
// preset needs an expression.
func LoadPresets(data []byte) ([]Preset, error) {
	var file presetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("rules: parse presets: %w", err)
	}
	seen := make(map[string]struct{}, len(file.Presets))
	for i, p := range file.Presets {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, fmt.Errorf("rules: preset %d: missing name", i)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("rules: preset %q defined twice", name)
		}
		seen[name] = struct{}{}
		if strings.TrimSpace(p.Expression) == "" {
			return nil, fmt.Errorf("rules: preset %q: missing expression", name)
		}
		file.Presets[i].Name = name
	}
	return file.Presets, nil
}

// Presets returns the compiler's preset catalog.
func (c *Compiler) Presets() []Preset {
	return append([]Preset(nil), c.presets...)
}

// Preset returns the named preset.
func (c *Compiler) Preset(name string) (Preset, bool) {
	for _, p := range c.presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// ApplyPreset substitutes bindings (keyed by token, e.g. "{A}") into the
// named preset. Field tokens must resolve in the catalog; constant tokens
// are rendered as literals. DependsOn is the fields bound to field tokens.
// An empty message falls back to the preset's own message.
func (c *Compiler) ApplyPreset(name string, bindings map[string]string, message string) (Rule, error) {
	p, ok := c.Preset(name)
	if !ok {
		return Rule{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}

	deps := newDependencySet()
	values := make(map[string]string, len(bindings))
	labels := make(map[string]string, len(bindings))
	for _, tok := range p.Tokens() {
		raw := strings.TrimSpace(bindings[tok])
		if raw == "" {
			return Rule{}, fmt.Errorf("%w: %s not bound", ErrNotReady, tok)
		}
		if fieldTokens[tok] {
			if err := c.resolve(raw); err != nil {
				return Rule{}, err
			}
			deps.add(raw)
			values[tok] = raw
			labels[tok] = c.label(raw)
			continue
		}
		values[tok] = literal(raw)
		labels[tok] = raw
	}

	expression := substitute(p.Expression, values)
	if message == "" {
		message = substitute(p.ErrorMessage, labels)
	}
	return c.newRule(expression, deps.ids, message), nil
}

func (c *Compiler) label(id string) string {
	if e, ok := c.catalog.Lookup(id); ok && e.Label != "" {
		return e.Label
	}
	return id
}

func substitute(s string, values map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(s, func(tok string) string {
		if v, ok := values[tok]; ok {
			return v
		}
		return tok
	})
}
