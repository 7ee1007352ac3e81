package rules

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Operator is a comparison between the left field and the right operand.
type Operator string

const (
	OpGreater      Operator = ">"
	OpLess         Operator = "<"
	OpEqual        Operator = "=="
	OpNotEqual     Operator = "!="
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
	OpIsNull       Operator = "== null"
	OpNotNull      Operator = "!= null"
)

// Operators lists every supported comparison in display order.
func Operators() []Operator {
	return []Operator{OpGreater, OpLess, OpEqual, OpNotEqual, OpGreaterEqual, OpLessEqual, OpIsNull, OpNotNull}
}

// Valid reports whether o is a supported comparison.
func (o Operator) Valid() bool {
	for _, known := range Operators() {
		if o == known {
			return true
		}
	}
	return false
}

// NullCheck reports whether o takes no right operand.
func (o Operator) NullCheck() bool {
	return o == OpIsNull || o == OpNotNull
}

// OperandKind says whether an operand names a field or holds a literal.
type OperandKind string

const (
	OperandField    OperandKind = "field"
	OperandConstant OperandKind = "constant"
)

// Operand is the right side of a comparison or the value of an assignment.
type Operand struct {
	Kind  OperandKind `json:"kind" yaml:"kind"`
	Value string      `json:"value" yaml:"value"`
}

// Field returns an operand referencing field id.
func Field(id string) Operand { return Operand{Kind: OperandField, Value: id} }

// Constant returns a literal operand.
func Constant(v string) Operand { return Operand{Kind: OperandConstant, Value: v} }

func (o Operand) set() bool {
	switch o.Kind {
	case OperandField, OperandConstant:
		return strings.TrimSpace(o.Value) != ""
	default:
		return false
	}
}

// Clause is one comparison.
type Clause struct {
	Left     string   `json:"left" yaml:"left"`
	Operator Operator `json:"operator" yaml:"operator"`
	Right    Operand  `json:"right" yaml:"right"`
}

// Assignment is a THEN/ELSE action writing Value into Field.
type Assignment struct {
	Field string  `json:"field" yaml:"field"`
	Value Operand `json:"value" yaml:"value"`
}

// Join combines the two clauses of a Draft.
type Join string

const (
	JoinAnd Join = "AND"
	JoinOr  Join = "OR"
)

// Draft is the structured builder's working state. A Draft is never
// modified by the Compiler.
type Draft struct {
	First        Clause      `json:"first" yaml:"first"`
	Join         Join        `json:"join,omitempty" yaml:"join,omitempty"`
	Second       *Clause     `json:"second,omitempty" yaml:"second,omitempty"`
	Then         *Assignment `json:"then,omitempty" yaml:"then,omitempty"`
	Else         *Assignment `json:"else,omitempty" yaml:"else,omitempty"`
	ErrorMessage string      `json:"errorMessage,omitempty" yaml:"errorMessage,omitempty"`
}

// Option customises a Compiler.
type Option func(*Compiler)

// WithIDGenerator replaces the uuid rule id generator.
func WithIDGenerator(gen func() string) Option {
	return func(c *Compiler) {
		if gen != nil {
			c.newID = gen
		}
	}
}

// WithPresets replaces the embedded preset catalog.
func WithPresets(presets []Preset) Option {
	return func(c *Compiler) {
		c.presets = append([]Preset(nil), presets...)
	}
}

// WithTranslator sets the collaborator used by FreeText.
func WithTranslator(t Translator) Option {
	return func(c *Compiler) {
		c.translator = t
	}
}

// Compiler turns drafts, presets and free text into Rules, resolving field
// references against a catalog.
type Compiler struct {
	catalog    *Catalog
	newID      func() string
	presets    []Preset
	translator Translator
}

// NewCompiler returns a Compiler over catalog. A nil catalog skips field
// resolution.
func NewCompiler(catalog *Catalog, options ...Option) *Compiler {
	c := &Compiler{
		catalog: catalog,
		newID:   uuid.NewString,
		presets: DefaultPresets(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

// Catalog returns the catalog references are resolved against.
func (c *Compiler) Catalog() *Catalog {
	return c.catalog
}

// Ready reports whether d can be compiled, returning ErrNotReady with the
// reason when it cannot.
func Ready(d Draft) error {
	if err := clauseReady(d.First); err != nil {
		return fmt.Errorf("%w: first condition: %s", ErrNotReady, err)
	}
	if d.Second != nil || d.Join != "" {
		if d.Join != JoinAnd && d.Join != JoinOr {
			return fmt.Errorf("%w: join must be AND or OR, got %q", ErrNotReady, d.Join)
		}
		if d.Second == nil {
			return fmt.Errorf("%w: second condition missing", ErrNotReady)
		}
		if err := clauseReady(*d.Second); err != nil {
			return fmt.Errorf("%w: second condition: %s", ErrNotReady, err)
		}
	}
	if !assignmentReady(d.Then) {
		return fmt.Errorf("%w: THEN assignment incomplete", ErrNotReady)
	}
	if !assignmentReady(d.Else) {
		return fmt.Errorf("%w: ELSE assignment incomplete", ErrNotReady)
	}
	return nil
}

func assignmentReady(a *Assignment) bool {
	return a == nil || (strings.TrimSpace(a.Field) != "" && a.Value.set())
}

func clauseReady(cl Clause) error {
	if strings.TrimSpace(cl.Left) == "" {
		return errors.New("left field not set")
	}
	if !cl.Operator.Valid() {
		return fmt.Errorf("operator %q not supported", cl.Operator)
	}
	if cl.Operator.NullCheck() {
		return nil
	}
	if !cl.Right.set() {
		return errors.New("right side not set")
	}
	return nil
}

// Compile builds a Rule from d. Incomplete drafts yield ErrNotReady and
// references missing from the catalog yield ErrUnknownField.
func (c *Compiler) Compile(d Draft) (Rule, error) {
	if err := Ready(d); err != nil {
		return Rule{}, err
	}

	deps := newDependencySet()
	clauses := []Clause{d.First}
	if d.Second != nil {
		clauses = append(clauses, *d.Second)
	}
	for _, cl := range clauses {
		deps.add(cl.Left)
		if !cl.Operator.NullCheck() && cl.Right.Kind == OperandField {
			deps.add(cl.Right.Value)
		}
	}
	for _, a := range []*Assignment{d.Then, d.Else} {
		if a == nil {
			continue
		}
		if err := c.resolve(a.Field); err != nil {
			return Rule{}, err
		}
		if a.Value.Kind == OperandField {
			deps.add(a.Value.Value)
		}
	}
	for _, id := range deps.ids {
		if err := c.resolve(id); err != nil {
			return Rule{}, err
		}
	}

	return c.newRule(renderDraft(d), deps.ids, d.ErrorMessage), nil
}

func (c *Compiler) resolve(id string) error {
	if c.catalog == nil || c.catalog.Has(id) {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownField, id)
}

func (c *Compiler) newRule(expression string, dependsOn []string, message string) Rule {
	if dependsOn == nil {
		dependsOn = []string{}
	}
	return Rule{
		ID:           c.newID(),
		Expression:   expression,
		DependsOn:    dependsOn,
		ErrorMessage: sanitizeMessage(message),
		Enabled:      true,
		IsError:      true,
	}
}

func renderDraft(d Draft) string {
	cond := renderClause(d.First)
	if d.Second != nil {
		cond = cond + " " + string(d.Join) + " " + renderClause(*d.Second)
	}
	if d.Then == nil && d.Else == nil {
		return cond
	}
	var b strings.Builder
	b.WriteString("IF ")
	b.WriteString(cond)
	if d.Then != nil {
		b.WriteString(" THEN ")
		b.WriteString(renderAssignment(*d.Then))
	}
	if d.Else != nil {
		b.WriteString(" ELSE ")
		b.WriteString(renderAssignment(*d.Else))
	}
	return b.String()
}

func renderClause(cl Clause) string {
	left := strings.TrimSpace(cl.Left)
	if cl.Operator.NullCheck() {
		return left + " " + string(cl.Operator)
	}
	return left + " " + string(cl.Operator) + " " + renderOperand(cl.Right)
}

func renderAssignment(a Assignment) string {
	return strings.TrimSpace(a.Field) + " = " + renderOperand(a.Value)
}

func renderOperand(o Operand) string {
	if o.Kind == OperandField {
		return strings.TrimSpace(o.Value)
	}
	return literal(o.Value)
}

// literal renders a constant: numbers, booleans and null stay bare,
// everything else is double quoted.
func literal(v string) string {
	trimmed := strings.TrimSpace(v)
	if looksLikeNumber(trimmed) {
		return trimmed
	}
	switch strings.ToLower(trimmed) {
	case "true", "false", "null":
		return strings.ToLower(trimmed)
	}
	return strconv.Quote(v)
}

type dependencySet struct {
	ids  []string
	seen map[string]struct{}
}

func newDependencySet() *dependencySet {
	return &dependencySet{ids: []string{}, seen: make(map[string]struct{})}
}

func (s *dependencySet) add(ids ...string) {
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := s.seen[id]; ok {
			continue
		}
		s.seen[id] = struct{}{}
		s.ids = append(s.ids, id)
	}
}
