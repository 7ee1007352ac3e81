package rules

import (
	"fmt"
)

// Rule is a compiled validation rule ready for persistence.
type Rule struct {
	ID           string   `json:"id"`
	Expression   string   `json:"expression"`
	DependsOn    []string `json:"dependsOn"`
	ErrorMessage string   `json:"errorMessage"`
	Enabled      bool     `json:"enabled"`
	IsError      bool     `json:"isError"`
}

// RuleSet is the ordered list of rules persisted as one validation set.
type RuleSet struct {
	Rules []Rule `json:"rules"`
}

// Problem describes a dependsOn entry that does not resolve.
type Problem struct {
	RuleID string `json:"ruleId"`
	Field  string `json:"field"`
}

func (p Problem) Error() string {
	return fmt.Sprintf("rule %s depends on unknown field %q", p.RuleID, p.Field)
}

func (s *RuleSet) index(id string) int {
	for i := range s.Rules {
		if s.Rules[i].ID == id {
			return i
		}
	}
	return -1
}

// Get returns the rule with the given id.
func (s *RuleSet) Get(id string) (Rule, bool) {
	if i := s.index(id); i >= 0 {
		return s.Rules[i], true
	}
	return Rule{}, false
}

// Add appends r. Ids must be unique within the set.
func (s *RuleSet) Add(r Rule) error {
	if s.index(r.ID) >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicateRule, r.ID)
	}
	s.Rules = append(s.Rules, r)
	return nil
}

// Replace overwrites the expression, dependencies and message of the rule
// with the given id. Id, enabled and isError are kept.
func (s *RuleSet) Replace(id string, r Rule) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownRule, id)
	}
	s.Rules[i].Expression = r.Expression
	s.Rules[i].DependsOn = append([]string(nil), r.DependsOn...)
	s.Rules[i].ErrorMessage = r.ErrorMessage
	return nil
}

// Remove deletes the rule with the given id.
func (s *RuleSet) Remove(id string) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownRule, id)
	}
	s.Rules = append(s.Rules[:i], s.Rules[i+1:]...)
	return nil
}

// Toggle flips the enabled flag and returns the new value.
func (s *RuleSet) Toggle(id string) (bool, error) {
	i := s.index(id)
	if i < 0 {
		return false, fmt.Errorf("%w: %q", ErrUnknownRule, id)
	}
	s.Rules[i].Enabled = !s.Rules[i].Enabled
	return s.Rules[i].Enabled, nil
}

// Enabled returns the rules that are switched on, in order.
func (s *RuleSet) Enabled() []Rule {
	var out []Rule
	for _, r := range s.Rules {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out
}

// Validate reports every dependsOn entry that the catalog cannot resolve.
func (s *RuleSet) Validate(catalog *Catalog) []Problem {
	var out []Problem
	for _, r := range s.Rules {
		for _, id := range r.DependsOn {
			if !catalog.Has(id) {
				out = append(out, Problem{RuleID: r.ID, Field: id})
			}
		}
	}
	return out
}
