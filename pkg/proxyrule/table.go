package proxyrule

import (
	"errors"
	"fmt"
)

// Table is an ordered, immutable set of rules. Rules are evaluated in the
// order they were declared and the first match wins.
type Table struct {
	rules []*Rule
}

// ErrDuplicatePrefix is returned when two rules share a MatchPrefix.
var ErrDuplicatePrefix = errors.New("duplicate match prefix")

// NewTable validates rules and builds a Table from them.
func NewTable(rules ...*Rule) (*Table, error) {
	seen := make(map[string]struct{}, len(rules))
	t := &Table{rules: make([]*Rule, 0, len(rules))}

	for i, r := range rules {
		if r == nil {
			return nil, fmt.Errorf("rule %d is nil", i)
		}
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		if _, dup := seen[r.MatchPrefix]; dup {
			return nil, fmt.Errorf("rule %d: %w: %q", i, ErrDuplicatePrefix, r.MatchPrefix)
		}
		seen[r.MatchPrefix] = struct{}{}
		t.rules = append(t.rules, r)
	}

	return t, nil
}

// Match returns the first rule whose prefix matches path.
func (t *Table) Match(path string) (*Rule, bool) {
	if t == nil {
		return nil, false
	}
	for _, r := range t.rules {
		if r.Matches(path) {
			return r, true
		}
	}
	return nil, false
}

// Rules returns the rules in declaration order. The slice is a copy.
func (t *Table) Rules() []*Rule {
	if t == nil {
		return nil
	}
	out := make([]*Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

// Len is the number of rules.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rules)
}
