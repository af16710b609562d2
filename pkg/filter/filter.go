// Package filter drops listings from a snapshot before they reach the store.
package filter

import (
	"strings"

	"github.com/agentstation/uppbod/pkg/errors"
	"github.com/agentstation/uppbod/pkg/listings"
)

// Rule excludes a listing whose Field exactly equals one of Values.
type Rule struct {
	Field  string   `json:"field" yaml:"field" mapstructure:"field"`
	Values []string `json:"values" yaml:"values" mapstructure:"values"`
}

// Matches reports whether the rule excludes l. A listing without the field
// never matches.
func (r Rule) Matches(l listings.Listing) bool {
	v, ok := l.Get(r.Field)
	if !ok {
		return false
	}
	for _, want := range r.Values {
		if v == want {
			return true
		}
	}
	return false
}

// String renders the rule as field=v1|v2.
func (r Rule) String() string {
	return r.Field + "=" + strings.Join(r.Values, "|")
}

// ParseRule parses "field=value1|value2".
func ParseRule(s string) (Rule, error) {
	field, values, ok := strings.Cut(s, "=")
	field = strings.TrimSpace(field)
	if !ok || field == "" || values == "" {
		return Rule{}, errors.NewValidationError("exclude", s, "expected field=value[|value...]")
	}
	return Rule{Field: field, Values: strings.Split(values, "|")}, nil
}

// Excluded is a listing removed by a rule.
type Excluded struct {
	Listing listings.Listing
	Rule    Rule
}

// Filter applies exclusion rules to a snapshot.
type Filter struct {
	rules []Rule
}

// New creates a Filter. Rules with no field are rejected.
func New(rules ...Rule) (*Filter, error) {
	for _, r := range rules {
		if r.Field == "" {
			return nil, errors.NewValidationError("exclude", r, "rule field cannot be empty")
		}
	}
	return &Filter{rules: rules}, nil
}

// Rules returns the configured rules.
func (f *Filter) Rules() []Rule {
	return f.rules
}

// Apply splits snapshot into kept and excluded listings, preserving order.
// The input is not modified.
func (f *Filter) Apply(snapshot []listings.Listing) (kept []listings.Listing, excluded []Excluded) {
	kept = make([]listings.Listing, 0, len(snapshot))
	for _, l := range snapshot {
		if rule, ok := f.match(l); ok {
			excluded = append(excluded, Excluded{Listing: l, Rule: rule})
			continue
		}
		kept = append(kept, l)
	}
	return kept, excluded
}

func (f *Filter) match(l listings.Listing) (Rule, bool) {
	for _, r := range f.rules {
		if r.Matches(l) {
			return r, true
		}
	}
	return Rule{}, false
}
