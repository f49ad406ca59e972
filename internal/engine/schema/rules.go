package schema

import "fmt"

// ItemSpec declares an item in a RuleSet.
type ItemSpec struct {
	Name string `toml:"name" yaml:"name"`
	Base string `toml:"base" yaml:"base"`
}

// RuleSet is a declarative schema description, usually decoded from the
// configuration file.
type RuleSet struct {
	Items    []ItemSpec `toml:"items" yaml:"items"`
	Allow    []Rule     `toml:"allow" yaml:"allow"`
	Disallow []Rule     `toml:"disallow" yaml:"disallow"`
}

// IsEmpty reports whether the set declares nothing.
func (rs RuleSet) IsEmpty() bool {
	return len(rs.Items) == 0 && len(rs.Allow) == 0 && len(rs.Disallow) == 0
}

// LoadRules registers the items and rules of rs. Items may refer to bases
// declared later in the list. Entries that cannot be applied are skipped and
// reported in a *RuleErrors; everything else is still loaded, so anything
// depending on a rejected entry is denied.
func (s *Schema) LoadRules(rs RuleSet) error {
	errs := &RuleErrors{}

	pending := make([]int, 0, len(rs.Items))
	for i := range rs.Items {
		pending = append(pending, i)
	}
	for len(pending) > 0 {
		var next []int
		for _, i := range pending {
			spec := rs.Items[i]
			if spec.Base != "" && !s.HasItem(spec.Base) {
				next = append(next, i)
				continue
			}
			if err := s.RegisterItem(spec.Name, spec.Base); err != nil {
				errs.Add("items", i, spec.Name, err)
			}
		}
		if len(next) == len(pending) {
			for _, i := range next {
				spec := rs.Items[i]
				errs.Add("items", i, spec.Name, fmt.Errorf("%w: %q", ErrUnknownBase, spec.Base))
			}
			break
		}
		pending = next
	}

	for i, r := range rs.Allow {
		if err := s.Allow(r); err != nil {
			errs.Add("allow", i, r.Name, err)
		}
	}
	for i, r := range rs.Disallow {
		if err := s.Disallow(r); err != nil {
			errs.Add("disallow", i, r.Name, err)
		}
	}
	return errs.ErrOrNil()
}

// FromRules returns a new schema with the built-in items plus rs.
func FromRules(rs RuleSet) (*Schema, error) {
	s := New()
	err := s.LoadRules(rs)
	return s, err
}
