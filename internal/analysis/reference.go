package analysis

import (
	"fmt"
	"strings"

	"tamperstat/domain/core"
	"tamperstat/domain/results"
)

// Reference is the single result computed from a real genome
type Reference struct {
	Name      string
	Simulated string
	Record    results.Record
}

// Split partitions a table into real-genome references and simulated populations.
type Split struct {
	References []Reference
	simulated  map[string]*results.Population
	order      []string
}

// SplitReferences separates populations whose name starts with prefix. Each
// must contain exactly one record.
func SplitReferences(t *results.Table, prefix string) (*Split, error) {
	if prefix == "" {
		return nil, fmt.Errorf("reference prefix must not be empty")
	}
	s := &Split{simulated: make(map[string]*results.Population)}
	for _, pop := range t.Populations() {
		if !strings.HasPrefix(pop.Name, prefix) {
			s.simulated[pop.Name] = pop
			s.order = append(s.order, pop.Name)
			continue
		}
		if pop.Len() != 1 {
			return nil, fmt.Errorf("%w: %s has %d records", core.ErrReferenceArity, pop.Name, pop.Len())
		}
		s.References = append(s.References, Reference{
			Name:      pop.Name,
			Simulated: strings.TrimPrefix(pop.Name, prefix),
			Record:    pop.Records[0],
		})
	}
	return s, nil
}

// Simulated lists the simulated populations in table order
func (s *Split) Simulated() []*results.Population {
	out := make([]*results.Population, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.simulated[name])
	}
	return out
}

// Counterpart returns the simulated population a reference is compared with.
func (s *Split) Counterpart(ref Reference) (*results.Population, error) {
	pop, ok := s.simulated[ref.Simulated]
	if !ok {
		return nil, fmt.Errorf("%w: %s (looked for %s)", core.ErrMissingCounterpart, ref.Name, ref.Simulated)
	}
	return pop, nil
}
