package analysis

import (
	"tamperstat/domain/core"
	"tamperstat/domain/results"
)

// Tally is a running count of comparisons against tampered simulations,
// shared across references and features.
type Tally struct {
	Compared  int
	Exceeding int
}

// Fraction is the empirical one-sided p-value Exceeding/Compared.
func (t Tally) Fraction() (float64, error) {
	if t.Compared == 0 {
		return 0, core.ErrInsufficientData
	}
	return float64(t.Exceeding) / float64(t.Compared), nil
}

// Rank compares one reference value with the tampered records of its
// simulated population.
type Rank struct {
	Reference  string
	Simulated  string
	Feature    string
	Value      float64
	Own        Tally
	Cumulative Tally
	Err        error
}

// RankReferences counts, for each reference, the tampered simulated records
// whose feature value is strictly greater than the reference value. The null
// population is the tampered simulations: a small fraction says the real
// genome scores higher than genuinely altered genomes do. Each Rank carries
// the running tally after that reference is added.
func RankReferences(s *Split, f Feature, tally *Tally) ([]Rank, error) {
	out := make([]Rank, 0, len(s.References))
	for _, ref := range s.References {
		sim, err := s.Counterpart(ref)
		if err != nil {
			return nil, err
		}
		rank := Rank{Reference: ref.Name, Simulated: sim.Name, Feature: f.Name}

		refValue, ok, err := f.Value(ref.Record)
		if err != nil {
			return nil, err
		}
		if !ok {
			rank.Err = core.NewUndefinedError(core.ErrInsufficientData, ref.Name, f.Name)
			rank.Cumulative = *tally
			out = append(out, rank)
			continue
		}
		rank.Value = refValue

		for _, r := range sim.Records {
			tampered, err := r.Bool(results.FieldTampered)
			if err != nil {
				return nil, err
			}
			if !tampered {
				continue
			}
			v, ok, err := f.Value(r)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			rank.Own.Compared++
			if v > refValue {
				rank.Own.Exceeding++
			}
		}

		tally.Compared += rank.Own.Compared
		tally.Exceeding += rank.Own.Exceeding
		rank.Cumulative = *tally
		out = append(out, rank)
	}
	return out, nil
}
