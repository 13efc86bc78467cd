package analysis

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"tamperstat/domain/core"
	"tamperstat/domain/results"
)

// RateFilter narrows which acceptable results count as good. Nil limits are inactive.
type RateFilter struct {
	MaxCount              *int64
	ExactCount            *int64
	RequireNotInterleaved bool
}

// Active reports whether any filter is set
func (f RateFilter) Active() bool {
	return f.MaxCount != nil || f.ExactCount != nil || f.RequireNotInterleaved
}

func (f RateFilter) requires() []string {
	fields := []string{results.FieldAcceptable}
	if f.MaxCount != nil || f.ExactCount != nil {
		fields = append(fields, results.FieldCount)
	}
	if f.RequireNotInterleaved {
		fields = append(fields, results.FieldInterleaved)
	}
	return fields
}

// accepts is the stored acceptable flag AND every active filter
func (f RateFilter) accepts(r results.Record) (bool, error) {
	ok, err := r.Bool(results.FieldAcceptable)
	if err != nil || !ok {
		return false, err
	}
	if f.MaxCount != nil || f.ExactCount != nil {
		count, err := r.Int(results.FieldCount)
		if err != nil {
			return false, err
		}
		if f.MaxCount != nil && count > *f.MaxCount {
			return false, nil
		}
		if f.ExactCount != nil && count != *f.ExactCount {
			return false, nil
		}
	}
	if f.RequireNotInterleaved {
		interleaved, err := r.Bool(results.FieldInterleaved)
		if err != nil {
			return false, err
		}
		if interleaved {
			return false, nil
		}
	}
	return true, nil
}

// Rate is the acceptance count for one population
type Rate struct {
	Population string
	Good       int
	Total      int
}

// Percent is 100*Good/Total
func (r Rate) Percent() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Good*100) / float64(r.Total)
}

func (r Rate) String() string {
	return fmt.Sprintf("%s: %d/%d %.2f%%", r.Population, r.Good, r.Total, r.Percent())
}

// AcceptanceRates recomputes acceptance under filter for every population.
func AcceptanceRates(t *results.Table, filter RateFilter) ([]Rate, error) {
	if err := t.Schema.Require("acceptance rates", filter.requires()...); err != nil {
		return nil, err
	}
	out := make([]Rate, 0, t.Len())
	for _, pop := range t.Populations() {
		rate := Rate{Population: pop.Name, Total: pop.Len()}
		for _, r := range pop.Records {
			ok, err := filter.accepts(r)
			if err != nil {
				return nil, err
			}
			if ok {
				rate.Good++
			}
		}
		out = append(out, rate)
	}
	return out, nil
}

// SiteChange is the mean number of sites gained and lost in one population
type SiteChange struct {
	Population  string
	N           int
	MeanAdded   float64
	MeanRemoved float64
}

// SiteChanges averages the added and removed columns per population.
func SiteChanges(t *results.Table) ([]SiteChange, error) {
	if err := t.Schema.Require("site averages", results.FieldAdded, results.FieldRemoved); err != nil {
		return nil, err
	}
	out := make([]SiteChange, 0, t.Len())
	for _, pop := range t.Populations() {
		added := make([]float64, 0, pop.Len())
		removed := make([]float64, 0, pop.Len())
		for _, r := range pop.Records {
			a, err := r.Int(results.FieldAdded)
			if err != nil {
				return nil, err
			}
			d, err := r.Int(results.FieldRemoved)
			if err != nil {
				return nil, err
			}
			added = append(added, float64(a))
			removed = append(removed, float64(d))
		}
		sc := SiteChange{Population: pop.Name, N: pop.Len()}
		var err error
		if sc.MeanAdded, err = stats.Mean(added); err != nil {
			return nil, core.NewUndefinedError(core.ErrInsufficientData, pop.Name, results.FieldAdded)
		}
		if sc.MeanRemoved, err = stats.Mean(removed); err != nil {
			return nil, core.NewUndefinedError(core.ErrInsufficientData, pop.Name, results.FieldRemoved)
		}
		out = append(out, sc)
	}
	return out, nil
}

// AcceptableViolation is a record whose stored acceptable flag disagrees
// with unique AND max_length < limit.
type AcceptableViolation struct {
	Population string
	Line       int
	Acceptable bool
	Unique     bool
	MaxLength  int64
}

func (v AcceptableViolation) String() string {
	return fmt.Sprintf("%s line %d: acceptable=%t but unique=%t max_length=%d",
		v.Population, v.Line, v.Acceptable, v.Unique, v.MaxLength)
}

// CheckAcceptable validates the stored acceptable column without replacing it.
func CheckAcceptable(t *results.Table, maxSegment int64) ([]AcceptableViolation, error) {
	if err := t.Schema.Require("acceptable check",
		results.FieldAcceptable, results.FieldUnique, results.FieldMaxLength); err != nil {
		return nil, err
	}
	var out []AcceptableViolation
	for _, pop := range t.Populations() {
		for _, r := range pop.Records {
			acceptable, err := r.Bool(results.FieldAcceptable)
			if err != nil {
				return nil, err
			}
			unique, err := r.Bool(results.FieldUnique)
			if err != nil {
				return nil, err
			}
			maxLen, err := r.Int(results.FieldMaxLength)
			if err != nil {
				return nil, err
			}
			if acceptable != (unique && maxLen < maxSegment) {
				out = append(out, AcceptableViolation{
					Population: pop.Name,
					Line:       r.Line(),
					Acceptable: acceptable,
					Unique:     unique,
					MaxLength:  maxLen,
				})
			}
		}
	}
	return out, nil
}
