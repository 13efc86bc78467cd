package analysis

import (
	"tamperstat/domain/core"
	"tamperstat/domain/results"
)

// Point is one (count, max_length) pair of a restriction-map trial
type Point struct {
	Count     int64
	MaxLength int64
}

// GraphSeries holds one population's trials split by the stored acceptable flag.
type GraphSeries struct {
	Population string
	Acceptable []Point
	Rejected   []Point
}

// GraphData partitions every population by the unfiltered acceptable flag.
func GraphData(t *results.Table) ([]GraphSeries, error) {
	if err := t.Schema.Require("graph data",
		results.FieldAcceptable, results.FieldCount, results.FieldMaxLength); err != nil {
		return nil, err
	}
	out := make([]GraphSeries, 0, t.Len())
	for _, pop := range t.Populations() {
		series := GraphSeries{Population: pop.Name}
		for _, r := range pop.Records {
			acceptable, err := r.Bool(results.FieldAcceptable)
			if err != nil {
				return nil, err
			}
			count, err := r.Int(results.FieldCount)
			if err != nil {
				return nil, err
			}
			maxLen, err := r.Int(results.FieldMaxLength)
			if err != nil {
				return nil, err
			}
			p := Point{Count: count, MaxLength: maxLen}
			if acceptable {
				series.Acceptable = append(series.Acceptable, p)
			} else {
				series.Rejected = append(series.Rejected, p)
			}
		}
		out = append(out, series)
	}
	return out, nil
}

// BoxplotSeries is one feature of one simulated population split by the
// tampered flag, with the matching reference value for comparison.
type BoxplotSeries struct {
	Reference      string
	Simulated      string
	Feature        string
	ReferenceValue float64
	Tampered       []float64
	Untampered     []float64
	Err            error
}

// BoxplotData builds a series per reference for feature f. Records where f is
// undefined are left out; an undefined reference value marks the series Err.
func BoxplotData(s *Split, f Feature) ([]BoxplotSeries, error) {
	out := make([]BoxplotSeries, 0, len(s.References))
	for _, ref := range s.References {
		sim, err := s.Counterpart(ref)
		if err != nil {
			return nil, err
		}
		series := BoxplotSeries{Reference: ref.Name, Simulated: sim.Name, Feature: f.Name}

		v, ok, err := f.Value(ref.Record)
		if err != nil {
			return nil, err
		}
		if !ok {
			series.Err = core.NewUndefinedError(core.ErrInsufficientData, ref.Name, f.Name)
			out = append(out, series)
			continue
		}
		series.ReferenceValue = v

		for _, r := range sim.Records {
			tampered, err := r.Bool(results.FieldTampered)
			if err != nil {
				return nil, err
			}
			v, ok, err := f.Value(r)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			if tampered {
				series.Tampered = append(series.Tampered, v)
			} else {
				series.Untampered = append(series.Untampered, v)
			}
		}
		out = append(out, series)
	}
	return out, nil
}
