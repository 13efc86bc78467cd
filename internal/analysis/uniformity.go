package analysis

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"tamperstat/domain/core"
	"tamperstat/domain/results"
)

// NormalizedPositions maps a record's site positions into [0,1] by dividing
// by genome_len, sorted ascending. ok is false for an empty list or a zero
// genome length.
func NormalizedPositions(r results.Record) ([]float64, bool, error) {
	genomeLen, err := r.Int(results.FieldGenomeLen)
	if err != nil {
		return nil, false, err
	}
	positions, err := r.Positions()
	if err != nil {
		return nil, false, err
	}
	if genomeLen == 0 || len(positions) == 0 {
		return nil, false, nil
	}

	out := make([]float64, len(positions))
	for i, p := range positions {
		out[i] = p / float64(genomeLen)
	}
	sort.Float64s(out)
	return out, true, nil
}

// UniformDeviation is the mean absolute distance between the sorted sample
// and the expected uniform order statistics i/(n+1). The sample is sorted
// here; producers do not guarantee ordered position lists.
func UniformDeviation(sample []float64) (float64, error) {
	if len(sample) == 0 {
		return 0, core.ErrInsufficientData
	}
	xs := append([]float64(nil), sample...)
	sort.Float64s(xs)

	m := float64(len(xs) + 1)
	sum := 0.0
	for i, x := range xs {
		sum += math.Abs(x - float64(i+1)/m)
	}
	return sum / (m - 1), nil
}

// UniformKSPValue is the two-sided KS p-value of sample against U(0,1).
func UniformKSPValue(sample []float64) (float64, error) {
	if len(sample) == 0 {
		return 0, core.ErrInsufficientData
	}
	d := KolmogorovSmirnovUniform(sample)
	return KolmogorovSmirnovPValue(len(sample), d), nil
}

// UniformityScore holds both statistics for one sample
type UniformityScore struct {
	KSPValue  float64
	Deviation float64
}

// ScoreUniformity computes both statistics for sample
func ScoreUniformity(sample []float64) (UniformityScore, error) {
	ks, err := UniformKSPValue(sample)
	if err != nil {
		return UniformityScore{}, err
	}
	dev, err := UniformDeviation(sample)
	if err != nil {
		return UniformityScore{}, err
	}
	return UniformityScore{KSPValue: ks, Deviation: dev}, nil
}

// UniformitySummary compares one population's samples with the reference score.
type UniformitySummary struct {
	Population        string
	Samples           int
	Skipped           int
	MeanKSPValue      float64
	MeanDeviation     float64
	KSAbovePct        float64
	DeviationAbovePct float64
}

// SummarizeUniformity scores every record of pop with defined positions and
// reports the mean statistics and the percentage of samples whose statistic
// exceeds the reference's.
func SummarizeUniformity(pop *results.Population, reference UniformityScore) (UniformitySummary, error) {
	s := UniformitySummary{Population: pop.Name}

	var ksValues, devValues []float64
	ksAbove, devAbove := 0, 0
	for _, r := range pop.Records {
		sample, ok, err := NormalizedPositions(r)
		if err != nil {
			return s, err
		}
		if !ok {
			s.Skipped++
			continue
		}
		score, err := ScoreUniformity(sample)
		if err != nil {
			return s, err
		}
		ksValues = append(ksValues, score.KSPValue)
		devValues = append(devValues, score.Deviation)
		if score.KSPValue > reference.KSPValue {
			ksAbove++
		}
		if score.Deviation > reference.Deviation {
			devAbove++
		}
	}

	s.Samples = len(ksValues)
	if s.Samples == 0 {
		return s, core.NewUndefinedError(core.ErrInsufficientData, pop.Name, results.FieldPositions)
	}
	s.MeanKSPValue, _ = stats.Mean(ksValues)
	s.MeanDeviation, _ = stats.Mean(devValues)
	s.KSAbovePct = 100 * float64(ksAbove) / float64(s.Samples)
	s.DeviationAbovePct = 100 * float64(devAbove) / float64(s.Samples)
	return s, nil
}

// UniformityRow is a population summary or the reason it is undefined
type UniformityRow struct {
	UniformitySummary
	Err error
}

// UniformityReport is the reference score plus one row per population
type UniformityReport struct {
	Reference UniformityScore
	Rows      []UniformityRow
}

// TestUniformity benchmarks every population of t against the configured
// reference position sample.
func TestUniformity(t *results.Table, cfg Config) (*UniformityReport, error) {
	if err := t.Schema.Require("uniformity test", results.FieldPositions, results.FieldGenomeLen); err != nil {
		return nil, err
	}
	ref, err := ScoreUniformity(cfg.ReferencePositions)
	if err != nil {
		return nil, err
	}

	report := &UniformityReport{Reference: ref}
	for _, pop := range t.Populations() {
		s, err := SummarizeUniformity(pop, ref)
		if err != nil && !core.IsUndefined(err) {
			return nil, err
		}
		report.Rows = append(report.Rows, UniformityRow{UniformitySummary: s, Err: err})
	}
	return report, nil
}
