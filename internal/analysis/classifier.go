package analysis

import (
	"github.com/montanaflynn/stats"

	"tamperstat/domain/core"
	"tamperstat/domain/results"
)

// Confusion accumulates predictions against ground truth
type Confusion struct {
	TruePositives  int
	FalsePositives int
	TrueNegatives  int
	FalseNegatives int
}

// Add records one prediction
func (c *Confusion) Add(predicted, actual bool) {
	switch {
	case predicted && actual:
		c.TruePositives++
	case predicted && !actual:
		c.FalsePositives++
	case !predicted && !actual:
		c.TrueNegatives++
	default:
		c.FalseNegatives++
	}
}

// Total is the number of classified records
func (c Confusion) Total() int {
	return c.TruePositives + c.FalsePositives + c.TrueNegatives + c.FalseNegatives
}

// Sensitivity is TP / all ground-truth positives
func (c Confusion) Sensitivity() (float64, error) {
	positives := c.TruePositives + c.FalseNegatives
	if positives == 0 {
		return 0, core.ErrDivisionByZero
	}
	return float64(c.TruePositives) / float64(positives), nil
}

// Specificity is TN / all ground-truth negatives
func (c Confusion) Specificity() (float64, error) {
	negatives := c.TrueNegatives + c.FalsePositives
	if negatives == 0 {
		return 0, core.ErrDivisionByZero
	}
	return float64(c.TrueNegatives) / float64(negatives), nil
}

// Classification is the outcome of a threshold or flag classifier over one population
type Classification struct {
	Population string
	Outcome    string
	Feature    string
	Threshold  float64
	Confusion
}

// ClassifyByMean labels a record positive when its feature value is strictly
// greater than the population mean of all defined values.
func ClassifyByMean(pop *results.Population, outcome string, f Feature) (Classification, error) {
	c := Classification{Population: pop.Name, Outcome: outcome, Feature: f.Name}

	type sample struct {
		value float64
		truth bool
	}
	samples := make([]sample, 0, pop.Len())
	values := make([]float64, 0, pop.Len())
	for _, r := range pop.Records {
		v, ok, err := f.Value(r)
		if err != nil {
			return c, err
		}
		if !ok {
			continue
		}
		truth, err := r.Bool(outcome)
		if err != nil {
			return c, err
		}
		samples = append(samples, sample{v, truth})
		values = append(values, v)
	}

	mean, err := stats.Mean(values)
	if err != nil {
		return c, core.NewUndefinedError(core.ErrInsufficientData, pop.Name, f.Name)
	}
	c.Threshold = mean

	for _, s := range samples {
		c.Add(s.value > mean, s.truth)
	}
	return c, nil
}

// EvaluateFlag scores a boolean column (a detector's verdict) against outcome.
func EvaluateFlag(pop *results.Population, outcome, flag string) (Classification, error) {
	c := Classification{Population: pop.Name, Outcome: outcome, Feature: flag}
	for _, r := range pop.Records {
		predicted, err := r.Bool(flag)
		if err != nil {
			return c, err
		}
		truth, err := r.Bool(outcome)
		if err != nil {
			return c, err
		}
		c.Add(predicted, truth)
	}
	return c, nil
}

// ClassificationRow pairs a classification with its undefined-metric reasons
type ClassificationRow struct {
	Classification
	Sensitivity    float64
	Specificity    float64
	SensitivityErr error
	SpecificityErr error
	Err            error
}

func newClassificationRow(c Classification, err error) ClassificationRow {
	row := ClassificationRow{Classification: c, Err: err}
	if err != nil {
		return row
	}
	row.Sensitivity, row.SensitivityErr = c.Sensitivity()
	if row.SensitivityErr != nil {
		row.SensitivityErr = core.NewUndefinedError(row.SensitivityErr, c.Population, "sensitivity")
	}
	row.Specificity, row.SpecificityErr = c.Specificity()
	if row.SpecificityErr != nil {
		row.SpecificityErr = core.NewUndefinedError(row.SpecificityErr, c.Population, "specificity")
	}
	return row
}

// ClassifyTable applies ClassifyByMean to every population and feature
func ClassifyTable(t *results.Table, outcome string, features []Feature) ([]ClassificationRow, error) {
	rows := make([]ClassificationRow, 0, t.Len()*len(features))
	for _, pop := range t.Populations() {
		for _, f := range features {
			c, err := ClassifyByMean(pop, outcome, f)
			if err != nil && !core.IsUndefined(err) {
				return nil, err
			}
			rows = append(rows, newClassificationRow(c, err))
		}
	}
	return rows, nil
}

// EvaluateFlagTable applies EvaluateFlag to every population
func EvaluateFlagTable(t *results.Table, outcome, flag string) ([]ClassificationRow, error) {
	if err := t.Schema.Require("detector evaluation", outcome, flag); err != nil {
		return nil, err
	}
	rows := make([]ClassificationRow, 0, t.Len())
	for _, pop := range t.Populations() {
		c, err := EvaluateFlag(pop, outcome, flag)
		if err != nil {
			return nil, err
		}
		rows = append(rows, newClassificationRow(c, nil))
	}
	return rows, nil
}
