package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"tamperstat/domain/core"
	"tamperstat/domain/results"
)

// Correlation is a point-biserial coefficient between a boolean outcome and
// a numeric feature over one population.
type Correlation struct {
	Population  string
	Outcome     string
	Feature     string
	Coefficient float64
	PValue      float64
	N           int
}

// PointBiserial correlates outcome against f over every record where f is
// defined. Fewer than two samples, a constant outcome or a constant feature
// yield an ErrUndefined error rather than a coefficient.
func PointBiserial(pop *results.Population, outcome string, f Feature) (Correlation, error) {
	c := Correlation{Population: pop.Name, Outcome: outcome, Feature: f.Name}

	x := make([]float64, 0, pop.Len())
	y := make([]float64, 0, pop.Len())
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
		x = append(x, boolToFloat(truth))
		y = append(y, v)
	}
	c.N = len(x)

	if c.N < 2 {
		return c, core.NewUndefinedError(core.ErrInsufficientData, pop.Name, f.Name)
	}
	if isConstant(x) {
		return c, core.NewUndefinedError(core.ErrNoVariance, pop.Name, outcome)
	}
	if isConstant(y) {
		return c, core.NewUndefinedError(core.ErrNoVariance, pop.Name, f.Name)
	}

	r := stat.Correlation(x, y, nil)
	r = math.Max(-1, math.Min(1, r))
	c.Coefficient = r
	c.PValue = correlationPValue(r, c.N)
	return c, nil
}

// correlationPValue is the two-sided p-value of Pearson's r under the
// Student-t null with n-2 degrees of freedom.
func correlationPValue(r float64, n int) float64 {
	if n <= 2 {
		return 1
	}
	if math.Abs(r) >= 1 {
		return 0
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/((1-r)*(1+r)))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * dist.Survival(math.Abs(t))
	return math.Min(1, p)
}

// CorrelationRow is one (population, feature) result; Err holds the reason
// when the statistic is undefined.
type CorrelationRow struct {
	Correlation
	Err error
}

// CorrelateTable runs PointBiserial for every population and feature. Only
// undefined statistics are collected per row; any other error is returned.
func CorrelateTable(t *results.Table, outcome string, features []Feature) ([]CorrelationRow, error) {
	rows := make([]CorrelationRow, 0, t.Len()*len(features))
	for _, pop := range t.Populations() {
		for _, f := range features {
			c, err := PointBiserial(pop, outcome, f)
			if err != nil && !core.IsUndefined(err) {
				return nil, err
			}
			rows = append(rows, CorrelationRow{Correlation: c, Err: err})
		}
	}
	return rows, nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func isConstant(xs []float64) bool {
	for _, v := range xs[1:] {
		if v != xs[0] {
			return false
		}
	}
	return true
}
