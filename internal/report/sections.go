package report

import (
	"tamperstat/domain/run"
	"tamperstat/internal/analysis"
	"tamperstat/ports"
)

var (
	correlationHeaders    = []string{"population", "feature", "r", "p", "n"}
	classificationHeaders = []string{"population", "feature", "threshold", "sensitivity", "specificity", "tp", "fp", "tn", "fn"}
	rankHeaders           = []string{"reference", "feature", "value", "exceeding", "compared", "fraction", "cumulative exceeding", "cumulative compared"}
	uniformityHeaders     = []string{"population", "samples", "skipped", "mean ks p", "mean deviation", "ks above %", "deviation above %"}
)

func cell(v float64, err error) interface{} {
	if err != nil {
		return undefined
	}
	return v
}

func correlationRows(rows []analysis.CorrelationRow) [][]interface{} {
	out := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		out = append(out, []interface{}{r.Population, r.Feature, cell(r.Coefficient, r.Err), cell(r.PValue, r.Err), r.N})
	}
	return out
}

func classificationRows(rows []analysis.ClassificationRow) [][]interface{} {
	out := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		if r.Err != nil {
			out = append(out, []interface{}{r.Population, r.Feature, undefined, undefined, undefined, 0, 0, 0, 0})
			continue
		}
		c := r.Confusion
		out = append(out, []interface{}{
			r.Population, r.Feature, r.Threshold,
			cell(r.Sensitivity, r.SensitivityErr), cell(r.Specificity, r.SpecificityErr),
			c.TruePositives, c.FalsePositives, c.TrueNegatives, c.FalseNegatives,
		})
	}
	return out
}

func rankRows(ranks []analysis.Rank) [][]interface{} {
	out := make([][]interface{}, 0, len(ranks))
	for _, r := range ranks {
		frac, err := r.Own.Fraction()
		if r.Err != nil {
			err = r.Err
		}
		out = append(out, []interface{}{
			r.Reference, r.Feature, cell(r.Value, r.Err), r.Own.Exceeding, r.Own.Compared,
			cell(frac, err), r.Cumulative.Exceeding, r.Cumulative.Compared,
		})
	}
	return out
}

func uniformityRows(rows []analysis.UniformityRow) [][]interface{} {
	out := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		out = append(out, []interface{}{
			r.Population, r.Samples, r.Skipped,
			cell(r.MeanKSPValue, r.Err), cell(r.MeanDeviation, r.Err),
			cell(r.KSAbovePct, r.Err), cell(r.DeviationAbovePct, r.Err),
		})
	}
	return out
}

// Sheets lays the report out as one workbook sheet per section
func (r *Report) Sheets() []ports.Sheet {
	var sheets []ports.Sheet
	rateSheet := func(name string, rates []analysis.Rate) ports.Sheet {
		rows := make([][]interface{}, 0, len(rates))
		for _, rt := range rates {
			rows = append(rows, []interface{}{rt.Population, rt.Good, rt.Total, rt.Percent()})
		}
		return ports.Sheet{Name: name, Headers: []string{"population", "good", "total", "percent"}, Rows: rows}
	}
	if len(r.Rates) > 0 {
		sheets = append(sheets, rateSheet("Rates", r.Rates))
	}
	if r.FilteredRates != nil {
		sheets = append(sheets, rateSheet("Filtered rates", r.FilteredRates))
	}
	if len(r.Sites) > 0 {
		rows := make([][]interface{}, 0, len(r.Sites))
		for _, s := range r.Sites {
			rows = append(rows, []interface{}{s.Population, s.N, s.MeanAdded, s.MeanRemoved})
		}
		sheets = append(sheets, ports.Sheet{Name: "Sites", Headers: []string{"population", "n", "mean added", "mean removed"}, Rows: rows})
	}
	if len(r.Correlations) > 0 {
		sheets = append(sheets, ports.Sheet{Name: "Correlation", Headers: correlationHeaders, Rows: correlationRows(r.Correlations)})
	}
	if len(r.Classifications) > 0 {
		sheets = append(sheets, ports.Sheet{Name: "Classifier", Headers: classificationHeaders, Rows: classificationRows(r.Classifications)})
	}
	if len(r.Detector) > 0 {
		sheets = append(sheets, ports.Sheet{Name: "Detector", Headers: classificationHeaders, Rows: classificationRows(r.Detector)})
	}
	if len(r.Ranks) > 0 {
		sheets = append(sheets, ports.Sheet{Name: "Rank", Headers: rankHeaders, Rows: rankRows(r.Ranks)})
	}
	if r.Uniformity != nil {
		sheets = append(sheets, ports.Sheet{Name: "Uniformity", Headers: uniformityHeaders, Rows: uniformityRows(r.Uniformity.Rows)})
	}
	return sheets
}

// Metrics flattens the report into archive rows. Undefined statistics are
// kept as undefined metrics carrying their reason.
func (r *Report) Metrics() []run.Metric {
	var out []run.Metric
	metric := func(section run.Section, pop, subject, name string, v float64, err error) {
		if err != nil {
			out = append(out, run.UndefinedMetric(section, pop, subject, name, err))
			return
		}
		out = append(out, run.DefinedMetric(section, pop, subject, name, v))
	}

	for _, rt := range r.Rates {
		metric(run.SectionRate, rt.Population, "unfiltered", "good", float64(rt.Good), nil)
		metric(run.SectionRate, rt.Population, "unfiltered", "total", float64(rt.Total), nil)
	}
	for _, rt := range r.FilteredRates {
		metric(run.SectionRate, rt.Population, "filtered", "good", float64(rt.Good), nil)
		metric(run.SectionRate, rt.Population, "filtered", "total", float64(rt.Total), nil)
	}
	for _, c := range r.Correlations {
		metric(run.SectionCorrelation, c.Population, c.Feature, "r", c.Coefficient, c.Err)
		metric(run.SectionCorrelation, c.Population, c.Feature, "p", c.PValue, c.Err)
	}
	classification := func(section run.Section, rows []analysis.ClassificationRow) {
		for _, c := range rows {
			if c.Err != nil {
				metric(section, c.Population, c.Feature, "sensitivity", 0, c.Err)
				metric(section, c.Population, c.Feature, "specificity", 0, c.Err)
				continue
			}
			metric(section, c.Population, c.Feature, "sensitivity", c.Sensitivity, c.SensitivityErr)
			metric(section, c.Population, c.Feature, "specificity", c.Specificity, c.SpecificityErr)
		}
	}
	classification(run.SectionClassification, r.Classifications)
	classification(run.SectionDetector, r.Detector)
	for _, rk := range r.Ranks {
		frac, err := rk.Own.Fraction()
		if rk.Err != nil {
			err = rk.Err
		}
		metric(run.SectionRank, rk.Reference, rk.Feature, "fraction", frac, err)
	}
	if len(r.Ranks) > 0 {
		frac, err := r.RankTally.Fraction()
		metric(run.SectionRank, "all", "all", "fraction", frac, err)
	}
	if r.Uniformity != nil {
		metric(run.SectionUniformity, "reference", "positions", "ks_p", r.Uniformity.Reference.KSPValue, nil)
		metric(run.SectionUniformity, "reference", "positions", "deviation", r.Uniformity.Reference.Deviation, nil)
		for _, u := range r.Uniformity.Rows {
			metric(run.SectionUniformity, u.Population, "positions", "ks_above_pct", u.KSAbovePct, u.Err)
			metric(run.SectionUniformity, u.Population, "positions", "deviation_above_pct", u.DeviationAbovePct, u.Err)
		}
	}
	return out
}
