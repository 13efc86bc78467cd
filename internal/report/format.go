package report

import (
	"fmt"
	"strconv"

	"tamperstat/internal/analysis"
)

const undefined = "undefined"

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func orUndefined(v float64, err error) string {
	if err != nil {
		return undefined
	}
	return num(v)
}

// CorrelationLine is "<population> <feature> r=<r> p=<p> n=<n>" or the undefined reason.
func CorrelationLine(row analysis.CorrelationRow) string {
	if row.Err != nil {
		return fmt.Sprintf("%s %s %s (%v)", row.Population, row.Feature, undefined, row.Err)
	}
	return fmt.Sprintf("%s %s r=%s p=%s n=%d", row.Population, row.Feature, num(row.Coefficient), num(row.PValue), row.N)
}

// ClassificationLine reports threshold, rates and the confusion counts
func ClassificationLine(row analysis.ClassificationRow) string {
	if row.Err != nil {
		return fmt.Sprintf("%s %s %s (%v)", row.Population, row.Feature, undefined, row.Err)
	}
	c := row.Confusion
	return fmt.Sprintf("%s %s threshold=%s sensitivity=%s specificity=%s tp=%d fp=%d tn=%d fn=%d",
		row.Population, row.Feature, num(row.Threshold),
		orUndefined(row.Sensitivity, row.SensitivityErr), orUndefined(row.Specificity, row.SpecificityErr),
		c.TruePositives, c.FalsePositives, c.TrueNegatives, c.FalseNegatives)
}

// DetectorLine reports a boolean detector column against the outcome
func DetectorLine(row analysis.ClassificationRow) string {
	c := row.Confusion
	return fmt.Sprintf("%s %s sensitivity=%s specificity=%s tp=%d fp=%d tn=%d fn=%d",
		row.Population, row.Feature,
		orUndefined(row.Sensitivity, row.SensitivityErr), orUndefined(row.Specificity, row.SpecificityErr),
		c.TruePositives, c.FalsePositives, c.TrueNegatives, c.FalseNegatives)
}

// RankLine reports one reference against its tampered simulations
func RankLine(r analysis.Rank) string {
	if r.Err != nil {
		return fmt.Sprintf("%s %s %s (%v)", r.Reference, r.Feature, undefined, r.Err)
	}
	frac, err := r.Own.Fraction()
	return fmt.Sprintf("%s %s value=%s exceeding=%d/%d fraction=%s cumulative=%d/%d",
		r.Reference, r.Feature, num(r.Value), r.Own.Exceeding, r.Own.Compared,
		orUndefined(frac, err), r.Cumulative.Exceeding, r.Cumulative.Compared)
}

// TallyLine is the aggregate rank fraction over every reference and feature
func TallyLine(t analysis.Tally) string {
	frac, err := t.Fraction()
	return fmt.Sprintf("overall exceeding=%d/%d fraction=%s", t.Exceeding, t.Compared, orUndefined(frac, err))
}

// UniformityReferenceLine reports the benchmark sample's own statistics
func UniformityReferenceLine(s analysis.UniformityScore) string {
	return fmt.Sprintf("reference ks_p=%s deviation=%s", num(s.KSPValue), num(s.Deviation))
}

// UniformityLine reports one population against the benchmark
func UniformityLine(row analysis.UniformityRow) string {
	if row.Err != nil {
		return fmt.Sprintf("%s %s (%v)", row.Population, undefined, row.Err)
	}
	return fmt.Sprintf("%s samples=%d skipped=%d mean_ks_p=%s mean_deviation=%s ks_above=%.2f%% deviation_above=%.2f%%",
		row.Population, row.Samples, row.Skipped, num(row.MeanKSPValue), num(row.MeanDeviation),
		row.KSAbovePct, row.DeviationAbovePct)
}

// SiteLine is "<population>: added=<mean> removed=<mean>"
func SiteLine(s analysis.SiteChange) string {
	return fmt.Sprintf("%s: added=%s removed=%s", s.Population, num(s.MeanAdded), num(s.MeanRemoved))
}
