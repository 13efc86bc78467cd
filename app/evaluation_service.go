package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"tamperstat/adapters/plot"
	"tamperstat/adapters/table"
	"tamperstat/domain/core"
	"tamperstat/domain/results"
	"tamperstat/domain/run"
	"tamperstat/internal"
	"tamperstat/internal/analysis"
	"tamperstat/internal/errors"
	"tamperstat/internal/report"
	"tamperstat/ports"
)

// CodeVersion is recorded in every archived run fingerprint
const CodeVersion = "1.0.0"

// EvaluationService runs the statistics engine over a loaded results table
type EvaluationService struct {
	cfg    analysis.Config
	logger *internal.Logger
}

// LoadedTable is a parsed table plus what identifies its content
type LoadedTable struct {
	*results.Table
	Source string
	Hash   core.Hash
}

// NewEvaluationService creates an evaluation service
func NewEvaluationService(cfg analysis.Config, logger *internal.Logger) *EvaluationService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &EvaluationService{cfg: cfg, logger: logger}
}

// Config returns the analysis constants in use
func (s *EvaluationService) Config() analysis.Config { return s.cfg }

// Load parses path into memory and hashes its bytes for the run fingerprint.
func (s *EvaluationService) Load(path string) (*LoadedTable, error) {
	start := time.Now()
	t, err := table.LoadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "hashing %s", path)
	}
	defer f.Close()
	hash, err := core.HashReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "hashing %s", path)
	}

	s.logger.Debug("loaded %s: %d populations, %d fields in %s",
		path, t.Len(), t.Schema.Len(), time.Since(start))
	return &LoadedTable{Table: t, Source: path, Hash: hash}, nil
}

func (s *EvaluationService) outcome(t *results.Table) (string, error) {
	return analysis.ResolveOutcome(t.Schema, s.cfg.OutcomeField)
}

func (s *EvaluationService) features(t *results.Table) ([]analysis.Feature, error) {
	return analysis.ResolveFeatures(t.Schema, s.cfg.Features)
}

// warnUndefined logs each skipped item once with its population and reason
func (s *EvaluationService) warnUndefined(section string, errs ...error) {
	for _, err := range errs {
		if err != nil {
			s.logger.Warn("%s: skipped: %v", section, err)
		}
	}
}

// Correlate computes the point-biserial correlation of every configured
// feature with the outcome, per population.
func (s *EvaluationService) Correlate(t *results.Table) ([]analysis.CorrelationRow, error) {
	outcome, err := s.outcome(t)
	if err != nil {
		return nil, err
	}
	features, err := s.features(t)
	if err != nil {
		return nil, err
	}
	rows, err := analysis.CorrelateTable(t, outcome, features)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		s.warnUndefined("correlation", row.Err)
	}
	return rows, nil
}

// Classify runs the mean-threshold classifier for every configured feature
func (s *EvaluationService) Classify(t *results.Table) ([]analysis.ClassificationRow, error) {
	outcome, err := s.outcome(t)
	if err != nil {
		return nil, err
	}
	features, err := s.features(t)
	if err != nil {
		return nil, err
	}
	rows, err := analysis.ClassifyTable(t, outcome, features)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		s.warnUndefined("classifier", row.Err, row.SensitivityErr, row.SpecificityErr)
	}
	return rows, nil
}

// Detector scores the producer's acc column against the outcome
func (s *EvaluationService) Detector(t *results.Table) ([]analysis.ClassificationRow, error) {
	outcome, err := s.outcome(t)
	if err != nil {
		return nil, err
	}
	rows, err := analysis.EvaluateFlagTable(t, outcome, results.FieldDetected)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		s.warnUndefined("detector", row.SensitivityErr, row.SpecificityErr)
	}
	return rows, nil
}

// Rank compares every reference with its tampered simulations for each
// configured feature. The returned tally aggregates all of them.
func (s *EvaluationService) Rank(t *results.Table) ([]analysis.Rank, analysis.Tally, error) {
	var tally analysis.Tally
	if err := t.Schema.Require("rank estimator", results.FieldTampered); err != nil {
		return nil, tally, err
	}
	features, err := s.features(t)
	if err != nil {
		return nil, tally, err
	}
	split, err := analysis.SplitReferences(t, s.cfg.ReferencePrefix)
	if err != nil {
		return nil, tally, err
	}
	if len(split.References) == 0 {
		s.logger.Warn("rank estimator: no populations start with %q", s.cfg.ReferencePrefix)
	}

	var ranks []analysis.Rank
	for _, f := range features {
		rs, err := analysis.RankReferences(split, f, &tally)
		if err != nil {
			return nil, tally, err
		}
		for _, r := range rs {
			s.warnUndefined("rank estimator", r.Err)
		}
		ranks = append(ranks, rs...)
	}
	return ranks, tally, nil
}

// Uniformity benchmarks every population's positions against the reference sample
func (s *EvaluationService) Uniformity(t *results.Table) (*analysis.UniformityReport, error) {
	rep, err := analysis.TestUniformity(t, s.cfg)
	if err != nil {
		return nil, err
	}
	for _, row := range rep.Rows {
		s.warnUndefined("uniformity", row.Err)
		if row.Skipped > 0 {
			s.logger.Debug("uniformity: %s: %d records without positions", row.Population, row.Skipped)
		}
	}
	return rep, nil
}

// Rates returns the unfiltered acceptance rates and, when filter is active,
// the filtered ones as well.
func (s *EvaluationService) Rates(t *results.Table, filter analysis.RateFilter) (unfiltered, filtered []analysis.Rate, err error) {
	unfiltered, err = analysis.AcceptanceRates(t, analysis.RateFilter{})
	if err != nil {
		return nil, nil, err
	}
	if !filter.Active() {
		return unfiltered, nil, nil
	}
	filtered, err = analysis.AcceptanceRates(t, filter)
	if err != nil {
		return nil, nil, err
	}
	return unfiltered, filtered, nil
}

// Sites averages sites added and removed per population
func (s *EvaluationService) Sites(t *results.Table) ([]analysis.SiteChange, error) {
	return analysis.SiteChanges(t)
}

// Check validates the stored acceptable column
func (s *EvaluationService) Check(t *results.Table) ([]analysis.AcceptableViolation, error) {
	violations, err := analysis.CheckAcceptable(t, s.cfg.MaxSegmentLength)
	if err != nil {
		return nil, err
	}
	for _, v := range violations {
		s.logger.Warn("acceptable check: %s", v)
	}
	return violations, nil
}

// Graph writes the per-population (count, max_length) data files
func (s *EvaluationService) Graph(t *results.Table, w *plot.Writer) ([]string, error) {
	series, err := analysis.GraphData(t)
	if err != nil {
		return nil, err
	}
	written, err := w.WriteGraphFiles(series)
	if err != nil {
		return written, err
	}
	s.logger.Info("wrote %d graph files to %s", len(written), w.Dir())
	return written, nil
}

// Boxplots writes, for each reference and configured feature, the tampered
// and untampered value columns and a gnuplot script.
func (s *EvaluationService) Boxplots(t *results.Table, w *plot.Writer) ([]plot.BoxplotFiles, error) {
	if err := t.Schema.Require("boxplots", results.FieldTampered); err != nil {
		return nil, err
	}
	features, err := s.features(t)
	if err != nil {
		return nil, err
	}
	split, err := analysis.SplitReferences(t, s.cfg.ReferencePrefix)
	if err != nil {
		return nil, err
	}

	var out []plot.BoxplotFiles
	for _, f := range features {
		series, err := analysis.BoxplotData(split, f)
		if err != nil {
			return out, err
		}
		for _, bs := range series {
			if bs.Err != nil {
				s.warnUndefined("boxplot", bs.Err)
				continue
			}
			files, err := w.WriteBoxplot(bs, s.cfg.Label(f.Name))
			if err != nil {
				return out, err
			}
			out = append(out, files)
		}
	}
	s.logger.Info("wrote %d boxplot scripts to %s", len(out), w.Dir())
	return out, nil
}

// BuildReport runs every section the table's schema supports. Sections whose
// fields are missing are recorded as skipped; any other error aborts.
func (s *EvaluationService) BuildReport(ctx context.Context, lt *LoadedTable, filter analysis.RateFilter) (*report.Report, error) {
	rep := &report.Report{Source: lt.Source}
	t := lt.Table

	if outcome, err := s.outcome(t); err == nil {
		rep.Outcome = outcome
	}

	section := func(name string, fn func() error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn()
		if core.IsMissingField(err) {
			s.logger.Info("report: skipping %s: %v", name, err)
			rep.Skip(name, err)
			return nil
		}
		return err
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"rates", func() (err error) {
			rep.Rates, rep.FilteredRates, err = s.Rates(t, filter)
			return err
		}},
		{"sites", func() (err error) {
			rep.Sites, err = s.Sites(t)
			return err
		}},
		{"acceptable check", func() (err error) {
			v, err := s.Check(t)
			if err == nil {
				rep.Violations = append([]analysis.AcceptableViolation{}, v...)
			}
			return err
		}},
		{"correlation", func() (err error) {
			rep.Correlations, err = s.Correlate(t)
			return err
		}},
		{"classifier", func() (err error) {
			rep.Classifications, err = s.Classify(t)
			return err
		}},
		{"detector", func() (err error) {
			rep.Detector, err = s.Detector(t)
			return err
		}},
		{"rank", func() (err error) {
			rep.Ranks, rep.RankTally, err = s.Rank(t)
			return err
		}},
		{"uniformity", func() (err error) {
			rep.Uniformity, err = s.Uniformity(t)
			return err
		}},
	}
	for _, step := range steps {
		if err := section(step.name, step.fn); err != nil {
			return nil, errors.Wrapf(err, "report section %s", step.name)
		}
	}
	return rep, nil
}

// Fingerprint identifies the table content and the analysis settings
func (s *EvaluationService) Fingerprint(lt *LoadedTable) run.RunFingerprint {
	settings := core.ComputeSettingsHash(map[string]interface{}{
		"reference_prefix":    s.cfg.ReferencePrefix,
		"reference_positions": fmt.Sprint(s.cfg.ReferencePositions),
		"max_segment_length":  s.cfg.MaxSegmentLength,
		"outcome_field":       s.cfg.OutcomeField,
		"features":            fmt.Sprint(s.cfg.Features),
	})
	return run.NewRunFingerprint(lt.Hash, settings, CodeVersion)
}

// Archive stores the report's metrics under a new run and stamps the run
// ID onto the report.
func (s *EvaluationService) Archive(ctx context.Context, repo ports.ArchiveRepository, lt *LoadedTable, rep *report.Report) (*run.Run, error) {
	r := run.NewRun(lt.Source, s.Fingerprint(lt), time.Now())
	metrics := rep.Metrics()
	if err := repo.SaveRun(ctx, r, metrics); err != nil {
		return nil, errors.Wrapf(err, "archiving run %s", r.ID)
	}
	rep.RunID = r.ID
	s.logger.Info("archived run %s (%d metrics, fingerprint %s)", r.ID, len(metrics), r.Fingerprint.Fingerprint.Short())
	return r, nil
}
