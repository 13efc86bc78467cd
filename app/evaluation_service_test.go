package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tamperstat/adapters/plot"
	"tamperstat/domain/core"
	"tamperstat/domain/results"
	"tamperstat/internal/analysis"
	"tamperstat/internal/testkit"
)

func newTestService(t *testing.T) (*EvaluationService, testkit.TrialFiles) {
	t.Helper()
	files, err := testkit.WriteTrialFiles(t.TempDir(), testkit.DefaultTrialConfig())
	require.NoError(t, err)
	return NewEvaluationService(analysis.DefaultConfig(), testkit.NewTestLogger(t)), files
}

func TestCorrelate_TamperTrials(t *testing.T) {
	svc, files := newTestService(t)
	lt, err := svc.Load(files.Tamper)
	require.NoError(t, err)
	assert.False(t, lt.Hash.IsEmpty())

	rows, err := svc.Correlate(lt.Table)
	require.NoError(t, err)

	var checked int
	for _, row := range rows {
		if len(row.Population) > 4 && row.Population[:4] == "WH1-" {
			// single-record reference populations have no correlation
			assert.True(t, core.IsUndefined(row.Err))
			continue
		}
		if row.Feature != results.FieldMutsInSites {
			continue
		}
		require.NoError(t, row.Err)
		assert.Greater(t, row.Coefficient, 0.0)
		assert.Less(t, row.PValue, 0.01)
		checked++
	}
	assert.Equal(t, 3, checked)
}

func TestRank_TamperTrials(t *testing.T) {
	svc, files := newTestService(t)
	lt, err := svc.Load(files.Tamper)
	require.NoError(t, err)

	ranks, tally, err := svc.Rank(lt.Table)
	require.NoError(t, err)
	assert.Len(t, ranks, 3*len(svc.Config().Features))

	frac, err := tally.Fraction()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, frac, 0.0)
	assert.LessOrEqual(t, frac, 1.0)
	assert.Equal(t, ranks[len(ranks)-1].Cumulative, tally)
}

func TestRates_FilteredOnlyWhenActive(t *testing.T) {
	svc, files := newTestService(t)
	lt, err := svc.Load(files.Spacing)
	require.NoError(t, err)

	unfiltered, filtered, err := svc.Rates(lt.Table, analysis.RateFilter{})
	require.NoError(t, err)
	assert.Len(t, unfiltered, 3)
	assert.Nil(t, filtered)

	maxCount := int64(5)
	_, filtered, err = svc.Rates(lt.Table, analysis.RateFilter{MaxCount: &maxCount})
	require.NoError(t, err)
	require.Len(t, filtered, 3)
	for i := range filtered {
		assert.LessOrEqual(t, filtered[i].Good, unfiltered[i].Good)
	}

	violations, err := svc.Check(lt.Table)
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestBuildReport_SkipsUnsupportedSections(t *testing.T) {
	svc, files := newTestService(t)
	ctx := context.Background()

	spacing, err := svc.Load(files.Spacing)
	require.NoError(t, err)
	rep, err := svc.BuildReport(ctx, spacing, analysis.RateFilter{})
	require.NoError(t, err)
	assert.Equal(t, results.FieldAcceptable, rep.Outcome)
	assert.NotEmpty(t, rep.Rates)
	assert.NotNil(t, rep.Uniformity)
	assert.Empty(t, rep.Ranks)
	assert.NotEmpty(t, rep.Skipped)

	tamper, err := svc.Load(files.Tamper)
	require.NoError(t, err)
	rep, err = svc.BuildReport(ctx, tamper, analysis.RateFilter{})
	require.NoError(t, err)
	assert.Equal(t, results.FieldTampered, rep.Outcome)
	assert.NotEmpty(t, rep.Ranks)
	assert.NotEmpty(t, rep.Detector)
	assert.NotEmpty(t, rep.Sites)
	assert.Nil(t, rep.Uniformity)
}

func TestBuildReport_StructuralErrorAborts(t *testing.T) {
	svc := NewEvaluationService(analysis.DefaultConfig(), testkit.NewTestLogger(t))
	path := filepath.Join(t.TempDir(), "bad.txt")
	require.NoError(t, os.WriteFile(path, []byte("name tampered muts_in_sites total_sites total_singles\nWH1-A false 1 1 1\nWH1-A false 2 2 2\nA true 1 1 1\n"), 0o644))

	lt, err := svc.Load(path)
	require.NoError(t, err)
	_, err = svc.BuildReport(context.Background(), lt, analysis.RateFilter{})
	assert.ErrorIs(t, err, core.ErrReferenceArity)
}

func TestArchive(t *testing.T) {
	svc, files := newTestService(t)
	ctx := context.Background()
	lt, err := svc.Load(files.Tamper)
	require.NoError(t, err)
	rep, err := svc.BuildReport(ctx, lt, analysis.RateFilter{})
	require.NoError(t, err)

	archive := testkit.NewInMemoryArchive()
	r, err := svc.Archive(ctx, archive, lt, rep)
	require.NoError(t, err)
	assert.Equal(t, r.ID, rep.RunID)
	assert.Equal(t, svc.Fingerprint(lt), r.Fingerprint)

	metrics, err := archive.ListMetrics(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, rep.Metrics(), metrics)
}

func TestPlots(t *testing.T) {
	svc, files := newTestService(t)
	w, err := plot.NewWriter(filepath.Join(t.TempDir(), "plots"))
	require.NoError(t, err)

	spacing, err := svc.Load(files.Spacing)
	require.NoError(t, err)
	written, err := svc.Graph(spacing.Table, w)
	require.NoError(t, err)
	assert.Len(t, written, 6)

	tamper, err := svc.Load(files.Tamper)
	require.NoError(t, err)
	boxplots, err := svc.Boxplots(tamper.Table, w)
	require.NoError(t, err)
	assert.Len(t, boxplots, 3*len(svc.Config().Features))
	assert.FileExists(t, filepath.Join(w.Dir(), "RaTG13-muts_in_sites.gpi"))
}
