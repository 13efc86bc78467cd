package archive

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tamperstat/domain/core"
	"tamperstat/domain/run"
	apperrors "tamperstat/internal/errors"
	"tamperstat/internal/migration"
)

func openTestArchive(t *testing.T) *RunRepositoryImpl {
	t.Helper()
	db, err := Open(context.Background(), "sqlite3", filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRunRepository(db).(*RunRepositoryImpl)
}

func TestSaveAndLoadRun(t *testing.T) {
	ctx := context.Background()
	repo := openTestArchive(t)

	fp := run.NewRunFingerprint(core.NewHash([]byte("table")), core.NewHash([]byte("settings")), "1.0.0")
	rn := run.NewRun("tamper.txt", fp, time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC))
	metrics := []run.Metric{
		run.DefinedMetric(run.SectionRate, "pop1", "acceptable", "percent", 50),
		run.DefinedMetric(run.SectionCorrelation, "RaTG13", "muts_in_sites", "r", -0.25),
		run.UndefinedMetric(run.SectionCorrelation, "BtSY2", "muts_in_sites", "r", errors.New("no variance")),
	}
	require.NoError(t, repo.SaveRun(ctx, rn, metrics))

	got, err := repo.GetRun(ctx, rn.ID)
	require.NoError(t, err)
	assert.Equal(t, rn.ID, got.ID)
	assert.Equal(t, fp, got.Fingerprint)
	assert.True(t, rn.CreatedAt.Equal(got.CreatedAt))

	stored, err := repo.ListMetrics(ctx, rn.ID)
	require.NoError(t, err)
	assert.Equal(t, metrics, stored)
}

func TestListRuns_NewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := openTestArchive(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []core.RunID
	for i := 0; i < 3; i++ {
		rn := run.NewRun("t.txt", run.RunFingerprint{}, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, repo.SaveRun(ctx, rn, nil))
		ids = append(ids, rn.ID)
	}

	runs, err := repo.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)

	all, err := repo.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestGetRun_NotFound(t *testing.T) {
	repo := openTestArchive(t)
	_, err := repo.GetRun(context.Background(), core.NewRunID())
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
}

func TestSaveRun_DuplicateIsStorageError(t *testing.T) {
	ctx := context.Background()
	repo := openTestArchive(t)
	rn := run.NewRun("t.txt", run.RunFingerprint{}, time.Now())
	require.NoError(t, repo.SaveRun(ctx, rn, nil))

	err := repo.SaveRun(ctx, rn, nil)
	assert.Equal(t, apperrors.CodeStorageError, apperrors.GetCode(err))
}

func TestMigrationsAreIdempotent(t *testing.T) {
	repo := openTestArchive(t)
	runner := migration.NewRunner()
	require.NoError(t, runner.Run(context.Background(), repo.db))
	assert.Equal(t, "1.0.0", runner.Version())
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "x")
	assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))
}
