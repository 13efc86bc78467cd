package archive

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"tamperstat/domain/core"
	"tamperstat/domain/run"
	"tamperstat/internal/errors"
	"tamperstat/ports"
)

// RunRepositoryImpl implements ArchiveRepository over sqlx
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// NewRunRepository creates a new archive repository
func NewRunRepository(db *sqlx.DB) ports.ArchiveRepository {
	return &RunRepositoryImpl{db: db}
}

type runRow struct {
	ID           string    `db:"id"`
	Source       string    `db:"source"`
	SourceHash   string    `db:"source_hash"`
	SettingsHash string    `db:"settings_hash"`
	CodeVersion  string    `db:"code_version"`
	Fingerprint  string    `db:"fingerprint"`
	CreatedAt    time.Time `db:"created_at"`
}

func (row runRow) toRun() *run.Run {
	return &run.Run{
		ID:     core.RunID(row.ID),
		Source: row.Source,
		Fingerprint: run.RunFingerprint{
			SourceHash:   core.Hash(row.SourceHash),
			SettingsHash: core.Hash(row.SettingsHash),
			CodeVersion:  row.CodeVersion,
			Fingerprint:  core.Hash(row.Fingerprint),
		},
		CreatedAt: row.CreatedAt.UTC(),
	}
}

type metricRow struct {
	RunID      string          `db:"run_id"`
	Seq        int             `db:"seq"`
	Section    string          `db:"section"`
	Population string          `db:"population"`
	Subject    string          `db:"subject"`
	Name       string          `db:"name"`
	Value      sql.NullFloat64 `db:"value"`
	Note       string          `db:"note"`
}

func (row metricRow) toMetric() run.Metric {
	return run.Metric{
		Section:    run.Section(row.Section),
		Population: row.Population,
		Subject:    row.Subject,
		Name:       row.Name,
		Value:      row.Value.Float64,
		Defined:    row.Value.Valid,
		Note:       row.Note,
	}
}

const runColumns = `id, source, source_hash, settings_hash, code_version, fingerprint, created_at`

// SaveRun stores the run and all of its metrics in one transaction
func (r *RunRepositoryImpl) SaveRun(ctx context.Context, rn *run.Run, metrics []run.Metric) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.StorageError("begin", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO runs (`+runColumns+`)
		VALUES (:id, :source, :source_hash, :settings_hash, :code_version, :fingerprint, :created_at)
	`, runRow{
		ID:           rn.ID.String(),
		Source:       rn.Source,
		SourceHash:   rn.Fingerprint.SourceHash.String(),
		SettingsHash: rn.Fingerprint.SettingsHash.String(),
		CodeVersion:  rn.Fingerprint.CodeVersion,
		Fingerprint:  rn.Fingerprint.Fingerprint.String(),
		CreatedAt:    rn.CreatedAt,
	})
	if err != nil {
		return errors.StorageError("insert run", err)
	}

	stmt, err := tx.PrepareNamedContext(ctx, `
		INSERT INTO run_metrics (run_id, seq, section, population, subject, name, value, note)
		VALUES (:run_id, :seq, :section, :population, :subject, :name, :value, :note)
	`)
	if err != nil {
		return errors.StorageError("prepare metrics", err)
	}
	defer stmt.Close()

	for i, m := range metrics {
		row := metricRow{
			RunID:      rn.ID.String(),
			Seq:        i,
			Section:    string(m.Section),
			Population: m.Population,
			Subject:    m.Subject,
			Name:       m.Name,
			Value:      sql.NullFloat64{Float64: m.Value, Valid: m.Defined},
			Note:       m.Note,
		}
		if _, err := stmt.ExecContext(ctx, row); err != nil {
			return errors.StorageError(fmt.Sprintf("insert metric %d", i), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.StorageError("commit", err)
	}
	return nil
}

// GetRun retrieves a run by ID
func (r *RunRepositoryImpl) GetRun(ctx context.Context, id core.RunID) (*run.Run, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`
		SELECT `+runColumns+`
		FROM runs
		WHERE id = ?
	`), id.String())
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.InvalidInput(fmt.Sprintf("run %s not found", id))
	}
	if err != nil {
		return nil, errors.StorageError("get run", err)
	}
	return row.toRun(), nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (r *RunRepositoryImpl) ListRuns(ctx context.Context, limit int) ([]*run.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []runRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, errors.StorageError("list runs", err)
	}
	out := make([]*run.Run, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toRun())
	}
	return out, nil
}

// ListMetrics returns a run's metrics in the order they were saved
func (r *RunRepositoryImpl) ListMetrics(ctx context.Context, id core.RunID) ([]run.Metric, error) {
	var rows []metricRow
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT run_id, seq, section, population, subject, name, value, note
		FROM run_metrics
		WHERE run_id = ?
		ORDER BY seq
	`), id.String())
	if err != nil {
		return nil, errors.StorageError("list metrics", err)
	}
	out := make([]run.Metric, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toMetric())
	}
	return out, nil
}
