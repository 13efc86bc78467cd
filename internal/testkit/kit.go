package testkit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap/zaptest"

	"tamperstat/domain/core"
	"tamperstat/domain/run"
	"tamperstat/internal"
)

// NewTestLogger routes log output through t so it only shows for failing tests.
func NewTestLogger(t zaptest.TestingT) *internal.Logger {
	return internal.NewLoggerFromZap(zaptest.NewLogger(t), internal.LogLevelDebug)
}

// TrialFiles are the synthetic tables written by WriteTrialFiles
type TrialFiles struct {
	Spacing string
	Tamper  string
}

// WriteTrialFiles writes a spacing table and a tamper table into dir.
func WriteTrialFiles(dir string, config TrialGeneratorConfig) (TrialFiles, error) {
	files := TrialFiles{
		Spacing: filepath.Join(dir, "spacing.txt"),
		Tamper:  filepath.Join(dir, "tamper.txt"),
	}
	write := func(path string, fill func(*TrialGenerator, *os.File) error) error {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := fill(NewTrialGenerator(config), f); err != nil {
			f.Close()
			return fmt.Errorf("writing %s: %w", path, err)
		}
		return f.Close()
	}
	if err := write(files.Spacing, func(g *TrialGenerator, f *os.File) error { return g.WriteSpacing(f) }); err != nil {
		return files, err
	}
	if err := write(files.Tamper, func(g *TrialGenerator, f *os.File) error { return g.WriteTamper(f) }); err != nil {
		return files, err
	}
	return files, nil
}

// InMemoryArchive implements ArchiveRepository with in-memory storage
type InMemoryArchive struct {
	runs    map[core.RunID]run.Run
	metrics map[core.RunID][]run.Metric
	mu      sync.RWMutex
}

func NewInMemoryArchive() *InMemoryArchive {
	return &InMemoryArchive{
		runs:    make(map[core.RunID]run.Run),
		metrics: make(map[core.RunID][]run.Metric),
	}
}

func (a *InMemoryArchive) SaveRun(ctx context.Context, r *run.Run, metrics []run.Metric) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.runs[r.ID]; exists {
		return fmt.Errorf("run %s already archived", r.ID)
	}
	a.runs[r.ID] = *r
	a.metrics[r.ID] = append([]run.Metric(nil), metrics...)
	return nil
}

func (a *InMemoryArchive) GetRun(ctx context.Context, id core.RunID) (*run.Run, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	r, ok := a.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s not found", id)
	}
	return &r, nil
}

func (a *InMemoryArchive) ListRuns(ctx context.Context, limit int) ([]*run.Run, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]*run.Run, 0, len(a.runs))
	for _, r := range a.runs {
		r := r
		out = append(out, &r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (a *InMemoryArchive) ListMetrics(ctx context.Context, id core.RunID) ([]run.Metric, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]run.Metric(nil), a.metrics[id]...), nil
}
