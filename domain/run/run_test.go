package run

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tamperstat/domain/core"
)

func TestRunFingerprint_Deterministic(t *testing.T) {
	source := core.NewHash([]byte("name tampered\nA true\n"))
	settings := core.ComputeSettingsHash(map[string]interface{}{"prefix": "WH1-", "max_segment": 8000})

	fp1 := NewRunFingerprint(source, settings, "1.0.0")
	fp2 := NewRunFingerprint(source, settings, "1.0.0")
	assert.Equal(t, fp1.Fingerprint, fp2.Fingerprint)

	// key order of the settings map does not matter
	reordered := core.ComputeSettingsHash(map[string]interface{}{"max_segment": 8000, "prefix": "WH1-"})
	assert.Equal(t, settings, reordered)

	changed := NewRunFingerprint(source, core.ComputeSettingsHash(map[string]interface{}{"prefix": "REAL-"}), "1.0.0")
	assert.NotEqual(t, fp1.Fingerprint, changed.Fingerprint)
}

func TestNewRun(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
	r := NewRun("tamper.txt", RunFingerprint{}, now)
	_, err := core.ParseRunID(r.ID.String())
	require.NoError(t, err)
	assert.Equal(t, time.UTC, r.CreatedAt.Location())
	assert.True(t, r.CreatedAt.Equal(now))
}

func TestMetrics(t *testing.T) {
	m := DefinedMetric(SectionCorrelation, "RaTG13", "muts_in_sites", "r", 0.5)
	assert.True(t, m.Defined)

	u := UndefinedMetric(SectionCorrelation, "RaTG13", "muts_in_sites", "r", errors.New("no variance"))
	assert.False(t, u.Defined)
	assert.Equal(t, "no variance", u.Note)
	assert.Zero(t, u.Value)
}

func TestExport_Validate(t *testing.T) {
	fp := NewRunFingerprint(core.NewHash([]byte("t")), core.NewHash([]byte("s")), "1.0.0")
	valid := Export{Run: NewRun("t.txt", fp, time.Now())}
	assert.NoError(t, valid.Validate())

	assert.Error(t, (&Export{}).Validate())
	assert.Error(t, (&Export{Run: &Run{Fingerprint: fp}}).Validate())
	assert.Error(t, (&Export{Run: &Run{ID: core.NewRunID()}}).Validate())
}
