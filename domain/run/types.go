package run

import (
	"fmt"
	"time"

	"tamperstat/domain/core"
)

// Run is one archived evaluation of a results table
type Run struct {
	ID          core.RunID     `json:"run_id"`
	Source      string         `json:"source"`
	Fingerprint RunFingerprint `json:"fingerprint"`
	CreatedAt   time.Time      `json:"created_at"`
}

// NewRun stamps a fresh identifier onto an evaluation of source
func NewRun(source string, fingerprint RunFingerprint, now time.Time) *Run {
	return &Run{
		ID:          core.NewRunID(),
		Source:      source,
		Fingerprint: fingerprint,
		CreatedAt:   now.UTC(),
	}
}

// RunFingerprint lets two runs over the same table and settings be recognised
// as replays of each other.
type RunFingerprint struct {
	SourceHash   core.Hash `json:"source_hash"`
	SettingsHash core.Hash `json:"settings_hash"`
	CodeVersion  string    `json:"code_version"`
	Fingerprint  core.Hash `json:"fingerprint"` // Hash of all above
}

// NewRunFingerprint creates a fingerprint from the input table hash and settings hash
func NewRunFingerprint(sourceHash, settingsHash core.Hash, codeVersion string) RunFingerprint {
	data := fmt.Sprintf("source:%s|settings:%s|code:%s", sourceHash, settingsHash, codeVersion)
	return RunFingerprint{
		SourceHash:   sourceHash,
		SettingsHash: settingsHash,
		CodeVersion:  codeVersion,
		Fingerprint:  core.NewHash([]byte(data)),
	}
}

// Export is the portable JSON form of an archived run and its metrics
type Export struct {
	Run     *Run     `json:"run"`
	Metrics []Metric `json:"metrics"`
}

// Validate checks that an export can be stored as-is
func (e *Export) Validate() error {
	if e.Run == nil {
		return fmt.Errorf("export has no run")
	}
	if core.ID(e.Run.ID).IsEmpty() {
		return fmt.Errorf("export run has no id")
	}
	if e.Run.Fingerprint.Fingerprint.IsEmpty() {
		return fmt.Errorf("run %s has no fingerprint", e.Run.ID)
	}
	return nil
}
