package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"tamperstat/domain/core"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
		exit int
	}{
		{"parse", core.NewParseError(core.ErrArity, 3, "2 tokens"), CodeInvalidInput, 2},
		{"missing field", core.NewMissingFieldError("tampered", "outcome"), CodeInvalidInput, 2},
		{"structural", fmt.Errorf("WH1-A: %w", core.ErrReferenceArity), CodeInvalidInput, 2},
		{"undefined", core.NewUndefinedError(core.ErrNoVariance, "A", "count"), CodeUndefined, 1},
		{"config", ConfigInvalid("bad prefix"), CodeConfigInvalid, 2},
		{"storage", StorageError("insert", stderrors.New("locked")), CodeStorageError, 3},
		{"plain", stderrors.New("boom"), CodeInternalError, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, Classify(tt.err))
			assert.Equal(t, tt.exit, ExitCode(tt.err))
		})
	}
	assert.Equal(t, 0, ExitCode(nil))
}

func TestWrapKeepsChain(t *testing.T) {
	err := Wrapf(core.NewParseError(core.ErrFieldType, 4, "tampered=maybe"), "loading %s", "t.txt")
	assert.Equal(t, CodeInvalidInput, GetCode(err))
	assert.ErrorIs(t, err, core.ErrFieldType)
	assert.Contains(t, err.Error(), "loading t.txt")

	outer := fmt.Errorf("run: %w", WithCode(CodeExportError, err))
	assert.True(t, IsAppError(outer))
	assert.Equal(t, CodeExportError, GetCode(outer))
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("x")))
	assert.Nil(t, Wrap(nil, "nothing"))
}
