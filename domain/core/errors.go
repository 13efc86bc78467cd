package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Parse errors: the table itself is malformed. Always fatal.
	ErrParse          = errors.New("malformed results table")
	ErrArity          = fmt.Errorf("%w: row arity does not match header", ErrParse)
	ErrDuplicateField = fmt.Errorf("%w: duplicate field in header", ErrParse)
	ErrFieldType      = fmt.Errorf("%w: field has wrong type", ErrParse)
	ErrEmptyTable     = fmt.Errorf("%w: no header line", ErrParse)
	ErrBadPositions   = fmt.Errorf("%w: malformed position list", ErrParse)

	// Statistical undefined values: eligible for per-item skip and report
	ErrUndefined        = errors.New("statistic undefined")
	ErrInsufficientData = fmt.Errorf("%w: insufficient data", ErrUndefined)
	ErrNoVariance       = fmt.Errorf("%w: no variance", ErrUndefined)
	ErrDivisionByZero   = fmt.Errorf("%w: division by zero", ErrUndefined)

	// Structural invariant violations: the experimental design is corrupt
	ErrStructural         = errors.New("experiment structure violated")
	ErrReferenceArity     = fmt.Errorf("%w: reference population must hold exactly one record", ErrStructural)
	ErrMissingCounterpart = fmt.Errorf("%w: no simulated population for reference", ErrStructural)

	// Schema errors
	ErrMissingField   = errors.New("field not declared by table header")
	ErrUnknownFeature = errors.New("unknown feature")
)

// NewParseError reports a parse failure at a 1-based line of the input.
func NewParseError(kind error, line int, detail string) error {
	return fmt.Errorf("%w (line %d): %s", kind, line, detail)
}

// NewMissingFieldError names the absent field and what needed it.
func NewMissingFieldError(field, usedBy string) error {
	return fmt.Errorf("%w: %q required by %s", ErrMissingField, field, usedBy)
}

// NewUndefinedError attaches the population/feature pair to a statistical gap.
func NewUndefinedError(kind error, population, feature string) error {
	return fmt.Errorf("%w for %s/%s", kind, population, feature)
}

// Error checking helpers
func IsParseError(err error) bool {
	return errors.Is(err, ErrParse)
}

func IsUndefined(err error) bool {
	return errors.Is(err, ErrUndefined)
}

func IsStructuralError(err error) bool {
	return errors.Is(err, ErrStructural)
}

func IsMissingField(err error) bool {
	return errors.Is(err, ErrMissingField) || errors.Is(err, ErrUnknownFeature)
}

// IsFatal reports whether err must stop the whole run rather than one item.
func IsFatal(err error) bool {
	return err != nil && !IsUndefined(err)
}
