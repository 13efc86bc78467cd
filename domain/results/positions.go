package results

import (
	"fmt"

	"github.com/tidwall/gjson"

	"tamperstat/domain/core"
)

// Positions decodes the bracketed coordinate list, e.g. [120,4410,29003].
// The producer writes it as a JSON array of integers, so it is parsed as one.
func (r Record) Positions() ([]float64, error) {
	v, err := r.Value(FieldPositions)
	if err != nil {
		return nil, err
	}
	return DecodePositions(v.String())
}

// DecodePositions parses a position list token
func DecodePositions(token string) ([]float64, error) {
	if !gjson.Valid(token) {
		return nil, fmt.Errorf("%w: %q", core.ErrBadPositions, token)
	}
	parsed := gjson.Parse(token)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("%w: %q is not a list", core.ErrBadPositions, token)
	}

	elems := parsed.Array()
	out := make([]float64, 0, len(elems))
	for _, e := range elems {
		if e.Type != gjson.Number {
			return nil, fmt.Errorf("%w: %q has non-numeric element %s", core.ErrBadPositions, token, e.Raw)
		}
		out = append(out, e.Float())
	}
	return out, nil
}
