package analysis

import (
	"fmt"
	"sort"

	"tamperstat/domain/core"
	"tamperstat/domain/results"
)

// Feature extracts one numeric value from a record. ok=false means the value
// is undefined for that record and the record must be skipped, not imputed.
type Feature struct {
	Name     string
	Requires []string
	extract  func(results.Record) (v float64, ok bool, err error)
}

// Value evaluates the feature on r
func (f Feature) Value(r results.Record) (float64, bool, error) {
	return f.extract(r)
}

func intFeature(field string) Feature {
	return Feature{
		Name:     field,
		Requires: []string{field},
		extract: func(r results.Record) (float64, bool, error) {
			v, err := r.Int(field)
			if err != nil {
				return 0, false, err
			}
			return float64(v), true, nil
		},
	}
}

// MutationsPerSite is muts_in_sites/total_sites, undefined when no sites were mutated.
const MutationsPerSite = "mutations_per_site"

var mutationsPerSite = Feature{
	Name:     MutationsPerSite,
	Requires: []string{results.FieldMutsInSites, results.FieldTotalSites},
	extract: func(r results.Record) (float64, bool, error) {
		muts, err := r.Int(results.FieldMutsInSites)
		if err != nil {
			return 0, false, err
		}
		sites, err := r.Int(results.FieldTotalSites)
		if err != nil {
			return 0, false, err
		}
		if sites == 0 {
			return 0, false, nil
		}
		return float64(muts) / float64(sites), true, nil
	},
}

var featureRegistry = map[string]Feature{
	results.FieldCount:        intFeature(results.FieldCount),
	results.FieldMaxLength:    intFeature(results.FieldMaxLength),
	results.FieldMutsInSites:  intFeature(results.FieldMutsInSites),
	results.FieldTotalSites:   intFeature(results.FieldTotalSites),
	results.FieldTotalSingles: intFeature(results.FieldTotalSingles),
	results.FieldAdded:        intFeature(results.FieldAdded),
	results.FieldRemoved:      intFeature(results.FieldRemoved),
	results.FieldNumMuts:      intFeature(results.FieldNumMuts),
	results.FieldGenomeLen:    intFeature(results.FieldGenomeLen),
	MutationsPerSite:          mutationsPerSite,
}

// FeatureNames lists every registered feature, sorted
func FeatureNames() []string {
	names := make([]string, 0, len(featureRegistry))
	for name := range featureRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupFeature finds a feature by name without checking any schema.
func LookupFeature(name string) (Feature, error) {
	f, ok := featureRegistry[name]
	if !ok {
		return Feature{}, fmt.Errorf("%w: %q", core.ErrUnknownFeature, name)
	}
	return f, nil
}

// ResolveFeature looks up name and checks that schema declares every field it
// reads, so a bad selector fails before any statistic is computed.
func ResolveFeature(schema *results.Schema, name string) (Feature, error) {
	f, err := LookupFeature(name)
	if err != nil {
		return Feature{}, err
	}
	if err := schema.Require("feature "+name, f.Requires...); err != nil {
		return Feature{}, err
	}
	return f, nil
}

// ResolveFeatures resolves a list of names in order
func ResolveFeatures(schema *results.Schema, names []string) ([]Feature, error) {
	out := make([]Feature, 0, len(names))
	for _, name := range names {
		f, err := ResolveFeature(schema, name)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// ResolveOutcome picks the binary ground-truth column. An empty configured
// name selects tampered when declared, else acceptable.
func ResolveOutcome(schema *results.Schema, configured string) (string, error) {
	if configured != "" {
		if err := schema.Require("outcome", configured); err != nil {
			return "", err
		}
		if kind, ok := results.DeclaredKinds[configured]; ok && kind != results.KindBool {
			return "", fmt.Errorf("%w: outcome %q is not boolean", core.ErrFieldType, configured)
		}
		return configured, nil
	}
	for _, candidate := range []string{results.FieldTampered, results.FieldAcceptable} {
		if schema.Has(candidate) {
			return candidate, nil
		}
	}
	return "", core.NewMissingFieldError(results.FieldTampered+"|"+results.FieldAcceptable, "outcome")
}
