package analysis

// Config carries the experiment constants the engine must not hard-code.
type Config struct {
	// ReferencePrefix marks populations computed from real genomes; the
	// simulated counterpart has the same name without it.
	ReferencePrefix string `yaml:"reference_prefix"`

	// ReferencePositions is the held-out normalised position sample every
	// uniformity statistic is benchmarked against.
	ReferencePositions []float64 `yaml:"reference_positions"`

	// MaxSegmentLength bounds max_length for a restriction map to be acceptable.
	MaxSegmentLength int64 `yaml:"max_segment_length"`

	// OutcomeField is the boolean ground truth; empty picks tampered, then acceptable.
	OutcomeField string `yaml:"outcome_field"`

	// Features are correlated, classified and ranked, in order.
	Features []string `yaml:"features"`

	// FieldLabels are human-readable axis labels for boxplot scripts.
	FieldLabels map[string]string `yaml:"field_labels"`
}

// DefaultReferencePositions are the normalised site positions of the real
// genome used as the uniformity benchmark.
var DefaultReferencePositions = []float64{
	0.0733036819048256,
	0.32605424204929273,
	0.57947363140822,
	0.6009764906531118,
	0.8059726448851285,
}

// DefaultConfig returns the constants used by the trial producers
func DefaultConfig() Config {
	return Config{
		ReferencePrefix:    "WH1-",
		ReferencePositions: append([]float64(nil), DefaultReferencePositions...),
		MaxSegmentLength:   8000,
		Features: []string{
			"muts_in_sites",
			"total_sites",
			"total_singles",
			MutationsPerSite,
		},
		FieldLabels: map[string]string{
			"muts_in_sites":  "Silent mutations in sites",
			"total_sites":    "Sites with silent mutations",
			"total_singles":  "Sites with exactly one silent mutation",
			MutationsPerSite: "Silent mutations per mutated site",
		},
	}
}

// Label returns the human-readable name of field, falling back to the field itself.
func (c Config) Label(field string) string {
	if l, ok := c.FieldLabels[field]; ok && l != "" {
		return l
	}
	return field
}
