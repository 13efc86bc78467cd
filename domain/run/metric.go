package run

// Section groups archived metrics by the operation that produced them
type Section string

const (
	SectionRate           Section = "rate"
	SectionCorrelation    Section = "correlation"
	SectionClassification Section = "classification"
	SectionDetector       Section = "detector"
	SectionRank           Section = "rank"
	SectionUniformity     Section = "uniformity"
)

// Metric is one named number from a run. Undefined statistics are kept
// with Defined=false and the reason in Note, never as zero.
type Metric struct {
	Section    Section `json:"section"`
	Population string  `json:"population"`
	Subject    string  `json:"subject"`
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	Defined    bool    `json:"defined"`
	Note       string  `json:"note,omitempty"`
}

// DefinedMetric builds a metric holding v
func DefinedMetric(section Section, population, subject, name string, v float64) Metric {
	return Metric{Section: section, Population: population, Subject: subject, Name: name, Value: v, Defined: true}
}

// UndefinedMetric records why name could not be computed
func UndefinedMetric(section Section, population, subject, name string, reason error) Metric {
	m := Metric{Section: section, Population: population, Subject: subject, Name: name}
	if reason != nil {
		m.Note = reason.Error()
	}
	return m
}
