package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tamperstat/adapters/table"
	"tamperstat/domain/core"
	"tamperstat/domain/results"
	"tamperstat/internal/analysis"
)

const tamperTable = `name tampered muts_in_sites total_sites
WH1-RaTG13 false 9 4
RaTG13 true 3 2
RaTG13 false 1 1
RaTG13 true 5 3
BtSY2 true 3 0
BtSY2 true 4 0
`

func buildReport(t *testing.T) *Report {
	t.Helper()
	tbl, err := table.ParseAll(table.FromString("tamper.txt", tamperTable))
	require.NoError(t, err)
	features, err := analysis.ResolveFeatures(tbl.Schema, []string{"muts_in_sites", analysis.MutationsPerSite})
	require.NoError(t, err)

	rep := &Report{Source: "tamper.txt", Outcome: results.FieldTampered}
	rep.Correlations, err = analysis.CorrelateTable(tbl, results.FieldTampered, features)
	require.NoError(t, err)
	rep.Classifications, err = analysis.ClassifyTable(tbl, results.FieldTampered, features)
	require.NoError(t, err)

	split, err := analysis.SplitReferences(tbl, "WH1-")
	require.NoError(t, err)
	rep.Ranks, err = analysis.RankReferences(split, features[0], &rep.RankTally)
	require.NoError(t, err)
	rep.Skip("uniformity", core.NewMissingFieldError("positions", "uniformity test"))
	return rep
}

func TestLines(t *testing.T) {
	rep := buildReport(t)

	assert.Equal(t, "RaTG13 muts_in_sites r=0.866025 p=0.333333 n=3", CorrelationLine(rep.Correlations[2]))
	assert.True(t, strings.HasPrefix(CorrelationLine(rep.Correlations[4]), "BtSY2 muts_in_sites undefined ("))

	assert.Equal(t, "WH1-RaTG13 muts_in_sites value=9 exceeding=0/2 fraction=0 cumulative=0/2", RankLine(rep.Ranks[0]))
	assert.Equal(t, "overall exceeding=0/2 fraction=0", TallyLine(rep.RankTally))
	assert.Equal(t, "pop: added=2.5 removed=1", SiteLine(analysis.SiteChange{Population: "pop", MeanAdded: 2.5, MeanRemoved: 1}))
}

func TestMarkdownAndHTML(t *testing.T) {
	rep := buildReport(t)
	md := rep.Markdown()

	assert.Contains(t, md, "# Results for tamper.txt")
	assert.Contains(t, md, "## Point-biserial correlation")
	assert.Contains(t, md, "| RaTG13 | muts_in_sites | 0.866025 | 0.333333 | 3 |")
	assert.Contains(t, md, "## Reference rank")
	assert.Contains(t, md, "- uniformity: field not declared by table header")
	assert.NotContains(t, md, "## Acceptance rates")

	page := string(rep.HTML())
	assert.Contains(t, page, "<title>Results for tamper.txt</title>")
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "<td>RaTG13</td>")
}

func TestSheetsAndMetrics(t *testing.T) {
	rep := buildReport(t)

	var names []string
	for _, s := range rep.Sheets() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Correlation", "Classifier", "Rank"}, names)

	var undefinedCount, definedCount int
	for _, m := range rep.Metrics() {
		if m.Defined {
			definedCount++
		} else {
			undefinedCount++
			assert.NotEmpty(t, m.Note)
		}
	}
	assert.Positive(t, definedCount)
	assert.Positive(t, undefinedCount)
}
