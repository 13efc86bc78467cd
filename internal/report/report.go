package report

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"tamperstat/domain/core"
	"tamperstat/internal/analysis"
)

// Report collects every section computed over one results table. Nil or
// empty sections were not applicable to the table's schema; Skipped says why.
type Report struct {
	Source  string
	RunID   core.RunID
	Outcome string

	Rates         []analysis.Rate
	FilteredRates []analysis.Rate
	Sites         []analysis.SiteChange
	Violations    []analysis.AcceptableViolation

	Correlations    []analysis.CorrelationRow
	Classifications []analysis.ClassificationRow
	Detector        []analysis.ClassificationRow

	Ranks     []analysis.Rank
	RankTally analysis.Tally

	Uniformity *analysis.UniformityReport

	Skipped []string
}

// Skip records a section that could not run
func (r *Report) Skip(section string, reason error) {
	r.Skipped = append(r.Skipped, fmt.Sprintf("%s: %v", section, reason))
}

// Markdown renders the report as a GitHub-style Markdown document
func (r *Report) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Results for %s\n\n", r.Source)
	if r.RunID != "" {
		fmt.Fprintf(&b, "Run `%s`", r.RunID)
		if r.Outcome != "" {
			fmt.Fprintf(&b, ", outcome `%s`", r.Outcome)
		}
		b.WriteString("\n\n")
	} else if r.Outcome != "" {
		fmt.Fprintf(&b, "Outcome `%s`\n\n", r.Outcome)
	}

	if len(r.Rates) > 0 {
		b.WriteString("## Acceptance rates\n\n")
		mdTable(&b, []string{"population", "good", "total", "percent"}, rateRows(r.Rates))
		if r.FilteredRates != nil {
			b.WriteString("### Filtered\n\n")
			mdTable(&b, []string{"population", "good", "total", "percent"}, rateRows(r.FilteredRates))
		}
	}

	if len(r.Sites) > 0 {
		b.WriteString("## Site changes\n\n")
		rows := make([][]string, 0, len(r.Sites))
		for _, s := range r.Sites {
			rows = append(rows, []string{s.Population, fmt.Sprint(s.N), num(s.MeanAdded), num(s.MeanRemoved)})
		}
		mdTable(&b, []string{"population", "n", "mean added", "mean removed"}, rows)
	}

	if r.Violations != nil {
		b.WriteString("## Acceptable flag check\n\n")
		if len(r.Violations) == 0 {
			b.WriteString("No violations.\n\n")
		}
		for _, v := range r.Violations {
			fmt.Fprintf(&b, "- %s\n", v)
		}
		if len(r.Violations) > 0 {
			b.WriteString("\n")
		}
	}

	if len(r.Correlations) > 0 {
		b.WriteString("## Point-biserial correlation\n\n")
		mdTable(&b, correlationHeaders, stringRows(correlationRows(r.Correlations)))
	}

	if len(r.Classifications) > 0 {
		b.WriteString("## Mean-threshold classifier\n\n")
		mdTable(&b, classificationHeaders, stringRows(classificationRows(r.Classifications)))
	}

	if len(r.Detector) > 0 {
		b.WriteString("## Detector\n\n")
		mdTable(&b, classificationHeaders, stringRows(classificationRows(r.Detector)))
	}

	if len(r.Ranks) > 0 {
		b.WriteString("## Reference rank\n\n")
		mdTable(&b, rankHeaders, stringRows(rankRows(r.Ranks)))
		fmt.Fprintf(&b, "%s\n\n", TallyLine(r.RankTally))
	}

	if r.Uniformity != nil {
		b.WriteString("## Uniformity\n\n")
		fmt.Fprintf(&b, "%s\n\n", UniformityReferenceLine(r.Uniformity.Reference))
		mdTable(&b, uniformityHeaders, stringRows(uniformityRows(r.Uniformity.Rows)))
	}

	if len(r.Skipped) > 0 {
		b.WriteString("## Skipped\n\n")
		for _, s := range r.Skipped {
			fmt.Fprintf(&b, "- %s\n", s)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// HTML renders the Markdown report as a standalone page
func (r *Report) HTML() []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: "Results for " + r.Source,
	})
	return markdown.ToHTML([]byte(r.Markdown()), p, renderer)
}

func mdTable(b *strings.Builder, headers []string, rows [][]string) {
	b.WriteString("| " + strings.Join(headers, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(headers)) + "\n")
	for _, row := range rows {
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	b.WriteString("\n")
}

func rateRows(rates []analysis.Rate) [][]string {
	rows := make([][]string, 0, len(rates))
	for _, r := range rates {
		rows = append(rows, []string{r.Population, fmt.Sprint(r.Good), fmt.Sprint(r.Total), fmt.Sprintf("%.2f%%", r.Percent())})
	}
	return rows
}

func stringRows(rows [][]interface{}) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = make([]string, len(row))
		for j, v := range row {
			switch x := v.(type) {
			case float64:
				out[i][j] = num(x)
			default:
				out[i][j] = fmt.Sprint(x)
			}
		}
	}
	return out
}
